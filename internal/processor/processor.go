// Package processor turns one JSON file into one JSONL line.
//
// Each call to [Process] reads a single file, parses it, optionally reduces
// it to selected fields, and serializes it. Failures never escape as errors
// or panics; they are reported in the returned [Result].
package processor

import (
	"fmt"
	"os"

	"github.com/backmassage/jconvert/internal/config"
	"github.com/backmassage/jconvert/internal/extract"
)

// Options configures processing. Build it once per run with [NewOptions]
// and share it read-only between workers.
type Options struct {
	Fields        []string // nil = pass the document through unchanged.
	Pretty        bool     // Indented instead of compact output.
	ValidateOnly  bool     // Parse only; report OutcomeValid on success.
	MmapThreshold int64    // Files of at least this size are memory-mapped.
}

// NewOptions returns Options with the default mmap threshold.
func NewOptions(fields []string, pretty, validateOnly bool) Options {
	return Options{
		Fields:        fields,
		Pretty:        pretty,
		ValidateOnly:  validateOnly,
		MmapThreshold: config.DefaultMmapThreshold,
	}
}

// Outcome classifies a processed file.
type Outcome int

const (
	OutcomeFailed     Outcome = iota // Reason holds the failure.
	OutcomeSerialized                // Line holds the converted record.
	OutcomeValid                     // Validate-only success.
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSerialized:
		return "serialized"
	case OutcomeValid:
		return "valid"
	default:
		return "failed"
	}
}

// Result is the outcome of processing one file. Line is set only for
// OutcomeSerialized and Reason only for OutcomeFailed.
type Result struct {
	Path     string
	Outcome  Outcome
	Line     string
	Reason   string
	FileSize int64 // Size at stat time; 0 when stat failed.
}

// OK reports whether the file was converted or validated.
func (r Result) OK() bool { return r.Outcome != OutcomeFailed }

// Error-class prefixes used in Result.Reason.
const (
	reasonOpen      = "file open error"
	reasonParse     = "parse error"
	reasonSerialize = "serialize error"
	reasonInternal  = "internal error"
)

// Process reads, parses, and converts the file at path.
func Process(path string, opts Options) (res Result) {
	res.Path = path
	if fi, err := os.Stat(path); err == nil {
		res.FileSize = fi.Size()
	}

	defer func() {
		if r := recover(); r != nil {
			res = failed(path, res.FileSize, reasonInternal, fmt.Errorf("%v", r))
		}
	}()

	doc, release, failure := load(path, res.FileSize, opts.MmapThreshold)
	if failure != nil {
		return *failure
	}
	// Mapped bytes stay valid until the document is serialized.
	defer release()

	if opts.ValidateOnly {
		res.Outcome = OutcomeValid
		return res
	}

	if opts.Fields != nil {
		doc = extract.Fields(doc, opts.Fields)
	}

	line, err := encode(doc, opts.Pretty)
	if err != nil {
		return failed(path, res.FileSize, reasonSerialize, err)
	}
	res.Outcome = OutcomeSerialized
	res.Line = line
	return res
}

// ValidateFile checks that path holds one valid JSON document.
func ValidateFile(path string) Result {
	return Process(path, NewOptions(nil, false, true))
}

// load opens and parses path, choosing the mapped or buffered strategy by
// size. A non-nil Result is a failure to return as-is; otherwise release
// must be called once doc is no longer used.
func load(path string, size, threshold int64) (doc any, release func(), failure *Result) {
	noop := func() {}
	fail := func(class string, err error) (any, func(), *Result) {
		r := failed(path, size, class, err)
		return nil, noop, &r
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(reasonOpen, err)
	}
	defer f.Close()

	if size >= threshold {
		data, unmap, err := mapFile(f, size)
		if err != nil {
			return fail(reasonOpen, fmt.Errorf("memory map failed: %w", err))
		}
		release = func() { _ = unmap() }
		doc, err = decodeBytes(data)
		if err != nil {
			release()
			return fail(reasonParse, err)
		}
		return doc, release, nil
	}

	doc, err = decodeStream(f)
	if err != nil {
		return fail(reasonParse, err)
	}
	return doc, noop, nil
}

func failed(path string, size int64, class string, err error) Result {
	return Result{
		Path:     path,
		Outcome:  OutcomeFailed,
		Reason:   class + ": " + err.Error(),
		FileSize: size,
	}
}

// MmapSupported reports whether large files are memory-mapped on this
// platform. Elsewhere they are read whole into memory.
func MmapSupported() bool { return mmapSupported }
