package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/jconvert/internal/config"
	"github.com/backmassage/jconvert/internal/display"
	"github.com/backmassage/jconvert/internal/logging"
	"github.com/backmassage/jconvert/internal/output"
	"github.com/backmassage/jconvert/internal/pattern"
	"github.com/backmassage/jconvert/internal/processor"
	"github.com/backmassage/jconvert/internal/term"
)

// ErrOutputExists is returned when the destination exists in error mode.
var ErrOutputExists = output.ErrOutputExists

// Mode identifies what a run did.
type Mode string

const (
	ModeConvert  Mode = "convert"
	ModeValidate Mode = "validate"
	ModeDryRun   Mode = "dry-run"
)

// Report describes a finished run.
type Report struct {
	RunID       string
	Mode        Mode
	Files       []string  // Discovered inputs, sorted.
	Stats       *RunStats
	Failures    []Failure // Sorted by path.
	Output      string    // Destination path; empty unless converting.
	Checksum    uint64    // xxhash64 of the lines written this run.
	Interrupted bool
}

// Listing is where the dry-run file list is printed.
var Listing io.Writer = os.Stdout

// Run discovers input files and converts, validates, or lists them
// according to cfg. The error return is reserved for configuration and
// destination failures; per-file problems are reported in the Report.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Report, error) {
	m, err := pattern.New(cfg.Pattern)
	if err != nil {
		return nil, err
	}

	files, err := Discover(cfg.InputDir, cfg.MaxDepth, m)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", cfg.InputDir, err)
	}

	rep := &Report{
		RunID: uuid.NewString(),
		Mode:  modeOf(cfg),
		Files: files,
		Stats: NewRunStats(len(files)),
	}
	log.Debug(log.Verbose(), "Run ID: %s", rep.RunID)

	if len(files) == 0 {
		if m.HasPattern() {
			log.Warn("No JSON files matching %q found in %s", m.String(), cfg.InputDir)
		} else {
			log.Warn("No JSON files found in %s", cfg.InputDir)
		}
		return rep, nil
	}
	log.Info("Found %s JSON files", display.FormatCount(int64(len(files))))

	switch rep.Mode {
	case ModeDryRun:
		listFiles(Listing, files)
		return rep, nil
	case ModeValidate:
		return rep, runValidate(ctx, cfg, log, rep)
	default:
		return rep, runConvert(ctx, cfg, log, rep)
	}
}

func modeOf(cfg *config.Config) Mode {
	switch {
	case cfg.DryRun:
		return ModeDryRun
	case cfg.ValidateOnly:
		return ModeValidate
	default:
		return ModeConvert
	}
}

// listFiles prints the numbered dry-run listing.
func listFiles(w io.Writer, files []string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Files to process:")
	for i, f := range files {
		fmt.Fprintf(w, "  %d. %s\n", i+1, filepath.Base(f))
	}
	fmt.Fprintf(w, "\n%s files would be processed.\n", display.FormatCount(int64(len(files))))
}

func newProgress(cfg *config.Config, label string, total int) *display.Progress {
	return display.NewProgress(os.Stdout, label, total, term.IsTerminal(os.Stdout) && !cfg.Verbose)
}

// runValidate parses every file without writing output. Workers fold their
// outcomes into the stats directly.
func runValidate(ctx context.Context, cfg *config.Config, log *logging.Logger, rep *Report) error {
	opts := processor.NewOptions(nil, false, true)
	opts.MmapThreshold = cfg.MmapBytes()
	stats := rep.Stats

	var mu sync.Mutex
	work := func(path string) processor.Result {
		res := processor.Process(path, opts)
		if res.OK() {
			stats.IncSuccess()
			stats.AddBytesRead(res.FileSize)
			return res
		}
		stats.IncInvalid()
		mu.Lock()
		rep.Failures = append(rep.Failures, Failure{Path: res.Path, Reason: res.Reason})
		mu.Unlock()
		return res
	}

	log.Info("Validating with %d workers", workers(cfg))
	progress := newProgress(cfg, "Validating", len(rep.Files))
	collect := func(res processor.Result) error {
		progress.Update(int(stats.Processed()), int(stats.Failed()), filepath.Base(res.Path))
		if res.OK() {
			log.Debug(cfg.Verbose, "valid: %s", filepath.Base(res.Path))
		}
		return nil
	}
	runErr := processAll(ctx, rep.Files, workers(cfg), work, collect)
	progress.Clear()
	if runErr != nil {
		return runErr
	}

	return finish(ctx, cfg, log, rep, func() {
		logSummary(log, "Validation summary", stats.ValidationSummary())
		if n := stats.Invalid(); n == 0 {
			log.Success("All files are valid")
		} else {
			log.Warn("%s files invalid", display.FormatCount(n))
		}
	})
}

// runConvert processes every file and appends each serialized record to the
// destination from the single collector goroutine.
func runConvert(ctx context.Context, cfg *config.Config, log *logging.Logger, rep *Report) error {
	if err := output.CheckDestination(cfg.OutputPath, cfg.WriteMode); err != nil {
		return err
	}
	sink, err := output.Open(cfg.OutputPath, cfg.WriteMode, cfg.Compression)
	if err != nil {
		return err
	}
	rep.Output = cfg.OutputPath

	opts := processor.NewOptions(cfg.SelectedFields(), cfg.Pretty, false)
	opts.MmapThreshold = cfg.MmapBytes()
	stats := rep.Stats

	log.Info("Converting with %d workers -> %s (%s, %s)",
		workers(cfg), cfg.OutputPath, cfg.WriteMode, sink.Compression())
	progress := newProgress(cfg, "Converting", len(rep.Files))

	work := func(path string) processor.Result { return processor.Process(path, opts) }
	collect := func(res processor.Result) error {
		if res.Outcome == processor.OutcomeSerialized {
			n, err := sink.WriteLine(res.Line)
			if err != nil {
				return err
			}
			stats.AddBytesRead(res.FileSize)
			stats.AddBytesWritten(n)
			stats.IncSuccess()
			log.Debug(cfg.Verbose, "converted: %s", filepath.Base(res.Path))
		} else {
			stats.IncError()
			rep.Failures = append(rep.Failures, Failure{Path: res.Path, Reason: res.Reason})
		}
		progress.Update(int(stats.Processed()), int(stats.Failed()), filepath.Base(res.Path))
		return nil
	}

	runErr := processAll(ctx, rep.Files, workers(cfg), work, collect)
	progress.Clear()
	closeErr := sink.Close()
	if err := errors.Join(runErr, closeErr); err != nil {
		return fmt.Errorf("output %s: %w", cfg.OutputPath, err)
	}
	rep.Checksum = sink.Checksum()

	return finish(ctx, cfg, log, rep, func() {
		logSummary(log, "Conversion summary", stats.ConversionSummary())
		log.Success("Saved %s lines to %s (xxh64 %016x)",
			display.FormatCount(sink.Lines()), cfg.OutputPath, rep.Checksum)
	})
}

// finish reports failures, writes the error log, and prints the summary.
func finish(ctx context.Context, cfg *config.Config, log *logging.Logger, rep *Report, summary func()) error {
	sortFailures(rep.Failures)

	if ctx.Err() != nil {
		rep.Interrupted = true
		log.Warn("Interrupted: %d of %d files processed", rep.Stats.Processed(), rep.Stats.Total)
	}

	logFailures(log, rep.Failures, cfg.Verbose)

	if cfg.ErrorLog != "" {
		if err := WriteErrorLog(cfg.ErrorLog, rep.RunID, rep.Failures, time.Now()); err != nil {
			return err
		}
		log.Info("Error log written: %s", cfg.ErrorLog)
	}

	summary()
	return nil
}

func logFailures(log *logging.Logger, failures []Failure, verbose bool) {
	if len(failures) == 0 {
		return
	}
	log.Warn("Files with errors:")
	for _, f := range failures {
		if verbose {
			log.Warn("  %s: %s", filepath.Base(f.Path), f.Reason)
		} else {
			log.Warn("  %s", filepath.Base(f.Path))
		}
	}
}

func logSummary(log *logging.Logger, title string, lines []string) {
	sep := strings.Repeat("=", 50)
	log.Info("%s", sep)
	log.Info("%s", title)
	log.Info("%s", sep)
	for _, l := range lines {
		log.Info("  %s", l)
	}
	log.Info("%s", sep)
}

func workers(cfg *config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return DefaultWorkers()
}
