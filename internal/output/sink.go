// Package output owns the JSONL destination: write-mode handling, optional
// stream compression, serialized line writes, and a running checksum.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/backmassage/jconvert/internal/config"
)

// ErrOutputExists is returned in error mode when the destination is already
// present.
var ErrOutputExists = errors.New("output file already exists")

const bufferSize = 64 * 1024

// CheckDestination applies the write-mode policy before any processing
// starts. Only error mode can fail here.
func CheckDestination(path string, mode config.WriteMode) error {
	if mode != config.WriteError {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s (use --mode overwrite or append)", ErrOutputExists, path)
	}
	return nil
}

// ResolveCompression maps CompressAuto to a concrete codec by the output
// file extension. Explicit choices are returned unchanged.
func ResolveCompression(path string, c config.Compression) config.Compression {
	if c != config.CompressAuto && c != "" {
		return c
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return config.CompressGzip
	case ".zst", ".zstd":
		return config.CompressZstd
	case ".lz4":
		return config.CompressLZ4
	case ".s2":
		return config.CompressS2
	default:
		return config.CompressNone
	}
}

// Sink is an open JSONL destination. WriteLine may be called from several
// goroutines; each line lands whole.
type Sink struct {
	mu      sync.Mutex
	path    string
	codec   config.Compression
	file    *os.File
	comp    io.WriteCloser // nil when uncompressed
	buf     *bufio.Writer
	digest  *xxhash.Digest
	lines   int64
	written int64
	closed  bool
}

// Open opens path according to mode and wraps it with the requested
// compression. In append mode a compressed file gains a new gzip member or
// zstd/lz4/s2 stream after the existing ones.
func Open(path string, mode config.WriteMode, c config.Compression) (*Sink, error) {
	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case config.WriteAppend:
		flags |= os.O_APPEND
	case config.WriteError:
		flags |= os.O_EXCL
	default:
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}

	s := &Sink{
		path:   path,
		codec:  ResolveCompression(path, c),
		file:   f,
		digest: xxhash.New(),
	}

	var w io.Writer = f
	switch s.codec {
	case config.CompressGzip:
		s.comp = gzip.NewWriter(f)
	case config.CompressZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		s.comp = enc
	case config.CompressLZ4:
		s.comp = lz4.NewWriter(f)
	case config.CompressS2:
		s.comp = s2.NewWriter(f)
	}
	if s.comp != nil {
		w = s.comp
	}
	s.buf = bufio.NewWriterSize(w, bufferSize)
	return s, nil
}

// WriteLine appends line and a newline. It returns the uncompressed byte
// count, len(line)+1.
func (s *Sink) WriteLine(line string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("write to closed output %s", s.path)
	}
	if _, err := s.buf.WriteString(line); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	_, _ = s.digest.WriteString(line)
	_, _ = s.digest.Write([]byte{'\n'})

	n := int64(len(line)) + 1
	s.lines++
	s.written += n
	return n, nil
}

// Compression returns the resolved codec.
func (s *Sink) Compression() config.Compression { return s.codec }

// Lines returns the number of lines written by this sink.
func (s *Sink) Lines() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Written returns the uncompressed bytes written by this sink.
func (s *Sink) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Checksum returns the xxhash64 of the uncompressed bytes written by this
// sink. Content already present in append mode is not included.
func (s *Sink) Checksum() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digest.Sum64()
}

// Close flushes the buffer, finishes the compressed stream, and closes the
// file. The first error wins; later calls return nil.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if err := s.buf.Flush(); err != nil {
		firstErr = fmt.Errorf("flush output: %w", err)
	}
	if s.comp != nil {
		if err := s.comp.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("finish %s stream: %w", s.codec, err)
		}
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close output: %w", err)
	}
	return firstErr
}
