// Package config holds runtime configuration: defaults, config-file and
// environment overrides, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/jconvert/internal/extract"
)

// --- Enum types for validated string fields ---

// WriteMode is the policy for an existing output file.
type WriteMode string

const (
	WriteOverwrite WriteMode = "overwrite" // Truncate an existing file (default).
	WriteAppend    WriteMode = "append"    // Keep existing content, add lines after it.
	WriteError     WriteMode = "error"     // Abort the run if the file exists.
)

// Compression selects the codec wrapped around the output file.
type Compression string

const (
	CompressAuto Compression = "auto" // Pick by output extension (default).
	CompressNone Compression = "none"
	CompressGzip Compression = "gzip"
	CompressZstd Compression = "zstd"
	CompressLZ4  Compression = "lz4"
	CompressS2   Compression = "s2"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultMmapThreshold is the file size at and above which input files are
// memory-mapped instead of read through a buffered stream.
const DefaultMmapThreshold int64 = 10 * 1024 * 1024

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [LoadFile] and [ApplyEnv], and finally by [ParseFlags] before
// being passed (by pointer) to packages that need it.
type Config struct {
	// Paths.
	InputDir   string `toml:"input" yaml:"input"`
	OutputPath string `toml:"output" yaml:"output"` // Default: "output.jsonl".
	ErrorLog   string `toml:"log" yaml:"log"`       // Optional failure report path.

	// Output behavior.
	WriteMode   WriteMode   `toml:"mode" yaml:"mode"`         // Default: "overwrite".
	Compression Compression `toml:"compress" yaml:"compress"` // Default: "auto".
	Pretty      bool        `toml:"pretty" yaml:"pretty"`

	// Selection.
	Pattern  string `toml:"pattern" yaml:"pattern"`     // Glob on file names; empty matches all.
	Fields   string `toml:"fields" yaml:"fields"`       // Comma-separated selectors; empty passes through.
	MaxDepth int    `toml:"max_depth" yaml:"max_depth"` // 0 = unlimited; 1 = input dir only.

	// Run mode.
	DryRun       bool `toml:"dry_run" yaml:"dry_run"`
	ValidateOnly bool `toml:"validate_only" yaml:"validate_only"`
	CheckOnly    bool `toml:"-" yaml:"-"` // Run --check diagnostics and exit.

	// Performance.
	Workers       int    `toml:"threads" yaml:"threads"`               // 0 = GOMAXPROCS.
	MmapThreshold string `toml:"mmap_threshold" yaml:"mmap_threshold"` // Human size, e.g. "10MiB".

	// Display and logging.
	Verbose   bool      `toml:"verbose" yaml:"verbose"`
	ColorMode ColorMode `toml:"color" yaml:"color"`       // Default: "auto".
	LogFile   string    `toml:"log_file" yaml:"log_file"` // Append all log lines here.

	// ConfigFile is the --config path the other fields were loaded from.
	ConfigFile string `toml:"-" yaml:"-"`

	// Derived by Validate.
	mmapBytes int64
	fields    []string
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// file, environment, and flag overrides are applied.
func DefaultConfig() Config {
	return Config{
		OutputPath:    "output.jsonl",
		WriteMode:     WriteOverwrite,
		Compression:   CompressAuto,
		MmapThreshold: "10MiB",
		ColorMode:     ColorAuto,
		mmapBytes:     DefaultMmapThreshold,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric ranges, resolves derived values
// (mmap threshold in bytes, selector list), and requires an input
// directory unless running diagnostics.
func (c *Config) Validate() error {
	switch c.WriteMode {
	case WriteOverwrite, WriteAppend, WriteError:
		// valid
	default:
		return fmt.Errorf("invalid mode %q (use 'overwrite', 'append' or 'error')", c.WriteMode)
	}

	switch c.Compression {
	case CompressAuto, CompressNone, CompressGzip, CompressZstd, CompressLZ4, CompressS2:
		// valid
	default:
		return fmt.Errorf("invalid compression %q (use auto, none, gzip, zstd, lz4 or s2)", c.Compression)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use auto, always or never)", c.ColorMode)
	}

	if c.Workers < 0 {
		return fmt.Errorf("threads must be >= 0 (got %d)", c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0 (got %d)", c.MaxDepth)
	}

	n, err := parseSize(c.MmapThreshold)
	if err != nil {
		return err
	}
	c.mmapBytes = n
	c.fields = extract.ParseSelectors(c.Fields)

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory (-i)")
	}
	if c.OutputPath == "" && !c.ValidateOnly && !c.DryRun {
		return errors.New("output path must not be empty")
	}
	return nil
}

// ValidatePaths ensures the error log does not alias the output file.
// Both arguments must be absolute paths.
func (c *Config) ValidatePaths(outputAbs, errorLogAbs string) error {
	if errorLogAbs != "" && filepath.Clean(outputAbs) == filepath.Clean(errorLogAbs) {
		return errors.New("error log must not be the output file")
	}
	return nil
}

// MmapBytes returns the validated memory-mapping threshold in bytes.
func (c *Config) MmapBytes() int64 { return c.mmapBytes }

// SelectedFields returns the parsed --fields list, or nil for pass-through.
func (c *Config) SelectedFields() []string { return c.fields }
