// Package check provides --check diagnostics (RunCheck) and the pre-run
// path validation (CheckPaths) that gates the pipeline.
package check

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/backmassage/jconvert/internal/config"
	"github.com/backmassage/jconvert/internal/output"
	"github.com/backmassage/jconvert/internal/processor"
)

// Sentinel errors returned by CheckPaths.
var (
	ErrInputNotFound = errors.New("input directory not found")
	ErrInputNotDir   = errors.New("input is not a directory")
	ErrOutputIsDir   = errors.New("output path is a directory")
	ErrOutputNoDir   = errors.New("output directory does not exist")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck prints runtime, host, and path diagnostics. It returns false if
// a configured path would make a run fail.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	checkRuntime(log)
	checkHost(log)
	checkIO(cfg, log)

	if cfg.InputDir == "" {
		log.Info("No input directory given; skipping path checks")
		return true
	}
	if err := CheckPaths(cfg); err != nil {
		log.Error("%v", err)
		return false
	}
	log.Success("Input directory readable: %s", cfg.InputDir)
	if !cfg.ValidateOnly && !cfg.DryRun {
		log.Success("Output location usable: %s", cfg.OutputPath)
	}
	return true
}

func checkRuntime(log Logger) {
	log.Info("Go: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	log.Info("Default workers: %d (GOMAXPROCS)", runtime.GOMAXPROCS(0))
}

// checkHost reports CPU and memory. Failures are informational only.
func checkHost(log Logger) {
	if n, err := cpu.Counts(true); err == nil {
		log.Info("Logical CPUs: %d", n)
	} else {
		log.Warn("Could not count CPUs: %v", err)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		log.Info("Memory: %s total, %s available", humanize.IBytes(vm.Total), humanize.IBytes(vm.Available))
	} else {
		log.Warn("Could not read memory info: %v", err)
	}
}

func checkIO(cfg *config.Config, log Logger) {
	if processor.MmapSupported() {
		log.Success("Memory-mapped reads: enabled for files >= %s", humanize.IBytes(uint64(cfg.MmapBytes())))
	} else {
		log.Warn("Memory-mapped reads: unavailable on %s, large files are read whole", runtime.GOOS)
	}
	log.Info("Output compression: none, gzip, zstd, lz4, s2 (auto uses %s)",
		output.ResolveCompression(cfg.OutputPath, config.CompressAuto))
}

// CheckPaths verifies that the input is an existing directory and, unless
// no output is written, that the output is not a directory and its parent
// exists.
func CheckPaths(cfg *config.Config) error {
	fi, err := os.Stat(cfg.InputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, cfg.InputDir)
		}
		return fmt.Errorf("input %s: %w", cfg.InputDir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputNotDir, cfg.InputDir)
	}

	if cfg.ValidateOnly || cfg.DryRun {
		return nil
	}
	if fi, err := os.Stat(cfg.OutputPath); err == nil && fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputIsDir, cfg.OutputPath)
	}
	parent := filepath.Dir(cfg.OutputPath)
	if fi, err := os.Stat(parent); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputNoDir, parent)
	}
	return nil
}
