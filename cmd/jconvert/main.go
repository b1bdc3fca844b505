// Command jconvert is the CLI entrypoint for the JSON-to-JSONL converter.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check) or the conversion pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/jconvert/internal/check"
	"github.com/backmassage/jconvert/internal/config"
	"github.com/backmassage/jconvert/internal/display"
	"github.com/backmassage/jconvert/internal/logging"
	"github.com/backmassage/jconvert/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// straight to stderr.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "jconvert: .env: %v\n", err)
		return 1
	}

	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "jconvert: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "jconvert: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jconvert: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner(os.Stdout)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	if err := check.CheckPaths(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}
	if cfg.ErrorLog != "" {
		outputAbs, err := filepath.Abs(cfg.OutputPath)
		if err != nil {
			log.Error("Cannot resolve output path: %s", cfg.OutputPath)
			return 1
		}
		logAbs, err := filepath.Abs(cfg.ErrorLog)
		if err != nil {
			log.Error("Cannot resolve error log path: %s", cfg.ErrorLog)
			return 1
		}
		if err := cfg.ValidatePaths(outputAbs, logAbs); err != nil {
			log.Error("%v", err)
			return 1
		}
	}

	log.Info("=== jconvert v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	switch {
	case cfg.DryRun:
		log.Warn("DRY RUN: no files will be read or written")
	case cfg.ValidateOnly:
		log.Info("Validate only: no output will be written")
	default:
		log.Info("Out: %s (mode %s)", cfg.OutputPath, cfg.WriteMode)
	}
	if cfg.Pattern != "" {
		log.Info("Pattern: %s", cfg.Pattern)
	}
	if fields := cfg.SelectedFields(); fields != nil {
		log.Info("Fields: %v", fields)
	}
	if cfg.ConfigFile != "" {
		log.Debug(cfg.Verbose, "Config file: %s", cfg.ConfigFile)
	}

	// Phase 3: Signal handling. Cancel the context on SIGINT/SIGTERM so the
	// pool stops starting new files; in-flight results are still written.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing in-flight files…")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Phase 4: Run pipeline (discover → process → collect → summarize).
	if _, err := pipeline.Run(ctx, &cfg, log); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Per-file failures are reported in the summary and do not change the
	// exit status.
	return 0
}
