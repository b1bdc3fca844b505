package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into paths, output, selection, run mode, performance,
// display, and utility. A --config file and JCONVERT_* variables are applied
// first so that flags always win.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses args (usually os.Args[1:]) into cfg. A --config file is
// loaded and environment overrides applied before flags are parsed. On
// --help or --version it prints and exits.
func ParseFlags(cfg *Config, version string, args []string) error {
	if path := scanConfigPath(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return err
	}

	fs := flag.NewFlagSet("jconvert", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var u utilityFlags

	definePathFlags(fs, cfg)
	defineOutputFlags(fs, cfg)
	defineSelectionFlags(fs, cfg)
	defineModeFlags(fs, cfg)
	definePerformanceFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &u)
	defineUtilityFlags(fs, &u)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyUtilityFlags(cfg, &u)

	if u.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if u.showVersion {
		fmt.Fprintln(os.Stdout, "jconvert v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// utilityFlags holds boolean flags applied after Parse: color overrides and
// the exit-after-printing flags.
type utilityFlags struct {
	forceColor  bool
	noColor     bool
	configPath  string
	showVersion bool
	showHelp    bool
}

// definePathFlags registers -i/--input, -o/--output, --log.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.InputDir, "input", cfg.InputDir, "Input directory containing JSON files")
	fs.StringVar(&cfg.InputDir, "i", cfg.InputDir, "Same as --input")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output JSONL file")
	fs.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "Same as --output")
	fs.StringVar(&cfg.ErrorLog, "log", cfg.ErrorLog, "Write failed files and reasons to this file")
}

// defineOutputFlags registers -m/--mode, --compress, --pretty.
func defineOutputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&writeModeValue{&cfg.WriteMode}, "mode", "Existing output: overwrite | append | error")
	fs.Var(&writeModeValue{&cfg.WriteMode}, "m", "Same as --mode")
	fs.Var(&compressionValue{&cfg.Compression}, "compress", "Output compression: auto | none | gzip | zstd | lz4 | s2")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Indented JSON output")
}

// defineSelectionFlags registers -p/--pattern, --fields, --max-depth.
func defineSelectionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Pattern, "pattern", cfg.Pattern, "Glob filter on file names (e.g. \"*_SUM_*\")")
	fs.StringVar(&cfg.Pattern, "p", cfg.Pattern, "Same as --pattern")
	fs.StringVar(&cfg.Fields, "fields", cfg.Fields, "Comma-separated fields to keep (e.g. \"id,user.name\")")
	fs.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "Maximum directory depth (0 = unlimited)")
}

// defineModeFlags registers --dry-run, --validate-only, -c/--check.
func defineModeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "List files that would be processed")
	fs.BoolVar(&cfg.ValidateOnly, "validate-only", cfg.ValidateOnly, "Only check that each file is valid JSON")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
}

// definePerformanceFlags registers -j/--threads, --mmap-threshold.
func definePerformanceFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Workers, "threads", cfg.Workers, "Worker count (0 = number of CPUs)")
	fs.IntVar(&cfg.Workers, "j", cfg.Workers, "Same as --threads")
	fs.StringVar(&cfg.MmapThreshold, "mmap-threshold", cfg.MmapThreshold, "Memory-map files at or above this size")
}

// defineDisplayFlags registers verbose, --color, --no-color, --log-file.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&u.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&u.noColor, "no-color", false, "Disable colored logs")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Append all log lines to file")
}

// defineUtilityFlags registers --config, --version and --help.
// --config was already applied by scanConfigPath; it is registered so
// Parse accepts it.
func defineUtilityFlags(fs *flag.FlagSet, u *utilityFlags) {
	fs.StringVar(&u.configPath, "config", "", "TOML or YAML config file")
	fs.BoolVar(&u.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&u.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&u.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&u.showHelp, "h", false, "Same as --help")
}

// applyUtilityFlags copies color overrides into cfg.
func applyUtilityFlags(cfg *Config, u *utilityFlags) {
	if u.noColor {
		cfg.ColorMode = ColorNever
	} else if u.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs accepts the input directory as a single positional
// argument when -i was not given.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch {
	case len(args) == 0:
	case len(args) == 1 && cfg.InputDir == "":
		cfg.InputDir = args[0]
	default:
		return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	if cfg.InputDir != "" {
		cfg.InputDir = NormalizeDirArg(cfg.InputDir)
	}
	return nil
}

// scanConfigPath finds a --config value before flags are parsed, so file
// values can become flag defaults.
func scanConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "jconvert v" + version + " - merge a folder of JSON files into one JSONL file"},
		{"", ""},
		{"  jconvert [OPTIONS] -i <input_dir> [-o <output.jsonl>]", ""},
		{"", ""},
		{"Paths", ""},
		{"  -i, --input <dir>", "Input directory (required)"},
		{"  -o, --output <path>", "Output file (default: output.jsonl)"},
		{"  --log <path>", "Write failed files and reasons to a report"},
		{"", ""},
		{"Output", ""},
		{"  -m, --mode <mode>", "overwrite | append | error (default: overwrite)"},
		{"  --compress <codec>", "auto | none | gzip | zstd | lz4 | s2 (default: auto)"},
		{"  --pretty", "Indented JSON (records span several lines)"},
		{"", ""},
		{"Selection", ""},
		{"  -p, --pattern <glob>", "File name filter, e.g. \"*_SUM_*\", \"data?.json\""},
		{"  --fields <list>", "Fields to keep, e.g. \"id,name,user.age\""},
		{"  --max-depth <n>", "Maximum directory depth (default: unlimited)"},
		{"", ""},
		{"Run mode", ""},
		{"  --dry-run", "List files that would be processed"},
		{"  --validate-only", "Check JSON validity only"},
		{"  -c, --check", "System diagnostics and exit"},
		{"", ""},
		{"Performance", ""},
		{"  -j, --threads <n>", "Worker count (default: CPU count)"},
		{"  --mmap-threshold <size>", "Memory-map files >= size (default: 10MiB)"},
		{"", ""},
		{"Display", ""},
		{"  -v, --verbose", "Per-file results and failure reasons"},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  --log-file <path>", "Append all log lines to file"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "Load defaults from a .toml or .yaml file"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"", "Environment: " + EnvPrefix + "INPUT, " + EnvPrefix + "OUTPUT, " + EnvPrefix + "MODE, " + EnvPrefix + "THREADS, ..."},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (WriteMode, Compression) with flag.Var.

type writeModeValue struct{ p *WriteMode }

func (w *writeModeValue) String() string {
	if w.p == nil {
		return ""
	}
	return string(*w.p)
}
func (w *writeModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "overwrite":
		*w.p = WriteOverwrite
	case "append":
		*w.p = WriteAppend
	case "error":
		*w.p = WriteError
	default:
		return fmt.Errorf("invalid mode %q (use 'overwrite', 'append' or 'error')", s)
	}
	return nil
}

type compressionValue struct{ p *Compression }

func (c *compressionValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}
func (c *compressionValue) Set(s string) error {
	v := Compression(strings.ToLower(s))
	switch v {
	case CompressAuto, CompressNone, CompressGzip, CompressZstd, CompressLZ4, CompressS2:
		*c.p = v
	default:
		return fmt.Errorf("invalid compression %q (use auto, none, gzip, zstd, lz4 or s2)", s)
	}
	return nil
}
