package config

// This file loads optional overrides from a config file and from the
// environment. Precedence, lowest first: DefaultConfig, config file,
// .env / JCONVERT_* variables, CLI flags.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override name.
const EnvPrefix = "JCONVERT_"

// LoadFile decodes a TOML (.toml) or YAML (.yaml, .yml) config file into
// cfg. Keys absent from the file leave the current values untouched.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}
	cfg.ConfigFile = path
	return nil
}

// LoadDotEnv loads variables from ./.env when the file exists. Variables
// already present in the process environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// ApplyEnv copies JCONVERT_* variables from lookup into cfg. lookup is
// usually os.LookupEnv; tests pass a map-backed function.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("INPUT", &cfg.InputDir)
	str("OUTPUT", &cfg.OutputPath)
	str("PATTERN", &cfg.Pattern)
	str("FIELDS", &cfg.Fields)
	str("LOG", &cfg.ErrorLog)
	str("MMAP_THRESHOLD", &cfg.MmapThreshold)

	var mode, compress, color string
	str("MODE", &mode)
	str("COMPRESS", &compress)
	str("COLOR", &color)
	if mode != "" {
		cfg.WriteMode = WriteMode(strings.ToLower(mode))
	}
	if compress != "" {
		cfg.Compression = Compression(strings.ToLower(compress))
	}
	if color != "" {
		cfg.ColorMode = ColorMode(strings.ToLower(color))
	}

	if err := integer("THREADS", &cfg.Workers); err != nil {
		return err
	}
	if err := integer("MAX_DEPTH", &cfg.MaxDepth); err != nil {
		return err
	}
	if err := boolean("PRETTY", &cfg.Pretty); err != nil {
		return err
	}
	return boolean("VERBOSE", &cfg.Verbose)
}

// parseSize accepts human sizes ("10MiB", "512 KB") and plain byte counts.
func parseSize(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultMmapThreshold, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid mmap threshold %q (use a size such as 10MiB)", raw)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("mmap threshold %q is too large", raw)
	}
	return int64(n), nil
}
