// Package config loads settings for the mathparser command from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/zephyrtronium/mathparser"
)

// Config holds the settings of the command.
type Config struct {
	// Prec is the precision in bits of arbitrary-precision built-ins.
	Prec uint `yaml:"prec"`
	// MaxDepth is the maximum depth of nested user function calls.
	MaxDepth int `yaml:"max_depth"`
	// Prompt is the shell prompt.
	Prompt string `yaml:"prompt"`
	// History is the path of the shell history file. Empty disables history.
	History string `yaml:"history"`
	// LogLevel and LogFormat configure logging.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// Vars are variables set in every new context.
	Vars map[string]float64 `yaml:"vars"`
	// Funcs are function definitions like "f(x) = x^2" added to every new
	// context, in order.
	Funcs []string `yaml:"funcs"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Prec:      64,
		MaxDepth:  256,
		Prompt:    "> ",
		History:   DefaultHistory(),
		LogLevel:  "warn",
		LogFormat: "text",
		Vars:      map[string]float64{"the meaning of life": 42},
	}
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mathparser", "config.yaml")
}

// DefaultHistory returns the default location of the shell history file.
func DefaultHistory() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".mathparser_history")
}

// Load reads the configuration file at path. A missing file gives the
// default configuration.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("couldn't read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("couldn't load config %s: %w", path, err)
	}
	return cfg, nil
}

// file is the document form of Config. Absent keys are nil.
type file struct {
	Prec      *uint              `yaml:"prec"`
	MaxDepth  *int               `yaml:"max_depth"`
	Prompt    *string            `yaml:"prompt"`
	History   *string            `yaml:"history"`
	LogLevel  *string            `yaml:"log_level"`
	LogFormat *string            `yaml:"log_format"`
	Vars      map[string]float64 `yaml:"vars"`
	Funcs     []string           `yaml:"funcs"`
}

// Parse decodes a configuration from YAML. Keys missing from the document
// keep their default values, and variables in the document are added to the
// default variables.
func Parse(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	var f file
	if err := yaml.UnmarshalWithOptions(b, &f, yaml.DisallowUnknownField()); err != nil {
		return Config{}, err
	}
	cfg := Default()
	set(&cfg.Prec, f.Prec)
	set(&cfg.MaxDepth, f.MaxDepth)
	set(&cfg.Prompt, f.Prompt)
	set(&cfg.History, f.History)
	set(&cfg.LogLevel, f.LogLevel)
	set(&cfg.LogFormat, f.LogFormat)
	for k, v := range f.Vars {
		cfg.Vars[k] = v
	}
	cfg.Funcs = f.Funcs
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Prec == 0 {
		return errors.New("prec must be positive")
	}
	if c.MaxDepth <= 0 {
		return errors.New("max_depth must be positive")
	}
	for k := range c.Vars {
		if !mathparser.IsName(k) {
			return fmt.Errorf("%q is not a variable name", k)
		}
	}
	for _, f := range c.Funcs {
		if _, _, _, ok := mathparser.SplitDefinition(f); !ok {
			return fmt.Errorf("%q is not a function definition", f)
		}
	}
	return nil
}

// NewContext creates a context with the configured precision, depth limit,
// variables, and functions.
func (c Config) NewContext(log *slog.Logger) (*mathparser.Context, error) {
	ctx := mathparser.NewContext(
		mathparser.Logger(log),
		mathparser.Prec(c.Prec),
		mathparser.MaxDepth(c.MaxDepth),
		mathparser.SetVars(c.Vars),
	)
	for _, f := range c.Funcs {
		name, params, body, ok := mathparser.SplitDefinition(f)
		if !ok {
			return nil, fmt.Errorf("%q is not a function definition", f)
		}
		if _, err := ctx.Define(name, params, body); err != nil {
			return nil, fmt.Errorf("couldn't define %s: %w", name, err)
		}
	}
	return ctx, nil
}

// Loader is a [kong.ConfigurationLoader] that reads flag values from the same
// YAML files as Load. Flag names with hyphens, like "max-depth", may be
// written with underscores.
func Loader(r io.Reader) (kong.Resolver, error) {
	var m map[string]any
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return resolver{}, nil
		}
		return nil, err
	}
	res := make(resolver, len(m))
	for k, v := range m {
		// Kong parses numbers from strings.
		switch v := v.(type) {
		case uint64:
			res[k] = strconv.FormatUint(v, 10)
		case int64:
			res[k] = strconv.FormatInt(v, 10)
		case int:
			res[k] = strconv.Itoa(v)
		case float64:
			res[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			res[k] = v
		}
	}
	return res, nil
}

// resolver implements [kong.Resolver] for YAML configs.
type resolver map[string]any

// Validate implements [kong.Resolver].
func (r resolver) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r resolver) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := r[flag.Name]; ok {
		return v, nil
	}
	if v, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}
	return nil, nil
}
