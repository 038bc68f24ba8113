// Package config loads roamexport settings from a YAML file, the environment
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"roamexport/internal/export"
)

// Converter kinds.
const (
	ConverterEmacs = "emacs"
	ConverterCopy  = "copy"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Environment variables overriding file values.
const (
	EnvDB        = "ROAMEXPORT_DB"
	EnvTargetDir = "ROAMEXPORT_TARGET_DIR"
	EnvConfig    = "ROAMEXPORT_CONFIG"
)

var lispSymbol = regexp.MustCompile(`^[A-Za-z0-9+\-_/]+$`)

// Config represents the application configuration.
type Config struct {
	DB        string          `yaml:"db"`
	TargetDir string          `yaml:"target_dir"`
	Workers   int             `yaml:"workers"`
	Log       LogConfig       `yaml:"log"`
	Converter ConverterConfig `yaml:"converter"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DB, validation.Required),
		validation.Field(&c.TargetDir, validation.Required),
		validation.Field(&c.Workers, validation.Min(1), validation.Max(64)),
	); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Converter.Validate(); err != nil {
		return fmt.Errorf("converter: %w", err)
	}
	return nil
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  slog.Level `yaml:"level"`
	Format string     `yaml:"format"`
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// ConverterConfig selects and configures the export converter.
type ConverterConfig struct {
	Kind     string        `yaml:"kind"`
	Emacs    string        `yaml:"emacs"`
	InitFile string        `yaml:"init_file"`
	Backend  string        `yaml:"backend"`
	Feature  string        `yaml:"feature"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the converter configuration.
func (c *ConverterConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(ConverterEmacs, ConverterCopy)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if c.Kind != ConverterEmacs {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Emacs, validation.Required),
		validation.Field(&c.Backend, validation.Required, validation.Match(lispSymbol)),
		validation.Field(&c.Feature, validation.Match(lispSymbol)),
	)
}

// EmacsConfig returns the Emacs converter settings.
func (c *ConverterConfig) EmacsConfig() export.EmacsConfig {
	return export.EmacsConfig{
		Binary:   c.Emacs,
		InitFile: c.InitFile,
		Backend:  c.Backend,
		Feature:  c.Feature,
		Timeout:  c.Timeout,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	emacs := export.DefaultEmacsConfig()
	return &Config{
		DB:        "~/.emacs.d/org-roam.db",
		TargetDir: "./export",
		Workers:   1,
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: LogFormatText,
		},
		Converter: ConverterConfig{
			Kind:     ConverterEmacs,
			Emacs:    emacs.Binary,
			InitFile: emacs.InitFile,
			Backend:  emacs.Backend,
			Feature:  emacs.Feature,
		},
	}
}

// Load reads a YAML file over target, expanding environment variables in it
// first. Fields absent from the file keep their current values.
func Load(filename string, target *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return nil
}

// LoadOptional is Load, except a missing file leaves target untouched.
func LoadOptional(filename string, target *Config) error {
	if filename == "" {
		return nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return Load(filename, target)
}

// ApplyEnv overrides values from the environment through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDB); v != "" {
		c.DB = v
	}
	if v := getenv(EnvTargetDir); v != "" {
		c.TargetDir = v
	}
}

// ExpandPaths makes the database and target paths absolute, resolving a
// leading "~" first. Emacs opens each node's org file before exporting, so a
// relative target would resolve against that file's directory.
func (c *Config) ExpandPaths() error {
	var err error
	if c.DB, err = absPath(c.DB); err != nil {
		return err
	}
	if c.TargetDir, err = absPath(c.TargetDir); err != nil {
		return err
	}
	return nil
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/roamexport/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "roamexport", "config.yaml")
}

// NewLogger builds the logger described by c, writing to w.
func (c *LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
