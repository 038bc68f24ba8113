package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, ConverterEmacs, cfg.Converter.Kind)
	assert.Equal(t, "gfm", cfg.Converter.Backend)
}

func TestLoad(t *testing.T) {
	t.Setenv("NOTES_HOME", "/srv/notes")
	path := writeConfig(t, `
db: ${NOTES_HOME}/org-roam.db
target_dir: /srv/site
workers: 4
log:
  level: debug
  format: json
converter:
  timeout: 90s
`)

	cfg := NewDefaultConfig()
	require.NoError(t, Load(path, cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/srv/notes/org-roam.db", cfg.DB)
	assert.Equal(t, "/srv/site", cfg.TargetDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, 90*time.Second, cfg.Converter.Timeout)
	// Untouched fields keep defaults.
	assert.Equal(t, "emacs", cfg.Converter.Emacs)
	assert.Equal(t, "ox-gfm", cfg.Converter.Feature)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "db: [unclosed")
	err := Load(path, NewDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	require.NoError(t, LoadOptional("", cfg))
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing db", func(c *Config) { c.DB = "" }, "db"},
		{"missing target", func(c *Config) { c.TargetDir = "" }, "target_dir"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"unknown converter", func(c *Config) { c.Converter.Kind = "pandoc" }, "kind"},
		{"backend not a symbol", func(c *Config) { c.Converter.Backend = `gfm) (shell-command "rm"` }, "backend"},
		{"feature not a symbol", func(c *Config) { c.Converter.Feature = "ox gfm" }, "feature"},
		{"emacs binary required", func(c *Config) { c.Converter.Emacs = "" }, "emacs"},
		{"negative timeout", func(c *Config) { c.Converter.Timeout = -time.Second }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CopyConverterIgnoresEmacsSettings(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Converter.Kind = ConverterCopy
	cfg.Converter.Emacs = ""
	cfg.Converter.Backend = ""
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvDB: "/env/roam.db"}
	cfg := NewDefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "/env/roam.db", cfg.DB)
	assert.Equal(t, "./export", cfg.TargetDir)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := ExpandHome("~/.emacs.d/org-roam.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".emacs.d", "org-roam.db"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("~other/x")
	require.NoError(t, err)
	assert.Equal(t, "~other/x", got)
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg := NewDefaultConfig()
	cfg.DB = "/abs/org-roam.db"
	require.NoError(t, cfg.ExpandPaths())

	assert.Equal(t, "/abs/org-roam.db", cfg.DB)
	assert.True(t, filepath.IsAbs(cfg.TargetDir), "target dir %q is relative", cfg.TargetDir)
	assert.Equal(t, filepath.Join(wd, "export"), cfg.TargetDir)
}

func TestEmacsConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Converter.Timeout = time.Minute
	ec := cfg.Converter.EmacsConfig()
	assert.Equal(t, "emacs", ec.Binary)
	assert.Equal(t, "~/.emacs.d/init.el", ec.InitFile)
	assert.Equal(t, time.Minute, ec.Timeout)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lc := LogConfig{Level: slog.LevelWarn, Format: LogFormatJSON}
	logger := lc.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("file", "a.org"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"file":"a.org"`)
}
