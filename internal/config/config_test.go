package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7878, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, HandlePool, cfg.Handle)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "webservice.yaml", `
port: 8080
workers: 8
handle: blocked
shutdown_timeout: 5s
log:
  level: debug
  file: /tmp/webservice.log
  compress: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, HandleBlocked, cfg.Handle)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/webservice.log", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)

	// untouched keys keep defaults
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "webservice.json", `{"port": 9000, "queue_capacity": 16, "log": {"format": "json"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 16, cfg.QueueCapacity)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{"empty path", func(*testing.T) string { return "" }, ErrEmptyPath},
		{"unknown extension", func(t *testing.T) string { return writeFile(t, "cfg.toml", "port = 1") }, ErrUnsupportedFormat},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }, ErrLoadFailed},
		{"malformed yaml", func(t *testing.T) string { return writeFile(t, "bad.yml", "port: [1, 2") }, ErrParseFailed},
		{"malformed json", func(t *testing.T) string { return writeFile(t, "bad.json", "{") }, ErrParseFailed},
		{"wrong type", func(t *testing.T) string { return writeFile(t, "bad.yaml", "workers: many") }, ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromBytes_Empty(t *testing.T) {
	cfg, err := FromBytes(nil, FormatYAML)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestFromBytes_UnsupportedFormat(t *testing.T) {
	_, err := FromBytes([]byte("x"), Format("toml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative queue capacity", func(c *Config) { c.QueueCapacity = -1 }},
		{"unknown handle", func(c *Config) { c.Handle = "fork" }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.ErrorContains(t, err, "workers")
	require.ErrorContains(t, err, "log format")
}

func TestParseHandle(t *testing.T) {
	tests := map[string]string{
		"":        HandlePool,
		"default": HandlePool,
		" Pool ":  HandlePool,
		"crate":   HandleGroup,
		"lib":     HandleGroup,
		"group":   HandleGroup,
		"block":   HandleBlocked,
		"BLOCKED": HandleBlocked,
	}

	for in, want := range tests {
		got, err := ParseHandle(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseHandle("threads")
	require.ErrorIs(t, err, ErrInvalid)
}
