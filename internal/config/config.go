// Package config loads the webservice configuration from a YAML or JSON file
// on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Handle modes select how accepted connections are executed.
const (
	HandlePool    = "pool"
	HandleGroup   = "group"
	HandleBlocked = "blocked"
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	ErrEmptyPath         = errors.New("config: empty config path")
	ErrUnsupportedFormat = errors.New("config: unsupported config format")
	ErrLoadFailed        = errors.New("config: failed to load config")
	ErrParseFailed       = errors.New("config: failed to parse config")
	ErrInvalid           = errors.New("config: invalid config")
)

// Config is the full webservice configuration.
type Config struct {
	// Port to listen on, on 127.0.0.1. Zero picks a free port.
	Port int `koanf:"port"`
	// Workers is the pool size for the pool and group handle modes.
	Workers int `koanf:"workers"`
	// QueueCapacity bounds the pool's work channel. Zero means unbounded.
	QueueCapacity int `koanf:"queue_capacity"`
	// Handle is one of HandlePool, HandleGroup or HandleBlocked.
	Handle string `koanf:"handle"`
	// Root is the directory hello.html is served from.
	Root string `koanf:"root"`
	// ShutdownTimeout bounds the wait for in-flight connections on exit.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Log Log `koanf:"log"`
}

// Log configures the process logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File enables a rotating log file instead of stderr.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:            7878,
		Workers:         4,
		QueueCapacity:   0,
		Handle:          HandlePool,
		Root:            ".",
		ShutdownTimeout: 30 * time.Second,
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path and applies it over Default. The format is detected from the
// extension (.yaml, .yml or .json). Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return FromBytes(data, format)
}

// FromBytes parses data in the given format over Default.
// Empty data yields the defaults.
func FromBytes(data []byte, format Format) (Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, ErrUnsupportedFormat
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return cfg, nil
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// Validate reports every invalid field, joined.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.Port < 0 || c.Port > 65535 {
		invalid("port %d out of range", c.Port)
	}
	if c.Workers < 1 {
		invalid("workers must be at least 1, got %d", c.Workers)
	}
	if c.QueueCapacity < 0 {
		invalid("queue_capacity must not be negative, got %d", c.QueueCapacity)
	}
	if _, err := ParseHandle(c.Handle); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout <= 0 {
		invalid("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		invalid("unknown log format %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// ParseHandle normalizes a handle mode. Aliases: "" and "default" mean pool,
// "crate" and "lib" mean group, "block" means blocked.
func ParseHandle(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "def", "default", HandlePool:
		return HandlePool, nil
	case "crate", "lib", HandleGroup:
		return HandleGroup, nil
	case "block", HandleBlocked:
		return HandleBlocked, nil
	default:
		return "", fmt.Errorf("%w: unknown handle mode %q", ErrInvalid, s)
	}
}
