package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rex/internal/errors"
)

const (
	// DefaultLogLevel is the default diagnostics level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler.
	DefaultLogFormat = "text"

	// DefaultMaxPropagationDepth bounds chains of listener-triggered updates.
	DefaultMaxPropagationDepth = 100

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "rex"

	// DefaultTracerName is the OpenTelemetry tracer name.
	DefaultTracerName = "rex"
)

// FileNames are the configuration files looked up by Load, in order.
var FileNames = []string{"rex.json", "rex.yaml", "rex.yml"}

// Config is the rex configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`

	// Reorder enables moving native children into element order.
	Reorder *bool `json:"reorder,omitempty" yaml:"reorder,omitempty"`

	// LayoutClasses are extra class-name fragments of layout-affecting
	// objects.
	LayoutClasses []string `json:"layoutClasses,omitempty" yaml:"layoutClasses,omitempty"`

	// Events overrides entries of the event-name table. An empty value
	// removes an event.
	Events map[string]string `json:"events,omitempty" yaml:"events,omitempty"`

	// MaxPropagationDepth bounds chains of listener-triggered updates.
	MaxPropagationDepth int `json:"maxPropagationDepth,omitempty" yaml:"maxPropagationDepth,omitempty"`

	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// path stores the file the config was loaded from.
	path string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	reorder := true
	return &Config{
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
		Reorder:             &reorder,
		MaxPropagationDepth: DefaultMaxPropagationDepth,
		Metrics:             MetricsConfig{Namespace: DefaultNamespace},
		Tracing:             TracingConfig{TracerName: DefaultTracerName},
	}
}

// Load reads the first of FileNames found in dir. Without a config file it
// returns the defaults.
func Load(fs afero.Fs, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return nil, errors.FromError(err, errors.CodeConfigInvalid)
		}
		if ok {
			return LoadFile(fs, path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigInvalid).
				WithDetailf("%s does not exist", path).
				WithSuggestion("Create rex.yaml or pass --config")
		}
		return nil, errors.FromError(err, errors.CodeConfigInvalid)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetailf("failed to parse %s: %v", filepath.Base(path), err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(fs afero.Fs, path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.FromError(err, errors.CodeConfigInvalid)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.FromError(err, errors.CodeConfigInvalid)
	}
	c.path = path
	return nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills unset fields from New. Pointers set in the file are
// kept even when they point at a zero value.
func (c *Config) applyDefaults() error {
	if err := mergo.Merge(c, New(), mergo.WithoutDereference); err != nil {
		return errors.FromError(err, errors.CodeConfigInvalid)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxPropagationDepth < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("maxPropagationDepth must not be negative, got %d", c.MaxPropagationDepth)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown logFormat %q", c.LogFormat).
			WithSuggestion("Use text or json")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown logLevel %q", c.LogLevel)
	}
	return nil
}

// ReorderEnabled reports whether the reorder pass is enabled.
func (c *Config) ReorderEnabled() bool {
	return c.Reorder == nil || *c.Reorder
}

// Level returns the configured log level, info when unset.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

// Logger builds a logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
