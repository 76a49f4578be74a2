package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	"github.com/vango-dev/rex/internal/errors"
)

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.LogLevel != DefaultLogLevel || cfg.LogFormat != DefaultLogFormat {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.ReorderEnabled() {
		t.Error("reorder should be enabled by default")
	}
	if cfg.MaxPropagationDepth != DefaultMaxPropagationDepth {
		t.Errorf("MaxPropagationDepth = %d", cfg.MaxPropagationDepth)
	}
	if cfg.Metrics.Namespace != DefaultNamespace || cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("metrics/tracing = %+v/%+v", cfg.Metrics, cfg.Tracing)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(New(), cfg, cmp.AllowUnexported(Config{})); diff != "" {
		t.Errorf("Load() without a file should return defaults (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/project/rex.yaml", `
logLevel: debug
reorder: false
layoutClasses: [Grid]
events:
  onHover: MouseEnter
  onClick: ""
metrics:
  enabled: true
`)

	cfg, err := Load(fs, "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reorder := false
	want := &Config{
		LogLevel:            "debug",
		LogFormat:           DefaultLogFormat,
		Reorder:             &reorder,
		LayoutClasses:       []string{"Grid"},
		Events:              map[string]string{"onHover": "MouseEnter", "onClick": ""},
		MaxPropagationDepth: DefaultMaxPropagationDepth,
		Metrics:             MetricsConfig{Enabled: true, Namespace: DefaultNamespace},
		Tracing:             TracingConfig{TracerName: DefaultTracerName},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.ReorderEnabled() {
		t.Error("reorder: false should survive defaults")
	}
	if cfg.Path() != "/project/rex.yaml" {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/p/rex.json", `{"logLevel": "warn", "maxPropagationDepth": 10}`)
	write(t, fs, "/p/rex.yml", "logLevel: error\n")

	cfg, err := Load(fs, "/p")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "warn" || cfg.MaxPropagationDepth != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/bad.json", "not json")
	write(t, fs, "/bad.yaml", "logLevel: [")
	write(t, fs, "/depth.yaml", "maxPropagationDepth: -1\n")
	write(t, fs, "/format.yaml", "logFormat: xml\n")
	write(t, fs, "/level.json", `{"logLevel": "loud"}`)

	tests := []struct {
		path string
		want string
	}{
		{"/missing.yaml", "does not exist"},
		{"/bad.json", "failed to parse"},
		{"/bad.yaml", "failed to parse"},
		{"/depth.yaml", "must not be negative"},
		{"/format.yaml", "unknown logFormat"},
		{"/level.json", "unknown logLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := LoadFile(fs, tt.path)
			if errors.CodeOf(err) != errors.CodeConfigInvalid {
				t.Fatalf("LoadFile() error = %v, want code %s", err, errors.CodeConfigInvalid)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := New()
	cfg.LayoutClasses = []string{"Grid"}

	for _, path := range []string{"/out/rex.json", "/out/rex.yaml"} {
		if err := cfg.SaveTo(fs, path); err != nil {
			t.Fatalf("SaveTo(%s) error = %v", path, err)
		}
		loaded, err := LoadFile(fs, path)
		if err != nil {
			t.Fatalf("LoadFile(%s) error = %v", path, err)
		}
		if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("code", "R040"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"code":"R040"`) {
		t.Errorf("json output = %s", out)
	}
}
