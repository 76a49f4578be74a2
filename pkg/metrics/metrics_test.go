package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordBeforeInitIsNoop(t *testing.T) {
	Reset()
	RecordCreate("Frame")
	RecordDestroy()
	RecordDiagnostic("R001")
	ObserveRender("mount", time.Millisecond)
	if Get() != nil {
		t.Fatal("Get() should be nil before Init")
	}
}

func TestRecordAfterInit(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := Init(WithRegistry(reg))
	defer Reset()

	RecordCreate("Frame")
	RecordCreate("Frame")
	RecordCreate("TextLabel")
	RecordDestroy()
	RecordReuse()
	RecordPropertySet()
	RecordMove()
	RecordDiagnostic("R040")
	RecordRecompute()
	RecordMemoHit()
	ObserveRender("update", 2*time.Millisecond)

	if got := counterValue(t, c.Created.WithLabelValues("Frame")); got != 2 {
		t.Errorf("created(Frame) = %v, want 2", got)
	}
	if got := counterValue(t, c.Created.WithLabelValues("TextLabel")); got != 1 {
		t.Errorf("created(TextLabel) = %v, want 1", got)
	}
	for name, ctr := range map[string]prometheus.Counter{
		"destroyed":  c.Destroyed,
		"reused":     c.Reused,
		"sets":       c.PropertySets,
		"moves":      c.Moves,
		"recomputes": c.Recomputes,
		"memo hits":  c.MemoHits,
		"diag R040":  c.Diagnostics.WithLabelValues("R040"),
	} {
		if got := counterValue(t, ctr); got != 1 {
			t.Errorf("%s = %v, want 1", name, got)
		}
	}
	if got := histogramCount(t, c.RenderDuration.WithLabelValues("update")); got != 1 {
		t.Errorf("render_duration(update) count = %d, want 1", got)
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
	} {
		opt(&cfg)
	}
	if cfg.Namespace != "app" || cfg.Subsystem != "ui" {
		t.Errorf("namespace/subsystem = %q/%q", cfg.Namespace, cfg.Subsystem)
	}
	if cfg.ConstLabels["env"] != "test" {
		t.Errorf("const labels = %v", cfg.ConstLabels)
	}
	if len(cfg.Buckets) != 2 {
		t.Errorf("buckets = %v", cfg.Buckets)
	}
}
