package render

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/reconcile"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// DefaultTracerName is the tracer used when no name is configured.
const DefaultTracerName = "rex"

// Config configures a Renderer.
type Config struct {
	// TracerName is the name of the OpenTelemetry tracer (default: "rex").
	TracerName string

	// Reconciler overrides the reconciler. When nil one is created from
	// the graph and ReconcileOptions.
	Reconciler *reconcile.Reconciler

	// ReconcileOptions configure the default reconciler.
	ReconcileOptions []reconcile.Option

	tracer trace.Tracer
}

// Option configures a Renderer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithReconciler uses an existing reconciler.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(c *Config) {
		c.Reconciler = r
	}
}

// WithReconcileOptions passes options to the default reconciler.
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(c *Config) {
		c.ReconcileOptions = append(c.ReconcileOptions, opts...)
	}
}

// Renderer mounts element trees into a scene graph.
type Renderer struct {
	graph  scene.Graph
	rec    *reconcile.Reconciler
	tracer trace.Tracer
}

// New creates a Renderer for g.
func New(g scene.Graph, opts ...Option) *Renderer {
	config := Config{TracerName: DefaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerName == "" {
		config.TracerName = DefaultTracerName
	}
	config.tracer = otel.Tracer(config.TracerName)

	rec := config.Reconciler
	if rec == nil {
		rec = reconcile.New(g, config.ReconcileOptions...)
	}
	return &Renderer{graph: g, rec: rec, tracer: config.tracer}
}

// Graph returns the scene graph.
func (r *Renderer) Graph() scene.Graph {
	return r.graph
}

// Reconciler returns the reconciler.
func (r *Renderer) Reconciler() *reconcile.Reconciler {
	return r.rec
}

// Mounted is a tree mounted by Mount.
type Mounted struct {
	// Handle is the root native object, nil for a fragment.
	Handle scene.Handle

	r    *Renderer
	el   *vdom.Element
	once sync.Once
}

// Element returns the mounted element.
func (m *Mounted) Element() *vdom.Element {
	return m.el
}

// Unmount destroys the tree if its root object is still parented. A root
// that was removed from the graph by someone else keeps its objects; the
// tree is only released and forgotten, so the element can be mounted again.
// Calling Unmount again does nothing.
func (m *Mounted) Unmount() {
	m.once.Do(func() {
		_, span := m.r.start(context.Background(), "rex.unmount", m.el)
		defer span.End()
		start := time.Now()

		switch {
		case m.Handle == nil, m.r.graph.Parent(m.Handle) != nil:
			m.r.rec.Destroy(m.el)
		default:
			m.r.rec.Forget(m.el)
		}
		metrics.ObserveRender("unmount", time.Since(start))
	})
}

// Mount instantiates el under container and returns a handle to unmount it.
func (r *Renderer) Mount(ctx context.Context, el *vdom.Element, container scene.Handle) (*Mounted, error) {
	h, err := r.instantiate(ctx, "rex.mount", "mount", el, container)
	if err != nil {
		return nil, err
	}
	return &Mounted{Handle: h, r: r, el: el}, nil
}

// Render instantiates el under container. Nothing is kept for cleanup;
// destroying the returned object releases its bindings.
func (r *Renderer) Render(ctx context.Context, el *vdom.Element, container scene.Handle) (scene.Handle, error) {
	return r.instantiate(ctx, "rex.render", "render", el, container)
}

func (r *Renderer) instantiate(ctx context.Context, name, op string, el *vdom.Element, container scene.Handle) (scene.Handle, error) {
	if el == nil {
		return nil, errors.New(errors.CodeInvalidTag).WithDetail("nothing to render")
	}
	_, span := r.start(ctx, name, el)
	defer span.End()
	start := time.Now()

	h, err := r.rec.Instantiate(el, container)
	metrics.ObserveRender(op, time.Since(start))
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return h, nil
}

// start opens a span describing el.
func (r *Renderer) start(ctx context.Context, name string, el *vdom.Element) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := []attribute.KeyValue{}
	if el != nil {
		attrs = append(attrs, attribute.String("rex.tag", el.Tag))
		if el.Key != "" {
			attrs = append(attrs, attribute.String("rex.key", el.Key))
		}
	}
	return r.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// fail records err on span.
func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := errors.CodeOf(err); code != "" {
		span.SetAttributes(attribute.String("rex.error_code", code))
	}
}
