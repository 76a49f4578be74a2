package render

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// RenderFunc produces the element tree of a Root.
type RenderFunc func() *vdom.Element

// Root is a reactive render root. Each Update calls the render function and
// reconciles its result against the tree of the previous Update.
//
// A Root starts unmounted, is mounted by its first successful Update and
// becomes unmounted for good after Cleanup.
type Root struct {
	r         *Renderer
	fn        RenderFunc
	container scene.Handle

	mu        sync.Mutex
	tree      *vdom.Element
	handle    scene.Handle
	closed    bool
	autoTrack bool
	watched   []func() // from Watch
	tracked   []func() // from AutoTrack, replaced on every update

	pending atomic.Bool
}

// NewRoot creates a reactive root rendering fn under container. Nothing is
// rendered until the first Update.
func (r *Renderer) NewRoot(fn RenderFunc, container scene.Handle) *Root {
	return &Root{r: r, fn: fn, container: container}
}

// Reactive creates a root that tracks what fn reads and renders it right
// away. The root is returned even when the first render fails; it can be
// updated again or cleaned up.
func (r *Renderer) Reactive(ctx context.Context, fn RenderFunc, container scene.Handle) (*Root, error) {
	rt := r.NewRoot(fn, container)
	rt.AutoTrack()
	return rt, rt.Update(ctx)
}

// Handle returns the current root native object.
func (rt *Root) Handle() scene.Handle {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.handle
}

// Tree returns the element tree of the last update.
func (rt *Root) Tree() *vdom.Element {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tree
}

// Mounted reports whether the root holds a rendered tree.
func (rt *Root) Mounted() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return !rt.closed && rt.tree != nil
}

// Update renders and reconciles. It fails with R110 after Cleanup.
func (rt *Root) Update(ctx context.Context) error {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return errors.New(errors.CodeUnmounted)
	}
	prev := rt.tree
	auto := rt.autoTrack
	rt.mu.Unlock()

	_, span := rt.r.start(ctx, "rex.update", prev)
	defer span.End()
	start := time.Now()

	var next *vdom.Element
	var sources []reactive.Source
	if auto {
		sources = reactive.Track(func() { next = rt.fn() })
	} else {
		next = rt.fn()
	}
	if auto {
		rt.retrack(sources)
	}

	rec := rt.r.rec
	var h scene.Handle
	var err error
	if prev == nil {
		h, err = rec.Instantiate(next, rt.container)
	} else {
		h, err = rec.Reconcile(prev, next, rt.container)
	}
	metrics.ObserveRender("update", time.Since(start))

	rt.mu.Lock()
	switch {
	case next != nil && rec.Live(next):
		rt.tree, rt.handle = next, h
	case prev != nil && rec.Live(prev):
		rt.handle = prev.Handle
	default:
		rt.tree, rt.handle = nil, nil
	}
	mounted := rt.tree != nil
	rt.mu.Unlock()
	diag.Debug("root updated", "mounted", mounted, "elapsed", time.Since(start), "error", err)

	if err != nil {
		fail(span, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Watch calls Update whenever one of sources changes. Changes delivered in
// the same scheduler pass are coalesced into one update, run as a task on
// the current scheduler. Update errors are reported as diagnostics.
func (rt *Root) Watch(sources ...reactive.Source) {
	unwatch := rt.subscribe(sources)

	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		for _, u := range unwatch {
			u()
		}
		return
	}
	rt.watched = append(rt.watched, unwatch...)
	rt.mu.Unlock()
}

// AutoTrack makes every later Update watch the sources read by the render
// function during that update, in place of the ones read before.
func (rt *Root) AutoTrack() {
	rt.mu.Lock()
	rt.autoTrack = true
	rt.mu.Unlock()
}

// Cleanup unsubscribes the root and destroys its tree. Later calls do
// nothing.
func (rt *Root) Cleanup() {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	rt.closed = true
	tree := rt.tree
	unwatch := append(rt.watched, rt.tracked...)
	rt.tree, rt.handle, rt.watched, rt.tracked = nil, nil, nil, nil
	rt.mu.Unlock()

	for _, u := range unwatch {
		u()
	}

	_, span := rt.r.start(context.Background(), "rex.unmount", tree)
	defer span.End()
	start := time.Now()
	rt.r.rec.Destroy(tree)
	metrics.ObserveRender("unmount", time.Since(start))
}

func (rt *Root) subscribe(sources []reactive.Source) []func() {
	unwatch := make([]func(), 0, len(sources))
	for _, src := range sources {
		if src == nil {
			continue
		}
		unwatch = append(unwatch, src.Watch(func(_, _ any) { rt.schedule() }))
	}
	return unwatch
}

// retrack replaces the auto-tracked subscriptions.
func (rt *Root) retrack(sources []reactive.Source) {
	unwatch := rt.subscribe(sources)

	rt.mu.Lock()
	old := rt.tracked
	if rt.closed {
		old, unwatch = unwatch, nil
	}
	rt.tracked = unwatch
	rt.mu.Unlock()

	for _, u := range old {
		u()
	}
}

// schedule queues one update unless one is already pending.
func (rt *Root) schedule() {
	if !rt.pending.CompareAndSwap(false, true) {
		return
	}
	reactive.CurrentScheduler().Schedule(func() {
		rt.pending.Store(false)
		if err := rt.Update(context.Background()); err != nil && errors.CodeOf(err) != errors.CodeUnmounted {
			diag.ReportError(err)
		}
	})
}
