// Package bind applies element properties to native objects.
//
// Each property is routed one of three ways: event handlers are connected to
// native signals, reactive values are set once and then re-applied on every
// change, and plain values are converted and set directly. Everything a
// binding needs to undo is kept per native object and released by Cleanup,
// which also runs automatically when the object leaves the tree.
package bind

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/convert"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/reactivity"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// Binder binds property bags to native objects of one graph.
// It is safe for concurrent use.
type Binder struct {
	graph  scene.Graph
	conv   *convert.Registry
	events scene.Events

	mu      sync.Mutex
	entries map[scene.Handle]*entry
}

// entry is the cleanup registry record of one native object.
type entry struct {
	cleanups []func()
	bindings map[string]*binding
	handlers map[string]*handler
	hooked   bool
}

// binding is a live reactive property.
type binding struct {
	value  any // the bound value, compared by identity on patch
	unbind func()
}

// handler is a connected event. The connection calls through to fn, so a
// new handler can be swapped in without touching the native signal.
type handler struct {
	mu         sync.RWMutex
	fn         func(args ...any)
	disconnect func()
}

func (h *handler) call(args ...any) {
	h.mu.RLock()
	fn := h.fn
	h.mu.RUnlock()
	if fn != nil {
		fn(args...)
	}
}

func (h *handler) swap(fn func(args ...any)) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

// Option configures a Binder.
type Option func(*Binder)

// WithConverters sets the conversion registry. The default is
// convert.Default.
func WithConverters(r *convert.Registry) Option {
	return func(b *Binder) {
		b.conv = r
	}
}

// WithEvents sets the event table. The default is scene.DefaultEvents.
func WithEvents(e scene.Events) Option {
	return func(b *Binder) {
		b.events = e
	}
}

// New creates a Binder for g.
func New(g scene.Graph, opts ...Option) *Binder {
	b := &Binder{
		graph:   g,
		conv:    convert.Default,
		events:  scene.DefaultEvents,
		entries: make(map[scene.Handle]*entry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph returns the graph the binder writes to.
func (b *Binder) Graph() scene.Graph {
	return b.graph
}

// Apply binds every property of props to h.
func (b *Binder) Apply(h scene.Handle, props vdom.Props) {
	b.Patch(h, nil, props)
}

// Patch brings h from the old property bag to the new one. Unchanged plain
// values and reactive values bound to the same source are left alone, event
// handlers are swapped in place, and bindings of removed keys are released.
// Removed plain properties keep their last native value.
func (b *Binder) Patch(h scene.Handle, prev, next vdom.Props) {
	for _, key := range sortedKeys(next) {
		if skip(key) {
			continue
		}
		v := next[key]

		if b.isEvent(key) {
			b.bindEvent(h, key, v)
			continue
		}

		ov, had := prev[key]
		if reactivity.IsReactive(v) {
			if had && sameValue(ov, v) && b.hasBinding(h, key) {
				continue
			}
			b.SetupProperty(h, key, v)
			continue
		}

		if had && !reactivity.IsReactive(ov) && vdom.PropsEqual(ov, v) {
			continue
		}
		b.unbind(h, key)
		b.set(h, key, v)
	}

	for _, key := range sortedKeys(prev) {
		if _, ok := next[key]; ok || skip(key) {
			continue
		}
		if b.isEvent(key) {
			b.unbindEvent(h, key)
			continue
		}
		b.unbind(h, key)
	}
}

// SetupProperty sets h.key to the converted value of v. When v is reactive
// the property is re-applied on every change until the binding is released.
func (b *Binder) SetupProperty(h scene.Handle, key string, v any) {
	b.unbind(h, key)

	src := reactivity.SourceOf(v)
	if src == nil {
		b.set(h, key, v)
		return
	}

	unwatch := src.Watch(func(newVal, _ any) {
		b.set(h, key, newVal)
	})

	var current any
	reactive.Untracked(func() {
		current = src.Current()
	})
	b.set(h, key, current)

	b.mu.Lock()
	e := b.entry(h)
	e.bindings[key] = &binding{value: v, unbind: unwatch}
	hook := b.hook(e)
	b.mu.Unlock()

	if hook {
		b.graph.OnRemoved(h, func() { b.Cleanup(h) })
	}
}

// AddCleanup registers fn to run when h is cleaned up.
func (b *Binder) AddCleanup(h scene.Handle, fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	e := b.entry(h)
	e.cleanups = append(e.cleanups, fn)
	hook := b.hook(e)
	b.mu.Unlock()

	if hook {
		b.graph.OnRemoved(h, func() { b.Cleanup(h) })
	}
}

// Cleanup releases every binding, handler and cleanup function registered
// for h. Each runs once; later calls are no-ops.
func (b *Binder) Cleanup(h scene.Handle) {
	b.mu.Lock()
	e, ok := b.entries[h]
	if ok {
		delete(b.entries, h)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	for _, key := range sortedKeys(e.bindings) {
		e.bindings[key].unbind()
	}
	for _, key := range sortedKeys(e.handlers) {
		if d := e.handlers[key].disconnect; d != nil {
			d()
		}
	}
	for _, fn := range e.cleanups {
		fn()
	}
}

// Bound reports whether h has anything registered.
func (b *Binder) Bound(h scene.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[h]
	return ok
}

// Bindings returns the number of live reactive bindings, handlers and
// cleanup functions registered for h.
func (b *Binder) Bindings(h scene.Handle) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[h]
	if !ok {
		return 0
	}
	return len(e.bindings) + len(e.handlers) + len(e.cleanups)
}

// set converts v for key and writes it to h.
func (b *Binder) set(h scene.Handle, key string, v any) {
	cv := b.conv.Convert(v, key)
	if err := b.graph.SetProperty(h, key, cv); err != nil {
		diag.Report(errors.CodePropertyRejected, "",
			slog.String("class", h.ClassName()),
			slog.String("property", key),
			slog.String("error", err.Error()))
		return
	}
	metrics.RecordPropertySet()
}

func (b *Binder) isEvent(key string) bool {
	if _, ok := b.events.Signal(key); ok {
		return true
	}
	return scene.LooksLikeEvent(key)
}

func (b *Binder) bindEvent(h scene.Handle, key string, v any) {
	signal, ok := b.events.Signal(key)
	if !ok {
		diag.Report(errors.CodeUnknownEvent, "",
			slog.String("event", key),
			slog.String("class", h.ClassName()))
		return
	}
	fn, ok := callable(v)
	if !ok {
		// A nil handler removes the event without a diagnostic.
		if v != nil {
			diag.Report(errors.CodeHandlerNotFunc, "",
				slog.String("event", key),
				slog.String("type", fmt.Sprintf("%T", v)))
		}
		b.unbindEvent(h, key)
		return
	}

	b.mu.Lock()
	e := b.entry(h)
	if existing, ok := e.handlers[key]; ok {
		b.mu.Unlock()
		existing.swap(fn)
		return
	}
	hd := &handler{fn: fn}
	e.handlers[key] = hd
	hook := b.hook(e)
	b.mu.Unlock()

	disconnect, err := b.graph.Connect(h, signal, hd.call)
	if err != nil {
		b.mu.Lock()
		delete(e.handlers, key)
		b.mu.Unlock()
		diag.Report(errors.CodeUnknownEvent, "",
			slog.String("event", key),
			slog.String("signal", signal),
			slog.String("error", err.Error()))
		return
	}
	b.mu.Lock()
	hd.disconnect = disconnect
	b.mu.Unlock()

	if hook {
		b.graph.OnRemoved(h, func() { b.Cleanup(h) })
	}
}

func (b *Binder) unbindEvent(h scene.Handle, key string) {
	b.mu.Lock()
	e, ok := b.entries[h]
	var hd *handler
	if ok {
		hd = e.handlers[key]
		delete(e.handlers, key)
	}
	b.mu.Unlock()

	if hd != nil && hd.disconnect != nil {
		hd.disconnect()
	}
}

// unbind releases the reactive binding of h.key, if any.
func (b *Binder) unbind(h scene.Handle, key string) {
	b.mu.Lock()
	e, ok := b.entries[h]
	var bd *binding
	if ok {
		bd = e.bindings[key]
		delete(e.bindings, key)
	}
	b.mu.Unlock()

	if bd != nil {
		bd.unbind()
	}
}

func (b *Binder) hasBinding(h scene.Handle, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[h]
	if !ok {
		return false
	}
	_, ok = e.bindings[key]
	return ok
}

// entry returns the record for h, creating it. Callers hold b.mu.
func (b *Binder) entry(h scene.Handle) *entry {
	e, ok := b.entries[h]
	if !ok {
		e = &entry{
			bindings: make(map[string]*binding),
			handlers: make(map[string]*handler),
		}
		b.entries[h] = e
	}
	return e
}

// hook marks e as observed and reports whether the removal observer still
// has to be installed. Callers hold b.mu.
func (b *Binder) hook(e *entry) bool {
	if e.hooked {
		return false
	}
	e.hooked = true
	return true
}

func skip(key string) bool {
	return key == "children" || key == "key"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sameValue reports whether two reactive values are the same object.
func sameValue(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != reflect.Pointer || rb.Kind() != reflect.Pointer {
		return false
	}
	return ra.Type() == rb.Type() && ra.Pointer() == rb.Pointer()
}

// callable adapts a handler value to the trampoline signature.
func callable(v any) (func(args ...any), bool) {
	switch f := v.(type) {
	case nil:
		return nil, false
	case func():
		return func(...any) { f() }, true
	case func(args ...any):
		return f, true
	case func(arg any):
		return func(args ...any) {
			var a any
			if len(args) > 0 {
				a = args[0]
			}
			f(a)
		}, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.Type().IsVariadic() {
		return nil, false
	}
	t := rv.Type()
	return func(args ...any) {
		in := make([]reflect.Value, t.NumIn())
		for i := range in {
			pt := t.In(i)
			in[i] = reflect.Zero(pt)
			if i < len(args) && args[i] != nil {
				av := reflect.ValueOf(args[i])
				if av.Type().AssignableTo(pt) {
					in[i] = av
				} else if av.Type().ConvertibleTo(pt) {
					in[i] = av.Convert(pt)
				}
			}
		}
		rv.Call(in)
	}, true
}
