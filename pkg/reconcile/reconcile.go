// Package reconcile keeps a native object tree in sync with virtual elements.
//
// The Reconciler creates native objects for new elements, patches objects in
// place when an element is compatible with the one it replaces, diffs keyed
// child lists, and destroys objects whose elements are gone. It owns the
// element to handle mapping: Element.Handle is written only here.
package reconcile

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/bind"
	"github.com/vango-dev/rex/pkg/metrics"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// DefaultLayoutClasses are class-name fragments of layout-affecting objects.
// Child lists containing one of them are never reordered.
var DefaultLayoutClasses = []string{"Layout", "Constraint"}

// Reconciler instantiates, patches and destroys native objects for elements.
type Reconciler struct {
	graph   scene.Graph
	binder  *bind.Binder
	layout  []string
	reorder bool

	// mu protects nodes and owners. Graph and binder calls are made without
	// holding it.
	mu     sync.Mutex
	nodes  map[*vdom.Element]*node
	owners map[scene.Handle]*vdom.Element
}

// node is the reconciler's record of a live element.
type node struct {
	children []*vdom.Element // rendered children, normalized
	unwatch  []func()        // reactive children subscriptions
	wrapped  bool
	hooked   bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithBinder sets the property binder. The default binds with default
// converters and events.
func WithBinder(b *bind.Binder) Option {
	return func(r *Reconciler) {
		r.binder = b
	}
}

// WithLayoutClasses adds class-name fragments to DefaultLayoutClasses.
func WithLayoutClasses(fragments ...string) Option {
	return func(r *Reconciler) {
		r.layout = append(r.layout, fragments...)
	}
}

// WithReorder enables or disables the reorder pass. It is enabled by
// default; it also needs a graph that implements scene.Orderer.
func WithReorder(enabled bool) Option {
	return func(r *Reconciler) {
		r.reorder = enabled
	}
}

// New creates a Reconciler for g.
func New(g scene.Graph, opts ...Option) *Reconciler {
	r := &Reconciler{
		graph:   g,
		layout:  append([]string(nil), DefaultLayoutClasses...),
		reorder: true,
		nodes:   make(map[*vdom.Element]*node),
		owners:  make(map[scene.Handle]*vdom.Element),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.binder == nil {
		r.binder = bind.New(g)
	}
	return r
}

// Graph returns the scene graph.
func (r *Reconciler) Graph() scene.Graph {
	return r.graph
}

// Binder returns the property binder.
func (r *Reconciler) Binder() *bind.Binder {
	return r.binder
}

// Tracked returns the number of live elements.
func (r *Reconciler) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// Rendered returns the current rendered children of a live element.
func (r *Reconciler) Rendered(el *vdom.Element) []*vdom.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[el]; ok {
		return append([]*vdom.Element(nil), n.children...)
	}
	return nil
}

// Instantiate builds the native object for el and its children and parents
// it under parent. Fragments build their children under parent and return a
// nil handle. Errors are fatal for el: nothing of it is left behind.
func (r *Reconciler) Instantiate(el *vdom.Element, parent scene.Handle) (scene.Handle, error) {
	if el == nil {
		return nil, nil
	}
	if r.live(el) {
		return nil, errors.New(errors.CodeHandleOwned).
			WithDetailf("element %s is already mounted", describe(el))
	}

	if el.Kind == vdom.KindFragment {
		r.track(el, &node{})
		if err := r.syncChildren(el, parent); err != nil {
			r.Destroy(el)
			return nil, err
		}
		return nil, nil
	}

	var h scene.Handle
	wrapped := el.IsWrapped()
	if wrapped {
		var err error
		if h, err = r.resolveWrap(el, parent); err != nil {
			return nil, err
		}
	} else {
		if strings.TrimSpace(el.Tag) == "" {
			return nil, errors.New(errors.CodeInvalidTag).WithDetail("element has no tag")
		}
		created, err := r.graph.Create(el.Tag)
		if err != nil {
			return nil, errors.New(errors.CodeConstructFailed).
				WithDetailf("class %q", el.Tag).
				Wrap(err)
		}
		h = created
		metrics.RecordCreate(el.Tag)
	}

	if err := r.claim(el, h, &node{wrapped: wrapped}); err != nil {
		if !wrapped {
			r.graph.Destroy(h)
		}
		return nil, err
	}

	r.binder.Apply(h, el.Props)

	if err := r.syncChildren(el, h); err != nil {
		r.Destroy(el)
		return nil, err
	}

	if err := r.attach(el, h, parent); err != nil {
		r.Destroy(el)
		return nil, err
	}
	return h, nil
}

// Reconcile brings the native object of old in line with el. Compatible
// elements are patched in place; otherwise old is destroyed and el is
// instantiated at old's position. A nil old instantiates el, a nil el
// destroys old.
func (r *Reconciler) Reconcile(old, el *vdom.Element, parent scene.Handle) (scene.Handle, error) {
	if el == nil {
		r.Destroy(old)
		return nil, nil
	}
	if old == nil {
		return r.Instantiate(el, parent)
	}

	if vdom.Compatible(old, el) && r.live(old) {
		h := old.Handle
		r.transfer(old, el)
		if h != nil {
			r.binder.Patch(h, old.Props, el.Props)
			metrics.RecordReuse()
		}

		container := h
		if el.Kind == vdom.KindFragment {
			container = parent
		}
		if err := r.syncChildren(el, container); err != nil {
			return h, err
		}
		return h, nil
	}

	index := -1
	if old.Handle != nil && parent != nil {
		index = scene.IndexOf(r.graph, parent, old.Handle)
	}
	r.Destroy(old)

	h, err := r.Instantiate(el, parent)
	if err != nil {
		return nil, err
	}
	if index >= 0 && h != nil {
		if o, ok := r.graph.(scene.Orderer); ok {
			if err := o.MoveChild(parent, h, index); err == nil {
				metrics.RecordMove()
			}
		}
	}
	return h, nil
}

// Destroy releases el's bindings, destroys its children, then destroys its
// native object. Wrapped objects are released but not destroyed.
// Destroying an element twice is a no-op.
func (r *Reconciler) Destroy(el *vdom.Element) {
	r.drop(el, true)
}

// Forget releases the bindings and reactive children of el and its
// descendants and stops tracking them, leaving every native object in place.
// It is for trees whose objects were detached or taken over by someone else.
func (r *Reconciler) Forget(el *vdom.Element) {
	r.drop(el, false)
}

func (r *Reconciler) drop(el *vdom.Element, native bool) {
	if el == nil {
		return
	}

	r.mu.Lock()
	n, ok := r.nodes[el]
	delete(r.nodes, el)
	h := el.Handle
	if h != nil && r.owners[h] == el {
		delete(r.owners, h)
	}
	el.Handle = nil
	r.mu.Unlock()

	if !ok {
		return
	}

	r.release(n)
	if h != nil {
		r.binder.Cleanup(h)
	}

	for _, c := range n.children {
		r.drop(c, native)
	}

	if native && h != nil && !n.wrapped {
		r.graph.Destroy(h)
		metrics.RecordDestroy()
	}
}

// syncChildren reconciles el's children into container and subscribes to
// their reactive sources.
func (r *Reconciler) syncChildren(el *vdom.Element, container scene.Handle) error {
	r.mu.Lock()
	n := r.nodes[el]
	r.mu.Unlock()
	if n == nil {
		return nil
	}
	r.release(n)

	spec := vdom.ResolveChildren(el.Children)
	if spec.Mode == vdom.ChildrenNone && len(n.children) == 0 {
		return nil
	}

	rendered, err := r.ReconcileChildren(container, n.children, spec.Current())
	r.mu.Lock()
	n.children = rendered
	r.mu.Unlock()
	if err != nil {
		return err
	}

	sources := spec.Sources()
	if len(sources) == 0 {
		return nil
	}

	unwatch := make([]func(), 0, len(sources))
	for _, src := range sources {
		unwatch = append(unwatch, src.Watch(func(_, _ any) {
			r.refresh(n, container, spec)
		}))
	}

	r.mu.Lock()
	n.unwatch = unwatch
	hook := !n.hooked && el.Handle != nil
	n.hooked = n.hooked || hook
	r.mu.Unlock()

	if hook {
		r.binder.AddCleanup(el.Handle, func() { r.release(n) })
	}
	return nil
}

// refresh re-diffs reactive children after one of their sources changed.
func (r *Reconciler) refresh(n *node, container scene.Handle, spec vdom.ChildSpec) {
	r.mu.Lock()
	prev := n.children
	alive := n.unwatch != nil
	r.mu.Unlock()
	if !alive {
		return
	}

	rendered, err := r.ReconcileChildren(container, prev, spec.Current())
	r.mu.Lock()
	n.children = rendered
	r.mu.Unlock()

	if err != nil {
		diag.Report(errors.CodeChildrenUpdate, "",
			slog.String("container", describeHandle(container)),
			slog.String("error", err.Error()))
	}
}

// release drops n's reactive children subscriptions.
func (r *Reconciler) release(n *node) {
	r.mu.Lock()
	unwatch := n.unwatch
	n.unwatch = nil
	r.mu.Unlock()

	for _, u := range unwatch {
		u()
	}
}

// resolveWrap finds the existing object a wrapped element binds to.
func (r *Reconciler) resolveWrap(el *vdom.Element, parent scene.Handle) (scene.Handle, error) {
	switch t := el.Wrap.(type) {
	case scene.Handle:
		return t, nil
	case string:
		if parent == nil {
			return nil, errors.New(errors.CodeWrapNotFound).
				WithDetailf("cannot look up %q without a parent", t)
		}
		if h, ok := r.graph.FindChild(parent, t); ok {
			return h, nil
		}
		names := scene.Names(r.graph, parent)
		return nil, errors.New(errors.CodeWrapNotFound).
			WithDetailf("%q not found under %s; available: [%s]", t, describeHandle(parent), strings.Join(names, ", "))
	default:
		return nil, errors.New(errors.CodeWrapNotFound).
			WithDetailf("unsupported wrap target %T", el.Wrap)
	}
}

// attach parents h under parent. Wrapped objects already under parent are
// left alone; moving one away from another parent is allowed but reported.
func (r *Reconciler) attach(el *vdom.Element, h, parent scene.Handle) error {
	if parent == nil {
		return nil
	}
	current := r.graph.Parent(h)
	if current == parent {
		return nil
	}
	if el.IsWrapped() && current != nil {
		diag.Report(errors.CodeWrapReparent, "",
			slog.String("handle", describeHandle(h)),
			slog.String("from", describeHandle(current)),
			slog.String("to", describeHandle(parent)))
	}
	if err := r.graph.SetParent(h, parent); err != nil {
		return errors.New(errors.CodeConstructFailed).
			WithDetailf("cannot parent %s under %s", describeHandle(h), describeHandle(parent)).
			Wrap(err)
	}
	return nil
}

// claim binds h to el and starts tracking el.
func (r *Reconciler) claim(el *vdom.Element, h scene.Handle, n *node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.owners[h]; ok && owner != el && owner.Handle == h {
		return errors.New(errors.CodeHandleOwned).
			WithDetailf("%s is bound to element %s", describeHandle(h), describe(owner))
	}
	r.owners[h] = el
	el.Handle = h
	r.nodes[el] = n
	return nil
}

// track starts tracking a fragment.
func (r *Reconciler) track(el *vdom.Element, n *node) {
	r.mu.Lock()
	r.nodes[el] = n
	r.mu.Unlock()
}

// transfer moves the record and handle of old to el.
func (r *Reconciler) transfer(old, el *vdom.Element) {
	if old == el {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.nodes[old]; ok {
		r.nodes[el] = n
		delete(r.nodes, old)
	}
	if h := old.Handle; h != nil {
		r.owners[h] = el
		el.Handle = h
	}
	old.Handle = nil
}

// Live reports whether el currently has a native object or, for fragments,
// rendered children tracked by r.
func (r *Reconciler) Live(el *vdom.Element) bool {
	return r.live(el)
}

func (r *Reconciler) live(el *vdom.Element) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.nodes[el]
	return ok
}

func describe(el *vdom.Element) string {
	switch {
	case el == nil:
		return "<nil>"
	case el.IsWrapped():
		return fmt.Sprintf("Wrap(%v)", el.Wrap)
	case el.Key != "":
		return fmt.Sprintf("%s[%s]", el.Tag, el.Key)
	case el.Kind == vdom.KindFragment:
		return "Fragment"
	default:
		return el.Tag
	}
}

func describeHandle(h scene.Handle) string {
	if h == nil {
		return "<nil>"
	}
	return h.ClassName() + " " + fmt.Sprintf("%q", h.Name())
}
