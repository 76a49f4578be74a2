// Package memory is an in-memory scene.Graph.
//
// It validates classes and property values against a catalog, supports
// signals and removal callbacks, and counts every mutating call so tests can
// assert on how much native work a reconciliation did.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/vango-dev/rex/pkg/scene"
)

// Stats counts mutating calls.
type Stats struct {
	Creates   int
	Destroys  int
	Sets      int
	Moves     int
	Reparents int
}

// Object is a native object of a Graph.
type Object struct {
	id       int
	class    *Class
	props    map[string]any
	parent   *Object
	children []*Object

	removed   []func()
	signals   map[string]map[int]func(args ...any)
	destroyed bool
}

// Name implements scene.Handle.
func (o *Object) Name() string {
	if n, ok := o.props["Name"].(string); ok {
		return n
	}
	return o.class.Name
}

// ClassName implements scene.Handle.
func (o *Object) ClassName() string {
	return o.class.Name
}

// ID returns the creation sequence number of the object.
func (o *Object) ID() int {
	return o.id
}

func (o *Object) String() string {
	return fmt.Sprintf("%s(%s#%d)", o.class.Name, o.Name(), o.id)
}

// Graph is an in-memory scene graph. It is safe for concurrent use.
type Graph struct {
	mu      sync.Mutex
	classes map[string]*Class
	nextID  int
	subID   int
	stats   Stats
}

// New creates a Graph with DefaultClasses plus any extra classes.
func New(extra ...Class) *Graph {
	g := &Graph{classes: make(map[string]*Class)}
	for _, c := range DefaultClasses {
		g.Register(c)
	}
	for _, c := range extra {
		g.Register(c)
	}
	return g
}

// Register adds or replaces a class.
func (g *Graph) Register(c Class) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := c
	g.classes[c.Name] = &cp
}

// Stats returns a snapshot of the call counters.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// ResetStats zeroes the call counters.
func (g *Graph) ResetStats() {
	g.mu.Lock()
	g.stats = Stats{}
	g.mu.Unlock()
}

// Create implements scene.Graph.
func (g *Graph) Create(class string) (scene.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.classes[class]
	if !ok {
		return nil, errors.Errorf("unable to create an object of class %q", class)
	}
	g.nextID++
	g.stats.Creates++
	return &Object{
		id:      g.nextID,
		class:   c,
		props:   map[string]any{"Name": class},
		signals: make(map[string]map[int]func(args ...any)),
	}, nil
}

// SetProperty implements scene.Graph.
func (g *Graph) SetProperty(h scene.Handle, name string, value any) error {
	o, err := object(h)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if o.destroyed {
		return errors.Errorf("cannot set %s on destroyed %s", name, o)
	}
	check, ok := o.class.Props[name]
	if !ok {
		return errors.Errorf("%s is not a valid member of %s", name, o.class.Name)
	}
	if err := check(value); err != nil {
		return errors.Wrapf(err, "invalid value for %s.%s", o.class.Name, name)
	}
	g.stats.Sets++
	o.props[name] = value
	return nil
}

// Get returns a property value.
func (g *Graph) Get(h scene.Handle, name string) (any, bool) {
	o, err := object(h)
	if err != nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := o.props[name]
	return v, ok
}

// Children implements scene.Graph.
func (g *Graph) Children(h scene.Handle) []scene.Handle {
	o, err := object(h)
	if err != nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]scene.Handle, len(o.children))
	for i, c := range o.children {
		out[i] = c
	}
	return out
}

// FindChild implements scene.Graph.
func (g *Graph) FindChild(h scene.Handle, name string) (scene.Handle, bool) {
	o, err := object(h)
	if err != nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range o.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Parent implements scene.Graph.
func (g *Graph) Parent(h scene.Handle) scene.Handle {
	o, err := object(h)
	if err != nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if o.parent == nil {
		return nil
	}
	return o.parent
}

// SetParent implements scene.Graph.
func (g *Graph) SetParent(h scene.Handle, parent scene.Handle) error {
	o, err := object(h)
	if err != nil {
		return err
	}
	var p *Object
	if parent != nil {
		if p, err = object(parent); err != nil {
			return err
		}
	}

	g.mu.Lock()
	if o.destroyed {
		g.mu.Unlock()
		return errors.Errorf("cannot reparent destroyed %s", o)
	}
	if p != nil && p.destroyed {
		g.mu.Unlock()
		return errors.Errorf("cannot parent %s to destroyed %s", o, p)
	}
	if o.parent == p {
		g.mu.Unlock()
		return nil
	}
	for a := p; a != nil; a = a.parent {
		if a == o {
			g.mu.Unlock()
			return errors.Errorf("cannot parent %s to its own descendant %s", o, p)
		}
	}

	g.detach(o)
	var callbacks []func()
	if p != nil {
		o.parent = p
		p.children = append(p.children, o)
	} else {
		callbacks = o.removed
		o.removed = nil
	}
	g.stats.Reparents++
	g.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// MoveChild implements scene.Orderer.
func (g *Graph) MoveChild(parent, child scene.Handle, index int) error {
	p, err := object(parent)
	if err != nil {
		return err
	}
	c, err := object(child)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if c.parent != p {
		return errors.Errorf("%s is not a child of %s", c, p)
	}
	from := -1
	for i, x := range p.children {
		if x == c {
			from = i
			break
		}
	}
	if index < 0 {
		index = 0
	}
	if index >= len(p.children) {
		index = len(p.children) - 1
	}
	if from == index {
		return nil
	}
	p.children = append(p.children[:from], p.children[from+1:]...)
	p.children = append(p.children[:index], append([]*Object{c}, p.children[index:]...)...)
	g.stats.Moves++
	return nil
}

// Destroy implements scene.Graph.
func (g *Graph) Destroy(h scene.Handle) {
	o, err := object(h)
	if err != nil {
		return
	}

	g.mu.Lock()
	var callbacks []func()
	g.destroy(o, &callbacks)
	g.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (g *Graph) destroy(o *Object, callbacks *[]func()) {
	if o.destroyed {
		return
	}
	o.destroyed = true
	g.detach(o)
	*callbacks = append(*callbacks, o.removed...)
	o.removed = nil
	o.signals = make(map[string]map[int]func(args ...any))
	g.stats.Destroys++

	children := o.children
	o.children = nil
	for _, c := range children {
		c.parent = nil
		g.destroy(c, callbacks)
	}
}

// detach removes o from its parent's child list. Callers hold g.mu.
func (g *Graph) detach(o *Object) {
	p := o.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == o {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	o.parent = nil
}

// Destroyed reports whether h was destroyed.
func (g *Graph) Destroyed(h scene.Handle) bool {
	o, err := object(h)
	if err != nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return o.destroyed
}

// OnRemoved implements scene.Graph.
func (g *Graph) OnRemoved(h scene.Handle, fn func()) {
	o, err := object(h)
	if err != nil || fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o.removed = append(o.removed, fn)
}

// Connect implements scene.Graph.
func (g *Graph) Connect(h scene.Handle, signal string, fn func(args ...any)) (func(), error) {
	o, err := object(h)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !hasSignal(o.class, signal) {
		return nil, errors.Errorf("%s is not a valid signal of %s", signal, o.class.Name)
	}
	g.subID++
	id := g.subID
	if o.signals[signal] == nil {
		o.signals[signal] = make(map[int]func(args ...any))
	}
	o.signals[signal][id] = fn

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(o.signals[signal], id)
	}, nil
}

// Connections returns the number of live connections to a signal of h.
func (g *Graph) Connections(h scene.Handle, signal string) int {
	o, err := object(h)
	if err != nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(o.signals[signal])
}

// Fire invokes every handler connected to a signal of h.
func (g *Graph) Fire(h scene.Handle, signal string, args ...any) error {
	o, err := object(h)
	if err != nil {
		return err
	}

	g.mu.Lock()
	if !hasSignal(o.class, signal) {
		g.mu.Unlock()
		return errors.Errorf("%s is not a valid signal of %s", signal, o.class.Name)
	}
	ids := make([]int, 0, len(o.signals[signal]))
	for id := range o.signals[signal] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(args ...any), len(ids))
	for i, id := range ids {
		handlers[i] = o.signals[signal][id]
	}
	g.mu.Unlock()

	for _, fn := range handlers {
		fn(args...)
	}
	return nil
}

// Dump renders the subtree under h as indented text, one object per line
// with its properties sorted by name.
func (g *Graph) Dump(h scene.Handle) string {
	o, err := object(h)
	if err != nil {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	dump(&b, o, 0)
	return b.String()
}

func dump(b *strings.Builder, o *Object, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(o.class.Name)
	if n := o.Name(); n != o.class.Name {
		fmt.Fprintf(b, " %q", n)
	}

	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		if k != "Name" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, o.props[k])
	}
	b.WriteByte('\n')

	for _, c := range o.children {
		dump(b, c, depth+1)
	}
}

func hasSignal(c *Class, signal string) bool {
	for _, s := range c.Signals {
		if s == signal {
			return true
		}
	}
	return false
}

func object(h scene.Handle) (*Object, error) {
	if h == nil {
		return nil, errors.New("nil handle")
	}
	o, ok := h.(*Object)
	if !ok {
		return nil, errors.Errorf("foreign handle %T", h)
	}
	return o, nil
}

var (
	_ scene.Graph   = (*Graph)(nil)
	_ scene.Orderer = (*Graph)(nil)
)
