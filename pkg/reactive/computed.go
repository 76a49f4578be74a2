package reactive

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
)

// Computed is a read-only cell derived from other sources.
//
// The derivation runs once at construction. After that it only runs when a
// dependency changes and the dependency snapshot differs from the one cached
// under the cell's memo key. Writes from outside are rejected.
type Computed[T any] struct {
	cell *State[T]
	fn   func() T
	deps []Source
	key  string

	mu     sync.Mutex
	unsubs []func()

	computing atomic.Bool
	destroyed atomic.Bool
}

// ComputedOption configures a Computed.
type ComputedOption func(*computedConfig)

type computedConfig struct {
	key string
}

// MemoKey sets the memo cache key. Cells sharing a key share the cached
// output for equal dependency snapshots.
func MemoKey(key string) ComputedOption {
	return func(c *computedConfig) {
		c.key = key
	}
}

// NewComputed creates a cell whose value is fn(), recomputed when any of deps
// changes.
//
// Example:
//
//	full := reactive.NewComputed(func() string {
//	    return first.Get() + " " + last.Get()
//	}, []reactive.Source{first, last})
func NewComputed[T any](fn func() T, deps []Source, opts ...ComputedOption) *Computed[T] {
	var seed T
	var snap []any
	Untracked(func() {
		seed = fn()
		snap = snapshot(deps)
	})
	return newComputed(fn, deps, seed, snap, opts)
}

// NewAutoComputed creates a computed cell whose dependencies are the sources
// read through Get during the first run of fn.
// Sources read only on later runs are not picked up.
func NewAutoComputed[T any](fn func() T, opts ...ComputedOption) *Computed[T] {
	var seed T
	deps := Track(func() {
		seed = fn()
	})
	var snap []any
	Untracked(func() {
		snap = snapshot(deps)
	})
	return newComputed(fn, deps, seed, snap, opts)
}

func newComputed[T any](fn func() T, deps []Source, seed T, snap []any, opts []ComputedOption) *Computed[T] {
	cfg := computedConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Computed[T]{
		cell: NewState(seed),
		fn:   fn,
		deps: deps,
		key:  cfg.key,
	}
	if c.key == "" {
		c.key = fmt.Sprintf("computed_%d", c.cell.ID())
	}
	memoStore(c.key, seed, snap)

	for _, d := range deps {
		if d == nil {
			continue
		}
		c.unsubs = append(c.unsubs, d.Watch(func(_, _ any) {
			c.recompute()
		}))
	}
	return c
}

// recompute handles a dependency change.
func (c *Computed[T]) recompute() {
	if c.destroyed.Load() {
		return
	}
	depth := currentDepth()
	if depth > MaxPropagationDepth() || !c.computing.CompareAndSwap(false, true) {
		diag.Report(errors.CodeCircular, "",
			slog.String("memoKey", c.key),
			slog.Int("depth", depth))
		return
	}
	defer c.computing.Store(false)

	var snap []any
	Untracked(func() {
		snap = snapshot(c.deps)
	})

	if e, ok := memoLoad(c.key); ok && sameSnapshot(e.snapshot, snap) {
		metrics.RecordMemoHit()
		if v, ok := e.value.(T); ok {
			c.cell.Set(v)
		}
		return
	}

	var next T
	Untracked(func() {
		next = c.fn()
	})
	metrics.RecordRecompute()
	memoStore(c.key, next, snap)
	c.cell.Set(next)
}

// Get returns the derived value and tracks the cell.
func (c *Computed[T]) Get() T {
	track(c)
	return c.cell.Peek()
}

// Peek returns the derived value without tracking.
func (c *Computed[T]) Peek() T {
	return c.cell.Peek()
}

// Set is rejected: computed cells are read-only.
func (c *Computed[T]) Set(T) {
	c.rejectWrite("set")
}

// Update is rejected: computed cells are read-only.
func (c *Computed[T]) Update(func(T) T) {
	c.rejectWrite("update")
}

// OnChange registers fn for changes of the derived value.
func (c *Computed[T]) OnChange(fn func(newVal, oldVal T)) func() {
	return c.cell.OnChange(fn)
}

// ID returns the unique identifier for this cell.
func (c *Computed[T]) ID() uint64 {
	return c.cell.ID()
}

// Key returns the memo cache key.
func (c *Computed[T]) Key() string {
	return c.key
}

// Deps returns the dependencies the cell subscribes to.
func (c *Computed[T]) Deps() []Source {
	return c.deps
}

// Destroy unsubscribes from every dependency and evicts the memo entry.
// It is safe to call more than once.
func (c *Computed[T]) Destroy() {
	if !c.destroyed.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	memoEvict(c.key)
}

// Current implements Source.
func (c *Computed[T]) Current() any {
	return c.Get()
}

// Watch implements Source.
func (c *Computed[T]) Watch(fn func(newVal, oldVal any)) func() {
	return c.cell.Watch(fn)
}

// Assign implements Writable. It always fails.
func (c *Computed[T]) Assign(any) error {
	return errors.New(errors.CodeReadOnly).WithDetailf("memo key %q", c.key)
}

// Modify implements Writable. It always fails.
func (c *Computed[T]) Modify(func(any) any) error {
	return errors.New(errors.CodeReadOnly).WithDetailf("memo key %q", c.key)
}

// IsComputed implements Derived.
func (c *Computed[T]) IsComputed() bool {
	return true
}

func (c *Computed[T]) rejectWrite(op string) {
	diag.Report(errors.CodeReadOnly, "",
		slog.String("op", op),
		slog.String("memoKey", c.key))
}

var (
	_ Derived = (*Computed[int])(nil)
)
