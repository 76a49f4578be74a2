package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// trackingContext holds the reactive state of one goroutine.
// Keeping it per goroutine means a tracking scope opened on one goroutine
// never collects reads made by another.
type trackingContext struct {
	// collector receives sources read through Get while a scope is open.
	// nil means reads are not tracked.
	collector *collector

	// depth is the propagation depth of the listener task currently running.
	depth int

	// batchDepth tracks nested Batch calls.
	batchDepth int
}

func (c *trackingContext) empty() bool {
	return c.collector == nil && c.depth == 0 && c.batchDepth == 0
}

// collector accumulates the distinct sources read in a tracking scope.
type collector struct {
	sources []Source
	seen    map[Source]struct{}
}

func (c *collector) add(s Source) {
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.sources = append(c.sources, s)
}

// contexts stores per-goroutine tracking contexts keyed by goroutine ID.
var contexts sync.Map

// lookup returns the current goroutine's context without creating one.
func lookup() *trackingContext {
	if ctx, ok := contexts.Load(goid.Get()); ok {
		return ctx.(*trackingContext)
	}
	return nil
}

// acquire returns the current goroutine's context, creating it if needed.
// Callers must pair it with release.
func acquire() *trackingContext {
	gid := goid.Get()
	if ctx, ok := contexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	contexts.Store(gid, ctx)
	return ctx
}

// release drops the context once nothing is left in it.
func release(ctx *trackingContext) {
	if ctx.empty() {
		contexts.Delete(goid.Get())
	}
}

// track registers s with the open tracking scope, if any.
func track(s Source) {
	if ctx := lookup(); ctx != nil && ctx.collector != nil {
		ctx.collector.add(s)
	}
}

// Track runs fn inside a new tracking scope and returns every distinct
// source read through Get during the run, in first-read order.
// Only synchronous reads on the calling goroutine are seen.
func Track(fn func()) []Source {
	ctx := acquire()
	prev := ctx.collector
	c := &collector{seen: make(map[Source]struct{})}
	ctx.collector = c

	defer func() {
		ctx.collector = prev
		release(ctx)
	}()

	fn()
	return c.sources
}

// Untracked runs fn with tracking disabled.
func Untracked(fn func()) {
	ctx := lookup()
	if ctx == nil || ctx.collector == nil {
		fn()
		return
	}
	prev := ctx.collector
	ctx.collector = nil
	defer func() { ctx.collector = prev }()
	fn()
}

// currentDepth returns the propagation depth of the running listener task.
func currentDepth() int {
	if ctx := lookup(); ctx != nil {
		return ctx.depth
	}
	return 0
}

// withDepth runs fn with the propagation depth set to d.
func withDepth(d int, fn func()) {
	ctx := acquire()
	prev := ctx.depth
	ctx.depth = d
	defer func() {
		ctx.depth = prev
		release(ctx)
	}()
	fn()
}

// DefaultMaxPropagationDepth bounds chains of computed recomputations.
const DefaultMaxPropagationDepth = 100

var maxDepth atomic.Int64

func init() {
	maxDepth.Store(DefaultMaxPropagationDepth)
}

// SetMaxPropagationDepth sets the depth at which a recomputation chain is
// treated as a cycle. Values below 1 restore the default.
func SetMaxPropagationDepth(n int) {
	if n < 1 {
		n = DefaultMaxPropagationDepth
	}
	maxDepth.Store(int64(n))
}

// MaxPropagationDepth returns the configured depth limit.
func MaxPropagationDepth() int {
	return int(maxDepth.Load())
}
