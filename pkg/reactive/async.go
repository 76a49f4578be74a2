package reactive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
)

// Loader fetches the value of an Async cell.
type Loader[T any] func(ctx context.Context) (T, error)

// Async tracks the result of an asynchronous load in three cells.
//
// Data holds the last successful result (the zero value before the first
// one). Loading is true while any load is in flight. Error holds a formatted
// message for the last failed load, or "" after a success.
type Async[T any] struct {
	Data    *State[T]
	Loading *State[bool]
	Error   *State[string]

	loader Loader[T]
	deps   []Source
	stale  bool

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	inflight  int
	seq       uint64
	unsubs    []func()
	destroyed bool

	wg sync.WaitGroup
}

// AsyncOption configures an Async.
type AsyncOption func(*asyncConfig)

type asyncConfig struct {
	deps         []Source
	discardStale bool
	ctx          context.Context
}

// WithDeps reloads the cell whenever one of deps changes.
func WithDeps(deps ...Source) AsyncOption {
	return func(c *asyncConfig) {
		c.deps = append(c.deps, deps...)
	}
}

// DiscardStale drops results of loads that were superseded by a newer load
// before they finished. Without it the last load to finish wins.
func DiscardStale() AsyncOption {
	return func(c *asyncConfig) {
		c.discardStale = true
	}
}

// WithContext sets the parent context passed to the loader.
func WithContext(ctx context.Context) AsyncOption {
	return func(c *asyncConfig) {
		c.ctx = ctx
	}
}

// NewAsync creates an Async cell and starts the first load before returning.
//
// Example:
//
//	user := reactive.NewAsync(func(ctx context.Context) (User, error) {
//	    return api.FetchUser(ctx, id.Get())
//	}, reactive.WithDeps(id))
func NewAsync[T any](loader Loader[T], opts ...AsyncOption) *Async[T] {
	cfg := asyncConfig{ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero T
	a := &Async[T]{
		Data:    NewState(zero),
		Loading: NewState(false),
		Error:   NewState(""),
		loader:  loader,
		deps:    cfg.deps,
		stale:   cfg.discardStale,
	}
	a.ctx, a.cancel = context.WithCancel(cfg.ctx)

	for _, d := range a.deps {
		if d == nil {
			continue
		}
		a.unsubs = append(a.unsubs, d.Watch(func(_, _ any) {
			a.load()
		}))
	}

	a.load()
	return a
}

// Reload starts a new load. Failures are reported through the Error cell,
// never returned.
func (a *Async[T]) Reload() {
	a.load()
}

// Wait blocks until every load started so far has finished.
func (a *Async[T]) Wait() {
	a.wg.Wait()
}

// Destroy stops reacting to dependencies and cancels in-flight loads.
// Results of cancelled loads are discarded.
func (a *Async[T]) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	a.cancel()
}

// DataSource implements Bundle.
func (a *Async[T]) DataSource() Source { return a.Data }

// LoadingSource implements Bundle.
func (a *Async[T]) LoadingSource() Source { return a.Loading }

// ErrorSource implements Bundle.
func (a *Async[T]) ErrorSource() Source { return a.Error }

func (a *Async[T]) load() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.inflight++
	a.seq++
	seq := a.seq
	a.wg.Add(1)
	// Loading follows inflight under mu. Set only queues listeners.
	a.Loading.Set(true)
	a.mu.Unlock()

	a.Error.Set("")

	go func() {
		defer a.wg.Done()
		v, err := a.call()
		a.finish(seq, v, err)
	}()
}

// call runs the loader, turning a panic into an error.
func (a *Async[T]) call() (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.loader(a.ctx)
}

func (a *Async[T]) finish(seq uint64, v T, err error) {
	a.mu.Lock()
	discard := a.destroyed || (a.stale && seq != a.seq)
	a.mu.Unlock()

	if !discard {
		if err != nil {
			a.Error.Set(fmt.Sprintf("async load failed: %v", err))
			diag.Report(errors.CodeAsyncFailed, "", slog.String("error", err.Error()))
		} else {
			a.Data.Set(v)
			a.Error.Set("")
		}
	}

	a.mu.Lock()
	a.inflight--
	if a.inflight == 0 {
		a.Loading.Set(false)
	}
	a.mu.Unlock()
}

var (
	_ Bundle = (*Async[int])(nil)
)
