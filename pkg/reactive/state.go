package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/rex/internal/errors"
)

// listener is one OnChange registration.
type listener[T any] struct {
	id     uint64
	fn     func(newVal, oldVal T)
	active atomic.Bool
}

// State is a mutable observable value.
//
// Get registers the cell with an open tracking scope. Set stores a deep clone
// of the new value and, when it differs from the stored one, queues every
// listener with the (new, old) pair.
type State[T any] struct {
	id uint64

	// value is the current value.
	value T

	// mu protects value.
	mu sync.RWMutex

	// listeners are the OnChange registrations.
	listeners []*listener[T]

	// lmu protects listeners.
	lmu sync.Mutex

	// equal decides whether a Set changes the value.
	// If nil, deep equality is used.
	equal func(T, T) bool
}

// NewState creates a new state cell with the given initial value.
func NewState[T any](initial T) *State[T] {
	return &State[T]{
		id:    nextID(),
		value: clone(initial),
	}
}

// Get returns the current value and registers the cell as a dependency of
// the enclosing tracking scope.
func (s *State[T]) Get() T {
	track(s)
	return s.Peek()
}

// Peek returns the current value without tracking.
func (s *State[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores a deep clone of value. Listeners are queued only when the clone
// differs from the stored value.
func (s *State[T]) Set(value T) {
	next := clone(value)

	s.mu.Lock()
	old := s.value
	if s.equals(old, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	s.mu.Unlock()

	s.notify(next, old)
}

// Update stores fn applied to a deep clone of the current value.
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(clone(s.Peek())))
}

// OnChange registers fn and returns a function that removes it.
// fn runs on the scheduler, never inside Set. A listener removed before its
// queued call runs is skipped.
func (s *State[T]) OnChange(fn func(newVal, oldVal T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	l := &listener[T]{id: nextID(), fn: fn}
	l.active.Store(true)

	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()

	return func() { s.remove(l) }
}

// Listeners returns the number of registered listeners.
func (s *State[T]) Listeners() int {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return len(s.listeners)
}

// WithEquals configures a custom equality function and returns the cell.
func (s *State[T]) WithEquals(fn func(T, T) bool) *State[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this cell.
func (s *State[T]) ID() uint64 {
	return s.id
}

// String implements fmt.Stringer.
func (s *State[T]) String() string {
	return fmt.Sprintf("State(%v)", s.Peek())
}

// Current implements Source.
func (s *State[T]) Current() any {
	return s.Get()
}

// Watch implements Source.
func (s *State[T]) Watch(fn func(newVal, oldVal any)) func() {
	return s.OnChange(func(newVal, oldVal T) {
		fn(newVal, oldVal)
	})
}

// Assign implements Writable.
func (s *State[T]) Assign(v any) error {
	typed, ok := as[T](v)
	if !ok {
		return errors.New(errors.CodeShapeMismatch).
			WithDetailf("cannot assign %T to %s", v, typeName[T]())
	}
	s.Set(typed)
	return nil
}

// Modify implements Writable.
func (s *State[T]) Modify(fn func(any) any) error {
	next := fn(clone(s.Peek()))
	return s.Assign(next)
}

func (s *State[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return deepEqual(a, b)
}

func (s *State[T]) remove(l *listener[T]) {
	l.active.Store(false)

	s.lmu.Lock()
	defer s.lmu.Unlock()
	for i, existing := range s.listeners {
		if existing.id == l.id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// notify queues every listener registered at this moment.
func (s *State[T]) notify(newVal, oldVal T) {
	s.lmu.Lock()
	subs := make([]*listener[T], len(s.listeners))
	copy(subs, s.listeners)
	s.lmu.Unlock()

	depth := currentDepth() + 1
	for _, l := range subs {
		l := l
		schedule(depth, func() {
			if l.active.Load() {
				l.fn(newVal, oldVal)
			}
		})
	}
}

var (
	_ Writable = (*State[int])(nil)
)
