// Package reactivity classifies values as plain or reactive.
//
// Classification is by capability, never by concrete type: anything that
// implements reactive.Source can be bound to a property or used as children,
// including sources defined outside Rex. The binder and the reconciler branch
// on reactivity only through this package.
package reactivity

import (
	"reflect"
	"sort"

	"github.com/vango-dev/rex/pkg/reactive"
)

// Kind is the reactive shape of a value.
type Kind uint8

const (
	// Plain is a non-reactive value.
	Plain Kind = iota

	// State is a writable cell.
	State

	// Computed is a read-only derived cell.
	Computed

	// Async is a data/loading/error bundle.
	Async

	// Children is a stream of element lists.
	Children

	// Custom is any other Source.
	Custom
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case State:
		return "state"
	case Computed:
		return "computed"
	case Async:
		return "async"
	case Children:
		return "children"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// Classify returns the reactive shape of v. Shapes are tested in a fixed
// order: state (refined to computed), async bundle, children stream, custom
// source.
func Classify(v any) Kind {
	if v == nil {
		return Plain
	}
	if w, ok := v.(reactive.Writable); ok {
		if d, ok := w.(reactive.Derived); ok && d.IsComputed() {
			return Computed
		}
		return State
	}
	if _, ok := v.(reactive.Bundle); ok {
		return Async
	}
	if _, ok := v.(reactive.ChildrenStream); ok {
		return Children
	}
	if _, ok := v.(reactive.Source); ok {
		return Custom
	}
	return Plain
}

// IsReactive reports whether v is any reactive shape.
func IsReactive(v any) bool {
	return Classify(v) != Plain
}

// SourceOf returns the source that carries v's value: v itself for cells and
// streams, the data cell for an async bundle, nil for plain values.
func SourceOf(v any) reactive.Source {
	switch Classify(v) {
	case Plain:
		return nil
	case Async:
		return v.(reactive.Bundle).DataSource()
	default:
		return v.(reactive.Source)
	}
}

// Resolve returns the current value of a reactive v, or v itself.
func Resolve(v any) any {
	if src := SourceOf(v); src != nil {
		return src.Current()
	}
	return v
}

// OnChange subscribes fn to changes of a reactive v. For plain values it
// returns a no-op unsubscribe and false.
func OnChange(v any, fn func(newVal, oldVal any)) (unsubscribe func(), ok bool) {
	src := SourceOf(v)
	if src == nil {
		return func() {}, false
	}
	return src.Watch(fn), true
}

// IsArray reports whether v is list-shaped: a slice, an array, or a map whose
// keys are exactly the integers 1..n.
func IsArray(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	case reflect.Map:
		return sequentialKeys(rv) != nil
	}
	return false
}

// List returns the elements of a list-shaped v in order.
// It returns nil, false when v is not list-shaped.
func List(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Map:
		keys := sequentialKeys(rv)
		if keys == nil {
			return nil, false
		}
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = rv.MapIndex(k).Interface()
		}
		return out, true
	}
	return nil, false
}

// sequentialKeys returns the keys of map rv sorted ascending when they are
// exactly 1..n, and nil otherwise. An empty map is an empty list.
func sequentialKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	nums := make([]int64, len(keys))
	for i, k := range keys {
		n, ok := intKey(k)
		if !ok {
			return nil
		}
		nums[i] = n
	}
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return nums[idx[a]] < nums[idx[b]] })

	out := make([]reflect.Value, len(keys))
	for pos, i := range idx {
		if nums[i] != int64(pos+1) {
			return nil
		}
		out[pos] = keys[i]
	}
	return out
}

func intKey(k reflect.Value) (int64, bool) {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return k.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(k.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := k.Float()
		if f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
