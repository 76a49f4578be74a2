package reactive

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
)

// The helpers below operate on the dynamic shape of the stored value, so they
// also work on State[any]. When the shape does not fit the operation a
// diagnostic is reported and the value is left unchanged.

// Increment adds 1 to a numeric value.
func (s *State[T]) Increment() { s.addNumber("increment", 1) }

// Decrement subtracts 1 from a numeric value.
func (s *State[T]) Decrement() { s.addNumber("decrement", -1) }

// Add adds delta to a numeric value. Integer values truncate delta.
func (s *State[T]) Add(delta float64) { s.addNumber("add", delta) }

// Toggle flips a boolean value.
func (s *State[T]) Toggle() {
	cur := any(s.Peek())
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || rv.Kind() != reflect.Bool {
		s.mismatch("toggle", cur)
		return
	}
	out := reflect.New(rv.Type()).Elem()
	out.SetBool(!rv.Bool())
	s.store("toggle", out.Interface())
}

// Push appends items to a slice value.
func (s *State[T]) Push(items ...any) {
	cur := any(clone(s.Peek()))
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		s.mismatch("push", cur)
		return
	}
	elem := rv.Type().Elem()
	out := rv
	for _, item := range items {
		iv, ok := assignable(elem, item)
		if !ok {
			s.mismatch("push", item)
			return
		}
		out = reflect.Append(out, iv)
	}
	s.store("push", out.Interface())
}

// Pop removes and returns the last element of a slice value.
// It returns false when the slice is empty or the value is not a slice.
func (s *State[T]) Pop() (any, bool) {
	cur := any(clone(s.Peek()))
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		s.mismatch("pop", cur)
		return nil, false
	}
	n := rv.Len()
	if n == 0 {
		return nil, false
	}
	last := rv.Index(n - 1).Interface()
	s.store("pop", rv.Slice(0, n-1).Interface())
	return last, true
}

// RemoveAt removes the element at index i of a slice value.
// An out-of-range index leaves the value unchanged.
func (s *State[T]) RemoveAt(i int) bool {
	cur := any(clone(s.Peek()))
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		s.mismatch("removeAt", cur)
		return false
	}
	if i < 0 || i >= rv.Len() {
		return false
	}
	s.store("removeAt", without(rv, i).Interface())
	return true
}

// Remove removes the first element of a slice value deeply equal to item.
func (s *State[T]) Remove(item any) bool {
	cur := any(clone(s.Peek()))
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		s.mismatch("remove", cur)
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if reflect.DeepEqual(rv.Index(i).Interface(), item) {
			s.store("remove", without(rv, i).Interface())
			return true
		}
	}
	return false
}

// Clear empties a slice or map value.
func (s *State[T]) Clear() {
	cur := any(s.Peek())
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() {
		s.mismatch("clear", cur)
		return
	}
	switch rv.Kind() {
	case reflect.Slice:
		s.store("clear", reflect.MakeSlice(rv.Type(), 0, 0).Interface())
	case reflect.Map:
		s.store("clear", reflect.MakeMap(rv.Type()).Interface())
	default:
		s.mismatch("clear", cur)
	}
}

// SetPath stores v at a dot-separated path inside a map, struct or slice
// value. Missing intermediate map entries are created as map[string]any.
//
//	user.SetPath("profile.address.city", "Oslo")
func (s *State[T]) SetPath(path string, v any) {
	cur := clone(s.Peek())
	keys := splitPath(path)
	if len(keys) == 0 {
		s.mismatch("setPath", any(cur))
		return
	}
	root := reflect.ValueOf(&cur).Elem()
	out, ok := setIn(root, keys, v)
	if !ok {
		diag.Report(errors.CodeShapeMismatch, "",
			slog.String("op", "setPath"),
			slog.String("path", path),
			slog.String("type", fmt.Sprintf("%T", any(cur))))
		return
	}
	s.store("setPath", out.Interface())
}

// GetPath reads the value at a dot-separated path. It tracks the cell like
// Get does.
func (s *State[T]) GetPath(path string) (any, bool) {
	cur := s.Get()
	v := reflect.ValueOf(any(cur))
	for _, key := range splitPath(path) {
		v = indirect(v)
		if !v.IsValid() {
			return nil, false
		}
		switch v.Kind() {
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			v = v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		case reflect.Struct:
			v = v.FieldByName(key)
			if v.IsValid() && !v.CanInterface() {
				return nil, false
			}
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= v.Len() {
				return nil, false
			}
			v = v.Index(i)
		default:
			return nil, false
		}
		if !v.IsValid() {
			return nil, false
		}
	}
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func (s *State[T]) addNumber(op string, delta float64) {
	cur := any(s.Peek())
	rv := reflect.ValueOf(cur)
	if !rv.IsValid() || !isNumber(rv.Kind()) {
		s.mismatch(op, cur)
		return
	}
	out := reflect.New(rv.Type()).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(rv.Int() + int64(delta))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, d := rv.Uint(), int64(delta)
		if d < 0 && uint64(-d) > u {
			s.outOfRange(op, cur)
			return
		}
		n := u + uint64(d)
		if out.OverflowUint(n) {
			s.outOfRange(op, cur)
			return
		}
		out.SetUint(n)
	default:
		out.SetFloat(rv.Float() + delta)
	}
	s.store(op, out.Interface())
}

// store writes a helper result back through the typed setter.
func (s *State[T]) store(op string, v any) {
	typed, ok := as[T](v)
	if !ok {
		s.mismatch(op, v)
		return
	}
	s.Set(typed)
}

func (s *State[T]) mismatch(op string, v any) {
	diag.Report(errors.CodeShapeMismatch, "",
		slog.String("op", op),
		slog.Uint64("state", s.id),
		slog.String("type", fmt.Sprintf("%T", v)))
}

// outOfRange reports an arithmetic helper whose result does not fit the
// state's type. The value is left unchanged.
func (s *State[T]) outOfRange(op string, v any) {
	diag.Report(errors.CodeShapeMismatch, "result out of range",
		slog.String("op", op),
		slog.Uint64("state", s.id),
		slog.String("type", fmt.Sprintf("%T", v)))
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// without returns a copy of slice v with index i removed.
func without(v reflect.Value, i int) reflect.Value {
	out := reflect.MakeSlice(v.Type(), 0, v.Len()-1)
	out = reflect.AppendSlice(out, v.Slice(0, i))
	return reflect.AppendSlice(out, v.Slice(i+1, v.Len()))
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// assignable converts item to a value of type t.
func assignable(t reflect.Type, item any) (reflect.Value, bool) {
	if item == nil {
		if nilable(t) {
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	iv := reflect.ValueOf(item)
	if iv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(iv)
		return out, true
	}
	if isNumber(iv.Kind()) && isNumber(t.Kind()) {
		return iv.Convert(t), true
	}
	return reflect.Value{}, false
}

// setIn returns a copy of v with val stored at keys.
func setIn(v reflect.Value, keys []string, val any) (reflect.Value, bool) {
	if len(keys) == 0 {
		return assignable(v.Type(), val)
	}
	key, rest := keys[0], keys[1:]

	switch v.Kind() {
	case reflect.Interface:
		inner := v.Elem()
		if !inner.IsValid() {
			inner = reflect.ValueOf(map[string]any{})
		}
		res, ok := setIn(inner, keys, val)
		if !ok || !res.Type().AssignableTo(v.Type()) {
			return reflect.Value{}, false
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(res)
		return out, true

	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Value{}, false
		}
		res, ok := setIn(v.Elem(), keys, val)
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(res)
		return p, true

	case reflect.Map:
		kt := v.Type().Key()
		if kt.Kind() != reflect.String {
			return reflect.Value{}, false
		}
		m := v
		if m.IsNil() {
			m = reflect.MakeMap(v.Type())
		}
		k := reflect.ValueOf(key).Convert(kt)
		child := m.MapIndex(k)
		if !child.IsValid() {
			child = reflect.Zero(v.Type().Elem())
			if len(rest) > 0 && child.Kind() == reflect.Interface {
				holder := reflect.New(child.Type()).Elem()
				holder.Set(reflect.ValueOf(map[string]any{}))
				child = holder
			}
		}
		res, ok := setIn(child, rest, val)
		if !ok {
			return reflect.Value{}, false
		}
		m.SetMapIndex(k, res)
		return m, true

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		f := out.FieldByName(key)
		if !f.IsValid() || !f.CanSet() {
			return reflect.Value{}, false
		}
		res, ok := setIn(f, rest, val)
		if !ok {
			return reflect.Value{}, false
		}
		f.Set(res)
		return out, true

	case reflect.Slice:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, false
		}
		res, ok := setIn(v.Index(i), rest, val)
		if !ok {
			return reflect.Value{}, false
		}
		v.Index(i).Set(res)
		return v, true
	}
	return reflect.Value{}, false
}
