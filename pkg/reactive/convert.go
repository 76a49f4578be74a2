package reactive

import (
	"reflect"
)

// as converts v to T. A nil interface becomes the zero value of a nilable T,
// and numbers convert between numeric kinds.
func as[T any](v any) (T, bool) {
	var zero T
	t := typeOf[T]()
	if v == nil {
		return zero, nilable(t)
	}
	if typed, ok := v.(T); ok {
		return typed, true
	}
	rv := reflect.ValueOf(v)
	if isNumber(rv.Kind()) && isNumber(t.Kind()) {
		if typed, ok := rv.Convert(t).Interface().(T); ok {
			return typed, true
		}
	}
	return zero, false
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeName[T any]() string {
	return typeOf[T]().String()
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
