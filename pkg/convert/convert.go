// Package convert coerces bound values to the types native properties expect.
//
// Conversions are looked up by the value's type category and then by the
// target property name. A missing entry at either level passes the value
// through unchanged, so binding a value of the right type never needs a
// converter. The registry is open: Register adds or replaces entries.
package convert

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/scene"
)

// Type is a value category used as the first lookup level.
type Type string

const (
	Unknown Type = "unknown"
	Number  Type = "number"
	Bool    Type = "boolean"
	String  Type = "string"
	Vector2 Type = "Vector2"
	Color   Type = "Color3"
	UDim2   Type = "UDim2"
	UDim    Type = "UDim"
	Enum    Type = "Enum"
	Table   Type = "table"
	Handle  Type = "handle"
)

// TypeOf returns the category of v.
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return Unknown
	case bool:
		return Bool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return Number
	case string:
		return String
	case scene.Vector2:
		return Vector2
	case scene.Color3:
		return Color
	case scene.UDim2:
		return UDim2
	case scene.UDim:
		return UDim
	case scene.Enum:
		return Enum
	case scene.Handle:
		return Handle
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return Table
	}
	return Unknown
}

// Func converts a value for one property.
type Func func(v any) (any, error)

// Registry holds converters keyed by type category and property name.
type Registry struct {
	mu    sync.RWMutex
	funcs map[Type]map[string]Func
}

// NewRegistry returns a registry with the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[Type]map[string]Func)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces the converter for (t, prop).
func (r *Registry) Register(t Type, prop string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[t] == nil {
		r.funcs[t] = make(map[string]Func)
	}
	r.funcs[t][prop] = fn
}

// Lookup returns the converter for (t, prop).
func (r *Registry) Lookup(t Type, prop string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[t][prop]
	return fn, ok
}

// Convert returns v converted for prop. Without a converter v is returned
// unchanged. A converter that fails or panics is reported and v is returned
// unchanged.
func (r *Registry) Convert(v any, prop string) (out any) {
	t := TypeOf(v)
	fn, ok := r.Lookup(t, prop)
	if !ok {
		return v
	}

	defer func() {
		if p := recover(); p != nil {
			diag.Report(errors.CodeConversionFailed, "",
				slog.String("type", string(t)),
				slog.String("property", prop),
				slog.String("panic", fmt.Sprint(p)))
			out = v
		}
	}()

	res, err := fn(v)
	if err != nil {
		diag.Report(errors.CodeConversionFailed, "",
			slog.String("type", string(t)),
			slog.String("property", prop),
			slog.String("error", err.Error()))
		return v
	}
	return res
}

// Default is the process-wide registry used by Convert and Register.
var Default = NewRegistry()

// Convert converts v for prop with the Default registry.
func Convert(v any, prop string) any {
	return Default.Convert(v, prop)
}

// Register adds a converter to the Default registry.
func Register(t Type, prop string, fn Func) {
	Default.Register(t, prop, fn)
}
