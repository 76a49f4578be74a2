package vdom

import (
	"github.com/vango-dev/rex/pkg/scene"
)

// Kind is the element type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // Native object
	KindFragment             // Children without an object of its own
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Props holds property values and event handlers.
type Props map[string]any

// Element is a virtual native object.
type Element struct {
	Kind  Kind   // Element or fragment
	Tag   string // Native class name
	Props Props  // Properties and handlers
	Key   string // Reconciliation key

	// Children is nil, *Element, []*Element, []any (elements mixed with
	// sources) or a reactive.Source.
	Children any

	// Wrap, when set, is the existing native object this element binds to:
	// a scene.Handle, or a name looked up under the parent.
	Wrap any

	// Handle is the bound native object. It is set by the reconciler.
	Handle scene.Handle
}

// IsWrapped reports whether e binds an existing object instead of creating
// one.
func (e *Element) IsWrapped() bool {
	return e != nil && e.Wrap != nil
}

// WithKey sets the key and returns e.
func (e *Element) WithKey(key string) *Element {
	e.Key = key
	return e
}

// Prop returns a property value.
func (e *Element) Prop(name string) (any, bool) {
	if e == nil || e.Props == nil {
		return nil, false
	}
	v, ok := e.Props[name]
	return v, ok
}

// Compatible reports whether b can be patched into a's native object: both
// wrap the same target, or both are constructed with the same tag and key.
func Compatible(a, b *Element) bool {
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	if a.Wrap != nil || b.Wrap != nil {
		return a.Wrap != nil && b.Wrap != nil && sameTarget(a.Wrap, b.Wrap)
	}
	return a.Tag == b.Tag && a.Key == b.Key
}

func sameTarget(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
