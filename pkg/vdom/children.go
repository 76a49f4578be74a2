package vdom

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/rex/internal/diag"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/reactivity"
)

// ChildMode is the resolved shape of an element's children.
type ChildMode uint8

const (
	ChildrenNone   ChildMode = iota // No children
	ChildrenStatic                  // Elements only
	ChildrenStream                  // A children stream
	ChildrenScalar                  // Any other reactive value
	ChildrenMixed                   // Elements and reactive values
)

// String returns the string representation of the ChildMode.
func (m ChildMode) String() string {
	switch m {
	case ChildrenNone:
		return "None"
	case ChildrenStatic:
		return "Static"
	case ChildrenStream:
		return "Stream"
	case ChildrenScalar:
		return "Scalar"
	case ChildrenMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// ChildSpec is the resolved children of an element.
type ChildSpec struct {
	Mode ChildMode

	// Static is set for ChildrenStatic.
	Static []*Element

	// Source is set for ChildrenStream and ChildrenScalar.
	Source reactive.Source

	// Items is set for ChildrenMixed.
	Items []any
}

// ResolveChildren classifies a children value.
func ResolveChildren(children any) ChildSpec {
	switch v := children.(type) {
	case nil:
		return ChildSpec{Mode: ChildrenNone}
	case *Element:
		return ChildSpec{Mode: ChildrenStatic, Static: Normalize(v)}
	case []*Element:
		return ChildSpec{Mode: ChildrenStatic, Static: Normalize(v)}
	case []any:
		for _, item := range v {
			if reactivity.IsReactive(item) {
				return ChildSpec{Mode: ChildrenMixed, Items: v}
			}
		}
		return ChildSpec{Mode: ChildrenStatic, Static: Normalize(v)}
	}

	switch reactivity.Classify(children) {
	case reactivity.Children:
		return ChildSpec{Mode: ChildrenStream, Source: children.(reactive.Source)}
	case reactivity.Plain:
		return ChildSpec{Mode: ChildrenStatic, Static: Normalize(children)}
	default:
		return ChildSpec{Mode: ChildrenScalar, Source: reactivity.SourceOf(children)}
	}
}

// Current returns the element list the child spec resolves to right now.
func (s ChildSpec) Current() []*Element {
	switch s.Mode {
	case ChildrenStatic:
		return s.Static
	case ChildrenStream, ChildrenScalar:
		return Normalize(s.Source.Current())
	case ChildrenMixed:
		return Normalize(s.Items)
	default:
		return nil
	}
}

// Sources returns the reactive sources the child spec depends on.
func (s ChildSpec) Sources() []reactive.Source {
	switch s.Mode {
	case ChildrenStream, ChildrenScalar:
		return []reactive.Source{s.Source}
	case ChildrenMixed:
		var out []reactive.Source
		for _, item := range s.Items {
			if src := reactivity.SourceOf(item); src != nil {
				out = append(out, src)
			}
		}
		return out
	default:
		return nil
	}
}

// Normalize flattens a children value into an element list. Sources are
// resolved to their current value, lists are flattened, fragments are
// replaced by their children, nil entries are dropped. Values that cannot be
// elements are reported and skipped.
func Normalize(v any) []*Element {
	var out []*Element
	normalize(v, &out)
	return out
}

func normalize(v any, out *[]*Element) {
	switch c := v.(type) {
	case nil:
		return
	case *Element:
		if c == nil {
			return
		}
		if c.Kind == KindFragment {
			normalize(c.Children, out)
			return
		}
		*out = append(*out, c)
		return
	case []*Element:
		for _, el := range c {
			normalize(el, out)
		}
		return
	case []any:
		for _, item := range c {
			normalize(item, out)
		}
		return
	}

	if reactivity.IsReactive(v) {
		normalize(reactivity.Resolve(v), out)
		return
	}
	if items, ok := reactivity.List(v); ok {
		for _, item := range items {
			normalize(item, out)
		}
		return
	}
	diag.Report(errors.CodeUnsupportedChild, "", slog.String("type", fmt.Sprintf("%T", v)))
}

// KeyMap assigns unique keys to a child list.
type KeyMap struct {
	// Keys holds the key of each element, in list order.
	Keys []string

	// Elements maps each key to its element.
	Elements map[string]*Element
}

// BuildKeyMap keys a child list. Elements without a key get "auto_<index>".
// A key already taken is renamed "<key>_duplicate_<n>" and reported, so the
// map always has one entry per element.
func BuildKeyMap(list []*Element) KeyMap {
	km := KeyMap{
		Keys:     make([]string, len(list)),
		Elements: make(map[string]*Element, len(list)),
	}
	for i, el := range list {
		key := el.Key
		if key == "" {
			key = fmt.Sprintf("auto_%d", i)
		}
		if _, taken := km.Elements[key]; taken {
			orig := key
			for n := 1; ; n++ {
				key = fmt.Sprintf("%s_duplicate_%d", orig, n)
				if _, taken := km.Elements[key]; !taken {
					break
				}
			}
			diag.Report(errors.CodeDuplicateKey, "",
				slog.String("key", orig),
				slog.String("renamed", key),
				slog.Int("index", i))
		}
		km.Keys[i] = key
		km.Elements[key] = el
	}
	return km
}
