package vdom

import (
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/reactivity"
)

// El creates an element of the given class.
// Children are *Element, []*Element, []any or reactive sources; nil entries
// are skipped.
func El(tag string, props Props, children ...any) *Element {
	return &Element{
		Kind:     KindElement,
		Tag:      tag,
		Props:    props,
		Key:      keyProp(props),
		Children: collect(children),
	}
}

// Wrap creates an element bound to an existing native object, given either
// as a scene.Handle or as a child name under the eventual parent.
func Wrap(target any, props Props, children ...any) *Element {
	return &Element{
		Kind:     KindElement,
		Props:    props,
		Key:      keyProp(props),
		Wrap:     target,
		Children: collect(children),
	}
}

// Fragment groups children without an object of its own.
func Fragment(children ...any) *Element {
	return &Element{
		Kind:     KindFragment,
		Children: collect(children),
	}
}

// If returns el when cond is true, nil otherwise.
func If(cond bool, el *Element) *Element {
	if cond {
		return el
	}
	return nil
}

// IfElse returns ifTrue when cond is true, ifFalse otherwise.
func IfElse(cond bool, ifTrue, ifFalse *Element) *Element {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// Range maps items to elements.
func Range[T any](items []T, fn func(item T, index int) *Element) []*Element {
	out := make([]*Element, 0, len(items))
	for i, item := range items {
		if el := fn(item, i); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// keyProp reads a string "key" pseudo-property.
func keyProp(props Props) string {
	if k, ok := props["key"].(string); ok {
		return k
	}
	return ""
}

// collect turns a variadic children list into the narrowest shape.
func collect(children []any) any {
	var items []any
	for _, c := range children {
		switch v := c.(type) {
		case nil:
			continue
		case *Element:
			if v == nil {
				continue
			}
		}
		items = append(items, c)
	}

	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	}

	elems := make([]*Element, 0, len(items))
	for _, it := range items {
		el, ok := it.(*Element)
		if !ok {
			return items
		}
		elems = append(elems, el)
	}
	return elems
}

// stream maps a list source to elements.
type stream struct {
	src reactive.Source
	fn  func(item any, index int) *Element
}

// Each returns a children stream that renders one element per item of a
// list-valued source. Give the elements keys so reordering the list moves
// native objects instead of rebuilding them.
func Each(src reactive.Source, fn func(item any, index int) *Element) reactive.ChildrenStream {
	return &stream{src: src, fn: fn}
}

func (s *stream) render(v any) []*Element {
	items, _ := reactivity.List(v)
	out := make([]*Element, 0, len(items))
	for i, item := range items {
		if el := s.fn(item, i); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// Current implements reactive.Source.
func (s *stream) Current() any {
	return s.render(s.src.Current())
}

// Watch implements reactive.Source. The old value passed to fn is nil.
func (s *stream) Watch(fn func(newVal, oldVal any)) func() {
	return s.src.Watch(func(newVal, _ any) {
		fn(s.render(newVal), nil)
	})
}

// ChildrenStream implements reactive.ChildrenStream.
func (s *stream) ChildrenStream() {}

// derived is a source mapped through a function.
type derived struct {
	src reactive.Source
	fn  func(any) any
}

// Derive returns a source whose value is fn applied to src's value.
//
//	El("TextLabel", Props{"Text": Derive(count, func(v any) any {
//	    return fmt.Sprintf("Count: %d", v)
//	})})
func Derive(src reactive.Source, fn func(any) any) reactive.Source {
	return &derived{src: src, fn: fn}
}

func (d *derived) Current() any {
	return d.fn(d.src.Current())
}

func (d *derived) Watch(fn func(newVal, oldVal any)) func() {
	return d.src.Watch(func(newVal, oldVal any) {
		fn(d.fn(newVal), d.fn(oldVal))
	})
}
