package vdom

import (
	"testing"

	"github.com/vango-dev/rex/internal/diag/diagtest"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/reactive"
)

func TestEl(t *testing.T) {
	a := El("TextLabel", nil)
	b := El("TextLabel", nil)

	el := El("Frame", Props{"key": "root", "Visible": true}, a, nil, b)
	if el.Kind != KindElement || el.Tag != "Frame" {
		t.Errorf("got %v %q", el.Kind, el.Tag)
	}
	if el.Key != "root" {
		t.Errorf("Key = %q, want root", el.Key)
	}
	children, ok := el.Children.([]*Element)
	if !ok || len(children) != 2 {
		t.Fatalf("Children = %#v", el.Children)
	}

	single := El("Frame", nil, a)
	if single.Children != a {
		t.Error("a single child should be stored as is")
	}
	if El("Frame", nil).Children != nil {
		t.Error("no children should be nil")
	}
}

func TestElMixedChildren(t *testing.T) {
	s := reactive.NewState("x")
	el := El("Frame", nil, El("TextLabel", nil), s)
	if _, ok := el.Children.([]any); !ok {
		t.Fatalf("Children = %T, want []any", el.Children)
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b *Element
		want bool
	}{
		{"same tag", El("Frame", nil), El("Frame", nil), true},
		{"same tag and key", El("Frame", nil).WithKey("a"), El("Frame", nil).WithKey("a"), true},
		{"different key", El("Frame", nil).WithKey("a"), El("Frame", nil).WithKey("b"), false},
		{"different tag", El("Frame", nil), El("TextLabel", nil), false},
		{"same wrap", Wrap("Header", nil), Wrap("Header", nil), true},
		{"different wrap", Wrap("Header", nil), Wrap("Footer", nil), false},
		{"wrap and constructed", Wrap("Frame", nil), El("Frame", nil), false},
		{"nil", nil, El("Frame", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.a, tt.b); got != tt.want {
				t.Errorf("Compatible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveChildren(t *testing.T) {
	s := reactive.NewState([]string{"a"})
	label := El("TextLabel", nil)

	tests := []struct {
		name     string
		children any
		want     ChildMode
	}{
		{"nil", nil, ChildrenNone},
		{"single", label, ChildrenStatic},
		{"list", []*Element{label}, ChildrenStatic},
		{"plain any", []any{label, nil}, ChildrenStatic},
		{"mixed", []any{label, s}, ChildrenMixed},
		{"stream", Each(s, func(any, int) *Element { return label }), ChildrenStream},
		{"scalar", reactive.NewState(label), ChildrenScalar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveChildren(tt.children).Mode; got != tt.want {
				t.Errorf("ResolveChildren() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMixedChildrenSpec(t *testing.T) {
	header := El("TextLabel", nil).WithKey("header")
	rows := reactive.NewState([]*Element{
		El("Frame", nil).WithKey("r1"),
		El("Frame", nil).WithKey("r2"),
	})

	spec := ResolveChildren([]any{header, rows})
	if spec.Mode != ChildrenMixed {
		t.Fatalf("Mode = %v", spec.Mode)
	}
	if got := len(spec.Sources()); got != 1 {
		t.Errorf("Sources() = %d, want 1", got)
	}

	current := spec.Current()
	if len(current) != 3 || current[0] != header || current[2].Key != "r2" {
		t.Errorf("Current() = %v", keys(current))
	}
}

func TestNormalizeFlattensFragments(t *testing.T) {
	rec := diagtest.Capture(t)
	a := El("Frame", nil).WithKey("a")
	b := El("Frame", nil).WithKey("b")
	c := El("Frame", nil).WithKey("c")

	got := Normalize([]any{a, Fragment(b, Fragment(c)), nil, "text"})
	if k := keys(got); k != "a,b,c" {
		t.Errorf("Normalize() = %s", k)
	}
	if rec.Count(errors.CodeUnsupportedChild) != 1 {
		t.Error("a string child should be reported")
	}
}

func TestEach(t *testing.T) {
	queue := reactive.NewQueue()
	defer reactive.SetScheduler(reactive.SetScheduler(queue))

	items := reactive.NewState([]string{"a", "b"})
	stream := Each(items, func(item any, _ int) *Element {
		return El("TextLabel", Props{"Text": item}).WithKey(item.(string))
	})

	if k := keys(stream.Current().([]*Element)); k != "a,b" {
		t.Errorf("Current() = %s", k)
	}

	var got string
	stream.Watch(func(v, _ any) { got = keys(v.([]*Element)) })
	items.Set([]string{"c", "a"})
	queue.Flush()
	if got != "c,a" {
		t.Errorf("Watch() saw %s", got)
	}
}

func TestDerive(t *testing.T) {
	n := reactive.NewState(2)
	d := Derive(n, func(v any) any { return v.(int) * 3 })
	if d.Current() != 6 {
		t.Errorf("Current() = %v", d.Current())
	}
}

func TestBuildKeyMap(t *testing.T) {
	rec := diagtest.Capture(t)
	list := []*Element{
		El("Frame", nil).WithKey("x"),
		El("Frame", nil).WithKey("x"),
		El("Frame", nil),
		El("Frame", nil).WithKey("x"),
	}

	km := BuildKeyMap(list)
	want := []string{"x", "x_duplicate_1", "auto_2", "x_duplicate_2"}
	for i, k := range want {
		if km.Keys[i] != k {
			t.Errorf("Keys[%d] = %q, want %q", i, km.Keys[i], k)
		}
		if km.Elements[k] != list[i] {
			t.Errorf("Elements[%q] is not element %d", k, i)
		}
	}
	if len(km.Elements) != len(list) {
		t.Errorf("len(Elements) = %d, want %d", len(km.Elements), len(list))
	}
	if n := rec.Count(errors.CodeDuplicateKey); n != 2 {
		t.Errorf("duplicate diagnostics = %d, want 2", n)
	}
}

func TestPropsEqual(t *testing.T) {
	fn := func() {}
	tests := []struct {
		a, b any
		want bool
	}{
		{"a", "a", true},
		{1, 1, true},
		{1, 1.0, false},
		{nil, nil, true},
		{[]int{1}, []int{1}, true},
		{map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{fn, fn, false},
	}
	for _, tt := range tests {
		if got := PropsEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("PropsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func keys(list []*Element) string {
	s := ""
	for i, el := range list {
		if i > 0 {
			s += ","
		}
		s += el.Key
	}
	return s
}
