package reactivity

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/rex/pkg/reactive"
)

// ticker is a foreign source: it only implements Current and Watch.
type ticker struct {
	n  int
	fn func(newVal, oldVal any)
}

func (t *ticker) Current() any { return t.n }

func (t *ticker) Watch(fn func(newVal, oldVal any)) func() {
	t.fn = fn
	return func() { t.fn = nil }
}

func (t *ticker) tick() {
	old := t.n
	t.n++
	if t.fn != nil {
		t.fn(t.n, old)
	}
}

type stream struct{ ticker }

func (stream) ChildrenStream() {}

func TestClassify(t *testing.T) {
	state := reactive.NewState(1)
	computed := reactive.NewComputed(func() int { return state.Get() }, []reactive.Source{state})
	defer computed.Destroy()
	async := reactive.NewAsync(func(context.Context) (int, error) { return 1, nil })
	defer async.Destroy()

	tests := []struct {
		name string
		v    any
		want Kind
	}{
		{"nil", nil, Plain},
		{"int", 5, Plain},
		{"string", "x", Plain},
		{"slice", []int{1}, Plain},
		{"state", state, State},
		{"computed", computed, Computed},
		{"async", async, Async},
		{"children", &stream{}, Children},
		{"custom", &ticker{}, Custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.v); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if got := IsReactive(tt.v); got != (tt.want != Plain) {
				t.Errorf("IsReactive() = %v", got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	state := reactive.NewState("hello")
	async := reactive.NewAsync(func(context.Context) (string, error) { return "loaded", nil })
	defer async.Destroy()
	async.Wait()

	if got := Resolve(state); got != "hello" {
		t.Errorf("Resolve(state) = %v", got)
	}
	if got := Resolve(async); got != "loaded" {
		t.Errorf("Resolve(async) = %v", got)
	}
	if got := Resolve(&ticker{n: 7}); got != 7 {
		t.Errorf("Resolve(custom) = %v", got)
	}
	if got := Resolve(42); got != 42 {
		t.Errorf("Resolve(plain) = %v", got)
	}
}

func TestOnChange(t *testing.T) {
	src := &ticker{}
	var got []any
	unsub, ok := OnChange(src, func(n, _ any) { got = append(got, n) })
	if !ok {
		t.Fatal("OnChange on a source should subscribe")
	}

	src.tick()
	unsub()
	src.tick()

	if diff := cmp.Diff([]any{1}, got); diff != "" {
		t.Errorf("OnChange() mismatch (-want +got):\n%s", diff)
	}

	unsub, ok = OnChange("plain", func(_, _ any) {})
	if ok {
		t.Error("OnChange on a plain value should not subscribe")
	}
	unsub()
}

func TestIsArray(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"slice", []string{"a"}, true},
		{"array", [2]int{}, true},
		{"empty map", map[int]string{}, true},
		{"sequential map", map[int]string{1: "a", 2: "b", 3: "c"}, true},
		{"any keys", map[any]string{1: "a", 2.0: "b"}, true},
		{"gap", map[int]string{1: "a", 3: "c"}, false},
		{"zero based", map[int]string{0: "a", 1: "b"}, false},
		{"string keys", map[string]int{"a": 1}, false},
		{"scalar", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArray(tt.v); got != tt.want {
				t.Errorf("IsArray(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestListOrdersMapByKey(t *testing.T) {
	got, ok := List(map[int]string{3: "c", 1: "a", 2: "b"})
	if !ok {
		t.Fatal("List() should accept a sequential map")
	}
	if diff := cmp.Diff([]any{"a", "b", "c"}, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
