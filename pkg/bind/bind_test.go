package bind

import (
	"context"
	"testing"

	"github.com/vango-dev/rex/internal/diag/diagtest"
	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/scene/memory"
	"github.com/vango-dev/rex/pkg/vdom"
)

func setup(t *testing.T, class string) (*memory.Graph, *Binder, scene.Handle, *reactive.Queue) {
	t.Helper()
	q := reactive.NewQueue()
	old := reactive.SetScheduler(q)
	t.Cleanup(func() { reactive.SetScheduler(old) })

	g := memory.New()
	h, err := g.Create(class)
	if err != nil {
		t.Fatal(err)
	}
	return g, New(g), h, q
}

func prop(g *memory.Graph, h scene.Handle, name string) any {
	v, _ := g.Get(h, name)
	return v
}

func TestApplyPlainProps(t *testing.T) {
	g, b, h, _ := setup(t, "TextLabel")

	b.Apply(h, vdom.Props{
		"Text":     42,
		"Visible":  true,
		"Size":     0.5,
		"key":      "ignored",
		"children": "ignored",
	})

	if got := prop(g, h, "Text"); got != "42" {
		t.Errorf("Text = %v, want \"42\"", got)
	}
	if got := prop(g, h, "Size"); got != scene.FromScale(0.5, 0.5) {
		t.Errorf("Size = %v", got)
	}
	if got := g.Stats().Sets; got != 3 {
		t.Errorf("Sets = %d, want 3", got)
	}
}

func TestReactiveTextBinding(t *testing.T) {
	g, b, h, q := setup(t, "TextLabel")
	count := reactive.NewState(0)

	b.Apply(h, vdom.Props{"Text": count})
	if got := prop(g, h, "Text"); got != "0" {
		t.Fatalf("Text = %v, want \"0\"", got)
	}

	count.Set(1)
	q.Flush()
	if got := prop(g, h, "Text"); got != "1" {
		t.Errorf("Text = %v, want \"1\"", got)
	}
}

func TestRejectedPropertyDoesNotStopTheBag(t *testing.T) {
	rec := diagtest.Capture(t)
	g, b, h, _ := setup(t, "TextLabel")

	b.Apply(h, vdom.Props{
		"Bogus":   1,
		"Text":    "ok",
		"Visible": "yes",
	})

	if got := prop(g, h, "Text"); got != "ok" {
		t.Errorf("Text = %v", got)
	}
	if n := rec.Count(errors.CodePropertyRejected); n != 2 {
		t.Errorf("rejections = %d, want 2", n)
	}
}

func TestEvents(t *testing.T) {
	rec := diagtest.Capture(t)
	g, b, h, _ := setup(t, "TextButton")

	var got []string
	b.Apply(h, vdom.Props{
		"onClick":   func() { got = append(got, "first") },
		"onBogus":   func() {},
		"onFocus":   "not a func",
		"onChanged": func(prop any) { got = append(got, prop.(string)) },
	})

	_ = g.Fire(h, "Activated")
	_ = g.Fire(h, "Changed", "Text")

	if len(got) != 2 || got[0] != "first" || got[1] != "Text" {
		t.Errorf("got %v", got)
	}
	if rec.Count(errors.CodeUnknownEvent) != 1 {
		t.Error("onBogus should be reported")
	}
	if rec.Count(errors.CodeHandlerNotFunc) != 1 {
		t.Error("non-callable handler should be reported")
	}
}

func TestEventHandlerSwap(t *testing.T) {
	g, b, h, _ := setup(t, "TextButton")

	calls := ""
	first := vdom.Props{"onClick": func() { calls += "a" }}
	second := vdom.Props{"onClick": func() { calls += "b" }}

	b.Apply(h, first)
	b.Patch(h, first, second)
	_ = g.Fire(h, "Activated")

	if calls != "b" {
		t.Errorf("calls = %q, want b", calls)
	}
	if n := g.Connections(h, "Activated"); n != 1 {
		t.Errorf("Connections = %d, want 1", n)
	}

	b.Patch(h, second, vdom.Props{})
	if n := g.Connections(h, "Activated"); n != 0 {
		t.Errorf("Connections = %d after removal, want 0", n)
	}
}

func TestPatchHandlerToNonCallableDisconnects(t *testing.T) {
	tests := []struct {
		name    string
		handler any
		reports int
	}{
		{"nil", nil, 0},
		{"number", 42, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := diagtest.Capture(t)
			g, b, h, _ := setup(t, "TextButton")

			calls := 0
			first := vdom.Props{"onClick": func() { calls++ }}
			second := vdom.Props{"onClick": tt.handler}

			b.Apply(h, first)
			b.Patch(h, first, second)
			_ = g.Fire(h, "Activated")

			if calls != 0 {
				t.Errorf("calls = %d, want 0", calls)
			}
			if n := g.Connections(h, "Activated"); n != 0 {
				t.Errorf("connections = %d, want 0", n)
			}
			if n := rec.Count(errors.CodeHandlerNotFunc); n != tt.reports {
				t.Errorf("R021 reports = %d, want %d", n, tt.reports)
			}

			b.Patch(h, second, first)
			_ = g.Fire(h, "Activated")
			if calls != 1 {
				t.Errorf("calls after rebinding = %d, want 1", calls)
			}
		})
	}
}

func TestPatchSkipsUnchanged(t *testing.T) {
	g, b, h, _ := setup(t, "TextLabel")
	count := reactive.NewState(1)

	props := vdom.Props{"Text": count, "Visible": true}
	b.Apply(h, props)
	g.ResetStats()

	b.Patch(h, props, vdom.Props{"Text": count, "Visible": true})
	if got := g.Stats().Sets; got != 0 {
		t.Errorf("Sets = %d, want 0", got)
	}
	if count.Listeners() != 1 {
		t.Errorf("Listeners = %d, want 1", count.Listeners())
	}
}

func TestPatchReplacesBinding(t *testing.T) {
	g, b, h, q := setup(t, "TextLabel")
	a := reactive.NewState("a")
	c := reactive.NewState("c")

	b.Apply(h, vdom.Props{"Text": a})
	b.Patch(h, vdom.Props{"Text": a}, vdom.Props{"Text": c})

	if a.Listeners() != 0 || c.Listeners() != 1 {
		t.Errorf("listeners a=%d c=%d", a.Listeners(), c.Listeners())
	}

	a.Set("a2")
	q.Flush()
	if got := prop(g, h, "Text"); got != "c" {
		t.Errorf("Text = %v, want c", got)
	}

	b.Patch(h, vdom.Props{"Text": c}, vdom.Props{"Text": "plain"})
	if c.Listeners() != 0 {
		t.Error("switching to a plain value should release the binding")
	}
	if got := prop(g, h, "Text"); got != "plain" {
		t.Errorf("Text = %v", got)
	}
}

func TestCleanupRunsOnce(t *testing.T) {
	_, b, h, _ := setup(t, "TextLabel")
	s := reactive.NewState("x")

	calls := 0
	b.Apply(h, vdom.Props{"Text": s})
	b.AddCleanup(h, func() { calls++ })
	if !b.Bound(h) || b.Bindings(h) != 2 {
		t.Fatalf("Bindings = %d", b.Bindings(h))
	}

	b.Cleanup(h)
	b.Cleanup(h)

	if calls != 1 {
		t.Errorf("cleanup calls = %d, want 1", calls)
	}
	if s.Listeners() != 0 {
		t.Error("binding should be released")
	}
	if b.Bound(h) {
		t.Error("entry should be gone")
	}
}

func TestCleanupOnRemoval(t *testing.T) {
	g, b, h, _ := setup(t, "TextLabel")
	parent, _ := g.Create("Frame")
	_ = g.SetParent(h, parent)

	s := reactive.NewState("x")
	b.Apply(h, vdom.Props{"Text": s})

	_ = g.SetParent(h, nil)
	if s.Listeners() != 0 || b.Bound(h) {
		t.Error("detaching should clean up bindings")
	}
}

func TestAsyncBundleBindsData(t *testing.T) {
	g, b, h, q := setup(t, "TextLabel")
	a := reactive.NewAsync(func(context.Context) (string, error) { return "loaded", nil })
	defer a.Destroy()

	b.Apply(h, vdom.Props{"Text": a})
	a.Wait()
	q.Flush()

	if got := prop(g, h, "Text"); got != "loaded" {
		t.Errorf("Text = %v, want loaded", got)
	}
}
