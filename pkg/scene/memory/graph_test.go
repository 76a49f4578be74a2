package memory

import (
	"strings"
	"testing"

	"github.com/vango-dev/rex/pkg/scene"
)

func mustCreate(t *testing.T, g *Graph, class string) scene.Handle {
	t.Helper()
	h, err := g.Create(class)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", class, err)
	}
	return h
}

func TestCreate(t *testing.T) {
	g := New()
	h := mustCreate(t, g, "Frame")
	if h.ClassName() != "Frame" || h.Name() != "Frame" {
		t.Errorf("got %s/%s", h.ClassName(), h.Name())
	}

	if _, err := g.Create("Nope"); err == nil {
		t.Error("Create(Nope) should fail")
	}
	if got := g.Stats().Creates; got != 1 {
		t.Errorf("Creates = %d, want 1", got)
	}
}

func TestSetPropertyValidates(t *testing.T) {
	g := New()
	h := mustCreate(t, g, "TextLabel")

	tests := []struct {
		name    string
		prop    string
		value   any
		wantErr bool
	}{
		{"text", "Text", "hi", false},
		{"unknown", "Bogus", 1, true},
		{"wrong type", "Text", 5, true},
		{"size", "Size", scene.FromScale(1, 1), false},
		{"transparency", "BackgroundTransparency", 0.5, false},
		{"transparency range", "BackgroundTransparency", 2.0, true},
		{"name", "Name", "Title", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.SetProperty(h, tt.prop, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetProperty(%s) error = %v, wantErr %v", tt.prop, err, tt.wantErr)
			}
		})
	}

	if v, _ := g.Get(h, "Text"); v != "hi" {
		t.Errorf("Text = %v", v)
	}
	if h.Name() != "Title" {
		t.Errorf("Name() = %q", h.Name())
	}
}

func TestParenting(t *testing.T) {
	g := New()
	root := mustCreate(t, g, "ScreenGui")
	a := mustCreate(t, g, "Frame")
	b := mustCreate(t, g, "Frame")
	_ = g.SetProperty(b, "Name", "B")

	if err := g.SetParent(a, root); err != nil {
		t.Fatal(err)
	}
	if err := g.SetParent(b, root); err != nil {
		t.Fatal(err)
	}
	if err := g.SetParent(root, a); err == nil {
		t.Error("parenting to a descendant should fail")
	}

	if got := scene.Names(g, root); strings.Join(got, ",") != "Frame,B" {
		t.Errorf("children = %v", got)
	}
	if c, ok := g.FindChild(root, "B"); !ok || c != b {
		t.Error("FindChild(B) failed")
	}
	if g.Parent(a) != root {
		t.Error("Parent(a) != root")
	}
	if g.Parent(root) != nil {
		t.Error("Parent(root) should be nil")
	}

	reparents := g.Stats().Reparents
	_ = g.SetParent(a, root)
	if g.Stats().Reparents != reparents {
		t.Error("SetParent to the same parent should be a no-op")
	}
}

func TestMoveChild(t *testing.T) {
	g := New()
	root := mustCreate(t, g, "Frame")
	var kids []scene.Handle
	for _, n := range []string{"a", "b", "c"} {
		h := mustCreate(t, g, "Frame")
		_ = g.SetProperty(h, "Name", n)
		_ = g.SetParent(h, root)
		kids = append(kids, h)
	}

	if err := g.MoveChild(root, kids[2], 0); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(scene.Names(g, root), ""); got != "cab" {
		t.Errorf("order = %s, want cab", got)
	}
	if err := g.MoveChild(root, kids[2], 0); err != nil {
		t.Fatal(err)
	}
	if got := g.Stats().Moves; got != 1 {
		t.Errorf("Moves = %d, want 1", got)
	}
	if scene.IndexOf(g, root, kids[1]) != 2 {
		t.Error("IndexOf(b) != 2")
	}
}

func TestOnRemovedFiresOnce(t *testing.T) {
	g := New()
	root := mustCreate(t, g, "Frame")
	h := mustCreate(t, g, "Frame")
	_ = g.SetParent(h, root)

	calls := 0
	g.OnRemoved(h, func() { calls++ })

	_ = g.SetParent(h, nil)
	_ = g.SetParent(h, root)
	_ = g.SetParent(h, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDestroyCascades(t *testing.T) {
	g := New()
	root := mustCreate(t, g, "Frame")
	child := mustCreate(t, g, "Frame")
	grand := mustCreate(t, g, "TextLabel")
	_ = g.SetParent(child, root)
	_ = g.SetParent(grand, child)

	removed := 0
	g.OnRemoved(grand, func() { removed++ })

	g.Destroy(child)
	g.Destroy(child)

	if !g.Destroyed(grand) {
		t.Error("descendant should be destroyed")
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := g.Stats().Destroys; got != 2 {
		t.Errorf("Destroys = %d, want 2", got)
	}
	if len(g.Children(root)) != 0 {
		t.Error("root should have no children")
	}
	if err := g.SetProperty(child, "Name", "x"); err == nil {
		t.Error("SetProperty on a destroyed object should fail")
	}
}

func TestSignals(t *testing.T) {
	g := New()
	btn := mustCreate(t, g, "TextButton")

	var got []any
	disconnect, err := g.Connect(btn, "Activated", func(args ...any) {
		got = append(got, args...)
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = g.Fire(btn, "Activated", 1)
	disconnect()
	_ = g.Fire(btn, "Activated", 2)

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("got %v", got)
	}
	if _, err := g.Connect(btn, "Bogus", func(...any) {}); err == nil {
		t.Error("Connect to an unknown signal should fail")
	}
	if g.Connections(btn, "Activated") != 0 {
		t.Error("connection should be gone")
	}
}

func TestDump(t *testing.T) {
	g := New()
	root := mustCreate(t, g, "Frame")
	label := mustCreate(t, g, "TextLabel")
	_ = g.SetProperty(label, "Text", "hi")
	_ = g.SetProperty(label, "Name", "Title")
	_ = g.SetParent(label, root)

	want := "Frame\n  TextLabel \"Title\" Text=hi\n"
	if got := g.Dump(root); got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
}
