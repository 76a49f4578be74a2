package convert

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/rex/internal/diag/diagtest"
	rexerrors "github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/scene/memory"
)

func TestTypeOf(t *testing.T) {
	g := memory.New()
	h, _ := g.Create("Frame")

	tests := []struct {
		v    any
		want Type
	}{
		{nil, Unknown},
		{1, Number},
		{2.5, Number},
		{uint8(3), Number},
		{true, Bool},
		{"s", String},
		{scene.Vector2{}, Vector2},
		{scene.Color3{}, Color},
		{scene.UDim2{}, UDim2},
		{scene.UDim{}, UDim},
		{scene.Enum{}, Enum},
		{[]int{1}, Table},
		{map[string]int{}, Table},
		{h, Handle},
		{struct{}{}, Unknown},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.v); got != tt.want {
			t.Errorf("TypeOf(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestBuiltins(t *testing.T) {
	g := memory.New()
	h, _ := g.Create("Frame")
	_ = g.SetProperty(h, "Name", "Panel")

	tests := []struct {
		name string
		v    any
		prop string
		want any
	}{
		{"int to text", 0, "Text", "0"},
		{"float to text", 1.5, "Text", "1.5"},
		{"whole float to text", 2.0, "Text", "2"},
		{"number to visible", 0, "Visible", false},
		{"nonzero to visible", 3, "Visible", true},
		{"clamp high", 4, "BackgroundTransparency", 1.0},
		{"clamp low", -0.5, "TextTransparency", 0.0},
		{"clamp inside", 0.25, "ImageTransparency", 0.25},
		{"number to size", 0.5, "Size", scene.FromScale(0.5, 0.5)},
		{"number to radius", 8, "CornerRadius", scene.UDim{Offset: 8}},
		{"bool to visible", true, "Visible", true},
		{"bool to text", false, "Text", "false"},
		{"true to transparency", true, "BackgroundTransparency", 0.0},
		{"false to transparency", false, "BackgroundTransparency", 1.0},
		{"vector to position", scene.Vector2{X: 10, Y: 20}, "Position", scene.FromOffset(10, 20)},
		{"color to text", scene.Color3{R: 1}, "Text", "#ff0000"},
		{"enum to text", scene.Enum{Type: "Font", Name: "Gotham"}, "Text", "Gotham"},
		{"hex to color", "#00ff00", "BackgroundColor3", scene.Color3{G: 1}},
		{"name to color", "white", "TextColor3", scene.Color3{R: 1, G: 1, B: 1}},
		{"short list to text", []string{"a", "b"}, "Text", "[a, b]"},
		{"long list to text", []int{1, 2, 3, 4, 5, 6, 7}, "Text", "[1, 2, 3, 4, 5, ...]"},
		{"list to size", []int{1, 2, 3}, "Size", scene.UDim2{X: scene.UDim{Scale: 1}, Y: scene.UDim{Offset: 60}}},
		{"handle to text", h, "Text", "Panel"},
		{"handle to visible", h, "Visible", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.v, tt.prop)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Convert(%v, %s) mismatch (-want +got):\n%s", tt.v, tt.prop, diff)
			}
		})
	}
}

func TestIdentityFallback(t *testing.T) {
	values := []any{1, 2.5, true, "text", scene.Vector2{X: 1}, scene.Color3{B: 1}, scene.UDim2{}, []int{1}, nil}
	for _, v := range values {
		got := Convert(v, "UnrecognizedProp")
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("Convert(%v) changed the value:\n%s", v, diff)
		}
	}
}

func TestFailingConverterKeepsValue(t *testing.T) {
	rec := diagtest.Capture(t)
	r := NewRegistry()
	r.Register(Number, "Boom", func(any) (any, error) { return nil, errors.New("nope") })
	r.Register(Number, "Panic", func(any) (any, error) { panic("bad") })

	if got := r.Convert(7, "Boom"); got != 7 {
		t.Errorf("Convert() = %v, want 7", got)
	}
	if got := r.Convert(7, "Panic"); got != 7 {
		t.Errorf("Convert() = %v, want 7", got)
	}
	if got := r.Convert("not a color", "BackgroundColor3"); got != "not a color" {
		t.Errorf("Convert() = %v", got)
	}
	if n := rec.Count(rexerrors.CodeConversionFailed); n != 3 {
		t.Errorf("diagnostics = %d, want 3", n)
	}
}

func TestRegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register(Number, "Text", func(v any) (any, error) { return "n=" + formatNumber(v), nil })
	if got := r.Convert(3, "Text"); got != "n=3" {
		t.Errorf("Convert() = %v", got)
	}
	if got := Convert(3, "Text"); got != "3" {
		t.Errorf("Default registry changed: %v", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    scene.Color3
		wantErr bool
	}{
		{"#fff", scene.Color3{R: 1, G: 1, B: 1}, false},
		{"#000000", scene.Color3{}, false},
		{"Red", scene.Color3{R: 1}, false},
		{"#12", scene.Color3{}, true},
		{"#gggggg", scene.Color3{}, true},
		{"mauve-ish", scene.Color3{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
