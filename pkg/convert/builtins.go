package convert

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/vango-dev/rex/pkg/reactivity"
	"github.com/vango-dev/rex/pkg/scene"
)

// Property groups the built-in converters target.
var (
	TextProps         = []string{"Text", "PlaceholderText"}
	TransparencyProps = []string{"BackgroundTransparency", "TextTransparency", "ImageTransparency", "TextStrokeTransparency", "Transparency"}
	ColorProps        = []string{"BackgroundColor3", "TextColor3", "ImageColor3", "BorderColor3", "TextStrokeColor3", "Color"}
	DimensionProps    = []string{"Size", "Position"}
	RadiusProps       = []string{"CornerRadius", "Padding", "PaddingTop", "PaddingBottom", "PaddingLeft", "PaddingRight"}
)

// tablePreview is the number of elements shown when a list is displayed.
const tablePreview = 5

// tableRowHeight is the pixel height per element when a list sizes an object.
const tableRowHeight = 20

func registerBuiltins(r *Registry) {
	each := func(t Type, props []string, fn Func) {
		for _, p := range props {
			r.Register(t, p, fn)
		}
	}

	each(Number, TextProps, func(v any) (any, error) { return formatNumber(v), nil })
	r.Register(Number, "Visible", func(v any) (any, error) { return toFloat(v) != 0, nil })
	each(Number, TransparencyProps, func(v any) (any, error) {
		return math.Max(0, math.Min(1, toFloat(v))), nil
	})
	each(Number, DimensionProps, func(v any) (any, error) {
		n := toFloat(v)
		return scene.FromScale(n, n), nil
	})
	each(Number, RadiusProps, func(v any) (any, error) {
		return scene.UDim{Offset: toFloat(v)}, nil
	})

	r.Register(Bool, "Visible", func(v any) (any, error) { return v, nil })
	each(Bool, TextProps, func(v any) (any, error) { return strconv.FormatBool(v.(bool)), nil })
	each(Bool, TransparencyProps, func(v any) (any, error) {
		if v.(bool) {
			return 0.0, nil
		}
		return 1.0, nil
	})

	each(String, ColorProps, func(v any) (any, error) { return ParseColor(v.(string)) })

	each(Vector2, DimensionProps, func(v any) (any, error) {
		vec := v.(scene.Vector2)
		return scene.FromOffset(vec.X, vec.Y), nil
	})
	each(Vector2, TextProps, func(v any) (any, error) {
		vec := v.(scene.Vector2)
		return fmt.Sprintf("%g, %g", vec.X, vec.Y), nil
	})

	each(Color, TextProps, func(v any) (any, error) { return v.(scene.Color3).Hex(), nil })
	each(UDim2, TextProps, func(v any) (any, error) { return v.(scene.UDim2).String(), nil })
	each(Enum, TextProps, func(v any) (any, error) { return v.(scene.Enum).Name, nil })

	each(Table, TextProps, func(v any) (any, error) {
		items, ok := reactivity.List(v)
		if !ok {
			return nil, fmt.Errorf("%T is not a list", v)
		}
		return formatList(items), nil
	})
	r.Register(Table, "Size", func(v any) (any, error) {
		items, ok := reactivity.List(v)
		if !ok {
			return nil, fmt.Errorf("%T is not a list", v)
		}
		return scene.UDim2{X: scene.UDim{Scale: 1}, Y: scene.UDim{Offset: float64(tableRowHeight * len(items))}}, nil
	})

	each(Handle, TextProps, func(v any) (any, error) { return v.(scene.Handle).Name(), nil })
	r.Register(Handle, "Visible", func(v any) (any, error) { return v.(scene.Handle) != nil, nil })
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	panic(fmt.Sprintf("not a number: %T", v))
}

func formatNumber(v any) string {
	switch n := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func formatList(items []any) string {
	n := len(items)
	if n > tablePreview {
		n = tablePreview
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprint(items[i])
	}
	s := strings.Join(parts, ", ")
	if len(items) > tablePreview {
		s += ", ..."
	}
	return "[" + s + "]"
}

// ParseColor parses "#rgb", "#rrggbb" or an SVG color name.
func ParseColor(s string) (scene.Color3, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return fromRGBA(c), nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return scene.Color3{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return scene.Color3{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return scene.Color3{}, fmt.Errorf("invalid hex color %q", s)
	}
	return scene.Color3FromRGB(uint8(n>>16), uint8(n>>8), uint8(n)), nil
}

func fromRGBA(c color.RGBA) scene.Color3 {
	return scene.Color3FromRGB(c.R, c.G, c.B)
}
