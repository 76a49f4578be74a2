package memory

import (
	"fmt"

	"github.com/vango-dev/rex/pkg/scene"
)

// Check validates a property value.
type Check func(v any) error

// Class describes a constructible class.
type Class struct {
	Name    string
	Props   map[string]Check
	Signals []string
}

func typed[T any](kind string) Check {
	return func(v any) error {
		if _, ok := v.(T); !ok {
			return fmt.Errorf("expected %s, got %T", kind, v)
		}
		return nil
	}
}

var (
	str     = typed[string]("string")
	boolean = typed[bool]("bool")
	udim2   = typed[scene.UDim2]("UDim2")
	udim    = typed[scene.UDim]("UDim")
	color   = typed[scene.Color3]("Color3")
	vector2 = typed[scene.Vector2]("Vector2")
	enum    = typed[scene.Enum]("Enum")
)

func number(v any) error {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return nil
	}
	return fmt.Errorf("expected number, got %T", v)
}

func unit(v any) error {
	if err := number(v); err != nil {
		return err
	}
	f := toFloat(v)
	if f < 0 || f > 1 {
		return fmt.Errorf("value %g out of range [0, 1]", f)
	}
	return nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func merge(sets ...map[string]Check) map[string]Check {
	out := make(map[string]Check)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

var (
	instanceProps = map[string]Check{
		"Name": str,
	}

	guiProps = merge(instanceProps, map[string]Check{
		"Size":                   udim2,
		"Position":               udim2,
		"AnchorPoint":            vector2,
		"Visible":                boolean,
		"BackgroundColor3":       color,
		"BackgroundTransparency": unit,
		"BorderSizePixel":        number,
		"LayoutOrder":            number,
		"ZIndex":                 number,
		"Rotation":               number,
		"ClipsDescendants":       boolean,
	})

	textProps = merge(guiProps, map[string]Check{
		"Text":             str,
		"TextColor3":       color,
		"TextTransparency": unit,
		"TextSize":         number,
		"TextScaled":       boolean,
		"TextWrapped":      boolean,
		"Font":             enum,
		"TextXAlignment":   enum,
	})

	imageProps = merge(guiProps, map[string]Check{
		"Image":             str,
		"ImageColor3":       color,
		"ImageTransparency": unit,
	})

	guiSignals    = []string{"MouseEnter", "MouseLeave", "InputBegan", "InputEnded", "Changed"}
	buttonSignals = append([]string{"Activated", "MouseButton1Click", "MouseButton2Click"}, guiSignals...)
)

// DefaultClasses is the class catalog of a new Graph.
var DefaultClasses = []Class{
	{Name: "Folder", Props: instanceProps, Signals: []string{"Changed"}},
	{Name: "ScreenGui", Props: merge(instanceProps, map[string]Check{"Enabled": boolean, "DisplayOrder": number}), Signals: []string{"Changed"}},
	{Name: "Frame", Props: guiProps, Signals: guiSignals},
	{Name: "ScrollingFrame", Props: merge(guiProps, map[string]Check{"CanvasSize": udim2, "ScrollBarThickness": number}), Signals: guiSignals},
	{Name: "TextLabel", Props: textProps, Signals: guiSignals},
	{Name: "TextButton", Props: textProps, Signals: buttonSignals},
	{Name: "TextBox", Props: merge(textProps, map[string]Check{"PlaceholderText": str, "ClearTextOnFocus": boolean}), Signals: append([]string{"Focused", "FocusLost", "TextChanged"}, guiSignals...)},
	{Name: "ImageLabel", Props: imageProps, Signals: guiSignals},
	{Name: "ImageButton", Props: imageProps, Signals: buttonSignals},
	{Name: "UIListLayout", Props: merge(instanceProps, map[string]Check{"Padding": udim, "FillDirection": enum, "SortOrder": enum}), Signals: []string{"Changed"}},
	{Name: "UIGridLayout", Props: merge(instanceProps, map[string]Check{"CellSize": udim2, "CellPadding": udim2, "SortOrder": enum}), Signals: []string{"Changed"}},
	{Name: "UIPageLayout", Props: merge(instanceProps, map[string]Check{"Padding": udim, "SortOrder": enum}), Signals: []string{"Changed"}},
	{Name: "UITableLayout", Props: merge(instanceProps, map[string]Check{"Padding": udim2, "SortOrder": enum}), Signals: []string{"Changed"}},
	{Name: "UICorner", Props: merge(instanceProps, map[string]Check{"CornerRadius": udim}), Signals: []string{"Changed"}},
	{Name: "UIPadding", Props: merge(instanceProps, map[string]Check{"PaddingTop": udim, "PaddingBottom": udim, "PaddingLeft": udim, "PaddingRight": udim}), Signals: []string{"Changed"}},
	{Name: "UIStroke", Props: merge(instanceProps, map[string]Check{"Color": color, "Thickness": number, "Transparency": unit}), Signals: []string{"Changed"}},
	{Name: "UISizeConstraint", Props: merge(instanceProps, map[string]Check{"MinSize": vector2, "MaxSize": vector2}), Signals: []string{"Changed"}},
	{Name: "UIAspectRatioConstraint", Props: merge(instanceProps, map[string]Check{"AspectRatio": number}), Signals: []string{"Changed"}},
}
