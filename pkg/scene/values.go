package scene

import (
	"fmt"
	"math"
)

// Vector2 is a 2D vector.
type Vector2 struct {
	X, Y float64
}

// Color3 is an RGB color with components in [0, 1].
type Color3 struct {
	R, G, B float64
}

// Color3FromRGB builds a color from 0-255 components.
func Color3FromRGB(r, g, b uint8) Color3 {
	return Color3{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Hex formats the color as #rrggbb.
func (c Color3) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// UDim is a one-axis dimension: a fraction of the parent plus a pixel offset.
type UDim struct {
	Scale  float64
	Offset float64
}

// UDim2 is a two-axis dimension.
type UDim2 struct {
	X, Y UDim
}

// FromScale builds a UDim2 from scale components only.
func FromScale(x, y float64) UDim2 {
	return UDim2{X: UDim{Scale: x}, Y: UDim{Scale: y}}
}

// FromOffset builds a UDim2 from offset components only.
func FromOffset(x, y float64) UDim2 {
	return UDim2{X: UDim{Offset: x}, Y: UDim{Offset: y}}
}

func (u UDim2) String() string {
	return fmt.Sprintf("{%g, %g}, {%g, %g}", u.X.Scale, u.X.Offset, u.Y.Scale, u.Y.Offset)
}

// Enum is a named value of a native enumeration.
type Enum struct {
	Type  string
	Name  string
	Value int
}

func (e Enum) String() string {
	return e.Type + "." + e.Name
}
