package dynamo

import "math"

// Vec2 is a single-precision 2D vector. All particle physics runs in float32.
type Vec2 struct {
	X, Y float32
}

func V(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(f float32) Vec2 { return Vec2{X: v.X * f, Y: v.Y * f} }

func (v Vec2) Dot(o Vec2) float32 { return v.X*o.X + v.Y*o.Y }

func (v Vec2) LengthSq() float32 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Length() float32 { return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y))) }

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	inv := 1 / l
	return Vec2{X: v.X * inv, Y: v.Y * inv}
}

// IsFinite reports whether neither component is NaN or Inf.
func (v Vec2) IsFinite() bool {
	x, y := float64(v.X), float64(v.Y)
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

// RGB8 is an 8-bit-per-channel colour carried for renderers; physics ignores it.
type RGB8 struct {
	R, G, B uint8
}

var White = RGB8{R: 255, G: 255, B: 255}
