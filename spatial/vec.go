package spatial

import "math"

type Vec2 struct {
	X, Y float32
}

// Vec3 is a world position. Y is the vertical axis.
type Vec3 struct {
	X, Y, Z float32
}

// Planar projects the position onto the ground plane as (X, Z).
func (v Vec3) Planar() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// Rect is a closed axis-aligned rectangle on the ground plane.
type Rect struct {
	Min, Max Vec2
}

// NewRect builds a rectangle from its origin and size.
func NewRect(x, y, w, h float32) Rect {
	return Rect{
		Min: Vec2{X: x, Y: y},
		Max: Vec2{X: x + w, Y: y + h},
	}
}

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Box is an axis-aligned bounding box. The zero value is a degenerate box
// at the origin; use EmptyBox for the identity of Union.
type Box struct {
	Min, Max Vec2
}

var inf = float32(math.Inf(1))

func EmptyBox() Box {
	return Box{
		Min: Vec2{X: inf, Y: inf},
		Max: Vec2{X: -inf, Y: -inf},
	}
}

func (b Box) Union(o Box) Box {
	return Box{
		Min: Vec2{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y)},
		Max: Vec2{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y)},
	}
}

func (b Box) Overlaps(r Rect) bool {
	return b.Min.X <= r.Max.X && b.Max.X >= r.Min.X &&
		b.Min.Y <= r.Max.Y && b.Max.Y >= r.Min.Y
}

func (b Box) Contains(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}
