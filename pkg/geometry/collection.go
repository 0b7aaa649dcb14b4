package geometry

import (
	"github.com/Faultbox/re-strands/pkg/math"
)

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Min math.Vec3
	Max math.Vec3
}

// IsZero reports whether the box is unset.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// ToEngine remaps both corners to the engine axis convention.
// Corners are remapped independently, as the engine header stores them.
func (b BoundingBox) ToEngine() BoundingBox {
	return BoundingBox{Min: b.Min.ToEngine(), Max: b.Max.ToEngine()}
}

// FromEngine is the inverse of ToEngine.
func (b BoundingBox) FromEngine() BoundingBox {
	return BoundingBox{Min: b.Min.FromEngine(), Max: b.Max.FromEngine()}
}

// BoundsOf computes the bounds of every point of every curve.
// Returns a zero box when there are no points.
func BoundsOf(curves []Curve) BoundingBox {
	var box BoundingBox
	first := true
	for _, c := range curves {
		for _, p := range c.Points {
			if first {
				box = BoundingBox{Min: p, Max: p}
				first = false
				continue
			}
			box.Min = box.Min.Min(p)
			box.Max = box.Max.Max(p)
		}
	}
	return box
}

// WidthStats are the strand width statistics stored in the strands header.
type WidthStats struct {
	Average float32
	Max     float32
	Min     float32
}

// IsZero reports whether no statistic is set.
func (w WidthStats) IsZero() bool {
	return w == WidthStats{}
}

// Collection groups both LODs of a hair asset with its metadata.
type Collection struct {
	Name   string
	High   *CurveSet
	Low    *CurveSet
	Bounds BoundingBox // source axis convention
	Widths WidthStats
}
