// Package geometry holds the editable curve and mesh representation consumed by the
// strand and rigging codecs.
//
// The codecs never see a host scene. They read geometry through Adapter, which exposes
// ordered curves, named attributes stored flat over all points or curves, and an
// optional rigging surface mesh.
package geometry

import (
	"github.com/Faultbox/re-strands/pkg/math"
)

// Attribute names understood by the codecs.
const (
	AttrRadius    = "radius"                // point domain, width 1
	AttrSurfaceUV = "surface_uv_coordinate" // curve domain, width 2
	AttrTint      = "strand_tint"           // point domain, width 1 (opaque spare byte)
)

// Domain tells which element an attribute value belongs to.
type Domain uint8

const (
	DomainPoint Domain = iota
	DomainCurve
)

// String returns the domain name.
func (d Domain) String() string {
	switch d {
	case DomainPoint:
		return "point"
	case DomainCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// Attribute is a named per-point or per-curve value array.
// Values holds Width components per element, elements in global order.
type Attribute struct {
	Domain Domain
	Width  int
	Values []float32
}

// Len returns the number of elements stored.
func (a Attribute) Len() int {
	if a.Width <= 0 {
		return 0
	}
	return len(a.Values) / a.Width
}

// Float returns the first component of element i.
func (a Attribute) Float(i int) (float32, bool) {
	if i < 0 || i >= a.Len() {
		return 0, false
	}
	return a.Values[i*a.Width], true
}

// Vec2 returns the first two components of element i.
func (a Attribute) Vec2(i int) (math.Vec2, bool) {
	if a.Width < 2 || i < 0 || i >= a.Len() {
		return math.Vec2{}, false
	}
	return math.Vec2{X: a.Values[i*a.Width], Y: a.Values[i*a.Width+1]}, true
}

// Curve is an ordered polyline.
type Curve struct {
	Points []math.Vec3
}

// Len returns the number of points.
func (c Curve) Len() int {
	return len(c.Points)
}

// Adapter supplies geometry to the encoders.
type Adapter interface {
	Curves() []Curve
	Attribute(name string) (Attribute, bool)
	SurfaceMesh() (*Mesh, bool)
}

// CurveSet is an in-memory Adapter. One CurveSet holds one LOD.
type CurveSet struct {
	Name       string
	Strands    []Curve
	Attributes map[string]Attribute
	Surface    *Mesh
}

// NewCurveSet creates an empty curve set.
func NewCurveSet(name string) *CurveSet {
	return &CurveSet{
		Name:       name,
		Attributes: make(map[string]Attribute),
	}
}

// Curves returns the strands in order.
func (s *CurveSet) Curves() []Curve {
	return s.Strands
}

// Attribute looks up a named attribute.
func (s *CurveSet) Attribute(name string) (Attribute, bool) {
	a, ok := s.Attributes[name]
	return a, ok
}

// SurfaceMesh returns the rigging surface, if any.
func (s *CurveSet) SurfaceMesh() (*Mesh, bool) {
	return s.Surface, s.Surface != nil
}

// SetAttribute stores a named attribute, replacing any previous one.
func (s *CurveSet) SetAttribute(name string, a Attribute) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]Attribute)
	}
	s.Attributes[name] = a
}

// PointCount returns the total number of points over all strands.
func (s *CurveSet) PointCount() int {
	n := 0
	for _, c := range s.Strands {
		n += len(c.Points)
	}
	return n
}
