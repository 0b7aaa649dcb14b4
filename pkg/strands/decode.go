package strands

import (
	"fmt"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// Strand is one reconstructed curve.
type Strand struct {
	Points []PointRecord
}

type decodeState uint8

const (
	stateAccumulating decodeState = iota
	stateEmit
)

// topologyReducer folds the marker stream into curves.
//
// Markers are consumed in order. A first-flag opens a new buffer, a
// last-but-one flag appends the marked point and the one after it, then
// moves to stateEmit so the buffer is flushed as a finished curve.
type topologyReducer struct {
	points   []PointRecord
	state    decodeState
	pending  []PointRecord
	strands  []Strand
	warnings []error
}

func (r *topologyReducer) step(i int, m Marker) error {
	idx := int(m.Index())
	if idx >= len(r.points) {
		return fmt.Errorf("%w: marker %d points at %d of %d points", ErrCorruptTopology, i, idx, len(r.points))
	}
	if m.Flags()&^0x3 != 0 {
		return fmt.Errorf("%w: marker %d has unknown flags 0x%x", ErrCorruptTopology, i, m.Flags())
	}

	if m.IsFirst() {
		if len(r.pending) > 0 {
			r.warnings = append(r.warnings, fmt.Errorf("%w: marker %d starts a curve before the previous one ended", ErrCorruptTopology, i))
			r.flush()
		}
	}
	r.pending = append(r.pending, r.points[idx])

	if m.IsLastButOne() {
		if idx+1 >= len(r.points) {
			return fmt.Errorf("%w: marker %d needs point %d of %d", ErrTruncatedSection, i, idx+1, len(r.points))
		}
		r.pending = append(r.pending, r.points[idx+1])
		r.state = stateEmit
	}

	if r.state == stateEmit {
		r.flush()
		r.state = stateAccumulating
	}
	return nil
}

func (r *topologyReducer) flush() {
	if len(r.pending) == 0 {
		return
	}
	r.strands = append(r.strands, Strand{Points: r.pending})
	r.pending = nil
}

// Decode rebuilds curves from point records and topology markers.
// The returned warnings describe recoverable inconsistencies.
func Decode(points []PointRecord, markers []Marker) ([]Strand, []error, error) {
	r := &topologyReducer{points: points}
	for i, m := range markers {
		if err := r.step(i, m); err != nil {
			return nil, nil, err
		}
	}
	r.flush()
	return r.strands, r.warnings, nil
}

// Decode rebuilds the LOD's curves and checks them against the root section.
func (l *LOD) Decode() ([]Strand, []error, error) {
	strands, warnings, err := Decode(l.Points, l.Markers)
	if err != nil {
		return nil, nil, err
	}
	if len(l.Roots) != len(strands) {
		warnings = append(warnings, fmt.Errorf("%w: %d curves decoded, root section lists %d",
			ErrCorruptTopology, len(strands), len(l.Roots)))
	}
	return strands, warnings, nil
}

// CurveSet converts decoded strands to editable geometry in the source axis
// convention. Radius and tint become point attributes; uvs, when given, become
// the per-curve surface UV attribute for the first len(uvs) curves.
func CurveSet(name string, strands []Strand, uvs []vmath.Vec2) *geometry.CurveSet {
	set := geometry.NewCurveSet(name)
	var radius, tint []float32
	for _, s := range strands {
		curve := geometry.Curve{Points: make([]vmath.Vec3, 0, len(s.Points))}
		for _, p := range s.Points {
			pos := vmath.Vec3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}
			curve.Points = append(curve.Points, pos.FromEngine())
			radius = append(radius, DecodeRadius(p.Radius))
			tint = append(tint, float32(p.Spare))
		}
		set.Strands = append(set.Strands, curve)
	}
	set.SetAttribute(geometry.AttrRadius, geometry.Attribute{Domain: geometry.DomainPoint, Width: 1, Values: radius})
	set.SetAttribute(geometry.AttrTint, geometry.Attribute{Domain: geometry.DomainPoint, Width: 1, Values: tint})

	if len(uvs) > 0 {
		values := make([]float32, 2*len(strands))
		for i := range strands {
			if i < len(uvs) {
				values[2*i] = uvs[i].X
				values[2*i+1] = uvs[i].Y
			}
		}
		set.SetAttribute(geometry.AttrSurfaceUV, geometry.Attribute{Domain: geometry.DomainCurve, Width: 2, Values: values})
	}
	return set
}

// RootPositions returns the source-space first point of every root in the LOD.
func (l *LOD) RootPositions() ([]vmath.Vec3, error) {
	roots := make([]vmath.Vec3, 0, len(l.Roots))
	for i, idx := range l.Roots {
		if int(idx) >= len(l.Points) {
			return nil, fmt.Errorf("%w: root %d points at %d of %d points", ErrCorruptTopology, i, idx, len(l.Points))
		}
		p := l.Points[idx].Position
		roots = append(roots, vmath.Vec3{X: p[0], Y: p[1], Z: p[2]}.FromEngine())
	}
	return roots, nil
}
