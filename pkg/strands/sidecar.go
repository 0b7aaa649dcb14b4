package strands

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// UVOptions controls the shared UV section.
type UVOptions struct {
	// Random ignores the surface UV attribute.
	Random bool
	// Rand drives random UVs. When nil, random UVs are all zero.
	Rand *rand.Rand
}

// BuildUVs produces one UV record per emitted curve of enc. UVs come from the
// source's per-curve surface UV attribute, or are randomized when requested or
// when the attribute is missing.
func BuildUVs(src geometry.Adapter, enc *Encoded, opts UVOptions) ([]vmath.Vec2, []error) {
	var warnings []error
	random := opts.Random
	attr, ok := src.Attribute(geometry.AttrSurfaceUV)
	if !random {
		switch {
		case !ok:
			warnings = append(warnings, fmt.Errorf("%w: %s, using random UVs", ErrMissingAttribute, geometry.AttrSurfaceUV))
			random = true
		case attr.Domain != geometry.DomainCurve || attr.Width < 2:
			warnings = append(warnings, fmt.Errorf("%w: %s is not a per-curve 2D attribute, using random UVs", ErrMissingAttribute, geometry.AttrSurfaceUV))
			random = true
		}
	}

	uvs := make([]vmath.Vec2, len(enc.SourceCurves))
	for i, ci := range enc.SourceCurves {
		if random {
			if opts.Rand != nil {
				uvs[i] = vmath.Vec2{X: opts.Rand.Float32(), Y: opts.Rand.Float32()}
			}
			continue
		}
		uvs[i], _ = attr.Vec2(ci)
	}
	return uvs, warnings
}

// WidthStats computes average, max and min radius over the LOD's point records,
// as the engine will read them back.
func (l *LOD) WidthStats() geometry.WidthStats {
	if len(l.Points) == 0 {
		return geometry.WidthStats{}
	}
	radii := make([]float64, len(l.Points))
	for i, p := range l.Points {
		radii[i] = float64(DecodeRadius(p.Radius))
	}
	return geometry.WidthStats{
		Average: float32(stat.Mean(radii, nil)),
		Max:     float32(floats.Max(radii)),
		Min:     float32(floats.Min(radii)),
	}
}
