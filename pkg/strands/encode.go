package strands

import (
	"fmt"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// EncodeOptions controls how one LOD is flattened.
type EncodeOptions struct {
	// AutoRadius ignores the radius attribute and synthesizes radii.
	AutoRadius bool
	// Physics sets the physics flag in every guide record.
	Physics bool
	// InvertRoots walks every curve from its last point to its first.
	InvertRoots bool
	// Rand drives synthesized interior radii. When nil, interior points get the
	// midpoint of the interior range and the output is fully deterministic.
	Rand *rand.Rand
}

// Encoded is the result of flattening one LOD.
type Encoded struct {
	LOD
	// RootPositions holds the source-space first point of every emitted curve.
	RootPositions []vmath.Vec3
	// SourceCurves maps each emitted curve to its index in the adapter's curves.
	SourceCurves []int
	// Skipped counts curves dropped for having fewer than 2 points.
	Skipped int
	// Warnings lists recoverable problems, such as a missing radius attribute.
	Warnings []error
}

// Encode flattens the adapter's curves into point, marker, root, curve id and
// guide records.
//
// Curves with fewer than 2 points are skipped and get no root, so the root
// count always equals the number of curves in the point stream.
func Encode(src geometry.Adapter, opts EncodeOptions) (*Encoded, error) {
	curves := src.Curves()
	total := 0
	for _, c := range curves {
		total += c.Len()
	}
	if total > MaxPoints {
		return nil, fmt.Errorf("%w: %d points exceed marker range", ErrOverflow, total)
	}

	enc := &Encoded{}
	radius, useRadius := src.Attribute(geometry.AttrRadius)
	if !opts.AutoRadius {
		switch {
		case !useRadius:
			enc.Warnings = append(enc.Warnings, fmt.Errorf("%w: %s, synthesizing radii", ErrMissingAttribute, geometry.AttrRadius))
		case radius.Domain != geometry.DomainPoint || radius.Len() != total:
			enc.Warnings = append(enc.Warnings, fmt.Errorf("%w: %s has %d %s values for %d points, synthesizing radii",
				ErrMissingAttribute, geometry.AttrRadius, radius.Len(), radius.Domain, total))
			useRadius = false
		}
	} else {
		useRadius = false
	}
	tint, useTint := src.Attribute(geometry.AttrTint)
	if useTint && (tint.Domain != geometry.DomainPoint || tint.Len() != total) {
		useTint = false
	}

	start := 0
	for ci, curve := range curves {
		n := curve.Len()
		offset := start
		start += n
		if n < 2 {
			enc.Skipped++
			continue
		}

		curveID := len(enc.Roots)
		if curveID > 0xFFFF || n-1 > 0xFFFF {
			return nil, fmt.Errorf("%w: curve %d (%d points) does not fit a guide record", ErrOverflow, ci, n)
		}
		first := uint32(len(enc.Points))
		enc.Roots = append(enc.Roots, first)
		enc.SourceCurves = append(enc.SourceCurves, ci)

		for j := 0; j < n; j++ {
			k := j
			if opts.InvertRoots {
				k = n - 1 - j
			}
			p := curve.Points[k]
			if j == 0 {
				enc.RootPositions = append(enc.RootPositions, p)
			}

			var r float32
			if useRadius {
				r, _ = radius.Float(offset + k)
			} else {
				r = synthRadius(j, n, opts.Rand)
			}

			rec := PointRecord{
				Position: p.ToEngine().Array(),
				Radius:   EncodeRadius(r),
				Param:    curveParam(j, n),
			}
			if useTint {
				t, _ := tint.Float(offset + k)
				rec.Spare = uint8(t)
			}

			global := uint32(len(enc.Points))
			enc.Points = append(enc.Points, rec)
			if j < n-1 {
				var flags uint32
				if j == 0 {
					flags |= FlagFirst
				}
				if j == n-2 {
					flags |= FlagLastButOne
				}
				enc.Markers = append(enc.Markers, NewMarker(global, flags))
			}
			enc.CurveIDs = append(enc.CurveIDs, uint32(curveID))
			enc.Guides = append(enc.Guides, NewGuideRecord(uint16(curveID), uint16(j), opts.Physics))
		}
	}
	return enc, nil
}

// synthRadius returns the radius used when no attribute applies: thin endpoints
// and a random interior width.
func synthRadius(j, n int, rng *rand.Rand) float32 {
	if j == 0 || j == n-1 {
		return EndpointRadius
	}
	if rng == nil {
		return (InteriorRadiusMin + InteriorRadiusMax) / 2
	}
	return InteriorRadiusMin + rng.Float32()*(InteriorRadiusMax-InteriorRadiusMin)
}

// curveParam maps point j of n to 0..255 along the curve.
func curveParam(j, n int) uint8 {
	v := math32.Floor(float32(j)/float32(n-1)*255 + 0.5)
	return uint8(math32.Max(0, math32.Min(255, v)))
}
