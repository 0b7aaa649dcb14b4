package strands

import (
	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// createTestCurves builds a curve set whose curves have the given point counts.
// Point j of curve i sits at (i, j, 0.5*j) so every position is distinct.
func createTestCurves(lengths ...int) *geometry.CurveSet {
	set := geometry.NewCurveSet("test")
	for i, n := range lengths {
		c := geometry.Curve{}
		for j := 0; j < n; j++ {
			c.Points = append(c.Points, vmath.Vec3{X: float32(i), Y: float32(j), Z: 0.5 * float32(j)})
		}
		set.Strands = append(set.Strands, c)
	}
	return set
}

// withRadius attaches a radius attribute of k*1e-5 for the k-th point (k cycling
// 3..17), values that survive the fixed point round trip.
func withRadius(set *geometry.CurveSet) *geometry.CurveSet {
	n := set.PointCount()
	values := make([]float32, n)
	for i := range values {
		values[i] = float32(3+i%15) * 1e-5
	}
	set.SetAttribute(geometry.AttrRadius, geometry.Attribute{Domain: geometry.DomainPoint, Width: 1, Values: values})
	return set
}

func withUV(set *geometry.CurveSet) *geometry.CurveSet {
	values := make([]float32, 0, 2*len(set.Strands))
	for i := range set.Strands {
		values = append(values, 0.1*float32(i+1), 0.2*float32(i+1))
	}
	set.SetAttribute(geometry.AttrSurfaceUV, geometry.Attribute{Domain: geometry.DomainCurve, Width: 2, Values: values})
	return set
}

func mustEncode(src geometry.Adapter, opts EncodeOptions) *Encoded {
	enc, err := Encode(src, opts)
	if err != nil {
		panic(err)
	}
	return enc
}
