package geometry

import (
	"github.com/Faultbox/re-strands/pkg/math"
)

// Mesh is a polygon surface used for rigging correspondence.
type Mesh struct {
	Vertices []math.Vec3
	// UVs holds one averaged coordinate per vertex, or nil when the mesh has none.
	UVs   []math.Vec2
	Faces [][]int
}

// FaceCenter returns the average of the face's vertex positions.
func (m *Mesh) FaceCenter(face int) math.Vec3 {
	f := m.Faces[face]
	if len(f) == 0 {
		return math.Vec3{}
	}
	var sum math.Vec3
	for _, vi := range f {
		sum = sum.Add(m.Vertices[vi])
	}
	return sum.Scale(1 / float32(len(f)))
}

// VertexUV returns the UV of vertex i, or zero when the mesh carries no UVs.
func (m *Mesh) VertexUV(i int) math.Vec2 {
	if i < 0 || i >= len(m.UVs) {
		return math.Vec2{}
	}
	return m.UVs[i]
}
