package rigging

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// faceCenter is a k-d tree point tagged with the face it was computed from.
type faceCenter struct {
	pos  r3.Vec
	face int
}

func (p faceCenter) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(faceCenter)
	switch d {
	case 0:
		return p.pos.X - q.pos.X
	case 1:
		return p.pos.Y - q.pos.Y
	case 2:
		return p.pos.Z - q.pos.Z
	}
	panic("rigging: illegal dimension")
}

func (p faceCenter) Dims() int { return 3 }

// Distance returns the squared distance, as kdtree expects.
func (p faceCenter) Distance(c kdtree.Comparable) float64 {
	q := c.(faceCenter)
	return r3.Norm2(r3.Sub(p.pos, q.pos))
}

type faceCenters []faceCenter

func (p faceCenters) Index(i int) kdtree.Comparable         { return p[i] }
func (p faceCenters) Len() int                              { return len(p) }
func (p faceCenters) Pivot(d kdtree.Dim) int                { return plane{faceCenters: p, Dim: d}.Pivot() }
func (p faceCenters) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts face centers along one dimension for median partitioning.
type plane struct {
	kdtree.Dim
	faceCenters
}

func (p plane) Less(i, j int) bool {
	return p.faceCenters[i].Compare(p.faceCenters[j], p.Dim) < 0
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.faceCenters = p.faceCenters[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.faceCenters[i], p.faceCenters[j] = p.faceCenters[j], p.faceCenters[i]
}

// Index answers nearest-face queries over a mesh's face centers.
// It is read-only after construction and safe for concurrent queries.
type Index struct {
	mesh *geometry.Mesh
	tree *kdtree.Tree
}

// NewIndex builds the spatial index for mesh.
func NewIndex(mesh *geometry.Mesh) (*Index, error) {
	if mesh == nil {
		return nil, ErrNoSurfaceMesh
	}
	centers := make(faceCenters, 0, len(mesh.Faces))
	for i := range mesh.Faces {
		c := mesh.FaceCenter(i)
		centers = append(centers, faceCenter{
			pos:  r3.Vec{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)},
			face: i,
		})
	}
	ix := &Index{mesh: mesh}
	if len(centers) > 0 {
		ix.tree = kdtree.New(centers, false)
	}
	return ix, nil
}

// Nearest returns the face whose center is closest to p.
func (ix *Index) Nearest(p vmath.Vec3) (face int, ok bool) {
	if ix.tree == nil {
		return 0, false
	}
	q := faceCenter{pos: r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}}
	got, _ := ix.tree.Nearest(q)
	if got == nil {
		return 0, false
	}
	return got.(faceCenter).face, true
}

// Record returns the rigging record binding root to its nearest face.
// Faces with fewer than 3 vertices, or no face at all, give Sentinel.
func (ix *Index) Record(root vmath.Vec3) Record {
	face, ok := ix.Nearest(root)
	if !ok {
		return Sentinel
	}
	verts := ix.mesh.Faces[face]
	if len(verts) < 3 {
		return Sentinel
	}
	var rec Record
	var uv vmath.Vec2
	for k := 0; k < 3; k++ {
		rec.Vertices[k] = uint32(verts[k]) * VertexStride
		uv = uv.Add(ix.mesh.VertexUV(verts[k]))
	}
	uv = uv.Scale(1.0 / 3)
	rec.UV = [2]float32{uv.X, uv.Y}
	return rec
}
