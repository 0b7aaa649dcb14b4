package geometry

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/re-strands/pkg/math"
)

const testOBJ = `# scalp patch
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vt 0 0
vt 1 0
vt 0 1
vt 1 1
vn 0 0 1
g scalp
f 1/1/1 2/2/1 3/3/1
f 2/4/1 4/4/1 -2/3/1   # relative indices
v 0 0 1
v 0 0 2
v 0 0 3
l 5 6 7
l -3 -1
`

func TestParseOBJ(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(testOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(obj.Mesh.Vertices) != 7 {
		t.Errorf("expected 7 vertices, got %d", len(obj.Mesh.Vertices))
	}
	if diff := cmp.Diff([][]int{{0, 1, 2}, {1, 3, 2}}, obj.Mesh.Faces); diff != "" {
		t.Errorf("faces mismatch (-want +got):\n%s", diff)
	}

	// The second vertex is used with vt 2 and vt 4, the third with vt 3 twice.
	wantUVs := []math.Vec2{
		{X: 0, Y: 0},
		{X: 1, Y: 0.5},
		{X: 0, Y: 1},
		{X: 1, Y: 1},
		{}, {}, {},
	}
	if diff := cmp.Diff(wantUVs, obj.Mesh.UVs); diff != "" {
		t.Errorf("UVs mismatch (-want +got):\n%s", diff)
	}

	wantCurves := []Curve{
		{Points: []math.Vec3{{Z: 1}, {Z: 2}, {Z: 3}}},
		{Points: []math.Vec3{{Z: 1}, {Z: 3}}},
	}
	if diff := cmp.Diff(wantCurves, obj.Curves); diff != "" {
		t.Errorf("curves mismatch (-want +got):\n%s", diff)
	}

	set := obj.CurveSet("hair")
	if set.Name != "hair" || len(set.Strands) != 2 {
		t.Errorf("unexpected curve set %q with %d strands", set.Name, len(set.Strands))
	}
	if mesh, ok := set.SurfaceMesh(); !ok || mesh != obj.Mesh {
		t.Error("expected the OBJ mesh as surface")
	}
}

func TestParseOBJ_NoFaces(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader("v 0 0 0\nv 0 0 1\nl 1 2\n"))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if obj.Mesh.UVs != nil {
		t.Errorf("expected no UVs, got %v", obj.Mesh.UVs)
	}
	if _, ok := obj.CurveSet("hair").SurfaceMesh(); ok {
		t.Error("expected no surface mesh without faces")
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v 1 2 x\n"},
		{"bad texcoord", "vt 0\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index zero", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"index out of range", "v 0 0 0\nl 1 2\n"},
		{"texcoord out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n"},
		{"empty polyline", "l\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidOBJ) {
				t.Errorf("expected ErrInvalidOBJ, got %v", err)
			}
		})
	}
}

func TestMeshFaceCenter(t *testing.T) {
	mesh := &Mesh{
		Vertices: []math.Vec3{{X: 0}, {X: 3}, {Y: 3}},
		Faces:    [][]int{{0, 1, 2}, {}},
	}
	if got := mesh.FaceCenter(0); got != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("expected (1, 1, 0), got %v", got)
	}
	if got := mesh.FaceCenter(1); got != (math.Vec3{}) {
		t.Errorf("expected zero center for empty face, got %v", got)
	}
	if got := mesh.VertexUV(0); !got.IsZero() {
		t.Errorf("expected zero UV without UVs, got %v", got)
	}
}

func TestBoundsOf(t *testing.T) {
	if !BoundsOf(nil).IsZero() {
		t.Error("expected zero bounds for no curves")
	}

	curves := []Curve{
		{Points: []math.Vec3{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 5, Z: 0}}},
		{Points: []math.Vec3{{X: 4, Y: 0, Z: -6}}},
	}
	want := BoundingBox{Min: math.Vec3{X: -1, Y: -2, Z: -6}, Max: math.Vec3{X: 4, Y: 5, Z: 3}}
	if got := BoundsOf(curves); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := want.ToEngine().FromEngine(); got != want {
		t.Errorf("engine round trip changed bounds: %v", got)
	}
}
