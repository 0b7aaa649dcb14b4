package transcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/re-strands/internal/config"
	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
	"github.com/Faultbox/re-strands/pkg/rigging"
	"github.com/Faultbox/re-strands/pkg/strands"
)

// testScalp is a flat two-triangle scalp in the XY plane with per-vertex UVs.
func testScalp() *geometry.Mesh {
	return &geometry.Mesh{
		Vertices: []vmath.Vec3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		UVs:      []vmath.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		Faces:    [][]int{{0, 1, 2}, {1, 3, 2}},
	}
}

// testHair grows n vertical strands of the given length from the scalp, with
// radius and surface UV attributes.
func testHair(name string, n, length int) *geometry.CurveSet {
	set := geometry.NewCurveSet(name)
	var radius, uv []float32
	for i := 0; i < n; i++ {
		x := (float32(i) + 0.5) / float32(n)
		c := geometry.Curve{}
		for j := 0; j < length; j++ {
			c.Points = append(c.Points, vmath.Vec3{X: x, Y: 0.2, Z: 0.1 * float32(j)})
			radius = append(radius, 0.0001)
		}
		set.Strands = append(set.Strands, c)
		uv = append(uv, x, 0.2)
	}
	set.SetAttribute(geometry.AttrRadius, geometry.Attribute{Domain: geometry.DomainPoint, Width: 1, Values: radius})
	set.SetAttribute(geometry.AttrSurfaceUV, geometry.Attribute{Domain: geometry.DomainCurve, Width: 2, Values: uv})
	set.Surface = testScalp()
	return set
}

func testOptions() ExportOptions {
	return OptionsFromConfig(config.Default().Export)
}

func TestExport_Import_RoundTrip(t *testing.T) {
	job := ExportJob{
		Name: "braid",
		High: testHair("braid_HIGH_LOD", 4, 5),
		Low:  testHair("braid_LOW_LOD", 2, 3),
	}

	res, err := Export(job, testOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	require.NoError(t, res.SBDErr)
	require.NotNil(t, res.SBD)

	col, warnings, err := Import(res.Strands, "braid")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "braid"+geometry.HighSuffix, col.High.Name)
	assert.Equal(t, job.High.Curves(), col.High.Strands)
	assert.Equal(t, job.Low.Curves(), col.Low.Strands)

	want := geometry.BoundsOf(job.High.Curves())
	assert.Equal(t, want, col.Bounds, "bounds come back in source axes")

	uv, ok := col.High.Attribute(geometry.AttrSurfaceUV)
	require.True(t, ok)
	assert.InDelta(t, 0.125, uv.Values[0], 1e-6)
	assert.InDelta(t, 0.2, uv.Values[1], 1e-6)

	radius, ok := col.High.Attribute(geometry.AttrRadius)
	require.True(t, ok)
	assert.InDelta(t, 0.0001, radius.Values[2], 1e-9)
}

func TestExport_HeaderDefaults(t *testing.T) {
	opts := testOptions()
	res, err := Export(ExportJob{Name: "h", High: testHair("h", 3, 4)}, opts)
	require.NoError(t, err)

	h := res.File.Header
	assert.Equal(t, opts.DefaultWidths, h.Widths)
	assert.Equal(t, uint32(3), h.RootCount)
	assert.Equal(t, h.High, h.Low, "low LOD defaults to high")
	assert.Equal(t, uint32(3*strands.UVRecordSize), h.UVSize)

	opts.ComputeWidths = true
	res, err = Export(ExportJob{Name: "h", High: testHair("h", 3, 4)}, opts)
	require.NoError(t, err)
	assert.InDelta(t, 0.0001, res.File.Header.Widths.Max, 1e-9)
}

func TestExport_Deterministic(t *testing.T) {
	job := ExportJob{Name: "d", High: testHair("d", 5, 6)}
	opts := testOptions()
	opts.AutoRadiusHigh = true
	opts.RandomUV = true
	opts.Seed = 42

	first, err := Export(job, opts)
	require.NoError(t, err)
	second, err := Export(job, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Strands, second.Strands)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestExport_EmptySelection(t *testing.T) {
	tests := []struct {
		name string
		job  ExportJob
	}{
		{"no high LOD", ExportJob{Name: "e"}},
		{"no curves", ExportJob{Name: "e", High: geometry.NewCurveSet("e")}},
		{"only short curves", ExportJob{Name: "e", High: &geometry.CurveSet{
			Strands: []geometry.Curve{{Points: []vmath.Vec3{{}}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(tt.job, testOptions())
			assert.ErrorIs(t, err, ErrEmptySelection)
		})
	}
}

func TestExport_NoSurfaceMesh(t *testing.T) {
	hair := testHair("bald", 2, 3)
	hair.Surface = nil

	res, err := Export(ExportJob{Name: "bald", High: hair}, testOptions())
	require.NoError(t, err, "a missing mesh must not block the strands output")
	assert.NotEmpty(t, res.Strands)
	assert.Nil(t, res.SBD)
	assert.True(t, IsNoSurfaceMesh(res.SBDErr))

	opts := testOptions()
	opts.CreateSBD = false
	res, err = Export(ExportJob{Name: "bald", High: hair}, opts)
	require.NoError(t, err)
	assert.NoError(t, res.SBDErr)
}

func TestExport_SurfaceOverride(t *testing.T) {
	hair := testHair("o", 2, 3)
	hair.Surface = nil

	res, err := Export(ExportJob{Name: "o", High: hair, Surface: testScalp()}, testOptions())
	require.NoError(t, err)
	require.NoError(t, res.SBDErr)

	records, err := rigging.Parse(res.SBD)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, [3]uint32{0, 12, 24}, records[0].Vertices)
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "braid_strand"+StrandsExt)

	rep, err := ExportFile(path, ExportJob{Name: "braid", High: testHair("braid", 3, 4)}, testOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "braid"+SBDExt), rep.SBDPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rep.Strands, data)

	f, err := strands.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, f.High.Roots, 3)

	records, err := rigging.ParseFile(rep.SBDPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	col, err := ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, "braid", col.Name)
}

func TestRig(t *testing.T) {
	opts := testOptions()
	opts.CreateSBD = false
	res, err := Export(ExportJob{Name: "r", High: testHair("r", 3, 2)}, opts)
	require.NoError(t, err)

	sbd, err := Rig(res.Strands, testScalp())
	require.NoError(t, err)

	opts.CreateSBD = true
	withSBD, err := Export(ExportJob{Name: "r", High: testHair("r", 3, 2)}, opts)
	require.NoError(t, err)
	assert.Equal(t, withSBD.SBD, sbd)

	_, err = Rig(res.Strands, nil)
	assert.ErrorIs(t, err, rigging.ErrNoSurfaceMesh)
	_, err = Rig([]byte("nope"), testScalp())
	assert.ErrorIs(t, err, strands.ErrInvalidMagic)
}

func TestSBDPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"out/braid_strand.strands.20", "out/braid.sbd.7"},
		{"out/braid.strands.20", "out/braid.sbd.7"},
		{"out/braid", "out/braid.sbd.7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SBDPath(tt.in), tt.in)
	}
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "braid", CollectionName("/tmp/braid_strand.strands.20"))
	assert.Equal(t, "bun", CollectionName("bun.strands.20"))
	assert.Equal(t, "mesh", CollectionName("dir/mesh.obj"))
}
