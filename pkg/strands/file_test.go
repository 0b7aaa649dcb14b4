package strands

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// createTestFile builds a file whose HIGH LOD holds curves of 2, 5 and 2
// points and whose LOW LOD holds one 3-point curve.
func createTestFile() *File {
	high := mustEncode(createTestCurves(2, 5, 2), EncodeOptions{AutoRadius: true, Physics: true})
	low := mustEncode(createTestCurves(3), EncodeOptions{AutoRadius: true})
	return &File{
		Header: Header{
			Bounds: geometry.BoundingBox{
				Min: vmath.Vec3{X: 0, Y: 0, Z: -4},
				Max: vmath.Vec3{X: 2, Y: 2, Z: 0},
			},
			Widths: geometry.WidthStats{Average: 0.0001, Max: 0.00015, Min: 0.00003},
		},
		High: high.LOD,
		Low:  low.LOD,
		UVs:  []vmath.Vec2{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}, {X: 0.5, Y: 0.6}},
	}
}

func mustMarshal(t *testing.T, f *File) []byte {
	t.Helper()
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	return data
}

func TestMarshal_HeaderFields(t *testing.T) {
	data := mustMarshal(t, createTestFile())

	if string(data[0:4]) != Magic {
		t.Fatalf("expected magic %q, got %q", Magic, data[0:4])
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	tests := []struct {
		name string
		off  int
		want uint32
	}{
		{"high marker count", 0x0C, 6},
		{"low marker count", 0x10, 2},
		{"high positions", 0x1C, 144},
		{"low positions", 0x20, 48},
		{"high topology", 0x2C, 24},
		{"low topology", 0x30, 8},
		{"high roots", 0x3C, 12},
		{"low roots", 0x40, 4},
		{"high point ids", 0x4C, 36},
		{"low point ids", 0x50, 12},
		{"high topology blocks", 0x5C, 1},
		{"low topology blocks", 0x60, 0},
		{"uv size", 0x64, 24},
		{"root count", 0x68, 3},
		{"high guides", 0x8C, 216},
		{"low guides", 0x90, 72},
	}
	for _, tt := range tests {
		if got := u32(tt.off); got != tt.want {
			t.Errorf("%s at 0x%02X: expected %d, got %d", tt.name, tt.off, tt.want, got)
		}
	}

	f32 := func(off int) float32 { return math.Float32frombits(u32(off)) }
	if f32(0x6C) != 2 || f32(0x74) != 0 {
		t.Errorf("unexpected bounds max (%v, %v, %v)", f32(0x6C), f32(0x70), f32(0x74))
	}
	if f32(0x80) != -4 {
		t.Errorf("expected bounds min z -4, got %v", f32(0x80))
	}
	if f32(0xB0) != 0.0001 || f32(0xB4) != 0.00015 || f32(0xB8) != 0.00003 {
		t.Errorf("unexpected widths %v %v %v", f32(0xB0), f32(0xB4), f32(0xB8))
	}
}

func TestMarshal_ZeroPadding(t *testing.T) {
	data := mustMarshal(t, createTestFile())

	gaps := [][2]int{
		{0x04, 0x0C},
		{0x14, 0x1C},
		{0x24, 0x2C},
		{0x34, 0x3C},
		{0x44, 0x4C},
		{0x54, 0x5C},
		{0x84, 0x8C},
		{0x94, 0xB0},
	}
	for _, g := range gaps {
		for i := g[0]; i < g[1]; i++ {
			if data[i] != 0 {
				t.Errorf("expected zero padding at 0x%02X, got 0x%02X", i, data[i])
			}
		}
	}
}

func TestLayout_Cumulative(t *testing.T) {
	data := mustMarshal(t, createTestFile())
	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	lay := h.Layout()
	off := HeaderSize
	for i, s := range lay.Sections() {
		if s.Offset != off {
			t.Errorf("section %d: expected offset %d, got %d", i, off, s.Offset)
		}
		off = s.End()
	}
	if lay.End() != len(data) {
		t.Errorf("layout ends at %d, file is %d bytes", lay.End(), len(data))
	}
	if lay.High.Topology.Offset != HeaderSize+144 {
		t.Errorf("expected HIGH topology at %d, got %d", HeaderSize+144, lay.High.Topology.Offset)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	want := createTestFile()
	data := mustMarshal(t, want)

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}

	again := mustMarshal(t, got)
	if !bytes.Equal(data, again) {
		t.Error("re-encoding a parsed file changed its bytes")
	}
}

func TestParse_DecodesCurves(t *testing.T) {
	got, err := Parse(mustMarshal(t, createTestFile()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	strands, warnings, err := got.High.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(strands) != 3 {
		t.Errorf("expected 3 strands, got %d", len(strands))
	}
	if !got.High.Guides[0].PhysicsEnabled() || got.Low.Guides[0].PhysicsEnabled() {
		t.Error("physics flag did not survive the round trip")
	}
}

func TestParse_InvalidMagic(t *testing.T) {
	data := mustMarshal(t, createTestFile())
	copy(data, "XXXX")

	if _, err := Parse(data); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
	if _, err := Parse([]byte("ST")); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic for short input, got %v", err)
	}
}

func TestParse_Truncated(t *testing.T) {
	data := mustMarshal(t, createTestFile())

	tests := []struct {
		name string
		data []byte
	}{
		{"header only", data[:HeaderSize-1]},
		{"missing UV record", data[:len(data)-1]},
		{"missing HIGH guides", data[:HeaderSize+144+24+12+36+100]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); !errors.Is(err, ErrTruncatedSection) {
				t.Errorf("expected ErrTruncatedSection, got %v", err)
			}
		})
	}

	bad := bytes.Clone(data)
	binary.LittleEndian.PutUint32(bad[0x1C:], 145)
	if _, err := Parse(bad); !errors.Is(err, ErrTruncatedSection) {
		t.Errorf("expected ErrTruncatedSection for a partial record, got %v", err)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	f := &File{}
	data := mustMarshal(t, f)
	if len(data) != HeaderSize {
		t.Fatalf("expected %d bytes, got %d", HeaderSize, len(data))
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got.High.Points) != 0 || len(got.UVs) != 0 {
		t.Error("expected an empty file")
	}
}
