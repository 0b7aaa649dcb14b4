// Package strands implements the packed hair strand format (*.strands.20).
//
// A strands file holds two levels of detail. Each LOD is a flat stream of point
// records plus a topology-marker stream that encodes where curves start and end,
// a root section, a per-point curve id section and per-point guide records.
// A UV section shared by both LODs closes the file.
package strands

import (
	"errors"

	"github.com/x448/float16"
)

// Strands format errors.
var (
	ErrInvalidMagic     = errors.New("invalid strands magic: expected 'STRD'")
	ErrTruncatedSection = errors.New("truncated strands section")
	ErrCorruptTopology  = errors.New("corrupt strands topology")
	ErrMissingAttribute = errors.New("missing attribute")
	ErrOverflow         = errors.New("strands field overflow")
)

// Magic is the file signature.
const Magic = "STRD"

// Record sizes in bytes.
const (
	PointRecordSize = 16
	MarkerSize      = 4
	RootRecordSize  = 4
	CurveIDSize     = 4
	GuideRecordSize = 24
	UVRecordSize    = 8
)

// Radius fixed point scales. Encoding and decoding use different constants;
// both must be kept for files to match the producer.
const (
	RadiusEncodeScale = 105000.0
	RadiusDecodeScale = 100000.0
)

// Synthesized radii for curves without a usable radius attribute.
const (
	EndpointRadius    = 0.00003
	InteriorRadiusMin = 0.00011
	InteriorRadiusMax = 0.00015
)

// PointRecord is one on-disk point.
type PointRecord struct {
	Position [3]float32 // engine axis convention
	Radius   uint16     // fixed point, see EncodeRadius
	Param    uint8      // position along the curve, 0..255
	Spare    uint8      // opaque; the engine uses it for tinting
}

// EncodeRadius converts a radius to the on-disk fixed point value.
func EncodeRadius(r float32) uint16 {
	v := int64(float64(r) * RadiusEncodeScale)
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// DecodeRadius converts an on-disk fixed point radius back to source units.
func DecodeRadius(raw uint16) float32 {
	return float32(float64(raw) / RadiusDecodeScale)
}

// Marker flag bits, stored in the high nibble.
const (
	FlagFirst      uint32 = 0x10000000
	FlagLastButOne uint32 = 0x20000000

	markerIndexMask uint32 = 0x0FFFFFFF
	markerFlagMask  uint32 = 0xF0000000
)

// MaxPoints is the largest point count a marker index can address.
const MaxPoints = int(markerIndexMask) + 1

// Marker is a topology marker: a global point index with flag bits.
// The last point of every curve has no marker.
type Marker uint32

// NewMarker builds a marker for a point index.
func NewMarker(index uint32, flags uint32) Marker {
	return Marker(index&markerIndexMask | flags&markerFlagMask)
}

// Index returns the global point index.
func (m Marker) Index() uint32 {
	return uint32(m) & markerIndexMask
}

// Flags returns the flag nibble.
func (m Marker) Flags() uint32 {
	return uint32(m) >> 28
}

// IsFirst reports whether the marker starts a curve.
func (m Marker) IsFirst() bool {
	return uint32(m)&FlagFirst != 0
}

// IsLastButOne reports whether the marker is the second-to-last point of a curve.
func (m Marker) IsLastButOne() bool {
	return uint32(m)&FlagLastButOne != 0
}

// GuideRecord is the per-point metadata for the engine's blending and physics.
// This producer never references guide curves, so those slots hold -1.
type GuideRecord struct {
	CurveID     uint16
	GuideCurves [2]int16
	PointIndex  uint16
	GuidePoints [2]int16
	Physics     float16.Float16
	Reserved    [5]float16.Float16 // guide weights and bounce
}

// NewGuideRecord builds the guide record for point j of a curve.
func NewGuideRecord(curveID, pointIndex uint16, physics bool) GuideRecord {
	g := GuideRecord{
		CurveID:     curveID,
		GuideCurves: [2]int16{-1, -1},
		PointIndex:  pointIndex,
		GuidePoints: [2]int16{-1, -1},
	}
	if physics {
		g.Physics = float16.Fromfloat32(1)
	}
	return g
}

// PhysicsEnabled reports whether the physics flag is set.
func (g GuideRecord) PhysicsEnabled() bool {
	return g.Physics.Float32() != 0
}

// LOD is one level of detail in record form.
type LOD struct {
	Points   []PointRecord
	Markers  []Marker
	Roots    []uint32
	CurveIDs []uint32
	Guides   []GuideRecord
}

// CurveCount returns the number of curves according to the root section.
func (l *LOD) CurveCount() int {
	return len(l.Roots)
}
