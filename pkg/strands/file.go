package strands

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// HeaderSize is the fixed size of the header preceding the section payloads.
const HeaderSize = 188

// Header field offsets. HIGH and LOW fields are interleaved, and the gaps
// between them are zero padding the engine expects.
const (
	offHighMarkerCount   = 0x0C
	offLowMarkerCount    = 0x10
	offHighPositions     = 0x1C
	offLowPositions      = 0x20
	offHighTopology      = 0x2C
	offLowTopology       = 0x30
	offHighRoots         = 0x3C
	offLowRoots          = 0x40
	offHighPointIDs      = 0x4C
	offLowPointIDs       = 0x50
	offHighTopologyBlock = 0x5C
	offLowTopologyBlock  = 0x60
	offUVSize            = 0x64
	offRootCount         = 0x68
	offBoundsMax         = 0x6C
	offBoundsMin         = 0x78
	offHighGuides        = 0x8C
	offLowGuides         = 0x90
	offWidthAverage      = 0xB0
	offWidthMax          = 0xB4
	offWidthMin          = 0xB8
)

// topologyBlockSize is the divisor of the derived topology count fields.
const topologyBlockSize = 0x10

// SectionSizes are the byte lengths of one LOD's sections, plus the
// count fields the header derives from them.
type SectionSizes struct {
	MarkerCount   uint32
	Positions     uint32
	Topology      uint32
	Roots         uint32
	PointIDs      uint32
	TopologyBlock uint32 // Topology / 16
	Guides        uint32
}

// Header is the decoded strands header.
type Header struct {
	High      SectionSizes
	Low       SectionSizes
	UVSize    uint32
	RootCount uint32
	Bounds    geometry.BoundingBox // engine axis convention
	Widths    geometry.WidthStats
}

// Section is a byte range in the file.
type Section struct {
	Offset int
	Size   int
}

// End returns the offset just past the section.
func (s Section) End() int {
	return s.Offset + s.Size
}

// LODLayout holds the section ranges of one LOD, in payload order.
type LODLayout struct {
	Positions Section
	Topology  Section
	Roots     Section
	PointIDs  Section
	Guides    Section
}

func (l LODLayout) sections() []Section {
	return []Section{l.Positions, l.Topology, l.Roots, l.PointIDs, l.Guides}
}

// Layout is the position of every section in the file.
type Layout struct {
	High LODLayout
	Low  LODLayout
	UV   Section
}

// End returns the total file size the header describes.
func (l Layout) End() int {
	return l.UV.End()
}

// Layout derives section offsets from the header's sizes. Offsets are never
// stored; each section starts where the previous one ends.
func (h *Header) Layout() Layout {
	var lay Layout
	off := HeaderSize
	next := func(size uint32) Section {
		s := Section{Offset: off, Size: int(size)}
		off += int(size)
		return s
	}
	lodLayout := func(s SectionSizes) LODLayout {
		return LODLayout{
			Positions: next(s.Positions),
			Topology:  next(s.Topology),
			Roots:     next(s.Roots),
			PointIDs:  next(s.PointIDs),
			Guides:    next(s.Guides),
		}
	}
	lay.High = lodLayout(h.High)
	lay.Low = lodLayout(h.Low)
	lay.UV = next(h.UVSize)
	return lay
}

// ParseHeader decodes the fixed header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < 4 || string(data[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes, need %d", ErrTruncatedSection, len(data), HeaderSize)
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	f32 := func(off int) float32 { return math.Float32frombits(u32(off)) }
	vec := func(off int) vmath.Vec3 { return vmath.Vec3{X: f32(off), Y: f32(off + 4), Z: f32(off + 8)} }

	h := &Header{
		High: SectionSizes{
			MarkerCount:   u32(offHighMarkerCount),
			Positions:     u32(offHighPositions),
			Topology:      u32(offHighTopology),
			Roots:         u32(offHighRoots),
			PointIDs:      u32(offHighPointIDs),
			TopologyBlock: u32(offHighTopologyBlock),
			Guides:        u32(offHighGuides),
		},
		Low: SectionSizes{
			MarkerCount:   u32(offLowMarkerCount),
			Positions:     u32(offLowPositions),
			Topology:      u32(offLowTopology),
			Roots:         u32(offLowRoots),
			PointIDs:      u32(offLowPointIDs),
			TopologyBlock: u32(offLowTopologyBlock),
			Guides:        u32(offLowGuides),
		},
		UVSize:    u32(offUVSize),
		RootCount: u32(offRootCount),
		Bounds:    geometry.BoundingBox{Max: vec(offBoundsMax), Min: vec(offBoundsMin)},
		Widths: geometry.WidthStats{
			Average: f32(offWidthAverage),
			Max:     f32(offWidthMax),
			Min:     f32(offWidthMin),
		},
	}
	return h, nil
}

// MarshalBinary encodes the header. Padding bytes are zero.
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
	putF := func(off int, f float32) { put(off, math.Float32bits(f)) }
	putVec := func(off int, v vmath.Vec3) {
		putF(off, v.X)
		putF(off+4, v.Y)
		putF(off+8, v.Z)
	}

	put(offHighMarkerCount, h.High.MarkerCount)
	put(offLowMarkerCount, h.Low.MarkerCount)
	put(offHighPositions, h.High.Positions)
	put(offLowPositions, h.Low.Positions)
	put(offHighTopology, h.High.Topology)
	put(offLowTopology, h.Low.Topology)
	put(offHighRoots, h.High.Roots)
	put(offLowRoots, h.Low.Roots)
	put(offHighPointIDs, h.High.PointIDs)
	put(offLowPointIDs, h.Low.PointIDs)
	put(offHighTopologyBlock, h.High.TopologyBlock)
	put(offLowTopologyBlock, h.Low.TopologyBlock)
	put(offUVSize, h.UVSize)
	put(offRootCount, h.RootCount)
	putVec(offBoundsMax, h.Bounds.Max)
	putVec(offBoundsMin, h.Bounds.Min)
	put(offHighGuides, h.High.Guides)
	put(offLowGuides, h.Low.Guides)
	putF(offWidthAverage, h.Widths.Average)
	putF(offWidthMax, h.Widths.Max)
	putF(offWidthMin, h.Widths.Min)
	return b, nil
}

// File is a complete strands file.
type File struct {
	Header Header
	High   LOD
	Low    LOD
	UVs    []vmath.Vec2
}

func sizesOf(l *LOD) SectionSizes {
	topology := uint32(len(l.Markers) * MarkerSize)
	return SectionSizes{
		MarkerCount:   uint32(len(l.Markers)),
		Positions:     uint32(len(l.Points) * PointRecordSize),
		Topology:      topology,
		Roots:         uint32(len(l.Roots) * RootRecordSize),
		PointIDs:      uint32(len(l.CurveIDs) * CurveIDSize),
		TopologyBlock: topology / topologyBlockSize,
		Guides:        uint32(len(l.Guides) * GuideRecordSize),
	}
}

// MarshalBinary encodes the file. Size and count fields of the header are
// recomputed from the records; bounds (engine convention) and widths are
// taken from f.Header.
func (f *File) MarshalBinary() ([]byte, error) {
	f.Header.High = sizesOf(&f.High)
	f.Header.Low = sizesOf(&f.Low)
	f.Header.UVSize = uint32(len(f.UVs) * UVRecordSize)
	f.Header.RootCount = uint32(len(f.High.Roots))

	head, err := f.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, f.Header.Layout().End()))
	buf.Write(head)
	for _, l := range []*LOD{&f.High, &f.Low} {
		for _, records := range []any{l.Points, l.Markers, l.Roots, l.CurveIDs, l.Guides} {
			if err := binary.Write(buf, binary.LittleEndian, records); err != nil {
				return nil, fmt.Errorf("writing section: %w", err)
			}
		}
	}
	for _, uv := range f.UVs {
		if err := binary.Write(buf, binary.LittleEndian, [2]float32{uv.X, uv.Y}); err != nil {
			return nil, fmt.Errorf("writing UV section: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Parse decodes a strands file. Sections are located from the header's size
// fields; a section running past the end of data fails the whole parse.
func Parse(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	lay := h.Layout()
	f := &File{Header: *h}

	if f.High, err = parseLOD(data, lay.High); err != nil {
		return nil, fmt.Errorf("high LOD: %w", err)
	}
	if f.Low, err = parseLOD(data, lay.Low); err != nil {
		return nil, fmt.Errorf("low LOD: %w", err)
	}

	var raw [][2]float32
	if err := readSection(data, lay.UV, UVRecordSize, &raw); err != nil {
		return nil, fmt.Errorf("UV section: %w", err)
	}
	f.UVs = make([]vmath.Vec2, len(raw))
	for i, uv := range raw {
		f.UVs[i] = vmath.Vec2{X: uv[0], Y: uv[1]}
	}
	return f, nil
}

// ParseFile parses a strands file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strands file: %w", err)
	}
	return Parse(data)
}

func parseLOD(data []byte, lay LODLayout) (LOD, error) {
	var l LOD
	if err := readSection(data, lay.Positions, PointRecordSize, &l.Points); err != nil {
		return LOD{}, fmt.Errorf("positions: %w", err)
	}
	if err := readSection(data, lay.Topology, MarkerSize, &l.Markers); err != nil {
		return LOD{}, fmt.Errorf("topology: %w", err)
	}
	if err := readSection(data, lay.Roots, RootRecordSize, &l.Roots); err != nil {
		return LOD{}, fmt.Errorf("roots: %w", err)
	}
	if err := readSection(data, lay.PointIDs, CurveIDSize, &l.CurveIDs); err != nil {
		return LOD{}, fmt.Errorf("point ids: %w", err)
	}
	if err := readSection(data, lay.Guides, GuideRecordSize, &l.Guides); err != nil {
		return LOD{}, fmt.Errorf("guides: %w", err)
	}
	return l, nil
}

// readSection decodes a section of fixed-size records into out, a pointer to a
// slice of records.
func readSection[T any](data []byte, s Section, recordSize int, out *[]T) error {
	if s.Offset < 0 || s.Size < 0 || s.End() > len(data) {
		return fmt.Errorf("%w: %d bytes at offset %d, file has %d", ErrTruncatedSection, s.Size, s.Offset, len(data))
	}
	if s.Size%recordSize != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of %d", ErrTruncatedSection, s.Size, recordSize)
	}
	records := make([]T, s.Size/recordSize)
	if err := binary.Read(bytes.NewReader(data[s.Offset:s.End()]), binary.LittleEndian, records); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedSection, err)
	}
	*out = records
	return nil
}

// Sections returns the layout ranges of both LODs and the UV section, in file order.
func (l Layout) Sections() []Section {
	out := append(l.High.sections(), l.Low.sections()...)
	return append(out, l.UV)
}
