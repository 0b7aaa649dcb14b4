package geometry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/re-strands/pkg/math"
)

// ErrInvalidDocument is returned for malformed curve documents.
var ErrInvalidDocument = errors.New("invalid curve document")

// LOD name suffixes used for curve sets created from documents and strand files.
const (
	HighSuffix = "_HIGH_LOD"
	LowSuffix  = "_LOW_LOD"
)

// document is the YAML form of a Collection (*.strands.yaml).
type document struct {
	Name   string     `yaml:"name"`
	Bounds *docBounds `yaml:"bounds,omitempty"`
	Widths *docWidths `yaml:"widths,omitempty"`
	High   docLOD     `yaml:"high"`
	Low    docLOD     `yaml:"low"`
}

type docBounds struct {
	Min []float32 `yaml:"min,flow"`
	Max []float32 `yaml:"max,flow"`
}

type docWidths struct {
	Average float32 `yaml:"average"`
	Max     float32 `yaml:"max"`
	Min     float32 `yaml:"min"`
}

type docLOD struct {
	Curves []docCurve `yaml:"curves"`
}

type docCurve struct {
	Points [][]float32 `yaml:"points,flow"`
	Radius []float32   `yaml:"radius,flow,omitempty"`
	Tint   []int       `yaml:"tint,flow,omitempty"`
	UV     []float32   `yaml:"uv,flow,omitempty"`
}

// ParseDocument decodes a YAML curve document.
func ParseDocument(data []byte) (*Collection, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	col := &Collection{Name: doc.Name}
	if doc.Bounds != nil {
		min, err := vec3Of(doc.Bounds.Min)
		if err != nil {
			return nil, fmt.Errorf("bounds min: %w", err)
		}
		max, err := vec3Of(doc.Bounds.Max)
		if err != nil {
			return nil, fmt.Errorf("bounds max: %w", err)
		}
		col.Bounds = BoundingBox{Min: min, Max: max}
	}
	if doc.Widths != nil {
		col.Widths = WidthStats{Average: doc.Widths.Average, Max: doc.Widths.Max, Min: doc.Widths.Min}
	}

	var err error
	if col.High, err = doc.High.curveSet(doc.Name + HighSuffix); err != nil {
		return nil, fmt.Errorf("high LOD: %w", err)
	}
	if col.Low, err = doc.Low.curveSet(doc.Name + LowSuffix); err != nil {
		return nil, fmt.Errorf("low LOD: %w", err)
	}
	return col, nil
}

// LoadDocument reads a YAML curve document from disk.
func LoadDocument(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curve document: %w", err)
	}
	return ParseDocument(data)
}

// MarshalDocument encodes a collection as a YAML curve document.
func MarshalDocument(c *Collection) ([]byte, error) {
	doc := document{Name: c.Name}
	if !c.Bounds.IsZero() {
		min, max := c.Bounds.Min.Array(), c.Bounds.Max.Array()
		doc.Bounds = &docBounds{Min: min[:], Max: max[:]}
	}
	if !c.Widths.IsZero() {
		doc.Widths = &docWidths{Average: c.Widths.Average, Max: c.Widths.Max, Min: c.Widths.Min}
	}
	doc.High = lodOf(c.High)
	doc.Low = lodOf(c.Low)
	return yaml.Marshal(&doc)
}

func vec3Of(v []float32) (math.Vec3, error) {
	if len(v) != 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidDocument, len(v))
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// curveSet converts the YAML curves. Per-point and per-curve attributes must be
// present on every curve or on none.
func (l docLOD) curveSet(name string) (*CurveSet, error) {
	set := NewCurveSet(name)
	var radius, tint, uv []float32
	withRadius, withTint, withUV := 0, 0, 0

	for i, dc := range l.Curves {
		curve := Curve{Points: make([]math.Vec3, 0, len(dc.Points))}
		for _, p := range dc.Points {
			v, err := vec3Of(p)
			if err != nil {
				return nil, fmt.Errorf("curve %d: %w", i, err)
			}
			curve.Points = append(curve.Points, v)
		}
		if dc.Radius != nil {
			if len(dc.Radius) != len(dc.Points) {
				return nil, fmt.Errorf("%w: curve %d has %d radii for %d points", ErrInvalidDocument, i, len(dc.Radius), len(dc.Points))
			}
			radius = append(radius, dc.Radius...)
			withRadius++
		}
		if dc.Tint != nil {
			if len(dc.Tint) != len(dc.Points) {
				return nil, fmt.Errorf("%w: curve %d has %d tints for %d points", ErrInvalidDocument, i, len(dc.Tint), len(dc.Points))
			}
			for _, t := range dc.Tint {
				tint = append(tint, float32(t))
			}
			withTint++
		}
		if dc.UV != nil {
			if len(dc.UV) != 2 {
				return nil, fmt.Errorf("%w: curve %d uv has %d components", ErrInvalidDocument, i, len(dc.UV))
			}
			uv = append(uv, dc.UV...)
			withUV++
		}
		set.Strands = append(set.Strands, curve)
	}

	n := len(l.Curves)
	for attr, count := range map[string]int{AttrRadius: withRadius, AttrTint: withTint, AttrSurfaceUV: withUV} {
		if count != 0 && count != n {
			return nil, fmt.Errorf("%w: %s set on %d of %d curves", ErrInvalidDocument, attr, count, n)
		}
	}
	if withRadius > 0 {
		set.SetAttribute(AttrRadius, Attribute{Domain: DomainPoint, Width: 1, Values: radius})
	}
	if withTint > 0 {
		set.SetAttribute(AttrTint, Attribute{Domain: DomainPoint, Width: 1, Values: tint})
	}
	if withUV > 0 {
		set.SetAttribute(AttrSurfaceUV, Attribute{Domain: DomainCurve, Width: 2, Values: uv})
	}
	return set, nil
}

func lodOf(set *CurveSet) docLOD {
	var lod docLOD
	if set == nil {
		return lod
	}
	radius, hasRadius := set.Attribute(AttrRadius)
	tint, hasTint := set.Attribute(AttrTint)
	uv, hasUV := set.Attribute(AttrSurfaceUV)

	point := 0
	for ci, c := range set.Strands {
		dc := docCurve{Points: make([][]float32, 0, len(c.Points))}
		for j, p := range c.Points {
			a := p.Array()
			dc.Points = append(dc.Points, a[:])
			if hasRadius {
				r, _ := radius.Float(point + j)
				dc.Radius = append(dc.Radius, r)
			}
			if hasTint {
				t, _ := tint.Float(point + j)
				dc.Tint = append(dc.Tint, int(t))
			}
		}
		if hasUV {
			v, _ := uv.Vec2(ci)
			dc.UV = []float32{v.X, v.Y}
		}
		point += len(c.Points)
		lod.Curves = append(lod.Curves, dc)
	}
	return lod
}
