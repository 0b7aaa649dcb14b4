package geometry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/re-strands/pkg/math"
)

// ErrInvalidOBJ is returned for malformed Wavefront OBJ input.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// OBJ is the geometry read from a Wavefront OBJ file.
// Polygon faces form the surface mesh and polylines ("l" elements) form curves.
type OBJ struct {
	Mesh   *Mesh
	Curves []Curve
}

// CurveSet wraps the polylines as a curve set. The surface mesh is attached
// when the file has faces.
func (o *OBJ) CurveSet(name string) *CurveSet {
	set := NewCurveSet(name)
	set.Strands = o.Curves
	if o.Mesh != nil && len(o.Mesh.Faces) > 0 {
		set.Surface = o.Mesh
	}
	return set
}

type objReader struct {
	vertices []math.Vec3
	texs     []math.Vec2
	faces    [][]int
	uvSum    []math.Vec2
	uvCount  []int
	curves   []Curve
}

// ParseOBJ reads vertices, texture coordinates, faces and polylines.
// Normals, groups and materials are ignored.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	rd := &objReader{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := rd.readLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return rd.result(), nil
}

// LoadOBJ parses an OBJ file from disk.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

func (o *objReader) readLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "v":
		return o.readVertex(fields[1:])
	case "vt":
		return o.readTexCoord(fields[1:])
	case "f":
		return o.readFace(fields[1:])
	case "l":
		return o.readPolyline(fields[1:])
	}
	return nil
}

func (o *objReader) readVertex(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: vertex needs 3 coordinates, found %d", ErrInvalidOBJ, len(args))
	}
	var xyz [3]float32
	for i := range xyz {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return fmt.Errorf("%w: vertex coordinate %q", ErrInvalidOBJ, args[i])
		}
		xyz[i] = float32(f)
	}
	o.vertices = append(o.vertices, math.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	o.uvSum = append(o.uvSum, math.Vec2{})
	o.uvCount = append(o.uvCount, 0)
	return nil
}

func (o *objReader) readTexCoord(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: texture coordinate needs 2 components, found %d", ErrInvalidOBJ, len(args))
	}
	u, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return fmt.Errorf("%w: texture coordinate %q", ErrInvalidOBJ, args[0])
	}
	v, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return fmt.Errorf("%w: texture coordinate %q", ErrInvalidOBJ, args[1])
	}
	o.texs = append(o.texs, math.Vec2{X: float32(u), Y: float32(v)})
	return nil
}

func (o *objReader) readFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face needs 3 vertices, found %d", ErrInvalidOBJ, len(args))
	}
	face := make([]int, 0, len(args))
	for _, tok := range args {
		parts := strings.Split(tok, "/")
		vi, err := resolveIndex(parts[0], len(o.vertices))
		if err != nil {
			return err
		}
		face = append(face, vi)
		if len(parts) > 1 && parts[1] != "" {
			ti, err := resolveIndex(parts[1], len(o.texs))
			if err != nil {
				return err
			}
			o.uvSum[vi] = o.uvSum[vi].Add(o.texs[ti])
			o.uvCount[vi]++
		}
	}
	o.faces = append(o.faces, face)
	return nil
}

func (o *objReader) readPolyline(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: empty polyline", ErrInvalidOBJ)
	}
	curve := Curve{Points: make([]math.Vec3, 0, len(args))}
	for _, tok := range args {
		vi, err := resolveIndex(strings.SplitN(tok, "/", 2)[0], len(o.vertices))
		if err != nil {
			return err
		}
		curve.Points = append(curve.Points, o.vertices[vi])
	}
	o.curves = append(o.curves, curve)
	return nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index to a 0-based one.
func resolveIndex(tok string, size int) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrInvalidOBJ, tok)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i = size + i
	default:
		return 0, fmt.Errorf("%w: index 0", ErrInvalidOBJ)
	}
	if i < 0 || i >= size {
		return 0, fmt.Errorf("%w: index %s out of range (%d elements)", ErrInvalidOBJ, tok, size)
	}
	return i, nil
}

func (o *objReader) result() *OBJ {
	mesh := &Mesh{
		Vertices: o.vertices,
		Faces:    o.faces,
	}
	hasUV := false
	for _, n := range o.uvCount {
		if n > 0 {
			hasUV = true
			break
		}
	}
	if hasUV {
		mesh.UVs = make([]math.Vec2, len(o.vertices))
		for i, n := range o.uvCount {
			if n > 0 {
				mesh.UVs[i] = o.uvSum[i].Scale(1 / float32(n))
			}
		}
	}
	return &OBJ{Mesh: mesh, Curves: o.curves}
}
