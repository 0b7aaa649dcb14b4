// Package rigging builds the rigging correspondence file (*.sbd.7) that binds
// every hair root to a triangle of the surface mesh.
//
// Roots are matched to the face with the nearest center. This is an
// approximation, not a containment test.
package rigging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/re-strands/pkg/geometry"
	vmath "github.com/Faultbox/re-strands/pkg/math"
)

// Rigging errors.
var (
	ErrNoSurfaceMesh   = errors.New("no rigging surface mesh")
	ErrInvalidSBDMagic = errors.New("invalid sbd magic: expected 'SDBD'")
	ErrTruncatedSBD    = errors.New("truncated sbd data")
)

const (
	// Magic is the sbd file signature.
	Magic = "SDBD"
	// HeaderSize covers the magic, 4 padding bytes and the record byte count.
	HeaderSize = 12
	// RecordSize is the size of one record.
	RecordSize = 20
	// VertexStride multiplies every vertex index written to the file.
	VertexStride = 12
)

// Record binds one root to a mesh triangle.
type Record struct {
	Vertices [3]uint32 // vertex index * VertexStride
	UV       [2]float32
}

// Sentinel marks a root with no usable face.
var Sentinel = Record{UV: [2]float32{-1, -1}}

// Build matches every root to the mesh.
func Build(roots []vmath.Vec3, mesh *geometry.Mesh) ([]Record, error) {
	ix, err := NewIndex(mesh)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(roots))
	for i, root := range roots {
		records[i] = ix.Record(root)
	}
	return records, nil
}

// Marshal encodes records as an sbd file.
func Marshal(records []Record) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(records)*RecordSize))
	buf.WriteString(Magic)
	buf.Write(make([]byte, 4))
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(records)*RecordSize)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("writing records: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes an sbd file.
func Parse(data []byte) ([]Record, error) {
	if len(data) < 4 || string(data[0:4]) != Magic {
		return nil, ErrInvalidSBDMagic
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes", ErrTruncatedSBD, len(data))
	}
	size := int(binary.LittleEndian.Uint32(data[8:12]))
	if size%RecordSize != 0 || HeaderSize+size > len(data) {
		return nil, fmt.Errorf("%w: %d record bytes declared, %d available", ErrTruncatedSBD, size, len(data)-HeaderSize)
	}
	records := make([]Record, size/RecordSize)
	if err := binary.Read(bytes.NewReader(data[HeaderSize:HeaderSize+size]), binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedSBD, err)
	}
	return records, nil
}

// ParseFile parses an sbd file from disk.
func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sbd file: %w", err)
	}
	return Parse(data)
}
