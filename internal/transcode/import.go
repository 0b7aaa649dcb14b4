package transcode

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/re-strands/internal/logger"
	"github.com/Faultbox/re-strands/pkg/geometry"
	"github.com/Faultbox/re-strands/pkg/strands"
)

// Import decodes a strands file into a collection named name. Bounds are
// converted back to the source axis convention. The returned warnings describe
// recoverable topology inconsistencies.
func Import(data []byte, name string) (*geometry.Collection, []error, error) {
	f, err := strands.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	col := &geometry.Collection{
		Name:   name,
		Bounds: f.Header.Bounds.FromEngine(),
		Widths: f.Header.Widths,
	}
	var warnings []error
	for _, lod := range []struct {
		name string
		data *strands.LOD
		dst  **geometry.CurveSet
	}{
		{geometry.HighSuffix, &f.High, &col.High},
		{geometry.LowSuffix, &f.Low, &col.Low},
	} {
		decoded, w, err := lod.data.Decode()
		if err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", name+lod.name, err)
		}
		warnings = append(warnings, w...)
		*lod.dst = strands.CurveSet(name+lod.name, decoded, f.UVs)
	}
	return col, warnings, nil
}

// ImportFile reads and decodes a strands file. The collection is named after
// the file.
func ImportFile(path string) (*geometry.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strands file: %w", err)
	}
	col, warnings, err := Import(data, CollectionName(path))
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	for _, w := range warnings {
		logger.Warn("topology inconsistency", zap.String("path", path), zap.Error(w))
	}
	logger.Info("imported strands file",
		zap.String("path", path),
		zap.Int("high_curves", len(col.High.Strands)),
		zap.Int("low_curves", len(col.Low.Strands)))
	return col, nil
}
