// Package transcode runs the export and import operations: curve collections to
// strands and sbd files, and strands files back to curve collections.
package transcode

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/Faultbox/re-strands/internal/config"
	"github.com/Faultbox/re-strands/pkg/geometry"
)

// ErrEmptySelection is returned when there are no curves to export.
var ErrEmptySelection = errors.New("no curves selected for export")

// File name suffixes.
const (
	StrandsExt       = ".strands.20"
	SBDExt           = ".sbd.7"
	strandNameSuffix = "_strand" + StrandsExt
)

// ExportOptions are the per-run export switches.
type ExportOptions struct {
	AutoRadiusHigh bool
	AutoRadiusLow  bool
	Physics        bool
	RandomUV       bool
	InvertRoots    bool
	CreateSBD      bool
	ComputeWidths  bool
	// DefaultWidths is written when the job carries no width stats.
	DefaultWidths geometry.WidthStats
	// Seed drives synthesized radii and random UVs. Zero disables randomness.
	Seed uint64
}

// OptionsFromConfig maps the export config section to options.
func OptionsFromConfig(cfg config.ExportConfig) ExportOptions {
	return ExportOptions{
		AutoRadiusHigh: cfg.AutoRadiusHigh,
		AutoRadiusLow:  cfg.AutoRadiusLow,
		Physics:        cfg.Physics,
		RandomUV:       cfg.RandomUV,
		InvertRoots:    cfg.InvertRoots,
		CreateSBD:      cfg.CreateSBD,
		ComputeWidths:  cfg.ComputeWidths,
		DefaultWidths: geometry.WidthStats{
			Average: cfg.Widths.Average,
			Max:     cfg.Widths.Max,
			Min:     cfg.Widths.Min,
		},
		Seed: cfg.Seed,
	}
}

// rng returns the seeded source, or nil when randomness is disabled.
func (o ExportOptions) rng() *rand.Rand {
	if o.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(o.Seed, o.Seed^0x9E3779B97F4A7C15))
}

// ExportJob is the geometry of one export.
type ExportJob struct {
	Name string
	High geometry.Adapter
	// Low defaults to High when nil.
	Low geometry.Adapter
	// Bounds in the source axis convention. Computed from High when zero.
	Bounds geometry.BoundingBox
	Widths geometry.WidthStats
	// Surface overrides the rigging mesh supplied by High.
	Surface *geometry.Mesh
}

// JobFromCollection builds an export job from a collection.
func JobFromCollection(c *geometry.Collection) ExportJob {
	job := ExportJob{
		Name:   c.Name,
		Bounds: c.Bounds,
		Widths: c.Widths,
	}
	if c.High != nil {
		job.High = c.High
	}
	if c.Low != nil {
		job.Low = c.Low
	}
	return job
}

// SBDPath derives the rigging file path from a strands file path.
// "<name>_strand.strands.20" becomes "<name>.sbd.7".
func SBDPath(strandsPath string) string {
	switch {
	case strings.HasSuffix(strandsPath, strandNameSuffix):
		return strings.TrimSuffix(strandsPath, strandNameSuffix) + SBDExt
	case strings.HasSuffix(strandsPath, StrandsExt):
		return strings.TrimSuffix(strandsPath, StrandsExt) + SBDExt
	default:
		return strandsPath + SBDExt
	}
}

// CollectionName derives a collection name from a strands file path.
func CollectionName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{strandNameSuffix, StrandsExt} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
