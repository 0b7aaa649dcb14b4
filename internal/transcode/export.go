package transcode

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"tailscale.com/atomicfile"

	"github.com/Faultbox/re-strands/internal/logger"
	"github.com/Faultbox/re-strands/pkg/geometry"
	"github.com/Faultbox/re-strands/pkg/rigging"
	"github.com/Faultbox/re-strands/pkg/strands"
)

// Result is the in-memory outcome of an export.
type Result struct {
	ID      uuid.UUID
	File    *strands.File
	Strands []byte
	// SBD is nil when not requested or when SBDErr is set.
	SBD    []byte
	SBDErr error
	// Warnings lists recoverable attribute fallbacks.
	Warnings []error
}

// Export encodes both LODs, the shared UV section and, when requested, the
// rigging file. Nothing is written to disk.
func Export(job ExportJob, opts ExportOptions) (*Result, error) {
	if job.High == nil || len(job.High.Curves()) == 0 {
		return nil, ErrEmptySelection
	}
	low := job.Low
	if low == nil {
		low = job.High
	}

	res := &Result{ID: uuid.Must(uuid.NewV7())}
	log := logger.Log.With(zap.Stringer("run", res.ID), zap.String("collection", job.Name))
	rng := opts.rng()

	high, err := strands.Encode(job.High, strands.EncodeOptions{
		AutoRadius:  opts.AutoRadiusHigh,
		Physics:     opts.Physics,
		InvertRoots: opts.InvertRoots,
		Rand:        rng,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding high LOD: %w", err)
	}
	res.addWarnings(log, "high", high.Warnings)

	lowEnc, err := strands.Encode(low, strands.EncodeOptions{
		AutoRadius:  opts.AutoRadiusLow,
		Physics:     opts.Physics,
		InvertRoots: opts.InvertRoots,
		Rand:        rng,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding low LOD: %w", err)
	}
	res.addWarnings(log, "low", lowEnc.Warnings)

	if high.CurveCount() == 0 {
		return nil, fmt.Errorf("%w: high LOD has no curve with 2 or more points", ErrEmptySelection)
	}

	uvs, warnings := strands.BuildUVs(job.High, high, strands.UVOptions{Random: opts.RandomUV, Rand: rng})
	res.addWarnings(log, "high", warnings)

	bounds := job.Bounds
	if bounds.IsZero() {
		bounds = geometry.BoundsOf(job.High.Curves())
	}
	widths := job.Widths
	switch {
	case opts.ComputeWidths:
		widths = high.WidthStats()
	case widths.IsZero():
		widths = opts.DefaultWidths
	}

	res.File = &strands.File{
		Header: strands.Header{
			Bounds: bounds.ToEngine(),
			Widths: widths,
		},
		High: high.LOD,
		Low:  lowEnc.LOD,
		UVs:  uvs,
	}
	if res.Strands, err = res.File.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("encoding strands file: %w", err)
	}

	for i, enc := range []*strands.Encoded{high, lowEnc} {
		log.Debug("encoded LOD",
			zap.String("lod", [...]string{"high", "low"}[i]),
			zap.Int("curves", enc.CurveCount()),
			zap.Int("points", len(enc.Points)),
			zap.Int("markers", len(enc.Markers)),
			zap.Int("skipped", enc.Skipped))
	}

	if opts.CreateSBD {
		res.SBD, res.SBDErr = buildSBD(job, high)
		if res.SBDErr != nil {
			log.Error("rigging file skipped", zap.Error(res.SBDErr))
		}
	}
	return res, nil
}

func buildSBD(job ExportJob, high *strands.Encoded) ([]byte, error) {
	mesh := job.Surface
	if mesh == nil {
		mesh, _ = job.High.SurfaceMesh()
	}
	records, err := rigging.Build(high.RootPositions, mesh)
	if err != nil {
		return nil, err
	}
	return rigging.Marshal(records)
}

func (r *Result) addWarnings(log *zap.Logger, lod string, warnings []error) {
	for _, w := range warnings {
		log.Warn("attribute fallback", zap.String("lod", lod), zap.Error(w))
	}
	r.Warnings = append(r.Warnings, warnings...)
}

// Report describes the files written by ExportFile.
type Report struct {
	*Result
	StrandsPath string
	SBDPath     string // empty when no rigging file was written
}

// ExportFile exports to path and, when requested, to the derived sbd path.
// Files are replaced atomically, so a failed export never leaves a partial file.
// A rigging failure is reported in Report.SBDErr and does not fail the export.
func ExportFile(path string, job ExportJob, opts ExportOptions) (*Report, error) {
	res, err := Export(job, opts)
	if err != nil {
		return nil, err
	}
	rep := &Report{Result: res, StrandsPath: path}

	if err := atomicfile.WriteFile(path, res.Strands, 0644); err != nil {
		return nil, fmt.Errorf("writing strands file: %w", err)
	}
	logger.Info("wrote strands file",
		zap.Stringer("run", res.ID),
		zap.String("path", path),
		zap.Int("bytes", len(res.Strands)))

	if res.SBD != nil {
		sbdPath := SBDPath(path)
		if err := atomicfile.WriteFile(sbdPath, res.SBD, 0644); err != nil {
			res.SBDErr = fmt.Errorf("writing sbd file: %w", err)
			logger.Error("rigging file not written", zap.Stringer("run", res.ID), zap.Error(res.SBDErr))
			return rep, nil
		}
		rep.SBDPath = sbdPath
		logger.Info("wrote rigging file",
			zap.Stringer("run", res.ID),
			zap.String("path", sbdPath),
			zap.Int("bytes", len(res.SBD)))
	}
	return rep, nil
}

// IsNoSurfaceMesh reports whether err means the rigging surface was missing.
func IsNoSurfaceMesh(err error) bool {
	return errors.Is(err, rigging.ErrNoSurfaceMesh)
}
