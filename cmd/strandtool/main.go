// strandtool converts hair curves to and from the packed strands format.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"tailscale.com/atomicfile"

	"github.com/Faultbox/re-strands/internal/config"
	"github.com/Faultbox/re-strands/internal/logger"
	"github.com/Faultbox/re-strands/internal/transcode"
	"github.com/Faultbox/re-strands/pkg/geometry"
	"github.com/Faultbox/re-strands/pkg/rigging"
	"github.com/Faultbox/re-strands/pkg/strands"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "export":
		cmdExport(args)
	case "import":
		cmdImport(args)
	case "rig":
		cmdRig(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`strandtool - hair strands (.strands.20) converter

Usage:
  strandtool <command> [options]

Commands:
  info <file.strands.20>                          Show header and section layout
  export -o <out.strands.20> <high> [low]         Export curves (.obj or .strands.yaml)
  import <file.strands.20> [out.strands.yaml]     Decode strands to a curve document
  rig <file.strands.20> <mesh.obj> [out.sbd.7]    Build the rigging file for a strands file
  config [out.yaml]                               Write the effective configuration

Export options:
  -mesh <surface.obj>   Rigging surface (defaults to faces in the high input)
  -auto-radius-high, -auto-radius-low, -physics, -no-physics, -random-uv,
  -invert-roots, -no-sbd, -compute-widths, -seed N

Common options:
  -config <path>  -debug  -log <file>

Examples:
  strandtool info ch02_hair_strand.strands.20
  strandtool export -o ch02_hair_strand.strands.20 -mesh scalp.obj hair_high.obj hair_low.obj
  strandtool import ch02_hair_strand.strands.20
  strandtool rig ch02_hair_strand.strands.20 scalp.obj`)
}

// setup parses flags, loads config and starts logging.
func setup(fs *flag.FlagSet, args []string) *config.Config {
	flags := config.BindFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("Error: %v\n", err)
	}
	return cfg
}

func fatalf(format string, args ...any) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fatalf("Usage: strandtool info <file.strands.20>\n")
	}

	f, err := strands.ParseFile(fs.Arg(0))
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	h := &f.Header
	lay := h.Layout()

	fmt.Printf("File:    %s\n", fs.Arg(0))
	fmt.Printf("Size:    %d bytes\n", lay.End())
	fmt.Printf("Roots:   %d\n", h.RootCount)
	fmt.Printf("Bounds:  min %v max %v\n", h.Bounds.Min, h.Bounds.Max)
	fmt.Printf("Widths:  avg %g max %g min %g\n", h.Widths.Average, h.Widths.Max, h.Widths.Min)
	fmt.Println()

	for _, lod := range []struct {
		name  string
		sizes strands.SectionSizes
		lay   strands.LODLayout
		data  *strands.LOD
	}{
		{"HIGH", h.High, lay.High, &f.High},
		{"LOW", h.Low, lay.Low, &f.Low},
	} {
		decoded, warnings, err := lod.data.Decode()
		if err != nil {
			fatalf("Error: %s LOD: %v\n", lod.name, err)
		}
		fmt.Printf("%s LOD: %d curves, %d points, %d markers\n", lod.name, len(decoded), len(lod.data.Points), lod.sizes.MarkerCount)
		for _, s := range []struct {
			name string
			sec  strands.Section
		}{
			{"positions", lod.lay.Positions},
			{"topology", lod.lay.Topology},
			{"roots", lod.lay.Roots},
			{"point ids", lod.lay.PointIDs},
			{"guides", lod.lay.Guides},
		} {
			fmt.Printf("  %-10s offset %-8d size %d\n", s.name, s.sec.Offset, s.sec.Size)
		}
		for _, w := range warnings {
			fmt.Printf("  warning: %v\n", w)
		}
	}
	fmt.Printf("UV section: offset %d size %d (%d records)\n", lay.UV.Offset, lay.UV.Size, len(f.UVs))
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Output .strands.20 path")
	meshPath := fs.String("mesh", "", "Rigging surface mesh (.obj)")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fatalf("Usage: strandtool export -o <out.strands.20> <high> [low]\n")
	}

	job, err := loadJob(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	if *meshPath != "" {
		obj, err := geometry.LoadOBJ(*meshPath)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		job.Surface = obj.Mesh
	}

	out := *output
	if out == "" {
		out = job.Name + transcode.StrandsExt
	}

	rep, err := transcode.ExportFile(out, job, transcode.OptionsFromConfig(cfg.Export))
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	fmt.Printf("Exported: %s (%d bytes, %d curves)\n", rep.StrandsPath, len(rep.Strands), rep.File.High.CurveCount())
	if rep.SBDPath != "" {
		fmt.Printf("Rigging:  %s (%d bytes)\n", rep.SBDPath, len(rep.SBD))
	} else if rep.SBDErr != nil {
		fmt.Fprintf(os.Stderr, "Rigging file skipped: %v\n", rep.SBDErr)
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "%d attribute fallbacks, see log\n", len(rep.Warnings))
	}
}

// loadJob reads the export inputs. A curve document holds both LODs; OBJ
// inputs hold one LOD each, with the high file also supplying the surface.
func loadJob(highPath, lowPath string) (transcode.ExportJob, error) {
	if isDocument(highPath) {
		col, err := geometry.LoadDocument(highPath)
		if err != nil {
			return transcode.ExportJob{}, err
		}
		if col.Name == "" {
			col.Name = baseName(highPath)
		}
		return transcode.JobFromCollection(col), nil
	}

	name := baseName(highPath)
	high, err := geometry.LoadOBJ(highPath)
	if err != nil {
		return transcode.ExportJob{}, err
	}
	job := transcode.ExportJob{Name: name, High: high.CurveSet(name + geometry.HighSuffix)}
	if lowPath != "" {
		low, err := geometry.LoadOBJ(lowPath)
		if err != nil {
			return transcode.ExportJob{}, err
		}
		job.Low = low.CurveSet(name + geometry.LowSuffix)
	}
	logger.Debug("loaded export inputs", zap.String("high", highPath), zap.String("low", lowPath))
	return job, nil
}

func isDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func baseName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".strands.yaml", ".strands.yml", filepath.Ext(base)} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fatalf("Usage: strandtool import <file.strands.20> [out.strands.yaml]\n")
	}

	col, err := transcode.ImportFile(fs.Arg(0))
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	data, err := geometry.MarshalDocument(col)
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	out := fs.Arg(1)
	if out == "" {
		out = filepath.Join(filepath.Dir(fs.Arg(0)), col.Name+".strands.yaml")
	}
	if err := atomicfile.WriteFile(out, data, 0644); err != nil {
		fatalf("Error writing %s: %v\n", out, err)
	}
	fmt.Printf("Imported: %s -> %s (%d high, %d low curves)\n", fs.Arg(0), out, len(col.High.Strands), len(col.Low.Strands))
}

func cmdRig(args []string) {
	fs := flag.NewFlagSet("rig", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fatalf("Usage: strandtool rig <file.strands.20> <mesh.obj> [out.sbd.7]\n")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	obj, err := geometry.LoadOBJ(fs.Arg(1))
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	sbd, err := transcode.Rig(data, obj.Mesh)
	if err != nil {
		fatalf("Error: %v\n", err)
	}

	out := fs.Arg(2)
	if out == "" {
		out = transcode.SBDPath(fs.Arg(0))
	}
	if err := atomicfile.WriteFile(out, sbd, 0644); err != nil {
		fatalf("Error writing %s: %v\n", out, err)
	}
	fmt.Printf("Rigging: %s (%d roots)\n", out, (len(sbd)-rigging.HeaderSize)/rigging.RecordSize)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	out := fs.Arg(0)
	if out == "" {
		out = filepath.Join(config.ConfigDir(), "config.yaml")
	}
	if err := cfg.SaveTo(out); err != nil {
		fatalf("Error writing %s: %v\n", out, err)
	}
	fmt.Printf("Config: %s\n", out)
}
