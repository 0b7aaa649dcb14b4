package config

import "flag"

// Flags are the command-line overrides shared by the strandtool subcommands.
type Flags struct {
	config      *string
	debug       *bool
	logFile     *string
	seed        *uint64
	physics     *bool
	noPhysics   *bool
	randomUV    *bool
	invertRoots *bool
	noSBD       *bool
	autoHigh    *bool
	autoLow     *bool
	widths      *bool
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:      fs.String("config", "", "Path to config file"),
		debug:       fs.Bool("debug", false, "Enable debug logging"),
		logFile:     fs.String("log", "", "Also write logs to this file"),
		seed:        fs.Uint64("seed", 0, "Random seed for synthesized radii and UVs (0 = deterministic)"),
		physics:     fs.Bool("physics", false, "Enable hair physics"),
		noPhysics:   fs.Bool("no-physics", false, "Disable hair physics"),
		randomUV:    fs.Bool("random-uv", false, "Randomize the UV of every strand"),
		invertRoots: fs.Bool("invert-roots", false, "Treat the last point of each curve as its root"),
		noSBD:       fs.Bool("no-sbd", false, "Do not write the .sbd.7 rigging file"),
		autoHigh:    fs.Bool("auto-radius-high", false, "Synthesize radii for the HIGH LOD"),
		autoLow:     fs.Bool("auto-radius-low", false, "Synthesize radii for the LOW LOD"),
		widths:      fs.Bool("compute-widths", false, "Derive width stats from the HIGH LOD radii"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.seed != 0 {
		cfg.Export.Seed = *f.seed
	}
	if *f.physics {
		cfg.Export.Physics = true
	}
	if *f.noPhysics {
		cfg.Export.Physics = false
	}
	if *f.randomUV {
		cfg.Export.RandomUV = true
	}
	if *f.invertRoots {
		cfg.Export.InvertRoots = true
	}
	if *f.noSBD {
		cfg.Export.CreateSBD = false
	}
	if *f.autoHigh {
		cfg.Export.AutoRadiusHigh = true
	}
	if *f.autoLow {
		cfg.Export.AutoRadiusLow = true
	}
	if *f.widths {
		cfg.Export.ComputeWidths = true
	}
}
