// Package config handles strandtool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds the defaults for strand export.
type ExportConfig struct {
	AutoRadiusHigh bool `yaml:"auto_radius_high"`
	AutoRadiusLow  bool `yaml:"auto_radius_low"`
	Physics        bool `yaml:"physics"`
	RandomUV       bool `yaml:"random_uv"`
	InvertRoots    bool `yaml:"invert_roots"`
	CreateSBD      bool `yaml:"create_sbd"`
	// Seed drives synthesized radii and UVs. Zero disables randomness.
	Seed          uint64      `yaml:"seed"`
	ComputeWidths bool        `yaml:"compute_widths"`
	Widths        WidthConfig `yaml:"widths"`
}

// WidthConfig holds the width statistics written when the source has none.
type WidthConfig struct {
	Average float32 `yaml:"average"`
	Max     float32 `yaml:"max"`
	Min     float32 `yaml:"min"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the producer's default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Physics:   true,
			CreateSBD: true,
			Widths: WidthConfig{
				Average: 0.000005102024806546,
				Max:     0.000280199252301827,
				Min:     0.000225486015551724,
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
