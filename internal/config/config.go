// Package config handles viewer configuration loading and management.
package config

// Config holds all ember settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Render   RenderConfig   `yaml:"render"`
	Cache    CacheConfig    `yaml:"cache"`
	Seam     SeamConfig     `yaml:"seam"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds presentation settings.
type GraphicsConfig struct {
	FPS        int    `yaml:"fps"`
	Background [3]int `yaml:"background"`
	ShowHUD    bool   `yaml:"show_hud"`
}

// RenderConfig holds rasterizer settings.
type RenderConfig struct {
	Texture         string  `yaml:"texture"`          // Optional texture override
	Filter          string  `yaml:"filter"`           // "nearest" or "bilinear"
	FOVDegrees      float64 `yaml:"fov_degrees"`      // Vertical field of view
	Near            float64 `yaml:"near"`             // Near clip distance
	Far             float64 `yaml:"far"`              // Far distance for depth range
	AlphaRef        int     `yaml:"alpha_ref"`        // Alpha-test threshold, 0-255
	BackfaceCulling bool    `yaml:"backface_culling"` // Skip back-facing triangles
	Room            bool    `yaml:"room"`             // Draw the surface-cached room around the model
}

// CacheConfig holds surface cache sizing.
type CacheConfig struct {
	// SizeKB is the arena size. Zero sizes the arena from the viewport.
	SizeKB int `yaml:"size_kb"`
}

// SeamConfig holds texture seam correction settings.
type SeamConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			FPS:        60,
			Background: [3]int{30, 30, 40},
			ShowHUD:    false,
		},
		Render: RenderConfig{
			Filter:          "nearest",
			FOVDegrees:      60,
			Near:            0.1,
			Far:             100,
			AlphaRef:        128,
			BackfaceCulling: true,
			Room:            true,
		},
		Cache: CacheConfig{
			SizeKB: 0,
		},
		Seam: SeamConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
