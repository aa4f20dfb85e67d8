package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/ember/pkg/render"
	"github.com/taigrr/ember/pkg/surfcache"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := LoadFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Graphics.FPS <= 0 {
		return fmt.Errorf("graphics.fps must be positive, got %d", c.Graphics.FPS)
	}
	if c.Render.Near <= 0 || c.Render.Far <= c.Render.Near {
		return fmt.Errorf("render.near/far invalid: %v/%v", c.Render.Near, c.Render.Far)
	}
	if c.Render.AlphaRef < 0 || c.Render.AlphaRef > 255 {
		return fmt.Errorf("render.alpha_ref must be 0-255, got %d", c.Render.AlphaRef)
	}
	switch c.Render.Filter {
	case "nearest", "bilinear":
	default:
		return fmt.Errorf("render.filter must be nearest or bilinear, got %q", c.Render.Filter)
	}
	for _, v := range c.Graphics.Background {
		if v < 0 || v > 255 {
			return fmt.Errorf("graphics.background components must be 0-255, got %v", c.Graphics.Background)
		}
	}
	if c.Cache.SizeKB < 0 {
		return fmt.Errorf("cache.size_kb must not be negative, got %d", c.Cache.SizeKB)
	}
	// Zero sizes the arena from the viewport. Anything else must hold the
	// largest surface a world face can request.
	minBytes := surfcache.SurfaceSize(render.DefaultMaxSurfaceSize, render.DefaultMaxSurfaceSize)
	if c.Cache.SizeKB > 0 && c.Cache.SizeKB*1024 < minBytes {
		return fmt.Errorf("cache.size_kb must be 0 or at least %d, got %d",
			(minBytes+1023)/1024, c.Cache.SizeKB)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./ember.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "ember")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ember")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "ember")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "ember")
	}
}

// LoadFile merges a YAML file into cfg. Keys missing from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
