package config

import (
	"flag"
	"fmt"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagTexture = flag.String("texture", "", "Path to texture image (PNG/JPG/BMP/TIFF/WebP)")
	flagFPS     = flag.Int("fps", 0, "Target FPS")
	flagBG      = flag.String("bg", "", "Background color (R,G,B)")
	flagCacheKB = flag.Int("cache-kb", 0, "Surface cache size in KiB (0 = size from viewport)")
	flagNoSeam  = flag.Bool("no-seam", false, "Disable texture seam correction")
	flagNoRoom  = flag.Bool("no-room", false, "Do not draw the surface-cached room")
	flagFilter  = flag.String("filter", "", "Texture filter: nearest or bilinear")
	flagLogFile = flag.String("log", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Graphics.ShowHUD = true
	}
	if *flagTexture != "" {
		cfg.Render.Texture = *flagTexture
	}
	if *flagFPS > 0 {
		cfg.Graphics.FPS = *flagFPS
	}
	if *flagBG != "" {
		var r, g, b int
		if n, _ := fmt.Sscanf(*flagBG, "%d,%d,%d", &r, &g, &b); n == 3 {
			cfg.Graphics.Background = [3]int{r, g, b}
		}
	}
	if *flagCacheKB > 0 {
		cfg.Cache.SizeKB = *flagCacheKB
	}
	if *flagNoSeam {
		cfg.Seam.Enabled = false
	}
	if *flagNoRoom {
		cfg.Render.Room = false
	}
	if *flagFilter != "" {
		cfg.Render.Filter = *flagFilter
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
