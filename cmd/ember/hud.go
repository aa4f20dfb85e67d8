package main

import (
	"fmt"
	"time"

	"github.com/taigrr/ember/pkg/render"
	"github.com/taigrr/ember/pkg/surfcache"
)

// HUD tracks frame timing and formats the overlay text.
type HUD struct {
	filename  string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD
func NewHUD(filename string, polyCount int) *HUD {
	return &HUD{
		filename:  filename,
		polyCount: polyCount,
		fpsTime:   time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Lines returns the overlay for the current frame.
func (h *HUD) Lines(v *ViewState, clip render.ClipStats, world render.WorldStats, cache surfcache.Stats) []render.HUDLine {
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	return []render.HUDLine{
		{Row: 0, Fg: render.ColorGreen, Text: fmt.Sprintf(" %.0f FPS  %s  %d polys ", h.fps, h.filename, h.polyCount)},
		{Row: 1, Fg: render.ColorCyan, Text: fmt.Sprintf(" clip: %d in, %d out, %d back, %d tris ",
			clip.Polygons, clip.ClippedAway, clip.BackFacing, clip.Triangles)},
		{Row: -2, Fg: render.ColorYellow, Text: fmt.Sprintf(" cache: epoch %d, %d/%d KiB, %d wraps, built %d, reused %d ",
			cache.Epoch, cache.BytesInUse/1024, cache.Capacity/1024, cache.Wraps, world.Built, world.Reused)},
		{Row: -1, Fg: render.ColorWhite, Text: fmt.Sprintf(" %s Texture  %s Wireframe  %s Room  filter: %s ",
			check(v.TextureEnabled), check(v.Wireframe), check(v.Room), v.Filter)},
	}
}
