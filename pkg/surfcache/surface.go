package surfcache

import (
	"image/color"
	"math"
)

// Surface is a view of one cached texel block. Texels aliases the arena:
// writes go straight into the cache and the slice is only meaningful while
// the handle it came from is valid.
type Surface struct {
	Width, Height int
	Texels        []byte // RGBA, row-major, Width*BytesPerTexel per row
}

// At returns the texel at (x, y). Coordinates are not bounds checked beyond
// the slice itself.
func (s Surface) At(x, y int) color.RGBA {
	o := (y*s.Width + x) * BytesPerTexel
	p := s.Texels[o : o+4 : o+4]
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes the texel at (x, y).
func (s Surface) Set(x, y int, c color.RGBA) {
	o := (y*s.Width + x) * BytesPerTexel
	p := s.Texels[o : o+4 : o+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Fill sets every texel to c.
func (s Surface) Fill(c color.RGBA) {
	if len(s.Texels) == 0 {
		return
	}
	s.Texels[0], s.Texels[1], s.Texels[2], s.Texels[3] = c.R, c.G, c.B, c.A
	for i := BytesPerTexel; i < len(s.Texels); i *= 2 {
		copy(s.Texels[i:], s.Texels[:i])
	}
}

// Sample returns the nearest texel to (u, v), clamped to the surface. Unlike
// mesh textures, v grows downward: v=0 is row 0.
func (s Surface) Sample(u, v float64) color.RGBA {
	x := clampIndex(u*float64(s.Width), s.Width)
	y := clampIndex(v*float64(s.Height), s.Height)
	return s.At(x, y)
}

func clampIndex(f float64, n int) int {
	i := int(math.Floor(f))
	return max(0, min(i, n-1))
}
