package render

import (
	"testing"
)

// solid is a Sampler returning one color everywhere.
type solid Color

func (s solid) Sample(u, v float64) Color { return Color(s) }

func quadFan(x0, y0, x1, y1 float64, z float64) []ScanVertex {
	corner := func(x, y float64) ScanVertex {
		return ScanVertex{X: x, Y: y, Attrs: Attrs{Z: z, Q: 1, L: 1}}
	}
	return []ScanVertex{corner(x0, y0), corner(x1, y0), corner(x1, y1), corner(x0, y1)}
}

func TestColorTargetWritesLitSamples(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	target := NewColorTarget(fb, nil)
	target.Source = solid(RGB(200, 100, 50))

	poly := quadFan(0, 0, 4, 4, 0)
	for i := range poly {
		poly[i].L = 0.5
	}
	target.DrawFan(poly)

	if target.Pixels != 16 {
		t.Errorf("wrote %d pixels, want 16", target.Pixels)
	}
	if got := fb.GetPixel(2, 2); got != RGB(100, 50, 25) {
		t.Errorf("pixel = %v, want lit (100, 50, 25)", got)
	}
	if got := fb.GetPixel(5, 5); got != (Color{}) {
		t.Errorf("pixel outside quad = %v", got)
	}
}

func TestColorTargetDepthTest(t *testing.T) {
	fb := NewFramebuffer(8, 8)
	depth := make([]float64, 64)
	for i := range depth {
		depth[i] = 1
	}

	near := NewColorTarget(fb, depth)
	near.Flat = ColorRed
	near.DrawFan(quadFan(0, 0, 8, 8, 0.2))

	far := NewColorTarget(fb, depth)
	far.Flat = ColorGreen
	far.DrawFan(quadFan(0, 0, 8, 8, 0.6))

	if far.Pixels != 0 {
		t.Errorf("far quad wrote %d pixels through the depth test", far.Pixels)
	}
	if got := fb.GetPixel(3, 3); got != ColorRed {
		t.Errorf("pixel = %v, want red", got)
	}
	if depth[3*8+3] != 0.2 {
		t.Errorf("depth = %v, want 0.2", depth[3*8+3])
	}

	// Equal depth loses as well.
	same := NewColorTarget(fb, depth)
	same.Flat = ColorCyan
	same.DrawFan(quadFan(0, 0, 8, 8, 0.2))
	if same.Pixels != 0 {
		t.Errorf("equal-depth quad wrote %d pixels", same.Pixels)
	}
}

func TestColorTargetAlphaTest(t *testing.T) {
	tests := []struct {
		name      string
		alpha     uint8
		alphaTest bool
		want      int
	}{
		{"opaque passes", 255, true, 16},
		{"at threshold passes", DefaultAlphaRef, true, 16},
		{"below threshold skipped", DefaultAlphaRef - 1, true, 0},
		{"test disabled", 0, false, 16},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(8, 8)
			target := NewColorTarget(fb, nil)
			target.Source = solid(RGBA(10, 20, 30, tc.alpha))
			target.AlphaTest = tc.alphaTest
			target.DrawFan(quadFan(0, 0, 4, 4, 0))
			if target.Pixels != tc.want {
				t.Errorf("wrote %d pixels, want %d", target.Pixels, tc.want)
			}
		})
	}
}

func TestColorTargetPerspectiveDivide(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	target := NewColorTarget(fb, nil)
	target.Perspective = true
	target.Flat = RGB(100, 100, 100)

	// Attributes are stored premultiplied by Q, so L=1 at Q=2 is half light.
	poly := quadFan(0, 0, 4, 4, 0)
	for i := range poly {
		poly[i].Q = 2
		poly[i].L = 1
	}
	target.DrawFan(poly)

	if got := fb.GetPixel(1, 1); got != RGB(50, 50, 50) {
		t.Errorf("pixel = %v, want (50, 50, 50)", got)
	}
}

func TestCoverageTarget(t *testing.T) {
	coverage := make([]bool, 8*8)
	target := NewCoverageTarget(8, 8, coverage)
	target.DrawTriangle([3]ScanVertex{sv(0, 0), sv(4, 0), sv(0, 4)})

	count := 0
	for _, c := range coverage {
		if c {
			count++
		}
	}
	if count != 10 || target.Pixels != 10 {
		t.Errorf("covered %d (Pixels=%d), want 10", count, target.Pixels)
	}
	if !coverage[0] || coverage[4*8] {
		t.Error("row 0 should be covered and row 4 should not")
	}
}

func TestCoverageTargetMask(t *testing.T) {
	coverage := make([]bool, 8*8)
	mask := make([]uint8, 8*8)
	for i := range mask {
		if i%2 == 0 {
			mask[i] = 255
		}
	}

	target := NewCoverageTarget(8, 8, coverage)
	target.Mask = mask
	target.AlphaTest = true
	target.DrawFan(quadFan(0, 0, 8, 8, 0))

	for i, c := range coverage {
		if want := i%2 == 0; c != want {
			t.Fatalf("texel %d covered = %v, want %v", i, c, want)
		}
	}

	// Without AlphaTest the mask is ignored.
	clear(coverage)
	target = NewCoverageTarget(8, 8, coverage)
	target.Mask = mask
	target.DrawFan(quadFan(0, 0, 8, 8, 0))
	if target.Pixels != 64 {
		t.Errorf("covered %d texels without alpha test, want 64", target.Pixels)
	}
}
