package render

// SpanMode selects what a SpanTarget does with covered pixels.
type SpanMode int

const (
	// SpanColor writes sampled, lit color into Color.
	SpanColor SpanMode = iota
	// SpanCoverage sets flags in Coverage.
	SpanCoverage
)

// DefaultAlphaRef is the alpha-test threshold used when none is configured.
const DefaultAlphaRef = 128

// Sampler returns the color at texture coordinates (u, v).
type Sampler interface {
	Sample(u, v float64) Color
}

// SpanTarget is the destination of triangle fills. The same Scanline core
// serves both modes; only the per-row writer differs.
type SpanTarget struct {
	Mode          SpanMode
	Width, Height int

	// SpanColor
	Color       []Color   // Row-major destination pixels
	Depth       []float64 // Optional depth buffer, tested and written when set
	Source      Sampler   // Texture source; Flat is used when nil
	Flat        Color
	Perspective bool // U, V and L are premultiplied by Q

	// SpanCoverage
	Coverage []bool
	Mask     []uint8 // Optional per-texel alpha consulted by the alpha test

	// AlphaTest skips pixels whose source alpha is below AlphaRef. In color
	// mode the source is the sampled texel, in coverage mode it is Mask.
	AlphaTest bool
	AlphaRef  uint8

	// Pixels counts pixels written since the target was created.
	Pixels int
}

// NewColorTarget returns a color-mode target drawing into fb with depth
// buffer depth (which may be nil).
func NewColorTarget(fb *Framebuffer, depth []float64) *SpanTarget {
	return &SpanTarget{
		Mode:     SpanColor,
		Width:    fb.Width,
		Height:   fb.Height,
		Color:    fb.Pixels,
		Depth:    depth,
		Flat:     ColorWhite,
		AlphaRef: DefaultAlphaRef,
	}
}

// NewCoverageTarget returns a coverage-mode target over a width x height
// field.
func NewCoverageTarget(width, height int, coverage []bool) *SpanTarget {
	return &SpanTarget{
		Mode:     SpanCoverage,
		Width:    width,
		Height:   height,
		Coverage: coverage,
		AlphaRef: DefaultAlphaRef,
	}
}

// DrawTriangle fills tri into the target.
func (t *SpanTarget) DrawTriangle(tri [3]ScanVertex) {
	sc := Scanline{Width: t.Width, Height: t.Height}
	switch t.Mode {
	case SpanCoverage:
		sc.Fill(tri, t.coverageSpan)
	default:
		sc.Fill(tri, t.colorSpan)
	}
}

// DrawFan fills the convex polygon poly as a triangle fan around poly[0].
func (t *SpanTarget) DrawFan(poly []ScanVertex) {
	for i := 1; i+1 < len(poly); i++ {
		t.DrawTriangle([3]ScanVertex{poly[0], poly[i], poly[i+1]})
	}
}

func (t *SpanTarget) coverageSpan(s Span) {
	row := s.Y * t.Width
	for x := s.X0; x <= s.X1; x++ {
		idx := row + x
		if t.AlphaTest && t.Mask != nil && t.Mask[idx] < t.AlphaRef {
			continue
		}
		t.Coverage[idx] = true
		t.Pixels++
	}
}

func (t *SpanTarget) colorSpan(s Span) {
	row := s.Y * t.Width

	var step Attrs
	if w := s.XRight - s.XLeft; w > 0 {
		step = s.Right.sub(s.Left).scale(1 / w)
	}
	a := s.AttrsAt(s.X0)

	for x := s.X0; x <= s.X1; x, a = x+1, a.add(step) {
		idx := row + x
		if t.Depth != nil && a.Z >= t.Depth[idx] {
			continue
		}

		u, v, light := a.U, a.V, a.L
		if t.Perspective && a.Q != 0 {
			inv := 1 / a.Q
			u, v, light = u*inv, v*inv, light*inv
		}

		c := t.Flat
		if t.Source != nil {
			c = t.Source.Sample(u, v)
		}
		if t.AlphaTest && c.A < t.AlphaRef {
			continue
		}

		t.Color[idx] = MultiplyColor(c, light)
		if t.Depth != nil {
			t.Depth[idx] = a.Z
		}
		t.Pixels++
	}
}
