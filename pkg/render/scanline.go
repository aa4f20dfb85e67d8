package render

import "math"

// Attrs are the values interpolated across a triangle. For perspective
// correct drawing U, V and L are premultiplied by Q (1/w); affine callers
// leave Q at 1.
type Attrs struct {
	Z float64 // Depth, smaller is nearer
	Q float64 // 1/w
	U float64 // Texture coordinate
	V float64 // Texture coordinate
	L float64 // Light intensity
}

func (a Attrs) add(b Attrs) Attrs {
	return Attrs{a.Z + b.Z, a.Q + b.Q, a.U + b.U, a.V + b.V, a.L + b.L}
}

func (a Attrs) sub(b Attrs) Attrs {
	return Attrs{a.Z - b.Z, a.Q - b.Q, a.U - b.U, a.V - b.V, a.L - b.L}
}

func (a Attrs) scale(s float64) Attrs {
	return Attrs{a.Z * s, a.Q * s, a.U * s, a.V * s, a.L * s}
}

// ScanVertex is a triangle corner in pixel (or texel) space.
type ScanVertex struct {
	X, Y float64
	Attrs
}

func (v ScanVertex) add(w ScanVertex) ScanVertex {
	return ScanVertex{X: v.X + w.X, Y: v.Y + w.Y, Attrs: v.Attrs.add(w.Attrs)}
}

func (v ScanVertex) sub(w ScanVertex) ScanVertex {
	return ScanVertex{X: v.X - w.X, Y: v.Y - w.Y, Attrs: v.Attrs.sub(w.Attrs)}
}

func (v ScanVertex) scale(s float64) ScanVertex {
	return ScanVertex{X: v.X * s, Y: v.Y * s, Attrs: v.Attrs.scale(s)}
}

// Span is one covered row of a triangle. X0 and X1 are inclusive and already
// clamped to the target. XLeft/XRight and Left/Right are the unclamped edge
// positions and attributes at the row center, for interpolating along the
// row.
type Span struct {
	Y      int
	X0, X1 int

	XLeft, XRight float64
	Left, Right   Attrs
}

// AttrsAt returns the attributes at the center of pixel x.
func (s Span) AttrsAt(x int) Attrs {
	w := s.XRight - s.XLeft
	if w <= 0 {
		return s.Left
	}
	t := (float64(x) + 0.5 - s.XLeft) / w
	return s.Left.add(s.Right.sub(s.Left).scale(t))
}

// SpanFunc receives each covered row, top to bottom.
type SpanFunc func(Span)

// Scanline walks triangles row by row inside a Width x Height target.
type Scanline struct {
	Width, Height int
}

// Fill rasterizes tri, calling fn once per non-empty row.
//
// A pixel is covered when its center lies between the left and right edges
// of the row through its center, so a triangle from y=0 to y=4 yields rows
// 0 through 3. Zero-height triangles produce nothing.
//
// X0 is the first pixel whose center lies right of the left edge and X1 is
// the last pixel whose center lies left of the right edge, so a right edge
// at x=4 ends the span at pixel 3. A center exactly on an edge belongs to
// the triangle on its left, so a shared edge is drawn once.
func (s Scanline) Fill(tri [3]ScanVertex, fn SpanFunc) {
	upper, middle, lower := sortByY(tri)
	if lower.Y == upper.Y {
		return
	}

	// Point on the long edge at the middle vertex's height.
	t := (middle.Y - lower.Y) / (upper.Y - lower.Y)
	split := lower.add(upper.sub(lower).scale(t))
	split.Y = middle.Y

	left, right := middle, split
	if split.X < middle.X {
		left, right = split, middle
	}

	s.fillPart(upper, upper, left, right, fn)
	s.fillPart(left, right, lower, lower, fn)
}

// fillPart fills the y-monotone trapezoid bounded by the left edge la->lb
// and the right edge ra->rb. la/ra share one y and lb/rb share another.
func (s Scanline) fillPart(la, ra, lb, rb ScanVertex, fn SpanFunc) {
	ya, yb := la.Y, lb.Y
	dy := yb - ya
	if dy <= 0 {
		return
	}

	rowStart := int(math.Floor(ya + 0.5))
	rowEnd := int(math.Floor(yb + 0.5))
	rowStart = max(rowStart, 0)
	rowEnd = min(rowEnd, s.Height)
	if rowStart >= rowEnd {
		return
	}

	lStep := lb.sub(la).scale(1 / dy)
	rStep := rb.sub(ra).scale(1 / dy)

	// Edges at the center of the first row.
	offset := float64(rowStart) + 0.5 - ya
	l := la.add(lStep.scale(offset))
	r := ra.add(rStep.scale(offset))

	for y := rowStart; y < rowEnd; y++ {
		x0 := max(int(math.Floor(l.X+0.5)), 0)
		x1 := min(int(math.Floor(r.X+0.5))-1, s.Width-1)
		if x0 <= x1 {
			fn(Span{
				Y:      y,
				X0:     x0,
				X1:     x1,
				XLeft:  l.X,
				XRight: r.X,
				Left:   l.Attrs,
				Right:  r.Attrs,
			})
		}
		l = l.add(lStep)
		r = r.add(rStep)
	}
}

// sortByY orders the corners top to bottom.
func sortByY(tri [3]ScanVertex) (upper, middle, lower ScanVertex) {
	a, b, c := tri[0], tri[1], tri[2]
	if b.Y < a.Y {
		a, b = b, a
	}
	if c.Y < b.Y {
		b, c = c, b
	}
	if b.Y < a.Y {
		a, b = b, a
	}
	return a, b, c
}
