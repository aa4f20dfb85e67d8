package render

import (
	"math"
	"testing"
)

func sv(x, y float64) ScanVertex {
	return ScanVertex{X: x, Y: y, Attrs: Attrs{Q: 1, L: 1}}
}

// collect fills tri and returns the spans it produced.
func collect(sc Scanline, tri [3]ScanVertex) []Span {
	var spans []Span
	sc.Fill(tri, func(s Span) { spans = append(spans, s) })
	return spans
}

func TestFillRightTriangle(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}
	spans := collect(sc, [3]ScanVertex{sv(0, 0), sv(4, 0), sv(0, 4)})

	if len(spans) != 4 {
		t.Fatalf("got %d rows, want 4", len(spans))
	}
	total := 0
	for i, s := range spans {
		if s.Y != i {
			t.Errorf("row %d has Y=%d", i, s.Y)
		}
		if s.X0 != 0 || s.X1 != 3-i {
			t.Errorf("row %d = [%d, %d], want [0, %d]", i, s.X0, s.X1, 3-i)
		}
		total += s.X1 - s.X0 + 1
	}
	if total != 10 {
		t.Errorf("covered %d pixels, want 10", total)
	}
}

func TestFillVertexOrderIndependent(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}
	a, b, c := sv(1.2, 0.7), sv(9.6, 3.1), sv(4.4, 11.8)
	want := collect(sc, [3]ScanVertex{a, b, c})

	for _, tri := range [][3]ScanVertex{{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a}} {
		got := collect(sc, tri)
		if len(got) != len(want) {
			t.Fatalf("order %v: %d rows, want %d", tri, len(got), len(want))
		}
		for i := range got {
			if got[i].Y != want[i].Y || got[i].X0 != want[i].X0 || got[i].X1 != want[i].X1 {
				t.Errorf("order %v row %d = %+v, want %+v", tri, i, got[i], want[i])
			}
		}
	}
}

func TestFillMiddleVertexSides(t *testing.T) {
	sc := Scanline{Width: 32, Height: 32}

	tests := []struct {
		name string
		tri  [3]ScanVertex
	}{
		{"middle on right", [3]ScanVertex{sv(2, 0), sv(12, 6), sv(2, 12)}},
		{"middle on left", [3]ScanVertex{sv(12, 0), sv(2, 6), sv(12, 12)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spans := collect(sc, tc.tri)
			if len(spans) != 12 {
				t.Fatalf("got %d rows, want 12", len(spans))
			}
			widest := spans[0]
			for _, s := range spans {
				if s.X0 > s.X1 {
					t.Errorf("row %d inverted: %+v", s.Y, s)
				}
				if s.X1-s.X0 > widest.X1-widest.X0 {
					widest = s
				}
			}
			if widest.Y != 5 && widest.Y != 6 {
				t.Errorf("widest row at %d, want next to the middle vertex", widest.Y)
			}
		})
	}
}

func TestFillDegenerate(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}

	tests := []struct {
		name string
		tri  [3]ScanVertex
	}{
		{"zero height", [3]ScanVertex{sv(0, 3), sv(8, 3), sv(4, 3)}},
		{"single point", [3]ScanVertex{sv(5, 5), sv(5, 5), sv(5, 5)}},
		{"sub-pixel sliver", [3]ScanVertex{sv(0, 2.1), sv(8, 2.2), sv(4, 2.3)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if spans := collect(sc, tc.tri); len(spans) != 0 {
				t.Errorf("got %d spans, want 0", len(spans))
			}
		})
	}
}

func TestFillClampsToTarget(t *testing.T) {
	sc := Scanline{Width: 8, Height: 6}
	spans := collect(sc, [3]ScanVertex{sv(-20, -20), sv(40, -20), sv(-20, 40)})

	if len(spans) != 6 {
		t.Fatalf("got %d rows, want 6", len(spans))
	}
	for _, s := range spans {
		if s.Y < 0 || s.Y >= 6 || s.X0 < 0 || s.X1 > 7 {
			t.Errorf("span out of bounds: %+v", s)
		}
		if s.X0 != 0 || s.X1 != 7 {
			t.Errorf("row %d = [%d, %d], want full width", s.Y, s.X0, s.X1)
		}
	}
}

func TestFillAdjacentTrianglesDoNotOverlap(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}
	hits := make([]int, 16*16)
	stamp := func(s Span) {
		for x := s.X0; x <= s.X1; x++ {
			hits[s.Y*16+x]++
		}
	}

	// Two triangles sharing the diagonal of a 10x10 square.
	a, b, c, d := sv(1, 1), sv(11, 1), sv(11, 11), sv(1, 11)
	sc.Fill([3]ScanVertex{a, b, c}, stamp)
	sc.Fill([3]ScanVertex{a, c, d}, stamp)

	covered := 0
	for i, h := range hits {
		if h > 1 {
			t.Errorf("pixel (%d, %d) drawn %d times", i%16, i/16, h)
		}
		covered += h
	}
	if covered != 100 {
		t.Errorf("covered %d pixels, want 100", covered)
	}
}

func TestFillSpanEndsAtRightEdge(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}
	tests := []struct {
		right float64
		want  int
	}{
		{4.0, 3},
		{4.4, 3},
		{4.5, 4}, // center on the edge stays with this triangle
		{4.6, 4},
		{5.0, 4},
	}
	for _, tt := range tests {
		spans := collect(sc, [3]ScanVertex{sv(0, 0), sv(tt.right, 0), sv(tt.right, 4)})
		if len(spans) == 0 {
			t.Fatalf("right edge %v: no spans", tt.right)
		}
		if got := spans[0].X1; got != tt.want {
			t.Errorf("right edge %v: X1 = %d, want %d", tt.right, got, tt.want)
		}
	}
}

func TestSpanAttrsAt(t *testing.T) {
	sc := Scanline{Width: 16, Height: 16}
	tri := [3]ScanVertex{sv(0, 0), sv(8, 0), sv(0, 8)}
	tri[1].U = 8 // U equals X across the triangle

	for _, s := range collect(sc, tri) {
		for x := s.X0; x <= s.X1; x++ {
			if got := s.AttrsAt(x).U; math.Abs(got-(float64(x)+0.5)) > 1e-9 {
				t.Errorf("row %d pixel %d: U = %v, want %v", s.Y, x, got, float64(x)+0.5)
			}
		}
	}
}

func BenchmarkFill(b *testing.B) {
	sc := Scanline{Width: 320, Height: 200}
	tri := [3]ScanVertex{sv(10, 5), sv(300, 60), sv(80, 190)}
	n := 0
	for b.Loop() {
		sc.Fill(tri, func(s Span) { n += s.X1 - s.X0 })
	}
}
