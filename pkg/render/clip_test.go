package render

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/ember/pkg/math3d"
)

func cv(x, y, z, u, v float64) ClipVertex {
	return ClipVertex{Position: math3d.V3(x, y, z), UV: math3d.V2(u, v), Light: 1}
}

func testFrustumPlanes() []Plane {
	f := NewFrustumFromMatrix(math3d.Perspective(math.Pi/2, 1, 1, 100))
	return f.Planes[:]
}

func approxVec2(a, b math3d.Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func approxVec3(a, b math3d.Vec3) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 && math.Abs(a.Z-b.Z) < 1e-9
}

func TestClipPolygonInsideIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		poly []ClipVertex
	}{
		{"triangle", []ClipVertex{cv(-1, -1, -5, 0, 0), cv(1, -1, -5, 1, 0), cv(0, 1, -5, 0.5, 1)}},
		{"quad", []ClipVertex{cv(-1, -1, -4, 0, 0), cv(1, -1, -4, 1, 0), cv(1, 1, -6, 1, 1), cv(-1, 1, -6, 0, 1)}},
	}
	planes := testFrustumPlanes()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClipPolygon(nil, planes, tc.poly)
			if len(got) != len(tc.poly) {
				t.Fatalf("got %d vertices, want %d", len(got), len(tc.poly))
			}
			for i := range got {
				if got[i] != tc.poly[i] {
					t.Errorf("vertex %d = %+v, want %+v", i, got[i], tc.poly[i])
				}
			}
		})
	}
}

func TestClipPolygonOnPlaneIsInside(t *testing.T) {
	tri := []ClipVertex{cv(0, 0, 0, 0, 0), cv(1, 0, 0, 1, 0), cv(0, 1, 0, 0, 1)}
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	got := ClipPolygon(nil, []Plane{plane}, tri)
	if len(got) != 3 {
		t.Fatalf("coplanar triangle clipped to %d vertices", len(got))
	}
	for i := range got {
		if got[i] != tri[i] {
			t.Errorf("vertex %d = %+v, want %+v", i, got[i], tri[i])
		}
	}
}

func TestClipPolygonFullyOutside(t *testing.T) {
	planes := testFrustumPlanes()

	tests := []struct {
		name string
		poly []ClipVertex
	}{
		{"behind near plane", []ClipVertex{cv(-1, -1, 1, 0, 0), cv(1, -1, 1, 1, 0), cv(0, 1, 2, 0, 1)}},
		{"between eye and near", []ClipVertex{cv(-0.1, 0, -0.5, 0, 0), cv(0.1, 0, -0.5, 1, 0), cv(0, 0.1, -0.5, 0, 1)}},
		{"left of view", []ClipVertex{cv(-50, 0, -5, 0, 0), cv(-40, 0, -5, 1, 0), cv(-45, 1, -5, 0, 1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClipPolygon(nil, planes, tc.poly); len(got) != 0 {
				t.Errorf("got %d vertices, want 0", len(got))
			}
		})
	}
}

func TestClipPolygonBisectsUnitSquare(t *testing.T) {
	square := []ClipVertex{cv(0, 0, 0, 0, 0), cv(1, 0, 0, 1, 0), cv(1, 1, 0, 1, 1), cv(0, 1, 0, 0, 1)}
	// Keep x <= 0.5.
	plane := Plane{Normal: math3d.V3(-1, 0, 0), D: 0.5}

	got := ClipPolygon(nil, []Plane{plane}, square)
	if len(got) != 4 {
		t.Fatalf("got %d vertices, want 4", len(got))
	}

	want := []struct {
		pos math3d.Vec3
		uv  math3d.Vec2
	}{
		{math3d.V3(0, 0, 0), math3d.V2(0, 0)},
		{math3d.V3(0.5, 0, 0), math3d.V2(0.5, 0)},
		{math3d.V3(0.5, 1, 0), math3d.V2(0.5, 1)},
		{math3d.V3(0, 1, 0), math3d.V2(0, 1)},
	}
	created := 0
	for i, w := range want {
		if !approxVec3(got[i].Position, w.pos) || !approxVec2(got[i].UV, w.uv) {
			t.Errorf("vertex %d = %+v, want pos %v uv %v", i, got[i], w.pos, w.uv)
		}
		if got[i] != square[0] && got[i] != square[3] {
			created++
		}
	}
	if created != 2 {
		t.Errorf("created %d interpolated vertices, want 2", created)
	}
}

func TestClipPolygonInterpolatesLight(t *testing.T) {
	tri := []ClipVertex{
		{Position: math3d.V3(-1, 0, 0), Light: 0},
		{Position: math3d.V3(1, 0, 0), Light: 1},
		{Position: math3d.V3(-1, 1, 0), Light: 0},
	}
	got := ClipPolygon(nil, []Plane{{Normal: math3d.V3(-1, 0, 0), D: 0}}, tri)
	for _, v := range got {
		if v.Position.X == 0 && v.Position.Y == 0 && math.Abs(v.Light-0.5) > 1e-9 {
			t.Errorf("light at crossing = %v, want 0.5", v.Light)
		}
	}
}

func TestClipPolygonAppendsToDst(t *testing.T) {
	sentinel := cv(9, 9, 9, 9, 9)
	dst := []ClipVertex{sentinel}
	tri := []ClipVertex{cv(-1, -1, -5, 0, 0), cv(1, -1, -5, 1, 0), cv(0, 1, -5, 0.5, 1)}

	got := ClipPolygon(dst, testFrustumPlanes(), tri)
	if len(got) != 4 || got[0] != sentinel {
		t.Errorf("got %v, want sentinel followed by 3 vertices", got)
	}

	outside := []ClipVertex{cv(-1, -1, 1, 0, 0), cv(1, -1, 1, 1, 0), cv(0, 1, 1, 0, 1)}
	if got := ClipPolygon(dst, testFrustumPlanes(), outside); len(got) != 1 {
		t.Errorf("fully clipped polygon changed dst: len %d", len(got))
	}
}

func TestClipPolygonDegenerateInput(t *testing.T) {
	if got := ClipPolygon(nil, testFrustumPlanes(), []ClipVertex{cv(0, 0, -5, 0, 0), cv(1, 0, -5, 0, 0)}); len(got) != 0 {
		t.Errorf("two-vertex input produced %d vertices", len(got))
	}
}

func TestClipPolygonWorstCaseFits(t *testing.T) {
	// A planar quad (z = -5 + 0.3x) that pokes through every side plane
	// and the near plane.
	quad := []ClipVertex{
		cv(-20, -20, -11, 0, 0), cv(20, -20, 1, 1, 0),
		cv(20, 20, 1, 1, 1), cv(-20, 20, -11, 0, 1),
	}
	got := ClipPolygon(nil, testFrustumPlanes(), quad)
	if len(got) < 3 || len(got) > len(quad)+2*ClipPlaneCount {
		t.Errorf("got %d vertices", len(got))
	}
	for i, v := range got {
		for j, p := range testFrustumPlanes() {
			if d := p.DistanceToPoint(v.Position); d < -1e-9 {
				t.Errorf("vertex %d outside plane %d by %v", i, j, d)
			}
		}
	}
}

func TestClipPolygonOverflowPanics(t *testing.T) {
	poly := make([]ClipVertex, MaxClipVertices-2*ClipPlaneCount+1)
	for i := range poly {
		a := 2 * math.Pi * float64(i) / float64(len(poly))
		poly[i] = cv(math.Cos(a), math.Sin(a), -5, 0, 0)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrClipOverflow) {
			t.Fatalf("recover() = %v, want error wrapping ErrClipOverflow", r)
		}
	}()
	ClipPolygon(nil, testFrustumPlanes(), poly)
}

func BenchmarkClipPolygon(b *testing.B) {
	planes := testFrustumPlanes()
	quad := []ClipVertex{cv(-5, -1, 0.5, 0, 0), cv(5, -1, -20, 1, 0), cv(5, 1, -20, 1, 1), cv(-5, 1, 0.5, 0, 1)}
	dst := make([]ClipVertex, 0, MaxClipVertices)

	for b.Loop() {
		dst = ClipPolygon(dst[:0], planes, quad)
	}
}
