package render

import (
	"math"
	"math/rand"
	"testing"

	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/surfcache"
)

// BenchmarkFrustumExtract benchmarks frustum plane extraction from view-projection matrix.
func BenchmarkFrustumExtract(b *testing.B) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 10, 20))
	cam.LookAt(math3d.Zero3())
	viewProj := cam.ViewProjectionMatrix()

	for b.Loop() {
		_ = NewFrustumFromMatrix(viewProj)
	}
}

// BenchmarkAABBIntersection benchmarks AABB vs frustum intersection test.
func BenchmarkAABBIntersection(b *testing.B) {
	frustum := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100.0))

	b.Run("visible", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, -15), math3d.V3(1, 1, -5))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})

	// Behind the camera, rejected by the near plane first
	b.Run("culled", func(b *testing.B) {
		box := NewAABB(math3d.V3(-1, -1, 5), math3d.V3(1, 1, 15))
		for b.Loop() {
			_ = frustum.IntersectAABB(box)
		}
	})
}

// BenchmarkCullingScenario simulates culling N objects, some visible, some not.
func BenchmarkCullingScenario(b *testing.B) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 10, 20))
	cam.LookAt(math3d.Zero3())
	r := NewRasterizer(cam, NewFramebuffer(160, 90))

	rng := rand.New(rand.NewSource(42))
	local := NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	transforms := make([]math3d.Mat4, 100)
	for i := range transforms {
		// X, Z in [-50, 50], Y in [0, 10]
		transforms[i] = math3d.Translate(math3d.V3(rng.Float64()*100-50, rng.Float64()*10, rng.Float64()*100-50))
	}

	for b.Loop() {
		visible := 0
		for _, m := range transforms {
			if r.IsVisibleTransformed(local, m) {
				visible++
			}
		}
		_ = visible
	}
}

// BenchmarkWorldFace compares drawing a wall from its cached surface with
// composing the surface every frame.
func BenchmarkWorldFace(b *testing.B) {
	r, _ := createTestRasterizer(160, 90)
	tex := NewBrickTexture(32, 32, 16, 8, RGB(150, 70, 50), RGB(180, 175, 160))
	face := &WorldFace{
		Vertices: []math3d.Vec3{
			math3d.V3(-5, -5, 0), math3d.V3(-5, 5, 0), math3d.V3(5, 5, 0), math3d.V3(5, -5, 0),
		},
		UVs:         []math3d.Vec2{math3d.V2(0, 0), math3d.V2(0, 2), math3d.V2(2, 2), math3d.V2(2, 0)},
		CornerLight: [4]float64{1, 0.8, 0.6, 0.4},
		Texture:     tex,
	}

	b.Run("cached", func(b *testing.B) {
		w := NewWorldRenderer(r, surfcache.New(1<<20))
		for b.Loop() {
			r.ClearDepth()
			w.DrawFace(face)
		}
	})

	b.Run("rebuilt", func(b *testing.B) {
		w := NewWorldRenderer(r, surfcache.New(1<<20))
		for b.Loop() {
			r.ClearDepth()
			face.Invalidate()
			w.DrawFace(face)
		}
	})
}
