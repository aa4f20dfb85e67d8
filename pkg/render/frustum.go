package render

import (
	"github.com/taigrr/ember/pkg/math3d"
)

// Plane is a clip half-space: points with Normal·p + D >= 0 are inside.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Zero counts as inside.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the clip planes of a perspective view volume, in the order
// the clipper applies them: near, left, right, bottom, top. The far plane is
// not clipped against; depth precision beyond it is the depth buffer's job.
// Each plane's normal points inward.
type Frustum struct {
	Planes [ClipPlaneCount]Plane
}

// Clip plane indices, in application order.
const (
	ClipNear = iota
	ClipLeft
	ClipRight
	ClipBottom
	ClipTop

	ClipPlaneCount
)

// NewFrustumFromMatrix extracts the clip planes from a view-projection matrix
// using the Gribb/Hartmann method. The planes are in world space when the
// matrix is projection*view.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	var f Frustum

	// Row i element j of the column-major matrix is m[i + j*4].

	// Near plane: row3 + row2
	f.Planes[ClipNear] = Plane{
		Normal: math3d.V3(m[3]+m[2], m[7]+m[6], m[11]+m[10]),
		D:      m[15] + m[14],
	}

	// Left plane: row3 + row0
	f.Planes[ClipLeft] = Plane{
		Normal: math3d.V3(m[3]+m[0], m[7]+m[4], m[11]+m[8]),
		D:      m[15] + m[12],
	}

	// Right plane: row3 - row0
	f.Planes[ClipRight] = Plane{
		Normal: math3d.V3(m[3]-m[0], m[7]-m[4], m[11]-m[8]),
		D:      m[15] - m[12],
	}

	// Bottom plane: row3 + row1
	f.Planes[ClipBottom] = Plane{
		Normal: math3d.V3(m[3]+m[1], m[7]+m[5], m[11]+m[9]),
		D:      m[15] + m[13],
	}

	// Top plane: row3 - row1
	f.Planes[ClipTop] = Plane{
		Normal: math3d.V3(m[3]-m[1], m[7]-m[5], m[11]-m[9]),
		D:      m[15] - m[13],
	}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}

	return f
}

// ClipPolygon clips poly against all frustum planes in order, appending the
// result to dst.
func (f *Frustum) ClipPolygon(dst, poly []ClipVertex) []ClipVertex {
	return ClipPolygon(dst, f.Planes[:], poly)
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Transform returns the AABB bounding all 8 corners of b after m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := [8]math3d.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	transformed := m.MulVec3(corners[0])
	newMin := transformed
	newMax := transformed

	for i := 1; i < 8; i++ {
		transformed = m.MulVec3(corners[i])
		newMin = newMin.Min(transformed)
		newMax = newMax.Max(transformed)
	}

	return AABB{Min: newMin, Max: newMax}
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// A box is rejected as soon as its corner furthest along a plane normal is
// outside that plane.
func (f Frustum) IntersectAABB(box AABB) bool {
	for i := range f.Planes {
		plane := f.Planes[i]

		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)

		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}

	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// selectComponent is a branchless conditional selection helper.
func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// GetFrustum returns the current view frustum from the camera.
func (c *Camera) GetFrustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// ClipPlanes returns the camera's five clip planes in application order.
func (c *Camera) ClipPlanes() [ClipPlaneCount]Plane {
	return c.GetFrustum().Planes
}

