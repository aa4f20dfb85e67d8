// Package render provides the software rasterization pipeline for ember:
// frustum clipping, scanline triangle fill, depth-tested span writers, and
// the camera, framebuffer and texture types they operate on.
package render

import (
	"math"

	"github.com/taigrr/ember/pkg/math3d"
)

// Rasterizer draws meshes into a framebuffer. Every polygon is clipped
// against the camera's frustum planes, projected, and filled by Scanline.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64    // Depth buffer (1D array, row-major)
	frustum                Frustum      // Cached frustum planes
	frustumDirty           bool         // Whether frustum needs recalculation
	CullingStats           CullingStats // Statistics for debugging/benchmarking
	ClipStats              ClipStats
	DisableBackfaceCulling bool  // If true, render both sides of triangles
	AlphaRef               uint8 // Threshold for alpha-tested faces

	clipBuf []ClipVertex
	scanBuf []ScanVertex
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// ClipStats tracks per-polygon clipping outcomes.
type ClipStats struct {
	Polygons    int // Polygons submitted
	ClippedAway int // Polygons entirely outside the frustum
	BackFacing  int // Polygons rejected by backface culling
	Triangles   int // Triangles handed to the scanline filler
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
		AlphaRef:     DefaultAlphaRef,
		clipBuf:      make([]ClipVertex, 0, MaxClipVertices),
		scanBuf:      make([]ScanVertex, 0, MaxClipVertices),
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Framebuffer returns the target framebuffer.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves or rotates.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// UpdateFrustum recalculates the frustum planes from the camera.
func (r *Rasterizer) UpdateFrustum() {
	if r.frustumDirty {
		r.frustum = r.camera.GetFrustum()
		r.frustumDirty = false
	}
}

// GetFrustum returns the current frustum (updating if needed).
func (r *Rasterizer) GetFrustum() Frustum {
	r.UpdateFrustum()
	return r.frustum
}

// ResetStats resets culling and clipping statistics (call once per frame).
func (r *Rasterizer) ResetStats() {
	r.CullingStats = CullingStats{}
	r.ClipStats = ClipStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(worldBounds)
}

// IsVisibleTransformed tests if a local-space AABB is visible after transformation.
func (r *Rasterizer) IsVisibleTransformed(localBounds AABB, transform math3d.Mat4) bool {
	return r.IsVisible(localBounds.Transform(transform))
}

// clip clips a world-space polygon into the rasterizer's reusable buffer.
func (r *Rasterizer) clip(poly []ClipVertex) []ClipVertex {
	r.UpdateFrustum()
	r.ClipStats.Polygons++
	r.clipBuf = r.frustum.ClipPolygon(r.clipBuf[:0], poly)
	if len(r.clipBuf) == 0 {
		r.ClipStats.ClippedAway++
	}
	return r.clipBuf
}

// project converts clipped world-space vertices into screen space with
// perspective-premultiplied attributes. It reports false when the polygon is
// back-facing (and culling is on) or has no screen area.
func (r *Rasterizer) project(poly []ClipVertex) ([]ScanVertex, bool) {
	viewProj := r.camera.ViewProjectionMatrix()
	w, h := float64(r.Width()), float64(r.Height())

	out := r.scanBuf[:0]
	for _, v := range poly {
		clip := viewProj.MulVec4(math3d.V4FromV3(v.Position, 1))
		if clip.W <= 0 {
			// Only reachable with a degenerate near plane.
			return nil, false
		}
		q := 1 / clip.W
		out = append(out, ScanVertex{
			X: (clip.X*q + 1) * 0.5 * w,
			Y: (1 - clip.Y*q) * 0.5 * h,
			Attrs: Attrs{
				Z: clip.Z * q,
				Q: q,
				U: v.UV.X * q,
				V: v.UV.Y * q,
				L: v.Light * q,
			},
		})
	}
	r.scanBuf = out

	// Screen-space winding (Y down): counter-clockwise on screen is back-facing.
	area := polygonArea(out)
	if area == 0 {
		return nil, false
	}
	if area < 0 && !r.DisableBackfaceCulling {
		r.ClipStats.BackFacing++
		return nil, false
	}
	return out, true
}

// polygonArea returns twice the signed screen-space area of poly.
func polygonArea(poly []ScanVertex) float64 {
	var sum float64
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

// DrawPolygon clips, projects and fills a convex world-space polygon. src
// may be nil, in which case flat is used as the surface color.
func (r *Rasterizer) DrawPolygon(poly []ClipVertex, src Sampler, flat Color, alphaTest bool) {
	clipped := r.clip(poly)
	if len(clipped) == 0 {
		return
	}
	screen, ok := r.project(clipped)
	if !ok {
		return
	}

	r.fill(screen, src, flat, alphaTest)
}

// fill draws a projected polygon as a fan with depth testing.
func (r *Rasterizer) fill(screen []ScanVertex, src Sampler, flat Color, alphaTest bool) {
	t := NewColorTarget(r.fb, r.zbuffer)
	t.Perspective = true
	t.AlphaRef = r.AlphaRef
	t.Source = src
	t.Flat = flat
	t.AlphaTest = alphaTest
	t.DrawFan(screen)
	r.ClipStats.Triangles += len(screen) - 2
}

// MeshRenderer is the read-only view of a mesh the rasterizer needs. It is
// declared here so render does not import models.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// AlphaTestedMeshRenderer reports faces whose texels are cut out by alpha.
type AlphaTestedMeshRenderer interface {
	MeshRenderer
	FaceAlphaTested(i int) bool
}

// tryFrustumCull attempts to cull a mesh using its bounds if available.
// Returns true if the mesh should be culled (not visible).
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	if !r.IsVisibleTransformed(NewAABB(minBounds, maxBounds), transform) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// vertexLight returns the Gouraud intensity for a world-space normal.
func vertexLight(normal, lightDir math3d.Vec3) float64 {
	return 0.3 + 0.7*math.Max(0, normal.Dot(lightDir))
}

// meshFace builds the world-space clip polygon for face i.
func meshFace(mesh MeshRenderer, i int, transform math3d.Mat4, lightDir math3d.Vec3) [3]ClipVertex {
	face := mesh.GetFace(i)
	var poly [3]ClipVertex
	for k, idx := range face {
		pos, normal, uv := mesh.GetVertex(idx)
		poly[k] = ClipVertex{
			Position: transform.MulVec3(pos),
			UV:       uv,
			Light:    vertexLight(transform.MulVec3Dir(normal).Normalize(), lightDir),
		}
	}
	return poly
}

// DrawMeshTextured renders a textured mesh with Gouraud shading.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshTextured(mesh MeshRenderer, transform math3d.Mat4, tex *Texture, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	normLight := lightDir.Normalize()
	alpha, _ := mesh.(AlphaTestedMeshRenderer)

	for i := 0; i < mesh.TriangleCount(); i++ {
		poly := meshFace(mesh, i, transform, normLight)
		cutout := alpha != nil && alpha.FaceAlphaTested(i)
		r.DrawPolygon(poly[:], tex, ColorWhite, cutout)
	}
}

// DrawMeshGouraud renders a mesh in a single color with Gouraud shading.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshGouraud(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	normLight := lightDir.Normalize()
	for i := 0; i < mesh.TriangleCount(); i++ {
		poly := meshFace(mesh, i, transform, normLight)
		r.DrawPolygon(poly[:], nil, color, false)
	}
}

// DrawMeshWireframe renders the clipped outline of every face.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		poly := meshFace(mesh, i, transform, math3d.Up())
		r.DrawPolygonOutline(poly[:], color)
	}
}

// DrawPolygonOutline draws the edges of a polygon after clipping, so lines
// never leave the view volume.
func (r *Rasterizer) DrawPolygonOutline(poly []ClipVertex, color Color) {
	clipped := r.clip(poly)
	if len(clipped) == 0 {
		return
	}

	saved := r.DisableBackfaceCulling
	r.DisableBackfaceCulling = true
	screen, ok := r.project(clipped)
	r.DisableBackfaceCulling = saved
	if !ok {
		return
	}

	for i := range screen {
		a, b := screen[i], screen[(i+1)%len(screen)]
		r.fb.DrawLine(int(a.X), int(a.Y), int(b.X), int(b.Y), color)
	}
}
