// Package models provides 3D model loading and representation for ember.
package models

import (
	"image"
	"math"

	"github.com/taigrr/ember/pkg/math3d"
)

// Mesh represents a 3D mesh with vertices, faces, and materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2 // Bottom-left origin: v=1 is the top image row
}

// Face represents a triangle face with vertex indices and material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// AlphaMode is how a material's alpha channel is interpreted.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota // Alpha ignored
	AlphaMask                    // Texels below AlphaCutoff are cut out
	AlphaBlend                   // Translucent
)

// DefaultAlphaCutoff is the glTF default mask threshold.
const DefaultAlphaCutoff = 0.5

func (m AlphaMode) String() string {
	switch m {
	case AlphaMask:
		return "mask"
	case AlphaBlend:
		return "blend"
	default:
		return "opaque"
	}
}

// Material is the subset of a glTF material the renderer uses.
type Material struct {
	Name        string
	BaseColor   [4]float64 // RGBA in 0-1 range
	AlphaMode   AlphaMode
	AlphaCutoff float64     // Only meaningful for AlphaMask
	BaseMap     image.Image // Optional base color texture
}

// HasTexture reports whether the material carries a base color image.
func (m *Material) HasTexture() bool {
	return m.BaseMap != nil
}

// AlphaRef returns AlphaCutoff as an 8-bit alpha threshold.
func (m *Material) AlphaRef() uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, m.AlphaCutoff)) * 255))
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals computes face normals and assigns them to vertices.
// This is a simple flat-shading approach; shared vertices end up with the
// normal of the last face that touches them.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		normal := m.faceNormal(f)
		for _, idx := range f.V {
			m.Vertices[idx].Normal = normal.Normalize()
		}
	}
}

// CalculateSmoothNormals computes area-weighted averaged normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	for _, f := range m.Faces {
		normal := m.faceNormal(f)
		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// faceNormal returns the unnormalized normal of f. Faces are stored with
// clockwise winding, so the cross product is taken v2-v0 by v1-v0.
func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v2.Sub(v0).Cross(v1.Sub(v0))
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		// Rotation part only; non-uniform scale skews normals slightly.
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// FitTo centers the mesh on the origin and scales it uniformly so its
// largest dimension equals extent.
func (m *Mesh) FitTo(extent float64) {
	m.CalculateBounds()
	size := m.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim == 0 {
		return
	}
	s := extent / maxDim
	m.Transform(math3d.ScaleUniform(s).Mul(math3d.Translate(m.Center().Negate())))
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetBounds returns the axis-aligned bounding box.
// Implements render.BoundedMeshRenderer interface.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// FaceMaterial returns the material of face i, or nil.
func (m *Mesh) FaceMaterial(i int) *Material {
	return m.GetMaterial(m.Faces[i].Material)
}

// FaceAlphaTested reports whether face i uses a mask-mode material.
// Implements render.AlphaTestedMeshRenderer interface.
func (m *Mesh) FaceAlphaTested(i int) bool {
	mat := m.FaceMaterial(i)
	return mat != nil && mat.AlphaMode == AlphaMask
}

// FaceTranslucent reports whether face i uses a blend-mode material.
func (m *Mesh) FaceTranslucent(i int) bool {
	mat := m.FaceMaterial(i)
	return mat != nil && mat.AlphaMode == AlphaBlend
}

// BaseMap returns the first material image, or nil when no material is
// textured.
func (m *Mesh) BaseMap() image.Image {
	for i := range m.Materials {
		if m.Materials[i].HasTexture() {
			return m.Materials[i].BaseMap
		}
	}
	return nil
}
