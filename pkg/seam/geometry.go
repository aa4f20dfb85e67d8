package seam

import (
	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/models"
)

// Vertex is one model vertex as seen by the corrector.
type Vertex struct {
	Position  math3d.Vec3
	UV        math3d.Vec2 // Bottom-left origin, as stored by the model loader
	AlphaTest bool
}

// Geometry is a read-only view of a model's triangles for one correction
// pass. Regular and Translucent hold vertex indices, three per triangle.
type Geometry struct {
	Vertices    []Vertex
	Regular     []int
	Translucent []int
}

// TriangleCount returns the number of triangles in both index lists.
func (g Geometry) TriangleCount() int {
	return len(g.Regular)/3 + len(g.Translucent)/3
}

// FromMesh builds correction geometry from a loaded mesh. Faces with blend
// materials go to Translucent; vertices of mask materials are flagged
// AlphaTest.
func FromMesh(m *models.Mesh) Geometry {
	g := Geometry{Vertices: make([]Vertex, len(m.Vertices))}
	for i, v := range m.Vertices {
		g.Vertices[i] = Vertex{Position: v.Position, UV: v.UV}
	}

	for i, f := range m.Faces {
		if m.FaceAlphaTested(i) {
			for _, idx := range f.V {
				g.Vertices[idx].AlphaTest = true
			}
		}
		if m.FaceTranslucent(i) {
			g.Translucent = append(g.Translucent, f.V[0], f.V[1], f.V[2])
		} else {
			g.Regular = append(g.Regular, f.V[0], f.V[1], f.V[2])
		}
	}
	return g
}
