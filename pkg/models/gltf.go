package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/taigrr/ember/internal/logger"
	"github.com/taigrr/ember/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadImages       bool // Decode base color textures into Material.BaseMap
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadImages:       true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))

	var images map[int]image.Image
	if l.LoadImages {
		images = decodeImages(doc, filepath.Dir(path))
	}
	for i, m := range doc.Materials {
		mesh.Materials = append(mesh.Materials, convertMaterial(doc, i, m, images))
	}

	// Process all meshes in the document
	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	// Calculate normals if needed
	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}

	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()

	logger.Debug("loaded model",
		zap.String("path", path),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("materials", len(mesh.Materials)),
	)

	return mesh, nil
}

// convertMaterial maps a glTF material onto Material. Missing PBR blocks
// fall back to glTF defaults (opaque white, cutoff 0.5).
func convertMaterial(doc *gltf.Document, idx int, m *gltf.Material, images map[int]image.Image) Material {
	mat := Material{
		Name:        m.Name,
		BaseColor:   [4]float64{1, 1, 1, 1},
		AlphaCutoff: DefaultAlphaCutoff,
	}
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material_%d", idx)
	}

	switch m.AlphaMode {
	case gltf.AlphaMask:
		mat.AlphaMode = AlphaMask
	case gltf.AlphaBlend:
		mat.AlphaMode = AlphaBlend
	default:
		mat.AlphaMode = AlphaOpaque
	}
	if m.AlphaCutoff != nil {
		mat.AlphaCutoff = *m.AlphaCutoff
	}

	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}
	if pbr.BaseColorFactor != nil {
		mat.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.BaseColorTexture != nil {
		ti := pbr.BaseColorTexture.Index
		if ti >= 0 && ti < len(doc.Textures) && doc.Textures[ti].Source != nil {
			mat.BaseMap = images[*doc.Textures[ti].Source]
		}
	}
	return mat
}

// processMesh extracts geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		// Get position accessor
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		// Get normals if available
		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		// Get UVs if available
		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(mesh.Materials) {
			material = *prim.Material
		}

		// Base vertex index for this primitive
		baseVertex := len(mesh.Vertices)

		for i, p := range positions {
			v := MeshVertex{
				Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])),
			}
			if i < len(normals) {
				n := normals[i]
				v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(float64(uvs[i][0]), 1.0-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		// GLTF uses CCW winding for front-facing, but our engine uses CW
		// (due to Y-flip in screen space), so we reverse the winding here
		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{
				V: [3]int{
					baseVertex + int(indices[i]),
					baseVertex + int(indices[i+2]), // swapped
					baseVertex + int(indices[i+1]), // swapped
				},
				Material: material,
			}
			for _, idx := range f.V {
				if idx >= len(mesh.Vertices) {
					return fmt.Errorf("index %d out of range (%d vertices)", idx-baseVertex, len(positions))
				}
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	return nil
}

// decodeImages decodes every image in doc that can be found. Images that
// fail to load are logged and skipped.
func decodeImages(doc *gltf.Document, dir string) map[int]image.Image {
	images := make(map[int]image.Image, len(doc.Images))
	for i, img := range doc.Images {
		data, err := imageData(doc, img, dir)
		if err != nil || len(data) == 0 {
			logger.Warn("skipping gltf image", zap.Int("image", i), zap.Error(err))
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logger.Warn("decode gltf image", zap.Int("image", i), zap.Error(err))
			continue
		}
		images[i] = decoded
	}
	return images
}

// imageData returns the encoded bytes of img from a buffer view, a data
// URI, or a file next to the document.
func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		end := bv.ByteOffset + bv.ByteLength
		if end > len(buf.Data) {
			return nil, fmt.Errorf("buffer view %d exceeds buffer", *img.BufferView)
		}
		return buf.Data[bv.ByteOffset:end], nil
	case strings.HasPrefix(img.URI, "data:"):
		return img.MarshalData()
	case img.URI != "":
		data, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("read image %q: %w", img.URI, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("image has no source")
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// material texture. Texture may be nil if none is embedded.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	mesh, err := LoadGLB(path)
	if err != nil {
		return nil, nil, err
	}
	return mesh, mesh.BaseMap(), nil
}
