// Package seam dilates texture colors across the borders of a model's UV
// islands so that bilinear filtering near triangle edges never reads texels
// that no triangle maps to.
//
// Correction runs once per loaded model. Every triangle is stamped into a
// coverage field in texture space, shrunk by just under half a texel, and
// then each uncovered texel takes the average color of its covered
// 4-neighbors. Dilation is a single pass and reaches one texel.
package seam

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/taigrr/ember/internal/logger"
	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/render"
)

const (
	// InsetSafety shrinks the half-texel inset so that triangles sharing
	// an edge still cover the texels whose centers lie on it.
	InsetSafety = 0.99
	// InsetTexels is how far each triangle edge is moved toward the
	// centroid before stamping.
	InsetTexels = 0.5 * InsetSafety
)

var (
	ErrBadDimensions = errors.New("seam: texture dimensions must be positive")
	ErrShortBuffer   = errors.New("seam: pixel buffer too small")
	ErrIndexRange    = errors.New("seam: vertex index out of range")
)

// Result summarizes one correction pass.
type Result struct {
	Covered   int // Texels stamped by at least one triangle
	Dilated   int // Uncovered texels that took their neighbors' average
	Untouched int // Uncovered texels with no covered neighbor
}

// CorrectTexture corrects a packed RGBA buffer of width*height texels in
// place.
func CorrectTexture(geom Geometry, width, height int, rgba []byte) (Result, error) {
	return CorrectTextureStride(geom, width, height, width*4, rgba)
}

// CorrectImage corrects img in place.
func CorrectImage(geom Geometry, img *image.RGBA) (Result, error) {
	b := img.Bounds()
	if b.Empty() {
		return Result{}, ErrBadDimensions
	}
	return CorrectTextureStride(geom, b.Dx(), b.Dy(), img.Stride, img.Pix[img.PixOffset(b.Min.X, b.Min.Y):])
}

// CorrectTextureStride corrects an RGBA buffer whose rows are stride bytes
// apart.
func CorrectTextureStride(geom Geometry, width, height, stride int, pix []byte) (Result, error) {
	if width <= 0 || height <= 0 {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if stride < width*4 {
		return Result{}, fmt.Errorf("%w: stride %d for width %d", ErrShortBuffer, stride, width)
	}
	if need := (height-1)*stride + width*4; len(pix) < need {
		return Result{}, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(pix), need)
	}
	if err := geom.validate(); err != nil {
		return Result{}, err
	}

	c := corrector{
		width:  width,
		height: height,
		stride: stride,
		pix:    pix,
		cov:    make([]bool, width*height),
	}
	c.target = render.NewCoverageTarget(width, height, c.cov)

	// Stamping finishes for every triangle before diffusion reads coverage.
	c.stampAll(geom, geom.Regular)
	c.stampAll(geom, geom.Translucent)
	res := c.diffuse()

	logger.Debug("seam correction",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("triangles", geom.TriangleCount()),
		zap.Int("covered", res.Covered),
		zap.Int("dilated", res.Dilated),
		zap.Int("untouched", res.Untouched),
	)
	return res, nil
}

func (g Geometry) validate() error {
	for _, list := range [][]int{g.Regular, g.Translucent} {
		for _, idx := range list {
			if idx < 0 || idx >= len(g.Vertices) {
				return fmt.Errorf("%w: %d (%d vertices)", ErrIndexRange, idx, len(g.Vertices))
			}
		}
	}
	return nil
}

type corrector struct {
	width, height, stride int

	pix    []byte
	cov    []bool
	mask   []uint8
	target *render.SpanTarget
}

func (c *corrector) stampAll(geom Geometry, indices []int) {
	for i := 0; i+2 < len(indices); i += 3 {
		a := geom.Vertices[indices[i]]
		b := geom.Vertices[indices[i+1]]
		v := geom.Vertices[indices[i+2]]
		c.stamp([3]math3d.Vec2{c.texel(a.UV), c.texel(b.UV), c.texel(v.UV)},
			a.AlphaTest || b.AlphaTest || v.AlphaTest)
	}
}

// texel maps a texture coordinate to texel units, top row first.
func (c *corrector) texel(uv math3d.Vec2) math3d.Vec2 {
	return math3d.V2(uv.X*float64(c.width), (1-uv.Y)*float64(c.height))
}

// stamp marks the texels covered by the inset outline of tri.
func (c *corrector) stamp(tri [3]math3d.Vec2, alphaTest bool) {
	if tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])) == 0 {
		return
	}
	centroid := tri[0].Add(tri[1]).Add(tri[2]).Scale(1.0 / 3)

	var shift [3]math3d.Vec2
	for i := range 3 {
		a, b := tri[i], tri[(i+1)%3]
		n := b.Sub(a).Perp().Normalize()
		if n.Dot(centroid.Sub(a)) < 0 {
			n = n.Scale(-1)
		}
		shift[i] = n.Scale(InsetTexels)
	}

	hex := [6]math3d.Vec2{
		tri[0].Add(shift[0]), tri[1].Add(shift[0]),
		tri[1].Add(shift[1]), tri[2].Add(shift[1]),
		tri[2].Add(shift[2]), tri[0].Add(shift[2]),
	}

	c.target.AlphaTest = alphaTest
	if alphaTest {
		c.target.Mask = c.alphaMask()
	}
	for _, t := range [4][3]int{{0, 1, 2}, {2, 3, 4}, {4, 5, 0}, {0, 2, 4}} {
		c.target.DrawTriangle([3]render.ScanVertex{
			{X: hex[t[0]].X, Y: hex[t[0]].Y},
			{X: hex[t[1]].X, Y: hex[t[1]].Y},
			{X: hex[t[2]].X, Y: hex[t[2]].Y},
		})
	}
}

// alphaMask returns the texture's alpha plane, extracted on first use.
func (c *corrector) alphaMask() []uint8 {
	if c.mask != nil {
		return c.mask
	}
	c.mask = make([]uint8, c.width*c.height)
	for y := range c.height {
		row := y * c.stride
		for x := range c.width {
			c.mask[y*c.width+x] = c.pix[row+x*4+3]
		}
	}
	return c.mask
}

// diffuse writes into every uncovered texel the average of its covered
// 4-neighbors, scanning rows top to bottom. Dilated texels stay uncovered,
// so they never feed texels visited later.
func (c *corrector) diffuse() Result {
	var res Result
	neighbors := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	for y := range c.height {
		for x := range c.width {
			if c.cov[y*c.width+x] {
				res.Covered++
				continue
			}

			var sum [4]int
			n := 0
			for _, d := range neighbors {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= c.width || ny < 0 || ny >= c.height || !c.cov[ny*c.width+nx] {
					continue
				}
				off := ny*c.stride + nx*4
				for k := range 4 {
					sum[k] += int(c.pix[off+k])
				}
				n++
			}
			if n == 0 {
				res.Untouched++
				continue
			}

			off := y*c.stride + x*4
			for k := range 4 {
				c.pix[off+k] = uint8(sum[k] / n)
			}
			res.Dilated++
		}
	}
	return res
}
