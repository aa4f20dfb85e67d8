package render

import (
	"math"

	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/surfcache"
)

// DefaultMaxSurfaceSize caps the texel width and height of a cached surface.
const DefaultMaxSurfaceSize = 64

// Corner indices into WorldFace.CornerLight, relative to the face's UV
// rectangle as it appears in the texture.
const (
	CornerTopLeft = iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

// WorldFace is a convex, textured polygon of static world geometry. Its lit
// texels are composed once into a cached surface and redrawn from there
// until the cache recycles them.
type WorldFace struct {
	Vertices    []math3d.Vec3
	UVs         []math3d.Vec2
	CornerLight [4]float64
	Texture     *Texture

	// Surface is the cached composition. Any stale handle, including the
	// zero value, causes a rebuild on the next draw.
	Surface surfcache.Handle
}

// Invalidate forces the face's surface to be rebuilt, e.g. after its
// lighting changed.
func (f *WorldFace) Invalidate() {
	f.Surface = surfcache.Handle{}
}

// uvBounds returns the face's UV rectangle. Degenerate axes get unit span so
// remapping never divides by zero.
func (f *WorldFace) uvBounds() (lo, span math3d.Vec2) {
	lo, hi := f.UVs[0], f.UVs[0]
	for _, uv := range f.UVs[1:] {
		lo = math3d.V2(math.Min(lo.X, uv.X), math.Min(lo.Y, uv.Y))
		hi = math3d.V2(math.Max(hi.X, uv.X), math.Max(hi.Y, uv.Y))
	}
	span = hi.Sub(lo)
	if span.X == 0 {
		span.X = 1
	}
	if span.Y == 0 {
		span.Y = 1
	}
	return lo, span
}

// light returns the bilinear corner light at fractional surface position
// (fx, fy), with fy=0 at the top.
func (f *WorldFace) light(fx, fy float64) float64 {
	l := f.CornerLight
	top := l[CornerTopLeft] + (l[CornerTopRight]-l[CornerTopLeft])*fx
	bot := l[CornerBottomLeft] + (l[CornerBottomRight]-l[CornerBottomLeft])*fx
	return top + (bot-top)*fy
}

// WorldStats counts surface cache use for one frame.
type WorldStats struct {
	Faces  int // Faces submitted
	Hidden int // Faces clipped away or back-facing
	Built  int // Surfaces composed this frame
	Reused int // Surfaces drawn straight from the cache
}

// WorldRenderer draws WorldFaces through the surface cache.
type WorldRenderer struct {
	raster *Rasterizer
	cache  *surfcache.Cache

	MaxSurfaceSize int
	Stats          WorldStats

	clip []ClipVertex
}

// NewWorldRenderer creates a world renderer drawing with r and caching
// surfaces in cache.
func NewWorldRenderer(r *Rasterizer, cache *surfcache.Cache) *WorldRenderer {
	return &WorldRenderer{
		raster:         r,
		cache:          cache,
		MaxSurfaceSize: DefaultMaxSurfaceSize,
		clip:           make([]ClipVertex, 0, MaxClipVertices),
	}
}

// SetRasterizer retargets the renderer, e.g. after a resize.
func (w *WorldRenderer) SetRasterizer(r *Rasterizer) {
	w.raster = r
}

// SetCache swaps in a new surface cache and invalidates faces. Handles from
// the old cache must not be checked against the new one, whose epochs
// restart and could match them.
func (w *WorldRenderer) SetCache(cache *surfcache.Cache, faces ...*WorldFace) {
	w.cache = cache
	for _, f := range faces {
		f.Invalidate()
	}
}

// Cache returns the surface cache.
func (w *WorldRenderer) Cache() *surfcache.Cache {
	return w.cache
}

// ResetStats clears the per-frame counters.
func (w *WorldRenderer) ResetStats() {
	w.Stats = WorldStats{}
}

// DrawFace clips and draws f. The surface is only composed when the face is
// visible and its handle is stale.
func (w *WorldRenderer) DrawFace(f *WorldFace) {
	w.Stats.Faces++
	if len(f.Vertices) < 3 || len(f.UVs) != len(f.Vertices) || f.Texture == nil {
		w.Stats.Hidden++
		return
	}

	// Clip in surface space: s runs left to right and t top to bottom
	// across the face's UV rectangle.
	lo, span := f.uvBounds()
	poly := w.clip[:0]
	for i, p := range f.Vertices {
		uv := f.UVs[i]
		poly = append(poly, ClipVertex{
			Position: p,
			UV:       math3d.V2((uv.X-lo.X)/span.X, 1-(uv.Y-lo.Y)/span.Y),
			Light:    1,
		})
	}
	w.clip = poly

	clipped := w.raster.clip(poly)
	if len(clipped) == 0 {
		w.Stats.Hidden++
		return
	}
	screen, ok := w.raster.project(clipped)
	if !ok {
		w.Stats.Hidden++
		return
	}

	surf, ok := w.cache.Surface(f.Surface)
	if ok {
		w.Stats.Reused++
	} else {
		surf = w.compose(f, lo, span)
		w.Stats.Built++
	}
	w.raster.fill(screen, surf, ColorWhite, false)
}

// compose allocates a fresh surface for f and fills it with lit texels.
func (w *WorldRenderer) compose(f *WorldFace, lo, span math3d.Vec2) surfcache.Surface {
	sw, sh := w.surfaceSize(f.Texture, span)
	f.Surface = w.cache.Allocate(sw, sh)
	surf, _ := w.cache.Surface(f.Surface)

	for y := range sh {
		fy := (float64(y) + 0.5) / float64(sh)
		v := lo.Y + span.Y*(1-fy)
		for x := range sw {
			fx := (float64(x) + 0.5) / float64(sw)
			u := lo.X + span.X*fx
			c := f.Texture.Sample(u, v)
			surf.Set(x, y, MultiplyColor(c, f.light(fx, fy)))
		}
	}
	return surf
}

// surfaceSize picks one surface texel per texture texel, capped at
// MaxSurfaceSize on each axis.
func (w *WorldRenderer) surfaceSize(tex *Texture, span math3d.Vec2) (int, int) {
	limit := w.MaxSurfaceSize
	if limit <= 0 {
		limit = DefaultMaxSurfaceSize
	}
	sw := int(math.Ceil(span.X * float64(tex.Width)))
	sh := int(math.Ceil(span.Y * float64(tex.Height)))
	return max(1, min(sw, limit)), max(1, min(sh, limit))
}
