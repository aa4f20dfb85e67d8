// Package surfcache implements a ring-buffer arena of lit texel blocks
// (surfaces) that are reused across frames without copying.
//
// Surfaces are never freed individually. When an allocation does not fit
// in the space left after the allocation cursor, the cache wraps to the
// start of the arena and begins a new epoch. Handles carry the epoch they
// were issued in, so every handle from an earlier epoch becomes stale at
// once; callers check validity at each use and rebuild stale surfaces.
package surfcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/taigrr/ember/internal/logger"
)

// Arena layout constants.
const (
	// HeaderSize is the per-surface header: width u32, height u32, epoch u64.
	HeaderSize = 16
	// Alignment is the granularity of every allocation.
	Alignment = 16
	// BytesPerTexel is the RGBA payload size of one texel.
	BytesPerTexel = 4

	// MinCapacity is the smallest arena NewForViewport will build.
	MinCapacity = 1 << 20
	// ViewportScale is how many screenfuls of texels NewForViewport reserves.
	ViewportScale = 8
)

// Errors raised (as panics) for contract violations.
var (
	ErrSurfaceTooLarge = errors.New("surfcache: surface larger than arena")
	ErrBadDimensions   = errors.New("surfcache: surface dimensions must be positive")
	ErrBadCapacity     = errors.New("surfcache: arena capacity too small")
)

// tombstone is the header epoch of a surface that has been recycled.
const tombstone = 0

// Handle is a generation-counted reference to a surface. It is valid only
// while its Epoch equals the cache's current epoch. The zero Handle is never
// valid.
type Handle struct {
	Epoch  uint64
	Offset uint32
}

// IsZero reports whether h was never assigned.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Stats describes arena activity since construction.
type Stats struct {
	Capacity    int
	BytesInUse  int    // Bytes claimed in the current epoch
	Epoch       uint64 // Current epoch
	Allocations int
	Wraps       int
	Clears      int
	Recycled    int // Previous-epoch surfaces tombstoned
}

// Cache is the surface arena. It is not safe for concurrent use.
type Cache struct {
	storage []byte

	alloc    int // Next free byte in the current epoch
	epochEnd int // End of the previous epoch's surfaces
	recycle  int // Previous-epoch surfaces before this offset are tombstoned
	epoch    uint64

	stats Stats
}

// New creates a cache with the given capacity in bytes, rounded up to
// Alignment.
func New(capacity int) *Cache {
	capacity = alignUp(capacity)
	if capacity < HeaderSize+Alignment {
		panic(fmt.Errorf("%w: %d bytes", ErrBadCapacity, capacity))
	}
	return &Cache{
		storage: make([]byte, capacity),
		epoch:   1,
		stats:   Stats{Capacity: capacity},
	}
}

// NewForViewport sizes a cache from the viewport resolution.
func NewForViewport(width, height int) *Cache {
	return New(max(MinCapacity, width*height*BytesPerTexel*ViewportScale))
}

// SurfaceSize returns the arena bytes a width x height surface occupies.
func SurfaceSize(width, height int) int {
	return alignUp(HeaderSize + width*height*BytesPerTexel)
}

func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// Capacity returns the arena size in bytes.
func (c *Cache) Capacity() int {
	return len(c.storage)
}

// Epoch returns the current epoch. Handles from any other epoch are stale.
func (c *Cache) Epoch() uint64 {
	return c.epoch
}

// Stats returns a snapshot of the arena statistics.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.BytesInUse = c.alloc
	s.Epoch = c.epoch
	return s
}

// Allocate claims a width x height surface and returns its handle. The
// texels are not initialized. It panics with ErrBadDimensions or
// ErrSurfaceTooLarge when the request can never be satisfied.
func (c *Cache) Allocate(width, height int) Handle {
	if width <= 0 || height <= 0 {
		panic(fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height))
	}
	// Checked before multiplying so huge requests cannot wrap to a small
	// size or truncate in the uint32 header.
	if uint64(width) > math.MaxUint32 || uint64(height) > math.MaxUint32 ||
		width > (len(c.storage)-HeaderSize)/BytesPerTexel/height {
		panic(fmt.Errorf("%w: %dx%d exceeds arena of %d bytes",
			ErrSurfaceTooLarge, width, height, len(c.storage)))
	}
	size := SurfaceSize(width, height)
	if size > len(c.storage) {
		panic(fmt.Errorf("%w: %dx%d needs %d bytes, arena has %d",
			ErrSurfaceTooLarge, width, height, size, len(c.storage)))
	}

	if c.alloc+size > len(c.storage) {
		c.wrap()
	}
	c.recycleUpTo(min(c.alloc+size, c.epochEnd))

	off := c.alloc
	c.writeHeader(off, width, height, c.epoch)
	c.alloc += size
	c.stats.Allocations++

	return Handle{Epoch: c.epoch, Offset: uint32(off)}
}

// wrap retires the current epoch. Leftover surfaces of the previous epoch
// are tombstoned first so the walk never has to span two generations.
func (c *Cache) wrap() {
	recycled := c.recycleUpTo(c.epochEnd)

	c.epochEnd = c.alloc
	c.alloc = 0
	c.recycle = 0
	c.epoch++
	c.stats.Wraps++

	logger.Debug("surface cache wrapped",
		zap.Uint64("epoch", c.epoch),
		zap.Int("epoch_end", c.epochEnd),
		zap.Int("recycled", recycled))
}

// recycleUpTo tombstones previous-epoch surfaces starting at the recycle
// cursor until the cursor reaches limit. The cursor stops on a surface
// boundary, so it may pass limit but never epochEnd.
func (c *Cache) recycleUpTo(limit int) int {
	n := 0
	for c.recycle < limit {
		w, h, epoch := c.readHeader(c.recycle)
		if epoch != tombstone {
			binary.LittleEndian.PutUint64(c.storage[c.recycle+8:], tombstone)
			n++
		}
		c.recycle += SurfaceSize(w, h)
	}
	c.stats.Recycled += n
	return n
}

// Clear invalidates every handle and empties the arena. Headers are not
// walked; stale handles are caught by the epoch check.
func (c *Cache) Clear() {
	c.alloc = 0
	c.epochEnd = 0
	c.recycle = 0
	c.epoch++
	c.stats.Clears++

	logger.Debug("surface cache cleared", zap.Uint64("epoch", c.epoch))
}

// Valid reports whether h refers to a live surface.
func (c *Cache) Valid(h Handle) bool {
	return h.Epoch == c.epoch && int(h.Offset)+HeaderSize <= c.alloc
}

// Surface resolves h. It returns false when h is stale.
func (c *Cache) Surface(h Handle) (Surface, bool) {
	if !c.Valid(h) {
		return Surface{}, false
	}
	off := int(h.Offset)
	w, ht, epoch := c.readHeader(off)
	if epoch != h.Epoch {
		return Surface{}, false
	}
	return c.view(off, w, ht), true
}

// Walk calls fn for each live surface in allocation order until fn returns
// false.
func (c *Cache) Walk(fn func(Handle, Surface) bool) {
	for off := 0; off < c.alloc; {
		w, h, epoch := c.readHeader(off)
		if !fn(Handle{Epoch: epoch, Offset: uint32(off)}, c.view(off, w, h)) {
			return
		}
		off += SurfaceSize(w, h)
	}
}

func (c *Cache) view(off, w, h int) Surface {
	start := off + HeaderSize
	end := start + w*h*BytesPerTexel
	return Surface{Width: w, Height: h, Texels: c.storage[start:end:end]}
}

func (c *Cache) readHeader(off int) (w, h int, epoch uint64) {
	b := c.storage[off:]
	return int(binary.LittleEndian.Uint32(b)),
		int(binary.LittleEndian.Uint32(b[4:])),
		binary.LittleEndian.Uint64(b[8:])
}

func (c *Cache) writeHeader(off, w, h int, epoch uint64) {
	b := c.storage[off:]
	binary.LittleEndian.PutUint32(b, uint32(w))
	binary.LittleEndian.PutUint32(b[4:], uint32(h))
	binary.LittleEndian.PutUint64(b[8:], epoch)
}
