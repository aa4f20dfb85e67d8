package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// String returns the config name of m, as accepted by ParseFilterMode.
func (m FilterMode) String() string {
	if m == FilterBilinear {
		return "bilinear"
	}
	return "nearest"
}

// ParseFilterMode maps a config name to a FilterMode.
func ParseFilterMode(name string) (FilterMode, error) {
	switch name {
	case "", "nearest":
		return FilterNearest, nil
	case "bilinear":
		return FilterBilinear, nil
	}
	return FilterNearest, fmt.Errorf("unknown filter mode %q", name)
}

// Texture holds a 2D image for texture mapping. Row 0 is the top of the
// image; Sample flips V so that v=0 addresses the bottom row.
type Texture struct {
	Width      int
	Height     int
	Pixels     []Color    // Row-major pixel data
	WrapU      WrapMode   // Horizontal wrap mode
	WrapV      WrapMode   // Vertical wrap mode
	FilterMode FilterMode // Sampling filter mode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:      width,
		Height:     height,
		Pixels:     make([]Color, width*height),
		WrapU:      WrapRepeat,
		WrapV:      WrapRepeat,
		FilterMode: FilterNearest,
	}
}

// LoadTexture loads a texture from a PNG, JPEG, BMP, TIFF or WebP file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage creates a texture from an image.Image of any color model.
func TextureFromImage(img image.Image) *Texture {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	tex := NewTexture(rgba.Rect.Dx(), rgba.Rect.Dy())
	tex.SetRGBA(rgba.Pix, rgba.Stride)
	return tex
}

// RGBA returns the texture as a tightly packed RGBA byte buffer
// (4 bytes per texel, row-major, no padding).
func (t *Texture) RGBA() []byte {
	out := make([]byte, len(t.Pixels)*4)
	for i, c := range t.Pixels {
		o := i * 4
		out[o], out[o+1], out[o+2], out[o+3] = c.R, c.G, c.B, c.A
	}
	return out
}

// SetRGBA replaces the texture contents from an RGBA byte buffer whose rows
// are stride bytes apart.
func (t *Texture) SetRGBA(pix []byte, stride int) {
	for y := range t.Height {
		row := pix[y*stride:]
		for x := range t.Width {
			o := x * 4
			t.Pixels[y*t.Width+x] = Color{R: row[o], G: row[o+1], B: row[o+2], A: row[o+3]}
		}
	}
}

// ToImage converts the texture to a standard Go image.RGBA.
func (t *Texture) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	copy(img.Pix, t.RGBA())
	return img
}

// Resized returns a copy of t scaled to width x height. Bilinear textures
// are scaled with a bilinear kernel, nearest ones with nearest-neighbor.
func (t *Texture) Resized(width, height int) *Texture {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	var scaler draw.Scaler = draw.NearestNeighbor
	if t.FilterMode == FilterBilinear {
		scaler = draw.BiLinear
	}
	scaler.Scale(dst, dst.Bounds(), t.ToImage(), image.Rect(0, 0, t.Width, t.Height), draw.Src, nil)

	out := TextureFromImage(dst)
	out.WrapU, out.WrapV, out.FilterMode = t.WrapU, t.WrapV, t.FilterMode
	return out
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// NewBrickTexture creates a procedural brick wall: rows of bricks offset by
// half a brick every other course, separated by mortar lines.
func NewBrickTexture(width, height, brickW, brickH int, brick, mortar Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		course := y / brickH
		offset := 0
		if course%2 == 1 {
			offset = brickW / 2
		}
		for x := range width {
			c := brick
			if y%brickH == 0 || (x+offset)%brickW == 0 {
				c = mortar
			}
			tex.SetPixel(x, y, c)
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y) with bounds checking.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample samples the texture at UV coordinates (0-1 range).
func (t *Texture) Sample(u, v float64) Color {
	u = wrapCoord(u, t.WrapU)
	v = 1.0 - wrapCoord(v, t.WrapV)

	if t.FilterMode == FilterBilinear {
		return t.sampleBilinear(u, v)
	}
	return t.sampleNearest(u, v)
}

func wrapCoord(coord float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, coord))
	}
	return coord - math.Floor(coord)
}

func (t *Texture) sampleNearest(u, v float64) Color {
	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.GetPixel(x, y)
}

func (t *Texture) sampleBilinear(u, v float64) Color {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixelCoord(x0+1, t.Width, t.WrapU)
	y1 := wrapPixelCoord(y0+1, t.Height, t.WrapV)
	x0 = wrapPixelCoord(x0, t.Width, t.WrapU)
	y0 = wrapPixelCoord(y0, t.Height, t.WrapV)

	top := lerpColor(t.GetPixel(x0, y0), t.GetPixel(x1, y0), tx)
	bot := lerpColor(t.GetPixel(x0, y1), t.GetPixel(x1, y1), tx)
	return lerpColor(top, bot, ty)
}

func wrapPixelCoord(x, size int, mode WrapMode) int {
	if mode == WrapClamp {
		return max(0, min(x, size-1))
	}
	x %= size
	if x < 0 {
		x += size
	}
	return x
}

// lerpColor linearly interpolates between two colors.
func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}

// MultiplyColor scales the RGB channels of c by intensity (for lighting),
// saturating at 0 and 255. Alpha is preserved.
func MultiplyColor(c Color, intensity float64) Color {
	scale := func(v uint8) uint8 {
		return uint8(math.Max(0, math.Min(255, float64(v)*intensity)))
	}
	return Color{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
