package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestParseFilterMode(t *testing.T) {
	tests := []struct {
		name    string
		want    FilterMode
		wantErr bool
	}{
		{"", FilterNearest, false},
		{"nearest", FilterNearest, false},
		{"bilinear", FilterBilinear, false},
		{"trilinear", FilterNearest, true},
	}
	for _, tc := range tests {
		got, err := ParseFilterMode(tc.name)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFilterMode(%q) = %v, %v", tc.name, got, err)
		}
	}
}

func TestFilterModeStringRoundTrip(t *testing.T) {
	for _, m := range []FilterMode{FilterNearest, FilterBilinear} {
		got, err := ParseFilterMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseFilterMode(%q) = %v, %v, want %v", m.String(), got, err, m)
		}
	}
}

func TestTextureSampleFlipsV(t *testing.T) {
	tex := NewTexture(1, 2)
	tex.SetPixel(0, 0, ColorRed)
	tex.SetPixel(0, 1, ColorGreen)

	if got := tex.Sample(0.5, 0.9); got != ColorRed {
		t.Errorf("v=0.9 sampled %v, want top row (red)", got)
	}
	if got := tex.Sample(0.5, 0.1); got != ColorGreen {
		t.Errorf("v=0.1 sampled %v, want bottom row (green)", got)
	}
}

func TestTextureWrapModes(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.SetPixel(0, 0, ColorRed)
	tex.SetPixel(1, 0, ColorGreen)

	if got := tex.Sample(1.25, 0.5); got != ColorRed {
		t.Errorf("repeat u=1.25 = %v, want red", got)
	}
	tex.WrapU = WrapClamp
	if got := tex.Sample(1.25, 0.5); got != ColorGreen {
		t.Errorf("clamp u=1.25 = %v, want green", got)
	}
	if got := tex.Sample(-3, 0.5); got != ColorRed {
		t.Errorf("clamp u=-3 = %v, want red", got)
	}
}

func TestTextureBilinear(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.SetPixel(0, 0, RGB(0, 0, 0))
	tex.SetPixel(1, 0, RGB(200, 200, 200))
	tex.FilterMode = FilterBilinear
	tex.WrapU = WrapClamp

	got := tex.Sample(0.5, 0.5)
	if got.R < 99 || got.R > 101 {
		t.Errorf("midpoint = %v, want ~100", got)
	}
}

func TestTextureRGBARoundTrip(t *testing.T) {
	tex := NewCheckerTexture(4, 3, 1, RGBA(10, 20, 30, 40), RGBA(50, 60, 70, 80))
	pix := tex.RGBA()
	if len(pix) != 4*3*4 {
		t.Fatalf("RGBA() length = %d", len(pix))
	}

	// Rows padded to a wider stride.
	const stride = 20
	padded := make([]byte, stride*3)
	for y := range 3 {
		copy(padded[y*stride:], pix[y*16:(y+1)*16])
	}
	back := NewTexture(4, 3)
	back.SetRGBA(padded, stride)
	for i := range tex.Pixels {
		if back.Pixels[i] != tex.Pixels[i] {
			t.Fatalf("pixel %d = %v, want %v", i, back.Pixels[i], tex.Pixels[i])
		}
	}
}

func TestTextureFromImageOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.NRGBA{R: 255, A: 255})
	src.Set(6, 5, color.NRGBA{B: 255, A: 255})

	tex := TextureFromImage(src)
	if tex.Width != 2 || tex.Height != 1 {
		t.Fatalf("size = %dx%d, want 2x1", tex.Width, tex.Height)
	}
	if tex.GetPixel(0, 0) != ColorRed || tex.GetPixel(1, 0) != RGB(0, 0, 255) {
		t.Errorf("pixels = %v", tex.Pixels)
	}
}

func TestLoadTextureBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	img.Set(2, 1, color.RGBA{G: 255, A: 255})

	path := filepath.Join(t.TempDir(), "tex.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width != 3 || tex.Height != 2 {
		t.Errorf("size = %dx%d, want 3x2", tex.Width, tex.Height)
	}
	if got := tex.GetPixel(2, 1); got.G != 255 {
		t.Errorf("pixel (2,1) = %v, want green", got)
	}
}

func TestLoadTextureMissing(t *testing.T) {
	if _, err := LoadTexture(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTextureResized(t *testing.T) {
	tex := NewCheckerTexture(8, 8, 4, ColorRed, ColorGreen)
	small := tex.Resized(2, 2)
	if small.Width != 2 || small.Height != 2 {
		t.Fatalf("size = %dx%d", small.Width, small.Height)
	}
	if small.GetPixel(0, 0) != ColorRed || small.GetPixel(1, 0) != ColorGreen {
		t.Errorf("resized pixels = %v", small.Pixels)
	}
}

func TestMultiplyColorSaturates(t *testing.T) {
	c := RGBA(200, 100, 10, 77)
	if got := MultiplyColor(c, 2); got != RGBA(255, 200, 20, 77) {
		t.Errorf("x2 = %v", got)
	}
	if got := MultiplyColor(c, -1); got != RGBA(0, 0, 0, 77) {
		t.Errorf("x-1 = %v", got)
	}
}
