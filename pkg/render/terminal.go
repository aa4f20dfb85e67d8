package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack  = color.RGBA{0, 0, 0, 255}
	ColorWhite  = color.RGBA{255, 255, 255, 255}
	ColorRed    = color.RGBA{255, 0, 0, 255}
	ColorGreen  = color.RGBA{0, 255, 0, 255}
	ColorYellow = color.RGBA{255, 255, 0, 255}
	ColorCyan   = color.RGBA{0, 255, 255, 255}
	ColorGray   = color.RGBA{128, 128, 128, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA creates a color from RGBA values.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}

// HUDLine is one row of overlay text. Row counts from the top when
// non-negative and from the bottom when negative (-1 is the last row).
type HUDLine struct {
	Row  int
	Text string
	Fg   Color
}

// Presenter maps a framebuffer onto terminal cells. Each cell shows two
// framebuffer rows using the upper half block, fg=top and bg=bottom.
type Presenter struct {
	Columns, Rows int
	HUD           []HUDLine
	HUDBackground Color
}

// NewPresenter creates a presenter for a terminal of the given size.
func NewPresenter(columns, rows int) *Presenter {
	return &Presenter{
		Columns:       columns,
		Rows:          rows,
		HUDBackground: ColorBlack,
	}
}

// FramebufferSize returns the framebuffer dimensions that fill the terminal.
func (p *Presenter) FramebufferSize() (width, height int) {
	return p.Columns, p.Rows * 2
}

// Present draws fb and the HUD onto scr.
func (p *Presenter) Present(scr uv.Screen, fb *Framebuffer) {
	area := uv.Rect(0, 0, p.Columns, p.Rows)
	fb.Draw(scr, area)
	for _, line := range p.HUD {
		p.drawText(scr, line)
	}
}

func (p *Presenter) drawText(scr uv.Screen, line HUDLine) {
	row := line.Row
	if row < 0 {
		row += p.Rows
	}
	if row < 0 || row >= p.Rows {
		return
	}
	col := 0
	for _, r := range line.Text {
		if col >= p.Columns {
			return
		}
		scr.SetCell(col, row, &uv.Cell{
			Content: string(r),
			Width:   1,
			Style:   uv.Style{Fg: line.Fg, Bg: p.HUDBackground},
		})
		col++
	}
}

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. The framebuffer height should be 2x the terminal height.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(col, topY)),
					Bg: cellColor(fb.GetPixel(col, topY+1)),
				},
			})
		}
	}
}

// cellColor maps fully transparent pixels to the terminal default color.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
