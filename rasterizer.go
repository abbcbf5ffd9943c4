package cast2gif

// Rasterizer converts a cell grid into an indexed-color canvas using a
// fixed-size glyph font. It holds no mutable state and may be shared across
// goroutines as long as the font allows concurrent glyph lookups.
type Rasterizer struct {
	font Font
}

// NewRasterizer creates a rasterizer. A nil font selects the default 7x13 face.
func NewRasterizer(font Font) *Rasterizer {
	if font == nil {
		font = DefaultFont()
	}
	return &Rasterizer{font: font}
}

// Font returns the font the rasterizer draws with.
func (r *Rasterizer) Font() Font {
	return r.font
}

// CanvasSize returns the pixel dimensions of a cols x rows grid.
func (r *Rasterizer) CanvasSize(cols, rows int) (width, height int) {
	return cols * r.font.CellWidth(), rows * r.font.CellHeight()
}

// RenderGrid rasterizes the grid into a fresh canvas.
func (r *Rasterizer) RenderGrid(grid *Grid) *Canvas {
	width, height := r.CanvasSize(grid.Width(), grid.Height())
	canvas := NewCanvas(width, height)

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			r.renderCell(grid.Cell(x, y), x, y, canvas, false)
		}
	}

	return canvas
}

// RenderGridWithCursor rasterizes the grid with the cell at (cursorX,
// cursorY) drawn in swapped colors. A cell that is already reverse-video
// returns to its unreversed appearance under the cursor.
func (r *Rasterizer) RenderGridWithCursor(grid *Grid, cursorX, cursorY int) *Canvas {
	width, height := r.CanvasSize(grid.Width(), grid.Height())
	canvas := NewCanvas(width, height)

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			inverted := x == cursorX && y == cursorY
			r.renderCell(grid.Cell(x, y), x, y, canvas, inverted)
		}
	}

	return canvas
}

func (r *Rasterizer) renderCell(cell *Cell, col, row int, canvas *Canvas, inverted bool) {
	if cell == nil {
		return
	}

	cw := r.font.CellWidth()
	ch := r.font.CellHeight()
	x := col * cw
	y := row * ch

	fg := cell.Fg
	bg := cell.Bg
	if cell.HasFlag(CellFlagReverse) != inverted {
		fg, bg = bg, fg
	}

	if cell.IsBlank() {
		for gy := 0; gy < ch; gy++ {
			for gx := 0; gx < cw; gx++ {
				canvas.SetPixel(x+gx, y+gy, bg)
			}
		}
		return
	}

	glyph := r.font.Glyph(cell.Char)
	for gy := 0; gy < ch; gy++ {
		for gx := 0; gx < cw; gx++ {
			color := bg
			if glyph[gy*cw+gx] >= 128 {
				color = fg
			}
			canvas.SetPixel(x+gx, y+gy, color)
		}
	}
}

// RenderString stamps text onto the canvas at (x, y) in the given colors,
// scaled by size using nearest-neighbor sampling. A negative x centers the
// text horizontally. Used for theme title banners.
func (r *Rasterizer) RenderString(canvas *Canvas, x, y int, text string, fg, bg uint8, size float64) {
	if size <= 0 {
		size = 1
	}

	cw := r.font.CellWidth()
	ch := r.font.CellHeight()
	scaledW := int(float64(cw) * size)
	scaledH := int(float64(ch) * size)

	if x < 0 {
		x = (canvas.Width() - StringWidth(text)*scaledW) / 2
	}

	for _, ru := range text {
		glyph := r.font.Glyph(ru)
		for gy := 0; gy < scaledH; gy++ {
			sy := int(float64(gy) / size)
			for gx := 0; gx < scaledW; gx++ {
				sx := int(float64(gx) / size)
				color := bg
				if sy < ch && sx < cw && glyph[sy*cw+sx] >= 128 {
					color = fg
				}
				canvas.SetPixel(x+gx, y+gy, color)
			}
		}
		x += scaledW * runeWidth(ru)
	}
}
