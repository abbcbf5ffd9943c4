package cast2gif

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font supplies fixed-size glyph bitmaps for the rasterizer. Glyph returns
// one intensity byte per pixel (row-major, CellWidth x CellHeight); the
// rasterizer treats intensities >= 128 as foreground.
//
// Implementations must be safe for concurrent Glyph calls: the driver may
// rasterize several snapshots in parallel.
type Font interface {
	CellWidth() int
	CellHeight() int
	Glyph(r rune) []uint8
}

// FaceFont adapts a golang.org/x/image font.Face into the Font interface.
// Rendered glyphs are cached per rune.
type FaceFont struct {
	face   font.Face
	width  int
	height int
	ascent int

	mu    sync.Mutex
	cache map[rune][]uint8
}

// NewFaceFont wraps a font face, deriving the cell size from the face
// metrics and the advance of 'M'.
func NewFaceFont(face font.Face) *FaceFont {
	metrics := face.Metrics()

	width := 0
	if adv, ok := face.GlyphAdvance('M'); ok {
		width = adv.Ceil()
	}
	if width == 0 {
		width = 7
	}

	height := metrics.Height.Ceil()
	if height == 0 {
		height = 13
	}

	return &FaceFont{
		face:   face,
		width:  width,
		height: height,
		ascent: metrics.Ascent.Ceil(),
		cache:  make(map[rune][]uint8),
	}
}

// DefaultFont returns the embedded 7x13 bitmap face.
func DefaultFont() *FaceFont {
	return NewFaceFont(basicfont.Face7x13)
}

// CellWidth returns the glyph cell width in pixels.
func (f *FaceFont) CellWidth() int {
	return f.width
}

// CellHeight returns the glyph cell height in pixels.
func (f *FaceFont) CellHeight() int {
	return f.height
}

// Glyph renders the rune into an intensity bitmap, caching the result.
// Runes the face cannot draw come back as an empty cell.
func (f *FaceFont) Glyph(r rune) []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if glyph, ok := f.cache[r]; ok {
		return glyph
	}

	dst := image.NewGray(image.Rect(0, 0, f.width, f.height))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: f.face,
		Dot:  fixed.P(0, f.ascent),
	}
	d.DrawString(string(r))

	glyph := make([]uint8, len(dst.Pix))
	copy(glyph, dst.Pix)
	f.cache[r] = glyph
	return glyph
}

// LoadFontFile loads a TrueType or OpenType font from a file path at the
// given size in points (72 DPI, so points equal pixels).
func LoadFontFile(path string, size float64) (*FaceFont, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open font: %w", err)
	}
	defer file.Close()

	return LoadFontFromReader(file, size)
}

// LoadFontFromReader loads a TrueType or OpenType font from an io.Reader.
func LoadFontFromReader(r io.Reader, size float64) (*FaceFont, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return LoadFontFromBytes(data, size)
}

// LoadFontFromBytes loads a TrueType or OpenType font from raw bytes.
func LoadFontFromBytes(data []byte, size float64) (*FaceFont, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	return NewFaceFont(face), nil
}
