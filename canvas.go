package cast2gif

// Canvas is a frame of palette indices in row-major order. It lives for a
// single frame and is discarded after encoding.
type Canvas struct {
	data   []uint8
	width  int
	height int
}

// NewCanvas creates a canvas filled with palette index 0.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		data:   make([]uint8, width*height),
		width:  width,
		height: height,
	}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.height
}

// Data returns the backing pixel slice in row-major order.
func (c *Canvas) Data() []uint8 {
	return c.data
}

// Fill sets every pixel to the given palette index.
func (c *Canvas) Fill(index uint8) {
	for i := range c.data {
		c.data[i] = index
	}
}

// SetPixel writes a palette index at (x, y). Out-of-bounds writes are ignored.
func (c *Canvas) SetPixel(x, y int, index uint8) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.data[y*c.width+x] = index
}

// Pixel returns the palette index at (x, y) and whether the position is in bounds.
func (c *Canvas) Pixel(x, y int) (uint8, bool) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return 0, false
	}
	return c.data[y*c.width+x], true
}
