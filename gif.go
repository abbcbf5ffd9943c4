package cast2gif

import (
	"bufio"
	"compress/lzw"
	"fmt"
	"io"
)

// GifEncoder writes a streaming animated GIF89a: a global color table, a
// Netscape loop extension, and one image per AddFrame call covering only
// the region that changed since the previous frame. Frames use "do not
// dispose" so each image composes over the last.
type GifEncoder struct {
	w       *bufio.Writer
	width   int
	height  int
	palette *Palette

	// previous holds the last full canvas for diffing.
	previous []uint8
}

// NewGifEncoder writes the GIF header, logical screen descriptor, global
// color table, and loop extension. A loopCount of 0 loops forever.
func NewGifEncoder(w io.Writer, width, height int, palette *Palette, loopCount uint16) (*GifEncoder, error) {
	if palette == nil {
		palette = DefaultPalette()
	}

	e := &GifEncoder{
		w:       bufio.NewWriter(w),
		width:   width,
		height:  height,
		palette: palette,
	}

	if _, err := e.w.WriteString("GIF89a"); err != nil {
		return nil, fmt.Errorf("write gif header: %w", err)
	}

	// Logical screen descriptor: global table present, 8 bits per channel,
	// 256 entries.
	e.writeUint16(uint16(width))
	e.writeUint16(uint16(height))
	e.w.WriteByte(0xF7)
	e.w.WriteByte(0x00) // background color index
	e.w.WriteByte(0x00) // pixel aspect ratio

	if _, err := e.w.Write(palette.Colors()); err != nil {
		return nil, fmt.Errorf("write global color table: %w", err)
	}

	// Netscape 2.0 application extension carrying the loop count.
	e.w.Write([]byte{0x21, 0xFF, 0x0B})
	e.w.WriteString("NETSCAPE2.0")
	e.w.Write([]byte{0x03, 0x01})
	e.writeUint16(loopCount)
	e.w.WriteByte(0x00)

	return e, nil
}

// AddFrame appends one frame with the given delay in centiseconds. Only the
// tightest changed rectangle is emitted; a frame identical to the previous
// one becomes a 1x1 stub that preserves timing.
func (e *GifEncoder) AddFrame(canvas *Canvas, delayCS uint16) error {
	data := canvas.Data()

	var left, top, width, height int
	var frameData []uint8

	if e.previous == nil {
		left, top, width, height = 0, 0, e.width, e.height
		frameData = make([]uint8, len(data))
		copy(frameData, data)
	} else {
		left, top, width, height, frameData = e.computeDiff(e.previous, data)
	}

	if err := e.writeFrame(left, top, width, height, frameData, delayCS); err != nil {
		return err
	}

	if e.previous == nil {
		e.previous = make([]uint8, len(data))
	}
	copy(e.previous, data)

	return nil
}

// Finish writes the GIF trailer and flushes the stream.
func (e *GifEncoder) Finish() error {
	if err := e.w.WriteByte(0x3B); err != nil {
		return fmt.Errorf("write gif trailer: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flush gif stream: %w", err)
	}
	return nil
}

// computeDiff returns the bounding box of pixels that differ between the
// previous and current canvas, with the rectangle's pixels extracted. When
// nothing changed it returns a 1x1 stub reusing the first pixel.
func (e *GifEncoder) computeDiff(prev, curr []uint8) (left, top, width, height int, frameData []uint8) {
	minX, minY := e.width, e.height
	maxX, maxY := 0, 0
	changed := false

	for y := 0; y < e.height; y++ {
		row := y * e.width
		for x := 0; x < e.width; x++ {
			if prev[row+x] != curr[row+x] {
				changed = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if !changed {
		return 0, 0, 1, 1, []uint8{curr[0]}
	}

	width = maxX - minX + 1
	height = maxY - minY + 1
	frameData = make([]uint8, 0, width*height)
	for y := minY; y <= maxY; y++ {
		row := y * e.width
		frameData = append(frameData, curr[row+minX:row+maxX+1]...)
	}

	return minX, minY, width, height, frameData
}

// buildLocalPalette collects the indices present in frameData in ascending
// order and remaps the data onto contiguous local indices.
func buildLocalPalette(frameData []uint8) (used []uint8, remapped []uint8) {
	var present [256]bool
	for _, idx := range frameData {
		present[idx] = true
	}

	var mapping [256]uint8
	for i := 0; i < 256; i++ {
		if present[i] {
			mapping[i] = uint8(len(used))
			used = append(used, uint8(i))
		}
	}

	remapped = make([]uint8, len(frameData))
	for i, idx := range frameData {
		remapped[i] = mapping[idx]
	}

	return used, remapped
}

func (e *GifEncoder) writeFrame(left, top, width, height int, frameData []uint8, delayCS uint16) error {
	used, remapped := buildLocalPalette(frameData)

	// Local color table size: 2^(sizeBits+1) entries, enough for every
	// used index.
	sizeBits := 0
	for (1 << (sizeBits + 1)) < len(used) {
		sizeBits++
	}
	tableEntries := 1 << (sizeBits + 1)

	litWidth := sizeBits + 1
	if litWidth < 2 {
		litWidth = 2
	}

	// Graphic control extension: delay plus "do not dispose".
	e.w.Write([]byte{0x21, 0xF9, 0x04, 0x04})
	e.writeUint16(delayCS)
	e.w.Write([]byte{0x00, 0x00})

	// Image descriptor with a local color table.
	e.w.WriteByte(0x2C)
	e.writeUint16(uint16(left))
	e.writeUint16(uint16(top))
	e.writeUint16(uint16(width))
	e.writeUint16(uint16(height))
	e.w.WriteByte(0x80 | uint8(sizeBits))

	for _, idx := range used {
		r, g, b := e.palette.RGB(idx)
		e.w.Write([]byte{r, g, b})
	}
	for i := len(used); i < tableEntries; i++ {
		e.w.Write([]byte{0, 0, 0})
	}

	// LZW-compressed pixel data in 255-byte sub-blocks.
	if err := e.w.WriteByte(uint8(litWidth)); err != nil {
		return fmt.Errorf("write lzw code size: %w", err)
	}

	blocks := &blockWriter{w: e.w}
	lzww := lzw.NewWriter(blocks, lzw.LSB, litWidth)
	if _, err := lzww.Write(remapped); err != nil {
		return fmt.Errorf("compress frame: %w", err)
	}
	if err := lzww.Close(); err != nil {
		return fmt.Errorf("finish frame compression: %w", err)
	}
	if err := blocks.close(); err != nil {
		return fmt.Errorf("terminate frame blocks: %w", err)
	}

	return nil
}

func (e *GifEncoder) writeUint16(v uint16) {
	e.w.WriteByte(uint8(v))
	e.w.WriteByte(uint8(v >> 8))
}

// blockWriter chunks a byte stream into GIF data sub-blocks of at most 255
// bytes, each preceded by its length, and terminates with a zero block.
type blockWriter struct {
	w   *bufio.Writer
	buf [255]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		space := len(b.buf) - b.n
		if space == 0 {
			if err := b.flush(); err != nil {
				return written, err
			}
			space = len(b.buf)
		}
		n := copy(b.buf[b.n:], p)
		b.n += n
		p = p[n:]
		written += n
	}
	return written, nil
}

func (b *blockWriter) flush() error {
	if b.n == 0 {
		return nil
	}
	if err := b.w.WriteByte(uint8(b.n)); err != nil {
		return err
	}
	if _, err := b.w.Write(b.buf[:b.n]); err != nil {
		return err
	}
	b.n = 0
	return nil
}

func (b *blockWriter) close() error {
	if err := b.flush(); err != nil {
		return err
	}
	return b.w.WriteByte(0x00)
}
