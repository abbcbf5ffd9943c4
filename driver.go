package cast2gif

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ConfigError reports an invalid rendering configuration. It is surfaced
// before the frame loop begins.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// RenderOptions configures a rendering run.
type RenderOptions struct {
	// FPS is the output frame rate, 1 to 100.
	FPS int
	// Speed divides every event timestamp (2.0 plays twice as fast).
	Speed float64
	// NoGaps compresses idle periods longer than one second down to one second.
	NoGaps bool
	// Trailer appends 1.5 seconds of final-state frames before the loop restarts.
	Trailer bool
	// LoopCount is the GIF loop count; 0 loops forever.
	LoopCount uint16

	// Columns and Rows override the geometry from the input metadata.
	Columns int
	Rows    int

	// Autowrap enables wrapping at the last column.
	Autowrap bool
	// HideCursor suppresses the cursor overlay even when the recorded
	// session made the cursor visible.
	HideCursor bool

	// Title is stamped on every frame when the theme carries a title config.
	Title string

	// DefaultForeground and DefaultBackground are the initial cell colors.
	// Consulted only when Theme is nil; a theme carries its own defaults.
	DefaultForeground uint8
	DefaultBackground uint8

	// Theme controls colors, padding, and the title banner. Nil uses the
	// default theme with the colors above.
	Theme *Theme

	// Font supplies glyphs. Nil uses the embedded 7x13 face.
	Font Font

	// Parallelism caps how many frames rasterize concurrently.
	// 0 uses GOMAXPROCS. Encoding order is always frame order.
	Parallelism int

	// Progress, if set, is called after each encoded frame.
	Progress func(frame, total int)
}

// DefaultRenderOptions returns the standard configuration: 10 fps, real-time
// speed, infinite loop, autowrap on.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		FPS:               10,
		Speed:             1.0,
		Autowrap:          true,
		DefaultForeground: 7,
		DefaultBackground: 0,
	}
}

func (o *RenderOptions) validate() error {
	if o.FPS < 1 || o.FPS > 100 {
		return &ConfigError{Reason: fmt.Sprintf("fps must be between 1 and 100, got %d", o.FPS)}
	}
	if o.Speed <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("speed must be positive, got %g", o.Speed)}
	}
	return nil
}

// frameSnapshot captures everything one frame needs from the emulator at
// its tick: the grid copy and the cursor to overlay.
type frameSnapshot struct {
	grid       *Grid
	cursorX    int
	cursorY    int
	showCursor bool
}

// Render replays the recorded events through the emulator, samples the grid
// at the configured frame rate, rasterizes each snapshot, and streams the
// frames into a GIF written to out.
//
// The event feed is strictly sequential; rasterization of captured
// snapshots may run in parallel, but frames are always encoded in order.
func Render(src InputSource, out io.Writer, opts RenderOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	events, err := src.ReadEvents()
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	meta := src.Metadata()

	width := opts.Columns
	if width <= 0 {
		width = meta.Width
	}
	if width <= 0 {
		width = DefaultCols
	}
	height := opts.Rows
	if height <= 0 {
		height = meta.Height
	}
	if height <= 0 {
		height = DefaultRows
	}

	if opts.Speed != 1.0 {
		for i := range events {
			events[i].Timestamp /= opts.Speed
		}
	}
	if opts.NoGaps {
		removeGaps(events)
	}

	duration := 0.0
	if len(events) > 0 {
		duration = events[len(events)-1].Timestamp
	}

	frameCount := int(math.Ceil(duration * float64(opts.FPS)))
	if frameCount < 1 {
		frameCount = 1
	}
	trailerFrames := 0
	if opts.Trailer {
		trailerFrames = int(math.Round(1.5 * float64(opts.FPS)))
	}
	totalFrames := frameCount + trailerFrames

	frameDuration := 1.0 / float64(opts.FPS)
	delayCS := uint16(math.Round(100.0 / float64(opts.FPS)))

	theme := opts.Theme
	if theme == nil {
		theme = DefaultTheme()
		theme.DefaultForeground = opts.DefaultForeground
		theme.DefaultBackground = opts.DefaultBackground
		theme.Background = opts.DefaultBackground
	}
	palette := theme.Palette()
	if palette == nil {
		palette = DefaultPalette()
	}

	emulator := NewEmulator(width, height,
		WithAutowrap(opts.Autowrap),
		WithDefaultColors(theme.DefaultForeground, theme.DefaultBackground),
		WithPalette(palette),
	)
	rasterizer := NewRasterizer(opts.Font)

	termWidth, termHeight := rasterizer.CanvasSize(width, height)
	padLeft, padTop, padRight, padBottom := 0, 0, 0, 0
	if theme.Padding != nil {
		padLeft = theme.Padding.Left
		padTop = theme.Padding.Top
		padRight = theme.Padding.Right
		padBottom = theme.Padding.Bottom
	}
	pixelWidth := termWidth + padLeft + padRight
	pixelHeight := termHeight + padTop + padBottom

	encoder, err := NewGifEncoder(out, pixelWidth, pixelHeight, palette, opts.LoopCount)
	if err != nil {
		return err
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	composite := func(snap frameSnapshot) *Canvas {
		var term *Canvas
		if snap.showCursor {
			term = rasterizer.RenderGridWithCursor(snap.grid, snap.cursorX, snap.cursorY)
		} else {
			term = rasterizer.RenderGrid(snap.grid)
		}

		if pixelWidth == termWidth && pixelHeight == termHeight && opts.Title == "" {
			return term
		}

		canvas := NewCanvas(pixelWidth, pixelHeight)
		canvas.Fill(theme.Background)
		for y := 0; y < termHeight; y++ {
			for x := 0; x < termWidth; x++ {
				if color, ok := term.Pixel(x, y); ok {
					canvas.SetPixel(x+padLeft, y+padTop, color)
				}
			}
		}

		if opts.Title != "" && theme.Title != nil {
			rasterizer.RenderString(canvas, theme.Title.X, theme.Title.Y, opts.Title,
				theme.Title.Foreground, theme.Title.Background, theme.Title.FontSize)
		}

		return canvas
	}

	eventIdx := 0
	encoded := 0
	for frame := 0; frame < totalFrames; frame += parallelism {
		batch := parallelism
		if frame+batch > totalFrames {
			batch = totalFrames - frame
		}

		// Capture snapshots sequentially: event order is part of the
		// emulator's contract.
		snapshots := make([]frameSnapshot, batch)
		for i := 0; i < batch; i++ {
			frameNum := frame + i
			currentTime := float64(frameNum) * frameDuration

			if frameNum < frameCount {
				for eventIdx < len(events) && events[eventIdx].Timestamp <= currentTime {
					if events[eventIdx].Kind == OutputKind {
						emulator.FeedBytes(events[eventIdx].Data)
					}
					eventIdx++
				}
			}

			state := emulator.State()
			snapshots[i] = frameSnapshot{
				grid:       emulator.Snapshot(),
				cursorX:    state.CursorX,
				cursorY:    state.CursorY,
				showCursor: !opts.HideCursor && state.DisplayCursor,
			}
		}

		canvases := make([]*Canvas, batch)
		var group errgroup.Group
		for i := range snapshots {
			group.Go(func() error {
				canvases[i] = composite(snapshots[i])
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}

		for _, canvas := range canvases {
			if err := encoder.AddFrame(canvas, delayCS); err != nil {
				return fmt.Errorf("encode frame %d: %w", encoded, err)
			}
			encoded++
			if opts.Progress != nil {
				opts.Progress(encoded, totalFrames)
			}
		}
	}

	return encoder.Finish()
}

// removeGaps compresses idle periods longer than one second down to exactly
// one second by accumulating an offset over the event list.
func removeGaps(events []CastEvent) {
	prev := 0.0
	offset := 0.0
	for i := range events {
		original := events[i].Timestamp
		gap := original - prev
		if gap > 1.0 {
			offset += gap - 1.0
		}
		events[i].Timestamp = original - offset
		prev = original
	}
}
