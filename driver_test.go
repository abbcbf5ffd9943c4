package cast2gif

import (
	"bytes"
	"image/gif"
	"math"
	"strings"
	"testing"
)

type sliceSource struct {
	events []CastEvent
	meta   Metadata
}

func (s *sliceSource) ReadEvents() ([]CastEvent, error) {
	return append([]CastEvent(nil), s.events...), nil
}

func (s *sliceSource) Metadata() Metadata {
	return s.meta
}

func renderToGif(t *testing.T, src InputSource, opts RenderOptions) *gif.GIF {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(src, &buf, opts); err != nil {
		t.Fatal(err)
	}
	decoded, err := gif.DecodeAll(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode rendered gif: %v", err)
	}
	return decoded
}

func TestRenderValidatesConfig(t *testing.T) {
	src := &sliceSource{meta: Metadata{Width: 4, Height: 2}}

	for _, opts := range []RenderOptions{
		{FPS: 0, Speed: 1},
		{FPS: 101, Speed: 1},
		{FPS: 10, Speed: 0},
		{FPS: 10, Speed: -2},
	} {
		err := Render(src, &bytes.Buffer{}, opts)
		if err == nil {
			t.Errorf("expected config error for %+v", opts)
			continue
		}
		if _, ok := err.(*ConfigError); !ok {
			t.Errorf("expected *ConfigError, got %T: %v", err, err)
		}
	}
}

func TestRenderEmptyEvents(t *testing.T) {
	src := &sliceSource{meta: Metadata{Width: 4, Height: 2}}

	opts := DefaultRenderOptions()
	decoded := renderToGif(t, src, opts)

	if len(decoded.Image) != 1 {
		t.Errorf("expected a single blank frame, got %d", len(decoded.Image))
	}
}

func TestRenderFrameCount(t *testing.T) {
	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.0, Kind: OutputKind, Data: []byte("a")},
			{Timestamp: 0.95, Kind: OutputKind, Data: []byte("b")},
		},
	}

	opts := DefaultRenderOptions()
	decoded := renderToGif(t, src, opts)

	// duration 0.95s at 10 fps -> ceil(9.5) = 10 frames.
	if len(decoded.Image) != 10 {
		t.Errorf("expected 10 frames, got %d", len(decoded.Image))
	}

	for i, delay := range decoded.Delay {
		if delay != 10 {
			t.Errorf("frame %d: expected delay 10, got %d", i, delay)
		}
	}
}

func TestRenderTrailerFrames(t *testing.T) {
	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.5, Kind: OutputKind, Data: []byte("x")},
		},
	}

	opts := DefaultRenderOptions()
	opts.Trailer = true
	decoded := renderToGif(t, src, opts)

	// ceil(0.5*10)=5 frames plus round(1.5*10)=15 trailer frames.
	if len(decoded.Image) != 20 {
		t.Errorf("expected 20 frames, got %d", len(decoded.Image))
	}
}

// Two frame ticks with no bytes in between produce a full frame then a
// 1x1 stub.
func TestRenderIdenticalFramesBecomeStubs(t *testing.T) {
	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.0, Kind: OutputKind, Data: []byte("hi")},
			{Timestamp: 0.3, Kind: OutputKind, Data: []byte("")},
		},
	}

	opts := DefaultRenderOptions()
	decoded := renderToGif(t, src, opts)

	first := decoded.Image[0].Bounds()
	if first.Dx() == 1 && first.Dy() == 1 {
		t.Error("expected a full first frame")
	}
	second := decoded.Image[1].Bounds()
	if second.Dx() != 1 || second.Dy() != 1 {
		t.Errorf("expected 1x1 stub for unchanged frame, got %v", second)
	}
}

func TestRenderIgnoresInputEvents(t *testing.T) {
	withInput := &sliceSource{
		meta: Metadata{Width: 8, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.0, Kind: InputKind, Data: []byte("typed")},
			{Timestamp: 0.0, Kind: OutputKind, Data: []byte("out")},
		},
	}
	outputOnly := &sliceSource{
		meta: Metadata{Width: 8, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.0, Kind: OutputKind, Data: []byte("out")},
		},
	}

	opts := DefaultRenderOptions()
	a := renderToGif(t, withInput, opts)
	b := renderToGif(t, outputOnly, opts)

	if !bytes.Equal(a.Image[0].Pix, b.Image[0].Pix) {
		t.Error("input events leaked into the rendered output")
	}
}

func TestRenderParallelMatchesSequential(t *testing.T) {
	events := []CastEvent{
		{Timestamp: 0.0, Kind: OutputKind, Data: []byte("one\r\n")},
		{Timestamp: 0.2, Kind: OutputKind, Data: []byte("\x1b[31mtwo\x1b[0m\r\n")},
		{Timestamp: 0.4, Kind: OutputKind, Data: []byte("three")},
	}
	meta := Metadata{Width: 12, Height: 4}

	sequential := DefaultRenderOptions()
	sequential.Parallelism = 1
	parallel := DefaultRenderOptions()
	parallel.Parallelism = 4

	var seqBuf, parBuf bytes.Buffer
	if err := Render(&sliceSource{events: events, meta: meta}, &seqBuf, sequential); err != nil {
		t.Fatal(err)
	}
	if err := Render(&sliceSource{events: events, meta: meta}, &parBuf, parallel); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(seqBuf.Bytes(), parBuf.Bytes()) {
		t.Error("parallel rasterization changed the output stream")
	}
}

func TestRenderProgressCallback(t *testing.T) {
	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.2, Kind: OutputKind, Data: []byte("x")},
		},
	}

	var calls []int
	opts := DefaultRenderOptions()
	opts.Progress = func(frame, total int) {
		calls = append(calls, frame)
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	}
	renderToGif(t, src, opts)

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("expected progress calls [1 2], got %v", calls)
	}
}

func TestRemoveGaps(t *testing.T) {
	events := []CastEvent{
		{Timestamp: 0.5},
		{Timestamp: 5.5},
		{Timestamp: 6.0},
		{Timestamp: 20.0},
	}
	removeGaps(events)

	want := []float64{0.5, 1.5, 2.0, 3.0}
	for i, ev := range events {
		if math.Abs(ev.Timestamp-want[i]) > 1e-9 {
			t.Errorf("event %d: expected %.2f, got %.2f", i, want[i], ev.Timestamp)
		}
	}
}

func TestRemoveGapsKeepsShortGaps(t *testing.T) {
	events := []CastEvent{
		{Timestamp: 0.1},
		{Timestamp: 0.9},
		{Timestamp: 1.8},
	}
	removeGaps(events)

	want := []float64{0.1, 0.9, 1.8}
	for i, ev := range events {
		if math.Abs(ev.Timestamp-want[i]) > 1e-9 {
			t.Errorf("event %d: expected %.2f, got %.2f", i, want[i], ev.Timestamp)
		}
	}
}

func TestRenderSpeed(t *testing.T) {
	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 2.0, Kind: OutputKind, Data: []byte("x")},
		},
	}

	opts := DefaultRenderOptions()
	opts.Speed = 2.0
	decoded := renderToGif(t, src, opts)

	// 2s at double speed is 1s -> 10 frames.
	if len(decoded.Image) != 10 {
		t.Errorf("expected 10 frames, got %d", len(decoded.Image))
	}
}

func TestRenderPaddingAndTitle(t *testing.T) {
	theme := DefaultTheme()
	theme.Background = 4
	theme.Padding = &Padding{Left: 3, Top: 2, Right: 1, Bottom: 1}
	theme.Title = &TitleConfig{Foreground: 15, Background: 4, X: 0, Y: 0, FontSize: 1}

	src := &sliceSource{
		meta: Metadata{Width: 4, Height: 2},
		events: []CastEvent{
			{Timestamp: 0.0, Kind: OutputKind, Data: []byte("hi")},
		},
	}

	opts := DefaultRenderOptions()
	opts.Theme = theme
	opts.Title = "t"
	decoded := renderToGif(t, src, opts)

	font := DefaultFont()
	wantW := 4*font.CellWidth() + 3 + 1
	wantH := 2*font.CellHeight() + 2 + 1
	cfg := decoded.Config
	if cfg.Width != wantW || cfg.Height != wantH {
		t.Errorf("expected %dx%d canvas, got %dx%d", wantW, wantH, cfg.Width, cfg.Height)
	}
}

func TestRenderEndToEndScenario(t *testing.T) {
	// A small but real session: colors, cursor motion, and a clear.
	cast := strings.Join([]string{
		`{"version": 2, "width": 10, "height": 3}`,
		`[0.0, "o", "Hi\r\n"]`,
		`[0.15, "o", "\u001b[31mred\u001b[0m"]`,
		`[0.3, "o", "\u001b[2J\u001b[HX"]`,
	}, "\n")

	reader, err := NewAsciicastReader(strings.NewReader(cast))
	if err != nil {
		t.Fatal(err)
	}

	decoded := renderToGif(t, reader, DefaultRenderOptions())

	// duration 0.3s at 10 fps -> 3 frames.
	if len(decoded.Image) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(decoded.Image))
	}

	font := DefaultFont()
	if decoded.Config.Width != 10*font.CellWidth() {
		t.Errorf("expected width %d, got %d", 10*font.CellWidth(), decoded.Config.Width)
	}
}
