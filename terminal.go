package cast2gif

import "strings"

const (
	// DefaultRows is the default number of terminal rows.
	DefaultRows = 24
	// DefaultCols is the default number of terminal columns.
	DefaultCols = 80
)

// TerminalEmulator applies a stream of parsed events to a cell grid with
// xterm-subset semantics. It owns a main and an alternate (grid, state)
// pair; DEC private mode 1049 swaps between them.
//
// The emulator never fails: malformed or unrecognized escapes are ignored
// and out-of-range color parameters fall back to defaults.
type TerminalEmulator struct {
	grid  *Grid
	state *TerminalState

	altGrid  *Grid
	altState *TerminalState

	// altScreen is true while the alternate pair is active.
	altScreen bool

	// extra buffers a partial escape sequence carried between feeds.
	extra string

	palette *Palette
}

// EmulatorOption configures a TerminalEmulator during construction.
type EmulatorOption func(*TerminalEmulator)

// WithAutowrap enables or disables automatic line wrapping at the last column.
// Default is enabled.
func WithAutowrap(enabled bool) EmulatorOption {
	return func(t *TerminalEmulator) {
		t.state.Autowrap = enabled
		t.altState.Autowrap = enabled
	}
}

// WithDefaultColors sets the default foreground and background palette indices.
func WithDefaultColors(fg, bg uint8) EmulatorOption {
	return func(t *TerminalEmulator) {
		for _, s := range []*TerminalState{t.state, t.altState} {
			s.Foreground = fg
			s.Background = bg
			s.DefaultForeground = fg
			s.DefaultBackground = bg
		}
		t.grid.Clear(fg, bg)
		t.altGrid.Clear(fg, bg)
	}
}

// WithPalette sets the palette used to resolve truecolor SGR parameters.
// Default is the standard xterm palette.
func WithPalette(p *Palette) EmulatorOption {
	return func(t *TerminalEmulator) {
		t.palette = p
	}
}

// WithLineMode sets the line discipline. Default is linux (LF implies CR).
func WithLineMode(mode LineMode) EmulatorOption {
	return func(t *TerminalEmulator) {
		t.state.Mode = mode
		t.altState.Mode = mode
	}
}

// NewEmulator creates an emulator with a width x height grid.
// Dimensions <= 0 are replaced with the 80x24 defaults.
func NewEmulator(width, height int, opts ...EmulatorOption) *TerminalEmulator {
	if width <= 0 {
		width = DefaultCols
	}
	if height <= 0 {
		height = DefaultRows
	}

	t := &TerminalEmulator{
		grid:     NewGrid(width, height, 7, 0),
		state:    NewTerminalState(width, height, 7, 0),
		altGrid:  NewGrid(width, height, 7, 0),
		altState: NewTerminalState(width, height, 7, 0),
		palette:  DefaultPalette(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Grid returns the active grid.
func (t *TerminalEmulator) Grid() *Grid {
	return t.grid
}

// State returns the active terminal state.
func (t *TerminalEmulator) State() *TerminalState {
	return t.state
}

// Snapshot returns an independent copy of the active grid.
func (t *TerminalEmulator) Snapshot() *Grid {
	return t.grid.Clone()
}

// Width returns the grid width in character columns.
func (t *TerminalEmulator) Width() int {
	return t.grid.Width()
}

// Height returns the grid height in character rows.
func (t *TerminalEmulator) Height() int {
	return t.grid.Height()
}

// IsAlternateScreen returns true if the alternate pair is currently active.
func (t *TerminalEmulator) IsAlternateScreen() bool {
	return t.altScreen
}

// FeedBytes parses raw terminal output and applies it to the grid. Input is
// decoded as UTF-8 with lossy replacement; an incomplete trailing escape is
// buffered and retried on the next call.
func (t *TerminalEmulator) FeedBytes(data []byte) {
	text := strings.ToValidUTF8(string(data), "�")
	full := t.extra + text

	events, consumed := Parse(full)
	for _, ev := range events {
		switch e := ev.(type) {
		case Text:
			t.renderText(e.Runes)
		case Command:
			t.processCommand(e)
		}
	}

	t.extra = full[consumed:]
}

// Write implements io.Writer over FeedBytes.
func (t *TerminalEmulator) Write(data []byte) (int, error) {
	t.FeedBytes(data)
	return len(data), nil
}

// WriteString is a convenience method that converts the string to bytes and calls FeedBytes.
func (t *TerminalEmulator) WriteString(s string) {
	t.FeedBytes([]byte(s))
}

const (
	ctrlBS = 0x08
	ctrlHT = 0x09
	ctrlLF = 0x0a
	ctrlCR = 0x0d
)

// renderText applies a text run character by character. Text mode stays on
// for the whole run so that out-of-region cursor motion accumulates scroll;
// pending scroll is drained before each character lands.
func (t *TerminalEmulator) renderText(runes []rune) {
	t.state.TextMode = true

	for _, r := range runes {
		for t.state.Scroll != 0 {
			t.scrollBuffer()
		}

		if r < 0x20 {
			switch r {
			case ctrlBS:
				t.state.CursorLeft(1)
			case ctrlHT:
				// Treated as a forward index, not a tab stop.
				t.state.CursorRight(1)
			case ctrlLF:
				t.state.CursorDown(1)
				if t.state.Mode == LineModeLinux {
					t.state.CursorAbsoluteX(0)
				}
			case ctrlCR:
				t.state.CursorAbsoluteX(0)
			}
			continue
		}

		width := runeWidth(r)
		if width == 0 {
			continue
		}

		if t.state.PendingWrap {
			t.state.CursorRight(1)
		}
		t.write(r)
		t.state.CursorRight(1)

		// A wide character owns the following column as well.
		if width == 2 && !t.state.PendingWrap {
			t.write(0)
			t.state.CursorRight(1)
		}
	}

	t.state.TextMode = false
}

// write stores a character at the cursor with the current attributes,
// swapping fg/bg when reverse video is active.
func (t *TerminalEmulator) write(r rune) {
	fg := t.state.Foreground
	bg := t.state.Background
	if t.state.ReverseVideo {
		fg, bg = bg, fg
	}
	t.grid.SetCell(t.state.CursorX, t.state.CursorY, NewCell(r, fg, bg, t.state.Flags))
}

// scrollBuffer applies the pending scroll delta to the scroll region,
// clearing exposed rows in the current colors.
func (t *TerminalEmulator) scrollBuffer() {
	amount := t.state.Scroll
	if amount < 0 {
		amount = -amount
	}
	fg := t.state.Foreground
	bg := t.state.Background

	if t.state.Scroll > 0 {
		t.grid.ScrollRegionUp(t.state.ScrollTop, t.state.ScrollBottom, amount, fg, bg)
	} else {
		t.grid.ScrollRegionDown(t.state.ScrollTop, t.state.ScrollBottom, amount, fg, bg)
	}

	t.state.Scroll = 0
}

func (t *TerminalEmulator) processCommand(cmd Command) {
	switch cmd.Kind {
	case EscapeSingle:
		t.processSingle(cmd.Name)
	case EscapeCSI:
		t.processCSI(cmd.Name, cmd.Params)
	case EscapeBracketPaste:
		// Paste tags have no effect on the grid.
	default:
		// CharSet, G0, G1, OSC, and Title are consumed without side effects.
	}
}

func (t *TerminalEmulator) processSingle(name string) {
	switch name {
	case "7":
		t.state.SaveCursor()
	case "8":
		t.state.RestoreCursor()
	}
}

func (t *TerminalEmulator) processCSI(name string, params []int) {
	value1 := 0
	value2 := 0

	if len(params) > 0 {
		value1 = params[0]
	} else if name == "r" {
		value1 = 1
	}

	if len(params) > 1 {
		value2 = params[1]
	} else if name == "r" {
		value2 = t.state.Height
	}

	switch name {
	case "A":
		t.state.CursorUp(value1)
	case "B":
		t.state.CursorDown(value1)
	case "C":
		t.state.CursorRight(value1)
	case "D":
		t.state.CursorLeft(value1)
	case "E":
		// Moves up, mirroring F; see TestCursorNextLineMovesUp.
		t.state.CursorAbsoluteX(0)
		t.state.CursorUp(value1)
	case "F":
		t.state.CursorAbsoluteX(0)
		t.state.CursorUp(value1)
	case "G":
		t.state.CursorAbsoluteX(value1 - 1)
	case "H":
		t.state.CursorAbsolute(value2-1, value1-1)
	case "J":
		t.eraseDisplay(value1)
	case "K":
		t.eraseLine(value1)
	case "P":
		t.deleteChars(value1)
	case "X":
		t.eraseChars(value1)
	case "d":
		t.state.CursorAbsolute(0, value1-1)
	case "`":
		t.state.CursorAbsoluteX(value1 - 1)
	case "f":
		t.state.CursorAbsolute(value2-1, value1-1)
	case "l":
		t.resetMode(value1)
	case "m":
		t.processColors(params)
	case "r":
		t.state.SetScrollRegion(value1-1, value2-1)
	case "s":
		t.state.SaveCursor()
	case "u":
		t.state.RestoreCursor()
	case "~":
		// Bracketed-paste tags (200/201): no-op on the grid.
	case "?h":
		t.setPrivateMode(value1)
	case "?l":
		t.resetPrivateMode(value1)
	}
}

func (t *TerminalEmulator) setPrivateMode(code int) {
	switch code {
	case 7:
		t.state.Autowrap = true
	case 25:
		t.state.ShowCursor()
	case 1049:
		t.enterAlternateScreen()
	case 2004:
		// Bracketed paste toggle: no grid effect.
	}
}

func (t *TerminalEmulator) resetPrivateMode(code int) {
	switch code {
	case 7:
		t.state.Autowrap = false
	case 25:
		t.state.HideCursor()
	case 1049:
		t.leaveAlternateScreen()
	case 2004:
		// Bracketed paste toggle: no grid effect.
	}
}

func (t *TerminalEmulator) enterAlternateScreen() {
	if t.altScreen {
		return
	}
	t.altScreen = true
	t.grid, t.altGrid = t.altGrid, t.grid
	t.state, t.altState = t.altState, t.state
}

func (t *TerminalEmulator) leaveAlternateScreen() {
	if !t.altScreen {
		return
	}
	t.altScreen = false
	t.grid, t.altGrid = t.altGrid, t.grid
	t.state, t.altState = t.altState, t.state
}

// setMode applies one SGR parameter.
func (t *TerminalEmulator) setMode(cmd int) {
	switch {
	case cmd == 0:
		t.state.SetForeground(int(t.state.DefaultForeground))
		t.state.SetBackground(int(t.state.DefaultBackground))
		t.state.Bold = false
		t.state.ReverseVideo = false
	case cmd == 1:
		t.state.Bold = true
	case cmd == 7:
		t.state.ReverseVideo = true
	case cmd == 22:
		t.state.Bold = false
	case cmd == 27:
		t.state.ReverseVideo = false
	case cmd >= 30 && cmd <= 37:
		fg := cmd - 30
		if t.state.Bold {
			fg += 8
		}
		t.state.SetForeground(fg)
	case cmd == 39:
		t.state.SetForeground(int(t.state.DefaultForeground))
	case cmd >= 40 && cmd <= 47:
		bg := cmd - 40
		if t.state.Bold {
			bg += 8
		}
		t.state.SetBackground(bg)
	case cmd == 49:
		t.state.SetBackground(int(t.state.DefaultBackground))
	case cmd >= 90 && cmd <= 97:
		t.state.SetForeground(cmd - 90 + 8)
	case cmd >= 100 && cmd <= 107:
		t.state.SetBackground(cmd - 100 + 8)
	}
}

// resetMode handles a bare CSI l, which acts as a partial rendition reset.
func (t *TerminalEmulator) resetMode(cmd int) {
	switch cmd {
	case 0:
		t.state.SetForeground(int(t.state.DefaultForeground))
		t.state.SetBackground(int(t.state.DefaultBackground))
		t.state.Bold = false
		t.state.ReverseVideo = false
	case 1:
		t.state.Bold = false
	case 7:
		t.state.ReverseVideo = false
	}
}

// processColors dispatches SGR parameters. Extended color forms (38/48 with
// a 5;N index or 2;R;G;B truecolor) are handled as a whole sequence; any
// other parameter list is applied item by item.
func (t *TerminalEmulator) processColors(params []int) {
	if len(params) == 0 {
		return
	}

	switch params[0] {
	case 38:
		if len(params) > 4 && params[1] == 2 {
			t.state.SetForeground(int(t.palette.NearestIndex(params[2], params[3], params[4])))
		}
		if len(params) > 2 && params[1] == 5 {
			t.state.SetForeground(params[2])
		}
	case 48:
		if len(params) > 4 && params[1] == 2 {
			t.state.SetBackground(int(t.palette.NearestIndex(params[2], params[3], params[4])))
		}
		if len(params) > 2 && params[1] == 5 {
			t.state.SetBackground(params[2])
		}
	default:
		for _, cmd := range params {
			t.setMode(cmd)
		}
	}
}

// eraseDisplay clears part of the screen. Modes 0 and 1 erase through the
// normal write path one cell at a time; the row loops intentionally stop one
// row short of the cursor, matching the behavior this emulator reproduces.
func (t *TerminalEmulator) eraseDisplay(mode int) {
	switch mode {
	case 0:
		cx, cy := t.state.CursorPos()
		for x := t.state.CursorX; x < t.state.Width; x++ {
			t.state.CursorAbsoluteX(x)
			t.write(0)
		}
		for y := cy + 1; y < t.state.Height; y++ {
			for x := 0; x < t.state.Width; x++ {
				t.state.CursorAbsolute(x, y)
				t.write(0)
			}
		}
		t.state.CursorAbsolute(cx, cy)
	case 1:
		cx, cy := t.state.CursorPos()
		for x := 0; x <= cx; x++ {
			t.state.CursorAbsoluteX(x)
			t.write(0)
		}
		for y := 0; y < cy-1; y++ {
			for x := 0; x < t.state.Width; x++ {
				t.state.CursorAbsolute(x, y)
				t.write(0)
			}
		}
		t.state.CursorAbsolute(cx, cy)
	case 2:
		t.grid.Clear(t.state.Foreground, t.state.Background)
	}
}

// eraseLine clears part of the cursor row without moving the cursor.
func (t *TerminalEmulator) eraseLine(mode int) {
	cx, cy := t.state.CursorPos()
	switch mode {
	case 0:
		for x := t.state.CursorX; x < t.state.Width; x++ {
			t.state.CursorAbsoluteX(x)
			t.write(0)
		}
	case 1:
		for x := 0; x <= cx; x++ {
			t.state.CursorAbsoluteX(x)
			t.write(0)
		}
	case 2:
		for x := 0; x < t.state.Width; x++ {
			t.state.CursorAbsoluteX(x)
			t.write(0)
		}
	}
	t.state.CursorAbsolute(cx, cy)
}

// deleteChars removes n characters at the cursor, shifting the rest of the
// row left and backfilling with blanks in the current colors.
func (t *TerminalEmulator) deleteChars(n int) {
	x := t.state.CursorX
	y := t.state.CursorY
	width := t.state.Width

	for x2 := x + n; x2 < width; x2++ {
		if cell := t.grid.Cell(x2, y); cell != nil {
			t.grid.SetCell(x2-n, y, *cell)
		}
	}
	for x2 := width - n; x2 < width; x2++ {
		t.grid.SetCell(x2, y, EmptyCell(t.state.Foreground, t.state.Background))
	}
}

// eraseChars blanks n characters starting at the cursor without moving it.
func (t *TerminalEmulator) eraseChars(n int) {
	cx, cy := t.state.CursorPos()
	for x := cx; x < cx+n; x++ {
		t.state.CursorAbsoluteX(x)
		t.write(0)
	}
	t.state.CursorAbsolute(cx, cy)
}
