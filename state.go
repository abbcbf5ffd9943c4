package cast2gif

// LineMode selects the line discipline applied to control characters.
// In linux mode a line feed also returns the cursor to column 0.
type LineMode string

const (
	// LineModeLinux treats LF as newline (CR+LF).
	LineModeLinux LineMode = "linux"
	// LineModeRaw treats LF as a pure index (cursor down only).
	LineModeRaw LineMode = "raw"
)

// TerminalState holds the cursor, graphic rendition, and scroll-region state
// of one screen. The emulator keeps two of these and swaps them when the
// alternate screen is entered or left.
type TerminalState struct {
	CursorX int
	CursorY int
	Width   int
	Height  int

	Mode         LineMode
	ReverseVideo bool
	Bold         bool
	TextMode     bool
	Autowrap     bool

	Foreground        uint8
	Background        uint8
	DefaultForeground uint8
	DefaultBackground uint8

	PendingWrap   bool
	DisplayCursor bool

	// Scroll holds pending scroll lines accumulated by out-of-region cursor
	// motion while TextMode is on. Positive scrolls up, negative down.
	Scroll       int
	ScrollTop    int
	ScrollBottom int

	SavedCursorX int
	SavedCursorY int

	Flags CellFlags
}

// NewTerminalState creates a state for a width x height screen with the
// given default colors. The scroll region spans the full screen.
func NewTerminalState(width, height int, defaultFg, defaultBg uint8) *TerminalState {
	return &TerminalState{
		Width:             width,
		Height:            height,
		Mode:              LineModeLinux,
		Autowrap:          true,
		Foreground:        defaultFg,
		Background:        defaultBg,
		DefaultForeground: defaultFg,
		DefaultBackground: defaultBg,
		ScrollTop:         0,
		ScrollBottom:      height - 1,
	}
}

// SetScrollRegion sets the inclusive scroll band and discards pending scroll.
func (s *TerminalState) SetScrollRegion(top, bottom int) {
	s.Scroll = 0
	s.ScrollTop = top
	s.ScrollBottom = bottom
}

// ShowCursor makes the cursor visible.
func (s *TerminalState) ShowCursor() {
	s.DisplayCursor = true
}

// HideCursor makes the cursor invisible.
func (s *TerminalState) HideCursor() {
	s.DisplayCursor = false
}

// checkBounds clamps the cursor into the grid and the scroll region.
// While TextMode is on, motion past the region edges accumulates into
// Scroll instead of being lost. The pending-wrap flag survives only at the
// bottom-right corner with autowrap on.
func (s *TerminalState) checkBounds() {
	if s.PendingWrap {
		if s.CursorX != s.Width-1 || s.CursorY != s.Height-1 || !s.Autowrap {
			s.PendingWrap = false
		}
	}

	if s.CursorX < 0 {
		s.CursorX = 0
	}
	if s.CursorX >= s.Width {
		s.CursorX = s.Width - 1
	}

	if s.CursorY < s.ScrollTop {
		if s.TextMode {
			s.Scroll -= s.ScrollTop - s.CursorY
		}
		s.CursorY = s.ScrollTop
	}
	if s.CursorY > s.ScrollBottom {
		if s.TextMode {
			s.Scroll += s.CursorY - s.ScrollBottom
		}
		s.CursorY = s.ScrollBottom
	}
}

// CursorUp moves the cursor up by distance rows.
func (s *TerminalState) CursorUp(distance int) {
	s.CursorY -= distance
	s.checkBounds()
}

// CursorDown moves the cursor down by distance rows.
func (s *TerminalState) CursorDown(distance int) {
	s.CursorY += distance
	s.checkBounds()
}

// CursorLeft moves the cursor left by distance columns.
func (s *TerminalState) CursorLeft(distance int) {
	s.CursorX -= distance
	s.checkBounds()
}

// CursorRight moves the cursor right by distance columns. At the last column
// with autowrap on, the first move arms the pending-wrap flag instead of
// advancing; a subsequent move performs the wrap to the next row.
func (s *TerminalState) CursorRight(distance int) {
	if !s.PendingWrap && s.Autowrap && s.CursorX == s.Width-1 {
		s.PendingWrap = true
		return
	}

	s.CursorX += distance
	if s.Autowrap {
		for s.CursorX >= s.Width {
			s.CursorX -= s.Width
			s.CursorDown(1)
		}
	}
	s.checkBounds()
}

// CursorAbsoluteX moves the cursor to an absolute column.
func (s *TerminalState) CursorAbsoluteX(x int) {
	s.CursorX = x
	s.checkBounds()
}

// CursorAbsoluteY moves the cursor to an absolute row.
func (s *TerminalState) CursorAbsoluteY(y int) {
	s.CursorY = y
	s.checkBounds()
}

// CursorAbsolute moves the cursor to an absolute position.
func (s *TerminalState) CursorAbsolute(x, y int) {
	s.CursorX = x
	s.CursorY = y
	s.checkBounds()
}

// SaveCursor records the current cursor position.
func (s *TerminalState) SaveCursor() {
	s.SavedCursorX = s.CursorX
	s.SavedCursorY = s.CursorY
}

// RestoreCursor moves the cursor to the last saved position.
func (s *TerminalState) RestoreCursor() {
	s.CursorX = s.SavedCursorX
	s.CursorY = s.SavedCursorY
}

// CursorPos returns the current cursor position.
func (s *TerminalState) CursorPos() (x, y int) {
	return s.CursorX, s.CursorY
}

// SetForeground sets the current foreground index. Values past the palette
// fall back to the default foreground.
func (s *TerminalState) SetForeground(color int) {
	if color < 0 || color > 255 {
		s.Foreground = s.DefaultForeground
		return
	}
	s.Foreground = uint8(color)
}

// SetBackground sets the current background index. Values past the palette
// fall back to the default background.
func (s *TerminalState) SetBackground(color int) {
	if color < 0 || color > 255 {
		s.Background = s.DefaultBackground
		return
	}
	s.Background = uint8(color)
}
