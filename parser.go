package cast2gif

import (
	"regexp"
	"strconv"
	"strings"
)

// EscapeKind identifies the family of a parsed escape sequence.
type EscapeKind int

const (
	EscapeSingle EscapeKind = iota
	EscapeCharSet
	EscapeG0
	EscapeG1
	EscapeCSI
	EscapeOSC
	EscapeBracketPaste
	EscapeTitle
)

// Event is one parser output: either a Text run or a Command.
type Event interface {
	event()
}

// Text is a contiguous run of non-escape characters, including C0 controls
// that the emulator interprets itself (BS, HT, LF, CR).
type Text struct {
	Runes []rune
}

func (Text) event() {}

// Command is a parsed escape sequence. For CSI sequences Name is the final
// byte, prefixed with "?" for DEC private sequences (e.g. "?h", "?l").
type Command struct {
	Kind   EscapeKind
	Name   string
	Params []int
}

func (Command) event() {}

// ansiPattern recognizes, in one alternation, every escape form the emulator
// dispatches on: single-character escapes, charset designations, CSI, OSC
// (any of the three terminators), bracketed-paste tags, and title strings.
var ansiPattern = regexp.MustCompile(
	"(\x1b([cDEHMZ6789>=i]))" +
		"|(\x1b%([@G*]))" +
		"|(\x1b\\(([B0UK]))" +
		"|(\x1b\\)([B0UK]))" +
		"|(\x1b\\[((?:\\d|;|<|>|=|\\?)*)([a-zA-Z`~])\x02?)" +
		"|((?:\x1b\\]|\\x{9d}).*?(?:\x1b\\\\|[\x07\\x{9c}]))" +
		"|(\x1b\\[(20[01])~)" +
		"|(\x1bk(.*?)\x1b\\\\)",
)

// Submatch group offsets into ansiPattern, one per alternative.
const (
	groupSingle       = 1
	groupSingleCmd    = 2
	groupCharSet      = 3
	groupCharSetCmd   = 4
	groupG0           = 5
	groupG0Cmd        = 6
	groupG1           = 7
	groupG1Cmd        = 8
	groupCSI          = 9
	groupCSIParams    = 10
	groupCSIFinal     = 11
	groupOSC          = 12
	groupPaste        = 13
	groupPasteCode    = 14
	groupTitle        = 15
	groupTitleContent = 16
)

// Parse segments text into events and reports the byte offset up to which
// parsing is definite. A trailing partial escape is left unconsumed so the
// caller can append the next chunk and retry; an escape-free tail is fully
// consumed as Text.
func Parse(text string) ([]Event, int) {
	var events []Event
	lastPos := 0

	for _, m := range ansiPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > lastPos {
			events = append(events, Text{Runes: []rune(text[lastPos:m[0]])})
		}
		if ev, ok := parseEscape(text, m); ok {
			events = append(events, ev)
		}
		lastPos = m[1]
	}

	tail := text[lastPos:]
	esc := strings.IndexByte(tail, 0x1b)
	if esc < 0 {
		if tail != "" {
			events = append(events, Text{Runes: []rune(tail)})
		}
		return events, len(text)
	}
	if esc > 0 {
		events = append(events, Text{Runes: []rune(tail[:esc])})
	}
	return events, lastPos + esc
}

func matchGroup(text string, m []int, i int) (string, bool) {
	if m[2*i] < 0 {
		return "", false
	}
	return text[m[2*i]:m[2*i+1]], true
}

func parseEscape(text string, m []int) (Event, bool) {
	if _, ok := matchGroup(text, m, groupSingle); ok {
		cmd, _ := matchGroup(text, m, groupSingleCmd)
		return Command{Kind: EscapeSingle, Name: cmd}, true
	}
	if _, ok := matchGroup(text, m, groupCharSet); ok {
		cmd, _ := matchGroup(text, m, groupCharSetCmd)
		return Command{Kind: EscapeCharSet, Name: cmd}, true
	}
	if _, ok := matchGroup(text, m, groupG0); ok {
		cmd, _ := matchGroup(text, m, groupG0Cmd)
		return Command{Kind: EscapeG0, Name: cmd}, true
	}
	if _, ok := matchGroup(text, m, groupG1); ok {
		cmd, _ := matchGroup(text, m, groupG1Cmd)
		return Command{Kind: EscapeG1, Name: cmd}, true
	}
	if _, ok := matchGroup(text, m, groupCSI); ok {
		paramStr, _ := matchGroup(text, m, groupCSIParams)
		final, _ := matchGroup(text, m, groupCSIFinal)
		name, params := parseCSIParams(paramStr, final)
		return Command{Kind: EscapeCSI, Name: name, Params: params}, true
	}
	if _, ok := matchGroup(text, m, groupOSC); ok {
		return Command{Kind: EscapeOSC}, true
	}
	if _, ok := matchGroup(text, m, groupPaste); ok {
		code, _ := matchGroup(text, m, groupPasteCode)
		value, _ := strconv.Atoi(code)
		return Command{Kind: EscapeBracketPaste, Name: "~", Params: []int{value}}, true
	}
	if _, ok := matchGroup(text, m, groupTitle); ok {
		return Command{Kind: EscapeTitle, Name: "0"}, true
	}
	return nil, false
}

// parseCSIParams splits the parameter bytes and applies per-command defaults:
// cursor position pads to two 1s, erase and SGR default to 0, relative cursor
// motion defaults to 1. A leading "?" moves into the command name.
func parseCSIParams(paramStr, command string) (string, []int) {
	if command == "H" || command == "f" {
		params := make([]int, 0, 2)
		for _, part := range strings.Split(paramStr, ";") {
			n, err := strconv.Atoi(part)
			if part == "" || err != nil {
				n = 1
			}
			params = append(params, n)
		}
		for len(params) < 2 {
			params = append(params, 1)
		}
		return command, params
	}

	if strings.HasPrefix(paramStr, "?") {
		var params []int
		for _, part := range strings.Split(paramStr[1:], ";") {
			if n, err := strconv.Atoi(part); err == nil {
				params = append(params, n)
			}
		}
		return "?" + command, params
	}

	var params []int
	for _, part := range strings.Split(paramStr, ";") {
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			params = append(params, n)
		}
	}

	if len(params) == 0 {
		switch command {
		case "J", "K", "m":
			params = []int{0}
		case "A", "B", "C", "D":
			params = []int{1}
		}
	}

	return command, params
}
