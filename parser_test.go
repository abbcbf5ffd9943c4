package cast2gif

import (
	"fmt"
	"reflect"
	"testing"
)

func TestParsePlainText(t *testing.T) {
	events, consumed := Parse("hello world")

	if consumed != len("hello world") {
		t.Errorf("expected full consumption, got %d", consumed)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	text, ok := events[0].(Text)
	if !ok {
		t.Fatalf("expected Text event, got %T", events[0])
	}
	if string(text.Runes) != "hello world" {
		t.Errorf("expected 'hello world', got %q", string(text.Runes))
	}
}

func TestParseCursorPosition(t *testing.T) {
	events, _ := Parse("\x1b[1;2H")

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	cmd, ok := events[0].(Command)
	if !ok {
		t.Fatalf("expected Command event, got %T", events[0])
	}
	if cmd.Kind != EscapeCSI || cmd.Name != "H" {
		t.Errorf("expected CSI H, got kind=%d name=%q", cmd.Kind, cmd.Name)
	}
	if !reflect.DeepEqual(cmd.Params, []int{1, 2}) {
		t.Errorf("expected params [1 2], got %v", cmd.Params)
	}
}

func TestParseCursorPositionDefaults(t *testing.T) {
	events, _ := Parse("\x1b[H")

	cmd := events[0].(Command)
	if !reflect.DeepEqual(cmd.Params, []int{1, 1}) {
		t.Errorf("expected params [1 1], got %v", cmd.Params)
	}
}

func TestParseDECPrivate(t *testing.T) {
	events, _ := Parse("\x1b[?25l")

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	cmd := events[0].(Command)
	if cmd.Name != "?l" {
		t.Errorf("expected command key ?l, got %q", cmd.Name)
	}
	if !reflect.DeepEqual(cmd.Params, []int{25}) {
		t.Errorf("expected params [25], got %v", cmd.Params)
	}
}

func TestParseDefaultParams(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		params []int
	}{
		{"\x1b[J", "J", []int{0}},
		{"\x1b[K", "K", []int{0}},
		{"\x1b[m", "m", []int{0}},
		{"\x1b[A", "A", []int{1}},
		{"\x1b[B", "B", []int{1}},
		{"\x1b[C", "C", []int{1}},
		{"\x1b[D", "D", []int{1}},
		{"\x1b[r", "r", nil},
	}

	for _, tt := range tests {
		events, _ := Parse(tt.input)
		if len(events) != 1 {
			t.Fatalf("%q: expected 1 event, got %d", tt.input, len(events))
		}
		cmd := events[0].(Command)
		if cmd.Name != tt.name {
			t.Errorf("%q: expected name %q, got %q", tt.input, tt.name, cmd.Name)
		}
		if !reflect.DeepEqual(cmd.Params, tt.params) {
			t.Errorf("%q: expected params %v, got %v", tt.input, tt.params, cmd.Params)
		}
	}
}

func TestParseSGRParams(t *testing.T) {
	events, _ := Parse("\x1b[1;31;44m")

	cmd := events[0].(Command)
	if cmd.Name != "m" {
		t.Errorf("expected m, got %q", cmd.Name)
	}
	if !reflect.DeepEqual(cmd.Params, []int{1, 31, 44}) {
		t.Errorf("expected [1 31 44], got %v", cmd.Params)
	}
}

// Bracketed paste arrives through the CSI alternative: the final byte class
// includes '~', so ESC[200~ parses as a CSI command named "~" with value 200.
// The dispatcher keys off exactly that pair.
func TestParseBracketedPaste(t *testing.T) {
	for _, code := range []int{200, 201} {
		events, _ := Parse(fmt.Sprintf("\x1b[%d~", code))
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		cmd := events[0].(Command)
		if cmd.Kind != EscapeCSI || cmd.Name != "~" {
			t.Errorf("expected CSI ~, got kind=%d name=%q", cmd.Kind, cmd.Name)
		}
		if !reflect.DeepEqual(cmd.Params, []int{code}) {
			t.Errorf("expected params [%d], got %v", code, cmd.Params)
		}
	}
}

func TestParseSingleEscapes(t *testing.T) {
	events, _ := Parse("\x1b7\x1b8")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	save := events[0].(Command)
	restore := events[1].(Command)
	if save.Kind != EscapeSingle || save.Name != "7" {
		t.Errorf("expected Single 7, got kind=%d name=%q", save.Kind, save.Name)
	}
	if restore.Kind != EscapeSingle || restore.Name != "8" {
		t.Errorf("expected Single 8, got kind=%d name=%q", restore.Kind, restore.Name)
	}
}

func TestParseOSCTerminators(t *testing.T) {
	for _, input := range []string{
		"\x1b]0;window title\x07",
		"\x1b]0;window title\x1b\\",
	} {
		events, consumed := Parse(input)
		if consumed != len(input) {
			t.Errorf("%q: expected full consumption, got %d", input, consumed)
		}
		if len(events) != 1 {
			t.Fatalf("%q: expected 1 event, got %d", input, len(events))
		}
		cmd := events[0].(Command)
		if cmd.Kind != EscapeOSC {
			t.Errorf("%q: expected OSC, got kind=%d", input, cmd.Kind)
		}
	}
}

func TestParseCharsetDesignations(t *testing.T) {
	events, _ := Parse("\x1b(B\x1b)0\x1b%@")

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].(Command).Kind != EscapeG0 {
		t.Errorf("expected G0, got %d", events[0].(Command).Kind)
	}
	if events[1].(Command).Kind != EscapeG1 {
		t.Errorf("expected G1, got %d", events[1].(Command).Kind)
	}
	if events[2].(Command).Kind != EscapeCharSet {
		t.Errorf("expected CharSet, got %d", events[2].(Command).Kind)
	}
}

func TestParseTitle(t *testing.T) {
	events, consumed := Parse("\x1bksome title\x1b\\after")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].(Command).Kind != EscapeTitle {
		t.Errorf("expected Title command, got %d", events[0].(Command).Kind)
	}
	if string(events[1].(Text).Runes) != "after" {
		t.Errorf("expected trailing text 'after', got %q", string(events[1].(Text).Runes))
	}
	if consumed != len("\x1bksome title\x1b\\after") {
		t.Errorf("expected full consumption, got %d", consumed)
	}
}

func TestParsePartialEscapeTail(t *testing.T) {
	input := "abc\x1b[3"
	events, consumed := Parse(input)

	if consumed != 3 {
		t.Errorf("expected consumed=3 (before the ESC), got %d", consumed)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if string(events[0].(Text).Runes) != "abc" {
		t.Errorf("expected text 'abc', got %q", string(events[0].(Text).Runes))
	}
}

func TestParsePartialOSCTail(t *testing.T) {
	input := "\x1b]0;unterminated title"
	events, consumed := Parse(input)

	if consumed != 0 {
		t.Errorf("expected nothing consumed, got %d", consumed)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestParseTextBetweenEscapes(t *testing.T) {
	events, _ := Parse("red:\x1b[31mR\x1b[0m.")

	want := []string{"red:", "", "R", "", "."}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, ev := range events {
		if text, ok := ev.(Text); ok {
			if string(text.Runes) != want[i] {
				t.Errorf("event %d: expected %q, got %q", i, want[i], string(text.Runes))
			}
		} else if want[i] != "" {
			t.Errorf("event %d: expected text %q, got command", i, want[i])
		}
	}
}

func TestParseMixedNumericAndInvalidParams(t *testing.T) {
	// Empty items inside the list are skipped, not defaulted (except H/f).
	events, _ := Parse("\x1b[1;;3m")

	cmd := events[0].(Command)
	if !reflect.DeepEqual(cmd.Params, []int{1, 3}) {
		t.Errorf("expected [1 3], got %v", cmd.Params)
	}
}
