package cast2gif

import "testing"

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'a', 1},
		{'Z', 1},
		{'1', 1},
		{' ', 1},
		{'你', 2},
		{'好', 2},
		{'ア', 2},
	}

	for _, tt := range tests {
		if got := runeWidth(tt.r); got != tt.want {
			t.Errorf("runeWidth(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestIsWideRune(t *testing.T) {
	if isWideRune('a') {
		t.Error("expected 'a' to be narrow")
	}
	if !isWideRune('你') {
		t.Error("expected CJK rune to be wide")
	}
}

func TestStringWidth(t *testing.T) {
	if got := StringWidth("hello"); got != 5 {
		t.Errorf("expected width 5, got %d", got)
	}
	if got := StringWidth("你好"); got != 4 {
		t.Errorf("expected width 4 for two CJK runes, got %d", got)
	}
}
