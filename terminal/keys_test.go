package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestKeyName(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"lower rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), "a"},
		{"upper rune", tcell.NewEventKey(tcell.KeyRune, 'D', tcell.ModShift), "d"},
		{"digit", tcell.NewEventKey(tcell.KeyRune, '7', tcell.ModNone), "7"},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), "space"},
		{"left arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), "left"},
		{"right arrow", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), "right"},
		{"up arrow", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), "up"},
		{"down arrow", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), "down"},
		{"unnamed key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyName(tt.ev); got != tt.want {
				t.Errorf("KeyName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuitKey(t *testing.T) {
	if !quitKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Escape should quit")
	}
	if quitKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q alone should not quit")
	}
}
