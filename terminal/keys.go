package terminal

import (
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

var namedKeys = map[tcell.Key]string{
	tcell.KeyLeft:  "left",
	tcell.KeyRight: "right",
	tcell.KeyUp:    "up",
	tcell.KeyDown:  "down",
	tcell.KeyEnter: "enter",
	tcell.KeyTab:   "tab",
}

// KeyName turns a key event into the button name scenarios bind to.
// Runes are lower-cased, space is "space". Unknown keys return "".
func KeyName(ev *tcell.EventKey) string {
	if ev == nil {
		return ""
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r == ' ' {
			return "space"
		}
		if unicode.IsPrint(r) {
			return strings.ToLower(string(r))
		}
		return ""
	}
	return namedKeys[ev.Key()]
}

// quitKey reports whether ev ends the session
func quitKey(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC
}
