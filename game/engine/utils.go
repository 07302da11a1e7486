package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidColor checks for a #rrggbb hex color
func ValidColor(s string) bool {
	_, _, _, err := ParseHexColor(s)
	return err == nil
}

// ParseHexColor splits a #rrggbb color into its components
func ParseHexColor(s string) (r, g, b uint8, err error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// RenderASCII draws a snapshot as text: '.' for empty cells, the lower-case
// initial of the owner for trails and '@' for every agent's current cell
func RenderASCII(s *Snapshot) []string {
	if s == nil {
		return nil
	}

	heads := make(map[Position]bool, len(s.Agents))
	for _, a := range s.Agents {
		heads[a.Position] = true
	}

	lines := make([]string, 0, len(s.Rows))
	for y, row := range s.Rows {
		var b strings.Builder
		for x, c := range row {
			switch {
			case heads[Position{X: x, Y: y}]:
				b.WriteByte('@')
			case c.IsOccupied():
				b.WriteRune(OwnerInitial(c.Owner))
			default:
				b.WriteByte('.')
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

// OwnerInitial returns the lower-case first rune of an agent ID, or '#' when empty
func OwnerInitial(owner string) rune {
	r, _ := utf8.DecodeRuneInString(strings.ToLower(owner))
	if r == utf8.RuneError {
		return '#'
	}
	return r
}

// CountOwned counts trail cells per owner
func CountOwned(s *Snapshot) map[string]int {
	counts := make(map[string]int)
	for _, row := range s.Rows {
		for _, c := range row {
			if c.IsOccupied() {
				counts[c.Owner]++
			}
		}
	}
	return counts
}

// StepsToEdge returns how many ticks an agent heading dir from p can take
// before its next step would leave a width x height board
func StepsToEdge(p Position, dir Direction, width, height int) int {
	switch dir {
	case North:
		return p.Y
	case South:
		return height - 1 - p.Y
	case West:
		return p.X
	case East:
		return width - 1 - p.X
	}
	return 0
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
