package engine

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal headings
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// AllDirections lists headings in clockwise order starting at North
var AllDirections = []Direction{North, East, South, West}

var directionNames = map[Direction]string{
	North: "north",
	East:  "east",
	South: "south",
	West:  "west",
}

// ParseDirection accepts full names and single letters, case-insensitive
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

// String returns the lower-case name of d
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Valid reports whether d is one of the four headings
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Left returns the heading a quarter turn counter-clockwise
func (d Direction) Left() Direction {
	return (d + 3) % 4
}

// Right returns the heading a quarter turn clockwise
func (d Direction) Right() Direction {
	return (d + 1) % 4
}

// Delta returns the unit offset of a step in direction d
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case West:
		return -1, 0
	case East:
		return 1, 0
	}
	return 0, 0
}

// MarshalText encodes d by name
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
