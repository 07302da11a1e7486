package engine

import (
	"errors"
	"testing"
)

func TestNewGrid_AllEmpty(t *testing.T) {
	g, err := NewGrid(4, 3)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	if g.Width() != 4 || g.Height() != 3 {
		t.Errorf("Expected 4x3, got %dx%d", g.Width(), g.Height())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			c, err := g.Cell(Position{X: x, Y: y})
			if err != nil {
				t.Fatalf("Cell(%d,%d) failed: %v", x, y, err)
			}
			if c.IsOccupied() || c.State != Empty {
				t.Errorf("Cell(%d,%d): expected empty, got %+v", x, y, c)
			}
		}
	}
	if g.OccupiedCount() != 0 {
		t.Errorf("Expected no occupied cells, got %d", g.OccupiedCount())
	}
}

func TestNewGrid_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 5},
		{"zero height", 5, 0},
		{"negative", -1, -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewGrid(test.width, test.height)
			if !errors.Is(err, ErrInvalidBoard) {
				t.Errorf("Expected ErrInvalidBoard, got %v", err)
			}
		})
	}
}

func TestNewGridWithAgents(t *testing.T) {
	agents := []*Agent{
		NewAgent("red", ColorRed, Position{X: 1, Y: 1}, East, Bindings{Left: "a", Right: "d"}),
		NewAgent("blue", ColorBlue, Position{X: 3, Y: 2}, West, Bindings{Left: "j", Right: "l"}),
	}

	g, err := NewGridWithAgents(5, 5, agents)
	if err != nil {
		t.Fatalf("NewGridWithAgents failed: %v", err)
	}

	for _, a := range agents {
		c, _ := g.Cell(a.Position)
		if !c.IsOccupied() || c.Owner != a.ID {
			t.Errorf("Start cell of %s: expected occupied by %s, got %+v", a.ID, a.ID, c)
		}
	}
	if g.OccupiedCount() != 2 {
		t.Errorf("Expected 2 occupied cells, got %d", g.OccupiedCount())
	}

	outside := []*Agent{NewAgent("x", ColorRed, Position{X: 5, Y: 0}, East, Bindings{Left: "a", Right: "d"})}
	if _, err := NewGridWithAgents(5, 5, outside); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for start outside board, got %v", err)
	}
}

func TestGrid_BoundsChecks(t *testing.T) {
	g, _ := NewGrid(3, 2)

	tests := []struct {
		name     string
		pos      Position
		inBounds bool
	}{
		{"origin", Position{0, 0}, true},
		{"far corner", Position{2, 1}, true},
		{"x too large", Position{3, 0}, false},
		{"y too large", Position{0, 2}, false},
		{"negative x", Position{-1, 0}, false},
		{"negative y", Position{0, -1}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := g.InBounds(test.pos); got != test.inBounds {
				t.Errorf("InBounds(%v): expected %v, got %v", test.pos, test.inBounds, got)
			}
			_, err := g.Cell(test.pos)
			if test.inBounds && err != nil {
				t.Errorf("Cell(%v): unexpected error %v", test.pos, err)
			}
			if !test.inBounds && !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Cell(%v): expected ErrOutOfBounds, got %v", test.pos, err)
			}
			err = g.SetOccupied(test.pos, "red")
			if !test.inBounds && !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("SetOccupied(%v): expected ErrOutOfBounds, got %v", test.pos, err)
			}
		})
	}
}

func TestGrid_SetOccupiedOverwritesOwner(t *testing.T) {
	g, _ := NewGrid(2, 2)
	p := Position{X: 1, Y: 0}

	if err := g.SetOccupied(p, "red"); err != nil {
		t.Fatalf("SetOccupied failed: %v", err)
	}
	if err := g.SetOccupied(p, "blue"); err != nil {
		t.Fatalf("SetOccupied failed: %v", err)
	}

	c, _ := g.Cell(p)
	if c.Owner != "blue" {
		t.Errorf("Expected owner blue after overwrite, got %q", c.Owner)
	}
	if g.OccupiedCount() != 1 {
		t.Errorf("Expected 1 occupied cell, got %d", g.OccupiedCount())
	}
}

func TestGrid_RowsIsDeepCopy(t *testing.T) {
	g, _ := NewGrid(3, 2)
	_ = g.SetOccupied(Position{X: 2, Y: 1}, "red")

	rows := g.Rows()
	if len(rows) != 2 || len(rows[0]) != 3 {
		t.Fatalf("Expected rows [2][3], got [%d][%d]", len(rows), len(rows[0]))
	}
	if rows[1][2].Owner != "red" {
		t.Errorf("Expected rows[1][2] owned by red, got %+v", rows[1][2])
	}

	rows[0][0] = OccupiedBy("intruder")
	c, _ := g.Cell(Position{X: 0, Y: 0})
	if c.IsOccupied() {
		t.Error("Mutating Rows() result changed the grid")
	}
}

func TestGrid_Clone(t *testing.T) {
	g, _ := NewGrid(2, 2)
	clone := g.Clone()
	_ = clone.SetOccupied(Position{X: 0, Y: 0}, "red")

	if g.OccupiedCount() != 0 {
		t.Error("Mutating a clone changed the original grid")
	}
	if clone.OccupiedCount() != 1 {
		t.Errorf("Expected clone to have 1 occupied cell, got %d", clone.OccupiedCount())
	}
}
