package engine

import (
	"encoding/json"
	"testing"
)

func TestDirection_TurnsAreQuarterRotations(t *testing.T) {
	tests := []struct {
		dir   Direction
		left  Direction
		right Direction
	}{
		{North, West, East},
		{East, North, South},
		{South, East, West},
		{West, South, North},
	}

	for _, test := range tests {
		t.Run(test.dir.String(), func(t *testing.T) {
			if got := test.dir.Left(); got != test.left {
				t.Errorf("%s.Left(): expected %s, got %s", test.dir, test.left, got)
			}
			if got := test.dir.Right(); got != test.right {
				t.Errorf("%s.Right(): expected %s, got %s", test.dir, test.right, got)
			}
		})
	}
}

func TestDirection_TurnBijection(t *testing.T) {
	for _, d := range AllDirections {
		if got := d.Left().Right(); got != d {
			t.Errorf("left then right from %s: expected %s, got %s", d, d, got)
		}
		if got := d.Right().Left(); got != d {
			t.Errorf("right then left from %s: expected %s, got %s", d, d, got)
		}
		if got := d.Left().Left().Left().Left(); got != d {
			t.Errorf("four lefts from %s: expected %s, got %s", d, d, got)
		}
		if got := d.Right().Right().Right().Right(); got != d {
			t.Errorf("four rights from %s: expected %s, got %s", d, d, got)
		}
	}
}

func TestDirection_Delta(t *testing.T) {
	tests := []struct {
		dir    Direction
		dx, dy int
	}{
		{North, 0, -1},
		{South, 0, 1},
		{West, -1, 0},
		{East, 1, 0},
	}

	for _, test := range tests {
		dx, dy := test.dir.Delta()
		if dx != test.dx || dy != test.dy {
			t.Errorf("%s.Delta(): expected (%d,%d), got (%d,%d)", test.dir, test.dx, test.dy, dx, dy)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
		wantErr  bool
	}{
		{"north", North, false},
		{"EAST", East, false},
		{" s ", South, false},
		{"w", West, false},
		{"up", North, true},
		{"", North, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseDirection(test.input)
			if test.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", test.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestDirection_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		D Direction `json:"d"`
	}{West})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"d":"west"}` {
		t.Errorf("Expected west by name, got %s", data)
	}

	var decoded struct {
		D Direction `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"south"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.D != South {
		t.Errorf("Expected south, got %s", decoded.D)
	}

	if err := json.Unmarshal([]byte(`{"d":"sideways"}`), &decoded); err == nil {
		t.Error("Expected error for unknown direction")
	}
}
