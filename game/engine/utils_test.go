package engine

import (
	"testing"
	"time"
)

func TestRenderASCII(t *testing.T) {
	sim, err := NewSimulation(Settings{
		Width:          4,
		Height:         2,
		UpdateInterval: 100 * time.Millisecond,
		Agents: []AgentState{
			{ID: "red", Position: Position{X: 0, Y: 0}, Direction: East, Bindings: Bindings{Left: "a", Right: "d"}},
		},
	})
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	_, _ = sim.Tick()
	_, _ = sim.Tick()

	lines := RenderASCII(sim.Snapshot())
	expected := []string{"rr@.", "...."}
	if len(lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d", len(expected), len(lines))
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("Line %d: expected %q, got %q", i, expected[i], lines[i])
		}
	}

	if RenderASCII(nil) != nil {
		t.Error("Expected nil for nil snapshot")
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#12ab00")
	if err != nil {
		t.Fatalf("ParseHexColor failed: %v", err)
	}
	if r != 0x12 || g != 0xab || b != 0x00 {
		t.Errorf("Expected (0x12,0xab,0x00), got (%#x,%#x,%#x)", r, g, b)
	}

	for _, bad := range []string{"", "red", "#fff", "12ab00f", "#zzzzzz"} {
		if ValidColor(bad) {
			t.Errorf("Expected %q to be invalid", bad)
		}
	}
}

func TestStepsToEdge(t *testing.T) {
	tests := []struct {
		pos      Position
		dir      Direction
		expected int
	}{
		{Position{1, 3}, East, 48},
		{Position{1, 3}, West, 1},
		{Position{1, 3}, North, 3},
		{Position{1, 3}, South, 46},
		{Position{49, 0}, East, 0},
	}

	for _, test := range tests {
		if got := StepsToEdge(test.pos, test.dir, 50, 50); got != test.expected {
			t.Errorf("StepsToEdge(%v, %s): expected %d, got %d", test.pos, test.dir, test.expected, got)
		}
	}
}

func TestOwnerInitialAndCounts(t *testing.T) {
	if OwnerInitial("Blue") != 'b' {
		t.Errorf("Expected 'b', got %q", OwnerInitial("Blue"))
	}
	if OwnerInitial("") != '#' {
		t.Errorf("Expected '#', got %q", OwnerInitial(""))
	}

	snap := &Snapshot{Rows: [][]Cell{
		{OccupiedBy("red"), EmptyCell()},
		{OccupiedBy("blue"), OccupiedBy("red")},
	}}
	counts := CountOwned(snap)
	if counts["red"] != 2 || counts["blue"] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

func TestManhattanDistance(t *testing.T) {
	if got := ManhattanDistance(Position{1, 1}, Position{4, -1}); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
}
