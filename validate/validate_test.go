package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/lightcycle/game/engine"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

const validConfig = `{
	"name": "test",
	"description": "Test configuration",
	"board_width": 8,
	"board_height": 6,
	"update_interval_ms": 100,
	"edge_policy": "clamped",
	"agents": [
		{"id": "red", "color": "#ff0000", "x": 1, "y": 1, "direction": "east", "left_key": "a", "right_key": "d"}
	]
}`

func TestValidateFile_ValidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.json", validConfig)

	result := ValidateFile(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}

	found := false
	for _, info := range result.Info {
		if info == "✓ Board: 8x6 clamped" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected board info line, got %v", result.Info)
	}
}

func TestValidateFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		content  string
		contains string
	}{
		{
			name:     "malformed JSON",
			file:     "broken.json",
			content:  `{"name": "test", invalid json}`,
			contains: "Failed to parse file",
		},
		{
			name:     "malformed YAML",
			file:     "broken.yaml",
			content:  "name: [unclosed",
			contains: "Failed to parse file",
		},
		{
			name:     "board too small",
			file:     "tiny.json",
			content:  strings.Replace(validConfig, `"board_width": 8`, `"board_width": 1`, 1),
			contains: "board_width",
		},
		{
			name:     "agent outside board",
			file:     "outside.json",
			content:  strings.Replace(validConfig, `"x": 1`, `"x": 8`, 1),
			contains: "outside the 8x6 board",
		},
		{
			name:     "same key both ways",
			file:     "keys.json",
			content:  strings.Replace(validConfig, `"right_key": "d"`, `"right_key": "A"`, 1),
			contains: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateFile(writeFile(t, dir, tt.file, tt.content))
			if result.Valid {
				t.Fatal("Expected invalid result")
			}
			if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, result.Errors)
			}
			if len(result.Info) != 0 {
				t.Errorf("Expected no info lines for invalid file, got %v", result.Info)
			}
		})
	}
}

func TestValidateFile_Missing(t *testing.T) {
	result := ValidateFile(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid || !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Expected read error, got %+v", result)
	}
}

func TestValidateConfig_Warnings(t *testing.T) {
	config := &engine.GameConfig{
		Name:        "crowded",
		Description: "Warnings",
		BoardWidth:  5,
		BoardHeight: 5,
		EdgePolicy:  engine.Clamped,
		Agents: []engine.AgentConfig{
			{ID: "red", Color: "#ff0000", X: 4, Y: 2, Direction: "east", LeftKey: "a", RightKey: "d"},
			{ID: "blue", Color: "#0000ff", X: 4, Y: 2, Direction: "north", LeftKey: "A", RightKey: "l"},
		},
	}

	result := ValidateConfig("crowded.json", config)
	if !result.Valid {
		t.Fatalf("Shared bindings and shared starts are legal, got %v", result.Errors)
	}

	expected := []string{
		`Button "a" is bound by several agents: red, blue`,
		"Agents red and blue start on the same cell (4,2)",
		"Agent red starts facing the edge",
	}
	joined := strings.Join(result.Warnings, "\n")
	for _, want := range expected {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected warning %q, got:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Agent blue starts facing") {
		t.Error("blue has two steps before the north edge")
	}
}

func TestSharedBindings(t *testing.T) {
	config := &engine.GameConfig{Agents: []engine.AgentConfig{
		{ID: "red", LeftKey: "a", RightKey: "d"},
		{ID: "blue", LeftKey: "left", RightKey: "right"},
	}}
	if shared := SharedBindings(config); len(shared) != 0 {
		t.Errorf("Expected no shared bindings, got %v", shared)
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", validConfig)
	writeFile(t, dir, "a.json", `{}`)
	writeFile(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatal(err)
	}

	results, err := ValidateDir(dir)
	if err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].File != "a.json" || results[0].Valid {
		t.Errorf("Expected invalid a.json first, got %+v", results[0])
	}
	if results[1].File != "b.json" || !results[1].Valid {
		t.Errorf("Expected valid b.json second, got %+v", results[1])
	}

	var buf bytes.Buffer
	if WriteResults(&buf, results) {
		t.Error("Expected WriteResults to report failure")
	}
	out := buf.String()
	if !strings.Contains(out, "❌ INVALID") || !strings.Contains(out, "✅ VALID") || !strings.Contains(out, "Some configurations have errors") {
		t.Errorf("Unexpected report:\n%s", out)
	}

	if _, err := ValidateDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestProjectConfigs(t *testing.T) {
	results, err := ValidateDir("../configs")
	if err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected scenario files in ../configs")
	}
	for _, result := range results {
		if !result.Valid {
			t.Errorf("%s is invalid: %v", result.File, result.Errors)
		}
	}

	var buf bytes.Buffer
	if !WriteResults(&buf, results) {
		t.Errorf("Expected all configs valid:\n%s", buf.String())
	}
}

func TestAnalyze(t *testing.T) {
	config, err := engine.LoadGameConfig("../configs/small_clamped.json")
	if err != nil {
		t.Fatalf("LoadGameConfig failed: %v", err)
	}

	report, err := Analyze(config)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Width != 10 || report.Height != 10 || report.EdgePolicy != engine.Clamped {
		t.Errorf("Unexpected board %+v", report)
	}
	if len(report.Agents) != 1 {
		t.Fatalf("Expected 1 agent, got %d", len(report.Agents))
	}

	red := report.Agents[0]
	if red.StepsToEdge != 8 {
		t.Errorf("Expected 8 steps to edge, got %d", red.StepsToEdge)
	}
	if red.TimeToEdge != 1350*time.Millisecond {
		t.Errorf("Expected 1.35s to edge, got %s", red.TimeToEdge)
	}

	var buf bytes.Buffer
	WriteReport(&buf, report)
	out := buf.String()
	for _, want := range []string{"=== small_clamped ===", "Board: 10x10, clamped edges", "red at (1,1) heading east, 8 steps to edge", "after 1.35s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}
}

func TestAnalyze_Wrapping(t *testing.T) {
	report, err := Analyze(engine.DefaultGameConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Agents[0].TimeToEdge != 0 {
		t.Errorf("Wrapping boards have no edge time, got %s", report.Agents[0].TimeToEdge)
	}
	if report.UpdateInterval != 100*time.Millisecond {
		t.Errorf("Expected 100ms interval, got %s", report.UpdateInterval)
	}

	if _, err := Analyze(&engine.GameConfig{}); err == nil {
		t.Error("Expected error for empty config")
	}
}

func TestAnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", validConfig)
	writeFile(t, dir, "bad.json", `{"name": "bad"}`)

	reports, errs, err := AnalyzeDir(dir)
	if err != nil {
		t.Fatalf("AnalyzeDir failed: %v", err)
	}
	if len(reports) != 1 || reports[0].Name != "test" {
		t.Errorf("Expected one report for good.json, got %v", reports)
	}
	if _, ok := errs["bad.json"]; !ok || len(errs) != 1 {
		t.Errorf("Expected bad.json in errors, got %v", errs)
	}
}
