package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultGameConfig_Valid(t *testing.T) {
	config := DefaultGameConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	sim, err := NewSimulationFromConfig(config)
	if err != nil {
		t.Fatalf("NewSimulationFromConfig failed: %v", err)
	}
	if sim.Width() != 50 || sim.Height() != 50 {
		t.Errorf("Expected 50x50 board, got %dx%d", sim.Width(), sim.Height())
	}
	red, err := sim.Agent("red")
	if err != nil {
		t.Fatalf("Expected red agent: %v", err)
	}
	if red.Position != (Position{X: 1, Y: 3}) || red.Direction != East {
		t.Errorf("Unexpected red start %+v", red)
	}
	if sim.Settings().UpdateInterval != 100*time.Millisecond {
		t.Errorf("Expected 100ms interval, got %v", sim.Settings().UpdateInterval)
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr string
	}{
		{"valid", func(c *GameConfig) {}, ""},
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"board too small", func(c *GameConfig) { c.BoardWidth = 0 }, "board_width"},
		{"board too large", func(c *GameConfig) { c.BoardHeight = MaxBoardSize + 1 }, "board_height"},
		{"tile too large", func(c *GameConfig) { c.TileSize = MaxTileSize + 1 }, "tile_size"},
		{"both cadences", func(c *GameConfig) { c.UpdatesPerSecond = 10 }, "only one of"},
		{"negative interval", func(c *GameConfig) { c.UpdateIntervalMS = -5 }, "update_interval_ms"},
		{"too fast", func(c *GameConfig) { c.UpdateIntervalMS = 0; c.UpdatesPerSecond = MaxUpdatesPerSecond + 1 }, "updates_per_second"},
		{"bad policy", func(c *GameConfig) { c.EdgePolicy = "bounce" }, "edge_policy"},
		{"bad background", func(c *GameConfig) { c.Background = "black" }, "background"},
		{"no agents", func(c *GameConfig) { c.Agents = nil }, "at least one agent"},
		{"agent without id", func(c *GameConfig) { c.Agents[0].ID = "" }, "id is required"},
		{"duplicate agent", func(c *GameConfig) { c.Agents = append(c.Agents, c.Agents[0]) }, "duplicate id"},
		{"bad color", func(c *GameConfig) { c.Agents[0].Color = "red" }, "color"},
		{"start outside", func(c *GameConfig) { c.Agents[0].X = 50 }, "outside"},
		{"bad direction", func(c *GameConfig) { c.Agents[0].Direction = "up" }, "direction"},
		{"missing key", func(c *GameConfig) { c.Agents[0].RightKey = " " }, "required"},
		{"same keys", func(c *GameConfig) { c.Agents[0].RightKey = "A" }, "must differ"},
		{"upper-case policy", func(c *GameConfig) { c.EdgePolicy = "Clamped" }, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultGameConfig()
			test.mutate(config)
			err := ValidateGameConfig(config)
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error containing %q, got %v", test.wantErr, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestGameConfig_UpdateInterval(t *testing.T) {
	tests := []struct {
		name     string
		config   GameConfig
		expected time.Duration
	}{
		{"default", GameConfig{}, DefaultUpdateInterval},
		{"milliseconds", GameConfig{UpdateIntervalMS: 40}, 40 * time.Millisecond},
		{"per second", GameConfig{UpdatesPerSecond: 20}, 50 * time.Millisecond},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.config.UpdateInterval(); got != test.expected {
				t.Errorf("Expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestGameConfig_SettingsNormalizes(t *testing.T) {
	config := DefaultGameConfig()
	config.EdgePolicy = "CLAMPED"
	config.Agents[0].Color = "#FF0000"
	config.Agents[0].LeftKey = " Left "
	config.Agents[0].RightKey = "RIGHT"

	settings, err := config.Settings()
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.EdgePolicy != Clamped {
		t.Errorf("Expected clamped, got %q", settings.EdgePolicy)
	}
	a := settings.Agents[0]
	if a.Color != ColorRed {
		t.Errorf("Expected lower-case color, got %q", a.Color)
	}
	if a.Bindings.Left != "left" || a.Bindings.Right != "right" {
		t.Errorf("Expected normalized bindings, got %+v", a.Bindings)
	}
}

const duelYAML = `name: duel
description: Two cycles facing each other
board_width: 20
board_height: 10
updates_per_second: 8
edge_policy: clamped
agents:
  - id: red
    color: "#ff0000"
    x: 2
    y: 5
    direction: east
    left_key: a
    right_key: d
  - id: blue
    color: "#0000ff"
    x: 17
    y: 5
    direction: west
    left_key: left
    right_key: right
`

func TestLoadGameConfig_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "duel.yaml")
	if err := os.WriteFile(yamlPath, []byte(duelYAML), 0644); err != nil {
		t.Fatalf("Failed to write yaml: %v", err)
	}
	config, err := LoadGameConfig(yamlPath)
	if err != nil {
		t.Fatalf("LoadGameConfig(yaml) failed: %v", err)
	}
	if config.Name != "duel" || len(config.Agents) != 2 || config.Policy() != Clamped {
		t.Errorf("Unexpected yaml config %+v", config)
	}
	if config.UpdateInterval() != 125*time.Millisecond {
		t.Errorf("Expected 125ms, got %v", config.UpdateInterval())
	}

	jsonPath := filepath.Join(dir, "wide.json")
	jsonData := `{"name":"wide","description":"A wide board","board_width":30,"board_height":5,
		"agents":[{"id":"green","color":"#00ff00","x":0,"y":0,"direction":"s","left_key":"q","right_key":"e"}]}`
	if err := os.WriteFile(jsonPath, []byte(jsonData), 0644); err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	config, err = LoadGameConfig(jsonPath)
	if err != nil {
		t.Fatalf("LoadGameConfig(json) failed: %v", err)
	}
	if config.BoardWidth != 30 || config.Agents[0].ID != "green" || config.Policy() != Wrapping {
		t.Errorf("Unexpected json config %+v", config)
	}
}

func TestLoadGameConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	broken := filepath.Join(dir, "broken.json")
	_ = os.WriteFile(broken, []byte("{not json"), 0644)
	_, err := LoadGameConfig(broken)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Expected parse error, got %v", err)
	}

	invalid := filepath.Join(dir, "invalid.json")
	_ = os.WriteFile(invalid, []byte(`{"name":"x","description":"y","board_width":5,"board_height":5,"agents":[]}`), 0644)
	_, err = LoadGameConfig(invalid)
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestLoadGameConfig_ConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "duel.yaml"), []byte(duelYAML), 0644); err != nil {
		t.Fatalf("Failed to write yaml: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	config, err := LoadGameConfig("configs/duel.yaml")
	if err != nil {
		t.Fatalf("LoadGameConfig with CONFIG_DIR failed: %v", err)
	}
	if config.Name != "duel" {
		t.Errorf("Expected duel, got %q", config.Name)
	}
}

func TestIsConfigFile(t *testing.T) {
	for name, expected := range map[string]bool{
		"classic.json": true,
		"duel.YAML":    true,
		"quad.yml":     true,
		"notes.txt":    false,
		"README":       false,
	} {
		if got := IsConfigFile(name); got != expected {
			t.Errorf("IsConfigFile(%q): expected %v, got %v", name, expected, got)
		}
	}
}
