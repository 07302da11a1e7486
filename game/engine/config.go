package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GameConfig is a scenario: the board, the cadence and the starting agents
type GameConfig struct {
	Name             string        `json:"name" yaml:"name"`
	Description      string        `json:"description" yaml:"description"`
	BoardWidth       int           `json:"board_width" yaml:"board_width"`
	BoardHeight      int           `json:"board_height" yaml:"board_height"`
	TileSize         int           `json:"tile_size,omitempty" yaml:"tile_size,omitempty"`
	UpdateIntervalMS int           `json:"update_interval_ms,omitempty" yaml:"update_interval_ms,omitempty"`
	UpdatesPerSecond float64       `json:"updates_per_second,omitempty" yaml:"updates_per_second,omitempty"`
	EdgePolicy       EdgePolicy    `json:"edge_policy,omitempty" yaml:"edge_policy,omitempty"`
	Background       string        `json:"background,omitempty" yaml:"background,omitempty"`
	Agents           []AgentConfig `json:"agents" yaml:"agents"`
}

// AgentConfig describes one agent's starting state and key bindings
type AgentConfig struct {
	ID        string `json:"id" yaml:"id"`
	Color     string `json:"color" yaml:"color"`
	X         int    `json:"x" yaml:"x"`
	Y         int    `json:"y" yaml:"y"`
	Direction string `json:"direction" yaml:"direction"`
	LeftKey   string `json:"left_key" yaml:"left_key"`
	RightKey  string `json:"right_key" yaml:"right_key"`
}

// Default palette and scenario name
const (
	ColorRed    = "#ff0000"
	ColorGreen  = "#00ff00"
	ColorBlue   = "#0000ff"
	ColorCyan   = "#00ffff"
	ColorBlack  = "#000000"
	DefaultName = "classic"
)

// DefaultGameConfig returns the built-in scenario: one red cycle on a 50x50 board
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:             DefaultName,
		Description:      "A single red cycle on a 50x50 board",
		BoardWidth:       50,
		BoardHeight:      50,
		TileSize:         DefaultTileSize,
		UpdateIntervalMS: int(DefaultUpdateInterval / time.Millisecond),
		EdgePolicy:       Wrapping,
		Background:       ColorBlack,
		Agents: []AgentConfig{
			{ID: "red", Color: ColorRed, X: 1, Y: 3, Direction: "east", LeftKey: "a", RightKey: "d"},
		},
	}
}

// UpdateInterval returns the tick interval the config selects
func (c *GameConfig) UpdateInterval() time.Duration {
	if c.UpdatesPerSecond > 0 {
		return time.Duration(float64(time.Second) / c.UpdatesPerSecond)
	}
	if c.UpdateIntervalMS > 0 {
		return time.Duration(c.UpdateIntervalMS) * time.Millisecond
	}
	return DefaultUpdateInterval
}

// Policy returns the configured edge policy, defaulting to Wrapping
func (c *GameConfig) Policy() EdgePolicy {
	if c.EdgePolicy == "" {
		return Wrapping
	}
	return EdgePolicy(strings.ToLower(string(c.EdgePolicy)))
}

// Settings converts a validated config into simulation settings
func (c *GameConfig) Settings() (Settings, error) {
	agents := make([]AgentState, 0, len(c.Agents))
	for _, ac := range c.Agents {
		dir, err := ParseDirection(ac.Direction)
		if err != nil {
			return Settings{}, fmt.Errorf("agent %s: %w", ac.ID, err)
		}
		agents = append(agents, AgentState{
			ID:        ac.ID,
			Color:     strings.ToLower(ac.Color),
			Position:  Position{X: ac.X, Y: ac.Y},
			Direction: dir,
			Bindings:  Bindings{Left: NormalizeButton(ac.LeftKey), Right: NormalizeButton(ac.RightKey)},
		})
	}

	tileSize := c.TileSize
	if tileSize == 0 {
		tileSize = DefaultTileSize
	}
	background := c.Background
	if background == "" {
		background = ColorBlack
	}

	return Settings{
		Width:          c.BoardWidth,
		Height:         c.BoardHeight,
		TileSize:       tileSize,
		Background:     strings.ToLower(background),
		EdgePolicy:     c.Policy(),
		UpdateInterval: c.UpdateInterval(),
		Agents:         agents,
	}, nil
}

// NewSimulationFromConfig validates config and builds its simulation
func NewSimulationFromConfig(config *GameConfig) (*Simulation, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	settings, err := config.Settings()
	if err != nil {
		return nil, err
	}
	return NewSimulation(settings)
}

// NormalizeButton lower-cases and trims a key name
func NormalizeButton(key string) Button {
	return Button(strings.ToLower(strings.TrimSpace(key)))
}

// ValidateGameConfig validates a scenario for correctness before any simulation is built
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate board
	if config.BoardWidth < MinBoardSize || config.BoardWidth > MaxBoardSize {
		return fmt.Errorf("config validation: board_width must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.BoardWidth)
	}
	if config.BoardHeight < MinBoardSize || config.BoardHeight > MaxBoardSize {
		return fmt.Errorf("config validation: board_height must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.BoardHeight)
	}
	if config.TileSize < 0 || config.TileSize > MaxTileSize {
		return fmt.Errorf("config validation: tile_size must be between 1 and %d, got %d", MaxTileSize, config.TileSize)
	}

	// Validate cadence
	if config.UpdateIntervalMS != 0 && config.UpdatesPerSecond != 0 {
		return fmt.Errorf("config validation: set only one of update_interval_ms and updates_per_second")
	}
	if config.UpdateIntervalMS < 0 {
		return fmt.Errorf("config validation: update_interval_ms must be positive, got %d", config.UpdateIntervalMS)
	}
	if config.UpdatesPerSecond < 0 || config.UpdatesPerSecond > MaxUpdatesPerSecond {
		return fmt.Errorf("config validation: updates_per_second must be between 0 and %d, got %g", MaxUpdatesPerSecond, config.UpdatesPerSecond)
	}

	if !config.Policy().Valid() {
		return fmt.Errorf("config validation: edge_policy must be %q or %q, got %q", Wrapping, Clamped, config.EdgePolicy)
	}
	if config.Background != "" && !ValidColor(config.Background) {
		return fmt.Errorf("config validation: background must be a #rrggbb color, got %q", config.Background)
	}

	// Validate agents
	if len(config.Agents) == 0 {
		return fmt.Errorf("config validation: at least one agent is required")
	}
	if len(config.Agents) > MaxAgents {
		return fmt.Errorf("config validation: at most %d agents are allowed, got %d", MaxAgents, len(config.Agents))
	}

	ids := make(map[string]bool, len(config.Agents))
	for i, a := range config.Agents {
		if a.ID == "" {
			return fmt.Errorf("config validation: agent %d: id is required", i+1)
		}
		if ids[a.ID] {
			return fmt.Errorf("config validation: agent %d: duplicate id %q", i+1, a.ID)
		}
		ids[a.ID] = true

		if !ValidColor(a.Color) {
			return fmt.Errorf("config validation: agent %s: color must be a #rrggbb color, got %q", a.ID, a.Color)
		}
		if a.X < 0 || a.X >= config.BoardWidth || a.Y < 0 || a.Y >= config.BoardHeight {
			return fmt.Errorf("config validation: agent %s: start (%d, %d) is outside the %dx%d board",
				a.ID, a.X, a.Y, config.BoardWidth, config.BoardHeight)
		}
		if _, err := ParseDirection(a.Direction); err != nil {
			return fmt.Errorf("config validation: agent %s: %v", a.ID, err)
		}

		left, right := NormalizeButton(a.LeftKey), NormalizeButton(a.RightKey)
		if left == "" || right == "" {
			return fmt.Errorf("config validation: agent %s: left_key and right_key are required", a.ID)
		}
		if left == right {
			return fmt.Errorf("config validation: agent %s: left_key and right_key must differ, both are %q", a.ID, left)
		}
	}

	return nil
}

// LoadGameConfig loads a scenario from a JSON or YAML file, chosen by extension
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseGameConfig decodes data as YAML for .yaml/.yml and as JSON otherwise
func ParseGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// IsConfigFile reports whether name has a scenario file extension
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
