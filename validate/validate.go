// Package validate checks scenario files and reports simple heuristics about
// them. It backs the validate and analyze commands.
package validate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/lightcycle/game/engine"
)

// ValidationResult holds the outcome of validating one scenario file.
// Info lines are only filled for valid files.
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Info     []string `json:"info,omitempty"`
}

// ValidateFile loads, validates and builds the scenario at path
func ValidateFile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := engine.ParseGameConfig(data, filepath.Ext(path))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to parse file: %v", err))
		return result
	}

	return ValidateConfig(result.File, config)
}

// ValidateConfig validates an already decoded scenario
func ValidateConfig(file string, config *engine.GameConfig) ValidationResult {
	result := ValidationResult{File: file, Valid: true}

	sim, err := engine.NewSimulationFromConfig(config)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Warnings = warnings(config)

	settings := sim.Settings()
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Board: %dx%d %s", settings.Width, settings.Height, settings.EdgePolicy),
		fmt.Sprintf("✓ Agents: %d", len(settings.Agents)),
		fmt.Sprintf("✓ Interval: %s", settings.UpdateInterval),
	)
	return result
}

// warnings flags legal but suspicious scenarios
func warnings(config *engine.GameConfig) []string {
	var out []string

	for button, ids := range SharedBindings(config) {
		out = append(out, fmt.Sprintf("Button %q is bound by several agents: %s", button, strings.Join(ids, ", ")))
	}
	sort.Strings(out)

	starts := make(map[engine.Position]string, len(config.Agents))
	for _, a := range config.Agents {
		p := engine.Position{X: a.X, Y: a.Y}
		if other, ok := starts[p]; ok {
			out = append(out, fmt.Sprintf("Agents %s and %s start on the same cell (%d,%d)", other, a.ID, p.X, p.Y))
			continue
		}
		starts[p] = a.ID
	}

	if config.Policy() == engine.Clamped {
		for _, a := range config.Agents {
			dir, err := engine.ParseDirection(a.Direction)
			if err != nil {
				continue
			}
			if engine.StepsToEdge(engine.Position{X: a.X, Y: a.Y}, dir, config.BoardWidth, config.BoardHeight) == 0 {
				out = append(out, fmt.Sprintf("Agent %s starts facing the edge and leaves the board on its first tick", a.ID))
			}
		}
	}

	return out
}

// SharedBindings maps every button bound by more than one agent to those agents
func SharedBindings(config *engine.GameConfig) map[engine.Button][]string {
	owners := make(map[engine.Button][]string)
	for _, a := range config.Agents {
		for _, key := range []string{a.LeftKey, a.RightKey} {
			b := engine.NormalizeButton(key)
			if b == "" {
				continue
			}
			owners[b] = append(owners[b], a.ID)
		}
	}

	shared := make(map[engine.Button][]string)
	for b, ids := range owners {
		if len(ids) > 1 {
			shared[b] = ids
		}
	}
	return shared
}

// ValidateDir validates every scenario file in dir, sorted by name
func ValidateDir(dir string) ([]ValidationResult, error) {
	files, err := scenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, ValidateFile(file))
	}
	return results, nil
}

func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !engine.IsConfigFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// WriteResults prints a report of results and tells whether all were valid
func WriteResults(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

// AgentReport summarizes one agent's start
type AgentReport struct {
	ID          string
	Start       engine.Position
	Direction   engine.Direction
	StepsToEdge int
	// TimeToEdge is zero on wrapping boards
	TimeToEdge time.Duration
}

// Report summarizes a scenario
type Report struct {
	Name           string
	Width          int
	Height         int
	EdgePolicy     engine.EdgePolicy
	UpdateInterval time.Duration
	Agents         []AgentReport
	SharedBindings map[engine.Button][]string
}

// Analyze reports the board and per-agent heuristics of a valid scenario
func Analyze(config *engine.GameConfig) (*Report, error) {
	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, err
	}
	settings, err := config.Settings()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Name:           config.Name,
		Width:          settings.Width,
		Height:         settings.Height,
		EdgePolicy:     settings.EdgePolicy,
		UpdateInterval: settings.UpdateInterval,
		SharedBindings: SharedBindings(config),
	}
	for _, a := range settings.Agents {
		ar := AgentReport{
			ID:          a.ID,
			Start:       a.Position,
			Direction:   a.Direction,
			StepsToEdge: engine.StepsToEdge(a.Position, a.Direction, settings.Width, settings.Height),
		}
		if settings.EdgePolicy == engine.Clamped {
			ar.TimeToEdge = time.Duration(ar.StepsToEdge+1) * settings.UpdateInterval
		}
		report.Agents = append(report.Agents, ar)
	}
	return report, nil
}

// AnalyzeDir analyzes every scenario file in dir. Files that fail to load
// are reported through errs keyed by file name.
func AnalyzeDir(dir string) (reports []*Report, errs map[string]error, err error) {
	files, err := scenarioFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	errs = make(map[string]error)
	for _, file := range files {
		config, loadErr := engine.LoadGameConfig(file)
		if loadErr != nil {
			errs[filepath.Base(file)] = loadErr
			continue
		}
		report, analyzeErr := Analyze(config)
		if analyzeErr != nil {
			errs[filepath.Base(file)] = analyzeErr
			continue
		}
		reports = append(reports, report)
	}
	return reports, errs, nil
}

// WriteReport prints a human-readable report
func WriteReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Name)
	fmt.Fprintf(w, "Board: %dx%d, %s edges\n", r.Width, r.Height, r.EdgePolicy)
	fmt.Fprintf(w, "Tick interval: %s (%.1f ticks/s)\n", r.UpdateInterval, float64(time.Second)/float64(r.UpdateInterval))
	fmt.Fprintf(w, "Cells: %d\n", r.Width*r.Height)

	fmt.Fprintln(w, "\nAgents:")
	for _, a := range r.Agents {
		fmt.Fprintf(w, "  %s at (%d,%d) heading %s, %d steps to edge", a.ID, a.Start.X, a.Start.Y, a.Direction, a.StepsToEdge)
		if a.TimeToEdge > 0 {
			fmt.Fprintf(w, ", leaves the board after %s without a turn", a.TimeToEdge)
		}
		fmt.Fprintln(w)
	}

	if len(r.SharedBindings) > 0 {
		buttons := make([]string, 0, len(r.SharedBindings))
		for b := range r.SharedBindings {
			buttons = append(buttons, string(b))
		}
		sort.Strings(buttons)

		fmt.Fprintln(w, "\nShared buttons:")
		for _, b := range buttons {
			fmt.Fprintf(w, "  %s: %s\n", b, strings.Join(r.SharedBindings[engine.Button(b)], ", "))
		}
	}
}
