package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/lightcycle/game/config"
	"github.com/wricardo/lightcycle/game/engine"
	"github.com/wricardo/lightcycle/terminal"
	"github.com/wricardo/lightcycle/validate"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a scenario in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Scenario name in the config directory (default: the directory's default scenario)",
			},
			&cli.BoolFlag{
				Name:  "sound",
				Usage: "Beep on every turn",
			},
			&cli.IntFlag{
				Name:  "frame-rate",
				Value: terminal.DefaultFrameRate,
				Usage: "Frames per second",
			},
		},
		Action: runPlay,
	}
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	// stderr shares the terminal with the screen
	logger.SetOutput(io.Discard)

	cfg, err := loadScenario(cmd.String("config-dir"), cmd.String("config"), logger)
	if err != nil {
		return err
	}

	sim, err := engine.NewSimulationFromConfig(cfg)
	if err != nil {
		return err
	}

	opts := terminal.Options{
		FrameRate: int(cmd.Int("frame-rate")),
		Logger:    logger,
	}
	if cmd.Bool("sound") {
		sound, err := terminal.NewSound()
		if err != nil {
			log.Warn("Sound disabled", "err", err)
		} else {
			defer sound.Close()
			opts.Sound = sound
		}
	}

	return terminal.Play(ctx, sim, opts)
}

// loadScenario returns the named scenario from dir, or the directory's
// default scenario when name is empty
func loadScenario(dir, name string, logger *log.Logger) (*engine.GameConfig, error) {
	manager, err := config.NewManager(dir, logger)
	if err != nil {
		if name == "" {
			return engine.DefaultGameConfig(), nil
		}
		return nil, err
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate every scenario file in a directory",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := validate.ValidateDir(scenarioDir(cmd))
			if err != nil {
				return err
			}
			if !validate.WriteResults(os.Stdout, results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Summarize agents, shared buttons and time to the edge of each scenario",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reports, errs, err := validate.AnalyzeDir(scenarioDir(cmd))
			if err != nil {
				return err
			}
			for _, report := range reports {
				validate.WriteReport(os.Stdout, report)
			}
			for file, err := range errs {
				fmt.Fprintf(os.Stdout, "\n=== %s ===\nError: %v\n", file, err)
			}
			return nil
		},
	}
}

// scenarioDir is the first argument, or --config-dir
func scenarioDir(cmd *cli.Command) string {
	if dir := cmd.Args().First(); dir != "" {
		return dir
	}
	return cmd.String("config-dir")
}
