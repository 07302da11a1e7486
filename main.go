// Command lightcycle runs the light-cycle trail simulation.
//
// Commands:
//  1. "server" (default): HTTP server exposing the REST API, WebSocket board
//     stream and an /mcp HTTP endpoint, with the realtime clock running
//  2. "mcp": MCP stdio server, spinning up an internal HTTP API if none is available
//  3. "play": local terminal game
//  4. "validate" and "analyze": scenario file checks
//
// Every flag can also be set from the environment, and a .env file in the
// working directory is loaded first.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/lightcycle/game/config"
	"github.com/wricardo/lightcycle/game/service"
	"github.com/wricardo/lightcycle/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Light Cycle Server"
)

// Session store kinds
const (
	StoreFile  = "file"
	StoreGdata = "gdata"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded environment variables from .env file")
	} else if !os.IsNotExist(err) {
		log.Warn("Error loading .env file", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal("Command failed", "err", err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "lightcycle",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing scenario files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			serverCommand(),
			mcpCommand(),
			playCommand(),
			validateCommand(),
			analyzeCommand(),
		},
	}
}

// storeFlags select and locate the session store
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Value:   StoreFile,
			Usage:   "Session store: file or gdata",
			Sources: cli.EnvVars("SESSION_STORE"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "Directory for the file session store",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.StringFlag{
			Name:    "gdata-app",
			Value:   "lightcycle",
			Usage:   "Application name of the gdata session store",
			Sources: cli.EnvVars("GDATA_APP"),
		},
	}
}

// newLogger builds the root logger for a level name
func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	}), nil
}

func loggerFor(cmd *cli.Command) (*log.Logger, error) {
	return newLogger(cmd.String("log-level"))
}

// serviceOptions configure initializeServices
type serviceOptions struct {
	ConfigDir   string
	Store       string
	SessionsDir string
	GdataApp    string
}

func serviceOptionsFor(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:   cmd.String("config-dir"),
		Store:       cmd.String("store"),
		SessionsDir: cmd.String("sessions-dir"),
		GdataApp:    cmd.String("gdata-app"),
	}
}

// services groups what the server and the MCP command share
type services struct {
	Game        service.GameService
	Sessions    *session.Manager
	Persistence session.SessionPersistence
}

// initializeServices wires the config manager, the session store and the
// game service, and loads persisted sessions
func initializeServices(opts serviceOptions, logger *log.Logger) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var persistence session.SessionPersistence
	switch opts.Store {
	case StoreFile, "":
		persistence, err = session.NewFilePersistence(opts.SessionsDir, configManager)
	case StoreGdata:
		persistence, err = session.NewGdataPersistence(opts.GdataApp, configManager)
	default:
		return nil, fmt.Errorf("unknown session store %q, use %q or %q", opts.Store, StoreFile, StoreGdata)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, logger)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("Failed to load persisted sessions", "err", err)
	}

	return &services{
		Game:        service.NewGameService(sessionManager, configManager, logger),
		Sessions:    sessionManager,
		Persistence: persistence,
	}, nil
}
