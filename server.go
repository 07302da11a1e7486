package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/lightcycle/api"
	"github.com/wricardo/lightcycle/game/service"
	"github.com/wricardo/lightcycle/game/session"
	"github.com/wricardo/lightcycle/transport/mcp"
	"github.com/wricardo/lightcycle/transport/websocket"
)

const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
	syncInterval    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func serverCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.IntFlag{
			Name:    "frame-rate",
			Value:   service.DefaultFrameRate,
			Usage:   "Frames per second of the realtime clock",
			Sources: cli.EnvVars("FRAME_RATE"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}

	return &cli.Command{
		Name:    "server",
		Aliases: []string{"http"},
		Usage:   "Run the HTTP server with REST API, WebSocket, MCP endpoint and realtime clock",
		Flags:   append(flags, storeFlags()...),
		Action:  runServer,
	}
}

// runServer serves the API until ctx is cancelled, then shuts down and
// saves every session
func runServer(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}

	frameRate := int(cmd.Int("frame-rate"))
	if frameRate <= 0 {
		return fmt.Errorf("frame-rate must be positive, got %d", frameRate)
	}

	svcs, err := initializeServices(serviceOptionsFor(cmd), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(logger)
	hub.SetInputHandler(svcs.Game.PressButton)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	handler := newRouter(api.NewServer(svcs.Game, hub, logger), mcp.NewClient("http://"+addr), logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	start := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	start(func() { hub.Run(ctx) })
	start(func() {
		frame := time.Second / time.Duration(frameRate)
		if err := service.RunClock(ctx, svcs.Game, frame, hub.Publish, logger); err != nil {
			logger.Error("Realtime clock failed", "err", err)
		}
	})
	start(func() { sessionCleanupRoutine(ctx, svcs.Sessions, cleanupInterval, logger) })
	start(func() { filesystemSyncRoutine(ctx, svcs.Sessions, svcs.Persistence, syncInterval, logger) })

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("Endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cmd.Bool("ngrok") {
		start(func() {
			serveNgrok(ctx, handler, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), logger)
		})
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	if err := svcs.Sessions.SaveAllSessions(); err != nil {
		logger.Error("Failed to save sessions", "err", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newRouter mounts the API at the root and the MCP JSON-RPC endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal MCP response", "err", err)
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})

	return mux
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, handler http.Handler, authToken, domain string, logger *log.Logger) {
	logger = logger.With("component", "ngrok")
	if authToken == "" {
		logger.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("Using custom ngrok domain", "domain", domain)
	}

	logger.Info("Starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("Failed to start ngrok tunnel", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("Failed to close ngrok tunnel", "err", err)
		}
	}()

	url := tun.URL()
	logger.Info("Ngrok tunnel established", "url", url, "api", url+"/api", "mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("Ngrok server error", "err", err)
	}
	logger.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine removes sessions idle for longer than sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("Cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their stored copy
// has been deleted behind the server's back
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration, logger *log.Logger) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithStore(manager, persistence, logger); pruned > 0 {
				logger.Info("Store sync pruned orphaned sessions", "count", pruned)
			}
		}
	}
}

// syncWithStore runs one pass of filesystemSyncRoutine
func syncWithStore(manager *session.Manager, persistence session.SessionPersistence, logger *log.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug("Pruned session from memory", "session", sess.ID)
		}
	}
	return pruned
}

func mcpCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Value:   "http://localhost:8080",
			Usage:   "API server to reuse when it is reachable",
			Sources: cli.EnvVars("LIGHTCYCLE_API_URL"),
		},
	}

	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run an MCP stdio server, starting an internal HTTP API when none is running",
		Flags:   append(flags, storeFlags()...),
		Action:  runStdioMCP,
	}
}

// runStdioMCP serves MCP over stdio. It reuses the API at --api-url when it
// answers, otherwise it starts an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}

	externalURL := cmd.String("api-url")
	baseURL := externalURL

	logger.Info("Checking for external API server", "url", externalURL)
	if !apiReachable(externalURL) {
		logger.Info("No external API server found, starting internal HTTP server")

		svcs, err := initializeServices(serviceOptionsFor(cmd), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(logger)
		hub.SetInputHandler(svcs.Game.PressButton)
		go hub.Run(ctx)

		go func() {
			frame := time.Second / service.DefaultFrameRate
			if err := service.RunClock(ctx, svcs.Game, frame, hub.Publish, logger); err != nil {
				logger.Error("Realtime clock failed", "err", err)
			}
		}()

		httpServer := &http.Server{Handler: api.NewServer(svcs.Game, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Internal HTTP server error", "err", err)
			}
		}()
		defer func() {
			httpServer.Close()
			if err := svcs.Sessions.SaveAllSessions(); err != nil {
				logger.Error("Failed to save sessions", "err", err)
			}
		}()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("Internal HTTP server started", "url", baseURL)
	} else {
		logger.Info("External API server found, using it for MCP", "url", externalURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiReachable reports whether a light-cycle API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
