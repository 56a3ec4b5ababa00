// Command tilepairs starts the Tile Pairs game server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the WebSocket stream and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, logging, and optional ngrok
// tunneling for easy external access during development. Every flag can also
// be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/tile-pairs-game/api"
	"github.com/wricardo/tile-pairs-game/game/config"
	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/service"
	"github.com/wricardo/tile-pairs-game/game/session"
	"github.com/wricardo/tile-pairs-game/internal/logging"
	"github.com/wricardo/tile-pairs-game/transport/mcp"
	"github.com/wricardo/tile-pairs-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tile Pairs Server"
)

// options holds everything the flags configure
type options struct {
	host       string
	port       int
	configDir  string
	staticDir  string
	logLevel   string
	debug      bool
	sessionTTL time.Duration

	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

// runFunc starts one mode with parsed options
type runFunc func(ctx context.Context, opts options) error

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing board configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "static-dir", Usage: "Serve a browser front-end from this directory", Sources: cli.EnvVars("STATIC_DIR")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.BoolFlag{Name: "debug", Usage: "Human-readable debug logging", Sources: cli.EnvVars("DEBUG")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Remove sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		configDir:    cmd.String("config-dir"),
		staticDir:    cmd.String("static-dir"),
		logLevel:     cmd.String("log-level"),
		debug:        cmd.Bool("debug"),
		sessionTTL:   cmd.Duration("session-ttl"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

func action(run runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return run(ctx, optionsFrom(cmd))
	}
}

// newCommand builds the CLI. The run functions are injected so tests can
// check flag parsing without starting servers.
func newCommand(serve, stdio runFunc) *cli.Command {
	return &cli.Command{
		Name:    "tilepairs",
		Usage:   AppName,
		Version: Version,
		Flags:   serverFlags(),
		Action:  action(serve),
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags:   serverFlags(),
				Action:  action(serve),
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, reusing a running API or starting an internal one",
				Flags:   serverFlags(),
				Action:  action(stdio),
			},
		},
	}
}

func main() {
	// .env is optional
	envErr := godotenv.Load()

	if err := newCommand(runServer, runStdioMCP).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", envErr)
	}
}

func newLogger(opts options, outputPaths ...string) (*zap.Logger, error) {
	level := opts.logLevel
	if opts.debug {
		level = "debug"
	}
	return logging.New(level, opts.debug, outputPaths...)
}

// application wires the managers, the service and the transports
type application struct {
	logger   *zap.Logger
	configs  *config.Manager
	sessions *session.Manager
	hub      *websocket.Hub
	service  service.GameService
	api      *api.Server
}

func newApplication(opts options, logger *zap.Logger) (*application, error) {
	configManager, err := config.NewManager(opts.configDir, config.WithLogger(logger.Named("config")))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configManager.CheckAll(); err != nil {
		for _, e := range multierr.Errors(err) {
			logger.Warn("invalid config file", zap.Error(e))
		}
	}

	hub := websocket.NewHub(websocket.WithLogger(logger.Named("ws")))

	sessionManager := session.NewManager(
		session.WithLogger(logger.Named("session")),
		session.WithStateListener(func(sessionID string, snap engine.Snapshot) {
			hub.BroadcastState(sessionID, &snap)
		}),
		session.WithEventListener(func(sessionID string, ev engine.Event) {
			hub.BroadcastEvent(sessionID, websocket.EventGame, ev)
		}),
	)

	gameService := service.NewGameService(sessionManager, configManager)

	apiOpts := []api.Option{api.WithLogger(logger.Named("api"))}
	if opts.staticDir != "" {
		apiOpts = append(apiOpts, api.WithStaticDir(opts.staticDir))
	}

	return &application{
		logger:   logger,
		configs:  configManager,
		sessions: sessionManager,
		hub:      hub,
		service:  gameService,
		api:      api.NewServer(gameService, hub, apiOpts...),
	}, nil
}

// start runs the hub and the idle-session sweeper until ctx is cancelled
func (a *application) start(ctx context.Context, ttl time.Duration) {
	go a.hub.Run(ctx)
	go sessionCleanupRoutine(ctx, a.sessions, ttl, a.logger)
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, logger *zap.Logger) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// mcpHandler serves single JSON-RPC messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, opts options) error {
	logger, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := newApplication(opts, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.start(ctx, opts.sessionTTL)

	addr := opts.addr()
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", app.api)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient("http://"+addr)))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if opts.ngrokEnabled {
		go runTunnel(ctx, opts, mainRouter, logger.Named("ngrok"))
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = multierr.Combine(
		httpServer.Shutdown(shutdownCtx),
		app.sessions.Close(shutdownCtx),
	)
	logger.Info("server stopped")
	return err
}

// runTunnel serves handler through an ngrok endpoint until ctx is cancelled
func runTunnel(ctx context.Context, opts options, handler http.Handler, logger *zap.Logger) {
	if opts.ngrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	tunnel := ngrokConfig.HTTPEndpoint()
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"),
	)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// apiAvailable reports whether a tile pairs API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address; otherwise it starts an internal API bound to a
// random loopback port. Logs go to stderr since stdout carries the protocol.
func runStdioMCP(ctx context.Context, opts options) error {
	logger, err := newLogger(opts, "stderr")
	if err != nil {
		return err
	}
	defer logger.Sync()

	baseURL := "http://" + opts.addr()
	if apiAvailable(baseURL) {
		logger.Info("using external API server", zap.String("url", baseURL))
	} else {
		app, err := newApplication(opts, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		app.start(ctx, opts.sessionTTL)
		defer app.sessions.Close(context.Background())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{Handler: app.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("started internal API server", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
