// Command vectorrace runs vector races.
//
// Commands:
//  1. "run" – plays a race file on the console, with player cars reading moves from stdin
//  2. "serve" – runs the HTTP server exposing the REST API, WebSocket frames and an /mcp endpoint,
//     optionally publishing races to an MQTT broker and tunneling through ngrok
//  3. "mcp" – runs an MCP stdio server, spinning up an internal HTTP API if none is available
//
// Settings can come from flags, environment variables or a .env file.
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
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/vectorrace/api"
	"github.com/wricardo/mcp-training/vectorrace/game/config"
	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/service"
	"github.com/wricardo/mcp-training/vectorrace/game/session"
	"github.com/wricardo/mcp-training/vectorrace/game/strategy"
	"github.com/wricardo/mcp-training/vectorrace/logging"
	"github.com/wricardo/mcp-training/vectorrace/transport/console"
	"github.com/wricardo/mcp-training/vectorrace/transport/mcp"
	"github.com/wricardo/mcp-training/vectorrace/transport/mqtt"
	"github.com/wricardo/mcp-training/vectorrace/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Vector Race"
)

var log = logging.Log

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Critical(err)
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "vectorrace",
		Usage:   "turn-based vector races on a tile grid",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.InitWriter(cmd.Root().ErrWriter, cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			mcpCommand(),
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "play a race file on the console",
		ArgsUsage: "<race-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto",
				Usage: "advance turns without waiting for Enter",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "seed of random-bot cars",
			},
			&cli.IntFlag{
				Name:  "max-rounds",
				Usage: "stop after this many rounds (0 for no limit)",
				Value: engine.MaxBulkRounds,
			},
		},
		Action: runRace,
	}
}

// runRace loads a race file and plays it until it finishes, the round limit
// is reached or the process is interrupted
func runRace(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("run needs exactly one race file")
	}

	raceConfig, err := engine.LoadRaceConfig(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("failed to load race: %w", err)
	}

	out := cmd.Root().Writer
	term := console.New(cmd.Root().Reader, out, cmd.Bool("auto"))

	options := []strategy.Option{strategy.WithMoveReader(term)}
	if cmd.IsSet("seed") {
		options = append(options, strategy.WithSeed(cmd.Uint64("seed")))
	}

	race, err := engine.NewRaceFromConfig(raceConfig, strategy.Factory(options...), term)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	maxRounds := cmd.Int("max-rounds")
	for !race.IsFinished() {
		if maxRounds > 0 && race.Round() >= maxRounds {
			fmt.Fprintf(out, "No winner after %d rounds.\n", race.Round())
			return nil
		}
		if err := race.Step(ctx); err != nil {
			return err
		}
	}

	if winner := race.Winner(); winner != nil {
		fmt.Fprintf(out, "Winner: %c after %d rounds.\n", winner.Name(), race.Round())
	} else {
		fmt.Fprintf(out, "No winner after %d rounds.\n", race.Round())
	}
	return nil
}

// serveOptions control how the server starts and which services are enabled
type serveOptions struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
	mqttBroker  string
	mqttTopic   string
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing race files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
			&cli.StringFlag{Name: "mqtt-broker", Usage: "MQTT broker address, e.g. tcp://localhost:1883", Sources: cli.EnvVars("MQTT_BROKER_ADDRESS")},
			&cli.StringFlag{Name: "mqtt-topic", Value: mqtt.DefaultTopic, Usage: "MQTT topic prefix", Sources: cli.EnvVars("MQTT_TOPIC")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, serveOptions{
				host:        cmd.String("host"),
				port:        cmd.Int("port"),
				configDir:   cmd.String("config-dir"),
				sessionsDir: cmd.String("sessions-dir"),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
				mqttBroker:  cmd.String("mqtt-broker"),
				mqttTopic:   cmd.String("mqtt-topic"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to use when it is reachable", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing race files for the internal server", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for persisted sessions of the internal server", Sources: cli.EnvVars("SESSIONS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("debug") {
				// stdout carries the MCP protocol
				logging.Silence()
			}
			return runStdioMCP(ctx, cmd.String("api-url"), serveOptions{
				configDir:   cmd.String("config-dir"),
				sessionsDir: cmd.String("sessions-dir"),
			})
		},
	}
}

// services are the long-lived components behind the HTTP server
type services struct {
	race        service.RaceService
	sessions    *session.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub
	publisher   *mqtt.Publisher
}

// initializeServices wires config and session managers, the websocket hub
// and, when a broker is configured, the MQTT publisher into a race service.
func initializeServices(opts serveOptions) (*services, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	uis := []service.UIFactory{hub.SessionUI}

	var publisher *mqtt.Publisher
	if opts.mqttBroker != "" {
		publisher, err = mqtt.Connect(opts.mqttBroker, "vectorrace-"+uuid.NewString()[:8], opts.mqttTopic)
		if err != nil {
			log.Warningf("MQTT publishing disabled: %v", err)
		} else {
			uis = append(uis, publisher.SessionUI)
		}
	}

	build := service.NewRaceBuilder(strategy.Factory(), uis...)

	persistence, err := session.NewFilePersistence(opts.sessionsDir, build)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(build, persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warningf("failed to load persisted sessions: %v", err)
	}

	return &services{
		race:        service.NewRaceService(sessionManager, configManager),
		sessions:    sessionManager,
		persistence: persistence,
		hub:         hub,
		publisher:   publisher,
	}, nil
}

// close saves the sessions and disconnects from the broker
func (s *services) close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Warningf("failed to save sessions: %v", err)
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
}

// newRouter combines the REST API, WebSocket upgrade and the /mcp endpoint
func newRouter(svc *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svc.race, svc.hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves until the context is cancelled or a signal arrives.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts serveOptions) error {
	svc, err := initializeServices(opts)
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionCleanupRoutine(ctx, svc.sessions)
	go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence)

	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)
	router := newRouter(svc, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Noticef("HTTP server listening on %s", addr)
		log.Noticef("REST API: http://%s/api", addr)
		log.Noticef("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Noticef("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
			stop()
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, opts, router)
		}()
	}

	<-ctx.Done()
	log.Notice("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Notice("Server stopped")

	select {
	case err := <-serverErr:
		return err
	default:
		return nil
	}
}

// serveNgrok serves the router through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, opts serveOptions, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Warning("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	log.Notice("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Noticef("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Errorf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Errorf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Noticef("Ngrok tunnel established: %s", ngrokURL)
	log.Noticef("  REST API (ngrok): %s/api", ngrokURL)
	log.Noticef("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Noticef("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Errorf("Ngrok server error: %v", err)
	}
	log.Notice("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed for a day
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				log.Infof("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory when their files are
// deleted from the sessions directory
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphanedSessions(manager, persistence)
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Infof("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// apiAvailable reports whether a REST API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the API at apiURL when it
// answers; otherwise it starts an internal HTTP API on a random loopback port.
func runStdioMCP(ctx context.Context, apiURL string, opts serveOptions) error {
	baseURL := apiURL

	if apiAvailable(apiURL) {
		log.Infof("External API server found at %s, using it for MCP", apiURL)
	} else {
		log.Infof("No API server at %s, starting internal HTTP server", apiURL)

		svc, err := initializeServices(opts)
		if err != nil {
			return err
		}
		defer svc.close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		baseURL = "http://" + listener.Addr().String()
		httpServer := &http.Server{Handler: api.NewServer(svc.race, svc.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Infof("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
