// Command roversim simulates rovers exploring a rectangular plateau.
//
// Subcommands:
//  1. "run" – reads a mission (file or stdin) and prints each rover's final position
//  2. "validate" – checks mission files without running them
//  3. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  4. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, mission directory, logging, and optional ngrok
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
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/roversim/api"
	"github.com/wricardo/mcp-training/roversim/game/config"
	"github.com/wricardo/mcp-training/roversim/game/engine"
	"github.com/wricardo/mcp-training/roversim/game/parser"
	"github.com/wricardo/mcp-training/roversim/game/service"
	"github.com/wricardo/mcp-training/roversim/game/session"
	"github.com/wricardo/mcp-training/roversim/logger"
	"github.com/wricardo/mcp-training/roversim/transport/mcp"
	"github.com/wricardo/mcp-training/roversim/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rover Simulator"
)

// Exit codes
const (
	exitInput  = 1 // unreadable or invalid mission
	exitRovers = 2 // mission ran but some rovers stopped on an invalid command
)

// Session retention
const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.L().Warn("dotenv.load_failed", "err", err)
	}

	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitInput)
	}
}

// newApp builds the command tree. Streams are injected so tests can run
// subcommands in-process.
func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "roversim",
		Usage:     "simulate rovers on a rectangular plateau",
		Version:   Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		// exit codes are handled in main
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mission-dir",
				Value:   "missions",
				Usage:   "directory containing mission files",
				Sources: cli.EnvVars("MISSION_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "write logs as JSON",
				Sources: cli.EnvVars("LOG_JSON"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "append logs to this file instead of stderr",
				Sources: cli.EnvVars("LOG_FILE"),
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

var logCleanup func() error

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cleanup, err := logger.Setup(logger.Config{
		Debug: cmd.Bool("debug"),
		JSON:  cmd.Bool("log-json"),
		Path:  cmd.String("log-file"),
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to set up logging: %w", err)
	}
	logCleanup = cleanup
	return ctx, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a mission and print each rover's final position",
		ArgsUsage: "[FILE]",
		Description: `Reads a mission from FILE, or from stdin when FILE is omitted or "-".
The format follows the file extension (.txt, .json, .yaml); stdin is text.
Prints "X Y H" per rover that completed its commands. Rovers that stop on an
invalid command are reported on stderr and the exit status is 2.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mission",
				Usage: "run a stored mission from the mission directory instead of FILE",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full reports as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Root()
			mission, err := readMission(cmd, root.Reader)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
			}
			return runMission(mission, cmd.Bool("json"), root.Writer, root.ErrWriter)
		},
	}
}

// readMission resolves the mission named by --mission or the FILE argument.
func readMission(cmd *cli.Command, stdin io.Reader) (*engine.Mission, error) {
	if name := cmd.String("mission"); name != "" {
		missions, err := config.NewManager(cmd.String("mission-dir"))
		if err != nil {
			return nil, err
		}
		return missions.LoadMission(name)
	}

	path := cmd.Args().First()
	if path == "" || path == "-" {
		return parser.ParseReader("stdin", stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".txt"
	}
	return config.Decode(ext, config.MissionID(path), data)
}

// runMission runs every rover and writes the results.
func runMission(mission *engine.Mission, asJSON bool, stdout, stderr io.Writer) error {
	reports, err := engine.Run(mission)
	if reports == nil && err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
	}

	logger.L().Debug("mission.run", "mission", mission.Name, "rovers", len(reports))

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(reports); encErr != nil {
			return encErr
		}
	} else if writeErr := parser.WriteReports(stdout, reports); writeErr != nil {
		err = writeErr
	}

	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(stderr, "error: %s\n", line)
		}
		return cli.Exit("", exitRovers)
	}
	return nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check mission files without running them",
		ArgsUsage: "FILE...",
		Description: `Checks each FILE, or every mission in --mission-dir when no FILE is given:
the file must parse, the plateau must not be empty, every heading must be
valid and every rover must start on the plateau.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Root()
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				files, err = missionFiles(cmd.String("mission-dir"))
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
				}
			}

			failed := 0
			for _, file := range files {
				result := validateFile(file)
				if result.Valid {
					fmt.Fprintf(root.Writer, "✅ %s: %s\n", result.File, result.Summary)
					continue
				}
				failed++
				fmt.Fprintf(root.Writer, "❌ %s: %v\n", result.File, result.Err)
			}

			fmt.Fprintf(root.Writer, "\n%d valid, %d invalid\n", len(files)-failed, failed)
			if failed > 0 {
				return cli.Exit("", exitInput)
			}
			return nil
		},
	}
}

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File    string
	Valid   bool
	Summary string
	Err     error
}

func validateFile(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path)}

	mission, err := config.LoadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	result.Valid = true
	result.Summary = fmt.Sprintf("plateau %dx%d, %d rovers",
		mission.Bounds.XMax-mission.Bounds.XMin, mission.Bounds.YMax-mission.Bounds.YMin, len(mission.Rovers))
	return result
}

// missionFiles lists the supported mission files in dir.
func missionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id := config.MissionID(e.Name()); id != e.Name() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
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
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			defer closeLog()

			roverService, sessions, err := initializeServices(cmd.String("mission-dir"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to initialize services: %v", err), exitInput)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			go sessionCleanupRoutine(ctx, sessions)

			return runHTTPServer(ctx, roverService, httpOptions{
				addr:        fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server",
		Description: `Proxies MCP tool calls to the REST API at --api-url. When nothing answers
there, an internal API is started on a random loopback port. Logs go to
stderr or --log-file; stdout carries the protocol.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "REST API to reuse if it is running",
				Sources: cli.EnvVars("ROVERSIM_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			defer closeLog()

			roverService, sessions, err := initializeServices(cmd.String("mission-dir"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to initialize services: %v", err), exitInput)
			}
			go sessionCleanupRoutine(ctx, sessions)

			return runStdioMCPWithInternalServer(ctx, roverService, cmd.String("api-url"))
		},
	}
}

func closeLog() {
	if logCleanup != nil {
		logCleanup()
	}
}

// initializeServices wires session/mission managers and the rover service.
func initializeServices(missionDir string) (service.RoverService, *session.Manager, error) {
	missionManager, err := config.NewManager(missionDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mission manager: %w", err)
	}

	sessionManager := session.NewManager()

	return service.NewRoverService(sessionManager, missionManager), sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(sessionCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.L().Info("session.cleanup", "removed", removed, "remaining", manager.Count())
			}
		}
	}
}

// newHandler combines the REST API and the /mcp endpoint.
func newHandler(roverService service.RoverService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(roverService, hub)
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

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

type httpOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// runHTTPServer serves until ctx is cancelled. If ngrok is enabled it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, roverService service.RoverService, opts httpOptions) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	handler := newHandler(roverService, hub, "http://"+opts.addr)

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log := logger.L()
	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("http.listening",
			"addr", opts.addr,
			"api", fmt.Sprintf("http://%s/api", opts.addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", opts.addr),
			"mcp", fmt.Sprintf("http://%s/mcp", opts.addr),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, opts)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("http.shutdown")
	case err = <-serveErr:
		log.Error("http.failed", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("http.shutdown_failed", "err", shutdownErr)
	}

	wg.Wait()
	log.Info("http.stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts httpOptions) {
	log := logger.L()
	if opts.ngrokAuth == "" {
		log.Warn("ngrok.no_auth_token", "hint", "use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Error("ngrok.listen_failed", "err", err)
		return
	}

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Info("ngrok.established", "url", tun.URL(), "domain", opts.ngrokDomain)

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("ngrok.serve_failed", "err", err)
	}
	log.Info("ngrok.closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses the API at externalURL if it answers /health; otherwise it
// starts an internal HTTP API bound to a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, roverService service.RoverService, externalURL string) error {
	log := logger.L()
	baseURL := externalURL

	if !apiAvailable(externalURL) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: newHandler(roverService, hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("mcp.internal_http_failed", "err", err)
			}
		}()
		defer httpServer.Close()

		log.Info("mcp.internal_http", "url", baseURL)
	} else {
		log.Info("mcp.external_http", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a rover API answers at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
