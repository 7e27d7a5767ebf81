// Command wordbrain runs the word puzzle progression engine.
//
// It supports these modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. play commands – status, categories, start, daily, hint, add-hints, found, restart, reset
//  4. "validate" – checks a board catalog
//
// Settings come from the environment (and a .env file); flags control
// host/port, debug logging, and optional ngrok tunneling for easy external
// access during development.
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

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/wordbrain/api"
	"github.com/wricardo/wordbrain/transport/mcp"
	"github.com/wricardo/wordbrain/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "WordBrain Server"
)

// main loads the environment, configures logging, and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}

	if err := newRootCommand(cfg).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// serverFlags returns the flags shared by the serve and mcp commands.
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("WORDBRAIN_HOST")},
		&cli.StringFlag{Name: "port", Value: "8080", Usage: "HTTP server port", Sources: cli.EnvVars("WORDBRAIN_PORT", "PORT")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)"},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)"},
	}
}

// listenAddr builds host:port from the server flags.
func listenAddr(cmd *cli.Command) string {
	return net.JoinHostPort(cmd.String("host"), cmd.String("port"))
}

func applyDebug(cmd *cli.Command) {
	if cmd.Bool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(cfg *appConfig) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		applyDebug(cmd)
		log.Info().Str("version", Version).Str("mode", "serve").Msg("starting " + AppName)

		// Setup graceful shutdown context
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Create WebSocket hub; it is the renderer and notifier of the service
		hub := websocket.NewHub(log.Logger.With().Str("component", "websocket").Logger())
		go hub.Run(ctx)

		a, err := newApp(ctx, cfg, hub)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer a.Close()

		// Create API server
		apiServer := api.NewServer(a.service, hub, log.Logger.With().Str("component", "api").Logger())

		// Setup HTTP server address
		addr := listenAddr(cmd)

		// Create MCP client for /mcp endpoint
		baseURL := fmt.Sprintf("http://%s", addr)
		mcpClient := mcp.NewClient(baseURL)

		mainRouter := newMainRouter(apiServer, mcpClient)

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      mainRouter,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Handle shutdown signals
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(stop)

		serverErr := make(chan error, 1)
		var wg sync.WaitGroup

		// Start regular HTTP server
		wg.Add(1)
		go func() {
			defer wg.Done()

			log.Info().
				Str("addr", addr).
				Str("rest", fmt.Sprintf("http://%s/api", addr)).
				Str("websocket", fmt.Sprintf("ws://%s/ws", addr)).
				Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
				Msg("HTTP server listening")

			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		// Start ngrok tunnel if enabled
		if cmd.Bool("ngrok") {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runNgrok(ctx, cmd, cfg, mainRouter)
			}()
		}

		// Wait for shutdown signal
		var runErr error
		select {
		case sig := <-stop:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
		case runErr = <-serverErr:
			log.Error().Err(runErr).Msg("HTTP server failed")
		}
		cancel()

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}

		// Wait for all goroutines to finish
		wg.Wait()

		if err := a.service.Save(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to save progress on shutdown")
		}
		log.Info().Msg("server stopped")
		return runErr
	}
}

// newMainRouter combines the API server and the /mcp endpoint.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	// Always add MCP endpoint for HTTP server
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, cmd *cli.Command, cfg *appConfig, handler http.Handler) {
	// Get auth token from flag or environment
	authToken := cmd.String("ngrok-auth")
	if authToken == "" {
		authToken = cfg.NgrokAuthToken
	}
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	// Get domain from flag or environment
	domain := cmd.String("ngrok-domain")
	if domain == "" {
		domain = cfg.NgrokDomain
	}

	// Configure ngrok endpoint
	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	// Closing the tunnel makes Serve return
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("rest", ngrokURL+"/api").
		Str("websocket", ngrokURL+"/ws").
		Str("mcp", ngrokURL+"/mcp").
		Msg("🚀 ngrok tunnel established")

	// Serve HTTP through ngrok tunnel
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server.
// It tries to reuse an external API at host:port; if unavailable, it starts a
// minimal internal HTTP API bound to a random loopback port and targets that.
// Only the internal server opens the save, so two processes never write it.
func runStdioMCP(cfg *appConfig) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		applyDebug(cmd)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// First, try to connect to external API server
		externalURL := fmt.Sprintf("http://%s", listenAddr(cmd))
		log.Info().Str("url", externalURL).Msg("checking for external API server")

		baseURL, err := probeAPI(externalURL)
		if err != nil {
			// No external server found, start internal one
			log.Info().Msg("no external API server found, starting internal HTTP server")

			internalURL, shutdown, err := startInternalServer(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()
			baseURL = internalURL
		} else {
			log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
		}

		// Create MCP client pointing to the selected server
		mcpClient := mcp.NewClient(baseURL)
		log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

		// Run MCP stdio server (blocking)
		if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
			return fmt.Errorf("MCP stdio server error: %w", err)
		}
		return nil
	}
}

// probeAPI returns baseURL when a wordbrain API answers its health check.
func probeAPI(baseURL string) (string, error) {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return baseURL, nil
}

// startInternalServer serves the API on a random loopback port. The returned
// function stops the server and saves progress.
func startInternalServer(ctx context.Context, cfg *appConfig) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub(log.Logger.With().Str("component", "websocket").Logger())
	go hub.Run(ctx)

	a, err := newApp(ctx, cfg, hub)
	if err != nil {
		listener.Close()
		return "", nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	apiServer := api.NewServer(a.service, hub, log.Logger.With().Str("component", "api").Logger())
	httpServer := &http.Server{
		Handler: apiServer,
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	internalAddr := listener.Addr().String()
	log.Info().Str("addr", internalAddr).Msg("internal HTTP server started for MCP stdio")

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		if err := a.service.Save(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to save progress on shutdown")
		}
		a.Close()
	}

	return "http://" + internalAddr, shutdown, nil
}
