package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promgate/promgate/internal/server"
	"github.com/promgate/promgate/internal/tools/prometheus"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// simpleLogger provides basic logging for the server
type simpleLogger struct{}

func (l *simpleLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[DEBUG] %s %v", msg, args)
}

func (l *simpleLogger) Info(msg string, args ...interface{}) {
	log.Printf("[INFO] %s %v", msg, args)
}

func (l *simpleLogger) Warn(msg string, args ...interface{}) {
	log.Printf("[WARN] %s %v", msg, args)
}

func (l *simpleLogger) Error(msg string, args ...interface{}) {
	log.Printf("[ERROR] %s %v", msg, args)
}

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		debugMode bool

		// Transport options
		transport       string
		bindHost        string
		bindPort        int
		sseEndpoint     string
		messageEndpoint string
		httpEndpoint    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the promgate MCP server",
		Long: `Start the promgate MCP server to provide tools for interacting
with Prometheus metrics via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - http: Streamable HTTP transport

Environment Variables:
  PROMETHEUS_URL                  - Required: Prometheus server URL
  PROMETHEUS_USERNAME             - Optional: Basic auth username
  PROMETHEUS_PASSWORD             - Optional: Basic auth password
  PROMETHEUS_TOKEN                - Optional: Bearer token (wins over basic auth)
  ORG_ID                          - Optional: Organization ID for multi-tenant setups
  PROMETHEUS_MCP_SERVER_TRANSPORT - Optional: stdio, http, or sse (default: stdio)
  PROMETHEUS_MCP_BIND_HOST        - Optional: Bind host for network transports (default: 127.0.0.1)
  PROMETHEUS_MCP_BIND_PORT        - Optional: Bind port for network transports (default: 8000)

Command line flags override the corresponding environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := transportOverrides{
				transport:    transport,
				bindHost:     bindHost,
				bindPort:     bindPort,
				transportSet: cmd.Flags().Changed("transport"),
				bindHostSet:  cmd.Flags().Changed("bind-host"),
				bindPortSet:  cmd.Flags().Changed("bind-port"),
			}
			return runServe(debugMode, overrides, sseEndpoint, messageEndpoint, httpEndpoint)
		},
	}

	// Add flags for configuring the server
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging (default: false)")

	// Transport flags
	cmd.Flags().StringVar(&transport, "transport", "", "Transport type: stdio, http, or sse (overrides environment)")
	cmd.Flags().StringVar(&bindHost, "bind-host", "", "Bind host for network transports (overrides environment)")
	cmd.Flags().IntVar(&bindPort, "bind-port", 0, "Bind port for network transports (overrides environment)")
	cmd.Flags().StringVar(&sseEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&messageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for http transport)")

	return cmd
}

// transportOverrides carries the flag values that take precedence over the
// environment-sourced MCP configuration.
type transportOverrides struct {
	transport    string
	bindHost     string
	bindPort     int
	transportSet bool
	bindHostSet  bool
	bindPortSet  bool
}

func (o transportOverrides) apply(cfg server.MCPConfig) (server.MCPConfig, error) {
	if o.transportSet {
		parsed, err := server.ParseTransportType(o.transport)
		if err != nil {
			return cfg, err
		}
		cfg.Transport = parsed
	}
	if o.bindHostSet {
		cfg.BindHost = o.bindHost
	}
	if o.bindPortSet {
		cfg.BindPort = o.bindPort
	}
	return cfg, cfg.Validate()
}

// runServe contains the main server logic with support for multiple transports
func runServe(debugMode bool, overrides transportOverrides, sseEndpoint, messageEndpoint, httpEndpoint string) error {
	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create server context
	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithDebugMode(debugMode),
		server.WithLogger(&simpleLogger{}),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	// The upstream URL is the one piece of configuration nothing works
	// without, so refuse to start rather than fail on every tool call.
	config := serverContext.PrometheusConfig()
	if config.URL == "" {
		return fmt.Errorf("PROMETHEUS_URL environment variable is not set, please set it to your Prometheus server URL (e.g. http://your-prometheus-server:9090)")
	}

	mcpConfig, err := overrides.apply(serverContext.MCPConfig())
	if err != nil {
		return fmt.Errorf("invalid transport configuration: %w", err)
	}

	// Log configuration
	fmt.Printf("Prometheus configuration:\n")
	fmt.Printf("  Server URL: %s\n", config.URL)
	switch config.AuthMethod() {
	case "bearer_token":
		fmt.Printf("  Authentication: Bearer token\n")
	case "basic_auth":
		fmt.Printf("  Authentication: Basic auth (username: %s)\n", config.Username)
	default:
		fmt.Printf("  Authentication: None\n")
	}
	if config.OrgID != "" {
		fmt.Printf("  Organization ID: %s\n", config.OrgID)
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("promgate", rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register Prometheus tools
	if err := prometheus.RegisterPrometheusTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register Prometheus tools: %w", err)
	}

	fmt.Printf("Starting promgate MCP server with %s transport...\n", mcpConfig.Transport)

	// Start the appropriate server based on transport type
	switch mcpConfig.Transport {
	case server.TransportStdio:
		return runStdioServer(mcpSrv)
	case server.TransportSSE:
		return runSSEServer(mcpSrv, mcpConfig.Addr(), sseEndpoint, messageEndpoint, shutdownCtx)
	case server.TransportHTTP:
		return runStreamableHTTPServer(mcpSrv, mcpConfig.Addr(), httpEndpoint, shutdownCtx)
	default:
		return fmt.Errorf("unsupported transport type: %s", mcpConfig.Transport)
	}
}

// runStdioServer runs the server with STDIO transport
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}

	fmt.Println("Server gracefully stopped")
	return nil
}

// runSSEServer runs the server with SSE transport
func runSSEServer(mcpSrv *mcpserver.MCPServer, addr, sseEndpoint, messageEndpoint string, ctx context.Context) error {
	// Create SSE server with custom endpoints
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
	)

	fmt.Printf("SSE server starting on %s\n", addr)
	fmt.Printf("  SSE endpoint: %s\n", sseEndpoint)
	fmt.Printf("  Message endpoint: %s\n", messageEndpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := sseServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping SSE server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down SSE server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("SSE server stopped with error: %w", err)
		}
		fmt.Println("SSE server stopped normally")
	}

	fmt.Println("SSE server gracefully stopped")
	return nil
}

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, addr, endpoint string, ctx context.Context) error {
	// Create Streamable HTTP server with custom endpoint
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(endpoint),
	)

	fmt.Printf("Streamable HTTP server starting on %s\n", addr)
	fmt.Printf("  HTTP endpoint: %s\n", endpoint)

	// Start server in goroutine
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	// Wait for either shutdown signal or server completion
	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
