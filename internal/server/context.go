package server

import (
	"context"
	"os"
	"sync"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// PrometheusConfig holds the upstream Prometheus connection settings.
// Constructed once at startup and never mutated by tool calls.
type PrometheusConfig struct {
	URL      string
	Username string
	Password string
	Token    string
	OrgID    string
}

// AuthMethod describes which authentication branch a configuration selects.
// A bearer token takes precedence over basic credentials when both are set.
func (c PrometheusConfig) AuthMethod() string {
	switch {
	case c.Token != "":
		return "bearer_token"
	case c.Username != "" && c.Password != "":
		return "basic_auth"
	default:
		return "none"
	}
}

// ServerContext holds the server configuration and shared resources
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	mutex  sync.RWMutex

	// Configuration
	debugMode bool
	logger    Logger

	// Upstream and transport configuration
	prometheusConfig PrometheusConfig
	mcpConfig        MCPConfig
}

// ServerOption is a functional option for configuring ServerContext
type ServerOption func(*ServerContext)

// WithDebugMode sets whether debug logging is enabled
func WithDebugMode(enabled bool) ServerOption {
	return func(sc *ServerContext) {
		sc.debugMode = enabled
	}
}

// WithLogger sets the logger for the server context
func WithLogger(logger Logger) ServerOption {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// WithPrometheusConfig sets the Prometheus configuration
func WithPrometheusConfig(config PrometheusConfig) ServerOption {
	return func(sc *ServerContext) {
		sc.prometheusConfig = config
	}
}

// WithMCPConfig sets the MCP transport configuration
func WithMCPConfig(config MCPConfig) ServerOption {
	return func(sc *ServerContext) {
		sc.mcpConfig = config
	}
}

// NewServerContext creates a new server context with the given options.
// Configuration not supplied through options is loaded from the environment.
func NewServerContext(ctx context.Context, opts ...ServerOption) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
	}

	// Apply options
	for _, opt := range opts {
		opt(sc)
	}

	// Set default logger if none provided
	if sc.logger == nil {
		sc.logger = &noopLogger{}
	}

	// Load Prometheus configuration from environment if not provided
	if sc.prometheusConfig.URL == "" {
		sc.prometheusConfig = PrometheusConfig{
			URL:      os.Getenv("PROMETHEUS_URL"),
			Username: os.Getenv("PROMETHEUS_USERNAME"),
			Password: os.Getenv("PROMETHEUS_PASSWORD"),
			Token:    os.Getenv("PROMETHEUS_TOKEN"),
			OrgID:    os.Getenv("ORG_ID"),
		}
	}

	// Load MCP transport configuration from environment if not provided
	if sc.mcpConfig.Transport == "" {
		mcpConfig, err := LoadMCPConfigFromEnv()
		if err != nil {
			cancel()
			return nil, err
		}
		sc.mcpConfig = mcpConfig
	} else if err := sc.mcpConfig.Validate(); err != nil {
		cancel()
		return nil, err
	}

	return sc, nil
}

// Context returns the context associated with the server
func (sc *ServerContext) Context() context.Context {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.ctx
}

// IsDebugMode returns whether debug logging is enabled
func (sc *ServerContext) IsDebugMode() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.debugMode
}

// Logger returns the configured logger
func (sc *ServerContext) Logger() Logger {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.logger
}

// PrometheusConfig returns the Prometheus configuration
func (sc *ServerContext) PrometheusConfig() PrometheusConfig {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.prometheusConfig
}

// MCPConfig returns the MCP transport configuration
func (sc *ServerContext) MCPConfig() MCPConfig {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.mcpConfig
}

// Shutdown gracefully shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.cancel != nil {
		sc.cancel()
		sc.cancel = nil
	}

	return nil
}

// noopLogger is a logger that does nothing
type noopLogger struct{}

func (l *noopLogger) Debug(msg string, args ...interface{}) {}
func (l *noopLogger) Info(msg string, args ...interface{})  {}
func (l *noopLogger) Warn(msg string, args ...interface{})  {}
func (l *noopLogger) Error(msg string, args ...interface{}) {}
