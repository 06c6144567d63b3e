package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TransportType identifies how the MCP server talks to its client.
type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportHTTP  TransportType = "http"
	TransportSSE   TransportType = "sse"
)

// ParseTransportType normalizes a transport name. Matching is
// case-insensitive; anything outside the closed set is an error.
func ParseTransportType(s string) (TransportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stdio":
		return TransportStdio, nil
	case "http":
		return TransportHTTP, nil
	case "sse":
		return TransportSSE, nil
	default:
		return "", fmt.Errorf("unsupported transport type: %q (supported: stdio, http, sse)", s)
	}
}

// RequiresNetwork reports whether the transport needs a listen address.
func (t TransportType) RequiresNetwork() bool {
	return t == TransportHTTP || t == TransportSSE
}

// MCPConfig holds the transport and bind settings for the MCP server.
type MCPConfig struct {
	Transport TransportType
	BindHost  string
	BindPort  int
}

// Addr returns the listen address for network transports.
func (c MCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindHost, c.BindPort)
}

// Validate checks the invariants that must hold before the server starts.
func (c MCPConfig) Validate() error {
	if _, err := ParseTransportType(string(c.Transport)); err != nil {
		return err
	}
	if c.Transport.RequiresNetwork() && c.BindPort <= 0 {
		return fmt.Errorf("bind port must be a positive integer for %s transport, got %d", c.Transport, c.BindPort)
	}
	return nil
}

// LoadMCPConfigFromEnv reads the MCP transport configuration from the
// environment, applying defaults for anything unset.
func LoadMCPConfigFromEnv() (MCPConfig, error) {
	transport := os.Getenv("PROMETHEUS_MCP_SERVER_TRANSPORT")
	if transport == "" {
		transport = string(TransportStdio)
	}
	parsed, err := ParseTransportType(transport)
	if err != nil {
		return MCPConfig{}, err
	}

	host := os.Getenv("PROMETHEUS_MCP_BIND_HOST")
	if host == "" {
		host = "127.0.0.1"
	}

	port := 8000
	if portStr := os.Getenv("PROMETHEUS_MCP_BIND_PORT"); portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return MCPConfig{}, fmt.Errorf("invalid PROMETHEUS_MCP_BIND_PORT %q: %w", portStr, err)
		}
	}

	cfg := MCPConfig{
		Transport: parsed,
		BindHost:  host,
		BindPort:  port,
	}
	if err := cfg.Validate(); err != nil {
		return MCPConfig{}, err
	}
	return cfg, nil
}
