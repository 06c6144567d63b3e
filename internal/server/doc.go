// Package server provides the core server infrastructure for promgate.
//
// This package contains:
// - ServerContext: Configuration and shared resources management
// - Logger interface: Structured logging abstraction
// - TransportType: Closed enum of MCP transports with a normalizing parser
// - Configuration options: Functional options pattern for server setup
//
// Configuration is resolved once from the environment when the
// ServerContext is constructed and is immutable afterwards. The upstream
// connection settings cover:
// - Prometheus server URL
// - Basic auth credentials or bearer token
// - Organization ID header for multi-tenant setups
//
// Example usage:
//
//	ctx := context.Background()
//	serverContext, err := server.NewServerContext(ctx,
//	    server.WithDebugMode(true),
//	    server.WithLogger(logger),
//	)
package server
