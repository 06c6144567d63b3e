// Package cmd provides the command-line interface for the promgate server.
//
// This package implements the Cobra CLI framework to provide commands for:
// - Starting the MCP server with various transport options (stdio, http, sse)
// - Managing server configuration and lifecycle
//
// The main entry point is the serve command which starts the MCP server and
// registers all Prometheus-related tools for querying metrics, discovering
// metrics metadata, and retrieving target information.
//
// Environment Variables:
//   - PROMETHEUS_URL: Required Prometheus server URL
//   - PROMETHEUS_USERNAME: Optional basic auth username
//   - PROMETHEUS_PASSWORD: Optional basic auth password
//   - PROMETHEUS_TOKEN: Optional bearer token for authentication
//   - ORG_ID: Optional organization ID for multi-tenant setups
//   - PROMETHEUS_MCP_SERVER_TRANSPORT: Optional transport type (stdio, http, sse)
//   - PROMETHEUS_MCP_BIND_HOST: Optional bind host for network transports
//   - PROMETHEUS_MCP_BIND_PORT: Optional bind port for network transports
//
// Example usage:
//
//	promgate serve
//	promgate serve --transport sse --bind-host 0.0.0.0 --bind-port 8080
package cmd
