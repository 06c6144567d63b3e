// Package prometheus provides MCP tools for querying Prometheus servers.
//
// This package implements the following MCP tools:
//
// Query Tools:
//   - execute_query: Execute PromQL instant queries with optional
//     pagination and compact result mode
//   - execute_range_query: Execute PromQL range queries with time bounds
//
// Discovery Tools:
//   - list_metrics: List available metrics with prefix/regex filtering
//     and pagination
//   - get_metric_metadata: Get metadata for a specific metric
//   - get_targets: Get information about scrape targets
//
// The client issues plain GETs against the Prometheus HTTP API
// (/api/v1/...), unwraps the JSON envelope, and classifies failures into
// ConfigurationError, TransportError, ResponseFormatError and
// UpstreamError. PromQL query strings and timestamps are forwarded to the
// upstream verbatim.
//
// Authentication Support:
//   - Basic authentication via username/password
//   - Bearer token authentication (takes precedence over basic auth)
//   - Multi-tenant organization ID headers (additive)
//
// Example tool usage:
//
//	execute_query: {"query": "up", "limit": 10, "compact": true}
//	execute_range_query: {"query": "rate(http_requests_total[5m])", "start": "2023-01-01T00:00:00Z", "end": "2023-01-01T01:00:00Z", "step": "1m"}
//	list_metrics: {"prefix": "node_", "limit": 50}
//	get_metric_metadata: {"metric": "http_requests_total"}
//	get_targets: {"active_only": true}
package prometheus
