package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/promgate/promgate/internal/server"
	"github.com/prometheus/client_golang/api"
)

const apiPrefix = "/api/v1/"

// orgIDRoundTripper adds Organization ID header to requests for multi-tenant setups
type orgIDRoundTripper struct {
	orgID string
	rt    http.RoundTripper
}

func (o *orgIDRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if o.orgID != "" {
		req.Header.Set("X-Scope-OrgID", o.orgID)
	}
	return o.rt.RoundTrip(req)
}

// basicAuthRoundTripper adds basic authentication to requests
type basicAuthRoundTripper struct {
	username string
	password string
	rt       http.RoundTripper
}

func (b *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(b.username, b.password)
	return b.rt.RoundTrip(req)
}

// bearerTokenRoundTripper adds bearer token authentication to requests
type bearerTokenRoundTripper struct {
	token string
	rt    http.RoundTripper
}

func (b *bearerTokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.rt.RoundTrip(req)
}

// newRoundTripper builds the transport chain for the configured
// authentication. A bearer token wins over basic credentials when both are
// set; the org ID header is additive on top of either branch.
func newRoundTripper(config server.PrometheusConfig, logger server.Logger) http.RoundTripper {
	roundTripper := http.DefaultTransport

	if config.Token != "" {
		roundTripper = &bearerTokenRoundTripper{
			token: config.Token,
			rt:    roundTripper,
		}
		logger.Debug("Using bearer token authentication")
	} else if config.Username != "" && config.Password != "" {
		roundTripper = &basicAuthRoundTripper{
			username: config.Username,
			password: config.Password,
			rt:       roundTripper,
		}
		logger.Debug("Using basic authentication", "username", config.Username)
	} else {
		logger.Debug("No authentication configured")
	}

	if config.OrgID != "" {
		roundTripper = &orgIDRoundTripper{
			orgID: config.OrgID,
			rt:    roundTripper,
		}
		logger.Debug("Using organization ID", "orgID", config.OrgID)
	}

	return roundTripper
}

// Client talks to the Prometheus HTTP API and unwraps its JSON envelope.
type Client struct {
	api    api.Client
	config server.PrometheusConfig
	logger server.Logger
}

// NewClient creates a new Prometheus client for the given configuration.
// A missing or unparsable URL yields a client whose calls fail with a
// ConfigurationError rather than an error here, so the server can still
// start and report the problem per tool call.
func NewClient(config server.PrometheusConfig, logger server.Logger) *Client {
	logger.Debug("Creating new Prometheus client", "url", config.URL, "orgID", config.OrgID)

	if config.URL == "" {
		logger.Error("Prometheus URL is empty")
		return &Client{
			api:    nil,
			config: config,
			logger: logger,
		}
	}

	apiClient, err := api.NewClient(api.Config{
		Address:      config.URL,
		RoundTripper: newRoundTripper(config, logger),
	})
	if err != nil {
		logger.Error("Failed to create Prometheus client", "error", err, "url", config.URL)
		return &Client{
			api:    nil,
			config: config,
			logger: logger,
		}
	}

	logger.Debug("Successfully created Prometheus client", "address", config.URL)

	return &Client{
		api:    apiClient,
		config: config,
		logger: logger,
	}
}

// envelope is the outer JSON object every Prometheus API response carries.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Warnings []string        `json:"warnings"`
}

// Execute issues an authenticated GET against /api/v1/<endpoint> and
// returns the envelope's data field verbatim. Failures are classified:
// ConfigurationError (no URL), TransportError (connection or non-2xx),
// ResponseFormatError (non-JSON body), UpstreamError (status != success).
func (c *Client) Execute(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if c.api == nil {
		return nil, &ConfigurationError{Reason: "Prometheus URL is not set, please configure PROMETHEUS_URL"}
	}

	u := c.api.URL(apiPrefix+endpoint, nil)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	c.logger.Debug("Making Prometheus API request", "endpoint", endpoint, "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, URL: u.String(), Err: err}
	}

	resp, body, err := c.api.Do(ctx, req)
	if err != nil {
		c.logger.Error("HTTP request to Prometheus failed", "endpoint", endpoint, "url", u.String(), "error", err)
		return nil, &TransportError{Endpoint: endpoint, URL: u.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Prometheus returned unexpected status", "endpoint", endpoint, "url", u.String(), "status", resp.Status)
		return nil, &TransportError{Endpoint: endpoint, URL: u.String(), Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("Failed to parse Prometheus response as JSON", "endpoint", endpoint, "url", u.String(), "error", err)
		return nil, &ResponseFormatError{Endpoint: endpoint, URL: u.String(), Err: err}
	}

	if env.Status != "success" {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		c.logger.Error("Prometheus API returned error", "endpoint", endpoint, "error", msg, "status", env.Status)
		return nil, &UpstreamError{Endpoint: endpoint, Message: msg}
	}

	if len(env.Warnings) > 0 {
		c.logger.Warn("Prometheus API returned warnings", "endpoint", endpoint, "warnings", env.Warnings)
	}

	return env.Data, nil
}

// QueryResult represents the result of an instant or range query
type QueryResult struct {
	ResultType string      `json:"resultType"`
	Result     interface{} `json:"result"`
}

// Query executes an instant PromQL query. The query string and optional
// evaluation time are forwarded verbatim.
func (c *Client) Query(ctx context.Context, query, timeParam string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if timeParam != "" {
		params.Set("time", timeParam)
	}

	data, err := c.Execute(ctx, "query", params)
	if err != nil {
		return nil, err
	}

	return decodeQueryResult("query", data)
}

// QueryRange executes a range PromQL query over [start, end] at step
// intervals. All parameters are forwarded verbatim.
func (c *Client) QueryRange(ctx context.Context, query, start, end, step string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("start", start)
	params.Set("end", end)
	params.Set("step", step)

	data, err := c.Execute(ctx, "query_range", params)
	if err != nil {
		return nil, err
	}

	return decodeQueryResult("query_range", data)
}

func decodeQueryResult(endpoint string, data json.RawMessage) (*QueryResult, error) {
	var result QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &ResponseFormatError{Endpoint: endpoint, Err: err}
	}
	return &result, nil
}

// ListMetrics lists all available metric names.
func (c *Client) ListMetrics(ctx context.Context) ([]string, error) {
	data, err := c.Execute(ctx, "label/__name__/values", nil)
	if err != nil {
		return nil, err
	}

	var metrics []string
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, &ResponseFormatError{Endpoint: "label/__name__/values", Err: err}
	}

	return metrics, nil
}

// GetMetricMetadata gets the metadata entries for a single metric name.
// Whether the metric exists is the upstream's call, not ours.
func (c *Client) GetMetricMetadata(ctx context.Context, metric string) ([]interface{}, error) {
	params := url.Values{}
	params.Set("metric", metric)

	data, err := c.Execute(ctx, "metadata", params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Metadata []interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &ResponseFormatError{Endpoint: "metadata", Err: err}
	}
	if payload.Metadata == nil {
		return nil, &ResponseFormatError{Endpoint: "metadata", Err: fmt.Errorf("metadata field missing from response")}
	}

	return payload.Metadata, nil
}

// TargetsResult represents the result of the targets API
type TargetsResult struct {
	ActiveTargets  []interface{} `json:"activeTargets"`
	DroppedTargets []interface{} `json:"droppedTargets"`
}

// GetTargets gets information about scrape targets.
func (c *Client) GetTargets(ctx context.Context) (*TargetsResult, error) {
	data, err := c.Execute(ctx, "targets", nil)
	if err != nil {
		return nil, err
	}

	var targets TargetsResult
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, &ResponseFormatError{Endpoint: "targets", Err: err}
	}

	return &targets, nil
}
