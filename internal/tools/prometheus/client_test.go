package prometheus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/promgate/promgate/internal/server"
)

func TestClient(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		response string
		testFunc func(*Client) error
	}{
		{
			name:     "Query",
			endpoint: "/api/v1/query",
			response: `{"status": "success", "data": {"resultType": "vector", "result": []}}`,
			testFunc: func(c *Client) error {
				_, err := c.Query(context.Background(), "up", "")
				return err
			},
		},
		{
			name:     "QueryWithTime",
			endpoint: "/api/v1/query",
			response: `{"status": "success", "data": {"resultType": "vector", "result": []}}`,
			testFunc: func(c *Client) error {
				_, err := c.Query(context.Background(), "up", "2023-01-01T00:00:00Z")
				return err
			},
		},
		{
			name:     "QueryRange",
			endpoint: "/api/v1/query_range",
			response: `{"status": "success", "data": {"resultType": "matrix", "result": []}}`,
			testFunc: func(c *Client) error {
				_, err := c.QueryRange(context.Background(), "up", "2023-01-01T00:00:00Z", "2023-01-01T01:00:00Z", "1m")
				return err
			},
		},
		{
			name:     "ListMetrics",
			endpoint: "/api/v1/label/__name__/values",
			response: `{"status": "success", "data": ["metric1", "metric2"]}`,
			testFunc: func(c *Client) error {
				metrics, err := c.ListMetrics(context.Background())
				if err != nil {
					return err
				}
				if len(metrics) != 2 {
					t.Errorf("expected 2 metrics, got %d", len(metrics))
				}
				return nil
			},
		},
		{
			name:     "GetMetricMetadata",
			endpoint: "/api/v1/metadata",
			response: `{"status": "success", "data": {"metadata": [{"metric": "up", "type": "gauge", "help": "Up indicates if the scrape was successful", "unit": ""}]}}`,
			testFunc: func(c *Client) error {
				metadata, err := c.GetMetricMetadata(context.Background(), "up")
				if err != nil {
					return err
				}
				if len(metadata) != 1 {
					t.Errorf("expected 1 metadata entry, got %d", len(metadata))
				}
				return nil
			},
		},
		{
			name:     "GetTargets",
			endpoint: "/api/v1/targets",
			response: `{"status": "success", "data": {"activeTargets": [], "droppedTargets": []}}`,
			testFunc: func(c *Client) error {
				_, err := c.GetTargets(context.Background())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create mock server
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == tt.endpoint {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(tt.response))
				} else {
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer mockServer.Close()

			// Create client
			config := server.PrometheusConfig{URL: mockServer.URL}
			logger := &TestLogger{}
			client := NewClient(config, logger)

			// Run test
			if err := tt.testFunc(client); err != nil {
				t.Errorf("Test failed: %v", err)
			}
		})
	}
}

func TestClientQueryParameters(t *testing.T) {
	var gotQuery, gotTime string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotTime = r.URL.Query().Get("time")
		w.Write([]byte(`{"status": "success", "data": {"resultType": "vector", "result": []}}`))
	}))
	defer mockServer.Close()

	client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})

	// Query strings are opaque and must reach the upstream verbatim.
	query := `rate(http_requests_total{job="api"}[5m])`
	if _, err := client.Query(context.Background(), query, "1617898448"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if gotQuery != query {
		t.Errorf("query forwarded as %q, want %q", gotQuery, query)
	}
	if gotTime != "1617898448" {
		t.Errorf("time forwarded as %q, want %q", gotTime, "1617898448")
	}
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status": "success", "data": []}`))
	}))
	defer mockServer.Close()

	client := NewClient(server.PrometheusConfig{URL: mockServer.URL + "/"}, &TestLogger{})

	if _, err := client.ListMetrics(context.Background()); err != nil {
		t.Fatalf("ListMetrics failed: %v", err)
	}
	if gotPath != "/api/v1/label/__name__/values" {
		t.Errorf("request path = %q, want %q", gotPath, "/api/v1/label/__name__/values")
	}
}

func TestClientAuthentication(t *testing.T) {
	tests := []struct {
		name   string
		config server.PrometheusConfig
		check  func(t *testing.T, r *http.Request)
	}{
		{
			name:   "bearer token",
			config: server.PrometheusConfig{Token: "secret-token"},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
					t.Errorf("Authorization = %q, want bearer token", got)
				}
			},
		},
		{
			name:   "basic auth",
			config: server.PrometheusConfig{Username: "admin", Password: "hunter2"},
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				if !ok || user != "admin" || pass != "hunter2" {
					t.Errorf("basic auth = %q/%q (ok=%v), want admin/hunter2", user, pass, ok)
				}
			},
		},
		{
			name:   "bearer token wins over basic auth",
			config: server.PrometheusConfig{Token: "secret-token", Username: "admin", Password: "hunter2"},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
					t.Errorf("Authorization = %q, want bearer token", got)
				}
			},
		},
		{
			name:   "org ID header is additive",
			config: server.PrometheusConfig{Token: "secret-token", OrgID: "tenant-1"},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
					t.Errorf("Authorization = %q, want bearer token", got)
				}
				if got := r.Header.Get("X-Scope-OrgID"); got != "tenant-1" {
					t.Errorf("X-Scope-OrgID = %q, want %q", got, "tenant-1")
				}
			},
		},
		{
			name:   "anonymous",
			config: server.PrometheusConfig{},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("Authorization = %q, want none", got)
				}
				if got := r.Header.Get("X-Scope-OrgID"); got != "" {
					t.Errorf("X-Scope-OrgID = %q, want none", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				w.Write([]byte(`{"status": "success", "data": {"resultType": "vector", "result": []}}`))
			}))
			defer mockServer.Close()

			config := tt.config
			config.URL = mockServer.URL
			client := NewClient(config, &TestLogger{})

			if _, err := client.Query(context.Background(), "up", ""); err != nil {
				t.Fatalf("Query failed: %v", err)
			}
		})
	}
}

func TestClientErrorClassification(t *testing.T) {
	t.Run("missing URL is a configuration error", func(t *testing.T) {
		client := NewClient(server.PrometheusConfig{}, &TestLogger{})
		_, err := client.Query(context.Background(), "up", "")
		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
		}
	})

	t.Run("upstream error status", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "error", "error": "bad query"}`))
		}))
		defer mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})
		_, err := client.Query(context.Background(), "up{", "")
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("expected UpstreamError, got %T: %v", err, err)
		}
		if !strings.Contains(upstreamErr.Message, "bad query") {
			t.Errorf("error message %q does not carry the upstream message", upstreamErr.Message)
		}
	})

	t.Run("upstream error without message gets a placeholder", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "error"}`))
		}))
		defer mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})
		_, err := client.Query(context.Background(), "up", "")
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("expected UpstreamError, got %T: %v", err, err)
		}
		if upstreamErr.Message != "unknown error" {
			t.Errorf("Message = %q, want placeholder", upstreamErr.Message)
		}
	})

	t.Run("non-JSON body is a format error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>definitely not json</html>"))
		}))
		defer mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})
		_, err := client.Query(context.Background(), "up", "")
		var formatErr *ResponseFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("expected ResponseFormatError, got %T: %v", err, err)
		}
	})

	t.Run("non-2xx status is a transport error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})
		_, err := client.Query(context.Background(), "up", "")
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if transportErr.Endpoint != "query" {
			t.Errorf("Endpoint = %q, want %q", transportErr.Endpoint, "query")
		}
		if transportErr.URL == "" {
			t.Error("TransportError must carry the target URL")
		}
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		// Grab a port that nothing listens on.
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		deadURL := mockServer.URL
		mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: deadURL}, &TestLogger{})
		_, err := client.Query(context.Background(), "up", "")
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if transportErr.Unwrap() == nil {
			t.Error("TransportError must carry the underlying cause")
		}
	})

	t.Run("metadata without metadata field is a format error", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "success", "data": {}}`))
		}))
		defer mockServer.Close()

		client := NewClient(server.PrometheusConfig{URL: mockServer.URL}, &TestLogger{})
		_, err := client.GetMetricMetadata(context.Background(), "up")
		var formatErr *ResponseFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("expected ResponseFormatError, got %T: %v", err, err)
		}
	})
}
