package prometheus

import "fmt"

// ConfigurationError indicates the client is missing required
// configuration, such as an unset upstream URL.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("prometheus configuration error: %s", e.Reason)
}

// TransportError indicates the upstream could not be reached or answered
// with a non-2xx status. It carries the endpoint and target URL so the
// failure is attributable without re-deriving request state.
type TransportError struct {
	Endpoint string
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to prometheus endpoint %q (%s) failed: %v", e.Endpoint, e.URL, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseFormatError indicates the upstream answered with a body that is
// not valid JSON or does not match the expected envelope shape.
type ResponseFormatError struct {
	Endpoint string
	URL      string
	Err      error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("invalid response from prometheus endpoint %q (%s): %v", e.Endpoint, e.URL, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// UpstreamError indicates Prometheus itself reported a non-success status
// in an otherwise well-formed envelope.
type UpstreamError struct {
	Endpoint string
	Message  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("prometheus API error on endpoint %q: %s", e.Endpoint, e.Message)
}
