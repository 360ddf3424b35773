package engine

import (
	"context"
	"fmt"
)

// Response is a raw HTTP response from the cluster
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single request against the cluster.
// Implementations return *TransportError for non-2xx responses and must not retry.
type Transport interface {
	Perform(ctx context.Context, method, path string, body []byte) (*Response, error)
}

// TransportError carries a failed response verbatim
type TransportError struct {
	StatusCode int
	Body       []byte
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cluster returned status %d: %s", e.StatusCode, truncate(e.Body, 512))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
