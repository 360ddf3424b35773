// Package elasticsearch provides the HTTP transport used to reach an
// Elasticsearch or OpenSearch cluster. It deliberately bypasses the
// go-elasticsearch product check so the same client serves both engines.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/stackvista/sts-lifecycle/internal/engine"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 32 * 1024 * 1024

// Client represents a cluster client
type Client struct {
	tp *elastictransport.Client
}

// Options holds optional connection settings
type Options struct {
	Username string
	Password string
	// Transport overrides the HTTP round tripper, mainly for tests
	Transport http.RoundTripper
}

// NewClient creates a new client for baseURL
func NewClient(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid cluster URL %q: scheme and host are required", baseURL)
	}

	tp, err := elastictransport.New(elastictransport.Config{
		URLs:         []*url.URL{u},
		Username:     opts.Username,
		Password:     opts.Password,
		Transport:    opts.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster transport: %w", err)
	}

	return &Client{
		tp: tp,
	}, nil
}

// Perform sends a single request. Non-2xx responses are returned as *engine.TransportError.
func (c *Client) Perform(ctx context.Context, method, path string, body []byte) (*engine.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.tp.Perform(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &engine.TransportError{StatusCode: res.StatusCode, Body: data}
	}

	return &engine.Response{StatusCode: res.StatusCode, Body: data}, nil
}

// Info retrieves the cluster self-description from the root endpoint
func (c *Client) Info(ctx context.Context) (*engine.ClusterInfo, error) {
	res, err := esapi.InfoRequest{}.Do(ctx, c.tp)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
		return nil, &engine.TransportError{StatusCode: res.StatusCode, Body: data}
	}

	var info engine.ClusterInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &info, nil
}

// Detect identifies the engine and version behind the client
func (c *Client) Detect(ctx context.Context) (*engine.Detected, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	return engine.DetectEngine(*info)
}
