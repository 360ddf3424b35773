package elasticsearch

import (
	"context"

	"github.com/stackvista/sts-lifecycle/internal/engine"
)

// Interface defines the contract for cluster client operations
// This interface allows for easy mocking in tests
type Interface interface {
	engine.Transport

	// Cluster identity
	Info(ctx context.Context) (*engine.ClusterInfo, error)
	Detect(ctx context.Context) (*engine.Detected, error)
}

// Ensure *Client implements Interface
var _ Interface = (*Client)(nil)
