package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ClusterInfo is the subset of the root endpoint response used for detection
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	ClusterUUID string `json:"cluster_uuid"`
	Version     struct {
		Number       string `json:"number"`
		Distribution string `json:"distribution"`
		BuildFlavor  string `json:"build_flavor"`
	} `json:"version"`
	Tagline string `json:"tagline"`
}

// Detected is the outcome of engine detection
type Detected struct {
	Engine  Engine
	Version *VersionInfo
	Cluster string
	Node    string
}

// DetectEngine classifies a cluster self-description. OpenSearch announces
// itself through version.distribution, anything else is Elasticsearch.
func DetectEngine(info ClusterInfo) (*Detected, error) {
	e := Elasticsearch
	if strings.EqualFold(info.Version.Distribution, "opensearch") {
		e = OpenSearch
	}

	var v *VersionInfo
	if info.Version.Number != "" {
		parsed, err := ParseVersionString(info.Version.Number)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cluster version: %w", err)
		}
		v = parsed
	}

	return &Detected{
		Engine:  e,
		Version: v,
		Cluster: info.ClusterName,
		Node:    info.Name,
	}, nil
}

// VerifyConnection fetches the root endpoint once and detects the engine.
// Transport errors are returned unchanged.
func VerifyConnection(ctx context.Context, tp Transport) (*Detected, error) {
	res, err := tp.Perform(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}

	var info ClusterInfo
	if err := json.Unmarshal(res.Body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode cluster info: %w", err)
	}

	return DetectEngine(info)
}

// Connect verifies the endpoint and returns a Connection bound to tp
func Connect(ctx context.Context, tp Transport) (Connection, *Detected, error) {
	d, err := VerifyConnection(ctx, tp)
	if err != nil {
		return Connection{}, nil, err
	}
	return NewConnection(d.Engine, d.Version, tp), d, nil
}
