// Package engine identifies the search engine behind a cluster endpoint and
// carries the connection record shared by the feature matrix and the
// lifecycle policy orchestrator.
package engine

import (
	"fmt"
	"strings"
)

// Engine identifies one of the supported search engines
type Engine int

const (
	// Elasticsearch speaks phase-based ILM policies
	Elasticsearch Engine = iota + 1
	// OpenSearch speaks state-based ISM policies
	OpenSearch
)

// String returns the lowercase engine name used in flags and output
func (e Engine) String() string {
	switch e {
	case Elasticsearch:
		return "elasticsearch"
	case OpenSearch:
		return "opensearch"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// Validate returns an UnknownEngineError for values outside the supported set
func (e Engine) Validate() error {
	switch e {
	case Elasticsearch, OpenSearch:
		return nil
	default:
		return &UnknownEngineError{Engine: e}
	}
}

// ParseEngine converts a user supplied engine name
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elasticsearch", "es":
		return Elasticsearch, nil
	case "opensearch", "os":
		return OpenSearch, nil
	default:
		return 0, fmt.Errorf("unknown engine %q (expected elasticsearch or opensearch)", s)
	}
}

// UnknownEngineError is returned when an engine value outside the closed set reaches a dispatch point
type UnknownEngineError struct {
	Engine Engine
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("Unknown engine type: %s", e.Engine)
}

// Connection describes a detected cluster and how to talk to it.
// It is passed by value and never modified after construction.
type Connection struct {
	Engine    Engine
	Version   int
	Transport Transport
}

// NewConnection builds a Connection from a detected engine and version
func NewConnection(e Engine, v *VersionInfo, tp Transport) Connection {
	major := 0
	if v != nil {
		major = v.Major
	}
	return Connection{
		Engine:    e,
		Version:   major,
		Transport: tp,
	}
}
