// Package lifecycle converts index lifecycle policies between the phase-based
// ILM language of Elasticsearch and the state-based ISM language of
// OpenSearch, and sequences the policy API calls for either engine.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Document is a policy as the caller or the cluster sees it: an opaque JSON
// object in either phase or state form.
type Document map[string]any

// Has reports whether the top-level key is present
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// PhaseOrder is the fixed execution order of ILM phases
var PhaseOrder = []string{"hot", "warm", "cold", "frozen", "delete"}

// Phase is a single ILM phase
type Phase struct {
	MinAge  string                    `json:"min_age,omitempty"`
	Actions map[string]map[string]any `json:"actions"`
}

// PhasePolicy is the ILM form of a policy
type PhasePolicy struct {
	Phases map[string]Phase `json:"phases"`
}

// StatePolicy is the ISM form of a policy
type StatePolicy struct {
	States        []State `json:"states"`
	DefaultState  string  `json:"default_state"`
	SchemaVersion int     `json:"schema_version"`
}

// State is a single ISM state
type State struct {
	Name        string       `json:"name"`
	Actions     []Action     `json:"actions"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Transition moves an index to StateName once Conditions hold
type Transition struct {
	StateName  string      `json:"state_name"`
	Conditions *Conditions `json:"conditions,omitempty"`
}

// Conditions guard a transition
type Conditions struct {
	MinIndexAge string `json:"min_index_age,omitempty"`
}

// Action is a tagged ISM action. On the wire it is an object with the
// action name as its only key: {"rollover": {"min_doc_count": 5}}.
type Action struct {
	Type   string
	Params map[string]any
}

// ISM allows these keys next to the action name
var actionSettings = map[string]bool{"retry": true, "timeout": true}

func (a Action) MarshalJSON() ([]byte, error) {
	params := a.Params
	if params == nil {
		params = map[string]any{}
	}
	return json.Marshal(map[string]any{a.Type: params})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("action must be an object: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if !actionSettings[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) != 1 {
		sort.Strings(keys)
		return fmt.Errorf("action must have exactly one type, got %v", keys)
	}

	a.Type = keys[0]
	a.Params = map[string]any{}
	if body := raw[a.Type]; len(body) > 0 && string(body) != "null" {
		if err := json.Unmarshal(body, &a.Params); err != nil {
			return fmt.Errorf("action %q parameters must be an object: %w", a.Type, err)
		}
	}
	return nil
}

// ToDocument converts a typed policy into its opaque form
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	return doc, nil
}

// FromDocument decodes an opaque policy into a typed form
func FromDocument(doc Document, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode policy: %w", err)
	}
	return nil
}

// Unwrap strips the {"policy": {...}} envelope both policy APIs use
func Unwrap(doc Document) Document {
	if len(doc) != 1 {
		return doc
	}
	inner, ok := doc["policy"].(map[string]any)
	if !ok {
		return doc
	}
	return Document(inner)
}
