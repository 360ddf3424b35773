package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stackvista/sts-lifecycle/internal/engine"
	"github.com/stackvista/sts-lifecycle/internal/features"
	"github.com/stackvista/sts-lifecycle/internal/logger"
)

const (
	lifecycleUnsupportedMsg = "Index lifecycle management is not supported by this cluster"

	// defaultApplyConcurrency bounds ApplyPolicies when no limit is given
	defaultApplyConcurrency = 4
)

// Manager sequences lifecycle policy calls for one connection
type Manager struct {
	conn engine.Connection
	base string
	log  *logger.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithBase prefixes every policy path
func WithBase(base string) Option {
	return func(m *Manager) {
		m.base = base
	}
}

// WithLogger sets the logger transform diagnostics are reported to
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a Manager for conn
func NewManager(conn engine.Connection, opts ...Option) *Manager {
	m := &Manager{
		conn: conn,
		log:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connection returns the connection the manager is bound to
func (m *Manager) Connection() engine.Connection {
	return m.conn
}

// CreatePolicy stores a policy. Elasticsearch receives the caller's document
// as given; OpenSearch receives it in state form. If the policy already
// exists the call turns into UpdatePolicy.
func (m *Manager) CreatePolicy(ctx context.Context, name string, policy Document) (Document, error) {
	if err := features.RequireLifecycle(m.conn, lifecycleUnsupportedMsg); err != nil {
		return nil, err
	}

	var body Document
	switch m.conn.Engine {
	case engine.Elasticsearch:
		body = Document{"policy": policy}
	case engine.OpenSearch:
		normalized, err := m.normalize(policy)
		if err != nil {
			return nil, err
		}
		body = Document{"policy": normalized}
	default:
		return nil, &engine.UnknownEngineError{Engine: m.conn.Engine}
	}

	uri, err := PolicyURI(m.base, name, m.conn.Engine)
	if err != nil {
		return nil, err
	}

	res, err := m.send(ctx, http.MethodPut, uri, body)
	if err != nil {
		if isConflict(err) {
			m.log.Debugf("Policy %s already exists, updating instead", name)
			return m.UpdatePolicy(ctx, name, policy)
		}
		return nil, err
	}

	return m.acknowledgeID(res), nil
}

// UpdatePolicy replaces an existing policy. On OpenSearch this reads the
// current revision and writes conditionally on it; a concurrent change in
// between surfaces as *StaleRevisionError.
func (m *Manager) UpdatePolicy(ctx context.Context, name string, policy Document) (Document, error) {
	switch m.conn.Engine {
	case engine.Elasticsearch:
		uri, err := PolicyURI(m.base, name, m.conn.Engine)
		if err != nil {
			return nil, err
		}
		return m.send(ctx, http.MethodPut, uri, Document{"policy": policy})
	case engine.OpenSearch:
		return m.updateISM(ctx, name, policy)
	default:
		return nil, &engine.UnknownEngineError{Engine: m.conn.Engine}
	}
}

type revision struct {
	SeqNo       *int64          `json:"_seq_no"`
	PrimaryTerm *int64          `json:"_primary_term"`
	Policy      json.RawMessage `json:"policy"`
}

func (m *Manager) updateISM(ctx context.Context, name string, policy Document) (Document, error) {
	uri, err := PolicyURI(m.base, name, m.conn.Engine)
	if err != nil {
		return nil, err
	}

	rev, err := m.readRevision(ctx, name, uri)
	if err != nil {
		return nil, err
	}

	normalized, err := m.normalize(policy)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("if_seq_no", strconv.FormatInt(*rev.SeqNo, 10))
	query.Set("if_primary_term", strconv.FormatInt(*rev.PrimaryTerm, 10))

	res, err := m.send(ctx, http.MethodPut, uri+"?"+query.Encode(), Document{"policy": normalized})
	if err != nil {
		var te *engine.TransportError
		if isConflict(err) && errors.As(err, &te) {
			return nil, &StaleRevisionError{
				Name:        name,
				SeqNo:       *rev.SeqNo,
				PrimaryTerm: *rev.PrimaryTerm,
				Err:         te,
			}
		}
		return nil, err
	}

	return m.acknowledgeID(res), nil
}

func (m *Manager) readRevision(ctx context.Context, name, uri string) (*revision, error) {
	res, err := m.conn.Transport.Perform(ctx, http.MethodGet, uri, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, &PolicyNotFoundError{Name: name}
		}
		return nil, err
	}

	var rev revision
	if len(res.Body) > 0 {
		if err := json.Unmarshal(res.Body, &rev); err != nil {
			return nil, fmt.Errorf("failed to decode policy revision: %w", err)
		}
	}
	if len(rev.Policy) == 0 || string(rev.Policy) == "null" {
		return nil, &PolicyNotFoundError{Name: name}
	}
	if rev.SeqNo == nil || rev.PrimaryTerm == nil {
		return nil, fmt.Errorf("policy %s has no revision markers", name)
	}
	return &rev, nil
}

// GetPolicy fetches a policy. Both engines answer as {name: {policy: body}}.
func (m *Manager) GetPolicy(ctx context.Context, name string) (Document, error) {
	if err := features.RequireLifecycle(m.conn, lifecycleUnsupportedMsg); err != nil {
		return nil, err
	}

	uri, err := PolicyURI(m.base, name, m.conn.Engine)
	if err != nil {
		return nil, err
	}

	res, err := m.send(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	if m.conn.Engine == engine.OpenSearch {
		return Document{name: map[string]any{"policy": res["policy"]}}, nil
	}
	return res, nil
}

// DeletePolicy removes a policy
func (m *Manager) DeletePolicy(ctx context.Context, name string) (Document, error) {
	if err := features.RequireLifecycle(m.conn, lifecycleUnsupportedMsg); err != nil {
		return nil, err
	}

	uri, err := PolicyURI(m.base, name, m.conn.Engine)
	if err != nil {
		return nil, err
	}

	res, err := m.send(ctx, http.MethodDelete, uri, nil)
	if err != nil {
		return nil, err
	}

	if m.conn.Engine == engine.OpenSearch && res["result"] == "deleted" {
		return Document{"acknowledged": true}, nil
	}
	return res, nil
}

// ApplyPolicies creates every policy, at most limit at a time, and returns
// the per-policy responses. The first failure cancels the remaining calls.
func (m *Manager) ApplyPolicies(ctx context.Context, policies map[string]Document, limit int) (map[string]Document, error) {
	if limit <= 0 {
		limit = defaultApplyConcurrency
	}

	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	results := make(map[string]Document, len(policies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, name := range names {
		policy := policies[name]
		g.Go(func() error {
			res, err := m.CreatePolicy(gctx, name, policy)
			if err != nil {
				return fmt.Errorf("policy %s: %w", name, err)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (m *Manager) normalize(policy Document) (Document, error) {
	normalized, diags, err := NormalizePolicy(policy, m.conn.Engine)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		if d.Reason == ReasonUnknownAction {
			m.log.Debugf("%s", d)
			continue
		}
		m.log.Warningf("%s", d)
	}
	return normalized, nil
}

// acknowledgeID turns OpenSearch's {"_id": ...} write responses into {"acknowledged": true}
func (m *Manager) acknowledgeID(res Document) Document {
	if m.conn.Engine == engine.OpenSearch && res.Has("_id") {
		return Document{"acknowledged": true}
	}
	return res
}

func (m *Manager) send(ctx context.Context, method, uri string, body Document) (Document, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	res, err := m.conn.Transport.Perform(ctx, method, uri, payload)
	if err != nil {
		return nil, err
	}

	doc := Document{}
	if len(res.Body) > 0 {
		if err := json.Unmarshal(res.Body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return doc, nil
}
