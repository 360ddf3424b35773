package policy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stackvista/sts-lifecycle/internal/config"
	"github.com/stackvista/sts-lifecycle/internal/engine"
)

const (
	ilmPrefix = "/_ilm/policy/"
	ismPrefix = "/_plugins/_ism/policies/"
)

// mockCluster emulates the policy endpoints of one engine in memory
type mockCluster struct {
	t      *testing.T
	engine engine.Engine
	server *httptest.Server

	mu       sync.Mutex
	policies map[string]json.RawMessage
	seqNo    map[string]int64
	puts     []string
}

func newMockCluster(t *testing.T, e engine.Engine) *mockCluster {
	t.Helper()
	m := &mockCluster{
		t:        t,
		engine:   e,
		policies: map[string]json.RawMessage{},
		seqNo:    map[string]int64{},
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

// cliContext returns a context pointing the commands at the mock
func (m *mockCluster) cliContext(format string) *config.Context {
	cliCtx := config.NewContext()
	cliCtx.Config.URL = m.server.URL
	cliCtx.Config.Quiet = true
	cliCtx.Config.OutputFormat = format
	return cliCtx
}

// stored returns the policy body the cluster holds for name
func (m *mockCluster) stored(name string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.policies[name]
	if !ok {
		return nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		m.t.Fatalf("stored policy is not JSON: %v", err)
	}
	return doc
}

func (m *mockCluster) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/" {
		if m.engine == engine.OpenSearch {
			_, _ = w.Write([]byte(`{"cluster_name":"os","version":{"number":"2.11.0","distribution":"opensearch"}}`))
		} else {
			_, _ = w.Write([]byte(`{"cluster_name":"es","version":{"number":"8.11.1"}}`))
		}
		return
	}

	prefix := ilmPrefix
	if m.engine == engine.OpenSearch {
		prefix = ismPrefix
	}
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeStatus(w, http.StatusNotFound, `{"error":"no handler"}`)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, prefix)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		m.put(w, r, name)
	case http.MethodGet:
		m.get(w, name)
	case http.MethodDelete:
		if _, ok := m.policies[name]; !ok {
			writeStatus(w, http.StatusNotFound, `{"error":"not found"}`)
			return
		}
		delete(m.policies, name)
		if m.engine == engine.OpenSearch {
			_, _ = w.Write([]byte(`{"_id":"` + name + `","result":"deleted"}`))
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	default:
		writeStatus(w, http.StatusMethodNotAllowed, `{}`)
	}
}

func (m *mockCluster) put(w http.ResponseWriter, r *http.Request, name string) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Policy json.RawMessage `json:"policy"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.Policy) == 0 {
		writeStatus(w, http.StatusBadRequest, `{"error":"missing policy"}`)
		return
	}
	m.puts = append(m.puts, name)

	if m.engine == engine.Elasticsearch {
		m.policies[name] = req.Policy
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
		return
	}

	_, exists := m.policies[name]
	ifSeqNo := r.URL.Query().Get("if_seq_no")
	switch {
	case ifSeqNo == "" && exists:
		writeStatus(w, http.StatusConflict, `{"error":"version_conflict_engine_exception"}`)
		return
	case ifSeqNo != "" && ifSeqNo != strconv.FormatInt(m.seqNo[name], 10):
		writeStatus(w, http.StatusConflict, `{"error":"version_conflict_engine_exception"}`)
		return
	case ifSeqNo != "":
		m.seqNo[name]++
	}

	m.policies[name] = req.Policy
	_, _ = w.Write([]byte(`{"_id":"` + name + `","_seq_no":` + strconv.FormatInt(m.seqNo[name], 10) + `,"_primary_term":1}`))
}

func (m *mockCluster) get(w http.ResponseWriter, name string) {
	raw, ok := m.policies[name]
	if !ok {
		writeStatus(w, http.StatusNotFound, `{"error":"not found"}`)
		return
	}
	if m.engine == engine.OpenSearch {
		_, _ = w.Write([]byte(`{"_id":"` + name + `","_seq_no":` + strconv.FormatInt(m.seqNo[name], 10) + `,"_primary_term":1,"policy":` + string(raw) + `}`))
		return
	}
	_, _ = w.Write([]byte(`{"` + name + `":{"version":1,"policy":` + string(raw) + `}}`))
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
