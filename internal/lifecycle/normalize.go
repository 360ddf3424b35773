package lifecycle

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stackvista/sts-lifecycle/internal/engine"
)

// NormalizePolicy returns the policy in the native form of target. A policy
// already in that form is returned unchanged, so applying it twice is the
// same as applying it once. Unknown targets return the input unchanged.
func NormalizePolicy(doc Document, target engine.Engine) (Document, []Diagnostic, error) {
	switch target {
	case engine.OpenSearch:
		if doc.Has("states") {
			return doc, nil, nil
		}
		var p PhasePolicy
		if err := FromDocument(doc, &p); err != nil {
			return nil, nil, err
		}
		s, diags := TransformPhaseToState(p)
		out, err := ToDocument(s)
		return out, diags, err
	case engine.Elasticsearch:
		if doc.Has("phases") {
			return doc, nil, nil
		}
		var s StatePolicy
		if err := FromDocument(doc, &s); err != nil {
			return nil, nil, err
		}
		p, diags := TransformStateToPhase(s)
		out, err := ToDocument(p)
		return out, diags, err
	default:
		return doc, nil, nil
	}
}

// PolicyURI returns the policy endpoint for name on e
func PolicyURI(base, name string, e engine.Engine) (string, error) {
	base = strings.TrimRight(base, "/")
	escaped := url.PathEscape(name)

	switch e {
	case engine.Elasticsearch:
		return fmt.Sprintf("%s/_ilm/policy/%s", base, escaped), nil
	case engine.OpenSearch:
		return fmt.Sprintf("%s/_plugins/_ism/policies/%s", base, escaped), nil
	default:
		return "", &engine.UnknownEngineError{Engine: e}
	}
}
