package lifecycle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stackvista/sts-lifecycle/internal/engine"
)

// PolicyNotFoundError is returned when an ISM update finds no policy to revise
type PolicyNotFoundError struct {
	Name string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("Policy not found for update: %s", e.Name)
}

// StaleRevisionError is returned when OpenSearch rejects a conditional write
// because the policy changed after its revision was read.
type StaleRevisionError struct {
	Name        string
	SeqNo       int64
	PrimaryTerm int64
	Err         *engine.TransportError
}

func (e *StaleRevisionError) Error() string {
	return fmt.Sprintf("policy %s changed since revision seq_no=%d primary_term=%d was read", e.Name, e.SeqNo, e.PrimaryTerm)
}

func (e *StaleRevisionError) Unwrap() error {
	return e.Err
}

func statusOf(err error) (int, bool) {
	var te *engine.TransportError
	if errors.As(err, &te) {
		return te.StatusCode, true
	}
	return 0, false
}

func isConflict(err error) bool {
	status, ok := statusOf(err)
	return ok && status == http.StatusConflict
}

func isNotFound(err error) bool {
	status, ok := statusOf(err)
	return ok && status == http.StatusNotFound
}
