package lifecycle

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DiagnosticReason classifies a non-fatal transform finding
type DiagnosticReason string

const (
	// ReasonUnsupportedAction marks an ILM action ISM cannot express
	ReasonUnsupportedAction DiagnosticReason = "unsupported_action"
	// ReasonUnknownAction marks an action name no translator knows
	ReasonUnknownAction DiagnosticReason = "unknown_action"
	// ReasonUnknownPhase marks a phase outside the ILM vocabulary
	ReasonUnknownPhase DiagnosticReason = "unknown_phase"
	// ReasonInvalidAge marks a min_age that could not be normalized
	ReasonInvalidAge DiagnosticReason = "invalid_age"
)

// Diagnostic describes something the transform dropped or passed through as-is
type Diagnostic struct {
	Phase  string
	Action string
	Reason DiagnosticReason
	Detail string
}

func (d Diagnostic) String() string {
	switch d.Reason {
	case ReasonUnsupportedAction:
		return fmt.Sprintf("action %q in %q is not supported by ISM and was dropped", d.Action, d.Phase)
	case ReasonUnknownAction:
		return fmt.Sprintf("unknown action %q in %q was dropped", d.Action, d.Phase)
	case ReasonUnknownPhase:
		return fmt.Sprintf("unknown phase %q was dropped", d.Phase)
	case ReasonInvalidAge:
		return fmt.Sprintf("min_age %q of %q is not a duration, passed through unchanged", d.Detail, d.Phase)
	default:
		return fmt.Sprintf("%s: %s %s", d.Reason, d.Phase, d.Action)
	}
}

var ageRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(ms|s|m|h|d)$`)

// NormalizeAge turns an ILM min_age into an ISM duration token such as "30d".
// The second result is false when the input is not a recognised duration,
// in which case the input is returned trimmed but otherwise as written.
func NormalizeAge(age string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(age))
	m := ageRe.FindStringSubmatch(s)
	if m == nil {
		return strings.TrimSpace(age), false
	}
	return m[1] + m[2], true
}

func presentPhases(p PhasePolicy) []string {
	present := make([]string, 0, len(p.Phases))
	for _, name := range PhaseOrder {
		if _, ok := p.Phases[name]; ok {
			present = append(present, name)
		}
	}
	return present
}

func isKnownPhase(name string) bool {
	for _, p := range PhaseOrder {
		if p == name {
			return true
		}
	}
	return false
}

// TransformPhaseToState converts an ILM policy into ISM form. States follow
// the fixed phase order; each state transitions to the next present phase
// once that phase's min_age is reached.
func TransformPhaseToState(p PhasePolicy) (StatePolicy, []Diagnostic) {
	var diags []Diagnostic

	unknown := make([]string, 0)
	for name := range p.Phases {
		if !isKnownPhase(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		diags = append(diags, Diagnostic{Phase: name, Reason: ReasonUnknownPhase})
	}

	present := presentPhases(p)
	states := make([]State, 0, len(present))

	for i, name := range present {
		phase := p.Phases[name]
		actions, actionDiags := phaseActions(name, phase.Actions)
		diags = append(diags, actionDiags...)

		state := State{Name: name, Actions: actions}

		if i+1 < len(present) {
			next := present[i+1]
			tr := Transition{StateName: next}
			if minAge := p.Phases[next].MinAge; minAge != "" {
				token, ok := NormalizeAge(minAge)
				if !ok {
					diags = append(diags, Diagnostic{Phase: next, Reason: ReasonInvalidAge, Detail: minAge})
				}
				tr.Conditions = &Conditions{MinIndexAge: token}
			}
			state.Transitions = []Transition{tr}
		}

		states = append(states, state)
	}

	defaultState := ""
	if len(present) > 0 {
		defaultState = present[0]
	}

	return StatePolicy{
		States:        states,
		DefaultState:  defaultState,
		SchemaVersion: 1,
	}, diags
}

func phaseActions(phase string, in map[string]map[string]any) ([]Action, []Diagnostic) {
	type ordered struct {
		order  int
		name   string
		action Action
	}

	var diags []Diagnostic
	list := make([]ordered, 0, len(in))

	for name, params := range in {
		t, ok := lookupILM(name)
		if !ok {
			reason := ReasonUnknownAction
			if unsupportedActions[name] {
				reason = ReasonUnsupportedAction
			}
			diags = append(diags, Diagnostic{Phase: phase, Action: name, Reason: reason})
			continue
		}
		list = append(list, ordered{
			order:  t.Order,
			name:   name,
			action: Action{Type: t.ISM, Params: t.Forward(params)},
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].order != list[j].order {
			return list[i].order < list[j].order
		}
		return list[i].name < list[j].name
	})
	sort.Slice(diags, func(i, j int) bool { return diags[i].Action < diags[j].Action })

	actions := make([]Action, len(list))
	for i, o := range list {
		actions[i] = o.action
	}
	return actions, diags
}

// TransformStateToPhase converts an ISM policy into ILM form. Each state
// becomes the phase of the same name, and the min_index_age of the state's
// own first transition becomes that phase's min_age.
func TransformStateToPhase(s StatePolicy) (PhasePolicy, []Diagnostic) {
	var diags []Diagnostic
	phases := make(map[string]Phase, len(s.States))

	for _, state := range s.States {
		merged := make(map[string]map[string]any, len(state.Actions))
		for _, a := range state.Actions {
			t, ok := lookupISM(a.Type)
			if !ok {
				diags = append(diags, Diagnostic{Phase: state.Name, Action: a.Type, Reason: ReasonUnknownAction})
				continue
			}
			merged[t.ILM] = t.Backward(a.Params)
		}

		phase := Phase{Actions: merged}
		if len(state.Transitions) > 0 && state.Transitions[0].Conditions != nil {
			phase.MinAge = state.Transitions[0].Conditions.MinIndexAge
		}
		phases[state.Name] = phase
	}

	return PhasePolicy{Phases: phases}, diags
}
