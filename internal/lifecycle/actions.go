package lifecycle

import (
	"fmt"
	"sync"
)

// ParamFunc translates action parameters from one language to the other
type ParamFunc func(params map[string]any) map[string]any

// Translator pairs an ILM action with its ISM equivalent
type Translator struct {
	// ILM is the ILM action name, ISM the ISM action name
	ILM string
	ISM string
	// Aliases are extra ILM names accepted on input
	Aliases []string
	// Order positions the action inside a state; lower runs first
	Order    int
	Forward  ParamFunc
	Backward ParamFunc
}

// ILM actions ISM has no equivalent for
var unsupportedActions = map[string]bool{
	"set_priority": true,
	"allocate":     true,
	"migrate":      true,
}

type registry struct {
	mu    sync.RWMutex
	byILM map[string]*Translator
	byISM map[string]*Translator
}

var actions = &registry{
	byILM: map[string]*Translator{},
	byISM: map[string]*Translator{},
}

// Register adds a translator, replacing any with the same names
func Register(t Translator) error {
	if t.ILM == "" || t.ISM == "" {
		return fmt.Errorf("translator needs both an ILM and an ISM name")
	}
	if t.Forward == nil || t.Backward == nil {
		return fmt.Errorf("translator %q needs forward and backward functions", t.ILM)
	}

	actions.mu.Lock()
	defer actions.mu.Unlock()

	tr := t
	actions.byILM[tr.ILM] = &tr
	for _, alias := range tr.Aliases {
		actions.byILM[alias] = &tr
	}
	actions.byISM[tr.ISM] = &tr
	return nil
}

func lookupILM(name string) (*Translator, bool) {
	actions.mu.RLock()
	defer actions.mu.RUnlock()
	t, ok := actions.byILM[name]
	return t, ok
}

func lookupISM(name string) (*Translator, bool) {
	actions.mu.RLock()
	defer actions.mu.RUnlock()
	t, ok := actions.byISM[name]
	return t, ok
}

// Renamed builds a forward/backward pair that copies only the listed
// parameters, renaming ILM keys to ISM keys and back.
func Renamed(ilmToISM map[string]string) (ParamFunc, ParamFunc) {
	ismToILM := make(map[string]string, len(ilmToISM))
	for k, v := range ilmToISM {
		ismToILM[v] = k
	}
	return renameWith(ilmToISM), renameWith(ismToILM)
}

func renameWith(fields map[string]string) ParamFunc {
	return func(params map[string]any) map[string]any {
		out := map[string]any{}
		for from, to := range fields {
			if v, ok := params[from]; ok {
				out[to] = v
			}
		}
		return out
	}
}

// Identity copies every parameter unchanged
func Identity(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func mustRegister(t Translator) {
	if err := Register(t); err != nil {
		panic(err)
	}
}

func init() {
	rolloverFwd, rolloverBack := Renamed(map[string]string{
		"max_age":                "min_index_age",
		"max_docs":               "min_doc_count",
		"max_size":               "min_size",
		"max_primary_shard_size": "min_primary_shard_size",
	})
	mustRegister(Translator{ILM: "rollover", ISM: "rollover", Order: 10, Forward: rolloverFwd, Backward: rolloverBack})

	mustRegister(Translator{ILM: "readonly", ISM: "read_only", Order: 20, Forward: Identity, Backward: Identity})

	shrinkFwd, shrinkBack := Renamed(map[string]string{
		"number_of_shards": "num_new_shards",
	})
	mustRegister(Translator{ILM: "shrink", ISM: "shrink", Order: 30, Forward: shrinkFwd, Backward: shrinkBack})

	mergeFwd, mergeBack := Renamed(map[string]string{
		"max_num_segments": "max_num_segments",
	})
	mustRegister(Translator{ILM: "forcemerge", ISM: "force_merge", Aliases: []string{"force_merge"}, Order: 40, Forward: mergeFwd, Backward: mergeBack})

	mustRegister(Translator{ILM: "delete", ISM: "delete", Order: 100, Forward: Identity, Backward: Identity})
}
