// Package features maps an engine and its major version to capability flags.
// Every predicate is a pure function; nothing here touches the network.
package features

import (
	"fmt"
	"sort"

	"github.com/stackvista/sts-lifecycle/internal/engine"
)

// Flag names a capability
type Flag string

const (
	FlagILM                 Flag = "ilm"
	FlagISM                 Flag = "ism"
	FlagDataStreams         Flag = "data_streams"
	FlagComposableTemplates Flag = "composable_templates"
	FlagLegacyTemplates     Flag = "legacy_templates"
	FlagDocTypes            Flag = "doc_types"

	// FlagLifecycleManagement is reported when a cluster has no lifecycle
	// management at all. It has no predicate, so Require always rejects it.
	FlagLifecycleManagement Flag = "lifecycle_management"
)

// Predicate decides a flag for an engine and major version
type Predicate func(e engine.Engine, major int) bool

// SupportsILM reports index lifecycle management (Elasticsearch 7+)
func SupportsILM(e engine.Engine, major int) bool {
	return e == engine.Elasticsearch && major >= 7
}

// SupportsISM reports index state management (any OpenSearch)
func SupportsISM(e engine.Engine, _ int) bool {
	return e == engine.OpenSearch
}

// SupportsDataStreams reports data streams (Elasticsearch 7+, OpenSearch 2+)
func SupportsDataStreams(e engine.Engine, major int) bool {
	return (e == engine.Elasticsearch && major >= 7) || (e == engine.OpenSearch && major >= 2)
}

// SupportsComposableTemplates reports _index_template (Elasticsearch 7+, OpenSearch 1+)
func SupportsComposableTemplates(e engine.Engine, major int) bool {
	return (e == engine.Elasticsearch && major >= 7) || (e == engine.OpenSearch && major >= 1)
}

// SupportsLegacyTemplates reports _template, available everywhere
func SupportsLegacyTemplates(_ engine.Engine, _ int) bool {
	return true
}

// SupportsDocTypes reports mapping types, removed in Elasticsearch 7
func SupportsDocTypes(e engine.Engine, major int) bool {
	return e == engine.Elasticsearch && major < 7
}

var predicates = map[Flag]Predicate{
	FlagILM:                 SupportsILM,
	FlagISM:                 SupportsISM,
	FlagDataStreams:         SupportsDataStreams,
	FlagComposableTemplates: SupportsComposableTemplates,
	FlagLegacyTemplates:     SupportsLegacyTemplates,
	FlagDocTypes:            SupportsDocTypes,
}

// Flags returns every known flag in a stable order
func Flags() []Flag {
	flags := make([]Flag, 0, len(predicates))
	for f := range predicates {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// Enabled reports whether flag is available on conn. Unknown flags are never enabled.
func Enabled(conn engine.Connection, flag Flag) bool {
	p, ok := predicates[flag]
	if !ok {
		return false
	}
	return p(conn.Engine, conn.Version)
}

// LifecycleType returns the lifecycle flavour conn supports, if any
func LifecycleType(conn engine.Connection) (Flag, bool) {
	switch {
	case SupportsILM(conn.Engine, conn.Version):
		return FlagILM, true
	case SupportsISM(conn.Engine, conn.Version):
		return FlagISM, true
	default:
		return "", false
	}
}

// Summary maps every flag to its value for conn
func Summary(conn engine.Connection) map[Flag]bool {
	summary := make(map[Flag]bool, len(predicates))
	for f, p := range predicates {
		summary[f] = p(conn.Engine, conn.Version)
	}
	return summary
}

// UnsupportedFeatureError is returned before any request is made for a missing capability
type UnsupportedFeatureError struct {
	Flag    Flag
	Engine  engine.Engine
	Version int
	Message string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s (feature %q is not supported by %s %d)", e.Message, e.Flag, e.Engine, e.Version)
}

// Require fails with UnsupportedFeatureError if flag is unknown or disabled on conn
func Require(conn engine.Connection, flag Flag, message string) error {
	if Enabled(conn, flag) {
		return nil
	}
	return &UnsupportedFeatureError{
		Flag:    flag,
		Engine:  conn.Engine,
		Version: conn.Version,
		Message: message,
	}
}

// RequireLifecycle requires whichever lifecycle flavour conn should have
func RequireLifecycle(conn engine.Connection, message string) error {
	flag, ok := LifecycleType(conn)
	if !ok {
		flag = FlagLifecycleManagement
	}
	return Require(conn, flag, message)
}
