// Package trace records what a harness run did, in a canonical form:
// one ordered event per scheduled action, assertion, and terminal
// transition. Canonical JSON serialization (RFC 8785) makes traces
// byte-identical across runs of the same scenario, which golden files
// and run digests both rely on.
package trace

// Event kinds.
const (
	KindStart    = "start"
	KindSet      = "set"
	KindEmit     = "emit"
	KindAssert   = "assert"
	KindDone     = "done"
	KindTimeout  = "timeout"
	KindVerdict  = "verdict"
	KindListener = "listener"
)

// Event is one recorded harness occurrence.
type Event struct {
	// Seq is the logical clock stamp; the run's total order.
	Seq int64 `json:"seq"`

	// At is the scheduler time the event fired at.
	At int64 `json:"at"`

	// Test names the test the event is attributed to.
	Test string `json:"test"`

	// Kind is one of the Kind constants.
	Kind string `json:"kind"`

	// Detail carries kind-specific context (flag name, event name,
	// assertion message, terminal state).
	Detail string `json:"detail,omitempty"`

	// Predicate is set for assert events.
	Predicate string `json:"predicate,omitempty"`

	// Pass is meaningful for assert events only.
	Pass bool `json:"pass,omitempty"`
}

// canonicalMap converts the event for canonical marshaling. Zero-valued
// optional fields are omitted so the canonical form matches the JSON tags.
func (e Event) canonicalMap() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"at":   e.At,
		"test": e.Test,
		"kind": e.Kind,
	}
	if e.Detail != "" {
		m["detail"] = e.Detail
	}
	if e.Predicate != "" {
		m["predicate"] = e.Predicate
	}
	if e.Pass {
		m["pass"] = true
	}
	return m
}

// Snapshot is the complete trace of one scenario run.
type Snapshot struct {
	Scenario string  `json:"scenario"`
	Events   []Event `json:"events"`
}

// MarshalSnapshot serializes a snapshot to canonical JSON.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		events[i] = e.canonicalMap()
	}
	return MarshalCanonical(map[string]any{
		"scenario": s.Scenario,
		"events":   events,
	})
}
