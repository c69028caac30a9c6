package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Predicate names usable in assert clauses.
const (
	PredicateFlagTrue  = "flag_true"
	PredicateFlagFalse = "flag_false"
)

// Scenario defines a declarative conformance fixture: a set of async
// tests, each a timeline of scheduled steps plus event listeners on
// external entities. Scenarios execute deterministically in logical
// time, so the same file always produces the same trace.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Timeout is the per-test deadline in logical units.
	// Zero means the harness default.
	Timeout int64 `yaml:"timeout,omitempty"`

	// Tests are registered in file order; that order is the FIFO
	// tie-break for steps scheduled at the same time.
	Tests []TestCase `yaml:"tests"`
}

// TestCase is one async test definition.
type TestCase struct {
	// Name uniquely identifies the test within the scenario.
	Name string `yaml:"name"`

	// Listeners subscribe to named events on external entities before
	// the timeline starts. Their body runs in a step context bound to
	// this test whenever the event fires.
	Listeners []Listener `yaml:"listeners,omitempty"`

	// Steps is the test's timeline. Each step fires at its logical
	// time; steps at equal times run in file order.
	Steps []Step `yaml:"steps"`
}

// Listener reacts to a named event on an entity.
type Listener struct {
	// Target is the entity name (created on first reference).
	Target string `yaml:"target"`

	// Event is the event name to subscribe to.
	Event string `yaml:"event"`

	// Sets are flag mutations applied when the event fires.
	Sets []SetOp `yaml:"sets,omitempty"`

	// Assert are predicates evaluated after the mutations, inside the
	// same step context.
	Assert []AssertOp `yaml:"assert,omitempty"`
}

// Step is one timeline entry. Exactly one of the action fields must be
// set.
type Step struct {
	// At is the logical fire time.
	At int64 `yaml:"at"`

	// Start moves the test to running.
	Start bool `yaml:"start,omitempty"`

	// Done concludes the test.
	Done bool `yaml:"done,omitempty"`

	// Set mutates a scenario flag inside a step context.
	Set *SetOp `yaml:"set,omitempty"`

	// Emit fires a named event on an entity, dispatching its listeners.
	Emit *EmitOp `yaml:"emit,omitempty"`

	// Assert evaluates a predicate inside a step context.
	Assert *AssertOp `yaml:"assert,omitempty"`
}

// SetOp assigns a boolean scenario flag.
type SetOp struct {
	Flag  string `yaml:"flag"`
	Value bool   `yaml:"value"`
}

// EmitOp fires a named event on an entity.
type EmitOp struct {
	Target string `yaml:"target"`
	Event  string `yaml:"event"`
}

// AssertOp evaluates a flag predicate.
type AssertOp struct {
	// Predicate is "flag_true" or "flag_false".
	Predicate string `yaml:"predicate"`

	// Flag is the scenario flag to test.
	Flag string `yaml:"flag"`

	// Message is the human explanation recorded with the result.
	Message string `yaml:"message"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), fails CUE schema validation, or is missing
// required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "test:" vs "tests:".
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Schema validation against the embedded CUE definition gives
	// typed shape errors the struct decode can't (bad predicate names,
	// negative times).
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ValidateSchema(raw); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &sc, nil
}

// validateScenario checks structural rules the schema can't express.
func validateScenario(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Description == "" {
		return fmt.Errorf("description is required")
	}
	if sc.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if len(sc.Tests) == 0 {
		return fmt.Errorf("tests list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, tc := range sc.Tests {
		if tc.Name == "" {
			return fmt.Errorf("tests[%d]: name is required", i)
		}
		if seen[tc.Name] {
			return fmt.Errorf("tests[%d]: duplicate test name %q", i, tc.Name)
		}
		seen[tc.Name] = true

		if len(tc.Steps) == 0 {
			return fmt.Errorf("tests[%d]: steps list is required and must be non-empty", i)
		}

		for j, l := range tc.Listeners {
			if err := validateListener(&l); err != nil {
				return fmt.Errorf("tests[%d].listeners[%d]: %w", i, j, err)
			}
		}
		for j, step := range tc.Steps {
			if err := validateStep(&step); err != nil {
				return fmt.Errorf("tests[%d].steps[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

func validateListener(l *Listener) error {
	if l.Target == "" {
		return fmt.Errorf("target is required")
	}
	if l.Event == "" {
		return fmt.Errorf("event is required")
	}
	if len(l.Sets) == 0 && len(l.Assert) == 0 {
		return fmt.Errorf("at least one of sets or assert is required")
	}
	for i, s := range l.Sets {
		if s.Flag == "" {
			return fmt.Errorf("sets[%d]: flag is required", i)
		}
	}
	for i, a := range l.Assert {
		if err := validateAssert(&a); err != nil {
			return fmt.Errorf("assert[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(s *Step) error {
	if s.At < 0 {
		return fmt.Errorf("at must be non-negative")
	}

	actions := 0
	if s.Start {
		actions++
	}
	if s.Done {
		actions++
	}
	if s.Set != nil {
		actions++
	}
	if s.Emit != nil {
		actions++
	}
	if s.Assert != nil {
		actions++
	}
	if actions != 1 {
		return fmt.Errorf("exactly one of start, done, set, emit, assert is required")
	}

	if s.Set != nil && s.Set.Flag == "" {
		return fmt.Errorf("set: flag is required")
	}
	if s.Emit != nil {
		if s.Emit.Target == "" {
			return fmt.Errorf("emit: target is required")
		}
		if s.Emit.Event == "" {
			return fmt.Errorf("emit: event is required")
		}
	}
	if s.Assert != nil {
		if err := validateAssert(s.Assert); err != nil {
			return fmt.Errorf("assert: %w", err)
		}
	}
	return nil
}

func validateAssert(a *AssertOp) error {
	switch a.Predicate {
	case PredicateFlagTrue, PredicateFlagFalse:
	default:
		return fmt.Errorf("unknown predicate %q", a.Predicate)
	}
	if a.Flag == "" {
		return fmt.Errorf("flag is required")
	}
	if a.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
