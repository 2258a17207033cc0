package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a test case for the ndb binding.
type Scenario struct {
	// Name identifies the scenario; it is also the golden file name.
	Name string `yaml:"name"`

	// Description explains what behavior the scenario covers.
	Description string `yaml:"description"`

	// Setup notes are ingested before the flow and are not traced.
	Setup []NoteSpec `yaml:"setup,omitempty"`

	// Flow is the traced sequence of steps.
	Flow []Step `yaml:"flow"`

	// Assertions are checked against the complete trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// NoteSpec describes a note to build with a deterministic id.
type NoteSpec struct {
	As      string     `yaml:"as,omitempty"`
	Kind    int        `yaml:"kind"`
	Content string     `yaml:"content"`
	Tags    [][]string `yaml:"tags,omitempty"`
	At      *int64     `yaml:"at,omitempty"`
}

// FilterSpec describes filter criteria. Tag names map to accepted values.
type FilterSpec struct {
	Kinds   []int               `yaml:"kinds,omitempty"`
	Authors []string            `yaml:"authors,omitempty"`
	Tags    map[string][]string `yaml:"tags,omitempty"`
	Since   *int64              `yaml:"since,omitempty"`
	Until   *int64              `yaml:"until,omitempty"`
	Limit   int                 `yaml:"limit,omitempty"`
	Search  string              `yaml:"search,omitempty"`
}

// Step is one traced action. Which fields apply depends on Step.
type Step struct {
	Step   string      `yaml:"step"`
	Notes  []NoteSpec  `yaml:"notes,omitempty"`
	Raw    string      `yaml:"raw,omitempty"`
	Filter *FilterSpec `yaml:"filter,omitempty"`
	Limit  int         `yaml:"limit,omitempty"`
	Sub    string      `yaml:"sub,omitempty"`
	Author string      `yaml:"author,omitempty"`
	Query  string      `yaml:"query,omitempty"`
	Expect *Expect     `yaml:"expect,omitempty"`
}

// Expect is an inline expectation on a step's outcome. Unset fields are
// not checked.
type Expect struct {
	Count    *int     `yaml:"count,omitempty"`
	Contents []string `yaml:"contents,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// Assertion is a check over the whole trace.
type Assertion struct {
	Type    string   `yaml:"type"`
	Step    string   `yaml:"step,omitempty"`
	Steps   []string `yaml:"steps,omitempty"`
	Content string   `yaml:"content,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertNoErrors      = "no_errors"
)

var knownSteps = map[string]bool{
	StepIngest:         true,
	StepIngestRaw:      true,
	StepQuery:          true,
	StepSubscribe:      true,
	StepPoll:           true,
	StepUnsubscribe:    true,
	StepProfile:        true,
	StepSearchProfiles: true,
	StepClose:          true,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	if !knownSteps[step.Step] {
		return fmt.Errorf("flow[%d]: unknown step %q", i, step.Step)
	}
	switch step.Step {
	case StepIngest:
		if len(step.Notes) == 0 {
			return fmt.Errorf("flow[%d]: notes are required for ingest", i)
		}
	case StepQuery:
		if step.Filter == nil {
			return fmt.Errorf("flow[%d]: filter is required for query", i)
		}
	case StepSubscribe:
		if step.Filter == nil || step.Sub == "" {
			return fmt.Errorf("flow[%d]: filter and sub are required for subscribe", i)
		}
	case StepPoll, StepUnsubscribe:
		if step.Sub == "" {
			return fmt.Errorf("flow[%d]: sub is required for %s", i, step.Step)
		}
	case StepProfile:
		if step.Author == "" {
			return fmt.Errorf("flow[%d]: author is required for profile", i)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Content == "" {
			return fmt.Errorf("assertions[%d]: content is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertNoErrors:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
