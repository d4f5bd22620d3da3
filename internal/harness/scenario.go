package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/planaxis/planaxis/internal/ir"
)

// Scenario defines one document-lifecycle conformance run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Instrument is the config the documents are synced under.
	Instrument InstrumentSpec `yaml:"instrument"`

	// Steps are document revisions synced in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final clause state after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// InstrumentSpec is the YAML shape of an instrument config.
type InstrumentSpec struct {
	Slug         string `yaml:"slug"`
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	ClausePrefix string `yaml:"clause_prefix,omitempty"`
}

// Config converts the scenario instrument block to the engine's config type.
func (s InstrumentSpec) Config() ir.InstrumentConfig {
	return ir.InstrumentConfig{
		Slug:         s.Slug,
		Name:         s.Name,
		Kind:         ir.InstrumentKind(s.Kind),
		ClausePrefix: s.ClausePrefix,
		Jurisdiction: "NSW",
	}
}

// Step is one document revision in the lifecycle.
type Step struct {
	// Label names the step in traces and error messages.
	Label string `yaml:"label"`

	// Format is "html" or "xml"; empty means sniff.
	Format string `yaml:"format,omitempty"`

	// Document is the inline source text of this revision.
	Document string `yaml:"document"`

	// Expect holds the change counts this step must produce. Nil skips
	// the check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected diff for one step.
type Expect struct {
	Added   int `yaml:"added"`
	Updated int `yaml:"updated"`
	Retired int `yaml:"retired"`
}

// Assertion validates the final clause state.
type Assertion struct {
	// Type is one of clause_version, clause_absent, clause_count.
	Type string `yaml:"type"`

	// ClauseKey selects the clause for clause_version and clause_absent.
	ClauseKey string `yaml:"clause_key,omitempty"`

	// Version is the expected current version for clause_version.
	Version int `yaml:"version,omitempty"`

	// Count is the expected current clause count for clause_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertClauseVersion = "clause_version"
	AssertClauseAbsent  = "clause_absent"
	AssertClauseCount   = "clause_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping a
// check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
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
	if s.Instrument.Slug == "" {
		return fmt.Errorf("instrument.slug is required")
	}
	if !ir.InstrumentKind(s.Instrument.Kind).Valid() {
		return fmt.Errorf("instrument.kind %q is not a known kind", s.Instrument.Kind)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Label == "" {
			return fmt.Errorf("steps[%d]: label is required", i)
		}
		if step.Document == "" {
			return fmt.Errorf("steps[%d]: document is required", i)
		}
		switch step.Format {
		case "", "html", "xml":
		default:
			return fmt.Errorf("steps[%d]: unknown format %q", i, step.Format)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertClauseVersion:
		if a.ClauseKey == "" {
			return fmt.Errorf("assertions[%d]: clause_key is required for clause_version", index)
		}
		if a.Version < 1 {
			return fmt.Errorf("assertions[%d]: version must be at least 1", index)
		}
	case AssertClauseAbsent:
		if a.ClauseKey == "" {
			return fmt.Errorf("assertions[%d]: clause_key is required for clause_absent", index)
		}
	case AssertClauseCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
