package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Locality maps address keywords to one local government area and its
// registered local plan.
type Locality struct {
	// LGA is the local government area display name.
	LGA string `yaml:"lga"`

	// LGACode is the jurisdiction's LGA identifier.
	LGACode string `yaml:"lga_code,omitempty"`

	// LocalPlan is the registry slug of the LGA's local plan, empty
	// when no plan is registered.
	LocalPlan string `yaml:"local_plan,omitempty"`

	// Keywords are locality names matched case-insensitively as
	// substrings of address text.
	Keywords []string `yaml:"keywords"`
}

// Gazetteer is the locality keyword table used for LGA inference.
type Gazetteer struct {
	// Jurisdiction qualifies address queries (e.g. "NSW").
	Jurisdiction string `yaml:"jurisdiction"`

	// Localities are checked in order; the first keyword match wins.
	Localities []Locality `yaml:"localities"`
}

// LoadGazetteer reads and validates a YAML gazetteer file.
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}

	var g Gazetteer
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}

	if g.Jurisdiction == "" {
		return nil, fmt.Errorf("gazetteer %s: jurisdiction is required", path)
	}
	for i, loc := range g.Localities {
		if loc.LGA == "" {
			return nil, fmt.Errorf("gazetteer %s: locality %d has no lga", path, i)
		}
		if len(loc.Keywords) == 0 {
			return nil, fmt.Errorf("gazetteer %s: locality %q has no keywords", path, loc.LGA)
		}
	}

	return &g, nil
}

// InferLGA finds the first locality whose keyword appears in the
// address text, case-insensitively. Returns nil when nothing matches.
func (g *Gazetteer) InferLGA(addressText string) *Locality {
	lower := strings.ToLower(addressText)
	for i := range g.Localities {
		for _, kw := range g.Localities[i].Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return &g.Localities[i]
			}
		}
	}
	return nil
}

// ByLGA finds a locality by its LGA name, case-insensitively. Used
// when the caller supplies an explicit LGA instead of address text.
func (g *Gazetteer) ByLGA(name string) *Locality {
	for i := range g.Localities {
		if strings.EqualFold(g.Localities[i].LGA, name) {
			return &g.Localities[i]
		}
	}
	return nil
}
