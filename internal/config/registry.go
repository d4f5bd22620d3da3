// Package config loads the instrument registry (CUE) and the locality
// gazetteer (YAML). Both are read once at startup and immutable after.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/planaxis/planaxis/internal/engine"
	"github.com/planaxis/planaxis/internal/ir"
)

// registrySchema constrains the instrument registry. The CUE loader
// unifies it with the loaded files so malformed registries fail at
// startup, not mid-sync.
const registrySchema = `
#Instrument: {
	slug:               =~"^[a-z0-9]+(-[a-z0-9]+)*$"
	name:               string & !=""
	short_name?:        string
	kind:               "statewide_policy" | "local_plan"
	jurisdiction:       string | *"NSW"
	source_url?:        string
	clause_prefix?:     string
	topics?:            [...string]
	always_applicable?: bool
}

instruments: [...#Instrument]
`

// registryFile mirrors the CUE registry shape for decoding.
type registryFile struct {
	Instruments []ir.InstrumentConfig `json:"instruments"`
}

// Registry holds the loaded instrument configs with slug lookup.
type Registry struct {
	configs []ir.InstrumentConfig
	bySlug  map[string]ir.InstrumentConfig
}

// LoadRegistry loads and validates all CUE files in dir.
func LoadRegistry(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("registry directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("registry path %s is not a directory", dir)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(registrySchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile registry schema: %w", err)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir, Package: "_"})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load registry: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate registry: %w", err)
	}

	var file registryFile
	if err := unified.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if len(file.Instruments) == 0 {
		return nil, fmt.Errorf("registry in %s defines no instruments", dir)
	}

	return NewRegistry(file.Instruments)
}

// NewRegistry builds a registry from already-decoded configs, used by
// tests and embedded defaults.
func NewRegistry(configs []ir.InstrumentConfig) (*Registry, error) {
	bySlug := make(map[string]ir.InstrumentConfig, len(configs))
	for _, cfg := range configs {
		if _, dup := bySlug[cfg.Slug]; dup {
			return nil, fmt.Errorf("duplicate instrument slug %q", cfg.Slug)
		}
		if !cfg.Kind.Valid() {
			return nil, fmt.Errorf("instrument %q has unknown kind %q", cfg.Slug, cfg.Kind)
		}
		bySlug[cfg.Slug] = cfg
	}
	return &Registry{configs: configs, bySlug: bySlug}, nil
}

// All returns the configs in registry order.
func (r *Registry) All() []ir.InstrumentConfig {
	return r.configs
}

// Get looks up one instrument config by slug.
func (r *Registry) Get(slug string) (ir.InstrumentConfig, error) {
	cfg, ok := r.bySlug[slug]
	if !ok {
		return ir.InstrumentConfig{}, &engine.ConfigError{
			Code:    engine.ErrCodeUnknownInstrument,
			Message: fmt.Sprintf("instrument %q is not registered", slug),
		}
	}
	return cfg, nil
}

// AlwaysApplicable returns the statewide instruments included in every
// site resolution, in registry order.
func (r *Registry) AlwaysApplicable() []ir.InstrumentConfig {
	var out []ir.InstrumentConfig
	for _, cfg := range r.configs {
		if cfg.AlwaysApplicable && cfg.Kind == ir.KindStatewidePolicy {
			out = append(out, cfg)
		}
	}
	return out
}

// LocalPlan returns the local plan config for an LGA's registered slug,
// if any.
func (r *Registry) LocalPlan(slug string) (ir.InstrumentConfig, bool) {
	cfg, ok := r.bySlug[slug]
	if !ok || cfg.Kind != ir.KindLocalPlan {
		return ir.InstrumentConfig{}, false
	}
	return cfg, true
}
