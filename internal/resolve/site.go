package resolve

import (
	"fmt"

	"github.com/planaxis/planaxis/internal/config"
	"github.com/planaxis/planaxis/internal/ir"
)

// SiteResolver maps a site to the instruments that govern it. The
// mapping is pure configuration: statewide policies apply everywhere,
// and the gazetteer links a local government area to its local plan.
type SiteResolver struct {
	registry  *config.Registry
	gazetteer *config.Gazetteer
}

// NewSiteResolver builds a resolver over the loaded registry and
// gazetteer.
func NewSiteResolver(reg *config.Registry, gaz *config.Gazetteer) *SiteResolver {
	return &SiteResolver{registry: reg, gazetteer: gaz}
}

// ResolveSite determines the applicable instruments for an address.
// When explicitLGA is non-empty it overrides gazetteer inference.
// Resolution is deterministic and never errors: a site outside every
// known locality still receives the statewide instruments, with the
// gap recorded in the rationale.
func (r *SiteResolver) ResolveSite(addressText, explicitLGA string) ir.SiteResolution {
	res := ir.SiteResolution{Address: addressText}

	for _, cfg := range r.registry.AlwaysApplicable() {
		res.InstrumentSlugs = append(res.InstrumentSlugs, cfg.Slug)
		res.Rationale = append(res.Rationale,
			fmt.Sprintf("included %s: statewide policy, always applicable", cfg.Slug))
	}

	loc, rationale := r.locality(addressText, explicitLGA)
	res.Rationale = append(res.Rationale, rationale)
	if loc == nil {
		return res
	}
	res.LGA = loc.LGA

	if loc.LocalPlan == "" {
		res.Rationale = append(res.Rationale,
			fmt.Sprintf("no local plan registered for %s", loc.LGA))
		return res
	}
	cfg, ok := r.registry.LocalPlan(loc.LocalPlan)
	if !ok {
		res.Rationale = append(res.Rationale,
			fmt.Sprintf("gazetteer names %s for %s but the registry has no such local plan", loc.LocalPlan, loc.LGA))
		return res
	}
	res.InstrumentSlugs = append(res.InstrumentSlugs, cfg.Slug)
	res.Rationale = append(res.Rationale,
		fmt.Sprintf("included %s: local plan for %s", cfg.Slug, loc.LGA))
	return res
}

func (r *SiteResolver) locality(addressText, explicitLGA string) (*config.Locality, string) {
	if explicitLGA != "" {
		loc := r.gazetteer.ByLGA(explicitLGA)
		if loc == nil {
			return nil, fmt.Sprintf("supplied LGA %q is not in the gazetteer", explicitLGA)
		}
		return loc, fmt.Sprintf("using supplied LGA %s", loc.LGA)
	}
	loc := r.gazetteer.InferLGA(addressText)
	if loc == nil {
		return nil, "no LGA could be inferred from the address"
	}
	return loc, fmt.Sprintf("inferred LGA %s from address text", loc.LGA)
}
