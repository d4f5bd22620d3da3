package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planaxis/planaxis/internal/config"
	"github.com/planaxis/planaxis/internal/ir"
)

func testSiteResolver(t *testing.T) *SiteResolver {
	t.Helper()
	reg, err := config.NewRegistry([]ir.InstrumentConfig{
		{Slug: "sepp-housing-2021", Name: "Housing SEPP", Kind: ir.KindStatewidePolicy, AlwaysApplicable: true},
		{Slug: "sepp-resilience-2021", Name: "Resilience SEPP", Kind: ir.KindStatewidePolicy, AlwaysApplicable: true},
		{Slug: "lep-northern-beaches", Name: "Northern Beaches LEP", Kind: ir.KindLocalPlan},
	})
	require.NoError(t, err)

	gaz := &config.Gazetteer{
		Jurisdiction: "NSW",
		Localities: []config.Locality{
			{LGA: "Northern Beaches", LGACode: "16400", LocalPlan: "lep-northern-beaches", Keywords: []string{"newport", "manly", "dee why"}},
			{LGA: "Waverley", LGACode: "18050", Keywords: []string{"bondi"}},
		},
	}
	return NewSiteResolver(reg, gaz)
}

func TestResolveSiteWithLocalPlan(t *testing.T) {
	r := testSiteResolver(t)
	res := r.ResolveSite("6 Myola Road, NEWPORT NSW 2106", "")

	assert.Equal(t, []string{"sepp-housing-2021", "sepp-resilience-2021", "lep-northern-beaches"},
		res.InstrumentSlugs, "statewide first, then the local plan")
	assert.Equal(t, "Northern Beaches", res.LGA)

	joined := strings.Join(res.Rationale, "\n")
	assert.Contains(t, joined, "inferred LGA Northern Beaches")
	assert.Contains(t, joined, "local plan for Northern Beaches")
}

func TestResolveSiteExplicitLGAOverridesInference(t *testing.T) {
	r := testSiteResolver(t)
	// Address text says Newport but the caller pins Waverley.
	res := r.ResolveSite("6 Myola Road, Newport", "waverley")

	assert.Equal(t, "Waverley", res.LGA)
	assert.Equal(t, []string{"sepp-housing-2021", "sepp-resilience-2021"}, res.InstrumentSlugs)
	assert.Contains(t, strings.Join(res.Rationale, "\n"), "no local plan registered for Waverley")
}

func TestResolveSiteUnknownLocality(t *testing.T) {
	r := testSiteResolver(t)
	res := r.ResolveSite("1 George Street, Parramatta", "")

	assert.Empty(t, res.LGA)
	assert.Equal(t, []string{"sepp-housing-2021", "sepp-resilience-2021"}, res.InstrumentSlugs,
		"statewide instruments still apply")
	assert.Contains(t, strings.Join(res.Rationale, "\n"), "no LGA could be inferred")
}

func TestResolveSiteUnknownExplicitLGA(t *testing.T) {
	r := testSiteResolver(t)
	res := r.ResolveSite("1 George Street", "Parramatta")

	assert.Empty(t, res.LGA)
	assert.Contains(t, strings.Join(res.Rationale, "\n"), `supplied LGA "Parramatta" is not in the gazetteer`)
}

func TestResolveSiteGazetteerPointsAtMissingPlan(t *testing.T) {
	reg, err := config.NewRegistry([]ir.InstrumentConfig{
		{Slug: "sepp-housing-2021", Name: "Housing SEPP", Kind: ir.KindStatewidePolicy, AlwaysApplicable: true},
	})
	require.NoError(t, err)
	gaz := &config.Gazetteer{
		Jurisdiction: "NSW",
		Localities: []config.Locality{
			{LGA: "Northern Beaches", LocalPlan: "lep-northern-beaches", Keywords: []string{"newport"}},
		},
	}
	r := NewSiteResolver(reg, gaz)

	res := r.ResolveSite("6 Myola Road, Newport", "")
	assert.Equal(t, []string{"sepp-housing-2021"}, res.InstrumentSlugs)
	assert.Contains(t, strings.Join(res.Rationale, "\n"), "registry has no such local plan")
}

func TestResolveSiteDeterministic(t *testing.T) {
	r := testSiteResolver(t)
	first := r.ResolveSite("6 Myola Road, Newport", "")
	second := r.ResolveSite("6 Myola Road, Newport", "")
	assert.Equal(t, first, second)
}
