package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planaxis/planaxis/internal/ir"
)

type stubStrategy struct {
	name    string
	outcome Outcome
	calls   int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Lookup(ctx context.Context, query string) Outcome {
	s.calls++
	return s.outcome
}

func failureOutcome(provider string) Outcome {
	return Failure(&ProviderError{
		Provider: provider,
		Code:     CodeNetwork,
		Err:      errors.New("connection refused"),
	})
}

func TestResolveAddressFirstProviderWins(t *testing.T) {
	first := &stubStrategy{name: "places", outcome: Success([]ir.SiteCandidate{
		{ID: "a", FormattedAddress: "6 Myola Road, Newport NSW 2106", Provider: "places"},
	})}
	second := &stubStrategy{name: "property", outcome: ZeroResults()}

	r := NewResolver("NSW", []Strategy{first, second})
	res, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAuto, res.Decision)
	assert.Equal(t, "places", res.Provider)
	assert.Equal(t, 0, second.calls, "chain short-circuits on success")

	best, ok := res.Best()
	require.True(t, ok)
	assert.Equal(t, "a", best.ID)
	assert.Greater(t, best.Confidence, 0.9)
}

func TestResolveAddressFallsThroughZeroResults(t *testing.T) {
	first := &stubStrategy{name: "places", outcome: ZeroResults()}
	second := &stubStrategy{name: "property", outcome: Success([]ir.SiteCandidate{
		{ID: "p", FormattedAddress: "6 Myola Road, Newport NSW 2106", Provider: "property"},
	})}

	r := NewResolver("NSW", []Strategy{first, second})
	res, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	require.NoError(t, err)
	assert.Equal(t, "property", res.Provider)
	assert.Equal(t, 1, first.calls)
}

func TestResolveAddressFallsThroughFailure(t *testing.T) {
	first := &stubStrategy{name: "places", outcome: failureOutcome("places")}
	second := &stubStrategy{name: "property", outcome: Success([]ir.SiteCandidate{
		{ID: "p", FormattedAddress: "6 Myola Road, Newport NSW 2106", Provider: "property"},
	})}

	r := NewResolver("NSW", []Strategy{first, second})
	res, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	require.NoError(t, err, "a failed provider is not fatal while the chain has more to try")
	assert.Equal(t, "property", res.Provider)
}

func TestResolveAddressNoMatchIsNotAnError(t *testing.T) {
	r := NewResolver("NSW", []Strategy{
		&stubStrategy{name: "places", outcome: ZeroResults()},
		&stubStrategy{name: "property", outcome: ZeroResults()},
	})
	res, err := r.ResolveAddress(context.Background(), "nowhere at all", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, res.Decision)
	assert.Empty(t, res.Candidates)

	_, ok := res.Best()
	assert.False(t, ok)
}

func TestResolveAddressMixedFailureAndZeroIsNone(t *testing.T) {
	r := NewResolver("NSW", []Strategy{
		&stubStrategy{name: "places", outcome: failureOutcome("places")},
		&stubStrategy{name: "property", outcome: ZeroResults()},
	})
	res, err := r.ResolveAddress(context.Background(), "nowhere at all", "")
	require.NoError(t, err, "one clean zero-result outcome settles the question")
	assert.Equal(t, DecisionNone, res.Decision)
}

func TestResolveAddressAllProvidersFailed(t *testing.T) {
	r := NewResolver("NSW", []Strategy{
		&stubStrategy{name: "places", outcome: failureOutcome("places")},
		&stubStrategy{name: "property", outcome: failureOutcome("property")},
	})
	_, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	var ce *ChainError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, ce.Failures, 2)
}

func TestResolveAddressNoProvidersConfigured(t *testing.T) {
	r := NewResolver("NSW", nil)
	_, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	var ce *ChainError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, ce.Failures)
}

func TestResolveAddressSourceSelectsProvider(t *testing.T) {
	first := &stubStrategy{name: "places", outcome: Success([]ir.SiteCandidate{
		{ID: "a", FormattedAddress: "6 Myola Road, Newport NSW 2106", Provider: "places"},
	})}
	second := &stubStrategy{name: "property", outcome: Success([]ir.SiteCandidate{
		{ID: "p", FormattedAddress: "6 Myola Road, Newport NSW 2106", Provider: "property"},
	})}
	r := NewResolver("NSW", []Strategy{first, second})

	res, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "property")
	require.NoError(t, err)
	assert.Equal(t, "property", res.Provider)
	assert.Equal(t, 0, first.calls)

	_, err = r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "nonexistent")
	var ce *ChainError
	assert.ErrorAs(t, err, &ce)
}

func TestResolveAddressAmbiguousCandidates(t *testing.T) {
	// Two plausible unit addresses on the same street score close
	// together, so neither is trusted automatically.
	provider := &stubStrategy{name: "property", outcome: Success([]ir.SiteCandidate{
		{ID: "u1", FormattedAddress: "1/6 Myola Road, Newport NSW 2106"},
		{ID: "u2", FormattedAddress: "2/6 Myola Road, Newport NSW 2106"},
	})}
	r := NewResolver("NSW", []Strategy{provider})

	res, err := r.ResolveAddress(context.Background(), "6 Myola Rd Newport", "")
	require.NoError(t, err)
	assert.Equal(t, DecisionAmbiguous, res.Decision)
	assert.Len(t, res.Candidates, 2)

	_, ok := res.Best()
	assert.False(t, ok, "ambiguous resolutions expose no best candidate")
}
