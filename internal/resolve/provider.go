package resolve

import (
	"context"

	"github.com/planaxis/planaxis/internal/ir"
)

// OutcomeKind is the tag of the Outcome sum.
type OutcomeKind int

const (
	// OutcomeSuccess carries one or more candidates.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeZeroResults means the provider answered but found nothing.
	OutcomeZeroResults
	// OutcomeFailure means the attempt itself failed.
	OutcomeFailure
)

// Outcome is the result of a single provider attempt. Exactly one of
// Candidates or Err is meaningful, selected by Kind.
type Outcome struct {
	Kind       OutcomeKind
	Candidates []ir.SiteCandidate
	Err        *ProviderError
}

// Success wraps candidates in a success outcome. An empty slice is
// normalized to zero results so providers cannot produce an empty
// success by accident.
func Success(candidates []ir.SiteCandidate) Outcome {
	if len(candidates) == 0 {
		return ZeroResults()
	}
	return Outcome{Kind: OutcomeSuccess, Candidates: candidates}
}

// ZeroResults is the clean not-found outcome.
func ZeroResults() Outcome {
	return Outcome{Kind: OutcomeZeroResults}
}

// Failure wraps a provider error in a failure outcome.
func Failure(err *ProviderError) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// Strategy is one provider in the resolution chain.
type Strategy interface {
	// Name identifies the provider in logs, errors and candidates.
	Name() string
	// Lookup attempts to resolve the normalized query into candidates.
	Lookup(ctx context.Context, query string) Outcome
}
