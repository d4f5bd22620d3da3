package resolve

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/metrics"
)

// AddressResolution is the outcome of resolving one free-text address.
type AddressResolution struct {
	// Query is the normalized form actually sent to providers.
	Query string
	// Decision classifies the match quality.
	Decision Decision
	// Candidates are ranked best first, each carrying a confidence
	// score. Empty when Decision is none.
	Candidates []ir.SiteCandidate
	// Provider names the strategy that produced the candidates.
	Provider string
}

// Best returns the top candidate for an auto decision.
func (r AddressResolution) Best() (ir.SiteCandidate, bool) {
	if r.Decision != DecisionAuto || len(r.Candidates) == 0 {
		return ir.SiteCandidate{}, false
	}
	return r.Candidates[0], true
}

// Resolver runs the provider chain over normalized address queries.
type Resolver struct {
	chain        []Strategy
	jurisdiction string
	timeout      time.Duration
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger attaches a structured logger.
func WithResolverLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// WithResolverMetrics attaches counters for provider traffic.
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithTimeout bounds each individual provider attempt.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// NewResolver builds a resolver over the given chain, tried in order.
func NewResolver(jurisdiction string, chain []Strategy, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		chain:        chain,
		jurisdiction: jurisdiction,
		timeout:      10 * time.Second,
		log:          zerolog.Nop(),
		metrics:      metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAddress normalizes the input and walks the chain. It returns
// a none decision, not an error, when every provider comes back clean
// with zero results. It errors only when no provider is configured, or
// when every provider failed for a reason other than zero results.
// When source names a strategy, only that strategy is tried.
func (r *Resolver) ResolveAddress(ctx context.Context, input, source string) (AddressResolution, error) {
	query := NormalizeQuery(input, r.jurisdiction)
	res := AddressResolution{Query: query, Decision: DecisionNone}

	chain := r.chain
	if source != "" {
		chain = nil
		for _, s := range r.chain {
			if s.Name() == source {
				chain = []Strategy{s}
				break
			}
		}
	}
	if len(chain) == 0 {
		return res, &ChainError{}
	}

	var (
		failures []*ProviderError
		sawZero  bool
	)
	for _, strat := range chain {
		r.metrics.ProviderRequestsTotal.WithLabelValues(strat.Name()).Inc()
		outcome := r.attempt(ctx, strat, query)
		switch outcome.Kind {
		case OutcomeSuccess:
			res.Candidates = rank(query, r.jurisdiction, outcome.Candidates)
			res.Decision = decide(res.Candidates)
			res.Provider = strat.Name()
			r.metrics.ResolutionsTotal.WithLabelValues(string(res.Decision)).Inc()
			r.log.Info().
				Str("provider", strat.Name()).
				Str("decision", string(res.Decision)).
				Int("candidates", len(res.Candidates)).
				Msg("address resolved")
			return res, nil
		case OutcomeZeroResults:
			sawZero = true
			r.log.Debug().Str("provider", strat.Name()).Msg("provider returned no results")
		case OutcomeFailure:
			failures = append(failures, outcome.Err)
			r.metrics.ProviderFailuresTotal.WithLabelValues(strat.Name(), string(outcome.Err.Code)).Inc()
			r.log.Warn().Err(outcome.Err).Msg("provider attempt failed, trying next")
		}
	}

	if !sawZero && len(failures) > 0 {
		return res, &ChainError{Failures: failures}
	}
	r.metrics.ResolutionsTotal.WithLabelValues(string(DecisionNone)).Inc()
	return res, nil
}

func (r *Resolver) attempt(ctx context.Context, strat Strategy, query string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return strat.Lookup(ctx, query)
}
