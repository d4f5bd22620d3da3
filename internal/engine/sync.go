package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/metrics"
	"github.com/planaxis/planaxis/internal/parser"
	"github.com/planaxis/planaxis/internal/store"
)

// Result reports what one sync changed. Retired is distinct from
// Updated; callers that want the combined figure add them.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Retired int `json:"retired"`
}

// Synchronizer diffs parsed clauses against the store and applies the
// changes atomically per instrument.
type Synchronizer struct {
	store   *store.Store
	fetcher Fetcher
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// locks serializes syncs per instrument slug. Distinct instruments
	// proceed concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Synchronizer) { s.log = log }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// New creates a Synchronizer. fetcher may be nil when only Sync (not
// SyncFromSource) is used.
func New(st *store.Store, fetcher Fetcher, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:   st,
		fetcher: fetcher,
		log:     zerolog.Nop(),
		metrics: metrics.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// instrumentLock returns the mutex guarding one instrument's syncs.
func (s *Synchronizer) instrumentLock(slug string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[slug]
	if !ok {
		l = &sync.Mutex{}
		s.locks[slug] = l
	}
	return l
}

// SyncFromSource fetches, parses and syncs one instrument. A fetch or
// parse failure aborts with zero state mutation and a RetrievalError.
func (s *Synchronizer) SyncFromSource(ctx context.Context, cfg ir.InstrumentConfig) (Result, error) {
	doc, err := s.fetcher.Fetch(ctx, cfg)
	if err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "retrieval_error").Inc()
		return Result{}, &RetrievalError{Slug: cfg.Slug, Err: err}
	}

	parsedClauses, err := parser.Parse(cfg, doc.Body, doc.Format)
	if err != nil {
		// A parse failure is treated identically to a retrieval
		// failure: no partial writes.
		s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "parse_error").Inc()
		return Result{}, &RetrievalError{Slug: cfg.Slug, Err: err}
	}

	return s.Sync(ctx, cfg, parsedClauses)
}

// Sync diffs parsed clauses against the instrument's current set and
// applies the batch atomically. Re-syncing an unchanged document is a
// no-op that reports zero counts.
func (s *Synchronizer) Sync(ctx context.Context, cfg ir.InstrumentConfig, parsedClauses []ir.ParsedClause) (Result, error) {
	lock := s.instrumentLock(cfg.Slug)
	lock.Lock()
	defer lock.Unlock()

	started := s.now()

	if len(parsedClauses) == 0 {
		// Not an error, but operators need to see it: an empty parse
		// retires the whole instrument.
		s.log.Warn().Str("instrument", cfg.Slug).Msg("parse produced zero clauses")
		s.metrics.ParseEmptyTotal.WithLabelValues(cfg.Slug).Inc()
	}

	deduped := s.dedupe(cfg.Slug, parsedClauses)

	inst, err := s.store.UpsertInstrument(ctx, cfg)
	if err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "error").Inc()
		return Result{}, fmt.Errorf("sync %s: %w", cfg.Slug, err)
	}

	current, err := s.store.CurrentClauses(ctx, inst.ID)
	if err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "error").Inc()
		return Result{}, fmt.Errorf("sync %s: %w", cfg.Slug, err)
	}

	batch, result := plan(current, deduped)

	now := s.now()
	if err := s.store.ApplyClauseBatch(ctx, inst.ID, batch, now); err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "error").Inc()
		return Result{}, fmt.Errorf("sync %s: %w", cfg.Slug, err)
	}

	s.metrics.SyncRunsTotal.WithLabelValues(cfg.Slug, "ok").Inc()
	s.metrics.ClausesAddedTotal.WithLabelValues(cfg.Slug).Add(float64(result.Added))
	s.metrics.ClausesUpdatedTotal.WithLabelValues(cfg.Slug).Add(float64(result.Updated))
	s.metrics.ClausesRetiredTotal.WithLabelValues(cfg.Slug).Add(float64(result.Retired))
	s.metrics.SyncDuration.WithLabelValues(cfg.Slug).Observe(s.now().Sub(started).Seconds())

	s.log.Info().
		Str("instrument", cfg.Slug).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("retired", result.Retired).
		Msg("sync complete")

	return result, nil
}

// dedupe drops later occurrences of a clause key, first-seen wins.
// A duplicate with a different hash is a document defect worth a
// warning; an identical duplicate is silently collapsed.
func (s *Synchronizer) dedupe(slug string, parsedClauses []ir.ParsedClause) []ir.ParsedClause {
	seen := make(map[string]ir.ParsedClause, len(parsedClauses))
	out := make([]ir.ParsedClause, 0, len(parsedClauses))
	for _, p := range parsedClauses {
		first, dup := seen[p.ClauseKey]
		if !dup {
			seen[p.ClauseKey] = p
			out = append(out, p)
			continue
		}
		if first.ContentHash != p.ContentHash {
			s.log.Warn().
				Str("instrument", slug).
				Str("clause_key", p.ClauseKey).
				Msg("duplicate clause key with differing content, keeping first-seen")
			s.metrics.DuplicateKeysTotal.WithLabelValues(slug).Inc()
		}
	}
	return out
}

// plan computes the diff between the current rows and the deduplicated
// parse output.
func plan(current []ir.Clause, parsedClauses []ir.ParsedClause) (store.Batch, Result) {
	currentByKey := make(map[string]ir.Clause, len(current))
	for _, c := range current {
		currentByKey[c.ClauseKey] = c
	}

	var (
		batch  store.Batch
		result Result
	)
	parsedKeys := make(map[string]bool, len(parsedClauses))
	for _, p := range parsedClauses {
		parsedKeys[p.ClauseKey] = true

		existing, ok := currentByKey[p.ClauseKey]
		if !ok {
			batch.Creates = append(batch.Creates, p)
			result.Added++
			continue
		}
		if existing.ContentHash == p.ContentHash {
			continue // unchanged
		}
		batch.Supersessions = append(batch.Supersessions, store.Supersession{
			OldID:      existing.ID,
			Parsed:     p,
			NewVersion: existing.Version + 1,
		})
		result.Updated++
	}

	for _, c := range current {
		if !parsedKeys[c.ClauseKey] {
			batch.RetireIDs = append(batch.RetireIDs, c.ID)
			result.Retired++
		}
	}

	return batch, result
}
