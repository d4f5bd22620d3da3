package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/planaxis/planaxis/internal/engine"
	"github.com/planaxis/planaxis/internal/parser"
	"github.com/planaxis/planaxis/internal/store"
)

// baseTime anchors the deterministic clock. Each step advances one day.
var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario against a fresh in-memory store and returns
// the recorded trace. The error return covers infrastructure failures
// only; a scenario whose expectations do not hold comes back with
// Pass=false and the failures listed in Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("harness store: %w", err)
	}
	defer st.Close()

	cfg := scenario.Instrument.Config()
	result := NewResult()

	stepTime := baseTime
	sync := engine.New(st, nil, engine.WithClock(func() time.Time { return stepTime }))

	for i, step := range scenario.Steps {
		stepTime = baseTime.AddDate(0, 0, i)

		parsed, err := parser.Parse(cfg, []byte(step.Document), parser.Format(step.Format))
		if err != nil {
			return nil, fmt.Errorf("step %q: parse: %w", step.Label, err)
		}
		diff, err := sync.Sync(ctx, cfg, parsed)
		if err != nil {
			return nil, fmt.Errorf("step %q: sync: %w", step.Label, err)
		}

		if e := step.Expect; e != nil {
			if diff.Added != e.Added || diff.Updated != e.Updated || diff.Retired != e.Retired {
				result.AddError("step %q: expected added=%d updated=%d retired=%d, got added=%d updated=%d retired=%d",
					step.Label, e.Added, e.Updated, e.Retired, diff.Added, diff.Updated, diff.Retired)
			}
		}

		state, err := clauseState(ctx, st, cfg.Slug)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Label, err)
		}
		result.Trace = append(result.Trace, StepTrace{
			Step:    step.Label,
			Added:   diff.Added,
			Updated: diff.Updated,
			Retired: diff.Retired,
			Clauses: state,
		})
	}

	if err := checkAssertions(ctx, st, cfg.Slug, scenario.Assertions, result); err != nil {
		return nil, err
	}
	return result, nil
}

// clauseState snapshots the current clause set, ordered by key.
func clauseState(ctx context.Context, st *store.Store, slug string) ([]ClauseState, error) {
	inst, err := st.InstrumentBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load instrument: %w", err)
	}
	current, err := st.CurrentClauses(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("load clauses: %w", err)
	}
	out := make([]ClauseState, 0, len(current))
	for _, c := range current {
		out = append(out, ClauseState{ClauseKey: c.ClauseKey, Version: c.Version})
	}
	return out, nil
}

func checkAssertions(ctx context.Context, st *store.Store, slug string, assertions []Assertion, result *Result) error {
	if len(assertions) == 0 {
		return nil
	}
	state, err := clauseState(ctx, st, slug)
	if err != nil {
		return err
	}
	byKey := make(map[string]ClauseState, len(state))
	for _, c := range state {
		byKey[c.ClauseKey] = c
	}

	for _, a := range assertions {
		switch a.Type {
		case AssertClauseVersion:
			c, ok := byKey[a.ClauseKey]
			switch {
			case !ok:
				result.AddError("clause_version: %s has no current version", a.ClauseKey)
			case c.Version != a.Version:
				result.AddError("clause_version: %s is at version %d, expected %d", a.ClauseKey, c.Version, a.Version)
			}
		case AssertClauseAbsent:
			if _, ok := byKey[a.ClauseKey]; ok {
				result.AddError("clause_absent: %s is still current", a.ClauseKey)
			}
		case AssertClauseCount:
			if len(state) != a.Count {
				result.AddError("clause_count: %d current clauses, expected %d", len(state), a.Count)
			}
		}
	}
	return nil
}
