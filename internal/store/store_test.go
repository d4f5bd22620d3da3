package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planaxis/planaxis/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testInstrument(t *testing.T, s *Store, slug string) ir.Instrument {
	t.Helper()
	inst, err := s.UpsertInstrument(context.Background(), ir.InstrumentConfig{
		Slug:         slug,
		Name:         "Test Instrument " + slug,
		Kind:         ir.KindLocalPlan,
		Jurisdiction: "NSW",
	})
	require.NoError(t, err)
	return inst
}

func parsed(key, body string) ir.ParsedClause {
	return ir.ParsedClause{
		ClauseKey:     key,
		Title:         "Clause " + key,
		BodyText:      body,
		HierarchyPath: []string{"Part 1", "Clause " + key},
		ContentHash:   ir.ContentHash(body),
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestUpsertInstrument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testInstrument(t, s, "lep-test")
	assert.Positive(t, first.ID)
	assert.Nil(t, first.LastSyncedAt)

	// Upsert keeps the id and refreshes display fields.
	second, err := s.UpsertInstrument(ctx, ir.InstrumentConfig{
		Slug: "lep-test",
		Name: "Renamed Instrument",
		Kind: ir.KindLocalPlan,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Renamed Instrument", second.Name)
}

func TestInstrumentBySlugNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.InstrumentBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplyClauseBatchCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	batch := Batch{Creates: []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "body one"),
		parsed("LEP_TEST_1_2", "body two"),
	}}
	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, batch, now))

	current, err := s.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, c := range current {
		assert.Equal(t, 1, c.Version)
		assert.True(t, c.IsCurrent)
		require.NotNil(t, c.EffectiveFrom)
		assert.Nil(t, c.EffectiveTo)
		assert.Equal(t, []string{"Part 1", "Clause " + c.ClauseKey}, c.HierarchyPath)
	}

	// last_synced_at stamped in the same transaction.
	got, err := s.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncedAt)
	assert.True(t, got.LastSyncedAt.Equal(now))
}

func TestApplyClauseBatchSupersede(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_1_1", "old body")},
	}, t0))

	current, err := s.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Supersessions: []Supersession{{
			OldID:      current[0].ID,
			Parsed:     parsed("LEP_TEST_1_1", "new body"),
			NewVersion: 2,
		}},
	}, t1))

	// The old version remains queryable as history.
	history, err := s.ClauseHistory(ctx, inst.ID, "LEP_TEST_1_1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.False(t, history[0].IsCurrent)
	require.NotNil(t, history[0].EffectiveTo)
	assert.True(t, history[0].EffectiveTo.Equal(t1))
	assert.Equal(t, 2, history[1].Version)
	assert.True(t, history[1].IsCurrent)

	// Point-in-time lookup resolves each version by effective range.
	atOld, err := s.ClauseAt(ctx, inst.ID, "LEP_TEST_1_1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "old body", atOld.BodyText)

	atNew, err := s.ClauseAt(ctx, inst.ID, "LEP_TEST_1_1", t1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "new body", atNew.BodyText)
}

func TestApplyClauseBatchRetire(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_9_9", "doomed")},
	}, t0))

	current, err := s.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		RetireIDs: []int64{current[0].ID},
	}, t1))

	current, err = s.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, current)

	// Retired rows stay in history with no successor.
	history, err := s.ClauseHistory(ctx, inst.ID, "LEP_TEST_9_9")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsCurrent)
	require.NotNil(t, history[0].EffectiveTo)
}

func TestApplyClauseBatchAtomicity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Retiring a row that is not current fails the whole batch; the
	// create in the same batch must not survive.
	err := s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates:   []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")},
		RetireIDs: []int64{9999},
	}, now)
	require.Error(t, err)

	current, err := s.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, current, "failed batch must leave no partial writes")

	got, err := s.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	assert.Nil(t, got.LastSyncedAt)
}

func TestCurrentUniqueIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	now := time.Now().UTC()

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")},
	}, now))

	// A second current row for the same key violates the partial index.
	err := s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_1_1", "other body")},
	}, now)
	assert.Error(t, err)
}

func TestClauseAtNoCoverage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	inst := testInstrument(t, s, "lep-test")
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.ApplyClauseBatch(ctx, inst.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")},
	}, t0))

	_, err := s.ClauseAt(ctx, inst.ID, "LEP_TEST_1_1", t0.Add(-time.Hour))
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestCurrentClausesFiltered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lep := testInstrument(t, s, "lep-test")
	sepp, err := s.UpsertInstrument(ctx, ir.InstrumentConfig{
		Slug: "sepp-test", Name: "SEPP Test", Kind: ir.KindStatewidePolicy,
	})
	require.NoError(t, err)

	require.NoError(t, s.ApplyClauseBatch(ctx, lep.ID, Batch{
		Creates: []ir.ParsedClause{parsed("LEP_TEST_1_1", "local body")},
	}, now))
	require.NoError(t, s.ApplyClauseBatch(ctx, sepp.ID, Batch{
		Creates: []ir.ParsedClause{parsed("SEPP_TEST_2_2", "state body")},
	}, now))

	all, err := s.CurrentClausesFiltered(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySlug, err := s.CurrentClausesFiltered(ctx, []string{"sepp-test"}, nil)
	require.NoError(t, err)
	require.Len(t, bySlug, 1)
	assert.Equal(t, "sepp-test", bySlug[0].InstrumentSlug)

	byKind, err := s.CurrentClausesFiltered(ctx, nil, []ir.InstrumentKind{ir.KindLocalPlan})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, ir.KindLocalPlan, byKind[0].InstrumentKind)
}

func TestSiteUpsertAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	lat, lng := -33.658, 151.321
	candidate := ir.SiteCandidate{
		ID:               "cand-1",
		FormattedAddress: "6 Myola Road, Newport NSW 2106",
		LGAName:          "Northern Beaches",
		Lot:              "12",
		PlanNumber:       "DP12345",
		Lat:              &lat,
		Lng:              &lng,
		Zone:             "R2",
		Confidence:       0.92,
	}
	require.NoError(t, s.UpsertSite(ctx, "project-1", candidate, now))

	site, err := s.SiteByProject(ctx, "project-1")
	require.NoError(t, err)
	assert.Equal(t, candidate.FormattedAddress, site.Candidate.FormattedAddress)
	require.NotNil(t, site.Candidate.Lat)
	assert.InDelta(t, lat, *site.Candidate.Lat, 1e-9)
	assert.Equal(t, "R2", site.Candidate.Zone)

	// Replacing the chosen candidate keeps one row per project.
	candidate.FormattedAddress = "8 Myola Road, Newport NSW 2106"
	require.NoError(t, s.UpsertSite(ctx, "project-1", candidate, now.Add(time.Hour)))

	site, err = s.SiteByProject(ctx, "project-1")
	require.NoError(t, err)
	assert.Equal(t, "8 Myola Road, Newport NSW 2106", site.Candidate.FormattedAddress)

	_, err = s.SiteByProject(ctx, "project-none")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
