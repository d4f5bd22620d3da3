package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planaxis/planaxis/internal/ir"
	"github.com/planaxis/planaxis/internal/store"
	"github.com/planaxis/planaxis/internal/testutil"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testConfig() ir.InstrumentConfig {
	return ir.InstrumentConfig{
		Slug:         "lep-test",
		Name:         "Test Local Environmental Plan",
		Kind:         ir.KindLocalPlan,
		Jurisdiction: "NSW",
	}
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

func TestSyncFirstRunCreatesEverything(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()

	result, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "body one"),
		parsed("LEP_TEST_1_2", "body two"),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 2}, result)
}

func TestSyncUnchangedDocumentIsNoOp(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()
	clauses := []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "body one"),
		parsed("LEP_TEST_1_2", "body two"),
	}

	_, err := syn.Sync(ctx, testConfig(), clauses)
	require.NoError(t, err)

	result, err := syn.Sync(ctx, testConfig(), clauses)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result, "second sync of unchanged document reports zero counts")

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	history, err := st.ClauseHistory(ctx, inst.ID, "LEP_TEST_1_1")
	require.NoError(t, err)
	assert.Len(t, history, 1, "no new rows written")
}

func TestSyncChangeAndRemoval(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()

	_, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "original body"),
		parsed("LEP_TEST_1_2", "doomed body"),
		parsed("LEP_TEST_1_3", "stable body"),
	})
	require.NoError(t, err)

	// Change 1.1, drop 1.2, keep 1.3.
	result, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "amended body"),
		parsed("LEP_TEST_1_3", "stable body"),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1, Retired: 1}, result)

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)

	// The old version remains queryable as non-current history.
	history, err := st.ClauseHistory(ctx, inst.ID, "LEP_TEST_1_1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].IsCurrent)
	assert.NotNil(t, history[0].EffectiveTo)
	assert.Equal(t, "original body", history[0].BodyText)
	assert.True(t, history[1].IsCurrent)
	assert.Equal(t, 2, history[1].Version)

	retired, err := st.ClauseHistory(ctx, inst.ID, "LEP_TEST_1_2")
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.False(t, retired[0].IsCurrent)
	assert.NotNil(t, retired[0].EffectiveTo)
}

func TestSyncVersionsIncrementByOne(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()

	bodies := []string{"v1 body", "v2 body", "v3 body", "v4 body"}
	for _, body := range bodies {
		_, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{parsed("LEP_TEST_1_1", body)})
		require.NoError(t, err)
	}

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	history, err := st.ClauseHistory(ctx, inst.ID, "LEP_TEST_1_1")
	require.NoError(t, err)
	require.Len(t, history, len(bodies))
	for i, c := range history {
		assert.Equal(t, i+1, c.Version, "versions strictly increase by 1")
	}
}

func TestSyncDuplicateKeysFirstSeenWins(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()

	result, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "first occurrence"),
		parsed("LEP_TEST_1_1", "conflicting duplicate"),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1}, result)

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	current, err := st.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "first occurrence", current[0].BodyText)
}

func TestSyncEmptyParseRetiresAll(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()

	_, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")})
	require.NoError(t, err)

	result, err := syn.Sync(ctx, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Retired: 1}, result)
}

type failingFetcher struct{}

func (failingFetcher) Fetch(ctx context.Context, cfg ir.InstrumentConfig) (Document, error) {
	return Document{}, errors.New("connection refused")
}

func TestSyncFromSourceRetrievalFailureMutatesNothing(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// Seed existing state with a working sync.
	_, err := New(st, nil).Sync(ctx, testConfig(), []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")})
	require.NoError(t, err)
	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	before, err := st.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)

	syn := New(st, failingFetcher{})
	_, err = syn.SyncFromSource(ctx, testConfig())
	require.Error(t, err)
	assert.True(t, IsRetrievalError(err))

	after, err := st.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed retrieval must not touch clause state")
}

func TestSyncFromSourceFixture(t *testing.T) {
	dir := t.TempDir()
	doc := `<html><body>
		<h2>Part 3</h2>
		<h3>Clause 5.2 Height of buildings</h3>
		<p>The height of a building must not exceed the maximum shown.</p>
	</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lep-test.html"), []byte(doc), 0o644))

	st := testStore(t)
	syn := New(st, FixtureFetcher{Dir: dir})

	result, err := syn.SyncFromSource(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1}, result)
}

func TestSyncFromSourceMissingFixture(t *testing.T) {
	st := testStore(t)
	syn := New(st, FixtureFetcher{Dir: t.TempDir()})

	_, err := syn.SyncFromSource(context.Background(), testConfig())
	require.Error(t, err)
	assert.True(t, IsRetrievalError(err))
}

func TestSyncSameInstrumentSerialized(t *testing.T) {
	st := testStore(t)
	syn := New(st, nil)
	ctx := context.Background()
	clauses := []ir.ParsedClause{
		parsed("LEP_TEST_1_1", "body one"),
		parsed("LEP_TEST_1_2", "body two"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := syn.Sync(ctx, testConfig(), clauses)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	current, err := st.CurrentClauses(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, c := range current {
		assert.Equal(t, 1, c.Version, "identical concurrent syncs never double-write")
	}
}

func TestSyncStampsLastSyncedAt(t *testing.T) {
	st := testStore(t)
	clock := testutil.NewClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	syn := New(st, nil, WithClock(clock.Now))
	ctx := context.Background()

	_, err := syn.Sync(ctx, testConfig(), []ir.ParsedClause{parsed("LEP_TEST_1_1", "body")})
	require.NoError(t, err)

	inst, err := st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	require.NotNil(t, inst.LastSyncedAt)
	assert.True(t, inst.LastSyncedAt.Equal(clock.Now()))

	// A later sync of a changed document moves the stamp forward.
	clock.Advance(48 * time.Hour)
	_, err = syn.Sync(ctx, testConfig(), []ir.ParsedClause{parsed("LEP_TEST_1_1", "revised body")})
	require.NoError(t, err)

	inst, err = st.InstrumentBySlug(ctx, "lep-test")
	require.NoError(t, err)
	assert.True(t, inst.LastSyncedAt.Equal(clock.Now()))
}
