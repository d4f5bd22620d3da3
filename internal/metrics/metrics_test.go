package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SyncRunsTotal.WithLabelValues("lep-test", "ok").Inc()
	m.ClausesAddedTotal.WithLabelValues("lep-test").Add(3)
	m.ResolutionsTotal.WithLabelValues("auto").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("lep-test", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ClausesAddedTotal.WithLabelValues("lep-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("auto")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewNopIsIsolated(t *testing.T) {
	a := NewNop()
	b := NewNop()
	a.SyncRunsTotal.WithLabelValues("x", "ok").Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SyncRunsTotal.WithLabelValues("x", "ok")))
}
