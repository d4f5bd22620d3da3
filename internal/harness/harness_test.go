package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc1 = `<html><body><main>
<h2>Part 1 Preliminary</h2>
<h3>1.1 Name of Plan</h3>
<p>This plan is the Test Plan.</p>
</main></body></html>`

const doc2 = `<html><body><main>
<h2>Part 1 Preliminary</h2>
<h3>1.1 Name of Plan</h3>
<p>This plan is the Test Plan, renamed.</p>
</main></body></html>`

func twoStepScenario(expect1, expect2 *Expect) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Instrument:  InstrumentSpec{Slug: "lep-test", Name: "Test Plan", Kind: "local_plan", ClausePrefix: "LEP"},
		Steps: []Step{
			{Label: "first", Format: "html", Document: doc1, Expect: expect1},
			{Label: "second", Format: "html", Document: doc2, Expect: expect2},
		},
	}
}

func TestRunRecordsTrace(t *testing.T) {
	s := twoStepScenario(
		&Expect{Added: 1},
		&Expect{Updated: 1},
	)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	require.Len(t, result.Trace, 2)

	assert.Equal(t, 1, result.Trace[0].Added)
	require.Len(t, result.Trace[0].Clauses, 1)
	assert.Equal(t, "LEP_1_1", result.Trace[0].Clauses[0].ClauseKey)
	assert.Equal(t, 1, result.Trace[0].Clauses[0].Version)

	assert.Equal(t, 1, result.Trace[1].Updated)
	assert.Equal(t, 2, result.Trace[1].Clauses[0].Version)
}

func TestRunFlagsExpectationMismatch(t *testing.T) {
	s := twoStepScenario(
		&Expect{Added: 1},
		&Expect{Added: 5}, // wrong on purpose
	)
	result, err := Run(context.Background(), s)
	require.NoError(t, err, "a failed expectation is a result, not an error")
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.Contains(result.Errors[0], `step "second"`))
}

func TestRunEvaluatesAssertions(t *testing.T) {
	s := twoStepScenario(nil, nil)
	s.Assertions = []Assertion{
		{Type: AssertClauseVersion, ClauseKey: "LEP_1_1", Version: 2},
		{Type: AssertClauseAbsent, ClauseKey: "LEP_9_9"},
		{Type: AssertClauseCount, Count: 1},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	s.Assertions = []Assertion{
		{Type: AssertClauseVersion, ClauseKey: "LEP_1_1", Version: 7},
		{Type: AssertClauseAbsent, ClauseKey: "LEP_1_1"},
		{Type: AssertClauseCount, Count: 3},
	}
	result, err = Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
}

func TestLifecycleScenarioGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "lep_lifecycle.yaml"))
	require.NoError(t, err)

	result := RunWithGolden(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
