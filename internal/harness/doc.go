// Package harness provides scenario-based conformance testing for the
// instrument synchronizer.
//
// A scenario describes one instrument and a sequence of document
// revisions. The harness syncs each revision into a fresh in-memory
// store and records a trace of what changed: clauses added, updated and
// retired, plus the current clause set after every step. Traces are
// deterministic, so they can be compared against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	instrument:
//	  slug: lep-example
//	  name: Example LEP
//	  kind: local_plan
//	steps:
//	  - label: initial publication
//	    format: html
//	    document: |
//	      <html>...</html>
//	    expect: { added: 2, updated: 0, retired: 0 }
//	assertions:
//	  - type: clause_version
//	    clause_key: LEP_EXAMPLE_1_2
//	    version: 2
//	  - type: clause_absent
//	    clause_key: LEP_EXAMPLE_1_1
//	  - type: clause_count
//	    count: 2
//
// # Assertion Types
//
//   - clause_version: the clause's current version equals the given one
//   - clause_absent: the clause key has no current version
//   - clause_count: the instrument has exactly N current clauses
//
// # Determinism
//
// Each step runs with a fixed wall clock advanced one day per step, so
// effective ranges and version numbers are identical across runs and
// traces are safe for golden comparison.
package harness
