package harness

import "fmt"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace records each step's diff and the clause state after it.
	Trace []StepTrace `json:"trace"`

	// Errors lists the checks that failed. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// StepTrace is the recorded outcome of one sync step.
type StepTrace struct {
	Step    string `json:"step"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Retired int    `json:"retired"`

	// Clauses is the current clause set after the step, ordered by key.
	Clauses []ClauseState `json:"clauses"`
}

// ClauseState is one current clause in a step trace. Content hashes are
// deliberately omitted so traces stay readable and independent of body
// whitespace details.
type ClauseState struct {
	ClauseKey string `json:"clause_key"`
	Version   int    `json:"version"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []StepTrace{}}
}

// AddError records a failed check and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
