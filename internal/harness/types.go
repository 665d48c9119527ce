package harness

import "github.com/roach88/sqlir/internal/ir"

// Output is the outcome of one step compiled for one dialect.
type Output struct {
	Step        string     `json:"step"`
	Dialect     string     `json:"dialect"`
	Text        string     `json:"text,omitempty"`
	Parameters  []ir.Value `json:"-"`
	Fingerprint string     `json:"fingerprint,omitempty"`

	// Error is the rendered validation or compile error, if any.
	Error string `json:"error,omitempty"`
	// Code is the error code of Error.
	Code string `json:"code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Outputs are ordered by step, then by scenario dialect order.
	Outputs []Output `json:"outputs"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []Output{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddOutput records a compilation outcome.
func (r *Result) AddOutput(o Output) {
	r.Outputs = append(r.Outputs, o)
}

// Output returns the outcome of step for dialect.
func (r *Result) Output(step, dialect string) (Output, bool) {
	for _, o := range r.Outputs {
		if o.Step == step && o.Dialect == dialect {
			return o, true
		}
	}
	return Output{}, false
}
