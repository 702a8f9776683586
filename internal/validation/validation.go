// Package validation provides the aggregate validation result used by the
// occupancy and ledger operations. Expected, user-correctable failures are
// all collected, not just the first, so callers can surface every problem
// at once. Go errors are reserved for system faults.
package validation

// Result collects validation failures for a single operation.
type Result struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// NewResult returns a Result with no failures recorded.
func NewResult() *Result {
	return &Result{Valid: true, Errors: []string{}}
}

// Add records a validation failure message.
func (r *Result) Add(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// Require records a failure only when cond is false, returning cond.
func (r *Result) Require(cond bool, msg string) bool {
	if !cond {
		r.Add(msg)
	}
	return cond
}
