package model

// BatchError records why one classification batch failed. Every email id
// in the batch is listed; none of them received an assignment.
type BatchError struct {
	EmailIDs []string `json:"ids"`
	Reason   string   `json:"reason"`
}

// RunResult aggregates the outcome of one classification run. Every
// submitted email ends up either in Classifications or in the id set of
// one of the Errors.
type RunResult struct {
	RunID string `json:"run_id"`
	// Classifications maps email id to the assigned bucket id.
	Classifications map[string]string `json:"classifications"`
	Errors          []BatchError      `json:"errors"`
	// Submitted is the size of the working set after capping.
	Submitted int `json:"submitted"`
}

// NothingToDo reports whether the run had an empty working set.
func (r *RunResult) NothingToDo() bool {
	return r.Submitted == 0
}
