package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Removable lists the removable references as labels, in order.
	// Nil when collection failed.
	Removable []string `json:"removable,omitempty"`

	// Deleted lists the references the deleting iterator removed.
	Deleted []string `json:"deleted,omitempty"`

	// Remaining lists the references left in the directory, sorted.
	Remaining []string `json:"remaining"`

	// ErrorCode is the dag error code of a failed collection.
	ErrorCode string `json:"error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Remaining: []string{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
