package workflow

import "fmt"

// ValidationError reports an invalid task-to-provider assignment. It
// is raised at configuration time, never during stage execution.
type ValidationError struct {
	Task     string
	Provider string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workflow configuration: task %q provider %q: %s", e.Task, e.Provider, e.Reason)
}

// StageError identifies the workflow stage whose generation call
// failed. Any stage failure aborts the whole report.
type StageError struct {
	Task Task
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow stage %s failed: %v", e.Task, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
