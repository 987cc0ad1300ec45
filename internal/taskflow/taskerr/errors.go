// Package taskerr defines the sentinel errors for the error categories in
// spec section 7, so callers can distinguish failure kinds with errors.Is
// instead of string-matching.
package taskerr

import "errors"

var (
	// ErrDuplicateTask is returned by Engine.AddTask when a task with the
	// same id was already added.
	ErrDuplicateTask = errors.New("taskflow: duplicate task id")

	// ErrUnknownProcessor is returned by Engine.AddTask, wrapping the
	// TASK_REGISTERED_ERROR hook's error, when a task's (kind, version) has
	// no registered TaskProcessor and that hook fails.
	ErrUnknownProcessor = errors.New("taskflow: no processor registered for kind/version")

	// ErrMissingDependency is returned by the planner when a ManifestName
	// dependency resolves to zero tasks.
	ErrMissingDependency = errors.New("taskflow: dependency not found")

	// ErrOutOfScopeDependency is returned by the planner when a resolved
	// dependency task does not qualify under the current processing
	// target.
	ErrOutOfScopeDependency = errors.New("taskflow: dependency out of scope")

	// ErrTaskNotFound is returned by GetTaskByID for an unknown id.
	ErrTaskNotFound = errors.New("taskflow: task not found")

	// ErrHookFailed wraps any error returned by a Hook's function; it
	// aborts the enclosing ProcessContext call.
	ErrHookFailed = errors.New("taskflow: hook failed")
)
