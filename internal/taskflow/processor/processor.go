// Package processor implements the TaskProcessor contract of spec section
// 4.4: a kind+version handler with a pre-processing check that memoizes
// execution state in the shared KeyValueStore so a task is attempted at
// most once per (command, environment) pair. It is grounded structurally on
// the teacher's tools.ToolExecutor/ToolRegistry interface shapes
// (ports/tools/interfaces.go), which separate an abstract executable
// contract from the registry that dispatches to it by name.
package processor

import (
	"context"
	"fmt"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

// DefaultSupportedCommands is the command set a TaskProcessor supports when
// it doesn't declare its own, mirroring the source's
// supported_commands=['apply', 'get', 'delete', 'describe'] default.
var DefaultSupportedCommands = []string{"apply", "get", "delete", "describe"}

// TaskProcessor is the abstract contract a host application registers
// against a task's (kind, version) pair.
type TaskProcessor interface {
	// Kind returns the manifest kind this processor handles.
	Kind() string
	// Versions lists the kind versions this processor handles, in the order
	// used to build its executor id.
	Versions() []string
	// SupportedCommands lists the commands this processor participates in.
	SupportedCommands() []string
	// ProcessTask executes the task's effect, returning the (possibly
	// mutated) KeyValueStore. Implementations MUST be safe to call at most
	// once per (task id, command, environment); the run_id gate in
	// PreProcessingCheck enforces that from the dispatcher side.
	ProcessTask(ctx context.Context, t task.Task, command, environment string, kv kvstore.Store, st state.StatePersistence) (kvstore.Store, error)
}

// RunIDKey builds the KeyValueStore key the pre-processing check memoizes
// attempt state under, mirroring the source's
// 'PROCESSING_TASK:{task_id}:{command}:{context}' format string.
func RunIDKey(taskID, command, environment string) string {
	return fmt.Sprintf("PROCESSING_TASK:%s:%s:%s", taskID, command, environment)
}

// Run states stored at RunIDKey.
const (
	RunStatePending  = 1
	RunStateDone     = 2
	RunStateFailed   = -1
)

// PreProcessingCheck implements spec section 4.3 step 3 / 4.4's
// task_pre_processing_check: it computes the run_id, initializes it to
// RunStatePending on first sight, and — only if it is still
// RunStatePending — invokes p.ProcessTask, recording RunStateDone on
// success or RunStateFailed on error. A ProcessTask error is swallowed here
// (spec section 7's ProcessorFailure: caught, soft-continue) and never
// returned to the caller; an already-attempted run_id logs a warning and is
// left untouched.
func PreProcessingCheck(ctx context.Context, p TaskProcessor, t task.Task, command, environment string, kv kvstore.Store, st state.StatePersistence, logger logging.Logger) kvstore.Store {
	logger = logging.OrNop(logger)
	runID := RunIDKey(t.ID(), command, environment)

	if !kv.Has(runID) {
		kv.Save(runID, RunStatePending)
	}

	current, _ := kv.Get(runID)
	if current != RunStatePending {
		logger.Warn("taskflow: task %q already previously validated and/or executed for run %q", t.ID(), runID)
		return kv
	}

	result, err := p.ProcessTask(ctx, t, command, environment, kv, st)
	if err != nil {
		logger.Error("taskflow: processor for task %q failed during command %q in context %q: %v", t.ID(), command, environment, err)
		kv.Save(runID, RunStateFailed)
		return kv
	}
	result.Save(runID, RunStateDone)
	return result
}

// ExecutorID builds the composite id a processor is registered under:
// "<kind>:<v1>:<v2>:...", mirroring register_task_processor.
func ExecutorID(kind string, versions []string) string {
	id := kind
	for _, v := range versions {
		id = fmt.Sprintf("%s:%s", id, v)
	}
	return id
}

// VersionKey builds the per-version lookup key "<kind>:<version>" the
// engine uses to find a task's processor.
func VersionKey(kind, version string) string {
	return fmt.Sprintf("%s:%s", kind, version)
}
