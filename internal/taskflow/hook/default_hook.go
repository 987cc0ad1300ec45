package hook

import (
	"context"
	"fmt"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
)

// DefaultRegisteredErrorHookName is the name under which the engine
// installs the fatal default TASK_REGISTERED_ERROR hook if the caller
// hasn't registered one of their own (spec section 4.5 / 7).
const DefaultRegisteredErrorHookName = "DEFAULT_TASK_REGISTERED_ERROR_HOOK"

// AlwaysFailFunc is the body of the default TASK_REGISTERED_ERROR hook: it
// unconditionally returns an error, using extras["ExceptionMessage"] if
// present or a standard diagnostic otherwise. It is the mechanism by which
// a missing TaskProcessor registration becomes a fatal AddTask error,
// mirroring the source's hook_function_always_throw_exception.
func AlwaysFailFunc(_ context.Context, args Args) (kvstore.Store, error) {
	taskID := "unknown"
	if args.Task != nil {
		taskID = args.Task.ID()
	}
	message := fmt.Sprintf("hook %q forced failure on command %q in context %q for life stage %d in task %q", args.HookName, args.Command, args.Context, args.Stage, taskID)
	if custom, ok := args.Extras["ExceptionMessage"].(string); ok && custom != "" {
		logging.OrNop(args.Logger).Error(message)
		message = custom
	}
	return args.Store, fmt.Errorf("%s", message)
}
