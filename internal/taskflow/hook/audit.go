package hook

import (
	"context"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
)

// NewAuditLogHook builds a Hook that logs every lifecycle stage transition
// it's registered against at Info level (Warn for the six error stages),
// without touching the KeyValueStore. It exists so a host can get a plain
// audit trail of a run without writing its own Func, the way the
// default TASK_REGISTERED_ERROR hook exists so a host doesn't have to
// implement the fatal-on-missing-processor behavior itself.
func NewAuditLogHook(name string, commands, contexts []string, stages lifecycle.StageSet, logger logging.Logger) *Hook {
	logger = logging.OrNop(logger)
	fn := func(_ context.Context, args Args) (kvstore.Store, error) {
		taskID := "unknown"
		if args.Task != nil {
			taskID = args.Task.ID()
		}
		if args.Stage < 0 {
			logger.Warn("audit: task %q stage %d during command %q in context %q", taskID, args.Stage, args.Command, args.Context)
		} else {
			logger.Info("audit: task %q stage %d during command %q in context %q", taskID, args.Stage, args.Command, args.Context)
		}
		return args.Store, nil
	}
	return New(name, commands, contexts, stages, fn, logger)
}
