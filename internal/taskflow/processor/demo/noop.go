package demo

import (
	"context"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

// NoopProcessor is registered for manifests that exist purely to be ordered
// and observed by hooks — a dependency anchor, a label carrier, a
// documentation-only entry in a manifest set.
type NoopProcessor struct {
	logger logging.Logger
}

// NewNoopProcessor builds a NoopProcessor. logger may be nil.
func NewNoopProcessor(logger logging.Logger) *NoopProcessor {
	return &NoopProcessor{logger: logging.OrNop(logger)}
}

func (p *NoopProcessor) Kind() string               { return "noop" }
func (p *NoopProcessor) Versions() []string          { return []string{"v1"} }
func (p *NoopProcessor) SupportedCommands() []string { return processor.DefaultSupportedCommands }

// ProcessTask does nothing beyond logging; it exists so a manifest can
// declare a task without needing any processor body.
func (p *NoopProcessor) ProcessTask(_ context.Context, t task.Task, command, environment string, kv kvstore.Store, _ state.StatePersistence) (kvstore.Store, error) {
	p.logger.Debug("noop: task %q processed for command %q in context %q", t.ID(), command, environment)
	return kv, nil
}
