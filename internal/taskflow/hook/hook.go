// Package hook implements the Hook/Hooks contract of spec section 4.5: user
// callbacks registered against (command, context, stage) triples that the
// engine invokes at every lifecycle milestone, each seeing (and able to
// replace) the dispatcher's KeyValueStore. It is a direct port of
// _examples/original_source's Hook/Hooks, restructured with the
// mutex-guarded registration and stable-order dispatch of
// alex/internal/app/agent/hooks.Registry.
package hook

import (
	"context"
	"fmt"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
	"github.com/taskflowhq/taskflow/internal/taskflow/taskerr"
)

// CommandNotApplicable and ContextAll are the two reserved wildcards used
// by dispatcher-synthesized events that are not tied to a user command
// (pre-register/registered/error) or a user context.
const (
	CommandNotApplicable = "NOT_APPLICABLE"
	ContextAll           = "ALL"
)

// Args bundles the parameters passed to a Func.
type Args struct {
	HookName string
	Task     *task.Task
	Store    kvstore.Store
	Command  string
	Context  string
	Stage    lifecycle.Stage
	Extras   map[string]any
	Logger   logging.Logger
}

// Func is the signature every Hook implementation provides. The returned
// Store replaces the dispatcher's view; returning a non-nil error is fatal
// to the enclosing ProcessContext call.
type Func func(ctx context.Context, args Args) (kvstore.Store, error)

// Hook holds a registered callback and the (command, context, stage)
// triples it applies to.
type Hook struct {
	Name     string
	Commands []string
	Contexts []string
	Stages   lifecycle.StageSet
	Fn       Func
	logger   logging.Logger
}

// New builds a Hook. logger may be nil.
func New(name string, commands, contexts []string, stages lifecycle.StageSet, fn Func, logger logging.Logger) *Hook {
	return &Hook{
		Name:     name,
		Commands: commands,
		Contexts: contexts,
		Stages:   stages,
		Fn:       fn,
		logger:   logging.OrNop(logger),
	}
}

// Process invokes h's function if (command, context, stage) matches its
// registration, returning the (possibly replaced) store. A non-matching
// triple is a no-op that returns store unchanged, satisfying the invariant
// that a non-matching hook never modifies the KV store.
func (h *Hook) Process(ctx context.Context, command, environment string, stage lifecycle.Stage, store kvstore.Store, tsk *task.Task, taskID string, extras map[string]any) (kvstore.Store, error) {
	if !contains(h.Commands, command) || !contains(h.Contexts, environment) || !h.Stages.Has(stage) {
		return store, nil
	}

	h.logger.Debug("Hook %q executed on stage %d for task %q for command %q in context %q", h.Name, stage, taskID, command, environment)

	result, err := h.Fn(ctx, Args{
		HookName: h.Name,
		Task:     tsk,
		Store:    store,
		Command:  command,
		Context:  environment,
		Stage:    stage,
		Extras:   extras,
		Logger:   h.logger,
	})
	if err != nil {
		message := fmt.Sprintf("hook %q failed to execute during command %q in context %q in task life cycle stage %d", h.Name, command, environment, stage)
		h.logger.Error(message)
		return store, fmt.Errorf("%w: %s: %w", taskerr.ErrHookFailed, message, err)
	}
	// Unlike the Python source (where a hook may return None to mean "no
	// change"), Go's Func always returns the Store it wants the dispatcher
	// to adopt; a well-behaved hook that doesn't mutate the store simply
	// returns the Args.Store it was given.
	return result, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
