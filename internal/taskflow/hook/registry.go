package hook

import (
	"context"
	"sync"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

// Registry indexes registered Hooks by context -> command -> name -> stages
// and dispatches ProcessHook calls to every matching hook in registration
// order, mirroring the source's Hooks class and the mutex-guarded dispatch
// pattern of alex/internal/app/agent/hooks.Registry.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]*Hook
	index     map[string]map[string]map[string]lifecycle.StageSet // context -> command -> name -> stages
	order     []string                                             // names in registration order, for stable dispatch
	logger    logging.Logger
}

// NewRegistry returns an empty hook registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*Hook),
		index:  make(map[string]map[string]map[string]lifecycle.StageSet),
		logger: logging.OrNop(logger),
	}
}

// RegisterHook cross-inserts h for every (context, command, stage) triple it
// declares. Re-registering a hook under the same name is a no-op for the
// name->Hook binding (first registration wins), matching the source's
// hook_registrar semantics, but still expands the index for any new
// (context, command, stage) triples the call adds.
func (r *Registry) RegisterHook(h *Hook) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[h.Name]; !exists {
		r.byName[h.Name] = h
		r.order = append(r.order, h.Name)
	}

	for _, ctxName := range h.Contexts {
		if r.index[ctxName] == nil {
			r.index[ctxName] = make(map[string]map[string]lifecycle.StageSet)
		}
		for _, cmd := range h.Commands {
			if r.index[ctxName][cmd] == nil {
				r.index[ctxName][cmd] = make(map[string]lifecycle.StageSet)
			}
			stages := r.index[ctxName][cmd][h.Name]
			for _, stage := range h.Stages.All() {
				stages.Register(stage)
			}
			r.index[ctxName][cmd][h.Name] = stages
		}
	}
}

// ProcessHook dispatches to every hook registered for (command, environment)
// whose stage set contains stage, in registration order, threading the
// (possibly replaced) store through each invocation.
func (r *Registry) ProcessHook(ctx context.Context, command, environment string, stage lifecycle.Stage, store kvstore.Store, tsk *task.Task, taskID string, extras map[string]any) (kvstore.Store, error) {
	r.mu.RLock()
	byCommand, ok := r.index[environment]
	var names []string
	var stageSets map[string]lifecycle.StageSet
	if ok {
		if stageSets, ok = byCommand[command]; ok {
			names = append(names, r.order...)
		}
	}
	hooksByName := make(map[string]*Hook, len(r.byName))
	for k, v := range r.byName {
		hooksByName[k] = v
	}
	r.mu.RUnlock()

	for _, name := range names {
		stages, ok := stageSets[name]
		if !ok || !stages.Has(stage) {
			continue
		}
		h, ok := hooksByName[name]
		if !ok {
			continue
		}
		var err error
		store, err = h.Process(ctx, command, environment, stage, store, tsk, taskID, extras)
		if err != nil {
			return store, err
		}
	}
	return store, nil
}

// AnyHookExists reports whether at least one hook is registered for
// (command, environment, stage), used to decide whether to install the
// default TASK_REGISTERED_ERROR hook.
func (r *Registry) AnyHookExists(command, environment string, stage lifecycle.Stage) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCommand, ok := r.index[environment]
	if !ok {
		return false
	}
	stageSets, ok := byCommand[command]
	if !ok {
		return false
	}
	for _, stages := range stageSets {
		if stages.Has(stage) {
			return true
		}
	}
	return false
}
