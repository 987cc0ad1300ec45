// Package engine implements Tasks (spec section 4.3): the registry,
// dependency planner and lifecycle dispatcher that ties every other
// taskflow package together. It is grounded line-for-line on
// _examples/original_source/src/pytaskflow/models/Task.py's Tasks class
// (register_task_processor, add_task, find_task_by_name,
// get_task_by_task_id, find_tasks_matching_identifier_and_return_list_of_task_ids,
// calculate_current_task_order, _order_tasks, process_context) and
// structurally on alex/internal/app/toolregistry.Registry (mutex-guarded
// maps, a single constructor, wrapped sentinel errors instead of
// raised exceptions).
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
	"github.com/taskflowhq/taskflow/internal/taskflow/hook"
	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
	"github.com/taskflowhq/taskflow/internal/taskflow/taskerr"
)

// Engine is the embedding API's central type (the source's Tasks): a host
// registers TaskProcessors and Hooks against it, adds parsed Tasks, then
// drives one or more command/environment runs through ProcessContext.
//
// The mutex guards only the registry's own maps and its KeyValueStore
// reference; it is never held while a Hook or TaskProcessor callback runs,
// so a callback that reenters the engine (e.g. a hook calling
// FindTaskByName) cannot deadlock against the call that invoked it.
type Engine struct {
	mu sync.RWMutex

	logger logging.Logger
	hooks  *hook.Registry
	state  state.StatePersistence
	kv     kvstore.Store

	tasks map[string]task.Task
	order []string // task ids in AddTask insertion order

	processorsByExecutor map[string]processor.TaskProcessor
	processorsByVersion  map[string]string // "<kind>:<version>" -> executor id
}

// New constructs an Engine, reading through state's backing store and
// installing the default fatal TASK_REGISTERED_ERROR hook if hooks doesn't
// already carry one, mirroring Tasks.__init__.
func New(ctx context.Context, logger logging.Logger, kv kvstore.Store, hooks *hook.Registry, st state.StatePersistence) (*Engine, error) {
	logger = logging.OrNop(logger)
	if hooks == nil {
		hooks = hook.NewRegistry(logger)
	}

	e := &Engine{
		logger:               logger,
		hooks:                hooks,
		state:                st,
		kv:                   kv,
		tasks:                make(map[string]task.Task),
		processorsByExecutor: make(map[string]processor.TaskProcessor),
		processorsByVersion:  make(map[string]string),
	}

	if st != nil {
		if _, err := st.RetrieveAll(ctx); err != nil {
			return nil, fmt.Errorf("engine: failed to retrieve state from persistence: %w", err)
		}
	}

	e.installDefaultRegisteredErrorHook()
	return e, nil
}

func (e *Engine) installDefaultRegisteredErrorHook() {
	if e.hooks.AnyHookExists(hook.CommandNotApplicable, hook.ContextAll, lifecycle.TaskRegisteredError) {
		return
	}
	stages := lifecycle.NewStageSet(lifecycle.TaskRegisteredError)
	e.hooks.RegisterHook(hook.New(
		hook.DefaultRegisteredErrorHookName,
		[]string{hook.CommandNotApplicable},
		[]string{hook.ContextAll},
		stages,
		hook.AlwaysFailFunc,
		e.logger,
	))
}

// RegisterProcessor installs p under its executor id ("<kind>:<v1>:<v2>:..."),
// and indexes each of its versions to that executor id, mirroring
// register_task_processor.
func (e *Engine) RegisterProcessor(p processor.TaskProcessor) {
	e.mu.Lock()
	defer e.mu.Unlock()

	versions := p.Versions()
	executorID := processor.ExecutorID(p.Kind(), versions)
	e.processorsByExecutor[executorID] = p
	for _, v := range versions {
		e.processorsByVersion[processor.VersionKey(p.Kind(), v)] = executorID
	}
}

func (e *Engine) lookupProcessor(kind, version string) (processor.TaskProcessor, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	executorID, ok := e.processorsByVersion[processor.VersionKey(kind, version)]
	if !ok {
		return nil, false
	}
	p, ok := e.processorsByExecutor[executorID]
	return p, ok
}

// KVStore returns the engine's current KeyValueStore, mainly for host
// introspection (the status API reads this).
func (e *Engine) KVStore() kvstore.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.kv
}

func (e *Engine) getKV() kvstore.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.kv
}

func (e *Engine) setKV(kv kvstore.Store) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kv = kv
}

// AddTask registers t, rejecting a duplicate task id with ErrDuplicateTask.
// It emits TASK_PRE_REGISTER, then — if no processor is registered for
// t's (kind, version) — emits TASK_REGISTERED_ERROR, which by default is
// fatal (the installed default hook always fails); otherwise it stores t
// and emits TASK_REGISTERED. Every hook invocation sees a cloned KV store;
// the registry's own view is replaced by whatever the hook pipeline
// returns. Hooks run with the engine's lock released, so a hook that calls
// back into the engine (FindTaskByName, GetTaskByID) is safe.
func (e *Engine) AddTask(ctx context.Context, t task.Task) error {
	e.mu.Lock()
	if _, exists := e.tasks[t.ID()]; exists {
		e.mu.Unlock()
		return fmt.Errorf("%w: task id %q was already added previously; use metadata.identifiers[].type=ManifestName to distinguish separate (but perhaps similar) manifests", taskerr.ErrDuplicateTask, t.ID())
	}
	kv := e.kv.Clone()
	e.mu.Unlock()

	kv, err := e.hooks.ProcessHook(ctx, hook.CommandNotApplicable, hook.ContextAll, lifecycle.TaskPreRegister, kv, &t, t.ID(), nil)
	if err != nil {
		e.setKV(kv)
		return fmt.Errorf("engine: TASK_PRE_REGISTER hook failed for task %q: %w", t.ID(), err)
	}

	if _, ok := e.lookupProcessor(t.Kind(), t.Version()); !ok {
		extras := map[string]any{
			"ExceptionMessage": fmt.Sprintf(
				"task kind %q with version %q has no processor registered; ensure all task processors are registered before adding tasks",
				t.Kind(), t.Version(),
			),
		}
		kv, err = e.hooks.ProcessHook(ctx, hook.CommandNotApplicable, hook.ContextAll, lifecycle.TaskRegisteredError, kv, &t, "N/A", extras)
		if err != nil {
			e.setKV(kv)
			return fmt.Errorf("%w: %s", taskerr.ErrUnknownProcessor, err.Error())
		}
	}

	e.mu.Lock()
	e.tasks[t.ID()] = t
	e.order = append(e.order, t.ID())
	e.mu.Unlock()

	kv, err = e.hooks.ProcessHook(ctx, hook.CommandNotApplicable, hook.ContextAll, lifecycle.TaskRegistered, kv.Clone(), &t, t.ID(), nil)
	e.setKV(kv)
	if err != nil {
		return fmt.Errorf("engine: TASK_REGISTERED hook failed for task %q: %w", t.ID(), err)
	}
	return nil
}

// FindTaskByName linearly scans registered tasks for one matching name,
// skipping callingTaskID (non-empty) so a task cannot resolve itself as its
// own dependency during plan expansion.
func (e *Engine) FindTaskByName(name, callingTaskID string) (task.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, id := range e.order {
		if callingTaskID != "" && callingTaskID == id {
			continue
		}
		candidate := e.tasks[id]
		if candidate.MatchName(name) {
			return candidate, true
		}
	}
	return task.Task{}, false
}

// GetTaskByID returns the task registered under id, or ErrTaskNotFound.
func (e *Engine) GetTaskByID(id string) (task.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tasks[id]
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %q", taskerr.ErrTaskNotFound, id)
	}
	return t, nil
}

// FindTasksMatchingIdentifier returns the ids of every registered task
// whose MatchNameOrLabelIdentifier(id) is true, in registration order.
func (e *Engine) FindTasksMatchingIdentifier(id identifier.Identifier) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var found []string
	for _, taskID := range e.order {
		if e.tasks[taskID].MatchNameOrLabelIdentifier(id) {
			found = append(found, taskID)
		}
	}
	return found
}

// AllTaskIDs returns every registered task id in AddTask insertion order,
// for read-only introspection surfaces (statusapi) that need to list the
// full registry rather than a single command/environment's plan.
func (e *Engine) AllTaskIDs() []string {
	ids, _ := e.snapshot()
	return ids
}

// snapshot copies the registered task ids (insertion order) and the task
// map under a single read lock, so planning doesn't need to reacquire the
// engine's lock on every recursive step.
func (e *Engine) snapshot() ([]string, map[string]task.Task) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, len(e.order))
	copy(ids, e.order)
	tasks := make(map[string]task.Task, len(e.tasks))
	for k, v := range e.tasks {
		tasks[k] = v
	}
	return ids, tasks
}

// CalculateCurrentTaskOrder computes the dependency-ordered, scope-filtered
// plan for target: every registered task that qualifies is expanded
// depth-first via orderTasksWith, in registration order, then the combined
// result is de-duplicated preserving first occurrence, mirroring
// calculate_current_task_order plus the process_context-level
// dict.fromkeys(...) de-dup pass.
func (e *Engine) CalculateCurrentTaskOrder(target identifier.Identifier) ([]string, error) {
	ids, tasks := e.snapshot()

	var plan []string
	for _, id := range ids {
		t := tasks[id]
		e.logger.Debug("engine: calculate_current_task_order considering task %q", t.ID())
		if !t.QualifiesForProcessing(target) {
			continue
		}
		if containsString(plan, t.ID()) {
			continue
		}
		var err error
		plan, err = orderTasksWith(ids, tasks, plan, t, target)
		if err != nil {
			return nil, err
		}
	}
	return dedupeStrings(plan), nil
}

// orderTasksWith performs the depth-first dependency expansion described in
// spec section 4.3's _order_tasks, recursing into each dependency's own
// dependencies so transitive dependencies are correctly ordered (the
// canonical algorithm's documented requirement, beyond what the original
// non-recursive source implementation does). It operates purely over the
// snapshot passed in, taking no engine lock, so it is safe to call while
// planning outside of any hook/processor invocation.
func orderTasksWith(order []string, tasks map[string]task.Task, plan []string, candidate task.Task, target identifier.Identifier) ([]string, error) {
	newPlan := append([]string(nil), plan...)

	for _, dep := range candidate.Dependencies() {
		matchingIDs := findTasksMatchingIdentifierIn(order, tasks, dep)
		if dep.Type == identifier.TypeManifestName && len(matchingIDs) == 0 {
			return nil, fmt.Errorf("%w: dependant task %q required by %q, but not found", taskerr.ErrMissingDependency, dep.Key, candidate.ID())
		}

		for _, depID := range matchingIDs {
			if containsString(newPlan, depID) {
				continue
			}
			depTask, ok := tasks[depID]
			if !ok {
				return nil, fmt.Errorf("%w: %q", taskerr.ErrTaskNotFound, depID)
			}
			if !depTask.QualifiesForProcessing(target) {
				return nil, fmt.Errorf("%w: dependant task %q has task %q as dependency, but the dependant task is not in scope for processing - cannot proceed; either remove the task dependency or adjust the execution scope of the dependant task", taskerr.ErrOutOfScopeDependency, candidate.ID(), depID)
			}
			var err error
			newPlan, err = orderTasksWith(order, tasks, newPlan, depTask, target)
			if err != nil {
				return nil, err
			}
		}
	}

	if !containsString(newPlan, candidate.ID()) {
		newPlan = append(newPlan, candidate.ID())
	}
	return newPlan, nil
}

func findTasksMatchingIdentifierIn(order []string, tasks map[string]task.Task, id identifier.Identifier) []string {
	var found []string
	for _, taskID := range order {
		if t, ok := tasks[taskID]; ok && t.MatchNameOrLabelIdentifier(id) {
			found = append(found, taskID)
		}
	}
	return found
}

// ProcessContext computes the current plan for (command, environment) and
// drives every planned task through the fixed lifecycle: PRE_PROCESSING_START,
// the processor's PreProcessingCheck (soft-fails per spec section 7), PRE_
// PROCESSING_COMPLETED, PROCESSING_PRE_START, a StatePersistence flush, then
// PROCESSING_POST_DONE. A hook failure or planning error aborts the run and
// is returned to the caller; no further tasks are attempted, matching
// "exception propagates out of process_context".
func (e *Engine) ProcessContext(ctx context.Context, command, environment string) error {
	target := identifier.BuildCommandIdentifier(command, environment)

	order, err := e.CalculateCurrentTaskOrder(target)
	if err != nil {
		return fmt.Errorf("engine: failed to plan task order for command %q in context %q: %w", command, environment, err)
	}
	e.logger.Debug("engine: task_order=%v", order)

	for _, id := range order {
		t, err := e.GetTaskByID(id)
		if err != nil {
			continue
		}
		if err := e.runTask(ctx, t, id, command, environment); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runTask(ctx context.Context, t task.Task, id, command, environment string) error {
	kv, err := e.hooks.ProcessHook(ctx, command, environment, lifecycle.TaskPreProcessingStart, e.getKV().Clone(), &t, id, nil)
	e.setKV(kv)
	if err != nil {
		return fmt.Errorf("engine: TASK_PRE_PROCESSING_START hook failed for task %q: %w", id, err)
	}

	if p, ok := e.lookupProcessor(t.Kind(), t.Version()); ok {
		kv = processor.PreProcessingCheck(ctx, p, t, command, environment, e.getKV().Clone(), e.state, e.logger)
		e.setKV(kv)
	}
	// A task whose processor was never registered is skipped silently here;
	// AddTask already reported it via the default TASK_REGISTERED_ERROR hook.

	kv, err = e.hooks.ProcessHook(ctx, command, environment, lifecycle.TaskPreProcessingCompleted, e.getKV().Clone(), &t, id, nil)
	e.setKV(kv)
	if err != nil {
		return fmt.Errorf("engine: TASK_PRE_PROCESSING_COMPLETED hook failed for task %q: %w", id, err)
	}

	kv, err = e.hooks.ProcessHook(ctx, command, environment, lifecycle.TaskProcessingPreStart, e.getKV().Clone(), &t, id, nil)
	e.setKV(kv)
	if err != nil {
		return fmt.Errorf("engine: TASK_PROCESSING_PRE_START hook failed for task %q: %w", id, err)
	}

	if e.state != nil {
		if err := e.state.PersistAll(ctx); err != nil {
			return fmt.Errorf("engine: state persist_all_state failed during processing of task %q: %w", id, err)
		}
	}

	kv, err = e.hooks.ProcessHook(ctx, command, environment, lifecycle.TaskProcessingPostDone, e.getKV().Clone(), &t, id, nil)
	e.setKV(kv)
	if err != nil {
		return fmt.Errorf("engine: TASK_PROCESSING_POST_DONE hook failed for task %q: %w", id, err)
	}
	return nil
}

// ResetRunState removes every "PROCESSING_TASK:*:command:environment"
// memoization key for (command, environment) from the engine's KV store, so
// a subsequent ProcessContext call reprocesses every qualifying task. The
// source leaves run_id entries in place across calls; this is an additive
// convenience the source does not provide (spec section 9's open question
// on run_id reset), not a change to ProcessContext's default behavior.
func (e *Engine) ResetRunState(command, environment string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	suffix := fmt.Sprintf(":%s:%s", command, environment)
	cleared := kvstore.New()
	for _, k := range e.kv.Keys() {
		if hasRunIDSuffix(k, suffix) {
			continue
		}
		if v, ok := e.kv.Get(k); ok {
			cleared.Save(k, v)
		}
	}
	e.kv = cleared
}

func hasRunIDSuffix(key, suffix string) bool {
	const prefix = "PROCESSING_TASK:"
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		return false
	}
	if len(key) < len(suffix) {
		return false
	}
	return key[len(key)-len(suffix):] == suffix
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func dedupeStrings(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
