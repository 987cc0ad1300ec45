package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/taskflow/engine"
	"github.com/taskflowhq/taskflow/internal/taskflow/hook"
	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/lifecycle"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
	"github.com/taskflowhq/taskflow/internal/taskflow/taskerr"
)

// recordingProcessor counts invocations per task id so tests can assert
// exactly-once execution.
type recordingProcessor struct {
	kind    string
	version string
	calls   map[string]int
	fail    map[string]bool
}

func newRecordingProcessor(kind, version string) *recordingProcessor {
	return &recordingProcessor{kind: kind, version: version, calls: make(map[string]int), fail: make(map[string]bool)}
}

func (p *recordingProcessor) Kind() string               { return p.kind }
func (p *recordingProcessor) Versions() []string          { return []string{p.version} }
func (p *recordingProcessor) SupportedCommands() []string { return processor.DefaultSupportedCommands }

func (p *recordingProcessor) ProcessTask(_ context.Context, t task.Task, _, _ string, kv kvstore.Store, _ state.StatePersistence) (kvstore.Store, error) {
	p.calls[t.ID()]++
	if p.fail[t.ID()] {
		return kv, errors.New("processor exploded")
	}
	return kv, nil
}

func namedTask(kind, version, name string, dependsOn ...string) task.Task {
	var deps []any
	for _, d := range dependsOn {
		deps = append(deps, map[string]any{
			"identifierType": "ManifestName",
			"identifiers":    []any{map[string]any{"key": d}},
		})
	}
	metadata := map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": name}},
	}
	if len(deps) > 0 {
		metadata["dependencies"] = deps
	}
	return task.New(kind, version, map[string]any{}, metadata)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(context.Background(), nil, kvstore.New(), nil, nil)
	require.NoError(t, err)
	return e
}

// S1: single task happy path.
func TestScenarioSingleTaskHappyPath(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	t1 := namedTask("P1", "v1", "t1")
	require.NoError(t, e.AddTask(context.Background(), t1))

	require.NoError(t, e.ProcessContext(context.Background(), "apply", "default"))

	v, ok := e.KVStore().Get("PROCESSING_TASK:t1:apply:default")
	require.True(t, ok)
	assert.Equal(t, processor.RunStateDone, v)
	assert.Equal(t, 1, p.calls["t1"])
}

// S2: dependency ordering — t2 depends on t1, added in reverse order.
func TestScenarioDependencyOrdering(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	t2 := namedTask("P1", "v1", "t2", "t1")
	t1 := namedTask("P1", "v1", "t1")
	require.NoError(t, e.AddTask(context.Background(), t2))
	require.NoError(t, e.AddTask(context.Background(), t1))

	require.NoError(t, e.ProcessContext(context.Background(), "command2", "c1"))

	_, ok1 := e.KVStore().Get("PROCESSING_TASK:t1:command2:c1")
	_, ok2 := e.KVStore().Get("PROCESSING_TASK:t2:command2:c1")
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, 1, p.calls["t1"])
	assert.Equal(t, 1, p.calls["t2"])
}

// S3: missing dependency is fatal.
func TestScenarioMissingDependencyIsFatal(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	t2 := namedTask("P1", "v1", "t2", "t1")
	require.NoError(t, e.AddTask(context.Background(), t2))

	err := e.ProcessContext(context.Background(), "apply", "default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, taskerr.ErrMissingDependency))

	_, ok := e.KVStore().Get("PROCESSING_TASK:t2:apply:default")
	assert.False(t, ok)
}

// S4: scope exclusion via INCLUDE restricting to a different environment.
func TestScenarioScopeExclusion(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	metadata := map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
		"contextualIdentifiers": []any{
			map[string]any{
				"type": "ExecutionScope",
				"key":  "INCLUDE",
				"contexts": []any{
					map[string]any{"type": "Environment", "names": []any{"c2"}},
				},
			},
		},
	}
	t1 := task.New("P1", "v1", map[string]any{}, metadata)
	require.NoError(t, e.AddTask(context.Background(), t1))

	require.NoError(t, e.ProcessContext(context.Background(), "apply", "c1"))
	assert.Equal(t, 0, p.calls["t1"], "task scoped to c2 must not run under c1")

	order, err := e.CalculateCurrentTaskOrder(identifier.BuildCommandIdentifier("apply", "c1"))
	require.NoError(t, err)
	assert.Empty(t, order)
}

// S5: duplicate add by ManifestName is rejected.
func TestScenarioDuplicateAddIsRejected(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	t1a := namedTask("P1", "v1", "t1")
	t1b := namedTask("P1", "v1", "t1")
	require.NoError(t, e.AddTask(context.Background(), t1a))

	err := e.AddTask(context.Background(), t1b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, taskerr.ErrDuplicateTask))
}

// S6: processor failure is soft — the run is marked failed but a sibling
// task with no dependency on it still runs.
func TestScenarioProcessorFailureIsSoft(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	p.fail["t1"] = true
	e.RegisterProcessor(p)

	t1 := namedTask("P1", "v1", "t1")
	t2 := namedTask("P1", "v1", "t2")
	require.NoError(t, e.AddTask(context.Background(), t1))
	require.NoError(t, e.AddTask(context.Background(), t2))

	require.NoError(t, e.ProcessContext(context.Background(), "cmd", "ctx"))

	v, ok := e.KVStore().Get("PROCESSING_TASK:t1:cmd:ctx")
	require.True(t, ok)
	assert.Equal(t, processor.RunStateFailed, v)

	v2, ok2 := e.KVStore().Get("PROCESSING_TASK:t2:cmd:ctx")
	require.True(t, ok2)
	assert.Equal(t, processor.RunStateDone, v2)
}

// Invariant: an unregistered processor kind triggers the default fatal
// TASK_REGISTERED_ERROR hook during AddTask.
func TestAddTaskFailsFastWithoutRegisteredProcessor(t *testing.T) {
	e := newEngine(t)
	t1 := namedTask("Unregistered", "v1", "t1")

	err := e.AddTask(context.Background(), t1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, taskerr.ErrUnknownProcessor))
}

// Invariant: process_context with no tasks registered is a no-op.
func TestProcessContextNoopOnEmptyRegistry(t *testing.T) {
	e := newEngine(t)
	assert.NoError(t, e.ProcessContext(context.Background(), "apply", "default"))
}

// Invariant: a custom hook can override the default error behavior by
// registering its own TASK_REGISTERED_ERROR handler before any task is
// added.
func TestCustomRegisteredErrorHookOverridesDefault(t *testing.T) {
	hooks := hook.NewRegistry(nil)
	stages := lifecycle.NewStageSet(lifecycle.TaskRegisteredError)
	var sawExtras map[string]any
	hooks.RegisterHook(hook.New("custom", []string{hook.CommandNotApplicable}, []string{hook.ContextAll}, stages,
		func(_ context.Context, args hook.Args) (kvstore.Store, error) {
			sawExtras = args.Extras
			return args.Store, nil
		}, nil))

	e, err := engine.New(context.Background(), nil, kvstore.New(), hooks, nil)
	require.NoError(t, err)

	t1 := namedTask("Unregistered", "v1", "t1")
	require.NoError(t, e.AddTask(context.Background(), t1))
	require.NotNil(t, sawExtras)
}

// Invariant: plan contains no duplicate ids even with a diamond dependency.
func TestPlanHasNoDuplicateIdsUnderDiamondDependency(t *testing.T) {
	e := newEngine(t)
	p := newRecordingProcessor("P1", "v1")
	e.RegisterProcessor(p)

	base := namedTask("P1", "v1", "base")
	left := namedTask("P1", "v1", "left", "base")
	right := namedTask("P1", "v1", "right", "base")
	top := namedTask("P1", "v1", "top", "left", "right")

	for _, tsk := range []task.Task{top, left, right, base} {
		require.NoError(t, e.AddTask(context.Background(), tsk))
	}

	order, err := e.CalculateCurrentTaskOrder(identifier.BuildCommandIdentifier("apply", "default"))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, id := range order {
		assert.False(t, seen[id], "duplicate id %q in plan", id)
		seen[id] = true
	}
	assert.Equal(t, []string{"base", "left", "right", "top"}, order)
}
