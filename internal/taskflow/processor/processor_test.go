package processor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/state/lrustate"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

type fakeProcessor struct {
	calls int
	fail  bool
}

func (p *fakeProcessor) Kind() string               { return "Stub" }
func (p *fakeProcessor) Versions() []string          { return []string{"v1"} }
func (p *fakeProcessor) SupportedCommands() []string { return processor.DefaultSupportedCommands }

func (p *fakeProcessor) ProcessTask(_ context.Context, _ task.Task, _, _ string, kv kvstore.Store, _ state.StatePersistence) (kvstore.Store, error) {
	p.calls++
	if p.fail {
		return kv, errors.New("boom")
	}
	kv.Save("touched", true)
	return kv, nil
}

func TestExecutorIDAndVersionKey(t *testing.T) {
	assert.Equal(t, "Shell:v1:v2", processor.ExecutorID("Shell", []string{"v1", "v2"}))
	assert.Equal(t, "Shell:v1", processor.VersionKey("Shell", "v1"))
}

func TestRunIDKeyFormat(t *testing.T) {
	assert.Equal(t, "PROCESSING_TASK:t1:apply:default", processor.RunIDKey("t1", "apply", "default"))
}

func TestPreProcessingCheckRunsOnceThenSkips(t *testing.T) {
	st, err := lrustate.New(4, nil)
	require.NoError(t, err)

	tsk := task.New("Stub", "v1", map[string]any{"f": 1}, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})

	fp := &fakeProcessor{}
	kv := kvstore.New()
	kv = processor.PreProcessingCheck(context.Background(), fp, tsk, "apply", "default", kv, st, nil)
	assert.Equal(t, 1, fp.calls)
	v, ok := kv.Get(processor.RunIDKey(tsk.ID(), "apply", "default"))
	require.True(t, ok)
	assert.Equal(t, processor.RunStateDone, v)

	kv = processor.PreProcessingCheck(context.Background(), fp, tsk, "apply", "default", kv, st, nil)
	assert.Equal(t, 1, fp.calls, "a second check must not re-invoke ProcessTask")
}

func TestPreProcessingCheckMarksFailedOnError(t *testing.T) {
	st, err := lrustate.New(4, nil)
	require.NoError(t, err)

	tsk := task.New("Stub", "v1", nil, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})

	fp := &fakeProcessor{fail: true}
	kv := processor.PreProcessingCheck(context.Background(), fp, tsk, "apply", "default", kvstore.New(), st, nil)
	v, ok := kv.Get(processor.RunIDKey(tsk.ID(), "apply", "default"))
	require.True(t, ok)
	assert.Equal(t, processor.RunStateFailed, v)
}
