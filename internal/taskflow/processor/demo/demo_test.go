package demo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor/demo"
	"github.com/taskflowhq/taskflow/internal/taskflow/state/lrustate"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

func TestNoopProcessorReturnsStoreUnchanged(t *testing.T) {
	p := demo.NewNoopProcessor(nil)
	tsk := task.New("noop", "v1", nil, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "anchor"}},
	})

	kv := kvstore.New()
	kv.Save("seed", 1)

	result, err := p.ProcessTask(context.Background(), tsk, "apply", "default", kv, nil)
	require.NoError(t, err)
	v, ok := result.Get("seed")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestShellProcessorRunsCommandAndRecordsState(t *testing.T) {
	p := demo.NewShellProcessor(nil)
	tsk := task.New("shell", "v1", map[string]any{
		"command": "true",
	}, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})

	st, err := lrustate.New(4, nil)
	require.NoError(t, err)

	_, err = p.ProcessTask(context.Background(), tsk, "apply", "default", kvstore.New(), st)
	require.NoError(t, err)

	saved := st.GetObjectState("t1")
	require.NotNil(t, saved)
	assert.Equal(t, true, saved["success"])
}

func TestShellProcessorSkipsWhenAlreadyInDesiredState(t *testing.T) {
	p := demo.NewShellProcessor(nil)
	tsk := task.New("shell", "v1", map[string]any{
		"command": "false", // would fail if actually re-run
	}, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})

	st, err := lrustate.New(4, nil)
	require.NoError(t, err)
	st.SaveObjectState("t1", map[string]any{"success": true})

	_, err = p.ProcessTask(context.Background(), tsk, "apply", "default", kvstore.New(), st)
	require.NoError(t, err)
}

func TestShellProcessorMissingCommandErrors(t *testing.T) {
	p := demo.NewShellProcessor(nil)
	tsk := task.New("shell", "v1", map[string]any{}, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})

	st, err := lrustate.New(4, nil)
	require.NoError(t, err)

	_, err = p.ProcessTask(context.Background(), tsk, "apply", "default", kvstore.New(), st)
	assert.Error(t, err)
}
