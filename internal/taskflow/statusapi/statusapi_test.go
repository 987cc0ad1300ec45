package statusapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow/internal/taskflow/engine"
	"github.com/taskflowhq/taskflow/internal/taskflow/kvstore"
	"github.com/taskflowhq/taskflow/internal/taskflow/processor"
	"github.com/taskflowhq/taskflow/internal/taskflow/state"
	"github.com/taskflowhq/taskflow/internal/taskflow/statusapi"
	"github.com/taskflowhq/taskflow/internal/taskflow/task"
)

type noopProcessor struct{}

func (noopProcessor) Kind() string               { return "P1" }
func (noopProcessor) Versions() []string          { return []string{"v1"} }
func (noopProcessor) SupportedCommands() []string { return processor.DefaultSupportedCommands }
func (noopProcessor) ProcessTask(_ context.Context, _ task.Task, _, _ string, kv kvstore.Store, _ state.StatePersistence) (kvstore.Store, error) {
	return kv, nil
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(context.Background(), nil, kvstore.New(), nil, nil)
	require.NoError(t, err)
	e.RegisterProcessor(noopProcessor{})

	t1 := task.New("P1", "v1", map[string]any{}, map[string]any{
		"identifiers": []any{map[string]any{"type": "ManifestName", "key": "t1"}},
	})
	require.NoError(t, e.AddTask(context.Background(), t1))
	return e
}

func TestHealthz(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsGeneratedWhenAbsent(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoedWhenProvided(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-id")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", rec.Header().Get("X-Request-Id"))
}

func TestPlanRequiresCommandAndEnvironment(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/plan", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanReturnsOrderedIDs(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/plan?command=apply&environment=default", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Plan []string `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"t1"}, body.Plan)
}

func TestTasksListsRegistry(t *testing.T) {
	e := newTestEngine(t)
	s := statusapi.New(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tasks []map[string]any `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "t1", body.Tasks[0]["id"])
}
