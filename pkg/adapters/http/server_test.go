package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/testutils"
	rewindhttp "github.com/aretw0/rewind/pkg/adapters/http"
	"github.com/aretw0/rewind/pkg/adapters/memory"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/observability"
	"github.com/aretw0/rewind/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...rewindhttp.Option) http.Handler {
	t.Helper()
	m := observability.NewMetrics()
	eng, err := rewind.New("",
		rewind.WithConfig(testutils.SampleConfig()),
		rewind.WithLifecycleHooks(m.Hooks()),
	)
	require.NoError(t, err)
	opts = append([]rewindhttp.Option{rewindhttp.WithMetrics(m.Handler())}, opts...)
	return rewindhttp.NewHandler(eng, session.NewManager(memory.NewStore(), eng), opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestTrajectoryLifecycle(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/trajectories/t-1", w.Header().Get("Location"))

	w = do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/trajectories/t-1/steps", `{"type":"EXECUTE","node":"TI-RADS","payload":{"state.tirads_score":"TR4"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, []any{"TI-RADS"}, body["executed_nodes"])
	assert.EqualValues(t, 1, body["steps"])
	diff := body["diff"].(map[string]any)
	assert.Equal(t, "TR4", diff["written"].(map[string]any)["state.tirads_score"])

	w = do(t, h, http.MethodPost, "/trajectories/t-1/steps", `{"action":{"type":"ROLLBACK","node":"TI-RADS"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["events"].([]any)[0], "SchemaError: ")
	assert.EqualValues(t, 2, body["steps"])

	w = do(t, h, http.MethodGet, "/trajectories/t-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	traj := decode(t, w)
	assert.Equal(t, []any{"TI-RADS"}, traj["executed_nodes"])

	w = do(t, h, http.MethodGet, "/trajectories", "")
	assert.Equal(t, []any{"t-1"}, decode(t, w)["trajectories"])

	w = do(t, h, http.MethodDelete, "/trajectories/t-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/trajectories/t-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTrajectory_GeneratedID(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/trajectories", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["id"])
}

// unavailableStore fails every read, as a store whose backend is down would.
type unavailableStore struct {
	*memory.Store
}

func (unavailableStore) Load(context.Context, string) (*domain.Trajectory, error) {
	return nil, errors.New("connection refused")
}

func TestCreateTrajectory_StoreFailure(t *testing.T) {
	eng, err := rewind.New("", rewind.WithConfig(testutils.SampleConfig()))
	require.NoError(t, err)
	h := rewindhttp.NewHandler(eng, session.NewManager(unavailableStore{memory.NewStore()}, eng))

	w := do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestStep_Errors(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodPost, "/trajectories/ghost/steps", `{"type":"GENERATE_REPORT"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	w = do(t, h, http.MethodPost, "/trajectories/t-1/steps", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadiness(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)

	w := do(t, h, http.MethodGet, "/trajectories/t-1/readiness", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["passed"])
	gates := body["gates"].([]any)
	require.Len(t, gates, 2)
	assert.Equal(t, "VIS_REPORT", gates[1].(map[string]any)["node"])
}

func TestPreviewRollback(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, http.MethodGet, "/rollback/TI-RADS?policy=aggregate_only", "")
	require.Equal(t, http.StatusOK, w.Code)
	scope := decode(t, w)
	assert.Equal(t, "aggregate_only", scope["policy"])
	assert.Equal(t, []any{"CONCLUSION", "TI-RADS", "VIS_REPORT"}, scope["nodes"])

	w = do(t, h, http.MethodGet, "/rollback/TI-RADS?policy=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphCheckAndSchema(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	do(t, h, http.MethodPost, "/trajectories/t-1/steps", `{"type":"EXECUTE","node":"INTAKE"}`)

	w := do(t, h, http.MethodGet, "/graph?trajectory=t-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph TD")
	assert.Contains(t, w.Body.String(), "class INTAKE executed;")

	w = do(t, h, http.MethodGet, "/graph?format=json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "registry")

	w = do(t, h, http.MethodGet, "/check", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["errors"])

	w = do(t, h, http.MethodGet, "/schemas/action", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://rewind.dev/schemas/action.schema.json")
}

func TestMetricsAndInfo(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/trajectories", `{"id":"t-1"}`)
	do(t, h, http.MethodPost, "/trajectories/t-1/steps", `{"type":"CLARIFY","slot":"size"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rewind_steps_total{action="CLARIFY",ok="true"} 1`)

	w = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rewind-http", decode(t, w)["app"])

	w = do(t, h, http.MethodOptions, "/trajectories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/trajectories", "application/json", strings.NewReader(`{"id":"t-1"}`))
	require.NoError(t, err)
	resp.Body.Close()

	sub, err := http.Get(srv.URL + "/trajectories/t-1/events")
	require.NoError(t, err)
	defer sub.Body.Close()
	assert.Equal(t, "text/event-stream", sub.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(sub.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor(t, lines, "data: connected")

	resp, err = http.Post(srv.URL+"/trajectories/t-1/steps", "application/json", strings.NewReader(`{"type":"CLARIFY","slot":"size"}`))
	require.NoError(t, err)
	resp.Body.Close()

	line := waitFor(t, lines, "data: {")
	assert.Contains(t, line, `"trajectory_id":"t-1"`)
	assert.Contains(t, line, `"_pending_slots"`)
}

func waitFor(t *testing.T, lines <-chan string, prefix string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}
