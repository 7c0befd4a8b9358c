package databricks

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbridge/internal/config"
	"workbridge/internal/notebook"
	"workbridge/internal/tools"
)

// fakeWorkspace is a minimal in-memory Databricks API. Tests point a Service
// at it and assert on both responses and which endpoints were hit.
type fakeWorkspace struct {
	t *testing.T

	notebooks map[string]string // path -> source content
	clusters  []ClusterInfo
	runState  RunState
	runOutput runOutputResponse

	importCalls int
	getRunCalls int
}

func (f *fakeWorkspace) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/2.0/workspace/export", func(w http.ResponseWriter, r *http.Request) {
		content, ok := f.notebooks[r.URL.Query().Get("path")]
		if !ok {
			http.Error(w, `{"error_code":"RESOURCE_DOES_NOT_EXIST"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, workspaceExportResponse{
			Content: base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})
	mux.HandleFunc("/api/2.0/workspace/import", func(w http.ResponseWriter, r *http.Request) {
		f.importCalls++
		var req workspaceImportRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		require.NoError(f.t, err)
		f.notebooks[req.Path] = string(decoded)
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("/api/2.0/workspace/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"objects": []map[string]any{
				{"path": "/a", "object_type": "NOTEBOOK", "language": "PYTHON"},
				{"path": "/b", "object_type": "NOTEBOOK", "language": "PYTHON"},
				{"path": "/dir", "object_type": "DIRECTORY"},
			},
		})
	})

	mux.HandleFunc("/api/2.1/jobs/runs/get", func(w http.ResponseWriter, r *http.Request) {
		f.getRunCalls++
		writeJSON(w, map[string]any{"run_id": 42, "job_id": 7, "state": f.runState})
	})
	mux.HandleFunc("/api/2.1/jobs/runs/get-output", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, f.runOutput)
	})
	mux.HandleFunc("/api/2.1/jobs/runs/submit", func(w http.ResponseWriter, r *http.Request) {
		var req submitRunRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(f.t, req.Tasks, 1)
		assert.Equal(f.t, serverlessEnvKey, req.Tasks[0].EnvironmentKey)
		require.Len(f.t, req.Environments, 1)
		assert.Equal(f.t, "2", req.Environments[0].Spec.EnvironmentVersion)
		writeJSON(w, runIDResponse{RunID: 42})
	})

	mux.HandleFunc("/api/2.1/clusters/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, clustersListResponse{Clusters: f.clusters})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.t.Errorf("unexpected API call: %s %s", r.Method, r.URL.Path)
		http.Error(w, "unexpected call", http.StatusInternalServerError)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestService(t *testing.T, f *fakeWorkspace) *Service {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "test-token", nil)
	return NewService(client, nil, nil)
}

func threeCellNotebook() string {
	return notebook.Reconstruct([]string{"print(1)", "print(2)", "print(3)"})
}

func TestReadNotebook_Pagination(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)

	raw, err := svc.executeReadNotebook(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"cell_offset":   float64(1),
		"cell_limit":    float64(1),
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, 3, result["total_cells"])
	assert.Equal(t, []string{"print(2)"}, result["cells"])
	assert.Equal(t, true, result["has_more"])
	assert.Equal(t, 2, result["next_offset"])
}

func TestReadNotebook_LastPageHasNoMore(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)

	raw, err := svc.executeReadNotebook(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"cell_offset":   float64(2),
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, 1, result["cells_returned"])
	assert.NotContains(t, result, "has_more")
	assert.NotContains(t, result, "next_offset")
}

func TestUpdateNotebookCell_SingleEdit(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)

	raw, err := svc.executeUpdateNotebookCell(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"cell_index":    float64(1),
		"new_content":   "print('edited')",
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, []int{1}, result["updated_cells"])
	assert.Equal(t, []string{"print(1)", "print('edited')", "print(3)"},
		notebook.Parse(f.notebooks["/nb"]))
}

func TestUpdateNotebookCell_FailedBatchWritesNothing(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)
	before := f.notebooks["/nb"]

	// Second edit is out of bounds; the valid first edit must not land.
	_, err := svc.executeUpdateNotebookCell(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"updates": []any{
			map[string]any{"index": float64(0), "content": "print('new')"},
			map[string]any{"index": float64(9), "content": "print('oob')"},
		},
	})
	require.Error(t, err)
	assert.True(t, tools.IsValidation(err))
	assert.Contains(t, err.Error(), "out of bounds")

	assert.Equal(t, 0, f.importCalls, "no write may happen after a failed batch")
	assert.Equal(t, before, f.notebooks["/nb"])
}

func TestUpdateNotebookCell_SeparatorInjectionRejected(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)

	_, err := svc.executeUpdateNotebookCell(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"cell_index":    float64(0),
		"new_content":   "x = 1\n# COMMAND ----------\ny = 2",
	})
	require.Error(t, err)
	assert.True(t, tools.IsValidation(err))
	assert.Equal(t, 0, f.importCalls)
}

func TestUpdateNotebookCell_SingleAndBatchAreExclusive(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{"/nb": threeCellNotebook()}}
	svc := newTestService(t, f)

	_, err := svc.executeUpdateNotebookCell(context.Background(), map[string]any{
		"notebook_path": "/nb",
		"cell_index":    float64(0),
		"new_content":   "x",
		"updates": []any{
			map[string]any{"index": float64(1), "content": "y"},
		},
	})
	require.Error(t, err)
	assert.True(t, tools.IsValidation(err), "mixing forms is a caller error")
	assert.Equal(t, 0, f.importCalls, "no upstream write on rejected input")

	_, err = svc.executeUpdateNotebookCell(context.Background(), map[string]any{
		"notebook_path": "/nb",
	})
	require.Error(t, err)
	assert.True(t, tools.IsValidation(err), "neither form is also a caller error")
}

func TestListNotebooks_Windowing(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{}}
	svc := newTestService(t, f)

	raw, err := svc.executeListNotebooks(context.Background(), map[string]any{
		"path":  "/",
		"limit": float64(2),
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, 3, result["total_count"])
	assert.Equal(t, 2, result["returned_count"])
	assert.Equal(t, true, result["has_more"])
	assert.Equal(t, 2, result["next_offset"])
}

func TestListClusters_FilterNarrowsUniverse(t *testing.T) {
	f := &fakeWorkspace{
		notebooks: map[string]string{},
		clusters: []ClusterInfo{
			{ClusterID: "c1", ClusterName: "one", State: "RUNNING"},
			{ClusterID: "c2", ClusterName: "two", State: "TERMINATED"},
			{ClusterID: "c3", ClusterName: "three", State: "RUNNING"},
		},
	}
	svc := newTestService(t, f)

	raw, err := svc.executeListClusters(context.Background(), map[string]any{
		"filter_by": "running",
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, 2, result["total_matched"], "total counts the filtered set")
	assert.Equal(t, 2, result["returned"])
	assert.NotContains(t, result, "has_more")
}

func TestListClusters_RejectsUnknownFilter(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{}}
	svc := newTestService(t, f)

	_, err := svc.executeListClusters(context.Background(), map[string]any{
		"filter_by": "broken",
	})
	require.Error(t, err)
	assert.True(t, tools.IsValidation(err))
}

func TestGetRunOutput_BoundsLogsAndTrace(t *testing.T) {
	f := &fakeWorkspace{
		notebooks: map[string]string{},
		runState:  RunState{LifeCycleState: "TERMINATED", ResultState: "SUCCESS"},
		runOutput: runOutputResponse{
			Logs: strings.Repeat("l", config.DefaultLimits().MaxLogSize+500),
		},
	}
	svc := newTestService(t, f)

	raw, err := svc.executeGetRunOutput(context.Background(), map[string]any{
		"run_id": float64(42),
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.Equal(t, "TERMINATED", result["state"])
	assert.Equal(t, "SUCCESS", result["result_state"])
	assert.Equal(t, true, result["logs_truncated"])
	assert.Equal(t, config.DefaultLimits().MaxLogSize+500, result["logs_total_size"])
}

func TestGetRunLogs_OffsetChunking(t *testing.T) {
	f := &fakeWorkspace{
		notebooks: map[string]string{},
		runOutput: runOutputResponse{Logs: "0123456789"},
	}
	svc := newTestService(t, f)

	raw, err := svc.executeGetRunLogs(context.Background(), map[string]any{
		"run_id":   float64(42),
		"offset":   float64(4),
		"max_size": float64(3),
	})
	require.NoError(t, err)
	result := raw.(map[string]any)

	assert.True(t, strings.HasPrefix(result["logs"].(string), "456"))
	assert.Equal(t, true, result["logs_truncated_by_limit"])
	assert.Equal(t, 10, result["logs_total_size"])
	assert.Equal(t, 7, result["next_offset"])
}

func TestUpstreamErrorPropagates(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{}}
	svc := newTestService(t, f)

	_, err := svc.executeReadNotebook(context.Background(), map[string]any{
		"notebook_path": "/missing",
	})
	require.Error(t, err)
	assert.True(t, tools.IsUpstream(err))
}

func TestRunNotebook_SubmitsServerlessRun(t *testing.T) {
	f := &fakeWorkspace{notebooks: map[string]string{}}
	svc := newTestService(t, f)

	raw, err := svc.executeRunNotebook(context.Background(), map[string]any{
		"notebook_path": "/jobs/etl",
		"parameters":    map[string]any{"date": "2026-08-23"},
	})
	require.NoError(t, err)
	result := raw.(map[string]any)
	assert.Equal(t, int64(42), result["run_id"])
}

func TestRegisterAll(t *testing.T) {
	svc := NewService(NewClient("https://example", "tok", nil), nil, nil)
	reg := tools.NewRegistry(nil)
	require.NoError(t, svc.RegisterAll(reg))
	assert.Equal(t, 22, reg.Count())
	assert.NotNil(t, reg.Get("databricks_update_notebook_cell"))
	assert.NotNil(t, reg.Get("databricks_execute_cell"))
}
