package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-character-pipeline/internal/api"
	"go-character-pipeline/internal/api/handler"
	"go-character-pipeline/internal/model"
	"go-character-pipeline/internal/store"
	"go-character-pipeline/pkg/router"
)

const charactersPage = `{
	"results": [
		{"name": "Rick Sanchez", "status": "Alive", "species": "Human"},
		{"name": "Morty Smith", "status": "Alive", "species": "Human"},
		{"name": "Birdperson", "status": "Dead", "species": "Alien"}
	]
}`

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	require.NoError(t, store.InitDB(filepath.Join(t.TempDir(), "pipeline.db")))
	handler.SetOutputDir(t.TempDir())

	r := router.New()
	api.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestCreateRunRejectsInvalidPayload(t *testing.T) {
	srv := newTestAPI(t)

	// Missing endpoint and cache key
	resp := postJSON(t, srv.URL+"/api/v1/runs", map[string]interface{}{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Endpoint is not a URL
	resp = postJSON(t, srv.URL+"/api/v1/runs", model.RunSpec{
		Endpoint: "not-a-url",
		CacheKey: "test:characters",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRunExecutesPipeline(t *testing.T) {
	srv := newTestAPI(t)
	redisSrv := miniredis.RunT(t)

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(charactersPage))
	}))
	defer source.Close()

	resp := postJSON(t, srv.URL+"/api/v1/runs", model.RunSpec{
		Endpoint: source.URL,
		CacheKey: "test:characters",
		Redis:    model.Redis{Addr: redisSrv.Addr()},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	runID, ok := body["runID"].(string)
	require.True(t, ok)
	require.NotEmpty(t, runID)

	// The run executes in the background
	require.Eventually(t, func() bool {
		run, err := store.GetRun(runID)
		return err == nil && run["status"] == "completed"
	}, 5*time.Second, 50*time.Millisecond)

	assert.True(t, redisSrv.Exists("test:characters"))

	// Report and chart become available once the run completes
	reportResp, err := http.Get(srv.URL + "/api/v1/runs/" + runID + "/report")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)
	report := decodeBody(t, reportResp)
	assert.Equal(t, float64(3), report["total"])
	chartSize, ok := report["chart_size"].(float64)
	require.True(t, ok, "report should include the chart size once rendered")
	assert.Greater(t, chartSize, float64(0))

	chartResp, err := http.Get(srv.URL + "/api/v1/runs/" + runID + "/chart")
	require.NoError(t, err)
	defer chartResp.Body.Close()
	assert.Equal(t, http.StatusOK, chartResp.StatusCode)
	assert.Equal(t, "image/png", chartResp.Header.Get("Content-Type"))
}

func TestListRunsAndGetRun(t *testing.T) {
	srv := newTestAPI(t)

	spec := model.RunSpec{
		Endpoint: "http://example.com/api/character",
		CacheKey: "test:characters",
	}
	require.NoError(t, store.SaveRun("run-1", spec))

	resp, err := http.Get(srv.URL + "/api/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0]["id"])

	runResp, err := http.Get(srv.URL + "/api/v1/runs/run-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, runResp.StatusCode)
	run := decodeBody(t, runResp)
	assert.Equal(t, "pending", run["status"])
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/v1/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRunChartNotRendered(t *testing.T) {
	srv := newTestAPI(t)

	spec := model.RunSpec{
		Endpoint: "http://example.com/api/character",
		CacheKey: "test:characters",
	}
	require.NoError(t, store.SaveRun("run-1", spec))

	resp, err := http.Get(srv.URL + "/api/v1/runs/run-1/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
