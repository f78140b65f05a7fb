package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-character-pipeline/internal/model"
	"go-character-pipeline/internal/store"
)

func initTestStore(t *testing.T) {
	t.Helper()
	require.NoError(t, store.InitDB(filepath.Join(t.TempDir(), "pipeline.db")))
}

func charactersServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(charactersPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCompletesPipeline(t *testing.T) {
	initTestStore(t)
	api := charactersServer(t)
	redisSrv := miniredis.RunT(t)

	spec := model.RunSpec{
		Endpoint: api.URL,
		CacheKey: "test:characters",
		Redis:    model.Redis{Addr: redisSrv.Addr()},
	}
	runID := "run-completes"
	require.NoError(t, store.SaveRun(runID, spec))

	chartPath := filepath.Join(t.TempDir(), "status_distribution.png")
	require.NoError(t, Run(context.Background(), runID, spec, chartPath))

	// Snapshot written under the configured key
	cache, err := ConnectCache(context.Background(), redisSrv.Addr())
	require.NoError(t, err)
	defer cache.Close()

	cached, ok, err := cache.Load(context.Background(), "test:characters")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cached, 3)
	assert.Equal(t, "Rick Sanchez", cached[0].Name)

	// Chart rendered
	assert.FileExists(t, chartPath)

	// Run completed and its distribution persisted
	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])

	dist, err := store.GetStatusCounts(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alive", "Dead"}, dist.Statuses)
	assert.Equal(t, 3, dist.Total())
}

func TestRunFailsWhenSourceErrors(t *testing.T) {
	initTestStore(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer api.Close()
	redisSrv := miniredis.RunT(t)

	spec := model.RunSpec{
		Endpoint: api.URL,
		CacheKey: "test:characters",
		Redis:    model.Redis{Addr: redisSrv.Addr()},
	}
	runID := "run-source-fails"
	require.NoError(t, store.SaveRun(runID, spec))

	err := Run(context.Background(), runID, spec, filepath.Join(t.TempDir(), "chart.png"))
	require.Error(t, err)

	var httpErr *HTTPError
	assert.True(t, errors.As(err, &httpErr))

	// Nothing cached, run marked failed with the error recorded
	assert.False(t, redisSrv.Exists("test:characters"))

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "failed", run["status"])

	runErrors, err := store.GetRunErrors(runID)
	require.NoError(t, err)
	require.Len(t, runErrors, 1)
	assert.Contains(t, runErrors[0]["message"], "fetch stage failed")
}

func TestRunFailsWhenCacheUnreachable(t *testing.T) {
	initTestStore(t)
	api := charactersServer(t)

	redisSrv := miniredis.RunT(t)
	addr := redisSrv.Addr()
	redisSrv.Close()

	spec := model.RunSpec{
		Endpoint: api.URL,
		CacheKey: "test:characters",
		Redis:    model.Redis{Addr: addr},
	}
	runID := "run-cache-down"
	require.NoError(t, store.SaveRun(runID, spec))

	chartPath := filepath.Join(t.TempDir(), "status_distribution.png")
	err := Run(context.Background(), runID, spec, chartPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCacheUnavailable))

	// Report stage never ran
	assert.NoFileExists(t, chartPath)

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "failed", run["status"])
}
