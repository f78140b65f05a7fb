package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"go-character-pipeline/internal/model"
	"go-character-pipeline/internal/pipeline"
	"go-character-pipeline/internal/store"
	"go-character-pipeline/pkg/utils"
)

var (
	validate = validator.New()
	outputs  = utils.NewOutputManager("outputs")
)

// SetOutputDir points run artifacts at a different base directory.
func SetOutputDir(dir string) {
	outputs = utils.NewOutputManager(dir)
}

// CreateRun creates a new character pipeline run
// @Summary Create a new run
// @Description Create and start a new character pipeline run with the provided configuration
// @Tags runs
// @Accept json
// @Produce json
// @Param run body model.RunSpec true "Run configuration"
// @Success 200 {object} map[string]interface{} "Run created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func CreateRun(w http.ResponseWriter, r *http.Request) {
	var spec model.RunSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 1. Validate payload
	if err := validate.Struct(spec); err != nil {
		http.Error(w, "Invalid run spec: "+err.Error(), http.StatusBadRequest)
		return
	}

	// 2. Generate run ID
	runID := uuid.New().String()

	// 3. Save run to DB
	if err := store.SaveRun(runID, spec); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	// 4. Resolve the chart artifact path for this run
	chartPath, err := outputs.OutputFilePath(runID, pipeline.DefaultChartFile)
	if err != nil {
		http.Error(w, "Failed to prepare run output directory", http.StatusInternalServerError)
		return
	}

	// 5. Start the pipeline asynchronously
	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(spec.Timeout))

	go func() {
		defer cancel()
		// Run records its own failures in the runs table
		_ = pipeline.Run(ctx, runID, spec, chartPath)
	}()

	// 6. Return response
	resp := map[string]interface{}{
		"message":   "Run created successfully!",
		"runID":     runID,
		"status":    "pending",
		"chartURL":  outputs.DownloadURL(runID),
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListRuns retrieves all pipeline runs
// @Summary List all runs
// @Description Get a list of all pipeline runs with their current status
// @Tags runs
// @Accept json
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun retrieves a specific pipeline run
// @Summary Get run
// @Description Retrieve details of a specific pipeline run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "")
	if !ok {
		return
	}

	run, err := store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetRunErrors retrieves errors for a run
// @Summary Get run errors
// @Description Retrieve all errors that occurred during run execution
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/errors [get]
func GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/errors")
	if !ok {
		return
	}

	errors, err := store.GetRunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"errors": errors,
		"count":  len(errors),
	})
}

// GetRunLogs retrieves structured stage logs for a run
// @Summary Get run logs
// @Description Retrieve structured stage logs recorded during run execution
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run logs"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/logs [get]
func GetRunLogs(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/logs")
	if !ok {
		return
	}

	logs, err := store.GetRunLogs(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// GetRunReport retrieves the persisted status distribution for a run
// @Summary Get run report
// @Description Retrieve the status distribution computed by the run's report stage
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run report"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/report [get]
func GetRunReport(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/report")
	if !ok {
		return
	}

	dist, err := store.GetStatusCounts(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve report", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"run_id":       runID,
		"distribution": dist,
		"total":        dist.Total(),
		"chart_url":    outputs.DownloadURL(runID),
	}
	chartPath := filepath.Join(outputs.BaseOutputDir, runID, pipeline.DefaultChartFile)
	if size, err := outputs.FileSize(chartPath); err == nil {
		resp["chart_size"] = size
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetRunChart serves the rendered chart image for a run
// @Summary Get run chart
// @Description Download the status distribution chart rendered by the run
// @Tags runs
// @Produce png
// @Param id path string true "Run ID"
// @Success 200 {file} file "Chart image"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Chart not found"
// @Router /runs/{id}/chart [get]
func GetRunChart(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/chart")
	if !ok {
		return
	}

	chartPath := filepath.Join(outputs.BaseOutputDir, runID, pipeline.DefaultChartFile)
	if _, err := os.Stat(chartPath); err != nil {
		http.Error(w, "Chart not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, chartPath)
}

// runIDFromPath extracts the run ID between the runs prefix and an
// optional suffix, writing a 400 response on malformed paths.
func runIDFromPath(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	prefix := "/api/v1/runs/"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	runID := path[len(prefix) : len(path)-len(suffix)]
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return "", false
	}

	return runID, true
}
