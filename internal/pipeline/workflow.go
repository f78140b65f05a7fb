package pipeline

import (
	"context"
	"fmt"
	"time"

	"go-character-pipeline/internal/model"
	"go-character-pipeline/internal/store"
)

// ------------------- Workflow Runner -------------------

const defaultRedisAddr = "localhost:6379"

// Run executes the pipeline for one run: fetch → cache-write → report,
// strictly in that order. Each stage either fully completes or the run
// aborts; there is no retry and no partial success. The report always
// runs over the freshly fetched records, never a reloaded snapshot.
func Run(ctx context.Context, runID string, spec model.RunSpec, chartPath string) (err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting character pipeline for run: %s\n", runID)

	store.UpdateRunStatus(runID, "running")

	defer func() {
		if err != nil {
			store.UpdateRunStatus(runID, "failed")
			store.SaveRunError(runID, err)
		}
	}()

	// --- FETCH STAGE ---
	store.UpdateRunStatus(runID, "fetching")
	store.SaveRunLog(runID, "fetch", "info", "Starting fetch stage", map[string]interface{}{
		"endpoint": spec.Endpoint,
	})

	source := NewCharacterSource(spec.Endpoint)
	records, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch stage failed: %w", err)
	}

	store.SaveRunLog(runID, "fetch", "info", "Fetch stage completed", map[string]interface{}{
		"record_count": len(records),
	})

	// --- CACHE STAGE ---
	store.UpdateRunStatus(runID, "caching")

	addr := spec.Redis.Addr
	if addr == "" {
		addr = defaultRedisAddr
	}
	cache, err := ConnectCache(ctx, addr)
	if err != nil {
		return fmt.Errorf("cache stage failed: %w", err)
	}
	defer cache.Close()

	if err := cache.Save(ctx, spec.CacheKey, records); err != nil {
		return fmt.Errorf("cache stage failed: %w", err)
	}

	fmt.Printf("💾 Cached %d records under key %q\n", len(records), spec.CacheKey)
	store.SaveRunLog(runID, "cache", "info", "Records cached", map[string]interface{}{
		"key":          spec.CacheKey,
		"record_count": len(records),
	})

	// --- REPORT STAGE ---
	store.UpdateRunStatus(runID, "reporting")

	engine := NewReportEngine(records)
	result, err := engine.RunDefaultReport(chartPath)
	if err != nil {
		return fmt.Errorf("report stage failed: %w", err)
	}

	store.SaveStatusCounts(runID, result.Distribution)
	store.SaveRunLog(runID, "report", "info", "Report stage completed", map[string]interface{}{
		"chart_path":      result.ChartPath,
		"status_count":    len(result.Distribution.Statuses),
		"species_matches": len(result.SpeciesMatches),
		"name_matches":    len(result.NameMatches),
	})

	fmt.Printf("🏁 Pipeline completed successfully for run: %s in %v\n", runID, time.Since(start))
	store.UpdateRunStatus(runID, "completed")
	return nil
}
