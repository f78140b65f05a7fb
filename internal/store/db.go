package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-character-pipeline/internal/model"
)

var db *sql.DB

// Initialize DB connection
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	// Create tables if not exists
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	logTable := `
	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at DATETIME
	);
	`
	countsTable := `
	CREATE TABLE IF NOT EXISTS status_counts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		position INTEGER,
		status TEXT,
		count INTEGER,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{runTable, errorTable, logTable, countsTable} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// SaveRun stores a new pipeline run
func SaveRun(runID string, spec model.RunSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// SaveRunError records an error for a run
func SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// GetRunErrors returns all recorded errors for a run
func GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []map[string]interface{}
	for rows.Next() {
		var message string
		var createdAt time.Time
		if err := rows.Scan(&message, &createdAt); err != nil {
			return nil, err
		}
		errors = append(errors, map[string]interface{}{
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errors, rows.Err()
}

// ListRuns returns all runs with basic info
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches full run spec and status
func GetRun(runID string) (map[string]interface{}, error) {
	var specJSON string
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.RunSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// UpdateRunStatus updates run status
func UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunLog records a structured log line for a run stage
func SaveRunLog(runID, stage, level, message string, details map[string]interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO run_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, detailsJSON, now)
	return err
}

// GetRunLogs returns all log lines for a run in insertion order
func GetRunLogs(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, level, message, details, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var stage, level, message, detailsJSON string
		var createdAt time.Time
		if err := rows.Scan(&stage, &level, &message, &detailsJSON, &createdAt); err != nil {
			return nil, err
		}

		var details map[string]interface{}
		if err := json.Unmarshal([]byte(detailsJSON), &details); err != nil {
			return nil, err
		}

		logs = append(logs, map[string]interface{}{
			"stage":     stage,
			"level":     level,
			"message":   message,
			"details":   details,
			"createdAt": createdAt,
		})
	}
	return logs, rows.Err()
}

// SaveStatusCounts persists a run's status distribution, replacing any
// prior counts for the same run
func SaveStatusCounts(runID string, dist model.StatusDistribution) error {
	if _, err := db.Exec(`DELETE FROM status_counts WHERE run_id = ?`, runID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for position, status := range dist.Statuses {
		_, err := db.Exec(`INSERT INTO status_counts (run_id, position, status, count, created_at) VALUES (?, ?, ?, ?, ?)`,
			runID, position, status, dist.Counts[status], now)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetStatusCounts rebuilds a run's status distribution in stored order
func GetStatusCounts(runID string) (model.StatusDistribution, error) {
	dist := model.StatusDistribution{Counts: make(map[string]int)}

	rows, err := db.Query(`SELECT status, count FROM status_counts WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return dist, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return dist, err
		}
		dist.Statuses = append(dist.Statuses, status)
		dist.Counts[status] = count
	}
	return dist, rows.Err()
}
