package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// OutputManager handles per-run output file organization
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateRunOutputDir creates a run-scoped directory for output artifacts
func (om *OutputManager) CreateRunOutputDir(runID string) (string, error) {
	runDir := filepath.Join(om.BaseOutputDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}

	return runDir, nil
}

// OutputFilePath generates a full path for a run's output file
func (om *OutputManager) OutputFilePath(runID, fileName string) (string, error) {
	runDir, err := om.CreateRunOutputDir(runID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	return filepath.Join(runDir, filepath.Base(fileName)), nil
}

// DownloadURL generates a download URL for a run's chart artifact
func (om *OutputManager) DownloadURL(runID string) string {
	return fmt.Sprintf("/api/v1/runs/%s/chart", runID)
}

// FileSize returns the size of a file in bytes
func (om *OutputManager) FileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
