/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_writer.go
Description: Writes run reports into a reports directory as timestamped JSON files,
one per run, for later comparison between runs.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kleascm/furnace/pkg/stream"
)

// WriteRunReport writes report to dir and returns the file path
func WriteRunReport(dir string, report *stream.Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// 2024-06-11_01-30-00_planned_1b4e28ba.json
	timestamp := report.StartedAt.Format("2006-01-02_15-04-05")
	runID := report.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	filename := fmt.Sprintf("%s_%s_%s.json", timestamp, report.Mode, runID)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// ReadRunReport loads a report written by WriteRunReport
func ReadRunReport(path string) (*stream.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report stream.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report file: %w", err)
	}
	return &report, nil
}
