/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file management: gzip compression of finished logs, retention cleanup
and simple statistics over the log directory.
*/

package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogManager manages the files in a log directory
type LogManager struct {
	logDir   string
	maxFiles int
	compress bool
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int, compress bool) *LogManager {
	return &LogManager{
		logDir:   logDir,
		maxFiles: maxFiles,
		compress: compress,
	}
}

func (lm *LogManager) glob(pattern string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, logFilePrefix+pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	return files, nil
}

// CompressOldLogs gzips every plain log file except keep
func (lm *LogManager) CompressOldLogs(keep string) error {
	files, err := lm.glob("*.log")
	if err != nil {
		return err
	}
	for _, file := range files {
		if file == keep {
			continue
		}
		if err := lm.compressFile(file); err != nil {
			return fmt.Errorf("failed to compress %s: %w", file, err)
		}
	}
	return nil
}

// compressFile compresses a log file using gzip and removes the original.
// The archive keeps the original modification time so retention order is unchanged.
func (lm *LogManager) compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()
	info, err := source.Stat()
	if err != nil {
		return err
	}

	compressed, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	gzipWriter := gzip.NewWriter(compressed)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		compressed.Close()
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		compressed.Close()
		return err
	}
	if err := compressed.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(path+".gz", info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Remove(path)
}

// CleanupOldLogs removes the oldest log files beyond maxFiles
func (lm *LogManager) CleanupOldLogs() error {
	files, err := lm.glob("*.log*")
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	// Sort files by modification time (oldest first), then name for equal times
	modTimes := make(map[string]time.Time, len(files))
	for _, f := range files {
		if stat, err := os.Stat(f); err == nil {
			modTimes[f] = stat.ModTime()
		}
	}
	sort.Slice(files, func(i, j int) bool {
		ti, tj := modTimes[files[i]], modTimes[files[j]]
		if ti.Equal(tj) {
			return files[i] < files[j]
		}
		return ti.Before(tj)
	})

	for _, f := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", f, err)
		}
	}
	return nil
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.glob("*.log*")
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for _, file := range files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		stats.TotalSize += stat.Size()
		if stats.OldestFile.IsZero() || stat.ModTime().Before(stats.OldestFile) {
			stats.OldestFile = stat.ModTime()
		}
		if stat.ModTime().After(stats.NewestFile) {
			stats.NewestFile = stat.ModTime()
		}
		if strings.HasSuffix(file, ".gz") {
			stats.CompressedFiles++
		} else {
			stats.UncompressedFiles++
		}
	}
	return stats, nil
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles        int       `json:"total_files"`
	TotalSize         int64     `json:"total_size"`
	CompressedFiles   int       `json:"compressed_files"`
	UncompressedFiles int       `json:"uncompressed_files"`
	OldestFile        time.Time `json:"oldest_file"`
	NewestFile        time.Time `json:"newest_file"`
}
