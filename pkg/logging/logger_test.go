/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for logger creation, formatting, file output and retention.
*/

package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/furnace/pkg/logging"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerCreation tests logger creation with different configurations
func TestLoggerCreation(t *testing.T) {
	logger, err := logging.NewLogger(nil)
	require.NoError(t, err)
	assert.Empty(t, logger.LogPath())
	require.NoError(t, logger.Close())

	config := &logging.LoggerConfig{
		Level:     logging.LogLevelDebug,
		Format:    logging.LogFormatJSON,
		OutputDir: t.TempDir(),
		MaxFiles:  5,
		Timestamp: true,
	}
	logger, err = logging.NewLoggerTo(config, &bytes.Buffer{})
	require.NoError(t, err)
	assert.FileExists(t, logger.LogPath())
	assert.Equal(t, logrus.DebugLevel, logger.GetLogger().GetLevel())
	require.NoError(t, logger.Close())
}

// TestLoggerConfigValidation tests rejected configurations
func TestLoggerConfigValidation(t *testing.T) {
	bad := []*logging.LoggerConfig{
		{Level: logging.LogLevelInfo, Format: "xml"},
		{Level: "loud", Format: logging.LogFormatText},
		{Level: logging.LogLevelInfo, Format: logging.LogFormatText, OutputDir: "logs", MaxFiles: 0},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate())
		_, err := logging.NewLoggerTo(c, &bytes.Buffer{})
		assert.Error(t, err)
	}
	assert.NoError(t, logging.DefaultLoggerConfig().Validate())
}

// TestLoggerHelpers tests the furnace-specific log helpers in JSON format
func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLoggerTo(&logging.LoggerConfig{
		Level:  logging.LogLevelInfo,
		Format: logging.LogFormatJSON,
	}, &buf)
	require.NoError(t, err)

	logger.LogRecordSkipped(3, 7, errors.New("bad json"), nil)
	logger.LogPlanBuilt(12, 100, "input.ndjson", map[string]interface{}{"mode": "planned"})
	logger.LogRunSummary(&stream.Report{
		RunID:          "run-1",
		Mode:           "unplanned",
		RecordsMelted:  5,
		EntitiesByType: map[string]int64{"root": 5},
		Duration:       time.Second,
	}, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"msg":"Record skipped"`)
	assert.Contains(t, lines[0], `"line":7`)
	assert.Contains(t, lines[0], `"error":"bad json"`)
	assert.Contains(t, lines[1], `"rules":12`)
	assert.Contains(t, lines[2], `"run_id":"run-1"`)
	assert.Contains(t, lines[2], `"records_melted":5`)
}

// TestCustomFormatter tests the custom formatter without colors
func TestCustomFormatter(t *testing.T) {
	f := &logging.CustomFormatter{}
	entry := &logrus.Entry{
		Message: "Record skipped",
		Level:   logrus.WarnLevel,
		Data:    logrus.Fields{"record": 2, "line": 9},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "WARNING [SKIP] Record skipped line=9 record=2\n", string(out))
}

// TestLogRetention tests compression and cleanup of old log files
func TestLogRetention(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"furnace_a.log", "furnace_b.log", "furnace_c.log"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("log line\n"), 0644))
		stamp := time.Now().Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	manager := logging.NewLogManager(dir, 2, true)
	require.NoError(t, manager.CompressOldLogs(filepath.Join(dir, "furnace_c.log")))

	stats, err := manager.GetLogStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 2, stats.CompressedFiles)

	require.NoError(t, manager.CleanupOldLogs())
	stats, err = manager.GetLogStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.FileExists(t, filepath.Join(dir, "furnace_c.log"))
}
