/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging for furnace. Structured logrus logging to stderr, optionally teed
into timestamped files with retention, in JSON, text or custom format. Stdout is left to
the entity stream.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kleascm/furnace/pkg/stream"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// logFilePrefix names every log file furnace writes
const logFilePrefix = "furnace_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `mapstructure:"level" json:"level"`
	Format    LogFormat `mapstructure:"format" json:"format"`
	OutputDir string    `mapstructure:"output_dir" json:"output_dir"` // empty disables file output
	MaxFiles  int       `mapstructure:"max_files" json:"max_files"`
	Timestamp bool      `mapstructure:"timestamp" json:"timestamp"`
	Caller    bool      `mapstructure:"caller" json:"caller"`
	Colors    bool      `mapstructure:"colors" json:"colors"`
	Compress  bool      `mapstructure:"compress" json:"compress"`
}

// DefaultLoggerConfig logs text at info level to stderr only
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatText,
		MaxFiles:  10,
		Timestamp: true,
	}
}

// Validate checks the LoggerConfig for invalid values
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive when output_dir is set")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger wraps a logrus logger with furnace-specific helpers
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	console    io.Writer
	fileHandle *os.File
	logPath    string
	startTime  time.Time
}

// NewLogger creates a logger writing to stderr
func NewLogger(config *LoggerConfig) (*Logger, error) {
	return NewLoggerTo(config, os.Stderr)
}

// NewLoggerTo creates a logger writing to console
func NewLoggerTo(config *LoggerConfig, console io.Writer) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		console:   console,
		startTime: time.Now(),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)
	l.logger.SetOutput(l.console)

	if err := l.setFormatter(); err != nil {
		return err
	}
	return l.setupFileOutput()
}

func callerPrettyfier(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			DisableTimestamp: !l.config.Timestamp,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			DisableTimestamp: !l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: callerPrettyfier,
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&CustomFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}
	return nil
}

// setupFileOutput tees logs into a timestamped file when OutputDir is set
func (l *Logger) setupFileOutput() error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// furnace_2024-06-11_01-30-00.log
	timestamp := l.startTime.Format("2006-01-02_15-04-05")
	path := filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", logFilePrefix, timestamp))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.logPath = path
	l.logger.SetOutput(io.MultiWriter(l.console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Logging initialized")
	return nil
}

// cleanup removes the oldest log files beyond MaxFiles
func (l *Logger) cleanup() error {
	if l.config.OutputDir == "" {
		return nil
	}
	manager := NewLogManager(l.config.OutputDir, l.config.MaxFiles, l.config.Compress)
	if l.config.Compress {
		if err := manager.CompressOldLogs(l.logPath); err != nil {
			return err
		}
	}
	return manager.CleanupOldLogs()
}

// LogRecordSkipped logs a malformed input record
func (l *Logger) LogRecordSkipped(record int, line int, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["record"] = record
	if line > 0 {
		fields["line"] = line
	}
	l.logger.WithFields(fields).WithError(err).Warn("Record skipped")
}

// LogPlanBuilt logs a freshly built or loaded extraction plan
func (l *Logger) LogPlanBuilt(rules int, samples int, source string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["rules"] = rules
	fields["samples"] = samples
	fields["source"] = source
	l.logger.WithFields(fields).Info("Plan ready")
}

// LogRunSummary logs the outcome of a run, one line per entity type at debug level
func (l *Logger) LogRunSummary(report *stream.Report, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["run_id"] = report.RunID
	fields["mode"] = report.Mode
	fields["records_melted"] = report.RecordsMelted
	fields["records_skipped"] = report.RecordsSkipped
	fields["entities"] = report.EntitiesEmitted
	fields["entity_types"] = len(report.EntitiesByType)
	fields["prefix_only"] = report.PrefixOnly
	fields["duration"] = report.Duration
	fields["uptime"] = time.Since(l.startTime)
	l.logger.WithFields(fields).Info("Run summary")

	for _, t := range report.EntityTypes() {
		l.logger.WithFields(logrus.Fields{"entity_type": t, "count": report.EntitiesByType[t]}).Debug("Entities by type")
	}
}

// LogPath returns the current log file, or "" without file output
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file and applies retention
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		l.logger.SetOutput(l.console)
		l.fileHandle.Close()
		l.fileHandle = nil
	}
	if err := l.cleanup(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}
	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}
