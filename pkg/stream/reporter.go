/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter hooks for run events, with a logging implementation and a fan-out
helper for combining reporters.
*/

package stream

import (
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/sirupsen/logrus"
)

// Reporter receives run events as they happen
type Reporter interface {
	// OnRecordMelted is called after a record's entities reached the sink
	OnRecordMelted(record int64, entities []melt.Entity)
	// OnRecordSkipped is called for every malformed record
	OnRecordSkipped(err *MalformedInputError)
	// OnRunFinished is called once with the final report
	OnRunFinished(report *Report)
}

// LoggerReporter logs run events
type LoggerReporter struct {
	logger logrus.FieldLogger
}

// NewLoggerReporter creates a new LoggerReporter
func NewLoggerReporter(logger logrus.FieldLogger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// OnRecordMelted logs at debug level
func (r *LoggerReporter) OnRecordMelted(record int64, entities []melt.Entity) {
	r.logger.WithFields(logrus.Fields{"record": record, "entities": len(entities)}).Debug("Record melted")
}

// OnRecordSkipped logs a warning
func (r *LoggerReporter) OnRecordSkipped(err *MalformedInputError) {
	fields := logrus.Fields{"record": err.Record, "terminal": err.Terminal}
	if err.Line > 0 {
		fields["line"] = err.Line
	}
	r.logger.WithFields(fields).WithError(err.Err).Warn("Malformed record skipped")
}

// OnRunFinished logs the run summary
func (r *LoggerReporter) OnRunFinished(report *Report) {
	r.logger.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"mode":     report.Mode,
		"framing":  report.Framing,
		"melted":   report.RecordsMelted,
		"skipped":  report.RecordsSkipped,
		"entities": report.EntitiesEmitted,
		"types":    len(report.EntitiesByType),
		"duration": report.Duration,
	}).Info("Run finished")
}

// MultiReporter forwards every event to each reporter in order
type MultiReporter []Reporter

// OnRecordMelted implements Reporter
func (m MultiReporter) OnRecordMelted(record int64, entities []melt.Entity) {
	for _, r := range m {
		r.OnRecordMelted(record, entities)
	}
}

// OnRecordSkipped implements Reporter
func (m MultiReporter) OnRecordSkipped(err *MalformedInputError) {
	for _, r := range m {
		r.OnRecordSkipped(err)
	}
}

// OnRunFinished implements Reporter
func (m MultiReporter) OnRunFinished(report *Report) {
	for _, r := range m {
		r.OnRunFinished(report)
	}
}
