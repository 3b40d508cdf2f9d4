/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prometheus.go
Description: Prometheus reporter for melt runs. Counts records by outcome, entities by
type and plan fallbacks, and observes run durations.
*/

package metrics

import (
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "furnace"

// Record outcomes used as the status label
const (
	StatusMelted  = "melted"
	StatusSkipped = "skipped"
)

// PrometheusReporter implements stream.Reporter with Prometheus collectors
type PrometheusReporter struct {
	records   *prometheus.CounterVec
	entities  *prometheus.CounterVec
	fallbacks prometheus.Counter
	duration  prometheus.Histogram
	runs      *prometheus.CounterVec
}

// NewRegistry returns an isolated registry
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// NewPrometheusReporter creates the collectors and registers them with reg
func NewPrometheusReporter(reg prometheus.Registerer) (*PrometheusReporter, error) {
	r := &PrometheusReporter{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of input records by outcome",
		}, []string{"status"}), // status: melted, skipped

		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Total number of entities emitted by entity type",
		}, []string{"entity_type"}),

		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_fallbacks_total",
			Help:      "Total number of planned decisions that fell back to live classification",
		}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}),

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of runs by mode",
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{r.records, r.entities, r.fallbacks, r.duration, r.runs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OnRecordMelted implements stream.Reporter
func (r *PrometheusReporter) OnRecordMelted(record int64, entities []melt.Entity) {
	r.records.WithLabelValues(StatusMelted).Inc()
	for _, e := range entities {
		r.entities.WithLabelValues(e.Type).Inc()
	}
}

// OnRecordSkipped implements stream.Reporter
func (r *PrometheusReporter) OnRecordSkipped(err *stream.MalformedInputError) {
	r.records.WithLabelValues(StatusSkipped).Inc()
}

// OnRunFinished implements stream.Reporter
func (r *PrometheusReporter) OnRunFinished(report *stream.Report) {
	r.fallbacks.Add(float64(report.PlanFallbacks))
	r.duration.Observe(report.Duration.Seconds())
	r.runs.WithLabelValues(report.Mode).Inc()
}
