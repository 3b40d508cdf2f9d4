/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Run report. Counts records and entities per run and keeps the first few
errors for diagnostics.
*/

package stream

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/furnace/pkg/melt"
)

// maxReportedErrors bounds Report.Errors
const maxReportedErrors = 10

// Report summarises one driver run
type Report struct {
	RunID           string           `json:"run_id"`
	Mode            string           `json:"mode"`
	Framing         string           `json:"framing"`
	Source          string           `json:"source"`
	RecordsMelted   int64            `json:"records_melted"`
	RecordsSkipped  int64            `json:"records_skipped"`
	EntitiesEmitted int64            `json:"entities_emitted"`
	EntitiesByType  map[string]int64 `json:"entities_by_type"`
	PlanRules       int              `json:"plan_rules,omitempty"`
	PlanSamples     int              `json:"plan_samples,omitempty"`
	PlanFallbacks   uint64           `json:"plan_fallbacks,omitempty"`
	PrefixOnly      bool             `json:"prefix_only"`
	Errors          []string         `json:"errors,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	Duration        time.Duration    `json:"duration_ns"`
}

func newReport(mode Mode, source string) *Report {
	return &Report{
		RunID:          uuid.New().String(),
		Mode:           mode.String(),
		Source:         source,
		EntitiesByType: make(map[string]int64),
		StartedAt:      time.Now(),
	}
}

func (r *Report) addEntities(entities []melt.Entity) {
	r.RecordsMelted++
	r.EntitiesEmitted += int64(len(entities))
	for _, e := range entities {
		r.EntitiesByType[e.Type]++
	}
}

func (r *Report) addError(err error) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

// EntityTypes returns the emitted entity types, sorted
func (r *Report) EntityTypes() []string {
	types := make([]string, 0, len(r.EntitiesByType))
	for t := range r.EntitiesByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
