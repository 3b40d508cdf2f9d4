/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: source.go
Description: Decision sources for the engine. Live classification judges every value on
the spot; the planned source answers from a plan and reclassifies live whenever the plan
has no rule for the path or never saw the value's shape there.
*/

package melt

import (
	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// DecisionSource tells the engine what to do with a field value
type DecisionSource interface {
	Decide(v jsonvalue.Value, path Path, depth int) Decision
}

// PlanSource answers from a Plan with live fallback
type PlanSource struct {
	plan      *Plan
	live      *Classifier
	hits      uint64
	fallbacks uint64
}

// NewPlanSource wraps plan. The plan is assumed valid.
func NewPlanSource(plan *Plan) *PlanSource {
	return &PlanSource{plan: plan, live: NewClassifier(plan.config)}
}

// Decide implements DecisionSource
func (s *PlanSource) Decide(v jsonvalue.Value, path Path, depth int) Decision {
	if d, ok := s.plan.Lookup(v, path); ok {
		s.hits++
		return d
	}
	s.fallbacks++
	return s.live.Classify(v, path, depth)
}

// Hits returns how many decisions came from the plan
func (s *PlanSource) Hits() uint64 {
	return s.hits
}

// Fallbacks returns how many decisions were reclassified live
func (s *PlanSource) Fallbacks() uint64 {
	return s.fallbacks
}
