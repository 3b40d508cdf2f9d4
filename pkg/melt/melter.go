/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: melter.go
Description: The melting engine. Walks a record with an explicit work stack, emitting
entities in pre-order with siblings in source order, injecting parent foreign keys and
assigning identifiers. The same engine serves live and planned runs; only the decision
source differs.
*/

package melt

import (
	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// Stats counts what a melter has done so far
type Stats struct {
	Records       uint64
	Entities      uint64
	GeneratedIDs  uint64
	PlanHits      uint64
	PlanFallbacks uint64
}

// Melter turns JSON values into flat entities. A Melter is not safe for concurrent use;
// the identifier counter carries across calls.
type Melter struct {
	cfg    Config
	source DecisionSource
	plan   *PlanSource
	ids    *IDGenerator
	stats  Stats
}

// New creates a melter that classifies every value live
func New(cfg Config) (*Melter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	return NewWithSource(cfg, NewClassifier(cfg))
}

// NewPlanned creates a melter that follows plan
func NewPlanned(plan *Plan) (*Melter, error) {
	if plan == nil {
		return nil, ErrEmptyPlan
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	src := NewPlanSource(plan)
	m, err := NewWithSource(plan.Config(), src)
	if err != nil {
		return nil, err
	}
	m.plan = src
	return m, nil
}

// NewWithSource creates a melter driven by an arbitrary decision source
func NewWithSource(cfg Config, source DecisionSource) (*Melter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &ConfigError{Field: "source", Reason: "decision source is required"}
	}
	return &Melter{cfg: cfg.clone(), source: source, ids: NewIDGenerator()}, nil
}

// Config returns the melter's configuration
func (m *Melter) Config() Config {
	return m.cfg.clone()
}

// Planned reports whether the melter follows a plan
func (m *Melter) Planned() bool {
	return m.plan != nil
}

// Stats returns a snapshot of the counters
func (m *Melter) Stats() Stats {
	s := m.stats
	s.GeneratedIDs = m.ids.Issued()
	if m.plan != nil {
		s.PlanHits = m.plan.Hits()
		s.PlanFallbacks = m.plan.Fallbacks()
	}
	return s
}

type frameKind int

const (
	entityFrame frameKind = iota
	rowFrame
)

type frame struct {
	kind   frameKind
	value  jsonvalue.Value
	path   Path
	depth  int
	index  int
	parent *ParentRef
}

// Melt flattens one record. On error no entities are returned for the record.
func (m *Melter) Melt(record jsonvalue.Value) ([]Entity, error) {
	roots, rows := splitRoot(record)

	stack := make([]frame, 0, len(roots)+len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		stack = append(stack, frame{kind: rowFrame, value: rows[i], path: Path{}, index: i})
	}
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{kind: entityFrame, value: roots[i], path: Path{}})
	}

	var entities []Entity
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth != len(f.path) {
			return nil, invariantf("frame depth %d does not match path %s", f.depth, f.path)
		}

		var (
			e   Entity
			err error
		)
		switch f.kind {
		case entityFrame:
			var children []frame
			e, children, err = m.expand(f)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		case rowFrame:
			e, err = m.row(f)
		}
		if err != nil {
			return nil, err
		}
		if e.Type == "" || e.ID.IsZero() {
			return nil, invariantf("entity at %s has no type or identifier", f.path)
		}
		entities = append(entities, e)
	}

	m.stats.Records++
	m.stats.Entities += uint64(len(entities))
	return entities, nil
}

// expand builds the entity for an object frame and queues its promoted children
func (m *Melter) expand(f frame) (Entity, []frame, error) {
	src := f.value
	if !src.IsObject() {
		// scalar element under an entity array planned from object-only samples
		src = jsonvalue.ObjectOf(jsonvalue.F(ValueField, src))
	}

	id, err := AssignID(src, m.ids)
	if err != nil {
		return Entity{}, nil, err
	}
	entityType := m.cfg.EntityType(f.path)
	childDepth := f.depth + 1

	data := jsonvalue.NewObject()
	var children []frame
	src.Object().Each(func(key string, val jsonvalue.Value) bool {
		childPath := f.path.Child(key)
		decision := m.source.Decide(val, childPath, childDepth)

		if decision != Inline && childDepth > m.cfg.MaxDepth {
			err = invariantf("%s promoted at depth %d beyond max_depth %d", childPath, childDepth, m.cfg.MaxDepth)
			return false
		}

		parent := &ParentRef{Type: entityType, ID: id, Field: key}
		switch decision {
		case Inline:
			data.Set(key, val)
		case ExtractEntity:
			if !val.IsObject() {
				err = invariantf("%s: %s applied to %s", childPath, decision, val.Kind())
				return false
			}
			children = append(children, frame{kind: entityFrame, value: val, path: childPath, depth: childDepth, parent: parent})
		case ExtractArrayOfEntities, ExtractArrayOfScalars:
			if !val.IsArray() {
				err = invariantf("%s: %s applied to %s", childPath, decision, val.Kind())
				return false
			}
			kind := entityFrame
			if decision == ExtractArrayOfScalars {
				kind = rowFrame
			}
			for i, item := range val.Array() {
				children = append(children, frame{kind: kind, value: item, path: childPath, depth: childDepth, index: i, parent: parent})
			}
		default:
			err = invariantf("%s: unknown decision %s", childPath, decision)
			return false
		}
		return true
	})
	if err != nil {
		return Entity{}, nil, err
	}

	m.injectParentID(data, f.parent)
	return Entity{Type: entityType, Data: data, ID: id, Parent: f.parent}, children, nil
}

// row builds a {value, _idx} entity for one scalar-array element
func (m *Melter) row(f frame) (Entity, error) {
	id, err := AssignID(f.value, m.ids)
	if err != nil {
		return Entity{}, err
	}
	data := jsonvalue.NewObject()
	data.Set(ValueField, f.value)
	data.Set(IndexField, jsonvalue.Int(f.index))
	m.injectParentID(data, f.parent)
	return Entity{Type: m.cfg.EntityType(f.path), Data: data, ID: id, Parent: f.parent}, nil
}

// injectParentID appends the foreign key after the entity's own fields.
// A same-named field is overwritten in place.
func (m *Melter) injectParentID(data *jsonvalue.Object, parent *ParentRef) {
	if parent == nil || !m.cfg.IncludeParentIDs {
		return
	}
	data.Set(m.cfg.ForeignKeyName(parent.Field), jsonvalue.String(parent.ID.Value))
}

// splitRoot separates a record into root entities and root scalar rows.
// Objects are one root; arrays of objects give one root per element; other arrays give
// rows; a bare scalar is wrapped as {"value": x}.
func splitRoot(record jsonvalue.Value) (roots, rows []jsonvalue.Value) {
	switch record.Kind() {
	case jsonvalue.KindObject:
		return []jsonvalue.Value{record}, nil
	case jsonvalue.KindArray:
		items := record.Array()
		for _, item := range items {
			if !item.IsObject() {
				return nil, items
			}
		}
		return items, nil
	default:
		return []jsonvalue.Value{jsonvalue.ObjectOf(jsonvalue.F(ValueField, record))}, nil
	}
}
