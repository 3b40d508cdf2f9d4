/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: plan.go
Description: Extraction plans. A plan maps every sampled path to the shapes seen there and
one widened decision per shape family. Plans are immutable once built and are consulted
by the planned decision source, which falls back to live classification on a miss.
*/

package melt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// ShapeSet is a set of value shapes
type ShapeSet uint8

// NewShapeSet returns a set holding shapes
func NewShapeSet(shapes ...jsonvalue.Shape) ShapeSet {
	var s ShapeSet
	for _, shape := range shapes {
		s = s.With(shape)
	}
	return s
}

// With returns the set extended by shape
func (s ShapeSet) With(shape jsonvalue.Shape) ShapeSet {
	return s | 1<<uint(shape)
}

// Has reports membership
func (s ShapeSet) Has(shape jsonvalue.Shape) bool {
	return s&(1<<uint(shape)) != 0
}

// Empty reports whether no shape was recorded
func (s ShapeSet) Empty() bool {
	return s == 0
}

// List returns the members in declaration order
func (s ShapeSet) List() []jsonvalue.Shape {
	var out []jsonvalue.Shape
	for _, shape := range jsonvalue.AllShapes {
		if s.Has(shape) {
			out = append(out, shape)
		}
	}
	return out
}

// String joins the member names with '|'
func (s ShapeSet) String() string {
	list := s.List()
	names := make([]string, len(list))
	for i, shape := range list {
		names[i] = shape.String()
	}
	return strings.Join(names, "|")
}

// Rule is the plan entry for one path.
// Object applies to object values and Array to non-empty arrays; other shapes are inline.
type Rule struct {
	Path   Path
	Shapes ShapeSet
	Object Decision
	Array  Decision
}

// DecisionFor returns the decision for a value of the given shape.
// ok is false when the shape was never observed at this path.
func (r Rule) DecisionFor(shape jsonvalue.Shape) (Decision, bool) {
	if !r.Shapes.Has(shape) {
		return Inline, false
	}
	switch shape {
	case jsonvalue.ShapeObject:
		return r.Object, true
	case jsonvalue.ShapeArray:
		return r.Array, true
	default:
		return Inline, true
	}
}

// promotes reports whether values at this path can become entities with fields
func (r Rule) promotes() bool {
	return r.Object == ExtractEntity || r.Array == ExtractArrayOfEntities
}

// Plan is an immutable extraction plan
type Plan struct {
	config  Config
	rules   map[string]Rule
	samples int
}

// Config returns the configuration the plan was built with
func (p *Plan) Config() Config {
	return p.config.clone()
}

// Samples returns the number of records sampled
func (p *Plan) Samples() int {
	return p.samples
}

// Len returns the number of rules
func (p *Plan) Len() int {
	return len(p.rules)
}

// Rule returns the rule for path
func (p *Plan) Rule(path Path) (Rule, bool) {
	r, ok := p.rules[path.String()]
	return r, ok
}

// Lookup returns the planned decision for v at path.
// ok is false on a path miss or an unseen shape.
func (p *Plan) Lookup(v jsonvalue.Value, path Path) (Decision, bool) {
	r, ok := p.rules[path.String()]
	if !ok {
		return Inline, false
	}
	return r.DecisionFor(v.Shape())
}

// Rules returns every rule ordered by path
func (p *Plan) Rules() []Rule {
	keys := make([]string, 0, len(p.rules))
	for k := range p.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Rule, len(keys))
	for i, k := range keys {
		out[i] = p.rules[k]
	}
	return out
}

// EntityTypes returns the entity types the plan promotes, root first
func (p *Plan) EntityTypes() []string {
	types := []string{RootType}
	for _, r := range p.Rules() {
		if r.Object.Extracts() || r.Array.Extracts() {
			types = append(types, p.config.EntityType(r.Path))
		}
	}
	return types
}

// Validate checks the plan against its own configuration
func (p *Plan) Validate() error {
	if p.samples < 1 {
		return ErrEmptyPlan
	}
	if err := p.config.Validate(); err != nil {
		return err
	}
	classifier := NewClassifier(p.config)

	for key, r := range p.rules {
		if len(r.Path) == 0 {
			return inconsistentf("rule for the root path")
		}
		if key != r.Path.String() {
			return inconsistentf("rule %s is stored under %q", r.Path, key)
		}
		if r.Shapes.Empty() {
			return inconsistentf("rule %s has no observed shapes", key)
		}
		if objectRank(r.Object) < 0 {
			return inconsistentf("rule %s: %s is not valid for objects", key, r.Object)
		}
		if arrayRank(r.Array) < 0 {
			return inconsistentf("rule %s: %s is not valid for arrays", key, r.Array)
		}
		if r.Object.Extracts() && !r.Shapes.Has(jsonvalue.ShapeObject) {
			return inconsistentf("rule %s extracts objects but never saw one", key)
		}
		if r.Array.Extracts() && !r.Shapes.Has(jsonvalue.ShapeArray) {
			return inconsistentf("rule %s extracts arrays but never saw one", key)
		}
		extracts := r.Object.Extracts() || r.Array.Extracts()
		if extracts && len(r.Path) > p.config.MaxDepth {
			return inconsistentf("rule %s extracts beyond max_depth %d", key, p.config.MaxDepth)
		}
		if extracts && classifier.isForced(r.Path.Leaf()) {
			return inconsistentf("rule %s extracts a scalar field", key)
		}
		if len(r.Path) > 1 {
			parent, ok := p.rules[r.Path.Parent().String()]
			if !ok || !parent.promotes() {
				return inconsistentf("rule %s sits under a path that is never promoted", key)
			}
		}
	}
	return nil
}

// Describe renders one line per rule for humans
func (p *Plan) Describe() []string {
	rules := p.Rules()
	lines := make([]string, 0, len(rules)+1)
	lines = append(lines, fmt.Sprintf("plan: %d rules from %d samples (max_depth=%d)", len(rules), p.samples, p.config.MaxDepth))
	for _, r := range rules {
		line := fmt.Sprintf("%-40s %-28s", r.Path, r.Shapes)
		if r.Shapes.Has(jsonvalue.ShapeObject) {
			line += " object=" + r.Object.String()
		}
		if r.Shapes.Has(jsonvalue.ShapeArray) {
			line += " array=" + r.Array.String()
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}
