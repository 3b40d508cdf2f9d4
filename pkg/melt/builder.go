/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: builder.go
Description: Incremental plan builder. Each sample is walked down to max_depth, recording
the shape and live decision at every path and widening decisions across samples so the
plan covers the most extracting behaviour seen.
*/

package melt

import (
	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// Builder accumulates samples into a Plan. Only one sample is held at a time.
type Builder struct {
	cfg        Config
	classifier *Classifier
	rules      map[string]*Rule
	samples    int
}

// NewBuilder creates a builder for cfg
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	return &Builder{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		rules:      make(map[string]*Rule),
	}, nil
}

// Samples returns how many records were added
func (b *Builder) Samples() int {
	return b.samples
}

// Full reports whether the configured sample size has been reached
func (b *Builder) Full() bool {
	return b.samples >= b.cfg.SampleSize
}

type shadowFrame struct {
	obj   *jsonvalue.Object
	path  Path
	depth int
}

// Add walks one record and folds its observations into the plan.
// Every nested object is walked, including ones this sample keeps inline, so a path
// promoted by a later sample already has rules for the fields seen under it.
func (b *Builder) Add(record jsonvalue.Value) error {
	roots, _ := splitRoot(record)

	stack := make([]shadowFrame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, shadowFrame{obj: roots[i].Object(), path: Path{}, depth: 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth != len(f.path) {
			return invariantf("sample depth %d does not match path %s", f.depth, f.path)
		}

		f.obj.Each(func(key string, val jsonvalue.Value) bool {
			childPath := f.path.Child(key)
			decision := b.classifier.Classify(val, childPath, f.depth+1)
			b.record(childPath, val.Shape(), decision)

			// values past max_depth and forced fields never become entities
			if f.depth+1 > b.cfg.MaxDepth || b.classifier.isForced(key) {
				return true
			}
			switch {
			case val.IsObject():
				stack = append(stack, shadowFrame{obj: val.Object(), path: childPath, depth: f.depth + 1})
			case val.IsArray():
				for _, item := range val.Array() {
					if item.IsObject() {
						stack = append(stack, shadowFrame{obj: item.Object(), path: childPath, depth: f.depth + 1})
					}
				}
			}
			return true
		})
	}

	b.samples++
	return nil
}

// reachable reports whether every ancestor of path is promoted by the widened rules.
// Fields observed under a path that stayed inline in every sample are never consulted.
func (b *Builder) reachable(path Path) bool {
	for i := 1; i < len(path); i++ {
		r, ok := b.rules[path[:i].String()]
		if !ok || !r.promotes() {
			return false
		}
	}
	return true
}

func (b *Builder) record(path Path, shape jsonvalue.Shape, decision Decision) {
	key := path.String()
	r, ok := b.rules[key]
	if !ok {
		r = &Rule{Path: path}
		b.rules[key] = r
	}
	r.Shapes = r.Shapes.With(shape)
	switch shape {
	case jsonvalue.ShapeObject:
		r.Object = widen(objectRank, r.Object, decision)
	case jsonvalue.ShapeArray:
		r.Array = widen(arrayRank, r.Array, decision)
	}
}

// Build snapshots the accumulated observations into a validated Plan.
// The builder stays usable afterwards.
func (b *Builder) Build() (*Plan, error) {
	if b.samples == 0 {
		return nil, ErrEmptyPlan
	}
	rules := make(map[string]Rule, len(b.rules))
	for k, r := range b.rules {
		if b.reachable(r.Path) {
			rules[k] = *r
		}
	}
	plan := &Plan{config: b.cfg.clone(), rules: rules, samples: b.samples}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// BuildPlan builds a plan from an in-memory sample set
func BuildPlan(samples []jsonvalue.Value, cfg Config) (*Plan, error) {
	b, err := NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range samples {
		if err := b.Add(s); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
