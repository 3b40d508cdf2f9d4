/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: classifier.go
Description: Extraction decisions and the live classifier. The classifier is a pure
function of (value, path, depth, config): forced-scalar fields and the depth bound win,
then arrays and objects are judged by shape.
*/

package melt

import (
	"fmt"

	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// Decision is what the engine does with a field value
type Decision int

const (
	// Inline keeps the value in the parent entity unchanged
	Inline Decision = iota
	// ExtractEntity promotes an object to a child entity
	ExtractEntity
	// ExtractArrayOfEntities promotes every element to a child entity
	ExtractArrayOfEntities
	// ExtractArrayOfScalars promotes every element to a {value, _idx} row
	ExtractArrayOfScalars
)

// objectFieldThreshold is the field count above which an id-less object is promoted
const objectFieldThreshold = 3

var decisionNames = [...]string{
	Inline:                 "inline",
	ExtractEntity:          "extract_entity",
	ExtractArrayOfEntities: "extract_array_of_entities",
	ExtractArrayOfScalars:  "extract_array_of_scalars",
}

// String returns the snake_case decision name
func (d Decision) String() string {
	if d >= 0 && int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// ParseDecision converts a decision name. The empty string means Inline.
func ParseDecision(name string) (Decision, error) {
	if name == "" {
		return Inline, nil
	}
	for i, n := range decisionNames {
		if n == name {
			return Decision(i), nil
		}
	}
	return Inline, fmt.Errorf("unknown decision %q", name)
}

// Extracts reports whether the decision promotes anything
func (d Decision) Extracts() bool {
	return d != Inline
}

// objectRank orders decisions valid for object values. Widening keeps the higher rank.
func objectRank(d Decision) int {
	switch d {
	case Inline:
		return 0
	case ExtractEntity:
		return 1
	default:
		return -1
	}
}

// arrayRank orders decisions valid for non-empty array values
func arrayRank(d Decision) int {
	switch d {
	case Inline:
		return 0
	case ExtractArrayOfScalars:
		return 1
	case ExtractArrayOfEntities:
		return 2
	default:
		return -1
	}
}

func widen(rank func(Decision) int, a, b Decision) Decision {
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// Classifier applies the live classification rules
type Classifier struct {
	maxDepth int
	scalars  map[string]struct{}
}

// NewClassifier prepares a classifier for cfg
func NewClassifier(cfg Config) *Classifier {
	scalars := make(map[string]struct{}, len(cfg.ScalarFields))
	for _, name := range cfg.ScalarFields {
		scalars[name] = struct{}{}
	}
	return &Classifier{maxDepth: cfg.MaxDepth, scalars: scalars}
}

// Classify decides what to do with v found at path, depth hops below the root
func (c *Classifier) Classify(v jsonvalue.Value, path Path, depth int) Decision {
	if _, forced := c.scalars[path.Leaf()]; forced {
		return Inline
	}
	if depth > c.maxDepth {
		return Inline
	}

	switch v.Kind() {
	case jsonvalue.KindArray:
		items := v.Array()
		if len(items) == 0 {
			return Inline
		}
		for _, item := range items {
			if !item.IsObject() {
				return ExtractArrayOfScalars
			}
		}
		return ExtractArrayOfEntities
	case jsonvalue.KindObject:
		obj := v.Object()
		if obj.Has(IDField) || obj.Len() > objectFieldThreshold {
			return ExtractEntity
		}
		return Inline
	default:
		return Inline
	}
}

// Decide makes the classifier usable as a DecisionSource
func (c *Classifier) Decide(v jsonvalue.Value, path Path, depth int) Decision {
	return c.Classify(v, path, depth)
}

// isForced reports whether name is a forced-scalar field
func (c *Classifier) isForced(name string) bool {
	_, ok := c.scalars[name]
	return ok
}

// Classify is a one-off convenience around NewClassifier
func Classify(v jsonvalue.Value, path Path, depth int, cfg Config) Decision {
	return NewClassifier(cfg).Classify(v, path, depth)
}
