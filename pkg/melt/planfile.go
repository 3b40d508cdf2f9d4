/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: planfile.go
Description: YAML persistence for extraction plans so a plan sampled once can be reviewed,
versioned and reused across runs.
*/

package melt

import (
	"fmt"
	"io"
	"os"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"gopkg.in/yaml.v3"
)

// PlanFileVersion is the plan file format version
const PlanFileVersion = 1

type planFile struct {
	Version int        `yaml:"version"`
	Samples int        `yaml:"samples"`
	Config  Config     `yaml:"config"`
	Rules   []ruleFile `yaml:"rules"`
}

type ruleFile struct {
	Path   string   `yaml:"path"`
	Shapes []string `yaml:"shapes,flow"`
	Object string   `yaml:"object,omitempty"`
	Array  string   `yaml:"array,omitempty"`
}

// WritePlan encodes p as YAML
func WritePlan(w io.Writer, p *Plan) error {
	pf := planFile{
		Version: PlanFileVersion,
		Samples: p.samples,
		Config:  p.config.clone(),
	}
	for _, r := range p.Rules() {
		rf := ruleFile{Path: r.Path.String()}
		for _, shape := range r.Shapes.List() {
			rf.Shapes = append(rf.Shapes, shape.String())
		}
		if r.Shapes.Has(jsonvalue.ShapeObject) {
			rf.Object = r.Object.String()
		}
		if r.Shapes.Has(jsonvalue.ShapeArray) {
			rf.Array = r.Array.String()
		}
		pf.Rules = append(pf.Rules, rf)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&pf); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}

// ReadPlan decodes and validates a YAML plan
func ReadPlan(r io.Reader) (*Plan, error) {
	var pf planFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyPlan
		}
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if pf.Version != PlanFileVersion {
		return nil, fmt.Errorf("unsupported plan version %d", pf.Version)
	}

	rules := make(map[string]Rule, len(pf.Rules))
	for _, rf := range pf.Rules {
		path, err := ParsePath(rf.Path)
		if err != nil {
			return nil, inconsistentf("%v", err)
		}
		shapes := make([]jsonvalue.Shape, 0, len(rf.Shapes))
		for _, name := range rf.Shapes {
			shape, ok := jsonvalue.ParseShape(name)
			if !ok {
				return nil, inconsistentf("rule %s: unknown shape %q", rf.Path, name)
			}
			shapes = append(shapes, shape)
		}
		rule := Rule{Path: path, Shapes: NewShapeSet(shapes...)}
		if rule.Object, err = ParseDecision(rf.Object); err != nil {
			return nil, inconsistentf("rule %s: %v", rf.Path, err)
		}
		if rule.Array, err = ParseDecision(rf.Array); err != nil {
			return nil, inconsistentf("rule %s: %v", rf.Path, err)
		}
		key := path.String()
		if _, dup := rules[key]; dup {
			return nil, inconsistentf("duplicate rule for %s", rf.Path)
		}
		rules[key] = rule
	}

	plan := &Plan{config: pf.Config.clone(), rules: rules, samples: pf.Samples}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// SavePlan writes p to a file
func SavePlan(filename string, p *Plan) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	if err := WritePlan(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadPlan reads a plan file
func LoadPlan(filename string) (*Plan, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan file: %w", err)
	}
	defer f.Close()
	return ReadPlan(f)
}
