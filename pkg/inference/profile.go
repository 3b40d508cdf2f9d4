/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: profile.go
Description: Per-path structure profiler. Walks every field of every sample, including
values the engine would keep inline, and aggregates shapes, presence, number ranges,
small enumerations and the live classifier's decisions.
*/

package inference

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
)

const (
	maxExamples = 5
	maxEnum     = 10
)

// PathInfo holds what was seen at one path across samples
type PathInfo struct {
	Path      melt.Path
	Shapes    map[jsonvalue.Shape]int // occurrences per shape
	Present   int                     // containing objects that had this field
	Parents   int                     // containing objects seen at the parent path
	Decisions map[melt.Decision]int   // live decisions
	Values    map[string]int          // string and bool values, for enum detection
	Min, Max  *float64                // number range
	MaxLen    int                     // longest array
	Examples  []string                // compact JSON examples
}

func newPathInfo(path melt.Path) *PathInfo {
	return &PathInfo{
		Path:      path,
		Shapes:    make(map[jsonvalue.Shape]int),
		Decisions: make(map[melt.Decision]int),
		Values:    make(map[string]int),
	}
}

// Optional reports whether some containing objects lacked the field
func (p *PathInfo) Optional() bool {
	return p.Present < p.Parents
}

// Enum returns the distinct values when there are few enough to look like an enumeration
func (p *PathInfo) Enum() []string {
	if len(p.Values) == 0 || len(p.Values) > maxEnum {
		return nil
	}
	enum := make([]string, 0, len(p.Values))
	for v := range p.Values {
		enum = append(enum, v)
	}
	sort.Strings(enum)
	return enum
}

// Profile is the aggregated result
type Profile struct {
	Samples int
	Paths   []*PathInfo // ordered by path
}

// Lookup returns the info for path
func (p *Profile) Lookup(path melt.Path) (*PathInfo, bool) {
	key := path.String()
	i := sort.Search(len(p.Paths), func(i int) bool { return p.Paths[i].Path.String() >= key })
	if i < len(p.Paths) && p.Paths[i].Path.String() == key {
		return p.Paths[i], true
	}
	return nil, false
}

// Describe renders one summary line per path
func (p *Profile) Describe() []string {
	lines := []string{fmt.Sprintf("profile: %d paths from %d samples", len(p.Paths), p.Samples)}
	for _, info := range p.Paths {
		var shapes []string
		for _, s := range jsonvalue.AllShapes {
			if n := info.Shapes[s]; n > 0 {
				shapes = append(shapes, fmt.Sprintf("%s:%d", s, n))
			}
		}
		var decisions []string
		for _, d := range []melt.Decision{melt.Inline, melt.ExtractEntity, melt.ExtractArrayOfEntities, melt.ExtractArrayOfScalars} {
			if n := info.Decisions[d]; n > 0 {
				decisions = append(decisions, fmt.Sprintf("%s:%d", d, n))
			}
		}
		line := fmt.Sprintf("%-40s %s  [%s]", info.Path, strings.Join(shapes, " "), strings.Join(decisions, " "))
		if info.Optional() {
			line += " optional"
		}
		if info.Min != nil {
			line += fmt.Sprintf(" range=%s..%s", formatFloat(*info.Min), formatFloat(*info.Max))
		}
		if enum := info.Enum(); enum != nil {
			line += " enum=" + strings.Join(enum, ",")
		}
		lines = append(lines, line)
	}
	return lines
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Profiler accumulates samples one at a time
type Profiler struct {
	classifier *melt.Classifier
	paths      map[string]*PathInfo
	objects    map[string]int // objects seen per path
	samples    int
}

// NewProfiler creates a profiler that classifies with cfg
func NewProfiler(cfg melt.Config) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Profiler{
		classifier: melt.NewClassifier(cfg),
		paths:      make(map[string]*PathInfo),
		objects:    make(map[string]int),
	}, nil
}

type profileFrame struct {
	obj  *jsonvalue.Object
	path melt.Path
}

// Add profiles one record
func (p *Profiler) Add(record jsonvalue.Value) {
	p.samples++

	var stack []profileFrame
	push := func(v jsonvalue.Value, path melt.Path) {
		if obj := v.Object(); obj != nil {
			stack = append(stack, profileFrame{obj: obj, path: path})
		}
	}
	if record.IsArray() {
		for _, item := range record.Array() {
			push(item, melt.Path{})
		}
	} else {
		push(record, melt.Path{})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.objects[f.path.String()]++

		f.obj.Each(func(key string, val jsonvalue.Value) bool {
			path := f.path.Child(key)
			info := p.info(path)
			info.Present++
			p.observe(info, val)

			switch {
			case val.IsObject():
				push(val, path)
			case val.IsArray():
				for _, item := range val.Array() {
					push(item, path)
				}
			}
			return true
		})
	}
}

func (p *Profiler) info(path melt.Path) *PathInfo {
	key := path.String()
	info, ok := p.paths[key]
	if !ok {
		info = newPathInfo(path)
		p.paths[key] = info
	}
	return info
}

func (p *Profiler) observe(info *PathInfo, v jsonvalue.Value) {
	info.Shapes[v.Shape()]++
	info.Decisions[p.classifier.Classify(v, info.Path, len(info.Path))]++

	switch v.Kind() {
	case jsonvalue.KindNumber:
		n, _ := v.Num()
		if f, err := n.Float64(); err == nil {
			if info.Min == nil || f < *info.Min {
				lo := f
				info.Min = &lo
			}
			if info.Max == nil || f > *info.Max {
				hi := f
				info.Max = &hi
			}
		}
	case jsonvalue.KindString, jsonvalue.KindBool:
		if len(info.Values) <= maxEnum {
			s, _ := jsonvalue.Stringify(v)
			info.Values[s]++
		}
	case jsonvalue.KindArray:
		if n := len(v.Array()); n > info.MaxLen {
			info.MaxLen = n
		}
	}

	if len(info.Examples) < maxExamples {
		ex := v.String()
		for _, seen := range info.Examples {
			if seen == ex {
				return
			}
		}
		info.Examples = append(info.Examples, ex)
	}
}

// Samples returns the number of records profiled
func (p *Profiler) Samples() int {
	return p.samples
}

// Profile returns the aggregated paths. Later calls to Add keep updating them.
func (p *Profiler) Profile() *Profile {
	out := &Profile{Samples: p.samples, Paths: make([]*PathInfo, 0, len(p.paths))}
	for _, info := range p.paths {
		info.Parents = p.objects[info.Path.Parent().String()]
		out.Paths = append(out.Paths, info)
	}
	sort.Slice(out.Paths, func(i, j int) bool {
		return out.Paths[i].Path.String() < out.Paths[j].Path.String()
	})
	return out
}
