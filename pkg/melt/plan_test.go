/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: plan_test.go
Description: Tests for plan building, planned melting, fallback behaviour, validation
and the YAML plan file format.
*/

package melt_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(texts ...string) []jsonvalue.Value {
	out := make([]jsonvalue.Value, len(texts))
	for i, text := range texts {
		out[i] = jsonvalue.MustParse(text)
	}
	return out
}

func TestBuildPlanWithoutSamples(t *testing.T) {
	_, err := melt.BuildPlan(nil, melt.DefaultConfig())
	assert.True(t, errors.Is(err, melt.ErrEmptyPlan))

	_, err = melt.NewPlanned(nil)
	assert.True(t, errors.Is(err, melt.ErrEmptyPlan))
}

func TestPlannedMatchesLiveOnHomogeneousInput(t *testing.T) {
	records := parseAll(
		`{"id":1,"name":"Alice","tags":["a","b"],"posts":[{"id":10,"title":"x","meta":{"a":1,"b":2,"c":3,"d":4}}]}`,
		`{"id":2,"name":"Bob","tags":["c"],"posts":[{"id":11,"title":"y","meta":{"a":5,"b":6,"c":7,"d":8}}]}`,
		`{"id":3,"name":"Cy","tags":[],"posts":[]}`,
	)
	plan, err := melt.BuildPlan(records, melt.DefaultConfig())
	require.NoError(t, err)

	live, err := melt.New(melt.DefaultConfig())
	require.NoError(t, err)
	planned, err := melt.NewPlanned(plan)
	require.NoError(t, err)
	assert.True(t, planned.Planned())

	for _, record := range records {
		want, err := live.Melt(record)
		require.NoError(t, err)
		got, err := planned.Melt(record)
		require.NoError(t, err)

		require.Equal(t, len(want), len(got))
		for i := range want {
			assert.Equal(t, want[i].Type, got[i].Type)
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, dataOf(want[i]), dataOf(got[i]))
		}
	}
	assert.Zero(t, planned.Stats().PlanFallbacks)
	assert.NotZero(t, planned.Stats().PlanHits)
}

func TestPlanCoversFieldsUnderWidenedObject(t *testing.T) {
	records := parseAll(
		`{"id":1,"x":{"k":1,"y":{"a":1,"b":2,"c":3,"d":4}}}`,
		`{"id":2,"x":{"id":9,"y":{"a":1}}}`,
	)
	plan, err := melt.BuildPlan(records, melt.DefaultConfig())
	require.NoError(t, err)

	rule, ok := plan.Rule(melt.Path{"x"})
	require.True(t, ok)
	assert.Equal(t, melt.ExtractEntity, rule.Object)

	// the first sample keeps x inline but its y still has to be planned
	rule, ok = plan.Rule(melt.Path{"x", "y"})
	require.True(t, ok)
	assert.Equal(t, melt.ExtractEntity, rule.Object)
	_, ok = plan.Rule(melt.Path{"x", "y", "d"})
	assert.True(t, ok)

	planned, err := melt.NewPlanned(plan)
	require.NoError(t, err)

	first, err := planned.Melt(records[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root_x", "root_x_y"}, typesOf(first))
	assert.Equal(t, `{"id":1}`, dataOf(first[0]))
	assert.Equal(t, `{"k":1,"x_id":"1"}`, dataOf(first[1]))
	assert.Equal(t, `{"a":1,"b":2,"c":3,"d":4,"y_id":"_gen_1"}`, dataOf(first[2]))

	second, err := planned.Melt(records[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root_x", "root_x_y"}, typesOf(second))
	assert.Equal(t, "9", second[1].ID.Value)
	assert.Equal(t, `{"a":1,"y_id":"9"}`, dataOf(second[2]))

	assert.Zero(t, planned.Stats().PlanFallbacks)

	// live melting of the first sample keeps x, and so y, inline
	live, err := melt.New(melt.DefaultConfig())
	require.NoError(t, err)
	got, err := live.Melt(records[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, typesOf(got))
}

func TestPlanOmitsFieldsUnderInlinePaths(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(
		`{"meta":{"a":1}}`,
		`{"meta":{"b":{"c":1}}}`,
	), melt.DefaultConfig())
	require.NoError(t, err)

	_, ok := plan.Rule(melt.Path{"meta"})
	assert.True(t, ok)
	_, ok = plan.Rule(melt.Path{"meta", "a"})
	assert.False(t, ok)
	_, ok = plan.Rule(melt.Path{"meta", "b", "c"})
	assert.False(t, ok)
	assert.Equal(t, 1, plan.Len())
}

func TestPlanCoversObjectsInsideScalarArrays(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(
		`{"items":[1,{"id":5,"n":1}]}`,
		`{"items":[{"id":6,"n":2}]}`,
	), melt.DefaultConfig())
	require.NoError(t, err)

	rule, ok := plan.Rule(melt.Path{"items"})
	require.True(t, ok)
	assert.Equal(t, melt.ExtractArrayOfEntities, rule.Array)
	assert.Equal(t, melt.NewShapeSet(jsonvalue.ShapeArray), rule.Shapes)
	_, ok = plan.Rule(melt.Path{"items", "n"})
	assert.True(t, ok)
}

func TestPlanWidensObjectDecision(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(
		`{"meta":{"a":1}}`,
		`{"meta":{"a":1,"b":2,"c":3,"d":4}}`,
	), melt.DefaultConfig())
	require.NoError(t, err)

	rule, ok := plan.Rule(melt.Path{"meta"})
	require.True(t, ok)
	assert.Equal(t, melt.ExtractEntity, rule.Object)

	m, err := melt.NewPlanned(plan)
	require.NoError(t, err)
	entities, err := m.Melt(jsonvalue.MustParse(`{"meta":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root_meta"}, typesOf(entities))
	assert.Equal(t, `{"a":1,"meta_id":"_gen_1"}`, dataOf(entities[1]))
}

func TestPlanWidensArrayDecision(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(
		`{"xs":[1,2]}`,
		`{"xs":[{"a":1}]}`,
	), melt.DefaultConfig())
	require.NoError(t, err)

	rule, ok := plan.Rule(melt.Path{"xs"})
	require.True(t, ok)
	assert.Equal(t, melt.ExtractArrayOfEntities, rule.Array)

	m, err := melt.NewPlanned(plan)
	require.NoError(t, err)
	entities, err := m.Melt(jsonvalue.MustParse(`{"xs":[1,2]}`))
	require.NoError(t, err)
	require.Len(t, entities, 3)
	assert.Equal(t, `{"value":1,"xs_id":"_gen_1"}`, dataOf(entities[1]))
	assert.Equal(t, `{"value":2,"xs_id":"_gen_1"}`, dataOf(entities[2]))
}

func TestPlanFallsBackOnUnknownPath(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(`{"a":1}`), melt.DefaultConfig())
	require.NoError(t, err)

	m, err := melt.NewPlanned(plan)
	require.NoError(t, err)
	entities, err := m.Melt(jsonvalue.MustParse(`{"a":1,"fresh":{"id":7}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root_fresh"}, typesOf(entities))

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.PlanHits)
	// "/fresh" and "/fresh/id" are both unknown
	assert.Equal(t, uint64(2), stats.PlanFallbacks)
}

func TestPlanFallsBackOnUnseenShape(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(`{"v":"text"}`), melt.DefaultConfig())
	require.NoError(t, err)

	m, err := melt.NewPlanned(plan)
	require.NoError(t, err)
	entities, err := m.Melt(jsonvalue.MustParse(`{"v":{"id":1}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root_v"}, typesOf(entities))
	assert.Equal(t, uint64(2), m.Stats().PlanFallbacks)
}

func TestPlanRespectsDepthBound(t *testing.T) {
	cfg := melt.DefaultConfig()
	cfg.MaxDepth = 1
	plan, err := melt.BuildPlan(parseAll(`{"items":[{"sub":[{"x":1}]}]}`), cfg)
	require.NoError(t, err)

	_, ok := plan.Rule(melt.Path{"items", "sub"})
	require.True(t, ok)
	_, ok = plan.Rule(melt.Path{"items", "sub", "x"})
	assert.False(t, ok)
	assert.Equal(t, []string{"root", "root_items"}, plan.EntityTypes())
}

func TestPlanFileRoundTrip(t *testing.T) {
	cfg := melt.DefaultConfig().WithScalarFields("raw")
	plan, err := melt.BuildPlan(parseAll(
		`{"id":1,"raw":{"id":2},"a/b":{"id":3,"c~d":[1]},"tags":["x"],"empty":[]}`,
		`{"id":2,"tags":[{"k":1}],"empty":null}`,
	), cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, melt.WritePlan(&buf, plan))
	assert.Contains(t, buf.String(), "/a~1b/c~0d")

	loaded, err := melt.ReadPlan(&buf)
	require.NoError(t, err)
	assert.Equal(t, plan.Samples(), loaded.Samples())
	assert.Equal(t, plan.Config(), loaded.Config())
	assert.Equal(t, plan.Rules(), loaded.Rules())
}

func TestReadPlanRejectsInconsistentPlans(t *testing.T) {
	header := "version: 1\nsamples: 1\nconfig:\n  max_depth: 10\n  fk_prefix: \"\"\n  id_suffix: _id\n  separator: _\n  include_parent_ids: true\n  sample_size: 100\nrules:\n"
	cases := map[string]string{
		"orphan rule":         "  - path: /a/b\n    shapes: [string]\n",
		"decision shape miss": "  - path: /a\n    shapes: [string]\n    object: extract_entity\n",
		"wrong family":        "  - path: /a\n    shapes: [object]\n    object: extract_array_of_scalars\n",
		"unknown decision":    "  - path: /a\n    shapes: [object]\n    object: explode\n",
		"unknown shape":       "  - path: /a\n    shapes: [blob]\n",
		"no shapes":           "  - path: /a\n",
		"duplicate":           "  - path: /a\n    shapes: [string]\n  - path: /a\n    shapes: [number]\n",
	}
	for name, rules := range cases {
		_, err := melt.ReadPlan(strings.NewReader(header + rules))
		assert.True(t, errors.Is(err, melt.ErrInconsistentPlan), "%s: %v", name, err)
	}

	_, err := melt.ReadPlan(strings.NewReader(strings.Replace(header, "samples: 1", "samples: 0", 1)))
	assert.True(t, errors.Is(err, melt.ErrEmptyPlan))

	_, err = melt.ReadPlan(strings.NewReader(strings.Replace(header, "separator: _", "separator: \"\"", 1)))
	assert.True(t, errors.Is(err, melt.ErrInvalidConfig))
}

func TestPlanDescribe(t *testing.T) {
	plan, err := melt.BuildPlan(parseAll(`{"id":1,"posts":[{"id":2}]}`), melt.DefaultConfig())
	require.NoError(t, err)

	lines := plan.Describe()
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "3 rules from 1 samples")
	assert.Contains(t, strings.Join(lines, "\n"), "array=extract_array_of_entities")
}

func TestPathEscaping(t *testing.T) {
	p := melt.Path{"a/b", "c~d"}
	assert.Equal(t, "/a~1b/c~0d", p.String())

	back, err := melt.ParsePath(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = melt.ParsePath("/a~2")
	assert.Error(t, err)
	_, err = melt.ParsePath("a")
	assert.Error(t, err)
	assert.Equal(t, "", melt.Path{}.String())
}

func TestClassify(t *testing.T) {
	cfg := melt.DefaultConfig()
	cases := []struct {
		text  string
		depth int
		want  melt.Decision
	}{
		{`1`, 1, melt.Inline},
		{`null`, 1, melt.Inline},
		{`[]`, 1, melt.Inline},
		{`[1,2]`, 1, melt.ExtractArrayOfScalars},
		{`[{"a":1},2]`, 1, melt.ExtractArrayOfScalars},
		{`[{"a":1},{}]`, 1, melt.ExtractArrayOfEntities},
		{`{"id":1}`, 1, melt.ExtractEntity},
		{`{"a":1,"b":2,"c":3}`, 1, melt.Inline},
		{`{"a":1,"b":2,"c":3,"d":4}`, 1, melt.ExtractEntity},
		{`{"id":1}`, 11, melt.Inline},
	}
	for _, c := range cases {
		got := melt.Classify(jsonvalue.MustParse(c.text), melt.Path{"f"}, c.depth, cfg)
		assert.Equal(t, c.want, got, c.text)
	}

	forced := cfg.WithScalarFields("f")
	assert.Equal(t, melt.Inline, melt.Classify(jsonvalue.MustParse(`{"id":1}`), melt.Path{"f"}, 1, forced))
}

func TestDecisionNames(t *testing.T) {
	for _, d := range []melt.Decision{melt.Inline, melt.ExtractEntity, melt.ExtractArrayOfEntities, melt.ExtractArrayOfScalars} {
		back, err := melt.ParseDecision(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}
	_, err := melt.ParseDecision("melt")
	assert.Error(t, err)
}

func TestForeignKeyName(t *testing.T) {
	cfg := melt.DefaultConfig()
	assert.Equal(t, "posts_id", cfg.ForeignKeyName("posts"))

	cfg.IDSuffix = "id"
	assert.Equal(t, "posts_id", cfg.ForeignKeyName("posts"))

	cfg.FKPrefix = "parent_"
	assert.Equal(t, "parent_posts_id", cfg.ForeignKeyName("posts"))
}
