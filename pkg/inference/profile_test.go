/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: profile_test.go
Description: Tests for the per-path structure profiler.
*/

package inference_test

import (
	"strings"
	"testing"

	"github.com/kleascm/furnace/pkg/inference"
	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileSamplesBasicStructure(t *testing.T) {
	samples := [][]byte{
		[]byte(`{"name": "Alice", "age": 25, "role": "admin", "posts": [{"id": 1}]}`),
		[]byte(`{"name": "Bob", "age": 30, "role": "user", "posts": []}`),
		[]byte(`{"name": "Cy", "role": "user", "posts": [{"id": 2}, {"id": 3, "draft": true}]}`),
	}
	profile, err := inference.ProfileSamples(samples, melt.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Samples)

	age, ok := profile.Lookup(melt.Path{"age"})
	require.True(t, ok)
	assert.Equal(t, 2, age.Present)
	assert.Equal(t, 3, age.Parents)
	assert.True(t, age.Optional())
	require.NotNil(t, age.Min)
	assert.Equal(t, 25.0, *age.Min)
	assert.Equal(t, 30.0, *age.Max)

	role, ok := profile.Lookup(melt.Path{"role"})
	require.True(t, ok)
	assert.False(t, role.Optional())
	assert.Equal(t, []string{"admin", "user"}, role.Enum())

	posts, ok := profile.Lookup(melt.Path{"posts"})
	require.True(t, ok)
	assert.Equal(t, 2, posts.Shapes[jsonvalue.ShapeArray])
	assert.Equal(t, 1, posts.Shapes[jsonvalue.ShapeEmptyArray])
	assert.Equal(t, 2, posts.Decisions[melt.ExtractArrayOfEntities])
	assert.Equal(t, 1, posts.Decisions[melt.Inline])
	assert.Equal(t, 2, posts.MaxLen)

	draft, ok := profile.Lookup(melt.Path{"posts", "draft"})
	require.True(t, ok)
	assert.Equal(t, 1, draft.Present)
	assert.Equal(t, 3, draft.Parents)
}

func TestProfileWalksInlineValues(t *testing.T) {
	profile, err := inference.ProfileSamples([][]byte{[]byte(`{"meta":{"a":{"b":1}}}`)}, melt.DefaultConfig())
	require.NoError(t, err)

	meta, ok := profile.Lookup(melt.Path{"meta"})
	require.True(t, ok)
	assert.Equal(t, 1, meta.Decisions[melt.Inline])

	_, ok = profile.Lookup(melt.Path{"meta", "a", "b"})
	assert.True(t, ok)
}

func TestProfileRejectsBadInput(t *testing.T) {
	_, err := inference.ProfileSamples(nil, melt.DefaultConfig())
	assert.Error(t, err)

	_, err = inference.ProfileSamples([][]byte{[]byte(`{"a":`)}, melt.DefaultConfig())
	assert.Error(t, err)

	cfg := melt.DefaultConfig()
	cfg.MaxDepth = -1
	_, err = inference.NewProfiler(cfg)
	assert.Error(t, err)
}

func TestProfileDescribe(t *testing.T) {
	p, err := inference.NewProfiler(melt.DefaultConfig())
	require.NoError(t, err)
	p.Add(jsonvalue.MustParse(`[{"id":1,"kind":"a"},{"id":2}]`))
	assert.Equal(t, 1, p.Samples())

	lines := p.Profile().Describe()
	require.Len(t, lines, 3)
	assert.Equal(t, "profile: 2 paths from 1 samples", lines[0])
	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "range=1..2")
	assert.Contains(t, text, "enum=a")
	assert.Contains(t, text, "optional")
}
