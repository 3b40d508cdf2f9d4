/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sink_test.go
Description: Tests for the file, stream and memory sinks.
*/

package sink_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meltRecord(t *testing.T, text string) []melt.Entity {
	t.Helper()
	m, err := melt.New(melt.DefaultConfig())
	require.NoError(t, err)
	entities, err := m.Melt(jsonvalue.MustParse(text))
	require.NoError(t, err)
	return entities
}

func TestFileSinkWritesOneFilePerType(t *testing.T) {
	dir := t.TempDir()
	s, err := sink.NewFileSink(dir)
	require.NoError(t, err)

	require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":1,"posts":[{"id":10},{"id":11}]}`)))
	require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":2,"posts":[{"id":12}]}`)))
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"root", "root_posts"}, s.Types())

	root, err := os.ReadFile(filepath.Join(dir, "root.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", string(root))

	posts, err := os.ReadFile(filepath.Join(dir, "root_posts.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(posts)), "\n")
	assert.Equal(t, []string{`{"id":10,"posts_id":"1"}`, `{"id":11,"posts_id":"1"}`, `{"id":12,"posts_id":"2"}`}, lines)

	assert.True(t, errors.Is(s.WriteEntities(nil), sink.ErrClosed))
}

func TestFileSinkAppends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		s, err := sink.NewFileSink(dir)
		require.NoError(t, err)
		require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":1}`)))
		require.NoError(t, s.Close())
	}
	root, err := os.ReadFile(filepath.Join(dir, "root.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":1}\n", string(root))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "root_posts.jsonl", sink.FileName("root_posts"))
	assert.Equal(t, "root_a_b.jsonl", sink.FileName("root/a b"))
	assert.Equal(t, "_.jsonl", sink.FileName(".."))
	assert.Equal(t, "root.a.jsonl", sink.FileName("root.a"))
}

func TestStreamSinkTagsEntities(t *testing.T) {
	var buf bytes.Buffer
	s := sink.NewStreamSink(&buf)
	require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":1,"tags":["x"]}`)))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"id":1,"_entity_type":"root","_entity_id":"1","_parent_type":null,"_parent_id":null,"_parent_field":null}`, lines[0])
	assert.Equal(t, `{"value":"x","_idx":0,"tags_id":"1","_entity_type":"root_tags","_entity_id":"_gen_1","_parent_type":"root","_parent_id":"1","_parent_field":"tags"}`, lines[1])
}

func TestStreamSinkDoesNotMutateEntities(t *testing.T) {
	entities := meltRecord(t, `{"id":1}`)
	s := sink.NewStreamSink(&bytes.Buffer{})
	require.NoError(t, s.WriteEntities(entities))
	assert.Equal(t, 1, entities[0].Data.Len())
}

func TestMemorySink(t *testing.T) {
	s := sink.NewMemorySink()
	require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":1,"posts":[{"id":2}]}`)))
	require.NoError(t, s.WriteEntities(meltRecord(t, `{"id":3}`)))
	require.NoError(t, s.Flush())

	assert.Len(t, s.Batches, 2)
	assert.Len(t, s.Entities(), 3)
	assert.Len(t, s.ByType()["root"], 2)

	require.NoError(t, s.Close())
	assert.True(t, errors.Is(s.WriteEntities(nil), sink.ErrClosed))
}
