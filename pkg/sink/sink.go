/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sink.go
Description: Entity sinks. A sink receives the entities of one record at a time, in
emission order. File, stream and in-memory sinks are provided.
*/

package sink

import (
	"github.com/kleascm/furnace/pkg/melt"
)

// Sink consumes melted entities
type Sink interface {
	// WriteEntities receives every entity of one record, in emission order
	WriteEntities(entities []melt.Entity) error
	// Flush pushes buffered output to its destination
	Flush() error
	// Close flushes and releases resources
	Close() error
}

// MemorySink keeps every batch in memory
type MemorySink struct {
	Batches [][]melt.Entity
	closed  bool
}

// NewMemorySink creates an empty MemorySink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// WriteEntities implements Sink
func (s *MemorySink) WriteEntities(entities []melt.Entity) error {
	if s.closed {
		return ErrClosed
	}
	batch := make([]melt.Entity, len(entities))
	copy(batch, entities)
	s.Batches = append(s.Batches, batch)
	return nil
}

// Flush implements Sink
func (s *MemorySink) Flush() error { return nil }

// Close implements Sink
func (s *MemorySink) Close() error {
	s.closed = true
	return nil
}

// Entities returns every collected entity in order
func (s *MemorySink) Entities() []melt.Entity {
	var out []melt.Entity
	for _, batch := range s.Batches {
		out = append(out, batch...)
	}
	return out
}

// ByType groups collected entities by type, preserving order within each type
func (s *MemorySink) ByType() map[string][]melt.Entity {
	out := make(map[string][]melt.Entity)
	for _, e := range s.Entities() {
		out[e.Type] = append(out[e.Type], e)
	}
	return out
}
