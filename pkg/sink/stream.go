/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stream.go
Description: Single-writer sink. Every entity becomes one JSON line carrying its data
followed by routing metadata, so downstream tools can split the stream by type.
*/

package sink

import (
	"bufio"
	"io"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/melt"
)

// Metadata keys appended to every StreamSink line
const (
	MetaEntityType  = "_entity_type"
	MetaEntityID    = "_entity_id"
	MetaParentType  = "_parent_type"
	MetaParentID    = "_parent_id"
	MetaParentField = "_parent_field"
)

// StreamSink writes tagged entities to one writer
type StreamSink struct {
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

// NewStreamSink wraps w. If w is an io.Closer it is closed with the sink.
func NewStreamSink(w io.Writer) *StreamSink {
	s := &StreamSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Tag returns the entity data followed by its routing metadata.
// Root entities carry null parent fields.
func Tag(e melt.Entity) *jsonvalue.Object {
	obj := e.Data.Clone()
	obj.Set(MetaEntityType, jsonvalue.String(e.Type))
	obj.Set(MetaEntityID, jsonvalue.String(e.ID.Value))
	if e.Parent != nil {
		obj.Set(MetaParentType, jsonvalue.String(e.Parent.Type))
		obj.Set(MetaParentID, jsonvalue.String(e.Parent.ID.Value))
		obj.Set(MetaParentField, jsonvalue.String(e.Parent.Field))
	} else {
		obj.Set(MetaParentType, jsonvalue.Null())
		obj.Set(MetaParentID, jsonvalue.Null())
		obj.Set(MetaParentField, jsonvalue.Null())
	}
	return obj
}

// WriteEntities implements Sink
func (s *StreamSink) WriteEntities(entities []melt.Entity) error {
	if s.closed {
		return ErrClosed
	}
	for _, e := range entities {
		line, err := Tag(e).MarshalJSON()
		if err != nil {
			return err
		}
		if _, err := s.w.Write(line); err != nil {
			return err
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements Sink
func (s *StreamSink) Flush() error {
	return s.w.Flush()
}

// Close implements Sink
func (s *StreamSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
