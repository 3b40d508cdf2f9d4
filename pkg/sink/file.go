/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: file.go
Description: Directory sink writing one JSON Lines file per entity type. Files are opened
lazily on the first entity of a type and appended to.
*/

package sink

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kleascm/furnace/pkg/melt"
)

type typeFile struct {
	f *os.File
	w *bufio.Writer
}

// FileSink writes <dir>/<entity_type>.jsonl
type FileSink struct {
	dir    string
	files  map[string]*typeFile
	closed bool
}

// NewFileSink creates the directory if needed
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSink{dir: dir, files: make(map[string]*typeFile)}, nil
}

// FileName maps an entity type to its file name.
// Path separators and other unsafe characters become '_'.
func FileName(entityType string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-' || r == '.':
			return r
		default:
			return '_'
		}
	}, entityType)
	if safe == "" || strings.Trim(safe, ".") == "" {
		safe = "_"
	}
	return safe + ".jsonl"
}

func (s *FileSink) fileFor(entityType string) (*typeFile, error) {
	if tf, ok := s.files[entityType]; ok {
		return tf, nil
	}
	path := filepath.Join(s.dir, FileName(entityType))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	tf := &typeFile{f: f, w: bufio.NewWriter(f)}
	s.files[entityType] = tf
	return tf, nil
}

// WriteEntities implements Sink
func (s *FileSink) WriteEntities(entities []melt.Entity) error {
	if s.closed {
		return ErrClosed
	}
	for _, e := range entities {
		tf, err := s.fileFor(e.Type)
		if err != nil {
			return err
		}
		line, err := e.Data.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode %s entity %s: %w", e.Type, e.ID, err)
		}
		if _, err := tf.w.Write(line); err != nil {
			return err
		}
		if err := tf.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements Sink
func (s *FileSink) Flush() error {
	for entityType, tf := range s.files {
		if err := tf.w.Flush(); err != nil {
			return fmt.Errorf("failed to flush %s: %w", entityType, err)
		}
	}
	return nil
}

// Close implements Sink
func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	for _, tf := range s.files {
		if err := tf.w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := tf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Types returns the entity types written so far, sorted
func (s *FileSink) Types() []string {
	types := make([]string, 0, len(s.files))
	for t := range s.files {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
