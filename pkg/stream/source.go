/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: source.go
Description: Input sources. Regular files and in-memory buffers can be rewound for a
second pass; pipes and stdin cannot.
*/

package stream

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is a named byte stream
type Source interface {
	io.Reader
	Name() string
}

// Rewinder is implemented by sources that can restart from the beginning
type Rewinder interface {
	Rewind() error
}

// Seekable reports whether src can be rewound
func Seekable(src Source) bool {
	if s, ok := src.(interface{ Seekable() bool }); ok {
		return s.Seekable()
	}
	_, ok := src.(Rewinder)
	return ok
}

// FileSource reads a file or stdin
type FileSource struct {
	f       *os.File
	name    string
	regular bool
}

// OpenFile opens path for reading. "-" means stdin.
func OpenFile(path string) (*FileSource, error) {
	if path == "-" || path == "" {
		return Stdin(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	return &FileSource{f: f, name: path, regular: info.Mode().IsRegular()}, nil
}

// Stdin wraps standard input, which is never rewound
func Stdin() *FileSource {
	return &FileSource{f: os.Stdin, name: "stdin"}
}

// Read implements io.Reader
func (s *FileSource) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

// Name implements Source
func (s *FileSource) Name() string {
	return s.name
}

// Seekable reports whether the file is a regular file
func (s *FileSource) Seekable() bool {
	return s.regular
}

// Rewind seeks back to the start of a regular file
func (s *FileSource) Rewind() error {
	if !s.regular {
		return ErrNotSeekable
	}
	_, err := s.f.Seek(0, io.SeekStart)
	return err
}

// Close closes the file. Stdin is left open.
func (s *FileSource) Close() error {
	if s.f == os.Stdin {
		return nil
	}
	return s.f.Close()
}

type readerSource struct {
	io.Reader
	name string
}

func (s *readerSource) Name() string { return s.name }

// FromReader wraps r as a non-seekable source
func FromReader(name string, r io.Reader) Source {
	return &readerSource{Reader: r, name: name}
}

// BytesSource is a rewindable in-memory source
type BytesSource struct {
	*bytes.Reader
	name string
}

// FromBytes wraps data as a rewindable source
func FromBytes(name string, data []byte) *BytesSource {
	return &BytesSource{Reader: bytes.NewReader(data), name: name}
}

// Name implements Source
func (s *BytesSource) Name() string { return s.name }

// Rewind implements Rewinder
func (s *BytesSource) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}
