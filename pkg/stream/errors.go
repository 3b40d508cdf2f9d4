/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Streaming errors. Malformed records are classified as recoverable or
terminal; sink failures are wrapped so callers can tell them from input problems.
*/

package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput matches every *MalformedInputError
	ErrMalformedInput = errors.New("malformed input")

	// ErrPrefixOnly means planned mode could only process the sampled prefix of a
	// non-seekable source
	ErrPrefixOnly = errors.New("source is not seekable: only the sampled prefix was melted")

	// ErrTooManySkipped aborts a run once MaxSkipped is exceeded
	ErrTooManySkipped = errors.New("too many malformed records")

	// ErrNotSeekable is returned by Rewind on sources that cannot restart
	ErrNotSeekable = errors.New("source is not seekable")
)

// MalformedInputError describes a record that could not be parsed.
// Terminal errors end the stream because record boundaries are lost.
type MalformedInputError struct {
	Record   int
	Line     int
	Err      error
	Terminal bool
}

// Error implements the error interface
func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input at record %d: %v", e.Record, e.Err)
}

// Unwrap returns the parse error
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedInput
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// SinkError wraps a failure reported by the sink. Sink errors are not retried.
type SinkError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the sink's error
func (e *SinkError) Unwrap() error {
	return e.Err
}
