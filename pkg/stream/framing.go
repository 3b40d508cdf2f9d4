/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: framing.go
Description: Record framing. Splits a byte stream into JSON records without holding more
than one record in memory: NDJSON lines, elements of a top-level array, or one document.
*/

package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kleascm/furnace/pkg/jsonvalue"
)

// Framing selects how records are delimited
type Framing int

const (
	// FramingAuto picks Array when the first non-space byte is '[' and Lines otherwise.
	// A complete value on the first line followed by more lines is read as Lines.
	FramingAuto Framing = iota
	FramingArray
	FramingLines
	FramingDocument
)

// String returns the framing name
func (f Framing) String() string {
	switch f {
	case FramingArray:
		return "array"
	case FramingLines:
		return "ndjson"
	case FramingDocument:
		return "document"
	default:
		return "auto"
	}
}

// ParseFraming converts a framing name
func ParseFraming(name string) (Framing, error) {
	switch name {
	case "", "auto":
		return FramingAuto, nil
	case "array":
		return FramingArray, nil
	case "ndjson", "jsonl", "lines":
		return FramingLines, nil
	case "document", "single":
		return FramingDocument, nil
	default:
		return FramingAuto, fmt.Errorf("unknown framing %q", name)
	}
}

// RecordReader yields one record at a time and io.EOF at the end.
// A non-terminal *MalformedInputError may be skipped by the caller.
type RecordReader interface {
	Next() (jsonvalue.Value, error)
}

const readBufferSize = 64 * 1024

// NewRecordReader frames r. The resolved framing is returned for FramingAuto.
func NewRecordReader(r io.Reader, framing Framing) (RecordReader, Framing, error) {
	br := bufio.NewReaderSize(r, readBufferSize)

	if framing == FramingAuto {
		framing = FramingLines
		lead, err := peekNonSpace(br)
		if err != nil && err != io.EOF {
			return nil, framing, err
		}
		if lead == '[' && !firstLineIsRecord(br) {
			framing = FramingArray
		}
	}

	switch framing {
	case FramingArray:
		return &arrayReader{dec: jsonvalue.NewDecoder(br)}, framing, nil
	case FramingLines:
		return &lineReader{r: br}, framing, nil
	case FramingDocument:
		return &documentReader{dec: jsonvalue.NewDecoder(br)}, framing, nil
	default:
		return nil, framing, fmt.Errorf("unsupported framing %d", framing)
	}
}

// peekNonSpace returns the first non-whitespace byte without consuming anything
func peekNonSpace(br *bufio.Reader) (byte, error) {
	return peekNonSpaceFrom(br, 0)
}

// peekNonSpaceFrom is peekNonSpace starting off bytes into the buffered input
func peekNonSpaceFrom(br *bufio.Reader, off int) (byte, error) {
	for n := off + 1; ; n++ {
		buf, err := br.Peek(n)
		if len(buf) < n {
			if err == nil || errors.Is(err, bufio.ErrBufferFull) {
				err = io.EOF
			}
			return 0, err
		}
		switch c := buf[n-1]; c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return c, nil
		}
	}
}

// firstLineIsRecord reports whether the input opens with a complete JSON value on its
// own line followed by more data. That is NDJSON whose first record is an array, not a
// top-level array split over several lines.
func firstLineIsRecord(br *bufio.Reader) bool {
	for n := 1; ; n = min(n*2, br.Size()) {
		buf, err := br.Peek(n)
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			if _, perr := jsonvalue.Parse(bytes.TrimSpace(buf[:i])); perr != nil {
				return false
			}
			_, err := peekNonSpaceFrom(br, i+1)
			return err == nil
		}
		if err != nil || n >= br.Size() {
			return false
		}
	}
}

type lineReader struct {
	r      *bufio.Reader
	line   int
	record int
}

func (l *lineReader) Next() (jsonvalue.Value, error) {
	for {
		raw, err := l.r.ReadBytes('\n')
		if len(raw) == 0 && err != nil {
			return jsonvalue.Value{}, err
		}
		l.line++
		text := bytes.TrimSpace(raw)
		if len(text) == 0 {
			if err != nil {
				return jsonvalue.Value{}, err
			}
			continue
		}
		l.record++
		v, perr := jsonvalue.Parse(text)
		if perr != nil {
			return jsonvalue.Value{}, &MalformedInputError{Record: l.record, Line: l.line, Err: perr}
		}
		return v, nil
	}
}

type arrayReader struct {
	dec     *json.Decoder
	started bool
	done    bool
	record  int
	failed  error
}

func (a *arrayReader) Next() (jsonvalue.Value, error) {
	if a.failed != nil {
		return jsonvalue.Value{}, a.failed
	}
	if a.done {
		return jsonvalue.Value{}, io.EOF
	}
	if !a.started {
		tok, err := a.dec.Token()
		if err == io.EOF {
			a.done = true
			return jsonvalue.Value{}, io.EOF
		}
		if err != nil {
			return a.fail(err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return a.fail(fmt.Errorf("expected '[' to open the record array, found %v", tok))
		}
		a.started = true
	}

	if !a.dec.More() {
		if _, err := a.dec.Token(); err != nil {
			return a.fail(err)
		}
		if _, err := a.dec.Token(); err != io.EOF {
			return a.fail(errors.New("unexpected data after the record array"))
		}
		a.done = true
		return jsonvalue.Value{}, io.EOF
	}

	a.record++
	v, err := jsonvalue.Decode(a.dec)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return a.fail(err)
	}
	return v, nil
}

func (a *arrayReader) fail(err error) (jsonvalue.Value, error) {
	a.failed = &MalformedInputError{Record: a.record, Err: err, Terminal: true}
	return jsonvalue.Value{}, a.failed
}

type documentReader struct {
	dec  *json.Decoder
	done bool
}

func (d *documentReader) Next() (jsonvalue.Value, error) {
	if d.done {
		return jsonvalue.Value{}, io.EOF
	}
	d.done = true
	v, err := jsonvalue.Decode(d.dec)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return jsonvalue.Value{}, &MalformedInputError{Record: 1, Err: err, Terminal: true}
	}
	if _, err := d.dec.Token(); err != io.EOF {
		return jsonvalue.Value{}, &MalformedInputError{Record: 1, Err: errors.New("unexpected data after the document"), Terminal: true}
	}
	return v, nil
}
