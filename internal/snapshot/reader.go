// Package snapshot streams patient documents out of a document-store export.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/nephtrends/internal/model"
)

// Format is the layout of an export file.
type Format string

const (
	FormatArray  Format = "json-array"
	FormatNDJSON Format = "ndjson"
)

// DocumentError reports a single document that could not be decoded into a
// PatientRecord. The stream stays usable after a DocumentError.
type DocumentError struct {
	Index int64
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %d: %v", e.Index, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Reader decodes one patient document at a time. Documents are counted from 1.
type Reader struct {
	closer io.Closer
	dec    *json.Decoder
	format Format
	index  int64
	done   bool
}

// Open opens an export file. The layout is detected from the first
// non-whitespace byte: '[' means a JSON array, anything else NDJSON.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader wraps an already-open stream.
func NewReader(rd io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(rd, 1<<16)
	first, err := peekNonSpace(br)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	r := &Reader{dec: json.NewDecoder(br), format: FormatNDJSON}
	if first == '[' {
		r.format = FormatArray
		if _, err := r.dec.Token(); err != nil {
			return nil, fmt.Errorf("read array start: %w", err)
		}
	}
	if err == io.EOF {
		r.done = true
	}
	return r, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := br.Discard(1); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}

// Format reports the detected layout.
func (r *Reader) Format() Format { return r.format }

// Next returns the next document. It returns io.EOF after the last one, a
// *DocumentError for a well-formed JSON value that is not a patient
// document, and any other error when the stream itself is broken.
func (r *Reader) Next() (*model.PatientRecord, json.RawMessage, error) {
	if r.done {
		return nil, nil, io.EOF
	}
	if r.format == FormatArray && !r.dec.More() {
		r.done = true
		if _, err := r.dec.Token(); err != nil {
			return nil, nil, fmt.Errorf("read array end: %w", err)
		}
		return nil, nil, io.EOF
	}

	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) && r.format == FormatNDJSON {
			r.done = true
			return nil, nil, io.EOF
		}
		r.done = true
		return nil, nil, fmt.Errorf("decode document %d: %w", r.index+1, err)
	}
	r.index++

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, raw, &DocumentError{Index: r.index, Err: errors.New("not a JSON object")}
	}
	var rec model.PatientRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, raw, &DocumentError{Index: r.index, Err: err}
	}
	return &rec, raw, nil
}

// Index is the 1-based position of the last document returned by Next.
func (r *Reader) Index() int64 { return r.index }

// Close releases the underlying file, if Open created it.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll decodes every document in path. Documents that fail to decode are
// returned as errors alongside the good ones.
func ReadAll(path string) ([]*model.PatientRecord, []error, error) {
	r, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	var (
		recs    []*model.PatientRecord
		docErrs []error
	)
	for {
		rec, _, err := r.Next()
		if err == io.EOF {
			return recs, docErrs, nil
		}
		var de *DocumentError
		if errors.As(err, &de) {
			docErrs = append(docErrs, de)
			continue
		}
		if err != nil {
			return recs, docErrs, err
		}
		recs = append(recs, rec)
	}
}
