// Package parquetout writes and reads assessment exports as Parquet.
package parquetout

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/nephtrends/internal/model"
)

const defaultBatch = 256

// Writer buffers assessment rows and flushes them to a Parquet file.
type Writer struct {
	file   *os.File
	writer *parquet.GenericWriter[model.AssessmentRow]
	buf    []model.AssessmentRow
	rows   int64
}

// Create truncates path and returns a Writer for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	w := parquet.NewGenericWriter[model.AssessmentRow](f,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata("producer", "nephtrends"),
	)
	return &Writer{file: f, writer: w, buf: make([]model.AssessmentRow, 0, defaultBatch)}, nil
}

// Write flattens a and queues it for output.
func (w *Writer) Write(a *model.Assessment) error {
	w.buf = append(w.buf, model.AssessmentRowFrom(a))
	if len(w.buf) >= defaultBatch {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	n, err := w.writer.Write(w.buf)
	w.rows += int64(n)
	w.buf = w.buf[:0]
	if err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}

// Rows returns the number of rows handed to the Parquet encoder so far.
func (w *Writer) Rows() int64 {
	return w.rows + int64(len(w.buf))
}

// Close flushes pending rows, writes the footer and closes the file.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

// ReadAll loads every row of an assessment export.
func ReadAll(path string) ([]model.AssessmentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[model.AssessmentRow](pf)
	defer r.Close()

	out := make([]model.AssessmentRow, 0, r.NumRows())
	buf := make([]model.AssessmentRow, defaultBatch)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
}
