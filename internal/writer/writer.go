package writer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/gzip"

	"sheetstream/internal/exporter"
	"sheetstream/internal/sheet"
)

// FlushThreshold is the number of rows between forced flushes of the sink.
const FlushThreshold = 500

// sinkBufferSize is the size of the buffer in front of the destination.
const sinkBufferSize = 64 * 1024

// State is the lifecycle state of a Writer.
type State int

const (
	StateCreated State = iota
	StateOpened
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpened:
		return "opened"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Writer streams rows to a destination through a format backend.
//
// A Writer is not safe for concurrent use. It exclusively owns its
// destination from Open until Close.
type Writer struct {
	backend  exporter.Backend
	settings settings

	state    State
	dest     string
	raw      io.WriteCloser // destination from the storage provider
	gz       *gzip.Writer   // optional compression layer
	sink     *bufio.Writer  // what the backend writes to
	rowCount int
	flushes  int
	err      error
}

// New creates an unopened writer around backend.
func New(backend exporter.Backend, opts ...Option) (*Writer, error) {
	if backend == nil {
		return nil, errors.New("writer: nil backend")
	}
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	if err := s.backend.Validate(); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, errors.New("writer: nil storage provider")
	}
	return &Writer{
		backend:  backend,
		settings: *s,
	}, nil
}

// Open acquires the destination and lets the backend write its preamble.
func (w *Writer) Open(destination string) error {
	return w.OpenContext(context.Background(), destination)
}

// OpenContext is like Open. ctx bounds the acquisition of remote
// destinations and their background upload; it does not cancel AddRow.
func (w *Writer) OpenContext(ctx context.Context, destination string) error {
	switch w.state {
	case StateOpened:
		return ErrAlreadyOpened
	case StateClosed:
		return ErrWriterClosed
	}

	raw, err := w.settings.storage.Create(ctx, destination, w.backend.ContentType())
	if err != nil {
		return w.fail(&IOError{Op: "open", Path: destination, Err: err})
	}
	if raw == nil {
		return w.fail(&IOError{Op: "open", Path: destination, Err: errors.New("storage returned no writer")})
	}

	var out io.Writer = raw
	var gz *gzip.Writer
	if w.settings.compress {
		gz = gzip.NewWriter(raw)
		out = gz
	}
	sink := bufio.NewWriterSize(out, sinkBufferSize)

	if err := w.backend.Open(sink, w.settings.backend); err != nil {
		_ = raw.Close()
		return w.fail(&IOError{Op: "open", Path: destination, Err: err})
	}

	w.dest = destination
	w.raw = raw
	w.gz = gz
	w.sink = sink
	w.rowCount = 0
	w.state = StateOpened
	slog.Debug("Writer opened", "destination", destination, "content_type", w.backend.ContentType())
	return nil
}

// AddRow encodes row. Every FlushThreshold rows the buffered output is
// pushed through to the destination.
func (w *Writer) AddRow(row sheet.Row) error {
	if w.state != StateOpened {
		return ErrWriterNotOpened
	}

	if err := w.backend.WriteRow(w.sink, row); err != nil {
		return w.fail(&IOError{Op: "write", Path: w.dest, Err: err})
	}
	w.rowCount++

	if w.rowCount%FlushThreshold == 0 {
		if err := w.flush(); err != nil {
			return w.fail(&IOError{Op: "flush", Path: w.dest, Err: err})
		}
	}
	return nil
}

// AddRows adds rows in order and stops at the first failure. Rows written
// before the failing one stay in the output.
func (w *Writer) AddRows(rows []sheet.Row) error {
	if w.state != StateOpened {
		return ErrWriterNotOpened
	}
	for i, row := range rows {
		if err := w.AddRow(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Close finishes the output and releases the destination. It is a no-op
// unless the writer is opened, so it is safe to defer unconditionally.
// Failures while finishing are logged and reported by Err; the writer is
// closed either way.
func (w *Writer) Close() {
	if w.state != StateOpened {
		return
	}

	var errs []error
	if err := w.backend.Close(w.sink); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if err := w.sink.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			errs = append(errs, fmt.Errorf("gzip: %w", err))
		}
	}
	if err := w.raw.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		w.fail(&IOError{Op: "close", Path: w.dest, Err: err})
		slog.Error("Writer close failed", "destination", w.dest, "rows", w.rowCount, "error", err)
	} else {
		slog.Debug("Writer closed", "destination", w.dest, "rows", w.rowCount)
	}

	w.rowCount = 0
	w.raw = nil
	w.gz = nil
	w.sink = nil
	w.state = StateClosed
}

// State returns the lifecycle state.
func (w *Writer) State() State {
	return w.state
}

// RowCount returns the number of rows written since Open.
func (w *Writer) RowCount() int {
	return w.rowCount
}

// Flushes returns how many threshold flushes have happened.
func (w *Writer) Flushes() int {
	return w.flushes
}

// Err returns the first error the writer encountered, including failures
// while closing.
func (w *Writer) Err() error {
	return w.err
}

// ContentType returns the MIME type of the backend output.
func (w *Writer) ContentType() string {
	return w.backend.ContentType()
}

// Destination returns the destination passed to Open.
func (w *Writer) Destination() string {
	return w.dest
}

func (w *Writer) flush() error {
	if err := w.sink.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			return err
		}
	}
	w.flushes++
	return nil
}

// fail records err as the first error and returns it.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}
