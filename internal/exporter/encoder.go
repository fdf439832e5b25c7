package exporter

import (
	"io"

	"sheetstream/internal/sheet"
)

// Backend encodes rows in one output format. The writer owns the sink and
// hands it to every hook; a backend never keeps a reference to it between calls.
//
// A backend instance serves exactly one writer and is not reused.
type Backend interface {
	// Open may write a format preamble. No row has been presented yet.
	Open(sink io.Writer, opts Options) error

	// WriteRow encodes a single row as one unit. On failure it must not leave
	// bytes that a reader would take for a complete record.
	WriteRow(sink io.Writer, row sheet.Row) error

	// Close writes any trailer. It must succeed for zero rows.
	Close(sink io.Writer) error

	// ContentType is the MIME type of the produced output.
	ContentType() string
}

// MIME types of the built-in backends.
const (
	ContentTypeCSV   = "text/csv; charset=UTF-8"
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeJSONL = "application/x-ndjson"
	ContentTypePDF   = "application/pdf"
)
