package exporter

import (
	"io"
	"strings"
	"unicode/utf8"

	"sheetstream/internal/sheet"
)

// utf8BOM is the UTF-8 byte order mark.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVBackend encodes rows as delimiter separated text.
// Fields containing the delimiter, the enclosure or a line break are enclosed
// and every embedded enclosure is doubled.
type CSVBackend struct {
	opts    Options
	record  []byte // reused between rows
	written int
}

// NewCSVBackend creates a text backend.
func NewCSVBackend() *CSVBackend {
	return &CSVBackend{}
}

// ContentType implements Backend.
func (b *CSVBackend) ContentType() string {
	return ContentTypeCSV
}

// Open writes the byte order mark when enabled.
func (b *CSVBackend) Open(sink io.Writer, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	b.opts = opts
	b.written = 0
	if opts.BOM {
		if _, err := sink.Write(utf8BOM); err != nil {
			return err
		}
	}
	return nil
}

// WriteRow builds the whole record in memory and hands it to the sink in one Write.
func (b *CSVBackend) WriteRow(sink io.Writer, row sheet.Row) error {
	b.record = b.appendRecord(b.record[:0], row)
	if _, err := sink.Write(b.record); err != nil {
		return err
	}
	b.written++
	return nil
}

// Close writes no trailer.
func (b *CSVBackend) Close(io.Writer) error {
	b.written = 0
	return nil
}

// Written returns the number of records written since Open.
func (b *CSVBackend) Written() int {
	return b.written
}

func (b *CSVBackend) appendRecord(dst []byte, row sheet.Row) []byte {
	for i := 0; i < row.Len(); i++ {
		if i > 0 {
			dst = utf8.AppendRune(dst, b.opts.Delimiter)
		}
		field := row.Cell(i).Text()
		if b.opts.FormulaGuard && row.Cell(i).Type() == sheet.CellString {
			field = guardFormula(field)
		}
		dst = b.appendField(dst, field)
	}
	if b.opts.UseCRLF {
		return append(dst, '\r', '\n')
	}
	return append(dst, '\n')
}

func (b *CSVBackend) appendField(dst []byte, field string) []byte {
	if !b.needsEnclosure(field) {
		return append(dst, field...)
	}
	enc := string(b.opts.Enclosure)
	dst = append(dst, enc...)
	dst = append(dst, strings.ReplaceAll(field, enc, enc+enc)...)
	return append(dst, enc...)
}

func (b *CSVBackend) needsEnclosure(field string) bool {
	return strings.ContainsRune(field, b.opts.Delimiter) ||
		strings.ContainsRune(field, b.opts.Enclosure) ||
		strings.ContainsAny(field, "\r\n")
}
