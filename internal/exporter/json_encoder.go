package exporter

import (
	"encoding/json"
	"io"
	"strconv"

	"sheetstream/internal/sheet"
)

// JSONBackend implements Backend for JSON Lines.
// Each row becomes one line: an object keyed by Options.Columns when columns
// are configured, otherwise an array.
type JSONBackend struct {
	columns []string
	line    []byte
}

// NewJSONBackend creates a JSON Lines backend.
func NewJSONBackend() *JSONBackend {
	return &JSONBackend{}
}

// ContentType implements Backend.
func (b *JSONBackend) ContentType() string {
	return ContentTypeJSONL
}

// Open captures the column names. JSON Lines has no preamble.
func (b *JSONBackend) Open(_ io.Writer, opts Options) error {
	b.columns = opts.Columns
	return nil
}

func (b *JSONBackend) WriteRow(sink io.Writer, row sheet.Row) error {
	var payload any
	if len(b.columns) > 0 {
		obj := make(map[string]any, row.Len())
		for i := 0; i < row.Len(); i++ {
			obj[b.columnName(i)] = jsonValue(row.Cell(i))
		}
		payload = obj
	} else {
		arr := make([]any, row.Len())
		for i := 0; i < row.Len(); i++ {
			arr[i] = jsonValue(row.Cell(i))
		}
		payload = arr
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.line = append(append(b.line[:0], data...), '\n')
	_, err = sink.Write(b.line)
	return err
}

func (b *JSONBackend) Close(io.Writer) error {
	return nil
}

func (b *JSONBackend) columnName(i int) string {
	if i < len(b.columns) {
		return b.columns[i]
	}
	return "column_" + strconv.Itoa(i+1)
}

func jsonValue(c sheet.Cell) any {
	switch c.Type() {
	case sheet.CellEmpty:
		return nil
	case sheet.CellNumber, sheet.CellBoolean:
		return c.Value()
	default:
		return c.Text()
	}
}
