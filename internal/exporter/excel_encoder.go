package exporter

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sheetstream/internal/sheet"
)

// ExcelMaxRows is the hard row limit of a single worksheet.
const ExcelMaxRows = 1048576

// ErrRowLimit is returned once a worksheet cannot take another row.
var ErrRowLimit = errors.New("excel row limit exceeded (1,048,576 rows)")

// ExcelBackend implements Backend for Excel (.xlsx) files.
// It uses excelize.StreamWriter so rows are not kept as a DOM; the workbook
// is only serialized to the sink on Close.
type ExcelBackend struct {
	f      *excelize.File
	sw     *excelize.StreamWriter
	opts   Options
	rowIdx int
	styles map[sheet.Style]int
}

// NewExcelBackend creates an xlsx backend.
func NewExcelBackend() *ExcelBackend {
	return &ExcelBackend{}
}

// ContentType implements Backend.
func (b *ExcelBackend) ContentType() string {
	return ContentTypeXLSX
}

// Open creates the workbook and its stream writer. Nothing is written to the sink yet.
func (b *ExcelBackend) Open(_ io.Writer, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	f := excelize.NewFile()
	if opts.SheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", opts.SheetName); err != nil {
			_ = f.Close()
			return fmt.Errorf("rename sheet: %w", err)
		}
	}
	sw, err := f.NewStreamWriter(opts.SheetName)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("create stream writer: %w", err)
	}

	b.f = f
	b.sw = sw
	b.opts = opts
	b.rowIdx = 1
	b.styles = make(map[sheet.Style]int)
	return nil
}

// WriteRow appends the row to the worksheet. Empty rows still take a row index.
func (b *ExcelBackend) WriteRow(_ io.Writer, row sheet.Row) error {
	if b.sw == nil {
		return errors.New("excel backend not opened")
	}
	if b.rowIdx > ExcelMaxRows {
		return ErrRowLimit
	}

	values := make([]interface{}, row.Len())
	for i := 0; i < row.Len(); i++ {
		values[i] = b.cellValue(row.Cell(i))
	}

	var rowOpts []excelize.RowOpts
	if st := row.Style(); st != nil {
		id, err := b.styleID(*st)
		if err != nil {
			return err
		}
		rowOpts = append(rowOpts, excelize.RowOpts{StyleID: id})
	}

	cell, err := excelize.CoordinatesToCellName(1, b.rowIdx)
	if err != nil {
		return err
	}
	if err := b.sw.SetRow(cell, values, rowOpts...); err != nil {
		return err
	}

	b.rowIdx++
	return nil
}

// Close flushes the stream writer and serializes the workbook to the sink.
func (b *ExcelBackend) Close(sink io.Writer) error {
	if b.f == nil {
		return nil
	}
	defer func() {
		_ = b.f.Close()
		b.f = nil
		b.sw = nil
	}()

	if err := b.sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}
	if err := b.f.Write(sink); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (b *ExcelBackend) cellValue(c sheet.Cell) interface{} {
	switch c.Type() {
	case sheet.CellEmpty:
		return nil
	case sheet.CellString:
		s := c.Text()
		if b.opts.FormulaGuard {
			s = guardFormula(s)
		}
		return s
	case sheet.CellError:
		return c.Text()
	default:
		// numbers and booleans are stored natively
		return c.Value()
	}
}

func (b *ExcelBackend) styleID(st sheet.Style) (int, error) {
	if id, ok := b.styles[st]; ok {
		return id, nil
	}
	style := &excelize.Style{}
	if st.FontBold {
		style.Font = &excelize.Font{Bold: true}
	}
	if st.Format != "" {
		format := st.Format
		style.CustomNumFmt = &format
	}
	id, err := b.f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	b.styles[st] = id
	return id, nil
}
