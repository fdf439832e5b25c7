package exporter

import (
	"errors"
	"io"

	"github.com/go-pdf/fpdf"

	"sheetstream/internal/sheet"
)

const pdfRowHeight = 7.0

// PDFBackend implements Backend as a simple grid table.
// WARNING: the whole document is held in memory until Close.
type PDFBackend struct {
	pdf     *fpdf.Fpdf
	columns int
}

// NewPDFBackend creates a PDF backend.
func NewPDFBackend() *PDFBackend {
	return &PDFBackend{}
}

// ContentType implements Backend.
func (b *PDFBackend) ContentType() string {
	return ContentTypePDF
}

// Open starts a landscape A4 document. When columns are configured they are
// drawn as a bold header and fix the column count for every row.
func (b *PDFBackend) Open(_ io.Writer, opts Options) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 10)
	pdf.AddPage()
	b.pdf = pdf
	b.columns = len(opts.Columns)

	if b.columns > 0 {
		b.drawRow(opts.Columns, true, "C")
	}
	return pdf.Error()
}

func (b *PDFBackend) WriteRow(_ io.Writer, row sheet.Row) error {
	if b.pdf == nil {
		return errors.New("pdf backend not opened")
	}
	if row.Len() == 0 {
		b.pdf.Ln(pdfRowHeight)
		return b.pdf.Error()
	}
	bold := false
	if st := row.Style(); st != nil {
		bold = st.FontBold
	}
	b.drawRow(row.Values(), bold, "L")
	return b.pdf.Error()
}

// Close renders the document to the sink.
func (b *PDFBackend) Close(sink io.Writer) error {
	if b.pdf == nil {
		return nil
	}
	defer func() { b.pdf = nil }()
	return b.pdf.Output(sink)
}

func (b *PDFBackend) drawRow(values []string, bold bool, align string) {
	cols := b.columns
	if cols == 0 {
		cols = len(values)
	}
	pageWidth, _ := b.pdf.GetPageSize()
	left, _, right, _ := b.pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(cols)

	if bold {
		b.pdf.SetFont("Arial", "B", 10)
		defer b.pdf.SetFont("Arial", "", 10)
	}

	tr := b.pdf.UnicodeTranslatorFromDescriptor("")
	for i := 0; i < cols; i++ {
		text := ""
		if i < len(values) {
			text = fitText(b.pdf, tr(values[i]), colWidth-2)
		}
		b.pdf.CellFormat(colWidth, pdfRowHeight, text, "1", 0, align, false, 0, "")
	}
	b.pdf.Ln(-1)
}

// fitText truncates s so it fits in width millimetres.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > width {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
