package writer

import (
	"sheetstream/internal/exporter"
	"sheetstream/internal/storage"
)

type settings struct {
	backend  exporter.Options
	storage  storage.Provider
	compress bool
}

func defaultSettings() *settings {
	return &settings{
		backend: exporter.DefaultOptions(),
		storage: storage.NewLocalProvider(""),
	}
}

// Option configures a Writer. Options are applied once, at construction.
type Option func(*settings)

// WithDelimiter sets the field delimiter of text formats (default ',').
func WithDelimiter(r rune) Option {
	return func(s *settings) { s.backend.Delimiter = r }
}

// WithEnclosure sets the field enclosure of text formats (default '"').
func WithEnclosure(r rune) Option {
	return func(s *settings) { s.backend.Enclosure = r }
}

// WithBOM controls the UTF-8 byte order mark of text formats (default true).
func WithBOM(enabled bool) Option {
	return func(s *settings) { s.backend.BOM = enabled }
}

// WithCRLF terminates text records with \r\n.
func WithCRLF(enabled bool) Option {
	return func(s *settings) { s.backend.UseCRLF = enabled }
}

// WithFormulaGuard prefixes text that a spreadsheet would evaluate with a quote.
func WithFormulaGuard(enabled bool) Option {
	return func(s *settings) { s.backend.FormulaGuard = enabled }
}

// WithSheetName names the worksheet of workbook formats (default "Sheet1").
func WithSheetName(name string) Option {
	return func(s *settings) { s.backend.SheetName = name }
}

// WithColumns names the columns for formats that key values by column.
func WithColumns(columns ...string) Option {
	return func(s *settings) {
		s.backend.Columns = append([]string(nil), columns...)
	}
}

// WithStorage sets where destinations are created (default: local filesystem).
func WithStorage(p storage.Provider) Option {
	return func(s *settings) { s.storage = p }
}

// WithCompression gzips the output stream.
func WithCompression(enabled bool) Option {
	return func(s *settings) { s.compress = enabled }
}
