package exporter

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidOptions is returned when a backend is configured with unusable options.
var ErrInvalidOptions = errors.New("invalid options")

// Options holds configuration shared by all backends. Each backend reads
// the fields it understands and ignores the rest.
type Options struct {
	// Delimiter separates fields in text formats.
	Delimiter rune
	// Enclosure wraps fields that need quoting; it is also its own escape character.
	Enclosure rune
	// BOM writes the UTF-8 byte order mark before the first record.
	BOM bool
	// UseCRLF terminates text records with \r\n instead of \n.
	UseCRLF bool
	// FormulaGuard prefixes text starting with =, +, - or @ with a single quote
	// so spreadsheet applications do not evaluate it.
	FormulaGuard bool
	// SheetName names the worksheet in workbook formats.
	SheetName string
	// Columns names the fields for formats that key values by column.
	Columns []string
}

// DefaultOptions returns the options every backend starts from.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Enclosure: '"',
		BOM:       true,
		SheetName: "Sheet1",
	}
}

// Validate checks that the options can produce an unambiguous encoding.
func (o Options) Validate() error {
	if err := validateSeparator("delimiter", o.Delimiter); err != nil {
		return err
	}
	if err := validateSeparator("enclosure", o.Enclosure); err != nil {
		return err
	}
	if o.Delimiter == o.Enclosure {
		return fmt.Errorf("%w: delimiter and enclosure must differ (both %q)", ErrInvalidOptions, o.Delimiter)
	}
	if o.SheetName == "" {
		return fmt.Errorf("%w: sheet name must not be empty", ErrInvalidOptions)
	}
	return nil
}

func validateSeparator(name string, r rune) error {
	switch {
	case r == 0:
		return fmt.Errorf("%w: %s must be set", ErrInvalidOptions, name)
	case r == '\r' || r == '\n':
		return fmt.Errorf("%w: %s must not be a line break", ErrInvalidOptions, name)
	case r == utf8.RuneError || r >= utf8.RuneSelf:
		return fmt.Errorf("%w: %s must be a single-byte character, got %q", ErrInvalidOptions, name, r)
	}
	return nil
}

// guardFormula applies the formula injection mitigation to s.
func guardFormula(s string) string {
	if len(s) > 0 {
		first := s[0]
		if first == '=' || first == '+' || first == '-' || first == '@' {
			return "'" + s
		}
	}
	return s
}
