package sheet

// Style is an optional presentation hint attached to a row.
// Text formats ignore it.
type Style struct {
	// FontBold is true if the font is bold
	FontBold bool
	// Format is the number format, e.g. "0.00"
	Format string
}

// Row is an ordered sequence of cells. Position is the column index.
// An empty row is still a record.
type Row struct {
	cells []Cell
	style *Style
}

// NewRow builds a row, inferring the type of every value with NewCell.
func NewRow(values ...any) Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = NewCell(v)
	}
	return Row{cells: cells}
}

// NewRowFromCells builds a row from already typed cells.
func NewRowFromCells(cells ...Cell) Row {
	cp := make([]Cell, len(cells))
	copy(cp, cells)
	return Row{cells: cp}
}

// NewRowFromStrings builds a row of string cells.
func NewRowFromStrings(values []string) Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = StringCell(v)
	}
	return Row{cells: cells}
}

// WithStyle returns a copy of the row carrying the given style.
func (r Row) WithStyle(s Style) Row {
	r.style = &s
	return r
}

// Style returns the row style, or nil when none was set.
func (r Row) Style() *Style {
	if r.style == nil {
		return nil
	}
	s := *r.style
	return &s
}

// Len returns the number of cells.
func (r Row) Len() int {
	return len(r.cells)
}

// Cell returns the cell at index i.
func (r Row) Cell(i int) Cell {
	return r.cells[i]
}

// Cells returns a copy of the row's cells.
func (r Row) Cells() []Cell {
	cp := make([]Cell, len(r.cells))
	copy(cp, r.cells)
	return cp
}

// Values returns the text of every cell.
func (r Row) Values() []string {
	out := make([]string, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.Text()
	}
	return out
}
