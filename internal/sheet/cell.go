package sheet

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// CellType represents the type of value held by a cell.
type CellType int

const (
	CellEmpty CellType = iota
	CellString
	CellNumber
	CellBoolean
	CellError
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	switch ct {
	case CellEmpty:
		return "Empty"
	case CellString:
		return "String"
	case CellNumber:
		return "Number"
	case CellBoolean:
		return "Boolean"
	case CellError:
		return "Error"
	default:
		return "Unknown"
	}
}

// TimeLayout is the layout used when a time.Time is stored as a string cell.
const TimeLayout = "2006-01-02 15:04:05"

// Cell holds a single scalar value together with its type.
// The zero value is an empty cell.
type Cell struct {
	typ   CellType
	value any // string, int64, float64, bool or nil
}

// StringCell creates a string cell.
func StringCell(s string) Cell {
	return Cell{typ: CellString, value: s}
}

// NumberCell creates a numeric cell from a float.
func NumberCell(f float64) Cell {
	return Cell{typ: CellNumber, value: f}
}

// IntCell creates a numeric cell from an integer without losing precision.
func IntCell(i int64) Cell {
	return Cell{typ: CellNumber, value: i}
}

// BoolCell creates a boolean cell.
func BoolCell(b bool) Cell {
	return Cell{typ: CellBoolean, value: b}
}

// EmptyCell creates an empty cell.
func EmptyCell() Cell {
	return Cell{}
}

// ErrorCell creates an error cell holding a spreadsheet error code such as "#DIV/0!".
func ErrorCell(code string) Cell {
	return Cell{typ: CellError, value: code}
}

// NewCell infers the cell type from a Go value.
func NewCell(v any) Cell {
	switch val := v.(type) {
	case nil:
		return EmptyCell()
	case Cell:
		return val
	case string:
		return StringCell(val)
	case []byte:
		if val == nil {
			return EmptyCell()
		}
		return StringCell(string(val))
	case bool:
		return BoolCell(val)
	case int:
		return IntCell(int64(val))
	case int8:
		return IntCell(int64(val))
	case int16:
		return IntCell(int64(val))
	case int32:
		return IntCell(int64(val))
	case int64:
		return IntCell(val)
	case uint:
		return unsignedCell(uint64(val))
	case uint8:
		return IntCell(int64(val))
	case uint16:
		return IntCell(int64(val))
	case uint32:
		return IntCell(int64(val))
	case uint64:
		return unsignedCell(val)
	case float32:
		return NumberCell(float64(val))
	case float64:
		return NumberCell(val)
	case time.Time:
		return StringCell(val.Format(TimeLayout))
	case error:
		return ErrorCell(val.Error())
	case fmt.Stringer:
		return StringCell(val.String())
	default:
		return StringCell(fmt.Sprint(val))
	}
}

func unsignedCell(u uint64) Cell {
	if u > math.MaxInt64 {
		return NumberCell(float64(u))
	}
	return IntCell(int64(u))
}

// Type returns the cell type.
func (c Cell) Type() CellType {
	return c.typ
}

// Value returns the stored value: string, int64, float64, bool or nil.
func (c Cell) Value() any {
	return c.value
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.typ == CellEmpty
}

// Text returns the textual representation of the cell.
// Empty cells render as "", booleans as "1" or "0".
func (c Cell) Text() string {
	switch v := c.value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	return c.Text()
}
