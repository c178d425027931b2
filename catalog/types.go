package catalog

import (
	"strconv"
)

// CellKind describes the type of value stored in a cell.
type CellKind int

const (
	// CellEmpty marks a cell without a value.
	CellEmpty CellKind = iota
	// CellText marks a cell holding free text.
	CellText
	// CellNumber marks a cell holding a numeric value.
	CellNumber
)

// Cell is a single typed value within a Dataset row.
type Cell struct {
	Kind   CellKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
}

// TextCell builds a text cell. Blank strings become empty cells.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// String renders the cell the way it is displayed and matched as text.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// IsEmpty reports whether the cell has no usable content.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// Dataset is an in-memory table with named columns and typed cells.
type Dataset struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Width returns the number of columns, counting ragged rows wider than the header.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	width := len(d.Columns)
	for _, row := range d.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the cell at row/col, or an empty cell when out of range.
func (d *Dataset) Cell(row, col int) Cell {
	if d == nil || row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Rows[row]) {
		return Cell{}
	}
	return d.Rows[row][col]
}

// Clone creates a deep copy so the engine owns its tables exclusively.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Name:    d.Name,
		Columns: cloneStrings(d.Columns),
		Rows:    make([][]Cell, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// ColumnName returns the header of a column or a positional label.
func (d *Dataset) ColumnName(col int) string {
	if d != nil && col >= 0 && col < len(d.Columns) && d.Columns[col] != "" {
		return d.Columns[col]
	}
	return "#" + strconv.Itoa(col+1)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneInts(values []int) []int {
	if values == nil {
		return nil
	}
	out := make([]int, len(values))
	copy(out, values)
	return out
}
