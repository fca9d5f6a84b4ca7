package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Kind distinguishes the value held by a Cell
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindInteger
	KindUndefined
)

// Cell is one typed table value
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// Text creates a text cell
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number creates a real-valued cell
func Number(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

// Integer creates a count cell
func Integer(v int) Cell { return Cell{Kind: KindInteger, Number: float64(v)} }

// Undefined creates an explicitly undefined cell
func Undefined() Cell { return Cell{Kind: KindUndefined} }

// IsUndefined reports whether the cell carries no value
func (c Cell) IsUndefined() bool { return c.Kind == KindUndefined }

// String renders the cell for CSV output; undefined cells render empty
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindInteger:
		return strconv.FormatInt(int64(c.Number), 10)
	case KindNumber:
		if math.IsInf(c.Number, 1) {
			return "inf"
		}
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	default:
		return ""
	}
}

// Value returns the cell as a plain Go value (nil when undefined)
func (c Cell) Value() interface{} {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindInteger:
		return int64(c.Number)
	case KindNumber:
		if math.IsInf(c.Number, 0) || math.IsNaN(c.Number) {
			return c.String()
		}
		return c.Number
	default:
		return nil
	}
}

// MarshalJSON encodes undefined cells as null and infinities as strings
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// Row is one labeled row
type Row struct {
	Label string `json:"label,omitempty"`
	Cells []Cell `json:"cells"`
}

// Table is a generic labeled table handed to reporting and export collaborators.
// When Indexed is true the row labels form the first column (the row index).
type Table struct {
	Name    string   `json:"name"`
	Index   string   `json:"index,omitempty"`
	Indexed bool     `json:"indexed"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// NewIndexed creates an empty table whose rows carry labels
func NewIndexed(name, index string, columns ...string) *Table {
	return &Table{Name: name, Index: index, Indexed: true, Columns: columns}
}

// Append adds a row, checking its width
func (t *Table) Append(label string, cells ...Cell) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d cells, expected %d", t.Name, len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row{Label: label, Cells: cells})
	return nil
}

// Header returns the column header including the index column when indexed
func (t *Table) Header() []string {
	if !t.Indexed {
		return append([]string(nil), t.Columns...)
	}
	return append([]string{t.Index}, t.Columns...)
}

// Records returns the table as string rows including the header, ready for CSV
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header())
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		if t.Indexed {
			rec = append(rec, row.Label)
		}
		for _, c := range row.Cells {
			rec = append(rec, c.String())
		}
		out = append(out, rec)
	}
	return out
}

// Maps returns each row as a mapping of column name to plain value
func (t *Table) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]interface{}, len(row.Cells)+1)
		if t.Indexed {
			m[t.Index] = row.Label
		}
		for i, c := range row.Cells {
			m[t.Columns[i]] = c.Value()
		}
		out = append(out, m)
	}
	return out
}

// Cell returns the cell at row r, column name col
func (t *Table) Cell(r int, col string) (Cell, bool) {
	if r < 0 || r >= len(t.Rows) {
		return Cell{}, false
	}
	for i, name := range t.Columns {
		if name == col {
			return t.Rows[r].Cells[i], true
		}
	}
	return Cell{}, false
}

// Shape returns the number of rows and data columns
func (t *Table) Shape() (rows, cols int) {
	return len(t.Rows), len(t.Columns)
}
