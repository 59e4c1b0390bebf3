package sheet

// Table is a worksheet snapshot: a header row plus data rows. Rows may be
// shorter than the header; missing trailing cells read as empty strings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func NewTable(columns []string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Columns: cols, Rows: [][]string{}}
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Index returns the position of column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for column, "" when the column or cell is absent.
func (t Table) Cell(i int, column string) string {
	idx := t.Index(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (t *Table) Append(row []string) {
	r := make([]string, len(row))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

func (t Table) Clone() Table {
	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		out.Append(row)
	}
	return out
}

// Conform reshapes t to exactly the given columns in the given order.
// Columns absent from t are synthesized empty, extra columns are dropped and
// every row is padded so each has len(columns) cells.
func (t Table) Conform(columns []string) Table {
	out := NewTable(columns)
	positions := make([]int, len(columns))
	for i, c := range columns {
		positions[i] = t.Index(c)
	}

	for _, row := range t.Rows {
		r := make([]string, len(columns))
		for i, pos := range positions {
			if pos >= 0 && pos < len(row) {
				r[i] = row[pos]
			}
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}
