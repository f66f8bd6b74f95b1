// pkg/model/dataset.go
package model

// Row maps column names to cell values. Missing columns read as null.
type Row map[string]Scalar

// Get returns the cell for a column, null when absent
func (r Row) Get(col string) Scalar {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered in-memory table. Column order is preserved from
// the source so serialized output round-trips with a stable header.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates an empty dataset with the given column order
func NewDataset(columns []string) *Dataset {
	return &Dataset{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows
func (d *Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether the dataset declares the column
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AppendRow adds a row to the dataset
func (d *Dataset) AppendRow(r Row) {
	d.Rows = append(d.Rows, r)
}

// AddColumn declares a column if not already present
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// NullCounts returns the number of null cells per declared column
func (d *Dataset) NullCounts() map[string]int {
	counts := make(map[string]int, len(d.Columns))
	for _, c := range d.Columns {
		counts[c] = 0
	}
	for _, row := range d.Rows {
		for _, c := range d.Columns {
			if row.Get(c).IsNull() {
				counts[c]++
			}
		}
	}
	return counts
}
