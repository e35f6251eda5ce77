// Package frame provides the ordered-column table the pipeline operates on.
// A Frame is treated as an immutable snapshot: every operation returns a new
// Frame, sharing unchanged column slices with its source. Callers must not
// mutate a slice obtained from Col.
package frame

import "fmt"

// Kind classifies a single cell.
type Kind uint8

const (
	// Missing marks an absent value ("" / "NA" / "NaN" on ingest).
	Missing Kind = iota
	// Number is a parsed floating-point value.
	Number
	// Text is a categorical label.
	Text
)

// Value is one cell of a Frame.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Num returns a numeric cell.
func Num(v float64) Value { return Value{Kind: Number, Num: v} }

// Str returns a categorical cell.
func Str(s string) Value { return Value{Kind: Text, Str: s} }

// NA returns a missing cell.
func NA() Value { return Value{Kind: Missing} }

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String renders the cell the way the CSV writer emits it: numbers in
// minimal form, text verbatim, missing as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return formatNum(v.Num)
	case Text:
		return v.Str
	default:
		return ""
	}
}

func formatNum(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// Frame is a fixed-row-count table with named, ordered columns.
type Frame struct {
	names []string
	cols  map[string][]Value
	rows  int
}

// New returns an empty Frame with the given row count.
func New(rows int) *Frame {
	return &Frame{cols: make(map[string][]Value), rows: rows}
}

// Rows returns the number of rows.
func (f *Frame) Rows() int { return f.rows }

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Col returns the cells of the named column, or nil if absent.
// The returned slice is shared; callers must not modify it.
func (f *Frame) Col(name string) []Value { return f.cols[name] }

// At returns the cell at (column, row). Absent columns yield a missing cell.
func (f *Frame) At(name string, row int) Value {
	col, ok := f.cols[name]
	if !ok || row < 0 || row >= len(col) {
		return NA()
	}
	return col[row]
}

// shallowCopy duplicates the column order and map; cell slices are shared.
func (f *Frame) shallowCopy() *Frame {
	names := make([]string, len(f.names))
	copy(names, f.names)
	cols := make(map[string][]Value, len(f.cols))
	for k, v := range f.cols {
		cols[k] = v
	}
	return &Frame{names: names, cols: cols, rows: f.rows}
}

// WithColumn returns a Frame with the named column set to vals. An existing
// column is replaced in place in the order; a new column is appended last.
func (f *Frame) WithColumn(name string, vals []Value) (*Frame, error) {
	if len(vals) != f.rows {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(vals), f.rows)
	}
	out := f.shallowCopy()
	if !out.Has(name) {
		out.names = append(out.names, name)
	}
	out.cols[name] = vals
	return out, nil
}

// Drop returns a Frame without the named columns. Names that are not
// present are ignored, so dropping is idempotent.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Frame{cols: make(map[string][]Value, len(f.cols)), rows: f.rows}
	for _, n := range f.names {
		if drop[n] {
			continue
		}
		out.names = append(out.names, n)
		out.cols[n] = f.cols[n]
	}
	return out
}

// Select returns a Frame containing exactly the named columns in the given
// order. Every name must exist.
func (f *Frame) Select(names []string) (*Frame, error) {
	out := &Frame{cols: make(map[string][]Value, len(names)), rows: f.rows}
	for _, n := range names {
		col, ok := f.cols[n]
		if !ok {
			return nil, fmt.Errorf("select: no column %q", n)
		}
		out.names = append(out.names, n)
		out.cols[n] = col
	}
	return out, nil
}

// FilterRows returns a Frame keeping only rows where keep[i] is true.
func (f *Frame) FilterRows(keep []bool) (*Frame, error) {
	if len(keep) != f.rows {
		return nil, fmt.Errorf("filter: %d flags for %d rows", len(keep), f.rows)
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := &Frame{cols: make(map[string][]Value, len(f.cols)), rows: n}
	out.names = make([]string, len(f.names))
	copy(out.names, f.names)
	for name, col := range f.cols {
		filtered := make([]Value, 0, n)
		for i, k := range keep {
			if k {
				filtered = append(filtered, col[i])
			}
		}
		out.cols[name] = filtered
	}
	return out, nil
}

// IsNumeric reports whether every non-missing cell in the column is a
// number. A column with no non-missing cells counts as numeric.
func (f *Frame) IsNumeric(name string) bool {
	col, ok := f.cols[name]
	if !ok {
		return false
	}
	for _, v := range col {
		if v.Kind == Text {
			return false
		}
	}
	return true
}

// NumericValues returns the non-missing numeric cells of a column.
func (f *Frame) NumericValues(name string) []float64 {
	col := f.cols[name]
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if v.Kind == Number {
			out = append(out, v.Num)
		}
	}
	return out
}

// Matrix returns the Frame as rows of float64 in column order. It fails on
// the first cell that is not a number.
func (f *Frame) Matrix() ([][]float64, error) {
	out := make([][]float64, f.rows)
	for i := range out {
		out[i] = make([]float64, len(f.names))
	}
	for j, name := range f.names {
		col := f.cols[name]
		for i, v := range col {
			if v.Kind != Number {
				return nil, fmt.Errorf("column %q row %d: not numeric", name, i)
			}
			out[i][j] = v.Num
		}
	}
	return out, nil
}
