package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Dataset is an in-memory table with ordered columns. It is owned and mutated
// in place by a single pipeline run; there is no concurrent access.
type Dataset struct {
	columns []string
	index   map[string]int // column name -> position
	rows    [][]any
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns []string) *Dataset {
	d := &Dataset{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		d.index[name] = i
	}
	return d
}

// Columns returns a copy of the column names in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return len(d.rows) }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.columns) }

// HasColumn reports whether a column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// AppendRow adds a row. The value count must match the column count.
func (d *Dataset) AppendRow(values []any) error {
	if len(values) != len(d.columns) {
		return fmt.Errorf("append row: got %d values for %d columns", len(values), len(d.columns))
	}
	d.rows = append(d.rows, append([]any(nil), values...))
	return nil
}

// Cell returns the value at (row, column name). Missing columns wrap
// ErrColumnNotFound.
func (d *Dataset) Cell(row int, column string) (any, error) {
	i, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	if row < 0 || row >= len(d.rows) {
		return nil, fmt.Errorf("row %d out of range (%d rows)", row, len(d.rows))
	}
	return d.rows[row][i], nil
}

// Column returns all values of the named column in row order.
func (d *Dataset) Column(name string) ([]any, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]any, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out, nil
}

// RenameColumn changes a column's name. The data stays in place.
func (d *Dataset) RenameColumn(old, new string) error {
	i, ok := d.index[old]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, old)
	}
	if old == new {
		return nil
	}
	if _, exists := d.index[new]; exists {
		return fmt.Errorf("rename column: %q already exists", new)
	}
	d.columns[i] = new
	delete(d.index, old)
	d.index[new] = i
	return nil
}

// SwapColumns exchanges the names of two columns, leaving the data where it
// is: values formerly under a appear under b and vice versa. The swap goes
// through a temporary name probed for collisions, so a dataset that happens
// to contain the sentinel name is still handled correctly.
func (d *Dataset) SwapColumns(a, b string) error {
	if !d.HasColumn(a) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, a)
	}
	if !d.HasColumn(b) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, b)
	}
	if a == b {
		return nil
	}

	tmp := "__swap_temp__"
	for d.HasColumn(tmp) {
		tmp += "_"
	}

	if err := d.RenameColumn(a, tmp); err != nil {
		return err
	}
	if err := d.RenameColumn(b, a); err != nil {
		return err
	}
	return d.RenameColumn(tmp, b)
}

// Apply replaces every value in the named column with fn(value).
func (d *Dataset) Apply(column string, fn func(any) any) error {
	i, ok := d.index[column]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	for _, row := range d.rows {
		row[i] = fn(row[i])
	}
	return nil
}

// LeftJoin merges the right dataset into d on the shared key column and
// returns the result. Every left row is preserved: rows without a match keep
// nil in each of the right dataset's columns. Columns the two sides share
// (other than the key) are replaced by the right side's values, so stale
// left-side copies of reference data never survive the join. A left row with
// several matches is emitted once per match.
func (d *Dataset) LeftJoin(right *Dataset, key string) (*Dataset, error) {
	leftKey, ok := d.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: join key %q missing from dataset", ErrColumnNotFound, key)
	}
	rightKey, ok := right.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: join key %q missing from reference table", ErrColumnNotFound, key)
	}

	// Right columns carried into the result, in right-side order, key excluded.
	var rightCols []int
	for i := range right.columns {
		if i == rightKey {
			continue
		}
		rightCols = append(rightCols, i)
	}

	outColumns := append([]string(nil), d.columns...)
	// overlay[out column position] = right column position, for shared names.
	overlay := make(map[int]int)
	var appended []int
	for _, ri := range rightCols {
		if li, shared := d.index[right.columns[ri]]; shared {
			overlay[li] = ri
			continue
		}
		outColumns = append(outColumns, right.columns[ri])
		appended = append(appended, ri)
	}

	matches := make(map[string][]int, right.NumRows())
	for r, row := range right.rows {
		k := joinKey(row[rightKey])
		matches[k] = append(matches[k], r)
	}

	out := NewDataset(outColumns)
	emit := func(leftRow []any, rightRow []any) {
		row := make([]any, len(outColumns))
		copy(row, leftRow)
		for li, ri := range overlay {
			if rightRow != nil {
				row[li] = rightRow[ri]
			} else {
				row[li] = nil
			}
		}
		for n, ri := range appended {
			if rightRow != nil {
				row[len(d.columns)+n] = rightRow[ri]
			}
		}
		out.rows = append(out.rows, row)
	}

	for _, leftRow := range d.rows {
		rs := matches[joinKey(leftRow[leftKey])]
		if len(rs) == 0 {
			emit(leftRow, nil)
			continue
		}
		for _, r := range rs {
			emit(leftRow, right.rows[r])
		}
	}
	return out, nil
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.columns)
	out.rows = make([][]any, len(d.rows))
	for i, row := range d.rows {
		out.rows[i] = append([]any(nil), row...)
	}
	return out
}

// joinKey normalizes a cell for key comparison. SQL drivers hand back int64
// where a CSV parse of the same identifier yields float64; integral numbers
// collapse to the same key so the join matches across sources.
func joinKey(v any) string {
	switch n := v.(type) {
	case nil:
		return "\x00nil"
	case int:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'g', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}
