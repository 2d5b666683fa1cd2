package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"biliwalle/internal/services"
)

// Row is one data row of a Table. Line is the 1-based line in the source file.
type Row struct {
	Line  int
	cells []string
	table *Table
}

// Get returns the trimmed cell for column, or "" when the column is absent.
func (r Row) Get(column string) string {
	if r.table == nil {
		return ""
	}
	i, ok := r.table.index[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Values returns the cells in header order.
func (r Row) Values() []string {
	out := make([]string, len(r.cells))
	copy(out, r.cells)
	return out
}

// Float parses a numeric cell. ok is false for empty cells and the NaN
// markers spreadsheet exports write for missing values.
func (r Row) Float(column string) (value float64, ok bool, err error) {
	raw := r.Get(column)
	if isMissing(raw) {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(value, 0) {
		return 0, false, r.malformed(column, raw, "a number")
	}
	return value, true, nil
}

// Int parses a whole-number cell; integral floats such as "3.0" are accepted.
func (r Row) Int(column string) (value int, ok bool, err error) {
	f, ok, err := r.Float(column)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, false, r.malformed(column, r.Get(column), "a whole number")
	}
	return int(f), true, nil
}

func (r Row) malformed(column, raw, want string) error {
	return services.Wrap(
		services.ErrInvalidConfiguration,
		"protocol",
		"value",
		fmt.Sprintf("line %d: column %s: %q is not %s", r.Line, column, raw, want),
		nil,
	)
}

func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "nan", "na", "null", "none":
		return true
	}
	return false
}
