package protocol

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Group is the set of rows sharing one key, in table order until sorted.
type Group struct {
	Columns []string
	Key     []string
	Rows    []Row
}

// Name renders the key as "col=value" pairs for logs and summaries.
func (g Group) Name() string {
	parts := make([]string, len(g.Key))
	for i, value := range g.Key {
		if i < len(g.Columns) {
			parts[i] = g.Columns[i] + "=" + value
		} else {
			parts[i] = value
		}
	}
	return strings.Join(parts, " ")
}

// First returns the group's first cell in column, or "".
func (g Group) First(column string) string {
	if len(g.Rows) == 0 {
		return ""
	}
	return g.Rows[0].Get(column)
}

// GroupBy partitions rows by the given columns. Rows with an empty key cell
// are left out. Groups are ordered by key, comparing each pair of values
// numerically when both parse as numbers and lexically otherwise.
func (t *Table) GroupBy(columns ...string) ([]Group, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	byKey := make(map[string]*Group)
	var groups []*Group
	for _, row := range t.Rows {
		key := make([]string, len(columns))
		complete := true
		for i, col := range columns {
			key[i] = row.Get(col)
			if isMissing(key[i]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		id := strings.Join(key, "\x1f")
		g, ok := byKey[id]
		if !ok {
			g = &Group{Columns: columns, Key: key}
			byKey[id] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, row)
	}

	slices.SortStableFunc(groups, func(a, b *Group) int {
		return compareKeys(a.Key, b.Key)
	})
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out, nil
}

// SortBy orders the group's rows by a numeric column, keeping table order for
// ties. Rows with an empty cell sort last.
func (g *Group) SortBy(column string) error {
	type keyed struct {
		row     Row
		value   float64
		present bool
	}
	items := make([]keyed, len(g.Rows))
	for i, row := range g.Rows {
		value, ok, err := row.Float(column)
		if err != nil {
			return err
		}
		items[i] = keyed{row: row, value: value, present: ok}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.present && b.present:
			return cmp.Compare(a.value, b.value)
		case a.present:
			return -1
		case b.present:
			return 1
		default:
			return 0
		}
	})
	for i, item := range items {
		g.Rows[i] = item.row
	}
	return nil
}

func compareKeys(a, b []string) int {
	for i := range min(len(a), len(b)) {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		if c := cmp.Compare(fa, fb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}
