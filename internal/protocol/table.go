package protocol

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"biliwalle/internal/services"
)

// Table is a parsed protocol. Header names are trimmed; short rows are padded
// with empty cells.
type Table struct {
	Path   string
	Header []string
	Rows   []Row
	index  map[string]int
}

// Read parses the CSV protocol at path.
func Read(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "protocol", "read", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Path = path
	return table, nil
}

// Parse reads a protocol from r.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "protocol", "read", "protocol has no header row", nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "protocol", "read", "parse header", err)
	}

	t := &Table{index: make(map[string]int, len(header))}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		t.Header = append(t.Header, name)
		if _, dup := t.index[name]; !dup && name != "" {
			t.index[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidConfiguration, "protocol", "read", "parse row", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		cells := make([]string, len(t.Header))
		copy(cells, record)
		t.Rows = append(t.Rows, Row{Line: line, cells: cells, table: t})
	}
	return t, nil
}

// Has reports whether the table has a column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require fails with services.ErrInvalidConfiguration naming every missing column.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, col := range columns {
		if col == "" {
			continue
		}
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(
		services.ErrInvalidConfiguration,
		"protocol",
		"columns",
		fmt.Sprintf("missing column(s) %s (have %s)", strings.Join(missing, ", "), strings.Join(t.Header, ", ")),
		nil,
	)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
