package flat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Synthesized output columns copied from the input record.
const (
	ColumnID    = "taxsimid"
	ColumnYear  = "year"
	ColumnState = "state"
)

// OutputRow is one record's extracted values in the flat schema.
type OutputRow struct {
	ID     int64              `json:"taxsimid"`
	Year   int                `json:"year"`
	State  int                `json:"state"`
	Values map[string]float64 `json:"values"`
}

// Value returns the value of an output column and whether it was produced.
func (o OutputRow) Value(column string) (float64, bool) {
	v, ok := o.Values[column]
	return v, ok
}

// Table is an ordered set of output rows sharing one column layout.
type Table struct {
	Columns []string    `json:"columns"`
	Rows    []OutputRow `json:"rows"`
}

// MergeColumns appends the columns not yet present, keeping first-seen order.
func (t *Table) MergeColumns(columns []string) {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = struct{}{}
	}

	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		t.Columns = append(t.Columns, c)
	}
}

// WriteCSV writes the table with a header row. Values a row did not produce
// are written as empty cells.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	err := cw.Write(t.Columns)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cells := make([]string, len(t.Columns))

	for _, row := range t.Rows {
		for i, c := range t.Columns {
			v, ok := row.Values[c]
			if !ok {
				cells[i] = ""
				continue
			}

			cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}

		err := cw.Write(cells)
		if err != nil {
			return fmt.Errorf("write row %d: %w", row.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// textColumns are output columns that carry text rather than numbers.
var textColumns = map[string]struct{}{
	"state_name": {},
}

// ReadOutputCSV parses an output table. Cells that are not numbers become NaN.
func ReadOutputCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Table{}, fmt.Errorf("read output header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idCol := -1

	var table Table

	for i, name := range header {
		if _, ok := textColumns[name]; ok {
			continue
		}

		if name == ColumnID {
			idCol = i
		}

		table.Columns = append(table.Columns, name)
	}

	if idCol < 0 {
		return Table{}, fmt.Errorf("output table has no %s column", ColumnID)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Table{}, fmt.Errorf("read output row: %w", err)
		}

		out := OutputRow{Values: make(map[string]float64, len(header))}

		for i, cell := range row {
			if i >= len(header) {
				break
			}

			if _, ok := textColumns[header[i]]; ok {
				continue
			}

			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				v = math.NaN()
			}

			out.Values[header[i]] = v
		}

		id := out.Values[ColumnID]
		if math.IsNaN(id) {
			return Table{}, fmt.Errorf("output row has non-numeric %s %q", ColumnID, row[idCol])
		}

		out.ID = int64(id)
		out.Year = intValue(out.Values[ColumnYear])
		out.State = intValue(out.Values[ColumnState])
		table.Rows = append(table.Rows, out)
	}

	return table, nil
}

func intValue(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	return int(v)
}
