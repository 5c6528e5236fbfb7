package viz

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"go.cbdd.dev/baroquedb/session"
)

// Table is a formatted, tabular rendering of Rows.
type Table struct {
	Columns []string   `json:"columns"`
	Cells   [][]string `json:"cells"`
	Empty   bool       `json:"empty"`
}

// BuildTable formats |rows| as a Table. Columns are those of the first Row,
// and cells are taken by position so that duplicate column names each keep
// their own values.
func BuildTable(rows []session.Row) *Table {
	var t = &Table{
		Columns: append([]string{}, columnsOf(rows)...),
		Cells:   make([][]string, 0, len(rows)),
		Empty:   len(rows) == 0,
	}
	for _, row := range rows {
		var cells = make([]string, len(t.Columns))
		for i, v := range row.Values() {
			if i == len(cells) {
				break
			}
			cells[i] = FormatValue(v)
		}
		t.Cells = append(t.Cells, cells)
	}
	return t
}

// WriteText writes the Table to |w| as aligned text.
func (t *Table) WriteText(w io.Writer) error {
	if t.Empty {
		_, err := io.WriteString(w, "No results found.\n")
		return err
	}
	var table = tablewriter.NewWriter(w)
	table.Header(t.Columns)

	for _, row := range t.Cells {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
