package baroquectlcmd

import (
	"encoding/json"
	"fmt"
	"io"

	"go.cbdd.dev/baroquedb/session"
	"go.cbdd.dev/baroquedb/viz"
	"gopkg.in/yaml.v2"
)

// writeRows to |w| in the given |format|:
//
//	table: A formatted text table.
//	json:  One JSON object per row, with keys in column order.
//	yaml:  A YAML sequence of mappings, with keys in column order.
func writeRows(w io.Writer, rows []session.Row, format string) error {
	switch format {
	case "", "table":
		return viz.BuildTable(rows).WriteText(w)
	case "json":
		var enc = json.NewEncoder(w)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	case "yaml":
		var out = make([]yaml.MapSlice, 0, len(rows))
		for _, row := range rows {
			out = append(out, yamlRow(row))
		}
		var b, err = yaml.Marshal(out)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// yamlRow maps a Row into an ordered MapSlice. A duplicated column appears
// once, at its first position, with the value of its last occurrence.
func yamlRow(row session.Row) yaml.MapSlice {
	var out yaml.MapSlice
	var seen = make(map[string]bool, row.Len())

	for _, col := range row.Columns() {
		if seen[col] {
			continue
		}
		seen[col] = true

		var v, _ = row.Get(col)
		out = append(out, yaml.MapItem{Key: col, Value: v})
	}
	return out
}
