// Package viz builds renderer-neutral tables, charts, maps and graphs from
// session query Rows. It produces data structures only; presentation is
// left to consumers (e.g. Plotly or Leaflet in a browser).
package viz

import (
	"fmt"
	"strings"

	"go.cbdd.dev/baroquedb/session"
	"golang.org/x/text/cases"
)

// Candidate column names of map coordinates and labels.
var (
	LatitudeCandidates  = []string{"lat", "latitude", "y"}
	LongitudeCandidates = []string{"lng", "lon", "longitude", "x"}
	LabelCandidates     = []string{"label", "name", "title"}
)

// ColumnResolutionError is returned when no column of a result matches a
// required column name.
type ColumnResolutionError struct {
	Want       string   // Role or name of the wanted column.
	Candidates []string // Names which were tried.
	Available  []string // Columns of the result.
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("could not find %s column (tried %s) among columns %s",
		e.Want, strings.Join(e.Candidates, ", "), strings.Join(e.Available, ", "))
}

// FindColumn returns the first column of |columns| which equals a candidate
// under Unicode case folding, trying candidates in order.
func FindColumn(columns []string, candidates ...string) (string, bool) {
	var fold = cases.Fold()

	var folded = make([]string, len(columns))
	for i, col := range columns {
		folded[i] = fold.String(col)
	}
	for _, c := range candidates {
		var fc = fold.String(c)
		for i, col := range columns {
			if folded[i] == fc {
				return col, true
			}
		}
	}
	return "", false
}

// resolveColumn returns |explicit| if set and present in |columns|, or
// otherwise the first matching candidate.
func resolveColumn(columns []string, want, explicit string, candidates ...string) (string, error) {
	if explicit != "" {
		candidates = []string{explicit}
	}
	if col, ok := FindColumn(columns, candidates...); ok {
		return col, nil
	}
	return "", &ColumnResolutionError{Want: want, Candidates: candidates, Available: columns}
}

// columnsOf returns the columns of the first of |rows|.
func columnsOf(rows []session.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Columns()
}
