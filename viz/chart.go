package viz

import (
	"fmt"
	"strings"

	"go.cbdd.dev/baroquedb/session"
)

// DefaultChartColor of chart markers.
const DefaultChartColor = "#3498db"

// ChartConfig configures BuildChart. Zero-valued fields take defaults.
type ChartConfig struct {
	// Type is a Plotly trace type: "bar" (the default), "scatter", "line" or "pie".
	Type string `schema:"type"`
	// X is the category (or label) column. Defaults to the first column.
	X string `schema:"x"`
	// Y is the value column. Defaults to the second column.
	Y string `schema:"y"`
	// Title of the chart.
	Title string `schema:"title"`
	// XLabel and YLabel title the axes. They default to the X and Y columns.
	XLabel string `schema:"xLabel"`
	YLabel string `schema:"yLabel"`
	// Name of the trace. Defaults to the Y column.
	Name string `schema:"name"`
	// Color of markers. Defaults to DefaultChartColor.
	Color string `schema:"color"`
	// Orientation "h" draws horizontal bars, swapping the axes.
	Orientation string `schema:"orientation"`
}

// Figure is a Plotly-compatible figure.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Empty  bool    `json:"empty,omitempty"`
}

// Trace is a Plotly trace.
type Trace struct {
	Type        string        `json:"type"`
	Mode        string        `json:"mode,omitempty"`
	X           []interface{} `json:"x,omitempty"`
	Y           []interface{} `json:"y,omitempty"`
	Labels      []interface{} `json:"labels,omitempty"`
	Values      []interface{} `json:"values,omitempty"`
	Name        string        `json:"name,omitempty"`
	Orientation string        `json:"orientation,omitempty"`
	Marker      *TraceMarker  `json:"marker,omitempty"`
}

// TraceMarker styles the markers of a Trace.
type TraceMarker struct {
	Color string `json:"color,omitempty"`
}

// Layout is a Plotly figure layout.
type Layout struct {
	Title  *Title  `json:"title,omitempty"`
	XAxis  *Axis   `json:"xaxis,omitempty"`
	YAxis  *Axis   `json:"yaxis,omitempty"`
	Margin Margins `json:"margin"`
}

// Title of a Layout or Axis.
type Title struct {
	Text string `json:"text"`
}

// Axis of a Layout.
type Axis struct {
	Title Title `json:"title"`
}

// Margins of a Layout, in pixels.
type Margins struct {
	T int `json:"t"`
	B int `json:"b"`
	L int `json:"l"`
	R int `json:"r"`
}

var defaultMargins = Margins{T: 50, B: 80, L: 60, R: 30}

// BuildChart builds a Figure of |rows|. Explicitly configured columns must
// be present in the result.
func BuildChart(rows []session.Row, cfg ChartConfig) (*Figure, error) {
	var fig = &Figure{Data: []Trace{}, Layout: Layout{Margin: defaultMargins}}
	if cfg.Title != "" {
		fig.Layout.Title = &Title{Text: cfg.Title}
	}
	if len(rows) == 0 {
		fig.Empty = true
		return fig, nil
	}
	var columns = columnsOf(rows)

	var xCol, yCol = cfg.X, cfg.Y
	if xCol == "" && len(columns) > 0 {
		xCol = columns[0]
	}
	if yCol == "" && len(columns) > 1 {
		yCol = columns[1]
	}
	xCol, err := resolveColumn(columns, "x", xCol)
	if err != nil {
		return nil, err
	}
	yCol, err = resolveColumn(columns, "y", yCol)
	if err != nil {
		return nil, err
	}

	var xs, ys = make([]interface{}, len(rows)), make([]interface{}, len(rows))
	for i, row := range rows {
		xs[i], _ = row.Get(xCol)
		ys[i], _ = row.Get(yCol)
	}

	var trace = Trace{
		Type:   strings.ToLower(cfg.Type),
		Name:   firstNonEmpty(cfg.Name, yCol),
		Marker: &TraceMarker{Color: firstNonEmpty(cfg.Color, DefaultChartColor)},
	}
	var xLabel, yLabel = firstNonEmpty(cfg.XLabel, xCol), firstNonEmpty(cfg.YLabel, yCol)

	switch trace.Type {
	case "", "bar":
		trace.Type = "bar"
	case "scatter":
		trace.Mode = "markers"
	case "line":
		trace.Type, trace.Mode = "scatter", "lines+markers"
	case "pie":
		trace.Labels, trace.Values = xs, ys
		trace.Marker = nil
		fig.Data = append(fig.Data, trace)
		return fig, nil
	default:
		return nil, fmt.Errorf("unsupported chart type %q", cfg.Type)
	}

	switch cfg.Orientation {
	case "", "v":
		trace.X, trace.Y = xs, ys
	case "h":
		trace.Orientation = "h"
		trace.X, trace.Y = ys, xs
		xLabel, yLabel = yLabel, xLabel
	default:
		return nil, fmt.Errorf("unsupported chart orientation %q", cfg.Orientation)
	}
	fig.Layout.XAxis = &Axis{Title: Title{Text: xLabel}}
	fig.Layout.YAxis = &Axis{Title: Title{Text: yLabel}}
	fig.Data = append(fig.Data, trace)

	return fig, nil
}

func firstNonEmpty(s ...string) string {
	for _, ss := range s {
		if ss != "" {
			return ss
		}
	}
	return ""
}
