package viz

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.cbdd.dev/baroquedb/session"
)

func TestFindColumn(t *testing.T) {
	var cols = []string{"Name", "Latitude", "LON", "x"}

	var col, ok = FindColumn(cols, LatitudeCandidates...)
	require.True(t, ok)
	require.Equal(t, "Latitude", col)

	// Candidates are tried in order: "lon" precedes "x".
	col, ok = FindColumn(cols, LongitudeCandidates...)
	require.True(t, ok)
	require.Equal(t, "LON", col)

	_, ok = FindColumn(cols, "title")
	require.False(t, ok)

	// Matching uses full Unicode case folding.
	col, ok = FindColumn([]string{"id", "Straße"}, "STRASSE")
	require.True(t, ok)
	require.Equal(t, "Straße", col)

	var _, err = resolveColumn(cols, "label", "", "label", "title")
	require.EqualError(t, err, "could not find label column (tried label, title) among columns Name, Latitude, LON, x")
}

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{int64(1234567), "1,234,567"},
		{int64(-42), "-42"},
		{1234.56789, "1,234.568"},
		{2.0, "2"},
		{0.5, "0.5"},
		{math.NaN(), "NaN"},
		{time.Date(1754, time.May, 1, 12, 0, 0, 0, time.UTC), "1754-05-01"},
		{"Wieskirche", "Wieskirche"},
		{[]byte("bytes"), "bytes"},
		{true, "true"},
	} {
		require.Equal(t, tc.want, FormatValue(tc.in), "%#v", tc.in)
	}
}

func TestTable(t *testing.T) {
	var table = BuildTable(fixtureRows())
	require.Equal(t, []string{"id", "name", "lat", "lng", "year"}, table.Columns)
	require.Equal(t, []string{"1", "Wieskirche", "47.681", "10.898", "1,754"}, table.Cells[0])
	require.Equal(t, []string{"3", "Asamkirche", "", "11.569", ""}, table.Cells[2])

	var buf bytes.Buffer
	require.NoError(t, table.WriteText(&buf))
	require.Contains(t, buf.String(), "Wieskirche")
	require.Contains(t, buf.String(), "Asamkirche")

	// Duplicate column names each keep their own cells.
	var cols = []string{"name", "name"}
	table = BuildTable([]session.Row{session.NewRow(cols, []interface{}{"Wieskirche", "Die Wies"})})
	require.Equal(t, cols, table.Columns)
	require.Equal(t, [][]string{{"Wieskirche", "Die Wies"}}, table.Cells)

	table = BuildTable(nil)
	require.True(t, table.Empty)
	require.NotNil(t, table.Cells)

	buf.Reset()
	require.NoError(t, table.WriteText(&buf))
	require.Equal(t, "No results found.\n", buf.String())
}

func TestChartDefaults(t *testing.T) {
	var fig, err = BuildChart(fixtureRows(), ChartConfig{})
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)

	var trace = fig.Data[0]
	require.Equal(t, "bar", trace.Type)
	require.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, trace.X)
	require.Equal(t, []interface{}{"Wieskirche", "Würzburg Residenz", "Asamkirche"}, trace.Y)
	require.Equal(t, "name", trace.Name)
	require.Equal(t, DefaultChartColor, trace.Marker.Color)
	require.Equal(t, "id", fig.Layout.XAxis.Title.Text)
	require.Equal(t, "name", fig.Layout.YAxis.Title.Text)
	require.Nil(t, fig.Layout.Title)
	require.Equal(t, defaultMargins, fig.Layout.Margin)
}

func TestChartOptions(t *testing.T) {
	var fig, err = BuildChart(fixtureRows(), ChartConfig{
		X:           "NAME",
		Y:           "year",
		Title:       "Completion",
		YLabel:      "Year",
		Orientation: "h",
		Color:       "#c0392b",
	})
	require.NoError(t, err)

	var trace = fig.Data[0]
	require.Equal(t, "h", trace.Orientation)
	require.Equal(t, []interface{}{int64(1754), int64(1753), nil}, trace.X)
	require.Equal(t, []interface{}{"Wieskirche", "Würzburg Residenz", "Asamkirche"}, trace.Y)
	require.Equal(t, "Year", fig.Layout.XAxis.Title.Text)
	require.Equal(t, "name", fig.Layout.YAxis.Title.Text)
	require.Equal(t, "Completion", fig.Layout.Title.Text)
	require.Equal(t, "#c0392b", trace.Marker.Color)

	fig, err = BuildChart(fixtureRows(), ChartConfig{Type: "pie", X: "name", Y: "id"})
	require.NoError(t, err)
	require.Equal(t, "pie", fig.Data[0].Type)
	require.Len(t, fig.Data[0].Labels, 3)
	require.Nil(t, fig.Data[0].X)
	require.Nil(t, fig.Layout.XAxis)

	fig, err = BuildChart(fixtureRows(), ChartConfig{Type: "line"})
	require.NoError(t, err)
	require.Equal(t, "scatter", fig.Data[0].Type)
	require.Equal(t, "lines+markers", fig.Data[0].Mode)

	_, err = BuildChart(fixtureRows(), ChartConfig{Y: "missing"})
	var colErr *ColumnResolutionError
	require.ErrorAs(t, err, &colErr)
	require.Equal(t, "y", colErr.Want)

	_, err = BuildChart(fixtureRows(), ChartConfig{Type: "sankey"})
	require.EqualError(t, err, `unsupported chart type "sankey"`)
	_, err = BuildChart(fixtureRows(), ChartConfig{Orientation: "d"})
	require.Error(t, err)

	// A single column has no default Y.
	var single = []session.Row{session.NewRow([]string{"n"}, []interface{}{int64(1)})}
	_, err = BuildChart(single, ChartConfig{})
	require.ErrorAs(t, err, &colErr)

	fig, err = BuildChart(nil, ChartConfig{})
	require.NoError(t, err)
	require.True(t, fig.Empty)

	b, err := json.Marshal(fig)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":[],"layout":{"margin":{"t":50,"b":80,"l":60,"r":30}},"empty":true}`, string(b))
}

func TestMap(t *testing.T) {
	var rows = append(fixtureRows(),
		session.NewRow([]string{"id", "name", "lat", "lng", "year"},
			[]interface{}{int64(4), "Ottobeuren", "47.9414", "10.2994", int64(1766)}))

	var m, err = BuildMap(rows, MapConfig{})
	require.NoError(t, err)
	require.Equal(t, DefaultMapCenter, m.Center)
	require.Equal(t, DefaultMapZoom, m.Zoom)

	// Asamkirche lacks a latitude and is skipped.
	require.Equal(t, 1, m.Skipped)
	require.Len(t, m.Markers, 3)

	require.Equal(t, MapMarker{
		Lat:   47.6811,
		Lng:   10.8981,
		Label: "Wieskirche",
		Fields: []Field{
			{Name: "id", Value: "1"},
			{Name: "name", Value: "Wieskirche"},
			{Name: "year", Value: "1,754"},
		},
	}, m.Markers[0])
	require.Equal(t, 47.9414, m.Markers[2].Lat)

	require.Equal(t, &Bounds{
		SouthWest: [2]float64{47.6811, 9.9387},
		NorthEast: [2]float64{49.7928, 10.8981},
	}, m.Bounds)

	m, err = BuildMap(rows, MapConfig{Center: []float64{48, 11}, Zoom: 8, LabelColumn: "year"})
	require.NoError(t, err)
	require.Equal(t, [2]float64{48, 11}, m.Center)
	require.Equal(t, 8, m.Zoom)
	require.Equal(t, "1,754", m.Markers[0].Label)

	var noCoords = []session.Row{session.NewRow([]string{"name"}, []interface{}{"x"})}
	_, err = BuildMap(noCoords, MapConfig{})
	var colErr *ColumnResolutionError
	require.ErrorAs(t, err, &colErr)
	require.Equal(t, "latitude", colErr.Want)

	_, err = BuildMap(rows, MapConfig{LabelColumn: "missing"})
	require.ErrorAs(t, err, &colErr)

	m, err = BuildMap(nil, MapConfig{})
	require.NoError(t, err)
	require.True(t, m.Empty)
	require.Nil(t, m.Bounds)
	require.NotNil(t, m.Markers)
}

func TestGraph(t *testing.T) {
	var cols = []string{"painter", "building", "n"}
	var rows = []session.Row{
		session.NewRow(cols, []interface{}{"Asam", "Weltenburg", int64(2)}),
		session.NewRow(cols, []interface{}{"Zimmermann", "Wieskirche", int64(1)}),
		session.NewRow(cols, []interface{}{"Asam", "Weltenburg", int64(3)}),
		session.NewRow(cols, []interface{}{"Asam", "Asamkirche", nil}),
		session.NewRow(cols, []interface{}{nil, "Ottobeuren", int64(1)}),
	}
	var g, err = BuildGraph(rows, GraphConfig{})
	require.NoError(t, err)

	require.Equal(t, []string{"Asam", "Weltenburg", "Zimmermann", "Wieskirche", "Asamkirche"}, nodeIDs(g))
	require.Equal(t, []Edge{
		{Source: 0, Target: 1, Weight: 5},
		{Source: 2, Target: 3, Weight: 1},
		{Source: 0, Target: 4, Weight: 1},
	}, g.Edges)
	require.Equal(t, 2, g.Nodes[0].Degree)
	require.Equal(t, 1, g.Nodes[4].Degree)

	_, err = BuildGraph(rows, GraphConfig{Weight: "missing"})
	require.Error(t, err)

	g, err = BuildGraph(nil, GraphConfig{})
	require.NoError(t, err)
	require.True(t, g.Empty)

	// Composed and decomposed spellings of a name are one node.
	rows = []session.Row{
		session.NewRow(cols, []interface{}{"Tiepolo", "W\u00fcrzburg", int64(1)}),
		session.NewRow(cols, []interface{}{"Tiepolo ", "Wu\u0308rzburg", int64(2)}),
	}
	g, err = BuildGraph(rows, GraphConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"Tiepolo", "W\u00fcrzburg"}, nodeIDs(g))
	require.Equal(t, []Edge{{Source: 0, Target: 1, Weight: 3}}, g.Edges)
}

func TestForceLayout(t *testing.T) {
	var build = func() *Graph {
		var cols = []string{"source", "target"}
		var g, err = BuildGraph([]session.Row{
			session.NewRow(cols, []interface{}{"a", "b"}),
			session.NewRow(cols, []interface{}{"b", "c"}),
			session.NewRow(cols, []interface{}{"c", "a"}),
			session.NewRow(cols, []interface{}{"d", "e"}),
		}, GraphConfig{})
		require.NoError(t, err)
		return g
	}
	var g1, g2 = build(), build()
	ForceLayout(g1, LayoutOptions{Seed: 7, Width: 100, Height: 80})
	ForceLayout(g2, LayoutOptions{Seed: 7, Width: 100, Height: 80})
	require.Equal(t, g1.Nodes, g2.Nodes)

	for _, n := range g1.Nodes {
		require.False(t, math.IsNaN(n.X) || math.IsNaN(n.Y))
		require.LessOrEqual(t, math.Abs(n.X), 50.0)
		require.LessOrEqual(t, math.Abs(n.Y), 40.0)
	}
	// Nodes don't collapse onto one another.
	require.NotEqual(t, g1.Nodes[0].X, g1.Nodes[1].X)

	var single = &Graph{Nodes: []Node{{ID: "solo"}}}
	ForceLayout(single, LayoutOptions{})
	require.Equal(t, Node{ID: "solo"}, single.Nodes[0])
}

func nodeIDs(g *Graph) []string {
	var out []string
	for _, n := range g.Nodes {
		out = append(out, n.ID)
	}
	return out
}

func fixtureRows() []session.Row {
	var cols = []string{"id", "name", "lat", "lng", "year"}
	return []session.Row{
		session.NewRow(cols, []interface{}{int64(1), "Wieskirche", 47.6811, 10.8981, int64(1754)}),
		session.NewRow(cols, []interface{}{int64(2), "Würzburg Residenz", 49.7928, 9.9387, int64(1753)}),
		session.NewRow(cols, []interface{}{int64(3), "Asamkirche", nil, 11.5694, nil}),
	}
}
