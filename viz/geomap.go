package viz

import (
	"math"

	"go.cbdd.dev/baroquedb/session"
)

// Default view of a Map having no explicit center.
var (
	DefaultMapCenter = [2]float64{51.0, 10.0}
	DefaultMapZoom   = 6
)

// MapConfig configures BuildMap. Zero-valued fields take defaults.
type MapConfig struct {
	LatColumn   string    `schema:"lat"`
	LngColumn   string    `schema:"lng"`
	LabelColumn string    `schema:"label"`
	Center      []float64 `schema:"center"`
	Zoom        int       `schema:"zoom"`
}

// Map is a set of markers over a map view.
type Map struct {
	Center  [2]float64  `json:"center"`
	Zoom    int         `json:"zoom"`
	Markers []MapMarker `json:"markers"`
	// Bounds of all Markers, or nil if there are none.
	Bounds *Bounds `json:"bounds,omitempty"`
	// Skipped counts rows having unusable coordinates.
	Skipped int  `json:"skipped,omitempty"`
	Empty   bool `json:"empty,omitempty"`
}

// MapMarker is a point of a Map.
type MapMarker struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Label  string  `json:"label,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field is a formatted column value shown alongside a MapMarker.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Bounds is a south-west and north-east corner pair.
type Bounds struct {
	SouthWest [2]float64 `json:"southWest"`
	NorthEast [2]float64 `json:"northEast"`
}

// BuildMap builds a Map of |rows|. Latitude and longitude columns are
// required; the label column is optional.
func BuildMap(rows []session.Row, cfg MapConfig) (*Map, error) {
	var m = &Map{
		Center:  DefaultMapCenter,
		Zoom:    DefaultMapZoom,
		Markers: []MapMarker{},
	}
	if len(cfg.Center) == 2 {
		m.Center = [2]float64{cfg.Center[0], cfg.Center[1]}
	}
	if cfg.Zoom != 0 {
		m.Zoom = cfg.Zoom
	}
	if len(rows) == 0 {
		m.Empty = true
		return m, nil
	}
	var columns = columnsOf(rows)

	latCol, err := resolveColumn(columns, "latitude", cfg.LatColumn, LatitudeCandidates...)
	if err != nil {
		return nil, err
	}
	lngCol, err := resolveColumn(columns, "longitude", cfg.LngColumn, LongitudeCandidates...)
	if err != nil {
		return nil, err
	}
	labelCol, err := resolveColumn(columns, "label", cfg.LabelColumn, LabelCandidates...)
	if err != nil && cfg.LabelColumn != "" {
		return nil, err
	}

	for _, row := range rows {
		var latV, _ = row.Get(latCol)
		var lngV, _ = row.Get(lngCol)

		var lat, okLat = toFloat(latV)
		var lng, okLng = toFloat(lngV)
		if !okLat || !okLng {
			m.Skipped++
			continue
		}

		var marker = MapMarker{Lat: lat, Lng: lng}
		if labelCol != "" {
			var v, _ = row.Get(labelCol)
			marker.Label = FormatValue(v)
		}
		for i, col := range row.Columns() {
			var v = row.Values()[i]
			if col == latCol || col == lngCol || v == nil {
				continue
			}
			marker.Fields = append(marker.Fields, Field{Name: col, Value: FormatValue(v)})
		}
		m.Markers = append(m.Markers, marker)
		m.Bounds = m.Bounds.extend(lat, lng)
	}
	return m, nil
}

func (b *Bounds) extend(lat, lng float64) *Bounds {
	if b == nil {
		return &Bounds{SouthWest: [2]float64{lat, lng}, NorthEast: [2]float64{lat, lng}}
	}
	b.SouthWest = [2]float64{math.Min(b.SouthWest[0], lat), math.Min(b.SouthWest[1], lng)}
	b.NorthEast = [2]float64{math.Max(b.NorthEast[0], lat), math.Max(b.NorthEast[1], lng)}
	return b
}
