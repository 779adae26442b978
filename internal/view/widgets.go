package view

import (
	"github.com/samber/lo"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// Map styling for the two map variants
const (
	markerZoom        = 15
	pathZoom          = 3
	pathMapType       = "terrain"
	pathStrokeColor   = "#FF0000"
	pathStrokeOpacity = 1.0
	pathStrokeWeight  = 2
	chartLineColor    = "#097138"
)

// Marker is a titled map pin
type Marker struct {
	Position models.LatLng `json:"position"`
	Title    string        `json:"title"`
}

// Polyline is an ordered path drawn on the map
type Polyline struct {
	Path          []models.LatLng `json:"path"`
	Geodesic      bool            `json:"geodesic"`
	StrokeColor   string          `json:"strokeColor"`
	StrokeOpacity float64         `json:"strokeOpacity"`
	StrokeWeight  int             `json:"strokeWeight"`
}

// MapSpec describes everything the map widget draws
type MapSpec struct {
	Center    models.LatLng `json:"center"`
	Zoom      int           `json:"zoom"`
	MapTypeID string        `json:"mapTypeId,omitempty"`
	Markers   []Marker      `json:"markers,omitempty"`
	Polylines []Polyline    `json:"polylines,omitempty"`
}

// ChartRow is one (category, value) pair of a line chart
type ChartRow struct {
	Label string
	Value float64
}

// ChartSpec describes a two-column line chart
type ChartSpec struct {
	Title      string
	SeriesName string
	XTitle     string
	YTitle     string
	Color      string
	Rows       []ChartRow
}

// LocationMap returns the single-marker map for a record, or false when the record has no coordinates
func LocationMap(rec *models.LocationRecord) (MapSpec, bool) {
	center, ok := rec.Coordinates()
	if !ok {
		return MapSpec{}, false
	}
	return MapSpec{
		Center: center,
		Zoom:   markerZoom,
		Markers: []Marker{{
			Position: center,
			Title:    "Public IP:" + rec.IPAddress + " @ " + rec.City,
		}},
	}, true
}

// PathMap returns the polyline map through every located hop, or false when no hop has coordinates
func PathMap(hops models.HopSequence) (MapSpec, bool) {
	points := hops.Points()
	if len(points) == 0 {
		return MapSpec{}, false
	}
	return MapSpec{
		Center:    points[0],
		Zoom:      pathZoom,
		MapTypeID: pathMapType,
		Polylines: []Polyline{{
			Path:          points,
			Geodesic:      false,
			StrokeColor:   pathStrokeColor,
			StrokeOpacity: pathStrokeOpacity,
			StrokeWeight:  pathStrokeWeight,
		}},
	}, true
}

// HistoryChart converts a history series into a chronological line chart
func HistoryChart(history *models.HistorySeries) ChartSpec {
	rows := lo.Map(history.Chronological(), func(p models.HistoryPoint, _ int) ChartRow {
		return ChartRow{Label: p.Label, Value: p.Close}
	})
	return ChartSpec{
		Title:      "Stock History",
		SeriesName: history.Name,
		XTitle:     "Time",
		YTitle:     "Price",
		Color:      chartLineColor,
		Rows:       rows,
	}
}
