package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/view"
)

const maxHistoryTicks = 8

var gridStyle = chart.Style{
	StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
	StrokeWidth: 1.0,
}

var padding = chart.Style{
	Padding: chart.Box{
		Top:    20,
		Left:   20,
		Right:  20,
		Bottom: 20,
	},
}

// HistorySVG renders a line chart spec as SVG. Rows are plotted in order on a
// category axis labelled with a subset of the row labels.
func HistorySVG(spec view.ChartSpec) ([]byte, error) {
	if len(spec.Rows) == 0 {
		return nil, fmt.Errorf("chart has no rows")
	}
	spec = escapeChartText(spec)

	xs := make([]float64, len(spec.Rows))
	ys := make([]float64, len(spec.Rows))
	minY, maxY := spec.Rows[0].Value, spec.Rows[0].Value
	for i, row := range spec.Rows {
		xs[i] = float64(i)
		ys[i] = row.Value
		minY = min(minY, row.Value)
		maxY = max(maxY, row.Value)
	}
	if minY == maxY {
		minY, maxY = minY-1, maxY+1
	}

	graph := chart.Chart{
		Title: spec.Title,
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: padding,
		Width:      1200,
		Height:     400,
		XAxis: chart.XAxis{
			Name: spec.XTitle,
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			Range: &chart.ContinuousRange{Min: 0, Max: max(float64(len(spec.Rows)-1), 1)},
			Ticks: historyTicks(spec.Rows),
		},
		YAxis: chart.YAxis{
			Name: spec.YTitle,
			NameStyle: chart.Style{
				FontSize: 12,
			},
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			Range:          &chart.ContinuousRange{Min: minY, Max: maxY},
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: spec.SeriesName,
				Style: chart.Style{
					StrokeColor: seriesColor(spec.Color),
					StrokeWidth: 2,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render history chart: %w", err)
	}
	return buf.Bytes(), nil
}

// escapeChartText escapes every string of the spec. The SVG renderer writes
// text nodes verbatim and labels come from the market data upstream.
func escapeChartText(spec view.ChartSpec) view.ChartSpec {
	rows := make([]view.ChartRow, len(spec.Rows))
	for i, row := range spec.Rows {
		rows[i] = view.ChartRow{Label: html.EscapeString(row.Label), Value: row.Value}
	}
	spec.Rows = rows
	spec.Title = html.EscapeString(spec.Title)
	spec.SeriesName = html.EscapeString(spec.SeriesName)
	spec.XTitle = html.EscapeString(spec.XTitle)
	spec.YTitle = html.EscapeString(spec.YTitle)
	return spec
}

// historyTicks spreads at most maxHistoryTicks labels over the rows, always including the last one
func historyTicks(rows []view.ChartRow) []chart.Tick {
	step := max(1, (len(rows)+maxHistoryTicks-1)/maxHistoryTicks)
	var ticks []chart.Tick
	for i := 0; i < len(rows); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: rows[i].Label})
	}
	if last := len(rows) - 1; last%step != 0 {
		ticks = append(ticks, chart.Tick{Value: float64(last), Label: rows[last].Label})
	}
	return ticks
}

func seriesColor(hex string) drawing.Color {
	if hex == "" {
		return chart.GetDefaultColor(0)
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// generateActivityChart draws the number of events per hour of the day
func (g *Generator) generateActivityChart(outputDir string, activity []models.ActivityPoint) error {
	var perHour [24]int
	total := 0
	for _, p := range activity {
		if p.Hour >= 0 && p.Hour < 24 {
			perHour[p.Hour] += p.Count
			total += p.Count
		}
	}
	if total == 0 {
		return nil
	}

	values := make([]chart.Value, 0, len(perHour))
	for hour, count := range perHour {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%02d", hour),
			Value: float64(count),
			Style: chart.Style{
				FillColor:   chart.GetDefaultColor(0),
				StrokeColor: chart.GetDefaultColor(0),
			},
		})
	}

	graph := chart.BarChart{
		Title: "Operations by Hour",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: padding,
		Width:      1200,
		Height:     400,
		YAxis: chart.YAxis{
			GridMajorStyle: gridStyle,
		},
		Bars:     values,
		BarWidth: 30,
	}

	filename := filepath.Join(outputDir, "activity.png")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
