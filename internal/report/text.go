package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

func (g *Generator) generateTextReport(outputDir string, day time.Time, d *reportData) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writeSummary(file, g.now(), day, d)
	return nil
}

func writeSummary(w io.Writer, generated, day time.Time, d *reportData) {
	fmt.Fprintf(w, "Operations Report\n")
	fmt.Fprintf(w, "Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Day: %s\n\n", day.Format("2006-01-02"))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintln(w, "\nGEOLOCATION SEARCHES")
	located := lo.CountBy(d.search, func(e models.SearchEvent) bool { return e.Location != nil })
	fmt.Fprintf(w, "  Total: %d\n", len(d.search))
	fmt.Fprintf(w, "  Located: %d\n", located)
	fmt.Fprintf(w, "  Not found: %d\n", len(d.search)-located)
	writeElapsed(w, lo.Map(d.search, func(e models.SearchEvent, _ int) time.Duration { return e.Elapsed }))

	fmt.Fprintln(w, "\nGEOTRACER EXECUTIONS")
	fmt.Fprintf(w, "  Total: %d\n", len(d.tracer))
	if len(d.tracer) > 0 {
		hops := lo.SumBy(d.tracer, func(e models.TracerEvent) int { return len(e.Hops) })
		silent := lo.SumBy(d.tracer, func(e models.TracerEvent) int { return lo.Count(e.Hops, nil) })
		fmt.Fprintf(w, "  Average hops: %.1f\n", float64(hops)/float64(len(d.tracer)))
		fmt.Fprintf(w, "  Hops without location: %d of %d\n", silent, hops)
	}
	writeElapsed(w, lo.Map(d.tracer, func(e models.TracerEvent, _ int) time.Duration { return e.Elapsed }))

	fmt.Fprintln(w, "\nSTOCK SEARCHES")
	byKind := lo.CountValuesBy(d.stock, func(e models.StockEvent) string { return e.Kind })
	found := lo.CountBy(d.stock, func(e models.StockEvent) bool { return e.Found })
	fmt.Fprintf(w, "  Total: %d (price %d, history %d)\n", len(d.stock), byKind["price"], byKind["history"])
	fmt.Fprintf(w, "  With data: %d\n", found)
	symbols := lo.Uniq(lo.Map(d.stock, func(e models.StockEvent, _ int) string { return e.Symbol }))
	if len(symbols) > 0 {
		fmt.Fprintf(w, "  Symbols: %s\n", strings.Join(symbols, ", "))
	}
	writeElapsed(w, lo.Map(d.stock, func(e models.StockEvent, _ int) time.Duration { return e.Elapsed }))

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if hour, count, ok := busiestHour(d.activity); ok {
		fmt.Fprintf(w, "\nBusiest hour: %02d:00 (%d operations)\n", hour, count)
	} else {
		fmt.Fprintln(w, "\nNo operations were recorded.")
	}
}

func writeElapsed(w io.Writer, elapsed []time.Duration) {
	if len(elapsed) == 0 {
		return
	}
	fmt.Fprintf(w, "  Average time: %s\n", (lo.Sum(elapsed) / time.Duration(len(elapsed))).Round(time.Millisecond))
	fmt.Fprintf(w, "  Max time: %s\n", lo.Max(elapsed).Round(time.Millisecond))
}

func busiestHour(activity []models.ActivityPoint) (int, int, bool) {
	perHour := make(map[int]int)
	for _, p := range activity {
		perHour[p.Hour] += p.Count
	}
	if len(perHour) == 0 {
		return 0, 0, false
	}

	best, bestCount := -1, -1
	for hour, count := range perHour {
		if count > bestCount || (count == bestCount && hour < best) {
			best, bestCount = hour, count
		}
	}
	return best, bestCount, true
}
