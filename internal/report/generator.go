// Package report renders charts and the daily operations report.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// Generator creates the daily operations report
type Generator struct {
	db  models.Database
	log *zap.SugaredLogger
	now func() time.Time
}

// NewGenerator creates a new report generator
func NewGenerator(db models.Database, log *zap.SugaredLogger) *Generator {
	return &Generator{db: db, log: log, now: time.Now}
}

// GenerateReport writes summary.txt and activity.png for day into a new
// directory under outputDir and returns that directory
func (g *Generator) GenerateReport(ctx context.Context, outputDir string, day time.Time) (string, error) {
	reportDir := filepath.Join(outputDir, fmt.Sprintf("operations_report_%s", day.Format("2006-01-02")))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := g.collect(ctx, day)
	if err != nil {
		return "", err
	}

	if err := g.generateActivityChart(reportDir, data.activity); err != nil {
		g.log.Errorw("Failed to generate activity chart", "error", err)
	}

	if err := g.generateTextReport(reportDir, day, data); err != nil {
		return "", fmt.Errorf("failed to generate text report: %w", err)
	}

	g.log.Infow("Report generated", "dir", reportDir)
	return reportDir, nil
}

type reportData struct {
	search   []models.SearchEvent
	tracer   []models.TracerEvent
	stock    []models.StockEvent
	activity []models.ActivityPoint
}

func (g *Generator) collect(ctx context.Context, day time.Time) (*reportData, error) {
	var d reportData
	var err error
	if d.search, err = g.db.GetSearchEvents(ctx, day); err != nil {
		return nil, fmt.Errorf("load search events: %w", err)
	}
	if d.tracer, err = g.db.GetTracerEvents(ctx, day); err != nil {
		return nil, fmt.Errorf("load tracer events: %w", err)
	}
	if d.stock, err = g.db.GetStockEvents(ctx, day); err != nil {
		return nil, fmt.Errorf("load stock events: %w", err)
	}
	if d.activity, err = g.db.GetActivity(ctx, day); err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	return &d, nil
}
