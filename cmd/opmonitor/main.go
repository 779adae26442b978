package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryandaniel1/operation-monitor/internal/cache"
	"github.com/bryandaniel1/operation-monitor/internal/client"
	"github.com/bryandaniel1/operation-monitor/internal/config"
	"github.com/bryandaniel1/operation-monitor/internal/database"
	"github.com/bryandaniel1/operation-monitor/internal/geo"
	"github.com/bryandaniel1/operation-monitor/internal/logging"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/monitor"
	"github.com/bryandaniel1/operation-monitor/internal/report"
	"github.com/bryandaniel1/operation-monitor/internal/stocks"
	"github.com/bryandaniel1/operation-monitor/internal/trace"
	"github.com/bryandaniel1/operation-monitor/internal/web"
)

const upstreamTimeout = 15 * time.Second

func main() {
	// Parse configuration
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Errorw("Operation monitor failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("initialize database schema: %w", err)
	}

	// Report mode writes one day's report and exits
	if cfg.ReportDir != "" {
		day := cfg.ReportDay(time.Now())
		dir, err := report.NewGenerator(db, log.Named("report")).GenerateReport(ctx, cfg.ReportDir, day)
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		log.Infow("Report generated", "dir", dir, "day", day.Format(config.DateLayout))
		return nil
	}

	store, err := cache.New(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	locator, err := newLocator(cfg.Geo)
	if err != nil {
		return err
	}
	if closer, ok := locator.(io.Closer); ok {
		defer closer.Close()
	}
	cached := geo.NewCachedLocator(locator, store, log.Named("geo"))

	paths := trace.NewPathFinder(
		trace.NewRunner(cfg.Trace.Command, cfg.Trace.Timeout),
		trace.NewResolver(cfg.Trace.Resolver),
		cached,
		cfg.Trace.Concurrency,
		log.Named("trace"),
	)
	market := stocks.NewClient(cfg.Stocks.ServiceURL, cfg.Stocks.APIToken, cfg.Stocks.HistoryDays, upstreamTimeout, log.Named("stocks"))

	proxies, err := config.ParseProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	mon := monitor.New(db, cfg.RetentionDays, log.Named("monitor"))

	backendURL := cfg.BackendURL
	if backendURL == "" {
		backendURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	}

	webServer, err := web.New(web.Dependencies{
		DB:         db,
		Locator:    cached,
		PathFinder: paths,
		Stocks:     market,
		Recorder:   mon,
		Backend:    client.New(backendURL, cfg.Trace.Timeout+upstreamTimeout),
		Chart:      report.HistorySVG,
	}, web.Options{
		Port:           cfg.Port,
		TraceRate:      cfg.Trace.Rate,
		TraceBurst:     cfg.Trace.Burst,
		TrustedProxies: proxies,
	}, web.Assets, log.Named("web"))
	if err != nil {
		return fmt.Errorf("create web server: %w", err)
	}
	if err := mon.Start(); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- webServer.Start()
	}()
	log.Infow("Web interface available", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = webServer.Shutdown(shutdownCtx)
		cancel()
	}

	mon.Stop()
	mon.Wait()
	return err
}

func newLocator(cfg config.GeoConfig) (models.Locator, error) {
	if cfg.Provider == "maxmind" {
		locator, err := geo.NewMaxmindLocator(cfg.MaxmindDB)
		if err != nil {
			return nil, fmt.Errorf("open maxmind database: %w", err)
		}
		return locator, nil
	}
	return geo.NewHTTPLocator(cfg.ServiceURL, upstreamTimeout), nil
}
