// Package monitor records backend operations for the operations monitor.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

const eventBuffer = 100

// Monitor persists operation events in the background and prunes old ones
type Monitor struct {
	db        models.Database
	retention time.Duration
	log       *zap.SugaredLogger
	events    chan models.Event
	wg        sync.WaitGroup

	// mu orders Record sends before Stop so drain sees every queued event
	mu      sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Monitor keeping events for retentionDays
func New(db models.Database, retentionDays int, log *zap.SugaredLogger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		db:        db,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log,
		events:    make(chan models.Event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing events
func (m *Monitor) Start() error {
	m.wg.Add(1)
	go m.processEvents()

	m.wg.Add(1)
	go m.maintenanceWorker()

	m.log.Infow("Monitor started", "retention", m.retention)
	return nil
}

// Stop gracefully stops the monitor. Buffered events are still saved.
func (m *Monitor) Stop() {
	m.log.Info("Stopping monitor...")
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	m.cancel()
}

// Wait blocks until all goroutines finish
func (m *Monitor) Wait() {
	m.wg.Wait()
	m.log.Info("Monitor stopped")
}
