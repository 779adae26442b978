package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

const saveTimeout = 5 * time.Second

// Record queues an event for saving. Events are dropped when the queue is full
// or the monitor has stopped.
func (m *Monitor) Record(event models.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stopped {
		m.log.Warnw("Monitor stopped, dropping event", "type", event.Type)
		return
	}

	select {
	case m.events <- event:
	default:
		m.log.Warnw("Event channel full, dropping event", "type", event.Type)
	}
}

// processEvents saves events from the events channel
func (m *Monitor) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.drain()
			return
		case event := <-m.events:
			m.save(event)
		}
	}
}

func (m *Monitor) drain() {
	for {
		select {
		case event := <-m.events:
			m.save(event)
		default:
			return
		}
	}
}

func (m *Monitor) save(event models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := m.saveEvent(ctx, event); err != nil {
		m.log.Errorw("Failed to save event", "type", event.Type, "error", err)
	}
}

func (m *Monitor) saveEvent(ctx context.Context, event models.Event) error {
	switch {
	case event.Type == models.EventSearch && event.Search != nil:
		e := *event.Search
		e.ID = ensureID(e.ID)
		return m.db.SaveSearchEvent(ctx, e)
	case event.Type == models.EventTracer && event.Tracer != nil:
		e := *event.Tracer
		e.ID = ensureID(e.ID)
		return m.db.SaveTracerEvent(ctx, e)
	case event.Type == models.EventStock && event.Stock != nil:
		e := *event.Stock
		e.ID = ensureID(e.ID)
		return m.db.SaveStockEvent(ctx, e)
	default:
		return fmt.Errorf("malformed %q event", event.Type)
	}
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
