package monitor

import (
	"context"
	"time"
)

// maintenanceWorker runs periodic maintenance tasks
func (m *Monitor) maintenanceWorker() {
	defer m.wg.Done()

	// Run maintenance every hour
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	// Run immediately on start
	m.performMaintenance()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.performMaintenance()
		}
	}
}

// performMaintenance removes events older than the retention period
func (m *Monitor) performMaintenance() {
	ctx, cancel := context.WithTimeout(m.ctx, time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-m.retention)
	removed, err := m.db.PruneEvents(ctx, cutoff)
	if err != nil {
		m.log.Errorw("Failed to prune events", "cutoff", cutoff, "error", err)
		return
	}
	m.log.Infow("Maintenance complete", "removed", removed)
}
