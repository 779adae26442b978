package database

import (
	"context"
	"fmt"
	"time"
)

// PruneEvents deletes events recorded before the cutoff and returns how many were removed
func (db *DB) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"search_events", "tracer_events", "stock_events"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE time_ms < ?", before.UnixMilli())
		if err != nil {
			return 0, fmt.Errorf("prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	// Vacuum to reclaim space (run occasionally)
	if time.Now().Day() == 1 {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return total, err
		}
	}
	return total, nil
}
