package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// SaveSearchEvent saves a geolocation search
func (db *DB) SaveSearchEvent(ctx context.Context, e models.SearchEvent) error {
	location, err := encodeJSON(e.Location)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO search_events (id, ip_address, time_ms, elapsed_ms, location)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err = db.ExecContext(ctx, query, e.ID, e.IPAddress, e.TimeSearched.UnixMilli(), e.Elapsed.Milliseconds(), location)
	return err
}

// SaveTracerEvent saves a geotracer execution
func (db *DB) SaveTracerEvent(ctx context.Context, e models.TracerEvent) error {
	hops, err := encodeJSON(e.Hops)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO tracer_events (id, request_ip, destination_ip, time_ms, elapsed_ms, hops)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err = db.ExecContext(ctx, query, e.ID, e.RequestIP, e.DestinationIP, e.TimeExecuted.UnixMilli(), e.Elapsed.Milliseconds(), hops)
	return err
}

// SaveStockEvent saves a stock price or history search
func (db *DB) SaveStockEvent(ctx context.Context, e models.StockEvent) error {
	query := `
        INSERT INTO stock_events (id, symbol, kind, time_ms, elapsed_ms, found)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := db.ExecContext(ctx, query, e.ID, e.Symbol, e.Kind, e.TimeSearched.UnixMilli(), e.Elapsed.Milliseconds(), e.Found)
	return err
}

// GetSearchEvents retrieves the searches of one day, oldest first
func (db *DB) GetSearchEvents(ctx context.Context, day time.Time) ([]models.SearchEvent, error) {
	from, to := dayRange(day)
	query := `
        SELECT id, ip_address, time_ms, elapsed_ms, location
        FROM search_events
        WHERE time_ms >= ? AND time_ms < ?
        ORDER BY time_ms
    `
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.SearchEvent
	for rows.Next() {
		e, err := scanSearchEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetSearchEvent retrieves one search, or nil when it does not exist
func (db *DB) GetSearchEvent(ctx context.Context, id string) (*models.SearchEvent, error) {
	row := db.QueryRowContext(ctx, `
        SELECT id, ip_address, time_ms, elapsed_ms, location
        FROM search_events WHERE id = ?
    `, id)
	e, err := scanSearchEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// GetTracerEvents retrieves the geotracer executions of one day, oldest first
func (db *DB) GetTracerEvents(ctx context.Context, day time.Time) ([]models.TracerEvent, error) {
	from, to := dayRange(day)
	query := `
        SELECT id, request_ip, destination_ip, time_ms, elapsed_ms, hops
        FROM tracer_events
        WHERE time_ms >= ? AND time_ms < ?
        ORDER BY time_ms
    `
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.TracerEvent
	for rows.Next() {
		e, err := scanTracerEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetTracerEvent retrieves one geotracer execution, or nil when it does not exist
func (db *DB) GetTracerEvent(ctx context.Context, id string) (*models.TracerEvent, error) {
	row := db.QueryRowContext(ctx, `
        SELECT id, request_ip, destination_ip, time_ms, elapsed_ms, hops
        FROM tracer_events WHERE id = ?
    `, id)
	e, err := scanTracerEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// GetStockEvents retrieves the stock searches of one day, oldest first
func (db *DB) GetStockEvents(ctx context.Context, day time.Time) ([]models.StockEvent, error) {
	from, to := dayRange(day)
	query := `
        SELECT id, symbol, kind, time_ms, elapsed_ms, found
        FROM stock_events
        WHERE time_ms >= ? AND time_ms < ?
        ORDER BY time_ms
    `
	rows, err := db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.StockEvent
	for rows.Next() {
		var e models.StockEvent
		var timeMs, elapsedMs int64
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Kind, &timeMs, &elapsedMs, &e.Found); err != nil {
			return nil, err
		}
		e.TimeSearched = time.UnixMilli(timeMs)
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetActivity retrieves event counts per hour and type for one day
func (db *DB) GetActivity(ctx context.Context, day time.Time) ([]models.ActivityPoint, error) {
	from, to := dayRange(day)
	query := `
        SELECT type, (time_ms - ?) / 3600000 as hour, COUNT(*), AVG(elapsed_ms)
        FROM (
            SELECT 'search' as type, time_ms, elapsed_ms FROM search_events WHERE time_ms >= ? AND time_ms < ?
            UNION ALL
            SELECT 'tracer', time_ms, elapsed_ms FROM tracer_events WHERE time_ms >= ? AND time_ms < ?
            UNION ALL
            SELECT 'stock', time_ms, elapsed_ms FROM stock_events WHERE time_ms >= ? AND time_ms < ?
        )
        GROUP BY type, hour
        ORDER BY hour, type
    `
	rows, err := db.QueryContext(ctx, query, from, from, to, from, to, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.ActivityPoint
	for rows.Next() {
		var p models.ActivityPoint
		var typ string
		if err := rows.Scan(&typ, &p.Hour, &p.Count, &p.AvgElapsed); err != nil {
			return nil, err
		}
		p.Type = models.EventType(typ)
		points = append(points, p)
	}
	return points, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSearchEvent(s scanner) (*models.SearchEvent, error) {
	var e models.SearchEvent
	var timeMs, elapsedMs int64
	var location sql.NullString
	if err := s.Scan(&e.ID, &e.IPAddress, &timeMs, &elapsedMs, &location); err != nil {
		return nil, err
	}
	e.TimeSearched = time.UnixMilli(timeMs)
	e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if err := decodeJSON(location, &e.Location); err != nil {
		return nil, fmt.Errorf("search event %s: %w", e.ID, err)
	}
	return &e, nil
}

func scanTracerEvent(s scanner) (*models.TracerEvent, error) {
	var e models.TracerEvent
	var timeMs, elapsedMs int64
	var hops sql.NullString
	if err := s.Scan(&e.ID, &e.RequestIP, &e.DestinationIP, &timeMs, &elapsedMs, &hops); err != nil {
		return nil, err
	}
	e.TimeExecuted = time.UnixMilli(timeMs)
	e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if err := decodeJSON(hops, &e.Hops); err != nil {
		return nil, fmt.Errorf("tracer event %s: %w", e.ID, err)
	}
	return &e, nil
}

// dayRange returns the [start, end) unix milliseconds of the day containing t, in t's location
func dayRange(t time.Time) (int64, int64) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start.UnixMilli(), start.AddDate(0, 0, 1).UnixMilli()
}

func encodeJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode event payload: %w", err)
	}
	if string(data) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}
