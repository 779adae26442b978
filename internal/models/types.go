package models

import (
	"context"
	"time"
)

// Database interface defines operations for event persistence
type Database interface {
	SaveSearchEvent(ctx context.Context, event SearchEvent) error
	SaveTracerEvent(ctx context.Context, event TracerEvent) error
	SaveStockEvent(ctx context.Context, event StockEvent) error
	GetSearchEvents(ctx context.Context, day time.Time) ([]SearchEvent, error)
	GetTracerEvents(ctx context.Context, day time.Time) ([]TracerEvent, error)
	GetStockEvents(ctx context.Context, day time.Time) ([]StockEvent, error)
	GetSearchEvent(ctx context.Context, id string) (*SearchEvent, error)
	GetTracerEvent(ctx context.Context, id string) (*TracerEvent, error)
	GetActivity(ctx context.Context, day time.Time) ([]ActivityPoint, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Locator interface defines geolocation lookups. A nil record without error means not found.
type Locator interface {
	Locate(ctx context.Context, ip string) (*LocationRecord, error)
}

// PathFinder interface defines geotracer path discovery
type PathFinder interface {
	Find(ctx context.Context, requestIP, destinationIP string) (HopSequence, error)
}

// StockSource interface defines stock market lookups. Nil results mean no data.
type StockSource interface {
	Price(ctx context.Context, symbol string) (*QuoteRecord, error)
	History(ctx context.Context, symbol string) (*HistorySeries, error)
}

// Recorder interface defines the event sink used by the backend handlers
type Recorder interface {
	Record(event Event)
}
