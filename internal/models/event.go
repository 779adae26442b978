package models

import "time"

// EventType identifies the kind of operation recorded by the monitor
type EventType string

const (
	EventSearch EventType = "search"
	EventTracer EventType = "tracer"
	EventStock  EventType = "stock"
)

// Label returns the display name of the event type
func (t EventType) Label() string {
	switch t {
	case EventSearch:
		return "Search"
	case EventTracer:
		return "Tracer"
	case EventStock:
		return "Stock"
	default:
		return string(t)
	}
}

// ParseEventType converts a form value into an EventType
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventSearch, EventTracer, EventStock:
		return EventType(s), true
	}
	return "", false
}

// SearchEvent records one geolocation search
type SearchEvent struct {
	ID           string          `json:"id"`
	IPAddress    string          `json:"ipAddress"`
	TimeSearched time.Time       `json:"timeSearched"`
	Elapsed      time.Duration   `json:"elapsed"`
	Location     *LocationRecord `json:"location"`
}

// TracerEvent records one geotracer execution
type TracerEvent struct {
	ID            string        `json:"id"`
	RequestIP     string        `json:"requestIpAddress"`
	DestinationIP string        `json:"destinationIpAddress"`
	TimeExecuted  time.Time     `json:"timeExecuted"`
	Elapsed       time.Duration `json:"elapsed"`
	Hops          HopSequence   `json:"hops"`
}

// StockEvent records one stock price or history search
type StockEvent struct {
	ID           string        `json:"id"`
	Symbol       string        `json:"symbol"`
	Kind         string        `json:"kind"` // price or history
	TimeSearched time.Time     `json:"timeSearched"`
	Elapsed      time.Duration `json:"elapsed"`
	Found        bool          `json:"found"`
}

// Event is the envelope published to the monitor. Exactly one payload is set.
type Event struct {
	Type   EventType
	Search *SearchEvent
	Tracer *TracerEvent
	Stock  *StockEvent
}

// ActivityPoint is the number of events of one type in one hour of a day
type ActivityPoint struct {
	Hour       int       `json:"hour"`
	Type       EventType `json:"type"`
	Count      int       `json:"count"`
	AvgElapsed float64   `json:"avg_elapsed_ms"`
}
