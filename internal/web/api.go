package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryandaniel1/operation-monitor/internal/geo"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/trace"
)

// requireForm returns the trimmed form value, or writes a 400 and returns false
func requireForm(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.PostFormValue(name))
	if value == "" {
		http.Error(w, "Property '"+name+"' is missing.", http.StatusBadRequest)
		return "", false
	}
	return value, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleLocate handles POST /geolocator/service/find
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	ip, ok := requireForm(w, r, "ipAddress")
	if !ok {
		return
	}

	start := time.Now()
	rec, err := s.Locator.Locate(r.Context(), ip)
	if err != nil && !errors.Is(err, geo.ErrInvalidIP) {
		s.log.Errorw("Geolocation lookup failed", "ip", ip, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Recorder.Record(models.Event{
		Type: models.EventSearch,
		Search: &models.SearchEvent{
			ID:           uuid.NewString(),
			IPAddress:    ip,
			TimeSearched: start,
			Elapsed:      time.Since(start),
			Location:     rec,
		},
	})
	writeJSON(w, rec)
}

// handleTrace handles POST /geotracer/service/find
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	requestIP, ok := requireForm(w, r, "requestIpAddress")
	if !ok {
		return
	}
	destination, ok := requireForm(w, r, "destinationIpAddress")
	if !ok {
		return
	}

	start := time.Now()
	hops, err := s.PathFinder.Find(r.Context(), requestIP, destination)
	if err != nil {
		if !errors.Is(err, trace.ErrUnresolved) {
			s.log.Errorw("Geotracer failed", "request_ip", requestIP, "destination", destination, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hops = nil
	}

	s.Recorder.Record(models.Event{
		Type: models.EventTracer,
		Tracer: &models.TracerEvent{
			ID:            uuid.NewString(),
			RequestIP:     requestIP,
			DestinationIP: destination,
			TimeExecuted:  start,
			Elapsed:       time.Since(start),
			Hops:          hops,
		},
	})
	writeJSON(w, hops)
}

// handlePrice handles POST /stocks/price
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol, ok := requireForm(w, r, "stockSymbol")
	if !ok {
		return
	}
	symbol = strings.ToUpper(symbol)

	start := time.Now()
	quote, err := s.Stocks.Price(r.Context(), symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.recordStock(symbol, "price", start, quote != nil)

	if quote == nil {
		writeJSON(w, nil)
		return
	}
	writeJSON(w, models.QuoteResult{Data: []models.QuoteRecord{*quote}})
}

// handleHistory handles POST /stocks/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, ok := requireForm(w, r, "stockSymbol")
	if !ok {
		return
	}
	symbol = strings.ToUpper(symbol)

	start := time.Now()
	history, err := s.Stocks.History(r.Context(), symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.recordStock(symbol, "history", start, history != nil)
	writeJSON(w, history)
}

func (s *Server) recordStock(symbol, kind string, start time.Time, found bool) {
	s.Recorder.Record(models.Event{
		Type: models.EventStock,
		Stock: &models.StockEvent{
			ID:           uuid.NewString(),
			Symbol:       symbol,
			Kind:         kind,
			TimeSearched: start,
			Elapsed:      time.Since(start),
			Found:        found,
		},
	})
}
