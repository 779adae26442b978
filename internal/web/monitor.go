package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/bryandaniel1/operation-monitor/internal/config"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/view"
)

var emptyMessages = map[models.EventType]string{
	models.EventSearch: "No geolocation search events were found for the selected date.",
	models.EventTracer: "No geotracer events were found for the selected date.",
	models.EventStock:  "No stock events were found for the selected date.",
}

// eventRow is one line of the monitor event table
type eventRow struct {
	ID      string
	Time    time.Time
	Input   string
	Elapsed time.Duration
	Outcome string
	Link    bool
}

type monitorData struct {
	Type     models.EventType
	Types    []models.EventType
	Date     string
	Rows     []eventRow
	Empty    string
	Activity []models.ActivityPoint
	Total    int
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	eventType := models.EventSearch
	if v := r.URL.Query().Get("type"); v != "" {
		t, ok := models.ParseEventType(v)
		if !ok {
			http.Error(w, "Unknown event type: "+v, http.StatusBadRequest)
			return
		}
		eventType = t
	}

	day := time.Now()
	date := r.URL.Query().Get("date")
	if date != "" {
		d, err := time.ParseInLocation(config.DateLayout, date, time.Local)
		if err != nil {
			http.Error(w, "Invalid date: "+date, http.StatusBadRequest)
			return
		}
		day = d
	}
	date = day.Format(config.DateLayout)

	rows, err := s.eventRows(r, eventType, day)
	if err != nil {
		s.log.Errorw("Failed to load events", "type", eventType, "date", date, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	activity, err := s.DB.GetActivity(r.Context(), day)
	if err != nil {
		s.log.Errorw("Failed to load activity", "date", date, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := monitorData{
		Type:     eventType,
		Types:    []models.EventType{models.EventSearch, models.EventTracer, models.EventStock},
		Date:     date,
		Rows:     rows,
		Activity: activity,
		Total:    lo.SumBy(activity, func(p models.ActivityPoint) int { return p.Count }),
	}
	if len(rows) == 0 {
		data.Empty = emptyMessages[eventType]
	}

	s.renderPage(w, "monitor", pageData{
		Title:  "Operations Monitor",
		Active: "monitor",
		Data:   data,
	})
}

func (s *Server) eventRows(r *http.Request, eventType models.EventType, day time.Time) ([]eventRow, error) {
	switch eventType {
	case models.EventTracer:
		events, err := s.DB.GetTracerEvents(r.Context(), day)
		if err != nil {
			return nil, err
		}
		return lo.Map(events, func(e models.TracerEvent, _ int) eventRow {
			outcome := "not found"
			if len(e.Hops) > 0 {
				outcome = lo.Ternary(len(e.Hops) == 1, "1 hop", strconv.Itoa(len(e.Hops))+" hops")
			}
			return eventRow{
				ID:      e.ID,
				Time:    e.TimeExecuted,
				Input:   e.RequestIP + " → " + e.DestinationIP,
				Elapsed: e.Elapsed,
				Outcome: outcome,
				Link:    true,
			}
		}), nil
	case models.EventStock:
		events, err := s.DB.GetStockEvents(r.Context(), day)
		if err != nil {
			return nil, err
		}
		return lo.Map(events, func(e models.StockEvent, _ int) eventRow {
			return eventRow{
				ID:      e.ID,
				Time:    e.TimeSearched,
				Input:   e.Symbol + " (" + e.Kind + ")",
				Elapsed: e.Elapsed,
				Outcome: lo.Ternary(e.Found, "found", "not found"),
			}
		}), nil
	default:
		events, err := s.DB.GetSearchEvents(r.Context(), day)
		if err != nil {
			return nil, err
		}
		return lo.Map(events, func(e models.SearchEvent, _ int) eventRow {
			outcome := "not found"
			if e.Location != nil {
				outcome, _ = lo.Coalesce(e.Location.City, e.Location.CountryName, "found")
			}
			return eventRow{
				ID:      e.ID,
				Time:    e.TimeSearched,
				Input:   e.IPAddress,
				Elapsed: e.Elapsed,
				Outcome: outcome,
				Link:    true,
			}
		}), nil
	}
}

// handleMonitorEvent re-renders a recorded search or trace result
func (s *Server) handleMonitorEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page := view.NewPage(models.LocationFieldNames, nil)
	rd := view.NewRenderer(page.Bindings())
	t := rd.Begin()

	var (
		title  string
		fields []string
	)
	switch r.URL.Query().Get("type") {
	case "", string(models.EventSearch):
		ev, err := s.DB.GetSearchEvent(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ev == nil {
			http.NotFound(w, r)
			return
		}
		title = "Search " + ev.IPAddress
		fields = models.LocationFieldNames
		s.logRender("event", rd.RenderLocation(t, ev.IPAddress, ev.Location))
	case string(models.EventTracer):
		ev, err := s.DB.GetTracerEvent(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ev == nil {
			http.NotFound(w, r)
			return
		}
		title = "Trace " + ev.RequestIP + " → " + ev.DestinationIP
		s.logRender("event", rd.RenderHops(t, ev.DestinationIP, ev.Hops))
	default:
		http.Error(w, "Unknown event type: "+r.URL.Query().Get("type"), http.StatusBadRequest)
		return
	}

	s.renderPage(w, "event", pageData{
		Title:  title,
		Active: "monitor",
		Result: newResultView(page, fields),
		State:  rd.State().String(),
	})
}
