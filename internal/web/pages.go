package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/bryandaniel1/operation-monitor/internal/client"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/view"
)

var pageNames = []string{"index", "geolocator", "geotracer", "stocks", "monitor", "event"}

var templateFuncs = template.FuncMap{
	"label": models.FieldLabel,
	"ms": func(d time.Duration) string {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	},
	"clock": func(t time.Time) string {
		return t.Format("15:04:05")
	},
}

func parsePages(assets fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(assets,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// resultView is the template-facing snapshot of a rendered page
type resultView struct {
	Fields          []models.Field
	DataVisible     bool
	MapVisible      bool
	Message         string
	MessageVisible  bool
	Status          string
	Hops            []view.Node
	AccordionActive bool
	MapJSON         template.JS
	Chart           template.HTML
}

func newResultView(p *view.Page, fieldNames []string) resultView {
	return resultView{
		Fields: lo.Map(fieldNames, func(name string, _ int) models.Field {
			return models.Field{Name: name, Label: models.FieldLabel(name), Value: p.Field(name)}
		}),
		DataVisible:     p.DataSection.Visible,
		MapVisible:      p.MapSection.Visible,
		Message:         p.Message.String(),
		MessageVisible:  p.Message.Visible,
		Status:          p.Status.String(),
		Hops:            p.Accordion.Entries,
		AccordionActive: p.Accordion.Active,
		MapJSON:         template.JS(p.Map.JSON()),
		// the chart is rendered server-side by go-chart
		Chart: template.HTML(p.ChartSVG()),
	}
}

type pageData struct {
	Title  string
	Active string
	Input  map[string]string
	Result resultView
	State  string
	Data   any
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Errorw("Failed to render page", "page", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) logRender(page string, err error) {
	if err != nil {
		s.log.Warnw("Render failed", "page", page, "error", err)
	}
}

// backendContext carries the page user's address to the backend
func (s *Server) backendContext(r *http.Request) context.Context {
	return client.WithClientIP(r.Context(), s.clientIP(r))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index", pageData{Title: "Operation Monitor"})
}

func (s *Server) handleGeolocatorPage(w http.ResponseWriter, r *http.Request) {
	page := view.NewPage(models.LocationFieldNames, nil)
	rd := view.NewRenderer(page.Bindings())
	input := map[string]string{"ipAddress": s.clientIP(r)}

	if r.Method == http.MethodPost {
		ip := strings.TrimSpace(r.PostFormValue("ipAddress"))
		input["ipAddress"] = ip

		t := rd.Begin()
		rec, err := s.Backend.Locate(s.backendContext(r), ip)
		if err != nil {
			s.logRender("geolocator", rd.RenderTransportError(t, err))
		} else {
			s.logRender("geolocator", rd.RenderLocation(t, ip, rec))
		}
	}

	s.renderPage(w, "geolocator", pageData{
		Title:  "IP Geolocator",
		Active: "geolocator",
		Input:  input,
		Result: newResultView(page, models.LocationFieldNames),
		State:  rd.State().String(),
	})
}

func (s *Server) handleGeotracerPage(w http.ResponseWriter, r *http.Request) {
	page := view.NewPage(models.LocationFieldNames, nil)
	rd := view.NewRenderer(page.Bindings())
	input := map[string]string{"requestIpAddress": s.clientIP(r)}

	if r.Method == http.MethodPost {
		requestIP := strings.TrimSpace(r.PostFormValue("requestIpAddress"))
		destination := strings.TrimSpace(r.PostFormValue("destinationIpAddress"))
		input["requestIpAddress"] = requestIP
		input["destinationIpAddress"] = destination

		t := rd.Begin()
		hops, err := s.Backend.Trace(s.backendContext(r), requestIP, destination)
		if err != nil {
			s.logRender("geotracer", rd.RenderTransportError(t, err))
		} else {
			s.logRender("geotracer", rd.RenderHops(t, destination, hops))
		}
	}

	s.renderPage(w, "geotracer", pageData{
		Title:  "Geotracer",
		Active: "geotracer",
		Input:  input,
		Result: newResultView(page, nil),
		State:  rd.State().String(),
	})
}

func (s *Server) handleStocksPage(w http.ResponseWriter, r *http.Request) {
	page := view.NewPage(models.QuoteFieldNames, s.Chart)
	rd := view.NewRenderer(page.Bindings())
	input := map[string]string{}

	if r.Method == http.MethodPost {
		symbol := strings.ToUpper(strings.TrimSpace(r.PostFormValue("stockSymbol")))
		input["stockSymbol"] = symbol

		t := rd.Begin()
		s.renderStock(r, rd, t, symbol)
	}

	s.renderPage(w, "stocks", pageData{
		Title:  "Stocks",
		Active: "stocks",
		Input:  input,
		Result: newResultView(page, models.QuoteFieldNames),
		State:  rd.State().String(),
	})
}

// renderStock renders the quote and, when one was found, its history under the same ticket
func (s *Server) renderStock(r *http.Request, rd *view.Renderer, t view.Ticket, symbol string) {
	ctx := s.backendContext(r)
	quote, err := s.Backend.Price(ctx, symbol)
	if err != nil {
		s.logRender("stocks", rd.RenderTransportError(t, err))
		return
	}
	if err := rd.RenderQuote(t, symbol, quote); err != nil || quote == nil {
		s.logRender("stocks", err)
		return
	}

	history, err := s.Backend.History(ctx, symbol)
	if err != nil {
		s.logRender("stocks", rd.RenderTransportError(t, err))
		return
	}
	s.logRender("stocks", rd.RenderHistory(t, symbol, history))
}
