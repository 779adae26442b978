package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bryandaniel1/operation-monitor/internal/client"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/view"
)

// Dependencies are the services the server exposes
type Dependencies struct {
	DB         models.Database
	Locator    models.Locator
	PathFinder models.PathFinder
	Stocks     models.StockSource
	Recorder   models.Recorder
	// Backend is used by the presenter pages to call the service endpoints
	Backend *client.Client
	Chart   view.ChartFunc
}

// Options configures the server
type Options struct {
	Port int
	// TraceRate and TraceBurst size the per-client traceroute token bucket
	TraceRate  float64
	TraceBurst int
	// TrustedProxies may set X-Forwarded-For in addition to loopback
	TrustedProxies []netip.Prefix
}

// Server handles web requests
type Server struct {
	Dependencies

	port           int
	log            *zap.SugaredLogger
	assets         fs.FS
	pages          map[string]*template.Template
	limiter        *clientLimiter
	trustedProxies []netip.Prefix
	srv            *http.Server
}

// New creates a new web server. assets holds the templates/ and static/ directories.
func New(deps Dependencies, opts Options, assets fs.FS, log *zap.SugaredLogger) (*Server, error) {
	pages, err := parsePages(assets)
	if err != nil {
		return nil, err
	}
	return &Server{
		Dependencies:   deps,
		port:           opts.Port,
		log:            log,
		assets:         assets,
		pages:          pages,
		limiter:        newClientLimiter(rate.Limit(opts.TraceRate), opts.TraceBurst),
		trustedProxies: opts.TrustedProxies,
	}, nil
}

// Handler returns the http handler for every route
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// Backend service endpoints
	r.Post(client.GeolocatorPath, s.handleLocate)
	r.With(s.rateLimit).Post(client.GeotracerPath, s.handleTrace)
	r.Post(client.StockPricePath, s.handlePrice)
	r.Post(client.StockHistoryPath, s.handleHistory)

	// Presenter pages
	r.Get("/", s.handleIndex)
	r.Get("/geolocator", s.handleGeolocatorPage)
	r.Post("/geolocator", s.handleGeolocatorPage)
	r.Get("/geotracer", s.handleGeotracerPage)
	r.Post("/geotracer", s.handleGeotracerPage)
	r.Get("/stocks", s.handleStocksPage)
	r.Post("/stocks", s.handleStocksPage)

	// Operations monitor
	r.Get("/monitor", s.handleMonitor)
	r.Get("/monitor/events/{id}", s.handleMonitorEvent)

	staticFS, _ := fs.Sub(s.assets, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", client.RequestIDHeader},
		MaxAge:         900, // 15 mins
	})
	return c.Handler(r)
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	s.log.Infow("Web server starting", "port", s.port)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(client.RequestIDHeader)
		if id == "" {
			id = client.RequestID(r.Context())
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(client.WithRequestID(r.Context(), id)))

		s.log.Debugw("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
		)
	})
}
