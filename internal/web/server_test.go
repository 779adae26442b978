package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryandaniel1/operation-monitor/internal/client"
	"github.com/bryandaniel1/operation-monitor/internal/database"
	"github.com/bryandaniel1/operation-monitor/internal/geo"
	"github.com/bryandaniel1/operation-monitor/internal/logging"
	"github.com/bryandaniel1/operation-monitor/internal/models"
	"github.com/bryandaniel1/operation-monitor/internal/trace"
	"github.com/bryandaniel1/operation-monitor/internal/view"
)

func ptr[T any](v T) *T { return &v }

type fakeLocator struct {
	records map[string]*models.LocationRecord
	err     error
}

func (f *fakeLocator) Locate(_ context.Context, ip string) (*models.LocationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[ip], nil
}

type fakePathFinder struct {
	hops models.HopSequence
	err  error
}

func (f *fakePathFinder) Find(_ context.Context, _, _ string) (models.HopSequence, error) {
	return f.hops, f.err
}

type fakeStocks struct {
	quote   *models.QuoteRecord
	history *models.HistorySeries
	err     error
}

func (f *fakeStocks) Price(_ context.Context, _ string) (*models.QuoteRecord, error) {
	return f.quote, f.err
}

func (f *fakeStocks) History(_ context.Context, _ string) (*models.HistorySeries, error) {
	return f.history, f.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeRecorder) Record(event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeRecorder) recorded() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event(nil), f.events...)
}

func fakeChart(spec view.ChartSpec) ([]byte, error) {
	return []byte("<svg><title>" + spec.SeriesName + "</title></svg>"), nil
}

type testEnv struct {
	server   *Server
	url      string
	db       *database.DB
	locator  *fakeLocator
	paths    *fakePathFinder
	stocks   *fakeStocks
	recorder *fakeRecorder
}

func newTestEnv(t *testing.T, traceRate float64, traceBurst int) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:       db,
		locator:  &fakeLocator{records: map[string]*models.LocationRecord{}},
		paths:    &fakePathFinder{},
		stocks:   &fakeStocks{},
		recorder: &fakeRecorder{},
	}
	s, err := New(Dependencies{
		DB:         db,
		Locator:    env.locator,
		PathFinder: env.paths,
		Stocks:     env.stocks,
		Recorder:   env.recorder,
		Chart:      fakeChart,
	}, Options{
		TraceRate:      traceRate,
		TraceBurst:     traceBurst,
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.9.0.0/16")},
	}, Assets, logging.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.Backend = client.New(ts.URL, 5*time.Second)

	env.server = s
	env.url = ts.URL
	return env
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(e.url+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(e.url + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServiceMissingProperty(t *testing.T) {
	env := newTestEnv(t, 100, 10)

	tests := []struct {
		path string
		form url.Values
		want string
	}{
		{client.GeolocatorPath, url.Values{}, "Property 'ipAddress' is missing."},
		{client.GeotracerPath, url.Values{"destinationIpAddress": {"8.8.8.8"}}, "Property 'requestIpAddress' is missing."},
		{client.GeotracerPath, url.Values{"requestIpAddress": {"1.1.1.1"}}, "Property 'destinationIpAddress' is missing."},
		{client.StockPricePath, url.Values{"stockSymbol": {"  "}}, "Property 'stockSymbol' is missing."},
		{client.StockHistoryPath, url.Values{}, "Property 'stockSymbol' is missing."},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			status, body := env.post(t, tt.path, tt.form)
			require.Equal(t, http.StatusBadRequest, status)
			require.Equal(t, tt.want, strings.TrimSpace(body))
		})
	}
	require.Empty(t, env.recorder.recorded())
}

func TestLocateService(t *testing.T) {
	env := newTestEnv(t, 100, 10)
	env.locator.records["4.2.2.2"] = &models.LocationRecord{IPAddress: "4.2.2.2", City: "Denver"}

	status, body := env.post(t, client.GeolocatorPath, url.Values{"ipAddress": {"4.2.2.2"}})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"city":"Denver"`)

	status, body = env.post(t, client.GeolocatorPath, url.Values{"ipAddress": {"10.0.0.1"}})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", strings.TrimSpace(body))

	events := env.recorder.recorded()
	require.Len(t, events, 2)
	require.Equal(t, models.EventSearch, events[0].Type)
	require.NotEmpty(t, events[0].Search.ID)
	require.NotNil(t, events[0].Search.Location)
	require.Nil(t, events[1].Search.Location)
}

func TestLocateServiceErrors(t *testing.T) {
	env := newTestEnv(t, 100, 10)

	env.locator.err = geo.ErrInvalidIP
	status, body := env.post(t, client.GeolocatorPath, url.Values{"ipAddress": {"nope"}})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", strings.TrimSpace(body))

	env.locator.err = errors.New("lookup failed")
	status, _ = env.post(t, client.GeolocatorPath, url.Values{"ipAddress": {"1.1.1.1"}})
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestTraceService(t *testing.T) {
	env := newTestEnv(t, 100, 10)
	env.paths.hops = models.HopSequence{nil, {IPAddress: "4.2.2.2", Latitude: ptr(1.0), Longitude: ptr(2.0)}}

	form := url.Values{"requestIpAddress": {"1.1.1.1"}, "destinationIpAddress": {"4.2.2.2"}}
	status, body := env.post(t, client.GeotracerPath, form)
	require.Equal(t, http.StatusOK, status)
	require.True(t, strings.HasPrefix(body, "[null,"), body)

	env.paths.hops = nil
	env.paths.err = trace.ErrUnresolved
	status, body = env.post(t, client.GeotracerPath, form)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", strings.TrimSpace(body))

	events := env.recorder.recorded()
	require.Len(t, events, 2)
	require.Len(t, events[0].Tracer.Hops, 2)
	require.Equal(t, "4.2.2.2", events[1].Tracer.DestinationIP)
}

func TestTraceServiceRateLimit(t *testing.T) {
	env := newTestEnv(t, 0.001, 1)
	form := url.Values{"requestIpAddress": {"1.1.1.1"}, "destinationIpAddress": {"4.2.2.2"}}

	status, _ := env.post(t, client.GeotracerPath, form)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.post(t, client.GeotracerPath, form)
	require.Equal(t, http.StatusTooManyRequests, status)

	// other endpoints are not limited
	status, _ = env.post(t, client.GeolocatorPath, url.Values{"ipAddress": {"1.1.1.1"}})
	require.Equal(t, http.StatusOK, status)
}

func TestStockServices(t *testing.T) {
	env := newTestEnv(t, 100, 10)
	env.stocks.quote = &models.QuoteRecord{Symbol: "AAPL", Price: "190.10"}

	status, body := env.post(t, client.StockPricePath, url.Values{"stockSymbol": {"aapl"}})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"data":[{"symbol":"AAPL"`)

	status, body = env.post(t, client.StockHistoryPath, url.Values{"stockSymbol": {"aapl"}})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", strings.TrimSpace(body))

	events := env.recorder.recorded()
	require.Len(t, events, 2)
	require.Equal(t, "price", events[0].Stock.Kind)
	require.True(t, events[0].Stock.Found)
	require.Equal(t, "history", events[1].Stock.Kind)
	require.False(t, events[1].Stock.Found)
}

func TestClientIP(t *testing.T) {
	s := &Server{trustedProxies: []netip.Prefix{netip.MustParsePrefix("10.9.0.0/16")}}

	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"direct", "203.0.113.9:5555", "", "203.0.113.9"},
		{"untrusted forwarded for", "203.0.113.9:5555", "198.51.100.1", "203.0.113.9"},
		{"loopback presenter", "127.0.0.1:40000", "198.51.100.1", "198.51.100.1"},
		{"loopback without header", "127.0.0.1:40000", "", "127.0.0.1"},
		{"trusted proxy chain", "10.9.0.4:443", "198.51.100.1, 203.0.113.50, 10.9.1.1", "203.0.113.50"},
		{"malformed entry", "10.9.0.4:443", "not-an-ip", "10.9.0.4"},
		{"ipv6 loopback", "[::1]:40000", "2001:db8::1", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set(client.ForwardedForHeader, tt.forwarded)
			}
			require.Equal(t, tt.want, s.clientIP(r))
		})
	}
}

func TestTraceServiceRateLimitIgnoresSpoofedHeader(t *testing.T) {
	env := newTestEnv(t, 0.001, 1)
	handler := env.server.Handler()
	form := url.Values{"requestIpAddress": {"1.1.1.1"}, "destinationIpAddress": {"4.2.2.2"}}

	var statuses []int
	for i := 1; i <= 5; i++ {
		r := httptest.NewRequest(http.MethodPost, client.GeotracerPath, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.Header.Set(client.ForwardedForHeader, "198.51.100."+strconv.Itoa(i))
		r.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		statuses = append(statuses, w.Code)
	}
	require.Equal(t, []int{200, 429, 429, 429, 429}, statuses)
}

type recordingTracer struct {
	mu    sync.Mutex
	addrs []string
}

func (r *recordingTracer) Trace(_ context.Context, addr string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addrs = append(r.addrs, addr)
	return []string{addr}, nil
}

func TestTraceServiceRejectsOptionLikeRequester(t *testing.T) {
	env := newTestEnv(t, 100, 10)
	tracer := &recordingTracer{}
	env.server.PathFinder = trace.NewPathFinder(tracer, trace.NewResolver("127.0.0.1:53"), env.locator, 1, logging.Nop())

	status, body := env.post(t, client.GeotracerPath, url.Values{
		"requestIpAddress":     {"--version"},
		"destinationIpAddress": {"8.8.8.8"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", strings.TrimSpace(body))
	require.Empty(t, tracer.addrs)
}

func TestClientLimiterPerClient(t *testing.T) {
	l := newClientLimiter(0.001, 1)
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
	require.True(t, l.Allow("b"))
}
