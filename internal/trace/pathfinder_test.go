package trace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryandaniel1/operation-monitor/internal/logging"
	"github.com/bryandaniel1/operation-monitor/internal/models"
)

type fakeTracer map[string][]string

func (f fakeTracer) Trace(_ context.Context, addr string) ([]string, error) {
	hops, ok := f[addr]
	if !ok {
		return nil, errors.New("unreachable")
	}
	return append([]string(nil), hops...), nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, host string) (string, error) {
	if host == "example.com" {
		return "93.184.216.34", nil
	}
	return host, nil
}

type fakeLocator map[string]*models.LocationRecord

func (f fakeLocator) Locate(_ context.Context, ip string) (*models.LocationRecord, error) {
	if ip == "203.0.113.9" {
		return nil, errors.New("lookup quota exceeded")
	}
	return f[ip], nil
}

func at(ip string, lat, lng float64) *models.LocationRecord {
	return &models.LocationRecord{IPAddress: ip, Latitude: &lat, Longitude: &lng}
}

func TestPathFinderFind(t *testing.T) {
	tracer := fakeTracer{
		"198.51.100.7":  {"10.0.0.1", NoResponse, "198.51.100.7"},
		"93.184.216.34": {"10.0.0.1", "203.0.113.9", "192.0.2.1", "93.184.216.34"},
	}
	locator := fakeLocator{
		"10.0.0.1":      at("10.0.0.1", 0, 0),
		"198.51.100.7":  at("198.51.100.7", 40.7, -74.0),
		"192.0.2.1":     at("192.0.2.1", 41.8, -87.6),
		"93.184.216.34": at("93.184.216.34", 42.1, -70.9),
	}

	finder := NewPathFinder(tracer, fakeResolver{}, locator, 2, logging.Nop())
	hops, err := finder.Find(context.Background(), "198.51.100.7", "example.com")
	require.NoError(t, err)
	require.Len(t, hops, 7)

	// requester path reversed, then destination path
	require.Equal(t, "198.51.100.7", hops[0].IPAddress)
	require.Nil(t, hops[1], "no response")
	require.Nil(t, hops[2], "zero coordinates")
	require.Nil(t, hops[3], "zero coordinates")
	require.Nil(t, hops[4], "failed lookup")
	require.Equal(t, "192.0.2.1", hops[5].IPAddress)
	require.Equal(t, "93.184.216.34", hops[6].IPAddress)

	require.Len(t, hops.Points(), 3)
}

func TestPathFinderEmpty(t *testing.T) {
	finder := NewPathFinder(fakeTracer{"1.1.1.1": nil, "2.2.2.2": nil}, fakeResolver{}, fakeLocator{}, 1, logging.Nop())
	hops, err := finder.Find(context.Background(), "1.1.1.1", "2.2.2.2")
	require.NoError(t, err)
	require.Nil(t, hops)
}

func TestPathFinderTraceFailure(t *testing.T) {
	finder := NewPathFinder(fakeTracer{"1.1.1.1": {"1.1.1.1"}}, fakeResolver{}, fakeLocator{}, 1, logging.Nop())
	_, err := finder.Find(context.Background(), "1.1.1.1", "9.9.9.9")
	require.Error(t, err)
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

func TestPathFinderRejectsInvalidRequester(t *testing.T) {
	for _, requestIP := range []string{"--version", "-I", "", "example.com"} {
		t.Run(requestIP, func(t *testing.T) {
			tracer := &recordingTracer{}
			finder := NewPathFinder(tracer, fakeResolver{}, fakeLocator{}, 1, logging.Nop())

			_, err := finder.Find(context.Background(), requestIP, "8.8.8.8")
			require.ErrorIs(t, err, ErrUnresolved)
			require.Empty(t, tracer.addrs)
		})
	}
}

func TestResolverLiteralAndInvalid(t *testing.T) {
	r := NewResolver("127.0.0.1:53")

	ip, err := r.Resolve(context.Background(), "8.8.4.4")
	require.NoError(t, err)
	require.Equal(t, "8.8.4.4", ip)

	_, err = r.Resolve(context.Background(), "not a host")
	require.ErrorIs(t, err, ErrUnresolved)
}
