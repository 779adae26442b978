package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryandaniel1/operation-monitor/internal/cache"
	"github.com/bryandaniel1/operation-monitor/internal/logging"
	"github.com/bryandaniel1/operation-monitor/internal/models"
)

func freegeoipServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ip":"8.8.8.8","country_code":"US","country_name":"United States",
				"region_code":"CA","region_name":"California","city":"Mountain View","zip_code":"94035",
				"time_zone":"America/Los_Angeles","latitude":37.386,"longitude":-122.0838,"metro_code":807}`))
		case "/10.0.0.1":
			http.NotFound(w, r)
		case "/1.2.3.4":
			_, _ = w.Write([]byte(`{not json`))
		default:
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPLocator(t *testing.T) {
	srv := freegeoipServer(t)
	loc := NewHTTPLocator(srv.URL, time.Second)
	ctx := context.Background()

	rec, err := loc.Locate(ctx, "8.8.8.8")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "8.8.8.8", rec.IPAddress)
	require.Equal(t, "US", rec.CountryCode)
	require.Equal(t, "California", rec.RegionName)
	require.Equal(t, "94035", rec.ZipCode)
	require.Equal(t, "America/Los_Angeles", rec.TimeZone)
	require.NotNil(t, rec.MetroCode)
	require.Equal(t, 807, *rec.MetroCode)
	point, ok := rec.Coordinates()
	require.True(t, ok)
	require.InDelta(t, 37.386, point.Lat, 1e-9)

	rec, err = loc.Locate(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Nil(t, rec)

	_, err = loc.Locate(ctx, "1.2.3.4")
	require.Error(t, err)

	_, err = loc.Locate(ctx, "9.9.9.9")
	require.ErrorContains(t, err, "403")

	_, err = loc.Locate(ctx, "not-an-ip")
	require.ErrorIs(t, err, ErrInvalidIP)
}

func TestMaxmindLocatorErrors(t *testing.T) {
	_, err := NewMaxmindLocator(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.ErrorIs(t, err, ErrInvalidDatabase)

	var m MaxmindLocator
	_, err = m.Locate(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidIP)
}

type countingLocator struct {
	calls atomic.Int32
	rec   *models.LocationRecord
}

func (c *countingLocator) Locate(context.Context, string) (*models.LocationRecord, error) {
	c.calls.Add(1)
	return c.rec, nil
}

func TestCachedLocator(t *testing.T) {
	lat, lng := 1.5, 2.5
	next := &countingLocator{rec: &models.LocationRecord{IPAddress: "8.8.8.8", City: "Somewhere", Latitude: &lat, Longitude: &lng}}
	loc := NewCachedLocator(next, cache.NewMemory(time.Minute), logging.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec, err := loc.Locate(ctx, "8.8.8.8")
		require.NoError(t, err)
		require.Equal(t, "Somewhere", rec.City)
		require.Equal(t, lat, *rec.Latitude)
	}
	require.EqualValues(t, 1, next.calls.Load())
}

func TestCachedLocatorSkipsMisses(t *testing.T) {
	next := &countingLocator{}
	loc := NewCachedLocator(next, cache.NewMemory(time.Minute), logging.Nop())

	for i := 0; i < 2; i++ {
		rec, err := loc.Locate(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		require.Nil(t, rec)
	}
	require.EqualValues(t, 2, next.calls.Load())
}
