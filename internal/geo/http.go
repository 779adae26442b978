package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// freegeoipResponse is the snake_case body of a freegeoip compatible service
type freegeoipResponse struct {
	IP          string   `json:"ip"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
	RegionCode  string   `json:"region_code"`
	RegionName  string   `json:"region_name"`
	City        string   `json:"city"`
	ZipCode     string   `json:"zip_code"`
	TimeZone    string   `json:"time_zone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	MetroCode   *int     `json:"metro_code"`
}

func (r *freegeoipResponse) location() *models.LocationRecord {
	return &models.LocationRecord{
		IPAddress:   r.IP,
		CountryCode: r.CountryCode,
		CountryName: r.CountryName,
		RegionCode:  r.RegionCode,
		RegionName:  r.RegionName,
		City:        r.City,
		ZipCode:     r.ZipCode,
		TimeZone:    r.TimeZone,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		MetroCode:   r.MetroCode,
	}
}

// HTTPLocator queries GET {baseURL}/{ip} on a freegeoip compatible service
type HTTPLocator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLocator creates a locator for the service at baseURL
func NewHTTPLocator(baseURL string, timeout time.Duration) *HTTPLocator {
	return &HTTPLocator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Locate returns nil without error when the service does not know the address
func (h *HTTPLocator) Locate(ctx context.Context, ip string) (*models.LocationRecord, error) {
	if _, err := parseIP(ip); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geolocation service returned %d: %s", resp.StatusCode, body)
	}

	var body freegeoipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	if body.IP == "" {
		body.IP = ip
	}
	return body.location(), nil
}
