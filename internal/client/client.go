// Package client calls the backend service endpoints on behalf of the presenter pages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// Backend endpoint paths
const (
	GeolocatorPath   = "/geolocator/service/find"
	GeotracerPath    = "/geotracer/service/find"
	StockPricePath   = "/stocks/price"
	StockHistoryPath = "/stocks/history"
)

// RequestIDHeader carries the id that ties a presenter request to its backend call
const RequestIDHeader = "X-Request-Id"

// ForwardedForHeader carries the address of the page user the presenter calls for
const ForwardedForHeader = "X-Forwarded-For"

// TransportError is any failure to obtain a well-formed response: network
// errors, non-2xx statuses and undecodable bodies
type TransportError struct {
	StatusCode int
	Detail     string
}

func (e *TransportError) Error() string {
	return e.Detail
}

// Client posts form-encoded requests to the backend
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Locate calls the geolocator. A nil record means the address was not found.
func (c *Client) Locate(ctx context.Context, ip string) (*models.LocationRecord, error) {
	var rec *models.LocationRecord
	if err := c.post(ctx, GeolocatorPath, url.Values{"ipAddress": {ip}}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Trace calls the geotracer
func (c *Client) Trace(ctx context.Context, requestIP, destinationIP string) (models.HopSequence, error) {
	var hops models.HopSequence
	form := url.Values{
		"requestIpAddress":     {requestIP},
		"destinationIpAddress": {destinationIP},
	}
	if err := c.post(ctx, GeotracerPath, form, &hops); err != nil {
		return nil, err
	}
	return hops, nil
}

// Price returns the first quote of the price response
func (c *Client) Price(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	var result *models.QuoteResult
	if err := c.post(ctx, StockPricePath, url.Values{"stockSymbol": {symbol}}, &result); err != nil {
		return nil, err
	}
	return result.First(), nil
}

// History returns the price history of symbol
func (c *Client) History(ctx context.Context, symbol string) (*models.HistorySeries, error) {
	var history *models.HistorySeries
	if err := c.post(ctx, StockHistoryPath, url.Values{"stockSymbol": {symbol}}, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, RequestID(ctx))
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		req.Header.Set(ForwardedForHeader, ip)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Detail: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return &TransportError{StatusCode: resp.StatusCode, Detail: detail}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		if resp.StatusCode == http.StatusNoContent {
			return nil
		}
		return &TransportError{StatusCode: resp.StatusCode, Detail: "malformed response: empty body"}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

type requestIDKey struct{}

type clientIPKey struct{}

// WithClientIP returns a context whose backend calls are made on behalf of ip
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// WithRequestID returns a context carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, or a new one
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
