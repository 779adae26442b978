// Package stocks fetches quotes and price history from a worldtradingdata style API.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

const dateLayout = "2006-01-02"

// Client queries the market data service
type Client struct {
	baseURL     string
	apiToken    string
	historyDays int
	http        *http.Client
	log         *zap.SugaredLogger
	now         func() time.Time
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL, apiToken string, historyDays int, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:     baseURL,
		apiToken:    apiToken,
		historyDays: historyDays,
		http:        &http.Client{Timeout: timeout},
		log:         log,
		now:         time.Now,
	}
}

// Price returns the current quote for symbol. Upstream failures are logged and reported as no data.
func (c *Client) Price(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	body, err := c.get(ctx, "stock", url.Values{"symbol": {symbol}})
	if err != nil {
		c.logFailure(symbol, err)
		return nil, nil
	}

	first := gjson.GetBytes(body, "data.0")
	if !first.Exists() || !first.IsObject() {
		c.log.Infow("no quote data returned", "symbol", symbol, "message", gjson.GetBytes(body, "Message").String())
		return nil, nil
	}

	var quote models.QuoteRecord
	if err := json.Unmarshal([]byte(first.Raw), &quote); err != nil {
		c.logFailure(symbol, fmt.Errorf("decode quote: %w", err))
		return nil, nil
	}
	return &quote, nil
}

// History returns the closing prices of the last historyDays days, newest first
func (c *Client) History(ctx context.Context, symbol string) (*models.HistorySeries, error) {
	from := c.now().AddDate(0, 0, -c.historyDays).Format(dateLayout)
	body, err := c.get(ctx, "history", url.Values{"symbol": {symbol}, "date_from": {from}})
	if err != nil {
		c.logFailure(symbol, err)
		return nil, nil
	}

	if !gjson.GetBytes(body, "history").IsObject() {
		c.log.Infow("no history data returned", "symbol", symbol, "message", gjson.GetBytes(body, "Message").String())
		return nil, nil
	}

	var history models.HistorySeries
	if err := json.Unmarshal(body, &history); err != nil {
		c.logFailure(symbol, fmt.Errorf("decode history: %w", err))
		return nil, nil
	}
	if len(history.Points) == 0 {
		return nil, nil
	}
	return &history, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("api_token", c.apiToken)
	endpoint := c.baseURL + "/" + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json from %s", path)
	}
	return body, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("market data service returned %d: %s", e.code, e.body)
}

func (c *Client) logFailure(symbol string, err error) {
	if se, ok := err.(*statusError); ok && se.code == http.StatusNotFound {
		c.log.Infow("stock symbol not found", "symbol", symbol)
		return
	}
	c.log.Errorw("stock search failed", "symbol", symbol, "error", err)
}
