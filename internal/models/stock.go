package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

// Field names used to bind stock quote data to display regions
const (
	FieldSymbol        = "symbol"
	FieldName          = "name"
	FieldPrice         = "price"
	FieldCurrency      = "currency"
	FieldPriceOpen     = "price_open"
	FieldDayHigh       = "day_high"
	FieldDayLow        = "day_low"
	FieldDayChange     = "day_change"
	FieldChangePercent = "change_pct"
)

// QuoteFieldNames lists the quote fields in display order
var QuoteFieldNames = []string{
	FieldSymbol,
	FieldName,
	FieldPrice,
	FieldCurrency,
	FieldPriceOpen,
	FieldDayHigh,
	FieldDayLow,
	FieldDayChange,
	FieldChangePercent,
}

var quoteLabels = map[string]string{
	FieldSymbol:        "Stock Symbol",
	FieldName:          "Name",
	FieldPrice:         "Price",
	FieldCurrency:      "Currency",
	FieldPriceOpen:     "Price Open",
	FieldDayHigh:       "Day High",
	FieldDayLow:        "Day Low",
	FieldDayChange:     "Day Change",
	FieldChangePercent: "Percentage Change",
}

// QuoteRecord is the current market data for one stock
type QuoteRecord struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	PriceOpen     string `json:"price_open"`
	DayHigh       string `json:"day_high"`
	DayLow        string `json:"day_low"`
	DayChange     string `json:"day_change"`
	ChangePercent string `json:"change_pct"`
}

// QuoteResult is the body of a stock price response
type QuoteResult struct {
	Data []QuoteRecord `json:"data"`
}

// First returns the first quote of the result, or nil when there is none
func (q *QuoteResult) First() *QuoteRecord {
	if q == nil || len(q.Data) == 0 {
		return nil
	}
	return &q.Data[0]
}

// Fields returns the quote's display values in display order
func (q *QuoteRecord) Fields() []Field {
	values := map[string]string{
		FieldSymbol:        q.Symbol,
		FieldName:          q.Name,
		FieldPrice:         q.Price,
		FieldCurrency:      q.Currency,
		FieldPriceOpen:     q.PriceOpen,
		FieldDayHigh:       q.DayHigh,
		FieldDayLow:        q.DayLow,
		FieldDayChange:     q.DayChange,
		FieldChangePercent: q.ChangePercent,
	}

	fields := make([]Field, 0, len(QuoteFieldNames))
	for _, name := range QuoteFieldNames {
		fields = append(fields, Field{Name: name, Label: quoteLabels[name], Value: values[name]})
	}
	return fields
}

// HistoryPoint is the closing price for one timestamp label
type HistoryPoint struct {
	Label string
	Close float64
}

// HistorySeries holds closing prices in arrival order, which is newest first
type HistorySeries struct {
	Name   string
	Points []HistoryPoint
}

// Chronological returns the points oldest first
func (h *HistorySeries) Chronological() []HistoryPoint {
	points := make([]HistoryPoint, len(h.Points))
	for i, p := range h.Points {
		points[len(h.Points)-1-i] = p
	}
	return points
}

// UnmarshalJSON decodes {"name": ..., "history": {label: close|{"close": ...}}}
// keeping the key order of the history object.
func (h *HistorySeries) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid history json")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return errors.New("history must be a json object")
	}

	h.Name = parsed.Get("name").String()
	h.Points = nil

	var parseErr error
	parsed.Get("history").ForEach(func(key, value gjson.Result) bool {
		closing := value
		if value.IsObject() {
			closing = value.Get("close")
		}
		price, err := strconv.ParseFloat(closing.String(), 64)
		if err != nil {
			parseErr = errors.New("invalid close price for " + key.String())
			return false
		}
		h.Points = append(h.Points, HistoryPoint{Label: key.String(), Close: price})
		return true
	})
	return parseErr
}

// MarshalJSON writes the history object in stored order
func (h HistorySeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	name, err := json.Marshal(h.Name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"name":`)
	buf.Write(name)
	buf.WriteString(`,"history":{`)
	for i, p := range h.Points {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(p.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		buf.WriteString(`:{"close":"`)
		buf.WriteString(strconv.FormatFloat(p.Close, 'f', -1, 64))
		buf.WriteString(`"}`)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}
