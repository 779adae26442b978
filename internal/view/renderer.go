package view

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// ErrStale is returned when a completion belongs to a superseded submission
var ErrStale = errors.New("stale render ticket")

// State is the position of the renderer in its render cycle
type State int

const (
	Idle State = iota
	Submitted
	Rendered
	EmptyResult
	TransportError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitted:
		return "submitted"
	case Rendered:
		return "rendered"
	case EmptyResult:
		return "empty"
	case TransportError:
		return "transport-error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ticket identifies one submission
type Ticket uint64

// LocationNotFound is the message shown for an empty location or hop result
func LocationNotFound(input string) string {
	return "Could not find location for: " + input
}

// DataNotFound is the message shown for an empty stock result
func DataNotFound(symbol string) string {
	return "Could not find data for: " + symbol
}

// Renderer applies backend results to a set of bound display regions.
// Each submission starts with Begin; render calls carrying an older ticket
// are discarded so the view always reflects the latest submission.
type Renderer struct {
	mu       sync.Mutex
	bindings Bindings
	seq      Ticket
	state    State

	quote   *models.QuoteRecord
	history *models.HistorySeries
}

// NewRenderer creates a renderer over the given bindings
func NewRenderer(bindings Bindings) *Renderer {
	return &Renderer{bindings: bindings}
}

// Begin clears the view and returns the ticket for a new submission
func (r *Renderer) Begin() Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.clear()
	r.state = Submitted
	return r.seq
}

// Clear empties every bound region. Safe to call on an empty view.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clear()
	r.state = Idle
}

// State returns the outcome of the latest render cycle
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Quote returns the last quote rendered, if any
func (r *Renderer) Quote() *models.QuoteRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quote
}

// History returns the last history series rendered, if any
func (r *Renderer) History() *models.HistorySeries {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history
}

// RenderLocation renders a single location lookup. A nil record shows the not-found message.
func (r *Renderer) RenderLocation(t Ticket, input string, rec *models.LocationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(t); err != nil {
		return err
	}
	if rec == nil {
		return r.notFound(LocationNotFound(input))
	}
	if err := r.bindings.require(append([]string{"dataSection"}, models.LocationFieldNames...)...); err != nil {
		return err
	}

	for _, f := range LocationFields(rec) {
		r.bindings.Fields[f.Name].Write(f.Value)
	}
	r.showData()

	spec, ok := LocationMap(rec)
	if !ok {
		r.hide(r.bindings.MapSection)
		return nil
	}
	return r.drawMap(spec)
}

// RenderHops renders a traced path as one accordion entry per hop followed by
// a polyline through every located hop. A nil or empty sequence shows the
// not-found message.
func (r *Renderer) RenderHops(t Ticket, input string, hops models.HopSequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(t); err != nil {
		return err
	}
	if len(hops) == 0 {
		return r.notFound(LocationNotFound(input))
	}
	if err := r.bindings.require("dataSection", "accordion"); err != nil {
		return err
	}

	acc := r.bindings.Accordion
	for i, hop := range hops {
		acc.Append(HopEntry(i, hop))
	}
	acc.Refresh()
	r.showData()

	spec, ok := PathMap(hops)
	if !ok {
		r.hide(r.bindings.MapSection)
		return nil
	}
	return r.drawMap(spec)
}

// RenderQuote renders the current quote of a stock. Values are written as
// delivered, without placeholder substitution.
func (r *Renderer) RenderQuote(t Ticket, symbol string, quote *models.QuoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(t); err != nil {
		return err
	}
	r.quote = quote
	r.history = nil
	if quote == nil {
		return r.notFound(DataNotFound(symbol))
	}
	if err := r.bindings.require(append([]string{"dataSection"}, models.QuoteFieldNames...)...); err != nil {
		return err
	}

	for _, f := range quote.Fields() {
		r.bindings.Fields[f.Name].Write(f.Value)
	}
	r.showData()
	return nil
}

// RenderHistory draws the history chart for the quote rendered under the same
// ticket. An empty history shows the not-found message and leaves the quote visible.
func (r *Renderer) RenderHistory(t Ticket, symbol string, history *models.HistorySeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(t); err != nil {
		return err
	}
	if err := r.bindings.require("chart"); err != nil {
		return err
	}

	r.bindings.Chart.Unmount()
	if history == nil || len(history.Points) == 0 {
		r.history = nil
		if err := r.bindings.require("message"); err != nil {
			return err
		}
		r.bindings.Message.Empty()
		r.bindings.Message.Write(DataNotFound(symbol))
		r.bindings.Message.Show()
		r.state = EmptyResult
		return nil
	}

	r.history = history
	if err := r.bindings.Chart.Draw(HistoryChart(history)); err != nil {
		return fmt.Errorf("draw history chart: %w", err)
	}
	r.state = Rendered
	return nil
}

// RenderTransportError reports a failed request in the status region only
func (r *Renderer) RenderTransportError(t Ticket, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(t); err != nil {
		return err
	}
	if err := r.bindings.require("status"); err != nil {
		return err
	}

	r.hide(r.bindings.DataSection)
	r.hide(r.bindings.MapSection)
	if r.bindings.Map != nil {
		r.bindings.Map.Empty()
	}
	if r.bindings.Chart != nil {
		r.bindings.Chart.Unmount()
	}
	r.quote = nil
	r.history = nil

	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	r.bindings.Status.Empty()
	r.bindings.Status.Write("Error:" + detail)
	r.state = TransportError
	return nil
}

func (r *Renderer) check(t Ticket) error {
	if t != r.seq || t == 0 {
		return fmt.Errorf("%w: ticket %d, current %d", ErrStale, t, r.seq)
	}
	return nil
}

func (r *Renderer) clear() {
	b := &r.bindings
	for _, region := range b.Fields {
		if region != nil {
			region.Empty()
		}
	}
	if b.Message != nil {
		b.Message.Empty()
		b.Message.Hide()
	}
	if b.Status != nil {
		b.Status.Empty()
	}
	if b.Map != nil {
		b.Map.Empty()
	}
	if b.Accordion != nil {
		b.Accordion.Destroy()
		b.Accordion.Empty()
	}
	if b.Chart != nil {
		b.Chart.Unmount()
	}
}

func (r *Renderer) notFound(message string) error {
	if err := r.bindings.require("message"); err != nil {
		return err
	}
	r.hide(r.bindings.DataSection)
	r.hide(r.bindings.MapSection)
	r.bindings.Message.Empty()
	r.bindings.Message.Write(message)
	r.bindings.Message.Show()
	r.state = EmptyResult
	return nil
}

func (r *Renderer) showData() {
	if r.bindings.Message != nil {
		r.bindings.Message.Hide()
	}
	r.bindings.DataSection.Show()
	r.state = Rendered
}

func (r *Renderer) drawMap(spec MapSpec) error {
	if r.bindings.Map == nil {
		return nil
	}
	if err := r.bindings.Map.Draw(spec); err != nil {
		r.hide(r.bindings.MapSection)
		return fmt.Errorf("draw map: %w", err)
	}
	if r.bindings.MapSection != nil {
		r.bindings.MapSection.Show()
	}
	return nil
}

func (r *Renderer) hide(t Toggle) {
	if t != nil {
		t.Hide()
	}
}
