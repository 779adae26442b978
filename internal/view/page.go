package view

import (
	"encoding/json"
	"errors"
	"strings"
)

// TextBox is an in-memory text region
type TextBox struct {
	b strings.Builder
}

func (t *TextBox) Write(s string) { t.b.WriteString(s) }
func (t *TextBox) Empty()         { t.b.Reset() }
func (t *TextBox) String() string { return t.b.String() }

// Panel is an in-memory visibility toggle. Panels start hidden.
type Panel struct {
	Visible bool
}

func (p *Panel) Show() { p.Visible = true }
func (p *Panel) Hide() { p.Visible = false }

// MessageBox is a text region with visibility
type MessageBox struct {
	TextBox
	Panel
}

// AccordionList collects hop entries
type AccordionList struct {
	Entries []Node
	Active  bool
}

func (a *AccordionList) Append(node Node) { a.Entries = append(a.Entries, node) }
func (a *AccordionList) Empty()           { a.Entries = nil }
func (a *AccordionList) Destroy()         { a.Active = false }
func (a *AccordionList) Refresh()         { a.Active = true }

// MapCanvas holds the map spec drawn on the page
type MapCanvas struct {
	Spec *MapSpec
}

func (m *MapCanvas) Draw(spec MapSpec) error {
	if len(spec.Markers) == 0 && len(spec.Polylines) == 0 {
		return errors.New("map spec has nothing to draw")
	}
	m.Spec = &spec
	return nil
}

func (m *MapCanvas) Empty() { m.Spec = nil }

// JSON returns the drawn spec for the client-side map script, or "null"
func (m *MapCanvas) JSON() string {
	if m.Spec == nil {
		return "null"
	}
	data, err := json.Marshal(m.Spec)
	if err != nil {
		return "null"
	}
	return string(data)
}

// ChartFunc renders a chart spec to an image
type ChartFunc func(spec ChartSpec) ([]byte, error)

// ChartCanvas holds the rendered chart image
type ChartCanvas struct {
	render ChartFunc
	Image  []byte
	Spec   *ChartSpec
}

func (c *ChartCanvas) Draw(spec ChartSpec) error {
	img, err := c.render(spec)
	if err != nil {
		return err
	}
	c.Image = img
	c.Spec = &spec
	return nil
}

func (c *ChartCanvas) Unmount() {
	c.Image = nil
	c.Spec = nil
}

// Page is an in-memory view with every region a result page can show
type Page struct {
	fields      map[string]*TextBox
	DataSection Panel
	MapSection  Panel
	Message     MessageBox
	Status      TextBox
	Map         MapCanvas
	Accordion   AccordionList
	Chart       *ChartCanvas
}

// NewPage creates a page with one text region per field name. A nil chart
// function leaves the chart region unbound.
func NewPage(fieldNames []string, chart ChartFunc) *Page {
	p := &Page{fields: make(map[string]*TextBox, len(fieldNames))}
	for _, name := range fieldNames {
		p.fields[name] = &TextBox{}
	}
	if chart != nil {
		p.Chart = &ChartCanvas{render: chart}
	}
	return p
}

// Bindings returns the region registry for the page
func (p *Page) Bindings() Bindings {
	fields := make(map[string]Region, len(p.fields))
	for name, box := range p.fields {
		fields[name] = box
	}
	b := Bindings{
		Fields:      fields,
		DataSection: &p.DataSection,
		MapSection:  &p.MapSection,
		Message:     &p.Message,
		Status:      &p.Status,
		Map:         &p.Map,
		Accordion:   &p.Accordion,
	}
	if p.Chart != nil {
		b.Chart = p.Chart
	}
	return b
}

// Field returns the rendered text of a field region
func (p *Page) Field(name string) string {
	box, ok := p.fields[name]
	if !ok {
		return ""
	}
	return box.String()
}

// ChartSVG returns the rendered chart, if any
func (p *Page) ChartSVG() string {
	if p.Chart == nil {
		return ""
	}
	return string(p.Chart.Image)
}
