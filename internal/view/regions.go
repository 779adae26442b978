// Package view renders the result of one backend call into a fixed set of
// named display regions.
package view

import (
	"errors"
	"fmt"
)

// ErrUnbound is returned when a render path needs a region that was not bound
var ErrUnbound = errors.New("display region not bound")

// Region is an output handle that accumulates text
type Region interface {
	Write(s string)
	Empty()
}

// Toggle is a region whose visibility can be switched
type Toggle interface {
	Show()
	Hide()
}

// MessageRegion is a text region that can be shown and hidden
type MessageRegion interface {
	Region
	Toggle
}

// Accordion is a collapsible list with one entry per node
type Accordion interface {
	Append(node Node)
	Empty()
	// Destroy tears down the widget state; Refresh re-initialises it over the current entries.
	Destroy()
	Refresh()
}

// MapWidget draws map specs
type MapWidget interface {
	Draw(spec MapSpec) error
	Empty()
}

// ChartWidget draws line charts
type ChartWidget interface {
	Draw(spec ChartSpec) error
	Unmount()
}

// Bindings maps the logical regions of a page to their output handles.
// Regions an application does not use may be left nil.
type Bindings struct {
	Fields      map[string]Region
	DataSection Toggle
	MapSection  Toggle
	Message     MessageRegion
	Status      Region
	Map         MapWidget
	Accordion   Accordion
	Chart       ChartWidget
}

func (b *Bindings) require(names ...string) error {
	for _, name := range names {
		var bound bool
		switch name {
		case "dataSection":
			bound = b.DataSection != nil
		case "mapSection":
			bound = b.MapSection != nil
		case "message":
			bound = b.Message != nil
		case "status":
			bound = b.Status != nil
		case "map":
			bound = b.Map != nil
		case "accordion":
			bound = b.Accordion != nil
		case "chart":
			bound = b.Chart != nil
		default:
			_, bound = b.Fields[name]
		}
		if !bound {
			return fmt.Errorf("%w: %s", ErrUnbound, name)
		}
	}
	return nil
}
