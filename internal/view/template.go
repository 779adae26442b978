package view

import (
	"strconv"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// PlaceholderGlyph replaces empty location values
const PlaceholderGlyph = "*"

// NoResponse labels a hop that did not answer
const NoResponse = "no response"

// Node is one accordion entry
type Node struct {
	HeaderID   string
	ContentID  string
	Heading    string
	NoResponse bool
	Fields     []models.Field
}

// Placeholder substitutes the placeholder glyph for an empty value
func Placeholder(value string) string {
	if value == "" {
		return PlaceholderGlyph
	}
	return value
}

// LocationFields returns the record's fields with placeholder substitution applied
func LocationFields(rec *models.LocationRecord) []models.Field {
	fields := rec.Fields()
	for i := range fields {
		fields[i].Value = Placeholder(fields[i].Value)
	}
	return fields
}

// HopEntry builds the accordion entry for the hop at index. A nil record yields
// a "no response" entry without fields.
func HopEntry(index int, rec *models.LocationRecord) Node {
	label := strconv.Itoa(index + 1)
	node := Node{
		HeaderID:  "header" + label,
		ContentID: "content" + label,
	}
	if rec == nil {
		node.Heading = label + ". " + NoResponse
		node.NoResponse = true
		return node
	}
	node.Heading = label + ". IP Address: " + Placeholder(rec.IPAddress)
	node.Fields = LocationFields(rec)
	return node
}
