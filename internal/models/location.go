package models

import "strconv"

// Field names used to bind location data to display regions
const (
	FieldIPAddress   = "ipAddress"
	FieldCountryCode = "countryCode"
	FieldCountryName = "countryName"
	FieldRegionCode  = "regionCode"
	FieldRegionName  = "regionName"
	FieldCity        = "city"
	FieldZipCode     = "zipCode"
	FieldTimeZone    = "timeZone"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
	FieldMetroCode   = "metroCode"
)

// LocationFieldNames lists the location fields in display order
var LocationFieldNames = []string{
	FieldIPAddress,
	FieldCountryCode,
	FieldCountryName,
	FieldRegionCode,
	FieldRegionName,
	FieldCity,
	FieldZipCode,
	FieldTimeZone,
	FieldLatitude,
	FieldLongitude,
	FieldMetroCode,
}

var locationLabels = map[string]string{
	FieldIPAddress:   "IP address",
	FieldCountryCode: "Country Code",
	FieldCountryName: "Country Name",
	FieldRegionCode:  "Region Code",
	FieldRegionName:  "Region Name",
	FieldCity:        "City",
	FieldZipCode:     "Zip Code",
	FieldTimeZone:    "Time Zone",
	FieldLatitude:    "Latitude",
	FieldLongitude:   "Longitude",
	FieldMetroCode:   "Metro Code",
}

// LocationRecord is one geocoded point. Every field is optional.
type LocationRecord struct {
	IPAddress   string   `json:"ipAddress"`
	CountryCode string   `json:"countryCode"`
	CountryName string   `json:"countryName"`
	RegionCode  string   `json:"regionCode"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	ZipCode     string   `json:"zipCode"`
	TimeZone    string   `json:"timeZone"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	MetroCode   *int     `json:"metroCode,omitempty"`
}

// LatLng is a coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Field is a labelled display value
type Field struct {
	Name  string
	Label string
	Value string
}

// FieldLabel returns the display label of a location or quote field
func FieldLabel(name string) string {
	if label, ok := locationLabels[name]; ok {
		return label
	}
	return quoteLabels[name]
}

// Fields returns the record's display values in display order.
// Absent numeric fields are returned as the empty string.
func (l *LocationRecord) Fields() []Field {
	values := map[string]string{
		FieldIPAddress:   l.IPAddress,
		FieldCountryCode: l.CountryCode,
		FieldCountryName: l.CountryName,
		FieldRegionCode:  l.RegionCode,
		FieldRegionName:  l.RegionName,
		FieldCity:        l.City,
		FieldZipCode:     l.ZipCode,
		FieldTimeZone:    l.TimeZone,
		FieldLatitude:    formatFloat(l.Latitude),
		FieldLongitude:   formatFloat(l.Longitude),
		FieldMetroCode:   formatInt(l.MetroCode),
	}

	fields := make([]Field, 0, len(LocationFieldNames))
	for _, name := range LocationFieldNames {
		fields = append(fields, Field{Name: name, Label: locationLabels[name], Value: values[name]})
	}
	return fields
}

// Coordinates returns the coordinate pair when both latitude and longitude are present
func (l *LocationRecord) Coordinates() (LatLng, bool) {
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *l.Latitude, Lng: *l.Longitude}, true
}

// HopSequence is the ordered list of hop locations; a nil element means the hop did not respond
type HopSequence []*LocationRecord

// Points returns the coordinates of every located hop in traversal order
func (h HopSequence) Points() []LatLng {
	var points []LatLng
	for _, hop := range h {
		if p, ok := hop.Coordinates(); ok {
			points = append(points, p)
		}
	}
	return points
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
