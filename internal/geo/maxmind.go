package geo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/oschwald/maxminddb-golang"

	"github.com/bryandaniel1/operation-monitor/internal/models"
)

type cityRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Postal struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"postal"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		MetroCode *int     `maxminddb:"metro_code"`
		TimeZone  string   `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// MaxmindLocator looks addresses up in a local GeoLite2/GeoIP2 City database
type MaxmindLocator struct {
	reader *maxminddb.Reader
}

// NewMaxmindLocator opens the database at dbLoc
func NewMaxmindLocator(dbLoc string) (*MaxmindLocator, error) {
	reader, err := maxminddb.Open(dbLoc)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, ErrInvalidDatabase
		}
		if errors.As(err, &maxminddb.InvalidDatabaseError{}) {
			return nil, ErrInvalidDatabase
		}
		return nil, fmt.Errorf("opening maxmind reader from location: %w", err)
	}
	return &MaxmindLocator{reader: reader}, nil
}

// Locate returns nil without error when the address is not in the database
func (m *MaxmindLocator) Locate(_ context.Context, ip string) (*models.LocationRecord, error) {
	parsed, err := parseIP(ip)
	if err != nil {
		return nil, err
	}

	var rec cityRecord
	_, ok, err := m.reader.LookupNetwork(parsed, &rec)
	if err != nil {
		return nil, fmt.Errorf("reading geolocation for ip: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return rec.location(ip), nil
}

func (m *MaxmindLocator) Close() error {
	return m.reader.Close()
}

func (r *cityRecord) location(ip string) *models.LocationRecord {
	loc := &models.LocationRecord{
		IPAddress:   ip,
		CountryCode: r.Country.ISOCode,
		CountryName: r.Country.Names["en"],
		City:        r.City.Names["en"],
		ZipCode:     r.Postal.Code,
		TimeZone:    r.Location.TimeZone,
		Latitude:    r.Location.Latitude,
		Longitude:   r.Location.Longitude,
		MetroCode:   r.Location.MetroCode,
	}
	if len(r.Subdivisions) > 0 {
		loc.RegionCode = r.Subdivisions[0].ISOCode
		loc.RegionName = r.Subdivisions[0].Names["en"]
	}
	return loc
}
