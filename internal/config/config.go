package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the layout of report and monitor dates
const DateLayout = "2006-01-02"

// Config holds all configuration for the operation monitor
type Config struct {
	Port          int
	DatabasePath  string
	BackendURL    string
	LogLevel      string
	RetentionDays int
	ReportDir     string
	ReportDate    string

	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For is
	// believed. Loopback is always trusted.
	TrustedProxies []string

	Geo    GeoConfig
	Cache  CacheConfig
	Stocks StocksConfig
	Trace  TraceConfig
}

// GeoConfig selects and configures the geolocation provider
type GeoConfig struct {
	Provider   string // maxmind or http
	MaxmindDB  string
	ServiceURL string
}

// CacheConfig configures the lookup cache. An empty RedisAddr keeps the cache in memory.
type CacheConfig struct {
	TTL       time.Duration
	RedisAddr string
}

// StocksConfig configures the market data upstream
type StocksConfig struct {
	ServiceURL  string
	APIToken    string
	HistoryDays int
}

// TraceConfig configures traceroute execution and its rate limit
type TraceConfig struct {
	Command     string
	Timeout     time.Duration
	Concurrency int
	Resolver    string
	Rate        float64 // requests per second per client
	Burst       int
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.BackendURL != "" {
		if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
			return fmt.Errorf("invalid backend url: %w", err)
		}
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	if c.ReportDate != "" {
		if _, err := time.Parse(DateLayout, c.ReportDate); err != nil {
			return fmt.Errorf("report date must be YYYY-MM-DD: %w", err)
		}
	}

	if _, err := ParseProxies(c.TrustedProxies); err != nil {
		return err
	}

	switch c.Geo.Provider {
	case "maxmind":
		if c.Geo.MaxmindDB == "" {
			return fmt.Errorf("maxmind provider requires a database path")
		}
	case "http":
		if c.Geo.ServiceURL == "" {
			return fmt.Errorf("http geolocation provider requires a service url")
		}
	default:
		return fmt.Errorf("unknown geolocation provider %q", c.Geo.Provider)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}
	if c.Stocks.HistoryDays <= 0 {
		return fmt.Errorf("stock history days must be positive")
	}
	if c.Trace.Command == "" {
		return fmt.Errorf("traceroute command cannot be empty")
	}
	if c.Trace.Timeout <= 0 {
		return fmt.Errorf("traceroute timeout must be positive")
	}
	if c.Trace.Concurrency <= 0 {
		return fmt.Errorf("traceroute concurrency must be positive")
	}
	if c.Trace.Rate <= 0 || c.Trace.Burst <= 0 {
		return fmt.Errorf("traceroute rate and burst must be positive")
	}
	return nil
}

// ReportDay returns the day a report covers, defaulting to yesterday
func (c *Config) ReportDay(now time.Time) time.Time {
	if c.ReportDate != "" {
		if day, err := time.ParseInLocation(DateLayout, c.ReportDate, now.Location()); err == nil {
			return day
		}
	}
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ParseProxies converts trusted proxy addresses and CIDRs into prefixes
func ParseProxies(proxies []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
