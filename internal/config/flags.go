package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OPMONITOR_GEO_PROVIDER
const EnvPrefix = "OPMONITOR"

// flag name -> viper key
var flagKeys = map[string]string{
	"port":                "port",
	"db":                  "db",
	"backend-url":         "backend-url",
	"log-level":           "log-level",
	"retention-days":      "retention-days",
	"report-dir":          "report-dir",
	"report-date":         "report-date",
	"trusted-proxies":     "trusted-proxies",
	"geo-provider":        "geo.provider",
	"geo-maxmind-db":      "geo.maxmind-db",
	"geo-service-url":     "geo.service-url",
	"cache-ttl":           "cache.ttl",
	"cache-redis-addr":    "cache.redis-addr",
	"stocks-service-url":  "stocks.service-url",
	"stocks-api-token":    "stocks.api-token",
	"stocks-history-days": "stocks.history-days",
	"trace-command":       "trace.command",
	"trace-timeout":       "trace.timeout",
	"trace-concurrency":   "trace.concurrency",
	"trace-resolver":      "trace.resolver",
	"trace-rate":          "trace.rate",
	"trace-burst":         "trace.burst",
}

// ParseFlags parses command-line flags, layered over an optional TOML config
// file and OPMONITOR_* environment variables, and returns a Config
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("opmonitor", pflag.ContinueOnError)

	configFile := fs.String("config", "", "Path to a TOML config file")
	fs.Int("port", 8080, "Web server port")
	fs.String("db", "operation_monitor.db", "Database path")
	fs.String("backend-url", "", "Base URL of the backend service (defaults to this server)")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.Int("retention-days", 30, "Days of events to keep")
	fs.String("report-dir", "", "Write a daily operations report to this directory and exit")
	fs.String("report-date", "", "Day to report on, YYYY-MM-DD (defaults to yesterday)")
	fs.StringSlice("trusted-proxies", nil, "Proxy addresses or CIDRs whose X-Forwarded-For is trusted (loopback always is)")
	fs.String("geo-provider", "http", "Geolocation provider (maxmind or http)")
	fs.String("geo-maxmind-db", "", "Path to a GeoLite2 City database")
	fs.String("geo-service-url", "https://freegeoip.app/json", "Base URL of a freegeoip compatible service")
	fs.Duration("cache-ttl", 10*time.Minute, "Lookup cache TTL")
	fs.String("cache-redis-addr", "", "Redis address for a shared lookup cache")
	fs.String("stocks-service-url", "https://api.worldtradingdata.com/api/v1", "Base URL of the market data service")
	fs.String("stocks-api-token", "", "Market data API token")
	fs.Int("stocks-history-days", 365, "Days of price history to fetch")
	fs.String("trace-command", "traceroute", "Traceroute binary")
	fs.Duration("trace-timeout", 60*time.Second, "Timeout of one traceroute run")
	fs.Int("trace-concurrency", 8, "Concurrent hop lookups")
	fs.String("trace-resolver", "8.8.8.8:53", "DNS server used to resolve destination hostnames")
	fs.Float64("trace-rate", 0.2, "Traceroute requests per second per client")
	fs.Int("trace-burst", 2, "Traceroute request burst per client")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path := *configFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return Config{
		Port:           v.GetInt("port"),
		DatabasePath:   v.GetString("db"),
		BackendURL:     strings.TrimRight(v.GetString("backend-url"), "/"),
		LogLevel:       v.GetString("log-level"),
		RetentionDays:  v.GetInt("retention-days"),
		ReportDir:      v.GetString("report-dir"),
		ReportDate:     v.GetString("report-date"),
		TrustedProxies: v.GetStringSlice("trusted-proxies"),
		Geo: GeoConfig{
			Provider:   v.GetString("geo.provider"),
			MaxmindDB:  v.GetString("geo.maxmind-db"),
			ServiceURL: strings.TrimRight(v.GetString("geo.service-url"), "/"),
		},
		Cache: CacheConfig{
			TTL:       v.GetDuration("cache.ttl"),
			RedisAddr: v.GetString("cache.redis-addr"),
		},
		Stocks: StocksConfig{
			ServiceURL:  strings.TrimRight(v.GetString("stocks.service-url"), "/"),
			APIToken:    v.GetString("stocks.api-token"),
			HistoryDays: v.GetInt("stocks.history-days"),
		},
		Trace: TraceConfig{
			Command:     v.GetString("trace.command"),
			Timeout:     v.GetDuration("trace.timeout"),
			Concurrency: v.GetInt("trace.concurrency"),
			Resolver:    v.GetString("trace.resolver"),
			Rate:        v.GetFloat64("trace.rate"),
			Burst:       v.GetInt("trace.burst"),
		},
	}, nil
}
