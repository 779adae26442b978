package geo

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bryandaniel1/operation-monitor/internal/cache"
	"github.com/bryandaniel1/operation-monitor/internal/models"
)

// CachedLocator serves repeat lookups from a cache. Misses and errors are not cached.
type CachedLocator struct {
	next  models.Locator
	store cache.Store
	log   *zap.SugaredLogger
}

// NewCachedLocator wraps next with store
func NewCachedLocator(next models.Locator, store cache.Store, log *zap.SugaredLogger) *CachedLocator {
	return &CachedLocator{next: next, store: store, log: log}
}

func (c *CachedLocator) Locate(ctx context.Context, ip string) (*models.LocationRecord, error) {
	key := "geo:" + ip

	if data, found, err := c.store.Get(ctx, key); err != nil {
		c.log.Warnw("geolocation cache read failed", "ip", ip, "error", err)
	} else if found {
		var rec models.LocationRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
		c.log.Warnw("discarding unreadable cached location", "ip", ip)
	}

	rec, err := c.next.Locate(ctx, ip)
	if err != nil || rec == nil {
		return rec, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, nil
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.log.Warnw("geolocation cache write failed", "ip", ip, "error", err)
	}
	return rec, nil
}
