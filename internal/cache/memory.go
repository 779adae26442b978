package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local store
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates an in-memory store; expired items are purged every minute
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{items: gocache.New(ttl, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := m.items.Get(key)
	if !found {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.items.SetDefault(key, value)
	return nil
}

func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
