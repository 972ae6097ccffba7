package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of entries Memory keeps by default.
const DefaultSize = 128

// Memory is an in-process LRU cache.
type Memory struct {
	entries *lru.Cache[string, envelope]
	now     func() time.Time
}

// NewMemory creates a Memory cache holding up to size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, envelope](size)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries.Add(key, envelope{Value: value, ExpiresAt: expiry(m.now(), ttl)})
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	return m.entries.Remove(key), nil
}
