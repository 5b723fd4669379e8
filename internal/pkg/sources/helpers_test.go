package sources

import (
	"context"
	"sync"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

var testDay = time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func testClient(opts ...ClientOption) *HTTPClient {
	opts = append([]ClientOption{WithRetries(0, time.Millisecond)}, opts...)
	return NewHTTPClient(config.SourcesConfig{
		Timeout:         2 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  time.Minute,
	}, opts...)
}

type stubSource struct {
	name string
	recs []models.MatchRecord
	err  error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(context.Context, time.Time) ([]models.MatchRecord, error) {
	return s.recs, s.err
}
