// Package sources fetches match records from upstream feeds: a fixtures
// API, an odds API and a scraped tips page.
package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// ErrUnknownSource is returned by Build for a name nobody registered.
var ErrUnknownSource = errors.New("unknown source")

// Source returns the match records it knows for one UTC day.
type Source interface {
	Name() string
	Fetch(ctx context.Context, day time.Time) ([]models.MatchRecord, error)
}

// Factory builds a source from config, sharing the given HTTP client.
type Factory func(cfg *config.Config, client *HTTPClient) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("sources: empty name in Register")
	}
	if f == nil {
		panic("sources: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("sources: duplicate registration for " + n)
	}
	registry[n] = f
}

func FactoryByName(name string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build creates the sources listed in cfg.Sources.Enabled, in that order.
// The order is the reconciliation precedence.
func Build(cfg *config.Config, client *HTTPClient) ([]Source, error) {
	out := make([]Source, 0, len(cfg.Sources.Enabled))
	for _, name := range cfg.Sources.Enabled {
		f, ok := FactoryByName(name)
		if !ok {
			return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownSource, name, AvailableNames())
		}
		src, err := f(cfg, client)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %s: %w", name, err)
		}
		out = append(out, src)
	}
	return out, nil
}

func dayString(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}
