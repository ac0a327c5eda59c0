// Package cache memoizes OMDb title and id lookups. Search pages are not
// cached; they are cheap to repeat and change as OMDb's catalog grows.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/omdb"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "marquee:omdb:"

// Store is a byte-valued key/value store with expiry.
type Store interface {
	// Get returns the value and true on a hit, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Provider is the OMDb surface the cache wraps.
type Provider interface {
	Search(ctx context.Context, query string, page int) (*omdb.SearchPage, error)
	ByTitle(ctx context.Context, title string) (*omdb.Movie, error)
	ByID(ctx context.Context, imdbID string) (*omdb.Movie, error)
}

// Config holds configuration for the caching provider.
type Config struct {
	TTL    time.Duration
	Logger *slog.Logger
}

// CachedProvider serves lookups from a Store before falling through to the
// wrapped provider. Store failures are logged and never surface to callers;
// misses from OMDb are not cached.
type CachedProvider struct {
	next   Provider
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// Wrap returns next decorated with store.
func Wrap(next Provider, store Store, c Config) *CachedProvider {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &CachedProvider{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: log,
	}
}

// Search passes through to the wrapped provider.
func (p *CachedProvider) Search(ctx context.Context, query string, page int) (*omdb.SearchPage, error) {
	return p.next.Search(ctx, query, page)
}

// ByTitle looks up title, keyed case-insensitively.
func (p *CachedProvider) ByTitle(ctx context.Context, title string) (*omdb.Movie, error) {
	key := keyPrefix + "title:" + strings.ToLower(strings.TrimSpace(title))
	return p.lookup(ctx, key, func() (*omdb.Movie, error) {
		return p.next.ByTitle(ctx, title)
	})
}

// ByID looks up an IMDb id.
func (p *CachedProvider) ByID(ctx context.Context, imdbID string) (*omdb.Movie, error) {
	key := keyPrefix + "id:" + imdbID
	return p.lookup(ctx, key, func() (*omdb.Movie, error) {
		return p.next.ByID(ctx, imdbID)
	})
}

// Close closes the underlying store.
func (p *CachedProvider) Close() error {
	return p.store.Close()
}

func (p *CachedProvider) lookup(ctx context.Context, key string, fetch func() (*omdb.Movie, error)) (*omdb.Movie, error) {
	data, ok, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.Warn("omdb cache read failed", "key", key, "error", err)
	case ok:
		m := &omdb.Movie{}
		if err := json.Unmarshal(data, m); err == nil {
			p.logger.Debug("omdb cache hit", "key", key)
			return m, nil
		}
		p.logger.Warn("discarding corrupt omdb cache entry", "key", key)
	}

	m, err := fetch()
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(m)
	if err == nil {
		err = p.store.Set(ctx, key, data, p.ttl)
	}
	if err != nil {
		p.logger.Warn("omdb cache write failed", "key", key, "error", err)
	}
	return m, nil
}

// Store providers accepted by NewStore.
const (
	ProviderNone   = "none"
	ProviderMemory = "memory"
	ProviderRedis  = "redis"
)

// NewStore builds the store named by provider. It returns a nil Store for
// ProviderNone (or an empty provider), meaning lookups are not cached.
func NewStore(ctx context.Context, provider, target string) (Store, error) {
	switch provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderMemory:
		return NewMemoryStore(), nil
	case ProviderRedis:
		s, err := NewRedisStore(ctx, target)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", provider)
	}
}
