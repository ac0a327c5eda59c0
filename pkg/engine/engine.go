// Package engine assembles the embedding index and the description resolver
// from a resolved marquee configuration. Commands open what they need and
// close it when done.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/marquee/pkg/config"
	"github.com/papercomputeco/marquee/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/marquee/pkg/embeddings/utils"
	"github.com/papercomputeco/marquee/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/marquee/pkg/eventstream/utils"
	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/omdb"
	"github.com/papercomputeco/marquee/pkg/omdb/cache"
	"github.com/papercomputeco/marquee/pkg/resolver"
	vectorutils "github.com/papercomputeco/marquee/pkg/vector/utils"
)

// Options selects the configuration to open.
type Options struct {
	Config *config.Config

	// ConfigDir overrides .marquee/ discovery when resolving default paths.
	ConfigDir string

	// Embedder replaces the configured embedding provider. Optional.
	Embedder embeddings.Embedder

	Logger *slog.Logger
}

// Engine owns an open index and the publisher it reports rebuilds to.
type Engine struct {
	Index *index.Index
	Paths *config.Paths

	publisher eventstream.Publisher
	logger    *slog.Logger
}

// Open builds the embedder, vector driver, and event publisher named by the
// configuration and wires them into an index.
func Open(o Options) (*Engine, error) {
	if o.Config == nil {
		return nil, errors.New("engine requires a config")
	}
	cfg := o.Config

	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	paths, err := config.ResolvePaths(cfg, o.ConfigDir)
	if err != nil {
		return nil, err
	}

	embedder := o.Embedder
	if embedder == nil {
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
			Dimensions:   cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       cfg.VectorStore.Target,
		DataDir:      paths.DataDir,
		Logger:       log,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       log,
	})
	if err != nil {
		embedder.Close()
		driver.Close()
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	ix, err := index.New(index.Config{
		Embedder:   embedder,
		Driver:     driver,
		DataDir:    paths.DataDir,
		Dimensions: int(cfg.Embedding.Dimensions),
		Publisher:  publisher,
		Logger:     log,
	})
	if err != nil {
		embedder.Close()
		driver.Close()
		publisher.Close()
		return nil, err
	}

	log.Debug("engine opened",
		"data_dir", paths.DataDir,
		"catalog", paths.CatalogPath,
		"vector_store", cfg.VectorStore.Provider,
		"embedding_model", cfg.Embedding.Model,
		"events", cfg.Events.Provider,
	)

	return &Engine{
		Index:     ix,
		Paths:     paths,
		publisher: publisher,
		logger:    log,
	}, nil
}

// Catalog loads the configured catalog file.
func (e *Engine) Catalog() ([]movie.Record, error) {
	return movie.LoadCatalog(e.Paths.CatalogPath)
}

func (e *Engine) Close() error {
	return errors.Join(e.Index.Close(), e.publisher.Close())
}

// Resolver is a description resolver together with the lookup cache it
// owns.
type Resolver struct {
	*resolver.Resolver

	store cache.Store
}

// ResolverOptions configures OpenResolver.
type ResolverOptions struct {
	Config *config.Config

	// Provider replaces the OMDb client. Optional.
	Provider cache.Provider

	Logger *slog.Logger
}

// OpenResolver builds the OMDb client, wraps it in the configured lookup
// cache, and loads resolver patterns. Without an API key it returns
// omdb.ErrMissingAPIKey.
func OpenResolver(ctx context.Context, o ResolverOptions) (*Resolver, error) {
	if o.Config == nil {
		return nil, errors.New("resolver requires a config")
	}
	cfg := o.Config

	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	rcfg := resolver.DefaultConfig()
	if cfg.Resolver.PatternsFile != "" {
		var err error
		rcfg, err = resolver.LoadConfigFile(cfg.Resolver.PatternsFile)
		if err != nil {
			return nil, err
		}
	}

	var provider cache.Provider = o.Provider
	if provider == nil {
		client, err := omdb.NewClient(omdb.Config{
			APIKey:  cfg.OMDb.APIKey,
			BaseURL: cfg.OMDb.BaseURL,
			Logger:  log,
		})
		if err != nil {
			return nil, err
		}
		provider = client
	}

	var ttl time.Duration
	if cfg.Cache.TTL != "" {
		var err error
		ttl, err = time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache.ttl %q: %w", cfg.Cache.TTL, err)
		}
	}

	store, err := cache.NewStore(ctx, cfg.Cache.Provider, cfg.Cache.Target)
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}
	if store != nil {
		provider = cache.Wrap(provider, store, cache.Config{TTL: ttl, Logger: log})
		log.Debug("omdb lookups cached", "cache", cfg.Cache.Provider, "ttl", cfg.Cache.TTL)
	}

	return &Resolver{
		Resolver: resolver.New(provider, rcfg, log),
		store:    store,
	}, nil
}

func (r *Resolver) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}
