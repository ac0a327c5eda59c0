package config

const (
	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider = "flat"
	defaultQdrantTarget   = "localhost:6334"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	defaultOMDbBaseURL = "http://www.omdbapi.com/"

	defaultCacheProvider = "memory"
	defaultCacheTTL      = "24h"
	defaultRedisTarget   = "localhost:6379"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "marquee.index.rebuilt"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		OMDb: OMDbConfig{
			BaseURL: defaultOMDbBaseURL,
		},
		Cache: CacheConfig{
			Provider: defaultCacheProvider,
			TTL:      defaultCacheTTL,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
