package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent marquee configuration stored as config.toml
// in the .marquee/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	OMDb        OMDbConfig        `toml:"omdb"`
	Cache       CacheConfig       `toml:"cache"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Events      EventsConfig      `toml:"events"`
	MCP         MCPConfig         `toml:"mcp"`
}

// StorageConfig locates the index artifacts and the movie catalog.
type StorageConfig struct {
	// DataDir holds the vector index and its side table.
	// Empty means <.marquee>/index.
	DataDir string `toml:"data_dir,omitempty"`

	// CatalogPath is the JSON catalog indexed by "marquee index" and watched
	// by "marquee serve --watch". Empty means <.marquee>/movies.json.
	CatalogPath string `toml:"catalog_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig selects the nearest-neighbor structure.
type VectorStoreConfig struct {
	// Provider is one of "flat", "sqlite", or "qdrant".
	Provider string `toml:"provider,omitempty"`

	// Target is the qdrant address (host:port). Unused by file-backed providers.
	Target string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// OMDbConfig holds the movie metadata provider settings.
type OMDbConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// CacheConfig controls caching of metadata provider lookups.
type CacheConfig struct {
	// Provider is one of "none", "memory", or "redis".
	Provider string `toml:"provider,omitempty"`

	// Target is the redis address (host:port).
	Target string `toml:"target,omitempty"`

	// TTL is a Go duration string, e.g. "24h".
	TTL string `toml:"ttl,omitempty"`
}

// ResolverConfig points at an optional TOML file overriding the built-in
// stop words, patterns, and fallback titles.
type ResolverConfig struct {
	PatternsFile string `toml:"patterns_file,omitempty"`
}

// EventsConfig selects where index rebuild events are published.
type EventsConfig struct {
	// Provider is one of "none" or "kafka".
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// MCPConfig toggles the MCP endpoint on the API server. The endpoint is
// mounted unless Disabled is set.
type MCPConfig struct {
	Disabled bool `toml:"disabled,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// stringKey builds a configKeyInfo for a plain string field.
func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.data_dir":      stringKey(func(c *Config) *string { return &c.Storage.DataDir }),
	"storage.catalog_path":  stringKey(func(c *Config) *string { return &c.Storage.CatalogPath }),
	"api.listen":            stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target":     stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"embedding.provider":    stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":      stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":       stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"omdb.api_key":           stringKey(func(c *Config) *string { return &c.OMDb.APIKey }),
	"omdb.base_url":          stringKey(func(c *Config) *string { return &c.OMDb.BaseURL }),
	"cache.provider":         stringKey(func(c *Config) *string { return &c.Cache.Provider }),
	"cache.target":           stringKey(func(c *Config) *string { return &c.Cache.Target }),
	"cache.ttl":              stringKey(func(c *Config) *string { return &c.Cache.TTL }),
	"resolver.patterns_file": stringKey(func(c *Config) *string { return &c.Resolver.PatternsFile }),
	"events.provider":        stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
	"events.topic": stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"mcp.disabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.MCP.Disabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for mcp.disabled: %w", err)
			}
			c.MCP.Disabled = b
			return nil
		},
	},
}
