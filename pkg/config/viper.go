package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/marquee/pkg/dotdir"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// MARQUEE_OMDB_API_KEY for omdb.api_key.
const EnvPrefix = "MARQUEE"

// InitViper creates and returns a configured *viper.Viper.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MARQUEE_API_LISTEN, MARQUEE_OMDB_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	brokers := v.GetStringSlice("events.brokers")
	if len(brokers) == 0 {
		brokers = nil
	}

	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			DataDir:     v.GetString("storage.data_dir"),
			CatalogPath: v.GetString("storage.catalog_path"),
		},
		API:    APIConfig{Listen: v.GetString("api.listen")},
		Client: ClientConfig{APITarget: v.GetString("client.api_target")},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		OMDb: OMDbConfig{
			APIKey:  v.GetString("omdb.api_key"),
			BaseURL: v.GetString("omdb.base_url"),
		},
		Cache: CacheConfig{
			Provider: v.GetString("cache.provider"),
			Target:   v.GetString("cache.target"),
			TTL:      v.GetString("cache.ttl"),
		},
		Resolver: ResolverConfig{PatternsFile: v.GetString("resolver.patterns_file")},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  brokers,
			Topic:    v.GetString("events.topic"),
		},
		MCP: MCPConfig{Disabled: v.GetBool("mcp.disabled")},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.catalog_path", d.Storage.CatalogPath)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("omdb.api_key", d.OMDb.APIKey)
	v.SetDefault("omdb.base_url", d.OMDb.BaseURL)

	v.SetDefault("cache.provider", d.Cache.Provider)
	v.SetDefault("cache.target", d.Cache.Target)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("resolver.patterns_file", d.Resolver.PatternsFile)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("mcp.disabled", d.MCP.Disabled)
}

// Load resolves configuration for a cobra command: it reads config.toml from
// the directory named by the persistent --config-dir flag, then binds the
// registry flags listed in keys so explicitly set flags win.
func Load(cmd *cobra.Command, keys ...string) (*Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}
	BindRegisteredFlags(v, cmd, Flags, keys)

	return FromViper(v), nil
}
