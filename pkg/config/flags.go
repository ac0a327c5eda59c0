package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// reads the same on "marquee index", "marquee search", and "marquee serve".
type Flag struct {
	// Name is the long flag name (e.g. "catalog").
	Name string

	// Shorthand is the one-letter short flag (e.g. "c"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "storage.catalog_path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid drift from one command to another.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagDataDir         = "data-dir"
	FlagCatalog         = "catalog"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagOMDbAPIKey      = "omdb-api-key"
	FlagOMDbBaseURL     = "omdb-base-url"
	FlagCacheProv       = "cache-provider"
	FlagCacheTgt        = "cache-target"
	FlagPatternsFile    = "patterns"
	FlagEventsProv      = "events-provider"
	FlagEventsTopic     = "events-topic"
)

// Flags is the registry shared by every marquee command.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "Marquee API server URL"},
	FlagDataDir:         {Name: "data-dir", ViperKey: "storage.data_dir", Description: "Directory holding the vector index and side table"},
	FlagCatalog:         {Name: "catalog", Shorthand: "c", ViperKey: "storage.catalog_path", Description: "Path to the JSON movie catalog"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Nearest-neighbor backend (flat, sqlite, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store address (qdrant host:port)"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagOMDbAPIKey:      {Name: "omdb-api-key", ViperKey: "omdb.api_key", Description: "OMDb API key"},
	FlagOMDbBaseURL:     {Name: "omdb-base-url", ViperKey: "omdb.base_url", Description: "OMDb API base URL"},
	FlagCacheProv:       {Name: "cache-provider", ViperKey: "cache.provider", Description: "Metadata lookup cache (none, memory, redis)"},
	FlagCacheTgt:        {Name: "cache-target", ViperKey: "cache.target", Description: "Redis address for the lookup cache"},
	FlagPatternsFile:    {Name: "patterns", ViperKey: "resolver.patterns_file", Description: "TOML file overriding resolver patterns and stop words"},
	FlagEventsProv:      {Name: "events-provider", ViperKey: "events.provider", Description: "Index event publisher (none, kafka)"},
	FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Topic for index rebuild events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
