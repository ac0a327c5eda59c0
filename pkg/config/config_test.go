package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/marquee/pkg/config"
)

var _ = Describe("Configer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[storage]
data_dir = "/tmp/marquee/index"
catalog_path = "/tmp/marquee/movies.json"

[api]
listen = ":9091"

[client]
api_target = "http://myhost:9091"

[vector_store]
provider = "qdrant"
target = "qdrant:6334"

[embedding]
provider = "ollama"
target = "http://ollama:11434"
model = "nomic-embed-text"
dimensions = 768

[omdb]
api_key = "abc123"
base_url = "http://omdb.test/"

[cache]
provider = "redis"
target = "redis:6379"
ttl = "1h"

[resolver]
patterns_file = "/etc/marquee/patterns.toml"

[events]
provider = "kafka"
brokers = ["kafka-1:9092", "kafka-2:9092"]
topic = "movies"

[mcp]
disabled = true
`)
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.DataDir).To(Equal("/tmp/marquee/index"))
			Expect(cfg.Storage.CatalogPath).To(Equal("/tmp/marquee/movies.json"))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("qdrant:6334"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
			Expect(cfg.OMDb.APIKey).To(Equal("abc123"))
			Expect(cfg.OMDb.BaseURL).To(Equal("http://omdb.test/"))
			Expect(cfg.Cache.Provider).To(Equal("redis"))
			Expect(cfg.Cache.TTL).To(Equal("1h"))
			Expect(cfg.Resolver.PatternsFile).To(Equal("/etc/marquee/patterns.toml"))
			Expect(cfg.Events.Brokers).To(Equal([]string{"kafka-1:9092", "kafka-2:9092"}))
			Expect(cfg.Events.Topic).To(Equal("movies"))
			Expect(cfg.MCP.Disabled).To(BeTrue())
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[omdb]
api_key = "abc123"
`)
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.OMDb.APIKey).To(Equal("abc123"))
			Expect(cfg.OMDb.BaseURL).To(Equal(defaults.OMDb.BaseURL))
			Expect(cfg.VectorStore.Provider).To(Equal("flat"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(384)))
			Expect(cfg.Events.Topic).To(Equal(defaults.Events.Topic))
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("round-trips a full config", func() {
			cfg := config.NewDefaultConfig()
			cfg.Storage.CatalogPath = "/tmp/movies.json"
			cfg.VectorStore.Provider = "sqlite"
			cfg.Events.Brokers = []string{"localhost:9092"}

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).NotTo(Succeed())
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and gets a string key", func() {
			Expect(c.SetConfigValue("omdb.api_key", "secret")).To(Succeed())

			val, err := c.GetConfigValue("omdb.api_key")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("secret"))
		})

		It("sets a uint key", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "768")).To(Succeed())

			val, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("768"))
		})

		It("splits broker lists on commas", func() {
			Expect(c.SetConfigValue("events.brokers", "a:9092, b:9092,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
		})

		It("rejects invalid values", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "lots")).To(MatchError(ContainSubstring("invalid value")))
			Expect(c.SetConfigValue("mcp.disabled", "maybe")).To(MatchError(ContainSubstring("invalid value")))
		})

		It("rejects unknown keys", func() {
			Expect(c.SetConfigValue("proxy.provider", "x")).To(MatchError(ContainSubstring("unknown config key")))

			_, err := c.GetConfigValue("proxy.provider")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("vector_store.provider", "qdrant")).To(Succeed())
			Expect(c.SetConfigValue("vector_store.target", "localhost:6334")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		})

		It("returns an empty string for keys with no default", func() {
			val, err := c.GetConfigValue("omdb.api_key")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("lists every section", func() {
		Expect(config.ValidConfigKeys()).To(ContainElements(
			"storage.data_dir",
			"storage.catalog_path",
			"api.listen",
			"client.api_target",
			"vector_store.provider",
			"embedding.dimensions",
			"omdb.api_key",
			"cache.ttl",
			"resolver.patterns_file",
			"events.brokers",
			"mcp.disabled",
		))
	})

	It("is stable and starts in section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(Equal(config.ValidConfigKeys()))
		Expect(keys[0]).To(Equal("storage.data_dir"))
	})

	It("matches IsValidConfigKey", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("")).To(BeFalse())
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("builds the qdrant preset with a redis cache", func() {
		cfg, err := config.PresetConfig("QDRANT")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		Expect(cfg.Cache.Provider).To(Equal("redis"))
	})

	It("builds the sqlite preset", func() {
		cfg, err := config.PresetConfig("sqlite")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
		Expect(cfg.Embedding.Model).To(Equal("all-minilm"))
	})

	It("returns error for unknown preset", func() {
		cfg, err := config.PresetConfig("faiss")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		Expect(cfg).To(BeNil())
	})

	It("names every preset", func() {
		Expect(config.ValidPresetNames()).To(ConsistOf("flat", "sqlite", "qdrant"))
	})
})

var _ = Describe("ResolvePaths", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "paths-test-*")
		Expect(err).NotTo(HaveOccurred())
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("defaults into the marquee directory", func() {
		paths, err := config.ResolvePaths(config.NewDefaultConfig(), tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(paths.DataDir).To(Equal(filepath.Join(tmpDir, "index")))
		Expect(paths.CatalogPath).To(Equal(filepath.Join(tmpDir, "movies.json")))
	})

	It("keeps configured locations and creates the data dir", func() {
		cfg := config.NewDefaultConfig()
		cfg.Storage.DataDir = filepath.Join(tmpDir, "custom")
		cfg.Storage.CatalogPath = "/srv/movies.json"

		paths, err := config.ResolvePaths(cfg, tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(paths.DataDir).To(BeADirectory())
		Expect(paths.CatalogPath).To(Equal("/srv/movies.json"))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[vector_store]
provider = "sqlite"
`), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("vector_store.provider")).To(Equal("sqlite"))
		Expect(v.GetString("api.listen")).To(Equal(":8081"))
	})

	It("lets MARQUEE_ env vars override the config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[omdb]
api_key = "from-file"
`), 0o600)).To(Succeed())

		GinkgoT().Setenv("MARQUEE_OMDB_API_KEY", "from-env")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v).OMDb.APIKey).To(Equal("from-env"))
	})
})

var _ = Describe("Flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds a set flag over the config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[api]
listen = ":5555"
`), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to the config file when the flag is not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[api]
listen = ":5555"
`), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen, "nonexistent"})
		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("pulls name, shorthand, default, and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var catalog string
		config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &catalog)

		f := cmd.Flags().Lookup("catalog")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("c"))
		Expect(f.Usage).To(Equal("Path to the JSON movie catalog"))
		Expect(f.DefValue).To(BeEmpty())
	})

	It("uses config defaults for uint flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var dims uint
		config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &dims)

		f := cmd.Flags().Lookup("embedding-dimensions")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("384"))
	})

	It("ignores unknown registry keys", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, config.Flags, "missing", &s)
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})
})

var _ = Describe("Load", func() {
	It("reads the config dir flag and lets bound flags win", func() {
		tmpDir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[vector_store]
provider = "sqlite"

[api]
listen = ":5555"
`), 0o600)).To(Succeed())

		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", "", "")
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)

		Expect(cmd.Flags().Set("config-dir", tmpDir)).To(Succeed())
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		cfg, err := config.Load(cmd, config.FlagAPIListen)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":7777"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
	})
})
