package configcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	marqueecmder "github.com/papercomputeco/marquee/cmd/marquee"
	configcmder "github.com/papercomputeco/marquee/cmd/marquee/config"
	"github.com/papercomputeco/marquee/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("has get, set and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("get", "set", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		configDir string
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	run := func(args ...string) error {
		out.Reset()
		cmd := marqueecmder.NewMarqueeCmd()
		cmd.SetArgs(append(append([]string{"config"}, args...), "--config-dir", configDir))
		cmd.SetOut(out)
		cmd.SetErr(GinkgoWriter)
		return cmd.Execute()
	}

	load := func() *config.Config {
		cfger, err := config.NewConfiger(configDir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	It("sets and gets a value", func() {
		Expect(run("set", "vector_store.provider", "sqlite")).To(Succeed())
		Expect(load().VectorStore.Provider).To(Equal("sqlite"))

		Expect(run("get", "vector_store.provider")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("sqlite"))
	})

	It("sets numeric values", func() {
		Expect(run("set", "embedding.dimensions", "768")).To(Succeed())
		Expect(load().Embedding.Dimensions).To(Equal(uint(768)))
	})

	It("reports defaults for unset keys", func() {
		Expect(run("get", "embedding.model")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("all-minilm"))
	})

	It("rejects unknown keys", func() {
		Expect(run("set", "vector_store.flavour", "x")).To(MatchError(ContainSubstring("unknown config key")))
		Expect(run("get", "nope")).To(MatchError(ContainSubstring("unknown config key")))
	})

	It("lists every key and masks the API key", func() {
		Expect(run("set", "omdb.api_key", "supersecret1234")).To(Succeed())
		Expect(run("list")).To(Succeed())

		for _, key := range config.ValidConfigKeys() {
			Expect(out.String()).To(ContainSubstring(key))
		}
		Expect(out.String()).To(ContainSubstring("****1234"))
		Expect(out.String()).NotTo(ContainSubstring("supersecret"))
	})
})
