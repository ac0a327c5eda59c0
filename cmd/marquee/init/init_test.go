package initcmder_test

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/marquee/cmd/marquee/init"
	"github.com/papercomputeco/marquee/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".marquee", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	Expect(toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "marquee-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates a .marquee directory with config and an empty catalog", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{})
		cmd.SetOut(GinkgoWriter)
		Expect(cmd.Execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".marquee"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.VectorStore.Provider).To(Equal("flat"))
		Expect(cfg.Embedding.Model).To(Equal("all-minilm"))
		Expect(cfg.API.Listen).To(Equal(":8081"))

		data, err := os.ReadFile(filepath.Join(tmpDir, ".marquee", "movies.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[]"))
	})

	It("does not overwrite existing files", func() {
		dir := filepath.Join(tmpDir, ".marquee")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		catalog := `[{"title":"Alien","description":"In space."}]`
		Expect(os.WriteFile(filepath.Join(dir, "movies.json"), []byte(catalog), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\nlisten = \":9999\"\n"), 0o600)).To(Succeed())

		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "sqlite"})
		cmd.SetOut(GinkgoWriter)
		Expect(cmd.Execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "movies.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(catalog))
		Expect(loadConfig(tmpDir).API.Listen).To(Equal(":9999"))
	})

	DescribeTable("writes the preset's vector store",
		func(preset, provider string) {
			cmd := initcmder.NewInitCmd()
			cmd.SetArgs([]string{"--preset", preset})
			cmd.SetOut(GinkgoWriter)
			Expect(cmd.Execute()).To(Succeed())

			Expect(loadConfig(tmpDir).VectorStore.Provider).To(Equal(provider))
		},
		Entry("flat", "flat", "flat"),
		Entry("sqlite", "sqlite", "sqlite"),
		Entry("qdrant", "qdrant", "qdrant"),
	)

	It("rejects unknown preset names", func() {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs([]string{"--preset", "faiss"})
		cmd.SetOut(GinkgoWriter)
		err := cmd.Execute()
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))

		_, err = os.Stat(filepath.Join(tmpDir, ".marquee"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
