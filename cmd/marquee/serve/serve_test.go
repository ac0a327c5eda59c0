package servecmder_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	marqueecmder "github.com/papercomputeco/marquee/cmd/marquee"
	servecmder "github.com/papercomputeco/marquee/cmd/marquee/serve"
	"github.com/papercomputeco/marquee/api"
	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/movie"
	testutils "github.com/papercomputeco/marquee/pkg/utils/test"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("rejects any arguments", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Args(cmd, []string{"api"})).To(HaveOccurred())
	})

	DescribeTable("registers flags",
		func(name, def string) {
			cmd := servecmder.NewServeCmd()
			f := cmd.Flags().Lookup(name)
			Expect(f).NotTo(BeNil())
			Expect(f.DefValue).To(Equal(def))
		},
		Entry("listen", "listen", ":8081"),
		Entry("watch", "watch", "false"),
		Entry("build", "build", "false"),
		Entry("log file", "log-file", ""),
		Entry("omdb api key", "omdb-api-key", ""),
		Entry("vector store", "vector-store-provider", "flat"),
	)
})

func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer l.Close()
	return l.Addr().String()
}

func getJSON(url string, out any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

var _ = Describe("Serve command execution", func() {
	var (
		configDir string
		addr      string
		base      string
		ollama    *testutils.FakeOllama
		cancel    context.CancelFunc
		done      chan error
	)

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		addr = freeAddr()
		base = "http://" + addr
		ollama = testutils.NewFakeOllama(8)
		DeferCleanup(ollama.Close)

		Expect(movie.SaveCatalog(filepath.Join(configDir, "movies.json"), []movie.Record{
			{Title: "Alien", Description: "A crew is hunted aboard the Nostromo."},
			{Title: "Heat", Description: "A detective pursues bank robbers."},
		})).To(Succeed())
	})

	start := func(extra ...string) {
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())

		cmd := marqueecmder.NewMarqueeCmd()
		cmd.SetArgs(append([]string{
			"serve",
			"--config-dir", configDir,
			"--listen", addr,
			"--embedding-target", ollama.URL,
			"--embedding-dimensions", "8",
			"--log-file", filepath.Join(configDir, "serve.log"),
		}, extra...))
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		done = make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- cmd.ExecuteContext(ctx)
		}()

		Eventually(func() (int, error) {
			return getJSON(base+"/ping", nil)
		}).WithTimeout(5 * time.Second).Should(Equal(http.StatusOK))
	}

	stop := func() {
		cancel()
		Eventually(done).WithTimeout(5 * time.Second).Should(Receive(BeNil()))
	}

	It("serves the index and builds it at startup", func() {
		start("--build")
		defer stop()

		Eventually(func() int {
			var stats index.Stats
			_, _ = getJSON(base+"/v1/index/stats", &stats)
			return stats.Entries
		}).WithTimeout(5 * time.Second).Should(Equal(2))

		var res api.SearchResponse
		code, err := getJSON(base+"/v1/search?top_k=1&query=Heat", &res)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusOK))
		Expect(res.Count).To(Equal(1))
	})

	It("answers 503 on resolver routes without an OMDb key", func() {
		start()
		defer stop()

		code, err := getJSON(base+"/v1/resolve?query=tiger", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal(http.StatusServiceUnavailable))
	})

	It("rebuilds when the catalog changes with --watch", func() {
		start("--watch")
		defer stop()

		Expect(movie.SaveCatalog(filepath.Join(configDir, "movies.json"), []movie.Record{
			{Title: "Paddington", Description: "A bear from Peru moves to London."},
		})).To(Succeed())

		Eventually(func() int {
			var stats index.Stats
			_, _ = getJSON(base+"/v1/index/stats", &stats)
			return stats.Entries
		}).WithTimeout(5 * time.Second).Should(Equal(1))
	})

	It("writes JSON logs to --log-file", func() {
		start()
		stop()

		data, err := os.ReadFile(filepath.Join(configDir, "serve.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"starting API server"`))
	})

	It("fails fast when the address is taken", func() {
		l, err := net.Listen("tcp", addr)
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		cmd := marqueecmder.NewMarqueeCmd()
		cmd.SetArgs([]string{"serve", "--config-dir", configDir, "--listen", addr})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("api server")))
	})
})
