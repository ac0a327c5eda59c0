package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
)

type fakeIndex struct {
	results []index.Result
	err     error

	lastTool string
	lastTopK int
}

func (f *fakeIndex) Query(_ context.Context, _ string, topK int) ([]index.Result, error) {
	f.lastTool, f.lastTopK = "query", topK
	return f.results, f.err
}

func (f *fakeIndex) Recommend(_ context.Context, _ string, topK int) ([]index.Result, error) {
	f.lastTool, f.lastTopK = "recommend", topK
	return f.results, f.err
}

type fakeResolver struct {
	records   []movie.Record
	err       error
	lastCount int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, count int) ([]movie.Record, error) {
	f.lastCount = count
	return f.records, f.err
}

func textOf(res *mcp.CallToolResult) string {
	Expect(res.Content).To(HaveLen(1))
	text, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		ctx    context.Context
		ix     *fakeIndex
		res    *fakeResolver
		server *Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		ix = &fakeIndex{results: []index.Result{
			{Title: "Alien", Description: "A crew is hunted.", Rating: 8.5, Score: 0.9},
			{Title: "Heat", Description: "Bank robbers.", Rating: 8.3, Score: 0.4},
		}}
		res = &fakeResolver{records: []movie.Record{
			{Title: "Life of Pi", IMDbID: "tt0454876"},
		}}

		var err error
		server, err = NewServer(Config{Index: ix, Resolver: res, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the index is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("index is required")))
		})

		It("allows a noop server without collaborators", func() {
			noop, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("tool listing", func() {
		listTools := func(s *Server) []string {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()

			serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = serverSession.Close() })

			client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.0"}, nil)
			session, err := client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = session.Close() })

			out, err := session.ListTools(ctx, &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(out.Tools))
			for _, t := range out.Tools {
				names = append(names, t.Name)
			}
			return names
		}

		It("registers all three tools", func() {
			Expect(listTools(server)).To(ConsistOf("search_movies", "recommend_movies", "resolve_description"))
		})

		It("omits resolve_description without a resolver", func() {
			indexOnly, err := NewServer(Config{Index: ix})
			Expect(err).NotTo(HaveOccurred())
			Expect(listTools(indexOnly)).To(ConsistOf("search_movies", "recommend_movies"))
		})

		It("calls a tool end to end", func() {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()
			serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = serverSession.Close() })

			client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.0"}, nil)
			session, err := client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = session.Close() })

			out, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "search_movies",
				Arguments: map[string]any{"query": "space horror", "top_k": 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.IsError).To(BeFalse())
			Expect(ix.lastTopK).To(Equal(1))

			var decoded IndexOutput
			Expect(json.Unmarshal([]byte(textOf(out)), &decoded)).To(Succeed())
			Expect(decoded.Results[0].Title).To(Equal("Alien"))
		})
	})

	Describe("search_movies", func() {
		It("returns results as structured output and JSON text", func() {
			result, output, err := server.handleSearch(ctx, nil, IndexInput{Query: "crew"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(ix.lastTool).To(Equal("query"))
			Expect(ix.lastTopK).To(Equal(defaultTopK))

			Expect(output.Query).To(Equal("crew"))
			Expect(output.Count).To(Equal(2))

			var decoded IndexOutput
			Expect(json.Unmarshal([]byte(textOf(result)), &decoded)).To(Succeed())
			Expect(decoded).To(Equal(output))
		})

		It("rejects an empty query", func() {
			result, _, err := server.handleSearch(ctx, nil, IndexInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("query is required"))
		})

		It("reports index failures as tool errors", func() {
			ix.err = errors.New("encoder offline")
			result, _, err := server.handleSearch(ctx, nil, IndexInput{Query: "crew"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("encoder offline"))
		})
	})

	Describe("recommend_movies", func() {
		It("uses the recommend path with the given top_k", func() {
			_, output, err := server.handleRecommend(ctx, nil, IndexInput{Query: "heist", TopK: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(ix.lastTool).To(Equal("recommend"))
			Expect(ix.lastTopK).To(Equal(3))
			Expect(output.Count).To(Equal(2))
		})
	})

	Describe("resolve_description", func() {
		It("defaults count to five", func() {
			result, output, err := server.handleResolve(ctx, nil, ResolveInput{Description: "a boy on a boat with a tiger"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(res.lastCount).To(Equal(defaultCount))
			Expect(output.Movies).To(HaveLen(1))
			Expect(output.Movies[0].Title).To(Equal("Life of Pi"))
		})

		It("rejects an empty description", func() {
			result, _, err := server.handleResolve(ctx, nil, ResolveInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("reports cancellation as a tool error", func() {
			res.err = context.Canceled
			result, _, err := server.handleResolve(ctx, nil, ResolveInput{Description: "tiger"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("context canceled"))
		})
	})
})
