package movie_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/movie"
)

var _ = Describe("Record", func() {
	It("joins title and description with a single space for embedding", func() {
		r := movie.Record{Title: "Heat", Description: "A heist in LA."}
		Expect(r.EmbeddingText()).To(Equal("Heat A heist in LA."))
	})

	DescribeTable("ParseRating",
		func(in string, want float64) {
			Expect(movie.ParseRating(in)).To(Equal(want))
		},
		Entry("numeric", "8.6", 8.6),
		Entry("padded", " 7.0 ", 7.0),
		Entry("N/A", "N/A", 0.0),
		Entry("empty", "", 0.0),
		Entry("garbage", "eight", 0.0),
		Entry("NaN", "NaN", 0.0),
		Entry("infinity", "Inf", 0.0),
		Entry("negative infinity", "-Inf", 0.0),
		Entry("overflow", "1e400", 0.0),
	)

	It("maps the N/A poster placeholder to empty", func() {
		Expect(movie.NormalizePoster("N/A")).To(BeEmpty())
		Expect(movie.NormalizePoster("https://img/p.jpg")).To(Equal("https://img/p.jpg"))
	})
})

var _ = Describe("Catalog", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "catalog-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("treats a missing file as an empty catalog", func() {
		records, err := movie.LoadCatalog(filepath.Join(tmpDir, "nope.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
		Expect(records).NotTo(BeNil())
	})

	It("round-trips records through SaveCatalog", func() {
		path := filepath.Join(tmpDir, "nested", "movies.json")
		in := []movie.Record{
			{Title: "Inception", Description: "Dreams within dreams.", Rating: 8.8, Watched: true, IMDbID: "tt1375666"},
			{Title: "Heat", Description: "A heist in LA.", Rating: 8.3},
		}
		Expect(movie.SaveCatalog(path, in)).To(Succeed())

		out, err := movie.LoadCatalog(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))

		leftovers, err := filepath.Glob(filepath.Join(tmpDir, "nested", ".movies.json.tmp-*"))
		Expect(err).NotTo(HaveOccurred())
		Expect(leftovers).To(BeEmpty())
	})

	It("rejects malformed JSON", func() {
		_, err := movie.ParseCatalog([]byte(`{"title":`))
		Expect(err).To(MatchError(ContainSubstring("parsing catalog")))
	})

	It("treats empty input and JSON null as empty", func() {
		records, err := movie.ParseCatalog(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())

		records, err = movie.ParseCatalog([]byte("null"))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).NotTo(BeNil())
	})
})
