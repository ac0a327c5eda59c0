package omdb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/omdb"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *omdb.Client
		ctx      context.Context
		lastURL  string
		respond  func(w http.ResponseWriter, r *http.Request)
		writeObj = func(w http.ResponseWriter, status int, v any) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			Expect(json.NewEncoder(w).Encode(v)).To(Succeed())
		}
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastURL = r.URL.String()
			respond(w, r)
		}))

		var err error
		client, err = omdb.NewClient(omdb.Config{APIKey: "test-key", BaseURL: server.URL + "/"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an api key", func() {
		_, err := omdb.NewClient(omdb.Config{})
		Expect(err).To(MatchError(omdb.ErrMissingAPIKey))
	})

	Describe("Search", func() {
		It("sends the search parameters and decodes hits", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				writeObj(w, http.StatusOK, map[string]any{
					"Search": []map[string]string{
						{"Title": "Life of Pi", "Year": "2012", "imdbID": "tt0454876", "Type": "movie"},
					},
					"totalResults": "1",
					"Response":     "True",
				})
			}

			page, err := client.Search(ctx, "tiger boat", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.TotalResults).To(Equal(1))
			Expect(page.Hits).To(HaveLen(1))
			Expect(page.Hits[0].IMDbID).To(Equal("tt0454876"))

			Expect(lastURL).To(ContainSubstring("s=tiger+boat"))
			Expect(lastURL).To(ContainSubstring("page=2"))
			Expect(lastURL).To(ContainSubstring("type=movie"))
			Expect(lastURL).To(ContainSubstring("apikey=test-key"))
		})

		It("maps Response False to ErrNotFound", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				writeObj(w, http.StatusOK, map[string]string{"Response": "False", "Error": "Movie not found!"})
			}

			_, err := client.Search(ctx, "zzzz", 1)
			Expect(err).To(MatchError(omdb.ErrNotFound))
			Expect(err.Error()).To(ContainSubstring("Movie not found!"))
		})
	})

	Describe("ByTitle", func() {
		It("requests the full plot and decodes details", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				writeObj(w, http.StatusOK, map[string]string{
					"Title":      "Inception",
					"Plot":       "A thief who steals corporate secrets through dream-sharing.",
					"imdbRating": "8.8",
					"imdbID":     "tt1375666",
					"Response":   "True",
				})
			}

			m, err := client.ByTitle(ctx, "Inception")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Title).To(Equal("Inception"))
			Expect(m.IMDbRating).To(Equal("8.8"))
			Expect(lastURL).To(ContainSubstring("t=Inception"))
			Expect(lastURL).To(ContainSubstring("plot=full"))
		})
	})

	Describe("ByID", func() {
		It("looks up by imdb id", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				writeObj(w, http.StatusOK, map[string]string{"Title": "The Matrix", "imdbID": "tt0133093", "Response": "True"})
			}

			m, err := client.ByID(ctx, "tt0133093")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.IMDbID).To(Equal("tt0133093"))
			Expect(lastURL).To(ContainSubstring("i=tt0133093"))
		})

		It("returns ErrAPI for an invalid key", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				writeObj(w, http.StatusUnauthorized, map[string]string{"Response": "False", "Error": "Invalid API key!"})
			}

			_, err := client.ByID(ctx, "tt0133093")
			Expect(err).To(MatchError(omdb.ErrAPI))
			Expect(err).NotTo(MatchError(omdb.ErrNotFound))
			Expect(err.Error()).To(ContainSubstring("Invalid API key!"))
		})

		It("fails on a non-JSON body", func() {
			respond = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("<html>"))
			}

			_, err := client.ByID(ctx, "tt0133093")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Format", func() {
	It("maps provider fields onto a record", func() {
		r := omdb.Format(&omdb.Movie{
			Title:      "Life of Pi",
			Plot:       "A young man survives a disaster at sea.",
			IMDbRating: "7.9",
			Year:       "2012",
			Genre:      "Adventure, Drama",
			Director:   "Ang Lee",
			IMDbID:     "tt0454876",
			Poster:     "https://example.com/pi.jpg",
		})

		Expect(r.Title).To(Equal("Life of Pi"))
		Expect(r.Description).To(Equal("A young man survives a disaster at sea."))
		Expect(r.Rating).To(BeNumerically("~", 7.9, 1e-9))
		Expect(r.Watched).To(BeFalse())
		Expect(r.IMDbID).To(Equal("tt0454876"))
		Expect(r.Poster).To(Equal("https://example.com/pi.jpg"))
	})

	It("normalizes N/A rating and poster", func() {
		r := omdb.Format(&omdb.Movie{Title: "Obscure", IMDbRating: "N/A", Poster: "N/A"})
		Expect(r.Rating).To(BeZero())
		Expect(r.Poster).To(BeEmpty())
	})

	It("treats an unparseable rating as zero", func() {
		Expect(omdb.Format(&omdb.Movie{IMDbRating: "eight"}).Rating).To(BeZero())
	})

	It("zeroes a non-finite rating so the record still encodes", func() {
		for _, raw := range []string{"NaN", "Inf", "-Inf"} {
			r := omdb.Format(&omdb.Movie{Title: "Broken", IMDbRating: raw})
			Expect(r.Rating).To(BeZero(), raw)

			_, err := json.Marshal(r)
			Expect(err).NotTo(HaveOccurred(), raw)
		}
	})

	It("fills placeholders for missing fields", func() {
		r := omdb.Format(&omdb.Movie{})
		Expect(r.Title).To(Equal("Unknown Title"))
		Expect(r.Description).To(Equal("No description available."))
		Expect(r.Year).To(Equal("Unknown"))
		Expect(r.Director).To(Equal("Unknown"))
	})
})
