package testutils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/papercomputeco/marquee/pkg/omdb"
)

// FakeOMDb serves the OMDb HTTP API from a MockProvider, so commands that
// build their own client from config can be tested end to end.
type FakeOMDb struct {
	*httptest.Server

	Provider *MockProvider
	APIKey   string
}

// NewFakeOMDb starts a server that accepts apiKey. Callers must Close it.
func NewFakeOMDb(apiKey string) *FakeOMDb {
	f := &FakeOMDb{
		Provider: NewMockProvider(),
		APIKey:   apiKey,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *FakeOMDb) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	if q.Get("apikey") != f.APIKey {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Invalid API key!"})
		return
	}

	ctx := r.Context()
	switch {
	case q.Get("s") != "":
		page, _ := strconv.Atoi(q.Get("page"))
		res, err := f.Provider.Search(ctx, q.Get("s"), max(page, 1))
		if err != nil {
			writeOMDbError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Response":     "True",
			"Search":       res.Hits,
			"totalResults": strconv.Itoa(res.TotalResults),
		})

	case q.Get("t") != "":
		m, err := f.Provider.ByTitle(ctx, q.Get("t"))
		if err != nil {
			writeOMDbError(w, err)
			return
		}
		writeOMDbMovie(w, m)

	case q.Get("i") != "":
		m, err := f.Provider.ByID(ctx, q.Get("i"))
		if err != nil {
			writeOMDbError(w, err)
			return
		}
		writeOMDbMovie(w, m)

	default:
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."})
	}
}

// writeOMDbMovie flattens the movie and the Response flag into one object,
// the way OMDb does.
func writeOMDbMovie(w http.ResponseWriter, m *omdb.Movie) {
	data, err := json.Marshal(m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fields["Response"] = "True"
	_ = json.NewEncoder(w).Encode(fields)
}

func writeOMDbError(w http.ResponseWriter, err error) {
	if !errors.Is(err, omdb.ErrNotFound) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Movie not found!"})
}
