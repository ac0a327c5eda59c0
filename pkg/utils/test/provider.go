package testutils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/papercomputeco/marquee/pkg/omdb"
)

// searchPageSize matches OMDb's fixed page size.
const searchPageSize = 10

// ErrMockProvider is returned by MockProvider when failure is injected.
var ErrMockProvider = errors.New("mock provider failure")

// MockProvider is an in-memory OMDb stand-in. Movies are keyed by IMDb id;
// searches are canned lists of ids paginated like OMDb.
type MockProvider struct {
	mu sync.Mutex

	movies   map[string]*omdb.Movie
	order    []string
	searches map[string][]string

	// FailAll makes every call return ErrMockProvider.
	FailAll bool

	// FailSearch makes Search return ErrMockProvider.
	FailSearch bool

	// Calls records every call as "search:<query>:<page>", "title:<title>",
	// or "id:<id>".
	Calls []string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		movies:   make(map[string]*omdb.Movie),
		searches: make(map[string][]string),
	}
}

// AddMovie registers a movie for title and id lookups.
func (m *MockProvider) AddMovie(mv *omdb.Movie) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.movies[mv.IMDbID]; !ok {
		m.order = append(m.order, mv.IMDbID)
	}
	m.movies[mv.IMDbID] = mv
}

// AddSearch registers the ids returned for query, across as many pages as needed.
func (m *MockProvider) AddSearch(query string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[query] = ids
}

// CallCount returns how many recorded calls start with prefix.
func (m *MockProvider) CallCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *MockProvider) Search(_ context.Context, query string, page int) (*omdb.SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, fmt.Sprintf("search:%s:%d", query, page))

	if m.FailAll || m.FailSearch {
		return nil, ErrMockProvider
	}

	ids := m.searches[query]
	start := (page - 1) * searchPageSize
	if page < 1 || start >= len(ids) {
		return nil, fmt.Errorf("%w: movie not found", omdb.ErrNotFound)
	}
	end := min(start+searchPageSize, len(ids))

	hits := make([]omdb.SearchHit, 0, end-start)
	for _, id := range ids[start:end] {
		hit := omdb.SearchHit{IMDbID: id, Type: "movie"}
		if mv, ok := m.movies[id]; ok {
			hit.Title, hit.Year = mv.Title, mv.Year
		}
		hits = append(hits, hit)
	}
	return &omdb.SearchPage{Hits: hits, TotalResults: len(ids)}, nil
}

func (m *MockProvider) ByTitle(_ context.Context, title string) (*omdb.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "title:"+title)

	if m.FailAll {
		return nil, ErrMockProvider
	}
	for _, id := range m.order {
		if strings.EqualFold(m.movies[id].Title, title) {
			mv := *m.movies[id]
			return &mv, nil
		}
	}
	return nil, fmt.Errorf("%w: movie not found", omdb.ErrNotFound)
}

func (m *MockProvider) ByID(_ context.Context, imdbID string) (*omdb.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "id:"+imdbID)

	if m.FailAll {
		return nil, ErrMockProvider
	}
	mv, ok := m.movies[imdbID]
	if !ok {
		return nil, fmt.Errorf("%w: incorrect imdb id", omdb.ErrNotFound)
	}
	cp := *mv
	return &cp, nil
}
