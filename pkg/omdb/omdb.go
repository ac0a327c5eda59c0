// Package omdb is a client for the OMDb movie metadata API.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/papercomputeco/marquee/pkg/logger"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "http://www.omdbapi.com/"

var (
	// ErrNotFound is returned when OMDb answers with Response "False", which
	// covers unknown titles and ids as well as searches with no hits.
	ErrNotFound = errors.New("omdb: no match")

	// ErrMissingAPIKey is returned by NewClient when no API key is configured.
	ErrMissingAPIKey = errors.New("omdb: api key is required")

	// ErrAPI is returned for non-200 responses, e.g. an invalid key or an
	// exhausted daily limit.
	ErrAPI = errors.New("omdb: request failed")
)

// SearchHit is one entry of a search page.
type SearchHit struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// SearchPage is one page (up to 10 hits) of search results.
type SearchPage struct {
	Hits         []SearchHit
	TotalResults int
}

// Movie is the full detail record returned by title and id lookups.
type Movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Type       string `json:"Type"`
}

type envelope struct {
	Response     string      `json:"Response"`
	Error        string      `json:"Error"`
	Search       []SearchHit `json:"Search"`
	TotalResults string      `json:"totalResults"`
}

// Config holds configuration for the OMDb client.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the OMDb HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an OMDb client.
func NewClient(c Config) (*Client, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid omdb base url %q: %w", baseURL, err)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		apiKey:     c.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}, nil
}

// Search runs a movie-only keyword search. Pages start at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchPage, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("type", "movie")

	var env envelope
	if err := c.get(ctx, params, &env, nil); err != nil {
		return nil, fmt.Errorf("searching %q page %d: %w", query, page, err)
	}

	total, _ := strconv.Atoi(env.TotalResults)
	return &SearchPage{Hits: env.Search, TotalResults: total}, nil
}

// ByTitle fetches full details for the best title match.
func (c *Client) ByTitle(ctx context.Context, title string) (*Movie, error) {
	params := url.Values{}
	params.Set("t", title)
	params.Set("plot", "full")

	m := &Movie{}
	if err := c.get(ctx, params, nil, m); err != nil {
		return nil, fmt.Errorf("looking up title %q: %w", title, err)
	}
	return m, nil
}

// ByID fetches full details for an IMDb id such as "tt0111161".
func (c *Client) ByID(ctx context.Context, imdbID string) (*Movie, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	m := &Movie{}
	if err := c.get(ctx, params, nil, m); err != nil {
		return nil, fmt.Errorf("looking up id %s: %w", imdbID, err)
	}
	return m, nil
}

// get issues a request and decodes the body into env and, when non-nil, into
// detail. OMDb mixes the envelope and the payload in one object.
func (c *Client) get(ctx context.Context, params url.Values, env *envelope, detail *Movie) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("omdb request",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if env == nil {
		env = &envelope{}
	}
	decodeErr := json.Unmarshal(body, env)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && env.Error != "" {
			return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, env.Error)
		}
		return fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}

	if env.Response != "True" {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}

	if detail != nil {
		if err := json.Unmarshal(body, detail); err != nil {
			return fmt.Errorf("decoding movie: %w", err)
		}
	}
	return nil
}
