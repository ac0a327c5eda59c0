// Package index builds and queries the semantic movie index: a flat L2
// vector structure plus a JSON side table that maps vector positions back to
// catalog records.
//
// Build replaces, never merges. The index does no locking of its own; a
// Query running during a Build may observe the old vectors with the new side
// table or the reverse. Callers that rebuild while serving queries should
// serialize rebuilds (see pkg/rebuild).
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/marquee/pkg/embeddings"
	"github.com/papercomputeco/marquee/pkg/eventstream"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/vector"
)

// ErrInvalidTopK is returned by Query and Recommend for a non-positive topK.
var ErrInvalidTopK = errors.New("top_k must be positive")

// Result is one ranked match.
type Result struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	Watched     bool    `json:"watched"`
	Score       float64 `json:"score"`
}

// BuildReport summarizes a Build or Reset.
type BuildReport struct {
	BuildID    string        `json:"build_id,omitempty"`
	Count      int           `json:"count"`
	Dimensions int           `json:"dimensions,omitempty"`
	Skipped    bool          `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// Stats describes what is currently persisted.
type Stats struct {
	Built      bool `json:"built"`
	Entries    int  `json:"entries"`
	Vectors    int  `json:"vectors"`
	Dimensions int  `json:"dimensions"`
}

// Config holds the index's collaborators.
type Config struct {
	Embedder embeddings.Embedder
	Driver   vector.Driver

	// DataDir holds the side table.
	DataDir string

	// Dimensions is the encoder's output size. Required by Reset, which
	// has no vectors to infer it from.
	Dimensions int

	// Publisher is notified after every successful Build and Reset. Optional.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Index is the embedding index.
type Index struct {
	embedder   embeddings.Embedder
	driver     vector.Driver
	sideTable  *sideTable
	dimensions int
	publisher  eventstream.Publisher
	logger     *slog.Logger
}

// New creates an Index. Nothing is read from disk until the first call.
func New(c Config) (*Index, error) {
	if c.Embedder == nil {
		return nil, errors.New("index requires an embedder")
	}
	if c.Driver == nil {
		return nil, errors.New("index requires a vector driver")
	}
	if c.DataDir == "" {
		return nil, errors.New("index requires a data directory")
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Index{
		embedder:   c.Embedder,
		driver:     c.Driver,
		sideTable:  newSideTable(c.DataDir),
		dimensions: c.Dimensions,
		publisher:  c.Publisher,
		logger:     log,
	}, nil
}

// Build embeds every record (title, a space, then description) in one batch
// and replaces the persisted vectors and side table. An empty catalog is a
// no-op that leaves any existing index untouched.
func (ix *Index) Build(ctx context.Context, catalog []movie.Record) (*BuildReport, error) {
	if len(catalog) == 0 {
		ix.logger.Info("empty catalog, leaving existing index untouched")
		return &BuildReport{Skipped: true}, nil
	}

	start := time.Now()

	texts := make([]string, len(catalog))
	for i, r := range catalog {
		texts[i] = r.EmbeddingText()
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding catalog: %w", err)
	}
	if len(vectors) != len(catalog) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", embeddings.ErrEmbedding, len(catalog), len(vectors))
	}

	dims := len(vectors[0])
	if err := ix.driver.Rebuild(ctx, dims, vectors); err != nil {
		return nil, fmt.Errorf("rebuilding vector index: %w", err)
	}

	entries := make(map[string]Entry, len(catalog))
	for i, r := range catalog {
		// Duplicate titles: the later record wins.
		entries[r.Title] = Entry{
			ID:          i,
			Title:       r.Title,
			Description: r.Description,
			Rating:      r.Rating,
			Watched:     r.Watched,
		}
	}
	if err := ix.sideTable.save(entries); err != nil {
		return nil, err
	}

	report := &BuildReport{
		BuildID:    uuid.NewString(),
		Count:      len(catalog),
		Dimensions: dims,
		Duration:   time.Since(start),
	}

	ix.logger.Info("index built",
		"build_id", report.BuildID,
		"count", report.Count,
		"dimensions", dims,
		"duration", report.Duration,
	)
	if len(entries) < len(catalog) {
		ix.logger.Warn("catalog has duplicate titles, later records replaced earlier ones",
			"records", len(catalog),
			"unique_titles", len(entries),
		)
	}

	ix.publish(ctx, report, eventstream.ReasonBuild)
	return report, nil
}

// Reset replaces the index with an empty one of the configured dimensionality.
func (ix *Index) Reset(ctx context.Context) (*BuildReport, error) {
	if ix.dimensions <= 0 {
		return nil, fmt.Errorf("resetting index: %w", vector.ErrInvalidDimensions)
	}

	start := time.Now()
	if err := ix.driver.Rebuild(ctx, ix.dimensions, nil); err != nil {
		return nil, fmt.Errorf("resetting vector index: %w", err)
	}
	if err := ix.sideTable.save(map[string]Entry{}); err != nil {
		return nil, err
	}

	report := &BuildReport{
		BuildID:    uuid.NewString(),
		Dimensions: ix.dimensions,
		Duration:   time.Since(start),
	}

	ix.logger.Info("index reset", "build_id", report.BuildID, "dimensions", ix.dimensions)
	ix.publish(ctx, report, eventstream.ReasonReset)
	return report, nil
}

// Query returns up to topK catalog records nearest to text, best first.
// Score is 1/(1+d) for L2 distance d. Before any Build it returns an empty
// slice. Encoder failures are returned.
func (ix *Index) Query(ctx context.Context, text string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	entries, err := ix.sideTable.load()
	if errors.Is(err, errSideTableMissing) {
		ix.logger.Debug("no side table, index not built")
		return []Result{}, nil
	}
	if err != nil {
		return nil, err
	}

	q, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	neighbors, err := ix.driver.Search(ctx, q, topK)
	if errors.Is(err, vector.ErrNotBuilt) {
		ix.logger.Debug("no vector index, index not built")
		return []Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	results := make([]Result, 0, neighbors.Len())
	for i, pos := range neighbors.Positions {
		if pos < 0 {
			continue
		}
		entry, ok := lookup(entries, pos)
		if !ok {
			continue
		}
		results = append(results, Result{
			Title:       entry.Title,
			Description: entry.Description,
			Rating:      entry.Rating,
			Watched:     entry.Watched,
			Score:       score(neighbors.Distances[i]),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results, nil
}

// Recommend is Query under the name callers use for recommendations.
func (ix *Index) Recommend(ctx context.Context, text string, topK int) ([]Result, error) {
	return ix.Query(ctx, text, topK)
}

// Stats reports the persisted entry and vector counts.
func (ix *Index) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	entries, err := ix.sideTable.load()
	switch {
	case errors.Is(err, errSideTableMissing):
	case err != nil:
		return nil, err
	default:
		s.Entries = len(entries)
	}

	count, dims, err := ix.driver.Count(ctx)
	switch {
	case errors.Is(err, vector.ErrNotBuilt):
	case err != nil:
		return nil, fmt.Errorf("counting vectors: %w", err)
	default:
		s.Vectors, s.Dimensions = count, dims
		s.Built = entries != nil
	}
	return s, nil
}

// Close releases the driver and the embedder.
func (ix *Index) Close() error {
	return errors.Join(ix.driver.Close(), ix.embedder.Close())
}

func (ix *Index) publish(ctx context.Context, report *BuildReport, reason string) {
	if ix.publisher == nil {
		return
	}

	event := eventstream.NewIndexRebuiltEvent(report.BuildID, reason, report.Count, report.Dimensions, report.Duration)
	if err := ix.publisher.PublishIndexRebuilt(ctx, event); err != nil {
		ix.logger.Warn("failed to publish index event", "build_id", report.BuildID, "error", err)
	}
}

// score maps an L2 distance onto (0, 1], reaching 1 only at distance 0.
func score(d float32) float64 {
	return 1 / (1 + float64(d))
}

// lookup scans the side table for the entry stored at pos.
func lookup(entries map[string]Entry, pos int64) (Entry, bool) {
	for _, e := range entries {
		if int64(e.ID) == pos {
			return e, true
		}
	}
	return Entry{}, false
}
