// Package resolver turns a vague description into real movies by expanding it
// into phrases and keywords and searching the metadata provider with them.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
	"github.com/papercomputeco/marquee/pkg/omdb"
)

const (
	maxPhrases     = 3
	phraseResults  = 3
	comboKeywords  = 3
	comboResults   = 3
	maxKeywords    = 5
	keywordResults = 2
	minKeywordLen  = 3

	// maxSearchPages caps pagination in FetchByKeyword.
	maxSearchPages = 5
	searchPageSize = 10
)

// Provider is the metadata lookup the resolver depends on. A "no match"
// answer is an error wrapping omdb.ErrNotFound.
type Provider interface {
	Search(ctx context.Context, query string, page int) (*omdb.SearchPage, error)
	ByTitle(ctx context.Context, title string) (*omdb.Movie, error)
	ByID(ctx context.Context, imdbID string) (*omdb.Movie, error)
}

// Terms are the search artifacts extracted from a phrase.
type Terms struct {
	// Phrases are adjacent token pairs where neither token is a stop word.
	Phrases []string
	// Keywords are non-stop-word tokens longer than two characters.
	Keywords []string
}

// Resolver runs the staged lookup. It holds no per-request state.
type Resolver struct {
	provider Provider
	cfg      Config
	stop     map[string]struct{}
	logger   *slog.Logger
}

// New creates a resolver over provider.
func New(provider Provider, cfg Config, log *slog.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}

	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	return &Resolver{
		provider: provider,
		cfg:      cfg,
		stop:     stop,
		logger:   log,
	}
}

// Extract lower-cases and whitespace-tokenizes phrase, then derives phrases
// and keywords.
func (r *Resolver) Extract(phrase string) Terms {
	words := strings.Fields(strings.ToLower(phrase))

	var t Terms
	for i := 0; i+1 < len(words); i++ {
		if !r.isStop(words[i]) && !r.isStop(words[i+1]) {
			t.Phrases = append(t.Phrases, words[i]+" "+words[i+1])
		}
	}
	for _, w := range words {
		if !r.isStop(w) && utf8.RuneCountInString(w) >= minKeywordLen {
			t.Keywords = append(t.Keywords, w)
		}
	}
	return t
}

func (r *Resolver) isStop(w string) bool {
	_, ok := r.stop[w]
	return ok
}

// preallocCap bounds up-front slice capacity; count comes from callers.
const preallocCap = 64

// collector accumulates records, dropping repeat IMDb ids and anything past
// count. Records without an id are always kept.
type collector struct {
	count   int
	seen    map[string]struct{}
	records []movie.Record
}

func newCollector(count int) *collector {
	return &collector{
		count:   count,
		seen:    make(map[string]struct{}),
		records: make([]movie.Record, 0, min(count, preallocCap)),
	}
}

func (c *collector) full() bool {
	return len(c.records) >= c.count
}

func (c *collector) add(recs ...movie.Record) {
	for _, rec := range recs {
		if c.full() {
			return
		}
		if rec.IMDbID != "" {
			if _, dup := c.seen[rec.IMDbID]; dup {
				continue
			}
			c.seen[rec.IMDbID] = struct{}{}
		}
		c.records = append(c.records, rec)
	}
}

// Resolve returns up to count movies matching a vague description. Provider
// failures are logged and skipped, so an unreachable provider yields an
// empty slice. The only error returned is ctx's.
func (r *Resolver) Resolve(ctx context.Context, phrase string, count int) ([]movie.Record, error) {
	if count <= 0 {
		return []movie.Record{}, nil
	}

	terms := r.Extract(phrase)
	r.logger.Debug("extracted search terms",
		"phrase", phrase,
		"keywords", terms.Keywords,
		"phrases", terms.Phrases,
	)

	c := newCollector(count)
	lower := strings.ToLower(phrase)

	stages := []struct {
		name string
		run  func()
	}{
		{"pattern", func() {
			for _, p := range r.cfg.Patterns {
				if c.full() {
					return
				}
				if matchesAny(lower, p.Keywords) {
					if rec, ok := r.lookupTitle(ctx, p.Title); ok {
						c.add(rec)
					}
				}
			}
		}},
		{"phrase", func() {
			for _, p := range firstN(terms.Phrases, maxPhrases) {
				if c.full() {
					return
				}
				c.add(r.FetchByKeyword(ctx, p, phraseResults)...)
			}
		}},
		{"keyword combination", func() {
			if len(terms.Keywords) < 2 {
				return
			}
			combo := strings.Join(firstN(terms.Keywords, comboKeywords), " ")
			c.add(r.FetchByKeyword(ctx, combo, comboResults)...)
		}},
		{"keyword", func() {
			for _, k := range firstN(terms.Keywords, maxKeywords) {
				if c.full() {
					return
				}
				c.add(r.FetchByKeyword(ctx, k, keywordResults)...)
			}
		}},
		{"fallback", func() {
			for _, title := range r.cfg.FallbackTitles {
				if c.full() {
					return
				}
				if rec, ok := r.lookupTitle(ctx, title); ok {
					c.add(rec)
				}
			}
		}},
	}

	for _, stage := range stages {
		if c.full() {
			break
		}
		if err := ctx.Err(); err != nil {
			return c.records, err
		}

		before := len(c.records)
		stage.run()
		r.logger.Debug("resolver stage complete",
			"stage", stage.name,
			"added", len(c.records)-before,
			"total", len(c.records),
		)
	}

	return c.records, nil
}

// FetchByKeyword searches the provider for keyword, paging up to five pages
// until count matches are resolved to full details.
func (r *Resolver) FetchByKeyword(ctx context.Context, keyword string, count int) []movie.Record {
	out := make([]movie.Record, 0, min(count, preallocCap))

	for page := 1; page <= maxSearchPages && len(out) < count; page++ {
		res, err := r.provider.Search(ctx, keyword, page)
		if err != nil {
			r.logFailure("search", keyword, err)
			break
		}
		if len(res.Hits) == 0 {
			break
		}

		for _, hit := range res.Hits {
			if len(out) >= count {
				break
			}
			if hit.IMDbID == "" {
				continue
			}
			m, err := r.provider.ByID(ctx, hit.IMDbID)
			if err != nil {
				r.logFailure("id lookup", hit.IMDbID, err)
				continue
			}
			out = append(out, omdb.Format(m))
		}

		if res.TotalResults > 0 && page*searchPageSize >= res.TotalResults {
			break
		}
	}

	return out
}

// Popular resolves every fallback title, skipping failures.
func (r *Resolver) Popular(ctx context.Context) []movie.Record {
	out := make([]movie.Record, 0, len(r.cfg.FallbackTitles))
	for _, title := range r.cfg.FallbackTitles {
		if rec, ok := r.lookupTitle(ctx, title); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Resolver) lookupTitle(ctx context.Context, title string) (movie.Record, bool) {
	m, err := r.provider.ByTitle(ctx, title)
	if err != nil {
		r.logFailure("title lookup", title, err)
		return movie.Record{}, false
	}
	return omdb.Format(m), true
}

func (r *Resolver) logFailure(op, subject string, err error) {
	if errors.Is(err, omdb.ErrNotFound) {
		r.logger.Debug("omdb returned no match", "op", op, "subject", subject)
		return
	}
	r.logger.Warn("omdb call failed", "op", op, "subject", subject, "error", err)
}

func matchesAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
