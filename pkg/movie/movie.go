// Package movie defines the catalog record shared by the index, the resolver,
// and the API layer, along with the JSON catalog file format.
package movie

import (
	"math"
	"strconv"
	"strings"
)

// Record is one movie in a user's catalog or returned by the metadata provider.
// Title is the catalog key.
type Record struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	Watched     bool    `json:"watched"`

	Year     string `json:"year,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Director string `json:"director,omitempty"`
	Actors   string `json:"actors,omitempty"`
	IMDbID   string `json:"imdb_id,omitempty"`
	Poster   string `json:"poster,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// EmbeddingText is the unit of text embedded for a record: title, a single
// space, then description.
func (r Record) EmbeddingText() string {
	return r.Title + " " + r.Description
}

// ParseRating converts a provider rating such as "8.6" into a float.
// "N/A", empty, non-finite, and otherwise unparseable values become 0.
func ParseRating(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizePoster maps the provider's "N/A" placeholder to an empty string.
func NormalizePoster(s string) string {
	if s == "N/A" {
		return ""
	}
	return s
}
