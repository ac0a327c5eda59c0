package omdb

import "github.com/papercomputeco/marquee/pkg/movie"

const (
	unknownTitle       = "Unknown Title"
	unknownDescription = "No description available."
	unknown            = "Unknown"
)

// Format converts an OMDb detail record into a catalog record. Missing
// fields get placeholders; the rating and poster are normalized.
func Format(m *Movie) movie.Record {
	return movie.Record{
		Title:       orDefault(m.Title, unknownTitle),
		Description: orDefault(m.Plot, unknownDescription),
		Rating:      movie.ParseRating(m.IMDbRating),
		Watched:     false,
		Year:        orDefault(m.Year, unknown),
		Genre:       m.Genre,
		Director:    orDefault(m.Director, unknown),
		Actors:      m.Actors,
		IMDbID:      m.IMDbID,
		Poster:      movie.NormalizePoster(m.Poster),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
