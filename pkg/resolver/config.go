package resolver

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Pattern maps a set of trigger keywords to a canonical title. A pattern
// fires when any keyword is a substring of the lower-cased input.
type Pattern struct {
	Keywords []string `toml:"keywords"`
	Title    string   `toml:"title"`
}

// Config is the static data the resolver works from.
type Config struct {
	StopWords      []string  `toml:"stop_words"`
	Patterns       []Pattern `toml:"patterns"`
	FallbackTitles []string  `toml:"fallback_titles"`
}

// DefaultConfig returns the built-in stop words, patterns, and fallback titles.
func DefaultConfig() Config {
	return Config{
		StopWords: []string{
			"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for", "with",
			"about", "from", "by", "is", "are", "was", "were", "be", "been", "being",
			"have", "has", "had", "do", "does", "did", "will", "would", "should", "can",
			"could", "may", "might", "must", "that", "which", "who", "whom", "whose",
			"what", "where", "when", "why", "how", "movie", "film", "watch", "see", "like",
		},
		Patterns: []Pattern{
			{Keywords: []string{"boy", "boat", "tiger"}, Title: "Life of Pi"},
			{Keywords: []string{"dream", "inception", "dreams", "within"}, Title: "Inception"},
			{Keywords: []string{"space", "interstellar", "wormhole"}, Title: "Interstellar"},
			{Keywords: []string{"prison", "escape", "shawshank"}, Title: "The Shawshank Redemption"},
			{Keywords: []string{"mafia", "godfather", "family", "crime"}, Title: "The Godfather"},
			{Keywords: []string{"batman", "joker", "dark", "knight"}, Title: "The Dark Knight"},
			{Keywords: []string{"matrix", "neo", "reality", "simulation"}, Title: "The Matrix"},
			{Keywords: []string{"club", "fight", "tyler", "durden"}, Title: "Fight Club"},
			{Keywords: []string{"time", "travel", "future", "back"}, Title: "Back to the Future"},
			{Keywords: []string{"dinosaur", "jurassic", "park"}, Title: "Jurassic Park"},
		},
		FallbackTitles: []string{
			"The Shawshank Redemption",
			"The Godfather",
			"The Dark Knight",
			"Pulp Fiction",
			"Inception",
			"Fight Club",
			"Forrest Gump",
			"The Matrix",
			"Goodfellas",
			"Interstellar",
		},
	}
}

// LoadConfigFile reads a TOML file over DefaultConfig. Tables absent from
// the file keep their defaults; present ones replace them entirely.
//
//	stop_words = ["a", "the"]
//	fallback_titles = ["Alien"]
//
//	[[patterns]]
//	keywords = ["xenomorph", "nostromo"]
//	title = "Alien"
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading resolver config: %w", err)
	}

	var file Config
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return Config{}, fmt.Errorf("parsing resolver config %s: %w", path, err)
	}
	if md.IsDefined("stop_words") {
		cfg.StopWords = file.StopWords
	}
	if md.IsDefined("patterns") {
		cfg.Patterns = file.Patterns
	}
	if md.IsDefined("fallback_titles") {
		cfg.FallbackTitles = file.FallbackTitles
	}

	for i, p := range cfg.Patterns {
		if p.Title == "" || len(p.Keywords) == 0 {
			return Config{}, fmt.Errorf("resolver config %s: pattern %d needs a title and keywords", path, i)
		}
	}
	return cfg, nil
}
