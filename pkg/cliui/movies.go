package cliui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/marquee/pkg/movie"
)

// PrintRecords writes a numbered listing of records with their metadata.
func PrintRecords(w io.Writer, records []movie.Record) {
	for i, r := range records {
		title := r.Title
		if r.Year != "" && r.Year != "Unknown" {
			title += " (" + r.Year + ")"
		}
		fmt.Fprintf(w, "  %s  %s\n",
			RankStyle.Render(fmt.Sprintf("#%d", i+1)),
			ValueStyle.Render(title),
		)

		var meta []string
		if r.Genre != "" {
			meta = append(meta, r.Genre)
		}
		if r.Director != "" && r.Director != "Unknown" {
			meta = append(meta, "dir. "+r.Director)
		}
		if r.Rating > 0 {
			meta = append(meta, fmt.Sprintf("rating %.1f", r.Rating))
		}
		if r.IMDbID != "" {
			meta = append(meta, r.IMDbID)
		}
		if len(meta) > 0 {
			fmt.Fprintf(w, "      %s\n", DimStyle.Render(strings.Join(meta, " · ")))
		}

		if r.Description != "" {
			desc := strings.ReplaceAll(r.Description, "\n", " ")
			fmt.Fprintf(w, "      %s\n", ValueStyle.Render(Truncate(desc, 76)))
		}
		fmt.Fprintln(w)
	}
}

// WriteRecordsJSON writes records as an indented JSON array, the catalog
// file format.
func WriteRecordsJSON(w io.Writer, records []movie.Record) error {
	if records == nil {
		records = []movie.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
