// Package wiki implements the knowledge subsystem: an on-disk cache of
// fetched wiki pages, a scheduled fetcher, HTML parsers producing typed
// records, and a manager that publishes immutable snapshots to readers.
package wiki

import "time"

// Kind identifies a parsed-record family.
type Kind string

const (
	KindGenre     Kind = "genre"
	KindMetaTag   Kind = "metatag"
	KindTechnique Kind = "technique"
)

// Genre is a musical genre extracted from a wiki page.
type Genre struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Subgenres          []string  `json:"subgenres"`
	Characteristics    []string  `json:"characteristics"`
	TypicalInstruments []string  `json:"typical_instruments"`
	MoodAssociations   []string  `json:"mood_associations"`
	SourceURL          string    `json:"source_url"`
	FetchedAt          time.Time `json:"fetched_at"`
	ConfidenceScore    float64   `json:"confidence_score"`
}

// MetaTag is a prompt meta tag (e.g. [verse], [sad intro]) with usage notes.
type MetaTag struct {
	Tag              string    `json:"tag"`
	Category         string    `json:"category"` // structural | emotional | vocal | instrumental | effect | other
	Description      string    `json:"description"`
	UsageExamples    []string  `json:"usage_examples"`
	CompatibleGenres []string  `json:"compatible_genres"`
	SourceURL        string    `json:"source_url"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Technique is a prompt-writing or production technique.
type Technique struct {
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	TechniqueType       string    `json:"technique_type"` // prompt_structure | vocal_style | production | lyrics | other
	Examples            []string  `json:"examples"`
	ApplicableScenarios []string  `json:"applicable_scenarios"`
	SourceURL           string    `json:"source_url"`
	FetchedAt           time.Time `json:"fetched_at"`
}

// RefreshError records one failed URL during a refresh cycle.
type RefreshError struct {
	URL     string `json:"url"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// RefreshResult summarizes a refresh cycle.
type RefreshResult struct {
	Downloaded int            `json:"downloaded"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"` // fresh pages that needed no fetch
	Errors     []RefreshError `json:"errors"`
}

// Snapshot is an immutable view of the parsed cache. Readers obtain one
// pointer and use it for an entire request; refreshes publish a replacement
// atomically and never mutate a published snapshot.
type Snapshot struct {
	Genres     []Genre
	MetaTags   []MetaTag
	Techniques []Technique

	// SourceURLs maps each kind to the pages its records came from,
	// deduplicated in configuration order.
	SourceURLs map[Kind][]string

	// BuiltAt is when this snapshot was assembled.
	BuiltAt time.Time
}

// Empty reports whether the snapshot holds no records of any kind.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Genres) == 0 && len(s.MetaTags) == 0 && len(s.Techniques) == 0)
}

// GenreNamed returns the genre with the given name (case-insensitive fold is
// the caller's concern; this is an exact match) or nil.
func (s *Snapshot) GenreNamed(name string) *Genre {
	for i := range s.Genres {
		if s.Genres[i].Name == name {
			return &s.Genres[i]
		}
	}
	return nil
}
