// Package metadata implements the search-merge-resolve engine over the
// two lookup providers.
package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput marks malformed or missing caller data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a resolution that produced no catalog match.
	ErrNotFound = errors.New("not found")
)

// MediaKind is the domain media type.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// IsValid returns true for the two media kinds the resolver handles.
func (k MediaKind) IsValid() bool {
	return k == KindMovie || k == KindSeries
}

// Source tags which provider contributed a candidate.
type Source string

const (
	SourceTMDB Source = "tmdb"
	SourceIMDB Source = "imdb"
)

// Candidate is one merged search hit. A candidate carrying both a TMDB
// id and an IMDb id means the cross-provider merge succeeded.
type Candidate struct {
	ID        string    `json:"id"`
	MediaKind MediaKind `json:"mediaKind"`
	Title     string    `json:"title"`
	Year      *int      `json:"year,omitempty"`
	PosterURL string    `json:"poster,omitempty"`
	Overview  string    `json:"overview"`
	TMDBID    *int      `json:"tmdbId,omitempty"`
	IMDBID    string    `json:"imdbId,omitempty"`
	Sources   []Source  `json:"sources"`
}

// HasSource reports whether a provider already contributed to this
// candidate.
func (c *Candidate) HasSource(s Source) bool {
	for _, src := range c.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// SeasonInfo is one normalized season of a series.
type SeasonInfo struct {
	SeasonNumber int    `json:"seasonNumber"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
}

// CanonicalRecord is the fully-resolved representation of a chosen
// media item. TMDBID is always set and positive; TVDBID is present only
// when the catalog knows the external series mapping.
type CanonicalRecord struct {
	MediaKind MediaKind    `json:"mediaKind"`
	Title     string       `json:"title"`
	Year      *int         `json:"year,omitempty"`
	TMDBID    int          `json:"tmdbId"`
	IMDBID    string       `json:"imdbId,omitempty"`
	TVDBID    *int         `json:"tvdbId,omitempty"`
	PosterURL string       `json:"poster,omitempty"`
	Overview  string       `json:"overview"`
	Seasons   []SeasonInfo `json:"seasons"`
}

// Selection is the partial, possibly ambiguous user selection fed to
// ResolveSelection. Zero ids and years mean absent.
type Selection struct {
	MediaKind string `json:"mediaKind"`
	TMDBID    int    `json:"tmdbId"`
	IMDBID    string `json:"imdbId"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
}

// mergeKey builds the dedup key for cross-provider matching: lowercased
// title with internal whitespace collapsed, joined with the year (0
// when absent).
func mergeKey(title string, year *int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), " "))
	y := 0
	if year != nil {
		y = *year
	}
	return normalized + "|" + strconv.Itoa(y)
}

// parseYear extracts a release year from the leading 4 digits of a
// provider date string ("2021-09-15" → 2021).
func parseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

func candidateID(kind MediaKind, tmdbID int) string {
	return fmt.Sprintf("%s:%d", kind, tmdbID)
}

func trimQuery(s string) string {
	return strings.TrimSpace(s)
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
