package metadata

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/metadata/imdb"
	"github.com/requesterrr/requesterrr/internal/metadata/tmdb"
)

const (
	minQueryLength = 2
	maxSearchLimit = 40
)

// Catalog is the primary structured lookup source.
type Catalog interface {
	SearchMulti(ctx context.Context, query string, page int) ([]tmdb.MultiResult, error)
	SearchByKind(ctx context.Context, kind tmdb.Kind, title string, year int) (*tmdb.MultiResult, error)
	GetDetails(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Details, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResult, error)
	PosterURL(posterPath string) string
}

// SuggestionSource is the secondary text-only lookup source. A failure
// here never fails a search.
type SuggestionSource interface {
	SearchSuggestions(ctx context.Context, query string) ([]imdb.Suggestion, error)
}

// Resolver merges search hits from both providers into a ranked
// candidate list and resolves user selections to canonical records.
type Resolver struct {
	catalog     Catalog
	suggestions SuggestionSource
	logger      zerolog.Logger
}

// NewResolver creates a new metadata resolver.
func NewResolver(catalog Catalog, suggestions SuggestionSource, logger zerolog.Logger) *Resolver {
	return &Resolver{
		catalog:     catalog,
		suggestions: suggestions,
		logger:      logger.With().Str("component", "resolver").Logger(),
	}
}

// Search queries both providers, merges by title+year, and ranks by
// source agreement. A query shorter than two characters returns empty
// results without calling either provider. A catalog failure fails the
// search; a suggestion-source failure degrades to catalog-only results.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	trimmed := trimQuery(query)
	if len([]rune(trimmed)) < minQueryLength {
		return []Candidate{}, nil
	}

	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hits, err := r.catalog.SearchMulti(ctx, trimmed, 1)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	byKey := make(map[string]int)

	for _, hit := range hits {
		kind, ok := kindFromTMDB(hit.MediaType)
		if !ok {
			continue
		}
		title := hit.DisplayTitle()
		if title == "" || hit.ID <= 0 {
			continue
		}

		year := parseYear(hit.Date())
		tmdbID := hit.ID
		candidates = append(candidates, Candidate{
			ID:        candidateID(kind, tmdbID),
			MediaKind: kind,
			Title:     title,
			Year:      year,
			PosterURL: r.catalog.PosterURL(hit.PosterPath),
			Overview:  hit.Overview,
			TMDBID:    &tmdbID,
			Sources:   []Source{SourceTMDB},
		})
		byKey[mergeKey(title, year)] = len(candidates) - 1
	}

	suggestions, err := r.suggestions.SearchSuggestions(ctx, trimmed)
	if err != nil {
		// Secondary source is best-effort; keep the catalog results.
		r.logger.Warn().Err(err).Str("query", trimmed).Msg("Suggestion source failed, continuing with catalog results only")
		suggestions = nil
	}

	for _, s := range suggestions {
		if idx, ok := byKey[mergeKey(s.Title, s.Year)]; ok {
			existing := &candidates[idx]
			if existing.IMDBID == "" {
				existing.IMDBID = s.ID
			}
			if !existing.HasSource(SourceIMDB) {
				existing.Sources = append(existing.Sources, SourceIMDB)
			}
			continue
		}

		if s.Title == "" || s.ID == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:        "imdb:" + s.ID,
			MediaKind: MediaKind(s.Kind),
			Title:     s.Title,
			Year:      s.Year,
			PosterURL: s.PosterURL,
			IMDBID:    s.ID,
			Sources:   []Source{SourceIMDB},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].Sources) != len(candidates[j].Sources) {
			return len(candidates[i].Sources) > len(candidates[j].Sources)
		}
		return candidates[i].Title < candidates[j].Title
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	r.logger.Debug().
		Str("query", trimmed).
		Int("candidates", len(candidates)).
		Msg("Search completed")

	return candidates, nil
}

// ResolveSelection turns a partial user selection into one canonical
// record. Resolution order: explicit TMDB id, then IMDb-id lookup, then
// title search; the first id that sticks wins.
func (r *Resolver) ResolveSelection(ctx context.Context, sel Selection) (*CanonicalRecord, error) {
	kind := MediaKind(trimLower(sel.MediaKind))
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid media type %q", ErrInvalidInput, sel.MediaKind)
	}

	tmdbID := sel.TMDBID
	imdbID := trimQuery(sel.IMDBID)
	title := trimQuery(sel.Title)

	if tmdbID <= 0 && imdbID != "" {
		if found, err := r.catalog.FindByIMDbID(ctx, imdbID); err == nil {
			tmdbID = found.ID
			if adopted, ok := kindFromTMDB(string(found.Kind)); ok {
				kind = adopted
			}
		} else {
			r.logger.Debug().Err(err).Str("imdbId", imdbID).Msg("IMDb id lookup missed")
		}
	}

	if tmdbID <= 0 && title != "" {
		if hit, err := r.catalog.SearchByKind(ctx, tmdbKind(kind), title, sel.Year); err == nil {
			tmdbID = hit.ID
		} else {
			r.logger.Debug().Err(err).Str("title", title).Msg("Title search missed")
		}
	}

	if tmdbID <= 0 {
		return nil, fmt.Errorf("%w: unable to resolve this title to the catalog", ErrNotFound)
	}

	details, err := r.catalog.GetDetails(ctx, tmdbKind(kind), tmdbID)
	if err != nil {
		return nil, fmt.Errorf("details fetch failed: %w", err)
	}

	resolvedTitle := details.DisplayTitle()
	if resolvedTitle == "" {
		resolvedTitle = title
	}

	year := parseYear(details.Date())
	if year == nil && sel.Year > 0 {
		y := sel.Year
		year = &y
	}

	resolvedIMDB := details.ExternalIDs.IMDBID
	if resolvedIMDB == "" {
		resolvedIMDB = imdbID
	}

	var tvdbID *int
	if details.ExternalIDs.TVDBID > 0 {
		id := details.ExternalIDs.TVDBID
		tvdbID = &id
	}

	record := &CanonicalRecord{
		MediaKind: kind,
		Title:     resolvedTitle,
		Year:      year,
		TMDBID:    tmdbID,
		IMDBID:    resolvedIMDB,
		TVDBID:    tvdbID,
		PosterURL: r.catalog.PosterURL(details.PosterPath),
		Overview:  details.Overview,
		Seasons:   []SeasonInfo{},
	}
	if kind == KindSeries {
		record.Seasons = normalizeSeasons(details.Seasons)
	}

	return record, nil
}

// normalizeSeasons drops specials and malformed entries, defaults names
// and episode counts, and orders ascending by season number.
func normalizeSeasons(raw []tmdb.Season) []SeasonInfo {
	seasons := make([]SeasonInfo, 0, len(raw))
	for _, s := range raw {
		if s.SeasonNumber <= 0 {
			continue
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Season %d", s.SeasonNumber)
		}
		episodes := s.EpisodeCount
		if episodes < 0 {
			episodes = 0
		}
		seasons = append(seasons, SeasonInfo{
			SeasonNumber: s.SeasonNumber,
			Name:         name,
			EpisodeCount: episodes,
		})
	}
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})
	return seasons
}

func kindFromTMDB(mediaType string) (MediaKind, bool) {
	switch mediaType {
	case "movie":
		return KindMovie, true
	case "tv":
		return KindSeries, true
	default:
		return "", false
	}
}

func tmdbKind(kind MediaKind) tmdb.Kind {
	if kind == KindSeries {
		return tmdb.KindTV
	}
	return tmdb.KindMovie
}
