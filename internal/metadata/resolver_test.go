package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/requesterrr/requesterrr/internal/metadata/imdb"
	"github.com/requesterrr/requesterrr/internal/metadata/tmdb"
	"github.com/requesterrr/requesterrr/internal/testutil"
)

type fakeCatalog struct {
	multiResults []tmdb.MultiResult
	multiErr     error
	kindResult   *tmdb.MultiResult
	kindErr      error
	details      *tmdb.Details
	detailsErr   error
	findResult   *tmdb.FindResult
	findErr      error

	multiCalls int
	kindCalls  int
	findCalls  int
}

func (f *fakeCatalog) SearchMulti(ctx context.Context, query string, page int) ([]tmdb.MultiResult, error) {
	f.multiCalls++
	return f.multiResults, f.multiErr
}

func (f *fakeCatalog) SearchByKind(ctx context.Context, kind tmdb.Kind, title string, year int) (*tmdb.MultiResult, error) {
	f.kindCalls++
	return f.kindResult, f.kindErr
}

func (f *fakeCatalog) GetDetails(ctx context.Context, kind tmdb.Kind, id int) (*tmdb.Details, error) {
	return f.details, f.detailsErr
}

func (f *fakeCatalog) FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.FindResult, error) {
	f.findCalls++
	return f.findResult, f.findErr
}

func (f *fakeCatalog) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return "https://img.test/w342" + posterPath
}

type fakeSuggestions struct {
	results []imdb.Suggestion
	err     error
	calls   int
}

func (f *fakeSuggestions) SearchSuggestions(ctx context.Context, query string) ([]imdb.Suggestion, error) {
	f.calls++
	return f.results, f.err
}

func newResolver(catalog *fakeCatalog, suggestions *fakeSuggestions) *Resolver {
	return NewResolver(catalog, suggestions, testutil.NopLogger())
}

func TestResolver_Search_ShortQuery(t *testing.T) {
	catalog := &fakeCatalog{}
	suggestions := &fakeSuggestions{}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "  d ", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}
	if catalog.multiCalls != 0 || suggestions.calls != 0 {
		t.Error("short query must not call any provider")
	}
}

func TestResolver_Search_MergesBySameKey(t *testing.T) {
	year := 2021
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 438631, MediaType: "movie", Title: "Dune", ReleaseDate: "2021-09-15", PosterPath: "/dune.jpg", Overview: "Spice."},
		},
	}
	suggestions := &fakeSuggestions{
		results: []imdb.Suggestion{
			{ID: "tt1160419", Title: " Dune ", Year: &year, Kind: "movie"},
		},
	}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "Dune", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1 merged candidate", len(results))
	}

	c := results[0]
	if c.TMDBID == nil || *c.TMDBID != 438631 {
		t.Errorf("TMDBID = %v, want 438631", c.TMDBID)
	}
	if c.IMDBID != "tt1160419" {
		t.Errorf("IMDBID = %q, want tt1160419 (backfilled from suggestion)", c.IMDBID)
	}
	if len(c.Sources) != 2 || !c.HasSource(SourceTMDB) || !c.HasSource(SourceIMDB) {
		t.Errorf("Sources = %v, want both providers", c.Sources)
	}
	if c.PosterURL != "https://img.test/w342/dune.jpg" {
		t.Errorf("PosterURL = %q", c.PosterURL)
	}
}

func TestResolver_Search_MergeNeverOverwrites(t *testing.T) {
	year := 1999
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 603, MediaType: "movie", Title: "The Matrix", ReleaseDate: "1999-03-31"},
		},
	}
	suggestions := &fakeSuggestions{
		results: []imdb.Suggestion{
			{ID: "tt0133093", Title: "The Matrix", Year: &year, Kind: "movie"},
			{ID: "tt9999999", Title: "the  matrix", Year: &year, Kind: "movie"},
		},
	}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "matrix", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1 (whitespace/case-insensitive key)", len(results))
	}

	c := results[0]
	if *c.TMDBID != 603 {
		t.Errorf("TMDBID = %d, want 603 (never overwritten)", *c.TMDBID)
	}
	if c.IMDBID != "tt0133093" {
		t.Errorf("IMDBID = %q, want first backfill tt0133093 kept", c.IMDBID)
	}
	if len(c.Sources) != 2 {
		t.Errorf("Sources = %v, want exactly one imdb tag after double merge", c.Sources)
	}
}

func TestResolver_Search_Ranking(t *testing.T) {
	y := 2000
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 1, MediaType: "movie", Title: "Delta", ReleaseDate: "2000-01-01"},
			{ID: 2, MediaType: "movie", Title: "Alpha", ReleaseDate: "2000-01-01"},
			{ID: 3, MediaType: "movie", Title: "Charlie", ReleaseDate: "2000-01-01"},
			{ID: 4, MediaType: "movie", Title: "Bravo", ReleaseDate: "2000-01-01"},
		},
	}
	suggestions := &fakeSuggestions{
		results: []imdb.Suggestion{
			{ID: "tt1", Title: "Delta", Year: &y, Kind: "movie"},
			{ID: "tt3", Title: "Charlie", Year: &y, Kind: "movie"},
		},
	}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "phonetic", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	var got []string
	for _, c := range results {
		got = append(got, c.Title)
	}
	want := []string{"Charlie", "Delta", "Alpha", "Bravo"}
	if len(got) != len(want) {
		t.Fatalf("Search() returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d = %q, want %q (two-source group first, each group alphabetical)", i, got[i], want[i])
		}
	}
}

func TestResolver_Search_SecondaryOnlyCandidate(t *testing.T) {
	y := 2019
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 10, MediaType: "movie", Title: "Known Film", ReleaseDate: "2019-01-01"},
		},
	}
	suggestions := &fakeSuggestions{
		results: []imdb.Suggestion{
			{ID: "tt7700000", Title: "Obscure Short", Year: &y, Kind: "movie"},
			{ID: "", Title: "No Id", Year: &y, Kind: "movie"},
		},
	}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "film", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2 (id-less suggestion dropped)", len(results))
	}

	var secondary *Candidate
	for i := range results {
		if results[i].IMDBID == "tt7700000" {
			secondary = &results[i]
		}
	}
	if secondary == nil {
		t.Fatal("secondary-only candidate missing")
	}
	if secondary.TMDBID != nil {
		t.Errorf("secondary-only TMDBID = %v, want nil", secondary.TMDBID)
	}
	if secondary.ID != "imdb:tt7700000" {
		t.Errorf("secondary-only ID = %q", secondary.ID)
	}
}

func TestResolver_Search_SuggestionFailureTolerated(t *testing.T) {
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 438631, MediaType: "movie", Title: "Dune", ReleaseDate: "2021-09-15"},
		},
	}
	suggestions := &fakeSuggestions{err: errors.New("suggestion endpoint down")}
	r := newResolver(catalog, suggestions)

	results, err := r.Search(context.Background(), "Dune", 18)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil on secondary failure", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() returned %d results, want 1 catalog-only candidate", len(results))
	}
}

func TestResolver_Search_CatalogFailureFatal(t *testing.T) {
	catalog := &fakeCatalog{multiErr: errors.New("tmdb down")}
	r := newResolver(catalog, &fakeSuggestions{})

	if _, err := r.Search(context.Background(), "Dune", 18); err == nil {
		t.Error("Search() error = nil, want error on catalog failure")
	}
}

func TestResolver_Search_FiltersNonMediaHits(t *testing.T) {
	catalog := &fakeCatalog{
		multiResults: []tmdb.MultiResult{
			{ID: 1, MediaType: "person", Name: "Timothée Chalamet"},
			{ID: 0, MediaType: "movie", Title: "Zero Id"},
			{ID: 2, MediaType: "movie"},
			{ID: 3, MediaType: "tv", Name: "Dune: Prophecy", FirstAirDate: "2024-11-17"},
		},
	}
	r := newResolver(catalog, &fakeSuggestions{})

	results, err := r.Search(context.Background(), "dune", 18)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want only the valid tv hit", len(results))
	}
	if results[0].MediaKind != KindSeries {
		t.Errorf("MediaKind = %q, want series", results[0].MediaKind)
	}
}

func TestResolver_Search_LimitClamp(t *testing.T) {
	var hits []tmdb.MultiResult
	for i := 1; i <= 50; i++ {
		hits = append(hits, tmdb.MultiResult{ID: i, MediaType: "movie", Title: "Movie", ReleaseDate: "2000-01-01"})
	}
	catalog := &fakeCatalog{multiResults: hits}
	r := newResolver(catalog, &fakeSuggestions{})

	results, err := r.Search(context.Background(), "movie", 100)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != maxSearchLimit {
		t.Errorf("Search(limit=100) returned %d, want clamp to %d", len(results), maxSearchLimit)
	}

	results, err = r.Search(context.Background(), "movie", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search(limit=0) returned %d, want clamp to 1", len(results))
	}
}

func TestResolver_ResolveSelection_InvalidKind(t *testing.T) {
	r := newResolver(&fakeCatalog{}, &fakeSuggestions{})

	_, err := r.ResolveSelection(context.Background(), Selection{MediaKind: "podcast"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ResolveSelection() error = %v, want ErrInvalidInput", err)
	}
}

func TestResolver_ResolveSelection_ByTMDBID(t *testing.T) {
	catalog := &fakeCatalog{
		details: &tmdb.Details{
			ID:          438631,
			Title:       "Dune",
			ReleaseDate: "2021-09-15",
			PosterPath:  "/dune.jpg",
			Overview:    "Spice.",
			ExternalIDs: tmdb.ExternalIDs{IMDBID: "tt1160419"},
		},
	}
	r := newResolver(catalog, &fakeSuggestions{})

	record, err := r.ResolveSelection(context.Background(), Selection{MediaKind: "movie", TMDBID: 438631})
	if err != nil {
		t.Fatalf("ResolveSelection() error = %v", err)
	}
	if record.MediaKind != KindMovie || record.TMDBID != 438631 {
		t.Errorf("record = %+v", record)
	}
	if record.Year == nil || *record.Year != 2021 {
		t.Errorf("Year = %v, want 2021", record.Year)
	}
	if record.IMDBID != "tt1160419" {
		t.Errorf("IMDBID = %q", record.IMDBID)
	}
	if record.TVDBID != nil {
		t.Errorf("TVDBID = %v, want nil for a movie", record.TVDBID)
	}
	if len(record.Seasons) != 0 {
		t.Errorf("Seasons = %v, want empty for a movie", record.Seasons)
	}
	if catalog.findCalls != 0 || catalog.kindCalls != 0 {
		t.Error("explicit TMDB id must skip both fallback lookups")
	}
}

func TestResolver_ResolveSelection_ByIMDbID_AdoptsKind(t *testing.T) {
	catalog := &fakeCatalog{
		findResult: &tmdb.FindResult{ID: 1399, Kind: tmdb.KindTV},
		details: &tmdb.Details{
			ID:           1399,
			Name:         "Game of Thrones",
			FirstAirDate: "2011-04-17",
			ExternalIDs:  tmdb.ExternalIDs{IMDBID: "tt0944947", TVDBID: 121361},
			Seasons: []tmdb.Season{
				{SeasonNumber: 2, Name: "Season 2", EpisodeCount: 10},
				{SeasonNumber: 0, Name: "Specials", EpisodeCount: 14},
				{SeasonNumber: 1, EpisodeCount: 10},
			},
		},
	}
	r := newResolver(catalog, &fakeSuggestions{})

	record, err := r.ResolveSelection(context.Background(), Selection{MediaKind: "movie", IMDBID: "tt0944947"})
	if err != nil {
		t.Fatalf("ResolveSelection() error = %v", err)
	}
	if record.MediaKind != KindSeries {
		t.Errorf("MediaKind = %q, want series adopted from the find lookup", record.MediaKind)
	}
	if record.TVDBID == nil || *record.TVDBID != 121361 {
		t.Errorf("TVDBID = %v, want 121361", record.TVDBID)
	}
	if len(record.Seasons) != 2 {
		t.Fatalf("Seasons = %v, want specials dropped", record.Seasons)
	}
	if record.Seasons[0].SeasonNumber != 1 || record.Seasons[1].SeasonNumber != 2 {
		t.Errorf("Seasons not sorted ascending: %v", record.Seasons)
	}
	if record.Seasons[0].Name != "Season 1" {
		t.Errorf("Season name = %q, want defaulted %q", record.Seasons[0].Name, "Season 1")
	}
}

func TestResolver_ResolveSelection_ByTitleFallback(t *testing.T) {
	catalog := &fakeCatalog{
		findErr:    tmdb.ErrNoMatch,
		kindResult: &tmdb.MultiResult{ID: 603, MediaType: "movie", Title: "The Matrix"},
		details: &tmdb.Details{
			ID:          603,
			Title:       "The Matrix",
			ReleaseDate: "1999-03-31",
		},
	}
	r := newResolver(catalog, &fakeSuggestions{})

	record, err := r.ResolveSelection(context.Background(), Selection{
		MediaKind: "movie",
		IMDBID:    "tt0133093",
		Title:     "The Matrix",
		Year:      1999,
	})
	if err != nil {
		t.Fatalf("ResolveSelection() error = %v", err)
	}
	if record.TMDBID != 603 {
		t.Errorf("TMDBID = %d, want 603 via title fallback", record.TMDBID)
	}
	if record.IMDBID != "tt0133093" {
		t.Errorf("IMDBID = %q, want input value kept when details carry none", record.IMDBID)
	}
	if catalog.findCalls != 1 || catalog.kindCalls != 1 {
		t.Errorf("lookup calls find=%d kind=%d, want 1 each", catalog.findCalls, catalog.kindCalls)
	}
}

func TestResolver_ResolveSelection_NotFound(t *testing.T) {
	catalog := &fakeCatalog{findErr: tmdb.ErrNoMatch, kindErr: tmdb.ErrNoMatch}
	r := newResolver(catalog, &fakeSuggestions{})

	_, err := r.ResolveSelection(context.Background(), Selection{
		MediaKind: "movie",
		IMDBID:    "tt0000000",
		Title:     "Nonexistent",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveSelection() error = %v, want ErrNotFound", err)
	}
}

func TestResolver_ResolveSelection_DetailsFailure(t *testing.T) {
	catalog := &fakeCatalog{detailsErr: errors.New("tmdb 502")}
	r := newResolver(catalog, &fakeSuggestions{})

	_, err := r.ResolveSelection(context.Background(), Selection{MediaKind: "movie", TMDBID: 438631})
	if err == nil {
		t.Fatal("ResolveSelection() error = nil, want upstream failure")
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveSelection() error = %v, want plain upstream error", err)
	}
}

func TestMergeKey(t *testing.T) {
	y := 2021
	if mergeKey("  The   Matrix ", &y) != mergeKey("the matrix", &y) {
		t.Error("merge key must collapse whitespace and lowercase")
	}
	if mergeKey("Dune", nil) != "dune|0" {
		t.Errorf("mergeKey(Dune, nil) = %q, want dune|0", mergeKey("Dune", nil))
	}
}
