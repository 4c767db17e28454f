package tmdb

// Kind is the TMDB media type discriminator ("movie" or "tv").
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// IsValid returns true for the two media types this client handles.
func (k Kind) IsValid() bool {
	return k == KindMovie || k == KindTV
}

// MultiResult is one hit from /search/multi or a kind-scoped search.
// Movies carry Title/ReleaseDate, TV carries Name/FirstAirDate.
type MultiResult struct {
	ID           int    `json:"id"`
	MediaType    string `json:"media_type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
	Overview     string `json:"overview"`
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (r *MultiResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date returns the release date or first air date, whichever is set.
func (r *MultiResult) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

type searchResponse struct {
	Page    int           `json:"page"`
	Results []MultiResult `json:"results"`
}

// ExternalIDs is the external_ids block appended to detail responses.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
	TVDBID int    `json:"tvdb_id"`
}

// Season is one season entry in a TV detail response.
type Season struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
}

// Details is a movie or TV detail response with external ids appended.
type Details struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	PosterPath   string      `json:"poster_path"`
	Overview     string      `json:"overview"`
	ExternalIDs  ExternalIDs `json:"external_ids"`
	Seasons      []Season    `json:"seasons"`
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (d *Details) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Date returns the release date or first air date, whichever is set.
func (d *Details) Date() string {
	if d.ReleaseDate != "" {
		return d.ReleaseDate
	}
	return d.FirstAirDate
}

// FindResult is the resolved hit from /find/{imdb_id}.
type FindResult struct {
	ID   int
	Kind Kind
}

type findResponse struct {
	MovieResults []MultiResult `json:"movie_results"`
	TVResults    []MultiResult `json:"tv_results"`
}
