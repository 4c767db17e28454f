// Package request validates acquisition submissions and dispatches them
// to the movie and series download managers.
package request

import "context"

// Quality is the coarse quality tier a user can request. Each tier maps
// to a configured quality profile id on the target download manager.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityUltra    Quality = "ultra"
)

// IsValid returns true for the two supported quality tiers.
func (q Quality) IsValid() bool {
	return q == QualityStandard || q == QualityUltra
}

// SeasonMode selects which seasons of a series get monitored.
type SeasonMode string

const (
	SeasonModeAll    SeasonMode = "all"
	SeasonModeCustom SeasonMode = "custom"
)

// SeasonMonitor is one season entry of the series acquisition command.
type SeasonMonitor struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

// SubmitPayload is the raw user submission. Zero ids and years mean
// absent; selection fields are passed through to the resolver.
type SubmitPayload struct {
	MediaKind  string     `json:"mediaKind"`
	TMDBID     int        `json:"tmdbId"`
	IMDBID     string     `json:"imdbId"`
	Title      string     `json:"title"`
	Year       int        `json:"year"`
	Quality    string     `json:"quality"`
	SeasonMode SeasonMode `json:"seasonMode"`
	Seasons    []int      `json:"seasons"`
}

// SubmitResult describes a successful submission.
type SubmitResult struct {
	Message   string `json:"message"`
	MediaKind string `json:"mediaKind"`
	Title     string `json:"title"`
	Quality   string `json:"quality"`
	TMDBID    int    `json:"tmdbId,omitempty"`
	TVDBID    int    `json:"tvdbId,omitempty"`
}

// MovieRequest is the input to the movie acquisition gateway.
type MovieRequest struct {
	Title   string
	TMDBID  int
	Year    *int
	Quality Quality
	IMDBID  string
}

// SeriesRequest is the input to the series acquisition gateway.
type SeriesRequest struct {
	Title   string
	TVDBID  int
	Quality Quality
	Seasons []SeasonMonitor
}

// MovieGateway submits movie acquisition commands. The returned body is
// the raw gateway response, available even when err is non-nil so the
// dispatcher can snapshot failures.
type MovieGateway interface {
	RequestMovie(ctx context.Context, req MovieRequest) (body string, err error)
}

// SeriesGateway submits series acquisition commands.
type SeriesGateway interface {
	RequestSeries(ctx context.Context, req SeriesRequest) (body string, err error)
}
