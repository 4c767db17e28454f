package ledger

import "time"

// RequestStatus is the terminal outcome recorded for a submission attempt.
type RequestStatus string

const (
	StatusQueued RequestStatus = "queued"
	StatusFailed RequestStatus = "failed"
)

// RequestLogEntry is one row of the append-only request history.
// Entries are created once per attempted gateway call and never mutated.
type RequestLogEntry struct {
	ID              int64         `json:"id"`
	MediaKind       string        `json:"mediaKind"`
	Title           string        `json:"title"`
	Year            *int          `json:"year,omitempty"`
	TMDBID          *int          `json:"tmdbId,omitempty"`
	IMDBID          string        `json:"imdbId,omitempty"`
	TVDBID          *int          `json:"tvdbId,omitempty"`
	Quality         string        `json:"quality"`
	SeasonSelection string        `json:"seasonSelection,omitempty"`
	TargetClient    string        `json:"targetClient"`
	Status          RequestStatus `json:"status"`
	ResponseBody    string        `json:"-"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ProcessedTorrent is one row of the idempotency set. The hash is the
// primary key; a hash recorded here is never pause-acted-on again.
type ProcessedTorrent struct {
	Hash     string    `json:"hash"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	PausedAt time.Time `json:"pausedAt"`
}

// ListOptions controls request-log pagination.
type ListOptions struct {
	Page     int
	PageSize int
}

// ListResponse is a page of request-log entries.
type ListResponse struct {
	Items      []*RequestLogEntry `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalCount int64              `json:"totalCount"`
	TotalPages int                `json:"totalPages"`
}
