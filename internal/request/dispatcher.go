package request

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/ledger"
	"github.com/requesterrr/requesterrr/internal/metadata"
)

// SelectionResolver resolves a partial user selection to a canonical
// record.
type SelectionResolver interface {
	ResolveSelection(ctx context.Context, sel metadata.Selection) (*metadata.CanonicalRecord, error)
}

// Dispatcher validates submissions, routes them to the right download
// manager, and records every attempted gateway call in the ledger.
type Dispatcher struct {
	resolver SelectionResolver
	movies   MovieGateway
	series   SeriesGateway
	store    *ledger.Store
	logger   zerolog.Logger
}

// NewDispatcher creates a new acquisition dispatcher.
func NewDispatcher(resolver SelectionResolver, movies MovieGateway, series SeriesGateway, store *ledger.Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		movies:   movies,
		series:   series,
		store:    store,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Submit resolves and dispatches one acquisition request. A ledger
// entry is written once per attempted gateway call, success or failure;
// validation failures before the gateway call leave no trace.
func (d *Dispatcher) Submit(ctx context.Context, payload SubmitPayload) (*SubmitResult, error) {
	quality := Quality(strings.ToLower(strings.TrimSpace(payload.Quality)))
	if !quality.IsValid() {
		return nil, fmt.Errorf("%w: quality must be standard or ultra", metadata.ErrInvalidInput)
	}

	submissionID := uuid.New().String()
	log := d.logger.With().Str("submissionId", submissionID).Logger()

	record, err := d.resolver.ResolveSelection(ctx, metadata.Selection{
		MediaKind: payload.MediaKind,
		TMDBID:    payload.TMDBID,
		IMDBID:    payload.IMDBID,
		Title:     payload.Title,
		Year:      payload.Year,
	})
	if err != nil {
		log.Warn().Err(err).Str("title", payload.Title).Msg("Selection did not resolve")
		return nil, err
	}

	switch record.MediaKind {
	case metadata.KindMovie:
		return d.submitMovie(ctx, log, record, quality)
	case metadata.KindSeries:
		return d.submitSeries(ctx, log, record, quality, payload)
	default:
		return nil, fmt.Errorf("%w: unsupported media kind %q", metadata.ErrInvalidInput, record.MediaKind)
	}
}

func (d *Dispatcher) submitMovie(ctx context.Context, log zerolog.Logger, record *metadata.CanonicalRecord, quality Quality) (*SubmitResult, error) {
	if record.Title == "" || record.TMDBID <= 0 {
		return nil, fmt.Errorf("%w: movie title or tmdb id is missing", metadata.ErrInvalidInput)
	}

	body, gatewayErr := d.movies.RequestMovie(ctx, MovieRequest{
		Title:   record.Title,
		TMDBID:  record.TMDBID,
		Year:    record.Year,
		Quality: quality,
		IMDBID:  record.IMDBID,
	})

	status := ledger.StatusQueued
	if gatewayErr != nil {
		status = ledger.StatusFailed
	}

	tmdbID := record.TMDBID
	if _, err := d.store.AppendRequestLog(ctx, &ledger.RequestLogEntry{
		MediaKind:    string(metadata.KindMovie),
		Title:        record.Title,
		Year:         record.Year,
		TMDBID:       &tmdbID,
		IMDBID:       record.IMDBID,
		Quality:      string(quality),
		TargetClient: "radarr",
		Status:       status,
		ResponseBody: body,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to write request log entry")
	}

	if gatewayErr != nil {
		return nil, gatewayErr
	}

	log.Info().Str("title", record.Title).Int("tmdbId", record.TMDBID).Msg("Movie request dispatched")
	return &SubmitResult{
		Message:   "Movie request sent to Radarr. It should flow to the download queue automatically.",
		MediaKind: string(metadata.KindMovie),
		Title:     record.Title,
		Quality:   string(quality),
		TMDBID:    record.TMDBID,
	}, nil
}

func (d *Dispatcher) submitSeries(ctx context.Context, log zerolog.Logger, record *metadata.CanonicalRecord, quality Quality, payload SubmitPayload) (*SubmitResult, error) {
	if record.Title == "" || record.TVDBID == nil || *record.TVDBID <= 0 {
		return nil, fmt.Errorf("%w: tvdb id is missing, ensure the catalog has the external series mapping", metadata.ErrInvalidInput)
	}
	tvdbID := *record.TVDBID

	mode := payload.SeasonMode
	if mode == "" {
		mode = SeasonModeAll
	}

	seasons := BuildSeasonPayload(record.Seasons, mode, payload.Seasons)
	if monitoredCount(seasons) == 0 {
		// No gateway call and no ledger entry when nothing would be monitored.
		return nil, fmt.Errorf("%w: no valid seasons selected", metadata.ErrInvalidInput)
	}

	body, gatewayErr := d.series.RequestSeries(ctx, SeriesRequest{
		Title:   record.Title,
		TVDBID:  tvdbID,
		Quality: quality,
		Seasons: seasons,
	})

	status := ledger.StatusQueued
	if gatewayErr != nil {
		status = ledger.StatusFailed
	}

	selectionSnapshot, _ := json.Marshal(seasons)
	entry := &ledger.RequestLogEntry{
		MediaKind:       string(metadata.KindSeries),
		Title:           record.Title,
		Year:            record.Year,
		IMDBID:          record.IMDBID,
		TVDBID:          &tvdbID,
		Quality:         string(quality),
		SeasonSelection: string(selectionSnapshot),
		TargetClient:    "sonarr",
		Status:          status,
		ResponseBody:    body,
	}
	if record.TMDBID > 0 {
		tmdbID := record.TMDBID
		entry.TMDBID = &tmdbID
	}
	if _, err := d.store.AppendRequestLog(ctx, entry); err != nil {
		log.Error().Err(err).Msg("Failed to write request log entry")
	}

	if gatewayErr != nil {
		return nil, gatewayErr
	}

	log.Info().
		Str("title", record.Title).
		Int("tvdbId", tvdbID).
		Int("seasons", len(seasons)).
		Msg("Series request dispatched")
	return &SubmitResult{
		Message:   "Series request sent to Sonarr. It should flow to the download queue automatically.",
		MediaKind: string(metadata.KindSeries),
		Title:     record.Title,
		Quality:   string(quality),
		TVDBID:    tvdbID,
	}, nil
}
