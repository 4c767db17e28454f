// Package ledger is the durable store for request history and the
// processed-torrent idempotency set.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store provides access to the request log and processed-torrent set.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a new ledger store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// AppendRequestLog inserts a request history row. The log is append-only;
// there is deliberately no update or delete path.
func (s *Store) AppendRequestLog(ctx context.Context, entry *RequestLogEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs
		 (media_type, title, release_year, tmdb_id, imdb_id, tvdb_id,
		  quality, season_selection, target_client, status, response_body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.MediaKind,
		entry.Title,
		nullableInt(entry.Year),
		nullableInt(entry.TMDBID),
		nullableString(entry.IMDBID),
		nullableInt(entry.TVDBID),
		entry.Quality,
		nullableString(entry.SeasonSelection),
		entry.TargetClient,
		string(entry.Status),
		nullableString(entry.ResponseBody),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append request log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Int64("id", id).
		Str("mediaKind", entry.MediaKind).
		Str("status", string(entry.Status)).
		Msg("Appended request log entry")

	return id, nil
}

// ListRequestLogs returns a page of request history, newest first.
func (s *Store) ListRequestLogs(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}

	var totalCount int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM request_logs`).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count request logs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, media_type, title, release_year, tmdb_id, imdb_id, tvdb_id,
		        quality, season_selection, target_client, status, response_body, created_at
		 FROM request_logs
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		opts.PageSize, (opts.Page-1)*opts.PageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*RequestLogEntry, 0, opts.PageSize)
	for rows.Next() {
		entry, err := scanRequestLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int(totalCount) / opts.PageSize
	if int(totalCount)%opts.PageSize > 0 {
		totalPages++
	}

	return &ListResponse{
		Items:      entries,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// IsProcessed reports whether a torrent hash is already in the
// idempotency set.
func (s *Store) IsProcessed(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_torrents WHERE torrent_hash = ? LIMIT 1`, hash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed torrent: %w", err)
	}
	return true, nil
}

// MarkProcessed records a single torrent hash in the idempotency set.
// The upsert is idempotent: re-marking an existing hash replaces the row
// with identical semantics.
func (s *Store) MarkProcessed(ctx context.Context, hash, name, category string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO processed_torrents
		 (torrent_hash, torrent_name, torrent_category, paused_at)
		 VALUES (?, ?, ?, ?)`,
		hash, name, nullableString(category), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to mark torrent processed: %w", err)
	}
	return nil
}

// MarkProcessedBatch records a pause batch in one transaction so that a
// crash mid-batch leaves either all or none of the items marked.
func (s *Store) MarkProcessedBatch(ctx context.Context, items []ProcessedTorrent) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO processed_torrents
		 (torrent_hash, torrent_name, torrent_category, paused_at)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.Hash, item.Name, nullableString(item.Category), now); err != nil {
			return fmt.Errorf("failed to mark torrent %s processed: %w", item.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit processed batch: %w", err)
	}

	s.logger.Debug().Int("count", len(items)).Msg("Marked torrent batch processed")
	return nil
}

func scanRequestLog(rows *sql.Rows) (*RequestLogEntry, error) {
	var (
		entry               RequestLogEntry
		year, tmdb, tvdb    sql.NullInt64
		imdb, seasons, body sql.NullString
		createdAt           string
	)

	err := rows.Scan(
		&entry.ID, &entry.MediaKind, &entry.Title, &year, &tmdb, &imdb, &tvdb,
		&entry.Quality, &seasons, &entry.TargetClient, (*string)(&entry.Status), &body, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan request log: %w", err)
	}

	if year.Valid {
		y := int(year.Int64)
		entry.Year = &y
	}
	if tmdb.Valid {
		id := int(tmdb.Int64)
		entry.TMDBID = &id
	}
	if tvdb.Valid {
		id := int(tvdb.Int64)
		entry.TVDBID = &id
	}
	if imdb.Valid {
		entry.IMDBID = imdb.String
	}
	if seasons.Valid {
		entry.SeasonSelection = seasons.String
	}
	if body.Valid {
		entry.ResponseBody = body.String
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = t
	}

	return &entry, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
