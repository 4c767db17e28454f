package downloads

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/ledger"
)

// Queue is the download queue the pipeline polls and pauses.
type Queue interface {
	ListCompleted(ctx context.Context) ([]Torrent, error)
	Pause(ctx context.Context, hashes []string) error
}

// Refresher triggers a library rescan after a successful pause batch.
// Failures are reported but never fail a pipeline run.
type Refresher interface {
	Refresh(ctx context.Context) (refreshed int, err error)
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	Paused    int `json:"paused"`
	Refreshed int `json:"refreshed"`
}

// Pipeline detects newly completed queue items, pauses each exactly
// once, and triggers a library refresh when anything was paused. Runs
// are serialized with a mutex so overlapping schedules cannot race the
// ledger's lookup-then-mark.
type Pipeline struct {
	queue     Queue
	refresher Refresher
	store     *ledger.Store
	logger    zerolog.Logger

	mu sync.Mutex
}

// NewPipeline creates a new completion pipeline.
func NewPipeline(queue Queue, refresher Refresher, store *ledger.Store, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		queue:     queue,
		refresher: refresher,
		store:     store,
		logger:    logger.With().Str("component", "completion").Logger(),
	}
}

// Run executes one pipeline pass. The pause is all-or-nothing: a failed
// pause call marks nothing processed, so the whole batch is retried on
// the next run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	torrents, err := p.queue.ListCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed downloads: %w", err)
	}

	batch := make([]ledger.ProcessedTorrent, 0, len(torrents))
	for _, t := range torrents {
		hash := strings.TrimSpace(t.Hash)
		if hash == "" {
			continue
		}

		processed, err := p.store.IsProcessed(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check processed set: %w", err)
		}
		if processed {
			continue
		}

		// The "completed" filter occasionally reports items still
		// moving; trust the progress fraction over the filter.
		if t.Progress < 1.0 {
			continue
		}

		name := t.Name
		if name == "" {
			name = "Unknown"
		}

		// Already in the desired terminal state: record it so it is
		// never acted on again, but it does not count as paused now.
		if strings.Contains(strings.ToLower(t.State), "paused") {
			if err := p.store.MarkProcessed(ctx, hash, name, t.Category); err != nil {
				return nil, fmt.Errorf("failed to mark already-paused torrent: %w", err)
			}
			p.logger.Debug().Str("hash", hash).Str("name", name).Msg("Recorded already-paused torrent")
			continue
		}

		batch = append(batch, ledger.ProcessedTorrent{Hash: hash, Name: name, Category: t.Category})
	}

	paused := 0
	if len(batch) > 0 {
		hashes := make([]string, 0, len(batch))
		for _, item := range batch {
			hashes = append(hashes, item.Hash)
		}

		if err := p.queue.Pause(ctx, hashes); err != nil {
			return nil, fmt.Errorf("failed to pause completed downloads: %w", err)
		}
		if err := p.store.MarkProcessedBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to record pause batch: %w", err)
		}
		paused = len(batch)
	}

	refreshed := 0
	if paused > 0 {
		count, err := p.refresher.Refresh(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Library refresh failed after pause batch")
		} else {
			refreshed = count
		}
	}

	p.logger.Info().
		Int("completed", len(torrents)).
		Int("paused", paused).
		Int("refreshed", refreshed).
		Msg("Completion run finished")

	return &RunResult{Paused: paused, Refreshed: refreshed}, nil
}
