// Package tasks wires background jobs into the scheduler.
package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
	"github.com/requesterrr/requesterrr/internal/downloads"
	"github.com/requesterrr/requesterrr/internal/scheduler"
)

// CompletionTask drives the download completion pipeline on a schedule.
type CompletionTask struct {
	pipeline *downloads.Pipeline
	logger   zerolog.Logger
}

// NewCompletionTask creates a new completion task.
func NewCompletionTask(pipeline *downloads.Pipeline, logger zerolog.Logger) *CompletionTask {
	return &CompletionTask{
		pipeline: pipeline,
		logger:   logger.With().Str("task", "download-completion").Logger(),
	}
}

// Run executes one pipeline pass.
func (t *CompletionTask) Run(ctx context.Context) error {
	result, err := t.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if result.Paused > 0 {
		t.logger.Info().
			Int("paused", result.Paused).
			Int("refreshed", result.Refreshed).
			Msg("Paused newly completed downloads")
	}
	return nil
}

// RegisterCompletionTask registers the completion task with the scheduler.
func RegisterCompletionTask(
	sched *scheduler.Scheduler,
	pipeline *downloads.Pipeline,
	cfg config.SchedulerConfig,
	logger zerolog.Logger,
) error {
	task := NewCompletionTask(pipeline, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "download-completion",
		Name:        "Download Completion",
		Description: "Pauses newly completed downloads and refreshes the media library",
		Cron:        cfg.CompletionCron,
		RunOnStart:  cfg.CompletionRunOnStart,
		Func:        task.Run,
	})
}
