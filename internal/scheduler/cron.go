package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/metrics"
	"github.com/amaumene/tritonevents/internal/models"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron           *cron.Cron
	store          models.Store
	staleThreshold time.Duration
	logger         zerolog.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(store models.Store, staleQueuedMinutes int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		store:          store,
		staleThreshold: time.Duration(staleQueuedMinutes) * time.Minute,
		logger:         logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info().Msg("Starting scheduler")

	// Every 10 minutes: Report media stuck in the queue
	_, err := s.cron.AddFunc("*/10 * * * *", func() {
		s.runStaleQueuedCheck(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add stale queued check job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// Serve runs the scheduler until ctx is done
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// runStaleQueuedCheck logs media queued for longer than the threshold.
// Recovery stays manual, through requeue.
func (s *Scheduler) runStaleQueuedCheck(ctx context.Context) {
	s.logger.Debug().Msg("Running stale queued check")

	stale, err := s.store.ListStaleQueued(ctx, time.Now().Add(-s.staleThreshold))
	if err != nil {
		s.logger.Error().Err(err).Msg("Stale queued check failed")
		return
	}

	metrics.StaleQueued.Set(float64(len(stale)))
	for _, media := range stale {
		s.logger.Warn().
			Str("media_id", media.ID).
			Str("name", media.Name).
			Time("queued_since", media.UpdatedAt).
			Msg("Media queued for too long, requeue it to publish again")
	}
}
