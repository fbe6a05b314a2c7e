package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// pruneTimeout bounds one prune run
const pruneTimeout = 5 * time.Minute

// Pruner drops expired cache entries
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Scheduler runs background maintenance jobs
type Scheduler struct {
	cron   *gocron.Scheduler
	cache  Pruner
	logger zerolog.Logger
}

// New creates a scheduler that prunes cache every interval
func New(cache Pruner, interval time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = time.Hour
	}

	s := &Scheduler{
		cron:   gocron.NewScheduler(time.UTC),
		cache:  cache,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}

	// Cache prune job
	if _, err := s.cron.Every(interval).Do(s.pruneCache); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Info().Int("jobs", len(s.cron.Jobs())).Msg("Scheduler initialized and started")
}

// Stop halts the jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) pruneCache() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.cache.Prune(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to prune cache")
		return
	}
	s.logger.Info().Int("removed", n).Dur("took", time.Since(start)).Msg("Cache pruned")
}
