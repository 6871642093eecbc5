package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// Scheduler periodically sweeps raw articles that never produced a result
// back onto the process queue. Lost queue messages and crashed workers
// otherwise leave articles stranded as Unprocessed.
type Scheduler struct {
	store        interfaces.StorageManager
	processQueue interfaces.QueueManager
	config       *common.ReprocessConfig
	cron         *cron.Cron
	logger       arbor.ILogger
}

// New creates the reprocess scheduler.
func New(store interfaces.StorageManager, processQueue interfaces.QueueManager, config *common.ReprocessConfig, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		store:        store,
		processQueue: processQueue,
		config:       config,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start registers the sweep on its cron schedule and begins running.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Reprocess scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if count, err := s.Sweep(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Reprocess sweep failed")
		} else if count > 0 {
			s.logger.Info().Int("requeued", count).Msg("Reprocess sweep complete")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Reprocess scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep re-enqueues every raw article without a recorded result.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	ids, err := s.store.RawArticles().ListUnprocessedIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.processQueue.Enqueue(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
