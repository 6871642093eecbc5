package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// Handler processes one record id pulled from a queue. The receipt lets
// long-running handlers extend their visibility window.
type Handler func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error

// WorkerPool runs a set of poll-loop workers against a single queue.
type WorkerPool struct {
	name         string
	queueMgr     interfaces.QueueManager
	handler      Handler
	concurrency  int
	pollInterval time.Duration
	logger       arbor.ILogger
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewWorkerPool creates a worker pool for one queue.
func NewWorkerPool(parent context.Context, name string, queueMgr interfaces.QueueManager, handler Handler, concurrency int, pollInterval time.Duration, logger arbor.ILogger) *WorkerPool {
	ctx, cancel := context.WithCancel(parent)
	return &WorkerPool{
		name:         name,
		queueMgr:     queueMgr,
		handler:      handler,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	wp.logger.Info().
		Str("queue", wp.name).
		Int("concurrency", wp.concurrency).
		Msg("Starting worker pool")

	for i := 0; i < wp.concurrency; i++ {
		go wp.worker(i)
	}
}

// Stop cancels all workers. In-flight messages reappear after their
// visibility timeout.
func (wp *WorkerPool) Stop() {
	wp.logger.Info().Str("queue", wp.name).Msg("Stopping worker pool")
	wp.cancel()
}

func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts to reduce database lock contention.
	staggerDelay := (wp.pollInterval / time.Duration(wp.concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		time.Sleep(staggerDelay)
	}

	wp.logger.Debug().
		Str("queue", wp.name).
		Int("worker_id", workerID).
		Dur("stagger_delay", staggerDelay).
		Msg("Worker started")

	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().
				Str("queue", wp.name).
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			if err := wp.processMessage(workerID); err != nil {
				errMsg := err.Error()
				// SQLITE_BUSY is expected under concurrency and retries on
				// the next poll.
				if !errors.Is(err, ErrNoMessage) &&
					!strings.Contains(errMsg, "database is locked") &&
					!strings.Contains(errMsg, "SQLITE_BUSY") {
					wp.logger.Warn().
						Err(err).
						Str("queue", wp.name).
						Int("worker_id", workerID).
						Msg("Error processing message")
				}
			}
		}
	}
}

func (wp *WorkerPool) processMessage(workerID int) error {
	id, receipt, err := wp.queueMgr.Receive(wp.ctx)
	if err != nil {
		return err
	}

	// Correlate all log lines for this delivery.
	msgLogger := wp.logger.WithCorrelationId(uuid.New().String())

	msgLogger.Debug().
		Str("queue", wp.name).
		Int64("id", id).
		Int("worker_id", workerID).
		Msg("Processing message")

	startTime := time.Now()
	handlerErr := wp.handler(wp.ctx, id, receipt)
	duration := time.Since(startTime)

	if handlerErr != nil {
		msgLogger.Error().
			Err(handlerErr).
			Str("queue", wp.name).
			Int64("id", id).
			Dur("duration", duration).
			Int("worker_id", workerID).
			Msg("Handler failed, message will redeliver")
		// Leave the message in place. It reappears after the visibility
		// timeout, up to the queue's max receive count.
		return handlerErr
	}

	msgLogger.Info().
		Str("queue", wp.name).
		Int64("id", id).
		Dur("duration", duration).
		Int("worker_id", workerID).
		Msg("Message processed")

	if err := receipt.Delete(); err != nil {
		msgLogger.Warn().
			Err(err).
			Str("queue", wp.name).
			Int64("id", id).
			Msg("Failed to delete message after processing")
		return err
	}

	return nil
}
