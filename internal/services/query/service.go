package query

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// Service answers user queries pulled from the query queue.
type Service struct {
	store      interfaces.StorageManager
	executor   *Executor
	aggregator *Aggregator
	presenter  *Presenter
	logger     arbor.ILogger
}

// NewService wires the query service.
func NewService(store interfaces.StorageManager, cache interfaces.KeyIDCache, objects interfaces.ObjectStore, mailer interfaces.Mailer, config *common.QueryConfig, logger arbor.ILogger) *Service {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		store:      store,
		executor:   NewExecutor(store, cache, config, logger),
		aggregator: NewAggregator(store, logger, rng),
		presenter:  NewPresenter(store.Queries(), objects, mailer, config, logger),
		logger:     logger,
	}
}

// Submit interns a query and enqueues it for execution, returning its
// row. Resubmitting the same text returns the earlier query.
func (s *Service) Submit(ctx context.Context, queue interfaces.QueueManager, text, email string) (*models.UserQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("query text is empty")
	}

	uq, err := s.store.Queries().GetOrCreateQuery(ctx, text, email)
	if err != nil {
		return nil, err
	}
	if uq.FulfilledAt != nil {
		s.logger.Info().Int64("query_id", uq.ID).Msg("Query already fulfilled")
		return uq, nil
	}

	if err := queue.Enqueue(ctx, uq.ID); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("query_id", uq.ID).Str("text", text).Msg("Query enqueued")
	return uq, nil
}

// HandleQuery executes one query id from the queue. Execution failures
// cancel the query with a message rather than redelivering forever.
func (s *Service) HandleQuery(ctx context.Context, queryID int64) error {
	uq, err := s.store.Queries().GetQuery(ctx, queryID)
	if err != nil {
		return err
	}
	if uq == nil {
		return fmt.Errorf("query %d not found", queryID)
	}
	if uq.Cancelled {
		s.logger.Info().Int64("query_id", queryID).Msg("Query is cancelled, skipping")
		return nil
	}
	if uq.FulfilledAt != nil {
		s.logger.Debug().Int64("query_id", queryID).Msg("Query already fulfilled, skipping")
		return nil
	}

	result, err := s.Run(ctx, uq)
	if err != nil {
		s.logger.Error().Err(err).Int64("query_id", queryID).Msg("Query failed")
		return s.store.Queries().SetMessage(ctx, queryID, err.Error(), true)
	}

	if result.Message != "" {
		if err := s.store.Queries().SetMessage(ctx, queryID, result.Message, false); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a query and publishes its result.
func (s *Service) Run(ctx context.Context, uq *models.UserQuery) (*Result, error) {
	result, err := s.executor.Execute(ctx, uq.Text)
	if err != nil {
		return nil, err
	}

	aux, err := s.aggregator.Summarize(ctx, result.Rows)
	if err != nil {
		return nil, err
	}

	if err := s.presenter.Present(ctx, uq, result, aux); err != nil {
		return nil, err
	}
	return result, nil
}
