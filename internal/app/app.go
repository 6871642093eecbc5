// Package app wires Sentropy's storage, queues, and services together.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/queue"
	"github.com/Sentimentron/sentropy/internal/services/cache"
	"github.com/Sentimentron/sentropy/internal/services/classifier"
	"github.com/Sentimentron/sentropy/internal/services/extractor"
	"github.com/Sentimentron/sentropy/internal/services/mailer"
	"github.com/Sentimentron/sentropy/internal/services/nlp"
	"github.com/Sentimentron/sentropy/internal/services/objectstore"
	"github.com/Sentimentron/sentropy/internal/services/pipeline"
	"github.com/Sentimentron/sentropy/internal/services/query"
	"github.com/Sentimentron/sentropy/internal/services/scheduler"
	"github.com/Sentimentron/sentropy/internal/services/transfer"
	"github.com/Sentimentron/sentropy/internal/storage/sqlite"
)

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc

	StorageManager interfaces.StorageManager
	Cache          *cache.Service
	Objects        interfaces.ObjectStore
	Mailer         interfaces.Mailer

	queueDB      *sql.DB
	CrawlQueue   interfaces.QueueManager
	ProcessQueue interfaces.QueueManager
	QueryQueue   interfaces.QueueManager

	TransferService *transfer.Service
	Processor       *pipeline.Processor
	QueryService    *query.Service
	Scheduler       *scheduler.Scheduler

	pools []*queue.WorkerPool
}

// New initializes the application with all dependencies.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		Logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initStorage(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initQueues(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize queues: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("version", common.GetVersion()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage brings up the relational store, the id cache, and the
// object store.
func (a *App) initStorage() error {
	store, err := sqlite.NewManager(a.Logger, &a.Config.Storage)
	if err != nil {
		return err
	}
	a.StorageManager = store
	a.Logger.Debug().
		Str("path", a.Config.Storage.SQLitePath).
		Msg("Storage layer initialized")

	idCache, err := cache.NewService(a.Config.Storage.CachePath, a.Logger)
	if err != nil {
		return err
	}
	a.Cache = idCache
	a.Logger.Debug().
		Str("path", a.Config.Storage.CachePath).
		Msg("Id cache initialized")

	objects, err := objectstore.NewFilesystem(a.Config.Storage.ObjectRoot, a.Logger)
	if err != nil {
		return err
	}
	a.Objects = objects
	a.Logger.Debug().
		Str("root", a.Config.Storage.ObjectRoot).
		Msg("Object store initialized")

	return nil
}

// initQueues opens the queue database and provisions the three queues.
// The queue database is separate from the article store so that queue
// churn never contends with pipeline transactions.
func (a *App) initQueues() error {
	dir := filepath.Dir(a.Config.Storage.QueuePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create queue directory: %w", err)
	}

	db, err := sql.Open("sqlite", a.Config.Storage.QueuePath)
	if err != nil {
		return fmt.Errorf("open queue database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return fmt.Errorf("configure queue database: %w", err)
	}
	a.queueDB = db

	visibility := a.Config.Queue.VisibilityTimeoutDuration()
	maxReceive := a.Config.Queue.MaxReceive

	crawlQ, err := queue.NewManager(db, a.Config.Queue.CrawlQueue, visibility, maxReceive)
	if err != nil {
		return err
	}
	processQ, err := queue.NewManager(db, a.Config.Queue.ProcessQueue, visibility, maxReceive)
	if err != nil {
		return err
	}
	queryQ, err := queue.NewManager(db, a.Config.Queue.QueryQueue, visibility, maxReceive)
	if err != nil {
		return err
	}

	a.CrawlQueue = crawlQ
	a.ProcessQueue = processQ
	a.QueryQueue = queryQ
	a.Logger.Debug().
		Str("path", a.Config.Storage.QueuePath).
		Str("crawl_queue", a.Config.Queue.CrawlQueue).
		Str("process_queue", a.Config.Queue.ProcessQueue).
		Str("query_queue", a.Config.Queue.QueryQueue).
		Msg("Queues initialized")

	return nil
}

// initServices builds the business services in dependency order.
func (a *App) initServices() error {
	// Outbound mail is optional. A nil mailer means result notifications
	// are skipped.
	smtp := mailer.NewService(&a.Config.SMTP, a.Logger)
	if smtp.IsConfigured() {
		a.Mailer = smtp
		a.Logger.Debug().Str("host", a.Config.SMTP.Host).Msg("Mailer initialized")
	} else {
		a.Logger.Debug().Msg("SMTP not configured, result notifications disabled")
	}

	stopList, err := common.LoadStopList(a.Config.Pipeline.StopListPath)
	if err != nil {
		// The pipeline still runs without a stop list, it just interns
		// more keywords.
		a.Logger.Warn().
			Err(err).
			Str("path", a.Config.Pipeline.StopListPath).
			Msg("Stop list unavailable, continuing without one")
		stopList = make(common.StopList)
	}

	a.TransferService = transfer.NewService(a.StorageManager, a.Objects, a.ProcessQueue, a.Logger)
	a.Logger.Debug().Msg("Transfer service initialized")

	a.Processor = pipeline.NewProcessor(
		a.StorageManager,
		extractor.NewClient(&a.Config.Extractor, a.Logger),
		classifier.New(),
		nlp.NewMiner(),
		nlp.NewExtractor(),
		nlp.NewTokenizer(),
		nlp.NewTagger(),
		nlp.NewIdentifier(),
		a.Cache,
		stopList,
		&a.Config.Pipeline,
		a.Logger,
	)
	a.Logger.Debug().
		Str("extractor_url", a.Config.Extractor.URL).
		Msg("Pipeline processor initialized")

	a.QueryService = query.NewService(a.StorageManager, a.Cache, a.Objects, a.Mailer, &a.Config.Query, a.Logger)
	a.Logger.Debug().
		Str("result_bucket", a.Config.Query.ResultBucket).
		Msg("Query service initialized")

	a.Scheduler = scheduler.New(a.StorageManager, a.ProcessQueue, &a.Config.Reprocess, a.Logger)
	return nil
}

// StartTransferWorkers begins consuming the crawl queue.
func (a *App) StartTransferWorkers() {
	a.startPool(a.Config.Queue.CrawlQueue, a.CrawlQueue,
		func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error {
			return a.TransferService.HandleCrawlFile(ctx, id)
		})
}

// StartProcessWorkers begins consuming the process queue.
func (a *App) StartProcessWorkers() {
	a.startPool(a.Config.Queue.ProcessQueue, a.ProcessQueue,
		func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error {
			return a.Processor.Process(ctx, id)
		})
}

// StartQueryWorkers begins consuming the query queue.
func (a *App) StartQueryWorkers() {
	a.startPool(a.Config.Queue.QueryQueue, a.QueryQueue,
		func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error {
			return a.QueryService.HandleQuery(ctx, id)
		})
}

// StartScheduler starts the reprocess sweep if it is enabled.
func (a *App) StartScheduler() error {
	return a.Scheduler.Start(a.ctx)
}

func (a *App) startPool(name string, mgr interfaces.QueueManager, handler queue.Handler) {
	pool := queue.NewWorkerPool(
		a.ctx,
		name,
		mgr,
		handler,
		a.Config.Queue.Concurrency,
		a.Config.Queue.PollIntervalDuration(),
		a.Logger,
	)
	pool.Start()
	a.pools = append(a.pools, pool)
}

// Close shuts down workers and releases all resources.
func (a *App) Close() {
	for _, pool := range a.pools {
		pool.Stop()
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	a.cancel()

	if a.CrawlQueue != nil {
		a.CrawlQueue.Close()
	}
	if a.ProcessQueue != nil {
		a.ProcessQueue.Close()
	}
	if a.QueryQueue != nil {
		a.QueryQueue.Close()
	}
	if a.queueDB != nil {
		if err := a.queueDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close queue database")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close id cache")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
