package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/app"
	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/models"
	"github.com/Sentimentron/sentropy/internal/services/query"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	files  configPaths
	config *common.Config
	logger arbor.ILogger
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: sentropy <command> [flags]

Commands:
  serve       run transfer, process, and query workers together
  transfer    run crawl archive transfer workers
  process     run article enrichment workers
  query       submit a query, or execute one inline with -run
  seed        register a crawl archive and enqueue it for transfer
  reprocess   sweep unprocessed articles back onto the process queue
  warm-cache  preload the keyword and domain id caches
  version     print version information

Run 'sentropy <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version", "-version", "-v", "--version":
		fmt.Printf("Sentropy version %s\n", common.GetVersion())
		return
	case "-h", "--help", "help":
		usage()
		return
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.Var(&files, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	fs.Var(&files, "c", "Configuration file path (shorthand)")

	switch command {
	case "serve":
		runServe(fs, args)
	case "transfer":
		runTransfer(fs, args)
	case "process":
		runProcess(fs, args)
	case "query":
		runQuery(fs, args)
	case "seed":
		runSeed(fs, args)
	case "reprocess":
		runReprocess(fs, args)
	case "warm-cache":
		runWarmCache(fs, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}
}

// setup loads configuration, initializes the logger, and builds the
// application.
func setup() *app.App {
	// Auto-discover a config file when none is given.
	if len(files) == 0 {
		if _, err := os.Stat("sentropy.toml"); err == nil {
			files = append(files, "sentropy.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(files...)
	if err != nil {
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Strs("paths", files).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	logger.Info().
		Strs("config_files", files).
		Str("environment", config.Environment).
		Msg("Configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	return application
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received, shutting down")
}

func runServe(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	application := setup()
	defer application.Close()

	application.StartTransferWorkers()
	application.StartProcessWorkers()
	application.StartQueryWorkers()
	if err := application.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start reprocess scheduler")
	}

	logger.Info().Msg("Sentropy workers running - Press Ctrl+C to stop")
	waitForSignal()
}

func runTransfer(fs *flag.FlagSet, args []string) {
	all := fs.Bool("all", false, "Enqueue every incomplete crawl archive before consuming")
	limit := fs.Int("limit", 0, "Maximum archives to enqueue with -all (0 = no limit)")
	fs.Parse(args)
	application := setup()
	defer application.Close()

	ctx := context.Background()
	if *all {
		count, err := application.TransferService.EnqueueIncomplete(ctx, application.CrawlQueue, *limit)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to enqueue incomplete archives")
		}
		logger.Info().Int("enqueued", count).Msg("Incomplete archives enqueued")
	}

	application.StartTransferWorkers()
	logger.Info().Msg("Transfer workers running - Press Ctrl+C to stop")
	waitForSignal()
}

func runProcess(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	application := setup()
	defer application.Close()

	application.StartProcessWorkers()
	if err := application.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start reprocess scheduler")
	}
	logger.Info().Msg("Process workers running - Press Ctrl+C to stop")
	waitForSignal()
}

func runQuery(fs *flag.FlagSet, args []string) {
	text := fs.String("text", "", "Query text, e.g. \"science bbc.co.uk\"")
	email := fs.String("email", "", "Notification address recorded with the query")
	run := fs.Bool("run", false, "Execute the query inline instead of enqueuing it")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "query: -text is required")
		os.Exit(2)
	}

	application := setup()
	defer application.Close()
	ctx := context.Background()

	if *run {
		uq, err := application.StorageManager.Queries().GetOrCreateQuery(ctx, strings.TrimSpace(*text), *email)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to intern query")
		}
		result, err := application.QueryService.Run(ctx, uq)
		if err != nil {
			logger.Fatal().Err(err).Int64("query_id", uq.ID).Msg("Query failed")
		}
		fmt.Printf("query %d answered: %d documents, result at %s/%s\n",
			uq.ID, len(result.Rows), config.Query.ResultBucket, query.ResultKey(uq.ID))
		return
	}

	uq, err := application.QueryService.Submit(ctx, application.QueryQueue, *text, *email)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to submit query")
	}
	fmt.Printf("query %d submitted\n", uq.ID)
}

func runSeed(fs *flag.FlagSet, args []string) {
	source := fs.String("source", "", "Crawl source bucket, e.g. cs.sentimentron.co.uk")
	key := fs.String("key", "", "Archive key within the source bucket")
	kind := fs.String("kind", string(models.CrawlKindSQL), "Archive kind")
	fs.Parse(args)

	if *source == "" || *key == "" {
		fmt.Fprintln(os.Stderr, "seed: -source and -key are required")
		os.Exit(2)
	}

	application := setup()
	defer application.Close()

	id, err := application.TransferService.Seed(context.Background(), application.CrawlQueue,
		*source, *key, models.CrawlFileKind(*kind))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed crawl archive")
	}
	if id == 0 {
		fmt.Println("archive already registered")
		return
	}
	fmt.Printf("crawl file %d enqueued\n", id)
}

func runReprocess(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	application := setup()
	defer application.Close()

	count, err := application.Scheduler.Sweep(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("Reprocess sweep failed")
	}
	fmt.Printf("%d articles requeued\n", count)
}

func runWarmCache(fs *flag.FlagSet, args []string) {
	domains := fs.String("domains", "", "Comma-separated domain LIKE patterns to warm (empty = all)")
	fs.Parse(args)
	application := setup()
	defer application.Close()

	ctx := context.Background()
	keywords, err := application.Cache.WarmKeywords(ctx, application.StorageManager.Keywords())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to warm keyword cache")
	}

	var patterns []string
	if *domains != "" {
		patterns = strings.Split(*domains, ",")
	}
	domainCount, err := application.Cache.WarmDomains(ctx, application.StorageManager.Domains(), patterns)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to warm domain cache")
	}
	fmt.Printf("%d keywords and %d domains cached\n", keywords, domainCount)
}
