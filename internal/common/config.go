package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string          `toml:"environment"`
	Storage     StorageConfig   `toml:"storage"`
	Queue       QueueConfig     `toml:"queue"`
	Extractor   ExtractorConfig `toml:"extractor"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Query       QueryConfig     `toml:"query"`
	Reprocess   ReprocessConfig `toml:"reprocess"`
	SMTP        SMTPConfig      `toml:"smtp"`
	Logging     LoggingConfig   `toml:"logging"`
}

type StorageConfig struct {
	SQLitePath    string `toml:"sqlite_path" validate:"required"`
	QueuePath     string `toml:"queue_path" validate:"required"`
	CachePath     string `toml:"cache_path" validate:"required"`
	ObjectRoot    string `toml:"object_root" validate:"required"`
	CacheSizeMB   int    `toml:"cache_size_mb"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`
	Concurrency       int    `toml:"concurrency" validate:"min=1"`
	VisibilityTimeout string `toml:"visibility_timeout"`
	MaxReceive        int    `toml:"max_receive" validate:"min=1"`
	CrawlQueue        string `toml:"crawl_queue"`
	ProcessQueue      string `toml:"process_queue"`
	QueryQueue        string `toml:"query_queue"`
}

// PollIntervalDuration returns the parsed poll interval, defaulting to 1s.
func (q QueueConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(q.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// VisibilityTimeoutDuration returns the parsed visibility timeout,
// defaulting to the 120s the queues are provisioned with.
func (q QueueConfig) VisibilityTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(q.VisibilityTimeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

type ExtractorConfig struct {
	URL         string `toml:"url" validate:"required"`
	Timeout     string `toml:"timeout"`
	RatePerSec  int    `toml:"rate_per_sec"`
	RateBurst   int    `toml:"rate_burst"`
	MaxBodySize int    `toml:"max_body_size"`
}

// TimeoutDuration returns the extractor request timeout, defaulting to 30s.
func (e ExtractorConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

type PipelineConfig struct {
	StopListPath   string   `toml:"stop_list_path"`
	Denylist       []string `toml:"denylist"`
	RetryLimit     int      `toml:"retry_limit" validate:"min=0"`
	ArticleTimeout string   `toml:"article_timeout"`
	KeywordLimit   int      `toml:"keyword_limit" validate:"min=1"`
}

// ArticleTimeoutDuration returns the per-article soft timeout, defaulting
// to 2 minutes to match the queue visibility timeout.
func (p PipelineConfig) ArticleTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.ArticleTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

type QueryConfig struct {
	ResultBucket      string `toml:"result_bucket"`
	CertainPosition   int    `toml:"certain_position"`
	UncertainPosition int    `toml:"uncertain_position"`
	UncertainYearMin  int    `toml:"uncertain_year_min"`
	UncertainYearMax  int    `toml:"uncertain_year_max"`
	StrictMinimum     int    `toml:"strict_minimum"`
	AutoSeedDomains   int    `toml:"auto_seed_domains"`
}

type ReprocessConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	UseTLS   bool   `toml:"use_tls"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"`
}

// DefaultConfig returns the baseline configuration before file and
// environment overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			SQLitePath:    "./data/sentropy.db",
			QueuePath:     "./data/queues.db",
			CachePath:     "./data/cache",
			ObjectRoot:    "./data/objects",
			CacheSizeMB:   64,
			BusyTimeoutMS: 5000,
			WALMode:       true,
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       4,
			VisibilityTimeout: "120s",
			MaxReceive:        3,
			CrawlQueue:        "crawl-queue",
			ProcessQueue:      "process-queue",
			QueryQueue:        "query-queue",
		},
		Extractor: ExtractorConfig{
			URL:        "http://localhost:8080/extract",
			Timeout:    "30s",
			RatePerSec: 4,
			RateBurst:  8,
		},
		Pipeline: PipelineConfig{
			StopListPath:   "keyword_filter.txt",
			Denylist:       []string{"nasa.gov"},
			RetryLimit:     2,
			ArticleTimeout: "2m",
			KeywordLimit:   32,
		},
		Query: QueryConfig{
			ResultBucket:      "results.sentimentron.co.uk",
			CertainPosition:   346,
			UncertainPosition: 307,
			UncertainYearMin:  2001,
			UncertainYearMax:  2009,
			StrictMinimum:     100,
			AutoSeedDomains:   5,
		},
		Reprocess: ReprocessConfig{
			Enabled:  false,
			Schedule: "0 */6 * * *",
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Sentropy",
			UseTLS:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each file in order
// (later files override earlier ones), then environment variables.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies SENTROPY_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SENTROPY_DB_PATH"); v != "" {
		config.Storage.SQLitePath = v
	}
	if v := os.Getenv("SENTROPY_QUEUE_PATH"); v != "" {
		config.Storage.QueuePath = v
	}
	if v := os.Getenv("SENTROPY_CACHE_PATH"); v != "" {
		config.Storage.CachePath = v
	}
	if v := os.Getenv("SENTROPY_OBJECT_ROOT"); v != "" {
		config.Storage.ObjectRoot = v
	}
	if v := os.Getenv("SENTROPY_EXTRACTOR_URL"); v != "" {
		config.Extractor.URL = v
	}
	if v := os.Getenv("SENTROPY_STOP_LIST"); v != "" {
		config.Pipeline.StopListPath = v
	}
	if v := os.Getenv("SENTROPY_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SENTROPY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Queue.Concurrency = n
		}
	}
	if v := os.Getenv("SENTROPY_SMTP"); v != "" {
		// host:port shorthand for deployments that only override the relay
		host, port, ok := strings.Cut(v, ":")
		config.SMTP.Host = host
		if ok {
			if n, err := strconv.Atoi(port); err == nil {
				config.SMTP.Port = n
			}
		}
	}
}
