// Package sqlite implements the relational store behind Sentropy's data
// model on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"github.com/Sentimentron/sentropy/internal/common"
)

// DB manages the SQLite database connection.
type DB struct {
	db     *sql.DB
	logger arbor.ILogger
	config *common.StorageConfig
}

// Open creates a new SQLite database connection, applies pragmas, and
// creates the schema if it does not exist.
func Open(logger arbor.ILogger, config *common.StorageConfig) (*DB, error) {
	dir := filepath.Dir(config.SQLitePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// modernc.org/sqlite registers the driver as "sqlite", not "sqlite3"
	db, err := sql.Open("sqlite", config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &DB{
		db:     db,
		logger: logger,
		config: config,
	}

	if err := s.configure(); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info().Str("path", config.SQLitePath).Msg("SQLite database initialized")
	return s, nil
}

func (s *DB) configure() error {
	cacheKB := s.config.CacheSizeMB * 1024
	if cacheKB <= 0 {
		cacheKB = 64 * 1024
	}
	busyMS := s.config.BusyTimeoutMS
	if busyMS <= 0 {
		busyMS = 5000
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = -%d", cacheKB),
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyMS),
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	if s.config.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *DB) createSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}

// DB returns the underlying database connection.
func (s *DB) DB() *sql.DB {
	return s.db
}

// BeginTx starts a new transaction.
func (s *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Ping verifies the database connection.
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
