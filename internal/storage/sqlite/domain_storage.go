package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// DomainStorage manages unique domains.
type DomainStorage struct {
	db     *DB
	logger arbor.ILogger
}

// GetDomainByKey returns the domain with the given key, or nil.
func (s *DomainStorage) GetDomainByKey(ctx context.Context, key string) (*models.Domain, error) {
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT id, key, first_seen FROM domains WHERE key = ?`, key)
	return scanDomain(row)
}

// GetDomain loads a domain by id.
func (s *DomainStorage) GetDomain(ctx context.Context, id int64) (*models.Domain, error) {
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT id, key, first_seen FROM domains WHERE id = ?`, id)
	return scanDomain(row)
}

func scanDomain(row *sql.Row) (*models.Domain, error) {
	d := &models.Domain{}
	var seen int64
	err := row.Scan(&d.ID, &d.Key, &seen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan domain: %w", err)
	}
	d.FirstSeen = time.Unix(seen, 0).UTC()
	return d, nil
}

// InsertDomainIgnore inserts a domain row if absent. Uniqueness on the key
// column makes concurrent inserts race-safe; callers re-read to learn the
// winning row's id.
func (s *DomainStorage) InsertDomainIgnore(ctx context.Context, key string, firstSeen time.Time) error {
	_, err := s.db.DB().ExecContext(ctx,
		`INSERT OR IGNORE INTO domains (key, first_seen) VALUES (?, ?)`,
		key, firstSeen.Unix())
	if err != nil {
		return fmt.Errorf("insert domain %q: %w", key, err)
	}
	return nil
}

// FindDomainsLike returns domains whose key matches a SQL LIKE pattern.
func (s *DomainStorage) FindDomainsLike(ctx context.Context, pattern string) ([]*models.Domain, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, key, first_seen FROM domains WHERE key LIKE ?`, pattern)
	if err != nil {
		return nil, fmt.Errorf("find domains like %q: %w", pattern, err)
	}
	defer rows.Close()

	var domains []*models.Domain
	for rows.Next() {
		d := &models.Domain{}
		var seen int64
		if err := rows.Scan(&d.ID, &d.Key, &seen); err != nil {
			return nil, err
		}
		d.FirstSeen = time.Unix(seen, 0).UTC()
		domains = append(domains, d)
	}
	return domains, rows.Err()
}
