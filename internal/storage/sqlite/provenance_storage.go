package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// ProvenanceStorage interns software version strings.
type ProvenanceStorage struct {
	db     *DB
	logger arbor.ILogger
}

// GetOrCreateVersion resolves a version string to its row, inserting it on
// first sight.
func (s *ProvenanceStorage) GetOrCreateVersion(ctx context.Context, version string) (*models.SoftwareVersion, error) {
	if _, err := s.db.DB().ExecContext(ctx,
		`INSERT OR IGNORE INTO software_versions (version) VALUES (?)`, version); err != nil {
		return nil, fmt.Errorf("insert software version %q: %w", version, err)
	}

	sv := &models.SoftwareVersion{}
	err := s.db.DB().QueryRowContext(ctx,
		`SELECT id, version FROM software_versions WHERE version = ?`, version).
		Scan(&sv.ID, &sv.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("software version %q vanished after insert", version)
	}
	if err != nil {
		return nil, fmt.Errorf("get software version %q: %w", version, err)
	}
	return sv, nil
}
