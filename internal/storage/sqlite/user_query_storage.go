package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// UserQueryStorage tracks submitted user queries and their lifecycle.
type UserQueryStorage struct {
	db     *DB
	logger arbor.ILogger
}

// GetOrCreateQuery returns the query row for a normalized query text,
// inserting it on first submission. Query text is unique, so resubmitting
// returns the earlier row.
func (s *UserQueryStorage) GetOrCreateQuery(ctx context.Context, text, email string) (*models.UserQuery, error) {
	if _, err := s.db.DB().ExecContext(ctx, `
		INSERT OR IGNORE INTO user_queries (text, created_at, email)
		VALUES (?, ?, ?)`, text, time.Now().Unix(), email); err != nil {
		return nil, fmt.Errorf("insert user query: %w", err)
	}

	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, text, created_at, fulfilled_at, email, message, cancelled
		FROM user_queries WHERE text = ?`, text)
	q, err := scanUserQuery(row)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("user query %q vanished after insert", text)
	}
	return q, nil
}

// GetQuery loads a query by id.
func (s *UserQueryStorage) GetQuery(ctx context.Context, id int64) (*models.UserQuery, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, text, created_at, fulfilled_at, email, message, cancelled
		FROM user_queries WHERE id = ?`, id)
	return scanUserQuery(row)
}

func scanUserQuery(row *sql.Row) (*models.UserQuery, error) {
	q := &models.UserQuery{}
	var created int64
	var fulfilled sql.NullInt64
	var email, message sql.NullString
	var cancelled int
	err := row.Scan(&q.ID, &q.Text, &created, &fulfilled, &email, &message, &cancelled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user query: %w", err)
	}
	q.CreatedAt = time.Unix(created, 0).UTC()
	if fulfilled.Valid {
		t := time.Unix(fulfilled.Int64, 0).UTC()
		q.FulfilledAt = &t
	}
	q.Email = email.String
	q.Message = message.String
	q.Cancelled = cancelled != 0
	return q, nil
}

// MarkFulfilled records the fulfilment time of a query.
func (s *UserQueryStorage) MarkFulfilled(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.DB().ExecContext(ctx,
		`UPDATE user_queries SET fulfilled_at = ? WHERE id = ?`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark query %d fulfilled: %w", id, err)
	}
	return nil
}

// SetMessage attaches a status message to a query, optionally cancelling
// it so workers stop retrying.
func (s *UserQueryStorage) SetMessage(ctx context.Context, id int64, message string, cancelled bool) error {
	_, err := s.db.DB().ExecContext(ctx,
		`UPDATE user_queries SET message = ?, cancelled = ? WHERE id = ?`,
		message, boolToInt(cancelled), id)
	if err != nil {
		return fmt.Errorf("set query %d message: %w", id, err)
	}
	return nil
}
