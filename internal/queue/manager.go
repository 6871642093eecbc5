package queue

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"maragu.dev/goqite"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// ErrNoMessage is returned when the queue is empty.
var ErrNoMessage = errors.New("no messages in queue")

var _ interfaces.QueueManager = (*Manager)(nil)

// Manager is a thin wrapper around goqite carrying integer record ids as
// decimal message bodies. It provides only queue operations, no business
// logic.
type Manager struct {
	q                 *goqite.Queue
	visibilityTimeout time.Duration
}

// NewManager creates a queue manager over an existing SQLite handle. The
// first manager on a database creates the goqite tables.
func NewManager(db *sql.DB, queueName string, visibilityTimeout time.Duration, maxReceive int) (*Manager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := goqite.Setup(ctx, db); err != nil {
		// Expected on subsequent startups.
		if !strings.Contains(err.Error(), "already exists") {
			return nil, err
		}
	}

	q := goqite.New(goqite.NewOpts{
		DB:         db,
		Name:       queueName,
		Timeout:    visibilityTimeout,
		MaxReceive: maxReceive,
	})

	return &Manager{q: q, visibilityTimeout: visibilityTimeout}, nil
}

// Enqueue adds a record id to the queue.
func (m *Manager) Enqueue(ctx context.Context, id int64) error {
	return m.q.Send(ctx, goqite.Message{
		Body: []byte(strconv.FormatInt(id, 10)),
	})
}

// Receive pulls the next record id from the queue. The returned receipt
// deletes the message after successful processing, or extends its
// visibility for long-running work. An unhandled message reappears after
// the visibility timeout.
func (m *Manager) Receive(ctx context.Context) (int64, *interfaces.QueueReceipt, error) {
	gMsg, err := m.q.Receive(ctx)
	if err != nil {
		return 0, nil, err
	}
	if gMsg == nil {
		return 0, nil, ErrNoMessage
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(gMsg.Body)), 10, 64)
	if err != nil {
		// Malformed body, drop the message so it cannot wedge the queue.
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.q.Delete(deleteCtx, gMsg.ID)
		return 0, nil, err
	}

	receipt := &interfaces.QueueReceipt{
		// Fresh context so deletion still works when the Receive context
		// has expired.
		Delete: func() error {
			deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return m.q.Delete(deleteCtx, gMsg.ID)
		},
		Extend: func(ctx context.Context, d time.Duration) error {
			return m.q.Extend(ctx, gMsg.ID, d)
		},
	}

	return id, receipt, nil
}

// Close closes the queue manager.
func (m *Manager) Close() error {
	// goqite doesn't require explicit close, kept for symmetry.
	return nil
}
