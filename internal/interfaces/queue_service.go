package interfaces

import (
	"context"
	"time"
)

// QueueManager provides operations over one named id queue. Message bodies
// are entity ids in decimal.
type QueueManager interface {
	// Enqueue adds an id to the queue.
	Enqueue(ctx context.Context, id int64) error

	// Receive pulls the next visible id. The returned delete function
	// acknowledges the message; the extend function prolongs its visibility
	// timeout for long-running work. Returns queue.ErrNoMessage when empty.
	Receive(ctx context.Context) (int64, *QueueReceipt, error)

	// Close releases the queue's resources.
	Close() error
}

// QueueReceipt carries the acknowledgement handles for one received message.
type QueueReceipt struct {
	// Delete acknowledges the message so it is never redelivered.
	Delete func() error

	// Extend prolongs the message's visibility timeout.
	Extend func(ctx context.Context, d time.Duration) error
}
