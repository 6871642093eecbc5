package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// fakeQueue hands out a fixed list of ids and records deletions.
type fakeQueue struct {
	mu      sync.Mutex
	pending []int64
	deleted []int64
}

func (f *fakeQueue) Enqueue(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, id)
	return nil
}

func (f *fakeQueue) Receive(ctx context.Context) (int64, *interfaces.QueueReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return 0, nil, ErrNoMessage
	}
	id := f.pending[0]
	f.pending = f.pending[1:]
	receipt := &interfaces.QueueReceipt{
		Delete: func() error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.deleted = append(f.deleted, id)
			return nil
		},
		Extend: func(ctx context.Context, d time.Duration) error { return nil },
	}
	return id, receipt, nil
}

func (f *fakeQueue) Close() error { return nil }

func (f *fakeQueue) deletedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.deleted...)
}

func TestWorkerPool_ProcessesAndAcknowledges(t *testing.T) {
	queue := &fakeQueue{pending: []int64{1, 2, 3}}

	var mu sync.Mutex
	var handled []int64
	handler := func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, id)
		return nil
	}

	pool := NewWorkerPool(context.Background(), "test", queue, handler, 2, 5*time.Millisecond, arbor.NewLogger())
	pool.Start()
	defer pool.Stop()

	require.Eventually(t, func() bool {
		return len(queue.deletedIDs()) == 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int64{1, 2, 3}, handled)
	assert.ElementsMatch(t, []int64{1, 2, 3}, queue.deletedIDs())
}

func TestWorkerPool_FailedHandlerLeavesMessage(t *testing.T) {
	queue := &fakeQueue{pending: []int64{9}}

	var handledOnce sync.WaitGroup
	handledOnce.Add(1)
	var once sync.Once
	handler := func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error {
		once.Do(handledOnce.Done)
		return errors.New("transient failure")
	}

	pool := NewWorkerPool(context.Background(), "test", queue, handler, 1, 5*time.Millisecond, arbor.NewLogger())
	pool.Start()
	defer pool.Stop()

	handledOnce.Wait()
	// The failed message is never acknowledged.
	assert.Empty(t, queue.deletedIDs())
}

func TestWorkerPool_StopHaltsWorkers(t *testing.T) {
	queue := &fakeQueue{}
	handler := func(ctx context.Context, id int64, receipt *interfaces.QueueReceipt) error { return nil }

	pool := NewWorkerPool(context.Background(), "test", queue, handler, 2, 5*time.Millisecond, arbor.NewLogger())
	pool.Start()
	pool.Stop()

	// Messages enqueued after Stop are never picked up.
	require.NoError(t, queue.Enqueue(context.Background(), 5))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, queue.deletedIDs())
}
