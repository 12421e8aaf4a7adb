package notify

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process Queue backed by a buffered channel.
// Publish never blocks; a full buffer returns ErrQueueFull.
type MemoryQueue struct {
	intents   chan Intent
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		intents: make(chan Intent, size),
		done:    make(chan struct{}),
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, intent Intent) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.intents <- intent:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Receive(ctx context.Context) (Intent, error) {
	select {
	case intent := <-q.intents:
		return intent, nil
	case <-q.done:
		// Drain what was published before Close.
		select {
		case intent := <-q.intents:
			return intent, nil
		default:
			return Intent{}, ErrQueueClosed
		}
	case <-ctx.Done():
		return Intent{}, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

func (q *MemoryQueue) Len() int {
	return len(q.intents)
}
