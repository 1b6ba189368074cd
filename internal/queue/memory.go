package queue

import (
	"context"
	"sync"
	"time"

	"github.com/filesmanager/backend/pkg/logger"
)

// MemoryBroker keeps queues as buffered channels inside one process. Used when
// the worker runs alongside the API and in tests.
type MemoryBroker struct {
	mu         sync.Mutex
	bufferSize int
	queues     map[string]chan []byte
	closed     bool
}

func NewMemoryBroker(bufferSize int) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &MemoryBroker{bufferSize: bufferSize, queues: map[string]chan []byte{}}
}

func (b *MemoryBroker) channel(queue string) (chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	ch, ok := b.queues[queue]
	if !ok {
		ch = make(chan []byte, b.bufferSize)
		b.queues[queue] = ch
	}
	return ch, nil
}

func (b *MemoryBroker) Push(ctx context.Context, queue string, payload []byte) error {
	ch, err := b.channel(queue)
	if err != nil {
		return err
	}
	select {
	case ch <- payload:
		return nil
	default:
		logger.Warn("queue_full", map[string]interface{}{
			"queue":       queue,
			"buffer_size": b.bufferSize,
		})
		return ErrQueueFull
	}
}

func (b *MemoryBroker) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	ch, err := b.channel(queue)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-ch:
		return payload, nil
	case <-timer.C:
		return nil, ErrEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of buffered payloads in queue.
func (b *MemoryBroker) Len(queue string) int {
	ch, err := b.channel(queue)
	if err != nil {
		return 0
	}
	return len(ch)
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
