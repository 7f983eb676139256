package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// InProcessQueue runs jobs on worker goroutines inside the API binary.
// It exists so a deployment without Kafka still processes articles; the
// interface is identical so callers never branch.
type InProcessQueue struct {
	jobs      chan Job
	processor Processor

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewInProcessQueue(processor Processor, workers, buffer int) *InProcessQueue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &InProcessQueue{
		jobs:      make(chan Job, buffer),
		processor: processor,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	return q
}

func (q *InProcessQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := q.processor(ctx, job); err != nil {
				log.Printf("processing article %s failed: %v", job.ArticleID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Enqueue blocks while the buffer is full rather than dropping jobs.
// The read lock spans the send so Close cannot close the channel under a
// blocked sender.
func (q *InProcessQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (q *InProcessQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	return nil
}
