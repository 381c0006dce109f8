package execution

import (
	"context"
	"sync"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
)

// Queue is the outbound execution queue: asynchronous, best-effort-at-
// least-once upstream of the scheduler's commit. Subscribers receive a
// copy of every emitted execution; a slow or absent subscriber never
// blocks the emitter (mirrors the non-blocking notifySubscribers pattern
// used for async job updates).
type Queue struct {
	mu          sync.RWMutex
	subscribers []chan Execution
	closed      bool
}

// NewQueue creates an empty in-memory execution queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Emit pushes an execution onto the queue. It returns an error once the
// queue has been closed — callers (the result handler) must surface that
// as an evaluation failure per the persist-before-emit contract.
func (q *Queue) Emit(ctx context.Context, e Execution) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.Newf("execution queue closed, dropping execution %s", e.ID)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "emit cancelled")
	default:
	}

	for _, ch := range q.subscribers {
		select {
		case ch <- e:
		default:
			logger.SchedulerWarnw("subscriber channel full, dropping execution notification",
				"execution_id", e.ID, "namespace", e.Namespace, "flow_id", e.FlowID)
		}
	}

	return nil
}

// Subscribe registers a channel that receives a copy of every emitted
// execution from this point forward.
func (q *Queue) Subscribe(buffer int) chan Execution {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan Execution, buffer)
	q.subscribers = append(q.subscribers, ch)
	return ch
}

// Unsubscribe removes a previously subscribed channel and closes it.
func (q *Queue) Unsubscribe(ch chan Execution) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, sub := range q.subscribers {
		if sub == ch {
			q.subscribers = append(q.subscribers[:i], q.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close marks the queue closed. In-flight evaluations may still observe a
// closed queue; their result handlers must surface the emit as a failure
// rather than a panic (§4.K).
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for _, ch := range q.subscribers {
		close(ch)
	}
	q.subscribers = nil
}
