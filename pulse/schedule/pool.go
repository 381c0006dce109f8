package schedule

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pool is the bounded evaluation pool (§4.F): a fixed number of
// evaluations run concurrently, and the rate at which new ones are
// admitted is throttled so a tick with many newly-eligible triggers
// cannot flood the runtime in a single instant. The at-most-one-running
// constraint per trigger is enforced upstream by the eligibility filter's
// running gate, not by the pool itself.
type Pool struct {
	sem     chan struct{}
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// NewPool builds a pool bounded to concurrency simultaneous evaluations,
// admitting new dispatches at dispatchRate per second with the given
// burst allowance.
func NewPool(concurrency int, dispatchRate rate.Limit, burst int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		sem:     make(chan struct{}, concurrency),
		limiter: rate.NewLimiter(dispatchRate, burst),
	}
}

// Submit runs task in a pooled goroutine. The call blocks only long
// enough to acquire a rate-limiter token and a concurrency slot; it does
// not wait for task to finish.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		task()
	}()

	return nil
}

// Wait blocks until every dispatched task has returned. Close does not
// call this — in-flight evaluations are allowed to run to completion
// independent of the driver's lifetime (§4.K) — but tests use it to
// observe a tick's full effect.
func (p *Pool) Wait() {
	p.wg.Wait()
}
