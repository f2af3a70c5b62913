// Package engine runs the single assignment loop: dequeue an order,
// score every eligible courier against it, commit the best candidate, and
// publish the outcome. It is the only writer of order/courier state that
// is not a direct response to an ingress request.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatchsvc/internal/config"
	"dispatchsvc/internal/domain"
	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/metrics"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/store"
)

// ScoreFunc ranks a courier against an order; swappable in tests.
type ScoreFunc func(courier domain.Courier, order domain.Order) float64

// Engine owns the single dequeue-score-commit loop.
type Engine struct {
	store  *store.Store
	queue  *queue.OrderQueue
	bus    *eventbus.Bus
	score  ScoreFunc
	logger logx.Logger
	cfg    config.Engine

	wg sync.WaitGroup
}

// New builds an Engine. scoreFn is called for every eligible courier and
// must not be nil; the composition root passes scorer.Score, and tests may
// substitute a deterministic function.
func New(st *store.Store, q *queue.OrderQueue, bus *eventbus.Bus, scoreFn ScoreFunc, logger logx.Logger, cfg config.Engine) *Engine {
	return &Engine{
		store:  st,
		queue:  q,
		bus:    bus,
		score:  scoreFn,
		logger: logger,
		cfg:    cfg,
	}
}

// Run drives the assignment loop until ctx is canceled. On cancellation it
// stops pulling new orders from the queue immediately and waits up to
// cfg.ShutdownDrain for any in-flight backoff requeues to settle before
// returning.
func (e *Engine) Run(ctx context.Context) error {
	for {
		orderID, ok := e.queue.Dequeue(ctx)
		if !ok {
			e.drain()
			return ctx.Err()
		}
		e.process(ctx, orderID)
	}
}

func (e *Engine) drain() {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.cfg.ShutdownDrain):
		e.logger.Warn("engine shutdown drain window elapsed with goroutines still pending")
	}

	e.bus.Close()
}

func (e *Engine) process(ctx context.Context, orderID uuid.UUID) {
	order, err := e.store.GetOrder(orderID)
	if err != nil {
		// Order vanished (should not happen; nothing else deletes orders).
		return
	}
	if order.Status != domain.OrderPending {
		// Already terminal; a duplicate or stale queue entry.
		return
	}

	if err := e.store.IncrementAttempts(orderID); err != nil {
		return
	}
	order, err = e.store.GetOrder(orderID)
	if err != nil {
		return
	}

	couriers := e.store.ListCouriers(nil, nil)
	best, bestScore, found := e.pickBest(couriers, order)
	if !found {
		if order.Attempts >= e.cfg.MaxAttempts {
			e.fail(order)
			return
		}
		e.requeueWithBackoff(ctx, orderID, order.Attempts)
		return
	}

	t0 := time.Now()
	assignment, err := e.store.TryCommitAssignment(orderID, best.ID, bestScore, time.Now())
	dt := time.Since(t0)
	switch {
	case err == nil:
		e.succeed(order, best, assignment, dt)
	case errors.Is(err, store.ErrCourierUnavailable):
		// Stale snapshot: the courier was taken by a racing commit between
		// our scoring pass and TryCommitAssignment. Try again immediately,
		// no backoff, since this is not capacity exhaustion. Attempts is
		// not capped on this path: a lost race means couriers exist, so it
		// retries forever rather than risking a spurious Failed order.
		e.requeueNow(ctx, orderID)
	case errors.Is(err, store.ErrOrderNotPending):
		// The order was resolved by another path; nothing further to do.
	default:
		e.logger.Error("unexpected commit error", logx.String("order_id", orderID.String()), logx.Any("error", err))
		e.requeueWithBackoff(ctx, orderID, order.Attempts)
	}
}

// pickBest selects the eligible courier with the highest score, breaking
// ties first by lower current_load, then by lexicographically smaller
// courier id, so the choice is deterministic across runs.
func (e *Engine) pickBest(couriers []domain.Courier, order domain.Order) (domain.Courier, float64, bool) {
	var (
		best      domain.Courier
		bestScore float64
		found     bool
	)

	for _, c := range couriers {
		if !c.Eligible() {
			continue
		}
		s := e.score(c, order)

		switch {
		case !found:
			best, bestScore, found = c, s, true
		case s > bestScore:
			best, bestScore = c, s
		case s == bestScore && c.CurrentLoad < best.CurrentLoad:
			best = c
		case s == bestScore && c.CurrentLoad == best.CurrentLoad && c.ID.String() < best.ID.String():
			best = c
		}
	}
	return best, bestScore, found
}

func (e *Engine) succeed(order domain.Order, courier domain.Courier, a domain.Assignment, commitDuration time.Duration) {
	metrics.IncAssignment(metrics.OutcomeSuccess)
	metrics.ObserveAssignmentLatency(metrics.OutcomeSuccess, commitDuration)
	metrics.SetCourierUtilization(courier.ID.String(), courier.CurrentLoad+1, courier.Capacity)

	updatedCourier := courier
	updatedCourier.CurrentLoad++
	updatedOrder := order
	updatedOrder.Status = domain.OrderAssigned

	e.bus.Publish(eventbus.AssignmentEvent{
		Assignment:      a,
		OrderSnapshot:   updatedOrder,
		CourierSnapshot: updatedCourier,
		Outcome:         metrics.OutcomeSuccess,
	})

	e.logger.Info("order assigned",
		logx.String("order_id", order.ID.String()),
		logx.String("courier_id", courier.ID.String()),
		logx.Any("score", a.Score),
	)
}

func (e *Engine) fail(order domain.Order) {
	_ = e.store.MarkFailed(order.ID)
	metrics.IncAssignment(metrics.OutcomeError)

	failedOrder := order
	failedOrder.Status = domain.OrderFailed

	e.bus.Publish(eventbus.AssignmentEvent{
		OrderSnapshot: failedOrder,
		Outcome:       metrics.OutcomeError,
	})

	e.logger.Warn("order failed: max attempts exceeded",
		logx.String("order_id", order.ID.String()),
		logx.Int("attempts", order.Attempts),
	)
}

// requeueWithBackoff schedules the order to be re-enqueued after an
// exponential delay capped at cfg.BackoffCap, without blocking the caller
// or the engine's main loop.
func (e *Engine) requeueWithBackoff(ctx context.Context, orderID uuid.UUID, attempts int) {
	delay := backoffDelay(e.cfg.BackoffBase, e.cfg.BackoffCap, attempts)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = e.queue.Enqueue(ctx, orderID)
		case <-ctx.Done():
		}
	}()
}

// requeueNow re-enqueues immediately, off the calling goroutine so the
// main loop never blocks on its own queue.
func (e *Engine) requeueNow(ctx context.Context, orderID uuid.UUID) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = e.queue.Enqueue(ctx, orderID)
	}()
}

// backoffDelay computes min(base*2^(attempts-1), capDelay).
func backoffDelay(base, capDelay time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts && d < capDelay; i++ {
		d *= 2
		if d > capDelay {
			d = capDelay
			break
		}
	}
	if d > capDelay {
		d = capDelay
	}
	return d
}
