package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dispatchsvc/internal/config"
	"dispatchsvc/internal/domain"
	"dispatchsvc/internal/engine"
	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/scorer"
	"dispatchsvc/internal/store"
	"dispatchsvc/internal/testutil"
)

func testEngineConfig() config.Engine {
	return config.Engine{
		MaxAttempts:   5,
		BackoffBase:   10 * time.Millisecond,
		BackoffCap:    40 * time.Millisecond,
		ShutdownDrain: 200 * time.Millisecond,
	}
}

func mustCreateCourier(t *testing.T, s *store.Store, in domain.CourierInput) domain.Courier {
	t.Helper()
	c, err := s.CreateCourier(in)
	require.NoError(t, err)
	return c
}

func mustCreateOrder(t *testing.T, s *store.Store, in domain.OrderInput) domain.Order {
	t.Helper()
	o, err := s.CreateOrder(in, time.Now())
	require.NoError(t, err)
	return o
}

// TestEngine_S1_SingleObviousMatch assigns one order to the single eligible
// courier and publishes an event.
func TestEngine_S1_SingleObviousMatch(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)
	sub := bus.Subscribe()
	defer sub.Close()

	c1 := mustCreateCourier(t, st, domain.CourierInput{
		Name:     "C1",
		Location: domain.Location{Lat: 52.52, Lng: 13.405},
		Capacity: 5,
		Rating:   4.8,
	})
	o1 := mustCreateOrder(t, st, domain.OrderInput{
		Pickup:   domain.Location{Lat: 52.51, Lng: 13.39},
		Dropoff:  domain.Location{Lat: 52.54, Lng: 13.42},
		Priority: domain.PriorityUrgent,
	})

	eng := engine.New(st, q, bus, scorer.Score, logx.Nop(), testEngineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, o1.ID))

	select {
	case evt := <-sub.Events():
		require.Equal(t, "success", evt.Outcome)
		require.Equal(t, o1.ID, evt.Assignment.OrderID)
		require.Equal(t, c1.ID, evt.Assignment.CourierID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for assignment event")
	}

	got, err := st.GetCourier(c1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.CurrentLoad)

	gotOrder, err := st.GetOrder(o1.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderAssigned, gotOrder.Status)
}

// TestEngine_LogsSuccessfulAssignment verifies the engine logs an
// "order assigned" entry carrying the order and courier ids.
func TestEngine_LogsSuccessfulAssignment(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)

	c1 := mustCreateCourier(t, st, domain.CourierInput{
		Name:     "C1",
		Location: domain.Location{Lat: 52.52, Lng: 13.405},
		Capacity: 5,
		Rating:   4.8,
	})
	o1 := mustCreateOrder(t, st, domain.OrderInput{
		Pickup:   domain.Location{Lat: 52.51, Lng: 13.39},
		Dropoff:  domain.Location{Lat: 52.54, Lng: 13.42},
		Priority: domain.PriorityUrgent,
	})

	rec := testlog.New()
	eng := engine.New(st, q, bus, scorer.Score, rec.Logger(), testEngineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, o1.ID))

	require.Eventually(t, func() bool {
		for _, e := range rec.Entries() {
			if e.Msg != "order assigned" {
				continue
			}
			var hasOrder, hasCourier bool
			for _, f := range e.Fields {
				if f.Key == "order_id" && f.Value == o1.ID.String() {
					hasOrder = true
				}
				if f.Key == "courier_id" && f.Value == c1.ID.String() {
					hasCourier = true
				}
			}
			if hasOrder && hasCourier {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "expected an \"order assigned\" log entry for this order/courier pair")
}

// TestEngine_S2_NoCouriersKeepsRetrying verifies an order with no eligible
// couriers stays pending and its attempts counter grows via backoff
// requeues.
func TestEngine_S2_NoCouriersKeepsRetrying(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)

	o1 := mustCreateOrder(t, st, domain.OrderInput{
		Pickup:   domain.Location{Lat: 1, Lng: 1},
		Dropoff:  domain.Location{Lat: 2, Lng: 2},
		Priority: domain.PriorityNormal,
	})

	eng := engine.New(st, q, bus, scorer.Score, logx.Nop(), testEngineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, o1.ID))

	require.Eventually(t, func() bool {
		got, err := st.GetOrder(o1.ID)
		return err == nil && got.Attempts >= 2
	}, 500*time.Millisecond, 10*time.Millisecond)

	got, err := st.GetOrder(o1.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, got.Status)
}

// TestEngine_S3_CapacityExhausted assigns only as many orders as the sole
// courier has remaining capacity; the rest stay pending.
func TestEngine_S3_CapacityExhausted(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)
	sub := bus.Subscribe()
	defer sub.Close()

	c1 := mustCreateCourier(t, st, domain.CourierInput{
		Name:     "C1",
		Location: domain.Location{Lat: 52.52, Lng: 13.405},
		Capacity: 1,
		Rating:   5.0,
	})

	pickup := domain.Location{Lat: 52.52, Lng: 13.405}
	orders := make([]domain.Order, 3)
	for i := range orders {
		orders[i] = mustCreateOrder(t, st, domain.OrderInput{
			Pickup:   pickup,
			Dropoff:  domain.Location{Lat: 52.6, Lng: 13.5},
			Priority: domain.PriorityUrgent,
		})
	}

	eng := engine.New(st, q, bus, scorer.Score, logx.Nop(), testEngineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	for _, o := range orders {
		require.NoError(t, q.Enqueue(ctx, o.ID))
	}

	select {
	case evt := <-sub.Events():
		require.Equal(t, c1.ID, evt.Assignment.CourierID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the single assignment")
	}

	require.Eventually(t, func() bool {
		for _, o := range orders[1:] {
			got, err := st.GetOrder(o.ID)
			if err != nil || got.Attempts < 1 {
				return false
			}
		}
		return true
	}, 500*time.Millisecond, 10*time.Millisecond)

	assignedCount := 0
	pendingCount := 0
	for _, o := range orders {
		got, err := st.GetOrder(o.ID)
		require.NoError(t, err)
		switch got.Status {
		case domain.OrderAssigned:
			assignedCount++
		case domain.OrderPending:
			pendingCount++
		}
	}
	require.Equal(t, 1, assignedCount)
	require.Equal(t, 2, pendingCount)

	gotCourier, err := st.GetCourier(c1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, gotCourier.CurrentLoad)
}

// TestEngine_S4_TieBreakByIDWhenEquidistant verifies that when two
// couriers score identically, the lexicographically smaller courier id
// wins.
func TestEngine_S4_TieBreakByIDWhenEquidistant(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)
	sub := bus.Subscribe()
	defer sub.Close()

	loc := domain.Location{Lat: 52.52, Lng: 13.405}

	var couriers []domain.Courier
	for i := 0; i < 2; i++ {
		couriers = append(couriers, mustCreateCourier(t, st, domain.CourierInput{
			Name:     "courier",
			Location: loc,
			Capacity: 5,
			Rating:   4.5,
		}))
	}

	wantID := couriers[0].ID
	if couriers[1].ID.String() < couriers[0].ID.String() {
		wantID = couriers[1].ID
	}

	o := mustCreateOrder(t, st, domain.OrderInput{
		Pickup:   loc,
		Dropoff:  domain.Location{Lat: 52.6, Lng: 13.5},
		Priority: domain.PriorityNormal,
	})

	eng := engine.New(st, q, bus, scorer.Score, logx.Nop(), testEngineConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, o.ID))

	select {
	case evt := <-sub.Events():
		require.Equal(t, wantID, evt.Assignment.CourierID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tie-break assignment")
	}
}

// TestEngine_MaxAttemptsExceeded_MarksOrderFailed drives an unassignable
// order past its attempt cap and checks the terminal failure outcome.
func TestEngine_MaxAttemptsExceeded_MarksOrderFailed(t *testing.T) {
	t.Parallel()

	st := store.New()
	q := queue.New(8)
	bus := eventbus.New(8)
	sub := bus.Subscribe()
	defer sub.Close()

	o := mustCreateOrder(t, st, domain.OrderInput{
		Pickup:   domain.Location{Lat: 1, Lng: 1},
		Dropoff:  domain.Location{Lat: 2, Lng: 2},
		Priority: domain.PriorityLow,
	})

	cfg := testEngineConfig()
	cfg.MaxAttempts = 2
	cfg.BackoffBase = 5 * time.Millisecond
	cfg.BackoffCap = 10 * time.Millisecond

	eng := engine.New(st, q, bus, scorer.Score, logx.Nop(), cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = eng.Run(ctx) }()

	require.NoError(t, q.Enqueue(ctx, o.ID))

	require.Eventually(t, func() bool {
		got, err := st.GetOrder(o.ID)
		return err == nil && got.Status == domain.OrderFailed
	}, time.Second, 10*time.Millisecond)
}
