// Package store is the in-memory, concurrency-safe repository of couriers,
// orders and assignments. Every collection is keyed by id with per-entry
// locking; there is no store-wide lock. The only cross-entity critical
// section is TryCommitAssignment, which always locks the courier entry
// before the order entry, to avoid deadlock with any future multi-entry
// operation that might be added.
//
// All state is lost on process restart; this is an accepted design
// property, not a defect (see DESIGN.md).
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dispatchsvc/internal/domain"
)

// courierEntry wraps a courier behind its own mutex. seq records insertion
// order so ListCouriers can page deterministically despite couriers being
// keyed by a non-sequential uuid.
type courierEntry struct {
	mu  sync.Mutex
	c   domain.Courier
	seq int64
}

// orderEntry wraps an order behind its own mutex.
type orderEntry struct {
	mu sync.Mutex
	o  domain.Order
}

// Store holds the three collections. The top-level maps are guarded by a
// RWMutex that protects only map structure (insertion, lookup-for-pointer);
// it is never held while mutating an entry's fields, so unrelated couriers
// and orders never serialize against each other.
type Store struct {
	couriersMu sync.RWMutex
	couriers   map[uuid.UUID]*courierEntry
	courierSeq int64

	ordersMu sync.RWMutex
	orders   map[uuid.UUID]*orderEntry

	assignmentsMu sync.RWMutex
	assignments   []domain.Assignment
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		couriers: make(map[uuid.UUID]*courierEntry),
		orders:   make(map[uuid.UUID]*orderEntry),
	}
}

// CreateCourier assigns an id and stores the courier.
func (s *Store) CreateCourier(in domain.CourierInput) (domain.Courier, error) {
	c, err := domain.NewCourier(in)
	if err != nil {
		return domain.Courier{}, err
	}
	c.ID = uuid.New()

	s.couriersMu.Lock()
	s.courierSeq++
	s.couriers[c.ID] = &courierEntry{c: c, seq: s.courierSeq}
	s.couriersMu.Unlock()

	return c, nil
}

// GetCourier returns a snapshot copy of the courier, or domain.ErrNotFound.
func (s *Store) GetCourier(id uuid.UUID) (domain.Courier, error) {
	entry, ok := s.lookupCourier(id)
	if !ok {
		return domain.Courier{}, domain.ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.c, nil
}

// ListCouriers returns a snapshot of couriers ordered by insertion (creation)
// order, each entry's lock taken individually and released before moving to
// the next so this never blocks behind a single slow courier nor holds any
// lock while the caller (typically the engine's scoring pass) works on the
// result. limit/offset page the ordered result exactly as the teacher's
// repository does; either may be nil to mean "no bound".
func (s *Store) ListCouriers(limit, offset *int) []domain.Courier {
	s.couriersMu.RLock()
	entries := make([]*courierEntry, 0, len(s.couriers))
	for _, e := range s.couriers {
		entries = append(entries, e)
	}
	s.couriersMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]domain.Courier, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.c)
		e.mu.Unlock()
	}
	return paginate(out, limit, offset)
}

// paginate applies a nil-able limit/offset to an ordered slice, clamping
// both to the slice bounds the way SQL LIMIT/OFFSET would against a
// shorter-than-requested result set.
func paginate[T any](items []T, limit, offset *int) []T {
	start := 0
	if offset != nil {
		start = *offset
	}
	if start > len(items) {
		start = len(items)
	}
	items = items[start:]

	if limit != nil {
		n := *limit
		if n < 0 {
			n = 0
		}
		if n < len(items) {
			items = items[:n]
		}
	}
	return items
}

// PatchCourierStatus sets a courier's status under its entry lock.
func (s *Store) PatchCourierStatus(id uuid.UUID, status domain.CourierStatus) error {
	if !status.Valid() {
		return domain.ErrInvalid
	}
	entry, ok := s.lookupCourier(id)
	if !ok {
		return domain.ErrNotFound
	}
	entry.mu.Lock()
	entry.c.Status = status
	entry.mu.Unlock()
	return nil
}

// PatchCourierLocation sets a courier's location under its entry lock.
func (s *Store) PatchCourierLocation(id uuid.UUID, loc domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	entry, ok := s.lookupCourier(id)
	if !ok {
		return domain.ErrNotFound
	}
	entry.mu.Lock()
	entry.c.Location = loc
	entry.mu.Unlock()
	return nil
}

// CreateOrder assigns an id and created_at, and stores the order.
func (s *Store) CreateOrder(in domain.OrderInput, now time.Time) (domain.Order, error) {
	o, err := domain.NewOrder(in)
	if err != nil {
		return domain.Order{}, err
	}
	o.ID = uuid.New()
	o.CreatedAt = now

	s.ordersMu.Lock()
	s.orders[o.ID] = &orderEntry{o: o}
	s.ordersMu.Unlock()

	return o, nil
}

// GetOrder returns a snapshot copy of the order, or domain.ErrNotFound.
func (s *Store) GetOrder(id uuid.UUID) (domain.Order, error) {
	entry, ok := s.lookupOrder(id)
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.o, nil
}

// ListOrders returns a snapshot of all orders, entry-locked one at a time.
func (s *Store) ListOrders() []domain.Order {
	s.ordersMu.RLock()
	entries := make([]*orderEntry, 0, len(s.orders))
	for _, e := range s.orders {
		entries = append(entries, e)
	}
	s.ordersMu.RUnlock()

	out := make([]domain.Order, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.o)
		e.mu.Unlock()
	}
	return out
}

// IncrementAttempts bumps an order's attempt counter; called by the engine
// each time it dequeues the order, before scoring.
func (s *Store) IncrementAttempts(id uuid.UUID) error {
	entry, ok := s.lookupOrder(id)
	if !ok {
		return domain.ErrNotFound
	}
	entry.mu.Lock()
	entry.o.Attempts++
	entry.mu.Unlock()
	return nil
}

// MarkFailed transitions an order to Failed; called by the engine once
// attempts exceed the configured cap.
func (s *Store) MarkFailed(id uuid.UUID) error {
	entry, ok := s.lookupOrder(id)
	if !ok {
		return domain.ErrNotFound
	}
	entry.mu.Lock()
	entry.o.Status = domain.OrderFailed
	entry.mu.Unlock()
	return nil
}

// ListAssignments returns a snapshot of the assignment history, in commit
// order. The assignments collection is append-only; reads never block a
// concurrent append for longer than the copy itself takes.
func (s *Store) ListAssignments() []domain.Assignment {
	s.assignmentsMu.RLock()
	defer s.assignmentsMu.RUnlock()
	out := make([]domain.Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// ErrCourierUnavailable and ErrOrderNotPending are re-exported for callers
// that only import store, not domain, to check commit failure kinds.
var (
	ErrCourierUnavailable = domain.ErrCourierUnavailable
	ErrOrderNotPending    = domain.ErrOrderNotPending
)

// TryCommitAssignment is the critical section of the system: it re-reads
// courier and order state under their entry locks (courier lock acquired
// first, always) and, only if both are still eligible, creates the
// Assignment, flips the order to Assigned and increments the courier's
// load. The scoring pass that chose courierID ran on a lock-free snapshot
// taken before this call and may be stale; that staleness is exactly what
// this re-read guards against.
func (s *Store) TryCommitAssignment(orderID, courierID uuid.UUID, score float64, now time.Time) (domain.Assignment, error) {
	cEntry, ok := s.lookupCourier(courierID)
	if !ok {
		return domain.Assignment{}, domain.ErrNotFound
	}
	oEntry, ok := s.lookupOrder(orderID)
	if !ok {
		return domain.Assignment{}, domain.ErrNotFound
	}

	cEntry.mu.Lock()
	defer cEntry.mu.Unlock()

	if !cEntry.c.Eligible() {
		return domain.Assignment{}, domain.ErrCourierUnavailable
	}

	oEntry.mu.Lock()
	defer oEntry.mu.Unlock()

	if oEntry.o.Status != domain.OrderPending {
		return domain.Assignment{}, domain.ErrOrderNotPending
	}

	a := domain.Assignment{
		ID:         uuid.New(),
		OrderID:    orderID,
		CourierID:  courierID,
		Score:      score,
		AssignedAt: now,
	}

	oEntry.o.Status = domain.OrderAssigned
	cEntry.c.CurrentLoad++

	s.assignmentsMu.Lock()
	s.assignments = append(s.assignments, a)
	s.assignmentsMu.Unlock()

	return a, nil
}

func (s *Store) lookupCourier(id uuid.UUID) (*courierEntry, bool) {
	s.couriersMu.RLock()
	defer s.couriersMu.RUnlock()
	e, ok := s.couriers[id]
	return e, ok
}

func (s *Store) lookupOrder(id uuid.UUID) (*orderEntry, bool) {
	s.ordersMu.RLock()
	defer s.ordersMu.RUnlock()
	e, ok := s.orders[id]
	return e, ok
}

// IsNotFound reports whether err is (or wraps) domain.ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
