// Package eventbus fans out AssignmentEvents to an arbitrary number of
// subscribers without ever blocking the publisher. Each subscriber owns a
// bounded ring buffer; a subscriber that falls behind loses its oldest
// buffered events and is told how many it missed, but the publisher and
// every other subscriber are unaffected.
package eventbus

import (
	"sync"
	"time"

	"dispatchsvc/internal/domain"
)

// AssignmentEvent is published once per successful or terminal-failed
// commit. OrderSnapshot/CourierSnapshot capture post-commit state so
// subscribers never need to query the store to render the event.
type AssignmentEvent struct {
	Assignment      domain.Assignment `json:"assignment"`
	OrderSnapshot   domain.Order      `json:"order_snapshot"`
	CourierSnapshot domain.Courier    `json:"courier_snapshot"`
	Outcome         string            `json:"outcome"` // "success" or "error"
}

// Bus is a multi-subscriber broadcast of AssignmentEvents.
type Bus struct {
	bufferSize int

	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	closed      bool
}

// New returns a Bus whose subscribers each get a ring buffer of the given
// size.
func New(bufferSize int) *Bus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Bus{
		bufferSize:  bufferSize,
		subscribers: make(map[uint64]*Subscription),
	}
}

// Subscription is a single subscriber's view of the bus: a channel of
// events plus an independently-delivered lag marker whenever this
// subscriber's buffer overflowed.
type Subscription struct {
	id     uint64
	bus    *Bus
	events chan AssignmentEvent
	lag    chan LagMarker
}

// LagMarker reports how many events a subscriber missed due to its buffer
// overflowing.
type LagMarker struct {
	Missed int
	At     time.Time
}

// Subscribe joins the bus. The returned Subscription sees only events
// published after this call; there is no replay.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		bus:    b,
		events: make(chan AssignmentEvent, b.bufferSize),
		lag:    make(chan LagMarker, 1),
	}
	if b.closed {
		close(sub.events)
		close(sub.lag)
		return sub
	}

	sub.id = b.nextID
	b.nextID++
	b.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscription from the bus; subsequent Publish
// calls will no longer reach it.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub.id)
}

// Publish fans the event out to every current subscriber. It never blocks:
// a subscriber whose ring is full has its oldest buffered event dropped to
// make room, and its lag counter incremented.
func (b *Bus) Publish(evt AssignmentEvent) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.deliver(evt)
	}
}

// Close signals every subscriber with a terminal marker (their channels are
// closed) and rejects future Subscribe calls with an already-closed
// subscription. Called once, by the engine, on shutdown.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subscribers {
		close(s.events)
		close(s.lag)
	}
	b.subscribers = make(map[uint64]*Subscription)
}

func (s *Subscription) deliver(evt AssignmentEvent) {
	select {
	case s.events <- evt:
		return
	default:
	}

	// Ring is full: drop the oldest buffered event and report the miss,
	// then deliver the new one. This never blocks on the subscriber.
	select {
	case <-s.events:
		s.reportLag(1)
	default:
		// Raced with a concurrent drain; nothing to drop now.
	}

	select {
	case s.events <- evt:
	default:
		// Extremely unlikely race where the buffer refilled between the
		// drop above and this send; count it as a further miss rather
		// than block the publisher.
		s.reportLag(1)
	}
}

func (s *Subscription) reportLag(missed int) {
	for {
		select {
		case s.lag <- LagMarker{Missed: missed, At: time.Now()}:
			return
		default:
		}
		select {
		case old := <-s.lag:
			missed += old.Missed
		default:
			// Lost the race to a concurrent reader; try sending fresh.
		}
	}
}

// Events returns the channel of delivered events, closed when the bus shuts
// down. Unsubscribe stops further deliveries but does not close it.
func (s *Subscription) Events() <-chan AssignmentEvent {
	return s.events
}

// Lag returns the channel of lag markers for this subscriber.
func (s *Subscription) Lag() <-chan LagMarker {
	return s.lag
}

// Close unsubscribes from the bus. Safe to call even if the bus already
// closed the subscription's channels.
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}
