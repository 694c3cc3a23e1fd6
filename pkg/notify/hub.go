package notify

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the channel capacity of a subscription
const DefaultBufferSize = 64

// Hub is a Notifier that broadcasts to channel subscriptions. A subscriber
// that falls behind loses notifications instead of slowing the router.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	nextID        atomic.Int64
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subscriptions: make(map[string]*Subscription)}
}

// Subscribe registers a new subscription with the given buffer size
func (h *Hub) Subscribe(bufferSize int) *Subscription {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	sub := &Subscription{
		id:     "sub-" + strconv.FormatInt(h.nextID.Add(1), 10),
		events: make(chan Notification, bufferSize),
		hub:    h,
	}

	h.mu.Lock()
	h.subscriptions[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Notify implements Notifier
func (h *Hub) Notify(n Notification) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subscriptions))
	for _, sub := range h.subscriptions {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.publish(n)
	}
}

// Len returns the number of active subscriptions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions)
}

// Close unsubscribes everyone
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subscriptions))
	for _, sub := range h.subscriptions {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Subscription receives notifications from a Hub
type Subscription struct {
	id            string
	events        chan Notification
	hub           *Hub
	overflowCount atomic.Int64
	closed        atomic.Bool
	mu            sync.Mutex
}

// ID returns the unique identifier for this subscription
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the channel for receiving notifications
func (s *Subscription) Events() <-chan Notification {
	return s.events
}

// OverflowCount returns the number of notifications dropped due to a full buffer
func (s *Subscription) OverflowCount() int64 {
	return s.overflowCount.Load()
}

// Unsubscribe closes the subscription and stops delivery
func (s *Subscription) Unsubscribe() {
	if !s.closed.CompareAndSwap(false, true) {
		return // Already unsubscribed
	}

	s.hub.mu.Lock()
	delete(s.hub.subscriptions, s.id)
	s.hub.mu.Unlock()

	s.mu.Lock()
	close(s.events)
	s.mu.Unlock()
}

func (s *Subscription) publish(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return
	}
	select {
	case s.events <- n:
	default:
		s.overflowCount.Add(1)
	}
}
