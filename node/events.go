package node

import (
	"sync"
	"time"

	"github.com/sigstream/sigstream/core/types"
)

// Event is a registry event as published on the in-process bus.
type Event struct {
	Type      types.EventType
	Payload   any
	Timestamp time.Time
}

// Subscription receives bus events matching its type set.
type Subscription struct {
	id    uint64
	types map[types.EventType]struct{}
	ch    chan Event
	bus   *EventBus
}

// Chan returns the channel matching events are delivered on. The channel
// is closed on Unsubscribe and on bus shutdown.
func (s *Subscription) Chan() <-chan Event { return s.ch }

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.unsubscribe(s)
	}
}

// EventBus fans registry events out to in-process subscribers: the
// decryption gateway, indexers, and tests. Slow subscribers drop events
// rather than stall the publisher. All methods are safe for concurrent
// use.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
}

// NewEventBus creates a bus whose subscription channels buffer up to
// bufferSize events.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &EventBus{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe creates a subscription for the given event types. With no
// types it receives everything.
func (eb *EventBus) Subscribe(evtypes ...types.EventType) *Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		sub := &Subscription{ch: make(chan Event)}
		close(sub.ch)
		return sub
	}

	eb.nextID++
	typeSet := make(map[types.EventType]struct{}, len(evtypes))
	for _, t := range evtypes {
		typeSet[t] = struct{}{}
	}
	sub := &Subscription{
		id:    eb.nextID,
		types: typeSet,
		ch:    make(chan Event, eb.bufferSize),
		bus:   eb,
	}
	eb.subs[sub.id] = sub
	return sub
}

// Emit publishes an event to all matching subscribers. It satisfies the
// registry's event sink interface, so a bus can be set directly as the
// registry sink.
func (eb *EventBus) Emit(typ types.EventType, payload any) {
	ev := Event{Type: typ, Payload: payload, Timestamp: time.Now()}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	for _, sub := range eb.subs {
		if len(sub.types) > 0 {
			if _, ok := sub.types[typ]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- ev:
		default:
			// Drop rather than block the registry transaction.
		}
	}
}

// Close shuts the bus down and closes all subscription channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for id, sub := range eb.subs {
		close(sub.ch)
		delete(eb.subs, id)
	}
}

func (eb *EventBus) unsubscribe(s *Subscription) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if _, ok := eb.subs[s.id]; !ok {
		return
	}
	delete(eb.subs, s.id)
	close(s.ch)
}

// SubscriberCount returns the number of live subscriptions.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

// EventSink is the fan-out the node installs on the registry: every
// emitted event goes to each sink in order. The journal and the bus are
// the usual members.
type EventSink interface {
	Emit(typ types.EventType, payload any)
}

// MultiSink fans one emission out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Emit(typ types.EventType, payload any) {
	for _, s := range m {
		s.Emit(typ, payload)
	}
}
