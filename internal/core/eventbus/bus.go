// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within phaseline.
package eventbus

import (
	"context"
	"sync"
)

// Event identifies an event type on the bus.
type Event string

// envelope pairs an event with its payload for the dispatch channel.
type envelope struct {
	event   Event
	payload any
}

// EventBus is a buffered, single-goroutine dispatch bus. Publishing
// never blocks: events are dropped (and the OnDrop hooks fired) when
// the buffer is full.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates an EventBus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start runs the dispatch loop until the context is canceled.
// Call in a goroutine; subscribers run on this goroutine.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.safeCall(env, fn)
	}
}

// safeCall invokes a subscriber, recovering panics into OnPanic hooks
// so one bad subscriber cannot take down the dispatch loop.
func (bus *EventBus) safeCall(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}
