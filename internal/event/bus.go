// Package event provides a typed in-process bus coordinating the chat
// view with its sibling list views. Publish delivers synchronously to
// every subscriber registered at dispatch time, in subscription order;
// a late subscriber never sees earlier events.
package event

import (
	"sort"
	"sync"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// Event is a notification published on the bus. Subscribers type-switch
// on the concrete payloads below.
type Event interface {
	Name() string
}

// ConversationCreated is published when a new conversation comes into
// existence, including adoption on the first chat turn.
type ConversationCreated struct {
	Conversation model.Conversation
}

func (ConversationCreated) Name() string { return "conversation.created" }

// ConversationUpdated is published after a rename succeeds.
type ConversationUpdated struct {
	Conversation model.Conversation
}

func (ConversationUpdated) Name() string { return "conversation.updated" }

// ConversationDeleted is published after a delete call completes.
type ConversationDeleted struct {
	ID string
}

func (ConversationDeleted) Name() string { return "conversation.deleted" }

// ConversationSelected is published when a conversation becomes active.
type ConversationSelected struct {
	ID string
}

func (ConversationSelected) Name() string { return "conversation.selected" }

// NewChatRequested is published when the view resets to a fresh chat.
type NewChatRequested struct{}

func (NewChatRequested) Name() string { return "chat.new" }

// Bus delivers events to current subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for all subsequent events and returns the
// function that removes the subscription.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev to every current subscriber. Delivery is
// synchronous; subscribers run on the publisher's goroutine and must
// not block indefinitely.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
