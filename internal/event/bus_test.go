package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(Event) { order = append(order, "first") })
	bus.Subscribe(func(Event) { order = append(order, "second") })
	bus.Subscribe(func(Event) { order = append(order, "third") })

	bus.Publish(NewChatRequested{})
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	unsubscribe := bus.Subscribe(func(Event) { count++ })

	bus.Publish(ConversationSelected{ID: "c1"})
	unsubscribe()
	bus.Publish(ConversationSelected{ID: "c2"})

	assert.Equal(t, 1, count)

	// A second unsubscribe is harmless.
	unsubscribe()
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewBus()

	bus.Publish(ConversationDeleted{ID: "gone"})

	var got []Event
	bus.Subscribe(func(ev Event) { got = append(got, ev) })

	bus.Publish(ConversationCreated{Conversation: model.Conversation{ID: "c1"}})

	assert.Len(t, got, 1)
	assert.Equal(t, "conversation.created", got[0].Name())
}

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(NewChatRequested{})
}

func TestSubscriberSeesConcretePayload(t *testing.T) {
	bus := NewBus()

	var got ConversationUpdated
	bus.Subscribe(func(ev Event) {
		if updated, ok := ev.(ConversationUpdated); ok {
			got = updated
		}
	})

	bus.Publish(ConversationUpdated{Conversation: model.Conversation{ID: "c1", Title: "Renamed"}})
	assert.Equal(t, "Renamed", got.Conversation.Title)
}
