// Package chat tracks the active conversation and its transcript: the
// state machine behind the chat view.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversational-console/internal/event"
	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
	"github.com/capitalize-ai/conversational-console/pkg/metrics"
)

// ErrNoActiveConversation is returned by operations that require an
// active conversation while the view is in the new-chat state.
var ErrNoActiveConversation = errors.New("no active conversation")

// Backend is the slice of the API client the controller needs.
type Backend interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	UpdateConversation(ctx context.Context, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Controller owns the chat view state. All mutation goes through it;
// sibling views learn about changes over the bus.
type Controller struct {
	backend Backend
	bus     *event.Bus
	logger  *logger.Logger

	mu             sync.Mutex
	conversationID string
	title          string
	entries        []Entry
	generation     uint64
}

// NewController creates a controller in the new-chat state.
func NewController(backend Backend, bus *event.Bus, log *logger.Logger) *Controller {
	return &Controller{
		backend: backend,
		bus:     bus,
		logger:  log,
	}
}

// Active returns the active conversation id and title; both empty in
// the new-chat state.
func (c *Controller) Active() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID, c.title
}

// Entries returns a copy of the transcript.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// NewChat resets to the new-chat state and announces it.
func (c *Controller) NewChat() {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	c.bus.Publish(event.NewChatRequested{})
}

// reset clears the view state. Callers hold the lock.
func (c *Controller) reset() {
	c.generation++
	c.conversationID = ""
	c.title = ""
	c.entries = nil
}

// Select makes conv the active conversation and replaces the transcript
// with its persisted messages. Re-selecting the active conversation is
// a no-op. A response that lands after a newer selection is discarded,
// so transcripts never mix.
func (c *Controller) Select(ctx context.Context, conv model.Conversation) error {
	c.mu.Lock()
	if c.conversationID == conv.ID {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.conversationID = conv.ID
	c.title = conv.Title
	c.entries = nil
	c.mu.Unlock()

	c.bus.Publish(event.ConversationSelected{ID: conv.ID})

	msgs, err := c.backend.ListMessages(ctx, conv.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// Superseded by a newer selection or reset.
		return nil
	}
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, entryFromMessage(msg))
	}
	c.entries = entries

	c.logger.Debug("conversation loaded",
		zap.String("conversation_id", conv.ID),
		zap.Int("messages", len(msgs)),
	)

	return nil
}

// Send appends an optimistic user entry, issues the chat call, and on
// success appends the assistant reply with any citations. When no
// conversation was active the id returned by the backend is adopted
// and a title is derived from the sent text. On failure the user entry
// stays in the transcript marked failed and no reply appears.
func (c *Controller) Send(ctx context.Context, content string) (*Entry, error) {
	now := time.Now()
	pending := Entry{
		ID:        now.UnixNano(),
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: now,
		State:     DeliveryPending,
	}

	c.mu.Lock()
	gen := c.generation
	conversationID := c.conversationID
	c.entries = append(c.entries, pending)
	c.mu.Unlock()

	metrics.RecordChatTurn(string(model.RoleUser))

	resp, err := c.backend.Chat(ctx, &model.ChatRequest{
		ConversationID: conversationID,
		Content:        content,
	})

	c.mu.Lock()
	if gen != c.generation {
		// The transcript was replaced while the send was in flight;
		// nothing left to reconcile.
		c.mu.Unlock()
		return nil, err
	}

	idx := c.indexOf(pending.ID)
	if err != nil {
		if idx >= 0 {
			c.entries[idx].State = DeliveryFailed
		}
		c.mu.Unlock()
		metrics.RecordChatSendFailure()
		return nil, err
	}

	if idx >= 0 {
		c.entries[idx].State = DeliveryConfirmed
	}

	reply := Entry{
		ID:        time.Now().UnixNano(),
		Role:      model.RoleAssistant,
		Content:   resp.Response,
		CreatedAt: time.Now(),
		Sources:   resp.Sources,
		State:     DeliveryConfirmed,
	}
	c.entries = append(c.entries, reply)

	var created *model.Conversation
	if conversationID == "" {
		c.conversationID = resp.ConversationID
		c.title = deriveTitle(content)
		created = &model.Conversation{
			ID:    resp.ConversationID,
			Title: c.title,
		}
	}
	c.mu.Unlock()

	metrics.RecordChatTurn(string(model.RoleAssistant))

	if created != nil {
		c.bus.Publish(event.ConversationCreated{Conversation: *created})
	}

	return &reply, nil
}

// Rename updates the active conversation's title and adopts whatever
// title the server returns.
func (c *Controller) Rename(ctx context.Context, title string) error {
	c.mu.Lock()
	conversationID := c.conversationID
	c.mu.Unlock()

	if conversationID == "" {
		return ErrNoActiveConversation
	}

	conv, err := c.backend.UpdateConversation(ctx, conversationID, &model.UpdateConversationRequest{Title: title})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.conversationID == conversationID {
		c.title = conv.Title
	}
	c.mu.Unlock()

	c.bus.Publish(event.ConversationUpdated{Conversation: *conv})
	return nil
}

// Delete removes the active conversation and returns the view to the
// new-chat state unconditionally, even when the delete call fails.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	conversationID := c.conversationID
	c.mu.Unlock()

	if conversationID == "" {
		return ErrNoActiveConversation
	}

	err := c.backend.DeleteConversation(ctx, conversationID)

	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	if err != nil {
		return err
	}

	c.bus.Publish(event.ConversationDeleted{ID: conversationID})
	return nil
}

// indexOf finds an entry by id. Callers hold the lock.
func (c *Controller) indexOf(id int64) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}
