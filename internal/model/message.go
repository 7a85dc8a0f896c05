package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a persisted conversation turn as returned by the backend.
// It carries no citation data; citations exist only on the live chat
// response (see Source).
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Source is a backend-supplied citation attached to an assistant turn.
// Display-only.
type Source struct {
	DocumentID string         `json:"document_id"`
	OwnerType  OwnerType      `json:"owner_type"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ChatRequest is the request for a chat turn. ConversationID is empty
// on the first message of a new chat; the backend creates the
// conversation and returns its id.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content"`
}

// ChatResponse is the assistant's reply to a chat turn.
type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Response       string   `json:"response"`
	Sources        []Source `json:"sources,omitempty"`
}

// ListMessagesResponse is the response for listing a conversation's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}
