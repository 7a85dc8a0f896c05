package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// Chat calls POST /chat. With an empty conversation id the backend
// creates a new conversation and returns its id with the reply.
func (c *Client) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	var resp model.ChatResponse
	if err := c.do(ctx, "chat", http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations calls GET /conversations.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := c.do(ctx, "conversations.list", http.MethodGet, "/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation calls POST /conversations.
func (c *Client) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.do(ctx, "conversations.create", http.MethodPost, "/conversations", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListMessages calls GET /conversations/{id}/messages.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var resp model.ListMessagesResponse
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, "conversations.messages", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// UpdateConversation calls PUT /conversations/{id}.
func (c *Client) UpdateConversation(ctx context.Context, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	path := "/conversations/" + url.PathEscape(conversationID)
	if err := c.do(ctx, "conversations.update", http.MethodPut, path, req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation calls DELETE /conversations/{id}.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	return c.do(ctx, "conversations.delete", http.MethodDelete, path, nil, nil)
}
