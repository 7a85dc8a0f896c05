package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/conversational-console/internal/apitest"
	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

func newTestClient(url string) *Client {
	return New(url, 5*time.Second, logger.NewNop())
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","email":"a@b.c","name":"A","role":"user"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetToken("tok-123")

	user, err := client.Me(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientOmitsAuthorizationWhenLoggedOut(t *testing.T) {
	var gotAuth string
	var hasCorrelation bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		hasCorrelation = r.Header.Get("X-Correlation-ID") != ""
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.Health(context.Background()))
	assert.Empty(t, gotAuth)
	assert.True(t, hasCorrelation)
}

func TestClientDecodesDetailError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid credentials"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Login(context.Background(), &model.LoginRequest{Email: "a@b.c", PasswordHash: "x"})

	var apiErr *model.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Detail)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClientFallsBackToBodyThenStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Health(context.Background())

	var apiErr *model.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Detail)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer empty.Close()

	err = newTestClient(empty.URL).Health(context.Background())
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusNotFound), apiErr.Detail)
}

func TestClientTransportErrorDefaultsTo500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	err := client.Health(context.Background())

	var apiErr *model.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "backend unreachable")
}

func TestClientDeleteHandlesNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/conversations/c1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.DeleteConversation(context.Background(), "c1"))
}

func TestConversationLifecycle(t *testing.T) {
	backend := apitest.New(t)
	user := backend.SeedUser("alice@example.com", "Alice", "pw", model.UserRoleUser)

	client := newTestClient(backend.URL())
	client.SetToken(backend.TokenFor(user.ID, time.Hour))
	ctx := context.Background()

	conv, err := client.CreateConversation(ctx, &model.CreateConversationRequest{Title: "Planning"})
	assert.NoError(t, err)
	assert.Equal(t, "Planning", conv.Title)

	conversations, err := client.ListConversations(ctx)
	assert.NoError(t, err)
	assert.Len(t, conversations, 1)

	renamed, err := client.UpdateConversation(ctx, conv.ID, &model.UpdateConversationRequest{Title: "Q3 planning"})
	assert.NoError(t, err)
	assert.Equal(t, "Q3 planning", renamed.Title)

	msgs, err := client.ListMessages(ctx, conv.ID)
	assert.NoError(t, err)
	assert.Empty(t, msgs)

	assert.NoError(t, client.DeleteConversation(ctx, conv.ID))
	assert.Equal(t, 0, backend.ConversationCount())
}

func TestClientEscapesPathSegments(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.DeleteConversation(context.Background(), "a/b"))
	assert.Equal(t, "/conversations/a%2Fb", gotPath)
}
