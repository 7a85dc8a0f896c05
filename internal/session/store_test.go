package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/conversational-console/internal/api"
	"github.com/capitalize-ai/conversational-console/internal/apitest"
	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *api.Client, *apitest.Server, string) {
	t.Helper()

	backend := apitest.New(t)
	client := api.New(backend.URL(), 5*time.Second, logger.NewNop())
	tokenFile := filepath.Join(t.TempDir(), "token")
	return New(client, tokenFile, logger.NewNop()), client, backend, tokenFile
}

func TestLoginPersistsTokenAndIdentity(t *testing.T) {
	store, client, backend, tokenFile := newTestStore(t)
	backend.SeedUser("alice@example.com", "Alice", "s3cret", model.UserRoleUser)

	user, err := store.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, store.Authenticated())
	assert.False(t, store.IsAdmin())

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, client.Token(), string(data))
	assert.NotEmpty(t, client.Token())
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	store, client, backend, tokenFile := newTestStore(t)
	backend.SeedUser("alice@example.com", "Alice", "s3cret", model.UserRoleUser)

	_, err := store.Login(context.Background(), "alice@example.com", "wrong")
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Detail)

	assert.False(t, store.Authenticated())
	assert.Empty(t, client.Token())
	_, statErr := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRegisterLogsIn(t *testing.T) {
	store, _, _, _ := newTestStore(t)

	user, err := store.Register(context.Background(), "bob@example.com", "Bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Bob", user.Name)
	assert.True(t, store.Authenticated())
}

func TestLogoutClearsEverything(t *testing.T) {
	store, client, backend, tokenFile := newTestStore(t)
	backend.SeedUser("alice@example.com", "Alice", "s3cret", model.UserRoleUser)

	_, err := store.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, store.Logout())
	assert.False(t, store.Authenticated())
	assert.Empty(t, client.Token())
	_, statErr := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(statErr))

	// Logging out twice is harmless.
	assert.NoError(t, store.Logout())
}

func TestRestoreValidToken(t *testing.T) {
	store, _, backend, tokenFile := newTestStore(t)
	user := backend.SeedUser("alice@example.com", "Alice", "s3cret", model.UserRoleAdmin)

	require.NoError(t, os.WriteFile(tokenFile, []byte(backend.TokenFor(user.ID, time.Hour)), 0o600))

	assert.True(t, store.Restore(context.Background()))
	assert.True(t, store.Authenticated())
	assert.True(t, store.IsAdmin())
	assert.Equal(t, user.ID, store.Current().ID)
}

func TestRestoreExpiredTokenClearsSilently(t *testing.T) {
	store, client, backend, tokenFile := newTestStore(t)
	user := backend.SeedUser("alice@example.com", "Alice", "s3cret", model.UserRoleUser)

	require.NoError(t, os.WriteFile(tokenFile, []byte(backend.TokenFor(user.ID, -time.Hour)), 0o600))

	assert.False(t, store.Restore(context.Background()))
	assert.False(t, store.Authenticated())
	assert.Empty(t, client.Token())
	_, statErr := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestoreRejectedTokenClearsSilently(t *testing.T) {
	store, client, _, tokenFile := newTestStore(t)

	// Not a JWT at all, so the local expiry check passes and the
	// backend gets the final word.
	require.NoError(t, os.WriteFile(tokenFile, []byte("garbage"), 0o600))

	assert.False(t, store.Restore(context.Background()))
	assert.False(t, store.Authenticated())
	assert.Empty(t, client.Token())
	_, statErr := os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestoreMissingFile(t *testing.T) {
	store, _, _, _ := newTestStore(t)
	assert.False(t, store.Restore(context.Background()))
	assert.False(t, store.Authenticated())
}
