// Package session holds the authenticated identity and the persisted
// bearer token, with login/register/logout transitions.
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversational-console/internal/api"
	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
)

// Store is the session store. The bearer token is the only state
// persisted outside process memory.
type Store struct {
	api       *api.Client
	tokenFile string
	logger    *logger.Logger

	mu   sync.RWMutex
	user *model.User
}

// New creates a session store persisting its token at tokenFile.
func New(client *api.Client, tokenFile string, log *logger.Logger) *Store {
	return &Store{
		api:       client,
		tokenFile: tokenFile,
		logger:    log,
	}
}

// Current returns the authenticated identity, nil when logged out.
func (s *Store) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether an identity is held.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

// IsAdmin reports whether the current identity carries the admin role.
func (s *Store) IsAdmin() bool {
	return s.Current().IsAdmin()
}

// Login exchanges credentials for a bearer token, persists it, and
// fetches the identity. On any failure the prior session state is left
// untouched and no token remains stored.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	resp, err := s.api.Login(ctx, &model.LoginRequest{
		Email:        email,
		PasswordHash: password,
	})
	if err != nil {
		return nil, err
	}

	prior := s.api.Token()
	s.api.SetToken(resp.AccessToken)

	user, err := s.api.Me(ctx)
	if err != nil {
		s.api.SetToken(prior)
		return nil, err
	}

	if err := s.writeToken(resp.AccessToken); err != nil {
		s.api.SetToken(prior)
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Register creates an identity then performs Login with the same
// credentials.
func (s *Store) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	if _, err := s.api.Register(ctx, &model.RegisterRequest{
		Email:        email,
		Name:         name,
		PasswordHash: password,
	}); err != nil {
		return nil, err
	}

	return s.Login(ctx, email, password)
}

// Logout clears the token and identity. Purely local; the backend
// keeps no session state to invalidate.
func (s *Store) Logout() error {
	s.api.ClearToken()

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Restore runs at startup: it loads the persisted token and validates
// it against the backend. A token that is missing, already expired, or
// rejected is silently cleared and the user starts unauthenticated.
func (s *Store) Restore(ctx context.Context) bool {
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		return false
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return false
	}

	if expired(token) {
		s.logger.Debug("stored token expired, clearing")
		s.clearStored()
		return false
	}

	s.api.SetToken(token)
	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug("stored token rejected, clearing", zap.Error(err))
		s.api.ClearToken()
		s.clearStored()
		return false
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("user_id", user.ID))
	return true
}

// expired inspects the token's exp claim without verifying the
// signature; verification is the backend's job. An unparseable token
// is treated as not expired and left for the backend to reject.
func expired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now())
}

func (s *Store) writeToken(token string) error {
	if dir := filepath.Dir(s.tokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.tokenFile, []byte(token), 0o600)
}

func (s *Store) clearStored() {
	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove token file", zap.Error(err))
	}
}
