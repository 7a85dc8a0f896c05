// Package apitest provides an in-memory backend for tests: the same
// REST surface the console consumes, with seedable state and failure
// hooks. Errors use the backend's {"detail": ...} shape.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

const jwtSecret = "console-test-secret"

type contextKey string

const userKey contextKey = "user"

// Server is the fake backend.
type Server struct {
	t    *testing.T
	http *httptest.Server

	mu            sync.Mutex
	users         map[string]*model.User
	passwords     map[string]string // email -> password
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message // conversation id -> turns
	documents     map[string]*model.Document

	// Reply builds the assistant response for a chat turn.
	Reply func(content string) (string, []model.Source)
	// ChatError, when set, fails POST /chat with a 502 and this detail.
	ChatError string
	// OnListMessages runs before GET /conversations/{id}/messages is
	// served; tests use it to stall or reorder responses.
	OnListMessages func(conversationID string)
}

// New starts a fake backend and registers its shutdown with t.Cleanup.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		t:             t,
		users:         make(map[string]*model.User),
		passwords:     make(map[string]string),
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
		documents:     make(map[string]*model.Document),
		Reply: func(content string) (string, []model.Source) {
			return "echo: " + content, nil
		},
	}

	s.http = httptest.NewServer(s.router())
	t.Cleanup(s.http.Close)
	return s
}

// URL returns the backend's base URL.
func (s *Server) URL() string {
	return s.http.URL
}

// SeedUser creates a user with known credentials.
func (s *Server) SeedUser(email, name, password string, role model.UserRole) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.passwords[email] = password
	return user
}

// SeedConversation creates a conversation with messages.
func (s *Server) SeedConversation(userID, title string, contents ...string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv

	role := model.RoleUser
	for i, content := range contents {
		s.messages[conv.ID] = append(s.messages[conv.ID], model.Message{
			ID:             uuid.New().String(),
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           role,
			Content:        content,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		})
		if role == model.RoleUser {
			role = model.RoleAssistant
		} else {
			role = model.RoleUser
		}
	}
	return conv
}

// SeedDocument creates a document owned by userID.
func (s *Server) SeedDocument(userID, title string, ownerType model.OwnerType) *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &model.Document{
		ID:        uuid.New().String(),
		Title:     title,
		OwnerType: ownerType,
		OwnerID:   userID,
		IsVisible: true,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	s.documents[doc.ID] = doc
	return doc
}

// TokenFor mints a bearer token the auth middleware accepts.
func (s *Server) TokenFor(userID string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		s.t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// ConversationCount reports how many conversations exist.
func (s *Server) ConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// DocumentCount reports how many documents exist.
func (s *Server) DocumentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.documents)
}

// Conversations returns a snapshot of all conversations.
func (s *Server) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	return out
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		r.Get("/me", s.handleMe)
		r.Post("/chat", s.handleChat)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", s.handleListConversations)
			r.Post("/", s.handleCreateConversation)
			r.Get("/{id}/messages", s.handleListMessages)
			r.Put("/{id}", s.handleUpdateConversation)
			r.Delete("/{id}", s.handleDeleteConversation)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Post("/shared", s.handleCreateSharedDocument)
			r.Put("/{id}", s.handleUpdateDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})

	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		user, ok := s.users[claims.Subject]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			writeError(w, http.StatusForbidden, "admin required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	password, ok := s.passwords[req.Email]
	var user *model.User
	for _, u := range s.users {
		if u.Email == req.Email {
			user = u
			break
		}
	}
	s.mu.Unlock()

	if !ok || user == nil || password != req.PasswordHash {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		AccessToken: s.TokenFor(user.ID, time.Hour),
		TokenType:   "bearer",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	if _, exists := s.passwords[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      model.UserRoleUser,
		CreatedAt: time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.passwords[req.Email] = req.PasswordHash
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.ChatError != "" {
		writeError(w, http.StatusBadGateway, s.ChatError)
		return
	}

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	now := time.Now().UTC()

	s.mu.Lock()
	conversationID := req.ConversationID
	if conversationID == "" {
		conv := &model.Conversation{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Title:     req.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.conversations[conv.ID] = conv
		conversationID = conv.ID
	} else if _, ok := s.conversations[conversationID]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	response, sources := s.Reply(req.Content)
	s.messages[conversationID] = append(s.messages[conversationID],
		model.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			UserID:         user.ID,
			Role:           model.RoleUser,
			Content:        req.Content,
			CreatedAt:      now,
		},
		model.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			UserID:         user.ID,
			Role:           model.RoleAssistant,
			Content:        response,
			CreatedAt:      now.Add(time.Millisecond),
		},
	)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.ChatResponse{
		ConversationID: conversationID,
		Response:       response,
		Sources:        sources,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	s.mu.Lock()
	out := make([]model.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.UserID == user.ID {
			out = append(out, *conv)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")

	if s.OnListMessages != nil {
		s.OnListMessages(conversationID)
	}

	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	var msgs []model.Message
	if ok {
		msgs = append(msgs, s.messages[conversationID]...)
	}
	s.mu.Unlock()

	if !ok || conv.UserID != currentUser(r).ID {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, model.ListMessagesResponse{Messages: msgs})
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")

	var req model.UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if ok && conv.UserID == currentUser(r).ID {
		conv.Title = req.Title
		conv.UpdatedAt = time.Now().UTC()
		updated := *conv
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, updated)
		return
	}
	s.mu.Unlock()

	writeError(w, http.StatusNotFound, "conversation not found")
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")

	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if ok && conv.UserID == currentUser(r).ID {
		delete(s.conversations, conversationID)
		delete(s.messages, conversationID)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mu.Unlock()

	writeError(w, http.StatusNotFound, "conversation not found")
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := req.Role
	if role == "" {
		role = model.UserRoleUser
	}
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.passwords[req.Email] = req.PasswordHash
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	user, ok := s.users[userID]
	if ok {
		if req.Name != "" {
			user.Name = req.Name
		}
		if req.Role != "" {
			user.Role = req.Role
		}
		updated := *user
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, updated)
		return
	}
	s.mu.Unlock()

	writeError(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	s.mu.Lock()
	user, ok := s.users[userID]
	if ok {
		delete(s.users, userID)
		delete(s.passwords, user.Email)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// visibleTo reports document visibility and fills per-caller flags.
func visibleTo(doc model.Document, user *model.User) (model.Document, bool) {
	switch doc.OwnerType {
	case model.OwnerTypeShared:
		doc.CanEdit = user.IsAdmin()
		doc.CanDelete = user.IsAdmin()
		return doc, doc.IsVisible || user.IsAdmin()
	default:
		owned := doc.OwnerID == user.ID
		doc.CanEdit = owned || user.IsAdmin()
		doc.CanDelete = owned || user.IsAdmin()
		return doc, owned || user.IsAdmin()
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	s.mu.Lock()
	out := make([]model.Document, 0)
	for _, doc := range s.documents {
		if withFlags, ok := visibleTo(*doc, user); ok {
			out = append(out, withFlags)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request, ownerType model.OwnerType) {
	var req model.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	doc := &model.Document{
		ID:        uuid.New().String(),
		Title:     req.Title,
		OwnerType: ownerType,
		OwnerID:   user.ID,
		IsVisible: true,
		CreatedBy: user.ID,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.mu.Unlock()

	withFlags, _ := visibleTo(*doc, user)
	writeJSON(w, http.StatusCreated, withFlags)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	s.createDocument(w, r, model.OwnerTypeUser)
}

func (s *Server) handleCreateSharedDocument(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).IsAdmin() {
		writeError(w, http.StatusForbidden, "admin required")
		return
	}
	s.createDocument(w, r, model.OwnerTypeShared)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")

	var req model.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)

	s.mu.Lock()
	doc, ok := s.documents[documentID]
	if ok {
		if withFlags, _ := visibleTo(*doc, user); !withFlags.CanEdit {
			s.mu.Unlock()
			writeError(w, http.StatusForbidden, "not permitted")
			return
		}
		if req.Title != "" {
			doc.Title = req.Title
		}
		if req.IsVisible != nil {
			doc.IsVisible = *req.IsVisible
		}
		updated, _ := visibleTo(*doc, user)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, updated)
		return
	}
	s.mu.Unlock()

	writeError(w, http.StatusNotFound, "document not found")
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "id")
	user := currentUser(r)

	s.mu.Lock()
	doc, ok := s.documents[documentID]
	if ok {
		if withFlags, _ := visibleTo(*doc, user); !withFlags.CanDelete {
			s.mu.Unlock()
			writeError(w, http.StatusForbidden, "not permitted")
			return
		}
		delete(s.documents, documentID)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mu.Unlock()

	writeError(w, http.StatusNotFound, "document not found")
}

func withUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func currentUser(r *http.Request) *model.User {
	if user, ok := r.Context().Value(userKey).(*model.User); ok {
		return user
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the backend's uniform error shape.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
