package api

import (
	"context"
	"net/http"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// Login calls POST /login and returns the bearer token. The token is
// not attached to the client; that is the session store's decision.
func (c *Client) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /register.
func (c *Client) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "register", http.MethodPost, "/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me calls GET /me and returns the authenticated identity.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "me", http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
