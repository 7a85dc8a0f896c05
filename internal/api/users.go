package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// ListUsers calls GET /users. Admin only; non-admin callers get the
// backend's authorization error.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, "users.list", http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser calls POST /users.
func (c *Client) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "users.create", http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser calls PUT /users/{id}.
func (c *Client) UpdateUser(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "users.update", http.MethodPut, "/users/"+url.PathEscape(userID), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser calls DELETE /users/{id}.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, "users.delete", http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}
