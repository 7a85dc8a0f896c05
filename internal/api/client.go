// Package api provides the HTTP client for the conversational-platform
// backend. Every call attaches the bearer token when one is set and
// converts failures into the uniform model.APIError shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/pkg/logger"
	"github.com/capitalize-ai/conversational-console/pkg/metrics"
)

// Client is the backend API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger

	mu    sync.RWMutex
	token string
}

// New creates a new backend client.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token, empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do issues a request and decodes the JSON response into out when out
// is non-nil. Any failure is returned as *model.APIError; transport
// errors that never produced a status carry 500.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return model.NewAPIError("failed to encode request: "+err.Error(), 0)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return model.NewAPIError("failed to create request: "+err.Error(), 0)
	}

	correlationID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(endpoint, "unreachable", time.Since(start).Seconds())
		c.logger.Warn("backend unreachable",
			zap.String("endpoint", endpoint),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		return model.NewAPIError("backend unreachable: "+err.Error(), 0)
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(endpoint, http.StatusText(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return model.NewAPIError("failed to decode response: "+err.Error(), 0)
		}
	}

	c.logger.Debug("request completed",
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("correlation_id", correlationID),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// decodeError extracts the backend's detail string from an error body.
func decodeError(resp *http.Response) *model.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return model.NewAPIError(payload.Detail, resp.StatusCode)
	}

	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return model.NewAPIError(detail, resp.StatusCode)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}
