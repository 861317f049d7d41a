// Package backend is the HTTP client for the reasoning service. It owns the
// request boundary of an exchange: one outbound chat request in, one open
// event stream back. Everything past the open stream (frames, events,
// state) belongs to the stream package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ChatRequest is the outbound payload for one exchange. SessionID is empty
// when the backend should create (or assign) the session itself.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	ModelKey  string `json:"model_key"`
}

// ModelInfo describes one reasoning model the backend offers.
type ModelInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Client talks to the reasoning service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	model      string
	token      string
}

// NewClient creates a backend client. token may be empty when the backend
// does not require authentication.
func NewClient(baseURL, model, token string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8800"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: the chat stream stays open for as long as
		// the assistant keeps talking. Cancellation closes the body.
		httpClient: &http.Client{},
		model:      model,
		token:      token,
	}, nil
}

// SendMessage posts one chat request and returns the open event stream.
// The caller owns the returned body and must close it; closing it is also
// how a cancelled exchange stops the backend from producing frames.
func (c *Client) SendMessage(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	if req.ModelKey == "" {
		req.ModelKey = c.model
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return resp.Body, nil
}

// ListModels returns the models the backend offers.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/models", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var out struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	return out.Models, nil
}

// Ping checks if the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// SetModel changes the default model key for new requests.
func (c *Client) SetModel(model string) {
	c.model = model
}

// GetModel returns the current default model key.
func (c *Client) GetModel() string {
	return c.model
}
