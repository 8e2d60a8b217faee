// Package client talks to the help center HTTP API. It satisfies the chat
// widget's ChatAPI so a widget can run against a remote server.
package client

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

	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	"github.com/radoslav1992/ai-help-center/internal/model/contact"
	"github.com/radoslav1992/ai-help-center/internal/service/image"
)

// APIError is a non-2xx answer carrying the server's error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is a help center API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}, nil
}

// CreateSession opens a conversation.
func (c *Client) CreateSession(ctx context.Context) (chat.Session, error) {
	var out struct {
		ThreadID  string `json:"threadId"`
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/thread", nil, &out); err != nil {
		return chat.Session{}, err
	}
	id := out.SessionID
	if id == "" {
		id = out.ThreadID
	}
	return chat.Session{ID: id, CreatedAt: time.Now().UTC()}, nil
}

// SendMessage exchanges one message for the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	body := map[string]string{"threadId": sessionID, "message": text}
	if err := c.do(ctx, http.MethodPost, "/api/chat/message", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// ImageCandidates asks the server for the loading candidates of raw.
func (c *Client) ImageCandidates(ctx context.Context, raw string) (image.Reference, error) {
	var ref image.Reference
	err := c.do(ctx, http.MethodGet, "/api/images/candidates?url="+url.QueryEscape(raw), nil, &ref)
	return ref, err
}

// Contact submits the contact form and returns the stored id.
func (c *Client) Contact(ctx context.Context, s contact.Submission) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/contact", s, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
