// Package openai adapts the OpenAI Assistants API (threads, messages and
// runs) to the chat manager's Assistant protocol.
package openai

import (
	"context"
	"fmt"
	"net/http"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatservice "github.com/radoslav1992/ai-help-center/internal/service/chat"
)

// Config holds the credentials and endpoint of the assistant service.
type Config struct {
	APIKey  string
	BaseURL string
	OrgID   string
}

// Client implements chatservice.Assistant on top of go-openai.
type Client struct {
	api *gopenai.Client
}

// NewClient creates an Assistants API client.
func NewClient(cfg Config, hc *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}

	clientCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.OrgID != "" {
		clientCfg.OrgID = cfg.OrgID
	}
	if hc != nil {
		clientCfg.HTTPClient = hc
	}

	return &Client{api: gopenai.NewClientWithConfig(clientCfg)}, nil
}

var _ chatservice.Assistant = (*Client)(nil)

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, gopenai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	return thread.ID, nil
}

func (c *Client) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := c.api.CreateMessage(ctx, threadID, gopenai.MessageRequest{
		Role:    string(gopenai.ThreadMessageRoleUser),
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	run, err := c.api.CreateRun(ctx, threadID, gopenai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

func (c *Client) RunStatus(ctx context.Context, threadID, runID string) (chat.Status, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return "", fmt.Errorf("retrieving run: %w", err)
	}
	return chat.Status(run.Status), nil
}

func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := c.api.CancelRun(ctx, threadID, runID); err != nil {
		return fmt.Errorf("cancelling run: %w", err)
	}
	return nil
}

func (c *Client) LatestMessage(ctx context.Context, threadID string) (*chatservice.ThreadMessage, error) {
	limit := 1
	order := "desc"
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	latest := list.Messages[0]
	msg := &chatservice.ThreadMessage{
		ID:      latest.ID,
		Role:    chat.Role(latest.Role),
		Content: make([]chatservice.ContentBlock, 0, len(latest.Content)),
	}
	for _, part := range latest.Content {
		block := chatservice.ContentBlock{Type: part.Type}
		if part.Text != nil {
			block.Text = part.Text.Value
		}
		msg.Content = append(msg.Content, block)
	}
	return msg, nil
}
