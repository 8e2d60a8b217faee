package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslav1992/ai-help-center/internal/handler"
	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatService "github.com/radoslav1992/ai-help-center/internal/service/chat"
	imageService "github.com/radoslav1992/ai-help-center/internal/service/image"
	"github.com/radoslav1992/ai-help-center/internal/widget"
)

type scripted struct{}

func (scripted) CreateThread(context.Context) (string, error) { return "thread_c", nil }

func (scripted) AddUserMessage(context.Context, string, string) error { return nil }

func (scripted) StartRun(context.Context, string, string) (string, error) {
	return "run_c", nil
}

func (scripted) RunStatus(context.Context, string, string) (chat.Status, error) {
	return chat.StatusCompleted, nil
}

func (scripted) CancelRun(context.Context, string, string) error { return nil }

func (scripted) LatestMessage(context.Context, string) (*chatService.ThreadMessage, error) {
	return &chatService.ThreadMessage{
		Role:    chat.RoleAssistant,
		Content: []chatService.ContentBlock{{Type: "text", Text: "Hi from the server"}},
	}, nil
}

func newServer(t *testing.T, assistant chatService.Assistant) *Client {
	t.Helper()
	srv := httptest.NewServer(handler.NewRouter(handler.Deps{
		Chat:   chatService.NewManager(assistant, chatService.Config{PollInterval: time.Millisecond}),
		Images: imageService.NewRelay(nil, imageService.RelayConfig{}),
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost", nil)
	assert.Error(t, err)
}

func TestSessionAndMessage(t *testing.T) {
	c := newServer(t, scripted{})
	ctx := context.Background()

	session, err := c.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thread_c", session.ID)

	reply, err := c.SendMessage(ctx, session.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi from the server", reply)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c := newServer(t, nil)

	_, err := c.CreateSession(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "OpenAI API key is not configured", apiErr.Message)
}

func TestImageCandidates(t *testing.T) {
	c := newServer(t, nil)

	ref, err := c.ImageCandidates(context.Background(), "https://cdn.example.com/public//a.png")
	require.NoError(t, err)
	require.Len(t, ref.Candidates, 4)
	assert.Equal(t, imageService.StrategyCollapsed, ref.Candidates[1].Strategy)
}

func TestDrivesWidgetController(t *testing.T) {
	c := newServer(t, scripted{})
	ctl := widget.New(c, i18n.NewSelector(i18n.English))
	defer ctl.Dispose()

	ctx := context.Background()
	ctl.Open(ctx)
	ctl.Wait()
	require.Equal(t, "thread_c", ctl.Snapshot().SessionID)

	require.True(t, ctl.Submit(ctx, "hello"))
	ctl.Wait()
	msgs := ctl.Snapshot().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hi from the server", msgs[2].Content)
}
