package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

type fakeAPI struct {
	mu sync.Mutex

	sessionErr  error
	sessionGate chan struct{}
	sessions    int

	release     chan struct{}
	reply       string
	sendErr     error
	sent        []string
	inflight    int
	maxInflight int
	cancelled   int
}

func (f *fakeAPI) CreateSession(ctx context.Context) (chat.Session, error) {
	if f.sessionGate != nil {
		select {
		case <-f.sessionGate:
		case <-ctx.Done():
			return chat.Session{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return chat.Session{}, f.sessionErr
	}
	f.sessions++
	return chat.Session{ID: fmt.Sprintf("thread_%d", f.sessions)}, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sessionID+":"+text)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.mu.Unlock()
			return "", ctx.Err()
		}
	}
	return f.reply, f.sendErr
}

func openReady(t *testing.T, c *Controller) {
	t.Helper()
	c.Open(context.Background())
	c.Wait()
	require.NotEmpty(t, c.Snapshot().SessionID)
}

func TestOpenGreetsAndCreatesSession(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, i18n.NewSelector(i18n.English))
	defer c.Dispose()

	c.Open(context.Background())
	c.Wait()

	snap := c.Snapshot()
	assert.True(t, snap.Open)
	assert.False(t, snap.Initializing)
	assert.Equal(t, "thread_1", snap.SessionID)
	assert.Equal(t, []chat.Message{chat.AssistantMessage("Hello! How can I help you today?")}, snap.Messages)

	c.Close()
	c.Open(context.Background())
	c.Wait()
	assert.Len(t, c.Snapshot().Messages, 1, "reopening keeps history without a second greeting")
	assert.Equal(t, 1, api.sessions)
}

func TestSubmitIgnoredWhileInitializing(t *testing.T) {
	api := &fakeAPI{sessionGate: make(chan struct{}), reply: "ok"}
	c := New(api, nil)
	defer c.Dispose()

	c.Open(context.Background())
	assert.True(t, c.Snapshot().Initializing)
	assert.False(t, c.Submit(context.Background(), "hello"))

	close(api.sessionGate)
	c.Wait()
	assert.True(t, c.Submit(context.Background(), "hello"))
	c.Wait()
	assert.Equal(t, []string{"thread_1:hello"}, api.sent)
}

func TestSubmitWithoutSessionAddsOnlyErrorTurn(t *testing.T) {
	api := &fakeAPI{sessionErr: errors.New("no key")}
	c := New(api, i18n.NewSelector(i18n.English))
	defer c.Dispose()

	c.Open(context.Background())
	c.Wait()
	require.True(t, c.Submit(context.Background(), "hi"))

	snap := c.Snapshot()
	assert.Empty(t, snap.SessionID)
	assert.Equal(t, []chat.Message{
		chat.AssistantMessage("Hello! How can I help you today?"),
		chat.AssistantMessage("Sorry, there was an error. Please try again."),
	}, snap.Messages)
	assert.Empty(t, api.sent)
}

func TestSubmitAppendsReply(t *testing.T) {
	api := &fakeAPI{reply: "We build chatbots."}
	c := New(api, nil)
	defer c.Dispose()
	openReady(t, c)

	require.True(t, c.Submit(context.Background(), "  What do you do?  "))
	c.Wait()

	msgs := c.Snapshot().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.UserMessage("What do you do?"), msgs[1])
	assert.Equal(t, chat.AssistantMessage("We build chatbots."), msgs[2])
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	c := New(&fakeAPI{}, nil)
	defer c.Dispose()
	openReady(t, c)

	assert.False(t, c.Submit(context.Background(), "   "))
	assert.Len(t, c.Snapshot().Messages, 1)
}

func TestSubmissionsAreSerialized(t *testing.T) {
	api := &fakeAPI{release: make(chan struct{}), reply: "first answer"}
	c := New(api, nil)
	defer c.Dispose()
	openReady(t, c)

	require.True(t, c.Submit(context.Background(), "one"))
	assert.True(t, c.Snapshot().Sending)
	assert.False(t, c.Submit(context.Background(), "two"))

	close(api.release)
	c.Wait()
	require.True(t, c.Submit(context.Background(), "three"))
	c.Wait()

	assert.Equal(t, 1, api.maxInflight)
	assert.Equal(t, []string{"thread_1:one", "thread_1:three"}, api.sent)

	msgs := c.Snapshot().Messages
	require.Len(t, msgs, 5)
	for i, m := range msgs[1:] {
		want := chat.RoleUser
		if i%2 == 1 {
			want = chat.RoleAssistant
		}
		assert.Equal(t, want, m.Role)
	}
}

func TestFailedExchangeShowsLocalizedError(t *testing.T) {
	lang := i18n.NewSelector(i18n.English)
	api := &fakeAPI{sendErr: errors.New("Run did not complete successfully. Status: failed")}
	c := New(api, lang)
	defer c.Dispose()
	openReady(t, c)

	lang.Set(i18n.Bulgarian)
	require.True(t, c.Submit(context.Background(), "здравей"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, i18n.Bulgarian, snap.Language)
	assert.Equal(t, "Съжалявам, възникна грешка. Моля, опитайте отново.", snap.Messages[len(snap.Messages)-1].Content)
	assert.False(t, snap.Sending)
}

func TestCloseCancelsInFlightExchange(t *testing.T) {
	api := &fakeAPI{release: make(chan struct{}), reply: "late"}
	c := New(api, nil)
	defer c.Dispose()
	openReady(t, c)

	require.True(t, c.Submit(context.Background(), "hello"))
	c.Close()
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Open)
	assert.False(t, snap.Sending)
	assert.Equal(t, "thread_1", snap.SessionID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, chat.UserMessage("hello"), snap.Messages[1])
	assert.Equal(t, 1, api.cancelled)
}

func TestResetStartsFreshConversation(t *testing.T) {
	api := &fakeAPI{reply: "hi"}
	c := New(api, nil)
	defer c.Dispose()
	openReady(t, c)
	require.True(t, c.Submit(context.Background(), "hello"))
	c.Wait()

	c.Reset()
	snap := c.Snapshot()
	assert.False(t, snap.Open)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.SessionID)

	openReady(t, c)
	snap = c.Snapshot()
	assert.Equal(t, "thread_2", snap.SessionID)
	assert.Len(t, snap.Messages, 1)
}

func TestResetDiscardsPendingSession(t *testing.T) {
	api := &fakeAPI{sessionGate: make(chan struct{})}
	c := New(api, nil)
	defer c.Dispose()

	c.Open(context.Background())
	c.Reset()
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Initializing)
	assert.Empty(t, snap.SessionID)
	assert.Empty(t, snap.Messages)
}

func TestObserversAndLanguage(t *testing.T) {
	lang := i18n.NewSelector(i18n.English)
	c := New(&fakeAPI{}, lang)

	var mu sync.Mutex
	var snaps []Snapshot
	stop := c.OnChange(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	openReady(t, c)
	lang.Set(i18n.Bulgarian)

	mu.Lock()
	last := snaps[len(snaps)-1]
	count := len(snaps)
	mu.Unlock()
	assert.GreaterOrEqual(t, count, 3)
	assert.Equal(t, "Изпрати", last.Text.Send)
	assert.Equal(t, "thread_1", last.SessionID)

	stop()
	c.Close()
	mu.Lock()
	assert.Len(t, snaps, count)
	mu.Unlock()

	c.Dispose()
	assert.Equal(t, 0, lang.Subscribers())
}
