package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslav1992/ai-help-center/internal/model/catalog"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatservice "github.com/radoslav1992/ai-help-center/internal/service/chat"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	history [][]chat.Message
	queries []string
}

func (g *fakeGenerator) Generate(ctx context.Context, history []chat.Message, query string) (string, error) {
	g.mu.Lock()
	g.history = append(g.history, history)
	g.queries = append(g.queries, query)
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

func waitTerminal(t *testing.T, threads *Threads, threadID, runID string) chat.Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status, err := threads.RunStatus(context.Background(), threadID, runID)
		require.NoError(t, err)
		if status.Terminal() {
			return status
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", runID)
	return ""
}

func TestThreadsCompleteRun(t *testing.T) {
	gen := &fakeGenerator{reply: "We build chatbots."}
	threads := NewThreads(gen)
	ctx := context.Background()

	threadID, err := threads.CreateThread(ctx)
	require.NoError(t, err)

	latest, err := threads.LatestMessage(ctx, threadID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, threads.AddUserMessage(ctx, threadID, "What do you do?"))
	runID, err := threads.StartRun(ctx, threadID, "ignored")
	require.NoError(t, err)

	assert.Equal(t, chat.StatusCompleted, waitTerminal(t, threads, threadID, runID))

	latest, err = threads.LatestMessage(ctx, threadID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, chat.RoleAssistant, latest.Role)
	assert.Equal(t, "We build chatbots.", latest.Content[0].Text)

	require.NoError(t, threads.AddUserMessage(ctx, threadID, "Prices?"))
	runID, err = threads.StartRun(ctx, threadID, "ignored")
	require.NoError(t, err)
	waitTerminal(t, threads, threadID, runID)

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.Equal(t, []string{"What do you do?", "Prices?"}, gen.queries)
	assert.Equal(t, []chat.Message{chat.UserMessage("What do you do?"), chat.AssistantMessage("We build chatbots.")}, gen.history[1])
}

func TestThreadsFailedRun(t *testing.T) {
	threads := NewThreads(&fakeGenerator{err: errors.New("model down")})
	ctx := context.Background()

	threadID, _ := threads.CreateThread(ctx)
	require.NoError(t, threads.AddUserMessage(ctx, threadID, "hi"))
	runID, err := threads.StartRun(ctx, threadID, "")
	require.NoError(t, err)

	assert.Equal(t, chat.StatusFailed, waitTerminal(t, threads, threadID, runID))
	latest, _ := threads.LatestMessage(ctx, threadID)
	assert.Equal(t, chat.RoleUser, latest.Role)
}

func TestThreadsCancelRun(t *testing.T) {
	threads := NewThreads(&fakeGenerator{block: true})
	ctx := context.Background()

	threadID, _ := threads.CreateThread(ctx)
	require.NoError(t, threads.AddUserMessage(ctx, threadID, "hi"))
	runID, err := threads.StartRun(ctx, threadID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, threads.AddUserMessage(ctx, threadID, "again"), ErrRunActive)
	_, err = threads.StartRun(ctx, threadID, "")
	assert.ErrorIs(t, err, ErrRunActive)

	require.NoError(t, threads.CancelRun(ctx, threadID, runID))
	assert.Equal(t, chat.StatusCancelled, waitTerminal(t, threads, threadID, runID))
	assert.NoError(t, threads.AddUserMessage(ctx, threadID, "again"))
}

func TestThreadsRunExpires(t *testing.T) {
	threads := NewThreads(&fakeGenerator{block: true})
	threads.runTimeout = 10 * time.Millisecond
	ctx := context.Background()

	threadID, _ := threads.CreateThread(ctx)
	require.NoError(t, threads.AddUserMessage(ctx, threadID, "hi"))
	runID, err := threads.StartRun(ctx, threadID, "")
	require.NoError(t, err)

	assert.Equal(t, chat.StatusExpired, waitTerminal(t, threads, threadID, runID))
}

func TestThreadsCloseStopsActiveRuns(t *testing.T) {
	threads := NewThreads(&fakeGenerator{block: true})
	ctx := context.Background()

	threadID, _ := threads.CreateThread(ctx)
	require.NoError(t, threads.AddUserMessage(ctx, threadID, "hi"))
	runID, err := threads.StartRun(ctx, threadID, "")
	require.NoError(t, err)

	threads.Close()
	status, err := threads.RunStatus(ctx, threadID, runID)
	require.NoError(t, err)
	assert.Equal(t, chat.StatusCancelled, status)
}

func TestThreadsUnknownIDs(t *testing.T) {
	threads := NewThreads(&fakeGenerator{})
	ctx := context.Background()

	assert.ErrorIs(t, threads.AddUserMessage(ctx, "nope", "hi"), ErrThreadNotFound)
	_, err := threads.StartRun(ctx, "nope", "")
	assert.ErrorIs(t, err, ErrThreadNotFound)
	_, err = threads.LatestMessage(ctx, "nope")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	threadID, _ := threads.CreateThread(ctx)
	_, err = threads.StartRun(ctx, threadID, "")
	assert.ErrorIs(t, err, ErrNoUserMessage)
	_, err = threads.RunStatus(ctx, threadID, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, threads.CancelRun(ctx, threadID, "missing"), ErrRunNotFound)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestThreadsDropIdleThreads(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)}
	threads := NewThreads(&fakeGenerator{}, WithIdleTTL(10*time.Minute))
	threads.now = clock.Now
	ctx := context.Background()

	stale, err := threads.CreateThread(ctx)
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	fresh, err := threads.CreateThread(ctx)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = threads.CreateThread(ctx)
	require.NoError(t, err)

	_, err = threads.LatestMessage(ctx, stale)
	assert.ErrorIs(t, err, ErrThreadNotFound)
	_, err = threads.LatestMessage(ctx, fresh)
	assert.NoError(t, err)
}

func TestThreadsEvictLeastRecentlyUsedWhenFull(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)}
	threads := NewThreads(&fakeGenerator{}, WithMaxThreads(2))
	threads.now = clock.Now
	ctx := context.Background()

	first, _ := threads.CreateThread(ctx)
	clock.Advance(time.Second)
	second, _ := threads.CreateThread(ctx)
	clock.Advance(time.Second)
	require.NoError(t, threads.AddUserMessage(ctx, first, "still here"))
	clock.Advance(time.Second)

	third, err := threads.CreateThread(ctx)
	require.NoError(t, err)

	_, err = threads.LatestMessage(ctx, second)
	assert.ErrorIs(t, err, ErrThreadNotFound)
	for _, id := range []string{first, third} {
		_, err = threads.LatestMessage(ctx, id)
		assert.NoError(t, err)
	}
}

func TestThreadsKeepBusyThreads(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)}
	threads := NewThreads(&fakeGenerator{block: true}, WithMaxThreads(1), WithIdleTTL(time.Minute))
	threads.now = clock.Now
	defer threads.Close()
	ctx := context.Background()

	busy, _ := threads.CreateThread(ctx)
	require.NoError(t, threads.AddUserMessage(ctx, busy, "hi"))
	_, err := threads.StartRun(ctx, busy, "")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = threads.CreateThread(ctx)
	assert.ErrorIs(t, err, ErrThreadLimit)
	_, err = threads.LatestMessage(ctx, busy)
	assert.NoError(t, err)
}

func TestThreadsDriveChatManager(t *testing.T) {
	threads := NewThreads(&fakeGenerator{reply: "Hello from the agency."})
	manager := chatservice.NewManager(threads, chatservice.Config{
		PollInterval: 2 * time.Millisecond,
		Timeout:      time.Second,
	})
	ctx := context.Background()

	session, err := manager.CreateSession(ctx)
	require.NoError(t, err)

	reply, err := manager.SendMessage(ctx, session.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello from the agency.", reply)
}

func TestBuildHistoryMessagesKeepsRecentTurns(t *testing.T) {
	var messages []chat.Message
	for i := 0; i < 12; i++ {
		messages = append(messages, chat.UserMessage(strings.Repeat("u", i+1)), chat.AssistantMessage("a"))
	}

	history := buildHistoryMessages(messages)
	require.Len(t, history, historyLimit)
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, strings.Repeat("u", 8), history[0].Content)
	assert.Equal(t, schema.Assistant, history[len(history)-1].Role)
	assert.Nil(t, buildHistoryMessages(nil))
}

func TestPromptListsOfferings(t *testing.T) {
	prompt := DefaultPromptTemplate("Nexus AI").Build(catalog.Seed())

	assert.Contains(t, prompt, "Nexus AI")
	assert.Contains(t, prompt, "- AI Chatbots: Intelligent conversational agents")
	assert.Contains(t, prompt, "contact form")
	assert.Contains(t, DefaultPromptTemplate("").Build(nil), "our agency")
}

type echoModel struct {
	mu    sync.Mutex
	input []*schema.Message
}

func (m *echoModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.input = input
	m.mu.Unlock()
	return schema.AssistantMessage("echo: "+input[len(input)-1].Content, nil), nil
}

func (m *echoModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestServiceGenerateRendersPrompt(t *testing.T) {
	ctx := context.Background()
	m := &echoModel{}
	svc, err := NewService(ctx, m, "You are helpful.")
	require.NoError(t, err)

	reply, err := svc.Generate(ctx, []chat.Message{chat.UserMessage("hi"), chat.AssistantMessage("hello")}, "services?")
	require.NoError(t, err)
	assert.Equal(t, "echo: services?", reply)

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.input, 4)
	assert.Equal(t, schema.System, m.input[0].Role)
	assert.Equal(t, "You are helpful.", m.input[0].Content)
	assert.Equal(t, "hello", m.input[2].Content)
}
