package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

const (
	DefaultPollInterval = time.Second
	DefaultTimeout      = 60 * time.Second

	cancelRunTimeout = 5 * time.Second
)

// ContentBlock is one content part of a thread message.
type ContentBlock struct {
	Type string
	Text string
}

// ThreadMessage is the assistant service's view of a stored message.
type ThreadMessage struct {
	ID      string
	Role    chat.Role
	Content []ContentBlock
}

// Assistant is the thread/run protocol of a hosted assistant service.
type Assistant interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID, assistantID string) (runID string, err error)
	RunStatus(ctx context.Context, threadID, runID string) (chat.Status, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	// LatestMessage returns the most recent message of the thread, or nil
	// when the thread holds none.
	LatestMessage(ctx context.Context, threadID string) (*ThreadMessage, error)
}

// Observer is notified with a copy of the exchange after every status poll.
type Observer func(chat.Exchange)

// Config tunes the exchange polling.
type Config struct {
	AssistantID  string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Manager bridges widget sessions to the assistant service.
type Manager struct {
	assistant Assistant
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewManager creates a manager. A nil assistant yields a manager whose
// operations fail with ErrNotConfigured.
func NewManager(assistant Assistant, cfg Config) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Manager{
		assistant: assistant,
		cfg:       cfg,
		log:       logger.For("chat"),
		now:       time.Now,
	}
}

// Configured reports whether an assistant backend is wired.
func (m *Manager) Configured() bool {
	return m != nil && m.assistant != nil
}

// CreateSession opens a new conversation with the assistant service.
func (m *Manager) CreateSession(ctx context.Context) (chat.Session, error) {
	if !m.Configured() {
		return chat.Session{}, ErrNotConfigured
	}

	threadID, err := m.assistant.CreateThread(ctx)
	if err != nil {
		return chat.Session{}, &UpstreamError{Op: "create thread", Message: "Failed to create thread", Err: err}
	}

	m.log.Info().Str("sessionId", threadID).Msg("session created")
	return chat.Session{ID: threadID, CreatedAt: m.now().UTC()}, nil
}

// SendMessage exchanges one user message for one assistant reply.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	return m.Exchange(ctx, sessionID, text, nil)
}

// Exchange is SendMessage with an optional status observer.
func (m *Manager) Exchange(ctx context.Context, sessionID, text string, observe Observer) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(text) == "" {
		return "", ErrInvalidInput
	}

	ex := &chat.Exchange{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
		Status:    chat.StatusQueued,
		StartedAt: m.now(),
	}
	log := m.log.With().Str("sessionId", sessionID).Str("exchangeId", ex.ID).Logger()

	if err := m.assistant.AddUserMessage(ctx, sessionID, text); err != nil {
		return "", &UpstreamError{Op: "add message", Message: "Failed to process message", Err: err}
	}

	runID, err := m.assistant.StartRun(ctx, sessionID, m.cfg.AssistantID)
	if err != nil {
		return "", &UpstreamError{Op: "start run", Message: "Failed to process message", Err: err}
	}
	ex.RunID = runID

	if err := m.await(ctx, ex, observe); err != nil {
		log.Warn().Err(err).Str("runId", runID).Str("status", string(ex.Status)).Msg("exchange did not complete")
		return "", err
	}

	if ex.Status != chat.StatusCompleted {
		log.Warn().Str("runId", runID).Str("status", string(ex.Status)).Msg("run ended without completing")
		return "", &UpstreamError{Op: "run", Message: runStatusMessage(ex.Status)}
	}

	reply, err := m.reply(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("reply extraction failed")
		return "", err
	}

	log.Info().Int("polls", ex.Polls).Dur("elapsed", ex.Elapsed(m.now())).Msg("exchange completed")
	return reply, nil
}

// await polls the run immediately and then once per interval until it
// reaches a terminal status, the budget elapses or ctx is done.
func (m *Manager) await(ctx context.Context, ex *chat.Exchange, observe Observer) error {
	budget := time.NewTimer(m.cfg.Timeout)
	defer budget.Stop()
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		status, err := m.assistant.RunStatus(ctx, ex.SessionID, ex.RunID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				m.cancelRun(ctx, ex)
				return ctxErr
			}
			return &UpstreamError{Op: "retrieve run", Message: "Failed to process message", Err: err}
		}

		ex.Status = status
		ex.Polls++
		if observe != nil {
			observe(*ex)
		}
		if status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			m.cancelRun(ctx, ex)
			return ctx.Err()
		case <-budget.C:
			m.cancelRun(ctx, ex)
			return &TimeoutError{LastStatus: ex.Status, Elapsed: ex.Elapsed(m.now())}
		case <-ticker.C:
		}
	}
}

// cancelRun asks the assistant service to stop an abandoned run.
func (m *Manager) cancelRun(ctx context.Context, ex *chat.Exchange) {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelRunTimeout)
	defer cancel()

	if err := m.assistant.CancelRun(cancelCtx, ex.SessionID, ex.RunID); err != nil {
		m.log.Debug().Err(err).Str("runId", ex.RunID).Msg("cancel run failed")
	}
}

func (m *Manager) reply(ctx context.Context, sessionID string) (string, error) {
	msg, err := m.assistant.LatestMessage(ctx, sessionID)
	if err != nil {
		return "", &UpstreamError{Op: "list messages", Message: "Failed to process message", Err: err}
	}
	if msg == nil {
		return "", &UpstreamError{Op: "list messages", Message: "No messages found in thread"}
	}
	if msg.Role != chat.RoleAssistant {
		return "", &UpstreamError{Op: "list messages", Message: "Failed to get assistant response"}
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &UpstreamError{Op: "list messages", Message: "No content in assistant response"}
}
