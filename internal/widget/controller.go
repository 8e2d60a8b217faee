// Package widget implements the chat widget state machine: greeting and
// session creation on first open, one exchange in flight at a time, and
// localized fallback turns when the assistant cannot answer.
package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

// ChatAPI is the session manager as seen by the widget.
type ChatAPI interface {
	CreateSession(ctx context.Context) (chat.Session, error)
	SendMessage(ctx context.Context, sessionID, text string) (string, error)
}

// Snapshot is the observable widget state.
type Snapshot struct {
	Open         bool            `json:"open"`
	Initializing bool            `json:"initializing"`
	Sending      bool            `json:"sending"`
	SessionID    string          `json:"sessionId,omitempty"`
	Language     i18n.Language   `json:"language"`
	Text         i18n.WidgetText `json:"text"`
	Messages     []chat.Message  `json:"messages"`
}

// Controller drives one widget instance. Observers registered with OnChange
// run synchronously after each change and must not call back into the
// controller.
type Controller struct {
	api         ChatAPI
	lang        *i18n.Selector
	unsubscribe func()
	log         zerolog.Logger

	mu           sync.Mutex
	open         bool
	initializing bool
	sending      bool
	sessionID    string
	messages     []chat.Message
	cancel       context.CancelFunc
	cancelInit   context.CancelFunc
	generation   int

	notifyMu  sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int

	wg sync.WaitGroup
}

// New creates a closed widget reading its language from lang.
func New(api ChatAPI, lang *i18n.Selector) *Controller {
	if lang == nil {
		lang = i18n.NewSelector(i18n.Default)
	}
	c := &Controller{
		api:       api,
		lang:      lang,
		log:       logger.For("widget"),
		observers: make(map[int]func(Snapshot)),
	}
	c.unsubscribe = lang.Subscribe(func(i18n.Language) { c.notify() })
	return c
}

// Open shows the widget. The first open with an empty history greets the
// visitor and requests a session in the background.
func (c *Controller) Open(ctx context.Context) {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return
	}
	c.open = true

	if len(c.messages) == 0 && c.sessionID == "" && !c.initializing {
		c.messages = append(c.messages, chat.AssistantMessage(i18n.Widget(c.lang.Get()).Greeting))
		c.initializing = true
		initCtx, cancel := context.WithCancel(ctx)
		c.cancelInit = cancel
		gen := c.generation
		c.wg.Add(1)
		go c.createSession(initCtx, cancel, gen)
	}
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) createSession(ctx context.Context, cancel context.CancelFunc, gen int) {
	defer c.wg.Done()
	defer cancel()

	session, err := c.api.CreateSession(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.initializing = false
	c.cancelInit = nil
	if err != nil {
		c.log.Warn().Err(err).Msg("session creation failed")
	} else {
		c.sessionID = session.ID
		c.log.Debug().Str("sessionId", session.ID).Msg("session ready")
	}
	c.mu.Unlock()

	c.notify()
}

// Submit sends text as the visitor's next message. It reports false when
// the input is blank, the session is still being created or another
// exchange is in flight. Without a session only the error turn is added.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.initializing || c.sending {
		c.mu.Unlock()
		return false
	}

	if c.sessionID == "" {
		c.messages = append(c.messages, chat.AssistantMessage(i18n.Widget(c.lang.Get()).ErrorMessage))
		c.mu.Unlock()
		c.notify()
		return true
	}

	c.messages = append(c.messages, chat.UserMessage(text))
	c.sending = true
	exCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	gen, sessionID := c.generation, c.sessionID
	c.wg.Add(1)
	go c.exchange(exCtx, cancel, gen, sessionID, text)
	c.mu.Unlock()

	c.notify()
	return true
}

func (c *Controller) exchange(ctx context.Context, cancel context.CancelFunc, gen int, sessionID, text string) {
	defer c.wg.Done()
	defer cancel()

	reply, err := c.api.SendMessage(ctx, sessionID, text)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.sending = false
	c.cancel = nil
	switch {
	case ctx.Err() != nil:
		c.log.Debug().Str("sessionId", sessionID).Msg("exchange cancelled")
	case err != nil:
		c.log.Warn().Err(err).Str("sessionId", sessionID).Msg("exchange failed")
		c.messages = append(c.messages, chat.AssistantMessage(i18n.Widget(c.lang.Get()).ErrorMessage))
	default:
		c.messages = append(c.messages, chat.AssistantMessage(reply))
	}
	c.mu.Unlock()

	c.notify()
}

// Close hides the widget and abandons the exchange in flight, if any.
// History and session are kept for the next Open.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.notify()
}

// Reset closes the widget and forgets history and session, so the next
// Open starts a new conversation.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.abandonLocked()
	c.open = false
	c.initializing = false
	c.sending = false
	c.sessionID = ""
	c.messages = nil
	c.mu.Unlock()

	c.notify()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	lang := c.lang.Get()
	return Snapshot{
		Open:         c.open,
		Initializing: c.initializing,
		Sending:      c.sending,
		SessionID:    c.sessionID,
		Language:     lang,
		Text:         i18n.Widget(lang),
		Messages:     append([]chat.Message(nil), c.messages...),
	}
}

// OnChange registers fn to receive a snapshot after every change. The
// returned func removes it.
func (c *Controller) OnChange(fn func(Snapshot)) func() {
	c.notifyMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.observers, id)
		c.notifyMu.Unlock()
	}
}

// notify delivers snapshots in the order they were taken, so the last
// delivered snapshot is never older than the last change.
func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if len(c.observers) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// Wait blocks until background session creation and exchanges finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Dispose detaches from the language selector, abandons in-flight work
// and waits for it to stop.
func (c *Controller) Dispose() {
	c.unsubscribe()

	c.mu.Lock()
	c.abandonLocked()
	c.mu.Unlock()

	c.wg.Wait()
}

// abandonLocked detaches pending session creation and exchanges from the
// controller state and cancels them.
func (c *Controller) abandonLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.cancelInit != nil {
		c.cancelInit()
		c.cancelInit = nil
	}
}
