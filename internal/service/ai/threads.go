package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatservice "github.com/radoslav1992/ai-help-center/internal/service/chat"
)

const (
	defaultRunTimeout = 2 * time.Minute
	defaultIdleTTL    = 30 * time.Minute
	defaultMaxThreads = 10000
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrRunNotFound    = errors.New("run not found")
	ErrRunActive      = errors.New("thread already has an active run")
	ErrNoUserMessage  = errors.New("thread has no pending user message")
	ErrThreadLimit    = errors.New("thread limit reached")
)

type storedMessage struct {
	id  string
	msg chat.Message
}

type run struct {
	status chat.Status
	cancel context.CancelFunc
}

type thread struct {
	messages []storedMessage
	runs     map[string]*run
	active   string
	touched  time.Time
}

func (t *thread) idle(now time.Time, ttl time.Duration) bool {
	return t.active == "" && now.Sub(t.touched) >= ttl
}

// Threads keeps conversations in memory and answers runs with a Generator,
// mirroring the hosted thread/run protocol.
//
// The store holds at most maxThreads threads. Threads without an active run
// are dropped once idle for idleTTL, and the least recently used idle thread
// makes room when the store is full.
type Threads struct {
	mu         sync.RWMutex
	threads    map[string]*thread
	gen        Generator
	runTimeout time.Duration
	idleTTL    time.Duration
	maxThreads int
	lastSweep  time.Time
	now        func() time.Time
	log        zerolog.Logger
	wg         sync.WaitGroup
}

var _ chatservice.Assistant = (*Threads)(nil)

// ThreadsOption customizes NewThreads.
type ThreadsOption func(*Threads)

// WithIdleTTL sets how long a thread without an active run is kept.
func WithIdleTTL(ttl time.Duration) ThreadsOption {
	return func(s *Threads) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithMaxThreads caps the number of stored threads.
func WithMaxThreads(n int) ThreadsOption {
	return func(s *Threads) {
		if n > 0 {
			s.maxThreads = n
		}
	}
}

// NewThreads creates an empty store backed by gen.
func NewThreads(gen Generator, opts ...ThreadsOption) *Threads {
	s := &Threads{
		threads:    make(map[string]*thread),
		gen:        gen,
		runTimeout: defaultRunTimeout,
		idleTTL:    defaultIdleTTL,
		maxThreads: defaultMaxThreads,
		now:        time.Now,
		log:        logger.For("threads"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Threads) CreateThread(context.Context) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	if len(s.threads) >= s.maxThreads && !s.evictOldestLocked() {
		return "", ErrThreadLimit
	}
	s.threads[id] = &thread{runs: make(map[string]*run), touched: now}
	return id, nil
}

// sweepLocked drops idle threads. Outside of a full store it runs at most
// once per minute, or once per idleTTL when that is shorter.
func (s *Threads) sweepLocked(now time.Time) {
	every := min(s.idleTTL, time.Minute)
	if len(s.threads) < s.maxThreads && now.Sub(s.lastSweep) < every {
		return
	}
	s.lastSweep = now

	removed := 0
	for id, t := range s.threads {
		if t.idle(now, s.idleTTL) {
			delete(s.threads, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Int("remaining", len(s.threads)).Msg("idle threads dropped")
	}
}

// evictOldestLocked drops the least recently used thread without an active
// run. It reports false when every thread is busy.
func (s *Threads) evictOldestLocked() bool {
	var oldestID string
	var oldest time.Time
	for id, t := range s.threads {
		if t.active != "" {
			continue
		}
		if oldestID == "" || t.touched.Before(oldest) {
			oldestID, oldest = id, t.touched
		}
	}
	if oldestID == "" {
		return false
	}
	delete(s.threads, oldestID)
	return true
}

func (s *Threads) AddUserMessage(_ context.Context, threadID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return ErrThreadNotFound
	}
	if t.active != "" {
		return ErrRunActive
	}
	t.messages = append(t.messages, storedMessage{id: uuid.NewString(), msg: chat.UserMessage(text)})
	t.touched = s.now()
	return nil
}

// StartRun answers the latest user message in the background. The run
// outlives the calling request; CancelRun stops it.
func (s *Threads) StartRun(_ context.Context, threadID, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return "", ErrThreadNotFound
	}
	if t.active != "" {
		return "", ErrRunActive
	}
	n := len(t.messages)
	if n == 0 || t.messages[n-1].msg.Role != chat.RoleUser {
		return "", ErrNoUserMessage
	}

	history := make([]chat.Message, 0, n-1)
	for _, m := range t.messages[:n-1] {
		history = append(history, m.msg)
	}
	query := t.messages[n-1].msg.Content

	runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	runID := uuid.NewString()
	t.runs[runID] = &run{status: chat.StatusQueued, cancel: cancel}
	t.active = runID
	t.touched = s.now()

	s.wg.Add(1)
	go s.execute(runCtx, cancel, threadID, runID, history, query)
	return runID, nil
}

func (s *Threads) execute(ctx context.Context, cancel context.CancelFunc, threadID, runID string, history []chat.Message, query string) {
	defer s.wg.Done()
	defer cancel()

	s.setStatus(threadID, runID, chat.StatusInProgress)

	reply, err := s.gen.Generate(ctx, history, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.threads[threadID]
	r := t.runs[runID]
	t.active = ""
	t.touched = s.now()

	switch {
	case r.status == chat.StatusCancelling || errors.Is(ctx.Err(), context.Canceled):
		r.status = chat.StatusCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.status = chat.StatusExpired
	case err != nil:
		s.log.Warn().Err(err).Str("threadId", threadID).Str("runId", runID).Msg("run failed")
		r.status = chat.StatusFailed
	default:
		t.messages = append(t.messages, storedMessage{id: uuid.NewString(), msg: chat.AssistantMessage(reply)})
		r.status = chat.StatusCompleted
	}
}

func (s *Threads) setStatus(threadID, runID string, status chat.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.threads[threadID].runs[runID]; r.status == chat.StatusQueued {
		r.status = status
	}
}

func (s *Threads) RunStatus(_ context.Context, threadID, runID string) (chat.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return "", ErrThreadNotFound
	}
	r, ok := t.runs[runID]
	if !ok {
		return "", ErrRunNotFound
	}
	return r.status, nil
}

func (s *Threads) CancelRun(_ context.Context, threadID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return ErrThreadNotFound
	}
	r, ok := t.runs[runID]
	if !ok {
		return ErrRunNotFound
	}
	if !r.status.Terminal() {
		r.status = chat.StatusCancelling
		r.cancel()
	}
	return nil
}

func (s *Threads) LatestMessage(_ context.Context, threadID string) (*chatservice.ThreadMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil, ErrThreadNotFound
	}
	if len(t.messages) == 0 {
		return nil, nil
	}

	latest := t.messages[len(t.messages)-1]
	return &chatservice.ThreadMessage{
		ID:      latest.id,
		Role:    latest.msg.Role,
		Content: []chatservice.ContentBlock{{Type: "text", Text: latest.msg.Content}},
	}, nil
}

// Wait blocks until every started run has finished.
func (s *Threads) Wait() {
	s.wg.Wait()
}

// Close cancels the active runs and waits for them to stop.
func (s *Threads) Close() {
	s.mu.Lock()
	for _, t := range s.threads {
		if r, ok := t.runs[t.active]; ok && !r.status.Terminal() {
			r.status = chat.StatusCancelling
			r.cancel()
		}
	}
	s.mu.Unlock()
	s.Wait()
}
