package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatService "github.com/radoslav1992/ai-help-center/internal/service/chat"
)

type stubSessions struct {
	session   chat.Session
	createErr error
	reply     string
	sendErr   error

	gotSession string
	gotText    string
}

func (s *stubSessions) CreateSession(context.Context) (chat.Session, error) {
	return s.session, s.createErr
}

func (s *stubSessions) Exchange(_ context.Context, sessionID, text string, _ chatService.Observer) (string, error) {
	s.gotSession, s.gotText = sessionID, text
	return s.reply, s.sendErr
}

func setupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var out map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return resp, out
}

func TestCreateThreadReturnsBothKeys(t *testing.T) {
	r := setupRouter(New(&stubSessions{session: chat.Session{ID: "thread_1"}}))

	resp, body := post(t, r, "/chat/thread", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["threadId"] != "thread_1" || body["sessionId"] != "thread_1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateThreadWithoutCredential(t *testing.T) {
	r := setupRouter(New(chatService.NewManager(nil, chatService.Config{})))

	resp, body := post(t, r, "/chat/thread", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if body["error"] != "OpenAI API key is not configured" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestSendMessageWithoutCredential(t *testing.T) {
	r := setupRouter(New(chatService.NewManager(nil, chatService.Config{})))

	resp, body := post(t, r, "/chat/message", map[string]string{"threadId": "thread_1", "message": "hi"})
	if resp.Code != http.StatusInternalServerError || body["error"] != "OpenAI API key is not configured" {
		t.Fatalf("unexpected response %d %v", resp.Code, body)
	}
}

func TestSendMessageRequiresThreadAndMessage(t *testing.T) {
	stub := &stubSessions{sendErr: chatService.ErrInvalidInput}
	r := setupRouter(New(stub))

	resp, body := post(t, r, "/chat/message", map[string]string{"threadId": "", "message": "hi"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if body["error"] != "Thread ID and message are required" {
		t.Fatalf("unexpected error: %v", body)
	}
}

func TestSendMessageReturnsResponse(t *testing.T) {
	stub := &stubSessions{reply: "We build assistants."}
	r := setupRouter(New(stub))

	resp, body := post(t, r, "/chat/message", map[string]string{"sessionId": "thread_9", "message": "What do you do?"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["response"] != "We build assistants." {
		t.Fatalf("unexpected body: %v", body)
	}
	if stub.gotSession != "thread_9" || stub.gotText != "What do you do?" {
		t.Fatalf("unexpected call: %q %q", stub.gotSession, stub.gotText)
	}
}

func TestSendMessagePrefersThreadID(t *testing.T) {
	req := MessageRequest{ThreadID: "thread_a", SessionID: "thread_b"}
	if req.Session() != "thread_a" {
		t.Fatalf("expected threadId to win, got %s", req.Session())
	}
}

func TestSendMessageMalformedBody(t *testing.T) {
	r := setupRouter(New(&stubSessions{}))

	req := httptest.NewRequest(http.MethodPost, "/chat/message", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{chatService.ErrNotConfigured, 500, "OpenAI API key is not configured"},
		{chatService.ErrInvalidInput, 400, "Thread ID and message are required"},
		{&chatService.UpstreamError{Op: "list messages", Message: "No messages found in thread"}, 500, "No messages found in thread"},
		{&chatService.TimeoutError{LastStatus: chat.StatusQueued, Elapsed: time.Minute}, 500, "Run did not complete successfully. Status: queued"},
		{errors.New("boom"), 500, "Failed to process message"},
	}
	for _, tc := range cases {
		status, msg := Describe(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Errorf("Describe(%v) = %d %q, want %d %q", tc.err, status, msg, tc.status, tc.msg)
		}
	}
}
