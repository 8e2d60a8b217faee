// Package chat exposes the chat session manager over HTTP.
package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	chatService "github.com/radoslav1992/ai-help-center/internal/service/chat"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

const (
	msgNotConfigured = "OpenAI API key is not configured"
	msgInvalidInput  = "Thread ID and message are required"
	msgInternal      = "Failed to process message"
)

// Sessions is the part of the session manager the handlers need.
type Sessions interface {
	CreateSession(ctx context.Context) (chat.Session, error)
	Exchange(ctx context.Context, sessionID, text string, observe chatService.Observer) (string, error)
}

// Handler serves thread creation and message exchange.
type Handler struct {
	sessions Sessions
	log      zerolog.Logger
}

// New creates a chat handler.
func New(sessions Sessions) *Handler {
	return &Handler{sessions: sessions, log: logger.For("chat-handler")}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/thread", h.handleCreateThread)
	r.Post("/chat/message", h.handleSendMessage)
}

// MessageRequest is the body of a message exchange. threadId and sessionId
// are interchangeable.
type MessageRequest struct {
	ThreadID  string `json:"threadId"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Session returns whichever session key the caller supplied.
func (m MessageRequest) Session() string {
	if strings.TrimSpace(m.ThreadID) != "" {
		return m.ThreadID
	}
	return m.SessionID
}

func (h *Handler) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		status, msg := Describe(err)
		h.log.Error().Err(err).Msg("create thread failed")
		utils.RespondError(w, status, msg)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"threadId":  session.ID,
		"sessionId": session.ID,
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	reply, err := h.sessions.Exchange(r.Context(), req.Session(), req.Message, nil)
	if err != nil {
		status, msg := Describe(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("sessionId", req.Session()).Msg("message exchange failed")
		}
		utils.RespondError(w, status, msg)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Describe maps a session manager error to an HTTP status and a message
// safe to show the caller.
func Describe(err error) (int, string) {
	var (
		upstream *chatService.UpstreamError
		timeout  *chatService.TimeoutError
	)
	switch {
	case errors.Is(err, chatService.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.Is(err, chatService.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.As(err, &timeout):
		return http.StatusInternalServerError, timeout.Message()
	case errors.As(err, &upstream):
		return http.StatusInternalServerError, upstream.Message
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
