// Package stream relays chat exchange progress as Server-Sent Events.
package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	chatHandler "github.com/radoslav1992/ai-help-center/internal/handler/chat"
	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/chat"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

// Event names written to the stream.
const (
	EventStatus  = "status"
	EventMessage = "message"
	EventError   = "error"
)

// Handler streams one exchange per request: a status event per poll,
// then a single message or error event.
type Handler struct {
	sessions chatHandler.Sessions
	log      zerolog.Logger
}

// New creates a stream handler.
func New(sessions chatHandler.Sessions) *Handler {
	return &Handler{sessions: sessions, log: logger.For("stream")}
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/message/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var req chatHandler.MessageRequest
	decodeErr := utils.DecodeJSON(r, &req)

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if decodeErr != nil {
		h.send(w, flusher, EventError, map[string]string{"error": "Thread ID and message are required"})
		return
	}

	sessionID := req.Session()
	reply, err := h.sessions.Exchange(r.Context(), sessionID, req.Message, func(ex chat.Exchange) {
		h.send(w, flusher, EventStatus, ex)
	})
	if err != nil {
		if r.Context().Err() != nil {
			h.log.Debug().Str("sessionId", sessionID).Msg("client went away")
			return
		}
		_, msg := chatHandler.Describe(err)
		h.log.Warn().Err(err).Str("sessionId", sessionID).Msg("stream exchange failed")
		h.send(w, flusher, EventError, map[string]string{"error": msg})
		return
	}

	h.send(w, flusher, EventMessage, map[string]string{"response": reply})
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	if err := utils.SendSSEEvent(w, flusher, event, data); err != nil {
		h.log.Debug().Err(err).Msg("sse write failed")
	}
}
