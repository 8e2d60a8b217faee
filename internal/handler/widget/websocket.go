// Package widget serves the chat widget over a WebSocket: one controller
// per connection, driven by client frames and mirrored back as state frames.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/logger"
	widgetCtl "github.com/radoslav1992/ai-help-center/internal/widget"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Inbound frame types.
const (
	FrameOpen     = "open"
	FrameSubmit   = "submit"
	FrameClose    = "close"
	FrameReset    = "reset"
	FrameLanguage = "language"
)

// Outbound frame types.
const (
	FrameState = "state"
	FrameError = "error"
)

// Inbound is a client frame.
type Inbound struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
}

// Outbound is a server frame. Data is a widget snapshot for state frames and
// {"message": ...} for error frames.
type Outbound struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Handler upgrades widget connections.
type Handler struct {
	api      widgetCtl.ChatAPI
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New creates a widget socket handler backed by api.
func New(api widgetCtl.ChatAPI) *Handler {
	return &Handler{
		api: api,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.For("widget-ws"),
	}
}

// RegisterRoutes mounts the socket on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws  *websocket.Conn
	mu  sync.Mutex
	log zerolog.Logger
}

func (c *conn) send(frameType string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := Outbound{Type: frameType, Data: data, Timestamp: time.Now().Unix()}
	if err := c.ws.WriteJSON(msg); err != nil {
		c.log.Debug().Err(err).Str("type", frameType).Msg("write failed")
	}
}

func (c *conn) sendError(message string) {
	c.send(FrameError, map[string]string{"message": message})
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	lang := i18n.NewSelector(i18n.ParseOrDefault(r.URL.Query().Get("lang")))

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, log: h.log}
	ctl := widgetCtl.New(h.api, lang)
	defer ctl.Dispose()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	unsubscribe := ctl.OnChange(func(s widgetCtl.Snapshot) { c.send(FrameState, s) })
	defer unsubscribe()

	h.log.Info().Str("remote", r.RemoteAddr).Msg("widget connected")

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	c.send(FrameState, ctl.Snapshot())

	for {
		var msg Inbound
		if err := ws.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				c.sendError("invalid frame")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("read error")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleFrame(ctx, c, ctl, lang, msg)
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *conn, ctl *widgetCtl.Controller, lang *i18n.Selector, msg Inbound) {
	switch msg.Type {
	case FrameOpen:
		ctl.Open(ctx)
	case FrameSubmit:
		if !ctl.Submit(ctx, msg.Text) {
			c.sendError("message not accepted")
		}
	case FrameClose:
		ctl.Close()
	case FrameReset:
		ctl.Reset()
	case FrameLanguage:
		parsed, ok := i18n.Parse(msg.Language)
		if !ok {
			c.sendError("unsupported language: " + msg.Language)
			return
		}
		if !lang.Set(parsed) {
			c.send(FrameState, ctl.Snapshot())
		}
	default:
		c.sendError("unsupported frame type: " + msg.Type)
	}
}

func isDecodeError(err error) bool {
	var (
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
	)
	return errors.As(err, &syntax) || errors.As(err, &typ)
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
