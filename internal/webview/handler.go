package webview

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
)

// Controller is the part of chat.Controller a browser tab can drive.
type Controller interface {
	Submit(ctx context.Context, rawInput string) chat.Outcome
	InputChanged(text string)
	DismissError()
}

// inbound is one browser-to-server frame.
type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Handler upgrades browser connections and routes their frames to the
// controller.
type Handler struct {
	hub            *Hub
	ctrl           Controller
	allowedOrigins []string
	logger         *slog.Logger

	// turnCtx outlives individual sockets: a turn keeps running when the tab
	// that started it closes.
	turnCtx context.Context
	turns   sync.WaitGroup
}

// NewHandler creates a websocket handler. turnCtx bounds submitted turns;
// allowedOrigins empty means same-host only.
func NewHandler(turnCtx context.Context, hub *Hub, ctrl Controller, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:            hub,
		ctrl:           ctrl,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		turnCtx:        turnCtx,
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.ServeHTTP)
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.logger.Warn("Failed to accept browser websocket", "error", err, "remote", r.RemoteAddr)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := h.hub.register(conn)
	defer func() {
		h.hub.unregister(c)
		c.close(websocket.StatusNormalClosure, "view closed")
	}()

	go h.hub.writeLoop(ctx, c)
	h.readLoop(ctx, c)
}

func (h *Handler) readLoop(ctx context.Context, c *client) {
	for {
		var msg inbound
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("Browser view closed by client", "client_id", c.id)
			} else if ctx.Err() == nil {
				h.logger.Debug("Browser view read error", "client_id", c.id, "error", err)
			}
			return
		}

		switch msg.Type {
		case "submit":
			h.turns.Add(1)
			go func(text string) {
				defer h.turns.Done()
				outcome := h.ctrl.Submit(h.turnCtx, text)
				h.logger.Debug("Chat turn finished", "client_id", c.id, "outcome", outcome.String())
			}(msg.Text)
		case "input":
			h.ctrl.InputChanged(msg.Text)
		case "dismiss_error":
			h.ctrl.DismissError()
		case "ping":
			select {
			case c.send <- Event{Type: EventPong}:
			default:
			}
		default:
			h.logger.Debug("Unknown browser frame", "client_id", c.id, "type", msg.Type)
		}
	}
}

// Wait blocks until every submitted turn has finished.
func (h *Handler) Wait() {
	h.turns.Wait()
}
