// Package webview mirrors the chat controller into browser tabs over a
// websocket. The browser page is a thin renderer: every view call becomes a
// JSON event, and user actions come back as JSON frames.
package webview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/tutor-chat/internal/chat"
	"github.com/ashureev/tutor-chat/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	clientBufferSize = 64
	writeTimeout     = 5 * time.Second
)

// Event types sent to the browser.
const (
	EventSnapshot = "snapshot"
	EventMessage  = "message"
	EventInput    = "input"
	EventSend     = "send"
	EventClear    = "clear"
	EventFocus    = "focus"
	EventTyping   = "typing"
	EventError    = "error"
	EventStatus   = "status"
	EventPong     = "pong"
)

// Event is one server-to-browser frame.
type Event struct {
	Type     string              `json:"type"`
	Message  *domain.Message     `json:"message,omitempty"`
	Enabled  *bool               `json:"enabled,omitempty"`
	Visible  *bool               `json:"visible,omitempty"`
	Text     string              `json:"text,omitempty"`
	Status   domain.SystemStatus `json:"status,omitempty"`
	Snapshot *Snapshot           `json:"snapshot,omitempty"`
}

// Snapshot is the full view state replayed to a newly connected tab.
type Snapshot struct {
	Messages []domain.Message `json:"messages"`
	State    chat.UIState     `json:"state"`
}

// Hub is a chat.ViewSet that keeps a mirror of the view state and fans every
// change out to connected browser tabs.
type Hub struct {
	mu      sync.RWMutex
	history *history
	state   chat.UIState
	clients map[int64]*client
	nextID  int64
	logger  *slog.Logger
}

var _ chat.ViewSet = (*Hub)(nil)

// NewHub creates an empty Hub that replays up to DefaultHistorySize messages.
func NewHub(logger *slog.Logger) *Hub {
	return NewHubWithHistory(DefaultHistorySize, logger)
}

// NewHubWithHistory creates an empty Hub that replays up to size messages.
func NewHubWithHistory(size int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		history: newHistory(size),
		state: chat.UIState{
			InputEnabled: true,
			Status:       domain.StatusUnknown,
		},
		clients: make(map[int64]*client),
		logger:  logger,
	}
}

type client struct {
	id   int64
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	once sync.Once
}

func (c *client) close(status websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close(status, reason)
	})
}

// register adds conn and queues the current snapshot as its first event.
func (h *Hub) register(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	c := &client{
		id:   h.nextID,
		conn: conn,
		send: make(chan Event, clientBufferSize),
		done: make(chan struct{}),
	}
	c.send <- Event{Type: EventSnapshot, Snapshot: h.snapshotLocked()}
	h.clients[c.id] = c
	h.logger.Info("Browser view connected", "client_id", c.id, "clients", len(h.clients))
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.logger.Info("Browser view disconnected", "client_id", c.id, "clients", len(h.clients))
	}
}

// writeLoop drains c.send onto the websocket until the client is closed.
func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case ev := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, c.conn, ev)
			cancel()
			if err != nil {
				h.logger.Debug("Browser view write failed", "client_id", c.id, "error", err)
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// Snapshot returns a copy of the mirrored view state.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return *h.snapshotLocked()
}

func (h *Hub) snapshotLocked() *Snapshot {
	return &Snapshot{Messages: h.history.messages(), State: h.state}
}

// ClientCount returns the number of connected tabs.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastLocked queues ev for every client. A client whose buffer is full
// is disconnected rather than allowed to stall the controller.
func (h *Hub) broadcastLocked(ev Event) {
	for id, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.logger.Warn("Browser view too slow, disconnecting", "client_id", id)
			delete(h.clients, id)
			go c.close(websocket.StatusPolicyViolation, "slow consumer")
		}
	}
}

// Append mirrors a new log entry.
func (h *Hub) Append(msg domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history.add(msg)
	h.broadcastLocked(Event{Type: EventMessage, Message: &msg})
}

// SetEnabled mirrors the input enabled flag.
func (h *Hub) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.InputEnabled = enabled
	h.broadcastLocked(Event{Type: EventInput, Enabled: &enabled})
}

// SetSendEnabled mirrors the send control flag.
func (h *Hub) SetSendEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.SendEnabled = enabled
	h.broadcastLocked(Event{Type: EventSend, Enabled: &enabled})
}

// Clear tells tabs to empty their input field.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(Event{Type: EventClear})
}

// Focus tells tabs to focus their input field.
func (h *Hub) Focus() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(Event{Type: EventFocus})
}

// SetTypingVisible mirrors the typing indicator.
func (h *Hub) SetTypingVisible(visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.TypingVisible = visible
	h.broadcastLocked(Event{Type: EventTyping, Visible: &visible})
}

// ShowError mirrors the error banner.
func (h *Hub) ShowError(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	visible := true
	h.state.ErrorVisible = true
	h.state.ErrorText = text
	h.broadcastLocked(Event{Type: EventError, Visible: &visible, Text: text})
}

// HideError mirrors banner dismissal.
func (h *Hub) HideError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	visible := false
	h.state.ErrorVisible = false
	h.state.ErrorText = ""
	h.broadcastLocked(Event{Type: EventError, Visible: &visible})
}

// SetStatus mirrors the health indicator.
func (h *Hub) SetStatus(status domain.SystemStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Status = status
	h.broadcastLocked(Event{Type: EventStatus, Status: status})
}
