package webview

import "github.com/ashureev/tutor-chat/internal/domain"

// DefaultHistorySize caps how many messages a new tab is replayed.
const DefaultHistorySize = 500

// history is a fixed-size ring of messages. When full, the oldest message is
// overwritten. Callers synchronize access.
type history struct {
	buf  []domain.Message
	head int // next write position
	full bool
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{buf: make([]domain.Message, size)}
}

func (h *history) add(msg domain.Message) {
	h.buf[h.head] = msg
	h.head = (h.head + 1) % len(h.buf)
	if h.head == 0 {
		h.full = true
	}
}

// messages returns the retained messages oldest first.
func (h *history) messages() []domain.Message {
	if !h.full {
		out := make([]domain.Message, h.head)
		copy(out, h.buf[:h.head])
		return out
	}
	out := make([]domain.Message, 0, len(h.buf))
	out = append(out, h.buf[h.head:]...)
	return append(out, h.buf[:h.head]...)
}

func (h *history) len() int {
	if h.full {
		return len(h.buf)
	}
	return h.head
}
