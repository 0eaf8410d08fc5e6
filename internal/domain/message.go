// Package domain contains core domain types for the tutor chat client.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	// SenderUser marks a message typed by the learner.
	SenderUser Sender = "user"
	// SenderBot marks a reply from the tutoring backend.
	SenderBot Sender = "bot"
)

// Message is one entry of the chat log. It is never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	AgentName string    `json:"agent_name,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	ToolsUsed []string  `json:"tools_used,omitempty"`
}

// NewUserMessage creates a message authored by the learner.
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: at,
	}
}

// NewBotMessage creates a reply message. agentName is the display label, not
// the backend key.
func NewBotMessage(text, agentName, subject string, toolsUsed []string, at time.Time) Message {
	var tools []string
	if len(toolsUsed) > 0 {
		tools = append(tools, toolsUsed...)
	}
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		Timestamp: at,
		AgentName: agentName,
		Subject:   subject,
		ToolsUsed: tools,
	}
}

// HasTools reports whether the reply carries a tools-used annotation.
func (m Message) HasTools() bool {
	return len(m.ToolsUsed) > 0
}
