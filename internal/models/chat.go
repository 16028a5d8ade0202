package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultChatName = "New Chat"
)

// Message is one turn of a conversation. Timestamp is milliseconds since epoch.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage stamps a message with the current time.
func NewMessage(role, content string, now time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: now.UnixMilli()}
}

// Chat is one persisted conversation. Messages are append-only.
type Chat struct {
	ID        uuid.UUID `json:"_id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Messages  []Message `json:"messages"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Append adds a message to the in-memory record and bumps UpdatedAt.
func (c *Chat) Append(m Message) {
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = time.UnixMilli(m.Timestamp).UTC()
}

// AIRequest is the payload of POST /api/chat/ai.
type AIRequest struct {
	ChatID string `json:"chatId"`
	Prompt string `json:"prompt"`
}

// RenameChatRequest is the payload of POST /api/chat/rename.
type RenameChatRequest struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name"`
}

// DeleteChatRequest is the payload of POST /api/chat/delete.
type DeleteChatRequest struct {
	ChatID string `json:"chatId"`
}
