package models

import "encoding/json"

// APIResponse is the envelope every chat endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// RawAPIResponse is the client-side view of APIResponse with Data left undecoded.
type RawAPIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// WebSocket message types
const (
	EventChatCreated = "chat_created"
	EventChatMessage = "chat_message"
	EventChatRenamed = "chat_renamed"
	EventChatDeleted = "chat_deleted"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ChatMessageEvent struct {
	ChatID   string    `json:"chatId"`
	Messages []Message `json:"messages"`
}

type ChatEvent struct {
	ChatID string `json:"chatId"`
	Name   string `json:"name,omitempty"`
}
