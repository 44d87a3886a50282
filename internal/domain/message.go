package domain

import (
	"context"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// LLMChat is the single active brief conversation of a session
type LLMChat struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LLMMessage is one turn of a brief conversation, ordered by ID
type LLMMessage struct {
	ID        int64       `json:"id"`
	ChatID    int64       `json:"chat_id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// LLMChatRepository defines the interface for brief chat storage
type LLMChatRepository interface {
	CreateChat(ctx context.Context, sessionID int64) (int64, error)
	ChatBySession(ctx context.Context, sessionID int64) (*LLMChat, error)
	DeleteChat(ctx context.Context, chatID int64) error
	Append(ctx context.Context, chatID int64, role MessageRole, text string) error
	List(ctx context.Context, chatID int64) ([]LLMMessage, error)
	Clear(ctx context.Context, chatID int64) error
}
