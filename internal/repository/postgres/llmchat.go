package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/smm-bot/internal/domain"
)

// LLMChatRepository implements domain.LLMChatRepository
type LLMChatRepository struct {
	pool *pgxpool.Pool
}

func NewLLMChatRepository(pool *pgxpool.Pool) *LLMChatRepository {
	return &LLMChatRepository{pool: pool}
}

// CreateChat opens the brief chat of a session; an existing chat is reused
func (r *LLMChatRepository) CreateChat(ctx context.Context, sessionID int64) (int64, error) {
	query := `
		INSERT INTO llm_chats (state_id)
		VALUES ($1)
		ON CONFLICT (state_id) DO UPDATE SET state_id = EXCLUDED.state_id
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, sessionID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create llm chat: %w", err)
	}
	return id, nil
}

func (r *LLMChatRepository) ChatBySession(ctx context.Context, sessionID int64) (*domain.LLMChat, error) {
	query := `SELECT id, state_id, created_at FROM llm_chats WHERE state_id = $1`
	var c domain.LLMChat
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&c.ID, &c.SessionID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get llm chat: %w", err)
	}
	return &c, nil
}

// DeleteChat removes the chat; messages cascade
func (r *LLMChatRepository) DeleteChat(ctx context.Context, chatID int64) error {
	query := `DELETE FROM llm_chats WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to delete llm chat: %w", err)
	}
	return nil
}

func (r *LLMChatRepository) Append(ctx context.Context, chatID int64, role domain.MessageRole, text string) error {
	query := `INSERT INTO llm_messages (chat_id, role, text) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, query, chatID, string(role), text); err != nil {
		return fmt.Errorf("failed to append llm message: %w", err)
	}
	return nil
}

// List returns the chat messages in insertion order
func (r *LLMChatRepository) List(ctx context.Context, chatID int64) ([]domain.LLMMessage, error) {
	query := `
		SELECT id, chat_id, role, text, created_at
		FROM llm_messages
		WHERE chat_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list llm messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.LLMMessage
	for rows.Next() {
		var m domain.LLMMessage
		var role string
		if err := rows.Scan(&m.ID, &m.ChatID, &role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan llm message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *LLMChatRepository) Clear(ctx context.Context, chatID int64) error {
	query := `DELETE FROM llm_messages WHERE chat_id = $1`
	if _, err := r.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to clear llm messages: %w", err)
	}
	return nil
}
