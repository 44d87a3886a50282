package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/smm-bot/internal/dialog"
)

const (
	stackPrefix     = "dialog:stack:"
	defaultStackTTL = 30 * 24 * time.Hour
)

// StackStorage keeps dialog stacks in Redis so navigation survives restarts
type StackStorage struct {
	client *Client
	ttl    time.Duration
}

// NewStackStorage creates a stack storage; a zero ttl falls back to 30 days
func NewStackStorage(client *Client, ttl time.Duration) *StackStorage {
	if ttl <= 0 {
		ttl = defaultStackTTL
	}
	return &StackStorage{client: client, ttl: ttl}
}

func stackKey(chatID int64) string {
	return fmt.Sprintf("%s%d", stackPrefix, chatID)
}

// Load returns the chat's stack, or nil when none is stored
func (s *StackStorage) Load(ctx context.Context, chatID int64) (*dialog.Stack, error) {
	data, err := s.client.rdb.Get(ctx, stackKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stack: %w", err)
	}

	var stack dialog.Stack
	if err := json.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stack: %w", err)
	}

	return &stack, nil
}

// Save stores the stack and refreshes its expiry
func (s *StackStorage) Save(ctx context.Context, stack *dialog.Stack) error {
	data, err := json.Marshal(stack)
	if err != nil {
		return fmt.Errorf("failed to marshal stack: %w", err)
	}

	if err := s.client.rdb.Set(ctx, stackKey(stack.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stack: %w", err)
	}
	return nil
}

// Delete removes the chat's stack
func (s *StackStorage) Delete(ctx context.Context, chatID int64) error {
	return s.client.rdb.Del(ctx, stackKey(chatID)).Err()
}

// Purge removes every stored stack
func (s *StackStorage) Purge(ctx context.Context) (int64, error) {
	pattern := stackPrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := s.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := s.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
