package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Storage persists chat stacks between events
type Storage interface {
	// Load returns nil when the chat has no stack yet
	Load(ctx context.Context, chatID int64) (*Stack, error)
	Save(ctx context.Context, stack *Stack) error
	Delete(ctx context.Context, chatID int64) error
}

// MemoryStorage keeps stacks in process memory.
// Stacks are stored serialized so callers never share frames.
type MemoryStorage struct {
	mu     sync.Mutex
	stacks map[int64][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{stacks: make(map[int64][]byte)}
}

func (s *MemoryStorage) Load(_ context.Context, chatID int64) (*Stack, error) {
	s.mu.Lock()
	raw, ok := s.stacks[chatID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var stack Stack
	if err := json.Unmarshal(raw, &stack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stack: %w", err)
	}
	return &stack, nil
}

func (s *MemoryStorage) Save(_ context.Context, stack *Stack) error {
	raw, err := json.Marshal(stack)
	if err != nil {
		return fmt.Errorf("failed to marshal stack: %w", err)
	}

	s.mu.Lock()
	s.stacks[stack.ChatID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	delete(s.stacks, chatID)
	s.mu.Unlock()
	return nil
}
