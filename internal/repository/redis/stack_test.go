package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/repository/redis"
)

func TestStackStorage_RoundTrip(t *testing.T) {
	client := setupRedis(t)
	storage := redis.NewStackStorage(client, time.Hour)
	ctx := context.Background()
	chatID := time.Now().UnixNano()

	missing, err := storage.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	stack := &dialog.Stack{
		ChatID: chatID,
		Frames: []*dialog.Frame{{
			ID:      "abcd1234",
			Group:   "main_menu",
			State:   "main_menu:main",
			Data:    []byte(`{"count":2}`),
			Widgets: map[string]string{"notify": "1"},
		}},
		MessageID: 17,
		MediaKey:  "url:https://img/1.jpg",
	}
	require.NoError(t, storage.Save(ctx, stack))

	loaded, err := storage.Load(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 17, loaded.MessageID)
	assert.Equal(t, "url:https://img/1.jpg", loaded.MediaKey)
	require.Len(t, loaded.Frames, 1)
	assert.Equal(t, dialog.State("main_menu:main"), loaded.Top().State)
	assert.JSONEq(t, `{"count":2}`, string(loaded.Top().Data))
	assert.Equal(t, "1", loaded.Top().Widgets["notify"])

	ttl, err := client.Client().TTL(ctx, fmt.Sprintf("dialog:stack:%d", chatID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, storage.Delete(ctx, chatID))
	gone, err := storage.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStackStorage_Purge(t *testing.T) {
	client := setupRedis(t)
	storage := redis.NewStackStorage(client, 0)
	ctx := context.Background()

	base := time.Now().UnixNano()
	for i := int64(0); i < 3; i++ {
		require.NoError(t, storage.Save(ctx, &dialog.Stack{ChatID: base + i}))
	}

	deleted, err := storage.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(3))

	loaded, err := storage.Load(ctx, base)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRateLimiter_PerChatLimit(t *testing.T) {
	client := setupRedis(t)
	limiter := redis.NewRateLimiter(client, 2, 1)
	ctx := context.Background()
	chatID := time.Now().UnixNano()
	other := chatID + 1

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, chatID)
		require.NoError(t, err)
		assert.True(t, ok, "update %d should pass", i)
	}

	ok, err := limiter.Allow(ctx, chatID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.Reset(ctx, chatID))
	ok, err = limiter.Allow(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_DisabledWithoutLimit(t *testing.T) {
	limiter := redis.NewRateLimiter(nil, 0, 0)

	ok, err := limiter.Allow(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
