package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/repository/postgres"
	"github.com/Rrens/smm-bot/internal/security"
)

func TestSessionRepository_CreateIsIdempotent(t *testing.T) {
	pool := setupDB(t)
	repo := postgres.NewSessionRepository(pool, nil)
	ctx := context.Background()
	chatID := uniqueChatID()

	const k = 8
	ids := make([]int64, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.Create(ctx, chatID, "alice")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_states WHERE tg_chat_id = $1`, chatID).Scan(&rows))
	assert.Equal(t, 1, rows)

	s, err := repo.GetByChatID(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(0), s.AccountID)
	assert.True(t, s.CanShowAlerts)
	assert.False(t, s.ShowErrorRecovery)
	assert.Equal(t, "alice", s.TgUsername)
}

func TestSessionRepository_PartialUpdate(t *testing.T) {
	pool := setupDB(t)
	enc, err := security.NewEncryptorFromSecret("test-secret")
	require.NoError(t, err)
	repo := postgres.NewSessionRepository(pool, enc)
	ctx := context.Background()
	chatID := uniqueChatID()

	id, err := repo.Create(ctx, chatID, "bob")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, domain.SessionUpdate{
		AccountID:    domain.Ptr(int64(42)),
		AccessToken:  domain.Ptr("access"),
		RefreshToken: domain.Ptr("refresh"),
	}))
	require.NoError(t, repo.Update(ctx, id, domain.SessionUpdate{
		CanShowAlerts: domain.Ptr(false),
	}))
	require.NoError(t, repo.Update(ctx, id, domain.SessionUpdate{}))

	s, err := repo.GetByAccountID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, id, s.ID)
	assert.Equal(t, "access", s.AccessToken)
	assert.Equal(t, "refresh", s.RefreshToken)
	assert.False(t, s.CanShowAlerts)
	assert.Equal(t, "bob", s.TgUsername)
	assert.Equal(t, int64(0), s.OrganizationID)

	var stored string
	require.NoError(t, pool.QueryRow(ctx, `SELECT access_token FROM user_states WHERE id = $1`, id).Scan(&stored))
	assert.NotEqual(t, "access", stored)
}

func TestSessionRepository_Missing(t *testing.T) {
	pool := setupDB(t)
	repo := postgres.NewSessionRepository(pool, nil)

	s, err := repo.GetByChatID(context.Background(), -1)
	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestMediaRepository_FirstWriteWins(t *testing.T) {
	pool := setupDB(t)
	repo := postgres.NewMediaRepository(pool)
	ctx := context.Background()

	name := "welcome.png" + t.Name()
	require.NoError(t, repo.CacheMedia(ctx, name, "file-1"))
	require.NoError(t, repo.CacheMedia(ctx, name, "file-2"))

	id, err := repo.LookupMedia(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)

	id, err = repo.LookupMedia(ctx, "never-uploaded.png")
	require.NoError(t, err)
	assert.Empty(t, id)
}
