package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/repository/postgres"
)

func TestAlertRepository_Lifecycle(t *testing.T) {
	pool := setupDB(t)
	sessions := postgres.NewSessionRepository(pool, nil)
	repo := postgres.NewAlertRepository(pool)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, uniqueChatID(), "carol")
	require.NoError(t, err)

	_, err = repo.CreatePublicationApproved(ctx, &domain.PublicationApprovedAlert{
		SessionID:     sessionID,
		PublicationID: 5,
		PostLinks:     map[string]string{"telegram": "https://t.me/c/1/2"},
	})
	require.NoError(t, err)

	_, err = repo.CreatePublicationRejected(ctx, &domain.PublicationRejectedAlert{
		SessionID:     sessionID,
		PublicationID: 6,
		Comment:       "too many emojis",
	})
	require.NoError(t, err)

	vid, err := repo.CreateVideoCutReady(ctx, &domain.VideoCutReadyAlert{
		SessionID:             sessionID,
		YoutubeVideoReference: "https://youtu.be/dQw4w9WgXcQ",
		VideoCount:            3,
	})
	require.NoError(t, err)

	approved, err := repo.PublicationApprovedBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "https://t.me/c/1/2", approved[0].PostLinks["telegram"])

	rejected, err := repo.PublicationRejectedBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "too many emojis", rejected[0].Comment)

	cuts, err := repo.VideoCutReadyBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, cuts, 1)
	assert.Equal(t, 3, cuts[0].VideoCount)

	require.NoError(t, repo.DeleteVideoCutReady(ctx, vid))
	cuts, err = repo.VideoCutReadyBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, cuts)
}
