package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/domain"
)

func TestQueue_Cursor(t *testing.T) {
	q := Queue{IDs: []int64{1, 2, 3}}

	q.Prev()
	id, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, int64(3), id)

	q.Remove(3)
	id, _ = q.Current()
	assert.Equal(t, int64(2), id)
	assert.Equal(t, 1, q.Index)

	q.Next()
	id, _ = q.Current()
	assert.Equal(t, int64(1), id)

	q.Remove(1)
	q.Remove(2)
	assert.True(t, q.Empty())
	_, ok = q.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Index)
}

func TestModerationService_ApprovePublication(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewModerationService(api, new(MockVideoCutAPI), new(MockSocialAPI))
	ctx := context.Background()

	sel := NetworkSelection{domain.NetworkTelegram: true, domain.NetworkVkontakte: false}

	change := api.On("ChangePublication", ctx, domain.PublicationChange{
		ID:       5,
		TgSource: domain.Ptr(true),
		VkSource: domain.Ptr(false),
	}).Return(nil).Once()
	api.On("ModeratePublication", ctx, int64(5), int64(9), domain.ModerationApproved, "").
		Return(&domain.ModerationResult{PostLinks: map[string]string{"telegram": "https://t.me/c/1/2"}}, nil).
		Once().
		NotBefore(change)

	result, err := svc.ApprovePublication(ctx, 5, 9, sel)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/c/1/2", result.PostLinks["telegram"])
	api.AssertExpectations(t)
}

func TestModerationService_ApproveRequiresNetwork(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewModerationService(api, new(MockVideoCutAPI), new(MockSocialAPI))

	_, err := svc.ApprovePublication(context.Background(), 5, 9, NetworkSelection{domain.NetworkTelegram: false})
	assert.ErrorIs(t, err, ErrNoNetworkSelected)
	api.AssertNotCalled(t, "ModeratePublication", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestModerationService_RejectCommentBounds(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		valid   bool
	}{
		{"too short", "short", false},
		{"lower bound", strings.Repeat("x", 10), true},
		{"upper bound", strings.Repeat("ж", 500), true},
		{"too long", strings.Repeat("x", 501), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockPublicationAPI)
			svc := NewModerationService(api, new(MockVideoCutAPI), new(MockSocialAPI))
			if tt.valid {
				api.On("ModeratePublication", mock.Anything, int64(5), int64(9), domain.ModerationRejected, tt.comment).
					Return(&domain.ModerationResult{}, nil).Once()
			}

			err := svc.RejectPublication(context.Background(), 5, 9, tt.comment)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidComment)
			}
			api.AssertExpectations(t)
		})
	}
}

func TestModerationService_PublicationQueue(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewModerationService(api, new(MockVideoCutAPI), new(MockSocialAPI))

	api.On("PublicationsByOrganization", mock.Anything, int64(1)).Return([]domain.Publication{
		{ID: 1, ModerationStatus: domain.ModerationDraft},
		{ID: 2, ModerationStatus: domain.ModerationModeration},
		{ID: 3, ModerationStatus: domain.ModerationApproved},
	}, nil)

	q, err := svc.PublicationQueue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, q.IDs)
}

func TestModerationService_SeedSelection(t *testing.T) {
	social := new(MockSocialAPI)
	svc := NewModerationService(new(MockPublicationAPI), new(MockVideoCutAPI), social)

	social.On("SocialNetworks", mock.Anything, int64(1)).Return(&domain.SocialNetworks{
		Telegram:  []domain.TelegramChannel{{ChannelUsername: "chan", Autoselect: true}},
		Vkontakte: []domain.SocialAccount{{Autoselect: false}},
	}, nil)

	sel, networks, err := svc.SeedSelection(context.Background(), 1, domain.NetworkTelegram, domain.NetworkVkontakte)
	require.NoError(t, err)
	assert.True(t, sel[domain.NetworkTelegram])
	assert.False(t, sel[domain.NetworkVkontakte])
	assert.True(t, networks.Connected(domain.NetworkVkontakte))
}

func TestModerationService_ApproveVideoCut(t *testing.T) {
	videos := new(MockVideoCutAPI)
	svc := NewModerationService(new(MockPublicationAPI), videos, new(MockSocialAPI))
	ctx := context.Background()

	videos.On("ChangeVideoCut", ctx, domain.VideoCutChange{
		ID:            4,
		YoutubeSource: domain.Ptr(true),
		InstSource:    domain.Ptr(false),
	}).Return(nil).Once()
	videos.On("ModerateVideoCut", ctx, int64(4), int64(9), domain.ModerationApproved, "").
		Return(&domain.ModerationResult{PostLinks: map[string]string{"youtube": "https://youtu.be/x"}}, nil).Once()

	result, err := svc.ApproveVideoCut(ctx, 4, 9, NetworkSelection{domain.NetworkYoutube: true})
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/x", result.PostLinks["youtube"])
	videos.AssertExpectations(t)
}
