package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rrens/smm-bot/internal/domain"
)

// GenerateVideoCuts starts an asynchronous cutting job for a YouTube video.
// Completion arrives later through the video cut webhook.
func (c *ContentClient) GenerateVideoCuts(ctx context.Context, organizationID, creatorID int64, youtubeURL string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/video-cut/vizard/generate",
		body: map[string]any{
			"organization_id":         organizationID,
			"creator_id":              creatorID,
			"youtube_video_reference": youtubeURL,
		},
		heavy: true,
	}, nil)
}

func (c *ContentClient) ChangeVideoCut(ctx context.Context, ch domain.VideoCutChange) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/video-cut/vizard", body: ch}, nil)
}

func (c *ContentClient) GetVideoCut(ctx context.Context, videoCutID int64) (*domain.VideoCut, error) {
	var out domain.VideoCut
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/video-cut/vizard/%d", videoCutID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ContentClient) VideoCutsByOrganization(ctx context.Context, organizationID int64) ([]domain.VideoCut, error) {
	var out []domain.VideoCut
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/video-cut/vizard/organization/%d", organizationID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

func (c *ContentClient) DeleteVideoCut(ctx context.Context, videoCutID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/video-cut/vizard/%d", videoCutID)}, nil)
}

func (c *ContentClient) SendVideoCutToModeration(ctx context.Context, videoCutID int64) error {
	return c.do(ctx, request{method: http.MethodPost, path: idPath("/video-cut/vizard/%d/moderation", videoCutID)}, nil)
}

func (c *ContentClient) ModerateVideoCut(ctx context.Context, videoCutID, moderatorID int64, status, comment string) (*domain.ModerationResult, error) {
	var out map[string]any
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/video-cut/vizard/moderate",
		body: map[string]any{
			"video_cut_id":       videoCutID,
			"moderator_id":       moderatorID,
			"moderation_status":  status,
			"moderation_comment": comment,
		},
		heavy: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &domain.ModerationResult{PostLinks: postLinks(out)}, nil
}
