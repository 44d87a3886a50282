package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Rrens/smm-bot/internal/domain"
)

// SocialNetworks returns every connected network of an organization
func (c *ContentClient) SocialNetworks(ctx context.Context, organizationID int64) (*domain.SocialNetworks, error) {
	var out domain.SocialNetworks
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/social-network/%d", organizationID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.SocialNetworks{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ContentClient) CreateTelegram(ctx context.Context, organizationID int64, username string, autoselect bool) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/social-network/telegram",
		body: map[string]any{
			"organization_id":     organizationID,
			"tg_channel_username": username,
			"autoselect":          autoselect,
		},
	}, nil)
}

// UpdateTelegram changes the username and/or autoselect flag; nil values are untouched
func (c *ContentClient) UpdateTelegram(ctx context.Context, organizationID int64, username *string, autoselect *bool) error {
	body := map[string]any{"organization_id": organizationID}
	if username != nil {
		body["tg_channel_username"] = *username
	}
	if autoselect != nil {
		body["autoselect"] = *autoselect
	}
	return c.do(ctx, request{method: http.MethodPut, path: "/social-network/telegram", body: body}, nil)
}

func (c *ContentClient) DeleteTelegram(ctx context.Context, organizationID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/social-network/telegram/%d", organizationID)}, nil)
}

// CheckTelegramPermission reports whether the publishing bot is an admin of the channel
func (c *ContentClient) CheckTelegramPermission(ctx context.Context, username string) (bool, error) {
	var out struct {
		HasPermission bool `json:"has_permission"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/social-network/telegram/permission/" + url.PathEscape(username),
	}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return out.HasPermission, err
}

// ChannelPosts fetches recent posts of a public channel; text is HTML
func (c *ContentClient) ChannelPosts(ctx context.Context, username string, limit int) ([]ChannelPost, error) {
	var out []ChannelPost
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/telegram/channel/" + url.PathEscape(username) + "/posts",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
		heavy:  true,
	}, &out)
	return out, err
}
