package domain

import "time"

// Moderation statuses shared by publications and video cuts
const (
	ModerationDraft      = "draft"
	ModerationModeration = "moderation"
	ModerationApproved   = "approved"
	ModerationRejected   = "rejected"
)

// Social network keys used in selections and post links
const (
	NetworkTelegram  = "telegram"
	NetworkVkontakte = "vkontakte"
	NetworkYoutube   = "youtube"
	NetworkInstagram = "instagram"
)

// Publication is a text+image post
type Publication struct {
	ID                int64     `json:"id"`
	OrganizationID    int64     `json:"organization_id"`
	CategoryID        int64     `json:"category_id"`
	CreatorID         int64     `json:"creator_id"`
	ModeratorID       int64     `json:"moderator_id"`
	VkSource          bool      `json:"vk_source"`
	TgSource          bool      `json:"tg_source"`
	Text              string    `json:"text"`
	ImageURL          string    `json:"image_url"`
	ModerationStatus  string    `json:"moderation_status"`
	ModerationComment string    `json:"moderation_comment"`
	TgLink            string    `json:"tg_link"`
	VkLink            string    `json:"vk_link"`
	CreatedAt         time.Time `json:"created_at"`
}

// PublicationCreate is the payload of a new publication
type PublicationCreate struct {
	OrganizationID   int64
	CategoryID       int64
	CreatorID        int64
	Text             string
	ModerationStatus string
	ImageURL         string
	ImageContent     []byte
	ImageFilename    string
}

// PublicationChange is a partial publication update; nil fields are untouched
type PublicationChange struct {
	ID            int64
	Text          *string
	TgSource      *bool
	VkSource      *bool
	ImageURL      *string
	ImageContent  []byte
	ImageFilename string
}

// ModerationResult carries post links returned by an approve
type ModerationResult struct {
	PostLinks map[string]string `json:"post_links"`
}
