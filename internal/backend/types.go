package backend

import "github.com/Rrens/smm-bot/internal/domain"

type (
	Tokens      = domain.Tokens
	LoginResult = domain.LoginResult
	TwoFASetup  = domain.TwoFASetup
)

// ChannelPost is one post fetched from a public Telegram channel
type ChannelPost struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type textResponse struct {
	Text string `json:"text"`
}

type imagesResponse struct {
	ImagesURL []string `json:"images_url"`
}
