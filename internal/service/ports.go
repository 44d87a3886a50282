package service

import (
	"context"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
)

// PublicationAPI is the part of the content service the publication workflows consume
type PublicationAPI interface {
	GeneratePublicationText(ctx context.Context, categoryID int64, textReference string) (string, error)
	RegeneratePublicationText(ctx context.Context, categoryID int64, text, prompt string) (string, error)
	GeneratePublicationImage(ctx context.Context, categoryID int64, text, textReference, prompt string) ([]string, error)
	EditImage(ctx context.Context, organizationID int64, prompt string, image backend.File) ([]string, error)
	CombineImages(ctx context.Context, organizationID, categoryID int64, prompt string, images []backend.File) ([]string, error)

	CreatePublication(ctx context.Context, p domain.PublicationCreate) (int64, error)
	ChangePublication(ctx context.Context, ch domain.PublicationChange) error
	GetPublication(ctx context.Context, publicationID int64) (*domain.Publication, error)
	PublicationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Publication, error)
	DeletePublication(ctx context.Context, publicationID int64) error
	DeletePublicationImage(ctx context.Context, publicationID int64) error
	SendPublicationToModeration(ctx context.Context, publicationID int64) error
	ModeratePublication(ctx context.Context, publicationID, moderatorID int64, status, comment string) (*domain.ModerationResult, error)
}

// VideoCutAPI is the part of the content service the video cut workflows consume
type VideoCutAPI interface {
	GenerateVideoCuts(ctx context.Context, organizationID, creatorID int64, youtubeURL string) error
	ChangeVideoCut(ctx context.Context, ch domain.VideoCutChange) error
	GetVideoCut(ctx context.Context, videoCutID int64) (*domain.VideoCut, error)
	VideoCutsByOrganization(ctx context.Context, organizationID int64) ([]domain.VideoCut, error)
	DeleteVideoCut(ctx context.Context, videoCutID int64) error
	SendVideoCutToModeration(ctx context.Context, videoCutID int64) error
	ModerateVideoCut(ctx context.Context, videoCutID, moderatorID int64, status, comment string) (*domain.ModerationResult, error)
}

// Transcriber turns speech into text
type Transcriber interface {
	TranscribeAudio(ctx context.Context, organizationID int64, audio []byte, filename string) (string, error)
}

// FileDownloader fetches messenger-hosted files and remote images
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
	DownloadURL(ctx context.Context, url string) ([]byte, error)
}

// TextSender posts plain notifications to a chat
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
