package domain

import (
	"context"
	"time"
)

// AlertKind enumerates pending notification kinds
type AlertKind string

const (
	AlertPublicationApproved AlertKind = "publication_approved"
	AlertPublicationRejected AlertKind = "publication_rejected"
	AlertVideoCutReady       AlertKind = "video_cut_ready"
)

// AlertPriority lists alert kinds from highest to lowest priority
var AlertPriority = []AlertKind{
	AlertPublicationApproved,
	AlertPublicationRejected,
	AlertVideoCutReady,
}

// VideoCutReadyAlert is created when the cutting service finished a job
type VideoCutReadyAlert struct {
	ID                    int64     `json:"id"`
	SessionID             int64     `json:"state_id"`
	YoutubeVideoReference string    `json:"youtube_video_reference"`
	VideoCount            int       `json:"video_count"`
	CreatedAt             time.Time `json:"created_at"`
}

// PublicationApprovedAlert is created when a publication passed moderation
type PublicationApprovedAlert struct {
	ID            int64             `json:"id"`
	SessionID     int64             `json:"state_id"`
	PublicationID int64             `json:"publication_id"`
	PostLinks     map[string]string `json:"post_links"`
	CreatedAt     time.Time         `json:"created_at"`
}

// PublicationRejectedAlert is created when a publication was rejected by a moderator
type PublicationRejectedAlert struct {
	ID            int64     `json:"id"`
	SessionID     int64     `json:"state_id"`
	PublicationID int64     `json:"publication_id"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// AlertRepository defines the lifecycle of pending alerts per kind
type AlertRepository interface {
	CreateVideoCutReady(ctx context.Context, alert *VideoCutReadyAlert) (int64, error)
	VideoCutReadyBySession(ctx context.Context, sessionID int64) ([]VideoCutReadyAlert, error)
	DeleteVideoCutReady(ctx context.Context, id int64) error

	CreatePublicationApproved(ctx context.Context, alert *PublicationApprovedAlert) (int64, error)
	PublicationApprovedBySession(ctx context.Context, sessionID int64) ([]PublicationApprovedAlert, error)
	DeletePublicationApproved(ctx context.Context, id int64) error

	CreatePublicationRejected(ctx context.Context, alert *PublicationRejectedAlert) (int64, error)
	PublicationRejectedBySession(ctx context.Context, sessionID int64) ([]PublicationRejectedAlert, error)
	DeletePublicationRejected(ctx context.Context, id int64) error
}
