package domain

import (
	"context"
	"time"
)

// Session is the per-chat user state row
type Session struct {
	ID                int64     `json:"id"`
	TgChatID          int64     `json:"tg_chat_id"`
	AccountID         int64     `json:"account_id"`
	OrganizationID    int64     `json:"organization_id"`
	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
	TgUsername        string    `json:"tg_username"`
	CanShowAlerts     bool      `json:"can_show_alerts"`
	ShowErrorRecovery bool      `json:"show_error_recovery"`
	CreatedAt         time.Time `json:"created_at"`
}

// IsAuthenticated reports whether the chat is bound to an account
func (s *Session) IsAuthenticated() bool {
	return s.AccountID != 0 && s.AccessToken != ""
}

// HasOrganization reports whether the account is affiliated with an organization
func (s *Session) HasOrganization() bool {
	return s.OrganizationID != 0
}

// SessionUpdate carries a partial update; nil fields are left untouched
type SessionUpdate struct {
	AccountID         *int64
	OrganizationID    *int64
	AccessToken       *string
	RefreshToken      *string
	TgUsername        *string
	CanShowAlerts     *bool
	ShowErrorRecovery *bool
}

// IsEmpty reports whether the update changes nothing
func (u SessionUpdate) IsEmpty() bool {
	return u.AccountID == nil && u.OrganizationID == nil && u.AccessToken == nil &&
		u.RefreshToken == nil && u.TgUsername == nil && u.CanShowAlerts == nil &&
		u.ShowErrorRecovery == nil
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, tgChatID int64, tgUsername string) (int64, error)
	GetByChatID(ctx context.Context, tgChatID int64) (*Session, error)
	GetByAccountID(ctx context.Context, accountID int64) (*Session, error)
	Update(ctx context.Context, sessionID int64, update SessionUpdate) error
}

// CachedMedia maps a local file name to a messenger media id
type CachedMedia struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	FileID    string    `json:"file_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaRepository defines the interface for the insert-only media cache
type MediaRepository interface {
	CacheMedia(ctx context.Context, filename, fileID string) error
	LookupMedia(ctx context.Context, filename string) (string, error)
}

// Ptr returns a pointer to v, handy for partial updates
func Ptr[T any](v T) *T {
	return &v
}
