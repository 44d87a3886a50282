package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
)

type sessionKey struct{}

// WithSession attaches the acting session to ctx.
// Collaborator calls made with this ctx carry the session's access token.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session attached by WithSession
func SessionFrom(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s
}

// Refresher exchanges a refresh token for a new pair
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.Tokens, error)
}

// Authenticator hands out access tokens and refreshes them before they expire
type Authenticator struct {
	sessions  domain.SessionRepository
	refresher Refresher
	leeway    time.Duration
	now       func() time.Time
	mu        sync.Mutex
}

// NewAuthenticator creates an authenticator; SetRefresher must be called before use
func NewAuthenticator(sessions domain.SessionRepository) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		leeway:   30 * time.Second,
		now:      time.Now,
	}
}

// SetRefresher wires the accounts client, which itself depends on the authenticator
func (a *Authenticator) SetRefresher(r Refresher) {
	a.refresher = r
}

// AccessToken returns a valid access token for the session in ctx, or "" when there is none
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	session := SessionFrom(ctx)
	if session == nil || session.AccessToken == "" {
		return "", nil
	}
	if !security.NeedsRefresh(session.AccessToken, a.now(), a.leeway) {
		return session.AccessToken, nil
	}
	if err := a.ForceRefresh(ctx); err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// ForceRefresh refreshes the token pair of the session in ctx and persists it
func (a *Authenticator) ForceRefresh(ctx context.Context) error {
	session := SessionFrom(ctx)
	if session == nil || session.RefreshToken == "" || a.refresher == nil {
		return domain.ErrPermissionDenied
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tokens, err := a.refresher.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh tokens: %w", err)
	}

	session.AccessToken = tokens.AccessToken
	session.RefreshToken = tokens.RefreshToken

	if err := a.sessions.Update(ctx, session.ID, domain.SessionUpdate{
		AccessToken:  domain.Ptr(tokens.AccessToken),
		RefreshToken: domain.Ptr(tokens.RefreshToken),
	}); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	log.Debug().Int64("session_id", session.ID).Msg("access token refreshed")
	return nil
}
