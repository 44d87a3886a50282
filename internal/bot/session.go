package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/service"
)

const (
	sessionKey  = "session"
	employeeKey = "employee"
)

// sessionMiddleware loads or creates the chat's session and attaches it
// to the context the collaborator clients authenticate with
func (b *Bot) sessionMiddleware(next dialog.HandlerFunc) dialog.HandlerFunc {
	return func(ctx context.Context, m *dialog.Manager) error {
		session, err := b.loadSession(ctx, m.ChatID(), m.Event().Username)
		if err != nil {
			return err
		}
		m.Set(sessionKey, session)
		return next(backend.WithSession(ctx, session), m)
	}
}

func (b *Bot) loadSession(ctx context.Context, chatID int64, username string) (*domain.Session, error) {
	session, err := b.deps.Sessions.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		if _, err := b.deps.Sessions.Create(ctx, chatID, username); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		session, err = b.deps.Sessions.GetByChatID(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
		if session == nil {
			return nil, fmt.Errorf("session of chat %d vanished after create", chatID)
		}
		log.Info().Int64("chat_id", chatID).Int64("session_id", session.ID).Msg("Session created")
		return session, nil
	}

	if username != "" && username != session.TgUsername {
		if err := b.deps.Sessions.Update(ctx, session.ID, domain.SessionUpdate{TgUsername: domain.Ptr(username)}); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to update username")
		} else {
			session.TgUsername = username
		}
	}
	return session, nil
}

func sessionOf(m *dialog.Manager) *domain.Session {
	if s, ok := m.Value(sessionKey).(*domain.Session); ok {
		return s
	}
	return &domain.Session{TgChatID: m.ChatID()}
}

// getter re-attaches the session; windows render outside the middleware chain
func getter(g dialog.Getter) dialog.Getter {
	return func(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
		return g(backend.WithSession(ctx, sessionOf(m)), m)
	}
}

// employee returns the acting employee, nil for accounts without an organization
func (b *Bot) employee(ctx context.Context, m *dialog.Manager) (*domain.Employee, error) {
	if e, ok := m.Value(employeeKey).(*domain.Employee); ok {
		return e, nil
	}
	s := sessionOf(m)
	if s.AccountID == 0 {
		return nil, nil
	}
	e, err := b.deps.Employees.ByAccountID(ctx, s.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if e != nil {
		m.Set(employeeKey, e)
	}
	return e, nil
}

func (b *Bot) allowed(ctx context.Context, m *dialog.Manager, p service.Permission) (bool, error) {
	e, err := b.employee(ctx, m)
	if err != nil {
		return false, err
	}
	return service.Allowed(e, p), nil
}

// gate runs fn only when the acting employee holds p. Otherwise a toast
// explains why and the screen stays as it is.
func (b *Bot) gate(p service.Permission, fn dialog.Handler) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		ok, err := b.allowed(ctx, m, p)
		if err != nil {
			return err
		}
		if !ok {
			b.deny(ctx, m, p)
			return nil
		}
		return fn(ctx, m)
	}
}

func (b *Bot) deny(ctx context.Context, m *dialog.Manager, p service.Permission) {
	text := service.DeniedText(p)
	if m.Event().IsCallback() {
		m.Answer(text, true)
		m.Show(dialog.ShowNoUpdate)
		return
	}
	if err := m.Send(ctx, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", m.ChatID()).Msg("Failed to send permission notice")
	}
}

func startTo(state dialog.State, mode dialog.StartMode) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		return m.Start(ctx, state, mode, nil)
	}
}

func switchTo(state dialog.State) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		return m.SwitchTo(state)
	}
}

// busy keeps proactive alerts from replacing a dialog with unsaved work
func (b *Bot) busy(ctx context.Context, m *dialog.Manager) error {
	s := sessionOf(m)
	if s.ID == 0 || !s.CanShowAlerts {
		return nil
	}
	return b.alerts.SetCanShowAlerts(ctx, s, false)
}

// preempt shows a pending alert instead of the dialog being entered
func (b *Bot) preempt(ctx context.Context, m *dialog.Manager) error {
	_, err := b.dispatchAlerts(ctx, m)
	return err
}

var alertStates = map[domain.AlertKind]dialog.State{
	domain.AlertPublicationApproved: AlertPublicationApproved,
	domain.AlertPublicationRejected: AlertPublicationRejected,
	domain.AlertVideoCutReady:       AlertVideoCutReady,
}

func (b *Bot) dispatchAlerts(ctx context.Context, m *dialog.Manager) (bool, error) {
	s := sessionOf(m)
	if s.ID == 0 || !s.IsAuthenticated() {
		return false, nil
	}
	alert, err := b.alerts.Dispatch(ctx, s)
	if err != nil {
		return false, err
	}
	if alert == nil {
		return false, nil
	}
	return true, m.Start(ctx, alertStates[alert.Kind], dialog.StartResetStack, alert)
}

// enterHome routes to the screen a user belongs on: onboarding, the
// invitation screen, a pending alert, or the main menu
func (b *Bot) enterHome(ctx context.Context, m *dialog.Manager) error {
	s := sessionOf(m)
	if !s.IsAuthenticated() {
		return m.Start(ctx, OnboardingWelcome, dialog.StartResetStack, nil)
	}
	if !s.HasOrganization() {
		return m.Start(ctx, OnboardingAwaitInvitation, dialog.StartResetStack, nil)
	}

	preempted, err := b.dispatchAlerts(ctx, m)
	if err != nil || preempted {
		return err
	}
	return m.Start(ctx, MainMenu, dialog.StartResetStack, nil)
}

// finish closes the current dialog, falling back to home on an empty stack.
// Alerts held back while the dialog ran are shown now.
func (b *Bot) finish(ctx context.Context, m *dialog.Manager) error {
	if err := m.Done(ctx, nil); err != nil {
		return err
	}
	if m.Stack().Empty() {
		return b.enterHome(ctx, m)
	}
	_, err := b.dispatchAlerts(ctx, m)
	return err
}

// bindOrganization stores the account's organization on the session
func (b *Bot) bindOrganization(ctx context.Context, s *domain.Session, organizationID int64) error {
	if s.OrganizationID == organizationID {
		return nil
	}
	if err := b.deps.Sessions.Update(ctx, s.ID, domain.SessionUpdate{OrganizationID: domain.Ptr(organizationID)}); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	s.OrganizationID = organizationID
	return nil
}

// bindTokens stores a fresh credential pair on the session
func (b *Bot) bindTokens(ctx context.Context, s *domain.Session, t *domain.Tokens) error {
	update := domain.SessionUpdate{
		AccountID:    domain.Ptr(t.AccountID),
		AccessToken:  domain.Ptr(t.AccessToken),
		RefreshToken: domain.Ptr(t.RefreshToken),
	}
	if err := b.deps.Sessions.Update(ctx, s.ID, update); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	s.AccountID = t.AccountID
	s.AccessToken = t.AccessToken
	s.RefreshToken = t.RefreshToken
	return nil
}

// syncOrganization refreshes the session's organization from the employee record
func (b *Bot) syncOrganization(ctx context.Context, m *dialog.Manager) error {
	e, err := b.employee(ctx, m)
	if err != nil || e == nil {
		return err
	}
	return b.bindOrganization(ctx, sessionOf(m), e.OrganizationID)
}

func (b *Bot) onStart(ctx context.Context, m *dialog.Manager) error {
	m.Show(dialog.ShowSend)
	if sessionOf(m).IsAuthenticated() {
		if err := b.syncOrganization(ctx, m); err != nil {
			return err
		}
	}
	return b.enterHome(ctx, m)
}

func (b *Bot) onLogin(ctx context.Context, m *dialog.Manager) error {
	m.Show(dialog.ShowSend)
	return m.Start(ctx, AuthLogin, dialog.StartResetStack, nil)
}

func (b *Bot) onProfile(ctx context.Context, m *dialog.Manager) error {
	if !sessionOf(m).IsAuthenticated() {
		return b.enterHome(ctx, m)
	}
	m.Show(dialog.ShowSend)
	return m.Start(ctx, ProfileMain, dialog.StartResetStack, nil)
}

// onUnhandled resends the current window so it stays the last message
func (b *Bot) onUnhandled(ctx context.Context, m *dialog.Manager, _ *dialog.Message) error {
	if m.Stack().Empty() {
		return b.onStart(ctx, m)
	}
	m.Show(dialog.ShowSend)
	return nil
}
