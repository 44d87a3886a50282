package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/domain"
)

// ChatActions lets webhook handlers act on a chat's dialog out of band
type ChatActions interface {
	// ShowAlerts queues the alert dispatcher on the chat's lane
	ShowAlerts(ctx context.Context, chatID int64) error
	// ResetDialog drops the chat's dialog stack and shows the entry screen
	ResetDialog(ctx context.Context, chatID int64) error
}

// NotificationService applies inbound notifications to sessions and alerts
type NotificationService struct {
	sessions domain.SessionRepository
	alerts   domain.AlertRepository
	sender   TextSender
	actions  ChatActions
}

// NewNotificationService creates a new notification service
func NewNotificationService(sessions domain.SessionRepository, alerts domain.AlertRepository, sender TextSender) *NotificationService {
	return &NotificationService{sessions: sessions, alerts: alerts, sender: sender}
}

// SetActions attaches the dialog side once the bot is built
func (s *NotificationService) SetActions(actions ChatActions) {
	s.actions = actions
}

func (s *NotificationService) session(ctx context.Context, accountID int64) (*domain.Session, error) {
	session, err := s.sessions.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		log.Debug().Int64("account_id", accountID).Msg("No chat bound to account, notification skipped")
	}
	return session, nil
}

// EmployeeAdded binds the account's chat to the organization
func (s *NotificationService) EmployeeAdded(ctx context.Context, accountID, organizationID int64) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}

	if err := s.sessions.Update(ctx, session.ID, domain.SessionUpdate{OrganizationID: domain.Ptr(organizationID)}); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.sender.SendText(ctx, session.TgChatID, "You have been added to an organization. Welcome aboard!"); err != nil {
		log.Warn().Err(err).Int64("chat_id", session.TgChatID).Msg("Failed to notify added employee")
	}
	return s.reset(ctx, session.TgChatID)
}

// EmployeeDeleted detaches the account's chat from its organization
func (s *NotificationService) EmployeeDeleted(ctx context.Context, accountID int64) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}

	if err := s.sessions.Update(ctx, session.ID, domain.SessionUpdate{OrganizationID: domain.Ptr(int64(0))}); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := s.sender.SendText(ctx, session.TgChatID, "You have been removed from the organization."); err != nil {
		log.Warn().Err(err).Int64("chat_id", session.TgChatID).Msg("Failed to notify removed employee")
	}
	return s.reset(ctx, session.TgChatID)
}

// NotifyEmployee messages an employee whose role or permissions changed
func (s *NotificationService) NotifyEmployee(ctx context.Context, accountID int64, text string) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}
	if err := s.sender.SendText(ctx, session.TgChatID, text); err != nil {
		return fmt.Errorf("failed to notify employee: %w", err)
	}
	return nil
}

// VideoCutGenerated records that clips of a video are ready
func (s *NotificationService) VideoCutGenerated(ctx context.Context, accountID int64, youtubeReference string, count int) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}

	_, err = s.alerts.CreateVideoCutReady(ctx, &domain.VideoCutReadyAlert{
		SessionID:             session.ID,
		YoutubeVideoReference: youtubeReference,
		VideoCount:            count,
	})
	if err != nil {
		return fmt.Errorf("failed to create video cut alert: %w", err)
	}
	return s.show(ctx, session)
}

// PublicationApproved records a published publication with its post links
func (s *NotificationService) PublicationApproved(ctx context.Context, accountID, publicationID int64, postLinks map[string]string) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}

	_, err = s.alerts.CreatePublicationApproved(ctx, &domain.PublicationApprovedAlert{
		SessionID:     session.ID,
		PublicationID: publicationID,
		PostLinks:     postLinks,
	})
	if err != nil {
		return fmt.Errorf("failed to create approved alert: %w", err)
	}
	return s.show(ctx, session)
}

// PublicationRejected records a rejected publication with the moderator's comment
func (s *NotificationService) PublicationRejected(ctx context.Context, accountID, publicationID int64, comment string) error {
	session, err := s.session(ctx, accountID)
	if err != nil || session == nil {
		return err
	}

	_, err = s.alerts.CreatePublicationRejected(ctx, &domain.PublicationRejectedAlert{
		SessionID:     session.ID,
		PublicationID: publicationID,
		Comment:       comment,
	})
	if err != nil {
		return fmt.Errorf("failed to create rejected alert: %w", err)
	}
	return s.show(ctx, session)
}

func (s *NotificationService) show(ctx context.Context, session *domain.Session) error {
	if !session.CanShowAlerts || s.actions == nil {
		return nil
	}
	if err := s.actions.ShowAlerts(ctx, session.TgChatID); err != nil {
		log.Warn().Err(err).Int64("chat_id", session.TgChatID).Msg("Failed to show alerts")
	}
	return nil
}

func (s *NotificationService) reset(ctx context.Context, chatID int64) error {
	if s.actions == nil {
		return nil
	}
	if err := s.actions.ResetDialog(ctx, chatID); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to reset dialog")
	}
	return nil
}
