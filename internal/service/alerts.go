package service

import (
	"context"
	"fmt"

	"github.com/Rrens/smm-bot/internal/domain"
)

// PendingAlert is the highest-priority alert waiting for a session
type PendingAlert struct {
	Kind     domain.AlertKind
	ID       int64
	Approved *domain.PublicationApprovedAlert
	Rejected *domain.PublicationRejectedAlert
	VideoCut *domain.VideoCutReadyAlert
}

// AlertService decides whether pending alerts preempt navigation
type AlertService struct {
	alerts   domain.AlertRepository
	sessions domain.SessionRepository
}

// NewAlertService creates a new alert service
func NewAlertService(alerts domain.AlertRepository, sessions domain.SessionRepository) *AlertService {
	return &AlertService{alerts: alerts, sessions: sessions}
}

// Next returns the oldest alert of the highest-priority kind, or nil
func (s *AlertService) Next(ctx context.Context, sessionID int64) (*PendingAlert, error) {
	for _, kind := range domain.AlertPriority {
		alert, err := s.firstOf(ctx, kind, sessionID)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			return alert, nil
		}
	}
	return nil, nil
}

func (s *AlertService) firstOf(ctx context.Context, kind domain.AlertKind, sessionID int64) (*PendingAlert, error) {
	switch kind {
	case domain.AlertPublicationApproved:
		alerts, err := s.alerts.PublicationApprovedBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list approved alerts: %w", err)
		}
		if len(alerts) > 0 {
			return &PendingAlert{Kind: kind, ID: alerts[0].ID, Approved: &alerts[0]}, nil
		}
	case domain.AlertPublicationRejected:
		alerts, err := s.alerts.PublicationRejectedBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list rejected alerts: %w", err)
		}
		if len(alerts) > 0 {
			return &PendingAlert{Kind: kind, ID: alerts[0].ID, Rejected: &alerts[0]}, nil
		}
	case domain.AlertVideoCutReady:
		alerts, err := s.alerts.VideoCutReadyBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list video cut alerts: %w", err)
		}
		if len(alerts) > 0 {
			return &PendingAlert{Kind: kind, ID: alerts[0].ID, VideoCut: &alerts[0]}, nil
		}
	}
	return nil, nil
}

// Dispatch returns the alert that must be shown before anything else.
// With nothing pending the session is marked as able to receive alerts.
func (s *AlertService) Dispatch(ctx context.Context, session *domain.Session) (*PendingAlert, error) {
	alert, err := s.Next(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if alert != nil {
		return alert, nil
	}

	if !session.CanShowAlerts {
		if err := s.SetCanShowAlerts(ctx, session, true); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Acknowledge deletes an alert the user has seen
func (s *AlertService) Acknowledge(ctx context.Context, kind domain.AlertKind, id int64) error {
	var err error
	switch kind {
	case domain.AlertPublicationApproved:
		err = s.alerts.DeletePublicationApproved(ctx, id)
	case domain.AlertPublicationRejected:
		err = s.alerts.DeletePublicationRejected(ctx, id)
	case domain.AlertVideoCutReady:
		err = s.alerts.DeleteVideoCutReady(ctx, id)
	default:
		return fmt.Errorf("unknown alert kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s alert: %w", kind, err)
	}
	return nil
}

// SetCanShowAlerts toggles whether alerts may interrupt the user right away
func (s *AlertService) SetCanShowAlerts(ctx context.Context, session *domain.Session, value bool) error {
	if err := s.sessions.Update(ctx, session.ID, domain.SessionUpdate{CanShowAlerts: domain.Ptr(value)}); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	session.CanShowAlerts = value
	return nil
}
