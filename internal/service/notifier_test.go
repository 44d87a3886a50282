package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/domain"
)

func TestNotificationService_PublicationApprovedShowsAlerts(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	alerts := new(MockAlertRepository)
	actions := new(MockChatActions)

	sessions.On("GetByAccountID", ctx, int64(3)).Return(&domain.Session{ID: 1, TgChatID: 100, CanShowAlerts: true}, nil)
	alerts.On("CreatePublicationApproved", ctx, &domain.PublicationApprovedAlert{
		SessionID:     1,
		PublicationID: 5,
		PostLinks:     map[string]string{"telegram": "https://t.me/c/1"},
	}).Return(int64(11), nil).Once()
	actions.On("ShowAlerts", ctx, int64(100)).Return(nil).Once()

	svc := NewNotificationService(sessions, alerts, new(MockSender))
	svc.SetActions(actions)

	require.NoError(t, svc.PublicationApproved(ctx, 3, 5, map[string]string{"telegram": "https://t.me/c/1"}))
	alerts.AssertExpectations(t)
	actions.AssertExpectations(t)
}

func TestNotificationService_AlertWaitsWhenBusy(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	alerts := new(MockAlertRepository)
	actions := new(MockChatActions)

	sessions.On("GetByAccountID", ctx, int64(3)).Return(&domain.Session{ID: 1, TgChatID: 100}, nil)
	alerts.On("CreateVideoCutReady", ctx, mock.AnythingOfType("*domain.VideoCutReadyAlert")).Return(int64(1), nil).Once()

	svc := NewNotificationService(sessions, alerts, new(MockSender))
	svc.SetActions(actions)

	require.NoError(t, svc.VideoCutGenerated(ctx, 3, "https://youtu.be/x", 4))
	actions.AssertNotCalled(t, "ShowAlerts", mock.Anything, mock.Anything)
}

func TestNotificationService_UnknownAccountIsSkipped(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	alerts := new(MockAlertRepository)

	sessions.On("GetByAccountID", ctx, int64(3)).Return(nil, nil)

	svc := NewNotificationService(sessions, alerts, new(MockSender))
	require.NoError(t, svc.PublicationRejected(ctx, 3, 5, "needs more detail"))
	alerts.AssertNotCalled(t, "CreatePublicationRejected", mock.Anything, mock.Anything)
}

func TestNotificationService_EmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	sender := new(MockSender)
	actions := new(MockChatActions)

	session := &domain.Session{ID: 1, TgChatID: 100}
	sessions.On("GetByAccountID", ctx, int64(3)).Return(session, nil)
	sessions.On("Update", ctx, int64(1), domain.SessionUpdate{OrganizationID: domain.Ptr(int64(9))}).Return(nil).Once()
	sessions.On("Update", ctx, int64(1), domain.SessionUpdate{OrganizationID: domain.Ptr(int64(0))}).Return(nil).Once()
	sender.On("SendText", ctx, int64(100), mock.AnythingOfType("string")).Return(nil).Twice()
	actions.On("ResetDialog", ctx, int64(100)).Return(nil).Twice()

	svc := NewNotificationService(sessions, new(MockAlertRepository), sender)
	svc.SetActions(actions)

	require.NoError(t, svc.EmployeeAdded(ctx, 3, 9))
	require.NoError(t, svc.EmployeeDeleted(ctx, 3))

	sessions.AssertExpectations(t)
	sender.AssertExpectations(t)
	actions.AssertExpectations(t)
}

func TestNotificationService_SendFailureDoesNotFailUpdate(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionRepository)
	sender := new(MockSender)

	sessions.On("GetByAccountID", ctx, int64(3)).Return(&domain.Session{ID: 1, TgChatID: 100}, nil)
	sessions.On("Update", ctx, int64(1), mock.Anything).Return(nil)
	sender.On("SendText", ctx, int64(100), mock.Anything).Return(assert.AnError)

	svc := NewNotificationService(sessions, new(MockAlertRepository), sender)
	assert.NoError(t, svc.EmployeeDeleted(ctx, 3))
}
