package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/domain"
)

// memoryAlerts is a small in-memory alert store used to follow a whole chain
type memoryAlerts struct {
	MockAlertRepository
	approved []domain.PublicationApprovedAlert
	rejected []domain.PublicationRejectedAlert
	videos   []domain.VideoCutReadyAlert
}

func (r *memoryAlerts) PublicationApprovedBySession(context.Context, int64) ([]domain.PublicationApprovedAlert, error) {
	return r.approved, nil
}

func (r *memoryAlerts) PublicationRejectedBySession(context.Context, int64) ([]domain.PublicationRejectedAlert, error) {
	return r.rejected, nil
}

func (r *memoryAlerts) VideoCutReadyBySession(context.Context, int64) ([]domain.VideoCutReadyAlert, error) {
	return r.videos, nil
}

func (r *memoryAlerts) DeletePublicationApproved(_ context.Context, id int64) error {
	r.approved = removeByID(r.approved, id, func(a domain.PublicationApprovedAlert) int64 { return a.ID })
	return nil
}

func (r *memoryAlerts) DeletePublicationRejected(_ context.Context, id int64) error {
	r.rejected = removeByID(r.rejected, id, func(a domain.PublicationRejectedAlert) int64 { return a.ID })
	return nil
}

func (r *memoryAlerts) DeleteVideoCutReady(_ context.Context, id int64) error {
	r.videos = removeByID(r.videos, id, func(a domain.VideoCutReadyAlert) int64 { return a.ID })
	return nil
}

func removeByID[T any](items []T, id int64, key func(T) int64) []T {
	out := items[:0]
	for _, it := range items {
		if key(it) != id {
			out = append(out, it)
		}
	}
	return out
}

func TestAlertService_PriorityOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store *memoryAlerts
		want  []domain.AlertKind
	}{
		{
			name: "all kinds",
			store: &memoryAlerts{
				approved: []domain.PublicationApprovedAlert{{ID: 1}},
				rejected: []domain.PublicationRejectedAlert{{ID: 2}, {ID: 3}},
				videos:   []domain.VideoCutReadyAlert{{ID: 4}},
			},
			want: []domain.AlertKind{
				domain.AlertPublicationApproved,
				domain.AlertPublicationRejected,
				domain.AlertPublicationRejected,
				domain.AlertVideoCutReady,
			},
		},
		{
			name: "rejected before video",
			store: &memoryAlerts{
				rejected: []domain.PublicationRejectedAlert{{ID: 2}},
				videos:   []domain.VideoCutReadyAlert{{ID: 4}},
			},
			want: []domain.AlertKind{domain.AlertPublicationRejected, domain.AlertVideoCutReady},
		},
		{
			name:  "video only",
			store: &memoryAlerts{videos: []domain.VideoCutReadyAlert{{ID: 9}}},
			want:  []domain.AlertKind{domain.AlertVideoCutReady},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(MockSessionRepository)
			sessions.On("Update", mock.Anything, int64(7), domain.SessionUpdate{CanShowAlerts: domain.Ptr(true)}).Return(nil).Once()

			svc := NewAlertService(tt.store, sessions)
			session := &domain.Session{ID: 7}

			var got []domain.AlertKind
			for {
				alert, err := svc.Dispatch(ctx, session)
				require.NoError(t, err)
				if alert == nil {
					break
				}
				got = append(got, alert.Kind)
				require.NoError(t, svc.Acknowledge(ctx, alert.Kind, alert.ID))
			}

			assert.Equal(t, tt.want, got)
			assert.True(t, session.CanShowAlerts)
			sessions.AssertExpectations(t)
		})
	}
}

func TestAlertService_DispatchWithoutAlertsKeepsFlag(t *testing.T) {
	sessions := new(MockSessionRepository)
	svc := NewAlertService(&memoryAlerts{}, sessions)

	alert, err := svc.Dispatch(context.Background(), &domain.Session{ID: 1, CanShowAlerts: true})
	require.NoError(t, err)
	assert.Nil(t, alert)
	sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertService_AcknowledgeUnknownKind(t *testing.T) {
	svc := NewAlertService(&memoryAlerts{}, new(MockSessionRepository))
	err := svc.Acknowledge(context.Background(), domain.AlertKind("other"), 1)
	assert.Error(t, err)
}
