package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
)

// MockSessionRepository mocks the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, tgChatID int64, tgUsername string) (int64, error) {
	args := m.Called(ctx, tgChatID, tgUsername)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) GetByChatID(ctx context.Context, tgChatID int64) (*domain.Session, error) {
	args := m.Called(ctx, tgChatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByAccountID(ctx context.Context, accountID int64) (*domain.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, sessionID int64, update domain.SessionUpdate) error {
	args := m.Called(ctx, sessionID, update)
	return args.Error(0)
}

// MockAlertRepository mocks the AlertRepository interface
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) CreateVideoCutReady(ctx context.Context, alert *domain.VideoCutReadyAlert) (int64, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) VideoCutReadyBySession(ctx context.Context, sessionID int64) ([]domain.VideoCutReadyAlert, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.VideoCutReadyAlert), args.Error(1)
}

func (m *MockAlertRepository) DeleteVideoCutReady(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) CreatePublicationApproved(ctx context.Context, alert *domain.PublicationApprovedAlert) (int64, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) PublicationApprovedBySession(ctx context.Context, sessionID int64) ([]domain.PublicationApprovedAlert, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.PublicationApprovedAlert), args.Error(1)
}

func (m *MockAlertRepository) DeletePublicationApproved(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) CreatePublicationRejected(ctx context.Context, alert *domain.PublicationRejectedAlert) (int64, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) PublicationRejectedBySession(ctx context.Context, sessionID int64) ([]domain.PublicationRejectedAlert, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.PublicationRejectedAlert), args.Error(1)
}

func (m *MockAlertRepository) DeletePublicationRejected(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublicationAPI mocks the PublicationAPI interface
type MockPublicationAPI struct {
	mock.Mock
}

func (m *MockPublicationAPI) GeneratePublicationText(ctx context.Context, categoryID int64, textReference string) (string, error) {
	args := m.Called(ctx, categoryID, textReference)
	return args.String(0), args.Error(1)
}

func (m *MockPublicationAPI) RegeneratePublicationText(ctx context.Context, categoryID int64, text, prompt string) (string, error) {
	args := m.Called(ctx, categoryID, text, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockPublicationAPI) GeneratePublicationImage(ctx context.Context, categoryID int64, text, textReference, prompt string) ([]string, error) {
	args := m.Called(ctx, categoryID, text, textReference, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPublicationAPI) EditImage(ctx context.Context, organizationID int64, prompt string, image backend.File) ([]string, error) {
	args := m.Called(ctx, organizationID, prompt, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPublicationAPI) CombineImages(ctx context.Context, organizationID, categoryID int64, prompt string, images []backend.File) ([]string, error) {
	args := m.Called(ctx, organizationID, categoryID, prompt, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPublicationAPI) CreatePublication(ctx context.Context, p domain.PublicationCreate) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPublicationAPI) ChangePublication(ctx context.Context, ch domain.PublicationChange) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockPublicationAPI) GetPublication(ctx context.Context, publicationID int64) (*domain.Publication, error) {
	args := m.Called(ctx, publicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Publication), args.Error(1)
}

func (m *MockPublicationAPI) PublicationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Publication, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Publication), args.Error(1)
}

func (m *MockPublicationAPI) DeletePublication(ctx context.Context, publicationID int64) error {
	args := m.Called(ctx, publicationID)
	return args.Error(0)
}

func (m *MockPublicationAPI) DeletePublicationImage(ctx context.Context, publicationID int64) error {
	args := m.Called(ctx, publicationID)
	return args.Error(0)
}

func (m *MockPublicationAPI) SendPublicationToModeration(ctx context.Context, publicationID int64) error {
	args := m.Called(ctx, publicationID)
	return args.Error(0)
}

func (m *MockPublicationAPI) ModeratePublication(ctx context.Context, publicationID, moderatorID int64, status, comment string) (*domain.ModerationResult, error) {
	args := m.Called(ctx, publicationID, moderatorID, status, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModerationResult), args.Error(1)
}

// MockVideoCutAPI mocks the VideoCutAPI interface
type MockVideoCutAPI struct {
	mock.Mock
}

func (m *MockVideoCutAPI) GenerateVideoCuts(ctx context.Context, organizationID, creatorID int64, youtubeURL string) error {
	args := m.Called(ctx, organizationID, creatorID, youtubeURL)
	return args.Error(0)
}

func (m *MockVideoCutAPI) ChangeVideoCut(ctx context.Context, ch domain.VideoCutChange) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockVideoCutAPI) GetVideoCut(ctx context.Context, videoCutID int64) (*domain.VideoCut, error) {
	args := m.Called(ctx, videoCutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCut), args.Error(1)
}

func (m *MockVideoCutAPI) VideoCutsByOrganization(ctx context.Context, organizationID int64) ([]domain.VideoCut, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VideoCut), args.Error(1)
}

func (m *MockVideoCutAPI) DeleteVideoCut(ctx context.Context, videoCutID int64) error {
	args := m.Called(ctx, videoCutID)
	return args.Error(0)
}

func (m *MockVideoCutAPI) SendVideoCutToModeration(ctx context.Context, videoCutID int64) error {
	args := m.Called(ctx, videoCutID)
	return args.Error(0)
}

func (m *MockVideoCutAPI) ModerateVideoCut(ctx context.Context, videoCutID, moderatorID int64, status, comment string) (*domain.ModerationResult, error) {
	args := m.Called(ctx, videoCutID, moderatorID, status, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModerationResult), args.Error(1)
}

// MockSocialAPI mocks the SocialAPI interface
type MockSocialAPI struct {
	mock.Mock
}

func (m *MockSocialAPI) SocialNetworks(ctx context.Context, organizationID int64) (*domain.SocialNetworks, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SocialNetworks), args.Error(1)
}

// MockFiles mocks the FileDownloader interface
type MockFiles struct {
	mock.Mock
}

func (m *MockFiles) Download(ctx context.Context, fileID string) ([]byte, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFiles) DownloadURL(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockTranscriber mocks the Transcriber interface
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) TranscribeAudio(ctx context.Context, organizationID int64, audio []byte, filename string) (string, error) {
	args := m.Called(ctx, organizationID, audio, filename)
	return args.String(0), args.Error(1)
}

// MockSender mocks the TextSender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

// MockChatActions mocks the ChatActions interface
type MockChatActions struct {
	mock.Mock
}

func (m *MockChatActions) ShowAlerts(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockChatActions) ResetDialog(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}
