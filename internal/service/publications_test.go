package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
)

func TestPublicationService_SaveTextAndCustomImage(t *testing.T) {
	api := new(MockPublicationAPI)
	files := new(MockFiles)
	svc := NewPublicationService(api, files)
	ctx := context.Background()

	var ed Editor
	ed.Open(DraftFromPublication(&domain.Publication{ID: 10, Text: "Hi", ImageURL: "U1"}))
	ed.SetText("Hello")
	ed.SetCustomImage("F1")

	files.On("Download", ctx, "F1").Return([]byte("jpeg-bytes"), nil).Once()
	api.On("ChangePublication", ctx, domain.PublicationChange{
		ID:            10,
		Text:          domain.Ptr("Hello"),
		ImageContent:  []byte("jpeg-bytes"),
		ImageFilename: "F1.jpg",
	}).Return(nil).Once()

	require.NoError(t, svc.Save(ctx, &ed))

	assert.False(t, ed.HasChanges())
	api.AssertExpectations(t)
	files.AssertExpectations(t)
	api.AssertNotCalled(t, "DeletePublicationImage", mock.Anything, mock.Anything)
}

func TestPublicationService_SaveRemovedImage(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, Text: "Hi", HasImage: true, ImageURL: "U1"})
	ed.RemoveImage()

	api.On("DeletePublicationImage", ctx, int64(3)).Return(nil).Once()

	require.NoError(t, svc.Save(ctx, &ed))
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "ChangePublication", mock.Anything, mock.Anything)
}

func TestPublicationService_SaveKeepsImageWhenChangeFails(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, Text: "Hi", HasImage: true, ImageURL: "U1"})
	ed.SetText("Hello")
	ed.RemoveImage()

	change := domain.PublicationChange{ID: 3, Text: domain.Ptr("Hello")}
	api.On("ChangePublication", ctx, change).Return(domain.ErrTransient).Once()

	err := svc.Save(ctx, &ed)
	require.ErrorIs(t, err, domain.ErrTransient)
	api.AssertNotCalled(t, "DeletePublicationImage", mock.Anything, mock.Anything)
	assert.True(t, ed.Original.HasImage)
	assert.True(t, ed.HasChanges())

	api.On("ChangePublication", ctx, change).Return(nil).Once()
	api.On("DeletePublicationImage", ctx, int64(3)).Return(nil).Once()

	require.NoError(t, svc.Save(ctx, &ed))
	assert.False(t, ed.HasChanges())
	api.AssertExpectations(t)
}

func TestPublicationService_StoreCreatesOnce(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{CategoryID: 5, Text: "Hi"})

	api.On("CreatePublication", ctx, domain.PublicationCreate{
		OrganizationID:   1,
		CategoryID:       5,
		CreatorID:        2,
		Text:             "Hi",
		ModerationStatus: domain.ModerationModeration,
	}).Return(int64(40), nil).Once()

	status, err := svc.Store(ctx, 1, 2, &ed, domain.ModerationModeration)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationModeration, status)

	ed.SetText("Hi there")
	api.On("ChangePublication", ctx, domain.PublicationChange{ID: 40, Text: domain.Ptr("Hi there")}).Return(nil).Once()

	status, err = svc.Store(ctx, 1, 2, &ed, domain.ModerationDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationModeration, status)
	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "CreatePublication", 1)
	api.AssertNotCalled(t, "SendPublicationToModeration", mock.Anything, mock.Anything)
}

func TestPublicationService_StoreSendsStoredDraftToModeration(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(DraftFromPublication(&domain.Publication{ID: 8, Text: "Hi", ModerationStatus: domain.ModerationDraft}))

	api.On("SendPublicationToModeration", ctx, int64(8)).Return(nil).Once()

	status, err := svc.Store(ctx, 1, 2, &ed, domain.ModerationModeration)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationModeration, status)

	status, err = svc.Store(ctx, 1, 2, &ed, domain.ModerationModeration)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationModeration, status)
	api.AssertNumberOfCalls(t, "SendPublicationToModeration", 1)
	api.AssertNotCalled(t, "CreatePublication", mock.Anything, mock.Anything)
}

func TestPublicationService_SaveCarouselChoice(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, Text: "Hi"})
	ed.SetGeneratedImages([]string{"g1", "g2"})
	ed.NextImage()

	api.On("ChangePublication", ctx, domain.PublicationChange{ID: 3, ImageURL: domain.Ptr("g2")}).Return(nil).Once()

	require.NoError(t, svc.Save(ctx, &ed))
	api.AssertExpectations(t)
}

func TestPublicationService_SaveWithoutChanges(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))

	var ed Editor
	ed.Open(Draft{ID: 3, Text: "Hi"})

	require.NoError(t, svc.Save(context.Background(), &ed))
	api.AssertNotCalled(t, "ChangePublication", mock.Anything, mock.Anything)
}

func TestPublicationService_GenerateImageFailureKeepsPreviousImage(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, CategoryID: 5, Text: "Hi", HasImage: true, ImageURL: "U1"})

	api.On("GeneratePublicationImage", ctx, int64(5), "Hi", "", "sunset").Return(nil, domain.ErrNoImageData).Once()

	err := svc.GenerateImage(ctx, &ed, "sunset")
	require.ErrorIs(t, err, domain.ErrNoImageData)
	assert.Equal(t, "U1", ed.Working.ImageURL)
	assert.False(t, ed.Pending())
}

func TestPublicationService_CompressUsesRecommendedLength(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, CategoryID: 5, Text: "long text", HasImage: true, ImageURL: "U1"})

	api.On("RegeneratePublicationText", ctx, int64(5), "long text", mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "800")
	})).Return("short", nil).Once()

	require.NoError(t, svc.CompressText(ctx, &ed))
	assert.Equal(t, "short", ed.Working.Text)
	assert.True(t, ed.Pending())

	ed.Reject()
	assert.Equal(t, "long text", ed.Working.Text)
}

func TestPublicationService_CombineImages(t *testing.T) {
	api := new(MockPublicationAPI)
	files := new(MockFiles)
	svc := NewPublicationService(api, files)
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{ID: 3, CategoryID: 5, Text: "Hi", HasImage: true, ImageURL: "U1"})
	ed.StartCombine(true)
	ed.AddCombineImage("F1")

	files.On("DownloadURL", mock.Anything, "U1").Return([]byte("one"), nil).Once()
	files.On("Download", mock.Anything, "F1").Return([]byte("two"), nil).Once()
	api.On("CombineImages", ctx, int64(42), int64(5), DefaultCombinePrompt, []backend.File{
		{Filename: "image.png", Content: []byte("one")},
		{Filename: "F1.jpg", Content: []byte("two")},
	}).Return([]string{"combined"}, nil).Once()

	require.NoError(t, svc.CombineImages(ctx, 42, &ed))
	assert.Equal(t, "combined", ed.Working.ImageURL)
	assert.Empty(t, ed.Combine.Images)

	ed.Reject()
	assert.Equal(t, "U1", ed.Working.ImageURL)
}

func TestPublicationService_CreateWithGeneratedImage(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	var ed Editor
	ed.Open(Draft{CategoryID: 5, Text: "Hi"})
	ed.SetGeneratedImages([]string{"g1"})

	api.On("CreatePublication", ctx, domain.PublicationCreate{
		OrganizationID:   1,
		CategoryID:       5,
		CreatorID:        2,
		Text:             "Hi",
		ModerationStatus: domain.ModerationDraft,
		ImageURL:         "g1",
	}).Return(int64(77), nil).Once()

	id, err := svc.Create(ctx, 1, 2, &ed, domain.ModerationDraft)
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	assert.Equal(t, int64(77), ed.Original.ID)
	assert.False(t, ed.HasChanges())
}

func TestPublicationService_DraftsFiltersByStatus(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))
	ctx := context.Background()

	api.On("PublicationsByOrganization", ctx, int64(1)).Return([]domain.Publication{
		{ID: 1, ModerationStatus: domain.ModerationDraft},
		{ID: 2, ModerationStatus: domain.ModerationModeration},
		{ID: 3, ModerationStatus: domain.ModerationDraft},
	}, nil)

	drafts, err := svc.Drafts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, int64(3), drafts[1].ID)
}

func TestPublicationService_DraftsNotFoundIsEmpty(t *testing.T) {
	api := new(MockPublicationAPI)
	svc := NewPublicationService(api, new(MockFiles))

	api.On("PublicationsByOrganization", mock.Anything, int64(1)).Return(nil, domain.ErrNotFound)

	drafts, err := svc.Drafts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}
