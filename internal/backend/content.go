package backend

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Rrens/smm-bot/internal/domain"
)

// ContentClient talks to the content service: rubrics, publications,
// video cuts, social networks and media operations
type ContentClient struct {
	baseClient
}

func NewContentClient(baseURL string, opts Options) *ContentClient {
	return &ContentClient{baseClient: newBaseClient("content", baseURL, opts)}
}

// Categories

func (c *ContentClient) CreateCategory(ctx context.Context, category domain.Category) (int64, error) {
	var out struct {
		CategoryID int64 `json:"category_id"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/category/create", body: category}, &out); err != nil {
		return 0, err
	}
	return out.CategoryID, nil
}

func (c *ContentClient) GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	var out domain.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/category/%d", categoryID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ContentClient) UpdateCategory(ctx context.Context, category domain.Category) error {
	return c.do(ctx, request{method: http.MethodPut, path: idPath("/category/%d", category.ID), body: category}, nil)
}

func (c *ContentClient) CategoriesByOrganization(ctx context.Context, organizationID int64) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/category/organization/%d", organizationID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

// TestGenerateCategory generates a trial publication for a rubric that is not saved yet
func (c *ContentClient) TestGenerateCategory(ctx context.Context, category map[string]any, userTextReference string) (string, error) {
	var out textResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/category/test-generate",
		body: map[string]any{
			"category":            category,
			"user_text_reference": userTextReference,
		},
		heavy: true,
	}, &out)
	return out.Text, err
}

// Media operations

func (c *ContentClient) GeneratePublicationText(ctx context.Context, categoryID int64, textReference string) (string, error) {
	var out textResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/text/generate",
		body: map[string]any{
			"category_id":    categoryID,
			"text_reference": textReference,
		},
		heavy: true,
	}, &out)
	return out.Text, err
}

func (c *ContentClient) RegeneratePublicationText(ctx context.Context, categoryID int64, text, prompt string) (string, error) {
	var out textResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/text/regenerate",
		body: map[string]any{
			"category_id":      categoryID,
			"publication_text": text,
			"prompt":           prompt,
		},
		heavy: true,
	}, &out)
	return out.Text, err
}

// GeneratePublicationImage returns one or more image variants
func (c *ContentClient) GeneratePublicationImage(ctx context.Context, categoryID int64, text, textReference, prompt string) ([]string, error) {
	var out imagesResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/image/generate",
		body: map[string]any{
			"category_id":      categoryID,
			"publication_text": text,
			"text_reference":   textReference,
			"prompt":           prompt,
		},
		heavy: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonEmptyImages(out.ImagesURL)
}

// EditImage applies a prompt to an uploaded image
func (c *ContentClient) EditImage(ctx context.Context, organizationID int64, prompt string, image File) ([]string, error) {
	image.Field = "image_file"
	var out imagesResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/image/edit",
		fields: map[string]string{
			"organization_id": strconv.FormatInt(organizationID, 10),
			"prompt":          prompt,
		},
		files: []File{image},
		heavy: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonEmptyImages(out.ImagesURL)
}

// CombineImages merges several images into one according to prompt
func (c *ContentClient) CombineImages(ctx context.Context, organizationID, categoryID int64, prompt string, images []File) ([]string, error) {
	files := make([]File, len(images))
	for i, img := range images {
		img.Field = "images_files"
		files[i] = img
	}
	var out imagesResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/image/combine",
		fields: map[string]string{
			"organization_id": strconv.FormatInt(organizationID, 10),
			"category_id":     strconv.FormatInt(categoryID, 10),
			"prompt":          prompt,
		},
		files: files,
		heavy: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonEmptyImages(out.ImagesURL)
}

func nonEmptyImages(urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, domain.ErrNoImageData
	}
	return urls, nil
}

// TranscribeAudio converts a voice message to text
func (c *ContentClient) TranscribeAudio(ctx context.Context, organizationID int64, audio []byte, filename string) (string, error) {
	var out textResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/audio/transcribe",
		fields: map[string]string{"organization_id": strconv.FormatInt(organizationID, 10)},
		files:  []File{{Field: "audio_file", Filename: filename, Content: audio}},
		heavy:  true,
	}, &out)
	return out.Text, err
}

// Publications

func (c *ContentClient) CreatePublication(ctx context.Context, p domain.PublicationCreate) (int64, error) {
	fields := map[string]string{
		"organization_id":   strconv.FormatInt(p.OrganizationID, 10),
		"category_id":       strconv.FormatInt(p.CategoryID, 10),
		"creator_id":        strconv.FormatInt(p.CreatorID, 10),
		"text":              p.Text,
		"moderation_status": p.ModerationStatus,
	}
	if p.ImageURL != "" {
		fields["image_url"] = p.ImageURL
	}
	var files []File
	if len(p.ImageContent) > 0 {
		files = append(files, File{Field: "image_file", Filename: p.ImageFilename, Content: p.ImageContent})
	}

	var out struct {
		PublicationID int64 `json:"publication_id"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/publication/create", fields: fields, files: files}, &out); err != nil {
		return 0, err
	}
	return out.PublicationID, nil
}

// ChangePublication sends a partial update; only set fields are transmitted
func (c *ContentClient) ChangePublication(ctx context.Context, ch domain.PublicationChange) error {
	fields := map[string]string{}
	if ch.Text != nil {
		fields["text"] = *ch.Text
	}
	if ch.TgSource != nil {
		fields["tg_source"] = strconv.FormatBool(*ch.TgSource)
	}
	if ch.VkSource != nil {
		fields["vk_source"] = strconv.FormatBool(*ch.VkSource)
	}
	if ch.ImageURL != nil {
		fields["image_url"] = *ch.ImageURL
	}
	var files []File
	if len(ch.ImageContent) > 0 {
		files = append(files, File{Field: "image_file", Filename: ch.ImageFilename, Content: ch.ImageContent})
	}
	if len(fields) == 0 && len(files) == 0 {
		return nil
	}
	// multipart needs at least one field so the encoder picks the form body
	fields["publication_id"] = strconv.FormatInt(ch.ID, 10)

	return c.do(ctx, request{method: http.MethodPut, path: idPath("/publication/%d", ch.ID), fields: fields, files: files}, nil)
}

func (c *ContentClient) GetPublication(ctx context.Context, publicationID int64) (*domain.Publication, error) {
	var out domain.Publication
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/publication/%d", publicationID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ContentClient) PublicationsByOrganization(ctx context.Context, organizationID int64) ([]domain.Publication, error) {
	var out []domain.Publication
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/publication/organization/%d", organizationID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

func (c *ContentClient) DeletePublication(ctx context.Context, publicationID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/publication/%d", publicationID)}, nil)
}

func (c *ContentClient) DeletePublicationImage(ctx context.Context, publicationID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/publication/%d/image", publicationID)}, nil)
}

func (c *ContentClient) SendPublicationToModeration(ctx context.Context, publicationID int64) error {
	return c.do(ctx, request{method: http.MethodPost, path: idPath("/publication/%d/moderation", publicationID)}, nil)
}

// ModeratePublication approves or rejects; an approve answers with post links per network
func (c *ContentClient) ModeratePublication(ctx context.Context, publicationID, moderatorID int64, status, comment string) (*domain.ModerationResult, error) {
	var out map[string]any
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/publication/moderate",
		body: map[string]any{
			"publication_id":     publicationID,
			"moderator_id":       moderatorID,
			"moderation_status":  status,
			"moderation_comment": comment,
		},
		heavy: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &domain.ModerationResult{PostLinks: postLinks(out)}, nil
}

func postLinks(payload map[string]any) map[string]string {
	links := make(map[string]string)
	for k, v := range payload {
		if s, ok := v.(string); ok && s != "" {
			links[k] = s
		}
	}
	return links
}
