package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
)

// DefaultCombinePrompt is used when the user gives no combine instruction
const DefaultCombinePrompt = "Combine these images into one coherent picture, keeping the key objects of each"

const compressPrompt = "Shorten the text to at most %d characters keeping its meaning, tone and formatting"

// PublicationService drives the publication draft workflow against the content service
type PublicationService struct {
	api   PublicationAPI
	files FileDownloader
}

// NewPublicationService creates a new publication service
func NewPublicationService(api PublicationAPI, files FileDownloader) *PublicationService {
	return &PublicationService{api: api, files: files}
}

// GenerateDraft asks for a new publication text in a category
func (s *PublicationService) GenerateDraft(ctx context.Context, categoryID int64, textReference string) (Draft, error) {
	text, err := s.api.GeneratePublicationText(ctx, categoryID, textReference)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to generate publication text: %w", err)
	}
	return Draft{CategoryID: categoryID, Text: text}, nil
}

// RegenerateText rewrites the working text with an instruction
func (s *PublicationService) RegenerateText(ctx context.Context, ed *Editor, prompt string) error {
	return ed.Apply(func(w *Draft) error {
		text, err := s.api.RegeneratePublicationText(ctx, w.CategoryID, w.Text, prompt)
		if err != nil {
			return fmt.Errorf("failed to regenerate text: %w", err)
		}
		w.Text = text
		return nil
	})
}

// CompressText shortens the working text to the recommended length
func (s *PublicationService) CompressText(ctx context.Context, ed *Editor) error {
	limit := RecommendedLength(ed.Working.HasImage)
	return s.RegenerateText(ctx, ed, fmt.Sprintf(compressPrompt, limit))
}

// GenerateImage replaces the image with a freshly generated carousel
func (s *PublicationService) GenerateImage(ctx context.Context, ed *Editor, prompt string) error {
	return ed.Apply(func(w *Draft) error {
		urls, err := s.api.GeneratePublicationImage(ctx, w.CategoryID, w.Text, "", prompt)
		if err != nil {
			return fmt.Errorf("failed to generate image: %w", err)
		}
		ed.SetGeneratedImages(urls)
		return nil
	})
}

// EditImage edits the current image with an instruction
func (s *PublicationService) EditImage(ctx context.Context, organizationID int64, ed *Editor, prompt string) error {
	ref, ok := ed.CurrentImage()
	if !ok {
		return domain.ErrNoImageData
	}

	return ed.Apply(func(w *Draft) error {
		image, err := s.fetch(ctx, ref)
		if err != nil {
			return err
		}
		urls, err := s.api.EditImage(ctx, organizationID, prompt, image)
		if err != nil {
			return fmt.Errorf("failed to edit image: %w", err)
		}
		ed.SetGeneratedImages(urls)
		return nil
	})
}

// CombineImages merges the collected images into one
func (s *PublicationService) CombineImages(ctx context.Context, organizationID int64, ed *Editor) error {
	if !ed.CanCombine() {
		return fmt.Errorf("need at least %d images to combine", MinCombineImages)
	}
	prompt := ed.Combine.Prompt
	if prompt == "" {
		prompt = DefaultCombinePrompt
	}

	return ed.Apply(func(w *Draft) error {
		images := make([]backend.File, len(ed.Combine.Images))
		g, gctx := errgroup.WithContext(ctx)
		for i, ref := range ed.Combine.Images {
			g.Go(func() error {
				image, err := s.fetch(gctx, ref)
				if err != nil {
					return err
				}
				images[i] = image
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		urls, err := s.api.CombineImages(ctx, organizationID, w.CategoryID, prompt, images)
		if err != nil {
			return fmt.Errorf("failed to combine images: %w", err)
		}
		ed.SetGeneratedImages(urls)
		ed.Combine = CombineState{}
		return nil
	})
}

func (s *PublicationService) fetch(ctx context.Context, ref ImageRef) (backend.File, error) {
	var (
		content  []byte
		filename string
		err      error
	)
	if ref.FileID != "" {
		content, err = s.files.Download(ctx, ref.FileID)
		filename = ref.FileID + ".jpg"
	} else {
		content, err = s.files.DownloadURL(ctx, ref.URL)
		filename = "image.png"
	}
	if err != nil {
		return backend.File{}, fmt.Errorf("failed to download image: %w", err)
	}
	return backend.File{Filename: filename, Content: content}, nil
}

// Save persists the difference between the working copy and the baseline,
// then promotes the working copy.
func (s *PublicationService) Save(ctx context.Context, ed *Editor) error {
	if !ed.HasChanges() {
		return nil
	}
	orig, work := ed.Original, ed.Working

	change := domain.PublicationChange{ID: work.ID}
	changed := false

	if orig.Text != work.Text {
		change.Text = domain.Ptr(work.Text)
		changed = true
	}

	removeImage := orig.HasImage && !work.HasImage
	if work.HasImage && imageChanged(orig, work) {
		if err := s.attachImage(ctx, &change, work); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		if err := s.api.ChangePublication(ctx, change); err != nil {
			return fmt.Errorf("failed to change publication: %w", err)
		}
		ed.Original.Text = work.Text
	}

	if removeImage {
		if err := s.api.DeletePublicationImage(ctx, work.ID); err != nil {
			return fmt.Errorf("failed to delete publication image: %w", err)
		}
	}

	ed.Promote()
	return nil
}

func imageChanged(orig, work Draft) bool {
	return orig.HasImage != work.HasImage ||
		orig.CustomImageFileID != work.CustomImageFileID ||
		orig.ImageURL != work.ImageURL
}

func (s *PublicationService) attachImage(ctx context.Context, change *domain.PublicationChange, work Draft) error {
	if work.CustomImageFileID != "" {
		content, err := s.files.Download(ctx, work.CustomImageFileID)
		if err != nil {
			return fmt.Errorf("failed to download image: %w", err)
		}
		change.ImageContent = content
		change.ImageFilename = work.CustomImageFileID + ".jpg"
		return nil
	}
	change.ImageURL = domain.Ptr(work.ImageURL)
	return nil
}

// Create stores a new publication from the working copy with the given status
func (s *PublicationService) Create(ctx context.Context, organizationID, creatorID int64, ed *Editor, status string) (int64, error) {
	work := ed.Working
	create := domain.PublicationCreate{
		OrganizationID:   organizationID,
		CategoryID:       work.CategoryID,
		CreatorID:        creatorID,
		Text:             work.Text,
		ModerationStatus: status,
	}

	if work.HasImage {
		if work.CustomImageFileID != "" {
			content, err := s.files.Download(ctx, work.CustomImageFileID)
			if err != nil {
				return 0, fmt.Errorf("failed to download image: %w", err)
			}
			create.ImageContent = content
			create.ImageFilename = work.CustomImageFileID + ".jpg"
		} else {
			create.ImageURL = work.ImageURL
		}
	}

	id, err := s.api.CreatePublication(ctx, create)
	if err != nil {
		return 0, fmt.Errorf("failed to create publication: %w", err)
	}

	ed.Working.ID = id
	ed.Working.Status = status
	ed.Promote()
	return id, nil
}

// Store creates the publication on first use. Later calls save pending edits
// into the stored one and move a draft on to moderation when asked; a
// publication already in moderation stays there. It returns the status the
// publication ends up in.
func (s *PublicationService) Store(ctx context.Context, organizationID, creatorID int64, ed *Editor, status string) (string, error) {
	if ed.Working.ID == 0 {
		if _, err := s.Create(ctx, organizationID, creatorID, ed, status); err != nil {
			return "", err
		}
		return status, nil
	}

	if status == domain.ModerationModeration && ed.Working.Status != domain.ModerationModeration {
		if err := s.SendToModeration(ctx, ed); err != nil {
			return "", err
		}
		return domain.ModerationModeration, nil
	}
	if err := s.Save(ctx, ed); err != nil {
		return "", err
	}
	return ed.Working.Status, nil
}

// SendToModeration saves pending changes and queues the publication for review
func (s *PublicationService) SendToModeration(ctx context.Context, ed *Editor) error {
	if err := s.Save(ctx, ed); err != nil {
		return err
	}
	if err := s.api.SendPublicationToModeration(ctx, ed.Working.ID); err != nil {
		return fmt.Errorf("failed to send publication to moderation: %w", err)
	}
	ed.Working.Status = domain.ModerationModeration
	ed.Original.Status = domain.ModerationModeration
	return nil
}

// Drafts lists the organization's publications still in draft
func (s *PublicationService) Drafts(ctx context.Context, organizationID int64) ([]domain.Publication, error) {
	return s.byStatus(ctx, organizationID, domain.ModerationDraft)
}

// PendingModeration lists publications waiting for a moderator
func (s *PublicationService) PendingModeration(ctx context.Context, organizationID int64) ([]domain.Publication, error) {
	return s.byStatus(ctx, organizationID, domain.ModerationModeration)
}

func (s *PublicationService) byStatus(ctx context.Context, organizationID int64, status string) ([]domain.Publication, error) {
	all, err := s.api.PublicationsByOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}

	var out []domain.Publication
	for _, p := range all {
		if p.ModerationStatus == status {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get loads a publication, nil when it no longer exists
func (s *PublicationService) Get(ctx context.Context, publicationID int64) (*domain.Publication, error) {
	p, err := s.api.GetPublication(ctx, publicationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}
	return p, nil
}

func (s *PublicationService) Delete(ctx context.Context, publicationID int64) error {
	if err := s.api.DeletePublication(ctx, publicationID); err != nil {
		return fmt.Errorf("failed to delete publication: %w", err)
	}
	return nil
}
