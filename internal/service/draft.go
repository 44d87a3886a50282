package service

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Rrens/smm-bot/internal/domain"
)

// Text length ceilings enforced by the messenger
const (
	MaxCaptionLength = 1024
	MaxTextLength    = 4096

	RecommendedCaptionLength = 800
	RecommendedTextLength    = 3600

	minTextLength      = 50
	maxPlainTextLength = 4000
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// Draft is the frame-local copy of a publication being edited
type Draft struct {
	ID                 int64    `json:"id"`
	CategoryID         int64    `json:"category_id"`
	Text               string   `json:"text"`
	HasImage           bool     `json:"has_image"`
	CustomImageFileID  string   `json:"custom_image_file_id,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	GeneratedImagesURL []string `json:"generated_images_url,omitempty"`
	CurrentImageIndex  int      `json:"current_image_index"`
	TgSource           bool     `json:"tg_source"`
	VkSource           bool     `json:"vk_source"`
	Status             string   `json:"status,omitempty"`
}

// DraftFromPublication builds the editable copy of a stored publication
func DraftFromPublication(p *domain.Publication) Draft {
	return Draft{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Text:       p.Text,
		HasImage:   p.ImageURL != "",
		ImageURL:   p.ImageURL,
		TgSource:   p.TgSource,
		VkSource:   p.VkSource,
		Status:     p.ModerationStatus,
	}
}

// Clone returns a deep copy
func (d Draft) Clone() Draft {
	if d.GeneratedImagesURL != nil {
		d.GeneratedImagesURL = append([]string(nil), d.GeneratedImagesURL...)
	}
	return d
}

// HasChanges reports whether the working copy differs from the baseline in
// text or image
func HasChanges(original, working Draft) bool {
	return original.Text != working.Text ||
		original.HasImage != working.HasImage ||
		original.CustomImageFileID != working.CustomImageFileID ||
		original.ImageURL != working.ImageURL
}

// StripMarkup removes HTML tags and unescapes entities
func StripMarkup(text string) string {
	return html.UnescapeString(markupTag.ReplaceAllString(text, ""))
}

// TextLength counts characters of the text as the messenger shows it
func TextLength(text string) int {
	return utf8.RuneCountInString(StripMarkup(text))
}

func MaxLength(hasImage bool) int {
	if hasImage {
		return MaxCaptionLength
	}
	return MaxTextLength
}

// RecommendedLength is the target offered by the compress action
func RecommendedLength(hasImage bool) int {
	if hasImage {
		return RecommendedCaptionLength
	}
	return RecommendedTextLength
}

// CheckLength reports whether the text exceeds the messenger ceiling
func CheckLength(text string, hasImage bool) bool {
	return TextLength(text) > MaxLength(hasImage)
}

// TextFlags are the validation flags surfaced by the text edit screens
type TextFlags struct {
	Void  bool `json:"has_void_text"`
	Small bool `json:"has_small_text"`
	Big   bool `json:"has_big_text"`
}

// Any reports whether any flag is set
func (f TextFlags) Any() bool {
	return f.Void || f.Small || f.Big
}

// ValidateText checks a user-typed publication text
func ValidateText(text string, hasImage bool) TextFlags {
	if strings.TrimSpace(text) == "" {
		return TextFlags{Void: true}
	}

	n := TextLength(text)
	limit := maxPlainTextLength
	if hasImage {
		limit = MaxCaptionLength
	}
	return TextFlags{
		Small: n < minTextLength,
		Big:   n > limit,
	}
}
