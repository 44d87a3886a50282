package domain

import "time"

// Category is a content rubric driving publication generation
type Category struct {
	ID                  int64          `json:"id"`
	OrganizationID      int64          `json:"organization_id"`
	Name                string         `json:"name"`
	Goal                string         `json:"goal"`
	ToneOfVoice         []string       `json:"tone_of_voice"`
	BrandRules          []string       `json:"brand_rules"`
	CreativityLevel     int            `json:"creativity_level"`
	AudienceSegment     string         `json:"audience_segment"`
	LenMin              int            `json:"len_min"`
	LenMax              int            `json:"len_max"`
	NHashtagsMin        int            `json:"n_hashtags_min"`
	NHashtagsMax        int            `json:"n_hashtags_max"`
	CTAType             string         `json:"cta_type"`
	CTAStrategy         map[string]any `json:"cta_strategy,omitempty"`
	GoodSamples         []string       `json:"good_samples"`
	BadSamples          []string       `json:"bad_samples"`
	AdditionalInfo      []string       `json:"additional_info"`
	PromptForImageStyle string         `json:"prompt_for_image_style"`
	CreatedAt           time.Time      `json:"created_at"`
}
