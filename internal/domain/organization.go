package domain

import "time"

// Product is an item an organization promotes
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price,omitempty"`
}

// Organization is the tenant profile built by the organization brief
type Organization struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	RubBalance             string    `json:"rub_balance"`
	Description            string    `json:"description"`
	ToneOfVoice            []string  `json:"tone_of_voice"`
	BrandRules             []string  `json:"brand_rules"`
	ComplianceRules        []string  `json:"compliance_rules"`
	AudienceInsights       []string  `json:"audience_insights"`
	Products               []Product `json:"products"`
	Locale                 string    `json:"locale"`
	AdditionalInfo         []string  `json:"additional_info"`
	VideoCutDescriptionEnd string    `json:"video_cut_description_end_sample"`
	PublicationTextEnd     string    `json:"publication_text_end_sample"`
	CreatedAt              time.Time `json:"created_at"`
}

// OrganizationUpdate is a partial organization update
type OrganizationUpdate struct {
	Name                   *string   `json:"name,omitempty"`
	Description            *string   `json:"description,omitempty"`
	ToneOfVoice            []string  `json:"tone_of_voice,omitempty"`
	BrandRules             []string  `json:"brand_rules,omitempty"`
	ComplianceRules        []string  `json:"compliance_rules,omitempty"`
	AudienceInsights       []string  `json:"audience_insights,omitempty"`
	Products               []Product `json:"products,omitempty"`
	Locale                 *string   `json:"locale,omitempty"`
	AdditionalInfo         []string  `json:"additional_info,omitempty"`
	VideoCutDescriptionEnd *string   `json:"video_cut_description_end_sample,omitempty"`
	PublicationTextEnd     *string   `json:"publication_text_end_sample,omitempty"`
}

// CostMultiplier scales the base price of billable operations
type CostMultiplier struct {
	OrganizationID                 int64   `json:"organization_id"`
	GenerateTextCostMultiplier     float64 `json:"generate_text_cost_multiplier"`
	GenerateImageCostMultiplier    float64 `json:"generate_image_cost_multiplier"`
	GenerateVideoCutCostMultiplier float64 `json:"generate_vizard_video_cut_cost_multiplier"`
	TranscribeAudioCostMultiplier  float64 `json:"transcribe_audio_cost_multiplier"`
}
