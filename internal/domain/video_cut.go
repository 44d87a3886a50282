package domain

import "time"

// VideoCut is a short clip cut from a long video by the external service
type VideoCut struct {
	ID                    int64     `json:"id"`
	ProjectID             int64     `json:"project_id"`
	OrganizationID        int64     `json:"organization_id"`
	CreatorID             int64     `json:"creator_id"`
	ModeratorID           int64     `json:"moderator_id"`
	InstSource            bool      `json:"inst_source"`
	YoutubeSource         bool      `json:"youtube_source"`
	YoutubeVideoReference string    `json:"youtube_video_reference"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	Tags                  []string  `json:"tags"`
	VideoFid              string    `json:"video_fid"`
	VideoName             string    `json:"video_name"`
	ModerationStatus      string    `json:"moderation_status"`
	ModerationComment     string    `json:"moderation_comment"`
	YoutubeLink           string    `json:"youtube_video_link"`
	InstLink              string    `json:"inst_video_link"`
	CreatedAt             time.Time `json:"created_at"`
}

// VideoCutChange is a partial video cut update
type VideoCutChange struct {
	ID            int64    `json:"video_cut_id"`
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	InstSource    *bool    `json:"inst_source,omitempty"`
	YoutubeSource *bool    `json:"youtube_source,omitempty"`
}
