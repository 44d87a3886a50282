package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Rrens/smm-bot/internal/domain"
)

// Bounds of a rejection comment, in characters
const (
	MinRejectComment = 10
	MaxRejectComment = 500
)

var (
	ErrNoNetworkSelected = errors.New("no social network selected")
	ErrInvalidComment    = errors.New("rejection comment must be 10-500 characters")
)

// SocialAPI reads the organization's connected networks
type SocialAPI interface {
	SocialNetworks(ctx context.Context, organizationID int64) (*domain.SocialNetworks, error)
}

// Queue is a cursor over items awaiting a decision
type Queue struct {
	IDs   []int64 `json:"ids"`
	Index int     `json:"index"`
}

func (q *Queue) Empty() bool {
	return len(q.IDs) == 0
}

func (q *Queue) Len() int {
	return len(q.IDs)
}

// Current returns the id under the cursor
func (q *Queue) Current() (int64, bool) {
	if q.Empty() {
		return 0, false
	}
	q.clamp()
	return q.IDs[q.Index], true
}

func (q *Queue) Next() {
	if n := len(q.IDs); n > 0 {
		q.Index = (q.Index + 1) % n
	}
}

func (q *Queue) Prev() {
	if n := len(q.IDs); n > 0 {
		q.Index = (q.Index - 1 + n) % n
	}
}

// Remove drops an id and keeps the cursor in range
func (q *Queue) Remove(id int64) {
	for i, v := range q.IDs {
		if v == id {
			q.IDs = append(q.IDs[:i:i], q.IDs[i+1:]...)
			break
		}
	}
	q.clamp()
}

func (q *Queue) clamp() {
	switch {
	case len(q.IDs) == 0:
		q.Index = 0
	case q.Index >= len(q.IDs):
		q.Index = len(q.IDs) - 1
	case q.Index < 0:
		q.Index = 0
	}
}

// NetworkSelection is the set of networks an item will be published to
type NetworkSelection map[string]bool

// Any reports whether at least one network is selected
func (s NetworkSelection) Any() bool {
	for _, v := range s {
		if v {
			return true
		}
	}
	return false
}

// ModerationService runs the approve and reject decisions for publications and video cuts
type ModerationService struct {
	publications PublicationAPI
	videoCuts    VideoCutAPI
	social       SocialAPI
}

// NewModerationService creates a new moderation service
func NewModerationService(publications PublicationAPI, videoCuts VideoCutAPI, social SocialAPI) *ModerationService {
	return &ModerationService{publications: publications, videoCuts: videoCuts, social: social}
}

// PublicationQueue loads the ids of publications awaiting moderation
func (s *ModerationService) PublicationQueue(ctx context.Context, organizationID int64) (Queue, error) {
	all, err := s.publications.PublicationsByOrganization(ctx, organizationID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Queue{}, fmt.Errorf("failed to list publications: %w", err)
	}

	var q Queue
	for _, p := range all {
		if p.ModerationStatus == domain.ModerationModeration {
			q.IDs = append(q.IDs, p.ID)
		}
	}
	return q, nil
}

// VideoCutQueue loads the ids of video cuts awaiting moderation
func (s *ModerationService) VideoCutQueue(ctx context.Context, organizationID int64) (Queue, error) {
	all, err := s.videoCuts.VideoCutsByOrganization(ctx, organizationID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Queue{}, fmt.Errorf("failed to list video cuts: %w", err)
	}

	var q Queue
	for _, v := range all {
		if v.ModerationStatus == domain.ModerationModeration {
			q.IDs = append(q.IDs, v.ID)
		}
	}
	return q, nil
}

// SeedSelection pre-checks the connected networks flagged for autoselect
func (s *ModerationService) SeedSelection(ctx context.Context, organizationID int64, networks ...string) (NetworkSelection, *domain.SocialNetworks, error) {
	social, err := s.social.SocialNetworks(ctx, organizationID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to get social networks: %w", err)
		}
		social = &domain.SocialNetworks{}
	}

	sel := make(NetworkSelection, len(networks))
	for _, n := range networks {
		sel[n] = social.Connected(n) && social.Autoselected(n)
	}
	return sel, social, nil
}

// ApprovePublication stores the network selection and publishes
func (s *ModerationService) ApprovePublication(ctx context.Context, publicationID, moderatorID int64, sel NetworkSelection) (*domain.ModerationResult, error) {
	if !sel.Any() {
		return nil, ErrNoNetworkSelected
	}

	err := s.publications.ChangePublication(ctx, domain.PublicationChange{
		ID:       publicationID,
		TgSource: domain.Ptr(sel[domain.NetworkTelegram]),
		VkSource: domain.Ptr(sel[domain.NetworkVkontakte]),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store selected networks: %w", err)
	}

	result, err := s.publications.ModeratePublication(ctx, publicationID, moderatorID, domain.ModerationApproved, "")
	if err != nil {
		return nil, fmt.Errorf("failed to approve publication: %w", err)
	}
	return result, nil
}

// RejectPublication sends the publication back with a comment
func (s *ModerationService) RejectPublication(ctx context.Context, publicationID, moderatorID int64, comment string) error {
	if !ValidComment(comment) {
		return ErrInvalidComment
	}
	if _, err := s.publications.ModeratePublication(ctx, publicationID, moderatorID, domain.ModerationRejected, comment); err != nil {
		return fmt.Errorf("failed to reject publication: %w", err)
	}
	return nil
}

// ApproveVideoCut stores the network selection and publishes the clip
func (s *ModerationService) ApproveVideoCut(ctx context.Context, videoCutID, moderatorID int64, sel NetworkSelection) (*domain.ModerationResult, error) {
	if !sel.Any() {
		return nil, ErrNoNetworkSelected
	}

	err := s.videoCuts.ChangeVideoCut(ctx, domain.VideoCutChange{
		ID:            videoCutID,
		YoutubeSource: domain.Ptr(sel[domain.NetworkYoutube]),
		InstSource:    domain.Ptr(sel[domain.NetworkInstagram]),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store selected networks: %w", err)
	}

	result, err := s.videoCuts.ModerateVideoCut(ctx, videoCutID, moderatorID, domain.ModerationApproved, "")
	if err != nil {
		return nil, fmt.Errorf("failed to approve video cut: %w", err)
	}
	return result, nil
}

func (s *ModerationService) RejectVideoCut(ctx context.Context, videoCutID, moderatorID int64, comment string) error {
	if !ValidComment(comment) {
		return ErrInvalidComment
	}
	if _, err := s.videoCuts.ModerateVideoCut(ctx, videoCutID, moderatorID, domain.ModerationRejected, comment); err != nil {
		return fmt.Errorf("failed to reject video cut: %w", err)
	}
	return nil
}

// ValidComment reports whether a rejection comment fits the length bounds
func ValidComment(comment string) bool {
	n := utf8.RuneCountInString(comment)
	return n >= MinRejectComment && n <= MaxRejectComment
}
