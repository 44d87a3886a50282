package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/api/response"
)

// Notifier applies collaborator notifications to the affected chat
type Notifier interface {
	EmployeeAdded(ctx context.Context, accountID, organizationID int64) error
	EmployeeDeleted(ctx context.Context, accountID int64) error
	VideoCutGenerated(ctx context.Context, accountID int64, youtubeReference string, count int) error
	PublicationApproved(ctx context.Context, accountID, publicationID int64, postLinks map[string]string) error
	PublicationRejected(ctx context.Context, accountID, publicationID int64, comment string) error
}

// NotifyHandler handles notifications pushed by the collaborator services
type NotifyHandler struct {
	notifier Notifier
}

// NewNotifyHandler creates a new notify handler
func NewNotifyHandler(notifier Notifier) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

type employeeNotification struct {
	AccountID      int64 `json:"account_id" validate:"required,gt=0"`
	OrganizationID int64 `json:"organization_id"`
}

// Employee handles /employee/notify/{event}, event being added or deleted
func (h *NotifyHandler) Employee(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	if event != "added" && event != "deleted" {
		response.NotFound(w, "unknown employee event")
		return
	}

	var input employeeNotification
	if !decode(w, r, &input) {
		return
	}

	var err error
	if event == "added" {
		if input.OrganizationID <= 0 {
			response.BadRequest(w, map[string]string{"OrganizationID": "field is required"})
			return
		}
		err = h.notifier.EmployeeAdded(r.Context(), input.AccountID, input.OrganizationID)
	} else {
		err = h.notifier.EmployeeDeleted(r.Context(), input.AccountID)
	}
	if err != nil {
		response.FromError(w, err)
		return
	}

	log.Info().Str("event", event).Int64("account_id", input.AccountID).Msg("Employee notification applied")
	response.OK(w, map[string]string{"status": "ok"})
}

type videoCutNotification struct {
	AccountID             int64  `json:"account_id" validate:"required,gt=0"`
	YoutubeVideoReference string `json:"youtube_video_reference" validate:"required,url"`
	VideoCount            int    `json:"video_count" validate:"min=0"`
}

// VideoCutGenerated records that the clips of a video are ready
func (h *NotifyHandler) VideoCutGenerated(w http.ResponseWriter, r *http.Request) {
	var input videoCutNotification
	if !decode(w, r, &input) {
		return
	}

	if err := h.notifier.VideoCutGenerated(r.Context(), input.AccountID, input.YoutubeVideoReference, input.VideoCount); err != nil {
		response.FromError(w, err)
		return
	}

	log.Info().Int64("account_id", input.AccountID).Int("video_count", input.VideoCount).Msg("Video cut alert created")
	response.OK(w, map[string]string{"status": "ok"})
}

type publicationNotification struct {
	AccountID     int64             `json:"account_id" validate:"required,gt=0"`
	PublicationID int64             `json:"publication_id" validate:"required,gt=0"`
	PostLinks     map[string]string `json:"post_links"`
	Comment       string            `json:"comment" validate:"max=500"`
}

// Publication handles /notify/publication/{status}, status being approved or rejected
func (h *NotifyHandler) Publication(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")
	if status != "approved" && status != "rejected" {
		response.NotFound(w, "unknown publication status")
		return
	}

	var input publicationNotification
	if !decode(w, r, &input) {
		return
	}

	var err error
	if status == "approved" {
		err = h.notifier.PublicationApproved(r.Context(), input.AccountID, input.PublicationID, input.PostLinks)
	} else {
		err = h.notifier.PublicationRejected(r.Context(), input.AccountID, input.PublicationID, input.Comment)
	}
	if err != nil {
		response.FromError(w, err)
		return
	}

	log.Info().
		Str("status", status).
		Int64("account_id", input.AccountID).
		Int64("publication_id", input.PublicationID).
		Msg("Publication alert created")
	response.OK(w, map[string]string{"status": "ok"})
}
