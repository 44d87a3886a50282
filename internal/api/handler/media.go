package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/smm-bot/internal/api/response"
)

// MediaCache stores messenger file ids of uploaded assets
type MediaCache interface {
	CacheMedia(ctx context.Context, filename, fileID string) error
}

type cacheFileRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	FileID   string `json:"file_id" validate:"required"`
}

// CacheFile registers a file id so the asset is not uploaded again
func CacheFile(media MediaCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cacheFileRequest
		if !decode(w, r, &input) {
			return
		}

		if err := media.CacheMedia(r.Context(), input.Filename, input.FileID); err != nil {
			response.FromError(w, err)
			return
		}

		response.Created(w, map[string]string{
			"filename": input.Filename,
			"file_id":  input.FileID,
		})
	}
}
