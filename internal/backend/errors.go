package backend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Rrens/smm-bot/internal/domain"
)

const (
	flagInsufficientBalance = "insufficient_balance"
	flagNoImageData         = "no_image_data"
)

// classify maps a collaborator response onto the error taxonomy.
// It returns nil for successful responses.
func classify(status int, body []byte) error {
	if hasFlag(body, flagNoImageData) {
		return domain.ErrNoImageData
	}

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest && hasFlag(body, flagInsufficientBalance):
		return domain.ErrInsufficientBalance
	case status == http.StatusPaymentRequired:
		return domain.ErrInsufficientBalance
	case status == http.StatusForbidden:
		return domain.ErrPermissionDenied
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status >= 500, status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return domain.ErrTransient
	default:
		return &statusError{status: status}
	}
}

// hasFlag detects a structured flag either as a boolean key or as an error code string
func hasFlag(body []byte, flag string) bool {
	if len(body) == 0 || body[0] != '{' {
		return false
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}

	if v, ok := payload[flag].(bool); ok && v {
		return true
	}
	for _, key := range []string{"error", "detail", "code", "status"} {
		if s, ok := payload[key].(string); ok && strings.EqualFold(s, flag) {
			return true
		}
	}
	return false
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.status)
}
