package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/Rrens/smm-bot/internal/api/response"
)

const (
	InterserviceSecretHeader = "X-Interservice-Secret"
	TelegramSecretHeader     = "X-Telegram-Bot-Api-Secret-Token"
)

// SecretMiddleware rejects requests that do not carry the shared secret
// in header. An empty secret disables the check.
type SecretMiddleware struct {
	header string
	secret string
}

// NewInterserviceAuth checks calls from the collaborator services
func NewInterserviceAuth(secret string) *SecretMiddleware {
	return &SecretMiddleware{header: InterserviceSecretHeader, secret: secret}
}

// NewTelegramAuth checks the secret Telegram echoes on every webhook call
func NewTelegramAuth(secret string) *SecretMiddleware {
	return &SecretMiddleware{header: TelegramSecretHeader, secret: secret}
}

// Authenticate validates the secret header
func (m *SecretMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get(m.header)
		if got == "" {
			response.Unauthorized(w, "missing "+m.header+" header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(m.secret)) != 1 {
			response.Forbidden(w, "invalid secret")
			return
		}

		next.ServeHTTP(w, r)
	})
}
