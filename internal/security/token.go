package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for tokens without an exp claim
var ErrNoExpiry = errors.New("token has no expiry")

// TokenClaims are the claims the accounts service puts into access tokens
type TokenClaims struct {
	AccountID int64 `json:"account_id"`
	Is2FA     bool  `json:"two_fa_status"`
	jwt.RegisteredClaims
}

// ParseTokenClaims decodes token claims without verifying the signature.
// The bot never holds the signing key; the accounts service stays the authority.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of a token
func TokenExpiry(token string) (time.Time, error) {
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// NeedsRefresh reports whether the token expires within leeway of now.
// Opaque (non-JWT) tokens and tokens without exp never need a proactive refresh.
func NeedsRefresh(token string, now time.Time, leeway time.Duration) bool {
	if token == "" {
		return false
	}
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
