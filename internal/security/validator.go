package security

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	telegramUsernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)
	youtubeURLPattern       = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:[^\s]*&)?v=|shorts/|live/|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})[^\s]*`)
	telegramLinkPrefixes    = []string{"https://t.me/", "http://t.me/", "t.me/", "@"}
)

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NormalizeTelegramUsername accepts "@name", "t.me/name" or "name" and returns "name"
func NormalizeTelegramUsername(input string) (string, error) {
	username := strings.TrimSpace(input)
	for _, prefix := range telegramLinkPrefixes {
		if strings.HasPrefix(strings.ToLower(username), prefix) {
			username = username[len(prefix):]
			break
		}
	}
	username = strings.TrimSuffix(username, "/")

	if !telegramUsernamePattern.MatchString(username) {
		return "", &ValidationError{Field: "username", Message: "invalid telegram channel username"}
	}
	return username, nil
}

// FindYoutubeURL returns the first YouTube video link in text
func FindYoutubeURL(text string) (string, bool) {
	match := youtubeURLPattern.FindString(text)
	if match == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(match), "http") {
		match = "https://" + match
	}
	return match, true
}

// IsYoutubeURL reports whether the whole input is a single YouTube video link
func IsYoutubeURL(text string) bool {
	text = strings.TrimSpace(text)
	loc := youtubeURLPattern.FindStringIndex(text)
	return loc != nil && loc[0] == 0 && loc[1] == len(text)
}

// ParseAccountID parses a positive account id typed by a user
func ParseAccountID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: "account_id", Message: "must be a positive integer"}
	}
	return id, nil
}

// ParseAmount parses a positive money amount with at most two decimals
func ParseAmount(input string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value <= 0 {
		return "", &ValidationError{Field: "amount", Message: "must be a positive number"}
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		return "", &ValidationError{Field: "amount", Message: "at most two decimal places"}
	}
	return fmt.Sprintf("%.2f", value), nil
}

// CheckLength validates a rune length range
func CheckLength(field, value string, min, max int) error {
	n := len([]rune(strings.TrimSpace(value)))
	if n < min || n > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("length must be between %d and %d", min, max)}
	}
	return nil
}
