package brief

import (
	"fmt"
	"strings"

	"github.com/Rrens/smm-bot/internal/domain"
)

// Keys of the model's JSON reply
const (
	keyMessageToUser     = "message_to_user"
	keyChannelUsername   = "telegram_channel_username"
	keyChannelLimit      = "posts_limit"
	keyTestCategory      = "test_category"
	keyUserTextReference = "user_text_reference"

	KeyFinalCategory    = "final_category"
	KeyOrganizationData = "organization_data"
)

var finalKeys = []string{KeyFinalCategory, KeyOrganizationData}

// Response is one decoded model reply
type Response interface {
	isResponse()
}

// MessageToUser is a plain reply shown in the dialog
type MessageToUser struct {
	Text string
}

// ChannelRequest asks for recent posts of a public channel
type ChannelRequest struct {
	Username string
	Limit    int
	Text     string
}

// TestRequest asks for a trial publication of a draft rubric
type TestRequest struct {
	Category          map[string]any
	UserTextReference string
	Text              string
}

// Final carries the object the brief was collecting
type Final struct {
	Key    string
	Object map[string]any
	Text   string
}

func (MessageToUser) isResponse()  {}
func (ChannelRequest) isResponse() {}
func (TestRequest) isResponse()    {}
func (Final) isResponse()          {}

// Parse classifies a reply. Side-effect requests win over final objects,
// which win over plain messages.
func Parse(obj map[string]any) (Response, error) {
	text, _ := obj[keyMessageToUser].(string)

	if username, ok := obj[keyChannelUsername].(string); ok && strings.TrimSpace(username) != "" {
		return ChannelRequest{
			Username: strings.TrimPrefix(strings.TrimSpace(username), "@"),
			Limit:    intValue(obj[keyChannelLimit]),
			Text:     text,
		}, nil
	}

	if category, ok := obj[keyTestCategory].(map[string]any); ok {
		if ref, ok := obj[keyUserTextReference].(string); ok {
			return TestRequest{Category: category, UserTextReference: ref, Text: text}, nil
		}
	}

	for _, key := range finalKeys {
		if final, ok := obj[key].(map[string]any); ok {
			return Final{Key: key, Object: final, Text: text}, nil
		}
	}

	if text != "" {
		return MessageToUser{Text: text}, nil
	}
	return nil, fmt.Errorf("%w: unknown reply shape", domain.ErrMalformedLLMResponse)
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
