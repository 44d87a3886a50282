package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of text.
// It is used only when a provider does not report usage.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}

	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn().Err(err).Msg("tiktoken encoding unavailable, falling back to rune estimate")
			return
		}
		encoder = enc
	})

	if encoder == nil {
		return len([]rune(text))/4 + 1
	}
	return len(encoder.Encode(text, nil, nil))
}
