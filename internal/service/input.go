package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

// MaxVoiceDuration is the longest voice message accepted, in seconds
const MaxVoiceDuration = 300

const (
	forwardedTag = "[Forwarded]: "
	replyTag     = "[In reply to]: "
)

// InputExtractor turns an inbound message into a single normalised text
type InputExtractor struct {
	stt   Transcriber
	files FileDownloader
}

// NewInputExtractor creates a new input extractor
func NewInputExtractor(stt Transcriber, files FileDownloader) *InputExtractor {
	return &InputExtractor{stt: stt, files: files}
}

// Extract concatenates the transcription, the text or caption, the forwarded
// body and the replied-to body. It returns "" when nothing is extractable.
func (x *InputExtractor) Extract(ctx context.Context, organizationID int64, msg *dialog.Message) (string, error) {
	if msg == nil {
		return "", nil
	}

	var parts []string

	if audio := audioOf(msg); audio != nil {
		if audio.Duration > MaxVoiceDuration {
			return "", domain.ErrVoiceTooLong
		}
		text, err := x.transcribe(ctx, organizationID, audio)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	if text := strings.TrimSpace(firstNonEmpty(msg.Text, msg.Caption)); text != "" {
		parts = append(parts, text)
	}

	if msg.Forward != nil {
		body, err := x.Extract(ctx, organizationID, msg.Forward)
		if err != nil {
			return "", err
		}
		if body != "" {
			parts = append(parts, forwardedTag+body)
		}
	}

	if msg.ReplyTo != nil {
		body, err := x.Extract(ctx, organizationID, msg.ReplyTo)
		if err != nil {
			return "", err
		}
		if body != "" {
			parts = append(parts, replyTag+body)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func (x *InputExtractor) transcribe(ctx context.Context, organizationID int64, audio *dialog.File) (string, error) {
	content, err := x.files.Download(ctx, audio.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}

	filename := audio.FileName
	if filename == "" {
		filename = audio.FileID + ".ogg"
	}

	text, err := x.stt.TranscribeAudio(ctx, organizationID, content, filename)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func audioOf(msg *dialog.Message) *dialog.File {
	if msg.Voice != nil {
		return msg.Voice
	}
	return msg.Audio
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
