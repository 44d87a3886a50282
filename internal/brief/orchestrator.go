package brief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/llm"
)

// DefaultThreshold is the token count that triggers summarisation
const DefaultThreshold = 30000

const (
	minChannelPosts     = 10
	maxChannelPosts     = 50
	defaultChannelPosts = 20

	// a turn may loop through side effects; this bounds a model that keeps asking
	maxSteps = 6
)

// ContentAPI is the part of the content service briefs consume
type ContentAPI interface {
	ChannelPosts(ctx context.Context, username string, limit int) ([]backend.ChannelPost, error)
	TestGenerateCategory(ctx context.Context, category map[string]any, userTextReference string) (string, error)
}

// Deliverer shows a trial publication to the user outside the dialog window
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// Finalizer persists the object a brief produced
type Finalizer interface {
	Finalize(ctx context.Context, final Final) error
}

// State is the per-frame brief state
type State struct {
	ChatID int64 `json:"chat_id"`
	Tokens int   `json:"tokens"`
}

// Turn is one user input to a running brief
type Turn struct {
	SessionID    int64
	Input        string
	SystemPrompt string
	Deliver      Deliverer
	Finalize     Finalizer
}

// Outcome is what the dialog renders after a turn
type Outcome struct {
	Message string
	Final   *Final
}

// Options tunes the orchestrator
type Options struct {
	Model        string
	SummaryModel string
	Threshold    int
}

// Orchestrator drives a brief conversation with the model
type Orchestrator struct {
	chats   domain.LLMChatRepository
	llm     llm.Client
	content ContentAPI
	opts    Options
}

// NewOrchestrator creates a new brief orchestrator
func NewOrchestrator(chats domain.LLMChatRepository, client llm.Client, content ContentAPI, opts Options) *Orchestrator {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.SummaryModel == "" {
		opts.SummaryModel = opts.Model
	}
	return &Orchestrator{chats: chats, llm: client, content: content, opts: opts}
}

// Open starts a fresh conversation, dropping any earlier chat of the session
func (o *Orchestrator) Open(ctx context.Context, sessionID int64) (State, error) {
	if err := o.Close(ctx, sessionID); err != nil {
		return State{}, err
	}

	chatID, err := o.chats.CreateChat(ctx, sessionID)
	if err != nil {
		return State{}, fmt.Errorf("failed to create llm chat: %w", err)
	}
	return State{ChatID: chatID}, nil
}

// Close deletes the session's conversation
func (o *Orchestrator) Close(ctx context.Context, sessionID int64) error {
	chat, err := o.chats.ChatBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get llm chat: %w", err)
	}
	if chat == nil {
		return nil
	}
	if err := o.chats.DeleteChat(ctx, chat.ID); err != nil {
		return fmt.Errorf("failed to delete llm chat: %w", err)
	}
	return nil
}

// Run handles one user turn. New history entries are persisted only when
// the turn completes, so a failed turn can be retried as is. Tokens spent on
// a failed turn still count towards the summarisation threshold.
func (o *Orchestrator) Run(ctx context.Context, state *State, turn Turn) (*Outcome, error) {
	stored, err := o.chats.List(ctx, state.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list llm messages: %w", err)
	}
	history := toHistory(stored)

	if state.Tokens >= o.opts.Threshold {
		recap, err := o.summarise(ctx, state, history, turn.SystemPrompt)
		if err != nil {
			return nil, err
		}
		history = []llm.Message{recap}
	}

	pending := []llm.Message{{Role: llm.RoleUser, Content: Envelope(turn.Input)}}
	tokens := state.Tokens
	channelFetched := false

	for step := 0; step < maxSteps; step++ {
		obj, cost, err := o.llm.GenerateJSON(ctx, llm.Request{
			History:      append(append([]llm.Message(nil), history...), pending...),
			SystemPrompt: turn.SystemPrompt,
			Model:        o.opts.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate brief reply: %w", err)
		}
		tokens += cost.Details.Tokens.TotalTokens
		state.Tokens = tokens

		resp, err := Parse(obj)
		if err != nil {
			return nil, err
		}

		switch r := resp.(type) {
		case ChannelRequest:
			if channelFetched {
				if r.Text == "" {
					return nil, fmt.Errorf("%w: repeated channel request", domain.ErrMalformedLLMResponse)
				}
				return o.finish(ctx, state, pending, obj, tokens, &Outcome{Message: r.Text})
			}
			channelFetched = true

			samples, err := o.channelSamples(ctx, r)
			if err != nil {
				return nil, err
			}
			pending = append(pending, llm.Message{Role: llm.RoleUser, Content: Envelope(samples)})

		case TestRequest:
			text, err := o.content.TestGenerateCategory(ctx, r.Category, r.UserTextReference)
			if err != nil {
				return nil, fmt.Errorf("failed to generate trial publication: %w", err)
			}
			if turn.Deliver != nil {
				if err := turn.Deliver.Deliver(ctx, text); err != nil {
					log.Warn().Err(err).Int64("session_id", turn.SessionID).Msg("Failed to deliver trial publication")
				}
			}
			pending = append(pending, llm.Message{
				Role:    llm.RoleUser,
				Content: Envelope("Trial publication shown to the user:\n\n" + text),
			})

		case Final:
			if turn.Finalize != nil {
				if err := turn.Finalize.Finalize(ctx, r); err != nil {
					return nil, fmt.Errorf("failed to persist brief result: %w", err)
				}
			}
			return o.finish(ctx, state, pending, obj, tokens, &Outcome{Message: r.Text, Final: &r})

		case MessageToUser:
			return o.finish(ctx, state, pending, obj, tokens, &Outcome{Message: r.Text})
		}
	}

	return nil, fmt.Errorf("%w: too many side effects in one turn", domain.ErrMalformedLLMResponse)
}

func (o *Orchestrator) finish(ctx context.Context, state *State, pending []llm.Message, reply map[string]any, tokens int, out *Outcome) (*Outcome, error) {
	raw, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply: %w", err)
	}

	for _, m := range pending {
		if err := o.chats.Append(ctx, state.ChatID, domain.MessageRole(m.Role), m.Content); err != nil {
			return nil, fmt.Errorf("failed to store llm message: %w", err)
		}
	}
	if err := o.chats.Append(ctx, state.ChatID, domain.RoleAssistant, string(raw)); err != nil {
		return nil, fmt.Errorf("failed to store llm message: %w", err)
	}

	state.Tokens = tokens
	return out, nil
}

// summarise replaces the stored history with a single recap message
func (o *Orchestrator) summarise(ctx context.Context, state *State, history []llm.Message, systemPrompt string) (llm.Message, error) {
	req := append(append([]llm.Message(nil), history...), llm.Message{Role: llm.RoleUser, Content: recapRequest})

	summary, _, err := o.llm.GenerateStr(ctx, llm.Request{
		History:      req,
		SystemPrompt: systemPrompt,
		Model:        o.opts.SummaryModel,
	})
	if err != nil {
		return llm.Message{}, fmt.Errorf("failed to summarise brief: %w", err)
	}

	recap := recapPrefix + summary
	if err := o.chats.Clear(ctx, state.ChatID); err != nil {
		return llm.Message{}, fmt.Errorf("failed to clear llm messages: %w", err)
	}
	if err := o.chats.Append(ctx, state.ChatID, domain.RoleUser, recap); err != nil {
		return llm.Message{}, fmt.Errorf("failed to store recap: %w", err)
	}

	log.Info().
		Int64("chat_id", state.ChatID).
		Int("tokens", state.Tokens).
		Int("messages", len(history)).
		Msg("Brief history summarised")

	state.Tokens = 0
	return llm.Message{Role: llm.RoleUser, Content: recap}, nil
}

func (o *Orchestrator) channelSamples(ctx context.Context, r ChannelRequest) (string, error) {
	limit := r.Limit
	switch {
	case limit == 0:
		limit = defaultChannelPosts
	case limit < minChannelPosts:
		limit = minChannelPosts
	case limit > maxChannelPosts:
		limit = maxChannelPosts
	}

	posts, err := o.content.ChannelPosts(ctx, r.Username, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("Channel @%s was not found or has no public posts.", r.Username), nil
		}
		return "", fmt.Errorf("failed to fetch channel posts: %w", err)
	}
	if len(posts) == 0 {
		return fmt.Sprintf("Channel @%s has no public posts.", r.Username), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent posts of channel @%s:", r.Username)
	for i, p := range posts {
		text, err := htmltomarkdown.ConvertString(p.Text)
		if err != nil {
			text = p.Text
		}
		fmt.Fprintf(&b, "\n\n--- post %d", i+1)
		if p.Date != "" {
			fmt.Fprintf(&b, " (%s)", p.Date)
		}
		b.WriteString(" ---\n")
		b.WriteString(strings.TrimSpace(text))
	}
	return b.String(), nil
}

func toHistory(stored []domain.LLMMessage) []llm.Message {
	out := make([]llm.Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, llm.Message{Role: llm.Role(m.Role), Content: m.Text})
	}
	return out
}
