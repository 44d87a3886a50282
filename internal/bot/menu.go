package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
)

// inputFlags are shared by windows accepting free text or voice
type inputFlags struct {
	VoiceTooLong bool `json:"voice_too_long"`
	EmptyInput   bool `json:"empty_input"`
	InvalidURL   bool `json:"invalid_url"`
}

func (f inputFlags) data(data dialog.Data) dialog.Data {
	data["voice_too_long"] = f.VoiceTooLong
	data["empty_input"] = f.EmptyInput
	data["invalid_url"] = f.InvalidURL
	return data
}

var inputFlagsText = dialog.NewMulti(
	dialog.When{Cond: "voice_too_long", Text: dialog.Const("❌ Voice messages longer than 5 minutes are not supported.\n")},
	dialog.When{Cond: "empty_input", Text: dialog.Const("❌ I could not find any text in that message.\n")},
)

type mainMenuData struct {
	Flags      inputFlags `json:"flags"`
	VideoURL   string     `json:"video_url,omitempty"`
	Recovering bool       `json:"recovering"`
}

func (b *Bot) mainMenuDialog() *dialog.Dialog {
	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:  MainMenu,
				Getter: getter(b.mainMenuGetter),
				Text: dialog.NewMulti(
					dialog.When{Cond: "recovering", Text: dialog.Const("⚠️ The last action failed unexpectedly. If it keeps happening, contact support.\n")},
					inputFlagsText,
					dialog.Format("🏠 <b>{organization}</b>\nBalance: {balance} ₽\n\n"+
						"Send me a topic as text or voice to draft a publication, or a YouTube link to cut it into clips."),
				),
				Keyboard: dialog.Column{
					dialog.Start{ID: "content", Text: dialog.Const("📝 Content"), To: ContentMenu},
					dialog.Start{ID: "organization", Text: dialog.Const("🏢 Organization"), To: OrganizationMenu},
					dialog.Start{ID: "profile", Text: dialog.Const("👤 Profile"), To: ProfileMain},
				},
				OnMessage: b.onMainInput,
			},
			{
				State:  MainMenuVideoCutStarted,
				Getter: b.videoCutStartedGetter,
				Text: dialog.Format("🎬 Cutting <a href=\"{url}\">the video</a> into clips has started.\n\n" +
					"It takes a while; I will let you know when the clips are ready."),
				Keyboard:          dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.enterHome},
				DisableWebPreview: true,
			},
		},
	}
}

func (b *Bot) mainMenuGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	s := sessionOf(m)
	d := dialog.DataOf[mainMenuData](m)

	if s.ShowErrorRecovery {
		d.Recovering = true
		if err := b.deps.Sessions.Update(ctx, s.ID, domain.SessionUpdate{ShowErrorRecovery: domain.Ptr(false)}); err != nil {
			log.Warn().Err(err).Int64("chat_id", m.ChatID()).Msg("Failed to clear error recovery flag")
		} else {
			s.ShowErrorRecovery = false
		}
	}

	data := d.Flags.data(dialog.Data{
		"organization": "Organization",
		"balance":      "0",
		"recovering":   d.Recovering,
	})

	org, err := b.deps.Organizations.Get(ctx, s.OrganizationID)
	if err != nil && !notFound(err) {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org != nil {
		data["organization"] = escape(org.Name)
		data["balance"] = org.RubBalance
	}
	return data, nil
}

// onMainInput routes free input: a YouTube link starts a video cut,
// anything else becomes the reference of a new publication
func (b *Bot) onMainInput(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[mainMenuData](m)
	d.Flags = inputFlags{}
	d.Recovering = false

	text, ok, err := b.extract(ctx, m, msg, &d.Flags)
	if err != nil || !ok {
		return err
	}

	if url, found := security.FindYoutubeURL(text); found && security.IsYoutubeURL(text) {
		if err := b.startVideoCut(ctx, m, url); err != nil {
			return err
		}
		d.VideoURL = url
		return m.SwitchTo(MainMenuVideoCutStarted)
	}
	return m.Start(ctx, state(GeneratePublication, "select_category"), dialog.StartNormal, generateStart{Reference: text})
}

// extract normalises a message into text, setting input flags when there is none
func (b *Bot) extract(ctx context.Context, m *dialog.Manager, msg *dialog.Message, flags *inputFlags) (string, bool, error) {
	text, err := b.input.Extract(ctx, sessionOf(m).OrganizationID, msg)
	if errors.Is(err, domain.ErrVoiceTooLong) {
		flags.VoiceTooLong = true
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if text == "" {
		flags.EmptyInput = true
		return "", false, nil
	}
	return text, true, nil
}

func (b *Bot) startVideoCut(ctx context.Context, m *dialog.Manager, url string) error {
	s := sessionOf(m)
	if err := b.deps.Content.GenerateVideoCuts(ctx, s.OrganizationID, s.AccountID, url); err != nil {
		return fmt.Errorf("failed to start video cut: %w", err)
	}
	log.Info().Int64("chat_id", m.ChatID()).Str("url", url).Msg("Video cut started")
	return nil
}

func (b *Bot) videoCutStartedGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	return dialog.Data{"url": dialog.DataOf[mainMenuData](m).VideoURL}, nil
}

func (b *Bot) contentMenuDialog() *dialog.Dialog {
	home := dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.enterHome}
	back := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: ContentMenu}

	return &dialog.Dialog{
		OnStart: b.preempt,
		Windows: []*dialog.Window{
			{
				State: ContentMenu,
				Text:  dialog.Const("📝 <b>Content</b>\n\nWhat are we working on?"),
				Keyboard: dialog.Column{
					dialog.SwitchTo{ID: "publications", Text: dialog.Const("📰 Publications"), To: ContentMenuPublications},
					dialog.SwitchTo{ID: "video_cuts", Text: dialog.Const("🎬 Video cuts"), To: ContentMenuVideoCuts},
					home,
				},
			},
			{
				State: ContentMenuPublications,
				Text:  dialog.Const("📰 <b>Publications</b>"),
				Keyboard: dialog.Column{
					dialog.Start{ID: "generate", Text: dialog.Const("✨ New publication"), To: state(GeneratePublication, "select_category")},
					dialog.Start{ID: "drafts", Text: dialog.Const("🗂 Drafts"), To: state(DraftPublications, "list")},
					dialog.Button{
						ID:      "moderation",
						Text:    dialog.Const("🛡 Moderation"),
						OnClick: b.gate(service.PermModerate, startTo(state(ModeratePublication, "list"), dialog.StartNormal)),
					},
					back,
				},
			},
			{
				State: ContentMenuVideoCuts,
				Text:  dialog.Const("🎬 <b>Video cuts</b>"),
				Keyboard: dialog.Column{
					dialog.Start{ID: "generate", Text: dialog.Const("✂️ Cut a video"), To: GenerateVideoCutInput},
					dialog.Start{ID: "drafts", Text: dialog.Const("🗂 Drafts"), To: state(VideoCutDrafts, "list")},
					dialog.Button{
						ID:      "moderation",
						Text:    dialog.Const("🛡 Moderation"),
						OnClick: b.gate(service.PermModerate, startTo(state(VideoCutModeration, "list"), dialog.StartNormal)),
					},
					back,
				},
			},
		},
	}
}

type generateVideoCutData struct {
	Flags inputFlags `json:"flags"`
	URL   string     `json:"url,omitempty"`
}

func (b *Bot) generateVideoCutDialog() *dialog.Dialog {
	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State: GenerateVideoCutInput,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					return dialog.DataOf[generateVideoCutData](m).Flags.data(dialog.Data{}), nil
				},
				Text: dialog.NewMulti(
					dialog.When{Cond: "invalid_url", Text: dialog.Const("❌ That is not a YouTube video link.\n")},
					dialog.Const("Send a link to a YouTube video and I will cut it into short clips."),
				),
				Keyboard:  dialog.Cancel{ID: "cancel", Text: dialog.Const("⬅️ Back")},
				OnMessage: b.onVideoCutURL,
			},
			{
				State: GenerateVideoCutStarted,
				Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
					return dialog.Data{"url": dialog.DataOf[generateVideoCutData](m).URL}, nil
				},
				Text: dialog.Format("🎬 Cutting <a href=\"{url}\">the video</a> has started. I will let you know when the clips are ready."),
				Keyboard: dialog.Column{
					dialog.Cancel{ID: "done", Text: dialog.Const("⬅️ Back")},
					dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.enterHome},
				},
				DisableWebPreview: true,
			},
		},
	}
}

func (b *Bot) onVideoCutURL(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[generateVideoCutData](m)
	d.Flags = inputFlags{}

	url, ok := security.FindYoutubeURL(msg.Text)
	if !ok {
		d.Flags.InvalidURL = true
		return nil
	}
	if err := b.startVideoCut(ctx, m, url); err != nil {
		return err
	}
	d.URL = url
	return m.SwitchTo(GenerateVideoCutStarted)
}
