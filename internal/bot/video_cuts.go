package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
	"github.com/Rrens/smm-bot/internal/service"
)

// Video platform limits for clip metadata
const (
	maxVideoCutName        = 100
	maxVideoCutDescription = 5000
)

var videoCutNetworks = []string{domain.NetworkYoutube, domain.NetworkInstagram}

type videoCutData struct {
	Queue     service.Queue     `json:"queue"`
	Connected map[string]bool   `json:"connected,omitempty"`
	Links     map[string]string `json:"links,omitempty"`

	Input          inputFlags `json:"input"`
	InvalidText    bool       `json:"invalid_text"`
	InvalidComment bool       `json:"invalid_comment"`
	Notice         string     `json:"notice,omitempty"`
}

func (d *videoCutData) clearFlags() {
	d.Input = inputFlags{}
	d.InvalidText = false
	d.InvalidComment = false
	d.Notice = ""
}

func clearVideoCutFlags(_ context.Context, m *dialog.Manager) error {
	dialog.DataOf[videoCutData](m).clearFlags()
	return nil
}

var videoCutMedia = &dialog.Media{FileIDKey: "video_fid", Video: true}

var videoCutText = dialog.NewMulti(
	dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
	dialog.Format("<i>{title} {position}/{total}</i>\n\n<b>{name}</b>\n{description}"),
	dialog.When{Cond: "tags", Text: dialog.Format("\n{tags}")},
	dialog.When{Cond: "reference", Text: dialog.Format("\nFrom <a href=\"{reference}\">this video</a>")},
)

func (b *Bot) videoCutDraftsDialog() *dialog.Dialog {
	group := VideoCutDrafts
	list := state(group, "list")
	back := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: list, OnClick: clearVideoCutFlags}

	windows := []*dialog.Window{
		{
			State:  list,
			Getter: getter(b.videoCutGetter(group, "Clip draft")),
			Text:   videoCutText,
			Media:  videoCutMedia,
			Keyboard: dialog.Column{
				videoQueueRow(b, group),
				dialog.Row{
					dialog.SwitchTo{ID: "edit_name", Text: dialog.Const("✏️ Title"), To: state(group, "edit_name"), OnClick: clearVideoCutFlags},
					dialog.SwitchTo{ID: "edit_description", Text: dialog.Const("📝 Description"), To: state(group, "edit_description"), OnClick: clearVideoCutFlags},
				},
				dialog.Button{ID: "publish", Text: dialog.Const("🚀 Publish"), OnClick: b.gate(service.PermSkipModeration, b.openVideoCutNetworks(group)), When: "can_publish"},
				dialog.Button{ID: "moderation", Text: dialog.Const("🛡 Send to moderation"), OnClick: b.submitVideoCut, When: "!can_publish"},
				dialog.SwitchTo{ID: "delete", Text: dialog.Const("🗑 Delete"), To: state(group, "confirm_delete"), OnClick: clearVideoCutFlags},
				dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
		b.videoCutEmptyWindow(group, "🎬 There are no clip drafts. Send a YouTube link in the main menu to cut a video."),
		{
			State:  state(group, "edit_name"),
			Getter: b.videoCutFlagsGetter,
			Text: dialog.NewMulti(
				dialog.When{Cond: "invalid_text", Text: dialog.Const(fmt.Sprintf("❌ The title must be 1 to %d characters long.\n", maxVideoCutName))},
				dialog.Const("Send a new title for the clip."),
			),
			Keyboard:  back,
			OnMessage: b.onVideoCutText(false),
		},
		{
			State:  state(group, "edit_description"),
			Getter: b.videoCutFlagsGetter,
			Text: dialog.NewMulti(
				dialog.When{Cond: "invalid_text", Text: dialog.Const(fmt.Sprintf("❌ The description must be 1 to %d characters long.\n", maxVideoCutDescription))},
				dialog.Const("Send a new description for the clip."),
			),
			Keyboard:  back,
			OnMessage: b.onVideoCutText(true),
		},
		b.videoCutNetworksWindow(group),
		{
			State: state(group, "confirm_delete"),
			Text:  dialog.Const("Delete this clip? It cannot be restored."),
			Keyboard: dialog.Row{
				dialog.Button{ID: "confirm", Text: dialog.Const("🗑 Delete"), OnClick: b.deleteVideoCut},
				dialog.SwitchTo{ID: "back", Text: dialog.Const("✖️ Cancel"), To: list},
			},
		},
	}
	return &dialog.Dialog{OnStart: b.openVideoCutQueue(group), Windows: windows}
}

func (b *Bot) videoCutModerationDialog() *dialog.Dialog {
	group := VideoCutModeration
	list := state(group, "list")

	windows := []*dialog.Window{
		{
			State:  list,
			Getter: getter(b.videoCutGetter(group, "Clip awaiting moderation")),
			Text:   videoCutText,
			Media:  videoCutMedia,
			Keyboard: dialog.Column{
				videoQueueRow(b, group),
				dialog.Row{
					dialog.Button{ID: "approve", Text: dialog.Const("✅ Approve"), OnClick: b.gate(service.PermModerate, b.openVideoCutNetworks(group))},
					dialog.SwitchTo{ID: "reject", Text: dialog.Const("❌ Reject"), To: state(group, "reject_comment"), OnClick: clearVideoCutFlags},
				},
				dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
		b.videoCutEmptyWindow(group, "🛡 No clips are waiting for moderation."),
		b.videoCutNetworksWindow(group),
		{
			State: state(group, "reject_comment"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				d := dialog.DataOf[videoCutData](m)
				return d.Input.data(dialog.Data{
					"invalid_comment": d.InvalidComment,
					"min":             service.MinRejectComment,
					"max":             service.MaxRejectComment,
				}), nil
			},
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.When{Cond: "invalid_comment", Text: dialog.Format("❌ The comment must be {min} to {max} characters long.\n")},
				dialog.Const("Why is the clip rejected? The author will see your comment."),
			),
			Keyboard:  dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: list, OnClick: clearVideoCutFlags},
			OnMessage: b.onRejectVideoCut,
		},
		{
			State: state(group, "published"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				d := dialog.DataOf[videoCutData](m)
				data := dialog.Data{"links": escape(linkList(d.Links)), "more": !d.Queue.Empty()}
				linkData(data, d.Links)
				return data, nil
			},
			Text: dialog.NewMulti(
				dialog.Const("🚀 The clip is published."),
				dialog.When{Cond: "links", Text: dialog.Format("\n{links}")},
			),
			Keyboard: dialog.Column{
				dialog.URL{Text: dialog.Const("YouTube"), URL: dialog.Format("{link_youtube}")},
				dialog.URL{Text: dialog.Const("Instagram"), URL: dialog.Format("{link_instagram}")},
				dialog.Button{ID: "next", Text: dialog.Const("➡️ Next"), OnClick: b.showVideoCut(group), When: "more"},
				dialog.Button{ID: "done", Text: dialog.Const("👌 Done"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
	}
	return &dialog.Dialog{OnStart: b.openVideoCutQueue(group), Windows: windows}
}

func videoQueueRow(b *Bot, group string) dialog.Row {
	return dialog.Row{
		dialog.Button{ID: "prev", Text: dialog.Const("‹"), OnClick: b.moveVideoCutQueue(group, -1), When: "many"},
		dialog.Button{ID: "next", Text: dialog.Const("›"), OnClick: b.moveVideoCutQueue(group, 1), When: "many"},
	}
}

func (b *Bot) videoCutEmptyWindow(group, text string) *dialog.Window {
	return &dialog.Window{
		State: state(group, "empty"),
		Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
			return dialog.Data{"notice": dialog.DataOf[videoCutData](m).Notice}, nil
		},
		Text: dialog.NewMulti(
			dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
			dialog.Const(text),
		),
		Keyboard: dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
	}
}

func (b *Bot) videoCutNetworksWindow(group string) *dialog.Window {
	checkbox := func(network string) dialog.Checkbox {
		return dialog.Checkbox{
			ID:        "net_" + network,
			Checked:   dialog.Const("✅ " + networkTitles[network]),
			Unchecked: dialog.Const("⬜️ " + networkTitles[network]),
			When:      "connected_" + network,
		}
	}
	return &dialog.Window{
		State: state(group, "select_networks"),
		Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
			d := dialog.DataOf[videoCutData](m)
			data := dialog.Data{}
			for _, network := range videoCutNetworks {
				if d.Connected[network] {
					data["connected_"+network] = true
					data["any_connected"] = true
				}
			}
			return data, nil
		},
		Text: dialog.NewMulti(
			dialog.When{Cond: "any_connected", Text: dialog.Const("Where should the clip be published?")},
			dialog.When{Cond: "!any_connected", Text: dialog.Const("Neither YouTube nor Instagram is connected to the organization yet.")},
		),
		Keyboard: dialog.Column{
			checkbox(domain.NetworkYoutube),
			checkbox(domain.NetworkInstagram),
			dialog.Button{ID: "publish", Text: dialog.Const("🚀 Publish"), OnClick: b.publishVideoCut(group), When: "any_connected"},
			dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: state(group, "list")},
		},
	}
}

func (b *Bot) videoCutFlagsGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	return dialog.Data{"invalid_text": dialog.DataOf[videoCutData](m).InvalidText}, nil
}

// currentVideoCut loads the clip under the cursor
func (b *Bot) currentVideoCut(ctx context.Context, m *dialog.Manager) (*domain.VideoCut, error) {
	id, ok := dialog.DataOf[videoCutData](m).Queue.Current()
	if !ok {
		return nil, domain.ErrNotFound
	}
	v, err := b.deps.Content.GetVideoCut(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get video cut: %w", err)
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (b *Bot) videoCutGetter(group, title string) dialog.Getter {
	return func(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
		d := dialog.DataOf[videoCutData](m)
		v, err := b.currentVideoCut(ctx, m)
		if err != nil {
			return nil, err
		}

		tags := make([]string, 0, len(v.Tags))
		for _, t := range v.Tags {
			tags = append(tags, "#"+strings.TrimPrefix(t, "#"))
		}
		data := dialog.Data{
			"title":       title,
			"position":    d.Queue.Index + 1,
			"total":       d.Queue.Len(),
			"many":        d.Queue.Len() > 1,
			"notice":      d.Notice,
			"name":        escape(v.Name),
			"description": escape(v.Description),
			"tags":        escape(strings.Join(tags, " ")),
			"reference":   v.YoutubeVideoReference,
			"video_fid":   v.VideoFid,
		}
		if group == VideoCutDrafts {
			ok, err := b.allowed(ctx, m, service.PermSkipModeration)
			if err != nil {
				return nil, err
			}
			data["can_publish"] = ok
		}
		return data, nil
	}
}

func (b *Bot) openVideoCutQueue(group string) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if err := b.busy(ctx, m); err != nil {
			return err
		}
		organizationID := sessionOf(m).OrganizationID
		d := dialog.DataOf[videoCutData](m)

		if group == VideoCutModeration {
			q, err := b.moderation.VideoCutQueue(ctx, organizationID)
			if err != nil {
				return err
			}
			d.Queue = q
			return b.showVideoCut(group)(ctx, m)
		}

		all, err := b.deps.Content.VideoCutsByOrganization(ctx, organizationID)
		if err != nil && !notFound(err) {
			return fmt.Errorf("failed to list video cuts: %w", err)
		}
		d.Queue = service.Queue{}
		for _, v := range all {
			if v.ModerationStatus == domain.ModerationDraft {
				d.Queue.IDs = append(d.Queue.IDs, v.ID)
			}
		}
		return b.showVideoCut(group)(ctx, m)
	}
}

// showVideoCut drops clips that vanished or were decided elsewhere and
// shows the one under the cursor
func (b *Bot) showVideoCut(group string) dialog.Handler {
	want := domain.ModerationDraft
	if group == VideoCutModeration {
		want = domain.ModerationModeration
	}
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[videoCutData](m)
		for {
			id, ok := d.Queue.Current()
			if !ok {
				return m.SwitchTo(state(group, "empty"))
			}
			v, err := b.deps.Content.GetVideoCut(ctx, id)
			if err != nil && !notFound(err) {
				return fmt.Errorf("failed to get video cut: %w", err)
			}
			if v == nil || v.ModerationStatus != want {
				d.Queue.Remove(id)
				continue
			}
			return m.SwitchTo(state(group, "list"))
		}
	}
}

func (b *Bot) moveVideoCutQueue(group string, delta int) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[videoCutData](m)
		d.clearFlags()
		if delta < 0 {
			d.Queue.Prev()
		} else {
			d.Queue.Next()
		}
		return b.showVideoCut(group)(ctx, m)
	}
}

// onVideoCutText stores a new title, or a new description when description is set
func (b *Bot) onVideoCutText(description bool) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[videoCutData](m)
		d.clearFlags()

		id, ok := d.Queue.Current()
		if !ok {
			return domain.ErrNotFound
		}

		text := strings.TrimSpace(msg.Text)
		change := domain.VideoCutChange{ID: id}
		limit := maxVideoCutName
		if description {
			limit = maxVideoCutDescription
			change.Description = &text
		} else {
			change.Name = &text
		}
		if err := security.CheckLength("text", text, 1, limit); err != nil {
			d.InvalidText = true
			return nil
		}

		if err := b.deps.Content.ChangeVideoCut(ctx, change); err != nil {
			return fmt.Errorf("failed to change video cut: %w", err)
		}
		d.Notice = "✅ Saved."
		return m.SwitchTo(state(VideoCutDrafts, "list"))
	}
}

func (b *Bot) submitVideoCut(ctx context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[videoCutData](m)
	d.clearFlags()

	id, ok := d.Queue.Current()
	if !ok {
		return domain.ErrNotFound
	}
	if err := b.deps.Content.SendVideoCutToModeration(ctx, id); err != nil {
		return fmt.Errorf("failed to send video cut to moderation: %w", err)
	}
	log.Info().Int64("video_cut_id", id).Int64("chat_id", m.ChatID()).Msg("Video cut sent to moderation")

	d.Queue.Remove(id)
	d.Notice = "🛡 The clip is sent to moderation."
	return b.showVideoCut(VideoCutDrafts)(ctx, m)
}

func (b *Bot) deleteVideoCut(ctx context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[videoCutData](m)
	d.clearFlags()

	id, ok := d.Queue.Current()
	if !ok {
		return domain.ErrNotFound
	}
	if err := b.deps.Content.DeleteVideoCut(ctx, id); err != nil {
		return fmt.Errorf("failed to delete video cut: %w", err)
	}
	log.Info().Int64("video_cut_id", id).Int64("chat_id", m.ChatID()).Msg("Video cut deleted")

	d.Queue.Remove(id)
	d.Notice = "🗑 The clip is deleted."
	return b.showVideoCut(VideoCutDrafts)(ctx, m)
}

func (b *Bot) openVideoCutNetworks(group string) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[videoCutData](m)
		d.clearFlags()

		sel, social, err := b.moderation.SeedSelection(ctx, sessionOf(m).OrganizationID, videoCutNetworks...)
		if err != nil {
			return err
		}
		d.Connected = make(map[string]bool, len(videoCutNetworks))
		for _, network := range videoCutNetworks {
			d.Connected[network] = social.Connected(network)
			m.SetChecked("net_"+network, sel[network])
		}
		return m.SwitchTo(state(group, "select_networks"))
	}
}

// publishVideoCut publishes the clip; drafts pass through moderation first
func (b *Bot) publishVideoCut(group string) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		sel := selectedNetworks(m, videoCutNetworks)
		if !sel.Any() {
			return service.ErrNoNetworkSelected
		}

		d := dialog.DataOf[videoCutData](m)
		id, ok := d.Queue.Current()
		if !ok {
			return domain.ErrNotFound
		}

		if group == VideoCutDrafts {
			if err := b.deps.Content.SendVideoCutToModeration(ctx, id); err != nil {
				return fmt.Errorf("failed to send video cut to moderation: %w", err)
			}
		}

		s := sessionOf(m)
		result, err := b.moderation.ApproveVideoCut(ctx, id, s.AccountID, sel)
		if err != nil {
			return err
		}
		log.Info().Int64("video_cut_id", id).Int64("moderator_id", s.AccountID).Msg("Video cut published")

		d.Queue.Remove(id)
		d.Links = result.PostLinks
		if group == VideoCutModeration {
			return m.SwitchTo(state(group, "published"))
		}

		d.Notice = "🚀 The clip is published."
		if links := linkList(result.PostLinks); links != "" {
			d.Notice += "\n" + escape(links)
		}
		return b.showVideoCut(group)(ctx, m)
	}
}

func (b *Bot) onRejectVideoCut(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[videoCutData](m)
	d.clearFlags()

	comment, ok, err := b.extract(ctx, m, msg, &d.Input)
	if err != nil || !ok {
		return err
	}
	if !service.ValidComment(comment) {
		d.InvalidComment = true
		return nil
	}

	id, found := d.Queue.Current()
	if !found {
		return domain.ErrNotFound
	}
	s := sessionOf(m)
	if err := b.moderation.RejectVideoCut(ctx, id, s.AccountID, comment); err != nil {
		return err
	}
	log.Info().Int64("video_cut_id", id).Int64("moderator_id", s.AccountID).Msg("Video cut rejected")

	d.Queue.Remove(id)
	d.Notice = "❌ The clip is rejected, the author will be notified."
	m.Show(dialog.ShowSend)
	return b.showVideoCut(VideoCutModeration)(ctx, m)
}
