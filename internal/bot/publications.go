package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/service"
)

// generateStart is passed when a publication is started from free input
type generateStart struct {
	Reference string `json:"reference,omitempty"`
}

const (
	outcomePublished  = "published"
	outcomeDraft      = "draft"
	outcomeModeration = "moderation"
)

var publicationNetworks = []string{domain.NetworkTelegram, domain.NetworkVkontakte}

func (b *Bot) generatePublicationDialog() *dialog.Dialog {
	f := generateFlow
	windows := []*dialog.Window{
		{
			State:  f.state("select_category"),
			Getter: getter(b.briefCategoriesGetter),
			Text: dialog.NewMulti(
				dialog.When{Cond: "categories", Text: dialog.Const("✨ Which category is the publication for?")},
				dialog.When{Cond: "!categories", Text: dialog.Const("There are no categories yet. Create one first so I know what to write about.")},
			),
			Keyboard: dialog.Column{
				dialog.ScrollingGroup{
					ID:     "categories_page",
					Select: dialog.Select{ID: "category", Items: "categories", OnClick: b.onGenerateCategory},
					Width:  1,
					Height: 6,
				},
				dialog.Button{
					ID:      "create_category",
					Text:    dialog.Const("➕ New category"),
					OnClick: b.gate(service.PermCategory, startTo(state(BriefCreateCategory, "chat"), dialog.StartNormal)),
					When:    "!categories",
				},
				dialog.Button{ID: "cancel", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
		},
		{
			State: f.state("input_prompt"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				return dialog.DataOf[publicationData](m).Input.data(dialog.Data{}), nil
			},
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.Const("What should the publication be about? Send a topic, a draft or a link as text or voice."),
			),
			Keyboard:  dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.state("select_category"), OnClick: clearPublicationFlags},
			OnMessage: b.onGeneratePrompt,
		},
		{
			State: f.state("balance_warning"),
			Text:  dialog.Const("💰 There are not enough funds on the organization balance to generate a publication."),
			Keyboard: dialog.Column{
				dialog.Button{
					ID:      "top_up",
					Text:    dialog.Const("➕ Top up"),
					OnClick: b.gate(service.PermTopUpBalance, startTo(OrganizationBalance, dialog.StartNormal)),
				},
				dialog.Button{ID: "retry", Text: dialog.Const("🔄 Try again"), OnClick: b.generateDraft},
				dialog.Button{ID: "cancel", Text: dialog.Const("✖️ Cancel"), OnClick: b.finish},
			},
		},
		{
			State:  f.state("preview"),
			Getter: getter(b.publicationGetter(f)),
			Text: dialog.NewMulti(
				dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
				dialog.Format("{text}"),
			),
			Media: draftMedia,
			Keyboard: dialog.Column{
				editRow(f),
				dialog.Button{ID: "save", Text: dialog.Const("💾 Save to drafts"), OnClick: b.createPublication(f, domain.ModerationDraft)},
				dialog.Button{ID: "publish", Text: dialog.Const("🚀 Publish"), OnClick: b.gate(service.PermSkipModeration, b.openNetworks(f)), When: "can_publish"},
				dialog.Button{ID: "moderation", Text: dialog.Const("🛡 Send to moderation"), OnClick: b.createPublication(f, domain.ModerationModeration), When: "!can_publish"},
				dialog.Button{ID: "discard", Text: dialog.Const("🗑 Discard"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
	}
	windows = append(windows, b.networkWindows(f)...)
	windows = append(windows, b.editorWindows(f)...)

	return &dialog.Dialog{OnStart: b.openGenerate, Windows: windows}
}

func (b *Bot) draftPublicationsDialog() *dialog.Dialog {
	f := draftsFlow
	windows := []*dialog.Window{
		{
			State:  f.state("list"),
			Getter: getter(b.publicationGetter(f)),
			Text: dialog.NewMulti(
				dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
				dialog.Format("<i>Draft {position}/{total}</i>\n\n{text}"),
			),
			Media: draftMedia,
			Keyboard: dialog.Column{
				queueRow(b, f),
				editRow(f),
				dialog.Button{ID: "save", Text: dialog.Const("💾 Save changes"), OnClick: b.saveDraft(f), When: "has_changes"},
				dialog.Button{ID: "publish", Text: dialog.Const("🚀 Publish"), OnClick: b.gate(service.PermSkipModeration, b.openNetworks(f)), When: "can_publish"},
				dialog.Button{ID: "moderation", Text: dialog.Const("🛡 Send to moderation"), OnClick: b.submitDraft(f), When: "!can_publish"},
				dialog.SwitchTo{ID: "delete", Text: dialog.Const("🗑 Delete"), To: f.state("confirm_delete"), OnClick: clearPublicationFlags},
				dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
		{
			State: f.state("empty"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				return dialog.Data{"notice": dialog.DataOf[publicationData](m).Notice}, nil
			},
			Text: dialog.NewMulti(
				dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
				dialog.Const("🗂 There are no drafts."),
			),
			Keyboard: dialog.Column{
				dialog.Start{ID: "generate", Text: dialog.Const("✨ New publication"), To: generateFlow.state("select_category")},
				dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
		},
		{
			State: f.state("confirm_delete"),
			Text:  dialog.Const("Delete this draft? It cannot be restored."),
			Keyboard: dialog.Row{
				dialog.Button{ID: "confirm", Text: dialog.Const("🗑 Delete"), OnClick: b.deleteDraft(f)},
				dialog.SwitchTo{ID: "back", Text: dialog.Const("✖️ Cancel"), To: f.state("list")},
			},
		},
	}
	windows = append(windows, b.networkWindows(f)...)
	windows = append(windows, b.editorWindows(f)...)

	return &dialog.Dialog{OnStart: b.openQueue(f), Windows: windows}
}

func (b *Bot) moderationPublicationsDialog() *dialog.Dialog {
	f := moderationFlow
	windows := []*dialog.Window{
		{
			State:  f.state("list"),
			Getter: getter(b.publicationGetter(f)),
			Text: dialog.NewMulti(
				dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
				dialog.Format("<i>Awaiting moderation {position}/{total}</i>\n\n{text}"),
			),
			Media: draftMedia,
			Keyboard: dialog.Column{
				queueRow(b, f),
				editRow(f),
				dialog.Button{ID: "save", Text: dialog.Const("💾 Save changes"), OnClick: b.saveDraft(f), When: "has_changes"},
				dialog.Row{
					dialog.Button{ID: "approve", Text: dialog.Const("✅ Approve"), OnClick: b.gate(service.PermModerate, b.openNetworks(f))},
					dialog.SwitchTo{ID: "reject", Text: dialog.Const("❌ Reject"), To: f.state("reject_comment"), OnClick: clearPublicationFlags},
				},
				dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
		{
			State: f.state("empty"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				return dialog.Data{"notice": dialog.DataOf[publicationData](m).Notice}, nil
			},
			Text: dialog.NewMulti(
				dialog.When{Cond: "notice", Text: dialog.Format("{notice}\n")},
				dialog.Const("🛡 Nothing is waiting for moderation."),
			),
			Keyboard: dialog.Button{ID: "close", Text: dialog.Const("⬅️ Back"), OnClick: b.finish},
		},
		{
			State: f.state("reject_comment"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				d := dialog.DataOf[publicationData](m)
				return d.Input.data(dialog.Data{
					"invalid_comment": d.InvalidComment,
					"min":             service.MinRejectComment,
					"max":             service.MaxRejectComment,
				}), nil
			},
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.When{Cond: "invalid_comment", Text: dialog.Format("❌ The comment must be {min} to {max} characters long.\n")},
				dialog.Const("Why is the publication rejected? The author will see your comment."),
			),
			Keyboard:  dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.state("list"), OnClick: clearPublicationFlags},
			OnMessage: b.onRejectPublication(f),
		},
	}
	windows = append(windows, b.networkWindows(f)...)
	windows = append(windows, b.editorWindows(f)...)

	return &dialog.Dialog{OnStart: b.openQueue(f), Windows: windows}
}

func editRow(f flow) dialog.Row {
	return dialog.Row{
		dialog.SwitchTo{ID: "edit_text", Text: dialog.Const("✏️ Text"), To: f.state("edit_text"), OnClick: clearPublicationFlags},
		dialog.SwitchTo{ID: "image", Text: dialog.Const("🖼 Image"), To: f.state("image_menu"), OnClick: clearPublicationFlags},
	}
}

func queueRow(b *Bot, f flow) dialog.Row {
	return dialog.Row{
		dialog.Button{ID: "prev", Text: dialog.Const("‹"), OnClick: b.moveQueue(f, -1), When: "many"},
		dialog.Button{ID: "next", Text: dialog.Const("›"), OnClick: b.moveQueue(f, 1), When: "many"},
	}
}

// networkWindows are the publishing target choice and the outcome screen
func (b *Bot) networkWindows(f flow) []*dialog.Window {
	checkbox := func(network string) dialog.Checkbox {
		return dialog.Checkbox{
			ID:        "net_" + network,
			Checked:   dialog.Const("✅ " + networkTitles[network]),
			Unchecked: dialog.Const("⬜️ " + networkTitles[network]),
			When:      "connected_" + network,
		}
	}
	links := dialog.Column{
		dialog.URL{Text: dialog.Const("Telegram"), URL: dialog.Format("{link_telegram}")},
		dialog.URL{Text: dialog.Const("VK"), URL: dialog.Format("{link_vkontakte}")},
	}

	return []*dialog.Window{
		{
			State: f.state("select_networks"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				d := dialog.DataOf[publicationData](m)
				data := dialog.Data{}
				for _, network := range publicationNetworks {
					if d.Connected[network] {
						data["connected_"+network] = true
						data["any_connected"] = true
					}
				}
				return data, nil
			},
			Text: dialog.NewMulti(
				dialog.When{Cond: "any_connected", Text: dialog.Const("Where should it be published?")},
				dialog.When{Cond: "!any_connected", Text: dialog.Const("No social network is connected. Connect one in Organization → Social networks.")},
			),
			Keyboard: dialog.Column{
				checkbox(domain.NetworkTelegram),
				checkbox(domain.NetworkVkontakte),
				dialog.Button{ID: "publish", Text: dialog.Const("🚀 Publish"), OnClick: b.publish(f), When: "any_connected"},
				dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.homeState()},
			},
		},
		{
			State: f.state("published"),
			Getter: func(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
				d := dialog.DataOf[publicationData](m)
				data := dialog.Data{
					"outcome": d.Outcome,
					"links":   escape(linkList(d.Links)),
					"more":    !d.Queue.Empty(),
				}
				linkData(data, d.Links)
				return data, nil
			},
			Text: dialog.Case{
				Selector: "outcome",
				Cases: map[string]dialog.Text{
					outcomePublished: dialog.NewMulti(
						dialog.Const("🚀 The publication is published."),
						dialog.When{Cond: "links", Text: dialog.Format("\n{links}")},
					),
					outcomeDraft:      dialog.Const("💾 The publication is saved to drafts."),
					outcomeModeration: dialog.Const("🛡 The publication is sent to moderation. I will let you know once it is reviewed."),
				},
			},
			Keyboard: dialog.Column{
				links,
				dialog.Button{ID: "next", Text: dialog.Const("➡️ Next"), OnClick: b.showCurrent(f), When: "more"},
				dialog.Button{ID: "done", Text: dialog.Const("👌 Done"), OnClick: b.finish},
			},
			DisableWebPreview: true,
		},
	}
}

// publicationGetter adds the queue position and permissions to the editor data
func (b *Bot) publicationGetter(f flow) dialog.Getter {
	return func(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
		data, err := b.editorGetter(ctx, m)
		if err != nil {
			return nil, err
		}
		d := dialog.DataOf[publicationData](m)
		data["position"] = d.Queue.Index + 1
		data["total"] = d.Queue.Len()
		data["many"] = d.Queue.Len() > 1

		if f != moderationFlow {
			ok, err := b.allowed(ctx, m, service.PermSkipModeration)
			if err != nil {
				return nil, err
			}
			data["can_publish"] = ok
		}
		return data, nil
	}
}

func (b *Bot) openGenerate(ctx context.Context, m *dialog.Manager) error {
	if err := b.busy(ctx, m); err != nil {
		return err
	}
	dialog.DataOf[publicationData](m).Reference = dialog.StartDataOf[generateStart](m).Reference
	return nil
}

func (b *Bot) onGenerateCategory(ctx context.Context, m *dialog.Manager, item string) error {
	id, ok := parseID(item)
	if !ok {
		return nil
	}
	d := dialog.DataOf[publicationData](m)
	d.clearFlags()
	d.Editor.Working.CategoryID = id
	if d.Reference == "" {
		return m.SwitchTo(generateFlow.state("input_prompt"))
	}
	return b.generateDraft(ctx, m)
}

func (b *Bot) onGeneratePrompt(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[publicationData](m)
	d.clearFlags()

	reference, ok, err := b.extract(ctx, m, msg, &d.Input)
	if err != nil || !ok {
		return err
	}
	d.Reference = reference
	m.Show(dialog.ShowSend)
	return b.generateDraft(ctx, m)
}

// generateDraft asks for a new text; an empty balance is a screen, not an error
func (b *Bot) generateDraft(ctx context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[publicationData](m)
	draft, err := b.publications.GenerateDraft(ctx, d.Editor.Working.CategoryID, d.Reference)
	if errors.Is(err, domain.ErrInsufficientBalance) {
		return m.SwitchTo(generateFlow.state("balance_warning"))
	}
	if err != nil {
		return err
	}
	d.Editor.Open(draft)
	return afterEdit(m, generateFlow)
}

// fits sends the user to the length alert when the text is over the ceiling
func fits(m *dialog.Manager, f flow) (bool, error) {
	w := dialog.DataOf[publicationData](m).Editor.Working
	if !service.CheckLength(w.Text, w.HasImage) {
		return true, nil
	}
	return false, m.SwitchTo(f.state("text_too_long_alert"))
}

func (b *Bot) createPublication(f flow, status string) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if ok, err := fits(m, f); !ok {
			return err
		}
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		s := sessionOf(m)
		stored, err := b.publications.Store(ctx, s.OrganizationID, s.AccountID, &d.Editor, status)
		if err != nil {
			return err
		}
		log.Info().Int64("publication_id", d.Editor.Working.ID).Str("status", stored).Int64("chat_id", m.ChatID()).Msg("Publication stored")

		d.Outcome = outcomeDraft
		if stored == domain.ModerationModeration {
			d.Outcome = outcomeModeration
		}
		return m.SwitchTo(f.state("published"))
	}
}

func (b *Bot) openQueue(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if err := b.busy(ctx, m); err != nil {
			return err
		}
		organizationID := sessionOf(m).OrganizationID
		d := dialog.DataOf[publicationData](m)

		if f == moderationFlow {
			q, err := b.moderation.PublicationQueue(ctx, organizationID)
			if err != nil {
				return err
			}
			d.Queue = q
		} else {
			drafts, err := b.publications.Drafts(ctx, organizationID)
			if err != nil {
				return err
			}
			d.Queue = service.Queue{}
			for _, p := range drafts {
				d.Queue.IDs = append(d.Queue.IDs, p.ID)
			}
		}
		return b.showCurrent(f)(ctx, m)
	}
}

// showCurrent loads the item under the cursor, skipping ones that vanished
// or were decided elsewhere
func (b *Bot) showCurrent(f flow) dialog.Handler {
	want := domain.ModerationDraft
	if f == moderationFlow {
		want = domain.ModerationModeration
	}
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		for {
			id, ok := d.Queue.Current()
			if !ok {
				return m.SwitchTo(f.state("empty"))
			}
			p, err := b.publications.Get(ctx, id)
			if err != nil {
				return err
			}
			if p == nil || p.ModerationStatus != want {
				d.Queue.Remove(id)
				continue
			}
			d.Editor.Open(service.DraftFromPublication(p))
			return m.SwitchTo(f.state("list"))
		}
	}
}

// moveQueue steps the cursor, dropping unsaved edits of the current item
func (b *Bot) moveQueue(f flow, delta int) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		d.Editor.Discard()
		if delta < 0 {
			d.Queue.Prev()
		} else {
			d.Queue.Next()
		}
		return b.showCurrent(f)(ctx, m)
	}
}

func (b *Bot) saveDraft(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if ok, err := fits(m, f); !ok {
			return err
		}
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		if err := b.publications.Save(ctx, &d.Editor); err != nil {
			return err
		}
		d.Notice = "✅ Changes saved."
		return nil
	}
}

func (b *Bot) submitDraft(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if ok, err := fits(m, f); !ok {
			return err
		}
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		if err := b.publications.SendToModeration(ctx, &d.Editor); err != nil {
			return err
		}
		d.Queue.Remove(d.Editor.Working.ID)
		d.Outcome = outcomeModeration
		return m.SwitchTo(f.state("published"))
	}
}

func (b *Bot) deleteDraft(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		id := d.Editor.Working.ID
		if err := b.publications.Delete(ctx, id); err != nil {
			return err
		}
		log.Info().Int64("publication_id", id).Int64("chat_id", m.ChatID()).Msg("Draft deleted")

		d.clearFlags()
		d.Queue.Remove(id)
		d.Notice = "🗑 The draft is deleted."
		return b.showCurrent(f)(ctx, m)
	}
}

// openNetworks seeds the target choice from the networks marked for autoselect
func (b *Bot) openNetworks(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		if ok, err := fits(m, f); !ok {
			return err
		}
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		sel, social, err := b.moderation.SeedSelection(ctx, sessionOf(m).OrganizationID, publicationNetworks...)
		if err != nil {
			return err
		}
		d.Connected = make(map[string]bool, len(publicationNetworks))
		for _, network := range publicationNetworks {
			d.Connected[network] = social.Connected(network)
			m.SetChecked("net_"+network, sel[network])
		}
		return m.SwitchTo(f.state("select_networks"))
	}
}

func selectedNetworks(m *dialog.Manager, networks []string) service.NetworkSelection {
	sel := make(service.NetworkSelection, len(networks))
	for _, network := range networks {
		sel[network] = m.IsChecked("net_" + network)
	}
	return sel
}

// publish stores pending edits and publishes the item to the checked networks
func (b *Bot) publish(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		sel := selectedNetworks(m, publicationNetworks)
		if !sel.Any() {
			return service.ErrNoNetworkSelected
		}

		s := sessionOf(m)
		d := dialog.DataOf[publicationData](m)

		var err error
		switch f {
		case generateFlow, draftsFlow:
			_, err = b.publications.Store(ctx, s.OrganizationID, s.AccountID, &d.Editor, domain.ModerationModeration)
		default:
			err = b.publications.Save(ctx, &d.Editor)
		}
		if err != nil {
			return err
		}

		id := d.Editor.Working.ID
		result, err := b.moderation.ApprovePublication(ctx, id, s.AccountID, sel)
		if err != nil {
			return err
		}
		log.Info().Int64("publication_id", id).Int64("moderator_id", s.AccountID).Msg("Publication published")

		d.Queue.Remove(id)
		d.Outcome = outcomePublished
		d.Links = result.PostLinks
		return m.SwitchTo(f.state("published"))
	}
}

func (b *Bot) onRejectPublication(f flow) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		comment, ok, err := b.extract(ctx, m, msg, &d.Input)
		if err != nil || !ok {
			return err
		}
		if !service.ValidComment(comment) {
			d.InvalidComment = true
			return nil
		}

		s := sessionOf(m)
		id := d.Editor.Working.ID
		if err := b.moderation.RejectPublication(ctx, id, s.AccountID, comment); err != nil {
			return fmt.Errorf("failed to reject publication %d: %w", id, err)
		}
		log.Info().Int64("publication_id", id).Int64("moderator_id", s.AccountID).Msg("Publication rejected")

		d.Queue.Remove(id)
		d.Notice = "❌ The publication is rejected, the author will be notified."
		m.Show(dialog.ShowSend)
		return b.showCurrent(f)(ctx, m)
	}
}
