package bot

import (
	"context"
	"fmt"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/service"
)

func (b *Bot) alertsDialog() *dialog.Dialog {
	home := dialog.Button{ID: "home", Text: dialog.Const("🏠 Home"), OnClick: b.acknowledgeAlert(b.enterHome)}
	links := dialog.Column{
		dialog.URL{Text: dialog.Const("Telegram"), URL: dialog.Format("{link_telegram}")},
		dialog.URL{Text: dialog.Const("VK"), URL: dialog.Format("{link_vkontakte}")},
		dialog.URL{Text: dialog.Const("YouTube"), URL: dialog.Format("{link_youtube}")},
		dialog.URL{Text: dialog.Const("Instagram"), URL: dialog.Format("{link_instagram}")},
	}

	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State:  AlertPublicationApproved,
				Getter: b.alertGetter,
				Text: dialog.NewMulti(
					dialog.Format("✅ Publication #{publication_id} passed moderation and was published."),
					dialog.When{Cond: "links", Text: dialog.Format("\n{links}")},
				),
				Keyboard:          dialog.Column{links, home},
				DisableWebPreview: true,
			},
			{
				State:  AlertPublicationRejected,
				Getter: b.alertGetter,
				Text: dialog.NewMulti(
					dialog.Format("❌ Publication #{publication_id} was rejected by the moderator."),
					dialog.When{Cond: "comment", Text: dialog.Format("\nComment: <i>{comment}</i>")},
					dialog.Const("\nThe publication is back in your drafts."),
				),
				Keyboard: dialog.Column{
					dialog.Button{
						ID:      "open_drafts",
						Text:    dialog.Const("🗂 Open drafts"),
						OnClick: b.acknowledgeAlert(b.startReset(state(DraftPublications, "list"))),
					},
					home,
				},
			},
			{
				State:  AlertVideoCutReady,
				Getter: b.alertGetter,
				Text: dialog.Format("🎬 {count} clips are ready from <a href=\"{reference}\">the video</a>.\n\n" +
					"Review them in the video cut drafts."),
				Keyboard: dialog.Column{
					dialog.Button{
						ID:      "open_drafts",
						Text:    dialog.Const("🗂 Open video drafts"),
						OnClick: b.acknowledgeAlert(b.startReset(state(VideoCutDrafts, "list"))),
					},
					home,
				},
				DisableWebPreview: true,
			},
		},
	}
}

func (b *Bot) alertGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	alert := dialog.StartDataOf[service.PendingAlert](m)
	data := dialog.Data{}
	switch {
	case alert.Approved != nil:
		data["publication_id"] = alert.Approved.PublicationID
		data["links"] = escape(linkList(alert.Approved.PostLinks))
		linkData(data, alert.Approved.PostLinks)
	case alert.Rejected != nil:
		data["publication_id"] = alert.Rejected.PublicationID
		data["comment"] = escape(alert.Rejected.Comment)
	case alert.VideoCut != nil:
		data["count"] = alert.VideoCut.VideoCount
		data["reference"] = alert.VideoCut.YoutubeVideoReference
	}
	return data, nil
}

// acknowledgeAlert deletes the shown alert before running next, which
// usually routes home and so surfaces the next pending alert
func (b *Bot) acknowledgeAlert(next dialog.Handler) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		alert := dialog.StartDataOf[service.PendingAlert](m)
		if alert.Kind != "" {
			if err := b.alerts.Acknowledge(ctx, alert.Kind, alert.ID); err != nil {
				return err
			}
		}
		return next(ctx, m)
	}
}

// startReset opens a dialog on a fresh stack unless another alert is pending
func (b *Bot) startReset(to dialog.State) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		preempted, err := b.dispatchAlerts(ctx, m)
		if err != nil || preempted {
			return err
		}
		if err := m.Start(ctx, MainMenu, dialog.StartResetStack, nil); err != nil {
			return fmt.Errorf("failed to open main menu: %w", err)
		}
		return m.Start(ctx, to, dialog.StartNormal, nil)
	}
}
