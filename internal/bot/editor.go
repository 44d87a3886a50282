package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/service"
)

// flow is one publication dialog group sharing the editor windows
type flow struct {
	group string
	// home is the window edits return to
	home string
}

func (f flow) state(name string) dialog.State {
	return state(f.group, name)
}

func (f flow) homeState() dialog.State {
	return f.state(f.home)
}

var (
	generateFlow   = flow{group: GeneratePublication, home: "preview"}
	draftsFlow     = flow{group: DraftPublications, home: "list"}
	moderationFlow = flow{group: ModeratePublication, home: "list"}
)

type publicationData struct {
	Editor    service.Editor    `json:"editor"`
	Reference string            `json:"reference,omitempty"`
	Queue     service.Queue     `json:"queue"`
	Connected map[string]bool   `json:"connected,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`

	Text           service.TextFlags `json:"text_flags"`
	Input          inputFlags        `json:"input"`
	NoPhoto        bool              `json:"no_photo"`
	CombineFull    bool              `json:"combine_full"`
	InvalidComment bool              `json:"invalid_comment"`
	Notice         string            `json:"notice,omitempty"`
}

func (d *publicationData) clearFlags() {
	d.Text = service.TextFlags{}
	d.Input = inputFlags{}
	d.NoPhoto = false
	d.CombineFull = false
	d.InvalidComment = false
	d.Notice = ""
}

func clearPublicationFlags(_ context.Context, m *dialog.Manager) error {
	dialog.DataOf[publicationData](m).clearFlags()
	return nil
}

// editorGetter exposes the working copy of the draft to the windows
func (b *Bot) editorGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	d := dialog.DataOf[publicationData](m)
	ed := &d.Editor
	w := ed.Working

	length := service.TextLength(w.Text)
	tooLong := service.CheckLength(w.Text, w.HasImage)
	data := d.Input.data(dialog.Data{
		"text":                 w.Text,
		"has_text":             strings.TrimSpace(w.Text) != "",
		"has_image":            w.HasImage,
		"has_changes":          ed.HasChanges(),
		"length":               length,
		"max_length":           service.MaxLength(w.HasImage),
		"recommended_length":   service.RecommendedLength(w.HasImage),
		"too_long":             tooLong,
		"too_long_recommended": length > service.RecommendedLength(w.HasImage),
		"has_void_text":        d.Text.Void,
		"has_small_text":       d.Text.Small,
		"has_big_text":         d.Text.Big,
		"no_photo":             d.NoPhoto,
		"combine_full":         d.CombineFull,
		"combine_count":        len(ed.Combine.Images),
		"combine_max":          service.MaxCombineImages,
		"can_combine":          ed.CanCombine(),
		"notice":               d.Notice,
	})

	if ref, ok := ed.CurrentImage(); ok && !tooLong {
		data["image_file_id"] = ref.FileID
		data["image_url"] = ref.URL
	}
	if n := len(w.GeneratedImagesURL); n > 1 {
		data["carousel"] = true
		data["image_position"] = fmt.Sprintf("%d/%d", w.CurrentImageIndex+1, n)
	}
	return data, nil
}

var draftMedia = &dialog.Media{FileIDKey: "image_file_id", URLKey: "image_url"}

var textFlagsText = dialog.NewMulti(
	dialog.When{Cond: "has_void_text", Text: dialog.Const("❌ The text is empty.\n")},
	dialog.When{Cond: "has_small_text", Text: dialog.Const("❌ The text is too short, write at least 50 characters.\n")},
	dialog.When{Cond: "has_big_text", Text: dialog.Format("❌ The text is too long, the limit is {max_length} characters.\n")},
)

// editorWindows are the text and image editing windows of a publication flow
func (b *Bot) editorWindows(f flow) []*dialog.Window {
	back := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.homeState(), OnClick: clearPublicationFlags}
	toImageMenu := dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.state("image_menu"), OnClick: b.leaveCombine}
	compress := dialog.Button{
		ID:      "compress",
		Text:    dialog.Format("🗜 Compress to {recommended_length} characters"),
		OnClick: b.compressText(f),
	}

	return []*dialog.Window{
		{
			State:  f.state("edit_text"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				textFlagsText,
				dialog.Format("✏️ Send a new text to replace the current one, or let the AI rewrite it.\n\nNow {length}/{max_length} characters."),
			),
			Keyboard: dialog.Column{
				dialog.SwitchTo{ID: "regenerate", Text: dialog.Const("✨ Rewrite with AI"), To: f.state("regenerate_text"), OnClick: clearPublicationFlags},
				dialog.Button{ID: "compress", Text: compress.Text, OnClick: compress.OnClick, When: "too_long_recommended"},
				back,
			},
			OnMessage: b.onManualText(f),
		},
		{
			State:  f.state("regenerate_text"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.Const("What should change in the text? Send an instruction as text or voice."),
			),
			Keyboard:  dialog.SwitchTo{ID: "back", Text: dialog.Const("⬅️ Back"), To: f.state("edit_text"), OnClick: clearPublicationFlags},
			OnMessage: b.onRegeneratePrompt(f),
		},
		{
			State:  f.state("text_review"),
			Getter: b.editorGetter,
			Text:   dialog.Format("{text}\n\n<i>{length}/{max_length} characters. Keep the new text?</i>"),
			Keyboard: dialog.Column{
				dialog.Row{
					dialog.Button{ID: "accept", Text: dialog.Const("✅ Keep"), OnClick: b.acceptEdit(f)},
					dialog.Button{ID: "reject", Text: dialog.Const("↩️ Restore"), OnClick: b.rejectEdit(f.state("edit_text"))},
				},
				dialog.SwitchTo{ID: "again", Text: dialog.Const("✨ Rewrite again"), To: f.state("regenerate_text")},
			},
			DisableWebPreview: true,
		},
		{
			State:  f.state("text_too_long_alert"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				dialog.Format("⚠️ The text has {length} characters but at most {max_length} fit"),
				dialog.When{Cond: "has_image", Text: dialog.Const("under an image.")},
				dialog.When{Cond: "!has_image", Text: dialog.Const("in one message.")},
			),
			Keyboard: dialog.Column{
				compress,
				dialog.Button{ID: "remove_image", Text: dialog.Const("🗑 Remove image"), OnClick: b.removeImage(f), When: "has_image"},
				dialog.SwitchTo{ID: "edit_text", Text: dialog.Const("✏️ Edit manually"), To: f.state("edit_text"), OnClick: clearPublicationFlags},
				back,
			},
		},
		{
			State:  f.state("image_menu"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				dialog.When{Cond: "has_image", Text: dialog.Const("🖼 What should we do with the image?")},
				dialog.When{Cond: "!has_image", Text: dialog.Const("🖼 The publication has no image yet.")},
			),
			Media: draftMedia,
			Keyboard: dialog.Column{
				dialog.SwitchTo{ID: "generate", Text: dialog.Const("🎨 Generate new"), To: f.state("generate_image"), OnClick: clearPublicationFlags},
				dialog.SwitchTo{ID: "edit", Text: dialog.Const("🪄 Edit with AI"), To: f.state("edit_image"), OnClick: clearPublicationFlags, When: "has_image"},
				dialog.Button{ID: "combine", Text: dialog.Const("🧩 Combine pictures"), OnClick: b.beginCombine(f)},
				dialog.SwitchTo{ID: "upload", Text: dialog.Const("📤 Upload my own"), To: f.state("upload_image"), OnClick: clearPublicationFlags},
				dialog.Button{ID: "remove", Text: dialog.Const("🗑 Remove"), OnClick: b.removeImage(f), When: "has_image"},
				back,
			},
		},
		{
			State:  f.state("generate_image"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.Const("Describe the picture you want, or generate one from the text."),
			),
			Keyboard: dialog.Column{
				dialog.Button{ID: "from_text", Text: dialog.Const("🎨 Generate from text"), OnClick: b.generateImage(f)},
				toImageMenu,
			},
			OnMessage: b.onImagePrompt(f, false),
		},
		{
			State:  f.state("edit_image"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.Const("What should change in the picture? Send an instruction as text or voice."),
			),
			Media:     draftMedia,
			Keyboard:  toImageMenu,
			OnMessage: b.onImagePrompt(f, true),
		},
		{
			State:  f.state("upload_image"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				dialog.When{Cond: "no_photo", Text: dialog.Const("❌ That is not a picture.\n")},
				dialog.Const("Send a picture as a photo or an image file."),
			),
			Keyboard:  toImageMenu,
			OnMessage: b.onUploadImage(f),
		},
		{
			State:  f.state("combine_collect"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				dialog.When{Cond: "no_photo", Text: dialog.Const("❌ That is not a picture.\n")},
				dialog.When{Cond: "combine_full", Text: dialog.Format("❌ At most {combine_max} pictures can be combined.\n")},
				dialog.Format("🧩 Send the pictures to combine one by one.\nCollected: {combine_count}/{combine_max}"),
			),
			Keyboard: dialog.Column{
				dialog.SwitchTo{ID: "next", Text: dialog.Const("➡️ Continue"), To: f.state("combine_prompt"), When: "can_combine", OnClick: clearPublicationFlags},
				dialog.Button{ID: "restart", Text: dialog.Const("🔄 Start over"), OnClick: b.restartCombine},
				toImageMenu,
			},
			OnMessage: b.onCombineImage,
		},
		{
			State:  f.state("combine_prompt"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				inputFlagsText,
				dialog.Const("How should the pictures be combined? Send an instruction or use the default one."),
			),
			Keyboard: dialog.Column{
				dialog.Button{ID: "default", Text: dialog.Const("🧩 Combine"), OnClick: b.combineImages(f)},
				toImageMenu,
			},
			OnMessage: b.onCombinePrompt(f),
		},
		{
			State:  f.state("image_review"),
			Getter: b.editorGetter,
			Text: dialog.NewMulti(
				dialog.Const("Keep the new picture?"),
				dialog.When{Cond: "carousel", Text: dialog.Format("Variant {image_position}")},
			),
			Media: draftMedia,
			Keyboard: dialog.Column{
				dialog.Row{
					dialog.Button{ID: "prev", Text: dialog.Const("‹"), OnClick: b.moveImage(-1), When: "carousel"},
					dialog.Button{ID: "next", Text: dialog.Const("›"), OnClick: b.moveImage(1), When: "carousel"},
				},
				dialog.Row{
					dialog.Button{ID: "accept", Text: dialog.Const("✅ Keep"), OnClick: b.acceptEdit(f)},
					dialog.Button{ID: "reject", Text: dialog.Const("↩️ Restore"), OnClick: b.rejectEdit(f.state("image_menu"))},
				},
				dialog.SwitchTo{ID: "edit", Text: dialog.Const("🪄 Edit this one"), To: f.state("edit_image"), OnClick: clearPublicationFlags},
			},
		},
	}
}

// afterEdit returns to the flow's home unless the text no longer fits
func afterEdit(m *dialog.Manager, f flow) error {
	w := dialog.DataOf[publicationData](m).Editor.Working
	if service.CheckLength(w.Text, w.HasImage) {
		return m.SwitchTo(f.state("text_too_long_alert"))
	}
	return m.SwitchTo(f.homeState())
}

func (b *Bot) acceptEdit(f flow) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		d.Editor.Accept()
		return afterEdit(m, f)
	}
}

func (b *Bot) rejectEdit(to dialog.State) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		d.Editor.Reject()
		return m.SwitchTo(to)
	}
}

func (b *Bot) onManualText(f flow) dialog.MessageHandler {
	return func(_ context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		text := strings.TrimSpace(msg.Text)
		if d.Text = service.ValidateText(text, d.Editor.Working.HasImage); d.Text.Any() {
			return nil
		}
		d.Editor.SetText(text)
		d.Editor.Accept()
		return afterEdit(m, f)
	}
}

func (b *Bot) onRegeneratePrompt(f flow) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		prompt, ok, err := b.extract(ctx, m, msg, &d.Input)
		if err != nil || !ok {
			return err
		}
		if err := b.publications.RegenerateText(ctx, &d.Editor, prompt); err != nil {
			return err
		}
		return m.SwitchTo(f.state("text_review"))
	}
}

func (b *Bot) compressText(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		if err := b.publications.CompressText(ctx, &d.Editor); err != nil {
			return err
		}
		return m.SwitchTo(f.state("text_review"))
	}
}

func (b *Bot) removeImage(f flow) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		d.Editor.RemoveImage()
		d.Editor.Accept()
		return afterEdit(m, f)
	}
}

func (b *Bot) generateImage(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		if err := b.publications.GenerateImage(ctx, &d.Editor, ""); err != nil {
			return err
		}
		return m.SwitchTo(f.state("image_review"))
	}
}

// onImagePrompt generates a new picture, or edits the current one when edit is set
func (b *Bot) onImagePrompt(f flow, edit bool) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		prompt, ok, err := b.extract(ctx, m, msg, &d.Input)
		if err != nil || !ok {
			return err
		}
		if edit {
			err = b.publications.EditImage(ctx, sessionOf(m).OrganizationID, &d.Editor, prompt)
		} else {
			err = b.publications.GenerateImage(ctx, &d.Editor, prompt)
		}
		if err != nil {
			return err
		}
		m.Show(dialog.ShowSend)
		return m.SwitchTo(f.state("image_review"))
	}
}

func (b *Bot) onUploadImage(f flow) dialog.MessageHandler {
	return func(_ context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		fileID := photoOf(msg)
		if fileID == "" {
			d.NoPhoto = true
			return nil
		}
		d.Editor.SetCustomImage(fileID)
		d.Editor.Accept()
		m.Show(dialog.ShowSend)
		return afterEdit(m, f)
	}
}

func (b *Bot) moveImage(delta int) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		ed := &dialog.DataOf[publicationData](m).Editor
		if delta < 0 {
			ed.PrevImage()
		} else {
			ed.NextImage()
		}
		return nil
	}
}

func (b *Bot) beginCombine(f flow) dialog.Handler {
	return func(_ context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()
		d.Editor.StartCombine(true)
		return m.SwitchTo(f.state("combine_collect"))
	}
}

func (b *Bot) restartCombine(_ context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[publicationData](m)
	d.clearFlags()
	d.Editor.StartCombine(false)
	return nil
}

func (b *Bot) leaveCombine(_ context.Context, m *dialog.Manager) error {
	d := dialog.DataOf[publicationData](m)
	d.clearFlags()
	d.Editor.Combine = service.CombineState{}
	return nil
}

func (b *Bot) onCombineImage(_ context.Context, m *dialog.Manager, msg *dialog.Message) error {
	d := dialog.DataOf[publicationData](m)
	d.clearFlags()

	fileID := photoOf(msg)
	if fileID == "" {
		d.NoPhoto = true
		return nil
	}
	if !d.Editor.AddCombineImage(fileID) {
		d.CombineFull = true
	}
	return nil
}

func (b *Bot) onCombinePrompt(f flow) dialog.MessageHandler {
	return func(ctx context.Context, m *dialog.Manager, msg *dialog.Message) error {
		d := dialog.DataOf[publicationData](m)
		d.clearFlags()

		prompt, ok, err := b.extract(ctx, m, msg, &d.Input)
		if err != nil || !ok {
			return err
		}
		d.Editor.Combine.Prompt = prompt
		m.Show(dialog.ShowSend)
		return b.combineImages(f)(ctx, m)
	}
}

func (b *Bot) combineImages(f flow) dialog.Handler {
	return func(ctx context.Context, m *dialog.Manager) error {
		d := dialog.DataOf[publicationData](m)
		if err := b.publications.CombineImages(ctx, sessionOf(m).OrganizationID, &d.Editor); err != nil {
			return err
		}
		return m.SwitchTo(f.state("image_review"))
	}
}
