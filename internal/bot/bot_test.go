package bot_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/bot"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
)

func employee(role string) domain.Employee {
	return domain.Employee{ID: 1, OrganizationID: 5, AccountID: 77, Name: "Alice", Role: role}
}

func TestOnboarding(t *testing.T) {
	h := newHarness(t)

	h.command(t, "/start")
	h.screenContains(t, "Welcome")
	assert.Equal(t, bot.OnboardingWelcome, h.state(t))

	h.press(t, "✅ Accept")
	assert.Equal(t, bot.OnboardingPrivacyPolicy, h.state(t))
	h.press(t, "✅ Accept")
	assert.Equal(t, bot.OnboardingDataProcessing, h.state(t))
	h.press(t, "✅ Accept")

	assert.Equal(t, bot.OnboardingAwaitInvitation, h.state(t))
	h.screenContains(t, "77")

	s := h.sessions.get(testChatID)
	assert.Equal(t, int64(77), s.AccountID)
	assert.Equal(t, "access", s.AccessToken)
	assert.Zero(t, s.OrganizationID)

	h.employees.employees[77] = &domain.Employee{ID: 1, OrganizationID: 5, AccountID: 77, Role: domain.EmployeeRoleEmployee}
	h.press(t, "🔄 I have been invited")

	assert.Equal(t, int64(5), h.sessions.get(testChatID).OrganizationID)
	assert.Equal(t, bot.MainMenu, h.state(t))
}

func TestGeneratePublication_InsufficientBalance(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
	h.content.generateErr = fmt.Errorf("generate publication text: %w", domain.ErrInsufficientBalance)

	h.command(t, "/start")
	assert.Equal(t, bot.MainMenu, h.state(t))

	h.text(t, "Write about our new espresso")
	h.screenContains(t, "Which category")

	h.press(t, "Coffee")
	assert.Equal(t, dialog.State("generate_publication:balance_warning"), h.state(t))
	h.screenContains(t, "not enough funds")
	assert.Empty(t, h.content.created)

	h.content.generateErr = nil
	h.content.generated = "Our new espresso is here."
	h.press(t, "🔄 Try again")
	assert.Equal(t, dialog.State("generate_publication:preview"), h.state(t))
	h.screenContains(t, "Our new espresso is here.")
}

func TestGeneratePublication_SaveDraft(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
	h.content.generated = "Our new espresso is here."

	h.command(t, "/start")
	h.text(t, "Write about our new espresso")
	h.press(t, "Coffee")
	assert.Equal(t, dialog.State("generate_publication:preview"), h.state(t))

	h.press(t, "💾 Save to drafts")
	h.screenContains(t, "saved to drafts")

	require.Len(t, h.content.created, 1)
	created := h.content.created[0]
	assert.Equal(t, domain.ModerationDraft, created.ModerationStatus)
	assert.Equal(t, int64(3), created.CategoryID)
	assert.Equal(t, int64(77), created.CreatorID)
	assert.Equal(t, "Our new espresso is here.", created.Text)

	h.press(t, "👌 Done")
	assert.Equal(t, bot.MainMenu, h.state(t))
	assert.True(t, h.sessions.get(testChatID).CanShowAlerts)
}

func TestGeneratePublication_TextTooLong(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
	h.content.generated = strings.Repeat("espresso ", 600)

	h.command(t, "/start")
	h.text(t, "Write a long story about espresso")
	h.press(t, "Coffee")

	assert.Equal(t, dialog.State("generate_publication:text_too_long_alert"), h.state(t))
	assert.Empty(t, h.content.created)
}

func TestModeratePublication_Approve(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleModerator))
	h.content.publications[7] = &domain.Publication{
		ID:               7,
		OrganizationID:   5,
		CategoryID:       3,
		CreatorID:        12,
		Text:             "Fresh espresso every morning",
		ModerationStatus: domain.ModerationModeration,
	}
	h.content.social = &domain.SocialNetworks{
		Telegram: []domain.TelegramChannel{{ID: 1, OrganizationID: 5, ChannelUsername: "coffee", Autoselect: true}},
	}
	h.content.links = map[string]string{domain.NetworkTelegram: "https://t.me/coffee/10"}

	h.command(t, "/start")
	h.press(t, "📝 Content")
	h.press(t, "📰 Publications")
	h.press(t, "🛡 Moderation")
	assert.Equal(t, dialog.State("moderation_publications:list"), h.state(t))
	h.screenContains(t, "Fresh espresso every morning")

	h.press(t, "✅ Approve")
	assert.Equal(t, dialog.State("moderation_publications:select_networks"), h.state(t))

	h.press(t, "🚀 Publish")
	assert.Equal(t, dialog.State("moderation_publications:published"), h.state(t))

	require.Len(t, h.content.moderated, 1)
	assert.Equal(t, moderateCall{publicationID: 7, moderatorID: 77, status: domain.ModerationApproved}, h.content.moderated[0])

	require.NotEmpty(t, h.content.changes)
	change := h.content.changes[len(h.content.changes)-1]
	require.NotNil(t, change.TgSource)
	assert.True(t, *change.TgSource)

	var link string
	for _, row := range h.messenger.last().Keyboard {
		for _, b := range row {
			if b.Text == "Telegram" {
				link = b.URL
			}
		}
	}
	assert.Equal(t, "https://t.me/coffee/10", link)
}

func TestModeration_DeniedForEmployees(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))

	h.command(t, "/start")
	h.press(t, "📝 Content")
	h.press(t, "📰 Publications")
	h.press(t, "🛡 Moderation")

	assert.Equal(t, bot.ContentMenuPublications, h.state(t))
	assert.Contains(t, h.messenger.answers, "Only moderators can review content")
}

func TestAlerts_ShownInOrder(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	ctx := context.Background()

	_, err := h.alerts.CreatePublicationApproved(ctx, &domain.PublicationApprovedAlert{
		SessionID:     h.sessionID(),
		PublicationID: 5,
		PostLinks:     map[string]string{domain.NetworkTelegram: "https://t.me/coffee/3"},
	})
	require.NoError(t, err)
	_, err = h.alerts.CreateVideoCutReady(ctx, &domain.VideoCutReadyAlert{
		SessionID:             h.sessionID(),
		YoutubeVideoReference: "https://youtu.be/abc",
		VideoCount:            3,
	})
	require.NoError(t, err)

	h.command(t, "/start")
	assert.Equal(t, bot.AlertPublicationApproved, h.state(t))
	h.screenContains(t, "Publication #5 passed moderation")

	h.press(t, "🏠 Home")
	assert.Equal(t, bot.AlertVideoCutReady, h.state(t))
	h.screenContains(t, "3 clips are ready")

	h.press(t, "🏠 Home")
	assert.Equal(t, bot.MainMenu, h.state(t))
	h.screenContains(t, "Coffee &amp; Co")

	assert.Zero(t, h.alerts.pending())
	assert.True(t, h.sessions.get(testChatID).CanShowAlerts)
}

func TestAlerts_HeldBackWhileBusy(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}

	h.command(t, "/start")
	h.text(t, "Write about our new espresso")
	assert.False(t, h.sessions.get(testChatID).CanShowAlerts)

	_, err := h.alerts.CreatePublicationRejected(context.Background(), &domain.PublicationRejectedAlert{
		SessionID:     h.sessionID(),
		PublicationID: 9,
		Comment:       "Too many emojis in the text",
	})
	require.NoError(t, err)

	h.press(t, "⬅️ Back")
	assert.Equal(t, bot.AlertPublicationRejected, h.state(t))
	h.screenContains(t, "Too many emojis")
}

func TestResetDialog(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))

	h.command(t, "/start")
	h.press(t, "📝 Content")
	h.press(t, "📰 Publications")
	require.Equal(t, bot.ContentMenuPublications, h.state(t))

	require.NoError(t, h.bot.ResetDialog(context.Background(), testChatID))

	stack, err := h.storage.Load(context.Background(), testChatID)
	require.NoError(t, err)
	require.NotNil(t, stack)
	assert.Len(t, stack.Frames, 1)
	assert.Equal(t, bot.MainMenu, h.state(t))
}

func TestGeneratePublication_PublishRetryCreatesOnce(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleModerator))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
	h.content.generated = "Our new espresso is here."
	h.content.social = &domain.SocialNetworks{
		Telegram: []domain.TelegramChannel{{ID: 1, OrganizationID: 5, ChannelUsername: "coffee", Autoselect: true}},
	}
	h.content.moderateErrs = []error{fmt.Errorf("moderate publication: %w", domain.ErrTransient)}

	h.command(t, "/start")
	h.text(t, "Write about our new espresso")
	h.press(t, "Coffee")
	h.press(t, "🚀 Publish")
	require.Equal(t, dialog.State("generate_publication:select_networks"), h.state(t))

	h.press(t, "🚀 Publish")
	assert.Equal(t, dialog.State("generate_publication:select_networks"), h.state(t))
	assert.Contains(t, h.messenger.answers, "The service is temporarily unavailable. Please try again in a minute.")
	require.Len(t, h.content.created, 1)
	assert.Empty(t, h.content.moderated)

	h.press(t, "🚀 Publish")
	assert.Equal(t, dialog.State("generate_publication:published"), h.state(t))
	require.Len(t, h.content.created, 1)
	require.Len(t, h.content.moderated, 1)
	assert.Equal(t, moderateCall{publicationID: 1001, moderatorID: 77, status: domain.ModerationApproved}, h.content.moderated[0])
}

func TestGeneratePublication_SaveAfterFailedPublishKeepsOnePublication(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleModerator))
	h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
	h.content.generated = "Our new espresso is here."
	h.content.social = &domain.SocialNetworks{
		Telegram: []domain.TelegramChannel{{ID: 1, OrganizationID: 5, ChannelUsername: "coffee", Autoselect: true}},
	}
	h.content.moderateErrs = []error{fmt.Errorf("moderate publication: %w", domain.ErrTransient)}

	h.command(t, "/start")
	h.text(t, "Write about our new espresso")
	h.press(t, "Coffee")
	h.press(t, "🚀 Publish")
	h.press(t, "🚀 Publish")
	require.Len(t, h.content.created, 1)

	h.press(t, "⬅️ Back")
	require.Equal(t, dialog.State("generate_publication:preview"), h.state(t))
	h.press(t, "💾 Save to drafts")

	assert.Equal(t, dialog.State("generate_publication:published"), h.state(t))
	assert.Len(t, h.content.created, 1)
	h.screenContains(t, "sent to moderation")
}

func TestDraftPublication_SaveAfterFailedChange(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.publications[8] = &domain.Publication{
		ID:               8,
		OrganizationID:   5,
		CategoryID:       3,
		CreatorID:        77,
		Text:             "Fresh espresso every morning",
		ImageURL:         "https://cdn.example.com/espresso.png",
		ModerationStatus: domain.ModerationDraft,
	}
	const edited = "Fresh espresso every morning, roasted in house by our own baristas."

	h.command(t, "/start")
	h.press(t, "📝 Content")
	h.press(t, "📰 Publications")
	h.press(t, "🗂 Drafts")
	require.Equal(t, dialog.State("draft_publications:list"), h.state(t))

	h.press(t, "🖼 Image")
	h.press(t, "🗑 Remove")
	h.press(t, "✏️ Text")
	h.text(t, edited)
	require.Equal(t, dialog.State("draft_publications:list"), h.state(t))

	h.content.changeErr = fmt.Errorf("change publication: %w", domain.ErrTransient)
	h.press(t, "💾 Save changes")
	assert.Contains(t, h.messenger.answers, "The service is temporarily unavailable. Please try again in a minute.")
	assert.Empty(t, h.content.imageDeletes)
	assert.Equal(t, "https://cdn.example.com/espresso.png", h.content.publications[8].ImageURL)

	h.content.changeErr = nil
	h.press(t, "💾 Save changes")
	require.Len(t, h.content.changes, 1)
	require.NotNil(t, h.content.changes[0].Text)
	assert.Equal(t, edited, *h.content.changes[0].Text)
	assert.Equal(t, []int64{8}, h.content.imageDeletes)
	h.screenContains(t, "Changes saved")
}

func TestDraftPublication_UploadForwardedPhoto(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, employee(domain.EmployeeRoleEmployee))
	h.content.publications[8] = &domain.Publication{
		ID:               8,
		OrganizationID:   5,
		CategoryID:       3,
		CreatorID:        77,
		Text:             "Fresh espresso every morning",
		ModerationStatus: domain.ModerationDraft,
	}

	h.command(t, "/start")
	h.press(t, "📝 Content")
	h.press(t, "📰 Publications")
	h.press(t, "🗂 Drafts")
	h.press(t, "🖼 Image")
	h.press(t, "📤 Upload my own")
	require.Equal(t, dialog.State("draft_publications:upload_image"), h.state(t))

	h.message(t, &dialog.Message{Forward: &dialog.Message{Text: "just words"}})
	require.Equal(t, dialog.State("draft_publications:upload_image"), h.state(t))
	h.screenContains(t, "That is not a picture")

	h.message(t, &dialog.Message{Forward: &dialog.Message{Photo: &dialog.File{FileID: "fwd-photo"}}})
	require.Equal(t, dialog.State("draft_publications:list"), h.state(t))
	last := h.messenger.last()
	assert.Equal(t, "fwd-photo", last.MediaFileID)
	assert.Contains(t, fmt.Sprint(last.Keyboard), "💾 Save changes")
}

func TestPermissionGates(t *testing.T) {
	toOrganization := func(t *testing.T, h *harness) {
		h.command(t, "/start")
		h.press(t, "🏢 Organization")
	}
	toColleague := func(t *testing.T, h *harness) {
		h.employees.employees[78] = &domain.Employee{ID: 2, OrganizationID: 5, AccountID: 78, Name: "Bob", Role: domain.EmployeeRoleEmployee}
		toOrganization(t, h)
		h.press(t, "👥 Employees")
		h.press(t, "Bob · Employee")
	}
	toPreview := func(t *testing.T, h *harness) {
		h.content.categories = []domain.Category{{ID: 3, OrganizationID: 5, Name: "Coffee"}}
		h.content.generated = "Our new espresso is here."
		h.command(t, "/start")
		h.text(t, "Write about our new espresso")
		h.press(t, "Coffee")
		// moderation becomes required while the preview is on screen
		h.employees.employees[77].RequiredModeration = true
	}

	tests := []struct {
		name   string
		open   func(t *testing.T, h *harness)
		button string
		denied string
	}{
		{
			name: "add employee",
			open: func(t *testing.T, h *harness) {
				toOrganization(t, h)
				h.press(t, "👥 Employees")
			},
			button: "➕ Add employee",
			denied: "You are not allowed to add employees",
		},
		{name: "edit permissions", open: toColleague, button: "🔐 Permissions", denied: "You are not allowed to edit employees"},
		{name: "change role", open: toColleague, button: "🎭 Change role", denied: "You are not allowed to edit employees"},
		{name: "remove employee", open: toColleague, button: "🗑 Remove from organization", denied: "You are not allowed to edit employees"},
		{name: "social networks", open: toOrganization, button: "🌐 Social networks", denied: "You are not allowed to manage social networks"},
		{name: "update organization", open: toOrganization, button: "✏️ Update organization", denied: "You are not allowed to change the organization"},
		{name: "create category", open: toOrganization, button: "➕ New category", denied: "You are not allowed to configure categories"},
		{name: "update category", open: toOrganization, button: "🗂 Edit category", denied: "You are not allowed to configure categories"},
		{name: "publish without moderation", open: toPreview, button: "🚀 Publish", denied: "Your publications require moderation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.signIn(t, employee(domain.EmployeeRoleEmployee))
			tt.open(t, h)

			before := h.state(t)
			screens := h.screens()
			employees := h.employees.count()
			organizations := h.organizations.count()
			content := h.content.count()

			h.press(t, tt.button)

			assert.Contains(t, h.messenger.answers, tt.denied)
			assert.Equal(t, before, h.state(t))
			assert.Equal(t, screens, h.screens(), "denied action must not redraw the screen")
			assert.Empty(t, h.employees.since(employees))
			assert.Empty(t, h.organizations.since(organizations))
			assert.Empty(t, h.content.since(content))
		})
	}
}
