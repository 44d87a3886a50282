package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/dialog"
)

func (b *Bot) onboardingDialog() *dialog.Dialog {
	return &dialog.Dialog{
		Windows: []*dialog.Window{
			{
				State: OnboardingWelcome,
				Text: dialog.Const("👋 <b>Welcome!</b>\n\n" +
					"I write posts for your channels, pick images, cut long videos into clips and publish everything after review.\n\n" +
					"To continue, please read and accept the user agreement."),
				Keyboard: dialog.Column{
					dialog.URL{Text: dialog.Const("📄 User agreement"), URL: dialog.Const(b.deps.Documents.AgreementURL)},
					dialog.SwitchTo{ID: "accept_agreement", Text: dialog.Const("✅ Accept"), To: OnboardingPrivacyPolicy},
				},
				DisableWebPreview: true,
			},
			{
				State: OnboardingPrivacyPolicy,
				Text:  dialog.Const("Please read and accept the privacy policy."),
				Keyboard: dialog.Column{
					dialog.URL{Text: dialog.Const("🔒 Privacy policy"), URL: dialog.Const(b.deps.Documents.PrivacyURL)},
					dialog.SwitchTo{ID: "accept_privacy", Text: dialog.Const("✅ Accept"), To: OnboardingDataProcessing},
				},
				DisableWebPreview: true,
			},
			{
				State: OnboardingDataProcessing,
				Text:  dialog.Const("Last step: consent to the processing of personal data."),
				Keyboard: dialog.Column{
					dialog.URL{Text: dialog.Const("📑 Data processing consent"), URL: dialog.Const(b.deps.Documents.DataProcessingURL)},
					dialog.Button{ID: "accept_processing", Text: dialog.Const("✅ Accept"), OnClick: b.register},
				},
				DisableWebPreview: true,
			},
			{
				State:  OnboardingIntro,
				Getter: getter(b.introGetter),
				Text: dialog.Format("🎉 You are in! Your account is linked to <b>{organization}</b>.\n\n" +
					"Send me a topic as text or voice and I will draft a publication. " +
					"Send a YouTube link and I will cut it into clips."),
				Keyboard: dialog.Button{ID: "lets_go", Text: dialog.Const("🚀 Let's go"), OnClick: b.enterHome},
			},
			{
				State:  OnboardingAwaitInvitation,
				Getter: getter(b.awaitInvitationGetter),
				Text: dialog.Format("Your account ID: <code>{account_id}</code>\n\n" +
					"Send this ID to your organization admin so they can invite you, " +
					"or create your own organization."),
				Keyboard: dialog.Column{
					dialog.Start{ID: "create_organization", Text: dialog.Const("🏢 Create organization"), To: state(BriefCreateOrganization, "chat")},
					dialog.Button{ID: "check_invitation", Text: dialog.Const("🔄 I have been invited"), OnClick: b.checkInvitation},
				},
			},
		},
	}
}

// register creates an account bound to this chat. The credentials are random:
// the chat itself is the login.
func (b *Bot) register(ctx context.Context, m *dialog.Manager) error {
	s := sessionOf(m)
	tokens, err := b.deps.Accounts.RegisterFromTg(ctx, uuid.NewString(), uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}
	if err := b.bindTokens(ctx, s, tokens); err != nil {
		return err
	}
	log.Info().Int64("chat_id", m.ChatID()).Int64("account_id", tokens.AccountID).Msg("Account registered")

	e, err := b.employee(ctx, m)
	if err != nil {
		return err
	}
	if e == nil {
		return m.SwitchTo(OnboardingAwaitInvitation)
	}
	if err := b.bindOrganization(ctx, s, e.OrganizationID); err != nil {
		return err
	}
	return m.SwitchTo(OnboardingIntro)
}

func (b *Bot) checkInvitation(ctx context.Context, m *dialog.Manager) error {
	e, err := b.employee(ctx, m)
	if err != nil {
		return err
	}
	if e == nil {
		m.Answer("No invitation yet. Send your account ID to the organization admin.", true)
		m.Show(dialog.ShowNoUpdate)
		return nil
	}
	if err := b.bindOrganization(ctx, sessionOf(m), e.OrganizationID); err != nil {
		return err
	}
	return b.enterHome(ctx, m)
}

func (b *Bot) introGetter(ctx context.Context, m *dialog.Manager) (dialog.Data, error) {
	data := dialog.Data{"organization": "your organization"}
	s := sessionOf(m)
	if !s.HasOrganization() {
		return data, nil
	}
	org, err := b.deps.Organizations.Get(ctx, s.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org != nil {
		data["organization"] = escape(org.Name)
	}
	return data, nil
}

func (b *Bot) awaitInvitationGetter(_ context.Context, m *dialog.Manager) (dialog.Data, error) {
	return dialog.Data{"account_id": sessionOf(m).AccountID}, nil
}
