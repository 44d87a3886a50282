package bot

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/smm-bot/internal/brief"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/llm"
	"github.com/Rrens/smm-bot/internal/service"
)

// Deps are the collaborators of the dialog modules
type Deps struct {
	Sessions      domain.SessionRepository
	Alerts        domain.AlertRepository
	Chats         domain.LLMChatRepository
	Accounts      Accounts
	Employees     Employees
	Organizations Organizations
	Content       Content
	LLM           llm.Client
	Files         service.FileDownloader
	Storage       dialog.Storage
	Messenger     dialog.Messenger
	Notifier      *service.NotificationService
	Brief         brief.Options
	Documents     Documents
	// BotUsername is shown in the channel connection instructions
	BotUsername string
}

// Documents are the legal texts linked from onboarding; empty links are hidden
type Documents struct {
	AgreementURL      string
	PrivacyURL        string
	DataProcessingURL string
}

// Bot wires the dialog modules onto the engine
type Bot struct {
	deps         Deps
	engine       *dialog.Engine
	alerts       *service.AlertService
	input        *service.InputExtractor
	publications *service.PublicationService
	moderation   *service.ModerationService
	briefs       *brief.Orchestrator
	scheduler    Scheduler
}

// New builds the services, registers every dialog and returns the bot
func New(deps Deps) *Bot {
	b := &Bot{
		deps:         deps,
		alerts:       service.NewAlertService(deps.Alerts, deps.Sessions),
		input:        service.NewInputExtractor(deps.Content, deps.Files),
		publications: service.NewPublicationService(deps.Content, deps.Files),
		moderation:   service.NewModerationService(deps.Content, deps.Content, deps.Content),
		briefs:       brief.NewOrchestrator(deps.Chats, deps.LLM, deps.Content, deps.Brief),
	}

	registry := dialog.NewRegistry()
	registry.MustRegister(
		b.onboardingDialog(),
		b.authDialog(),
		b.profileDialog(),
		b.mainMenuDialog(),
		b.contentMenuDialog(),
		b.organizationMenuDialog(),
		b.employeesDialog(),
		b.socialDialog(),
		b.briefDialog(BriefCreateOrganization, brief.CreateOrganization),
		b.briefDialog(BriefUpdateOrganization, brief.UpdateOrganization),
		b.briefDialog(BriefCreateCategory, brief.CreateCategory),
		b.briefDialog(BriefUpdateCategory, brief.UpdateCategory),
		b.generatePublicationDialog(),
		b.draftPublicationsDialog(),
		b.moderationPublicationsDialog(),
		b.generateVideoCutDialog(),
		b.videoCutDraftsDialog(),
		b.videoCutModerationDialog(),
		b.alertsDialog(),
	)

	b.engine = dialog.NewEngine(registry, deps.Storage, deps.Messenger)
	b.engine.Use(b.sessionMiddleware)
	b.engine.OnError(b.handleError)
	b.engine.Command("/start", b.onStart)
	b.engine.Command("/menu", b.enterHome)
	b.engine.Command("/login", b.onLogin)
	b.engine.Command("/profile", b.onProfile)
	b.engine.Fallback(b.onUnhandled)

	if deps.Notifier != nil {
		deps.Notifier.SetActions(b)
	}
	return b
}

// SetScheduler routes proactive actions through the chat lanes
func (b *Bot) SetScheduler(s Scheduler) {
	b.scheduler = s
}

// Engine exposes the dialog engine, mainly for tests
func (b *Bot) Engine() *dialog.Engine {
	return b.engine
}

// HandleEvent processes one inbound update
func (b *Bot) HandleEvent(ctx context.Context, ev *dialog.Event) error {
	return b.engine.HandleEvent(ctx, ev)
}

// Trigger runs fn on the chat's stack as a synthetic event
func (b *Bot) Trigger(ctx context.Context, chatID int64, fn dialog.Handler) error {
	return b.engine.Trigger(ctx, chatID, fn)
}

// ShowAlerts preempts the chat's dialog with its highest-priority alert, if any
func (b *Bot) ShowAlerts(ctx context.Context, chatID int64) error {
	return b.trigger(ctx, chatID, "alerts", func(ctx context.Context, m *dialog.Manager) error {
		preempted, err := b.dispatchAlerts(ctx, m)
		if err != nil {
			return err
		}
		if !preempted {
			m.Show(dialog.ShowNoUpdate)
		}
		return nil
	})
}

// ResetDialog drops the chat's stack and shows the entry screen anew
func (b *Bot) ResetDialog(ctx context.Context, chatID int64) error {
	return b.trigger(ctx, chatID, "reset", func(ctx context.Context, m *dialog.Manager) error {
		m.ResetStack()
		m.Show(dialog.ShowSend)
		return b.enterHome(ctx, m)
	})
}

func (b *Bot) trigger(ctx context.Context, chatID int64, kind string, fn dialog.Handler) error {
	if b.scheduler != nil {
		return b.scheduler.Trigger(chatID, kind, fn)
	}
	log.Debug().Int64("chat_id", chatID).Str("kind", kind).Msg("No scheduler, running trigger inline")
	return b.engine.Trigger(ctx, chatID, fn)
}
