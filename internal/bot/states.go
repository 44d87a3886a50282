package bot

import "github.com/Rrens/smm-bot/internal/dialog"

const (
	OnboardingWelcome         dialog.State = "onboarding:welcome"
	OnboardingPrivacyPolicy   dialog.State = "onboarding:privacy_policy"
	OnboardingDataProcessing  dialog.State = "onboarding:data_processing"
	OnboardingIntro           dialog.State = "onboarding:intro"
	OnboardingAwaitInvitation dialog.State = "onboarding:await_invitation"
)

const (
	AuthLogin    dialog.State = "auth:login"
	AuthPassword dialog.State = "auth:password"
	AuthTwoFA    dialog.State = "auth:two_fa"
)

const (
	ProfileMain              dialog.State = "profile:main"
	ProfileChangePasswordOld dialog.State = "profile:change_password_old"
	ProfileChangePasswordNew dialog.State = "profile:change_password_new"
	ProfileTwoFASetup        dialog.State = "profile:two_fa_setup"
	ProfileTwoFADisable      dialog.State = "profile:two_fa_disable"
)

const (
	MainMenu                dialog.State = "main_menu:main"
	MainMenuVideoCutStarted dialog.State = "main_menu:video_cut_started"
)

const (
	ContentMenu             dialog.State = "content_menu:main"
	ContentMenuPublications dialog.State = "content_menu:publications"
	ContentMenuVideoCuts    dialog.State = "content_menu:video_cuts"
)

const (
	OrganizationMenu    dialog.State = "organization_menu:main"
	OrganizationBalance dialog.State = "organization_menu:balance"
	OrganizationTopUp   dialog.State = "organization_menu:top_up"
)

const (
	EmployeesList          dialog.State = "employees:list"
	EmployeesDetail        dialog.State = "employees:detail"
	EmployeesPermissions   dialog.State = "employees:permissions"
	EmployeesRole          dialog.State = "employees:role"
	EmployeesConfirmRole   dialog.State = "employees:confirm_role"
	EmployeesConfirmDelete dialog.State = "employees:confirm_delete"
	EmployeesAddAccount    dialog.State = "employees:add_account"
	EmployeesAddName       dialog.State = "employees:add_name"
	EmployeesAddRole       dialog.State = "employees:add_role"
)

const (
	SocialMain               dialog.State = "social_networks:main"
	SocialTelegram           dialog.State = "social_networks:telegram"
	SocialTelegramConnect    dialog.State = "social_networks:telegram_connect"
	SocialTelegramEdit       dialog.State = "social_networks:telegram_edit"
	SocialTelegramDisconnect dialog.State = "social_networks:telegram_disconnect"
	SocialPlaceholder        dialog.State = "social_networks:placeholder"
)

// Brief groups; each has chat, cancel_confirm and success windows,
// the category update also select_category
const (
	BriefCreateOrganization = "brief_create_organization"
	BriefUpdateOrganization = "brief_update_organization"
	BriefCreateCategory     = "brief_create_category"
	BriefUpdateCategory     = "brief_update_category"
)

const (
	GeneratePublication = "generate_publication"
	DraftPublications   = "draft_publications"
	ModeratePublication = "moderation_publications"
)

const (
	GenerateVideoCutInput   dialog.State = "generate_video_cut:input_url"
	GenerateVideoCutStarted dialog.State = "generate_video_cut:started"
)

const (
	VideoCutDrafts     = "video_cut_drafts"
	VideoCutModeration = "video_cut_moderation"
)

const (
	AlertPublicationApproved dialog.State = "alerts:publication_approved"
	AlertPublicationRejected dialog.State = "alerts:publication_rejected"
	AlertVideoCutReady       dialog.State = "alerts:video_cut_ready"
)

// state builds "group:name" for groups that share window names
func state(group, name string) dialog.State {
	return dialog.State(group + ":" + name)
}
