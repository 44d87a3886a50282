package bot

import (
	"context"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/dialog"
	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/service"
)

// Accounts is the accounts service as the dialogs use it
type Accounts interface {
	RegisterFromTg(ctx context.Context, login, password string) (*domain.Tokens, error)
	Login(ctx context.Context, login, password string) (*domain.LoginResult, error)
	LoginTwoFA(ctx context.Context, accountID int64, code string) (*domain.Tokens, error)
	GenerateTwoFA(ctx context.Context) (*domain.TwoFASetup, error)
	SetTwoFA(ctx context.Context, secret, code string) error
	DeleteTwoFA(ctx context.Context, code string) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// Employees is the employees service as the dialogs use it
type Employees interface {
	Create(ctx context.Context, e backend.EmployeeCreate) error
	ByAccountID(ctx context.Context, accountID int64) (*domain.Employee, error)
	ByOrganization(ctx context.Context, organizationID int64) ([]domain.Employee, error)
	UpdatePermissions(ctx context.Context, accountID int64, perms domain.EmployeePermissions) error
	UpdateRole(ctx context.Context, accountID int64, role string) error
	Delete(ctx context.Context, accountID int64) error
}

// Organizations is the organizations service as the dialogs use it
type Organizations interface {
	Create(ctx context.Context, name string) (int64, error)
	Get(ctx context.Context, organizationID int64) (*domain.Organization, error)
	Update(ctx context.Context, organizationID int64, update domain.OrganizationUpdate) error
	TopUpBalance(ctx context.Context, organizationID int64, amountRub string) error
}

// Content is the content service as the dialogs use it
type Content interface {
	service.PublicationAPI
	service.VideoCutAPI
	service.SocialAPI
	service.Transcriber

	CreateCategory(ctx context.Context, category domain.Category) (int64, error)
	GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) error
	CategoriesByOrganization(ctx context.Context, organizationID int64) ([]domain.Category, error)
	TestGenerateCategory(ctx context.Context, category map[string]any, userTextReference string) (string, error)
	ChannelPosts(ctx context.Context, username string, limit int) ([]backend.ChannelPost, error)

	CreateTelegram(ctx context.Context, organizationID int64, username string, autoselect bool) error
	UpdateTelegram(ctx context.Context, organizationID int64, username *string, autoselect *bool) error
	DeleteTelegram(ctx context.Context, organizationID int64) error
	CheckTelegramPermission(ctx context.Context, username string) (bool, error)
}

// Scheduler queues a synthetic dialog action on a chat's lane
type Scheduler interface {
	Trigger(chatID int64, kind string, fn dialog.Handler) error
}
