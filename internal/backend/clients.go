package backend

import (
	"time"

	"github.com/Rrens/smm-bot/internal/config"
	"github.com/Rrens/smm-bot/internal/domain"
)

// Options are shared by every collaborator client
type Options struct {
	Timeout           time.Duration
	HeavyTimeout      time.Duration
	InterserverSecret string
	Auth              *Authenticator
}

// Clients bundles the collaborator clients
type Clients struct {
	Accounts      *AccountsClient
	Employees     *EmployeesClient
	Organizations *OrganizationsClient
	Content       *ContentClient
	Auth          *Authenticator
}

// New builds all collaborator clients from configuration
func New(cfg config.BackendConfig, sessions domain.SessionRepository) *Clients {
	auth := NewAuthenticator(sessions)
	opts := Options{
		Timeout:           cfg.Timeout,
		HeavyTimeout:      cfg.HeavyTimeout,
		InterserverSecret: cfg.InterserverSecret,
		Auth:              auth,
	}

	accounts := NewAccountsClient(cfg.AccountsURL, opts)
	auth.SetRefresher(accounts)

	return &Clients{
		Accounts:      accounts,
		Employees:     NewEmployeesClient(cfg.EmployeesURL, opts),
		Organizations: NewOrganizationsClient(cfg.OrganizationsURL, opts),
		Content:       NewContentClient(cfg.ContentURL, opts),
		Auth:          auth,
	}
}
