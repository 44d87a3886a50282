package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rrens/smm-bot/internal/domain"
)

// EmployeesClient talks to the employees service
type EmployeesClient struct {
	baseClient
}

func NewEmployeesClient(baseURL string, opts Options) *EmployeesClient {
	return &EmployeesClient{baseClient: newBaseClient("employees", baseURL, opts)}
}

// EmployeeCreate is the payload of a new employee
type EmployeeCreate struct {
	OrganizationID       int64  `json:"organization_id"`
	InvitedFromAccountID int64  `json:"invited_from_account_id"`
	AccountID            int64  `json:"account_id"`
	Name                 string `json:"name"`
	Role                 string `json:"role"`
}

func (c *EmployeesClient) Create(ctx context.Context, e EmployeeCreate) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/create", body: e}, nil)
}

// ByAccountID returns the employee record of an account, or nil when the account has none
func (c *EmployeesClient) ByAccountID(ctx context.Context, accountID int64) (*domain.Employee, error) {
	var out domain.Employee
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/account/%d", accountID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

func (c *EmployeesClient) ByOrganization(ctx context.Context, organizationID int64) ([]domain.Employee, error) {
	var out []domain.Employee
	err := c.do(ctx, request{method: http.MethodGet, path: idPath("/organization/%d", organizationID)}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return out, err
}

func (c *EmployeesClient) UpdatePermissions(ctx context.Context, accountID int64, perms domain.EmployeePermissions) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/permissions/update",
		body: struct {
			AccountID int64 `json:"account_id"`
			domain.EmployeePermissions
		}{accountID, perms},
	}, nil)
}

func (c *EmployeesClient) UpdateRole(ctx context.Context, accountID int64, role string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/role/update",
		body: map[string]any{
			"account_id": accountID,
			"role":       role,
		},
	}, nil)
}

func (c *EmployeesClient) Delete(ctx context.Context, accountID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/%d", accountID)}, nil)
}
