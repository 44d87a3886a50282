package backend

import (
	"context"
	"net/http"

	"github.com/Rrens/smm-bot/internal/domain"
)

// OrganizationsClient talks to the organizations service
type OrganizationsClient struct {
	baseClient
}

func NewOrganizationsClient(baseURL string, opts Options) *OrganizationsClient {
	return &OrganizationsClient{baseClient: newBaseClient("organizations", baseURL, opts)}
}

// Create registers an organization and returns its id
func (c *OrganizationsClient) Create(ctx context.Context, name string) (int64, error) {
	var out struct {
		OrganizationID int64 `json:"organization_id"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/create",
		body:   map[string]string{"name": name},
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.OrganizationID, nil
}

func (c *OrganizationsClient) Get(ctx context.Context, organizationID int64) (*domain.Organization, error) {
	var out domain.Organization
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/%d", organizationID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OrganizationsClient) Update(ctx context.Context, organizationID int64, update domain.OrganizationUpdate) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/update",
		body: struct {
			OrganizationID int64 `json:"organization_id"`
			domain.OrganizationUpdate
		}{organizationID, update},
	}, nil)
}

func (c *OrganizationsClient) TopUpBalance(ctx context.Context, organizationID int64, amountRub string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/balance/top-up",
		body: map[string]any{
			"organization_id": organizationID,
			"amount_rub":      amountRub,
		},
	}, nil)
}

func (c *OrganizationsClient) DebitBalance(ctx context.Context, organizationID int64, amountRub string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/balance/debit",
		body: map[string]any{
			"organization_id": organizationID,
			"amount_rub":      amountRub,
		},
	}, nil)
}

func (c *OrganizationsClient) CostMultiplier(ctx context.Context, organizationID int64) (*domain.CostMultiplier, error) {
	var out domain.CostMultiplier
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/cost-multiplier/%d", organizationID)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
