package backend

import (
	"context"
	"net/http"
)

// AccountsClient talks to the accounts service
type AccountsClient struct {
	baseClient
}

func NewAccountsClient(baseURL string, opts Options) *AccountsClient {
	return &AccountsClient{baseClient: newBaseClient("accounts", baseURL, opts)}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (c *AccountsClient) Register(ctx context.Context, login, password string) (*Tokens, error) {
	var out Tokens
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register",
		body:   credentialsRequest{Login: login, Password: password},
		noAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterFromTg creates an account for a chat with generated credentials
func (c *AccountsClient) RegisterFromTg(ctx context.Context, login, password string) (*Tokens, error) {
	var out Tokens
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/register/tg",
		body:   credentialsRequest{Login: login, Password: password},
		noAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AccountsClient) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   credentialsRequest{Login: login, Password: password},
		noAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginTwoFA completes a login of an account with 2FA enabled
func (c *AccountsClient) LoginTwoFA(ctx context.Context, accountID int64, code string) (*Tokens, error) {
	var out Tokens
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login/2fa",
		body: map[string]any{
			"account_id":  accountID,
			"two_fa_code": code,
		},
		noAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTwoFA returns a new secret for the caller's account
func (c *AccountsClient) GenerateTwoFA(ctx context.Context) (*TwoFASetup, error) {
	var out TwoFASetup
	if err := c.do(ctx, request{method: http.MethodGet, path: "/2fa/generate"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AccountsClient) SetTwoFA(ctx context.Context, secret, code string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/2fa/set",
		body: map[string]string{
			"two_fa_key":  secret,
			"two_fa_code": code,
		},
	}, nil)
}

func (c *AccountsClient) DeleteTwoFA(ctx context.Context, code string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/2fa/delete",
		body:   map[string]string{"two_fa_code": code},
	}, nil)
}

func (c *AccountsClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/password/change",
		body: map[string]string{
			"old_password": oldPassword,
			"new_password": newPassword,
		},
	}, nil)
}

// Refresh implements Refresher
func (c *AccountsClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out Tokens
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/refresh",
		body:   map[string]string{"refresh_token": refreshToken},
		noAuth: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
