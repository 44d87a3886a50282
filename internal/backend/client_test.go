package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/smm-bot/internal/backend"
	"github.com/Rrens/smm-bot/internal/domain"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, chatID int64, username string) (int64, error) {
	args := m.Called(ctx, chatID, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) GetByChatID(ctx context.Context, chatID int64) (*domain.Session, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) GetByAccountID(ctx context.Context, accountID int64) (*domain.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, id int64, update domain.SessionUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func newContentClient(t *testing.T, h http.HandlerFunc) *backend.ContentClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backend.NewContentClient(srv.URL, backend.Options{Timeout: 5 * time.Second, InterserverSecret: "s3cret"})
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"insufficient balance flag", http.StatusBadRequest, `{"insufficient_balance": true}`, domain.ErrInsufficientBalance},
		{"insufficient balance code", http.StatusBadRequest, `{"error": "insufficient_balance"}`, domain.ErrInsufficientBalance},
		{"no image data", http.StatusBadRequest, `{"no_image_data": true}`, domain.ErrNoImageData},
		{"no image data on success", http.StatusOK, `{"no_image_data": true}`, domain.ErrNoImageData},
		{"forbidden", http.StatusForbidden, `{}`, domain.ErrPermissionDenied},
		{"not found", http.StatusNotFound, `{}`, domain.ErrNotFound},
		{"server error", http.StatusBadGateway, `oops`, domain.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newContentClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GeneratePublicationText(context.Background(), 1, "spring sale")
			assert.ErrorIs(t, err, tt.want)

			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "content", apiErr.Service)
		})
	}
}

func TestClient_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := backend.NewContentClient(url, backend.Options{Timeout: time.Second})
	_, err := c.GetPublication(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestContentClient_ChangePublication_Multipart(t *testing.T) {
	c := newContentClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/publication/7", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("X-Interservice-Secret"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Hello", r.FormValue("text"))
		assert.Empty(t, r.FormValue("tg_source"))

		file, header, err := r.FormFile("image_file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "F1.jpg", header.Filename)
		assert.Equal(t, []byte("jpeg-bytes"), content)

		w.WriteHeader(http.StatusOK)
	})

	err := c.ChangePublication(context.Background(), domain.PublicationChange{
		ID:            7,
		Text:          domain.Ptr("Hello"),
		ImageContent:  []byte("jpeg-bytes"),
		ImageFilename: "F1.jpg",
	})
	require.NoError(t, err)
}

func TestContentClient_ModeratePublication_PostLinks(t *testing.T) {
	c := newContentClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approved", body["moderation_status"])
		assert.EqualValues(t, 9, body["moderator_id"])

		_, _ = w.Write([]byte(`{"telegram": "https://t.me/c/1/2", "vkontakte": null}`))
	})

	res, err := c.ModeratePublication(context.Background(), 7, 9, domain.ModerationApproved, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"telegram": "https://t.me/c/1/2"}, res.PostLinks)
}

func TestContentClient_GenerateImage_EmptyIsNoImageData(t *testing.T) {
	c := newContentClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images_url": []}`))
	})

	_, err := c.GeneratePublicationImage(context.Background(), 1, "text", "", "")
	assert.ErrorIs(t, err, domain.ErrNoImageData)
}

func TestEmployeesClient_ByAccountID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := backend.NewEmployeesClient(srv.URL, backend.Options{})
	emp, err := c.ByAccountID(context.Background(), 5)
	assert.NoError(t, err)
	assert.Nil(t, emp)
}

func expiredToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestAuthenticator_RefreshesExpiredToken(t *testing.T) {
	var refreshed atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/refresh":
			refreshed.Add(1)
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"account_id": 3, "access_token": "new-access", "refresh_token": "new-refresh"}`))
		case "/2fa/generate":
			assert.Equal(t, "Bearer new-access", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"two_fa_key": "KEY", "qr_image_url": "https://qr"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	repo := new(mockSessionRepo)
	repo.On("Update", mock.Anything, int64(11), domain.SessionUpdate{
		AccessToken:  domain.Ptr("new-access"),
		RefreshToken: domain.Ptr("new-refresh"),
	}).Return(nil)

	auth := backend.NewAuthenticator(repo)
	accounts := backend.NewAccountsClient(srv.URL, backend.Options{Auth: auth})
	auth.SetRefresher(accounts)

	session := &domain.Session{ID: 11, AccountID: 3, AccessToken: expiredToken(t), RefreshToken: "old-refresh"}
	ctx := backend.WithSession(context.Background(), session)

	setup, err := accounts.GenerateTwoFA(ctx)
	require.NoError(t, err)

	assert.Equal(t, "KEY", setup.Secret)
	assert.Equal(t, "new-access", session.AccessToken)
	assert.Equal(t, int32(1), refreshed.Load())
	repo.AssertExpectations(t)
}

func TestAuthenticator_RetriesOnceAfterUnauthorized(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/refresh":
			_, _ = w.Write([]byte(`{"access_token": "fresh", "refresh_token": "r2"}`))
		case "/password/change":
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	repo := new(mockSessionRepo)
	repo.On("Update", mock.Anything, int64(1), mock.Anything).Return(nil)

	auth := backend.NewAuthenticator(repo)
	accounts := backend.NewAccountsClient(srv.URL, backend.Options{Auth: auth})
	auth.SetRefresher(accounts)

	ctx := backend.WithSession(context.Background(), &domain.Session{ID: 1, AccessToken: "opaque", RefreshToken: "r1"})
	require.NoError(t, accounts.ChangePassword(ctx, "old", "new"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestOrganizationsClient_Balance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/balance/debit":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.EqualValues(t, 5, body["organization_id"])
			assert.Equal(t, "12.50", body["amount_rub"])
			w.WriteHeader(http.StatusOK)
		case "/cost-multiplier/5":
			_, _ = w.Write([]byte(`{"organization_id": 5, "generate_text_cost_multiplier": 1.5}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := backend.NewOrganizationsClient(srv.URL, backend.Options{})
	require.NoError(t, c.DebitBalance(context.Background(), 5, "12.50"))

	mult, err := c.CostMultiplier(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, mult.GenerateTextCostMultiplier)
}
