package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/smm-bot/internal/domain"
	"github.com/Rrens/smm-bot/internal/security"
)

// SessionRepository implements domain.SessionRepository over user_states
type SessionRepository struct {
	pool *pgxpool.Pool
	enc  *security.Encryptor
}

// NewSessionRepository creates a new session repository.
// enc may be nil, in which case tokens are stored as is.
func NewSessionRepository(pool *pgxpool.Pool, enc *security.Encryptor) *SessionRepository {
	return &SessionRepository{pool: pool, enc: enc}
}

const sessionColumns = `id, tg_chat_id, account_id, organization_id, access_token, refresh_token,
	tg_username, can_show_alerts, show_error_recovery, created_at`

// Create inserts a session for the chat; repeated calls return the existing id
func (r *SessionRepository) Create(ctx context.Context, tgChatID int64, tgUsername string) (int64, error) {
	query := `
		INSERT INTO user_states (tg_chat_id, tg_username)
		VALUES ($1, $2)
		ON CONFLICT (tg_chat_id) DO UPDATE SET tg_chat_id = EXCLUDED.tg_chat_id
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, tgChatID, tgUsername).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) GetByChatID(ctx context.Context, tgChatID int64) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_states WHERE tg_chat_id = $1`
	return r.getOne(ctx, query, tgChatID)
}

func (r *SessionRepository) GetByAccountID(ctx context.Context, accountID int64) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_states WHERE account_id = $1 ORDER BY id DESC LIMIT 1`
	return r.getOne(ctx, query, accountID)
}

func (r *SessionRepository) getOne(ctx context.Context, query string, arg int64) (*domain.Session, error) {
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.TgChatID,
		&s.AccountID,
		&s.OrganizationID,
		&s.AccessToken,
		&s.RefreshToken,
		&s.TgUsername,
		&s.CanShowAlerts,
		&s.ShowErrorRecovery,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if s.AccessToken, err = r.enc.Open(s.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	if s.RefreshToken, err = r.enc.Open(s.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return &s, nil
}

// Update alters only the fields set in update
func (r *SessionRepository) Update(ctx context.Context, sessionID int64, update domain.SessionUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.AccountID != nil {
		add("account_id", *update.AccountID)
	}
	if update.OrganizationID != nil {
		add("organization_id", *update.OrganizationID)
	}
	if update.AccessToken != nil {
		sealed, err := r.enc.Seal(*update.AccessToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt access token: %w", err)
		}
		add("access_token", sealed)
	}
	if update.RefreshToken != nil {
		sealed, err := r.enc.Seal(*update.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		add("refresh_token", sealed)
	}
	if update.TgUsername != nil {
		add("tg_username", *update.TgUsername)
	}
	if update.CanShowAlerts != nil {
		add("can_show_alerts", *update.CanShowAlerts)
	}
	if update.ShowErrorRecovery != nil {
		add("show_error_recovery", *update.ShowErrorRecovery)
	}

	args = append(args, sessionID)
	query := fmt.Sprintf(`UPDATE user_states SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// MediaRepository implements domain.MediaRepository over cache_files
type MediaRepository struct {
	pool *pgxpool.Pool
}

func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// CacheMedia records the messenger id of an uploaded file; the first id wins
func (r *MediaRepository) CacheMedia(ctx context.Context, filename, fileID string) error {
	query := `
		INSERT INTO cache_files (filename, file_id)
		VALUES ($1, $2)
		ON CONFLICT (filename) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, filename, fileID); err != nil {
		return fmt.Errorf("failed to cache media: %w", err)
	}
	return nil
}

// LookupMedia returns the cached id or "" when the file was never uploaded
func (r *MediaRepository) LookupMedia(ctx context.Context, filename string) (string, error) {
	query := `SELECT file_id FROM cache_files WHERE filename = $1`
	var fileID string
	err := r.pool.QueryRow(ctx, query, filename).Scan(&fileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to lookup media: %w", err)
	}
	return fileID, nil
}
