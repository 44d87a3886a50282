package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/smm-bot/internal/domain"
)

// AlertRepository implements domain.AlertRepository
type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

func (r *AlertRepository) CreateVideoCutReady(ctx context.Context, alert *domain.VideoCutReadyAlert) (int64, error) {
	query := `
		INSERT INTO vizard_video_cut_alerts (state_id, youtube_video_reference, video_count)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, alert.SessionID, alert.YoutubeVideoReference, alert.VideoCount).
		Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create video cut alert: %w", err)
	}
	return alert.ID, nil
}

func (r *AlertRepository) VideoCutReadyBySession(ctx context.Context, sessionID int64) ([]domain.VideoCutReadyAlert, error) {
	query := `
		SELECT id, state_id, youtube_video_reference, video_count, created_at
		FROM vizard_video_cut_alerts
		WHERE state_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list video cut alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.VideoCutReadyAlert
	for rows.Next() {
		var a domain.VideoCutReadyAlert
		if err := rows.Scan(&a.ID, &a.SessionID, &a.YoutubeVideoReference, &a.VideoCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video cut alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) DeleteVideoCutReady(ctx context.Context, id int64) error {
	query := `DELETE FROM vizard_video_cut_alerts WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete video cut alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) CreatePublicationApproved(ctx context.Context, alert *domain.PublicationApprovedAlert) (int64, error) {
	links, err := json.Marshal(alert.PostLinks)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal post links: %w", err)
	}
	if alert.PostLinks == nil {
		links = []byte("{}")
	}

	query := `
		INSERT INTO publication_approved_alerts (state_id, publication_id, post_links)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = r.pool.QueryRow(ctx, query, alert.SessionID, alert.PublicationID, links).
		Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create publication approved alert: %w", err)
	}
	return alert.ID, nil
}

func (r *AlertRepository) PublicationApprovedBySession(ctx context.Context, sessionID int64) ([]domain.PublicationApprovedAlert, error) {
	query := `
		SELECT id, state_id, publication_id, post_links, created_at
		FROM publication_approved_alerts
		WHERE state_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publication approved alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.PublicationApprovedAlert
	for rows.Next() {
		var a domain.PublicationApprovedAlert
		var links []byte
		if err := rows.Scan(&a.ID, &a.SessionID, &a.PublicationID, &links, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publication approved alert: %w", err)
		}
		if len(links) > 0 {
			if err := json.Unmarshal(links, &a.PostLinks); err != nil {
				return nil, fmt.Errorf("failed to unmarshal post links: %w", err)
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) DeletePublicationApproved(ctx context.Context, id int64) error {
	query := `DELETE FROM publication_approved_alerts WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete publication approved alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) CreatePublicationRejected(ctx context.Context, alert *domain.PublicationRejectedAlert) (int64, error) {
	query := `
		INSERT INTO publication_rejected_alerts (state_id, publication_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, alert.SessionID, alert.PublicationID, alert.Comment).
		Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create publication rejected alert: %w", err)
	}
	return alert.ID, nil
}

func (r *AlertRepository) PublicationRejectedBySession(ctx context.Context, sessionID int64) ([]domain.PublicationRejectedAlert, error) {
	query := `
		SELECT id, state_id, publication_id, comment, created_at
		FROM publication_rejected_alerts
		WHERE state_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publication rejected alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.PublicationRejectedAlert
	for rows.Next() {
		var a domain.PublicationRejectedAlert
		if err := rows.Scan(&a.ID, &a.SessionID, &a.PublicationID, &a.Comment, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publication rejected alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) DeletePublicationRejected(ctx context.Context, id int64) error {
	query := `DELETE FROM publication_rejected_alerts WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete publication rejected alert: %w", err)
	}
	return nil
}
