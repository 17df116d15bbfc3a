package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

type SessionRepository struct{}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

func (r *SessionRepository) Create(ctx context.Context, q database.Querier, s model.Session) error {
	_, err := q.Exec(ctx,
		`INSERT INTO sessions (session_id, user_id, ip_address, user_agent, created_at, expires_at, last_activity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.IPAddress, s.UserAgent, s.CreatedAt, s.ExpiresAt, s.LastActivity)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// FindValid returns the session only while expires_at is still ahead of now.
func (r *SessionRepository) FindValid(ctx context.Context, q database.Querier, sessionID string, now time.Time) (model.Session, error) {
	var s model.Session
	err := q.QueryRow(ctx,
		`SELECT session_id, user_id, ip_address, user_agent, created_at, expires_at, last_activity
		 FROM sessions
		 WHERE session_id = $1 AND expires_at > $2`, sessionID, now).
		Scan(&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt, &s.LastActivity)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("validate session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, q database.Querier, sessionID string, now time.Time) error {
	_, err := q.Exec(ctx, `UPDATE sessions SET last_activity = $2 WHERE session_id = $1`, sessionID, now)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, q database.Querier, sessionID string) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeleteAllForUser(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, q database.Querier, now time.Time) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) CountActive(ctx context.Context, q database.Querier, now time.Time) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > $1`, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}
