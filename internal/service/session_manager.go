package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hospital-api/internal/database"
	"hospital-api/internal/metrics"
	"hospital-api/internal/model"
)

const DefaultSessionTTL = 24 * time.Hour

type sessionStore interface {
	Create(ctx context.Context, q database.Querier, s model.Session) error
	FindValid(ctx context.Context, q database.Querier, sessionID string, now time.Time) (model.Session, error)
	Touch(ctx context.Context, q database.Querier, sessionID string, now time.Time) error
	Delete(ctx context.Context, q database.Querier, sessionID string) (bool, error)
	DeleteAllForUser(ctx context.Context, q database.Querier, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, q database.Querier, now time.Time) (int64, error)
	CountActive(ctx context.Context, q database.Querier, now time.Time) (int64, error)
}

// SessionManager owns the server-side session rows that back every token.
// Methods taking a Querier join the caller's transaction; the others use
// the pool directly.
type SessionManager struct {
	db      database.Querier
	repo    sessionStore
	ttl     time.Duration
	metrics *metrics.Metrics
	now     clock
}

func NewSessionManager(db database.Querier, repo sessionStore, ttl time.Duration, m *metrics.Metrics) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{db: db, repo: repo, ttl: ttl, metrics: m, now: systemClock}
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) Create(ctx context.Context, q database.Querier, userID int64, client model.ClientInfo) (model.Session, error) {
	now := m.now()
	session := model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
		LastActivity: now,
	}

	if err := m.repo.Create(ctx, q, session); err != nil {
		return model.Session{}, err
	}
	m.metrics.SessionCreated()
	return session, nil
}

// Validate returns model.ErrSessionNotFound for unknown, revoked and expired sessions.
func (m *SessionManager) Validate(ctx context.Context, sessionID string) (model.Session, error) {
	if sessionID == "" {
		return model.Session{}, model.ErrSessionNotFound
	}
	return m.repo.FindValid(ctx, m.db, sessionID, m.now())
}

func (m *SessionManager) Touch(ctx context.Context, sessionID string) error {
	return m.repo.Touch(ctx, m.db, sessionID, m.now())
}

func (m *SessionManager) Revoke(ctx context.Context, q database.Querier, sessionID string) error {
	removed, err := m.repo.Delete(ctx, q, sessionID)
	if err != nil {
		return err
	}
	if !removed {
		return model.ErrSessionNotFound
	}
	m.metrics.SessionsRevoked(1)
	return nil
}

func (m *SessionManager) RevokeAll(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	removed, err := m.repo.DeleteAllForUser(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	m.metrics.SessionsRevoked(removed)
	return removed, nil
}

// SweepExpired deletes sessions past their expiry. Validation never depends on it.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := m.repo.DeleteExpired(ctx, m.db, m.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	m.metrics.SessionsSwept(removed)
	return removed, nil
}

func (m *SessionManager) CountActive(ctx context.Context) (int64, error) {
	return m.repo.CountActive(ctx, m.db, m.now())
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, model.ErrSessionNotFound)
}
