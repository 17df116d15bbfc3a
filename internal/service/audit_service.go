package service

import (
	"context"
	"fmt"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type auditLogger interface {
	Log(ctx context.Context, q database.Querier, entry model.AuditEntry) error
}

type auditQuerier interface {
	auditLogger
	Query(ctx context.Context, q database.Querier, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService writes entries inside the caller's transaction, so an entry
// commits or rolls back together with the change it describes.
type AuditService struct {
	db   database.Querier
	repo auditQuerier
	now  clock
}

func NewAuditService(db database.Querier, repo auditQuerier) *AuditService {
	return &AuditService{db: db, repo: repo, now: systemClock}
}

func (s *AuditService) Record(ctx context.Context, q database.Querier, entry model.AuditEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.now()
	}
	if err := s.repo.Log(ctx, q, entry); err != nil {
		return fmt.Errorf("audit %s %s: %w", entry.Action, entry.TableName, err)
	}
	return nil
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, model.Meta{}, apierror.Validation("'from' must not be after 'to'", "from")
	}
	query.ListQuery = query.ListQuery.Normalize()
	return s.repo.Query(ctx, s.db, query)
}

// actorEntry builds an entry attributed to the authenticated caller.
func actorEntry(actor model.Actor, action model.AuditAction, table string, recordID int64, oldValue any, newValue any) model.AuditEntry {
	var userID *int64
	if actor.UserID != 0 {
		id := actor.UserID
		userID = &id
	}
	return model.AuditEntry{
		UserID:    userID,
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		OldValue:  oldValue,
		NewValue:  newValue,
		IPAddress: actor.IP,
	}
}
