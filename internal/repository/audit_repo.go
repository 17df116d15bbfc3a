package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

type AuditRepository struct{}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Log appends one entry. The table is append-only: there is no update or delete.
func (r *AuditRepository) Log(ctx context.Context, q database.Querier, entry model.AuditEntry) error {
	oldJSON, err := marshalAuditValue(entry.OldValue)
	if err != nil {
		return fmt.Errorf("marshal old value: %w", err)
	}
	newJSON, err := marshalAuditValue(entry.NewValue)
	if err != nil {
		return fmt.Errorf("marshal new value: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO audit_logs
		 (user_id, action_type, table_name, record_id, old_value, new_value, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UserID, string(entry.Action), entry.TableName, entry.RecordID,
		oldJSON, newJSON, entry.IPAddress, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func marshalAuditValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *AuditRepository) Query(ctx context.Context, q database.Querier, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	page := query.ListQuery.Normalize()

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, fmt.Sprintf("lower(action_type) = lower($%d)", argIdx))
		args = append(args, action)
		argIdx++
	}
	if query.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *query.UserID)
		argIdx++
	}
	if table := strings.TrimSpace(query.Table); table != "" {
		where = append(where, fmt.Sprintf("table_name = $%d", argIdx))
		args = append(args, table)
		argIdx++
	}
	if query.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *query.From)
		argIdx++
	}
	if query.To != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *query.To)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}
	meta := page.Meta(total)

	dataQuery := fmt.Sprintf(
		`SELECT audit_id, user_id, action_type, table_name, record_id, old_value, new_value, ip_address, created_at
		 FROM audit_logs %s
		 ORDER BY created_at DESC, audit_id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, page.Limit, page.Offset())

	rows, err := q.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var action string
		var oldJSON, newJSON []byte

		if err := rows.Scan(&e.ID, &e.UserID, &action, &e.TableName, &e.RecordID,
			&oldJSON, &newJSON, &e.IPAddress, &e.OccurredAt); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = model.AuditAction(action)

		if len(oldJSON) > 0 {
			var old any
			if jsonErr := json.Unmarshal(oldJSON, &old); jsonErr == nil {
				e.OldValue = old
			}
		}
		if len(newJSON) > 0 {
			var next any
			if jsonErr := json.Unmarshal(newJSON, &next); jsonErr == nil {
				e.NewValue = next
			}
		}

		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
