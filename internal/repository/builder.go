package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

// buildInsert renders an INSERT for the given fields. Column names always
// come from model.Field values built in code, never from request input.
func buildInsert(table string, idColumn string, fields []model.Field) (string, []any) {
	columns := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for i, f := range fields {
		columns = append(columns, f.Column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, f.Value)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), idColumn)
	return sql, args
}

// buildUpdate renders a partial UPDATE that also bumps updated_at.
func buildUpdate(table string, idColumn string, id int64, fields []model.Field, now time.Time) (string, []any) {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	argIdx := 1

	for _, f := range fields {
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, argIdx))
		args = append(args, f.Value)
		argIdx++
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, now)
	argIdx++

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), idColumn, argIdx)
	return sql, args
}

func insertRow(ctx context.Context, q database.Querier, table string, idColumn string, fields []model.Field) (int64, error) {
	sql, args := buildInsert(table, idColumn, fields)

	var id int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// updateRow reports false when no row has the id.
func updateRow(ctx context.Context, q database.Querier, table string, idColumn string, id int64, fields []model.Field, now time.Time) (bool, error) {
	sql, args := buildUpdate(table, idColumn, id, fields, now)

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func deleteRow(ctx context.Context, q database.Querier, table string, idColumn string, id int64) (bool, error) {
	tag, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, idColumn), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func rowExists(ctx context.Context, q database.Querier, table string, column string, value any) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)", table, column), value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s.%s: %w", table, column, err)
	}
	return exists, nil
}

func countRows(ctx context.Context, q database.Querier, table string) (int, error) {
	var total int
	if err := q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}
