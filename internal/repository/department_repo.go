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

type DepartmentRepository struct{}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{}
}

const departmentColumns = `department_id, name, description, location, created_at, updated_at`

func scanDepartment(row pgx.Row) (model.Department, error) {
	var d model.Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Location, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *DepartmentRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Department, error) {
	d, err := scanDepartment(q.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE department_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Department{}, model.ErrNotFound
	}
	if err != nil {
		return model.Department{}, fmt.Errorf("find department: %w", err)
	}
	return d, nil
}

func (r *DepartmentRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "departments", "department_id", id)
}

func (r *DepartmentRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Department, model.Meta, error) {
	total, err := countRows(ctx, q, "departments")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+departmentColumns+` FROM departments ORDER BY name LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *DepartmentRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "departments", "department_id", fields)
}

func (r *DepartmentRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "departments", "department_id", id, fields, now)
}

func (r *DepartmentRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "departments", "department_id", id)
}

func (r *DepartmentRepository) HasStaff(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "staff", "department_id", id)
}
