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

type StaffRepository struct{}

func NewStaffRepository() *StaffRepository {
	return &StaffRepository{}
}

const staffColumns = `staff_id, first_name, last_name, role, department_id, specialization,
	license_number, phone, email, hire_date, created_at, updated_at`

func scanStaff(row pgx.Row) (model.Staff, error) {
	var s model.Staff
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Role, &s.DepartmentID, &s.Specialization,
		&s.LicenseNumber, &s.Phone, &s.Email, &s.HireDate, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *StaffRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Staff, error) {
	s, err := scanStaff(q.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE staff_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Staff{}, model.ErrStaffNotFound
	}
	if err != nil {
		return model.Staff{}, fmt.Errorf("find staff: %w", err)
	}
	return s, nil
}

func (r *StaffRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "staff", "staff_id", id)
}

// HasRole reports whether the staff member exists and holds one of roles.
// Roles are bound as a parameter, never spliced into the SQL.
func (r *StaffRepository) HasRole(ctx context.Context, q database.Querier, id int64, roles ...model.StaffRole) (bool, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}

	var ok bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM staff WHERE staff_id = $1 AND role = ANY($2))`, id, names).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check staff role: %w", err)
	}
	return ok, nil
}

func (r *StaffRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Staff, model.Meta, error) {
	total, err := countRows(ctx, q, "staff")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+staffColumns+` FROM staff ORDER BY staff_id LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	out := make([]model.Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, s)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *StaffRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "staff", "staff_id", fields)
}

func (r *StaffRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "staff", "staff_id", id, fields, now)
}

func (r *StaffRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "staff", "staff_id", id)
}

func (r *StaffRepository) HasVisits(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "visits", "attending_doctor_id", id)
}

func (r *StaffRepository) HasAccount(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "users", "staff_id", id)
}
