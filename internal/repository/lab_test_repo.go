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

type LabTestRepository struct{}

func NewLabTestRepository() *LabTestRepository {
	return &LabTestRepository{}
}

const labTestSelect = `SELECT l.lab_test_id, l.visit_id, l.test_name, l.test_date, l.requested_by_id,
	l.results, l.result_date, l.normal_range, l.interpretation, l.status, l.created_at, l.updated_at,
	s.first_name, s.last_name
	FROM lab_tests l
	JOIN staff s ON s.staff_id = l.requested_by_id`

func scanLabTest(row pgx.Row) (model.LabTest, error) {
	var l model.LabTest
	err := row.Scan(&l.ID, &l.VisitID, &l.TestName, &l.TestDate, &l.RequestedByID,
		&l.Results, &l.ResultDate, &l.NormalRange, &l.Interpretation, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.DoctorFirstName, &l.DoctorLastName)
	return l, err
}

func (r *LabTestRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.LabTest, error) {
	l, err := scanLabTest(q.QueryRow(ctx, labTestSelect+` WHERE l.lab_test_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LabTest{}, model.ErrNotFound
	}
	if err != nil {
		return model.LabTest{}, fmt.Errorf("find lab test: %w", err)
	}
	return l, nil
}

func (r *LabTestRepository) ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.LabTest, model.Meta, error) {
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM lab_tests WHERE visit_id = $1`, visitID).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count lab tests: %w", err)
	}

	rows, err := q.Query(ctx,
		labTestSelect+` WHERE l.visit_id = $1 ORDER BY l.test_date DESC, l.lab_test_id DESC LIMIT $2 OFFSET $3`,
		visitID, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list lab tests: %w", err)
	}
	defer rows.Close()

	out := make([]model.LabTest, 0)
	for rows.Next() {
		l, err := scanLabTest(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan lab test: %w", err)
		}
		out = append(out, l)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *LabTestRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "lab_tests", "lab_test_id", fields)
}

func (r *LabTestRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "lab_tests", "lab_test_id", id, fields, now)
}

func (r *LabTestRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "lab_tests", "lab_test_id", id)
}
