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

type DiagnosisRepository struct{}

func NewDiagnosisRepository() *DiagnosisRepository {
	return &DiagnosisRepository{}
}

const diagnosisSelect = `SELECT d.diagnosis_id, d.visit_id, d.disease_id, d.diagnosis_date, d.diagnosis_notes,
	d.diagnosing_doctor_id, d.severity, d.status, d.created_at, d.updated_at,
	dis.name, s.first_name, s.last_name
	FROM diagnoses d
	JOIN diseases dis ON dis.disease_id = d.disease_id
	JOIN staff s ON s.staff_id = d.diagnosing_doctor_id`

func scanDiagnosis(row pgx.Row) (model.Diagnosis, error) {
	var d model.Diagnosis
	err := row.Scan(&d.ID, &d.VisitID, &d.DiseaseID, &d.DiagnosisDate, &d.DiagnosisNotes,
		&d.DiagnosingDoctorID, &d.Severity, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.DiseaseName, &d.DoctorFirstName, &d.DoctorLastName)
	return d, err
}

func (r *DiagnosisRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Diagnosis, error) {
	d, err := scanDiagnosis(q.QueryRow(ctx, diagnosisSelect+` WHERE d.diagnosis_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Diagnosis{}, model.ErrNotFound
	}
	if err != nil {
		return model.Diagnosis{}, fmt.Errorf("find diagnosis: %w", err)
	}
	return d, nil
}

func (r *DiagnosisRepository) ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.Diagnosis, model.Meta, error) {
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM diagnoses WHERE visit_id = $1`, visitID).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count diagnoses: %w", err)
	}

	rows, err := q.Query(ctx,
		diagnosisSelect+` WHERE d.visit_id = $1 ORDER BY d.diagnosis_date DESC, d.diagnosis_id DESC LIMIT $2 OFFSET $3`,
		visitID, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	out := make([]model.Diagnosis, 0)
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan diagnosis: %w", err)
		}
		out = append(out, d)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *DiagnosisRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "diagnoses", "diagnosis_id", fields)
}

func (r *DiagnosisRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "diagnoses", "diagnosis_id", id, fields, now)
}

func (r *DiagnosisRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "diagnoses", "diagnosis_id", id)
}
