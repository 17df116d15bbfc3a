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

type VisitRepository struct{}

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{}
}

const visitSelect = `SELECT v.visit_id, v.patient_id, v.visit_date, v.visit_type, v.primary_complaint,
	v.initial_diagnosis, v.final_diagnosis, v.attending_doctor_id, v.vital_signs, v.visit_notes,
	v.discharge_date, v.discharge_notes, v.created_at, v.updated_at,
	p.first_name, p.last_name, s.first_name, s.last_name
	FROM visits v
	JOIN patients p ON p.patient_id = v.patient_id
	JOIN staff s ON s.staff_id = v.attending_doctor_id`

func scanVisit(row pgx.Row) (model.Visit, error) {
	var v model.Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.VisitType, &v.PrimaryComplaint,
		&v.InitialDiagnosis, &v.FinalDiagnosis, &v.AttendingDoctorID, &v.VitalSigns, &v.VisitNotes,
		&v.DischargeDate, &v.DischargeNotes, &v.CreatedAt, &v.UpdatedAt,
		&v.PatientFirstName, &v.PatientLastName, &v.DoctorFirstName, &v.DoctorLastName)
	return v, err
}

func (r *VisitRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Visit, error) {
	v, err := scanVisit(q.QueryRow(ctx, visitSelect+` WHERE v.visit_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Visit{}, model.ErrNotFound
	}
	if err != nil {
		return model.Visit{}, fmt.Errorf("find visit: %w", err)
	}
	return v, nil
}

func (r *VisitRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "visits", "visit_id", id)
}

func (r *VisitRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Visit, model.Meta, error) {
	total, err := countRows(ctx, q, "visits")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		visitSelect+` ORDER BY v.visit_date DESC, v.visit_id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	out := make([]model.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan visit: %w", err)
		}
		out = append(out, v)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *VisitRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "visits", "visit_id", fields)
}

func (r *VisitRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "visits", "visit_id", id, fields, now)
}

// DeleteCascade removes the visit and everything hanging off it: diagnoses,
// prescriptions with their details, lab tests, and bills with their items.
// It must run inside a transaction.
func (r *VisitRepository) DeleteCascade(ctx context.Context, q database.Querier, id int64) (bool, error) {
	steps := []struct {
		name string
		sql  string
	}{
		{"diagnoses", `DELETE FROM diagnoses WHERE visit_id = $1`},
		{"prescription details", `DELETE FROM prescription_details
			WHERE prescription_id IN (SELECT prescription_id FROM prescriptions WHERE visit_id = $1)`},
		{"prescriptions", `DELETE FROM prescriptions WHERE visit_id = $1`},
		{"lab tests", `DELETE FROM lab_tests WHERE visit_id = $1`},
		{"billing items", `DELETE FROM billing_items
			WHERE bill_id IN (SELECT bill_id FROM billing WHERE visit_id = $1)`},
		{"billing", `DELETE FROM billing WHERE visit_id = $1`},
	}

	for _, step := range steps {
		if _, err := q.Exec(ctx, step.sql, id); err != nil {
			return false, fmt.Errorf("delete visit %s: %w", step.name, err)
		}
	}

	return deleteRow(ctx, q, "visits", "visit_id", id)
}
