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

type PatientRepository struct{}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{}
}

const patientColumns = `patient_id, first_name, last_name, date_of_birth, gender, blood_type,
	address, city, state, postal_code, country, phone, email,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	insurance_provider, insurance_policy_number, allergies, created_at, updated_at`

func scanPatient(row pgx.Row) (model.Patient, error) {
	var p model.Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.BloodType,
		&p.Address, &p.City, &p.State, &p.PostalCode, &p.Country, &p.Phone, &p.Email,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.EmergencyContactRelation,
		&p.InsuranceProvider, &p.InsurancePolicyNumber, &p.Allergies, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PatientRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Patient, error) {
	p, err := scanPatient(q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, model.ErrNotFound
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "patients", "patient_id", id)
}

func (r *PatientRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Patient, model.Meta, error) {
	total, err := countRows(ctx, q, "patients")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY last_name, first_name, patient_id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := make([]model.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *PatientRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "patients", "patient_id", fields)
}

func (r *PatientRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "patients", "patient_id", id, fields, now)
}

func (r *PatientRepository) HasVisits(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "visits", "patient_id", id)
}

// Delete removes the patient and its medical history. Callers run it inside a
// transaction after checking HasVisits.
func (r *PatientRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	if _, err := q.Exec(ctx, `DELETE FROM medical_history WHERE patient_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete medical history: %w", err)
	}
	return deleteRow(ctx, q, "patients", "patient_id", id)
}
