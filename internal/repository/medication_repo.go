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

type MedicationRepository struct{}

func NewMedicationRepository() *MedicationRepository {
	return &MedicationRepository{}
}

const medicationColumns = `medication_id, name, generic_name, description, dosage_form, strength,
	manufacturer, unit_price, created_at, updated_at`

func scanMedication(row pgx.Row) (model.Medication, error) {
	var m model.Medication
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.Description, &m.DosageForm, &m.Strength,
		&m.Manufacturer, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *MedicationRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Medication, error) {
	m, err := scanMedication(q.QueryRow(ctx, `SELECT `+medicationColumns+` FROM medications WHERE medication_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Medication{}, model.ErrNotFound
	}
	if err != nil {
		return model.Medication{}, fmt.Errorf("find medication: %w", err)
	}
	return m, nil
}

func (r *MedicationRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "medications", "medication_id", id)
}

func (r *MedicationRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Medication, model.Meta, error) {
	total, err := countRows(ctx, q, "medications")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+medicationColumns+` FROM medications ORDER BY name, medication_id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, m)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *MedicationRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "medications", "medication_id", fields)
}

func (r *MedicationRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "medications", "medication_id", id, fields, now)
}

func (r *MedicationRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "medications", "medication_id", id)
}

func (r *MedicationRepository) InUse(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "prescription_details", "medication_id", id)
}
