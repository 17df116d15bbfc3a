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

type PrescriptionRepository struct{}

func NewPrescriptionRepository() *PrescriptionRepository {
	return &PrescriptionRepository{}
}

const prescriptionSelect = `SELECT p.prescription_id, p.visit_id, p.prescribed_by_id, p.prescription_date, p.notes,
	p.created_at, p.updated_at, s.first_name, s.last_name
	FROM prescriptions p
	JOIN staff s ON s.staff_id = p.prescribed_by_id`

func scanPrescription(row pgx.Row) (model.Prescription, error) {
	var p model.Prescription
	err := row.Scan(&p.ID, &p.VisitID, &p.PrescribedByID, &p.PrescriptionDate, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt, &p.DoctorFirstName, &p.DoctorLastName)
	return p, err
}

func (r *PrescriptionRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Prescription, error) {
	p, err := scanPrescription(q.QueryRow(ctx, prescriptionSelect+` WHERE p.prescription_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Prescription{}, model.ErrNotFound
	}
	if err != nil {
		return model.Prescription{}, fmt.Errorf("find prescription: %w", err)
	}

	items, err := r.itemsFor(ctx, q, []int64{p.ID})
	if err != nil {
		return model.Prescription{}, err
	}
	p.Medications = items[p.ID]
	if p.Medications == nil {
		p.Medications = []model.PrescriptionItem{}
	}
	return p, nil
}

func (r *PrescriptionRepository) ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.Prescription, model.Meta, error) {
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions WHERE visit_id = $1`, visitID).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count prescriptions: %w", err)
	}

	rows, err := q.Query(ctx,
		prescriptionSelect+` WHERE p.visit_id = $1 ORDER BY p.prescription_date DESC, p.prescription_id DESC LIMIT $2 OFFSET $3`,
		visitID, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list prescriptions: %w", err)
	}

	out := make([]model.Prescription, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			rows.Close()
			return nil, model.Meta{}, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, model.Meta{}, fmt.Errorf("list prescriptions: %w", err)
	}

	items, err := r.itemsFor(ctx, q, ids)
	if err != nil {
		return nil, model.Meta{}, err
	}
	for i := range out {
		out[i].Medications = items[out[i].ID]
		if out[i].Medications == nil {
			out[i].Medications = []model.PrescriptionItem{}
		}
	}
	return out, page.Meta(total), nil
}

func (r *PrescriptionRepository) itemsFor(ctx context.Context, q database.Querier, prescriptionIDs []int64) (map[int64][]model.PrescriptionItem, error) {
	out := make(map[int64][]model.PrescriptionItem, len(prescriptionIDs))
	if len(prescriptionIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx,
		`SELECT pd.detail_id, pd.prescription_id, pd.medication_id, pd.dosage, pd.frequency, pd.duration,
		        pd.duration_unit, pd.start_date, pd.end_date, pd.special_instructions, m.name, m.generic_name
		 FROM prescription_details pd
		 JOIN medications m ON m.medication_id = pd.medication_id
		 WHERE pd.prescription_id = ANY($1)
		 ORDER BY pd.detail_id`, prescriptionIDs)
	if err != nil {
		return nil, fmt.Errorf("list prescription details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.PrescriptionItem
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.MedicationID, &it.Dosage, &it.Frequency, &it.Duration,
			&it.DurationUnit, &it.StartDate, &it.EndDate, &it.SpecialInstructions, &it.MedicationName, &it.GenericName); err != nil {
			return nil, fmt.Errorf("scan prescription detail: %w", err)
		}
		out[it.PrescriptionID] = append(out[it.PrescriptionID], it)
	}
	return out, rows.Err()
}

func (r *PrescriptionRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "prescriptions", "prescription_id", id)
}

func (r *PrescriptionRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "prescriptions", "prescription_id", fields)
}

func (r *PrescriptionRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "prescriptions", "prescription_id", id, fields, now)
}

func (r *PrescriptionRepository) AddItem(ctx context.Context, q database.Querier, prescriptionID int64, item model.PrescriptionItemInput) error {
	_, err := q.Exec(ctx,
		`INSERT INTO prescription_details
		 (prescription_id, medication_id, dosage, frequency, duration, duration_unit, start_date, end_date, special_instructions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		prescriptionID, item.MedicationID, item.Dosage, item.Frequency, item.Duration,
		item.DurationUnit, item.StartDate, item.EndDate, item.SpecialInstructions)
	if err != nil {
		return fmt.Errorf("add prescription detail: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) DeleteItems(ctx context.Context, q database.Querier, prescriptionID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM prescription_details WHERE prescription_id = $1`, prescriptionID); err != nil {
		return fmt.Errorf("delete prescription details: %w", err)
	}
	return nil
}

// Delete removes the prescription with its details. Run it inside a transaction.
func (r *PrescriptionRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	if err := r.DeleteItems(ctx, q, id); err != nil {
		return false, err
	}
	return deleteRow(ctx, q, "prescriptions", "prescription_id", id)
}
