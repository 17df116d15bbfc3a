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

type DiseaseRepository struct{}

func NewDiseaseRepository() *DiseaseRepository {
	return &DiseaseRepository{}
}

const diseaseColumns = `disease_id, name, description, icd_code, category, created_at, updated_at`

func scanDisease(row pgx.Row) (model.Disease, error) {
	var d model.Disease
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.ICDCode, &d.Category, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *DiseaseRepository) FindByID(ctx context.Context, q database.Querier, id int64) (model.Disease, error) {
	d, err := scanDisease(q.QueryRow(ctx, `SELECT `+diseaseColumns+` FROM diseases WHERE disease_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Disease{}, model.ErrNotFound
	}
	if err != nil {
		return model.Disease{}, fmt.Errorf("find disease: %w", err)
	}
	return d, nil
}

func (r *DiseaseRepository) Exists(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "diseases", "disease_id", id)
}

func (r *DiseaseRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Disease, model.Meta, error) {
	total, err := countRows(ctx, q, "diseases")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+diseaseColumns+` FROM diseases ORDER BY name, disease_id LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list diseases: %w", err)
	}
	defer rows.Close()

	out := make([]model.Disease, 0)
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan disease: %w", err)
		}
		out = append(out, d)
	}
	return out, page.Meta(total), rows.Err()
}

func (r *DiseaseRepository) Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error) {
	return insertRow(ctx, q, "diseases", "disease_id", fields)
}

func (r *DiseaseRepository) Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error) {
	return updateRow(ctx, q, "diseases", "disease_id", id, fields, now)
}

func (r *DiseaseRepository) Delete(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return deleteRow(ctx, q, "diseases", "disease_id", id)
}

func (r *DiseaseRepository) InUse(ctx context.Context, q database.Querier, id int64) (bool, error) {
	return rowExists(ctx, q, "diagnoses", "disease_id", id)
}
