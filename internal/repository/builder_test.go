package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hospital-api/internal/model"
)

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	sql, args := buildInsert("departments", "department_id", []model.Field{
		{Column: "name", Value: "Cardiology"},
		{Column: "location", Value: "Wing A"},
	})

	require.Equal(t, "INSERT INTO departments (name, location) VALUES ($1, $2) RETURNING department_id", sql)
	require.Equal(t, []any{"Cardiology", "Wing A"}, args)
}

func TestBuildUpdate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sql, args := buildUpdate("patients", "patient_id", 42, []model.Field{
		{Column: "phone", Value: "555-0199"},
		{Column: "city", Value: "Shelbyville"},
	}, now)

	require.Equal(t, "UPDATE patients SET phone = $1, city = $2, updated_at = $3 WHERE patient_id = $4", sql)
	require.Equal(t, []any{"555-0199", "Shelbyville", now, int64(42)}, args)
}
