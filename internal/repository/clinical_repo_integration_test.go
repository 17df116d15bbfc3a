//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

func TestStaffRepository_HasRole(t *testing.T) {
	ctx := context.Background()
	staff := NewStaffRepository()
	doctorID, _ := seedStaff(t, model.StaffRoleDoctor)

	ok, err := staff.HasRole(ctx, testDB, doctorID, model.StaffRoleDoctor, model.StaffRolePharmacist)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = staff.HasRole(ctx, testDB, doctorID, model.StaffRoleNurse)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPatientRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	patients := NewPatientRepository()
	id := seedPatient(t)

	got, err := patients.FindByID(ctx, testDB, id)
	require.NoError(t, err)
	assert.Equal(t, "Rebecca", got.FirstName)
	assert.Equal(t, "1979-06-02", got.DateOfBirth.Format(time.DateOnly))

	found, err := patients.Update(ctx, testDB, id, model.PatientInput{City: ptr("Trenton")}.Fields(), time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, found)

	got, err = patients.FindByID(ctx, testDB, id)
	require.NoError(t, err)
	assert.Equal(t, "Trenton", got.City)
	assert.Equal(t, "Rebecca", got.FirstName)

	found, err = patients.Update(ctx, testDB, 999999, model.PatientInput{City: ptr("X")}.Fields(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, found)

	list, meta, err := patients.List(ctx, testDB, model.ListQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.GreaterOrEqual(t, meta.Total, 1)

	deleted, err := patients.Delete(ctx, testDB, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = patients.FindByID(ctx, testDB, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPrescriptionAndVisitCascade(t *testing.T) {
	ctx := context.Background()
	doctorID, _ := seedStaff(t, model.StaffRoleDoctor)
	patientID := seedPatient(t)

	visits := NewVisitRepository()
	visitID, err := visits.Create(ctx, testDB, model.VisitInput{
		PatientID:         &patientID,
		VisitDate:         ptr(time.Now().UTC()),
		VisitType:         ptr("Outpatient"),
		PrimaryComplaint:  ptr("Persistent cough"),
		AttendingDoctorID: &doctorID,
	}.Fields())
	require.NoError(t, err)

	medicationID, err := NewMedicationRepository().Create(ctx, testDB, model.MedicationInput{
		Name: ptr("Amoxicillin"), UnitPrice: ptr(0.45),
	}.Fields())
	require.NoError(t, err)

	prescriptions := NewPrescriptionRepository()
	in := model.PrescriptionInput{
		VisitID:          &visitID,
		PrescribedByID:   &doctorID,
		PrescriptionDate: ptr(model.NewDate(2026, time.April, 1)),
		Medications: []model.PrescriptionItemInput{{
			MedicationID: &medicationID,
			Dosage:       ptr("500mg"),
			Frequency:    ptr("3x daily"),
			Duration:     ptr(7),
			DurationUnit: ptr("days"),
			StartDate:    ptr(model.NewDate(2026, time.April, 1)),
		}},
	}

	var prescriptionID int64
	require.NoError(t, testDB.InTx(ctx, func(q database.Querier) error {
		var err error
		prescriptionID, err = prescriptions.Create(ctx, q, in.HeaderFields(true))
		if err != nil {
			return err
		}
		return prescriptions.AddItem(ctx, q, prescriptionID, in.Medications[0])
	}))

	got, err := prescriptions.FindByID(ctx, testDB, prescriptionID)
	require.NoError(t, err)
	require.Len(t, got.Medications, 1)
	assert.Equal(t, "500mg", got.Medications[0].Dosage)

	byVisit, meta, err := prescriptions.ListByVisit(ctx, testDB, visitID, model.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Total)
	require.Len(t, byVisit, 1)
	assert.Len(t, byVisit[0].Medications, 1)

	// The medication is referenced, so a bare delete trips the foreign key.
	_, err = NewMedicationRepository().Delete(ctx, testDB, medicationID)
	assert.True(t, database.IsForeignKeyViolation(err))

	deleted, err := visits.DeleteCascade(ctx, testDB, visitID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = prescriptions.FindByID(ctx, testDB, prescriptionID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAuditRepository_Query(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditRepository()
	staffID, _ := seedStaff(t, model.StaffRoleAdministrator)
	userID := seedUser(t, staffID, "audit-user")
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	require.NoError(t, audit.Log(ctx, testDB, model.AuditEntry{
		UserID: &userID, Action: model.AuditLogin, TableName: "sessions",
		NewValue: map[string]string{"sessionId": "abc"}, IPAddress: "10.2.3.4", OccurredAt: at,
	}))
	require.NoError(t, audit.Log(ctx, testDB, model.AuditEntry{
		Action: model.AuditFailedLogin, TableName: "users",
		OldValue: map[string]string{"username": "nobody"}, IPAddress: "10.2.3.4", OccurredAt: at,
	}))

	entries, meta, err := audit.Query(ctx, testDB, model.AuditQuery{
		ListQuery: model.ListQuery{Page: 1, Limit: 10},
		UserID:    &userID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Total)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditLogin, entries[0].Action)
	assert.Equal(t, "10.2.3.4", entries[0].IPAddress)

	from := at.Add(-time.Minute)
	to := at.Add(time.Minute)
	entries, _, err = audit.Query(ctx, testDB, model.AuditQuery{
		ListQuery: model.ListQuery{Page: 1, Limit: 10},
		Action:    string(model.AuditFailedLogin),
		From:      &from,
		To:        &to,
	})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Nil(t, entries[0].UserID)
}
