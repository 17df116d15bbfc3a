package model

import "time"

// The *Input types double as create and partial-update payloads: a nil
// pointer means the client did not send the field.

type DepartmentInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

func (in DepartmentInput) ValidateCreate() error {
	return firstMissing(requirement{"name", hasText(in.Name)})
}

func (in DepartmentInput) ValidateUpdate() error {
	return firstBlank(map[string]*string{"name": in.Name}, "name")
}

func (in DepartmentInput) Fields() []Field {
	fields := make([]Field, 0, 3)
	fields = addField(fields, "name", in.Name)
	fields = addField(fields, "description", in.Description)
	fields = addField(fields, "location", in.Location)
	return fields
}

type PatientInput struct {
	FirstName                *string `json:"first_name"`
	LastName                 *string `json:"last_name"`
	DateOfBirth              *Date   `json:"date_of_birth"`
	Gender                   *string `json:"gender"`
	BloodType                *string `json:"blood_type"`
	Address                  *string `json:"address"`
	City                     *string `json:"city"`
	State                    *string `json:"state"`
	PostalCode               *string `json:"postal_code"`
	Country                  *string `json:"country"`
	Phone                    *string `json:"phone"`
	Email                    *string `json:"email"`
	EmergencyContactName     *string `json:"emergency_contact_name"`
	EmergencyContactPhone    *string `json:"emergency_contact_phone"`
	EmergencyContactRelation *string `json:"emergency_contact_relation"`
	InsuranceProvider        *string `json:"insurance_provider"`
	InsurancePolicyNumber    *string `json:"insurance_policy_number"`
	Allergies                *string `json:"allergies"`
}

func (in PatientInput) ValidateCreate() error {
	return firstMissing(
		requirement{"first_name", hasText(in.FirstName)},
		requirement{"last_name", hasText(in.LastName)},
		requirement{"date_of_birth", hasDate(in.DateOfBirth)},
		requirement{"gender", hasText(in.Gender)},
		requirement{"address", hasText(in.Address)},
		requirement{"city", hasText(in.City)},
		requirement{"state", hasText(in.State)},
		requirement{"postal_code", hasText(in.PostalCode)},
		requirement{"country", hasText(in.Country)},
		requirement{"phone", hasText(in.Phone)},
	)
}

func (in PatientInput) ValidateUpdate() error {
	return firstBlank(map[string]*string{
		"first_name":  in.FirstName,
		"last_name":   in.LastName,
		"gender":      in.Gender,
		"address":     in.Address,
		"city":        in.City,
		"state":       in.State,
		"postal_code": in.PostalCode,
		"country":     in.Country,
		"phone":       in.Phone,
	}, "first_name", "last_name", "gender", "address", "city", "state", "postal_code", "country", "phone")
}

func (in PatientInput) Fields() []Field {
	fields := make([]Field, 0, 18)
	fields = addField(fields, "first_name", in.FirstName)
	fields = addField(fields, "last_name", in.LastName)
	fields = addField(fields, "date_of_birth", in.DateOfBirth)
	fields = addField(fields, "gender", in.Gender)
	fields = addField(fields, "blood_type", in.BloodType)
	fields = addField(fields, "address", in.Address)
	fields = addField(fields, "city", in.City)
	fields = addField(fields, "state", in.State)
	fields = addField(fields, "postal_code", in.PostalCode)
	fields = addField(fields, "country", in.Country)
	fields = addField(fields, "phone", in.Phone)
	fields = addField(fields, "email", in.Email)
	fields = addField(fields, "emergency_contact_name", in.EmergencyContactName)
	fields = addField(fields, "emergency_contact_phone", in.EmergencyContactPhone)
	fields = addField(fields, "emergency_contact_relation", in.EmergencyContactRelation)
	fields = addField(fields, "insurance_provider", in.InsuranceProvider)
	fields = addField(fields, "insurance_policy_number", in.InsurancePolicyNumber)
	fields = addField(fields, "allergies", in.Allergies)
	return fields
}

type StaffInput struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Role           *StaffRole `json:"role"`
	DepartmentID   *int64     `json:"department_id"`
	Specialization *string    `json:"specialization"`
	LicenseNumber  *string    `json:"license_number"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email"`
	HireDate       *Date      `json:"hire_date"`
}

func (in StaffInput) ValidateCreate() error {
	if err := firstMissing(
		requirement{"first_name", hasText(in.FirstName)},
		requirement{"last_name", hasText(in.LastName)},
		requirement{"role", in.Role != nil && in.Role.Valid()},
		requirement{"phone", hasText(in.Phone)},
		requirement{"email", hasText(in.Email)},
		requirement{"hire_date", hasDate(in.HireDate)},
	); err != nil {
		return err
	}
	return validID("department_id", in.DepartmentID)
}

func (in StaffInput) ValidateUpdate() error {
	if err := firstBlank(map[string]*string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"phone":      in.Phone,
		"email":      in.Email,
	}, "first_name", "last_name", "phone", "email"); err != nil {
		return err
	}
	return validID("department_id", in.DepartmentID)
}

func (in StaffInput) Fields() []Field {
	fields := make([]Field, 0, 9)
	fields = addField(fields, "first_name", in.FirstName)
	fields = addField(fields, "last_name", in.LastName)
	fields = addField(fields, "role", in.Role)
	fields = addField(fields, "department_id", in.DepartmentID)
	fields = addField(fields, "specialization", in.Specialization)
	fields = addField(fields, "license_number", in.LicenseNumber)
	fields = addField(fields, "phone", in.Phone)
	fields = addField(fields, "email", in.Email)
	fields = addField(fields, "hire_date", in.HireDate)
	return fields
}

type DiseaseInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ICDCode     *string `json:"icd_code"`
	Category    *string `json:"category"`
}

func (in DiseaseInput) ValidateCreate() error {
	return firstMissing(requirement{"name", hasText(in.Name)})
}

func (in DiseaseInput) ValidateUpdate() error {
	return firstBlank(map[string]*string{"name": in.Name}, "name")
}

func (in DiseaseInput) Fields() []Field {
	fields := make([]Field, 0, 4)
	fields = addField(fields, "name", in.Name)
	fields = addField(fields, "description", in.Description)
	fields = addField(fields, "icd_code", in.ICDCode)
	fields = addField(fields, "category", in.Category)
	return fields
}

type MedicationInput struct {
	Name         *string  `json:"name"`
	GenericName  *string  `json:"generic_name"`
	Description  *string  `json:"description"`
	DosageForm   *string  `json:"dosage_form"`
	Strength     *string  `json:"strength"`
	Manufacturer *string  `json:"manufacturer"`
	UnitPrice    *float64 `json:"unit_price"`
}

func (in MedicationInput) ValidateCreate() error {
	if err := firstMissing(
		requirement{"name", hasText(in.Name)},
		requirement{"unit_price", in.UnitPrice != nil},
	); err != nil {
		return err
	}
	return in.validatePrice()
}

func (in MedicationInput) ValidateUpdate() error {
	if err := firstBlank(map[string]*string{"name": in.Name}, "name"); err != nil {
		return err
	}
	return in.validatePrice()
}

func (in MedicationInput) validatePrice() error {
	if in.UnitPrice != nil && *in.UnitPrice < 0 {
		return invalidField("unit_price", "must not be negative")
	}
	return nil
}

func (in MedicationInput) Fields() []Field {
	fields := make([]Field, 0, 7)
	fields = addField(fields, "name", in.Name)
	fields = addField(fields, "generic_name", in.GenericName)
	fields = addField(fields, "description", in.Description)
	fields = addField(fields, "dosage_form", in.DosageForm)
	fields = addField(fields, "strength", in.Strength)
	fields = addField(fields, "manufacturer", in.Manufacturer)
	fields = addField(fields, "unit_price", in.UnitPrice)
	return fields
}

type VisitInput struct {
	PatientID         *int64     `json:"patient_id"`
	VisitDate         *time.Time `json:"visit_date"`
	VisitType         *string    `json:"visit_type"`
	PrimaryComplaint  *string    `json:"primary_complaint"`
	InitialDiagnosis  *string    `json:"initial_diagnosis"`
	FinalDiagnosis    *string    `json:"final_diagnosis"`
	AttendingDoctorID *int64     `json:"attending_doctor_id"`
	VitalSigns        *string    `json:"vital_signs"`
	VisitNotes        *string    `json:"visit_notes"`
	DischargeDate     *time.Time `json:"discharge_date"`
	DischargeNotes    *string    `json:"discharge_notes"`
}

func (in VisitInput) ValidateCreate() error {
	return firstMissing(
		requirement{"patient_id", hasID(in.PatientID)},
		requirement{"visit_date", hasTime(in.VisitDate)},
		requirement{"visit_type", hasText(in.VisitType)},
		requirement{"primary_complaint", hasText(in.PrimaryComplaint)},
		requirement{"attending_doctor_id", hasID(in.AttendingDoctorID)},
	)
}

func (in VisitInput) ValidateUpdate() error {
	if err := firstBlank(map[string]*string{
		"visit_type":        in.VisitType,
		"primary_complaint": in.PrimaryComplaint,
	}, "visit_type", "primary_complaint"); err != nil {
		return err
	}
	if err := validID("patient_id", in.PatientID); err != nil {
		return err
	}
	return validID("attending_doctor_id", in.AttendingDoctorID)
}

func (in VisitInput) Fields() []Field {
	fields := make([]Field, 0, 11)
	fields = addField(fields, "patient_id", in.PatientID)
	fields = addField(fields, "visit_date", in.VisitDate)
	fields = addField(fields, "visit_type", in.VisitType)
	fields = addField(fields, "primary_complaint", in.PrimaryComplaint)
	fields = addField(fields, "initial_diagnosis", in.InitialDiagnosis)
	fields = addField(fields, "final_diagnosis", in.FinalDiagnosis)
	fields = addField(fields, "attending_doctor_id", in.AttendingDoctorID)
	fields = addField(fields, "vital_signs", in.VitalSigns)
	fields = addField(fields, "visit_notes", in.VisitNotes)
	fields = addField(fields, "discharge_date", in.DischargeDate)
	fields = addField(fields, "discharge_notes", in.DischargeNotes)
	return fields
}

// DiagnosisInput.VisitID is only honoured on create; a diagnosis never moves
// between visits.
type DiagnosisInput struct {
	VisitID            *int64  `json:"visit_id"`
	DiseaseID          *int64  `json:"disease_id"`
	DiagnosisDate      *Date   `json:"diagnosis_date"`
	DiagnosisNotes     *string `json:"diagnosis_notes"`
	DiagnosingDoctorID *int64  `json:"diagnosing_doctor_id"`
	Severity           *string `json:"severity"`
	Status             *string `json:"status"`
}

func (in DiagnosisInput) ValidateCreate() error {
	return firstMissing(
		requirement{"visit_id", hasID(in.VisitID)},
		requirement{"disease_id", hasID(in.DiseaseID)},
		requirement{"diagnosis_date", hasDate(in.DiagnosisDate)},
		requirement{"diagnosing_doctor_id", hasID(in.DiagnosingDoctorID)},
		requirement{"severity", hasText(in.Severity)},
		requirement{"status", hasText(in.Status)},
	)
}

func (in DiagnosisInput) ValidateUpdate() error {
	if err := firstBlank(map[string]*string{
		"severity": in.Severity,
		"status":   in.Status,
	}, "severity", "status"); err != nil {
		return err
	}
	if err := validID("disease_id", in.DiseaseID); err != nil {
		return err
	}
	return validID("diagnosing_doctor_id", in.DiagnosingDoctorID)
}

func (in DiagnosisInput) Fields() []Field {
	fields := make([]Field, 0, 7)
	fields = addField(fields, "visit_id", in.VisitID)
	fields = addField(fields, "disease_id", in.DiseaseID)
	fields = addField(fields, "diagnosis_date", in.DiagnosisDate)
	fields = addField(fields, "diagnosis_notes", in.DiagnosisNotes)
	fields = addField(fields, "diagnosing_doctor_id", in.DiagnosingDoctorID)
	fields = addField(fields, "severity", in.Severity)
	fields = addField(fields, "status", in.Status)
	return fields
}

// UpdateFields leaves out visit_id.
func (in DiagnosisInput) UpdateFields() []Field {
	in.VisitID = nil
	return in.Fields()
}

type PrescriptionItemInput struct {
	MedicationID        *int64  `json:"medication_id"`
	Dosage              *string `json:"dosage"`
	Frequency           *string `json:"frequency"`
	Duration            *int    `json:"duration"`
	DurationUnit        *string `json:"duration_unit"`
	StartDate           *Date   `json:"start_date"`
	EndDate             *Date   `json:"end_date"`
	SpecialInstructions *string `json:"special_instructions"`
}

func (in PrescriptionItemInput) Validate() error {
	if err := firstMissing(
		requirement{"medication_id", hasID(in.MedicationID)},
		requirement{"dosage", hasText(in.Dosage)},
		requirement{"frequency", hasText(in.Frequency)},
		requirement{"duration", in.Duration != nil && *in.Duration > 0},
		requirement{"duration_unit", hasText(in.DurationUnit)},
		requirement{"start_date", hasDate(in.StartDate)},
	); err != nil {
		return err
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate.Time) {
		return invalidField("end_date", "must not be before start_date")
	}
	return nil
}

// Medications is nil when the client did not send the list. On update a
// non-nil list replaces every detail row of the prescription.
type PrescriptionInput struct {
	VisitID          *int64                  `json:"visit_id"`
	PrescribedByID   *int64                  `json:"prescribed_by_id"`
	PrescriptionDate *Date                   `json:"prescription_date"`
	Notes            *string                 `json:"notes"`
	Medications      []PrescriptionItemInput `json:"medications"`
}

func (in PrescriptionInput) ValidateCreate() error {
	if err := firstMissing(
		requirement{"visit_id", hasID(in.VisitID)},
		requirement{"prescribed_by_id", hasID(in.PrescribedByID)},
		requirement{"prescription_date", hasDate(in.PrescriptionDate)},
		requirement{"medications", in.Medications != nil},
	); err != nil {
		return err
	}
	return in.validateMedications()
}

func (in PrescriptionInput) ValidateUpdate() error {
	if err := validID("prescribed_by_id", in.PrescribedByID); err != nil {
		return err
	}
	if in.Medications == nil {
		return nil
	}
	return in.validateMedications()
}

func (in PrescriptionInput) validateMedications() error {
	if len(in.Medications) == 0 {
		return invalidField("medications", "at least one medication is required")
	}
	for _, item := range in.Medications {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HeaderFields lists the prescriptions columns; visit_id only when asked for.
func (in PrescriptionInput) HeaderFields(withVisit bool) []Field {
	fields := make([]Field, 0, 4)
	if withVisit {
		fields = addField(fields, "visit_id", in.VisitID)
	}
	fields = addField(fields, "prescribed_by_id", in.PrescribedByID)
	fields = addField(fields, "prescription_date", in.PrescriptionDate)
	fields = addField(fields, "notes", in.Notes)
	return fields
}

type LabTestInput struct {
	VisitID        *int64     `json:"visit_id"`
	TestName       *string    `json:"test_name"`
	TestDate       *time.Time `json:"test_date"`
	RequestedByID  *int64     `json:"requested_by_id"`
	Results        *string    `json:"results"`
	ResultDate     *time.Time `json:"result_date"`
	NormalRange    *string    `json:"normal_range"`
	Interpretation *string    `json:"interpretation"`
	Status         *string    `json:"status"`
}

func (in LabTestInput) ValidateCreate() error {
	return firstMissing(
		requirement{"visit_id", hasID(in.VisitID)},
		requirement{"test_name", hasText(in.TestName)},
		requirement{"test_date", hasTime(in.TestDate)},
		requirement{"requested_by_id", hasID(in.RequestedByID)},
		requirement{"status", hasText(in.Status)},
	)
}

func (in LabTestInput) ValidateUpdate() error {
	if err := firstBlank(map[string]*string{
		"test_name": in.TestName,
		"status":    in.Status,
	}, "test_name", "status"); err != nil {
		return err
	}
	return validID("requested_by_id", in.RequestedByID)
}

func (in LabTestInput) Fields() []Field {
	fields := make([]Field, 0, 9)
	fields = addField(fields, "visit_id", in.VisitID)
	fields = addField(fields, "test_name", in.TestName)
	fields = addField(fields, "test_date", in.TestDate)
	fields = addField(fields, "requested_by_id", in.RequestedByID)
	fields = addField(fields, "results", in.Results)
	fields = addField(fields, "result_date", in.ResultDate)
	fields = addField(fields, "normal_range", in.NormalRange)
	fields = addField(fields, "interpretation", in.Interpretation)
	fields = addField(fields, "status", in.Status)
	return fields
}

// UpdateFields leaves out visit_id.
func (in LabTestInput) UpdateFields() []Field {
	in.VisitID = nil
	return in.Fields()
}
