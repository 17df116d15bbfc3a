package model

import "time"

type Department struct {
	ID          int64     `json:"department_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Patient struct {
	ID                       int64     `json:"patient_id"`
	FirstName                string    `json:"first_name"`
	LastName                 string    `json:"last_name"`
	DateOfBirth              Date      `json:"date_of_birth"`
	Gender                   string    `json:"gender"`
	BloodType                *string   `json:"blood_type"`
	Address                  string    `json:"address"`
	City                     string    `json:"city"`
	State                    string    `json:"state"`
	PostalCode               string    `json:"postal_code"`
	Country                  string    `json:"country"`
	Phone                    string    `json:"phone"`
	Email                    *string   `json:"email"`
	EmergencyContactName     *string   `json:"emergency_contact_name"`
	EmergencyContactPhone    *string   `json:"emergency_contact_phone"`
	EmergencyContactRelation *string   `json:"emergency_contact_relation"`
	InsuranceProvider        *string   `json:"insurance_provider"`
	InsurancePolicyNumber    *string   `json:"insurance_policy_number"`
	Allergies                *string   `json:"allergies"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

type Staff struct {
	ID             int64     `json:"staff_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           StaffRole `json:"role"`
	DepartmentID   *int64    `json:"department_id"`
	Specialization *string   `json:"specialization"`
	LicenseNumber  *string   `json:"license_number"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	HireDate       Date      `json:"hire_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Disease struct {
	ID          int64     `json:"disease_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ICDCode     *string   `json:"icd_code"`
	Category    *string   `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Medication struct {
	ID           int64     `json:"medication_id"`
	Name         string    `json:"name"`
	GenericName  *string   `json:"generic_name"`
	Description  *string   `json:"description"`
	DosageForm   *string   `json:"dosage_form"`
	Strength     *string   `json:"strength"`
	Manufacturer *string   `json:"manufacturer"`
	UnitPrice    float64   `json:"unit_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Visit carries the patient and attending doctor names joined in on read.
type Visit struct {
	ID                int64      `json:"visit_id"`
	PatientID         int64      `json:"patient_id"`
	VisitDate         time.Time  `json:"visit_date"`
	VisitType         string     `json:"visit_type"`
	PrimaryComplaint  string     `json:"primary_complaint"`
	InitialDiagnosis  *string    `json:"initial_diagnosis"`
	FinalDiagnosis    *string    `json:"final_diagnosis"`
	AttendingDoctorID int64      `json:"attending_doctor_id"`
	VitalSigns        *string    `json:"vital_signs"`
	VisitNotes        *string    `json:"visit_notes"`
	DischargeDate     *time.Time `json:"discharge_date"`
	DischargeNotes    *string    `json:"discharge_notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	PatientFirstName  string     `json:"patient_first_name"`
	PatientLastName   string     `json:"patient_last_name"`
	DoctorFirstName   string     `json:"doctor_first_name"`
	DoctorLastName    string     `json:"doctor_last_name"`
}

type Diagnosis struct {
	ID                 int64     `json:"diagnosis_id"`
	VisitID            int64     `json:"visit_id"`
	DiseaseID          int64     `json:"disease_id"`
	DiagnosisDate      Date      `json:"diagnosis_date"`
	DiagnosisNotes     *string   `json:"diagnosis_notes"`
	DiagnosingDoctorID int64     `json:"diagnosing_doctor_id"`
	Severity           string    `json:"severity"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	DiseaseName        string    `json:"disease_name"`
	DoctorFirstName    string    `json:"doctor_first_name"`
	DoctorLastName     string    `json:"doctor_last_name"`
}

type Prescription struct {
	ID               int64              `json:"prescription_id"`
	VisitID          int64              `json:"visit_id"`
	PrescribedByID   int64              `json:"prescribed_by_id"`
	PrescriptionDate Date               `json:"prescription_date"`
	Notes            *string            `json:"notes"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DoctorFirstName  string             `json:"doctor_first_name"`
	DoctorLastName   string             `json:"doctor_last_name"`
	Medications      []PrescriptionItem `json:"medications"`
}

// PrescriptionItem is one prescription_details row.
type PrescriptionItem struct {
	ID                  int64   `json:"detail_id"`
	PrescriptionID      int64   `json:"prescription_id"`
	MedicationID        int64   `json:"medication_id"`
	Dosage              string  `json:"dosage"`
	Frequency           string  `json:"frequency"`
	Duration            int     `json:"duration"`
	DurationUnit        string  `json:"duration_unit"`
	StartDate           Date    `json:"start_date"`
	EndDate             *Date   `json:"end_date"`
	SpecialInstructions *string `json:"special_instructions"`
	MedicationName      string  `json:"medication_name"`
	GenericName         *string `json:"generic_name"`
}

type LabTest struct {
	ID              int64      `json:"lab_test_id"`
	VisitID         int64      `json:"visit_id"`
	TestName        string     `json:"test_name"`
	TestDate        time.Time  `json:"test_date"`
	RequestedByID   int64      `json:"requested_by_id"`
	Results         *string    `json:"results"`
	ResultDate      *time.Time `json:"result_date"`
	NormalRange     *string    `json:"normal_range"`
	Interpretation  *string    `json:"interpretation"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DoctorFirstName string     `json:"doctor_first_name"`
	DoctorLastName  string     `json:"doctor_last_name"`
}
