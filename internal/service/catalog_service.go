package service

import (
	"context"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

type patientStore interface {
	recordStore[model.Patient]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Patient, model.Meta, error)
	HasVisits(ctx context.Context, q database.Querier, id int64) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type PatientService struct {
	records[model.Patient]
	repo patientStore
}

func NewPatientService(db Store, repo patientStore, audit *AuditService) *PatientService {
	return &PatientService{records: newRecords[model.Patient](db, repo, audit, "patients", "patient"), repo: repo}
}

func (s *PatientService) Get(ctx context.Context, id int64) (model.Patient, error) {
	return s.get(ctx, id)
}

func (s *PatientService) List(ctx context.Context, page model.ListQuery) ([]model.Patient, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *PatientService) Create(ctx context.Context, actor model.Actor, in model.PatientInput) (model.Patient, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Patient{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "patient already exists")
}

func (s *PatientService) Update(ctx context.Context, actor model.Actor, id int64, in model.PatientInput) (model.Patient, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Patient{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "patient already exists")
}

// Delete also drops the patient's medical history.
func (s *PatientService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id,
		func(q database.Querier) (bool, error) { return s.repo.Delete(ctx, q, id) },
		refuseWhile(ctx, id, s.repo.HasVisits, "cannot delete a patient with recorded visits"),
	)
}

type departmentStore interface {
	recordStore[model.Department]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Department, model.Meta, error)
	HasStaff(ctx context.Context, q database.Querier, id int64) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type DepartmentService struct {
	records[model.Department]
	repo departmentStore
}

func NewDepartmentService(db Store, repo departmentStore, audit *AuditService) *DepartmentService {
	return &DepartmentService{records: newRecords[model.Department](db, repo, audit, "departments", "department"), repo: repo}
}

func (s *DepartmentService) Get(ctx context.Context, id int64) (model.Department, error) {
	return s.get(ctx, id)
}

func (s *DepartmentService) List(ctx context.Context, page model.ListQuery) ([]model.Department, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *DepartmentService) Create(ctx context.Context, actor model.Actor, in model.DepartmentInput) (model.Department, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Department{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "department name already exists")
}

func (s *DepartmentService) Update(ctx context.Context, actor model.Actor, id int64, in model.DepartmentInput) (model.Department, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Department{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "department name already exists")
}

func (s *DepartmentService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id,
		func(q database.Querier) (bool, error) { return s.repo.Delete(ctx, q, id) },
		refuseWhile(ctx, id, s.repo.HasStaff, "cannot delete a department that still has staff assigned"),
	)
}

type diseaseStore interface {
	recordStore[model.Disease]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Disease, model.Meta, error)
	InUse(ctx context.Context, q database.Querier, id int64) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type DiseaseService struct {
	records[model.Disease]
	repo diseaseStore
}

func NewDiseaseService(db Store, repo diseaseStore, audit *AuditService) *DiseaseService {
	return &DiseaseService{records: newRecords[model.Disease](db, repo, audit, "diseases", "disease"), repo: repo}
}

func (s *DiseaseService) Get(ctx context.Context, id int64) (model.Disease, error) {
	return s.get(ctx, id)
}

func (s *DiseaseService) List(ctx context.Context, page model.ListQuery) ([]model.Disease, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *DiseaseService) Create(ctx context.Context, actor model.Actor, in model.DiseaseInput) (model.Disease, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Disease{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "disease already exists")
}

func (s *DiseaseService) Update(ctx context.Context, actor model.Actor, id int64, in model.DiseaseInput) (model.Disease, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Disease{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "disease already exists")
}

func (s *DiseaseService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id,
		func(q database.Querier) (bool, error) { return s.repo.Delete(ctx, q, id) },
		refuseWhile(ctx, id, s.repo.InUse, "cannot delete a disease referenced by diagnoses"),
	)
}

type medicationStore interface {
	recordStore[model.Medication]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Medication, model.Meta, error)
	InUse(ctx context.Context, q database.Querier, id int64) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type MedicationService struct {
	records[model.Medication]
	repo medicationStore
}

func NewMedicationService(db Store, repo medicationStore, audit *AuditService) *MedicationService {
	return &MedicationService{records: newRecords[model.Medication](db, repo, audit, "medications", "medication"), repo: repo}
}

func (s *MedicationService) Get(ctx context.Context, id int64) (model.Medication, error) {
	return s.get(ctx, id)
}

func (s *MedicationService) List(ctx context.Context, page model.ListQuery) ([]model.Medication, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *MedicationService) Create(ctx context.Context, actor model.Actor, in model.MedicationInput) (model.Medication, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Medication{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "medication already exists")
}

func (s *MedicationService) Update(ctx context.Context, actor model.Actor, id int64, in model.MedicationInput) (model.Medication, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Medication{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "medication already exists")
}

func (s *MedicationService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id,
		func(q database.Querier) (bool, error) { return s.repo.Delete(ctx, q, id) },
		refuseWhile(ctx, id, s.repo.InUse, "cannot delete a medication referenced by prescriptions"),
	)
}

type staffStore interface {
	recordStore[model.Staff]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Staff, model.Meta, error)
	HasVisits(ctx context.Context, q database.Querier, id int64) (bool, error)
	HasAccount(ctx context.Context, q database.Querier, id int64) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type StaffService struct {
	records[model.Staff]
	repo        staffStore
	departments existenceChecker
}

func NewStaffService(db Store, repo staffStore, departments existenceChecker, audit *AuditService) *StaffService {
	return &StaffService{
		records:     newRecords[model.Staff](db, repo, audit, "staff", "staff member"),
		repo:        repo,
		departments: departments,
	}
}

func (s *StaffService) Get(ctx context.Context, id int64) (model.Staff, error) {
	return s.get(ctx, id)
}

func (s *StaffService) List(ctx context.Context, page model.ListQuery) ([]model.Staff, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *StaffService) Create(ctx context.Context, actor model.Actor, in model.StaffInput) (model.Staff, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Staff{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "staff email or license number already exists",
		mustExist(ctx, s.departments, "department", in.DepartmentID))
}

func (s *StaffService) Update(ctx context.Context, actor model.Actor, id int64, in model.StaffInput) (model.Staff, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Staff{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "staff email or license number already exists",
		mustExist(ctx, s.departments, "department", in.DepartmentID))
}

func (s *StaffService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id,
		func(q database.Querier) (bool, error) { return s.repo.Delete(ctx, q, id) },
		refuseWhile(ctx, id, s.repo.HasVisits, "cannot delete a staff member who attends visits"),
		refuseWhile(ctx, id, s.repo.HasAccount, "cannot delete a staff member with a user account"),
	)
}
