package service

import (
	"context"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type visitStore interface {
	recordStore[model.Visit]
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.Visit, model.Meta, error)
	DeleteCascade(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type VisitService struct {
	records[model.Visit]
	repo     visitStore
	patients existenceChecker
	staff    staffRoleChecker
}

func NewVisitService(db Store, repo visitStore, patients existenceChecker, staff staffRoleChecker, audit *AuditService) *VisitService {
	return &VisitService{
		records:  newRecords[model.Visit](db, repo, audit, "visits", "visit"),
		repo:     repo,
		patients: patients,
		staff:    staff,
	}
}

func (s *VisitService) Get(ctx context.Context, id int64) (model.Visit, error) {
	return s.get(ctx, id)
}

func (s *VisitService) List(ctx context.Context, page model.ListQuery) ([]model.Visit, model.Meta, error) {
	return s.repo.List(ctx, s.db, page.Normalize())
}

func (s *VisitService) Create(ctx context.Context, actor model.Actor, in model.VisitInput) (model.Visit, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Visit{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "visit already exists",
		mustExist(ctx, s.patients, "patient", in.PatientID),
		mustHoldRole(ctx, s.staff, "attending_doctor_id", in.AttendingDoctorID, model.StaffRoleDoctor),
	)
}

func (s *VisitService) Update(ctx context.Context, actor model.Actor, id int64, in model.VisitInput) (model.Visit, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Visit{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.Fields(), "visit already exists",
		mustExist(ctx, s.patients, "patient", in.PatientID),
		mustHoldRole(ctx, s.staff, "attending_doctor_id", in.AttendingDoctorID, model.StaffRoleDoctor),
	)
}

// Delete removes the visit together with its diagnoses, prescriptions, lab
// tests and bills.
func (s *VisitService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id, func(q database.Querier) (bool, error) {
		return s.repo.DeleteCascade(ctx, q, id)
	})
}

// requireVisit backs the per-visit list routes: an unknown visit is a 404,
// not an empty page.
func requireVisit(ctx context.Context, db database.Querier, visits existenceChecker, visitID int64) error {
	if visitID <= 0 {
		return apierror.Validation("invalid visit id", "visitId")
	}
	return mustExist(ctx, visits, "visit", &visitID)(db)
}

type diagnosisStore interface {
	recordStore[model.Diagnosis]
	ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.Diagnosis, model.Meta, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type DiagnosisService struct {
	records[model.Diagnosis]
	repo     diagnosisStore
	visits   existenceChecker
	diseases existenceChecker
	staff    staffRoleChecker
}

func NewDiagnosisService(db Store, repo diagnosisStore, visits existenceChecker, diseases existenceChecker, staff staffRoleChecker, audit *AuditService) *DiagnosisService {
	return &DiagnosisService{
		records:  newRecords[model.Diagnosis](db, repo, audit, "diagnoses", "diagnosis"),
		repo:     repo,
		visits:   visits,
		diseases: diseases,
		staff:    staff,
	}
}

func (s *DiagnosisService) Get(ctx context.Context, id int64) (model.Diagnosis, error) {
	return s.get(ctx, id)
}

func (s *DiagnosisService) ListByVisit(ctx context.Context, visitID int64, page model.ListQuery) ([]model.Diagnosis, model.Meta, error) {
	if err := requireVisit(ctx, s.db, s.visits, visitID); err != nil {
		return nil, model.Meta{}, err
	}
	return s.repo.ListByVisit(ctx, s.db, visitID, page.Normalize())
}

func (s *DiagnosisService) Create(ctx context.Context, actor model.Actor, in model.DiagnosisInput) (model.Diagnosis, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Diagnosis{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "diagnosis already exists",
		mustExist(ctx, s.visits, "visit", in.VisitID),
		mustExist(ctx, s.diseases, "disease", in.DiseaseID),
		mustHoldRole(ctx, s.staff, "diagnosing_doctor_id", in.DiagnosingDoctorID, model.StaffRoleDoctor),
	)
}

func (s *DiagnosisService) Update(ctx context.Context, actor model.Actor, id int64, in model.DiagnosisInput) (model.Diagnosis, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Diagnosis{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.UpdateFields(), "diagnosis already exists",
		mustExist(ctx, s.diseases, "disease", in.DiseaseID),
		mustHoldRole(ctx, s.staff, "diagnosing_doctor_id", in.DiagnosingDoctorID, model.StaffRoleDoctor),
	)
}

func (s *DiagnosisService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id, func(q database.Querier) (bool, error) {
		return s.repo.Delete(ctx, q, id)
	})
}

type labTestStore interface {
	recordStore[model.LabTest]
	ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.LabTest, model.Meta, error)
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type LabTestService struct {
	records[model.LabTest]
	repo   labTestStore
	visits existenceChecker
	staff  staffRoleChecker
}

func NewLabTestService(db Store, repo labTestStore, visits existenceChecker, staff staffRoleChecker, audit *AuditService) *LabTestService {
	return &LabTestService{
		records: newRecords[model.LabTest](db, repo, audit, "lab_tests", "lab test"),
		repo:    repo,
		visits:  visits,
		staff:   staff,
	}
}

func (s *LabTestService) Get(ctx context.Context, id int64) (model.LabTest, error) {
	return s.get(ctx, id)
}

func (s *LabTestService) ListByVisit(ctx context.Context, visitID int64, page model.ListQuery) ([]model.LabTest, model.Meta, error) {
	if err := requireVisit(ctx, s.db, s.visits, visitID); err != nil {
		return nil, model.Meta{}, err
	}
	return s.repo.ListByVisit(ctx, s.db, visitID, page.Normalize())
}

func (s *LabTestService) Create(ctx context.Context, actor model.Actor, in model.LabTestInput) (model.LabTest, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.LabTest{}, validationError(err)
	}
	return s.create(ctx, actor, in.Fields(), "lab test already exists",
		mustExist(ctx, s.visits, "visit", in.VisitID),
		mustHoldRole(ctx, s.staff, "requested_by_id", in.RequestedByID, model.StaffRoleDoctor),
	)
}

func (s *LabTestService) Update(ctx context.Context, actor model.Actor, id int64, in model.LabTestInput) (model.LabTest, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.LabTest{}, validationError(err)
	}
	return s.update(ctx, actor, id, in.UpdateFields(), "lab test already exists",
		mustHoldRole(ctx, s.staff, "requested_by_id", in.RequestedByID, model.StaffRoleDoctor),
	)
}

func (s *LabTestService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id, func(q database.Querier) (bool, error) {
		return s.repo.Delete(ctx, q, id)
	})
}
