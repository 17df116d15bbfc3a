package service

import (
	"context"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type prescriptionStore interface {
	recordStore[model.Prescription]
	ListByVisit(ctx context.Context, q database.Querier, visitID int64, page model.ListQuery) ([]model.Prescription, model.Meta, error)
	AddItem(ctx context.Context, q database.Querier, prescriptionID int64, item model.PrescriptionItemInput) error
	DeleteItems(ctx context.Context, q database.Querier, prescriptionID int64) error
	Delete(ctx context.Context, q database.Querier, id int64) (bool, error)
}

var prescriberRoles = []model.StaffRole{model.StaffRoleDoctor, model.StaffRolePharmacist}

// PrescriptionService writes a prescription header and its medication lines
// as one unit.
type PrescriptionService struct {
	records[model.Prescription]
	repo        prescriptionStore
	visits      existenceChecker
	medications existenceChecker
	staff       staffRoleChecker
}

func NewPrescriptionService(db Store, repo prescriptionStore, visits existenceChecker, medications existenceChecker, staff staffRoleChecker, audit *AuditService) *PrescriptionService {
	return &PrescriptionService{
		records:     newRecords[model.Prescription](db, repo, audit, "prescriptions", "prescription"),
		repo:        repo,
		visits:      visits,
		medications: medications,
		staff:       staff,
	}
}

func (s *PrescriptionService) Get(ctx context.Context, id int64) (model.Prescription, error) {
	return s.get(ctx, id)
}

func (s *PrescriptionService) ListByVisit(ctx context.Context, visitID int64, page model.ListQuery) ([]model.Prescription, model.Meta, error) {
	if err := requireVisit(ctx, s.db, s.visits, visitID); err != nil {
		return nil, model.Meta{}, err
	}
	return s.repo.ListByVisit(ctx, s.db, visitID, page.Normalize())
}

func (s *PrescriptionService) checkMedications(ctx context.Context, items []model.PrescriptionItemInput) txCheck {
	return func(q database.Querier) error {
		for _, item := range items {
			if err := mustExist(ctx, s.medications, "medication", item.MedicationID)(q); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *PrescriptionService) writeItems(ctx context.Context, q database.Querier, prescriptionID int64, items []model.PrescriptionItemInput) error {
	for _, item := range items {
		if err := s.repo.AddItem(ctx, q, prescriptionID, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *PrescriptionService) Create(ctx context.Context, actor model.Actor, in model.PrescriptionInput) (model.Prescription, error) {
	if err := in.ValidateCreate(); err != nil {
		return model.Prescription{}, validationError(err)
	}

	var created model.Prescription
	err := s.db.InTx(ctx, func(q database.Querier) error {
		checks := []txCheck{
			mustExist(ctx, s.visits, "visit", in.VisitID),
			mustHoldRole(ctx, s.staff, "prescribed_by_id", in.PrescribedByID, prescriberRoles...),
			s.checkMedications(ctx, in.Medications),
		}
		for _, check := range checks {
			if err := check(q); err != nil {
				return err
			}
		}

		id, err := s.repo.Create(ctx, q, in.HeaderFields(true))
		if err != nil {
			return err
		}
		if err := s.writeItems(ctx, q, id, in.Medications); err != nil {
			return err
		}

		created, err = s.find(ctx, q, id)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actorEntry(actor, model.AuditCreate, s.table, id, nil, created))
	})
	if err != nil {
		return model.Prescription{}, err
	}
	return created, nil
}

// Update changes the header fields that were sent. A medications list, when
// present, replaces every existing line.
func (s *PrescriptionService) Update(ctx context.Context, actor model.Actor, id int64, in model.PrescriptionInput) (model.Prescription, error) {
	if err := in.ValidateUpdate(); err != nil {
		return model.Prescription{}, validationError(err)
	}

	fields := in.HeaderFields(false)
	if len(fields) == 0 && in.Medications == nil {
		return model.Prescription{}, errNoUpdatableFields
	}
	if id <= 0 {
		return model.Prescription{}, apierror.Validation("invalid prescription id", "id")
	}

	var updated model.Prescription
	err := s.db.InTx(ctx, func(q database.Querier) error {
		before, err := s.find(ctx, q, id)
		if err != nil {
			return err
		}

		checks := []txCheck{
			mustHoldRole(ctx, s.staff, "prescribed_by_id", in.PrescribedByID, prescriberRoles...),
			s.checkMedications(ctx, in.Medications),
		}
		for _, check := range checks {
			if err := check(q); err != nil {
				return err
			}
		}

		found, err := s.repo.Update(ctx, q, id, fields, s.now())
		if err != nil {
			return err
		}
		if !found {
			return notFound(s.entity, id)
		}

		if in.Medications != nil {
			if err := s.repo.DeleteItems(ctx, q, id); err != nil {
				return err
			}
			if err := s.writeItems(ctx, q, id, in.Medications); err != nil {
				return err
			}
		}

		updated, err = s.find(ctx, q, id)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actorEntry(actor, model.AuditUpdate, s.table, id, before, updated))
	})
	if err != nil {
		return model.Prescription{}, err
	}
	return updated, nil
}

func (s *PrescriptionService) Delete(ctx context.Context, actor model.Actor, id int64) error {
	return s.remove(ctx, actor, id, func(q database.Querier) (bool, error) {
		return s.repo.Delete(ctx, q, id)
	})
}
