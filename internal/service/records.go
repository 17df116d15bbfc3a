package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type recordStore[T any] interface {
	FindByID(ctx context.Context, q database.Querier, id int64) (T, error)
	Create(ctx context.Context, q database.Querier, fields []model.Field) (int64, error)
	Update(ctx context.Context, q database.Querier, id int64, fields []model.Field, now time.Time) (bool, error)
}

type existenceChecker interface {
	Exists(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type staffRoleChecker interface {
	existenceChecker
	HasRole(ctx context.Context, q database.Querier, id int64, roles ...model.StaffRole) (bool, error)
}

// txCheck runs inside the write transaction before the row is touched.
type txCheck func(q database.Querier) error

// records holds the read/create/update/delete plumbing shared by every
// clinical entity. Each write and its audit entry share one transaction.
type records[T any] struct {
	db     Store
	store  recordStore[T]
	audit  *AuditService
	table  string
	entity string
	now    clock
}

func newRecords[T any](db Store, store recordStore[T], audit *AuditService, table string, entity string) records[T] {
	return records[T]{db: db, store: store, audit: audit, table: table, entity: entity, now: systemClock}
}

func isMissingRecord(err error) bool {
	return errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrStaffNotFound)
}

func (r records[T]) find(ctx context.Context, q database.Querier, id int64) (T, error) {
	item, err := r.store.FindByID(ctx, q, id)
	if isMissingRecord(err) {
		var zero T
		return zero, notFound(r.entity, id)
	}
	return item, err
}

func (r records[T]) get(ctx context.Context, id int64) (T, error) {
	if id <= 0 {
		var zero T
		return zero, apierror.Validation("invalid "+r.entity+" id", "id")
	}
	return r.find(ctx, r.db, id)
}

func (r records[T]) create(ctx context.Context, actor model.Actor, fields []model.Field, conflictMsg string, checks ...txCheck) (T, error) {
	var created T
	err := r.db.InTx(ctx, func(q database.Querier) error {
		for _, check := range checks {
			if err := check(q); err != nil {
				return err
			}
		}

		id, err := r.store.Create(ctx, q, fields)
		if err != nil {
			return conflictOr(err, conflictMsg)
		}

		created, err = r.find(ctx, q, id)
		if err != nil {
			return err
		}

		return r.audit.Record(ctx, q, actorEntry(actor, model.AuditCreate, r.table, id, nil, created))
	})
	return created, err
}

func (r records[T]) update(ctx context.Context, actor model.Actor, id int64, fields []model.Field, conflictMsg string, checks ...txCheck) (T, error) {
	var zero, updated T
	if id <= 0 {
		return zero, apierror.Validation("invalid "+r.entity+" id", "id")
	}
	if len(fields) == 0 {
		return zero, errNoUpdatableFields
	}

	err := r.db.InTx(ctx, func(q database.Querier) error {
		before, err := r.find(ctx, q, id)
		if err != nil {
			return err
		}

		for _, check := range checks {
			if err := check(q); err != nil {
				return err
			}
		}

		found, err := r.store.Update(ctx, q, id, fields, r.now())
		if err != nil {
			return conflictOr(err, conflictMsg)
		}
		if !found {
			return notFound(r.entity, id)
		}

		updated, err = r.find(ctx, q, id)
		if err != nil {
			return err
		}

		return r.audit.Record(ctx, q, actorEntry(actor, model.AuditUpdate, r.table, id, before, updated))
	})
	if err != nil {
		return zero, err
	}
	return updated, nil
}

// remove deletes the row with del after the guards pass. Guards report rows
// that still depend on the record.
func (r records[T]) remove(ctx context.Context, actor model.Actor, id int64, del func(q database.Querier) (bool, error), guards ...txCheck) error {
	if id <= 0 {
		return apierror.Validation("invalid "+r.entity+" id", "id")
	}

	return r.db.InTx(ctx, func(q database.Querier) error {
		before, err := r.find(ctx, q, id)
		if err != nil {
			return err
		}

		for _, guard := range guards {
			if err := guard(q); err != nil {
				return err
			}
		}

		found, err := del(q)
		if database.IsForeignKeyViolation(err) {
			return apierror.Validation("cannot delete "+r.entity+": it is still referenced", "")
		}
		if err != nil {
			return err
		}
		if !found {
			return notFound(r.entity, id)
		}

		return r.audit.Record(ctx, q, actorEntry(actor, model.AuditDelete, r.table, id, before, nil))
	})
}

// mustExist fails with NotFound when the referenced row is absent.
func mustExist(ctx context.Context, checker existenceChecker, entity string, id *int64) txCheck {
	return func(q database.Querier) error {
		if id == nil {
			return nil
		}
		ok, err := checker.Exists(ctx, q, *id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(entity, *id)
		}
		return nil
	}
}

// mustHoldRole fails with NotFound for an unknown staff member and with a
// validation error when the member holds none of roles.
func mustHoldRole(ctx context.Context, staff staffRoleChecker, field string, id *int64, roles ...model.StaffRole) txCheck {
	return func(q database.Querier) error {
		if id == nil {
			return nil
		}
		if err := mustExist(ctx, staff, "staff member", id)(q); err != nil {
			return err
		}
		ok, err := staff.HasRole(ctx, q, *id, roles...)
		if err != nil {
			return err
		}
		if !ok {
			return apierror.Validation(field+" must reference a staff member with role "+joinRoles(roles), field)
		}
		return nil
	}
}

func joinRoles(roles []model.StaffRole) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = role.String()
	}
	return strings.Join(names, " or ")
}

// refuseWhile blocks a delete while dependent rows exist.
func refuseWhile(ctx context.Context, id int64, inUse func(ctx context.Context, q database.Querier, id int64) (bool, error), message string) txCheck {
	return func(q database.Querier) error {
		used, err := inUse(ctx, q, id)
		if err != nil {
			return err
		}
		if used {
			return apierror.Validation(message, "")
		}
		return nil
	}
}
