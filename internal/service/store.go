package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

// Store is the database handle services query and open transactions on.
// *database.DB satisfies it.
type Store interface {
	database.Querier
	InTx(ctx context.Context, fn func(q database.Querier) error) error
}

type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// validationError turns a model.FieldError into the API validation error.
func validationError(err error) error {
	var fieldErr *model.FieldError
	if errors.As(err, &fieldErr) {
		if fieldErr.Reason == "missing required field" {
			return apierror.MissingField(fieldErr.Field)
		}
		return apierror.Validation(fieldErr.Error(), fieldErr.Field)
	}
	if errors.Is(err, model.ErrInvalidInput) {
		return apierror.Validation(err.Error(), "")
	}
	return err
}

func notFound(entity string, id int64) error {
	return apierror.NotFound(entity+" not found", strconv.FormatInt(id, 10))
}

// conflictOr maps a unique violation to a Conflict and passes everything else through.
func conflictOr(err error, message string) error {
	if constraint, ok := database.IsUniqueViolation(err); ok {
		return apierror.Conflict(message, constraint)
	}
	return err
}

var errNoUpdatableFields = apierror.Validation("no valid fields to update", "")
