package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type activeTermReader interface {
	FindActive(ctx context.Context) (*models.Term, error)
}

// resolveTerm uses the explicit term when both parts are given, otherwise the active term.
func resolveTerm(ctx context.Context, terms activeTermReader, semester int, academicYear string) (models.TermRef, error) {
	ref := models.TermRef{Semester: semester, AcademicYear: academicYear}
	if ref.Semester > 0 && ref.AcademicYear != "" {
		return ref, nil
	}
	if !ref.IsZero() {
		return models.TermRef{}, appErrors.Clone(appErrors.ErrValidation, "semester and academicYear must be provided together")
	}
	term, err := terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TermRef{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active term configured")
		}
		return models.TermRef{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current term")
	}
	return term.Ref(), nil
}
