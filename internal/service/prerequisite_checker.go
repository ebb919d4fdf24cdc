package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type finalGradeReader interface {
	BestFinal(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error)
}

// checkPrerequisite requires a passing final grade in the course prerequisite, if any.
func checkPrerequisite(ctx context.Context, grades finalGradeReader, studentID string, course *models.Course) error {
	if course.PrerequisiteID == nil || *course.PrerequisiteID == "" || grades == nil {
		return nil
	}
	prerequisite := *course.PrerequisiteID
	grade, err := grades.BestFinal(ctx, studentID, prerequisite)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPrerequisiteUnmet, fmt.Sprintf("prerequisite %s has not been completed", prerequisite))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite grade")
	}
	if !grade.Passed() {
		return appErrors.Clone(appErrors.ErrPrerequisiteUnmet, fmt.Sprintf("prerequisite %s final grade %.2f is below %.1f", prerequisite, grade.FinalGrade, models.PassingGrade))
	}
	return nil
}
