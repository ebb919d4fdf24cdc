package service

import (
	"context"
	"time"

	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type registrationPeriodReader interface {
	ListActiveByTerm(ctx context.Context, term models.TermRef) ([]models.RegistrationPeriod, error)
}

// checkWindow returns the first period that is active and contains now (bounds inclusive).
func checkWindow(periods []models.RegistrationPeriod, now time.Time) (*models.RegistrationPeriod, bool) {
	for i := range periods {
		period := periods[i]
		if period.Status != models.RegistrationPeriodActive {
			continue
		}
		if now.Before(period.StartAt) || now.After(period.EndAt) {
			continue
		}
		return &period, true
	}
	return nil, false
}

// RegistrationWindowGate rejects schedule mutations outside an open registration period.
type RegistrationWindowGate struct {
	periods registrationPeriodReader
	now     func() time.Time
}

// NewRegistrationWindowGate builds a gate; a nil clock uses time.Now.
func NewRegistrationWindowGate(periods registrationPeriodReader, now func() time.Time) *RegistrationWindowGate {
	if now == nil {
		now = time.Now
	}
	return &RegistrationWindowGate{periods: periods, now: now}
}

// Check loads the term's periods and evaluates them against the current time on every call.
func (g *RegistrationWindowGate) Check(ctx context.Context, term models.TermRef) (*models.RegistrationPeriod, error) {
	periods, err := g.periods.ListActiveByTerm(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration periods")
	}
	period, ok := checkWindow(periods, g.now())
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "")
	}
	return period, nil
}
