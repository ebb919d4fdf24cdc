package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type registrationPeriodCloser interface {
	EndExpired(ctx context.Context, now time.Time) (int64, error)
}

type periodSyncMetrics interface {
	AddPeriodsEnded(n int64)
}

// RegistrationPeriodService keeps stored period statuses in line with their end dates. It only
// ends periods; opening one stays an administrative action.
type RegistrationPeriodService struct {
	repo    registrationPeriodCloser
	metrics periodSyncMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewRegistrationPeriodService constructs the service.
func NewRegistrationPeriodService(repo registrationPeriodCloser, metrics periodSyncMetrics, logger *zap.Logger) *RegistrationPeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	return &RegistrationPeriodService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// SyncStatuses marks active periods whose end has passed as ended.
func (s *RegistrationPeriodService) SyncStatuses(ctx context.Context) error {
	changed, err := s.repo.EndExpired(ctx, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync registration periods")
	}
	if changed > 0 {
		s.logger.Info("registration periods ended", zap.Int64("count", changed))
		s.metrics.AddPeriodsEnded(changed)
	}
	return nil
}
