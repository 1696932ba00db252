package service

import (
	"context"
	"errors"
	"time"

	"sealedreg/internal/audit"
	dErrors "sealedreg/pkg/domain-errors"
	"sealedreg/pkg/platform/sentinel"
)

// translateStoreErr maps sentinel infrastructure errors onto the domain error
// taxonomy. Already-coded errors pass through untouched.
func translateStoreErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeDuplicateOwner, "owner already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "no record for owner")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeAlreadyDecrypted, "record already finalized")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "record store failure")
	}
}

func (s *Service) reject(ctx context.Context, code dErrors.Code, attrs ...any) {
	if s.metrics != nil {
		s.metrics.IncrementRejection(string(code))
	}
	args := append([]any{"reason", string(code)}, attrs...)
	s.logger.WarnContext(ctx, "operation rejected", args...)
}

func (s *Service) emit(ctx context.Context, action audit.Action, owner string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{Action: action, Owner: owner}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}

func (s *Service) observeAdmission(n int, batch bool) {
	if s.metrics == nil {
		return
	}
	if batch {
		s.metrics.BatchRegistrationsTotal.Inc()
	} else {
		s.metrics.RegistrationsTotal.Inc()
	}
	s.syncGauges()
}

func (s *Service) observeFinalize(latency time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.FinalizationsTotal.Inc()
	s.metrics.DecryptionLatency.Observe(latency.Seconds())
	s.syncGauges()
}

func (s *Service) observeFinalizeDuration(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveFinalize(start)
	}
}

func (s *Service) syncGauges() {
	snap := s.agg.Snapshot()
	s.metrics.RecordsTotal.Set(float64(snap.TotalRecords))
	s.metrics.RecordsDecrypted.Set(float64(snap.DecryptedRecords))
}
