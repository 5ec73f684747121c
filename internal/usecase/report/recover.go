package report

import (
	"context"
	"errors"
	"time"

	"neupages/internal/errs"
)

// RecoverOrphans releases claimed descriptors untouched for at least
// olderThan back to pending. This is the explicit operator sweep for claims
// stranded by an unclean worker shutdown.
func (s *Service) RecoverOrphans(ctx context.Context, olderThan time.Duration) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if olderThan <= 0 {
		return nil, errors.New("staleness threshold must be positive")
	}

	recovered, err := s.claims.RecoverStale(ctx, olderThan)
	if err != nil {
		return recovered, errs.Wrap(err, "recover stale claims")
	}
	return recovered, nil
}
