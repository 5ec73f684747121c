package report

import (
	"context"
	"errors"

	domainreport "neupages/internal/domain/report"
	"neupages/internal/errs"
	"neupages/internal/ports"
)

// QueueStatus reports pending/claimed counts and ages for the CLI.
func (s *Service) QueueStatus(ctx context.Context) (ports.QueueStatus, error) {
	if ctx == nil {
		return ports.QueueStatus{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.QueueStatus{}, errs.Wrap(err, "check context")
	}
	return s.queue.Status(ctx)
}

// CacheStats reports cache accounting when the wired cache supports it.
func (s *Service) CacheStats(ctx context.Context) (ports.CacheStats, error) {
	if ctx == nil {
		return ports.CacheStats{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.CacheStats{}, errs.Wrap(err, "check context")
	}

	inspector, ok := s.cache.(ports.CacheInspector)
	if !ok {
		return ports.CacheStats{}, errors.New("cache does not expose stats")
	}
	return inspector.Stats(ctx)
}

// InvalidatePage drops the cached page for one neuron type, forcing the next
// worker run to recompute it.
func (s *Service) InvalidatePage(ctx context.Context, neuronType string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if err := domainreport.ValidateItemID(neuronType); err != nil {
		return err
	}

	key := domainreport.PageCacheKey(domainreport.NewPagePayload(neuronType, s.opts.Dataset))
	return s.cache.Invalidate(ctx, key)
}

// ScheduledTypes returns every neuron type ever scheduled, from the
// manifest, without touching the expensive source.
func (s *Service) ScheduledTypes(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return s.manifest.Read(ctx)
}

// Ping verifies the source connection and returns the datasets it serves.
func (s *Service) Ping(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return s.source.Datasets(ctx)
}
