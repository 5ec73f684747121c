package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
)

type RunWorkerInput struct {
	// Wait keeps the worker alive when the queue drains, blocking until new
	// work arrives or the context ends. Without it the worker returns once
	// ClaimOne comes back empty.
	Wait bool
}

// PopOne claims and processes exactly one descriptor. It returns the
// processed item id, or "" when no pending work exists.
func (s *Service) PopOne(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}

	descriptor, err := s.claims.ClaimOne(ctx)
	if err != nil {
		return "", errs.Wrap(err, "claim descriptor")
	}
	if descriptor == nil {
		return "", nil
	}

	if err := s.processDescriptor(ctx, descriptor); err != nil {
		// Execution failed after the claim: hand ownership back so another
		// worker (or a retry) can pick the item up. Never complete here.
		if releaseErr := s.claims.Release(ctx, descriptor.ItemID); releaseErr != nil {
			logging.Error(ctx, "release after failure failed",
				slog.String("item_id", descriptor.ItemID), slog.Any("err", errs.Loggable(releaseErr)))
		}
		return "", errs.Wrapf(err, "process %s", descriptor.ItemID)
	}

	if err := s.claims.Complete(ctx, descriptor.ItemID); err != nil {
		// The page is already durable; a lost complete only means the item
		// may run again, which is the documented at-least-once behavior.
		return descriptor.ItemID, errs.Wrapf(err, "complete %s", descriptor.ItemID)
	}
	return descriptor.ItemID, nil
}

// RunWorker loops claim -> process -> complete until the queue is empty (or
// until ctx ends when waiting). It returns the number of items processed.
func (s *Service) RunWorker(ctx context.Context, input RunWorkerInput) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			if input.Wait && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return processed, nil
			}
			return processed, errs.Wrap(err, "check context")
		}

		itemID, err := s.PopOne(ctx)
		if err != nil {
			if input.Wait && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return processed, nil
			}
			return processed, err
		}
		if itemID != "" {
			processed++
			continue
		}

		if !input.Wait {
			return processed, nil
		}
		if err := s.waitForWork(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return processed, nil
			}
			return processed, errs.Wrap(err, "wait for work")
		}
	}
}

// RunWorkers runs count worker loops concurrently in this process, each
// tagged with its own run id. Coordination between them (and with workers in
// other processes) happens entirely through the queue directory.
func (s *Service) RunWorkers(ctx context.Context, count int, input RunWorkerInput) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if count <= 0 {
		return 0, errors.New("worker count must be positive")
	}

	processed := make([]int, count)
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		group.Go(func() error {
			workerCtx := logging.WithAttrs(groupCtx, slog.String("worker_id", uuid.NewString()))
			n, err := s.RunWorker(workerCtx, input)
			processed[i] = n
			return err
		})
	}

	err := group.Wait()
	total := 0
	for _, n := range processed {
		total += n
	}
	if err != nil {
		return total, err
	}
	return total, nil
}

func (s *Service) waitForWork(ctx context.Context) error {
	if s.watcher != nil {
		return s.watcher.Wait(ctx)
	}

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
