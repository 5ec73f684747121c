package report

import (
	"context"
	"errors"
	"log/slog"

	"neupages/internal/bootstrap/logging"
	domainreport "neupages/internal/domain/report"
	"neupages/internal/errs"
)

type FillQueueInput struct {
	// NeuronTypes to enqueue; ignored when All is set.
	NeuronTypes []string
	// All enqueues every neuron type the source knows.
	All bool
}

type FillQueueResult struct {
	Enqueued []string
	Skipped  []string
}

// FillQueue enqueues one page-generation descriptor per neuron type and
// records every requested id in the manifest. Types already pending or
// claimed are skipped, not overwritten.
func (s *Service) FillQueue(ctx context.Context, input FillQueueInput) (FillQueueResult, error) {
	if ctx == nil {
		return FillQueueResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return FillQueueResult{}, errs.Wrap(err, "check context")
	}

	neuronTypes := input.NeuronTypes
	if input.All {
		discovered, err := s.source.NeuronTypes(ctx)
		if err != nil {
			return FillQueueResult{}, errs.Wrap(err, "discover neuron types")
		}
		neuronTypes = discovered
	}
	if len(neuronTypes) == 0 {
		return FillQueueResult{}, errors.New("no neuron types to enqueue")
	}

	for _, neuronType := range neuronTypes {
		if err := domainreport.ValidateItemID(neuronType); err != nil {
			return FillQueueResult{}, errs.Wrapf(err, "validate neuron type %q", neuronType)
		}
	}

	// The manifest records every type ever scheduled. Merging before the
	// enqueue loop keeps that true even when a later enqueue fails partway.
	if err := s.manifest.Merge(ctx, neuronTypes); err != nil {
		return FillQueueResult{}, errs.Wrap(err, "merge manifest")
	}

	var result FillQueueResult
	for _, neuronType := range neuronTypes {
		payload, err := domainreport.EncodePagePayload(domainreport.NewPagePayload(neuronType, s.opts.Dataset))
		if err != nil {
			return result, errs.Wrapf(err, "encode payload for %s", neuronType)
		}

		// A lost enqueue silently drops work, so failures here are fatal.
		enqueued, err := s.queue.Enqueue(ctx, neuronType, payload)
		if err != nil {
			return result, errs.Wrapf(err, "enqueue %s", neuronType)
		}
		if enqueued {
			result.Enqueued = append(result.Enqueued, neuronType)
		} else {
			result.Skipped = append(result.Skipped, neuronType)
		}
	}

	logging.Info(ctx, "queue filled",
		slog.Int("enqueued", len(result.Enqueued)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
