package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"neupages/internal/bootstrap/logging"
	domainreport "neupages/internal/domain/report"
	"neupages/internal/errs"
	"neupages/internal/infrastructure/fsatomic"
	"neupages/internal/ports"
)

// processDescriptor executes one claimed unit of work: resolve the page
// through the cache (fetching from the source on miss) and write it into
// the output directory. The caller owns the claim and must complete or
// release it depending on the returned error.
func (s *Service) processDescriptor(ctx context.Context, descriptor *ports.WorkDescriptor) error {
	payload, err := domainreport.DecodePagePayload(descriptor.Payload)
	if err != nil {
		return errs.Wrapf(err, "decode payload for %s", descriptor.ItemID)
	}

	s.warmROIHierarchy(ctx, payload.Dataset)

	key := domainreport.PageCacheKey(payload)
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return errs.Wrapf(err, "cache lookup for %s", descriptor.ItemID)
	}

	if !found {
		summary, err := s.source.NeuronSummary(ctx, payload.NeuronType)
		if err != nil {
			return errs.Wrapf(err, "fetch summary for %s", payload.NeuronType)
		}

		page := domainreport.BuildPage(summary, payload.Dataset, time.Now())
		raw, err = json.MarshalIndent(page, "", "  ")
		if err != nil {
			return errs.Wrapf(err, "encode page for %s", payload.NeuronType)
		}

		if err := s.cache.Put(ctx, key, raw, s.opts.CacheTTL); err != nil {
			return errs.Wrapf(err, "cache page for %s", payload.NeuronType)
		}
	}

	pagePath := filepath.Join(s.opts.OutputDir, descriptor.ItemID+".json")
	if err := fsatomic.WriteFile(pagePath, raw, 0o644); err != nil {
		return errs.Wrapf(err, "write page for %s", descriptor.ItemID)
	}

	logging.Info(ctx, "page generated",
		slog.String("item_id", descriptor.ItemID),
		slog.Bool("cache_hit", found),
		slog.String("path", pagePath),
	)
	return nil
}

// warmROIHierarchy caches the dataset's ROI hierarchy once per process so
// index generation after the run needs no source queries. Best-effort: the
// hierarchy is an enrichment, never a prerequisite for a page.
func (s *Service) warmROIHierarchy(ctx context.Context, dataset string) {
	s.roiWarmOnce.Do(func() {
		key := domainreport.ROIHierarchyCacheKey(dataset)

		if _, found, err := s.cache.Get(ctx, key); err != nil || found {
			return
		}

		hierarchy, err := s.source.ROIHierarchy(ctx)
		if err != nil {
			logging.Warn(ctx, "roi hierarchy fetch failed", slog.Any("err", errs.Loggable(err)))
			return
		}
		if err := s.cache.Put(ctx, key, hierarchy, s.opts.CacheTTL); err != nil {
			logging.Warn(ctx, "roi hierarchy cache write failed", slog.Any("err", errs.Loggable(err)))
		}
	})
}
