package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/metrics"
)

// Enumerator walks listing pages and collects bounded detail references.
type Enumerator struct {
	backend Backend
	pacer   *Pacer
	logger  *zap.Logger
}

// NewEnumerator builds an Enumerator. pacer spaces successive listing page
// fetches; pass nil to disable pacing.
func NewEnumerator(backend Backend, pacer *Pacer, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{backend: backend, pacer: pacer, logger: logger}
}

// Enumerate collects up to limit detail references from the listing at uri,
// in listing order. It stops as soon as the limit is reached, a fetched
// page yields no references (exhausted result set), or the required page
// count is covered. The result is truncated to limit.
func (e *Enumerator) Enumerate(ctx context.Context, uri string, limit int) ([]DetailReference, error) {
	if limit <= 0 {
		return nil, nil
	}

	maxPage := (limit + PageSize - 1) / PageSize
	refs := make([]DetailReference, 0, limit)

	for page := 1; page <= maxPage; page++ {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		pg, err := e.backend.OpenListing(ctx, uri, page)
		if err != nil {
			return nil, fmt.Errorf("open listing page %d: %w", page, err)
		}
		metrics.IncListingPage()

		elems, err := pg.FindAll(ctx, SelectorListingLink)
		if err != nil {
			return nil, fmt.Errorf("find listing links on page %d: %w", page, err)
		}
		if len(elems) == 0 {
			e.logger.Info("listing exhausted", zap.Int("page", page), zap.Int("collected", len(refs)))
			break
		}

		for _, el := range elems {
			href, ok, err := el.Attr(ctx, "href")
			if err != nil {
				return nil, fmt.Errorf("read listing link on page %d: %w", page, err)
			}
			if !ok || href == "" {
				continue
			}
			refs = append(refs, DetailReference(href))
		}
		e.logger.Debug("listing page collected",
			zap.Int("page", page),
			zap.Int("links", len(elems)),
			zap.Int("collected", len(refs)),
		)

		if len(refs) >= limit {
			break
		}
	}

	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
