package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/metrics"
)

// Extractor turns one detail reference into a finalized Shop record.
type Extractor struct {
	backend  Backend
	resolver *Resolver
	retry    RetryConfig
	logger   *zap.Logger
}

// NewExtractor builds an Extractor around the active backend.
func NewExtractor(backend Backend, resolver *Resolver, retry RetryConfig, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{backend: backend, resolver: resolver, retry: retry, logger: logger}
}

// Extract loads the detail page behind ref and populates a Shop field by
// field: name, phone, email, address, building, website. Name and phone are
// guaranteed by the source, so their absence is not defended against.
// Email and building may be missing and are left empty. If the page cannot
// be loaded after every navigation attempt the returned error is a
// *FatalAccessError and the run must abort; no partial record is emitted.
// index and total only feed the progress log.
func (x *Extractor) Extract(ctx context.Context, ref DetailReference, index, total int) (Shop, error) {
	var pg Page
	attempts := 0
	err := RetryFixed(ctx, x.retry,
		func() error {
			attempts++
			p, oerr := x.backend.OpenDetail(ctx, ref)
			if oerr != nil {
				return oerr
			}
			pg = p
			return nil
		},
		func(err error) bool { return errors.Is(err, ErrNavigationTimeout) },
		func(attempt int, err error) {
			metrics.IncRetry("detail_access")
			x.logger.Warn("detail page access timed out",
				zap.Int("attempt", attempt),
				zap.String("reference", string(ref)),
			)
		},
	)
	if err != nil {
		x.logger.Error("detail page unreachable", zap.String("reference", string(ref)), zap.Error(err))
		return Shop{}, &FatalAccessError{Ref: ref, Attempts: attempts, Err: err}
	}
	defer func() {
		if rerr := x.backend.ReleaseDetail(ctx, pg); rerr != nil {
			x.logger.Warn("release detail page", zap.String("reference", string(ref)), zap.Error(rerr))
		}
	}()

	var shop Shop

	name, err := x.requiredText(ctx, pg, SelectorShopName)
	if err != nil {
		return Shop{}, err
	}
	shop.Name = normalizeName(name)
	x.logger.Debug("extracting shop",
		zap.Int("index", index),
		zap.Int("total", total),
		zap.String("name", shop.Name),
		zap.String("reference", string(ref)),
	)

	phone, err := x.requiredText(ctx, pg, SelectorShopPhone)
	if err != nil {
		return Shop{}, err
	}
	shop.Phone = strings.TrimSpace(phone)

	email, err := x.optionalEmail(ctx, pg)
	if err != nil {
		return Shop{}, err
	}
	shop.Email = email

	rawAddr, err := x.requiredText(ctx, pg, SelectorShopAddress)
	if err != nil {
		return Shop{}, err
	}
	addr, err := ParseAddress(strings.TrimSpace(rawAddr))
	if err != nil {
		return Shop{}, err
	}
	shop.Prefecture = addr.Prefecture
	shop.City = addr.City
	shop.Street = addr.Street

	building, err := x.optionalText(ctx, pg, SelectorShopBuilding)
	if err != nil {
		return Shop{}, err
	}
	shop.Building = building

	website, err := x.resolver.Resolve(ctx, pg)
	if err != nil {
		return Shop{}, err
	}
	shop.WebsiteURL = website
	shop.IsSecure = strings.HasPrefix(website, SecureScheme)

	return shop, nil
}

// requiredText reads the text of an element the source guarantees present.
// A lookup failure propagates unrecovered.
func (x *Extractor) requiredText(ctx context.Context, pg Page, selector string) (string, error) {
	el, err := pg.FindOne(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("required element %q: %w", selector, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", selector, err)
	}
	return text, nil
}

// optionalText reads the text of an element that may be absent; absence
// leaves the field empty.
func (x *Extractor) optionalText(ctx context.Context, pg Page, selector string) (string, error) {
	elems, err := pg.FindAll(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("find %q: %w", selector, err)
	}
	if len(elems) == 0 {
		return "", nil
	}
	text, err := elems[0].Text(ctx)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// optionalEmail reads the mailto link when present.
func (x *Extractor) optionalEmail(ctx context.Context, pg Page) (string, error) {
	elems, err := pg.FindAll(ctx, SelectorShopEmail)
	if err != nil {
		return "", fmt.Errorf("find email link: %w", err)
	}
	if len(elems) == 0 {
		return "", nil
	}
	href, ok, err := elems[0].Attr(ctx, "href")
	if err != nil {
		return "", fmt.Errorf("read email link: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimPrefix(href, "mailto:"), nil
}

// normalizeName trims the shop name and flattens non-breaking spaces the
// source uses as layout filler.
func normalizeName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
}
