package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/metrics"
)

// Resolver obtains a shop's external website from a loaded detail page. Two
// ordered fallback stages: the "homepage" link first, then the official
// page icon; the second stage only runs when the first yields nothing. An
// empty result means the website stayed unresolved, which is not an error.
type Resolver struct {
	backend Backend
	retry   RetryConfig
	logger  *zap.Logger
}

// NewResolver builds a Resolver around the active backend.
func NewResolver(backend Backend, retry RetryConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{backend: backend, retry: retry, logger: logger}
}

// Resolve returns the shop's website URL, or "" if neither stage produced
// one. The strategy depends on the backend's capabilities: session backends
// click the link and read the secondary window's address, static backends
// read embedded link targets and verify them with a reachability probe.
func (r *Resolver) Resolve(ctx context.Context, pg Page) (string, error) {
	if wo, ok := r.backend.(WindowOpener); ok {
		u, err := r.resolveViaWindow(ctx, wo, pg, SelectorHomepageLink, "homepage")
		if err != nil || u != "" {
			return u, err
		}
		return r.resolveViaWindow(ctx, wo, pg, SelectorOfficialIcon, "official_icon")
	}

	u, err := r.resolveEmbedded(ctx, pg)
	if err != nil || u != "" {
		return u, err
	}
	return r.resolveIconHref(ctx, pg)
}

// resolveViaWindow clicks the first match of selector; the target opens in
// a secondary window whose address is the resolved URL. Each attempt that
// times out waiting for the window is logged and retried with a fixed
// delay; exhausting every attempt leaves the stage unresolved.
func (r *Resolver) resolveViaWindow(ctx context.Context, wo WindowOpener, pg Page, selector, stage string) (string, error) {
	elems, err := pg.FindAll(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("find %s link: %w", stage, err)
	}
	if len(elems) == 0 {
		metrics.ObserveResolver(stage, "unresolved")
		return "", nil
	}

	var resolved string
	err = RetryFixed(ctx, r.retry,
		func() error {
			u, werr := wo.ResolveWindowURL(ctx, pg, selector)
			if werr != nil {
				return werr
			}
			resolved = u
			return nil
		},
		func(err error) bool { return errors.Is(err, ErrWindowTimeout) },
		func(attempt int, err error) {
			metrics.IncRetry("resolver_" + stage)
			r.logger.Warn("could not obtain website URL from link",
				zap.String("stage", stage),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	)
	switch {
	case err == nil:
		metrics.ObserveResolver(stage, "resolved")
		return resolved, nil
	case errors.Is(err, ErrWindowTimeout):
		// Every attempt timed out; fall through to the next stage.
		metrics.ObserveResolver(stage, "unresolved")
		return "", nil
	default:
		return "", fmt.Errorf("resolve %s link: %w", stage, err)
	}
}

// resolveEmbedded is the static homepage-link stage. The live href is never
// populated without script execution, so the target host is read from the
// embedded data attribute instead. The source's own scheme flag in that
// payload is unreliable, so the URL is forced secure and then probed: a
// TLS-layer failure downgrades the scheme, an unreachable host leaves the
// URL as constructed. The downgraded URL is deliberately not re-probed.
func (r *Resolver) resolveEmbedded(ctx context.Context, pg Page) (string, error) {
	el, err := pg.FindOne(ctx, SelectorHomepageLink)
	if errors.Is(err, ErrElementNotFound) {
		metrics.ObserveResolver("homepage", "unresolved")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find homepage link: %w", err)
	}

	raw, ok, err := el.Attr(ctx, "data-o")
	if err != nil {
		return "", fmt.Errorf("read homepage link payload: %w", err)
	}
	if !ok || raw == "" {
		metrics.ObserveResolver("homepage", "unresolved")
		return "", nil
	}

	var payload struct {
		Host string `json:"a"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("decode homepage link payload: %w", err)
	}
	if payload.Host == "" {
		metrics.ObserveResolver("homepage", "unresolved")
		return "", nil
	}

	u := r.probeWithDowngrade(ctx, SecureScheme+payload.Host)
	metrics.ObserveResolver("homepage", "resolved")
	return u, nil
}

// resolveIconHref is the static official-page-icon stage: the icon link
// carries a plain href, which is probed with the same downgrade rule.
func (r *Resolver) resolveIconHref(ctx context.Context, pg Page) (string, error) {
	el, err := pg.FindOne(ctx, SelectorOfficialIcon)
	if errors.Is(err, ErrElementNotFound) {
		metrics.ObserveResolver("official_icon", "unresolved")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find official page icon: %w", err)
	}

	href, ok, err := el.Attr(ctx, "href")
	if err != nil {
		return "", fmt.Errorf("read official page icon: %w", err)
	}
	if !ok || href == "" {
		metrics.ObserveResolver("official_icon", "unresolved")
		return "", nil
	}

	u := r.probeWithDowngrade(ctx, href)
	metrics.ObserveResolver("official_icon", "resolved")
	return u, nil
}

func (r *Resolver) probeWithDowngrade(ctx context.Context, u string) string {
	prober, ok := r.backend.(LinkProber)
	if !ok {
		return u
	}
	err := prober.ProbeURL(ctx, u)
	switch {
	case err == nil:
		return u
	case errors.Is(err, ErrSecureTransport):
		r.logger.Warn("secure probe failed, downgrading scheme", zap.String("url", u), zap.Error(err))
		return strings.Replace(u, SecureScheme, "http://", 1)
	default:
		// Unreachable host: keep the URL as constructed.
		r.logger.Debug("reachability probe failed", zap.String("url", u), zap.Error(err))
		return u
	}
}
