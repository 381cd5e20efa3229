// Package browserfetch implements the live-session backend on chromedp.
// One headless Chrome session serves the whole run: listing pages load in
// the home window, each detail page opens in a secondary window, and link
// resolution follows clicks into further windows. Window focus is tracked
// in an explicit stack so retries cannot leak it away from home.
package browserfetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

// Config controls the browser session.
type Config struct {
	UserAgent string
	// Timeout bounds every awaited condition: element visibility,
	// navigation, and window-count changes.
	Timeout time.Duration
	// Headful disables headless mode for local debugging.
	Headful bool
}

// Session implements scrape.Backend over one chromedp browser session. It
// also satisfies scrape.WindowOpener.
type Session struct {
	cfg         Config
	allocCancel context.CancelFunc
	home        *window
	windows     *windowStack
	logger      *zap.Logger
}

var _ scrape.Backend = (*Session)(nil)
var _ scrape.WindowOpener = (*Session)(nil)

// New launches the browser and opens the home window.
func New(cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	homeCtx, homeCancel := chromedp.NewContext(allocCtx)

	// Materialize the browser process and the home window up front so a
	// broken environment fails at construction, not mid-run.
	if err := chromedp.Run(homeCtx); err != nil {
		homeCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser session: %w", err)
	}

	home := &window{ctx: homeCtx, cancel: homeCancel}
	return &Session{
		cfg:         cfg,
		allocCancel: allocCancel,
		home:        home,
		windows:     newWindowStack(home),
		logger:      logger,
	}, nil
}

// Close tears down every window and the browser process.
func (s *Session) Close() error {
	s.windows.unwindTo(s.home)
	s.home.cancel()
	s.allocCancel()
	return nil
}

// OpenListing shows the numbered listing page in the home window: page 1
// navigates to uri, later pages click the next-page control. The listing
// links must become visible within the timeout before the page is usable.
func (s *Session) OpenListing(ctx context.Context, uri string, pageNum int) (scrape.Page, error) {
	if cur := s.windows.top(); cur != s.home {
		return nil, errors.New("listing requested while a secondary window holds focus")
	}

	if pageNum <= 1 {
		if err := s.run(ctx, s.home, chromedp.Navigate(uri)); err != nil {
			return nil, fmt.Errorf("open listing %s: %w", uri, mapTimeout(err, scrape.ErrNavigationTimeout))
		}
	} else {
		err := s.run(ctx, s.home,
			chromedp.WaitVisible(scrape.SelectorNextPage, chromedp.ByQuery),
			chromedp.Click(scrape.SelectorNextPage, chromedp.ByQuery, chromedp.NodeVisible),
		)
		if err != nil {
			return nil, fmt.Errorf("advance to listing page %d: %w", pageNum, mapTimeout(err, scrape.ErrNavigationTimeout))
		}
	}

	if err := s.run(ctx, s.home, chromedp.WaitVisible(scrape.SelectorListingLink, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("await listing page %d: %w", pageNum, mapTimeout(err, scrape.ErrNavigationTimeout))
	}
	return &page{sess: s, win: s.home, ref: uri}, nil
}

// OpenDetail loads ref in a fresh secondary window and focuses it. The
// window stays focused until ReleaseDetail.
func (s *Session) OpenDetail(ctx context.Context, ref scrape.DetailReference) (scrape.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.home.ctx)
	win := &window{ctx: tabCtx, cancel: tabCancel}

	if err := s.run(ctx, win, chromedp.Navigate(string(ref))); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open detail %s: %w", ref, mapTimeout(err, scrape.ErrNavigationTimeout))
	}

	s.windows.push(win)
	return &page{sess: s, win: win, ref: string(ref)}, nil
}

// ReleaseDetail closes the page's window and returns focus to home.
func (s *Session) ReleaseDetail(_ context.Context, p scrape.Page) error {
	pg, ok := p.(*page)
	if !ok {
		return fmt.Errorf("foreign page %T", p)
	}
	if pg.win == s.home {
		return nil
	}
	if s.windows.top() != pg.win {
		return errors.New("release requested for a window without focus")
	}
	s.windows.pop()
	pg.win.cancel()
	return nil
}

// ResolveWindowURL clicks the first match of selector on p, waits for the
// secondary window the target opens, reads that window's address, closes it
// and returns focus to p's window. A window that never appears within the
// timeout is reported as scrape.ErrWindowTimeout.
func (s *Session) ResolveWindowURL(ctx context.Context, p scrape.Page, selector string) (string, error) {
	pg, ok := p.(*page)
	if !ok {
		return "", fmt.Errorf("foreign page %T", p)
	}
	win := pg.win

	// The live href is generated by script after load; wait for it to be
	// populated before clicking.
	populated := fmt.Sprintf(`%s[href^="http"]`, selector)
	if err := s.run(ctx, win, chromedp.WaitVisible(populated, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("await link target: %w", mapTimeout(err, scrape.ErrWindowTimeout))
	}

	newTarget := chromedp.WaitNewTarget(win.ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.URL != ""
	})

	if err := s.run(ctx, win, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("click link: %w", mapTimeout(err, scrape.ErrWindowTimeout))
	}

	var targetID target.ID
	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()
	select {
	case targetID = <-newTarget:
	case <-timer.C:
		return "", scrape.ErrWindowTimeout
	case <-ctx.Done():
		return "", fmt.Errorf("await secondary window: %w", ctx.Err())
	}

	secCtx, secCancel := chromedp.NewContext(win.ctx, chromedp.WithTargetID(targetID))
	sec := &window{ctx: secCtx, cancel: secCancel}
	s.windows.push(sec)
	defer func() {
		s.windows.pop()
		sec.cancel()
	}()

	var resolved string
	if err := s.run(ctx, sec, chromedp.Location(&resolved)); err != nil {
		return "", fmt.Errorf("read secondary window address: %w", mapTimeout(err, scrape.ErrWindowTimeout))
	}
	if err := s.run(ctx, sec, chromedp.ActionFunc(func(c context.Context) error {
		return cdppage.Close().Do(c)
	})); err != nil {
		s.logger.Warn("close secondary window", zap.Error(err))
	}
	return resolved, nil
}

// run executes actions against one window with the session timeout applied,
// honoring the caller's context.
func (s *Session) run(ctx context.Context, win *window, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(win.ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(runCtx, actions...)
	}()

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func mapTimeout(err error, sentinel error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}
