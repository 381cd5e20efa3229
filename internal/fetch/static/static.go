// Package staticfetch implements the document-fetch backend on a Colly
// collector. Each call performs a one-shot retrieval (network or local
// file) parsed into a goquery tree; no scripts execute, so fields that
// depend on client-side rendering are read out of the static markup.
package staticfetch

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

// Config controls collector and probe behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Backend implements scrape.Backend over one-shot document fetches. It is
// stateless between calls and also satisfies scrape.LinkProber.
type Backend struct {
	cfg           Config
	baseCollector *colly.Collector
	probeClient   *http.Client
	logger        *zap.Logger
}

var _ scrape.Backend = (*Backend)(nil)
var _ scrape.LinkProber = (*Backend)(nil)

// New builds a Backend.
func New(cfg Config, logger *zap.Logger) *Backend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(newHTTPTransport())

	return &Backend{
		cfg:           cfg,
		baseCollector: c,
		probeClient:   &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}
}

// OpenListing fetches the numbered listing page: page 1 is the URI itself,
// later pages append the page query parameter (network) or substitute the
// page-numbered file name (local fixtures).
func (b *Backend) OpenListing(ctx context.Context, uri string, pageNum int) (scrape.Page, error) {
	target, err := listingURL(uri, pageNum)
	if err != nil {
		return nil, err
	}
	return b.fetch(ctx, target)
}

// OpenDetail fetches one detail page.
func (b *Backend) OpenDetail(ctx context.Context, ref scrape.DetailReference) (scrape.Page, error) {
	return b.fetch(ctx, string(ref))
}

// ReleaseDetail is a no-op: static pages hold no session state.
func (b *Backend) ReleaseDetail(context.Context, scrape.Page) error { return nil }

// Close releases idle connections.
func (b *Backend) Close() error {
	b.probeClient.CloseIdleConnections()
	return nil
}

func (b *Backend) fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	b.logger.Debug("fetching document", zap.String("url", rawURL))

	var body []byte
	if strings.HasPrefix(rawURL, "file://") {
		data, err := readLocalDocument(rawURL)
		if err != nil {
			return nil, err
		}
		body = data
	} else {
		data, err := b.visit(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		body = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", rawURL, err)
	}
	return &page{doc: doc, url: rawURL}, nil
}

// visit runs a cloned collector for a single GET, the same way each fetch
// gets a fresh session.
func (b *Backend) visit(ctx context.Context, rawURL string) ([]byte, error) {
	collector := b.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	if b.cfg.UserAgent != "" {
		collector.UserAgent = b.cfg.UserAgent
	}
	collector.SetRequestTimeout(b.cfg.Timeout)
	collector.WithTransport(newHTTPTransport())

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
		}
		return body, nil
	}
}

func readLocalDocument(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse file reference %s: %w", rawURL, err)
	}
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return nil, fmt.Errorf("read local document: %w", err)
	}
	return data, nil
}

// listingURL addresses the numbered listing page. Network listings take a
// page query parameter on every fetch, page 1 included; local fixtures
// follow the prefix_suffix_NN.ext file name convention, where the given
// file already is page 1.
func listingURL(uri string, pageNum int) (string, error) {
	if strings.HasPrefix(uri, "http") {
		return fmt.Sprintf("%s&p=%d", uri, pageNum), nil
	}
	if pageNum <= 1 {
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse listing reference %s: %w", uri, err)
	}
	name := path.Base(u.Path)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return "", fmt.Errorf("listing file name %q does not follow the prefix_suffix_NN pattern", name)
	}
	paged := fmt.Sprintf("%s_%s_%02d%s", parts[0], parts[1], pageNum, ext)
	return strings.Replace(uri, name, paged, 1), nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}

// page wraps a parsed document.
type page struct {
	doc *goquery.Document
	url string
}

func (p *page) URL() string { return p.url }

func (p *page) FindOne(_ context.Context, selector string) (scrape.Element, error) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", selector, scrape.ErrElementNotFound)
	}
	return &element{sel: sel}, nil
}

func (p *page) FindAll(_ context.Context, selector string) ([]scrape.Element, error) {
	var elems []scrape.Element
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, &element{sel: s})
	})
	return elems, nil
}

type element struct {
	sel *goquery.Selection
}

func (e *element) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *element) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}
