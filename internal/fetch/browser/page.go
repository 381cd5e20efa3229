package browserfetch

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/scrape"
)

// page is a document shown in one of the session's windows.
type page struct {
	sess *Session
	win  *window
	ref  string
}

func (p *page) URL() string { return p.ref }

// FindOne polls for the first match to become visible within the session
// timeout. A timeout is reported as the element being absent.
func (p *page) FindOne(ctx context.Context, selector string) (scrape.Element, error) {
	err := p.sess.run(ctx, p.win, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", selector, mapTimeout(err, scrape.ErrElementNotFound))
	}
	return &element{pg: p, sel: selector, index: 0}, nil
}

// FindAll returns the current matches without waiting.
func (p *page) FindAll(ctx context.Context, selector string) ([]scrape.Element, error) {
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := p.sess.run(ctx, p.win, chromedp.Evaluate(script, &count)); err != nil {
		return nil, fmt.Errorf("count %q: %w", selector, err)
	}
	elems := make([]scrape.Element, 0, count)
	for i := 0; i < count; i++ {
		elems = append(elems, &element{pg: p, sel: selector, index: i})
	}
	return elems, nil
}

// element addresses the n-th match of a selector on its page.
type element struct {
	pg    *page
	sel   string
	index int
}

func (e *element) Text(ctx context.Context) (string, error) {
	script := fmt.Sprintf(
		`(() => { const n = document.querySelectorAll(%q)[%d]; return n ? n.innerText : ""; })()`,
		e.sel, e.index,
	)
	var out string
	if err := e.pg.sess.run(ctx, e.pg.win, chromedp.Evaluate(script, &out)); err != nil {
		return "", fmt.Errorf("text of %q[%d]: %w", e.sel, e.index, err)
	}
	return out, nil
}

// Attr reads the named attribute. Attributes that exist as resolving DOM
// properties (href) are read as properties so relative targets come back
// absolute, matching what a user-driven browser would follow.
func (e *element) Attr(ctx context.Context, name string) (string, bool, error) {
	script := fmt.Sprintf(
		`(() => {
			const n = document.querySelectorAll(%q)[%d];
			if (!n) { return {ok: false, v: ""}; }
			if (%q in n && typeof n[%q] === "string") { return {ok: true, v: n[%q]}; }
			if (!n.hasAttribute(%q)) { return {ok: false, v: ""}; }
			return {ok: true, v: n.getAttribute(%q)};
		})()`,
		e.sel, e.index, name, name, name, name, name,
	)
	var out struct {
		OK bool   `json:"ok"`
		V  string `json:"v"`
	}
	if err := e.pg.sess.run(ctx, e.pg.win, chromedp.Evaluate(script, &out)); err != nil {
		return "", false, fmt.Errorf("attribute %q of %q[%d]: %w", name, e.sel, e.index, err)
	}
	return out.V, out.OK, nil
}
