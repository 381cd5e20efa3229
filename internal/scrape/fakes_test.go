package scrape

import (
	"context"
	"fmt"
)

// Shared in-memory fakes for the pipeline-level tests. They model the
// backend surface exactly: pre-baked pages keyed by listing page number or
// detail reference, with scripted failures for the retry paths.

type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e *fakeElement) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) Attr(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func textElement(text string) Element { return &fakeElement{text: text} }

func attrElement(attrs map[string]string) Element { return &fakeElement{attrs: attrs} }

type fakePage struct {
	url   string
	elems map[string][]Element
}

func (p *fakePage) FindOne(ctx context.Context, selector string) (Element, error) {
	es := p.elems[selector]
	if len(es) == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrElementNotFound)
	}
	return es[0], nil
}

func (p *fakePage) FindAll(ctx context.Context, selector string) ([]Element, error) {
	return p.elems[selector], nil
}

func (p *fakePage) URL() string { return p.url }

type fakeBackend struct {
	listings    map[int]*fakePage
	details     map[DetailReference]*fakePage
	detailErrs  map[DetailReference][]error
	listCalls   int
	detailCalls map[DetailReference]int
	released    []Page
	closed      bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		listings:    map[int]*fakePage{},
		details:     map[DetailReference]*fakePage{},
		detailErrs:  map[DetailReference][]error{},
		detailCalls: map[DetailReference]int{},
	}
}

func (b *fakeBackend) OpenListing(ctx context.Context, uri string, page int) (Page, error) {
	b.listCalls++
	if pg, ok := b.listings[page]; ok {
		return pg, nil
	}
	return &fakePage{url: uri, elems: map[string][]Element{}}, nil
}

func (b *fakeBackend) OpenDetail(ctx context.Context, ref DetailReference) (Page, error) {
	b.detailCalls[ref]++
	if errs := b.detailErrs[ref]; len(errs) > 0 {
		err := errs[0]
		b.detailErrs[ref] = errs[1:]
		return nil, err
	}
	pg, ok := b.details[ref]
	if !ok {
		return nil, fmt.Errorf("no detail page staged for %s", ref)
	}
	return pg, nil
}

func (b *fakeBackend) ReleaseDetail(ctx context.Context, p Page) error {
	b.released = append(b.released, p)
	return nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

// listingPage fabricates a listing page whose links point at sequentially
// numbered detail references starting from first.
func listingPage(first, n int) *fakePage {
	elems := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		elems = append(elems, attrElement(map[string]string{
			"href": fmt.Sprintf("https://r.example.jp/shop/%04d/", first+i),
		}))
	}
	return &fakePage{elems: map[string][]Element{SelectorListingLink: elems}}
}

func shopRef(i int) DetailReference {
	return DetailReference(fmt.Sprintf("https://r.example.jp/shop/%04d/", i))
}

// minimalDetail stages a detail page carrying only the fields the source
// guarantees.
func minimalDetail(name string) *fakePage {
	return &fakePage{elems: map[string][]Element{
		SelectorShopName:    {textElement(name)},
		SelectorShopPhone:   {textElement("03-0000-0000")},
		SelectorShopAddress: {textElement("東京都渋谷区神南1-2-3")},
	}}
}

type windowResult struct {
	url string
	err error
}

// windowBackend adds the secondary-window capability with a scripted
// sequence of outcomes.
type windowBackend struct {
	*fakeBackend
	results []windowResult
	calls   int
}

func (b *windowBackend) ResolveWindowURL(ctx context.Context, p Page, selector string) (string, error) {
	i := b.calls
	if i >= len(b.results) {
		i = len(b.results) - 1
	}
	b.calls++
	r := b.results[i]
	return r.url, r.err
}

// proberBackend adds the static reachability-probe capability.
type proberBackend struct {
	*fakeBackend
	probeErrs map[string]error
	probed    []string
}

func (b *proberBackend) ProbeURL(ctx context.Context, rawURL string) error {
	b.probed = append(b.probed, rawURL)
	return b.probeErrs[rawURL]
}

type fakeSink struct {
	rows    []Shop
	closed  bool
	removed bool
}

func (s *fakeSink) Append(shop Shop) error {
	s.rows = append(s.rows, shop)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSink) Remove() error {
	s.removed = true
	return nil
}
