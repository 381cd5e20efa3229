package scrape

import "context"

// Element is one matched node on a fetched page.
type Element interface {
	// Text returns the rendered text content of the element.
	Text(ctx context.Context) (string, error)
	// Attr returns the named attribute. For attributes that resolve
	// against the document (href), backends return the resolved value.
	// The boolean reports whether the attribute is present.
	Attr(ctx context.Context, name string) (string, bool, error)
}

// Page is the structural representation of one fetched document.
type Page interface {
	// FindOne returns the first match for selector. Session backends wait
	// for the element to become visible within the configured timeout.
	// A missing element is reported as ErrElementNotFound.
	FindOne(ctx context.Context, selector string) (Element, error)
	// FindAll returns every current match for selector without waiting.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// URL is the reference the page was opened from.
	URL() string
}

// Backend retrieves pages from the directory. Exactly one implementation is
// active for the lifetime of a run, selected at construction time.
type Backend interface {
	// OpenListing fetches the numbered listing page for uri. Page numbers
	// start at 1; how subsequent pages are reached is backend-specific
	// (query parameter, file name substitution, or clicking the next-page
	// control).
	OpenListing(ctx context.Context, uri string, page int) (Page, error)
	// OpenDetail fetches one detail page. Session backends open it in a
	// secondary window focused until ReleaseDetail is called.
	OpenDetail(ctx context.Context, ref DetailReference) (Page, error)
	// ReleaseDetail discards a page returned by OpenDetail, closing its
	// window and returning focus to the home window where applicable.
	ReleaseDetail(ctx context.Context, p Page) error
	// Close tears down the backend session.
	Close() error
}

// WindowOpener is the capability of session backends that can follow a link
// into a secondary window and report that window's final address. The
// implementation must close the secondary window and return focus to the
// page's own window before returning.
type WindowOpener interface {
	ResolveWindowURL(ctx context.Context, p Page, selector string) (string, error)
}

// LinkProber is the capability of static backends that cannot click: link
// targets are read out of embedded markup and verified with a one-shot
// reachability probe. Probe failures are classified as ErrSecureTransport
// or ErrConnectivity.
type LinkProber interface {
	ProbeURL(ctx context.Context, rawURL string) error
}

// RowSink accumulates finalized records in persistent tabular storage.
type RowSink interface {
	Append(shop Shop) error
	Close() error
	// Remove discards any output written so far. Used on the fatal path so
	// a failed run leaves no partial file behind.
	Remove() error
}
