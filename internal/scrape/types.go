// Package scrape implements the merchant extraction pipeline: listing
// enumeration, per-shop detail extraction, website resolution and the
// run controller that ties them to a row sink.
package scrape

// Shop is one extracted merchant record. Fields are populated in a fixed
// order by the Extractor and the record is immutable once appended to the
// sink. IsSecure always reflects the scheme prefix of WebsiteURL at the
// moment the record is finalized.
type Shop struct {
	Name       string
	Phone      string
	Email      string
	Prefecture string
	City       string
	Street     string
	Building   string
	WebsiteURL string
	IsSecure   bool
}

// DetailReference locates one merchant detail page. It is produced by the
// Enumerator and consumed exactly once by the Extractor.
type DetailReference string

// SecureScheme is the URL prefix IsSecure is derived from.
const SecureScheme = "https://"

// PageSize is the fixed number of shops on one listing page.
const PageSize = 20

// Selectors into the directory markup. The listing and detail structure is
// fixed; name and phone are guaranteed present by the source site, the rest
// may be absent.
const (
	SelectorListingLink  = `article > div.style_title___HrjW > a.style_titleLink__oiHVJ`
	SelectorNextPage     = `#__next > div > div.layout_body__LvaRc > main > div.style_pageNation__AZy1A > nav > ul > li:nth-last-child(2) > a`
	SelectorShopName     = `#info-name`
	SelectorShopPhone    = `#info-phone span.number`
	SelectorShopEmail    = `#info-table > table > tbody a[href^="mailto:"]`
	SelectorShopAddress  = `#info-table > table > tbody p.adr > span.region`
	SelectorShopBuilding = `#info-table > table > tbody p.adr > span.locality`
	SelectorHomepageLink = `#info-table > table > tbody a.url`
	SelectorOfficialIcon = `#sv-site > li > a`
)
