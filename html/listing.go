package html

import (
	"net/url"

	"github.com/nlitsme/wikiexport"
)

// listingExtractor captures the four disjoint regions of a Special:AllPages
// response: the chunk index (a listing of sub-ranges), the two leaf listing
// shapes (table or ul, depending on MediaWiki version), and the pagination
// nav holding the continuation cursor.
type listingExtractor struct {
	s          *scanner
	index      capture // table.allpageslist
	tableChunk capture // table.mw-allpages-table-chunk
	listChunk  capture // ul.mw-allpages-chunk
	nav        capture // div.mw-allpages-nav

	listing wikiexport.Listing
}

func (e *listingExtractor) startTag(tag string, attrs map[string]string, depth int) {
	switch tag {
	case "table":
		switch {
		case hasClass(attrs["class"], "allpageslist") && !e.index.active():
			e.index.open(depth)
		case hasClass(attrs["class"], "mw-allpages-table-chunk") && !e.tableChunk.active():
			e.tableChunk.open(depth)
		}
	case "ul":
		if hasClass(attrs["class"], "mw-allpages-chunk") && !e.listChunk.active() {
			e.listChunk.open(depth)
		}
	case "div":
		if hasClass(attrs["class"], "mw-allpages-nav") && !e.nav.active() {
			e.nav.open(depth)
		}
	case "a":
		switch {
		case e.index.active():
			e.addRange(attrs["href"])
		case e.tableChunk.active() || e.listChunk.active():
			title, ok := attrs["title"]
			if !ok {
				e.s.diagf(DiagBadAttribute, "listing anchor without title attribute")
				return
			}
			e.listing.Pages = append(e.listing.Pages, title)
		case e.nav.active():
			e.setNext(attrs["href"])
		}
	}
}

func (e *listingExtractor) endTag(tag string, depth int) {}

func (e *listingExtractor) text(data string) {}

// addRange parses a chunk-index anchor's from/to query parameters. A pair
// identical to the immediately preceding one is dropped (the index renders
// each range twice, as a row label and a link).
func (e *listingExtractor) addRange(href string) {
	q, err := queryOf(href)
	if err != nil {
		e.s.diagf(DiagBadAttribute, "chunk index href %q: %v", href, err)
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		e.s.diagf(DiagBadAttribute, "chunk index href %q missing from/to", href)
		return
	}
	pair := wikiexport.PageRange{From: from, To: to}
	if n := len(e.listing.Ranges); n > 0 && e.listing.Ranges[n-1] == pair {
		return
	}
	e.listing.Ranges = append(e.listing.Ranges, pair)
}

// setNext records the continuation cursor from the first nav anchor whose
// query carries a from parameter.
func (e *listingExtractor) setNext(href string) {
	if e.listing.Next != "" {
		return
	}
	q, err := queryOf(href)
	if err != nil {
		e.s.diagf(DiagBadAttribute, "nav href %q: %v", href, err)
		return
	}
	if q.Has("from") {
		e.listing.Next = q.Get("from")
	}
}

func queryOf(href string) (url.Values, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	return u.Query(), nil
}

// ExtractListing parses one Special:AllPages response into its structured
// form: either a chunk index of sub-ranges or a leaf page list with an
// optional continuation cursor.
func ExtractListing(src string) (*wikiexport.Listing, []Diagnostic) {
	s := &scanner{}
	e := &listingExtractor{s: s}
	s.register(&e.index, &e.tableChunk, &e.listChunk, &e.nav)
	s.run(src, e)
	return &e.listing, s.diags
}
