package html

import (
	"strings"

	"github.com/nlitsme/wikiexport"
)

// chromeIDs are well-known MediaWiki chrome element ids whose anchors point
// at the wiki's script endpoint (login, view-source, print, history,
// permalink).
var chromeIDs = map[string]struct{}{
	"pt-login":      {},
	"ca-viewsource": {},
	"t-print":       {},
	"ca-history":    {},
	"t-permalink":   {},
}

// basePathExtractor counts candidate script paths found in chrome anchors.
type basePathExtractor struct {
	s      *scanner
	region capture

	counts map[string]int
	order  []string // insertion order, for deterministic tie-breaks
}

func (e *basePathExtractor) startTag(tag string, attrs map[string]string, depth int) {
	switch tag {
	case "li":
		if _, ok := chromeIDs[attrs["id"]]; ok && !e.region.active() {
			e.region.open(depth)
		}
	case "a":
		_, ok := chromeIDs[attrs["id"]]
		if e.region.active() || ok {
			e.addCandidate(attrs["href"])
		}
	}
}

func (e *basePathExtractor) endTag(tag string, depth int) {}

func (e *basePathExtractor) text(data string) {}

// addCandidate records one href, truncated at its first '?'. An href with no
// query keeps its full path.
func (e *basePathExtractor) addCandidate(href string) {
	if href == "" {
		return
	}
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return
	}
	if _, seen := e.counts[href]; !seen {
		e.order = append(e.order, href)
	}
	e.counts[href]++
}

// ExtractBasePath finds the wiki's canonical script path on an HTML page by
// counting where the page's chrome links point. The most frequent candidate
// wins; a first-seen tie-break keeps the result deterministic. More than one
// distinct candidate produces a non-fatal ambiguity diagnostic; zero
// candidates is an ENOTFOUND error.
func ExtractBasePath(src string) (string, []Diagnostic, error) {
	s := &scanner{}
	e := &basePathExtractor{s: s, counts: make(map[string]int)}
	s.register(&e.region)
	s.run(src, e)

	if len(e.order) == 0 {
		return "", s.diags, wikiexport.Errorf(wikiexport.ENOTFOUND, "no base path found")
	}
	if len(e.order) > 1 {
		s.diagf(DiagAmbiguousBasePath, "multiple base path candidates: %v", e.order)
	}

	best := e.order[0]
	for _, path := range e.order[1:] {
		if e.counts[path] > e.counts[best] {
			best = path
		}
	}
	return best, s.diags, nil
}
