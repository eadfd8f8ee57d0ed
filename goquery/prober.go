// Package goquery identifies the wiki engine serving a page.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nlitsme/wikiexport"
)

// Ensure Prober implements wikiexport.EngineProber at compile time.
var _ wikiexport.EngineProber = (*Prober)(nil)

// Prober identifies a MediaWiki installation from page HTML. It checks the
// meta generator tag, the startup configuration the skin embeds in inline
// scripts, and the body classes MediaWiki skins emit.
type Prober struct{}

// NewProber creates a new Prober.
func NewProber() *Prober {
	return &Prober{}
}

var skinClassRe = regexp.MustCompile(`\bskin-([a-z][a-z0-9-]*)\b`)

// Probe analyzes HTML and returns what engine appears to serve it.
// The Engine field is EngineUnknown when no MediaWiki marker is found.
func (p *Prober) Probe(html string) wikiexport.EngineInfo {
	var info wikiexport.EngineInfo

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return info
	}

	// Meta generator tag first - most reliable when present
	doc.Find("meta[name='generator']").Each(func(_ int, s *goquery.Selection) {
		if content, exists := s.Attr("content"); exists {
			info.Generator = content
		}
	})
	if strings.Contains(strings.ToLower(info.Generator), "mediawiki") {
		info.Engine = wikiexport.EngineMediaWiki
	}

	// The skin marks the body element with mediawiki and skin-* classes.
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		class, exists := s.Attr("class")
		if !exists {
			return
		}
		if hasClass(class, "mediawiki") {
			info.Engine = wikiexport.EngineMediaWiki
		}
		if m := skinClassRe.FindStringSubmatch(class); m != nil {
			info.Skin = m[1]
		}
	})

	// Startup scripts reference the ResourceLoader config object.
	if info.Engine == wikiexport.EngineUnknown {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(s.Text(), "mw.config.set") {
				info.Engine = wikiexport.EngineMediaWiki
				return false
			}
			return true
		})
	}

	return info
}

// hasClass checks for a whole class token inside a class attribute value.
func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}
