// Package html provides streaming scope-tracked extractors for
// server-rendered MediaWiki pages, built on golang.org/x/net/html's
// tokenizer. The extractors pull structured facts (canonical base path,
// namespace table, page listings) out of HTML without building a DOM.
//
// A scanner tracks the stack of open elements and lets an extractor anchor a
// capture region at the nesting depth where a trigger tag opened; the region
// closes on the matching end tag. Malformed markup is healed with stack
// unwinding heuristics and reported as non-fatal diagnostics; a scan never
// fails on bad input.
package html

import (
	"fmt"
	"strings"

	xhtml "golang.org/x/net/html"
)

// DiagnosticKind classifies a non-fatal problem found while scanning.
type DiagnosticKind int

// Diagnostic kinds.
const (
	DiagMissingEndTag DiagnosticKind = iota
	DiagNoStartTag
	DiagBadAttribute
	DiagAmbiguousBasePath
)

// Diagnostic describes a recovered problem in the scanned document.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string { return d.Message }

// voidElements never push onto the element stack.
var voidElements = map[string]struct{}{
	"meta":  {},
	"input": {},
	"br":    {},
	"link":  {},
	"img":   {},
	"hr":    {},
}

// capture is a region of the token stream anchored at the stack depth where
// its trigger tag was pushed. A zero depth means the region is closed.
type capture struct {
	depth int
}

func (c *capture) active() bool { return c.depth != 0 }

func (c *capture) open(depth int) { c.depth = depth }

// closesAt reports whether an end tag processed at the given pre-pop stack
// depth is the one that closes this region.
func (c *capture) closesAt(depth int) bool { return c.depth != 0 && c.depth == depth }

// handler receives structured scan events. The depth passed to startTag is
// the stack depth after the tag was pushed; the depth passed to endTag is the
// stack depth before the tag is popped, so a region opened at depth d closes
// on an endTag event with the same d.
type handler interface {
	startTag(tag string, attrs map[string]string, depth int)
	endTag(tag string, depth int)
	text(data string)
}

// scanner drives the tokenizer, maintains the open-element stack, and closes
// registered captures as their anchor depth is left.
type scanner struct {
	stack    []string
	captures []*capture
	diags    []Diagnostic
}

func (s *scanner) register(caps ...*capture) {
	s.captures = append(s.captures, caps...)
}

func (s *scanner) diagf(kind DiagnosticKind, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// run scans src to the end, feeding events to h. Scanning is best-effort:
// it self-heals on malformed markup and only stops at end of input.
func (s *scanner) run(src string, h handler) {
	z := xhtml.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			// io.EOF, or an input read error; either way the scan is done.
			return
		case xhtml.StartTagToken:
			tag, attrs := tagAndAttrs(z)
			if _, void := voidElements[tag]; void {
				continue
			}
			s.stack = append(s.stack, tag)
			h.startTag(tag, attrs, len(s.stack))
		case xhtml.SelfClosingTagToken:
			// Self-closing elements never push onto the stack.
		case xhtml.EndTagToken:
			tag, _ := tagAndAttrs(z)
			h.endTag(tag, len(s.stack))
			s.closeCapturesAt(len(s.stack))
			s.popTo(tag)
			s.closeCapturesBelow(len(s.stack))
		case xhtml.TextToken:
			h.text(string(z.Text()))
		}
	}
}

// popTo removes the top of the stack if it matches tag. On a mismatch it
// scans downward for the nearest matching open tag and pops everything above
// and including it; if no match exists the stack is left unchanged. Both
// recovery paths emit a diagnostic.
func (s *scanner) popTo(tag string) {
	if n := len(s.stack); n > 0 && s.stack[n-1] == tag {
		s.stack = s.stack[:n-1]
		return
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i] == tag {
			s.diagf(DiagMissingEndTag, "missing end tag for %v, closing %q", s.stack[i+1:], tag)
			s.stack = s.stack[:i]
			return
		}
	}
	s.diagf(DiagNoStartTag, "no start tag for %q in %v", tag, s.stack)
}

// closeCapturesAt closes every capture anchored exactly at depth. Called for
// the matching end tag of the element that opened the region.
func (s *scanner) closeCapturesAt(depth int) {
	for _, c := range s.captures {
		if c.closesAt(depth) {
			c.depth = 0
		}
	}
}

// closeCapturesBelow closes captures whose anchor was unwound past by
// malformed-markup recovery.
func (s *scanner) closeCapturesBelow(depth int) {
	for _, c := range s.captures {
		if c.depth > depth {
			c.depth = 0
		}
	}
}

// tagAndAttrs reads the current tag's name and attributes from the
// tokenizer. Names and attribute keys arrive already lowercased.
func tagAndAttrs(z *xhtml.Tokenizer) (string, map[string]string) {
	name, hasAttr := z.TagName()
	if !hasAttr {
		return string(name), nil
	}
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			break
		}
	}
	return string(name), attrs
}

// hasClass reports whether a space-separated class attribute contains name.
func hasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
