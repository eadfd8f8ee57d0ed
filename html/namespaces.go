package html

import (
	"strconv"
	"strings"

	"github.com/nlitsme/wikiexport"
)

// namespaceExtractor captures the select#namespace element and its option
// children. Each option opens a nested sub-capture that accumulates its text
// content together with the integer value attribute.
type namespaceExtractor struct {
	s   *scanner
	sel capture
	opt capture

	label   strings.Builder
	value   int
	valueOK bool

	namespaces []wikiexport.Namespace
}

func (e *namespaceExtractor) startTag(tag string, attrs map[string]string, depth int) {
	switch {
	case tag == "select" && attrs["id"] == "namespace" && !e.sel.active():
		e.sel.open(depth)
	case tag == "option" && e.sel.active() && !e.opt.active():
		e.opt.open(depth)
		e.label.Reset()
		v, err := strconv.Atoi(strings.TrimSpace(attrs["value"]))
		if err != nil {
			e.valueOK = false
			e.s.diagf(DiagBadAttribute, "namespace option value %q is not an integer", attrs["value"])
			return
		}
		e.value, e.valueOK = v, true
	}
}

func (e *namespaceExtractor) endTag(tag string, depth int) {
	if e.opt.closesAt(depth) && e.valueOK {
		e.namespaces = append(e.namespaces, wikiexport.Namespace{
			ID:   e.value,
			Name: e.label.String(),
		})
	}
}

func (e *namespaceExtractor) text(data string) {
	if e.opt.active() {
		e.label.WriteString(data)
	}
}

// ExtractNamespaces pulls the namespace table out of a page carrying the
// namespace selector (e.g. Special:PrefixIndex), in document order. Options
// with a non-integer value are skipped with a diagnostic.
func ExtractNamespaces(src string) ([]wikiexport.Namespace, []Diagnostic) {
	s := &scanner{}
	e := &namespaceExtractor{s: s}
	s.register(&e.sel, &e.opt)
	s.run(src, e)
	return e.namespaces, s.diags
}
