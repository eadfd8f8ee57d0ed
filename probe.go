package wikiexport

// Engine identifies the wiki software serving a page.
type Engine string

// Recognized engines.
const (
	EngineUnknown   Engine = ""
	EngineMediaWiki Engine = "mediawiki"
)

// EngineInfo describes what an EngineProber found on a page.
type EngineInfo struct {
	Engine Engine

	// Generator is the raw generator string when one was advertised,
	// e.g. "MediaWiki 1.39.4".
	Generator string

	// Skin is the MediaWiki skin in use (e.g. "vector", "monobook"),
	// when it could be determined.
	Skin string
}

// EngineProber identifies the wiki engine from a page's HTML. The crawler
// uses it to warn early when the seed page does not look like a MediaWiki
// installation.
type EngineProber interface {
	Probe(html string) EngineInfo
}
