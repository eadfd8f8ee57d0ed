// Package wikiexport provides a full-site MediaWiki exporter. Starting from
// a single page URL it discovers the wiki's canonical script path, enumerates
// every namespace and every page in it, and streams bulk XML exports (and
// optionally media files) to an output sink, using only the public HTML
// surface of the wiki, with no database access or API keys required.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., html/, http/, sqlite/).
package wikiexport
