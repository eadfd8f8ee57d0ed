// Package slog provides logging decorators for the domain interfaces.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/nlitsme/wikiexport"
)

// Ensure LoggingSite implements wikiexport.Site.
var _ wikiexport.Site = (*LoggingSite)(nil)

// LoggingSite wraps a Site with debug logging.
type LoggingSite struct {
	next   wikiexport.Site
	logger *slog.Logger
}

// NewLoggingSite creates a new LoggingSite.
func NewLoggingSite(next wikiexport.Site, logger *slog.Logger) *LoggingSite {
	return &LoggingSite{next: next, logger: logger}
}

// BaseURL delegates to the wrapped site.
func (s *LoggingSite) BaseURL() string {
	return s.next.BaseURL()
}

// Namespaces delegates to the wrapped site and logs the operation.
func (s *LoggingSite) Namespaces(ctx context.Context) (namespaces []wikiexport.Namespace, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("namespaces",
			"count", len(namespaces),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Namespaces(ctx)
}

// ListIndex delegates to the wrapped site and logs the operation.
func (s *LoggingSite) ListIndex(ctx context.Context, namespace int, from, to string) (listing *wikiexport.Listing, err error) {
	defer func(begin time.Time) {
		ranges, pages := 0, 0
		if listing != nil {
			ranges, pages = len(listing.Ranges), len(listing.Pages)
		}
		s.logger.Debug("list index",
			"namespace", namespace,
			"from", from,
			"to", to,
			"ranges", ranges,
			"pages", pages,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListIndex(ctx, namespace, from, to)
}

// Export delegates to the wrapped site and logs the operation.
func (s *LoggingSite) Export(ctx context.Context, titles []string, currentOnly bool) (payload []byte, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("export",
			"titles", len(titles),
			"currentOnly", currentOnly,
			"bytes", len(payload),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Export(ctx, titles, currentOnly)
}

// ExportPage delegates to the wrapped site and logs the operation.
func (s *LoggingSite) ExportPage(ctx context.Context, title string) (payload []byte, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("export page",
			"title", title,
			"bytes", len(payload),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ExportPage(ctx, title)
}

// DownloadFile delegates to the wrapped site and logs the operation.
func (s *LoggingSite) DownloadFile(ctx context.Context, name string, w io.WriteCloser) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("download file",
			"name", name,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DownloadFile(ctx, name, w)
}

// Close delegates to the wrapped site.
func (s *LoggingSite) Close() error {
	return s.next.Close()
}
