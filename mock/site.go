// Package mock provides function-field mock implementations of the domain
// interfaces for use in tests.
package mock

import (
	"context"
	"io"

	"github.com/nlitsme/wikiexport"
)

var _ wikiexport.Site = (*Site)(nil)

// Site is a mock implementation of wikiexport.Site.
type Site struct {
	BaseURLFn      func() string
	NamespacesFn   func(ctx context.Context) ([]wikiexport.Namespace, error)
	ListIndexFn    func(ctx context.Context, namespace int, from, to string) (*wikiexport.Listing, error)
	ExportFn       func(ctx context.Context, titles []string, currentOnly bool) ([]byte, error)
	ExportPageFn   func(ctx context.Context, title string) ([]byte, error)
	DownloadFileFn func(ctx context.Context, name string, w io.WriteCloser) error
	CloseFn        func() error
}

func (s *Site) BaseURL() string {
	if s.BaseURLFn == nil {
		return ""
	}
	return s.BaseURLFn()
}

func (s *Site) Namespaces(ctx context.Context) ([]wikiexport.Namespace, error) {
	return s.NamespacesFn(ctx)
}

func (s *Site) ListIndex(ctx context.Context, namespace int, from, to string) (*wikiexport.Listing, error) {
	return s.ListIndexFn(ctx, namespace, from, to)
}

func (s *Site) Export(ctx context.Context, titles []string, currentOnly bool) ([]byte, error) {
	return s.ExportFn(ctx, titles, currentOnly)
}

func (s *Site) ExportPage(ctx context.Context, title string) ([]byte, error) {
	return s.ExportPageFn(ctx, title)
}

func (s *Site) DownloadFile(ctx context.Context, name string, w io.WriteCloser) error {
	return s.DownloadFileFn(ctx, name, w)
}

func (s *Site) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
