package mock

import (
	"context"

	"github.com/nlitsme/wikiexport"
)

var _ wikiexport.PageLister = (*PageLister)(nil)

// PageLister is a mock implementation of wikiexport.PageLister.
type PageLister struct {
	ListPagesFn func(ctx context.Context, namespace int, fn func(title string) error) error
}

func (l *PageLister) ListPages(ctx context.Context, namespace int, fn func(title string) error) error {
	return l.ListPagesFn(ctx, namespace, fn)
}
