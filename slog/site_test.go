package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/nlitsme/wikiexport"
	"github.com/nlitsme/wikiexport/mock"
	wikislog "github.com/nlitsme/wikiexport/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingSite(t *testing.T) {
	t.Parallel()

	t.Run("logs list index with counts and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Site{
			ListIndexFn: func(ctx context.Context, namespace int, from, to string) (*wikiexport.Listing, error) {
				return &wikiexport.Listing{Pages: []string{"Apple", "Banana"}, Next: "Cherry"}, nil
			},
		}

		site := wikislog.NewLoggingSite(inner, debugLogger(&buf))
		listing, err := site.ListIndex(context.Background(), 4, "A", "Z")

		require.NoError(t, err)
		assert.Len(t, listing.Pages, 2)
		output := buf.String()
		assert.Contains(t, output, "list index")
		assert.Contains(t, output, "namespace=4")
		assert.Contains(t, output, "pages=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs export failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Site{
			ExportFn: func(ctx context.Context, titles []string, currentOnly bool) ([]byte, error) {
				return nil, wikiexport.Errorf(wikiexport.EUNAVAILABLE, "HTTP 502")
			},
		}

		site := wikislog.NewLoggingSite(inner, debugLogger(&buf))
		_, err := site.Export(context.Background(), []string{"Apple"}, true)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "export")
		assert.Contains(t, output, "HTTP 502")
	})

	t.Run("delegates base URL and close", func(t *testing.T) {
		t.Parallel()

		closed := false
		inner := &mock.Site{
			BaseURLFn: func() string { return "http://wiki.test/w/index.php" },
			CloseFn:   func() error { closed = true; return nil },
		}

		site := wikislog.NewLoggingSite(inner, debugLogger(&bytes.Buffer{}))
		assert.Equal(t, "http://wiki.test/w/index.php", site.BaseURL())
		require.NoError(t, site.Close())
		assert.True(t, closed)
	})
}

func TestLoggingFetcher(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with size and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "<html></html>", nil
			},
		}

		fetcher := wikislog.NewLoggingFetcher(inner, debugLogger(&buf))
		html, err := fetcher.Fetch(context.Background(), "http://wiki.test/")

		require.NoError(t, err)
		assert.Equal(t, "<html></html>", html)
		output := buf.String()
		assert.Contains(t, output, "fetch")
		assert.Contains(t, output, "url=http://wiki.test/")
		assert.Contains(t, output, "bytes=13")
	})
}
