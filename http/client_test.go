package http_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nlitsme/wikiexport"
	wikihttp "github.com/nlitsme/wikiexport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopWriteCloser adapts a buffer for DownloadFile's sink argument.
type nopWriteCloser struct {
	*bytes.Buffer
	closed bool
}

func (w *nopWriteCloser) Close() error {
	w.closed = true
	return nil
}

func TestSite_NewSite(t *testing.T) {
	t.Parallel()

	t.Run("rejects relative base URL", func(t *testing.T) {
		t.Parallel()

		_, err := wikihttp.NewSite("/w/index.php")
		require.Error(t, err)
		assert.Equal(t, wikiexport.EINVALID, wikiexport.ErrorCode(err))
	})
}

func TestSite_Namespaces(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Special:PrefixIndex", r.URL.Query().Get("title"))
		assert.NotEmpty(t, r.Header.Get("Referer"))
		_, _ = io.WriteString(w, `<select id="namespace">
			<option value="0">(Main)</option>
			<option value="1">Talk</option>
		</select>`)
	}))
	defer server.Close()

	site, err := wikihttp.NewSite(server.URL + "/index.php")
	require.NoError(t, err)
	defer site.Close()

	namespaces, err := site.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []wikiexport.Namespace{
		{ID: 0, Name: "(Main)"},
		{ID: 1, Name: "Talk"},
	}, namespaces)
}

func TestSite_ListIndex(t *testing.T) {
	t.Parallel()

	t.Run("sends bounds and parses the leaf listing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "Special:AllPages", q.Get("title"))
			assert.Equal(t, "4", q.Get("namespace"))
			assert.Equal(t, "Apple", q.Get("from"))
			assert.Equal(t, "Cherry", q.Get("to"))
			_, _ = io.WriteString(w, `<ul class="mw-allpages-chunk">
				<li><a title="Apple">Apple</a></li>
				<li><a title="Banana">Banana</a></li>
			</ul>`)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		listing, err := site.ListIndex(context.Background(), 4, "Apple", "Cherry")
		require.NoError(t, err)
		assert.Equal(t, []string{"Apple", "Banana"}, listing.Pages)
	})

	t.Run("omits empty bounds", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.False(t, q.Has("from"))
			assert.False(t, q.Has("to"))
			_, _ = io.WriteString(w, `<ul class="mw-allpages-chunk"></ul>`)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		_, err = site.ListIndex(context.Background(), 0, "", "")
		require.NoError(t, err)
	})

	t.Run("server error is an unavailable error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		_, err = site.ListIndex(context.Background(), 0, "", "")
		require.Error(t, err)
		assert.Equal(t, wikiexport.EUNAVAILABLE, wikiexport.ErrorCode(err))
	})
}

func TestSite_Export(t *testing.T) {
	t.Parallel()

	t.Run("posts newline-joined titles with curonly", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Special:Export", r.PostForm.Get("title"))
			assert.Equal(t, "submit", r.PostForm.Get("action"))
			assert.Equal(t, "Apple\nBanana", r.PostForm.Get("pages"))
			assert.Equal(t, "true", r.PostForm.Get("curonly"))
			_, _ = io.WriteString(w, `<mediawiki><page/></mediawiki>`)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		payload, err := site.Export(context.Background(), []string{"Apple", "Banana"}, true)
		require.NoError(t, err)
		assert.Equal(t, "<mediawiki><page/></mediawiki>", string(payload))
	})

	t.Run("history export omits curonly", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.False(t, r.PostForm.Has("curonly"))
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		_, err = site.Export(context.Background(), []string{"Apple"}, false)
		require.NoError(t, err)
	})
}

func TestSite_ExportPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/index.php/Special:Export/Some%20Page", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `<mediawiki/>`)
	}))
	defer server.Close()

	site, err := wikihttp.NewSite(server.URL + "/index.php")
	require.NoError(t, err)
	defer site.Close()

	payload, err := site.ExportPage(context.Background(), "Some Page")
	require.NoError(t, err)
	assert.Equal(t, "<mediawiki/>", string(payload))
}

func TestSite_DownloadFile(t *testing.T) {
	t.Parallel()

	t.Run("streams body and closes the sink", func(t *testing.T) {
		t.Parallel()

		payload := bytes.Repeat([]byte{0x89, 0x50, 0x4e, 0x47}, 64*1024)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Special:Redirect/file/logo.png", r.URL.Query().Get("title"))
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		sink := &nopWriteCloser{Buffer: &bytes.Buffer{}}
		require.NoError(t, site.DownloadFile(context.Background(), "logo.png", sink))
		assert.Equal(t, payload, sink.Bytes())
		assert.True(t, sink.closed)
	})

	t.Run("closes the sink on error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL + "/index.php")
		require.NoError(t, err)
		defer site.Close()

		sink := &nopWriteCloser{Buffer: &bytes.Buffer{}}
		require.Error(t, site.DownloadFile(context.Background(), "missing.png", sink))
		assert.True(t, sink.closed)
	})

	t.Run("transfer slower than the timeout completes while chunks keep arriving", func(t *testing.T) {
		t.Parallel()

		const chunks = 6
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := w.(http.Flusher)
			for i := 0; i < chunks; i++ {
				_, _ = io.WriteString(w, "chunk")
				f.Flush()
				time.Sleep(30 * time.Millisecond)
			}
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL+"/index.php", wikihttp.WithTimeout(100*time.Millisecond))
		require.NoError(t, err)
		defer site.Close()

		sink := &nopWriteCloser{Buffer: &bytes.Buffer{}}
		require.NoError(t, site.DownloadFile(context.Background(), "big.iso", sink))
		assert.Equal(t, bytes.Repeat([]byte("chunk"), chunks), sink.Bytes())
	})

	t.Run("stalled transfer fails after the timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "partial")
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
		defer server.Close()

		site, err := wikihttp.NewSite(server.URL+"/index.php", wikihttp.WithTimeout(50*time.Millisecond))
		require.NoError(t, err)
		defer site.Close()

		sink := &nopWriteCloser{Buffer: &bytes.Buffer{}}
		err = site.DownloadFile(context.Background(), "stalled.iso", sink)
		require.Error(t, err)
		assert.Equal(t, wikiexport.EUNAVAILABLE, wikiexport.ErrorCode(err))
		assert.True(t, sink.closed)
	})
}

func TestSite_SessionHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
	}))
	defer server.Close()

	base := server.URL + "/index.php"
	site, err := wikihttp.NewSite(base, wikihttp.WithUserAgent("wikiexport-test"))
	require.NoError(t, err)
	defer site.Close()

	_, err = site.Export(context.Background(), []string{"X"}, true)
	require.NoError(t, err)
	assert.Equal(t, "wikiexport-test", gotUA)
	assert.Equal(t, base, gotReferer)
}

func TestSite_CookiesPersistAcrossRequests(t *testing.T) {
	t.Parallel()

	var second *http.Cookie
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			return
		}
		second, _ = r.Cookie("session")
	}))
	defer server.Close()

	site, err := wikihttp.NewSite(server.URL + "/index.php")
	require.NoError(t, err)
	defer site.Close()

	ctx := context.Background()
	_, err = site.Export(ctx, []string{"X"}, true)
	require.NoError(t, err)
	_, err = site.Export(ctx, []string{"Y"}, true)
	require.NoError(t, err)

	require.NotNil(t, second)
	assert.Equal(t, "abc", second.Value)
}
