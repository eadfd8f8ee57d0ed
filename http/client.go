// Package http provides the HTTP session with a MediaWiki installation
// (connection pool, cookie jar, export and download endpoints) and an
// HTTP-based seed page fetcher.
package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nlitsme/wikiexport"
	wikihtml "github.com/nlitsme/wikiexport/html"
	"golang.org/x/time/rate"
)

// DefaultRequestTimeout bounds each individual request. An unresponsive
// server must not hang the whole crawl.
const DefaultRequestTimeout = 30 * time.Second

// DefaultUserAgent is attached to every request. Some wikis serve reduced
// chrome (or nothing at all) to unknown clients, so we present a browser.
const DefaultUserAgent = "Mozilla/6.0 (Windows; U; Windows NT 6.0; en-US) Gecko/2009032609 (KHTML, like Gecko) Chrome/2.0.172.6 Safari/530.7"

// downloadChunkSize is the read size for streaming media downloads.
const downloadChunkSize = 64 * 1024

// Ensure Site implements wikiexport.Site at compile time.
var _ wikiexport.Site = (*Site)(nil)

// Site is an HTTP session with one MediaWiki installation. All requests go
// through a single connection pool and cookie jar; the pool's per-host
// connection cap is the crawl's backpressure mechanism.
type Site struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger

	connLimit int
	timeout   time.Duration
}

// Option configures a Site.
type Option func(*Site)

// WithConnectionLimit caps the number of simultaneous connections to the
// wiki. Zero means no cap.
func WithConnectionLimit(n int) Option {
	return func(s *Site) { s.connLimit = n }
}

// WithTimeout sets the per-request timeout.
// Defaults to DefaultRequestTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(s *Site) { s.timeout = d }
}

// WithRateLimit caps outgoing requests at rps requests per second.
// Zero (the default) disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(s *Site) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Site) { s.userAgent = ua }
}

// WithLogger sets a logger for non-fatal extraction diagnostics.
// Defaults to discarding them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) { s.logger = logger }
}

// NewSite creates a session with the wiki whose script endpoint is baseURL
// (the discovered base path resolved against the seed URL, e.g.
// "https://wiki.example.org/w/index.php").
func NewSite(baseURL string, opts ...Option) (*Site, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() {
		return nil, wikiexport.Errorf(wikiexport.EINVALID, "base URL %q is not absolute", baseURL)
	}

	s := &Site{
		baseURL:   baseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	// The client carries no overall deadline. The transport bounds dial,
	// TLS, and header wait; body reads are bounded per endpoint, which lets
	// a large media download proceed past the timeout as long as it makes
	// progress.
	s.client = &http.Client{
		Jar: jar,
		Transport: &http.Transport{
			MaxConnsPerHost:       s.connLimit,
			MaxIdleConnsPerHost:   s.connLimit,
			DialContext:           (&net.Dialer{Timeout: s.timeout}).DialContext,
			TLSHandshakeTimeout:   s.timeout,
			ResponseHeaderTimeout: s.timeout,
		},
	}
	return s, nil
}

// deadline bounds the full request/response exchange. Used for endpoints
// whose bodies are read whole.
func (s *Site) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// BaseURL returns the wiki's script endpoint.
func (s *Site) BaseURL() string { return s.baseURL }

// Close releases the session's network resources.
func (s *Site) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// get performs a GET against the base URL plus an optional extra path
// segment, with the session headers attached.
func (s *Site) get(ctx context.Context, params url.Values, path string) (*http.Response, error) {
	target := s.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

// postForm performs a form POST against the base URL.
func (s *Site) postForm(ctx context.Context, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Site) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Referer", s.baseURL)

	if s.limiter != nil {
		if err := s.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, wikiexport.Errorf(wikiexport.EUNAVAILABLE, "request %s: %v", req.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, wikiexport.Errorf(wikiexport.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, req.URL)
	}
	return resp, nil
}

// getText performs a GET and returns the response body as a string.
func (s *Site) getText(ctx context.Context, params url.Values, path string) (string, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	resp, err := s.get(ctx, params, path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wikiexport.Errorf(wikiexport.EUNAVAILABLE, "reading %s: %v", resp.Request.URL, err)
	}
	return string(body), nil
}

// Namespaces fetches the wiki's namespace table from the namespace selector
// on Special:PrefixIndex.
func (s *Site) Namespaces(ctx context.Context) ([]wikiexport.Namespace, error) {
	page, err := s.getText(ctx, url.Values{"title": {"Special:PrefixIndex"}}, "")
	if err != nil {
		return nil, err
	}

	namespaces, diags := wikihtml.ExtractNamespaces(page)
	s.logDiags("namespaces", diags)
	return namespaces, nil
}

// ListIndex fetches one page of the Special:AllPages index for the
// namespace, bounded by from/to (either may be empty).
func (s *Site) ListIndex(ctx context.Context, namespace int, from, to string) (*wikiexport.Listing, error) {
	params := url.Values{
		"title":     {"Special:AllPages"},
		"namespace": {fmt.Sprint(namespace)},
	}
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}

	page, err := s.getText(ctx, params, "")
	if err != nil {
		return nil, err
	}

	listing, diags := wikihtml.ExtractListing(page)
	s.logDiags("listing", diags)
	return listing, nil
}

// Export requests the bulk XML export for the given titles.
func (s *Site) Export(ctx context.Context, titles []string, currentOnly bool) ([]byte, error) {
	form := url.Values{
		"title":  {"Special:Export"},
		"action": {"submit"},
		"pages":  {strings.Join(titles, "\n")},
	}
	if currentOnly {
		form.Set("curonly", "true")
	}

	ctx, cancel := s.deadline(ctx)
	defer cancel()

	resp, err := s.postForm(ctx, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wikiexport.Errorf(wikiexport.EUNAVAILABLE, "reading export: %v", err)
	}
	return payload, nil
}

// ExportPage requests the XML export of a single page via the per-page
// endpoint.
func (s *Site) ExportPage(ctx context.Context, title string) ([]byte, error) {
	ctx, cancel := s.deadline(ctx)
	defer cancel()

	resp, err := s.get(ctx, nil, "/Special:Export/"+url.PathEscape(title))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wikiexport.Errorf(wikiexport.EUNAVAILABLE, "reading export of %q: %v", title, err)
	}
	return payload, nil
}

// DownloadFile streams the media file with the given local name into w in
// fixed-size chunks. w is closed on completion or error. The timeout bounds
// progress per chunk rather than the whole transfer, so a large file on a
// slow link still completes while a stalled one fails.
func (s *Site) DownloadFile(ctx context.Context, name string, w io.WriteCloser) error {
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := s.get(ctx, url.Values{"title": {"Special:Redirect/file/" + name}}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var stall *time.Timer
	if s.timeout > 0 {
		stall = time.AfterFunc(s.timeout, cancel)
		defer stall.Stop()
	}

	buf := make([]byte, downloadChunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if stall != nil {
			stall.Reset(s.timeout)
		}
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return wikiexport.Errorf(wikiexport.EUNAVAILABLE, "downloading %q: %v", name, werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wikiexport.Errorf(wikiexport.EUNAVAILABLE, "downloading %q: %v", name, err)
		}
	}
}

func (s *Site) logDiags(op string, diags []wikihtml.Diagnostic) {
	for _, d := range diags {
		s.logger.Warn("markup diagnostic", "op", op, "detail", d.Message)
	}
}
