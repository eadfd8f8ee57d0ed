// Package crawl provides full-site crawl orchestration. It coordinates
// base-path discovery, namespace enumeration, index pagination, batched XML
// exports, and media downloads.
package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nlitsme/wikiexport"
	"github.com/nlitsme/wikiexport/bloom"
	wikihtml "github.com/nlitsme/wikiexport/html"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of titles flushed together as one bulk
// export request.
const DefaultBatchSize = 300

// DefaultConcurrency caps the number of export/download jobs with in-flight
// network I/O.
const DefaultConcurrency = 10

// Title filter sizing for duplicate suppression across a walk.
const (
	filterExpectedTitles    = 100000
	filterFalsePositiveRate = 0.01
)

// Crawler orchestrates a full-site export: it discovers the wiki's script
// endpoint from a seed page, enumerates namespaces, drains each namespace's
// page index, and turns the titles into concurrent export and download jobs.
type Crawler struct {
	// Fetcher retrieves the seed page for base-path discovery.
	Fetcher wikiexport.Fetcher

	// NewSite opens the session with the discovered endpoint.
	NewSite func(baseURL string) (wikiexport.Site, error)

	// Prober, when set, sanity-checks the seed page's engine before the
	// crawl starts.
	Prober wikiexport.EngineProber

	// Store, when set, receives media files for File: pages.
	Store wikiexport.FileStore

	// Manifest, when set, records run provenance.
	Manifest wikiexport.ManifestService

	// Inspector, when set, counts pages and revisions in export payloads.
	Inspector wikiexport.ExportInspector

	Logger      *slog.Logger
	Concurrency int
	BatchSize   int

	// History exports full revision history instead of current revisions.
	History bool

	// Strict propagates the first failure instead of logging and
	// continuing.
	Strict bool

	RetryDelays []time.Duration
}

// Result holds the outcome of a crawl.
type Result struct {
	Namespaces int
	Pages      int
	Batches    int
	Downloads  int
	Skipped    int
	Failed     int
	Bytes      int
	Revisions  int
}

type jobKind int

const (
	jobExport jobKind = iota
	jobExportSingle
	jobDownload
)

// job is one unit of scheduled work: an export batch or a media download.
type job struct {
	kind      jobKind
	namespace int
	titles    []string
	title     string // download page title
	name      string // download local file name
}

// jobResult holds the outcome of one job.
type jobResult struct {
	payload []byte
	bytes   int64
	hash    uint64
	err     error
}

// Run crawls the wiki reachable from seedURL and writes the export payloads
// to out in scheduling order, one self-contained XML document after another.
// Diagnostics go to the logger, never to out.
func (c *Crawler) Run(ctx context.Context, seedURL string, out io.Writer) (*Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	site, err := c.discover(ctx, seedURL, logger, delays)
	if err != nil {
		return nil, err
	}
	defer site.Close()

	var run *wikiexport.Run
	if c.Manifest != nil {
		run = &wikiexport.Run{SeedURL: seedURL, BaseURL: site.BaseURL()}
		if err := c.Manifest.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}

	var namespaces []wikiexport.Namespace
	err = DoWithRetryDelays(ctx, func(ctx context.Context) error {
		var err error
		namespaces, err = site.Namespaces(ctx)
		return err
	}, delays)
	if err != nil {
		return nil, err
	}
	logger.Info("namespaces enumerated", "count", len(namespaces))

	result := &Result{Namespaces: len(namespaces)}
	jobs, err := c.collectJobs(ctx, site, namespaces, logger, delays, result)
	if err != nil {
		return nil, err
	}

	results, err := c.runJobs(ctx, site, jobs, logger, delays)
	if err != nil {
		return nil, err
	}

	if err := c.resolve(ctx, run, jobs, results, out, logger, result); err != nil {
		return nil, err
	}

	if run != nil {
		if err := c.Manifest.FinishRun(ctx, run.ID); err != nil {
			logger.Warn("finishing manifest run", "err", err)
		}
	}

	logger.Info("crawl finished",
		"namespaces", result.Namespaces,
		"pages", result.Pages,
		"batches", result.Batches,
		"downloads", result.Downloads,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"bytes", result.Bytes,
		"revisions", result.Revisions)
	return result, nil
}

// discover fetches the seed page, checks the engine, extracts the script
// base path, and opens the site session.
func (c *Crawler) discover(ctx context.Context, seedURL string, logger *slog.Logger, delays []time.Duration) (wikiexport.Site, error) {
	seed, err := url.Parse(seedURL)
	if err != nil || !seed.IsAbs() {
		return nil, wikiexport.Errorf(wikiexport.EINVALID, "seed URL %q is not absolute", seedURL)
	}

	var page string
	err = DoWithRetryDelays(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.Fetcher.Fetch(ctx, seedURL)
		return err
	}, delays)
	if err != nil {
		return nil, err
	}

	if c.Prober != nil {
		info := c.Prober.Probe(page)
		if info.Engine != wikiexport.EngineMediaWiki {
			if c.Strict {
				return nil, wikiexport.Errorf(wikiexport.EINVALID, "seed page does not look like a MediaWiki installation")
			}
			logger.Warn("seed page does not look like a MediaWiki installation")
		} else {
			logger.Info("engine identified", "generator", info.Generator, "skin", info.Skin)
		}
	}

	base, diags, err := wikihtml.ExtractBasePath(page)
	for _, d := range diags {
		logger.Warn("markup diagnostic", "op", "basepath", "detail", d.Message)
	}
	if err != nil {
		return nil, err
	}

	ref, err := url.Parse(base)
	if err != nil {
		return nil, wikiexport.Errorf(wikiexport.EINTERNAL, "discovered base path %q is not a valid URL", base)
	}
	baseURL := seed.ResolveReference(ref).String()
	logger.Info("base path discovered", "base", base, "url", baseURL)

	return c.NewSite(baseURL)
}

// collectJobs drains every namespace's page index and folds the titles into
// export batches and download jobs, preserving listing order.
func (c *Crawler) collectJobs(ctx context.Context, site wikiexport.Site, namespaces []wikiexport.Namespace, logger *slog.Logger, delays []time.Duration, result *Result) ([]job, error) {
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	pager := &Pager{Site: site, Logger: logger, Strict: c.Strict, RetryDelays: delays}
	seen := bloom.NewFilter(filterExpectedTitles, filterFalsePositiveRate)
	titles := make(map[string]struct{})

	var jobs []job
	for _, ns := range namespaces {
		logger.Info("walking namespace", "id", ns.ID, "name", ns.Name)

		var batch []string
		err := pager.ListPages(ctx, ns.ID, func(title string) error {
			// The filter answers the common case without a map lookup;
			// a positive is confirmed against the exact set so a
			// collision can never drop a page.
			if seen.Test(title) {
				if _, dup := titles[title]; dup {
					logger.Debug("duplicate title suppressed", "title", title)
					result.Skipped++
					return nil
				}
			}
			seen.Add(title)
			titles[title] = struct{}{}
			result.Pages++

			if name, ok := wikiexport.ParseFileTitle(title); ok && c.Store != nil {
				if !wikiexport.SafeFileName(name) {
					logger.Warn("skipping unsafe file name", "title", title)
					result.Skipped++
				} else {
					jobs = append(jobs, job{kind: jobDownload, namespace: ns.ID, title: title, name: name})
				}
			}

			batch = append(batch, title)
			if len(batch) == batchSize {
				jobs = append(jobs, c.exportJob(ns.ID, batch, batchSize))
				batch = nil
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		// The trailing remainder always goes through the bulk endpoint,
		// even when it holds a single title.
		if len(batch) > 0 {
			jobs = append(jobs, job{kind: jobExport, namespace: ns.ID, titles: batch})
		}
	}
	return jobs, nil
}

// exportJob builds the job for a full batch. A batch bound of exactly one
// uses the dedicated single-page endpoint.
func (c *Crawler) exportJob(namespace int, batch []string, batchSize int) job {
	if batchSize == 1 {
		return job{kind: jobExportSingle, namespace: namespace, titles: batch}
	}
	return job{kind: jobExport, namespace: namespace, titles: batch}
}

// runJobs executes the jobs concurrently up to the connection cap and
// collects each outcome at the job's position. In strict mode the first
// failure cancels the group.
func (c *Crawler) runJobs(ctx context.Context, site wikiexport.Site, jobs []job, logger *slog.Logger, delays []time.Duration) ([]jobResult, error) {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]jobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, jb := range jobs {
		g.Go(func() error {
			results[i] = c.runJob(gctx, site, jb, delays)
			if err := results[i].err; err != nil {
				if c.Strict {
					return err
				}
				logger.Warn("job failed", "kind", jobName(jb.kind), "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Crawler) runJob(ctx context.Context, site wikiexport.Site, jb job, delays []time.Duration) jobResult {
	var res jobResult
	res.err = DoWithRetryDelays(ctx, func(ctx context.Context) error {
		switch jb.kind {
		case jobExportSingle:
			payload, err := site.ExportPage(ctx, jb.titles[0])
			if err != nil {
				return err
			}
			res.payload = payload
			return nil
		case jobDownload:
			w, err := c.Store.Create(jb.name)
			if err != nil {
				return err
			}
			hw := newHashWriter(w)
			if err := site.DownloadFile(ctx, jb.name, hw); err != nil {
				return err
			}
			res.bytes, res.hash = hw.n, hw.digest.Sum64()
			return nil
		default:
			payload, err := site.Export(ctx, jb.titles, !c.History)
			if err != nil {
				return err
			}
			res.payload = payload
			return nil
		}
	}, delays)
	if res.payload != nil {
		res.bytes = int64(len(res.payload))
		res.hash = xxhash.Sum64(res.payload)
	}
	return res
}

// resolve writes the export payloads to out in scheduling order and folds
// every outcome into the result and the manifest.
func (c *Crawler) resolve(ctx context.Context, run *wikiexport.Run, jobs []job, results []jobResult, out io.Writer, logger *slog.Logger, result *Result) error {
	for i, jb := range jobs {
		res := results[i]
		if res.err != nil {
			result.Failed++
			continue
		}

		switch jb.kind {
		case jobDownload:
			result.Downloads++
			if run != nil {
				rec := &wikiexport.DownloadRecord{
					RunID: run.ID,
					Title: jb.title,
					Name:  jb.name,
					Bytes: res.bytes,
					Hash:  fmt.Sprintf("%016x", res.hash),
				}
				if err := c.Manifest.RecordDownload(ctx, rec); err != nil {
					logger.Warn("recording download", "name", jb.name, "err", err)
				}
			}
		default:
			if _, err := out.Write(res.payload); err != nil {
				return wikiexport.Errorf(wikiexport.EINTERNAL, "writing export output: %v", err)
			}
			result.Batches++
			result.Bytes += len(res.payload)
			if c.Inspector != nil {
				if stats, err := c.Inspector.Inspect(res.payload); err != nil {
					logger.Warn("inspecting export payload", "err", err)
				} else {
					result.Revisions += stats.Revisions
				}
			}
			if run != nil {
				endpoint := "bulk"
				if jb.kind == jobExportSingle {
					endpoint = "single"
				}
				rec := &wikiexport.ExportBatchRecord{
					RunID:     run.ID,
					Namespace: jb.namespace,
					Titles:    len(jb.titles),
					Bytes:     int(res.bytes),
					Hash:      fmt.Sprintf("%016x", res.hash),
					Endpoint:  endpoint,
				}
				if err := c.Manifest.RecordExportBatch(ctx, rec); err != nil {
					logger.Warn("recording export batch", "err", err)
				}
			}
		}
	}
	return nil
}

func jobName(k jobKind) string {
	switch k {
	case jobExportSingle:
		return "export-single"
	case jobDownload:
		return "download"
	default:
		return "export"
	}
}

// hashWriter feeds everything written through it into a content hash while
// counting bytes.
type hashWriter struct {
	w      io.WriteCloser
	digest *xxhash.Digest
	n      int64
}

func newHashWriter(w io.WriteCloser) *hashWriter {
	return &hashWriter{w: w, digest: xxhash.New()}
}

func (h *hashWriter) Write(p []byte) (int, error) {
	n, err := h.w.Write(p)
	_, _ = h.digest.Write(p[:n])
	h.n += int64(n)
	return n, err
}

func (h *hashWriter) Close() error { return h.w.Close() }
