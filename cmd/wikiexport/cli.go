package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/nlitsme/wikiexport"
	"github.com/nlitsme/wikiexport/crawl"
	"github.com/nlitsme/wikiexport/etree"
	"github.com/nlitsme/wikiexport/fs"
	"github.com/nlitsme/wikiexport/goquery"
	wikihttp "github.com/nlitsme/wikiexport/http"
	"github.com/nlitsme/wikiexport/rod"
	wikislog "github.com/nlitsme/wikiexport/slog"
	"github.com/nlitsme/wikiexport/sqlite"
)

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	History   bool          `help:"Export full revision history instead of current revisions only."`
	SaveDir   string        `name:"savedir" placeholder:"DIR" help:"Download media files into DIR."`
	Limit     int           `default:"10" help:"Maximum simultaneous connections."`
	BatchSize int           `name:"batchsize" default:"300" help:"Titles per bulk export request."`
	Strict    bool          `help:"Abort on the first error instead of logging and continuing."`
	Manifest  string        `placeholder:"PATH" help:"Record crawl provenance in a SQLite manifest at PATH."`
	Render    bool          `help:"Fetch the seed page with a headless browser."`
	RPS       float64       `name:"rps" help:"Request rate cap in requests per second."`
	Timeout   time.Duration `default:"30s" help:"Per-request timeout."`
	Verbose   bool          `short:"v" help:"Enable debug logging."`
	URL       string        `arg:"" required:"" help:"Seed page URL of the wiki to export."`
}

// Run executes the CLI with the given arguments. The concatenated export
// XML goes to stdout; all diagnostics go to stderr.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("wikiexport"),
		kong.Description("Export a full MediaWiki site as XML via its public HTML surface"),
		kong.Writers(stderr, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Seed fetcher: plain HTTP, or a rendering browser behind the same
	// interface when the wiki sits behind a JavaScript challenge.
	var fetcher wikiexport.Fetcher
	if cli.Render {
		rodFetcher, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rodFetcher
	} else {
		fetcher = wikihttp.NewFetcher(wikihttp.WithFetchTimeout(cli.Timeout))
	}
	fetcher = wikislog.NewLoggingFetcher(fetcher, logger)
	defer fetcher.Close()

	crawler := &crawl.Crawler{
		Fetcher: fetcher,
		NewSite: func(baseURL string) (wikiexport.Site, error) {
			site, err := wikihttp.NewSite(baseURL,
				wikihttp.WithConnectionLimit(cli.Limit),
				wikihttp.WithTimeout(cli.Timeout),
				wikihttp.WithRateLimit(cli.RPS),
				wikihttp.WithUserAgent(wikihttp.DefaultUserAgent),
				wikihttp.WithLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			return wikislog.NewLoggingSite(site, logger), nil
		},
		Prober:      goquery.NewProber(),
		Inspector:   etree.NewInspector(),
		Logger:      logger,
		Concurrency: cli.Limit,
		BatchSize:   cli.BatchSize,
		History:     cli.History,
		Strict:      cli.Strict,
	}

	if cli.SaveDir != "" {
		store, err := fs.NewStore(cli.SaveDir)
		if err != nil {
			return fmt.Errorf("failed to open save directory: %w", err)
		}
		crawler.Store = store
	}

	if cli.Manifest != "" {
		db := sqlite.NewDB(cli.Manifest)
		if err := db.Open(); err != nil {
			return fmt.Errorf("failed to open manifest: %w", err)
		}
		defer db.Close()
		crawler.Manifest = sqlite.NewManifestService(db)
	}

	result, err := crawler.Run(ctx, cli.URL, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", wikiexport.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(stderr, "Exported %d pages in %d batches (%d namespaces, %d downloads, %d skipped, %d failed)\n",
		result.Pages, result.Batches, result.Namespaces, result.Downloads, result.Skipped, result.Failed)
	return nil
}
