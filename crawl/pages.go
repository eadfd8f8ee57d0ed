package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/nlitsme/wikiexport"
)

// Ensure Pager implements wikiexport.PageLister at compile time.
var _ wikiexport.PageLister = (*Pager)(nil)

// Pager walks a namespace's paginated page index and yields every title
// exactly once, in the server's listing order.
//
// The index has two page shapes. A chunk index lists sub-ranges of the
// namespace; the pager descends into each range in order. A leaf listing
// carries concrete titles plus an optional continuation cursor. Pending
// ranges live on an explicit work stack rather than the call stack, so a
// deeply chunked wiki cannot exhaust call depth.
type Pager struct {
	Site   wikiexport.Site
	Logger *slog.Logger

	// Strict propagates transport failures instead of abandoning the walk.
	Strict bool

	// RetryDelays overrides the backoff schedule for failed listing
	// fetches. Nil means DefaultRetryDelays; empty means no retries.
	RetryDelays []time.Duration
}

// frame is one pending sub-range of the index walk.
type frame struct {
	from string
	to   string
}

// ListPages yields every page title in the namespace to fn, in listing
// order. A transport failure that survives retries ends the walk early with
// the titles already yielded preserved; in strict mode it is returned
// instead. An error from fn stops the walk and is returned as-is.
func (p *Pager) ListPages(ctx context.Context, namespace int, fn func(title string) error) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delays := p.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	// The whole namespace is the initial unbounded range.
	stack := []frame{{}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		from, to := fr.from, fr.to

		// Cursor loop over one range's leaf listings.
		for {
			var listing *wikiexport.Listing
			err := DoWithRetryDelays(ctx, func(ctx context.Context) error {
				var err error
				listing, err = p.Site.ListIndex(ctx, namespace, from, to)
				return err
			}, delays)
			if err != nil {
				if p.Strict {
					return err
				}
				logger.Warn("listing fetch failed, ending walk early",
					"namespace", namespace, "from", from, "to", to, "err", err)
				return nil
			}

			if listing.IsIndex() {
				// A chunk index never also carries leaf pages or a
				// cursor. Push its ranges in reverse so the stack pops
				// them in document order.
				for i := len(listing.Ranges) - 1; i >= 0; i-- {
					r := listing.Ranges[i]
					stack = append(stack, frame{from: r.From, to: r.To})
				}
				break
			}

			for _, title := range listing.Pages {
				if err := fn(title); err != nil {
					return err
				}
			}

			next := listing.Next
			if next == "" {
				break
			}
			if from != "" && next <= from {
				// A cursor that does not advance would loop forever.
				logger.Warn("pagination cursor regressed, stopping range",
					"namespace", namespace, "from", from, "next", next)
				break
			}
			from, to = next, ""
		}
	}

	return nil
}
