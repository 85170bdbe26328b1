package paginator

import (
	"context"
	"time"

	"truthkit/pkg/errors"
	"truthkit/pkg/logger"
)

// Item is the structured-item contract every crawled entity satisfies. The
// engine depends on nothing else: an ID for deduplication and a creation
// timestamp for date cutoffs.
type Item interface {
	ItemID() string
	ItemCreatedAt() time.Time
}

// FetchFunc fetches one page of a collection. cursor is opaque; empty means
// start of collection. It returns the page items and the cursor for the
// next page; returning the same cursor it was given signals no progress.
type FetchFunc[T Item] func(ctx context.Context, cursor string) ([]T, string, error)

// CrawlSpec describes one bounded traversal of a paginated collection. A
// spec is single-use: restarting a crawl means constructing a new spec.
type CrawlSpec[T Item] struct {
	// Fetch retrieves one page.
	Fetch FetchFunc[T]

	// Limit stops the crawl after this many items have been emitted.
	// Zero means no count limit.
	Limit int

	// IncludeAll disables the count limit. A CreatedAfter cutoff, if set,
	// still applies.
	IncludeAll bool

	// CreatedAfter excludes items older than this instant. Zero means no
	// date cutoff.
	CreatedAfter time.Time

	// NewestFirst declares the collection chronologically sorted newest
	// first, letting the date cutoff drop the remainder of a page the
	// moment one item is too old. When false, old items are skipped
	// individually and the crawl continues.
	NewestFirst bool

	Logger logger.Logger
}

// stopReason records why a crawl ended.
type stopReason int

const (
	stopNone stopReason = iota
	stopLimit
	stopCutoff
	stopNoProgress
	stopExhausted
)

// Each walks the collection, invoking fn for every deduplicated item in
// fetch order until a stop condition fires, the collection is exhausted, or
// fn returns an error (which aborts the crawl and propagates). Cancellation
// is checked between page fetches.
func Each[T Item](ctx context.Context, spec CrawlSpec[T], fn func(T) error) error {
	log := spec.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	limit := spec.Limit
	if spec.IncludeAll {
		limit = 0
	}

	seen := make(map[string]struct{})
	cursor := ""
	emitted := 0
	pageNum := 0
	emptyStreak := 0

	for {
		if err := ctx.Err(); err != nil {
			return crawlErr(emitted, err)
		}

		items, next, err := spec.Fetch(ctx, cursor)
		if err != nil {
			return crawlErr(emitted, err)
		}
		pageNum++

		log.DebugWithFields("page fetched", map[string]interface{}{
			"page":        pageNum,
			"items":       len(items),
			"cursor":      cursor,
			"next_cursor": next,
		})

		reason := stopNone
		for _, item := range items {
			id := item.ItemID()
			if _, dup := seen[id]; dup {
				continue
			}

			if !spec.CreatedAfter.IsZero() && item.ItemCreatedAt().Before(spec.CreatedAfter) {
				if spec.NewestFirst {
					// Everything after this item is older still; drop the
					// rest of the page.
					reason = stopCutoff
					break
				}
				continue
			}

			seen[id] = struct{}{}
			if err := fn(item); err != nil {
				return crawlErr(emitted, err)
			}
			emitted++

			if limit > 0 && emitted >= limit {
				reason = stopLimit
				break
			}
		}

		if reason == stopNone {
			switch {
			case next == cursor:
				// Unchanged cursor: the source cannot make progress.
				reason = stopNoProgress
			case len(items) == 0:
				// Tolerate one empty page with a fresh cursor; a short page
				// does not necessarily mean end of collection.
				emptyStreak++
				if emptyStreak >= 2 {
					reason = stopExhausted
				}
			default:
				emptyStreak = 0
			}
		}

		if reason != stopNone {
			log.DebugWithFields("crawl finished", map[string]interface{}{
				"pages":   pageNum,
				"emitted": emitted,
				"reason":  reasonString(reason),
			})
			return nil
		}

		cursor = next
	}
}

// Crawl collects the crawl's items into a slice. On a mid-crawl failure it
// returns the items fetched so far along with a PartialCrawlError.
func Crawl[T Item](ctx context.Context, spec CrawlSpec[T]) ([]T, error) {
	var out []T
	err := Each(ctx, spec, func(item T) error {
		out = append(out, item)
		return nil
	})
	return out, err
}

// crawlErr wraps a failure in a PartialCrawlError when at least one item
// was already yielded; a first-page failure propagates unchanged.
func crawlErr(yielded int, err error) error {
	if yielded == 0 {
		return err
	}
	return &errors.PartialCrawlError{Yielded: yielded, Err: err}
}

func reasonString(r stopReason) string {
	switch r {
	case stopLimit:
		return "count limit"
	case stopCutoff:
		return "date cutoff"
	case stopNoProgress:
		return "no progress"
	case stopExhausted:
		return "exhausted"
	default:
		return "none"
	}
}
