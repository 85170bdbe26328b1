package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"truthkit/internal/archive"
	"truthkit/pkg/errors"
	"truthkit/pkg/paginator"
	"truthkit/pkg/truthsocial"
)

var (
	crawlLimit        int
	crawlAll          bool
	crawlCreatedAfter string
	crawlOldestFirst  bool
	crawlPageSize     int
	crawlArchive      bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl paginated collections",
	Long: `Crawl cursor-paginated collections from the API.

Items are printed to stdout as newline-delimited JSON, deduplicated
across pages. A crawl that fails partway reports how many items it
yielded before the error.

With --archive, crawled items are also upserted into the sqlite archive
configured under archive.path, so repeated crawls refresh in place.`,
}

var crawlStatusesCmd = &cobra.Command{
	Use:   "statuses <handle>",
	Short: "Crawl an account's statuses",
	Example: `  # The 20 most recent posts
  truthkit crawl statuses realwhoever --limit 20

  # Everything posted this year, archived locally
  truthkit crawl statuses realwhoever --all --created-after 2026-01-01 --archive`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd, func(s *truthsocial.Session) (paginator.FetchFunc[truthsocial.Status], string, error) {
			account, err := s.Lookup(cmd.Context(), args[0])
			if err != nil {
				return nil, "", err
			}
			fetch := func(ctx context.Context, cursor string) ([]truthsocial.Status, string, error) {
				return s.AccountStatuses(ctx, account.ID, cursor, crawlPageSize)
			}
			return fetch, "statuses:" + account.ID, nil
		}, true)
	},
}

var crawlCommentsCmd = &cobra.Command{
	Use:   "comments <status-id>",
	Short: "Crawl the comments under a status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd, func(s *truthsocial.Session) (paginator.FetchFunc[truthsocial.Status], string, error) {
			fetch := func(ctx context.Context, cursor string) ([]truthsocial.Status, string, error) {
				return s.Comments(ctx, args[0], cursor, crawlPageSize)
			}
			return fetch, "comments:" + args[0], nil
		}, false)
	},
}

var crawlGroupCmd = &cobra.Command{
	Use:   "group <group-id>",
	Short: "Crawl a group's timeline",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd, func(s *truthsocial.Session) (paginator.FetchFunc[truthsocial.Status], string, error) {
			fetch := func(ctx context.Context, cursor string) ([]truthsocial.Status, string, error) {
				return s.GroupPosts(ctx, args[0], cursor, crawlPageSize)
			}
			return fetch, "group:" + args[0], nil
		}, true)
	},
}

var crawlTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Crawl trending statuses",
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd, func(s *truthsocial.Session) (paginator.FetchFunc[truthsocial.Status], string, error) {
			fetch := func(ctx context.Context, cursor string) ([]truthsocial.Status, string, error) {
				return s.TrendingTruths(ctx, cursor, crawlPageSize)
			}
			return fetch, "trending", nil
		}, false)
	},
}

var crawlFollowersCmd = &cobra.Command{
	Use:   "followers <handle>",
	Short: "Crawl an account's followers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAccountCrawl(cmd, args[0], "followers", func(s *truthsocial.Session, accountID string) paginator.FetchFunc[truthsocial.Account] {
			return func(ctx context.Context, cursor string) ([]truthsocial.Account, string, error) {
				return s.Followers(ctx, accountID, cursor, crawlPageSize)
			}
		})
	},
}

var crawlFollowingCmd = &cobra.Command{
	Use:   "following <handle>",
	Short: "Crawl the accounts a user follows",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAccountCrawl(cmd, args[0], "following", func(s *truthsocial.Session, accountID string) paginator.FetchFunc[truthsocial.Account] {
			return func(ctx context.Context, cursor string) ([]truthsocial.Account, string, error) {
				return s.Following(ctx, accountID, cursor, crawlPageSize)
			}
		})
	},
}

var crawlLikersCmd = &cobra.Command{
	Use:   "likers <status-id>",
	Short: "Crawl the accounts that liked a status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, cfg, log, err := newSession()
		if err != nil {
			fatal("failed to open session", err)
		}

		if crawlPageSize == 0 {
			crawlPageSize = cfg.Crawl.PageSize
		}

		fetch := func(ctx context.Context, cursor string) ([]truthsocial.Account, string, error) {
			return session.Likers(ctx, args[0], cursor, crawlPageSize)
		}
		emitCrawl(cmd.Context(), cfg.Archive.Path, "likers:"+args[0], paginator.CrawlSpec[truthsocial.Account]{
			Fetch:        fetch,
			Limit:        crawlLimit,
			IncludeAll:   crawlAll,
			CreatedAfter: parseCreatedAfter(),
			NewestFirst:  false,
			Logger:       log,
		})
	},
}

var crawlTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List trending tags",
	Run: func(cmd *cobra.Command, args []string) {
		session, _, _, err := newSession()
		if err != nil {
			fatal("failed to open session", err)
		}
		tags, err := session.TrendingTags(cmd.Context(), crawlLimit)
		if err != nil {
			fatal("crawl failed", err)
		}
		enc := json.NewEncoder(os.Stdout)
		for _, tag := range tags {
			if err := enc.Encode(tag); err != nil {
				fatal("encode failed", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.AddCommand(crawlStatusesCmd)
	crawlCmd.AddCommand(crawlCommentsCmd)
	crawlCmd.AddCommand(crawlGroupCmd)
	crawlCmd.AddCommand(crawlTrendingCmd)
	crawlCmd.AddCommand(crawlFollowersCmd)
	crawlCmd.AddCommand(crawlFollowingCmd)
	crawlCmd.AddCommand(crawlLikersCmd)
	crawlCmd.AddCommand(crawlTagsCmd)

	crawlCmd.PersistentFlags().IntVar(&crawlLimit, "limit", 20, "maximum number of items to crawl")
	crawlCmd.PersistentFlags().BoolVar(&crawlAll, "all", false, "crawl the entire collection, ignoring --limit")
	crawlCmd.PersistentFlags().StringVar(&crawlCreatedAfter, "created-after", "", "only include items created after this date (RFC3339 or YYYY-MM-DD)")
	crawlCmd.PersistentFlags().BoolVar(&crawlOldestFirst, "unordered", false, "treat the collection as not sorted newest-first (scan past old items instead of stopping)")
	crawlCmd.PersistentFlags().IntVar(&crawlPageSize, "page-size", 0, "items to request per page (default from config)")
	crawlCmd.PersistentFlags().BoolVar(&crawlArchive, "archive", false, "also upsert crawled items into the sqlite archive")
}

// runCrawl drives a status-collection crawl. newestFirst declares whether
// the collection is served newest first, which lets a date cutoff stop the
// crawl instead of scanning past old items.
func runCrawl(cmd *cobra.Command, setup func(*truthsocial.Session) (paginator.FetchFunc[truthsocial.Status], string, error), newestFirst bool) {
	session, cfg, log, err := newSession()
	if err != nil {
		fatal("failed to open session", err)
	}

	if crawlPageSize == 0 {
		crawlPageSize = cfg.Crawl.PageSize
	}

	fetch, collection, err := setup(session)
	if err != nil {
		fatal("crawl setup failed", err)
	}

	spec := paginator.CrawlSpec[truthsocial.Status]{
		Fetch:        fetch,
		Limit:        crawlLimit,
		IncludeAll:   crawlAll,
		CreatedAfter: parseCreatedAfter(),
		NewestFirst:  newestFirst && !crawlOldestFirst,
		Logger:       log,
	}
	emitCrawl(cmd.Context(), cfg.Archive.Path, collection, spec)
}

func runAccountCrawl(cmd *cobra.Command, handle, kind string, makeFetch func(*truthsocial.Session, string) paginator.FetchFunc[truthsocial.Account]) {
	session, cfg, log, err := newSession()
	if err != nil {
		fatal("failed to open session", err)
	}

	if crawlPageSize == 0 {
		crawlPageSize = cfg.Crawl.PageSize
	}

	account, err := session.Lookup(cmd.Context(), handle)
	if err != nil {
		fatal("account lookup failed", err)
	}

	spec := paginator.CrawlSpec[truthsocial.Account]{
		Fetch:        makeFetch(session, account.ID),
		Limit:        crawlLimit,
		IncludeAll:   crawlAll,
		CreatedAfter: parseCreatedAfter(),
		NewestFirst:  false,
		Logger:       log,
	}
	emitCrawl(cmd.Context(), cfg.Archive.Path, kind+":"+account.ID, spec)
}

// emitCrawl runs the crawl, streaming items to stdout as NDJSON and
// optionally into the archive. A partial crawl still flushes what it
// yielded before reporting the failure.
func emitCrawl[T paginator.Item](ctx context.Context, archivePath, collection string, spec paginator.CrawlSpec[T]) {
	items, err := paginator.Crawl(ctx, spec)

	enc := json.NewEncoder(os.Stdout)
	for _, item := range items {
		if encErr := enc.Encode(item); encErr != nil {
			fatal("encode failed", encErr)
		}
	}

	if crawlArchive && len(items) > 0 {
		if archivePath == "" {
			fatal("no archive path configured (set archive.path or TRUTHKIT_ARCHIVE_PATH)", nil)
		}
		store, openErr := archive.Open(archivePath)
		if openErr != nil {
			fatal("failed to open archive", openErr)
		}
		defer store.Close()
		if saveErr := archive.SaveItems(ctx, store, collection, items); saveErr != nil {
			fatal("failed to archive items", saveErr)
		}
		fmt.Fprintf(os.Stderr, "archived %d items to %s\n", len(items), archivePath)
	}

	if err != nil {
		var partial *errors.PartialCrawlError
		if stderrors.As(err, &partial) {
			fmt.Fprintf(os.Stderr, "crawl incomplete: yielded %d items before failing: %v\n", partial.Yielded, partial.Err)
			os.Exit(1)
		}
		fatal("crawl failed", err)
	}
}

func parseCreatedAfter() time.Time {
	if crawlCreatedAfter == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, crawlCreatedAfter); err == nil {
		return t
	}
	t, err := time.Parse("2006-01-02", crawlCreatedAfter)
	if err != nil {
		fatal("invalid --created-after value", err)
	}
	return t
}
