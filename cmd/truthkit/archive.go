package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"truthkit/internal/archive"
)

var (
	archiveCollection string
	archiveSince      string
	archiveLimit      int
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Query the local sqlite archive",
	Long: `Read back items stored by crawl --archive.

Records are printed to stdout as newline-delimited JSON, newest first,
exactly as the vendor returned them.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived items",
	Example: `  # Everything archived for an account's statuses
  truthkit archive list --collection statuses:107780257626128497

  # The 50 most recent items across all collections
  truthkit archive list --limit 50`,
	Run: func(cmd *cobra.Command, args []string) {
		store := openArchive()
		defer store.Close()

		records, err := store.List(cmd.Context(), archive.ListOpts{
			Collection: archiveCollection,
			Since:      parseArchiveSince(),
			Limit:      archiveLimit,
		})
		if err != nil {
			fatal("failed to list archive", err)
		}

		enc := json.NewEncoder(os.Stdout)
		for _, rec := range records {
			if err := enc.Encode(json.RawMessage(rec.Payload)); err != nil {
				fatal("encode failed", err)
			}
		}
	},
}

var archiveCountCmd = &cobra.Command{
	Use:   "count <collection>",
	Short: "Count archived items in a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openArchive()
		defer store.Close()

		n, err := store.Count(cmd.Context(), args[0])
		if err != nil {
			fatal("failed to count archive", err)
		}
		fmt.Println(n)
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveCountCmd)

	archiveListCmd.Flags().StringVar(&archiveCollection, "collection", "", "restrict to one collection (e.g. statuses:<account-id>)")
	archiveListCmd.Flags().StringVar(&archiveSince, "since", "", "only include items created after this date (RFC3339 or YYYY-MM-DD)")
	archiveListCmd.Flags().IntVar(&archiveLimit, "limit", 0, "maximum number of records (0 = all)")
}

func openArchive() *archive.Store {
	cfg, _, err := loadConfig()
	if err != nil {
		fatal("failed to load config", err)
	}
	if cfg.Archive.Path == "" {
		fatal("no archive path configured (set archive.path or TRUTHKIT_ARCHIVE_PATH)", nil)
	}
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		fatal("failed to open archive", err)
	}
	return store
}

func parseArchiveSince() time.Time {
	if archiveSince == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, archiveSince); err == nil {
		return t
	}
	t, err := time.Parse("2006-01-02", archiveSince)
	if err != nil {
		fatal("invalid --since value", err)
	}
	return t
}
