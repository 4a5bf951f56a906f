package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/catalog"
	"github.com/naka-gawa/skills-radar/internal/logging"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawls the skills.sh leaderboards and publishes the feed",
	Long: `Fetches the all-time, trending and hot leaderboards, stores them in
skills.json, then diffs them against the previous feed.json and writes
feed.json and feed.xml. The skills, first-seen and category indexes are
rebuilt last. With --sync the document cache is refreshed between
the crawl and the feed so entries carry skill descriptions.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, logger := loadConfig(cmd)
		applySyncFlags(cmd, &cfg.Sync)
		a := newApp(cfg, logger)

		client := catalog.NewClient(nil, cfg.Catalog.BaseURL, logger)
		data, err := client.Snapshot(ctx)
		if err != nil {
			a.fatalf("Failed to crawl the catalog: %v\n", err)
		}
		logger.Info("crawl completed",
			logging.Count(len(data.AllTime)+len(data.Trending)+len(data.Hot)))

		allowEmpty, _ := cmd.Flags().GetBool("allow-empty")
		if data.Empty() && !allowEmpty {
			a.fatalf("Error: every leaderboard came back empty; refusing to overwrite skills.json. Use --allow-empty to override.\n")
		}
		if err := a.store.SaveSkills(data); err != nil {
			a.fatalf("Failed to save skills.json: %v\n", err)
		}

		if withSync, _ := cmd.Flags().GetBool("sync"); withSync {
			report, err := a.sync(ctx, data)
			if err != nil {
				logger.Warn("document sync did not complete cleanly", logging.Err(err))
			}
			if report != nil {
				logger.Info("document sync report",
					slog.Int("fetched", report.Fetched),
					slog.Int("missing", report.Missing),
					slog.String("stopped", report.Stopped))
			}
		}

		if err := a.publishFeed(data); err != nil {
			a.fatalf("Failed to publish the feed: %v\n", err)
		}
		if err := a.publishIndexes(data); err != nil {
			a.fatalf("Failed to build the indexes: %v\n", err)
		}
		a.writeMetrics()
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().Bool("allow-empty", false, "Save the snapshot even when every leaderboard is empty")
	crawlCmd.Flags().Bool("sync", false, "Refresh the document cache before building the feed")
	addSyncFlags(crawlCmd)
}
