package cmd

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/rss"
	"github.com/naka-gawa/skills-radar/internal/store"
	"github.com/naka-gawa/skills-radar/internal/usecase"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Rebuilds feed.json and feed.xml from the stored leaderboards",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := loadConfig(cmd)
		a := newApp(cfg, logger)

		data, err := a.store.LoadSkills()
		if err != nil {
			a.fatalf("Failed to read skills.json: %v\n", err)
		}
		if data == nil {
			a.fatalf("Error: skills.json not found. Run `skills-radar crawl` first.\n")
		}
		if err := a.publishFeed(data); err != nil {
			a.fatalf("Failed to publish the feed: %v\n", err)
		}
		a.writeMetrics()
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
}

// publishFeed diffs data against the previous feed.json, writes feed.xml and
// then advances the baseline.
func (a *app) publishFeed(data *domain.SkillsData) error {
	builder := usecase.NewFeedBuilder(a.cfg.Feed, a.cfg.Catalog.BaseURL, a.store, a.logger, a.metrics)

	prev, err := a.store.LoadFeed()
	if err != nil {
		a.logger.Warn("previous feed unreadable, treating this run as the first", logging.Err(err))
		prev = nil
	}
	cur := builder.BuildSnapshot(data)
	entries := builder.Build(prev, cur)

	var buf bytes.Buffer
	if err := rss.Write(&buf, cur, entries); err != nil {
		return err
	}
	if err := a.store.WriteFile(store.FeedXMLFile, buf.Bytes()); err != nil {
		return err
	}
	if err := a.store.SaveFeed(cur); err != nil {
		return err
	}
	a.logger.Info("feed published", logging.Count(len(entries)), logging.Path(a.store.Dir()))
	return nil
}
