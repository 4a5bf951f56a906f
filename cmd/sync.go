package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/usecase"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Populates the local SKILL.md cache from the stored leaderboards",
	Long: `Resolves every skill listed in skills.json to a document in its GitHub
repository and caches it under skills-md/<owner>/<repo>/<skillId>/. Popular
skills go first. The run stops claiming work once the time budget or the
fetch cap is reached, or when GitHub starts refusing requests; progress is
kept in sync_progress.json so the next run picks up where this one stopped.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, logger := loadConfig(cmd)
		applySyncFlags(cmd, &cfg.Sync)
		a := newApp(cfg, logger)

		data, err := a.store.LoadSkills()
		if err != nil {
			a.fatalf("Failed to read skills.json: %v\n", err)
		}
		if data == nil {
			a.fatalf("Error: skills.json not found. Run `skills-radar crawl` first.\n")
		}

		report, err := a.sync(ctx, data)
		if report != nil {
			printJSON(report)
			// Descriptions may have changed.
			if err := a.publishIndexes(data); err != nil {
				logger.Warn("failed to rebuild the indexes", logging.Err(err))
			}
		}
		if err != nil {
			a.fatalf("Sync did not complete cleanly: %v\n", err)
		}
		a.writeMetrics()
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addSyncFlags(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("only-missing", true, "Skip skills whose document is already cached")
	cmd.Flags().Int("max", 0, "Maximum number of documents to fetch (0 = no limit)")
	cmd.Flags().Duration("budget", 0, "Stop claiming new work after this duration (e.g. 20m)")
	cmd.Flags().Int("concurrency", 0, "Number of skills resolved in parallel")
}

// applySyncFlags overrides the configuration with explicitly set flags.
func applySyncFlags(cmd *cobra.Command, cfg *config.SyncConfig) {
	if cmd.Flags().Changed("only-missing") {
		cfg.OnlyMissing, _ = cmd.Flags().GetBool("only-missing")
	}
	if cmd.Flags().Changed("max") {
		cfg.MaxToFetch, _ = cmd.Flags().GetInt("max")
	}
	if cmd.Flags().Changed("budget") {
		cfg.TimeBudget, _ = cmd.Flags().GetDuration("budget")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
}

// sync runs the document sync over every skill of data.
func (a *app) sync(ctx context.Context, data *domain.SkillsData) (*usecase.Report, error) {
	if a.cfg.GitHub.Token == "" {
		a.logger.Warn("no GitHub token configured, running with anonymous rate limits")
	}
	syncer := usecase.NewSyncer(a.locator, a.gateway, a.store, a.cfg.Sync, a.logger, a.metrics)
	refs := usecase.CollectRefs(data)
	if bar := newProgressBar(len(syncer.Pending(refs)), "Syncing skills", a.logger); bar != nil {
		syncer.WithProgress(bar)
	}
	return syncer.Run(ctx, refs)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
