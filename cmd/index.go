package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuilds skills_index.json, skills_first_seen.json and skills_category_index.json",
	Long: `Derives the site indexes from the stored skills.json, the optional
manual_skills.json and the document cache. Nothing is crawled or fetched.`,
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
		if err := a.publishIndexes(data); err != nil {
			a.fatalf("Failed to build the indexes: %v\n", err)
		}
		a.writeMetrics()
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

// publishIndexes records newly seen skills, then rewrites the skills index
// and the category index.
func (a *app) publishIndexes(data *domain.SkillsData) error {
	manual, err := a.store.LoadManualSkills()
	if err != nil {
		return err
	}
	prev, err := a.store.LoadFirstSeen()
	if err != nil {
		return err
	}

	builder := usecase.NewIndexBuilder(a.store, a.store, a.logger)
	seenAt := data.UpdatedAt
	if seenAt.IsZero() {
		seenAt = time.Now()
	}
	firstSeen := usecase.UpdateFirstSeen(prev, usecase.CollectRefs(usecase.MergeManual(data, manual)), seenAt)
	if err := a.store.SaveFirstSeen(firstSeen); err != nil {
		return err
	}

	idx := builder.BuildIndex(data, manual, firstSeen)
	if err := a.store.SaveSkillsIndex(idx); err != nil {
		return err
	}
	categories := builder.BuildCategories(idx)
	if err := a.store.SaveCategoryIndex(categories); err != nil {
		return err
	}
	a.logger.Info("indexes published",
		logging.Count(idx.Count),
		slog.Int("first_seen", len(firstSeen.Skills)),
		slog.Int("manual", len(manual)))
	return nil
}
