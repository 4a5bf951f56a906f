package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/discovery"
	"github.com/naka-gawa/skills-radar/internal/domain"
)

var locateCmd = &cobra.Command{
	Use:   "locate <owner/repo> <skillId>",
	Short: "Finds the SKILL.md of one skill and prints its location as JSON",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := loadConfig(cmd)
		repo, skillID := args[0], args[1]
		if _, _, ok := domain.SplitRepo(repo); !ok {
			fmt.Fprintf(os.Stderr, "Invalid repository %q. Please use owner/repo.\n", repo)
			os.Exit(1)
		}
		a := newApp(cfg, logger)

		loc, err := a.locator.Locate(context.Background(), repo, skillID)
		if errors.Is(err, discovery.ErrSkillNotFound) {
			a.fatalf("No document found for %s in %s\n", skillID, repo)
		}
		if err != nil {
			a.fatalf("Failed to locate %s: %v\n", skillID, err)
		}
		a.writeMetrics()
		printJSON(loc)
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
