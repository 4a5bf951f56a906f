// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/discovery"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
	"github.com/naka-gawa/skills-radar/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "skills-radar",
	Short: "A CLI tool to track the skills.sh leaderboards and cache skill documents.",
	Long: `skills-radar crawls the skills.sh leaderboards, publishes notable
ranking changes as an RSS feed and mirrors each skill's SKILL.md from its
GitHub repository into a local cache, locating documents in repositories
that follow no particular layout.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default $SKILLS_RADAR_CONFIG)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding skills.json, feed files and the document cache")
}

// loadConfig reads the configuration and applies the persistent flags on top.
// It exits the process on failure.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Options{Level: level, Output: os.Stderr})
	return cfg, logger
}

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	gateway *gateway.GitHubGateway
	locator *discovery.Locator
	store   *store.Store
}

// newApp wires the gateway, discovery and storage. Storage initialization
// failures are fatal.
func newApp(cfg *config.Config, logger *slog.Logger) *app {
	st, err := store.New(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open data directory: %v\n", err)
		os.Exit(1)
	}
	rec := metrics.New()
	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub, logger, rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
		os.Exit(1)
	}

	resolver := discovery.NewRedirectResolver(githubGateway, logger, rec)
	index := discovery.NewIndexCache(githubGateway, githubGateway, discovery.IndexOptions{
		Branches:    cfg.Discovery.Branches,
		Depth:       cfg.Discovery.IndexDepth,
		Concurrency: cfg.Discovery.IndexConcurrency,
	}, logger)
	locator := discovery.NewLocator(resolver, githubGateway, index, discovery.Options{
		Branches: cfg.Discovery.Branches,
	}, logger, rec)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
		gateway: githubGateway,
		locator: locator,
		store:   st,
	}
}

// exit is replaced in tests.
var exit = os.Exit

// fatalf exports the metrics gathered so far, reports the error and exits.
func (a *app) fatalf(format string, args ...any) {
	a.writeMetrics()
	fmt.Fprintf(os.Stderr, format, args...)
	exit(1)
}

// writeMetrics exports the run metrics when a textfile is configured.
func (a *app) writeMetrics() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("failed to write metrics textfile", logging.Path(a.cfg.Metrics.Textfile), logging.Err(err))
	}
}
