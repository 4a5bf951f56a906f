// Package config defines the run configuration and its defaults.
package config

import (
	"errors"
	"time"
)

// Config contains the process configuration.
type Config struct {
	// DataDir is the root of all persisted state: skills.json, feed.json,
	// feed.xml, the sync progress record and the document cache.
	DataDir string `koanf:"data_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	GitHub    GitHubConfig    `koanf:"github"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Sync      SyncConfig      `koanf:"sync"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Feed      FeedConfig      `koanf:"feed"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// GitHubConfig configures access to the source code host.
type GitHubConfig struct {
	// Token is an optional bearer credential. It raises rate limits and
	// enables GraphQL directory listing, but is never required.
	Token string `koanf:"token"`
	// APIBaseURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	APIBaseURL string `koanf:"api_base_url"`
	// RawBaseURL is the raw content host used by the direct fetch strategy.
	RawBaseURL string `koanf:"raw_base_url"`
	// GraphQLURL is the GraphQL endpoint.
	GraphQLURL string `koanf:"graphql_url"`
}

// CatalogConfig configures the catalog site that is crawled.
type CatalogConfig struct {
	BaseURL string `koanf:"base_url"`
}

// SyncConfig bounds one document sync run.
type SyncConfig struct {
	// OnlyMissing skips skills whose document is already cached.
	OnlyMissing bool `koanf:"only_missing"`
	// MaxToFetch caps newly fetched documents per run. Zero means no cap.
	MaxToFetch int `koanf:"max_to_fetch"`
	// TimeBudget stops claiming new work once elapsed. Zero means no budget.
	TimeBudget time.Duration `koanf:"time_budget"`
	// Concurrency is the number of skills resolved in parallel.
	Concurrency int `koanf:"concurrency"`
	// FlushEvery persists the progress record every N attempts.
	FlushEvery int `koanf:"flush_every"`
}

// DiscoveryConfig tunes skill path discovery.
type DiscoveryConfig struct {
	// Branches are tried in order for every lookup.
	Branches []string `koanf:"branches"`
	// IndexConcurrency bounds document fetches while indexing a repository.
	IndexConcurrency int `koanf:"index_concurrency"`
	// IndexDepth is how many directory levels below a base directory are scanned.
	IndexDepth int `koanf:"index_depth"`
}

// FeedConfig configures the leaderboard feed.
type FeedConfig struct {
	Title       string `koanf:"title"`
	Description string `koanf:"description"`
	Link        string `koanf:"link"`
	// TopN is the number of items kept per board in the snapshot.
	TopN int `koanf:"top_n"`
	// MaxEvents caps the change events of one diff.
	MaxEvents int `koanf:"max_events"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Textfile is written in Prometheus text format at the end of a run when set.
	Textfile string `koanf:"textfile"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		DataDir:  "data",
		LogLevel: "info",
		GitHub: GitHubConfig{
			RawBaseURL: "https://raw.githubusercontent.com",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://skills.sh",
		},
		Sync: SyncConfig{
			OnlyMissing: true,
			MaxToFetch:  0,
			TimeBudget:  20 * time.Minute,
			Concurrency: 8,
			FlushEvery:  50,
		},
		Discovery: DiscoveryConfig{
			Branches:         []string{"main", "master"},
			IndexConcurrency: 4,
			IndexDepth:       2,
		},
		Feed: FeedConfig{
			Title:       "Skills.sh Feed",
			Description: "Latest skill data from skills.sh",
			Link:        "https://skills.sh",
			TopN:        50,
			MaxEvents:   50,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data_dir must not be empty")
	case c.Sync.Concurrency < 1:
		return errors.New("sync.concurrency must be at least 1")
	case c.Sync.FlushEvery < 1:
		return errors.New("sync.flush_every must be at least 1")
	case c.Sync.MaxToFetch < 0:
		return errors.New("sync.max_to_fetch must not be negative")
	case c.Sync.TimeBudget < 0:
		return errors.New("sync.time_budget must not be negative")
	case len(c.Discovery.Branches) == 0:
		return errors.New("discovery.branches must not be empty")
	case c.Discovery.IndexConcurrency < 1:
		return errors.New("discovery.index_concurrency must be at least 1")
	case c.Feed.TopN < 1 || c.Feed.MaxEvents < 1:
		return errors.New("feed.top_n and feed.max_events must be at least 1")
	}
	return nil
}
