package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "data", cfg.DataDir)
	assert.True(t, cfg.Sync.OnlyMissing)
	assert.Equal(t, 8, cfg.Sync.Concurrency)
	assert.Equal(t, 50, cfg.Sync.FlushEvery)
	assert.Equal(t, []string{"main", "master"}, cfg.Discovery.Branches)
	assert.Equal(t, 50, cfg.Feed.MaxEvents)
	assert.Equal(t, "https://raw.githubusercontent.com", cfg.GitHub.RawBaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, errMsg: "data_dir"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Sync.Concurrency = 0 }, errMsg: "sync.concurrency"},
		{name: "zero flush cadence", mutate: func(c *Config) { c.Sync.FlushEvery = 0 }, errMsg: "sync.flush_every"},
		{name: "negative max", mutate: func(c *Config) { c.Sync.MaxToFetch = -1 }, errMsg: "sync.max_to_fetch"},
		{name: "no branches", mutate: func(c *Config) { c.Discovery.Branches = nil }, errMsg: "discovery.branches"},
		{name: "zero max events", mutate: func(c *Config) { c.Feed.MaxEvents = 0 }, errMsg: "feed.top_n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoad_FileAndEnvLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/skills
sync:
  concurrency: 3
  time_budget: 90s
feed:
  title: Custom Feed
`), 0o600))

	t.Setenv("SKILLS_RADAR_SYNC__CONCURRENCY", "12")
	t.Setenv("SKILLS_RADAR_SYNC__MAX_TO_FETCH", "500")
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/skills", cfg.DataDir)
	assert.Equal(t, 12, cfg.Sync.Concurrency, "env overrides file")
	assert.Equal(t, 500, cfg.Sync.MaxToFetch)
	assert.Equal(t, 90*time.Second, cfg.Sync.TimeBudget)
	assert.Equal(t, "Custom Feed", cfg.Feed.Title)
	assert.Equal(t, "Latest skill data from skills.sh", cfg.Feed.Description, "untouched defaults survive")
	assert.Equal(t, "from-env", cfg.GitHub.Token)
}

func TestLoad_ConfiguredTokenWins(t *testing.T) {
	t.Setenv("SKILLS_RADAR_GITHUB__TOKEN", "configured")
	t.Setenv("GITHUB_TOKEN", "fallback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "configured", cfg.GitHub.Token)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SKILLS_RADAR_SYNC__CONCURRENCY", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.concurrency")
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.env")
	require.NoError(t, os.WriteFile(path, []byte("SKILLS_RADAR_FEED__TITLE=Dotenv Feed\nGITHUB_TOKEN=from-dotenv\nSKILLS_RADAR_SYNC__CONCURRENCY=5\n"), 0o600))
	t.Setenv("SKILLS_RADAR_ENV_FILE", path)
	t.Setenv("SKILLS_RADAR_SYNC__CONCURRENCY", "2")
	// Registered for restoration, then unset so the dotenv file can provide them.
	for _, key := range []string{"SKILLS_RADAR_FEED__TITLE", "GITHUB_TOKEN"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Dotenv Feed", cfg.Feed.Title)
	assert.Equal(t, "from-dotenv", cfg.GitHub.Token)
	assert.Equal(t, 2, cfg.Sync.Concurrency, "the process environment wins over the dotenv file")
}

func TestLoad_MissingDotEnvFile(t *testing.T) {
	t.Setenv("SKILLS_RADAR_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}
