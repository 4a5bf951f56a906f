package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
	"github.com/naka-gawa/skills-radar/internal/store"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "data"))
	require.NoError(t, err)
	cfg := config.New()
	cfg.Metrics.Textfile = filepath.Join(dir, "skills_radar.prom")
	return &app{
		cfg:     cfg,
		logger:  logging.Discard(),
		metrics: metrics.New(),
		store:   st,
	}
}

func TestApp_FatalfWritesMetricsBeforeExit(t *testing.T) {
	a := newTestApp(t)
	var code int
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	a.metrics.RateLimit("secondary")
	a.fatalf("Failed to publish the feed: %v\n", os.ErrPermission)

	assert.Equal(t, 1, code)
	raw, err := os.ReadFile(a.cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `skills_radar_gateway_rate_limits_total{kind="secondary"} 1`)
}

func TestApp_PublishIndexes(t *testing.T) {
	a := newTestApp(t)
	crawled := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	data := &domain.SkillsData{
		UpdatedAt: crawled,
		AllTime: []domain.SkillRecord{
			{SkillRef: domain.SkillRef{Source: "acme/tools", SkillID: "pdf"}, Name: "pdf", Installs: 10},
		},
	}
	manual := `[{"source":"solo/skill","skillId":"jira-helper","name":"Jira Helper"}]`
	require.NoError(t, os.WriteFile(filepath.Join(a.store.Dir(), store.ManualSkillsFile), []byte(manual), 0o644))

	require.NoError(t, a.publishIndexes(data))

	first, err := a.store.LoadFirstSeen()
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Time{"acme/tools/pdf": crawled, "solo/skill/jira-helper": crawled}, first.Skills)

	var idx domain.SkillsIndex
	readJSON(t, filepath.Join(a.store.Dir(), store.SkillsIndexFile), &idx)
	assert.Equal(t, 2, idx.Count)
	assert.Equal(t, crawled, idx.SourceUpdatedAt)

	var categories domain.CategoryIndex
	readJSON(t, filepath.Join(a.store.Dir(), store.CategoryIndexFile), &categories)
	assert.Equal(t, map[string]string{
		"acme/tools/pdf":         "document-processing",
		"solo/skill/jira-helper": "collaboration",
	}, categories.SkillToCategory)

	// A later crawl keeps the original stamps.
	data.UpdatedAt = crawled.Add(24 * time.Hour)
	require.NoError(t, a.publishIndexes(data))
	first, err = a.store.LoadFirstSeen()
	require.NoError(t, err)
	assert.Equal(t, crawled, first.Skills["acme/tools/pdf"])
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}
