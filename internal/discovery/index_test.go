package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
)

func newTestIndex(h *fakeHost) *IndexCache {
	return NewIndexCache(h, h, IndexOptions{Branches: []string{"main", "master"}, Depth: 2, Concurrency: 3}, logging.Discard())
}

func TestIndexCache_Get(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "README.md", "# tools")
	h.put("acme/tools", "main", "skills/pdf/SKILL.md", skillDoc("pdf"))
	h.put("acme/tools", "main", "skills/unnamed/skill.md", "# No front matter\n")
	h.put("acme/tools", "main", "node_modules/dep/SKILL.md", skillDoc("vendored"))
	h.put("acme/tools", "main", "docs/dup/SKILL.md", skillDoc("PDF"))
	h.put("acme/tools", "main", "plugins/office/skills/xlsx/SKILL.md", skillDoc("xlsx"))

	idx, err := newTestIndex(h).Get(context.Background(), "acme/tools")
	require.NoError(t, err)

	assert.Equal(t, "main", idx.Branch)

	loc, ok := idx.Lookup("unnamed")
	require.True(t, ok, "name falls back to the parent directory")
	assert.Equal(t, "skills/unnamed/skill.md", loc.Path)

	loc, ok = idx.Lookup("XLSX")
	require.True(t, ok)
	assert.Equal(t, domain.RepoLocation{Repo: "acme/tools", Branch: "main", Path: "plugins/office/skills/xlsx/SKILL.md"}, loc)

	loc, ok = idx.Lookup("pdf")
	require.True(t, ok)
	assert.Equal(t, "docs/dup/SKILL.md", loc.Path, "the first base directory in listing order wins")

	_, ok = idx.Lookup("vendored")
	assert.False(t, ok, "node_modules is skipped")
	assert.Equal(t, 3, idx.Len())
}

func TestIndexCache_DeclaredNamesWinOverDirectoryNames(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "archive/pdf/SKILL.md", "# Old pdf notes\n")
	h.put("acme/tools", "main", "docs/tools/SKILL.md", skillDoc("pdf"))

	idx, err := newTestIndex(h).Get(context.Background(), "acme/tools")
	require.NoError(t, err)

	loc, ok := idx.Lookup("pdf")
	require.True(t, ok)
	assert.Equal(t, "docs/tools/SKILL.md", loc.Path)

	loc, err = newTestLocator(h).Locate(context.Background(), "acme/tools", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs/tools/SKILL.md", loc.Path)
}

func TestIndexCache_FallsBackToMaster(t *testing.T) {
	h := newFakeHost()
	h.put("acme/legacy", "master", "tools/lint/SKILL.md", skillDoc("lint"))

	idx, err := newTestIndex(h).Get(context.Background(), "acme/legacy")
	require.NoError(t, err)

	assert.Equal(t, "master", idx.Branch)
	_, ok := idx.Lookup("lint")
	assert.True(t, ok)
}

func TestIndexCache_MemoizesBuilds(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "skills/pdf/SKILL.md", skillDoc("pdf"))
	c := newTestIndex(h)
	ctx := context.Background()

	first, err := c.Get(ctx, "acme/tools")
	require.NoError(t, err)
	listings, fetches := h.listCount(), h.fetchCount()

	second, err := c.Get(ctx, "acme/tools")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, listings, h.listCount())
	assert.Equal(t, fetches, h.fetchCount())
}

func TestIndexCache_MemoizesMissingRepositories(t *testing.T) {
	h := newFakeHost()
	c := newTestIndex(h)
	ctx := context.Background()

	idx, err := c.Get(ctx, "acme/gone")
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
	listings := h.listCount()

	_, err = c.Get(ctx, "acme/gone")
	require.NoError(t, err)
	assert.Equal(t, listings, h.listCount())
}

func TestIndexCache_RateLimitedBuildsAreRetried(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "skills/pdf/SKILL.md", skillDoc("pdf"))
	h.fetchErr = gateway.ErrRateLimited
	c := newTestIndex(h)
	ctx := context.Background()

	_, err := c.Get(ctx, "acme/tools")
	require.ErrorIs(t, err, gateway.ErrRateLimited)

	h.mu.Lock()
	h.fetchErr = nil
	h.mu.Unlock()

	idx, err := c.Get(ctx, "acme/tools")
	require.NoError(t, err)
	_, ok := idx.Lookup("pdf")
	assert.True(t, ok)
}
