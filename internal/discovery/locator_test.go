package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/gateway"
)

func TestLocator_Locate(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(h *fakeHost)
		repo     string
		skillID  string
		expected domain.RepoLocation
		notFound bool
	}{
		{
			name: "root document with matching name",
			setup: func(h *fakeHost) {
				h.put("acme/pdf", "main", "SKILL.md", skillDoc("PDF"))
			},
			repo:     "acme/pdf",
			skillID:  "pdf",
			expected: domain.RepoLocation{Repo: "acme/pdf", Branch: "main", Path: "SKILL.md"},
		},
		{
			name: "root document declaring another name is rejected",
			setup: func(h *fakeHost) {
				h.put("acme/multi", "main", "SKILL.md", skillDoc("foo"))
			},
			repo:     "acme/multi",
			skillID:  "bar",
			notFound: true,
		},
		{
			name: "lower-case file name on master",
			setup: func(h *fakeHost) {
				h.put("acme/tools", "master", ".claude/skills/review/skill.md", skillDoc("review"))
			},
			repo:     "acme/tools",
			skillID:  "review",
			expected: domain.RepoLocation{Repo: "acme/tools", Branch: "master", Path: ".claude/skills/review/skill.md"},
		},
		{
			name: "direct guess beats the index",
			setup: func(h *fakeHost) {
				h.put("acme/tools", "main", "skills/bar/SKILL.md", skillDoc("bar"))
				h.put("acme/tools", "main", "aaa/bar/SKILL.md", skillDoc("bar"))
			},
			repo:     "acme/tools",
			skillID:  "bar",
			expected: domain.RepoLocation{Repo: "acme/tools", Branch: "main", Path: "skills/bar/SKILL.md"},
		},
		{
			name: "index finds a document by declared name",
			setup: func(h *fakeHost) {
				h.put("acme/tools", "main", "catalog/writing/blog-post/SKILL.md", skillDoc("blog-writer"))
			},
			repo:     "acme/tools",
			skillID:  "Blog-Writer",
			expected: domain.RepoLocation{Repo: "acme/tools", Branch: "main", Path: "catalog/writing/blog-post/SKILL.md"},
		},
		{
			name: "index covers plugin skills",
			setup: func(h *fakeHost) {
				h.put("acme/market", "main", "plugins/docs/skills/docx-editor/SKILL.md", skillDoc("docx"))
			},
			repo:     "acme/market",
			skillID:  "docx",
			expected: domain.RepoLocation{Repo: "acme/market", Branch: "main", Path: "plugins/docs/skills/docx-editor/SKILL.md"},
		},
		{
			name: "documents below the scan depth are not indexed",
			setup: func(h *fakeHost) {
				h.put("acme/deep", "main", "a/b/c/d/SKILL.md", skillDoc("deep"))
			},
			repo:     "acme/deep",
			skillID:  "deep",
			notFound: true,
		},
		{
			name:     "repository without branches",
			setup:    func(h *fakeHost) {},
			repo:     "acme/gone",
			skillID:  "anything",
			notFound: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newFakeHost()
			tc.setup(h)
			l := newTestLocator(h)

			loc, err := l.Locate(context.Background(), tc.repo, tc.skillID)

			if tc.notFound {
				assert.ErrorIs(t, err, ErrSkillNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, loc)
		})
	}
}

func TestLocator_FollowsRedirects(t *testing.T) {
	h := newFakeHost()
	h.canonical["old/name"] = "new-owner/name"
	h.put("new-owner/name", "main", "skills/pdf/SKILL.md", skillDoc("pdf"))
	l := newTestLocator(h)

	loc, err := l.Locate(context.Background(), "old/name", "pdf")

	require.NoError(t, err)
	assert.Equal(t, domain.RepoLocation{Repo: "new-owner/name", Branch: "main", Path: "skills/pdf/SKILL.md"}, loc)
}

func TestLocator_LocateDocumentReturnsFetchedContent(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "skills/pdf/SKILL.md", skillDoc("pdf"))
	h.put("acme/tools", "main", "misc/x/SKILL.md", skillDoc("indexed"))
	l := newTestLocator(h)
	ctx := context.Background()

	_, content, err := l.LocateDocument(ctx, "acme/tools", "pdf")
	require.NoError(t, err)
	assert.Equal(t, skillDoc("pdf"), string(content))

	loc, content, err := l.LocateDocument(ctx, "acme/tools", "indexed")
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.Equal(t, "misc/x/SKILL.md", loc.Path)
}

func TestLocator_IsDeterministicAndMemoizesTheIndex(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "catalog/one/SKILL.md", skillDoc("one"))
	h.put("acme/tools", "main", "catalog/two/SKILL.md", skillDoc("two"))
	l := newTestLocator(h)
	ctx := context.Background()

	first, err := l.Locate(ctx, "acme/tools", "one")
	require.NoError(t, err)
	listings := h.listCount()
	require.Positive(t, listings)

	second, err := l.Locate(ctx, "acme/tools", "one")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := l.Locate(ctx, "acme/tools", "two")
	require.NoError(t, err)
	assert.Equal(t, "catalog/two/SKILL.md", other.Path)

	_, err = l.Locate(ctx, "acme/tools", "three")
	assert.ErrorIs(t, err, ErrSkillNotFound)

	assert.Equal(t, listings, h.listCount(), "the repository is listed once per run")
}

func TestLocator_DirectGuessOrder(t *testing.T) {
	h := newFakeHost()
	l := newTestLocator(h)

	_, err := l.Locate(context.Background(), "acme/empty", "pdf")
	require.ErrorIs(t, err, ErrSkillNotFound)

	var expected []string
	for _, branch := range []string{"main", "master"} {
		for _, file := range SkillFileNames {
			expected = append(expected, "acme/empty@"+branch+":"+file)
		}
	}
	for _, branch := range []string{"main", "master"} {
		for _, base := range DefaultBaseDirs {
			for _, file := range SkillFileNames {
				p := "pdf/" + file
				if base != "" {
					p = base + "/" + p
				}
				expected = append(expected, "acme/empty@"+branch+":"+p)
			}
		}
	}
	assert.Equal(t, expected, h.fetchCalls)
}

func TestLocator_RateLimitedIsNotMissing(t *testing.T) {
	h := newFakeHost()
	h.fetchErr = gateway.ErrRateLimited
	h.listErr = gateway.ErrRateLimited
	l := newTestLocator(h)

	_, err := l.Locate(context.Background(), "acme/tools", "pdf")

	assert.ErrorIs(t, err, gateway.ErrRateLimited)
	assert.NotErrorIs(t, err, ErrSkillNotFound)
}

func TestLocator_SoftFailuresAreSkipped(t *testing.T) {
	h := newFakeHost()
	h.fetchErr = errors.New("connection reset")
	l := newTestLocator(h)

	_, err := l.Locate(context.Background(), "acme/tools", "pdf")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestLocator_RejectsPathLikeSkillIDs(t *testing.T) {
	h := newFakeHost()
	h.put("acme/tools", "main", "skills/SKILL.md", skillDoc("skills"))
	l := newTestLocator(h)

	_, err := l.Locate(context.Background(), "acme/tools", "..")
	assert.ErrorIs(t, err, ErrSkillNotFound)
	_, err = l.Locate(context.Background(), "acme/tools", "  ")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}
