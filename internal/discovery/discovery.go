// Package discovery locates skill documents inside arbitrary GitHub
// repositories that follow no known layout.
//
// A lookup resolves repository redirects, then tries, in order: a root
// SKILL.md whose declared name matches, direct guesses across conventional
// skill directories, and finally a name index built from a bounded scan of
// the repository. The first hit wins.
package discovery

import (
	"context"
	"errors"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

// ErrSkillNotFound is returned when no discovery phase finds the skill.
var ErrSkillNotFound = errors.New("skill document not found")

// RepoMetadata answers the canonical name of a repository.
type RepoMetadata interface {
	CanonicalName(ctx context.Context, repo string) (string, error)
}

// FileFetcher retrieves a file's content by branch and path.
type FileFetcher interface {
	FetchFile(ctx context.Context, repo, branch, path string) ([]byte, error)
}

// DirLister lists a directory by branch and path.
type DirLister interface {
	ListDir(ctx context.Context, repo, branch, dir string) ([]domain.DirEntry, error)
}

// SkillFileNames are the accepted document file names, in priority order.
var SkillFileNames = []string{"SKILL.md", "skill.md"}

// DefaultBaseDirs are the conventional directories that hold one folder per
// skill, in the order direct guesses try them. "" is the repository root.
var DefaultBaseDirs = []string{
	"",
	"skills",
	".claude/skills",
	".cursor/skills",
	".codex/skills",
	".agents/skills",
	".github/skills",
	".opencode/skills",
	".windsurf/skills",
	".gemini/skills",
	".goose/skills",
	"agent-skills",
	"src/skills",
}

func isSkillFile(name string) bool {
	for _, n := range SkillFileNames {
		if name == n {
			return true
		}
	}
	return false
}
