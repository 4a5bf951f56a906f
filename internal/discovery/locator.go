package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/frontmatter"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
)

// Discovery phases, used as metric labels.
const (
	PhaseRoot   = "root"
	PhaseDirect = "direct"
	PhaseIndex  = "index"
	PhaseMiss   = "miss"
)

// Options configures a Locator.
type Options struct {
	// Branches are tried in order. Defaults to main, master.
	Branches []string
	// BaseDirs are the direct-guess directories in order. Defaults to DefaultBaseDirs.
	BaseDirs []string
}

// Locator finds the document of a skill inside its repository.
type Locator struct {
	resolver *RedirectResolver
	files    FileFetcher
	index    *IndexCache
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// NewLocator creates a Locator. The resolver and index cache carry the
// memoized state; sharing them between locators shares that state.
func NewLocator(resolver *RedirectResolver, files FileFetcher, index *IndexCache, opts Options, logger *slog.Logger, rec *metrics.Recorder) *Locator {
	if len(opts.Branches) == 0 {
		opts.Branches = []string{"main", "master"}
	}
	if opts.BaseDirs == nil {
		opts.BaseDirs = DefaultBaseDirs
	}
	return &Locator{
		resolver: resolver,
		files:    files,
		index:    index,
		opts:     opts,
		logger:   logger,
		metrics:  rec,
	}
}

// Locate returns where the document of skillID lives in repo.
// It returns ErrSkillNotFound when no phase finds it, or an error wrapping
// gateway.ErrRateLimited when a phase was refused and nothing was found.
func (l *Locator) Locate(ctx context.Context, repo, skillID string) (domain.RepoLocation, error) {
	loc, _, err := l.LocateDocument(ctx, repo, skillID)
	return loc, err
}

// LocateDocument is Locate that also returns the document content when a
// phase already downloaded it. The content is nil for index hits.
func (l *Locator) LocateDocument(ctx context.Context, repo, skillID string) (domain.RepoLocation, []byte, error) {
	skillID = strings.TrimSpace(skillID)
	if skillID == "" {
		return domain.RepoLocation{}, nil, ErrSkillNotFound
	}
	resolved := l.resolver.Resolve(ctx, repo)
	var limited bool
	note := func(err error) {
		if errors.Is(err, gateway.ErrRateLimited) {
			limited = true
		}
	}

	if loc, content, ok := l.rootFile(ctx, resolved, skillID, note); ok {
		l.metrics.LocateResult(PhaseRoot)
		return loc, content, nil
	}
	if loc, content, ok := l.directGuess(ctx, resolved, skillID, note); ok {
		l.metrics.LocateResult(PhaseDirect)
		return loc, content, nil
	}

	idx, err := l.index.Get(ctx, resolved)
	if err != nil {
		note(err)
		l.logger.Debug("repository index unavailable", logging.Repo(resolved), logging.Err(err))
	} else if loc, ok := idx.Lookup(skillID); ok {
		l.metrics.LocateResult(PhaseIndex)
		return loc, nil, nil
	}

	l.metrics.LocateResult(PhaseMiss)
	if limited {
		return domain.RepoLocation{}, nil, fmt.Errorf("locating %s in %s: %w", skillID, resolved, gateway.ErrRateLimited)
	}
	if err := ctx.Err(); err != nil {
		return domain.RepoLocation{}, nil, err
	}
	return domain.RepoLocation{}, nil, ErrSkillNotFound
}

// rootFile accepts a root document only when its declared name matches,
// since multi-purpose repositories often carry an unrelated root SKILL.md.
func (l *Locator) rootFile(ctx context.Context, repo, skillID string, note func(error)) (domain.RepoLocation, []byte, bool) {
	for _, branch := range l.opts.Branches {
		for _, file := range SkillFileNames {
			content, err := l.files.FetchFile(ctx, repo, branch, file)
			if err != nil {
				note(err)
				continue
			}
			doc, err := frontmatter.Parse(content)
			if err != nil || !strings.EqualFold(doc.Name, skillID) {
				l.logger.Debug("root document belongs to another skill",
					logging.Repo(repo), logging.Skill(skillID), slog.String("declared", doc.Name))
				continue
			}
			return domain.RepoLocation{Repo: repo, Branch: branch, Path: file}, content, true
		}
	}
	return domain.RepoLocation{}, nil, false
}

func (l *Locator) directGuess(ctx context.Context, repo, skillID string, note func(error)) (domain.RepoLocation, []byte, bool) {
	if strings.Contains(skillID, "/") || skillID == "." || skillID == ".." {
		return domain.RepoLocation{}, nil, false
	}
	for _, branch := range l.opts.Branches {
		for _, base := range l.opts.BaseDirs {
			for _, file := range SkillFileNames {
				if ctx.Err() != nil {
					return domain.RepoLocation{}, nil, false
				}
				p := path.Join(base, skillID, file)
				content, err := l.files.FetchFile(ctx, repo, branch, p)
				if err != nil {
					note(err)
					continue
				}
				return domain.RepoLocation{Repo: repo, Branch: branch, Path: p}, content, true
			}
		}
	}
	return domain.RepoLocation{}, nil, false
}
