package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/frontmatter"
	"github.com/naka-gawa/skills-radar/internal/gateway"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/pool"
)

// skippedDirs are never scanned while indexing.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// RepoIndex maps declared skill names of one repository to their documents.
type RepoIndex struct {
	Repo   string
	Branch string
	// byName is keyed by lower-cased name; the first document declaring a name wins.
	byName map[string]domain.RepoLocation
}

// Lookup finds a skill by name, case-insensitively.
func (i *RepoIndex) Lookup(name string) (domain.RepoLocation, bool) {
	loc, ok := i.byName[strings.ToLower(name)]
	return loc, ok
}

// Len returns the number of indexed names.
func (i *RepoIndex) Len() int {
	return len(i.byName)
}

func (i *RepoIndex) add(name string, loc domain.RepoLocation) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return
	}
	if _, exists := i.byName[key]; !exists {
		i.byName[key] = loc
	}
}

type indexedName struct {
	name     string
	declared bool
}

// IndexOptions tunes repository indexing.
type IndexOptions struct {
	Branches []string
	// Depth is how many directory levels below a base directory are scanned.
	Depth int
	// Concurrency bounds listings and document fetches per repository.
	Concurrency int
}

// IndexCache builds each repository's skill index once and memoizes it.
// Concurrent requests for the same repository share one build.
type IndexCache struct {
	files  FileFetcher
	dirs   DirLister
	opts   IndexOptions
	logger *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	indexes map[string]*RepoIndex
}

// NewIndexCache creates an empty cache.
func NewIndexCache(files FileFetcher, dirs DirLister, opts IndexOptions, logger *slog.Logger) *IndexCache {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Depth < 0 {
		opts.Depth = 0
	}
	return &IndexCache{
		files:   files,
		dirs:    dirs,
		opts:    opts,
		logger:  logger,
		indexes: make(map[string]*RepoIndex),
	}
}

// Get returns the index of repo, building it on first use. Builds that fail
// for reasons other than the repository being absent are not memoized.
func (c *IndexCache) Get(ctx context.Context, repo string) (*RepoIndex, error) {
	c.mu.RLock()
	idx, ok := c.indexes[repo]
	c.mu.RUnlock()
	if ok {
		return idx, nil
	}

	v, err, _ := c.group.Do(repo, func() (interface{}, error) {
		idx, err := c.build(ctx, repo)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.indexes[repo] = idx
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RepoIndex), nil
}

func (c *IndexCache) build(ctx context.Context, repo string) (*RepoIndex, error) {
	idx := &RepoIndex{Repo: repo, byName: make(map[string]domain.RepoLocation)}

	var lastErr error
	for _, branch := range c.opts.Branches {
		root, err := c.dirs.ListDir(ctx, repo, branch, "")
		if errors.Is(err, gateway.ErrNotFound) {
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}
		idx.Branch = branch
		if err := c.populate(ctx, idx, branch, root); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", repo, err)
		}
		c.logger.Debug("indexed repository", logging.Repo(repo), logging.Branch(branch), logging.Count(idx.Len()))
		return idx, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to index %s: %w", repo, lastErr)
	}
	// No branch exists: remember the empty index.
	return idx, nil
}

// populate fills idx from the documents below the base directories. A scan
// that hit rate limiting is incomplete and reported as ErrRateLimited.
func (c *IndexCache) populate(ctx context.Context, idx *RepoIndex, branch string, root []domain.DirEntry) error {
	var limited atomic.Bool
	bases := c.baseDirs(ctx, idx.Repo, branch, root)

	found, _ := pool.Map(ctx, bases, c.opts.Concurrency, func(ctx context.Context, base string) ([]string, error) {
		return c.walk(ctx, idx.Repo, branch, base, 0, &limited), nil
	})
	var candidates []string
	seen := make(map[string]bool)
	for _, paths := range found {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				candidates = append(candidates, p)
			}
		}
	}

	names, _ := pool.Map(ctx, candidates, c.opts.Concurrency, func(ctx context.Context, p string) (indexedName, error) {
		content, err := c.files.FetchFile(ctx, idx.Repo, branch, p)
		if err != nil {
			if errors.Is(err, gateway.ErrRateLimited) {
				limited.Store(true)
			}
			c.logger.Debug("skipping unreadable document", logging.Repo(idx.Repo), logging.Path(p), logging.Err(err))
			return indexedName{}, nil
		}
		doc, err := frontmatter.Parse(content)
		if err != nil || doc.Name == "" {
			return indexedName{name: path.Base(path.Dir(p))}, nil
		}
		return indexedName{name: doc.Name, declared: true}, nil
	})
	if limited.Load() {
		return gateway.ErrRateLimited
	}
	// Declared names first, so a document named only by its directory never
	// shadows one that declares the name.
	for _, declared := range []bool{true, false} {
		for i, p := range candidates {
			if names[i].declared == declared {
				idx.add(names[i].name, domain.RepoLocation{Repo: idx.Repo, Branch: branch, Path: p})
			}
		}
	}
	return ctx.Err()
}

// baseDirs returns every root directory plus plugins/<name>/skills for each plugin.
func (c *IndexCache) baseDirs(ctx context.Context, repo, branch string, root []domain.DirEntry) []string {
	var bases []string
	hasPlugins := false
	for _, e := range root {
		if !e.Dir || skippedDirs[e.Name] {
			continue
		}
		bases = append(bases, e.Path)
		if e.Name == "plugins" {
			hasPlugins = true
		}
	}
	if !hasPlugins {
		return bases
	}
	plugins, err := c.dirs.ListDir(ctx, repo, branch, "plugins")
	if err != nil {
		c.logger.Debug("failed to list plugins", logging.Repo(repo), logging.Err(err))
		return bases
	}
	for _, p := range plugins {
		if p.Dir {
			bases = append(bases, path.Join(p.Path, "skills"))
		}
	}
	return bases
}

// walk collects skill document paths at most c.opts.Depth levels below dir.
func (c *IndexCache) walk(ctx context.Context, repo, branch, dir string, level int, limited *atomic.Bool) []string {
	entries, err := c.dirs.ListDir(ctx, repo, branch, dir)
	if err != nil {
		if errors.Is(err, gateway.ErrRateLimited) {
			limited.Store(true)
		}
		if !errors.Is(err, gateway.ErrNotFound) {
			c.logger.Debug("failed to list directory", logging.Repo(repo), logging.Path(dir), logging.Err(err))
		}
		return nil
	}
	var paths []string
	for _, e := range entries {
		if !e.Dir && isSkillFile(e.Name) {
			paths = append(paths, e.Path)
		}
	}
	if level >= c.opts.Depth {
		return paths
	}
	for _, e := range entries {
		if e.Dir && !skippedDirs[e.Name] {
			paths = append(paths, c.walk(ctx, repo, branch, e.Path, level+1, limited)...)
		}
	}
	return paths
}
