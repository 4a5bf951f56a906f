package discovery

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
)

// RedirectResolver maps possibly renamed or transferred repositories to
// their canonical identifier. Results are memoized for the resolver's
// lifetime, including failures, so repeated calls always agree.
type RedirectResolver struct {
	meta    RepoMetadata
	logger  *slog.Logger
	metrics *metrics.Recorder

	group singleflight.Group
	mu    sync.RWMutex
	// cache maps a repository to its redirect target; "" means no redirect.
	cache map[string]string
}

// NewRedirectResolver creates a resolver with an empty cache.
func NewRedirectResolver(meta RepoMetadata, logger *slog.Logger, rec *metrics.Recorder) *RedirectResolver {
	return &RedirectResolver{
		meta:    meta,
		logger:  logger,
		metrics: rec,
		cache:   make(map[string]string),
	}
}

// Resolve returns the canonical identifier of repo, or repo itself when it
// was not moved or the lookup failed. It never fails.
func (r *RedirectResolver) Resolve(ctx context.Context, repo string) string {
	r.mu.RLock()
	target, ok := r.cache[repo]
	r.mu.RUnlock()
	if ok {
		return orDefault(target, repo)
	}

	v, _, _ := r.group.Do(repo, func() (interface{}, error) {
		return r.lookup(ctx, repo), nil
	})
	return orDefault(v.(string), repo)
}

func (r *RedirectResolver) lookup(ctx context.Context, repo string) string {
	target := ""
	canonical, err := r.meta.CanonicalName(ctx, repo)
	switch {
	case err != nil:
		r.logger.Debug("repository lookup failed, keeping original name", logging.Repo(repo), logging.Err(err))
	case canonical != "" && !strings.EqualFold(canonical, repo):
		r.logger.Info("repository redirected", logging.Repo(repo), slog.String("canonical", canonical))
		r.metrics.Redirect()
		target = canonical
	}

	r.mu.Lock()
	r.cache[repo] = target
	r.mu.Unlock()
	return target
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
