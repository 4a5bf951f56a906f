// Package gateway provides a gateway to GitHub,
// abstracting away the underlying REST, GraphQL and raw content transports.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/metrics"
)

// responseHeaderTimeout bounds the wait for response headers of a single
// attempt. It sits below the rate limiter, so sleeping through a limit is
// never cut short.
const responseHeaderTimeout = 30 * time.Second

// Kinds of rate limit, used as metric labels.
const (
	LimitPrimary   = "primary"
	LimitSecondary = "secondary"
)

// GitHubGateway fetches repository metadata, files and directory listings.
// It is safe for concurrent use.
type GitHubGateway struct {
	restClient *github.Client
	// graphqlClient is nil without a token; GraphQL requires authentication.
	graphqlClient *githubv4.Client
	httpClient    *http.Client
	rawBaseURL    string
	// primaryLimited is set once GitHub reports an exhausted primary limit.
	primaryLimited *atomic.Bool
	logger         *slog.Logger
	metrics        *metrics.Recorder
}

// newHTTPClient builds the HTTP client shared by every transport. Secondary
// rate limits are slept through (up to an hour per sleep). Once a primary
// limit is reported, the limiter refuses requests of that category until the
// reset time and primaryLimited is set. The token, when set, is sent as a
// bearer credential.
func newHTTPClient(token string, primaryLimited *atomic.Bool, logger *slog.Logger, rec *metrics.Recorder) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ResponseHeaderTimeout = responseHeaderTimeout

	var transport http.RoundTripper = github_ratelimit.New(base,
		github_primary_ratelimit.WithLimitDetectedCallback(func(*github_primary_ratelimit.CallbackContext) {
			primaryLimited.Store(true)
			rec.RateLimit(LimitPrimary)
			logger.Warn("GitHub primary rate limit exhausted")
		}),
		github_secondary_ratelimit.WithLimitDetectedCallback(func(*github_secondary_ratelimit.CallbackContext) {
			rec.RateLimit(LimitSecondary)
			logger.Info("GitHub secondary rate limit hit, waiting it out")
		}),
		github_secondary_ratelimit.WithSingleSleepLimit(1*time.Hour, nil),
	)
	if token != "" {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	return &http.Client{Transport: transport}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(cfg config.GitHubConfig, logger *slog.Logger, rec *metrics.Recorder) (*GitHubGateway, error) {
	primaryLimited := new(atomic.Bool)
	httpClient := newHTTPClient(cfg.Token, primaryLimited, logger, rec)

	restClient := github.NewClient(httpClient)
	if cfg.APIBaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL: %w", err)
		}
		restClient.BaseURL = baseURL
	}

	var graphqlClient *githubv4.Client
	if cfg.Token != "" {
		if cfg.GraphQLURL != "" {
			graphqlClient = githubv4.NewEnterpriseClient(cfg.GraphQLURL, httpClient)
		} else {
			graphqlClient = githubv4.NewClient(httpClient)
		}
	}

	rawBaseURL := cfg.RawBaseURL
	if rawBaseURL == "" {
		rawBaseURL = config.New().GitHub.RawBaseURL
	}

	return &GitHubGateway{
		restClient:     restClient,
		graphqlClient:  graphqlClient,
		httpClient:     httpClient,
		rawBaseURL:     strings.TrimSuffix(rawBaseURL, "/"),
		primaryLimited: primaryLimited,
		logger:         logger,
		metrics:        rec,
	}, nil
}

// CanonicalName returns the current "owner/repo" name of a repository.
// Renamed and transferred repositories answer with their new name.
func (g *GitHubGateway) CanonicalName(ctx context.Context, repo string) (string, error) {
	owner, name, ok := domain.SplitRepo(repo)
	if !ok {
		return "", fmt.Errorf("invalid repository %q: %w", repo, ErrNotFound)
	}
	r, _, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", repo, g.classify(err))
	}
	return r.GetFullName(), nil
}
