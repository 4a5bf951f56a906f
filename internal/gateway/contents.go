package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
)

// Fetch strategies, used as metric labels.
const (
	StrategyRaw = "raw"
	StrategyAPI = "api"
)

// maxDocumentBytes caps the size of a fetched file.
const maxDocumentBytes = 4 << 20

// FetchFile retrieves a file by branch and path. The raw content host is
// tried first; when it refuses for access or rate-limit reasons the contents
// API is tried instead. A not-found answer from either strategy is final and
// returned as ErrNotFound.
func (g *GitHubGateway) FetchFile(ctx context.Context, repo, branch, path string) ([]byte, error) {
	content, err := g.FetchRaw(ctx, repo, branch, path)
	if err == nil || !errors.Is(err, ErrRateLimited) {
		return content, err
	}
	g.logger.Debug("raw fetch refused, retrying via contents API",
		logging.Repo(repo), logging.Branch(branch), logging.Path(path), logging.Err(err))
	return g.FetchViaAPI(ctx, repo, branch, path)
}

// FetchRaw retrieves a file from the raw content host.
func (g *GitHubGateway) FetchRaw(ctx context.Context, repo, branch, path string) ([]byte, error) {
	if _, _, ok := domain.SplitRepo(repo); !ok {
		return nil, fmt.Errorf("invalid repository %q: %w", repo, ErrNotFound)
	}
	u := g.rawBaseURL + "/" + escapePath(repo) + "/" + escapePath(branch) + "/" + escapePath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		err = g.classify(err)
		g.metrics.FileFetch(StrategyRaw, outcome(err))
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := classifyStatus(resp.StatusCode, fmt.Errorf("raw fetch %s: status %d", u, resp.StatusCode))
		g.metrics.FileFetch(StrategyRaw, outcome(err))
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		g.metrics.FileFetch(StrategyRaw, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	g.metrics.FileFetch(StrategyRaw, metrics.OutcomeOK)
	return body, nil
}

// FetchViaAPI retrieves a file through the contents API, asking for the raw
// representation instead of the base64 JSON envelope.
func (g *GitHubGateway) FetchViaAPI(ctx context.Context, repo, branch, path string) ([]byte, error) {
	if _, _, ok := domain.SplitRepo(repo); !ok {
		return nil, fmt.Errorf("invalid repository %q: %w", repo, ErrNotFound)
	}
	u := fmt.Sprintf("repos/%s/contents/%s?ref=%s", escapePath(repo), escapePath(path), url.QueryEscape(branch))
	req, err := g.restClient.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.raw")

	var buf bytes.Buffer
	if _, err := g.restClient.Do(ctx, req, &buf); err != nil {
		err = g.classify(err)
		g.metrics.FileFetch(StrategyAPI, outcome(err))
		return nil, fmt.Errorf("failed to fetch %s via contents API: %w", path, err)
	}
	g.metrics.FileFetch(StrategyAPI, metrics.OutcomeOK)
	return buf.Bytes(), nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrRateLimited):
		return metrics.OutcomeRateLimited
	}
	return metrics.OutcomeError
}

// escapePath escapes every segment of a slash separated path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
