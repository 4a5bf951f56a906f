package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v84/github"
)

var (
	// ErrNotFound marks a definitive absence: the repository, branch or path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited marks a refusal consistent with access or rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// classify maps go-github errors onto the gateway sentinels.
func classify(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case errors.As(err, &respErr) && respErr.Response != nil:
		return classifyStatus(respErr.Response.StatusCode, err)
	}
	return err
}

func classifyStatus(code int, err error) error {
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}

// classify maps err onto the gateway sentinels. While GitHub reports an
// exhausted primary limit, the limiter refuses requests without sending
// them; those refusals count as rate limiting too.
func (g *GitHubGateway) classify(err error) error {
	err = classify(err)
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if g.primaryLimited != nil && g.primaryLimited.Load() {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}

// classifyGraphQL maps GraphQL client errors onto the gateway sentinels. The
// client reports HTTP failures and GraphQL errors only as text.
func (g *GitHubGateway) classifyGraphQL(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not resolve to a Repository"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case strings.HasPrefix(msg, "non-200 OK status code: 401"),
		strings.HasPrefix(msg, "non-200 OK status code: 403"),
		strings.HasPrefix(msg, "non-200 OK status code: 429"),
		strings.Contains(strings.ToLower(msg), "rate limit"):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return g.classify(err)
}
