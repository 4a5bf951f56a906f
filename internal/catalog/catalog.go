// Package catalog crawls the public skill catalog and extracts its three
// leaderboards from the server component payload of each page.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
)

// Payload fields holding each board.
const (
	FieldAllTime  = "allTimeSkills"
	FieldTrending = "trendingSkills"
	FieldHot      = "trulyTrendingSkills"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36"
	maxPageBytes = 32 << 20
)

// Client fetches catalog pages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a catalog client for baseURL, e.g. https://skills.sh.
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// Snapshot fetches the all-time, trending and hot pages concurrently and
// extracts their boards. A page that cannot be fetched or parsed yields an
// empty board; callers decide whether an empty snapshot is acceptable.
func (c *Client) Snapshot(ctx context.Context) (*domain.SkillsData, error) {
	data := &domain.SkillsData{UpdatedAt: c.now().UTC()}
	pages := []struct {
		endpoint string
		field    string
		board    *[]domain.SkillRecord
	}{
		{endpoint: "/", field: FieldAllTime, board: &data.AllTime},
		{endpoint: "/trending", field: FieldTrending, board: &data.Trending},
		{endpoint: "/hot", field: FieldHot, board: &data.Hot},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, p := range pages {
		eg.Go(func() error {
			text, err := c.FetchPage(egCtx, p.endpoint)
			if err != nil {
				c.logger.Warn("failed to fetch catalog page", slog.String("endpoint", p.endpoint), logging.Err(err))
				*p.board = []domain.SkillRecord{}
				return nil
			}
			records, err := Extract(text, p.field)
			if err != nil {
				c.logger.Warn("failed to extract board", slog.String("field", p.field), logging.Err(err))
				records = []domain.SkillRecord{}
			}
			*p.board = records
			c.logger.Info("extracted board", slog.String("field", p.field), logging.Count(len(records)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// FetchPage returns the server component payload of endpoint.
func (c *Client) FetchPage(ctx context.Context, endpoint string) (string, error) {
	u := c.baseURL + endpoint + "?_rsc=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("RSC", "1")
	req.Header.Set("Next-Url", "/")
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("fetching catalog page", slog.String("url", u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", u, err)
	}
	return string(body), nil
}

// Extract decodes the JSON array stored under "field": in text. The key is
// located textually, then exactly one JSON value is decoded from the
// position after it, so brackets inside strings are handled by the JSON
// grammar. Occurrences whose value is not an array are skipped.
func Extract(text, field string) ([]domain.SkillRecord, error) {
	key := strconv.Quote(field) + ":"
	rest := text
	var lastErr error
	for {
		i := strings.Index(rest, key)
		if i < 0 {
			break
		}
		rest = rest[i+len(key):]
		value := strings.TrimLeft(rest, " \t\r\n")
		if !strings.HasPrefix(value, "[") {
			continue
		}
		var records []domain.SkillRecord
		if err := json.NewDecoder(strings.NewReader(value)).Decode(&records); err != nil {
			lastErr = err
			continue
		}
		if records == nil {
			records = []domain.SkillRecord{}
		}
		return records, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("malformed %s array: %w", field, lastErr)
	}
	return nil, fmt.Errorf("field %s not found", field)
}
