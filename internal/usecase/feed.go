package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/skills-radar/internal/config"
	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
	"github.com/naka-gawa/skills-radar/internal/metrics"
)

// isoMillis matches the timestamps written by earlier snapshots.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// DescriptionSource returns the cached description of a skill.
type DescriptionSource interface {
	Description(ref domain.SkillRef) (string, bool)
}

// FeedBuilder turns successive catalog snapshots into feed entries.
type FeedBuilder struct {
	cfg          config.FeedConfig
	catalogURL   string
	descriptions DescriptionSource
	logger       *slog.Logger
	metrics      *metrics.Recorder
}

// NewFeedBuilder creates a FeedBuilder. descriptions may be nil, in which
// case entries are not hydrated.
func NewFeedBuilder(cfg config.FeedConfig, catalogURL string, descriptions DescriptionSource, logger *slog.Logger, rec *metrics.Recorder) *FeedBuilder {
	if cfg.TopN < 1 {
		cfg.TopN = 50
	}
	if cfg.MaxEvents < 1 {
		cfg.MaxEvents = 50
	}
	return &FeedBuilder{
		cfg:          cfg,
		catalogURL:   strings.TrimRight(catalogURL, "/"),
		descriptions: descriptions,
		logger:       logger,
		metrics:      rec,
	}
}

// BuildSnapshot keeps the top items of every board of data.
func (b *FeedBuilder) BuildSnapshot(data *domain.SkillsData) *domain.FeedSnapshot {
	return &domain.FeedSnapshot{
		Title:       b.cfg.Title,
		Description: b.cfg.Description,
		Link:        b.cfg.Link,
		UpdatedAt:   data.UpdatedAt.UTC().Format(isoMillis),
		TopAllTime:  b.items(data.AllTime),
		TopTrending: b.items(data.Trending),
		TopHot:      b.items(data.Hot),
	}
}

func (b *FeedBuilder) items(records []domain.SkillRecord) []domain.FeedItem {
	n := min(len(records), b.cfg.TopN)
	items := make([]domain.FeedItem, 0, n)
	for _, r := range records[:n] {
		items = append(items, domain.FeedItem{
			ID:       r.Key(),
			Title:    r.Name,
			Source:   r.Source,
			Installs: r.Installs,
			Link:     b.catalogURL + "/i/" + r.Source,
		})
	}
	return items
}

// Publishable reports whether a rank change is large enough to be published:
// any swing of 10 or more, 3 or more inside the top 20, any change inside
// the top 10.
func Publishable(rank, delta int) bool {
	d := delta
	if d < 0 {
		d = -d
	}
	return d >= 10 || (rank <= 20 && d >= 3) || (rank <= 10 && d >= 1)
}

// Diff compares two snapshots board by board. prev may be nil, in which
// case every current item is new. Events are ordered new entries first,
// then by title, and capped at the configured maximum.
func (b *FeedBuilder) Diff(prev, cur *domain.FeedSnapshot) []domain.ChangeEvent {
	type prevEntry struct{ rank, installs int }

	var events []domain.ChangeEvent
	for _, board := range domain.Boards {
		before := make(map[string]prevEntry)
		for i, it := range prev.List(board) {
			if _, dup := before[it.ID]; !dup {
				before[it.ID] = prevEntry{rank: i + 1, installs: it.Installs}
			}
		}
		for i, it := range cur.List(board) {
			rank := i + 1
			p, ok := before[it.ID]
			if !ok {
				events = append(events, domain.ChangeEvent{Kind: domain.ChangeNew, Board: board, RankAfter: rank, Item: it})
				continue
			}
			if p.rank == rank {
				continue
			}
			delta := p.rank - rank
			if !Publishable(rank, delta) {
				continue
			}
			events = append(events, domain.ChangeEvent{
				Kind:           domain.ChangeRank,
				Board:          board,
				RankBefore:     p.rank,
				RankAfter:      rank,
				Delta:          delta,
				InstallsBefore: p.installs,
				Item:           it,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if (events[i].Kind == domain.ChangeNew) != (events[j].Kind == domain.ChangeNew) {
			return events[i].Kind == domain.ChangeNew
		}
		return EventTitle(events[i]) < EventTitle(events[j])
	})
	if len(events) > b.cfg.MaxEvents {
		b.logger.Debug("capping feed events", logging.Count(len(events)), slog.Int("max", b.cfg.MaxEvents))
		events = events[:b.cfg.MaxEvents]
	}
	return events
}

// EventTitle renders the display title of an event, e.g.
// "[All Time] New entry (#3): name" or "[Trending] Rank up (12 → 4): name".
func EventTitle(ev domain.ChangeEvent) string {
	if ev.Kind == domain.ChangeNew {
		return fmt.Sprintf("[%s] New entry (#%d): %s", ev.Board.Label(), ev.RankAfter, ev.Item.Title)
	}
	direction := "up"
	if ev.Delta < 0 {
		direction = "down"
	}
	return fmt.Sprintf("[%s] Rank %s (%d → %d): %s", ev.Board.Label(), direction, ev.RankBefore, ev.RankAfter, ev.Item.Title)
}

// Entries renders events as feed entries of the snapshot cur.
func (b *FeedBuilder) Entries(cur *domain.FeedSnapshot, events []domain.ChangeEvent) []domain.FeedEntry {
	date := b.snapshotTime(cur)
	entries := make([]domain.FeedEntry, 0, len(events))
	for _, ev := range events {
		link := ev.Item.Link
		if link == "" {
			link = "https://github.com/" + ev.Item.Source
		}
		entries = append(entries, domain.FeedEntry{
			Title:       EventTitle(ev),
			ID:          fmt.Sprintf("%s:%s:%s:%s", cur.UpdatedAt, ev.Board, ev.Kind, ev.Item.ID),
			Link:        link,
			Date:        date,
			Description: b.describe(ev),
		})
		b.metrics.FeedEvent(string(ev.Kind))
	}
	return entries
}

func (b *FeedBuilder) describe(ev domain.ChangeEvent) string {
	label := ev.Board.Label()
	var lines []string
	if ev.Kind == domain.ChangeNew {
		lines = []string{
			fmt.Sprintf("New entry in %s leaderboard.", label),
			fmt.Sprintf("Rank: #%d", ev.RankAfter),
			fmt.Sprintf("Installs: %d", ev.Item.Installs),
			fmt.Sprintf("Source: %s", ev.Item.Source),
		}
	} else {
		lines = []string{
			fmt.Sprintf("%s leaderboard rank change.", label),
			fmt.Sprintf("Previous rank: #%d", ev.RankBefore),
			fmt.Sprintf("Current rank: #%d", ev.RankAfter),
			fmt.Sprintf("Delta: %+d", ev.Delta),
			fmt.Sprintf("Installs: %d (prev %d)", ev.Item.Installs, ev.InstallsBefore),
			fmt.Sprintf("Source: %s", ev.Item.Source),
		}
	}
	if d := b.description(ev.Item); d != "" {
		lines = append(lines, "Description: "+d)
	}
	return strings.Join(lines, "\n")
}

func (b *FeedBuilder) description(it domain.FeedItem) string {
	if b.descriptions == nil || it.Source == "" {
		return ""
	}
	skillID, ok := strings.CutPrefix(it.ID, it.Source+"/")
	if !ok {
		return ""
	}
	d, _ := b.descriptions.Description(domain.SkillRef{Source: it.Source, SkillID: skillID})
	return d
}

// DailySnapshot renders the summary entry that every feed carries: the
// leader of each board, board sizes and median installs.
func (b *FeedBuilder) DailySnapshot(cur *domain.FeedSnapshot) domain.FeedEntry {
	date := b.snapshotTime(cur)
	lines := []string{fmt.Sprintf("Leaderboard snapshot at %s.", cur.UpdatedAt)}
	for _, board := range domain.Boards {
		list := cur.List(board)
		if len(list) == 0 {
			lines = append(lines, fmt.Sprintf("%s: no entries", board.Label()))
			continue
		}
		installs := make(stats.Float64Data, 0, len(list))
		for _, it := range list {
			installs = append(installs, float64(it.Installs))
		}
		median, _ := stats.Median(installs)
		lines = append(lines, fmt.Sprintf("%s: #1 %s (%d installs), %d entries, median installs %.0f",
			board.Label(), list[0].Title, list[0].Installs, len(list), median))
	}
	b.metrics.FeedEvent("snapshot")
	return domain.FeedEntry{
		Title:       fmt.Sprintf("[Daily] Leaderboard snapshot (%s)", date.Format("2006-01-02")),
		ID:          cur.UpdatedAt + ":snapshot",
		Link:        cur.Link,
		Date:        date,
		Description: strings.Join(lines, "\n"),
	}
}

// Build diffs cur against prev and returns the change entries followed by
// the daily snapshot entry, so the result is never empty.
func (b *FeedBuilder) Build(prev, cur *domain.FeedSnapshot) []domain.FeedEntry {
	events := b.Diff(prev, cur)
	entries := b.Entries(cur, events)
	b.logger.Info("built feed", slog.Int("events", len(events)), slog.Bool("first_run", prev == nil))
	return append(entries, b.DailySnapshot(cur))
}

func (b *FeedBuilder) snapshotTime(cur *domain.FeedSnapshot) time.Time {
	t, err := time.Parse(time.RFC3339Nano, cur.UpdatedAt)
	if err != nil {
		b.logger.Warn("invalid snapshot timestamp", slog.String("updated_at", cur.UpdatedAt), logging.Err(err))
		return time.Time{}
	}
	return t
}
