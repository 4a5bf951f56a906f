package domain

import "time"

// Board names a leaderboard of the catalog.
type Board string

const (
	BoardAllTime  Board = "topAllTime"
	BoardTrending Board = "topTrending"
	BoardHot      Board = "topHot"
)

// Boards lists the leaderboards in feed order.
var Boards = []Board{BoardAllTime, BoardTrending, BoardHot}

// Label returns the human readable board name used in feed titles.
func (b Board) Label() string {
	switch b {
	case BoardAllTime:
		return "All Time"
	case BoardTrending:
		return "Trending"
	case BoardHot:
		return "Hot"
	}
	return string(b)
}

// FeedItem is one ranked entry of a leaderboard snapshot.
type FeedItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Installs int    `json:"installs"`
	Link     string `json:"link"`
}

// FeedSnapshot is the persisted leaderboard snapshot that successive runs diff against.
// Rank is the 1-based position of an item in its list.
type FeedSnapshot struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	UpdatedAt   string     `json:"updatedAt"`
	TopAllTime  []FeedItem `json:"topAllTime"`
	TopTrending []FeedItem `json:"topTrending"`
	TopHot      []FeedItem `json:"topHot"`
}

// List returns the items of the given board.
func (s *FeedSnapshot) List(b Board) []FeedItem {
	if s == nil {
		return nil
	}
	switch b {
	case BoardAllTime:
		return s.TopAllTime
	case BoardTrending:
		return s.TopTrending
	case BoardHot:
		return s.TopHot
	}
	return nil
}

// ChangeKind distinguishes the change events of a diff.
type ChangeKind string

const (
	ChangeNew  ChangeKind = "new"
	ChangeRank ChangeKind = "rank"
)

// ChangeEvent describes one published leaderboard change.
// RankBefore, Delta and InstallsBefore are zero for new entries.
type ChangeEvent struct {
	Kind           ChangeKind
	Board          Board
	RankBefore     int
	RankAfter      int
	Delta          int // positive means the item moved up
	InstallsBefore int
	Item           FeedItem
}

// FeedEntry is the tuple handed to the feed writer.
type FeedEntry struct {
	Title       string
	ID          string
	Link        string
	Date        time.Time
	Description string
}
