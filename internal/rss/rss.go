// Package rss serializes feed entries as an RSS 2.0 document.
package rss

import (
	"fmt"
	"io"
	"time"

	"github.com/gorilla/feeds"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

// Write renders entries in order as the items of a channel described by snap.
func Write(w io.Writer, snap *domain.FeedSnapshot, entries []domain.FeedEntry) error {
	updated, err := time.Parse(time.RFC3339Nano, snap.UpdatedAt)
	if err != nil {
		updated = time.Now().UTC()
	}
	feed := &feeds.Feed{
		Title:       snap.Title,
		Link:        &feeds.Link{Href: snap.Link},
		Description: snap.Description,
		Id:          snap.Link,
		Updated:     updated,
		Created:     updated,
	}
	for _, e := range entries {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       e.Title,
			Link:        &feeds.Link{Href: e.Link},
			Description: e.Description,
			Id:          e.ID,
			Created:     e.Date,
		})
	}
	if err := feed.WriteRss(w); err != nil {
		return fmt.Errorf("failed to write rss: %w", err)
	}
	return nil
}
