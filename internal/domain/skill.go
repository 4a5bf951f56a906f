// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// SkillRef identifies one skill published in the catalog.
// Source is an "owner/repo" repository identifier and SkillID an opaque slug.
type SkillRef struct {
	Source  string `json:"source"`
	SkillID string `json:"skillId"`
}

// Key returns the "source/skillId" key that is unique within a snapshot list.
func (r SkillRef) Key() string {
	return r.Source + "/" + r.SkillID
}

// SkillRecord is a catalog entry as it appears on one of the leaderboards.
type SkillRecord struct {
	SkillRef
	Name     string `json:"name"`
	Installs int    `json:"installs"`

	// Only populated on the hot board.
	InstallsYesterday *int `json:"installsYesterday,omitempty"`
	Change            *int `json:"change,omitempty"`
}

// SkillsData is a full catalog snapshot with the three ranked boards.
type SkillsData struct {
	UpdatedAt time.Time     `json:"updatedAt"`
	AllTime   []SkillRecord `json:"allTime"`
	Trending  []SkillRecord `json:"trending"`
	Hot       []SkillRecord `json:"hot"`
}

// Empty reports whether every board of the snapshot is empty.
func (d *SkillsData) Empty() bool {
	return len(d.AllTime) == 0 && len(d.Trending) == 0 && len(d.Hot) == 0
}

// RepoLocation points at a skill document inside a repository.
// Repo is the repository the document was found in, after redirect resolution.
type RepoLocation struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

// DirEntry is one entry of a remote directory listing.
type DirEntry struct {
	Name string
	Path string
	Dir  bool
}

// SyncProgress holds the durable counters of the document sync.
// The counters accumulate across runs and never decrease.
type SyncProgress struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Attempted int       `json:"attempted"`
	Fetched   int       `json:"fetched"`
	Missing   int       `json:"missing"`
}

// SplitRepo splits an "owner/repo" identifier. ok is false when the
// identifier does not have exactly two non-empty segments.
func SplitRepo(repo string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(repo, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
