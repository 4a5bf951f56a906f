package domain

import "time"

// SkillsIndex lists every known skill once, most installed first, with a
// pointer to its cached description.
type SkillsIndex struct {
	UpdatedAt       time.Time   `json:"updatedAt"`
	SourceUpdatedAt time.Time   `json:"sourceUpdatedAt"`
	Count           int         `json:"count"`
	Items           []IndexItem `json:"items"`
}

// IndexItem is one skill of the SkillsIndex.
type IndexItem struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	SkillID   string    `json:"skillId"`
	Title     string    `json:"title"`
	Installs  int       `json:"installs"`
	FirstSeen time.Time `json:"firstSeen"`
	// Description is the path of the cached description file relative to
	// the data directory, or nil when none is cached.
	Description *string `json:"description"`
}

// Ref returns the skill the item describes.
func (i IndexItem) Ref() SkillRef {
	return SkillRef{Source: i.Source, SkillID: i.SkillID}
}

// FirstSeen records when each skill key first appeared in a crawl.
// Entries are only ever added.
type FirstSeen struct {
	UpdatedAt time.Time            `json:"updatedAt"`
	Skills    map[string]time.Time `json:"skills"`
}

// CategoryIndex maps skill keys to a primary category and, for some, a
// finer subcategory.
type CategoryIndex struct {
	UpdatedAt            time.Time         `json:"updatedAt"`
	SourceIndexUpdatedAt time.Time         `json:"sourceIndexUpdatedAt"`
	Version              int               `json:"version"`
	PrimaryCategories    []string          `json:"primaryCategories"`
	SkillToCategory      map[string]string `json:"skillToCategory"`
	SkillToSubcategory   map[string]string `json:"skillToSubcategory"`
}
