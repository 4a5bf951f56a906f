package usecase

import (
	"log/slog"
	"time"

	"github.com/naka-gawa/skills-radar/internal/domain"
	"github.com/naka-gawa/skills-radar/internal/logging"
)

// DescriptionLocator reports where the cached description of a skill lives.
type DescriptionLocator interface {
	DescriptionPath(ref domain.SkillRef) (string, bool)
}

// IndexBuilder derives the skills index and the category index from a
// catalog snapshot and the document cache.
type IndexBuilder struct {
	paths        DescriptionLocator
	descriptions DescriptionSource
	logger       *slog.Logger
	now          func() time.Time
}

// NewIndexBuilder creates a new IndexBuilder instance.
func NewIndexBuilder(paths DescriptionLocator, descriptions DescriptionSource, logger *slog.Logger) *IndexBuilder {
	return &IndexBuilder{
		paths:        paths,
		descriptions: descriptions,
		logger:       logger,
		now:          time.Now,
	}
}

// UpdateFirstSeen returns prev extended with every ref it does not know yet,
// stamped with at. Existing stamps are never changed.
func UpdateFirstSeen(prev *domain.FirstSeen, refs []PrioritizedRef, at time.Time) *domain.FirstSeen {
	next := &domain.FirstSeen{UpdatedAt: at.UTC(), Skills: make(map[string]time.Time, len(refs))}
	if prev != nil {
		for k, v := range prev.Skills {
			next.Skills[k] = v
		}
		if prev.UpdatedAt.After(next.UpdatedAt) {
			next.UpdatedAt = prev.UpdatedAt
		}
	}
	for _, r := range refs {
		if _, ok := next.Skills[r.Key()]; !ok {
			next.Skills[r.Key()] = at.UTC()
		}
	}
	return next
}

// BuildIndex lists every skill of data plus the manual records, most
// installed first. firstSeen must already contain every listed skill.
func (b *IndexBuilder) BuildIndex(data *domain.SkillsData, manual []domain.SkillRecord, firstSeen *domain.FirstSeen) *domain.SkillsIndex {
	merged := MergeManual(data, manual)
	titles := make(map[string]string)
	for _, board := range [][]domain.SkillRecord{merged.AllTime, merged.Trending, merged.Hot} {
		for _, rec := range board {
			if _, ok := titles[rec.Key()]; !ok && rec.Name != "" {
				titles[rec.Key()] = rec.Name
			}
		}
	}

	refs := CollectRefs(merged)
	idx := &domain.SkillsIndex{
		UpdatedAt:       b.now().UTC(),
		SourceUpdatedAt: data.UpdatedAt,
		Count:           len(refs),
		Items:           make([]domain.IndexItem, 0, len(refs)),
	}
	described := 0
	for _, r := range refs {
		item := domain.IndexItem{
			ID:       r.Key(),
			Source:   r.Source,
			SkillID:  r.SkillID,
			Title:    titles[r.Key()],
			Installs: r.Installs,
		}
		if item.Title == "" {
			item.Title = r.SkillID
		}
		if firstSeen != nil {
			item.FirstSeen = firstSeen.Skills[r.Key()]
		}
		if p, ok := b.paths.DescriptionPath(r.SkillRef); ok {
			item.Description = &p
			described++
		}
		idx.Items = append(idx.Items, item)
	}
	b.logger.Info("built skills index", logging.Count(idx.Count), slog.Int("described", described))
	return idx
}

// BuildCategories assigns every item of idx a category.
func (b *IndexBuilder) BuildCategories(idx *domain.SkillsIndex) *domain.CategoryIndex {
	out := &domain.CategoryIndex{
		UpdatedAt:            b.now().UTC(),
		SourceIndexUpdatedAt: idx.UpdatedAt,
		Version:              CategoryIndexVersion,
		PrimaryCategories:    PrimaryCategories,
		SkillToCategory:      make(map[string]string, len(idx.Items)),
		SkillToSubcategory:   make(map[string]string),
	}
	for _, item := range idx.Items {
		// The description is only consulted when the name says nothing.
		describe := func() string {
			if item.Description == nil || b.descriptions == nil {
				return ""
			}
			d, _ := b.descriptions.Description(item.Ref())
			return d
		}
		c := Categorize(item.Source, item.SkillID, item.Title, describe)
		out.SkillToCategory[item.ID] = c.Primary
		if c.Subcategory != "" {
			out.SkillToSubcategory[item.ID] = c.Subcategory
		}
	}
	return out
}

// MergeManual appends the manual records to the all-time board of a copy
// of data.
func MergeManual(data *domain.SkillsData, manual []domain.SkillRecord) *domain.SkillsData {
	merged := *data
	if len(manual) > 0 {
		merged.AllTime = append(append([]domain.SkillRecord(nil), data.AllTime...), manual...)
	}
	return &merged
}
