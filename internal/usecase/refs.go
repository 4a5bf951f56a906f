// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

// PrioritizedRef is a skill with the highest install count observed for it
// on any board.
type PrioritizedRef struct {
	domain.SkillRef
	Installs int
}

// CollectRefs returns the union of all boards, deduplicated by key, ordered
// by installs descending and then by key.
func CollectRefs(data *domain.SkillsData) []PrioritizedRef {
	if data == nil {
		return nil
	}
	byKey := make(map[string]*PrioritizedRef)
	for _, board := range [][]domain.SkillRecord{data.AllTime, data.Trending, data.Hot} {
		for _, rec := range board {
			if rec.Source == "" || rec.SkillID == "" {
				continue
			}
			key := rec.Key()
			if existing, ok := byKey[key]; ok {
				existing.Installs = max(existing.Installs, rec.Installs)
				continue
			}
			byKey[key] = &PrioritizedRef{SkillRef: rec.SkillRef, Installs: rec.Installs}
		}
	}

	refs := make([]PrioritizedRef, 0, len(byKey))
	for _, r := range byKey {
		refs = append(refs, *r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Installs != refs[j].Installs {
			return refs[i].Installs > refs[j].Installs
		}
		return refs[i].Key() < refs[j].Key()
	})
	return refs
}
