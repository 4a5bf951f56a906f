package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naka-gawa/skills-radar/internal/domain"
)

func rec(source, skillID string, installs int) domain.SkillRecord {
	return domain.SkillRecord{SkillRef: domain.SkillRef{Source: source, SkillID: skillID}, Name: skillID, Installs: installs}
}

func TestCollectRefs(t *testing.T) {
	testCases := []struct {
		name     string
		data     *domain.SkillsData
		expected []PrioritizedRef
	}{
		{
			name:     "nil snapshot",
			data:     nil,
			expected: nil,
		},
		{
			name: "deduplicates across boards keeping the highest installs",
			data: &domain.SkillsData{
				AllTime:  []domain.SkillRecord{rec("acme/a", "pdf", 500), rec("acme/b", "docx", 300)},
				Trending: []domain.SkillRecord{rec("acme/b", "docx", 900), rec("acme/c", "xlsx", 10)},
				Hot:      []domain.SkillRecord{rec("acme/a", "pdf", 20), rec("", "broken", 1000)},
			},
			expected: []PrioritizedRef{
				{SkillRef: domain.SkillRef{Source: "acme/b", SkillID: "docx"}, Installs: 900},
				{SkillRef: domain.SkillRef{Source: "acme/a", SkillID: "pdf"}, Installs: 500},
				{SkillRef: domain.SkillRef{Source: "acme/c", SkillID: "xlsx"}, Installs: 10},
			},
		},
		{
			name: "ties are ordered by key",
			data: &domain.SkillsData{
				Hot: []domain.SkillRecord{rec("zeta/x", "a", 5), rec("alpha/x", "b", 5), rec("alpha/x", "a", 5)},
			},
			expected: []PrioritizedRef{
				{SkillRef: domain.SkillRef{Source: "alpha/x", SkillID: "a"}, Installs: 5},
				{SkillRef: domain.SkillRef{Source: "alpha/x", SkillID: "b"}, Installs: 5},
				{SkillRef: domain.SkillRef{Source: "zeta/x", SkillID: "a"}, Installs: 5},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CollectRefs(tc.data))
		})
	}
}
