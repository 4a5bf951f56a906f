package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	testCases := []struct {
		name        string
		source      string
		skillID     string
		title       string
		description string
		expected    Category
	}{
		{name: "marketing repository", source: "acme/marketingskills", skillID: "launch", expected: Category{Primary: CategoryBusiness, Subcategory: "marketing"}},
		{name: "web3 repository", source: "acme/web3-audits", skillID: "review", expected: Category{Primary: CategorySecurity, Subcategory: "web3-security"}},
		{name: "office format", source: "anthropics/skills", skillID: "xlsx", expected: Category{Primary: CategoryDocuments}},
		{name: "document conversion", source: "acme/tools", skillID: "documents", title: "Convert documents", expected: Category{Primary: CategoryDocuments}},
		{name: "seo audit", source: "acme/tools", skillID: "seo-audit", expected: Category{Primary: CategoryData, Subcategory: "seo"}},
		{name: "plain seo", source: "acme/tools", skillID: "seo", expected: Category{Primary: CategoryBusiness, Subcategory: "seo"}},
		{name: "pentesting", source: "acme/sec", skillID: "pentest-web", expected: Category{Primary: CategorySecurity, Subcategory: "pentesting"}},
		{name: "identity", source: "acme/tools", skillID: "oauth-setup", expected: Category{Primary: CategorySecurity, Subcategory: "identity-access"}},
		{name: "system design is not creative", source: "acme/tools", skillID: "system-design", expected: Category{Primary: CategoryDevelopment}},
		{name: "visual design", source: "acme/tools", skillID: "visual-design", expected: Category{Primary: CategoryCreative}},
		{name: "playwright is not writing", source: "acme/tools", skillID: "playwright", expected: Category{Primary: CategoryDevelopment, Subcategory: "testing"}},
		{name: "translation", source: "acme/tools", skillID: "translate-docs", expected: Category{Primary: CategoryWriting, Subcategory: "translation"}},
		{name: "warehouse", source: "acme/tools", skillID: "dbt-models", expected: Category{Primary: CategoryData, Subcategory: "data-warehouse"}},
		{name: "collaboration", source: "acme/tools", skillID: "jira-triage", expected: Category{Primary: CategoryCollaboration}},
		{name: "productivity", source: "acme/tools", skillID: "daily-planning", expected: Category{Primary: CategoryProductivity}},
		{name: "devops", source: "acme/tools", skillID: "terraform-modules", expected: Category{Primary: CategoryDevelopment, Subcategory: "devops"}},
		{name: "description decides", source: "acme/misc", skillID: "helper", description: "Builds slide decks as PowerPoint files.", expected: Category{Primary: CategoryDocuments}},
		{name: "default bucket", source: "acme/misc", skillID: "helper", description: "Does many things.", expected: Category{Primary: CategoryDevelopment}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Categorize(tc.source, tc.skillID, tc.title, func() string { return tc.description })
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCategorize_DescriptionReadOnlyWhenNeeded(t *testing.T) {
	read := false
	description := func() string {
		read = true
		return "Extract tables from PDF files."
	}

	assert.Equal(t, CategoryDevelopment, Categorize("acme/tools", "react-hooks", "", description).Primary)
	assert.False(t, read)

	assert.Equal(t, CategoryDocuments, Categorize("acme/misc", "helper", "", description).Primary)
	assert.True(t, read)
}
