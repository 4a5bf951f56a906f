package usecase

import (
	"regexp"
	"strings"
)

// CategoryIndexVersion is the format version of the category index.
const CategoryIndexVersion = 3

// Primary categories.
const (
	CategoryDocuments     = "document-processing"
	CategoryDevelopment   = "development-tools"
	CategoryData          = "data-analysis"
	CategoryBusiness      = "business-marketing"
	CategoryWriting       = "communication-writing"
	CategoryCreative      = "creative-media"
	CategoryProductivity  = "productivity"
	CategoryCollaboration = "collaboration"
	CategorySecurity      = "security"
)

// PrimaryCategories lists every primary category in display order.
var PrimaryCategories = []string{
	CategoryDocuments,
	CategoryDevelopment,
	CategoryData,
	CategoryBusiness,
	CategoryWriting,
	CategoryCreative,
	CategoryProductivity,
	CategoryCollaboration,
	CategorySecurity,
}

// Category is the classification of one skill.
type Category struct {
	Primary     string
	Subcategory string
}

// maxDescriptionChars bounds how much of a description is scanned.
const maxDescriptionChars = 2000

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

type wordSet map[string]bool

func splitWords(s string) wordSet {
	set := make(wordSet)
	for _, w := range nonWord.Split(strings.ToLower(s), -1) {
		if w != "" {
			set[w] = true
		}
	}
	return set
}

func (w wordSet) hasAny(tokens ...string) bool {
	for _, t := range tokens {
		if w[t] {
			return true
		}
	}
	return false
}

// containsAny matches substrings. Only use it for multi-word or
// punctuated phrases; short tokens like "ui" would match inside words.
func containsAny(s string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

var (
	documentTokens = []string{"pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "word", "powerpoint", "excel", "epub", "latex", "tex", "ocr"}
	securityTokens = []string{
		"security", "secure", "vuln", "vulnerability", "pentest", "pentesting", "threat", "forensic", "forensics",
		"malware", "exploit", "xss", "csrf", "sqli", "rce", "cve", "crypto", "cryptography", "oauth", "jwt", "auth",
		"authentication", "authorization", "sast", "dast", "appsec", "devsecops", "incident", "response", "solana",
		"mev", "wallet",
	}
	securityPhrases       = []string{"sql-injection", "audit-website", "smart-contract", "smart-contracts", "web3-security"}
	creativeStrongTokens  = []string{"ui", "ux", "figma", "logo", "branding", "illustration", "video", "audio", "music", "remotion", "canvas", "animation", "typography"}
	creativeSoftTokens    = []string{"image", "images", "color", "colors", "visual", "graphics", "graphic"}
	writingTokens         = []string{"copywriting", "blog", "newsletter", "email", "resume", "cv", "cover", "coverletter", "proposal", "grammar", "proofread", "proofreading", "rewrite", "summarize", "summary", "translation", "translate", "translated", "speech", "meeting", "meetingnotes", "docs", "documentation"}
	businessTokens        = []string{"marketing", "sales", "growth", "pricing", "crm", "funnel", "ads", "adwords", "tiktok", "linkedin", "twitter", "campaign", "branding"}
	dataTokens            = []string{"data", "analysis", "analytics", "dashboard", "visualization", "statistics", "forecast", "timeseries", "etl", "warehouse", "bigquery", "snowflake", "dbt", "pandas", "numpy", "jupyter", "spark", "kafka", "bi"}
	collaborationTokens   = []string{"collaboration", "agile", "scrum", "jira", "linear", "trello", "asana", "notion", "confluence", "slack", "teams", "discord"}
	productivityTokens    = []string{"productivity", "workflow", "notes", "note", "todo", "task", "planning", "plan", "calendar", "pomodoro", "brainstorm", "organize", "focus", "habit", "routine"}
	testingTokens         = []string{"playwright", "cypress", "selenium", "jest", "vitest", "pytest", "axe"}
	devopsTokens          = []string{"docker", "kubernetes", "k8s", "terraform", "ansible", "helm", "nix"}
	databaseTokens        = []string{"postgres", "postgresql", "mysql", "sqlite", "mongodb", "redis"}
	frontendTokens        = []string{"react", "next", "nextjs", "vue", "svelte", "angular", "tailwind"}
	aiEngineeringTokens   = []string{"llm", "prompt", "mcp"}
	developmentPhrases    = []string{"best-practices", "bestpractices", "code-review", "codegen"}
	developmentExtraWords = []string{
		"python", "py", "javascript", "js", "typescript", "ts", "node", "nodejs", "go", "golang", "rust", "java",
		"kotlin", "swift", "objectivec", "objc", "c", "cpp", "cxx", "csharp", "dotnet", "php", "ruby", "rails",
		"webpack", "vite", "test", "testing", "a11y", "accessibility", "wcag", "ios", "android", "xcode", "simulator",
		"tmux", "orbstack", "ci", "cd", "github", "git", "aws", "gcp", "azure", "cloudflare", "netlify", "supabase",
		"prompts", "api", "sdk", "cli", "library", "framework", "backend", "frontend", "observability", "logging",
		"tracing", "metrics", "debug", "debugging",
	}
)

// Categorize classifies a skill by its repository, id and title. The
// description is only read when those say nothing recognizable. Rules are
// checked in a fixed order, so the result is deterministic.
func Categorize(source, skillID, title string, description func() string) Category {
	src := strings.ToLower(source)
	key := src + "/" + strings.ToLower(skillID) + " " + strings.ToLower(title)
	w := splitWords(key)

	// Repository level hints.
	switch {
	case strings.Contains(src, "marketing"):
		return Category{Primary: CategoryBusiness, Subcategory: "marketing"}
	case strings.Contains(src, "awesome-web3-security"), strings.Contains(src, "web3"):
		return Category{Primary: CategorySecurity, Subcategory: "web3-security"}
	case strings.Contains(src, "awesome-ai-security"):
		return Category{Primary: CategorySecurity, Subcategory: "ai-security"}
	}

	if w.hasAny(documentTokens...) || containsAny(key, "/pdf", "/docx", "/pptx", "/xlsx") {
		return Category{Primary: CategoryDocuments}
	}
	if w.hasAny("document", "documents", "slides", "spreadsheet") &&
		containsAny(key, "convert", "extract", "parse", "merge", "annotat", "summariz") {
		return Category{Primary: CategoryDocuments}
	}

	// SEO is checked before security so that audits stay with marketing.
	if w.hasAny("seo", "serp") {
		if containsAny(key, "audit", "analy", "report", "keyword") {
			return Category{Primary: CategoryData, Subcategory: "seo"}
		}
		return Category{Primary: CategoryBusiness, Subcategory: "seo"}
	}

	if w.hasAny(securityTokens...) || containsAny(key, securityPhrases...) {
		c := Category{Primary: CategorySecurity}
		switch {
		case w.hasAny("solana", "mev", "wallet", "web3", "ethereum") || containsAny(key, "smart-contract"):
			c.Subcategory = "web3-security"
		case w.hasAny("forensic", "forensics"):
			c.Subcategory = "forensics"
		case w.hasAny("pentest", "pentesting", "exploit"):
			c.Subcategory = "pentesting"
		case w.hasAny("auth", "oauth", "jwt", "authentication", "authorization"):
			c.Subcategory = "identity-access"
		}
		return c
	}

	// "design" alone is too broad (system design); it needs a visual hint.
	if w.hasAny(creativeStrongTokens...) || (w["design"] && (w.hasAny(creativeStrongTokens...) || w.hasAny(creativeSoftTokens...))) {
		return Category{Primary: CategoryCreative}
	}

	if w.hasAny(writingTokens...) || containsAny(key, "cover-letter", "meeting-notes") {
		c := Category{Primary: CategoryWriting}
		if w.hasAny("translate", "translation") {
			c.Subcategory = "translation"
		}
		return c
	}

	if w.hasAny(businessTokens...) || containsAny(key, "facebook-ads") {
		return Category{Primary: CategoryBusiness}
	}

	if w.hasAny(dataTokens...) || containsAny(key, "time-series") {
		c := Category{Primary: CategoryData}
		switch {
		case w.hasAny("sql", "postgres", "postgresql", "mysql", "sqlite"):
			c.Subcategory = "sql"
		case w.hasAny("pandas", "numpy", "jupyter"):
			c.Subcategory = "data-science"
		case w.hasAny("bigquery", "snowflake", "dbt", "warehouse"):
			c.Subcategory = "data-warehouse"
		}
		return c
	}

	if w.hasAny(collaborationTokens...) || containsAny(key, "project-management") {
		return Category{Primary: CategoryCollaboration}
	}

	if w.hasAny(productivityTokens...) || containsAny(key, "time-management") {
		return Category{Primary: CategoryProductivity}
	}

	// Development comes last: many names mention generic engineering words.
	if isDevelopment(w) || containsAny(key, developmentPhrases...) {
		c := Category{Primary: CategoryDevelopment}
		switch {
		case w.hasAny(testingTokens...):
			c.Subcategory = "testing"
		case w.hasAny(devopsTokens...):
			c.Subcategory = "devops"
		case w.hasAny(databaseTokens...):
			c.Subcategory = "databases"
		case w.hasAny(frontendTokens...):
			c.Subcategory = "frontend"
		case w.hasAny(aiEngineeringTokens...):
			c.Subcategory = "ai-engineering"
		}
		return c
	}

	if description != nil {
		if c, ok := categorizeDescription(description()); ok {
			return c
		}
	}
	return Category{Primary: CategoryDevelopment}
}

func isDevelopment(w wordSet) bool {
	for _, tokens := range [][]string{developmentExtraWords, testingTokens, devopsTokens, databaseTokens, frontendTokens, aiEngineeringTokens} {
		if w.hasAny(tokens...) {
			return true
		}
	}
	return false
}

func categorizeDescription(desc string) (Category, bool) {
	desc = strings.ToLower(desc)
	if len(desc) > maxDescriptionChars {
		desc = desc[:maxDescriptionChars]
	}
	if desc == "" {
		return Category{}, false
	}
	w := splitWords(desc)
	switch {
	case w.hasAny("pdf", "docx", "pptx", "xlsx", "spreadsheet", "presentation") || containsAny(desc, "powerpoint", "spreadsheet"):
		return Category{Primary: CategoryDocuments}, true
	case w.hasAny("seo", "marketing", "campaign", "sales"):
		return Category{Primary: CategoryBusiness}, true
	case w.hasAny("security", "vulnerability", "pentest", "forensics") || containsAny(desc, "sql-injection", "smart contract", "audit-website"):
		return Category{Primary: CategorySecurity}, true
	// Dev skills often say "writing code", so only specific writing words count.
	case w.hasAny("copywriting", "proofread", "proofreading", "grammar", "translate", "translation", "resume"):
		return Category{Primary: CategoryWriting}, true
	case w.hasAny("ui", "ux", "figma", "video", "audio", "remotion", "canvas") || containsAny(desc, "user interface", "visual design"):
		return Category{Primary: CategoryCreative}, true
	case w.hasAny("data", "analysis", "analytics", "pandas", "jupyter", "dashboard"):
		return Category{Primary: CategoryData}, true
	case w.hasAny("jira", "slack", "notion", "collaboration", "scrum"):
		return Category{Primary: CategoryCollaboration}, true
	case w.hasAny("productivity", "workflow", "todo", "notes", "planning", "pomodoro"):
		return Category{Primary: CategoryProductivity}, true
	case w.hasAny("playwright", "pytest", "jest", "typescript", "react", "docker", "kubernetes", "ios", "android"):
		return Category{Primary: CategoryDevelopment}, true
	}
	return Category{}, false
}
