package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		wantMeta string
		wantBody string
		wantOK   bool
	}{
		{
			name:     "unix line endings",
			content:  "---\nname: pdf\n---\n# Title\nBody",
			wantMeta: "name: pdf",
			wantBody: "# Title\nBody",
			wantOK:   true,
		},
		{
			name:     "windows line endings",
			content:  "---\r\nname: pdf\r\n---\r\nBody",
			wantMeta: "name: pdf",
			wantBody: "Body",
			wantOK:   true,
		},
		{
			name:     "leading blank lines",
			content:  "\n\n---\nname: pdf\n---\n",
			wantMeta: "name: pdf",
			wantBody: "",
			wantOK:   true,
		},
		{
			name:     "empty block",
			content:  "---\n---\nBody",
			wantMeta: "",
			wantBody: "Body",
			wantOK:   true,
		},
		{
			name:     "no frontmatter",
			content:  "# Just markdown",
			wantBody: "# Just markdown",
			wantOK:   false,
		},
		{
			name:     "unterminated block",
			content:  "---\nname: pdf\nBody",
			wantBody: "---\nname: pdf\nBody",
			wantOK:   false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			meta, body, ok := Split([]byte(tc.content))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantMeta, string(meta))
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte("---\nname: PDF-Tools\ndescription: >\n  Extract text\n  from PDFs.\nallowed-tools:\n  - Read\n---\n# PDF\n"))
	require.NoError(t, err)
	assert.Equal(t, "PDF-Tools", doc.Name)
	assert.Equal(t, "Extract text from PDFs.", doc.Description)
	assert.Equal(t, "# PDF\n", doc.Body)
	assert.True(t, doc.HasFrontmatter)
}

func TestParse_NonStringScalars(t *testing.T) {
	doc, err := Parse([]byte("---\nname: 2048\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, "2048", doc.Name)
}

func TestParse_FallsBackToLineScan(t *testing.T) {
	// Unquoted "key: value" inside the description is invalid YAML.
	doc, err := Parse([]byte("---\nname: review\ndescription: Use when: reviewing code: carefully\n  indented: ignored\n---\nBody"))
	require.NoError(t, err)
	assert.Equal(t, "review", doc.Name)
	assert.Equal(t, "Use when: reviewing code: carefully", doc.Description)
}

func TestParse_InvalidMetadataWithoutKeys(t *testing.T) {
	_, err := Parse([]byte("---\n[unclosed\n---\nBody"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse frontmatter")
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Title\n\nText"))
	require.NoError(t, err)
	assert.False(t, doc.HasFrontmatter)
	assert.Empty(t, doc.Name)
	assert.Equal(t, "# Title\n\nText", doc.Body)
}
