package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docthemes/internal/doctree"
)

func parseMarkdown(t *testing.T, input, filename string) *doctree.DocTree {
	t.Helper()
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), filename)
	require.NoError(t, err)
	return tree
}

func TestMarkdownParser_NestsSections(t *testing.T) {
	input := `# Policy Review

Scope of the review.

## Enforcement

Fines were raised.

### Appeals

Appeals take 30 days.

## Costs

Budgets were cut.
`
	tree := parseMarkdown(t, input, "review.md")

	assert.Equal(t, "review", tree.Title)
	require.Len(t, tree.Children, 1)
	top := tree.Children[0]
	assert.Equal(t, "Policy Review", top.Title)
	assert.Equal(t, "Scope of the review.", top.Text)

	require.Len(t, top.Children, 2)
	enforcement, costs := top.Children[0], top.Children[1]
	assert.Equal(t, "Enforcement", enforcement.Title)
	assert.Equal(t, "Fines were raised.", enforcement.Text)
	require.Len(t, enforcement.Children, 1)
	assert.Equal(t, "Appeals", enforcement.Children[0].Title)
	assert.Equal(t, "Appeals take 30 days.", enforcement.Children[0].Text)
	assert.Equal(t, "Costs", costs.Title)
	assert.Empty(t, costs.Children)
}

func TestMarkdownParser_LeadingTextAndCode(t *testing.T) {
	input := "Draft notes.\n\nSecond thought.\n\n## Commands\n\nRun:\n\n```\nmake audit\nmake report\n```\n\nThen file it.\n"
	tree := parseMarkdown(t, input, "notes.md")

	require.Len(t, tree.Children, 2)
	assert.Equal(t, "", tree.Children[0].Title)
	assert.Equal(t, "Draft notes.\n\nSecond thought.", tree.Children[0].Text)

	cmds := tree.Children[1]
	assert.Equal(t, "Commands", cmds.Title)
	assert.Contains(t, cmds.Text, "make audit\nmake report")
	assert.True(t, strings.HasSuffix(cmds.Text, "Then file it."))
}

func TestMarkdownParser_FrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantText  string
	}{
		{"title used", "---\ntitle: Q3 Audit\nauthor: ops\n---\nBody.\n", "Q3 Audit", "Body."},
		{"no title field", "---\nauthor: ops\n---\nBody.\n", "audit", "Body."},
		{"crlf fences", "---\r\ntitle: CRLF\r\n---\r\nBody.\r\n", "CRLF", "Body."},
		{"malformed yaml stripped", "---\ntitle: [unclosed\n---\nBody.\n", "audit", "Body."},
		{"unterminated is body", "---\ntitle: x\nBody.\n", "audit", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := parseMarkdown(t, tc.input, "audit.md")
			assert.Equal(t, tc.wantTitle, tree.Title)
			if tc.wantText == "" {
				assert.NotEmpty(t, tree.Children)
				return
			}
			require.Len(t, tree.Children, 1)
			assert.Equal(t, tc.wantText, tree.Children[0].Text)
		})
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	tree := parseMarkdown(t, "", "empty.md")
	assert.Empty(t, tree.Children)
}
