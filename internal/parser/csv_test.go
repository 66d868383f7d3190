package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_BatchesRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,score\n")
	for i := range 25 {
		fmt.Fprintf(&sb, "user%d,%d\n", i, i*10)
	}

	tree, err := (&CSVParser{}).Parse(strings.NewReader(sb.String()), "scores.csv")
	require.NoError(t, err)

	assert.Equal(t, "scores", tree.Title)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Rows 2-21", tree.Children[0].Title)
	assert.Equal(t, "Rows 22-26", tree.Children[1].Title)
	assert.True(t, strings.HasPrefix(tree.Children[0].Text, "Headers: name, score\n\n"))
	assert.Contains(t, tree.Children[0].Text, "name: user0, score: 0\n")
	assert.Contains(t, tree.Children[1].Text, "name: user24, score: 240\n")
}

func TestCSVParser_RaggedRows(t *testing.T) {
	input := "region,fine\nnorth,100,late filing\nsouth\n"

	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "fines.csv")
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Rows 2-3", tree.Children[0].Title)
	assert.Contains(t, tree.Children[0].Text, "region: north, fine: 100, late filing\nregion: south\n")
}

func TestCSVParser_TabDelimited(t *testing.T) {
	tree, err := (&CSVParser{Comma: '\t'}).Parse(strings.NewReader("year\ttotal\n2024\t9,100\n"), "totals.tsv")
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	assert.Contains(t, tree.Children[0].Text, "year: 2024, total: 9,100")
}

func TestCSVParser_HeaderOnlyOrEmpty(t *testing.T) {
	for name, input := range map[string]string{"empty": "", "header only": "a,b\n"} {
		t.Run(name, func(t *testing.T) {
			tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "t.csv")
			require.NoError(t, err)
			assert.Empty(t, tree.Children)
		})
	}
}
