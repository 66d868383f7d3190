package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLParser_SectionsAndTitle(t *testing.T) {
	input := `<html><head><title>  Annual
Report </title><style>p{}</style></head>
<body>
<nav>Home | About</nav>
<p>Preface   text.</p>
<h1>Results</h1>
<p>Revenue <b>grew</b>.</p>
<h2>Costs</h2>
<ul><li>Staff</li><li>Rent</li></ul>
<script>var x = 1;</script>
<h1>Outlook</h1>
<p>Stable.</p>
<aside>Subscribe now</aside>
</body></html>`

	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "report.html")
	require.NoError(t, err)

	assert.Equal(t, "Annual Report", tree.Title)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "", tree.Children[0].Title)
	assert.Equal(t, "Preface text.", tree.Children[0].Text)

	results := tree.Children[1]
	assert.Equal(t, "Results", results.Title)
	assert.Equal(t, "Revenue grew.", results.Text)
	require.Len(t, results.Children, 1)
	assert.Equal(t, "Costs", results.Children[0].Title)
	assert.Equal(t, "Staff\n\nRent", results.Children[0].Text)

	assert.Equal(t, "Outlook", tree.Children[2].Title)
	for _, leaked := range []string{"var x", "Home", "Subscribe"} {
		assert.NotContains(t, tree.Text(), leaked)
	}
}

func TestHTMLParser_TablesAndPre(t *testing.T) {
	input := `<h2>Fines</h2>
<table><tr><th>Region</th><th>Total</th></tr><tr><td>North</td><td>1,200</td></tr></table>
<pre>line one
  line two</pre>`

	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "fines.htm")
	require.NoError(t, err)

	assert.Equal(t, "fines", tree.Title)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Region | Total\n\nNorth | 1,200\n\nline one\n  line two", tree.Children[0].Text)
}

func TestHTMLParser_Fragment(t *testing.T) {
	tree, err := (&HTMLParser{}).Parse(strings.NewReader("<p>hi<br>there</p>"), "dir/page.htm")
	require.NoError(t, err)

	assert.Equal(t, "page", tree.Title)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "hi there", tree.Children[0].Text)
}

func TestHeadingLevel(t *testing.T) {
	for tag, want := range map[string]int{"h1": 1, "h6": 6, "h7": 0, "hr": 0, "p": 0, "h": 0} {
		assert.Equal(t, want, headingLevel(tag), tag)
	}
}
