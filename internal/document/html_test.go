package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html/atom"
)

const page = `<html><body>
<script>ignored()</script>
<center><table><tr><td>Unidade: UBS</td><td>linha um<br>linha dois</td></tr></table></center>
<table border="1" cellpadding="3">
  <tr><th>A</th><th>B</th></tr>
  <tr><td> um </td><td>dois</td></tr>
</table>
<table><tr><td>solto</td></tr></table>
</body></html>`

func TestHTMLDocumentText(t *testing.T) {
	doc, err := ParseHTML([]byte(page))
	require.NoError(t, err)

	text := doc.Text()
	assert.Contains(t, text, "Unidade: UBS")
	assert.Contains(t, text, "dois")
	assert.NotContains(t, text, "ignored")
}

func TestHTMLDocumentTables(t *testing.T) {
	doc, err := ParseHTML([]byte(page))
	require.NoError(t, err)

	tables := doc.Tables()
	require.Len(t, tables, 3)

	marked := doc.TablesWithAttrs(map[string]string{"border": "1", "cellpadding": "3"})
	require.Len(t, marked, 1)
	assert.Equal(t, []string{"A", "B"}, marked[0][0])
	assert.Equal(t, []string{"um", "dois"}, marked[0][1])
}

func TestHTMLDocumentSectionCells(t *testing.T) {
	doc, err := ParseHTML([]byte(page))
	require.NoError(t, err)

	sections := doc.SectionCells(atom.Center)
	require.Len(t, sections, 1)
	require.Len(t, sections[0], 2)
	assert.Equal(t, "Unidade: UBS", sections[0][0])
	assert.Equal(t, "linha um\nlinha dois", sections[0][1])
}
