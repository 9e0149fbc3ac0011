package xpathadapter

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/szenar/core"
	"github.com/npillmayer/szenar/doctree"
	"github.com/stretchr/testify/assert"
)

func scenarioTree(t *testing.T) *doctree.Node {
	t.Helper()
	src := strings.Join([]string{
		":::h1",
		"Intro",
		":::",
		"text with [bold]{weight} and [bold+italic]{both}",
		"hot [highlight color=#800]{spot} and a note [fn]{myref}",
		":::h2",
		"Scene One",
		":::",
		"- a",
		"- b",
		"1. c",
		":::h2",
		"Scene Two",
		":::",
		":::table",
		"A | B",
		"1 | 2",
		":::",
	}, "\n")
	doc := doctree.NewBuilder(nil, nil).Build(src)
	assert.Empty(t, doc.Defects)
	return doc.Root
}

func TestQueryByKindAndLevel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	root := scenarioTree(t)
	headings, err := Query(root, "//heading")
	assert.NoError(t, err)
	if assert.Len(t, headings, 3) {
		assert.Equal(t, "Intro", doctree.InnerText(headings[0]), "results in document order")
	}
	h2s, err := Query(root, "//heading[@level='2']")
	assert.NoError(t, err)
	if assert.Len(t, h2s, 2) {
		assert.Equal(t, "Scene One", doctree.InnerText(h2s[0]))
		assert.Equal(t, "Scene Two", doctree.InnerText(h2s[1]))
	}
}

func TestQueryByKeywords(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	root := scenarioTree(t)
	bold, err := Query(root, "//span[@keywords='bold']")
	assert.NoError(t, err)
	if assert.Len(t, bold, 1) {
		assert.Equal(t, "weight", doctree.InnerText(bold[0]))
	}
	both, err := Query(root, "//span[@keywords='bold+italic']")
	assert.NoError(t, err)
	assert.Len(t, both, 1)
	colored, err := Query(root, "//span[@color='#800']")
	assert.NoError(t, err)
	if assert.Len(t, colored, 1) {
		assert.Equal(t, "spot", doctree.InnerText(colored[0]))
	}
}

func TestQueryListsAndTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	root := scenarioTree(t)
	unordered, err := Query(root, "//list[@ordered='false']//item")
	assert.NoError(t, err)
	assert.Len(t, unordered, 2)
	ordered, err := Query(root, "//list[@ordered='true']//item")
	assert.NoError(t, err)
	if assert.Len(t, ordered, 1) {
		assert.Equal(t, "c", doctree.InnerText(ordered[0]))
	}
	headerCells, err := Query(root, "//row[@header='true']/cell")
	assert.NoError(t, err)
	assert.Len(t, headerCells, 2)
	rows, err := Query(root, "//table/row")
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQueryTextAndRefs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	root := scenarioTree(t)
	texts, err := Query(root, "//heading[@level='1']/text()")
	assert.NoError(t, err)
	if assert.Len(t, texts, 1) {
		assert.Equal(t, doctree.TextNode, texts[0].Kind)
		assert.Equal(t, "Intro", texts[0].Text)
	}
	refs, err := Query(root, "//footnote-ref[@id='myref']")
	assert.NoError(t, err)
	assert.Len(t, refs, 1)
	paras, err := Query(root, "/paragraph")
	assert.NoError(t, err)
	assert.Len(t, paras, 1, "top-level paragraphs sit right below the root")
}

func TestQueryBadExpression(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	_, err := Query(scenarioTree(t), "//heading[")
	assert.Error(t, err)
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestCurrentNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "szenar.doctree")
	defer teardown()
	//
	root := scenarioTree(t)
	nav := NewNavigator(root)
	node, err := CurrentNode(nav)
	assert.NoError(t, err)
	assert.Same(t, root, node)
}
